// ABOUTME: Entity store over database/sql shared by the SQLite and Postgres backends
// ABOUTME: Provides transactions, placeholder rebinding, and version token generation
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/studiocrm/models"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionMismatch = errors.New("version mismatch")
)

// Repository is the narrow persistence contract the lifecycle engine depends on.
// Update methods are conditional: they only write when the stored version equals
// expectedVersion, and set a fresh Version and UpdatedAt on the passed record.
type Repository interface {
	CreateLead(ctx context.Context, lead *models.Lead) error
	GetLead(ctx context.Context, id uuid.UUID) (*models.Lead, error)
	ListLeads(ctx context.Context, filter ListFilter) ([]models.Lead, error)
	UpdateLead(ctx context.Context, lead *models.Lead, expectedVersion string) error

	CreateClient(ctx context.Context, client *models.Client) error
	GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error)
	ListClients(ctx context.Context, filter ListFilter) ([]models.Client, error)
	UpdateClient(ctx context.Context, client *models.Client, expectedVersion string) error

	CreateEngagement(ctx context.Context, engagement *models.Engagement) error
	GetEngagement(ctx context.Context, id uuid.UUID) (*models.Engagement, error)
	ListEngagements(ctx context.Context, filter ListFilter) ([]models.Engagement, error)
	UpdateEngagement(ctx context.Context, engagement *models.Engagement, expectedVersion string) error

	AppendActivity(ctx context.Context, activity *models.Activity) error
	ListActivities(ctx context.Context, entityType models.EntityType, entityID uuid.UUID) ([]models.Activity, error)
	CountActivities(ctx context.Context, entityType models.EntityType, entityID uuid.UUID) (int, error)

	CountByStatus(ctx context.Context, entityType models.EntityType) ([]models.StatusCount, error)
}

// ListFilter narrows list queries. Archived records are skipped unless
// IncludeArchived is set or Status asks for them explicitly.
type ListFilter struct {
	Status          string
	Query           string
	ClientID        *uuid.UUID
	IncludeArchived bool
	Limit           int
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store implements Repository. A Store returned inside WithTx is bound to that
// transaction; the root Store runs each statement on its own.
type Store struct {
	db      *sql.DB
	q       querier
	dialect Dialect
	clock   *versionClock
}

// NewStore wraps an initialized database.
func NewStore(database *sql.DB, dialect Dialect) *Store {
	return &Store{
		db:      database,
		q:       database,
		dialect: dialect,
		clock:   &versionClock{now: time.Now},
	}
}

// SetClock replaces the wall clock used for version tokens and timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.clock.mu.Lock()
	defer s.clock.mu.Unlock()
	s.clock.now = now
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect reports which backend the store talks to.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithTx runs fn against a transaction-bound Repository, committing when fn
// returns nil and rolling back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(Repository) error) error {
	if _, inTx := s.q.(*sql.Tx); inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	txStore := &Store{db: s.db, q: tx, dialect: s.dialect, clock: s.clock}
	if err := fn(txStore); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return s.q.ExecContext(ctx, s.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return s.q.QueryContext(ctx, s.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return s.q.QueryRowContext(ctx, s.rebind(query), args...)
}

// rebind rewrites ? placeholders into $n for Postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	return rebindDollar(query)
}

func rebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// checkConditionalUpdate turns a zero-row guarded UPDATE into ErrNotFound or
// ErrVersionMismatch depending on whether the row exists.
func (s *Store) checkConditionalUpdate(ctx context.Context, result sql.Result, table string, id uuid.UUID) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}

	var exists int
	err = s.queryRow(ctx, "SELECT COUNT(*) FROM "+table+" WHERE id = ?", id.String()).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return ErrNotFound
	}
	return ErrVersionMismatch
}

// versionClock hands out strictly increasing timestamps so that two writes
// never share a version token, even within one clock tick.
type versionClock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

// next returns a timestamp after both the previous token issued by this
// process and the token being replaced.
func (c *versionClock) next(previous string) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC()
	if !t.After(c.last) {
		t = c.last.Add(time.Nanosecond)
	}
	if previous != "" {
		if prev, err := time.Parse(time.RFC3339Nano, previous); err == nil && !t.After(prev) {
			t = prev.Add(time.Nanosecond)
		}
	}
	c.last = t
	return t
}

// FormatVersion renders a timestamp the way version tokens are stored.
func FormatVersion(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullableUUID(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return id.String()
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func parseNullUUID(ns sql.NullString) *uuid.UUID {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	id, err := uuid.Parse(ns.String)
	if err != nil {
		return nil
	}
	return &id
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

// listClause builds the WHERE/ORDER/LIMIT tail shared by the list queries.
func listClause(filter ListFilter, searchColumns ...string) (string, []interface{}) {
	var where []string
	var args []interface{}

	switch {
	case filter.Status != "":
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	case !filter.IncludeArchived:
		where = append(where, "status <> ?")
		args = append(args, models.StatusArchived)
	}

	if filter.Query != "" && len(searchColumns) > 0 {
		pattern := "%" + strings.ToLower(filter.Query) + "%"
		var ors []string
		for _, col := range searchColumns {
			ors = append(ors, "LOWER(COALESCE("+col+", '')) LIKE ?")
			args = append(args, pattern)
		}
		where = append(where, "("+strings.Join(ors, " OR ")+")")
	}

	if filter.ClientID != nil {
		where = append(where, "client_id = ?")
		args = append(args, filter.ClientID.String())
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}
	clause += " ORDER BY updated_at DESC, id LIMIT ?"
	args = append(args, limit)
	return clause, args
}

func (s *Store) countByStatus(ctx context.Context, table, valueColumn string) ([]models.StatusCount, error) {
	rows, err := s.query(ctx, `
		SELECT status, COUNT(*), CAST(COALESCE(SUM(`+valueColumn+`), 0) AS BIGINT)
		FROM `+table+`
		GROUP BY status
		ORDER BY status
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var counts []models.StatusCount
	for rows.Next() {
		var c models.StatusCount
		if err := rows.Scan(&c.Status, &c.Count, &c.Value); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// CountByStatus returns record counts and summed value per status.
func (s *Store) CountByStatus(ctx context.Context, entityType models.EntityType) ([]models.StatusCount, error) {
	switch entityType {
	case models.EntityLead:
		return s.countByStatus(ctx, "leads", "estimated_value")
	case models.EntityClient:
		return s.countByStatus(ctx, "clients", "0")
	case models.EntityEngagement:
		return s.countByStatus(ctx, "engagements", "value")
	}
	return nil, fmt.Errorf("unknown entity type: %s", entityType)
}
