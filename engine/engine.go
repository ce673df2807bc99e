// ABOUTME: Lifecycle engine coordinating guarded writes, transitions, and auditing
// ABOUTME: Every mutation runs in one store transaction and appends its activities before commit
package engine

import (
	"context"
	"io"
	"log"
	"strings"
	"time"

	"github.com/harperreed/studiocrm/db"
	"github.com/harperreed/studiocrm/models"
)

// Store is the persistence contract: a Repository that can also open a
// transaction and hand out a Repository bound to it.
type Store interface {
	db.Repository
	WithTx(ctx context.Context, fn func(db.Repository) error) error
}

// Publisher receives activities after the transaction that wrote them commits.
type Publisher interface {
	Publish(ctx context.Context, activity models.Activity) error
}

// Observer receives one call per engine mutation and per bulk run.
type Observer interface {
	ObserveOperation(op string, entity models.EntityType, outcome string, elapsed time.Duration)
	ObserveBulk(entity models.EntityType, action string, affected, skipped int)
}

// DefaultActor is recorded as performer when the context carries none.
const DefaultActor = "admin"

type Engine struct {
	store     Store
	logger    *log.Logger
	publisher Publisher
	observer  Observer
	now       func() time.Time
	actor     string
}

type Option func(*Engine)

// WithLogger routes engine diagnostics to l.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithPublisher(p Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithClock overrides the time source for archive stamps and activity times.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithDefaultActor sets the performer used when the context has no actor.
func WithDefaultActor(actor string) Option {
	return func(e *Engine) {
		if actor != "" {
			e.actor = actor
		}
	}
}

func New(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		logger: log.New(io.Discard, "", 0),
		now:    time.Now,
		actor:  DefaultActor,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type actorKey struct{}

// WithActor returns a context whose mutations are attributed to actor.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func (e *Engine) actorFrom(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && strings.TrimSpace(actor) != "" {
		return strings.TrimSpace(actor)
	}
	return e.actor
}

// mutate runs fn inside one transaction with an audit log bound to it.
// Activities are published only after a successful commit.
func (e *Engine) mutate(ctx context.Context, op string, entity models.EntityType, fn func(repo db.Repository, audit *auditLog) error) error {
	start := time.Now()
	audit := e.newAuditLog(ctx)

	err := e.store.WithTx(ctx, func(repo db.Repository) error {
		audit.bind(repo)
		return fn(repo, audit)
	})
	err = translate(err, string(entity))
	e.observe(op, entity, err, start)
	if err != nil {
		return err
	}

	e.publish(ctx, audit.recorded)
	return nil
}

func (e *Engine) observe(op string, entity models.EntityType, err error, start time.Time) {
	if e.observer == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = strings.ToLower(string(CodeOf(err)))
	}
	e.observer.ObserveOperation(op, entity, outcome, time.Since(start))
}

func (e *Engine) publish(ctx context.Context, activities []models.Activity) {
	if e.publisher == nil {
		return
	}
	for _, a := range activities {
		if err := e.publisher.Publish(ctx, a); err != nil {
			e.logger.Printf("failed to publish activity %s: %v", a.ID, err)
		}
	}
}
