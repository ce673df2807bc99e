// ABOUTME: Bulk archive and status change across many records of one entity type
// ABOUTME: Each item is guarded and committed independently; rejected items are skipped
package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/studiocrm/db"
	"github.com/harperreed/studiocrm/models"
	"github.com/harperreed/studiocrm/workflow"
)

type BulkAction string

const (
	BulkArchive      BulkAction = "archive"
	BulkStatusChange BulkAction = "status_change"
)

type BulkRequest struct {
	EntityType   models.EntityType    `json:"entityType"`
	Action       BulkAction           `json:"action"`
	IDs          []uuid.UUID          `json:"ids"`
	Versions     map[uuid.UUID]string `json:"versions"`
	TargetStatus string               `json:"targetStatus,omitempty"`
}

// BulkSkip names an item that was not applied and why.
type BulkSkip struct {
	ID      uuid.UUID `json:"id"`
	Code    Code      `json:"code"`
	Message string    `json:"message,omitempty"`
}

type BulkResult struct {
	Affected int        `json:"affected"`
	Skipped  []BulkSkip `json:"skipped,omitempty"`
}

func (r BulkRequest) validate() error {
	f := fieldErrors{}
	if err := checkEntity(r.EntityType); err != nil {
		f.add("entityType", "is not a known entity type")
	}
	if len(r.IDs) == 0 {
		f.add("ids", "must not be empty")
	}

	switch r.Action {
	case BulkArchive:
		if len(f) == 0 && !workflow.Archivable(r.EntityType) {
			f.add("action", fmt.Sprintf("%s records cannot be archived", r.EntityType))
		}
	case BulkStatusChange:
		switch {
		case r.TargetStatus == "":
			f.add("targetStatus", "is required for status_change")
		case r.TargetStatus == models.StatusArchived:
			f.add("targetStatus", "use the archive action")
		case len(f) == 0 && !workflow.IsValidStatus(r.EntityType, r.TargetStatus):
			f.add("targetStatus", "is not a status of "+string(r.EntityType))
		}
	default:
		f.add("action", "must be archive or status_change")
	}
	return f.err()
}

// Bulk applies one action to every listed id. Items failing the guard, the
// graph, or a state check are skipped. A storage failure stops the run and is
// returned together with the count applied so far.
func (e *Engine) Bulk(ctx context.Context, req BulkRequest) (BulkResult, error) {
	var result BulkResult
	if err := req.validate(); err != nil {
		return result, err
	}

	for _, id := range req.IDs {
		err := e.bulkItem(ctx, req, id)
		if err == nil {
			result.Affected++
			continue
		}

		code := CodeOf(err)
		if code == CodeServer {
			e.logger.Printf("bulk %s aborted at %s: %v", req.Action, id, err)
			e.observeBulk(req, result)
			return result, err
		}
		e.logger.Printf("bulk %s skipped %s: %v", req.Action, id, err)
		envelope := ToEnvelope(err)
		result.Skipped = append(result.Skipped, BulkSkip{ID: id, Code: code, Message: envelope.Message})
	}

	e.observeBulk(req, result)
	return result, nil
}

func (e *Engine) bulkItem(ctx context.Context, req BulkRequest, id uuid.UUID) error {
	version := req.Versions[id]

	return e.mutate(ctx, "bulk_"+string(req.Action), req.EntityType, func(repo db.Repository, audit *auditLog) error {
		var (
			s    *subject
			prev string
			next string
			err  error
		)
		switch req.Action {
		case BulkArchive:
			s, prev, err = e.archiveStep(ctx, repo, req.EntityType, id, version)
			next = models.StatusArchived
		default:
			s, prev, err = transitionStep(ctx, repo, req.EntityType, id, req.TargetStatus, version)
			next = req.TargetStatus
		}
		if err != nil {
			return err
		}

		return audit.record(ctx, req.EntityType, s.id(), models.ActivityBulkOperation,
			fmt.Sprintf("Bulk %s: %s to %s", req.Action, prev, next),
			&models.ActivityMetadata{BulkAction: string(req.Action), PreviousStatus: prev, NewStatus: next})
	})
}

func (e *Engine) observeBulk(req BulkRequest, result BulkResult) {
	if e.observer != nil {
		e.observer.ObserveBulk(req.EntityType, string(req.Action), result.Affected, len(result.Skipped))
	}
}
