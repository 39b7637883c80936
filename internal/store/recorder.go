// Package store persists per-item score rows, per-session aggregate rows
// and feedback decisions. Rows are append-only and keyed by session id plus
// timestamp; duplicate keys are skipped so retried writes are harmless.
package store

import (
	"time"

	"MacroPulse/internal/model"
)

// ItemOutcome pairs one item's persisted score with the realized direction
// of the decision it contributed to.
type ItemOutcome struct {
	FinalScore int
	Realized   model.Direction
}

// Recorder persists evaluation output and feedback state.
type Recorder interface {
	SaveAggregate(res *model.AggregateResult) error
	RecordDecision(rec *model.FeedbackRecord) (int64, error)
	PendingDecisions(before time.Time) ([]model.FeedbackRecord, error)
	MarkEvaluated(id int64, realizedPrice float64, dir model.Direction, correct bool, at time.Time) error
	ItemOutcomes(itemID int, limit int) ([]ItemOutcome, error)
	Close() error
}
