package store

import (
	"time"

	"MacroPulse/internal/model"
)

// Noop is used when no database is configured.
type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (n *Noop) SaveAggregate(_ *model.AggregateResult) error                 { return nil }
func (n *Noop) RecordDecision(_ *model.FeedbackRecord) (int64, error)        { return 0, nil }
func (n *Noop) PendingDecisions(_ time.Time) ([]model.FeedbackRecord, error) { return nil, nil }
func (n *Noop) MarkEvaluated(_ int64, _ float64, _ model.Direction, _ bool, _ time.Time) error {
	return nil
}
func (n *Noop) ItemOutcomes(_ int, _ int) ([]ItemOutcome, error) { return nil, nil }
func (n *Noop) Close() error                                     { return nil }
