// Package scheduler drives the periodic evaluation and feedback sweeps.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"MacroPulse/internal/engine"
	"MacroPulse/internal/feedback"
	"MacroPulse/internal/store"
)

// Scheduler manages all cron tasks.
type Scheduler struct {
	cron    *cron.Cron
	engine  *engine.Engine
	eval    *feedback.Evaluator
	rec     store.Recorder
	horizon time.Duration
	log     zerolog.Logger
	ctx     context.Context
}

func New(ctx context.Context, eng *engine.Engine, eval *feedback.Evaluator, rec store.Recorder, horizon time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		engine:  eng,
		eval:    eval,
		rec:     rec,
		horizon: horizon,
		log:     log,
		ctx:     ctx,
	}
}

// RegisterAll registers the evaluation and feedback cron tasks.
func (s *Scheduler) RegisterAll(evaluateCron, feedbackCron string) error {
	if _, err := s.cron.AddFunc(evaluateCron, s.evaluateTask); err != nil {
		return fmt.Errorf("register evaluate task: %w", err)
	}
	if _, err := s.cron.AddFunc(feedbackCron, s.feedbackTask); err != nil {
		return fmt.Errorf("register feedback task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info().Msg("scheduler stopped")
}

// RunNow executes one evaluation immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.evaluateTask()
}

func (s *Scheduler) evaluateTask() {
	s.log.Info().Msg("running evaluation")
	res, err := s.engine.Evaluate(s.ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("evaluation failed")
		return
	}
	if err := s.rec.SaveAggregate(res); err != nil {
		s.log.Error().Err(err).Msg("persist aggregate failed")
	}
	if err := s.eval.RecordDecision(res); err != nil {
		s.log.Error().Err(err).Msg("record decision failed")
	}
}

func (s *Scheduler) feedbackTask() {
	n, err := s.eval.EvaluatePending(s.ctx, s.horizon)
	if err != nil {
		s.log.Error().Err(err).Msg("feedback sweep failed")
		return
	}
	if n > 0 {
		for _, sugg := range s.eval.SuggestWeightAdjustments() {
			s.log.Info().
				Int("item", sugg.ItemID).
				Str("symbol", sugg.Symbol).
				Float64("accuracy", sugg.Accuracy).
				Str("action", sugg.Action).
				Msg("weight adjustment suggested")
		}
	}
}
