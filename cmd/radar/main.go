package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"MacroPulse/internal/config"
	"MacroPulse/internal/engine"
	"MacroPulse/internal/feed"
	"MacroPulse/internal/feedback"
	"MacroPulse/internal/history"
	"MacroPulse/internal/metrics"
	"MacroPulse/internal/registry"
	"MacroPulse/internal/scheduler"
	"MacroPulse/internal/store"
	"MacroPulse/internal/util"
)

func main() {
	replayDate := flag.String("replay", "", "replay one session (YYYY-MM-DD) instead of running live")
	flag.Parse()

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := util.NewLogger(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	log.Info().Str("config", cfgPath).Msg("MacroPulse starting")

	// Data source, guarded with the configured timeout and deny-list.
	var raw feed.Source
	if cfg.DataSource.UseMock {
		raw = feed.NewMock()
		log.Warn().Msg("using mock data source")
	} else {
		raw = feed.NewBridgeSource(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	}
	src := feed.NewGuard(raw, cfg.FeedTimeout(), cfg.DataSource.DenyList, log)

	reg, err := registry.Default()
	if err != nil {
		log.Fatal().Err(err).Msg("build registry")
	}
	log.Info().Int("items", reg.Total()).Str("reference", reg.Reference()).Msg("registry loaded")

	var rec store.Recorder
	if cfg.Database.ResultsPath != "" {
		sq, err := store.NewSQLite(cfg.Database.ResultsPath)
		if err != nil {
			log.Warn().Err(err).Msg("results db unavailable, recording disabled")
			rec = store.NewNoop()
		} else {
			rec = sq
		}
	} else {
		rec = store.NewNoop()
	}
	defer rec.Close()

	if *replayDate != "" {
		if err := runReplay(cfg, src, reg, rec, *replayDate, log); err != nil {
			log.Fatal().Err(err).Msg("replay failed")
		}
		return
	}

	runLive(cfg, src, reg, rec, log)
}

func runLive(cfg *config.Config, src feed.Source, reg *registry.Registry, rec store.Recorder, log zerolog.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Metrics.Addr != "" {
		srv := metrics.Serve(cfg.Metrics.Addr)
		defer srv.Shutdown(context.Background())
		log.Info().Str("addr", cfg.Metrics.Addr).Msg("metrics listening")
	}

	eng := engine.New(reg, src, cfg.Engine, log)
	eval := feedback.New(rec, src, reg, log)
	eval.FlatThreshold = cfg.Feedback.FlatThreshold
	eval.Window = cfg.Feedback.Window

	sched := scheduler.New(ctx, eng, eval, rec, cfg.FeedbackHorizon(), log)
	if err := sched.RegisterAll(cfg.Schedule.EvaluateCron, cfg.Schedule.FeedbackCron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	if os.Getenv("RUN_ON_START") == "true" {
		go sched.RunNow()
	}

	log.Info().Msg("MacroPulse running")
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info().Msg("shutdown signal received")
	cancel()
}

func runReplay(cfg *config.Config, src feed.Source, reg *registry.Registry, rec store.Recorder, date string, log zerolog.Logger) error {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return fmt.Errorf("parse replay date %q: %w", date, err)
	}

	bars, err := history.NewStore(cfg.Database.BarsPath)
	if err != nil {
		return fmt.Errorf("open bar cache: %w", err)
	}
	defer bars.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	loader := history.NewLoader(bars, src, reg, log)
	data, err := loader.LoadSession(ctx, day)
	if err != nil {
		return err
	}
	log.Info().Int("bars", data.BarCount()).Str("reference", data.Reference).Msg("session loaded")

	rep := engine.NewReplay(reg, data, cfg.Engine, rec, log)
	results, err := rep.Run(ctx)
	if err != nil {
		return err
	}
	for _, res := range results {
		fmt.Printf("%s  %s\n", res.At.Format("15:04"), res.Summary)
	}
	log.Info().Int("evaluations", len(results)).Msg("replay complete")
	return nil
}
