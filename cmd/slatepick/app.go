package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/slatepick/slatepick/internal/clock"
	"github.com/slatepick/slatepick/internal/config"
	"github.com/slatepick/slatepick/internal/data/cache"
	"github.com/slatepick/slatepick/internal/fetch"
	"github.com/slatepick/slatepick/internal/grade"
	"github.com/slatepick/slatepick/internal/models"
	"github.com/slatepick/slatepick/internal/monitor"
	"github.com/slatepick/slatepick/internal/persistence"
	"github.com/slatepick/slatepick/internal/persistence/postgres"
	"github.com/slatepick/slatepick/internal/pipeline"
	"github.com/slatepick/slatepick/internal/providers"
	"github.com/slatepick/slatepick/internal/registry"
	"github.com/slatepick/slatepick/internal/secrets"
	slatecontext "github.com/slatepick/slatepick/internal/slate/context"
	"github.com/slatepick/slatepick/internal/telemetry"
)

const cacheMaxEntries = 4096

// app is the dependency graph every subcommand runs over. Construction order
// matters: the fetch client needs the cache, health tracker, and redactor
// before any provider client exists.
type app struct {
	cfg     *config.Config
	tuning  config.Tuning
	tables  slatecontext.Tables
	book    *slatecontext.RefereeBook
	health  *registry.HealthTracker
	reg     *registry.Registry
	metrics *telemetry.Metrics
	store   cache.Store
	bundle  *providers.Bundle
	pipe    *pipeline.Pipeline
	snaps   *monitor.Store
	db      *postgres.Manager
	log     zerolog.Logger
}

// newApp loads configuration and wires the engine stack. An unset
// DATABASE_URL disables the pick archive rather than failing.
func newApp(ctx context.Context, configDir string) (*app, error) {
	cfg := config.Load()

	tuning, err := config.LoadTuning(configDir)
	if err != nil {
		return nil, fmt.Errorf("load tuning: %w", err)
	}
	tables, err := slatecontext.LoadTables(configDir)
	if err != nil {
		return nil, fmt.Errorf("load context tables: %w", err)
	}

	logger := log.With().Str("service", appName).Logger()

	health := registry.NewHealthTracker()
	reg := registry.New(health)
	metrics := telemetry.NewMetrics()
	redactor := secrets.NewRedactor(cfg.SecretValues()...)
	store := cache.NewAuto(ctx, cfg.RedisURL, cacheMaxEntries)
	api := fetch.NewClient(store, health, metrics, redactor)
	bundle := providers.NewBundle(cfg, api)

	book := tables.Book()
	pipe := pipeline.New(pipeline.Deps{
		Config:  cfg,
		Tuning:  tuning,
		Bundle:  bundle,
		Tables:  tables,
		Book:    book,
		Metrics: metrics,
		Clock:   clock.System{},
		Log:     logger,
	})

	db, err := postgres.NewManager(ctx, postgres.DefaultConfig(cfg.DatabaseURL))
	if err != nil {
		return nil, fmt.Errorf("pick archive: %w", err)
	}

	a := &app{
		cfg:     cfg,
		tuning:  tuning,
		tables:  tables,
		book:    book,
		health:  health,
		reg:     reg,
		metrics: metrics,
		store:   store,
		bundle:  bundle,
		pipe:    pipe,
		snaps:   monitor.NewStore(cfg.SnapshotDir, cfg.SnapshotKeep),
		db:      db,
		log:     logger,
	}
	a.attachProbes()
	return a, nil
}

// Close releases the archive pool and the cache backend.
func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.log.Warn().Err(err).Msg("pick archive close failed")
	}
	a.store.Stop()
}

// picksRepo returns the archive repo, or nil when the archive is disabled.
func (a *app) picksRepo() persistence.PickRepo {
	if repos := a.db.Repository(); repos != nil {
		return repos.Picks
	}
	return nil
}

// gradedLog opens the NDJSON graded log under the data root.
func (a *app) gradedLog() *persistence.GradedLog {
	return persistence.NewGradedLog(filepath.Join(a.cfg.DataDir, "graded"))
}

// grader wires a grader over the shared snapshot store and archive.
func (a *app) grader() *grade.Grader {
	return grade.New(a.bundle.ESPN, a.snaps, a.gradedLog(), a.picksRepo(), clock.System{}, a.log)
}

// attachProbes wires connectivity probes for the keyless integrations. Keyed
// providers validate by configuration alone; probing them burns quota.
func (a *app) attachProbes() {
	a.reg.SetProbe(registry.ProviderESPN, func(ctx context.Context) error {
		date := clock.NowET(clock.System{}).Format("20060102")
		_, err := a.bundle.ESPN.Scoreboard(ctx, models.SportNBA, date)
		return err
	})
	a.reg.SetProbe(registry.ProviderNOAA, func(ctx context.Context) error {
		_, err := a.bundle.Space.KpIndex(ctx)
		return err
	})
}

// rollupFlush folds the current provider counters into the day's rollup file.
func (a *app) rollupFlush(context.Context) error {
	now := clock.NowET(clock.System{})
	r := telemetry.BuildRollup(a.metrics.Gatherer(), a.health.SnapshotAll(),
		now.Format("2006-01-02"), now.Format(clock.ISOLayout))
	path, err := telemetry.WriteRollup(filepath.Join(a.cfg.DataDir, "rollups"), r)
	if err != nil {
		return err
	}
	a.log.Debug().Str("path", path).Msg("integration rollup flushed")
	return nil
}

// parseSport validates a --sport flag value.
func parseSport(raw string) (models.Sport, error) {
	sport := models.Sport(strings.ToLower(strings.TrimSpace(raw)))
	if !sport.Valid() {
		return "", fmt.Errorf("unsupported sport %q (nba|nfl|mlb|nhl|ncaab)", raw)
	}
	return sport, nil
}
