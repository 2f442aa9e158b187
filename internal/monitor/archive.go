package monitor

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/slatepick/slatepick/internal/persistence"
	"github.com/slatepick/slatepick/internal/pipeline"
)

// archivingRunner archives each run's published picks before returning the
// result. Archive failures are logged and never fail the run; the UNIQUE
// (pick_id, slate_date) constraint makes repeat ticks idempotent.
type archivingRunner struct {
	inner Runner
	repo  persistence.PickRepo
	log   zerolog.Logger
}

// WithArchive decorates a runner with pick archival. A nil repo returns the
// runner unchanged.
func WithArchive(inner Runner, repo persistence.PickRepo, log zerolog.Logger) Runner {
	if repo == nil {
		return inner
	}
	return &archivingRunner{
		inner: inner,
		repo:  repo,
		log:   log.With().Str("component", "archive").Logger(),
	}
}

func (a *archivingRunner) Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error) {
	res, err := a.inner.Run(ctx, req)
	if err != nil || res == nil || len(res.Published) == 0 {
		return res, err
	}

	rows := make([]persistence.PickRow, 0, len(res.Published))
	for _, c := range res.Published {
		rows = append(rows, persistence.RowFromCandidate(c, res.DateStr))
	}
	inserted, aerr := a.repo.Archive(ctx, rows)
	if aerr != nil {
		a.log.Warn().Err(aerr).Str("sport", string(res.Sport)).Msg("pick archive write failed")
		return res, err
	}
	if inserted > 0 {
		a.log.Info().
			Str("sport", string(res.Sport)).
			Str("date", res.DateStr).
			Int("rows", inserted).
			Msg("picks archived")
	}
	return res, err
}
