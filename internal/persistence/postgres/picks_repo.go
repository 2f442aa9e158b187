package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/slatepick/slatepick/internal/models"
	"github.com/slatepick/slatepick/internal/persistence"
)

// pickRepo implements persistence.PickRepo on PostgreSQL.
type pickRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewPickRepo creates a PostgreSQL pick archive.
func NewPickRepo(db *sqlx.DB, timeout time.Duration) persistence.PickRepo {
	return &pickRepo{db: db, timeout: timeout}
}

const insertPick = `
	INSERT INTO pick_history (
		pick_id, sport, slate_date, event_id, market_kind, market,
		selection, pick_side, player_name, home_team, away_team, line,
		over_under, odds_american, book_key, tier, units, final_score
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		$16, $17, $18
	)`

func pickArgs(row persistence.PickRow) []interface{} {
	return []interface{}{
		row.PickID, row.Sport, row.SlateDate, row.EventID, row.MarketKind,
		row.Market, row.Selection, row.PickSide, row.PlayerName, row.HomeTeam,
		row.AwayTeam, row.Line, row.OverUnder, row.OddsAmerican, row.BookKey,
		row.Tier, row.Units, row.FinalScore,
	}
}

// Insert archives one pick. A unique violation on (pick_id, slate_date)
// means the slate was already archived, so it reports false with no error.
func (r *pickRepo) Insert(ctx context.Context, row persistence.PickRow) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var (
		id        int64
		createdAt time.Time
	)
	query := insertPick + `
	RETURNING id, created_at`
	err := r.db.QueryRowxContext(ctx, query, pickArgs(row)...).Scan(&id, &createdAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert pick %s: %w", row.PickID, err)
	}
	return true, nil
}

// Archive inserts a batch inside one transaction. Duplicates are skipped via
// ON CONFLICT DO NOTHING so a re-run cannot poison the transaction.
func (r *pickRepo) Archive(ctx context.Context, rows []persistence.PickRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := insertPick + `
	ON CONFLICT (pick_id, slate_date) DO NOTHING`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare pick insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, row := range rows {
		res, err := stmt.ExecContext(ctx, pickArgs(row)...)
		if err != nil {
			return 0, fmt.Errorf("failed to archive pick %s: %w", row.PickID, err)
		}
		if n, affErr := res.RowsAffected(); affErr == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit pick archive: %w", err)
	}
	return inserted, nil
}

// ListByDate returns the archived picks for one sport and slate date.
func (r *pickRepo) ListByDate(ctx context.Context, sport models.Sport, dateStr string) ([]persistence.PickRow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT * FROM pick_history
		WHERE sport = $1 AND slate_date = $2
		ORDER BY final_score DESC, pick_id ASC`

	var rows []persistence.PickRow
	if err := r.db.SelectContext(ctx, &rows, query, sport, dateStr); err != nil {
		return nil, fmt.Errorf("failed to list picks for %s %s: %w", sport, dateStr, err)
	}
	return rows, nil
}

// Ungraded returns unsettled picks for a slate date. An empty sport widens
// the query to every sport, which the nightly grader uses.
func (r *pickRepo) Ungraded(ctx context.Context, sport models.Sport, dateStr string) ([]persistence.PickRow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var (
		rows []persistence.PickRow
		err  error
	)
	if sport == "" {
		query := `
			SELECT * FROM pick_history
			WHERE slate_date = $1 AND result IS NULL
			ORDER BY sport ASC, event_id ASC, pick_id ASC`
		err = r.db.SelectContext(ctx, &rows, query, dateStr)
	} else {
		query := `
			SELECT * FROM pick_history
			WHERE sport = $1 AND slate_date = $2 AND result IS NULL
			ORDER BY event_id ASC, pick_id ASC`
		err = r.db.SelectContext(ctx, &rows, query, sport, dateStr)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list ungraded picks for %s: %w", dateStr, err)
	}
	return rows, nil
}

// MarkGraded settles one archived pick.
func (r *pickRepo) MarkGraded(ctx context.Context, pickID, dateStr string, g persistence.Grade) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		UPDATE pick_history
		SET result = $1, closing_odds = $2, clv = $3, graded_at = $4
		WHERE pick_id = $5 AND slate_date = $6`

	res, err := r.db.ExecContext(ctx, query,
		string(g.Result), g.ClosingOdds, g.CLV, g.GradedAt, pickID, dateStr)
	if err != nil {
		return fmt.Errorf("failed to grade pick %s: %w", pickID, err)
	}
	if n, affErr := res.RowsAffected(); affErr == nil && n == 0 {
		return fmt.Errorf("pick %s not archived for %s: %w", pickID, dateStr, sql.ErrNoRows)
	}
	return nil
}

// HealthCheck verifies database connectivity.
func (r *pickRepo) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("pick archive health check failed: %w", err)
	}
	return nil
}
