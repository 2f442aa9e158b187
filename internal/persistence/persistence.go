// Package persistence archives published picks and graded results.
//
// The pick archive is a Postgres table keyed by (pick_id, slate_date) so a
// re-run of the same slate is idempotent. The archive is optional: when
// DATABASE_URL is unset the engine runs fully in-memory and grading falls
// back to the NDJSON graded log alone.
package persistence

import (
	"context"
	"time"

	"github.com/slatepick/slatepick/internal/models"
)

// PickRow is one archived pick as stored in pick_history. Result stays NULL
// until the grader settles the pick against a final score.
type PickRow struct {
	ID           int64          `db:"id" json:"id"`
	PickID       string         `db:"pick_id" json:"pick_id"`
	Sport        models.Sport   `db:"sport" json:"sport"`
	SlateDate    string         `db:"slate_date" json:"slate_date"`
	EventID      string         `db:"event_id" json:"event_id"`
	MarketKind   string         `db:"market_kind" json:"market_kind"`
	Market       string         `db:"market" json:"market"`
	Selection    string         `db:"selection" json:"selection"`
	PickSide     string         `db:"pick_side" json:"pick_side"`
	PlayerName   string         `db:"player_name" json:"player_name,omitempty"`
	HomeTeam     string         `db:"home_team" json:"home_team"`
	AwayTeam     string         `db:"away_team" json:"away_team"`
	Line         *float64       `db:"line" json:"line,omitempty"`
	OverUnder    string         `db:"over_under" json:"over_under,omitempty"`
	OddsAmerican *int           `db:"odds_american" json:"odds_american,omitempty"`
	BookKey      models.BookKey `db:"book_key" json:"book_key"`
	Tier         models.Tier    `db:"tier" json:"tier"`
	Units        float64        `db:"units" json:"units"`
	FinalScore   float64        `db:"final_score" json:"final_score"`
	Result       *string        `db:"result" json:"result,omitempty"`
	ClosingOdds  *int           `db:"closing_odds" json:"closing_odds,omitempty"`
	CLV          *float64       `db:"clv" json:"clv,omitempty"`
	GradedAt     *time.Time     `db:"graded_at" json:"graded_at,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}

// Graded reports whether the row has been settled.
func (r PickRow) Graded() bool {
	return r.Result != nil && *r.Result != ""
}

// RowFromCandidate flattens a published candidate into its archive row.
// Pointer fields are copied so the row does not alias pipeline state.
func RowFromCandidate(c models.Candidate, dateStr string) PickRow {
	row := PickRow{
		PickID:     c.PickID,
		Sport:      c.Sport,
		SlateDate:  dateStr,
		EventID:    c.EventID,
		MarketKind: string(c.MarketKind),
		Market:     c.Market,
		Selection:  c.Selection,
		PickSide:   c.PickSide,
		HomeTeam:   c.HomeTeam,
		AwayTeam:   c.AwayTeam,
		OverUnder:  string(c.OverUnder),
		BookKey:    c.BookKey,
		Tier:       c.Tier,
		Units:      c.Units,
		FinalScore: c.FinalScore,
	}
	if c.Player != nil {
		row.PlayerName = c.Player.PlayerName
	}
	if c.Line != nil {
		line := *c.Line
		row.Line = &line
	}
	if c.OddsAmerican != nil {
		odds := *c.OddsAmerican
		row.OddsAmerican = &odds
	}
	return row
}

// Grade carries the settlement written back onto an archived pick.
type Grade struct {
	Result      models.GradeResult
	ClosingOdds *int
	CLV         *float64
	GradedAt    time.Time
}

// PickRepo is the pick archive contract. Implementations tolerate duplicate
// (pick_id, slate_date) inserts so monitor re-runs never error.
type PickRepo interface {
	// Insert archives one pick. The returned bool is false when the row
	// already existed for this slate date.
	Insert(ctx context.Context, row PickRow) (bool, error)

	// Archive inserts a batch and returns how many rows were new.
	Archive(ctx context.Context, rows []PickRow) (int, error)

	// ListByDate returns the archived picks for one sport and slate date,
	// ordered by final score descending.
	ListByDate(ctx context.Context, sport models.Sport, dateStr string) ([]PickRow, error)

	// Ungraded returns archived picks with no result for the given slate
	// date, across all sports when sport is empty.
	Ungraded(ctx context.Context, sport models.Sport, dateStr string) ([]PickRow, error)

	// MarkGraded settles one archived pick.
	MarkGraded(ctx context.Context, pickID, dateStr string, g Grade) error

	// HealthCheck verifies connectivity.
	HealthCheck(ctx context.Context) error
}

// Repository aggregates the storage backends the engine writes to.
type Repository struct {
	Picks PickRepo
}

// NewRepository bundles the repos.
func NewRepository(picks PickRepo) *Repository {
	return &Repository{Picks: picks}
}

// HealthCheck pings every configured backend.
func (r *Repository) HealthCheck(ctx context.Context) RepositoryHealth {
	health := RepositoryHealth{CheckedAt: time.Now().UTC(), Healthy: true}
	if r == nil || r.Picks == nil {
		health.Healthy = false
		health.Errors = append(health.Errors, "picks: not configured")
		return health
	}
	if err := r.Picks.HealthCheck(ctx); err != nil {
		health.Healthy = false
		health.Errors = append(health.Errors, "picks: "+err.Error())
	}
	return health
}

// RepositoryHealth is the aggregate backend health report.
type RepositoryHealth struct {
	Healthy   bool      `json:"healthy"`
	Errors    []string  `json:"errors,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}
