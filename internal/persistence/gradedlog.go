package persistence

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/slatepick/slatepick/internal/models"
)

// GradedRecord is one settled pick as appended to the graded log.
type GradedRecord struct {
	GradedAt     string             `json:"graded_at"`
	Sport        models.Sport       `json:"sport"`
	SlateDate    string             `json:"slate_date"`
	PickID       string             `json:"pick_id"`
	EventID      string             `json:"event_id"`
	MarketKind   string             `json:"market_kind"`
	Selection    string             `json:"selection"`
	PlayerName   string             `json:"player_name,omitempty"`
	Line         *float64           `json:"line,omitempty"`
	OverUnder    string             `json:"over_under,omitempty"`
	OddsAmerican *int               `json:"odds_american,omitempty"`
	BookKey      models.BookKey     `json:"book_key"`
	Tier         models.Tier        `json:"tier"`
	Units        float64            `json:"units"`
	Result       models.GradeResult `json:"result"`
	ClosingOdds  *int               `json:"closing_odds,omitempty"`
	CLV          *float64           `json:"clv,omitempty"`
	HomeScore    int                `json:"home_score"`
	AwayScore    int                `json:"away_score"`
}

// GradedLog appends settled picks to an NDJSON file, one JSON object per
// line. Appends are serialized so concurrent grading jobs interleave whole
// lines.
type GradedLog struct {
	mu   sync.Mutex
	path string
}

// NewGradedLog points the log at dir/graded_picks.ndjson.
func NewGradedLog(dir string) *GradedLog {
	return &GradedLog{path: filepath.Join(dir, "graded_picks.ndjson")}
}

// Path returns the backing file path.
func (l *GradedLog) Path() string { return l.path }

// Append writes records as NDJSON lines, creating the file on first use.
func (l *GradedLog) Append(records ...GradedRecord) error {
	if len(records) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create graded log dir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open graded log: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to append graded record %s: %w", rec.PickID, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush graded log: %w", err)
	}
	return nil
}

// ReadAll loads every record in the log, skipping blank lines. A missing
// file yields an empty slice.
func (l *GradedLog) ReadAll() ([]GradedRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open graded log: %w", err)
	}
	defer f.Close()

	var records []GradedRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec GradedRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("corrupt graded log line: %w", err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read graded log: %w", err)
	}
	return records, nil
}

// GradedSummary aggregates a slice of graded records.
type GradedSummary struct {
	Total    int     `json:"total"`
	Wins     int     `json:"wins"`
	Losses   int     `json:"losses"`
	Pushes   int     `json:"pushes"`
	Voids    int     `json:"voids"`
	NetUnits float64 `json:"net_units"`
	AvgCLV   float64 `json:"avg_clv"`
}

// Summarize tallies results. Net units treat a win as +units at the taken
// price and a loss as -units; pushes and voids wash.
func Summarize(records []GradedRecord) GradedSummary {
	var s GradedSummary
	var clvSum float64
	var clvN int
	for _, rec := range records {
		s.Total++
		switch rec.Result {
		case models.GradeWin:
			s.Wins++
			s.NetUnits += rec.Units * payoutMultiple(rec.OddsAmerican)
		case models.GradeLoss:
			s.Losses++
			s.NetUnits -= rec.Units
		case models.GradePush:
			s.Pushes++
		case models.GradeVoid:
			s.Voids++
		}
		if rec.CLV != nil {
			clvSum += *rec.CLV
			clvN++
		}
	}
	if clvN > 0 {
		s.AvgCLV = clvSum / float64(clvN)
	}
	return s
}

// payoutMultiple converts American odds into the profit multiple on a win.
// Unknown odds settle at even money.
func payoutMultiple(odds *int) float64 {
	if odds == nil || *odds == 0 {
		return 1
	}
	o := float64(*odds)
	if o > 0 {
		return o / 100
	}
	return 100 / -o
}
