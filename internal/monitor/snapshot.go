// Package monitor re-runs slates on an interval, persists a snapshot per
// sport, and turns the difference between consecutive snapshots into change
// events for the stream and the logs.
package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/slatepick/slatepick/internal/clock"
	"github.com/slatepick/slatepick/internal/models"
)

// SnapPick is the diffable projection of one published pick. It carries the
// fields the monitor compares plus what grading needs to settle the pick;
// receipts stay out of snapshots.
type SnapPick struct {
	PickID       string            `json:"pick_id"`
	EventID      string            `json:"event_id"`
	MarketKind   models.MarketKind `json:"market_kind"`
	Market       string            `json:"market,omitempty"`
	Selection    string            `json:"selection"`
	PlayerName   string            `json:"player_name,omitempty"`
	HomeTeam     string            `json:"home_team,omitempty"`
	AwayTeam     string            `json:"away_team,omitempty"`
	Line         *float64          `json:"line,omitempty"`
	OverUnder    models.OverUnder  `json:"over_under,omitempty"`
	OddsAmerican *int              `json:"odds_american"`
	BookKey      models.BookKey    `json:"book_key,omitempty"`
	Tier         models.Tier       `json:"tier"`
	Units        float64           `json:"units"`
	FinalScore   float64           `json:"final_score"`
}

// InjurySnap is the availability state of one reported player.
type InjurySnap struct {
	PlayerName string              `json:"player_name"`
	Team       string              `json:"team,omitempty"`
	Position   string              `json:"position,omitempty"`
	Status     models.InjuryStatus `json:"status"`
}

// SnapMeta is the metadata block of a snapshot.
type SnapMeta struct {
	Date     string       `json:"date"`
	TakenAt  time.Time    `json:"taken_at"`
	Injuries []InjurySnap `json:"injuries,omitempty"`
}

// Snapshot is the persisted state of one (sport, day) publication. The JSON
// layout (sport, timestamp, picks_count, picks, metadata) is format-stable;
// external tooling reads these files directly.
type Snapshot struct {
	Sport      models.Sport `json:"sport"`
	Timestamp  string       `json:"timestamp"`
	PicksCount int          `json:"picks_count"`
	Picks      []SnapPick   `json:"picks"`
	Metadata   SnapMeta     `json:"metadata"`
}

// Date returns the slate day the snapshot covers.
func (s *Snapshot) Date() string { return s.Metadata.Date }

// Capture projects a publication into snapshot form.
func Capture(sport models.Sport, dateStr string, published []models.Candidate, injuries []models.InjuryRecord, takenAt time.Time) *Snapshot {
	snap := &Snapshot{
		Sport:     sport,
		Timestamp: takenAt.In(clock.ET()).Format(clock.ISOLayout),
		Picks:     make([]SnapPick, 0, len(published)),
		Metadata:  SnapMeta{Date: dateStr, TakenAt: takenAt},
	}
	for _, c := range published {
		sp := SnapPick{
			PickID:     c.PickID,
			EventID:    c.EventID,
			MarketKind: c.MarketKind,
			Market:     c.Market,
			Selection:  c.Selection,
			HomeTeam:   c.HomeTeam,
			AwayTeam:   c.AwayTeam,
			OverUnder:  c.OverUnder,
			BookKey:    c.BookKey,
			Tier:       c.Tier,
			Units:      c.Units,
			FinalScore: c.FinalScore,
		}
		if c.Player != nil {
			sp.PlayerName = c.Player.PlayerName
		}
		if c.Line != nil {
			l := *c.Line
			sp.Line = &l
		}
		if c.OddsAmerican != nil {
			o := *c.OddsAmerican
			sp.OddsAmerican = &o
		}
		snap.Picks = append(snap.Picks, sp)
	}
	snap.PicksCount = len(snap.Picks)
	for _, rec := range injuries {
		snap.Metadata.Injuries = append(snap.Metadata.Injuries, InjurySnap{
			PlayerName: rec.PlayerName,
			Team:       rec.Team,
			Position:   rec.Position,
			Status:     rec.Status,
		})
	}
	return snap
}

// Store persists snapshots under one directory: {sport}_latest.json plus a
// timestamped archive per save. Keep bounds the archive count per sport.
type Store struct {
	root string
	keep int
}

// NewStore returns a snapshot store rooted at dir.
func NewStore(dir string, keep int) *Store {
	if keep < 1 {
		keep = 1
	}
	return &Store{root: dir, keep: keep}
}

// Dir returns the store root.
func (s *Store) Dir() string { return s.root }

// Save writes the archive copy, then swaps {sport}_latest.json into place
// with a tmp write and rename so readers never see a torn file.
func (s *Store) Save(snap *Snapshot) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("snapshot dir %s: %w", s.root, err)
	}
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	stamp := snap.Metadata.TakenAt.In(clock.ET()).Format("20060102_150405")
	archive := filepath.Join(s.root, fmt.Sprintf("%s_%s.json", snap.Sport, stamp))
	if err := os.WriteFile(archive, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", archive, err)
	}

	latest := s.latestPath(snap.Sport)
	tmp := latest + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, latest); err != nil {
		return fmt.Errorf("swap %s: %w", latest, err)
	}
	return nil
}

// Latest loads the current snapshot for a sport. A missing file is not an
// error; the first run has no baseline.
func (s *Store) Latest(sport models.Sport) (*Snapshot, error) {
	raw, err := os.ReadFile(s.latestPath(sport))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read latest snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("parse latest snapshot: %w", err)
	}
	return &snap, nil
}

// First loads the earliest archived snapshot for a slate date. The opening
// archive carries the odds the picks were published at, which grading uses
// as the taken price.
func (s *Store) First(sport models.Sport, dateStr string) (*Snapshot, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot dir: %w", err)
	}

	latest := filepath.Base(s.latestPath(sport))
	var archives []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == latest {
			continue
		}
		if strings.HasPrefix(name, string(sport)+"_") && strings.HasSuffix(name, ".json") {
			archives = append(archives, name)
		}
	}
	sort.Strings(archives)

	for _, name := range archives {
		raw, err := os.ReadFile(filepath.Join(s.root, name))
		if err != nil {
			continue
		}
		var snap Snapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			continue
		}
		if snap.Metadata.Date == dateStr {
			return &snap, nil
		}
	}
	return nil, nil
}

// GC removes the oldest archives beyond the keep bound. The latest file and
// in-flight tmp writes are never touched.
func (s *Store) GC(sport models.Sport) (int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read snapshot dir: %w", err)
	}

	latest := filepath.Base(s.latestPath(sport))
	var archives []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == latest {
			continue
		}
		if strings.HasPrefix(name, string(sport)+"_") && strings.HasSuffix(name, ".json") {
			archives = append(archives, name)
		}
	}
	if len(archives) <= s.keep {
		return 0, nil
	}

	// Timestamps sort lexicographically, oldest first.
	sort.Strings(archives)
	removed := 0
	for _, name := range archives[:len(archives)-s.keep] {
		if err := os.Remove(filepath.Join(s.root, name)); err != nil {
			return removed, fmt.Errorf("remove %s: %w", name, err)
		}
		removed++
	}
	return removed, nil
}

func (s *Store) latestPath(sport models.Sport) string {
	return filepath.Join(s.root, string(sport)+"_latest.json")
}
