package context

import (
	"strings"
	"sync"
)

// FoulRate classifies a referee's whistle relative to league average.
type FoulRate string

const (
	FoulLow    FoulRate = "LOW"
	FoulMedium FoulRate = "MEDIUM"
	FoulHigh   FoulRate = "HIGH"
)

// RefLeanMax is the largest Over/Under lean a crew can produce.
const RefLeanMax = 0.15

// rollingMinGames is the sample size at which live tendencies replace the
// static table.
const rollingMinGames = 50

// RefTendency is what the esoteric referee signal reads for one official.
type RefTendency struct {
	Name    string   `yaml:"name" json:"name"`
	Rate    FoulRate `yaml:"rate" json:"rate"`
	OULean  float64  `yaml:"ou_lean" json:"ou_lean"`
	Games   int      `yaml:"games" json:"games"`
	FoulsPG float64  `yaml:"fouls_pg" json:"fouls_pg"`
	Rolling bool     `yaml:"-" json:"rolling"`
}

type rollingRef struct {
	games int
	fouls float64
}

// RefereeBook resolves officials to tendencies: rolling history when a
// referee has enough graded games, the static table otherwise. The weekly
// scheduler job calls Recalculate after grading lands new games.
type RefereeBook struct {
	mu      sync.RWMutex
	static  map[string]RefTendency
	rolling map[string]*rollingRef
	derived map[string]RefTendency

	// League-average fouls per game anchors the LOW/HIGH split.
	leagueAvg float64
}

// NewRefereeBook builds a book over the static table.
func NewRefereeBook(static []RefTendency, leagueAvg float64) *RefereeBook {
	if leagueAvg <= 0 {
		leagueAvg = 40.0
	}
	b := &RefereeBook{
		static:    make(map[string]RefTendency, len(static)),
		rolling:   make(map[string]*rollingRef),
		derived:   make(map[string]RefTendency),
		leagueAvg: leagueAvg,
	}
	for _, t := range static {
		b.static[normalizeRef(t.Name)] = t
	}
	return b
}

// defaultReferees is the factory static table. Names are the officials with
// persistent documented tendencies; everyone else reads MEDIUM.
func defaultReferees() []RefTendency {
	return []RefTendency{
		{Name: "Scott Foster", Rate: FoulHigh, OULean: 0.15, FoulsPG: 44.1},
		{Name: "Tony Brothers", Rate: FoulHigh, OULean: 0.15, FoulsPG: 43.3},
		{Name: "Marc Davis", Rate: FoulMedium, OULean: 0.0, FoulsPG: 40.2},
		{Name: "James Capers", Rate: FoulLow, OULean: -0.15, FoulsPG: 36.8},
		{Name: "Zach Zarba", Rate: FoulLow, OULean: -0.10, FoulsPG: 37.9},
	}
}

// RecordGame folds one graded game's foul total into a referee's rolling
// history. Classification does not move until Recalculate runs.
func (b *RefereeBook) RecordGame(name string, fouls float64) {
	key := normalizeRef(name)
	if key == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.rolling[key]
	if !ok {
		r = &rollingRef{}
		b.rolling[key] = r
	}
	r.games++
	r.fouls += fouls
}

// Recalculate rebuilds derived tendencies from rolling history. Referees
// under the minimum sample keep their static (or MEDIUM) read.
func (b *RefereeBook) Recalculate() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	updated := 0
	for key, r := range b.rolling {
		if r.games < rollingMinGames {
			continue
		}
		avg := r.fouls / float64(r.games)
		t := RefTendency{
			Name:    key,
			Games:   r.games,
			FoulsPG: avg,
			Rolling: true,
		}
		switch {
		case avg >= b.leagueAvg*1.05:
			t.Rate = FoulHigh
			t.OULean = RefLeanMax
		case avg <= b.leagueAvg*0.95:
			t.Rate = FoulLow
			t.OULean = -RefLeanMax
		default:
			t.Rate = FoulMedium
			t.OULean = 0
		}
		b.derived[key] = t
		updated++
	}
	return updated
}

// Tendency resolves one official.
func (b *RefereeBook) Tendency(name string) RefTendency {
	key := normalizeRef(name)
	b.mu.RLock()
	defer b.mu.RUnlock()

	if t, ok := b.derived[key]; ok {
		return t
	}
	if t, ok := b.static[key]; ok {
		return t
	}
	return RefTendency{Name: name, Rate: FoulMedium}
}

// CrewLean aggregates a crew's Over/Under lean, clamped to ±RefLeanMax.
// An empty crew leans nowhere.
func (b *RefereeBook) CrewLean(officials []string) float64 {
	var lean float64
	for _, name := range officials {
		lean += b.Tendency(name).OULean
	}
	if lean > RefLeanMax {
		return RefLeanMax
	}
	if lean < -RefLeanMax {
		return -RefLeanMax
	}
	return lean
}

func normalizeRef(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
