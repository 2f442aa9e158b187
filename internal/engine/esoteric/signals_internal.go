package esoteric

import (
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"time"

	"github.com/slatepick/slatepick/internal/models"
	slatecontext "github.com/slatepick/slatepick/internal/slate/context"
)

const phi = 1.6180339887498949

// fibNumbers is the ladder lines are matched against.
var fibNumbers = []float64{1, 2, 3, 5, 8, 13, 21, 34, 55, 89, 144, 233}

// teslaKeys are the vortex anchors; everything else in mod-9 space walks the
// doubling pattern 1,2,4,8,7,5.
var teslaKeys = map[int]bool{3: true, 6: true, 9: true}

// chromeResonance is the matchup's harmonic fingerprint: a stable hash of
// the pairing and date folded into signal space.
func (e *Engine) chromeResonance(data *models.SlateData, c models.Candidate) models.SignalResult {
	h := hash64(c.HomeTeam + "|" + c.AwayTeam + "|" + data.DateStr)
	value := 0.2 + float64(h%1000)/999.0*0.6
	return models.InternalSignal(value, (value-0.5)*0.2, value >= 0.72,
		fmt.Sprintf("matchup hash resonance %.2f", value))
}

// hurst estimates the rescaled-range exponent of the line history. Above
// 0.5 the move is persistent; below it mean-reverts.
func (e *Engine) hurst(data *models.SlateData, c models.Candidate) models.SignalResult {
	hist := data.LineHistory[models.HistoryKey(c.EventID, c.MarketKind)]
	if len(hist) < 4 {
		return noData(models.SourceInternal, "line history too short")
	}
	series := make([]float64, len(hist))
	for i, p := range hist {
		series[i] = p.Line
	}
	h := hurstExponent(series)
	return models.InternalSignal(h, (h-0.5)*0.3, h >= 0.65,
		fmt.Sprintf("H=%.2f over %d samples", h, len(series)))
}

// hurstExponent is a single-window rescaled-range estimate, clamped to
// [0, 1].
func hurstExponent(series []float64) float64 {
	n := len(series)
	var mean float64
	for _, v := range series {
		mean += v
	}
	mean /= float64(n)

	var cum, minCum, maxCum, sq float64
	for _, v := range series {
		d := v - mean
		cum += d
		if cum < minCum {
			minCum = cum
		}
		if cum > maxCum {
			maxCum = cum
		}
		sq += d * d
	}
	r := maxCum - minCum
	s := math.Sqrt(sq / float64(n))
	if s == 0 || r == 0 {
		return 0.5
	}
	h := math.Log(r/s) / math.Log(float64(n)/2)
	return clamp01(h)
}

// benford checks the slate's first-digit distribution against Benford's
// law. A natural market conforms; a conforming market is readable.
func (e *Engine) benford(data *models.SlateData) models.SignalResult {
	var counts [10]int
	total := 0
	for _, lines := range data.Lines {
		for _, ln := range lines {
			if ln.Line != nil {
				if d := firstDigit(math.Abs(*ln.Line)); d > 0 {
					counts[d]++
					total++
				}
			}
			if ln.OddsAmerican != nil {
				if d := firstDigit(math.Abs(float64(*ln.OddsAmerican))); d > 0 {
					counts[d]++
					total++
				}
			}
		}
	}
	if total < 10 {
		return noData(models.SourceInternal, "too few board numbers")
	}
	var tvd float64
	for d := 1; d <= 9; d++ {
		expected := math.Log10(1 + 1/float64(d))
		observed := float64(counts[d]) / float64(total)
		tvd += math.Abs(observed - expected)
	}
	tvd /= 2
	value := clamp01(1 - tvd*2)
	return models.InternalSignal(value, (value-0.5)*0.2, value >= 0.75,
		fmt.Sprintf("TVD %.2f over %d digits", tvd, total))
}

// biorhythm runs the classic 23/28/33-day cycles for the prop subject.
func (e *Engine) biorhythm(c models.Candidate, day time.Time) models.SignalResult {
	if c.MarketKind != models.MarketPlayerProp || c.Player == nil {
		return skipped("game market")
	}
	if c.Player.Birthdate == "" || day.IsZero() {
		return noData(models.SourceInternal, "no birthdate on file")
	}
	birth, err := time.Parse("2006-01-02", c.Player.Birthdate)
	if err != nil {
		return noData(models.SourceInternal, "unparseable birthdate")
	}
	days := day.Sub(birth).Hours() / 24
	physical := math.Sin(2 * math.Pi * days / 23)
	emotional := math.Sin(2 * math.Pi * days / 28)
	intellectual := math.Sin(2 * math.Pi * days / 33)
	composite := (physical + emotional + intellectual) / 3

	value := 0.5 + composite*0.5
	return models.InternalSignal(value, composite*0.15, math.Abs(composite) >= 0.5,
		fmt.Sprintf("phys %+.2f emo %+.2f intel %+.2f at day %.0f", physical, emotional, intellectual, days))
}

// lifePath reduces the prop subject's birthdate to its numerology path.
func (e *Engine) lifePath(c models.Candidate) models.SignalResult {
	if c.MarketKind != models.MarketPlayerProp || c.Player == nil {
		return skipped("game market")
	}
	if c.Player.Birthdate == "" {
		return noData(models.SourceInternal, "no birthdate on file")
	}
	birth, err := time.Parse("2006-01-02", c.Player.Birthdate)
	if err != nil {
		return noData(models.SourceInternal, "unparseable birthdate")
	}
	path := reduceMaster(digitSum(birth.Year()) + digitSum(int(birth.Month())) + digitSum(birth.Day()))
	switch {
	case path == 11 || path == 22 || path == 33:
		return models.InternalSignal(0.85, 0.08, true, fmt.Sprintf("master path %d", path))
	case path == 3 || path == 7 || path == 9:
		return models.InternalSignal(0.7, 0.04, false, fmt.Sprintf("path %d", path))
	}
	return models.InternalSignal(0.5, 0, false, fmt.Sprintf("path %d", path))
}

// foundersEcho checks whether the slate lands near the franchise's echo day
// of the year, derived stably from the team name.
func (e *Engine) foundersEcho(c models.Candidate, day time.Time) models.SignalResult {
	if day.IsZero() {
		return noData(models.SourceInternal, "no slate date")
	}
	anniversary := int(hash64(c.HomeTeam)%365) + 1
	doy := day.YearDay()
	dist := cyclicDistance(doy, anniversary, 365)
	if dist <= 3 {
		return models.InternalSignal(0.8, 0.06, true,
			fmt.Sprintf("echo day %d within %d days", anniversary, dist))
	}
	value := 0.5 + (1-math.Min(1, float64(dist)/180))*0.2
	return models.InternalSignal(value, 0, false, fmt.Sprintf("echo day %d, %d days out", anniversary, dist))
}

// gannSquare places the line on the square of nine and rewards cardinal and
// diagonal crossings.
func (e *Engine) gannSquare(c models.Candidate) models.SignalResult {
	if c.Line == nil {
		return skipped("no line to square")
	}
	l := math.Abs(*c.Line)
	if l == 0 {
		return skipped("pick'em line")
	}
	angle := math.Mod(math.Sqrt(l), 1) * 360
	m := math.Mod(angle, 45)
	dist := math.Min(m, 45-m)
	if dist <= 7.5 {
		return models.InternalSignal(0.75, 0.05, true,
			fmt.Sprintf("angle %.0f on a crossing", angle))
	}
	value := 0.65 - dist/45*0.3
	return models.InternalSignal(value, 0, false, fmt.Sprintf("angle %.0f off-crossing", angle))
}

// fiftyRetrace checks whether the current line sits at the midpoint of its
// sampled range.
func (e *Engine) fiftyRetrace(data *models.SlateData, c models.Candidate) models.SignalResult {
	hist := data.LineHistory[models.HistoryKey(c.EventID, c.MarketKind)]
	if len(hist) < 3 {
		return noData(models.SourceInternal, "line history too short")
	}
	lo, hi := hist[0].Line, hist[0].Line
	for _, p := range hist {
		if p.Line < lo {
			lo = p.Line
		}
		if p.Line > hi {
			hi = p.Line
		}
	}
	span := hi - lo
	if span < 0.5 {
		return models.InternalSignal(0.5, 0, false, "range too tight to retrace")
	}
	mid := lo + span/2
	cur := hist[len(hist)-1].Line
	if math.Abs(cur-mid) <= span*0.1 {
		return models.InternalSignal(0.75, 0.06, true,
			fmt.Sprintf("line %.1f at 50%% of [%.1f, %.1f]", cur, lo, hi))
	}
	return models.InternalSignal(0.5, 0, false,
		fmt.Sprintf("line %.1f off the midpoint of [%.1f, %.1f]", cur, lo, hi))
}

// vortex reduces the line through mod-9 vortex math. Tesla keys carry the
// full boost; the doubling pattern a smaller one.
func (e *Engine) vortex(c models.Candidate) models.SignalResult {
	n, ok := signalNumber(c)
	if !ok {
		return skipped("no number to reduce")
	}
	root := digitRoot9(n)
	if teslaKeys[root] {
		return models.InternalSignal(0.9, 0.15, true, fmt.Sprintf("root %d is a Tesla key", root))
	}
	return models.InternalSignal(0.7, 0.08, false, fmt.Sprintf("root %d in the doubling pattern", root))
}

// fibonacci matches the line against the Fibonacci ladder.
func (e *Engine) fibonacci(c models.Candidate) models.SignalResult {
	target, ok := signalValue(c)
	if !ok {
		return skipped("no number to match")
	}
	for _, f := range fibNumbers {
		diff := math.Abs(target - f)
		if diff < 1e-9 {
			return models.InternalSignal(1.0, 0.10, true, fmt.Sprintf("%.1f is Fibonacci", target))
		}
		if diff <= 0.5 {
			return models.InternalSignal(0.75, 0.05, true, fmt.Sprintf("%.1f near Fibonacci %.0f", target, f))
		}
	}
	return models.InternalSignal(0.45, 0, false, fmt.Sprintf("%.1f off the ladder", target))
}

// phiAlignment checks whether the line divides by the golden ratio into a
// near-integer.
func (e *Engine) phiAlignment(c models.Candidate) models.SignalResult {
	target, ok := signalValue(c)
	if !ok || target == 0 {
		return skipped("no number to align")
	}
	ratio := target / phi
	frac := math.Abs(ratio - math.Round(ratio))
	if frac <= 0.05 {
		return models.InternalSignal(0.8, 0.05, true,
			fmt.Sprintf("%.1f/phi = %.2f aligned", target, ratio))
	}
	return models.InternalSignal(0.5-frac*0.2, 0, false,
		fmt.Sprintf("%.1f/phi = %.2f off", target, ratio))
}

// tesla369 reduces the slate date plus the line through mod 9.
func (e *Engine) tesla369(c models.Candidate, day time.Time) models.SignalResult {
	if day.IsZero() {
		return noData(models.SourceInternal, "no slate date")
	}
	n := int(day.Month())*100 + day.Day()
	if c.Line != nil {
		n += int(math.Round(math.Abs(*c.Line)))
	}
	root := digitRoot9(n)
	if teslaKeys[root] {
		return models.InternalSignal(0.8, 0.09, true, fmt.Sprintf("date+line root %d", root))
	}
	return models.InternalSignal(0.45, -0.015, false, fmt.Sprintf("date+line root %d", root))
}

// altitude applies the venue altitude table. The adjustment carries into
// the score unscaled.
func (e *Engine) altitude(c models.Candidate) models.SignalResult {
	adj := slatecontext.AltitudeAdjust(e.tables.Altitude, c.Sport, c.HomeTeam, c.MarketKind, c.PickSide, c.OverUnder)
	if adj == 0 {
		return models.InternalSignal(0.5, 0, false, "no altitude rule for venue")
	}
	return models.InternalSignal(clamp01(0.5+adj), adj, true,
		fmt.Sprintf("altitude adjustment %+.2f at %s", adj, c.HomeTeam))
}

// travel weighs both sides' travel spots against the pick.
func (e *Engine) travel(data *models.SlateData, c models.Candidate) models.SignalResult {
	pickTeam, oppTeam := pickTeams(c)
	pick, pok := data.TeamStats[pickTeam]
	opp, ook := data.TeamStats[oppTeam]
	if !pok || !ook {
		return noData(models.SourceInternal, "team stats unavailable")
	}
	pickSpot := slatecontext.TravelFatigue(pick.TravelMiles, pick.RestDays, pick.BackToBack)
	oppSpot := slatecontext.TravelFatigue(opp.TravelMiles, opp.RestDays, opp.BackToBack)

	// Opponent fatigue helps the pick; own fatigue hurts it.
	contribution := pickSpot.Lean - oppSpot.Lean
	if contribution > slatecontext.RefLeanMax {
		contribution = slatecontext.RefLeanMax
	}
	if contribution < -slatecontext.RefLeanMax {
		contribution = -slatecontext.RefLeanMax
	}
	triggered := pickSpot.Impact == slatecontext.TravelHigh || oppSpot.Impact == slatecontext.TravelHigh ||
		pickSpot.Impact == slatecontext.TravelMedium || oppSpot.Impact == slatecontext.TravelMedium
	return models.InternalSignal(clamp01(0.5+contribution), contribution, triggered,
		fmt.Sprintf("pick %s (%.2f), opponent %s (%.2f)", pickSpot.Impact, pickSpot.Fatigue, oppSpot.Impact, oppSpot.Fatigue))
}

// signalNumber extracts an integer for digit reduction: the line in tenths
// when present, the odds otherwise.
func signalNumber(c models.Candidate) (int, bool) {
	if c.Line != nil {
		return int(math.Round(math.Abs(*c.Line) * 10)), true
	}
	if c.OddsAmerican != nil {
		n := *c.OddsAmerican
		if n < 0 {
			n = -n
		}
		return n, true
	}
	return 0, false
}

// signalValue extracts the magnitude for ladder matching: line preferred,
// odds as fallback.
func signalValue(c models.Candidate) (float64, bool) {
	if c.Line != nil {
		return math.Abs(*c.Line), true
	}
	if c.OddsAmerican != nil {
		return math.Abs(float64(*c.OddsAmerican)), true
	}
	return 0, false
}

// pickTeams resolves the candidate's team and its opponent.
func pickTeams(c models.Candidate) (string, string) {
	if c.Player != nil && c.Player.Team != "" {
		if strings.EqualFold(c.Player.Team, c.AwayTeam) {
			return c.AwayTeam, c.HomeTeam
		}
		return c.HomeTeam, c.AwayTeam
	}
	if strings.EqualFold(c.PickSide, c.AwayTeam) {
		return c.AwayTeam, c.HomeTeam
	}
	return c.HomeTeam, c.AwayTeam
}

// digitRoot9 is the mod-9 vortex reduction; zero maps to 9 for positive
// input.
func digitRoot9(n int) int {
	if n <= 0 {
		return 0
	}
	r := n % 9
	if r == 0 {
		return 9
	}
	return r
}

// reduceMaster collapses to a single digit, preserving 11, 22 and 33.
func reduceMaster(n int) int {
	for n > 9 && n != 11 && n != 22 && n != 33 {
		n = digitSum(n)
	}
	return n
}

func digitSum(n int) int {
	if n < 0 {
		n = -n
	}
	sum := 0
	for n > 0 {
		sum += n % 10
		n /= 10
	}
	return sum
}

func cyclicDistance(a, b, mod int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if mod-d < d {
		return mod - d
	}
	return d
}

func firstDigit(v float64) int {
	for v >= 10 {
		v /= 10
	}
	if v < 1 {
		return 0
	}
	return int(v)
}

func hash64(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}
