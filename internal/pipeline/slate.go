package pipeline

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/slatepick/slatepick/internal/clock"
	"github.com/slatepick/slatepick/internal/models"
	"github.com/slatepick/slatepick/internal/providers"
	"github.com/slatepick/slatepick/internal/registry"
)

// slateTask is one provider call scheduled on the fetch fan-out.
type slateTask struct {
	provider string
	run      func(ctx context.Context) error
}

// fetchSlate assembles everything the engines read for one sport and ET day.
// The odds feed is load-bearing: no events means an empty slate. Everything
// else runs on the bounded fan-out and fails soft into provider outcomes.
func (p *Pipeline) fetchSlate(ctx context.Context, sport models.Sport, dateStr string, start, end time.Time) *models.SlateData {
	if !p.bundle.Odds.Configured() {
		if p.bundle.DemoMode {
			p.log.Info().Str("sport", string(sport)).Msg("odds api unconfigured, serving demo slate")
			data := providers.DemoSlate(sport, dateStr, start)
			p.gateEvents(data, start, end)
			return data
		}
		data := newSlate(sport, dateStr)
		data.RecordOutcome(models.ProviderOutcome{
			Provider:  registry.ProviderOddsAPI,
			Status:    models.StatusSkipped,
			Error:     "ODDS_API_KEY not set",
			ErrorCode: models.ErrCodeAPIKeyMissing,
		})
		return data
	}

	data := newSlate(sport, dateStr)
	proof := registry.FromContext(ctx)

	events, lines, err := p.bundle.Odds.FetchOdds(ctx, sport)
	if err != nil {
		p.log.Warn().Err(err).Str("sport", string(sport)).Msg("odds fetch failed, slate is empty")
		data.RecordOutcome(models.ProviderOutcome{
			Provider:  registry.ProviderOddsAPI,
			Status:    statusForErr(err),
			Error:     err.Error(),
			ErrorCode: models.CodeOf(err),
			Proof:     proof.Source(registry.ProviderOddsAPI),
		})
		return data
	}
	data.Events = events
	data.Lines = lines
	p.gateEvents(data, start, end)
	data.RecordOutcome(models.ProviderOutcome{
		Provider: registry.ProviderOddsAPI,
		Status:   models.StatusSuccess,
		Proof:    proof.Source(registry.ProviderOddsAPI),
	})
	if len(data.Events) == 0 {
		return data
	}

	var mu sync.Mutex
	p.runTasks(ctx, data, &mu, p.primaryTasks(data, &mu, dateStr))
	p.runTasks(ctx, data, &mu, p.dependentTasks(data, &mu))
	p.fillSeasonVolume(ctx, data, start)
	return data
}

// gateEvents applies the ET day window and prunes markets belonging to
// events that fell outside it.
func (p *Pipeline) gateEvents(data *models.SlateData, start, end time.Time) {
	res := clock.FilterEventsET(p.clk, data.Events, start, end)
	data.Events = res.Kept
	if n := len(res.DroppedOut) + len(res.DroppedMissing); n > 0 {
		p.log.Debug().
			Int("out_of_window", len(res.DroppedOut)).
			Int("missing_start", len(res.DroppedMissing)).
			Int("kept", len(res.Kept)).
			Msg("time gate dropped events")
	}

	keep := make(map[string]bool, len(data.Events))
	for _, ev := range data.Events {
		keep[ev.EventID] = true
	}
	for id := range data.Lines {
		if !keep[id] {
			delete(data.Lines, id)
		}
	}
	props := data.Props[:0]
	for _, offer := range data.Props {
		if keep[offer.GameID] {
			props = append(props, offer)
		}
	}
	data.Props = props
	listed := data.Listed[:0]
	for _, offer := range data.Listed {
		if keep[offer.GameID] {
			listed = append(listed, offer)
		}
	}
	data.Listed = listed
}

// primaryTasks covers every provider that only needs the event list: ESPN
// enrichment, playbook feeds, props per event, and the ambient signals.
func (p *Pipeline) primaryTasks(data *models.SlateData, mu *sync.Mutex, dateStr string) []slateTask {
	sport := data.Sport
	events := append([]models.Event(nil), data.Events...)
	at := primeTime(events)

	tasks := []slateTask{
		{registry.ProviderESPN, func(ctx context.Context) error {
			return p.fetchScoreboard(ctx, data, mu, events, dateStr)
		}},
		{registry.ProviderPlaybook, func(ctx context.Context) error {
			recs, err := p.bundle.Playbook.Injuries(ctx, sport)
			if err != nil {
				return err
			}
			mu.Lock()
			data.Injuries = recs
			mu.Unlock()
			return nil
		}},
		{registry.ProviderPlaybook, func(ctx context.Context) error {
			splits, err := p.bundle.Playbook.Splits(ctx, sport)
			if err != nil {
				return err
			}
			mu.Lock()
			for id, sp := range splits {
				data.Splits[id] = sp
			}
			mu.Unlock()
			return nil
		}},
		{registry.ProviderPlaybook, func(ctx context.Context) error {
			stats, err := p.bundle.Playbook.TeamStats(ctx, sport)
			if err != nil {
				return err
			}
			mu.Lock()
			for team, st := range stats {
				data.TeamStats[team] = st
			}
			mu.Unlock()
			return nil
		}},
		{registry.ProviderNOAA, func(ctx context.Context) error {
			sw, err := p.bundle.Space.KpIndex(ctx)
			if err != nil {
				return err
			}
			mu.Lock()
			data.Space = &sw
			mu.Unlock()
			return nil
		}},
		{registry.ProviderAstronomy, func(ctx context.Context) error {
			info, err := p.bundle.Astronomy.MoonInfo(ctx, dateStr, at)
			if err != nil {
				fb := providers.FallbackMoon(at)
				mu.Lock()
				data.Moon = &fb
				data.RecordOutcome(models.ProviderOutcome{
					Provider:  registry.ProviderAstronomy,
					Status:    models.StatusFallbackSuccess,
					Error:     err.Error(),
					ErrorCode: models.CodeOf(err),
				})
				mu.Unlock()
				p.log.Debug().Err(err).Msg("astronomy unavailable, synodic moon fallback engaged")
				return nil
			}
			mu.Lock()
			data.Moon = &info
			mu.Unlock()
			return nil
		}},
		{registry.ProviderFinnhub, func(ctx context.Context) error {
			ms, err := p.bundle.Finnhub.Sentiment(ctx)
			if err != nil {
				return err
			}
			mu.Lock()
			data.Market = &ms
			mu.Unlock()
			return nil
		}},
		{registry.ProviderFRED, func(ctx context.Context) error {
			ei, err := p.bundle.FRED.Indicators(ctx)
			if err != nil {
				return err
			}
			mu.Lock()
			data.Econ = &ei
			mu.Unlock()
			return nil
		}},
	}

	for _, ev := range events {
		ev := ev
		tasks = append(tasks,
			slateTask{registry.ProviderOddsAPI, func(ctx context.Context) error {
				offers, err := p.bundle.Odds.FetchProps(ctx, sport, ev.EventID)
				if err != nil {
					return err
				}
				mu.Lock()
				data.Props = append(data.Props, offers...)
				data.Listed = append(data.Listed, offers...)
				mu.Unlock()
				return nil
			}},
			slateTask{registry.ProviderSerpAPI, func(ctx context.Context) error {
				ns, err := p.bundle.News.Consensus(ctx, ev)
				if err != nil {
					return err
				}
				mu.Lock()
				data.News[ev.EventID] = ns
				mu.Unlock()
				return nil
			}},
			slateTask{registry.ProviderTwitter, func(ctx context.Context) error {
				pulse, err := p.bundle.Social.Pulse(ctx, ev)
				if err != nil {
					return err
				}
				mu.Lock()
				data.Social[ev.EventID] = pulse
				mu.Unlock()
				return nil
			}},
		)
	}
	return tasks
}

// dependentTasks covers the fetches that need primary results first: weather
// keyed by venue city, player identity behind the listed props.
func (p *Pipeline) dependentTasks(data *models.SlateData, mu *sync.Mutex) []slateTask {
	sport := data.Sport
	var tasks []slateTask

	if sport.Indoor() {
		data.RecordOutcome(models.ProviderOutcome{
			Provider: registry.ProviderWeather,
			Status:   models.StatusNotRelevant,
		})
	} else {
		for _, ev := range data.Events {
			ev := ev
			venue := data.Venues[ev.EventID]
			tasks = append(tasks, slateTask{registry.ProviderWeather, func(ctx context.Context) error {
				if venue.Indoor {
					mu.Lock()
					data.Weather[ev.EventID] = models.WeatherReport{Relevant: false, IsDome: true}
					mu.Unlock()
					return nil
				}
				rep, err := p.bundle.Weather.Forecast(ctx, sport, venue.City)
				if err != nil {
					return err
				}
				mu.Lock()
				data.Weather[ev.EventID] = rep
				mu.Unlock()
				return nil
			}})
		}
	}

	names := propPlayerNames(data.Props)
	if len(names) > 0 && sport != models.SportNBA {
		// Identity resolution only covers the NBA feed; other sports carry
		// whatever roster facts the slate already has.
		data.RecordOutcome(models.ProviderOutcome{
			Provider: registry.ProviderBallDontLie,
			Status:   models.StatusSkipped,
		})
	} else {
		for _, name := range names {
			name := name
			tasks = append(tasks, slateTask{registry.ProviderBallDontLie, func(ctx context.Context) error {
				pl, err := p.bundle.BDL.FindPlayer(ctx, sport, name)
				if err != nil {
					return err
				}
				if pl == nil {
					return nil
				}
				mu.Lock()
				data.Players[name] = *pl
				mu.Unlock()
				return nil
			}})
		}
	}
	return tasks
}

// fetchScoreboard matches odds events to the ESPN scoreboard, takes status
// of record from it, and pulls venue plus officials per matched game. A
// failed summary degrades the outcome to PARTIAL instead of failing the task.
func (p *Pipeline) fetchScoreboard(ctx context.Context, data *models.SlateData, mu *sync.Mutex, events []models.Event, dateStr string) error {
	games, err := p.bundle.ESPN.Scoreboard(ctx, data.Sport, espnDate(dateStr))
	if err != nil {
		return err
	}

	var summaryErr error
	for i, ev := range events {
		g, ok := providers.MatchScoreboard(games, ev)
		if !ok {
			p.log.Debug().Str("matchup", ev.Matchup()).Msg("no scoreboard match for odds event")
			continue
		}

		mu.Lock()
		if i < len(data.Events) && data.Events[i].EventID == ev.EventID {
			applyStatus(&data.Events[i], g)
		}
		mu.Unlock()

		venue, err := p.bundle.ESPN.Summary(ctx, data.Sport, g.ESPNID)
		if err != nil {
			summaryErr = err
			continue
		}
		mu.Lock()
		data.Venues[ev.EventID] = models.VenueInfo{
			Venue:     venue.Venue,
			City:      venue.City,
			State:     venue.State,
			Indoor:    venue.Indoor,
			Officials: venue.Officials,
		}
		mu.Unlock()
	}

	if summaryErr != nil {
		mu.Lock()
		data.RecordOutcome(models.ProviderOutcome{
			Provider:  registry.ProviderESPN,
			Status:    models.StatusPartial,
			Error:     summaryErr.Error(),
			ErrorCode: models.CodeOf(summaryErr),
			Proof:     registry.FromContext(ctx).Source(registry.ProviderESPN),
		})
		mu.Unlock()
	}
	return nil
}

// fillSeasonVolume batches games-played for resolved NBA prop players. The
// integrity validator drops any prop whose subject still shows zero games.
func (p *Pipeline) fillSeasonVolume(ctx context.Context, data *models.SlateData, start time.Time) {
	if data.Sport != models.SportNBA || len(data.Players) == 0 {
		return
	}
	ids := make([]string, 0, len(data.Players))
	for _, pl := range data.Players {
		if pl.PlayerID != "" {
			ids = append(ids, pl.PlayerID)
		}
	}
	if len(ids) == 0 {
		return
	}
	sort.Strings(ids)

	volumes, err := p.bundle.BDL.SeasonVolume(ctx, data.Sport, seasonFor(start), ids)
	if err != nil {
		p.log.Debug().Err(err).Msg("season volume unavailable")
		return
	}
	for name, pl := range data.Players {
		if games, ok := volumes[pl.PlayerID]; ok {
			pl.GamesPlayedSeason = games
			data.Players[name] = pl
		}
	}
}

// runTasks executes one phase of fetch tasks on the worker pool and records
// one outcome per provider. Outcomes a task recorded itself (moon fallback,
// partial scoreboards, NOT_RELEVANT weather) are kept; a provider that was
// SUCCESS from an earlier phase degrades to PARTIAL when a later task fails.
func (p *Pipeline) runTasks(ctx context.Context, data *models.SlateData, mu *sync.Mutex, tasks []slateTask) {
	if len(tasks) == 0 {
		return
	}

	firstErr := make(map[string]error, len(tasks))
	order := make([]string, 0, len(tasks))
	for _, t := range tasks {
		if _, ok := firstErr[t.provider]; !ok {
			firstErr[t.provider] = nil
			order = append(order, t.provider)
		}
	}

	var errMu sync.Mutex
	p.fanout(len(tasks), func(i int) {
		t := tasks[i]
		if err := t.run(ctx); err != nil {
			errMu.Lock()
			if firstErr[t.provider] == nil {
				firstErr[t.provider] = err
			}
			errMu.Unlock()
			p.log.Debug().Err(err).Str("provider", t.provider).Msg("slate fetch task failed")
		}
	})

	proof := registry.FromContext(ctx)
	mu.Lock()
	defer mu.Unlock()
	for _, provider := range order {
		err := firstErr[provider]
		existing, has := data.Outcomes[provider]
		switch {
		case err == nil && has:
			// Keep what the task (or an earlier phase) recorded.
		case err == nil:
			data.RecordOutcome(models.ProviderOutcome{
				Provider: provider,
				Status:   models.StatusSuccess,
				Proof:    proof.Source(provider),
			})
		case has && existing.Status == models.StatusSuccess:
			data.RecordOutcome(models.ProviderOutcome{
				Provider:  provider,
				Status:    models.StatusPartial,
				Error:     err.Error(),
				ErrorCode: models.CodeOf(err),
				Proof:     proof.Source(provider),
			})
		case has:
			// A fallback or NOT_RELEVANT record outranks a late failure.
		default:
			data.RecordOutcome(models.ProviderOutcome{
				Provider:  provider,
				Status:    statusForErr(err),
				Error:     err.Error(),
				ErrorCode: models.CodeOf(err),
				Proof:     proof.Source(provider),
			})
		}
	}
}

// statusForErr maps a provider error to the outcome status the receipt
// carries. Unconfigured providers are skipped, not failed.
func statusForErr(err error) models.SignalStatus {
	switch models.CodeOf(err) {
	case models.ErrCodeAPIKeyMissing:
		return models.StatusSkipped
	case models.ErrCodeNoDataAvailable, models.ErrCodeNotFound:
		return models.StatusNoData
	default:
		return models.StatusError
	}
}

// applyStatus lets the scoreboard override the odds feed's notion of game
// state. ESPN is the status of record.
func applyStatus(ev *models.Event, g providers.ScoreboardGame) {
	switch g.Status {
	case models.EventInProgress:
		ev.Status = models.EventInProgress
		ev.HasStarted = true
		ev.IsLive = true
	case models.EventFinal:
		ev.Status = models.EventFinal
		ev.HasStarted = true
		ev.IsLive = false
	}
}

// primeTime is the earliest tip on the slate, the reference instant for the
// moon and planetary-hour reads.
func primeTime(events []models.Event) time.Time {
	if len(events) == 0 {
		return time.Time{}
	}
	at := events[0].StartTimeET
	for _, ev := range events[1:] {
		if ev.StartTimeET.Before(at) {
			at = ev.StartTimeET
		}
	}
	return at
}

// propPlayerNames returns the distinct prop subjects in first-seen order.
func propPlayerNames(props []models.PropOffer) []string {
	seen := make(map[string]bool, len(props))
	var names []string
	for _, offer := range props {
		key := strings.ToLower(strings.TrimSpace(offer.PlayerName))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, offer.PlayerName)
	}
	return names
}

// seasonFor maps an ET day to the season label balldontlie expects: the year
// the season tipped off, which flips in October.
func seasonFor(start time.Time) int {
	if start.Month() >= time.October {
		return start.Year()
	}
	return start.Year() - 1
}

func espnDate(dateStr string) string {
	return strings.ReplaceAll(dateStr, "-", "")
}

func newSlate(sport models.Sport, dateStr string) *models.SlateData {
	return &models.SlateData{
		Sport:   sport,
		DateStr: dateStr,
		Lines:   make(map[string][]models.MarketLine),
		Splits:  make(map[string][]models.Split),
		Weather: make(map[string]models.WeatherReport),
		Venues:  make(map[string]models.VenueInfo),
		News:    make(map[string]models.NewsSentiment),
		Social:  make(map[string]models.SocialPulse),

		LineHistory: make(map[string][]models.LinePoint),
		TeamStats:   make(map[string]models.TeamStats),
		PropTrends:  make(map[string]models.PropHistory),
		Players:     make(map[string]models.Player),
		Outcomes:    make(map[string]models.ProviderOutcome),
	}
}
