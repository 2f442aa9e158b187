package http

import (
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/slatepick/slatepick/internal/books"
	"github.com/slatepick/slatepick/internal/clock"
	"github.com/slatepick/slatepick/internal/models"
	"github.com/slatepick/slatepick/internal/picks"
	"github.com/slatepick/slatepick/internal/registry"
)

// integrationProbeTimeout bounds each readiness probe on /debug/integrations.
const integrationProbeTimeout = 3 * time.Second

type healthResponse struct {
	Status     string `json:"status"`
	Service    string `json:"service"`
	Version    string `json:"version"`
	Uptime     string `json:"uptime"`
	Time       string `json:"time"`
	Goroutines int    `json:"goroutines"`
	WSClients  int    `json:"ws_clients"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:     "ok",
		Service:    "slatepick",
		Version:    s.deps.Version,
		Uptime:     time.Since(s.started).Round(time.Second).String(),
		Time:       clock.ISO(clock.NowET(s.deps.Clock)),
		Goroutines: runtime.NumGoroutine(),
	}
	if s.deps.Hub != nil {
		resp.WSClients = s.deps.Hub.Subscribers()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type dropSummary struct {
	Validator int `json:"validator"`
	Gate      int `json:"gate"`
}

type bestBetsResponse struct {
	Status      string             `json:"status"`
	Sport       models.Sport       `json:"sport"`
	Date        string             `json:"date"`
	SlateHealth models.SlateHealth `json:"slate_health"`
	PicksCount  int                `json:"picks_count"`
	Picks       []picks.PickCard   `json:"picks"`
	GeneratedAt string             `json:"generated_at"`

	RequestID string            `json:"request_id,omitempty"`
	Receipts  []picks.Receipt   `json:"receipts,omitempty"`
	Proof     *registry.Summary `json:"proof,omitempty"`
	Drops     *dropSummary      `json:"drops,omitempty"`
}

// handleBestBets serves the canonical pick list. Anything that goes wrong
// past parameter validation is a 500 BEST_BETS_FAILED; the underlying cause
// stays in the log, never on the wire.
func (s *Server) handleBestBets(w http.ResponseWriter, r *http.Request) {
	debug := r.URL.Query().Get("debug") == "1"
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error().Interface("panic", rec).Msg("best bets crashed")
			s.writeError(w, r, &models.CodedError{
				Code:       models.ErrCodeBestBetsFailed,
				Message:    "best bets generation failed",
				HTTPStatus: http.StatusInternalServerError,
			}, debug)
		}
	}()

	sport, err := sportVar(r)
	if err != nil {
		s.writeError(w, r, err, debug)
		return
	}

	res, err := s.cache.get(r.Context(), sport)
	if err != nil {
		if models.IsCode(err, models.ErrCodeInvalidSport) || models.IsCode(err, models.ErrCodeInvalidDate) {
			s.writeError(w, r, err, debug)
			return
		}
		s.log.Error().Err(err).Str("sport", string(sport)).Msg("best bets run failed")
		s.writeError(w, r, &models.CodedError{
			Code:       models.ErrCodeBestBetsFailed,
			Message:    "best bets generation failed",
			HTTPStatus: http.StatusInternalServerError,
			Cause:      err,
		}, debug)
		return
	}

	resp := bestBetsResponse{
		Status:      "success",
		Sport:       res.Sport,
		Date:        res.DateStr,
		SlateHealth: res.Health,
		PicksCount:  len(res.Cards),
		Picks:       res.Cards,
		GeneratedAt: res.GeneratedAt,
	}
	if debug {
		resp.RequestID = res.RequestID
		resp.Receipts = res.Receipts
		proof := res.Proof
		resp.Proof = &proof
		resp.Drops = &dropSummary{Validator: len(res.ValidatorDrops), Gate: len(res.GateDrops)}
	}
	s.writePublic(w, http.StatusOK, resp)
}

type lineShopResponse struct {
	Status      string          `json:"status"`
	Sport       models.Sport    `json:"sport"`
	Date        string          `json:"date"`
	Count       int             `json:"count"`
	Outcomes    []books.Outcome `json:"outcomes"`
	GeneratedAt string          `json:"generated_at"`
}

func (s *Server) handleLineShop(w http.ResponseWriter, r *http.Request) {
	sport, err := sportVar(r)
	if err != nil {
		s.writeError(w, r, err, false)
		return
	}
	res, err := s.cache.get(r.Context(), sport)
	if err != nil {
		s.writeError(w, r, err, false)
		return
	}

	outs := books.Shop(res.Data)
	s.writePublic(w, http.StatusOK, lineShopResponse{
		Status:      "success",
		Sport:       res.Sport,
		Date:        res.DateStr,
		Count:       len(outs),
		Outcomes:    outs,
		GeneratedAt: clock.ISO(clock.NowET(s.deps.Clock)),
	})
}

type betslipResponse struct {
	Status      string         `json:"status"`
	Betslip     *books.Betslip `json:"betslip"`
	GeneratedAt string         `json:"generated_at"`
}

func (s *Server) handleBetslip(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := books.BetslipRequest{
		Sport:     models.Sport(strings.ToLower(strings.TrimSpace(q.Get("sport")))),
		GameID:    strings.TrimSpace(q.Get("game_id")),
		BetType:   q.Get("bet_type"),
		Selection: q.Get("selection"),
		Book:      models.BookKey(strings.ToLower(strings.TrimSpace(q.Get("book")))),
	}
	if !req.Sport.Valid() {
		s.writeError(w, r, &models.CodedError{
			Code:    models.ErrCodeInvalidSport,
			Message: "unsupported sport " + strconv.Quote(string(req.Sport)),
			Field:   "sport",
		}, false)
		return
	}

	res, err := s.cache.get(r.Context(), req.Sport)
	if err != nil {
		s.writeError(w, r, err, false)
		return
	}
	slip, err := books.Generate(res.Data, req)
	if err != nil {
		s.writeError(w, r, err, false)
		return
	}
	s.writePublic(w, http.StatusOK, betslipResponse{
		Status:      "success",
		Betslip:     slip,
		GeneratedAt: clock.ISO(clock.NowET(s.deps.Clock)),
	})
}

type integrationsResponse struct {
	Status       string                       `json:"status"`
	Integrations []registry.IntegrationStatus `json:"integrations"`
	Error        string                       `json:"error,omitempty"`
	Errors       []errorItem                  `json:"errors,omitempty"`
	Timestamp    string                       `json:"timestamp"`
}

// handleIntegrations reports every integration's configured/validated state.
// A missing CRITICAL integration turns the whole response into a 503 while
// still carrying the full report, so the operator sees exactly what broke.
func (s *Server) handleIntegrations(w http.ResponseWriter, r *http.Request) {
	report, err := s.deps.Registry.Readiness(r.Context(), integrationProbeTimeout)
	resp := integrationsResponse{
		Status:       "success",
		Integrations: report,
		Timestamp:    clock.ISO(clock.NowET(s.deps.Clock)),
	}
	if err != nil {
		resp.Status = "error"
		resp.Error = err.Error()
		resp.Errors = []errorItem{{Code: models.CodeOf(err), Message: err.Error()}}
		s.writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type esotericCandidate struct {
	PickID            string               `json:"pick_id"`
	EventID           string               `json:"event_id"`
	Matchup           string               `json:"matchup"`
	PickType          string               `json:"pick_type"`
	Selection         string               `json:"selection"`
	Line              *float64             `json:"line,omitempty"`
	Side              models.OverUnder     `json:"side,omitempty"`
	Scores            picks.EngineScores   `json:"scores"`
	SignalsFired      []string             `json:"signals_fired,omitempty"`
	EsotericBreakdown []models.SignalEntry `json:"esoteric_breakdown"`
}

type esotericResponse struct {
	Status       string              `json:"status"`
	Sport        models.Sport        `json:"sport"`
	Date         string              `json:"date"`
	Count        int                 `json:"count"`
	Candidates   []esotericCandidate `json:"candidates"`
	AuthContext  AuthContext         `json:"auth_context"`
	RequestProof registry.Summary    `json:"request_proof"`
	GeneratedAt  string              `json:"generated_at"`
}

// handleEsotericCandidates exposes every scored candidate before validation
// with the full 23-signal breakdown. This is the tuning surface; nothing
// here is a pick.
func (s *Server) handleEsotericCandidates(w http.ResponseWriter, r *http.Request) {
	sport, err := sportVar(r)
	if err != nil {
		s.writeError(w, r, err, true)
		return
	}
	res, err := s.cache.get(r.Context(), sport)
	if err != nil {
		s.writeError(w, r, err, true)
		return
	}

	cands := make([]esotericCandidate, 0, len(res.Scored))
	for _, c := range res.Scored {
		cands = append(cands, esotericCandidate{
			PickID:    c.PickID,
			EventID:   c.EventID,
			Matchup:   c.AwayTeam + " @ " + c.HomeTeam,
			PickType:  c.MarketKind.PickType(),
			Selection: c.Selection,
			Line:      c.Line,
			Side:      c.OverUnder,
			Scores: picks.EngineScores{
				AI:            c.AIScore,
				Research:      c.ResearchScore,
				Esoteric:      c.EsotericScore,
				Jarvis:        c.JarvisScore,
				JasonSimBoost: c.JasonSimBoost,
				Final:         c.FinalScore,
			},
			SignalsFired:      c.SignalsFired,
			EsotericBreakdown: c.Breakdown.Esoteric.OrderedBreakdown(),
		})
	}

	s.writeJSON(w, http.StatusOK, esotericResponse{
		Status:       "success",
		Sport:        res.Sport,
		Date:         res.DateStr,
		Count:        len(cands),
		Candidates:   cands,
		AuthContext:  authFrom(r.Context()),
		RequestProof: res.Proof,
		GeneratedAt:  clock.ISO(clock.NowET(s.deps.Clock)),
	})
}

// handleChanges upgrades to the websocket change feed. Auth happens here
// because websocket clients present the key as a query parameter and the
// upgrade must dodge the timeout middleware.
func (s *Server) handleChanges(w http.ResponseWriter, r *http.Request) {
	if s.deps.Hub == nil {
		s.writeError(w, r, models.NewCodedError(models.ErrCodeServiceUnavailable, "change feed not running"), false)
		return
	}
	if key := s.deps.Config.APIAuthKey; key != "" && presentedKey(r) != key {
		s.writeError(w, r, models.NewCodedError(models.ErrCodeAPIKeyInvalid, "api key rejected"), false)
		return
	}
	s.deps.Hub.ServeWS(w, r)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, &models.CodedError{
		Code:    models.ErrCodeNotFound,
		Message: "no such endpoint: " + r.URL.Path,
	}, false)
}

// sportVar parses and validates the {sport} path variable.
func sportVar(r *http.Request) (models.Sport, error) {
	raw := strings.ToLower(strings.TrimSpace(mux.Vars(r)["sport"]))
	sport := models.Sport(raw)
	if !sport.Valid() {
		return "", &models.CodedError{
			Code:    models.ErrCodeInvalidSport,
			Message: "unsupported sport " + strconv.Quote(raw),
			Field:   "sport",
		}
	}
	return sport, nil
}
