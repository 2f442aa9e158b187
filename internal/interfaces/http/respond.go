package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/slatepick/slatepick/internal/clock"
	"github.com/slatepick/slatepick/internal/models"
	"github.com/slatepick/slatepick/internal/picks"
)

// errorItem is one entry of the errors array.
type errorItem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// errorBody is the wire shape of every error response. RequestID appears
// only on debug requests.
type errorBody struct {
	Status    string      `json:"status"`
	Error     string      `json:"error"`
	Errors    []errorItem `json:"errors"`
	RequestID string      `json:"request_id,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// writeJSON encodes v as-is.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("response encoding failed")
	}
}

// writePublic strips internal timestamp keys before encoding. Payloads on
// the /live surfaces all pass through here.
func (s *Server) writePublic(w http.ResponseWriter, status int, v any) {
	clean, err := picks.Sanitize(v)
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, errorBody{
			Status:    "error",
			Error:     "response sanitization failed",
			Errors:    []errorItem{{Code: models.ErrCodeInternal, Message: err.Error()}},
			Timestamp: clock.ISO(clock.NowET(s.deps.Clock)),
		})
		return
	}
	s.writeJSON(w, status, clean)
}

// writeError renders err into the structured envelope. The HTTP status
// derives from the error code; unknown errors become 500 INTERNAL_ERROR.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, debug bool) {
	var ce *models.CodedError
	if !errors.As(err, &ce) {
		ce = models.NewCodedError(models.ErrCodeInternal, "%s", err.Error())
	}

	body := errorBody{
		Status:    "error",
		Error:     ce.Message,
		Errors:    []errorItem{{Code: ce.Code, Message: ce.Message, Field: ce.Field}},
		Timestamp: clock.ISO(clock.NowET(s.deps.Clock)),
	}
	if debug {
		body.RequestID = RequestID(r.Context())
	}
	s.writeJSON(w, httpStatusFor(ce), body)
}

// httpStatusFor maps error codes to HTTP statuses. An explicit HTTPStatus on
// the error wins.
func httpStatusFor(ce *models.CodedError) int {
	if ce.HTTPStatus != 0 {
		return ce.HTTPStatus
	}
	switch ce.Code {
	case models.ErrCodeInvalidSport, models.ErrCodeInvalidMarket, models.ErrCodeInvalidDate, models.ErrCodeValidation:
		return http.StatusBadRequest
	case models.ErrCodeAPIKeyMissing, models.ErrCodeAPIKeyInvalid:
		return http.StatusUnauthorized
	case models.ErrCodeNotFound:
		return http.StatusNotFound
	case models.ErrCodeRateLimited, models.ErrCodeQuotaExceeded:
		return http.StatusTooManyRequests
	case models.ErrCodeAPIUnavailable, models.ErrCodeServiceUnavailable:
		return http.StatusServiceUnavailable
	case models.ErrCodeAPITimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
