package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Ashenafi-pixel/canister-games-gateway/games"
	"github.com/Ashenafi-pixel/canister-games-gateway/play"
)

// APIError is the standard error response of the gateway.
type APIError struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeError(w http.ResponseWriter, code int, errMsg, codeStr string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(APIError{
		Error:   errMsg,
		Code:    codeStr,
		Message: errMsg,
	})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps service errors to an HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, play.ErrBusy):
		return http.StatusConflict, "GAME_BUSY"
	case errors.Is(err, games.ErrGameFinished):
		return http.StatusConflict, "GAME_FINISHED"
	case errors.Is(err, games.ErrInvalidArgument):
		return http.StatusBadRequest, "INVALID_ARGUMENT"
	case errors.Is(err, play.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, play.ErrApprovalFailed):
		return http.StatusPaymentRequired, "APPROVAL_FAILED"
	case errors.Is(err, play.ErrUnavailable):
		return http.StatusBadGateway, "CANISTER_UNAVAILABLE"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code, codeStr := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	writeError(w, code, err.Error(), codeStr)
}
