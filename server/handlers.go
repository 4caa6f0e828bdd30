package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Ashenafi-pixel/canister-games-gateway/gamemath"
	"github.com/Ashenafi-pixel/canister-games-gateway/games/wheel"
	"github.com/Ashenafi-pixel/canister-games-gateway/play"
)

// DefaultSegments is used when /wheel/segments is called without a count.
const DefaultSegments = 10

type segmentsResponse struct {
	Risk     gamemath.Risk   `json:"risk"`
	Segments []wheel.Segment `json:"segments"`
	Fallback bool            `json:"fallback"`
}

type revealRequest struct {
	Cell *int `json:"cell"`
}

func (s *Server) listGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"games": s.svc.Games()})
}

func (s *Server) listFallbacks(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	evs, err := s.svc.Fallbacks(r.Context(), limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"fallbacks": evs})
}

func (s *Server) listResults(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := s.svc.Results(limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": list})
}

func (s *Server) getResult(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Result(chi.URLParam(r, "roundID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// wheelSegments implements GET /wheel/segments?risk=medium&segments=10.
func (s *Server) wheelSegments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	risk := gamemath.ParseRisk(q.Get("risk"))
	count := DefaultSegments
	if v := strings.TrimSpace(q.Get("segments")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "segments must be an integer", "INVALID_ARGUMENT")
			return
		}
		count = n
	}
	segs, fallback, err := s.svc.Segments(r.Context(), risk, count)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, segmentsResponse{Risk: risk, Segments: segs, Fallback: fallback})
}

func (s *Server) wheelSpin(w http.ResponseWriter, r *http.Request) {
	var req play.SpinInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body", "INVALID_BODY")
		return
	}
	if req.Segments == 0 {
		req.Segments = DefaultSegments
	}
	out, err := s.svc.Spin(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) minesStart(w http.ResponseWriter, r *http.Request) {
	var req play.StartInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body", "INVALID_BODY")
		return
	}
	g, err := s.svc.StartMines(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) minesGame(w http.ResponseWriter, r *http.Request) {
	g, err := s.svc.Game(chi.URLParam(r, "gameID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) minesReveal(w http.ResponseWriter, r *http.Request) {
	var req revealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Cell == nil {
		writeError(w, http.StatusBadRequest, "cell required", "INVALID_BODY")
		return
	}
	out, err := s.svc.RevealMines(r.Context(), chi.URLParam(r, "gameID"), *req.Cell)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) minesCashOut(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.CashOut(r.Context(), chi.URLParam(r, "gameID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
