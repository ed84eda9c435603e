// Package api provides HTTP handlers for MoodLens endpoints.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/BTreeMap/MoodLens/internal/assessment"
	"github.com/BTreeMap/MoodLens/internal/emotion"
	"github.com/BTreeMap/MoodLens/internal/models"
	"github.com/BTreeMap/MoodLens/internal/trend"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// AssessRequest is the body of a stateless POST /assess call.
type AssessRequest struct {
	Moods       map[string]string `json:"moods" jsonschema:"required"`
	Reflections map[string]string `json:"reflections,omitempty"`
	Trend       *trend.Analysis   `json:"trend,omitempty" jsonschema:"description=Optional precomputed trend analysis"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, handler string, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		slog.Warn("Server."+handler+": failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return false
	}
	return true
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, "healthHandler", http.MethodGet) {
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(nil))
}

func (s *Server) emotionsHandler(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, "emotionsHandler", http.MethodGet) {
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(emotion.All()))
}

func (s *Server) resourcesHandler(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, "resourcesHandler", http.MethodGet) {
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(assessment.Catalog()))
}

func (s *Server) createUserHandler(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, "createUserHandler", http.MethodPost) {
		return
	}
	u, err := s.svc.CreateUser(r.Context())
	if err != nil {
		writeServiceError(w, "createUserHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, models.Recorded(u))
}

func (s *Server) checkInHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	if !requireMethod(w, r, "checkInHandler", http.MethodPost) {
		return
	}
	userID := r.PathValue("id")
	var req models.CheckInRequest
	if !decodeJSON(w, r, "checkInHandler", &req) {
		return
	}
	slog.Debug("Server.checkInHandler: parsed check-in", "userID", userID, "moods", len(req.Moods), "reflections", len(req.Reflections))

	res, err := s.svc.Submit(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, "checkInHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, models.Recorded(res))
}

func (s *Server) trendHandler(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, "trendHandler", http.MethodGet) {
		return
	}
	a, err := s.svc.Trend(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "trendHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(a))
}

func (s *Server) assessmentsHandler(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, "assessmentsHandler", http.MethodGet) {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeServiceError(w, "assessmentsHandler", models.ErrInvalidLimit)
			return
		}
		limit = n
	}
	recs, err := s.svc.History(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		writeServiceError(w, "assessmentsHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(recs))
}

// assessHandler runs the engine on the request body without touching storage.
func (s *Server) assessHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	if !requireMethod(w, r, "assessHandler", http.MethodPost) {
		return
	}
	var req AssessRequest
	if !decodeJSON(w, r, "assessHandler", &req) {
		return
	}
	if len(req.Moods) == 0 {
		writeServiceError(w, "assessHandler", assessment.ErrNoMoodObservations)
		return
	}
	check := models.CheckInRequest{Moods: req.Moods, Reflections: req.Reflections}
	if err := check.Validate(); err != nil {
		writeServiceError(w, "assessHandler", err)
		return
	}
	if req.Trend != nil && !validTrend(req.Trend) {
		writeServiceError(w, "assessHandler", models.ErrInvalidTrendPayload)
		return
	}

	a, err := assessment.Assess(req.Moods, req.Reflections, req.Trend)
	if err != nil {
		writeServiceError(w, "assessHandler", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(a))
}

func validTrend(a *trend.Analysis) bool {
	switch a.OverallTrend {
	case trend.DirectionImproving, trend.DirectionStable, trend.DirectionDeclining, trend.DirectionConcerning:
	default:
		return false
	}
	switch a.RiskLevel {
	case trend.RiskLow, trend.RiskModerate, trend.RiskHigh:
		return true
	}
	return false
}
