// Package api provides HTTP response utilities for MoodLens.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/BTreeMap/MoodLens/internal/assessment"
	"github.com/BTreeMap/MoodLens/internal/checkin"
	"github.com/BTreeMap/MoodLens/internal/models"
)

// Pre-marshaled fallback responses to avoid runtime JSON encoding failures
var (
	fallbackErrorResponse []byte
)

// init validates that our fallback responses can be marshaled
func init() {
	var err error
	fallbackErrorResponse, err = json.Marshal(models.Error("Internal server error"))
	if err != nil {
		panic(fmt.Sprintf("Failed to marshal fallback error response at startup: %v", err))
	}
}

// writeJSONResponse writes a JSON response to the http.ResponseWriter with the given status code.
func writeJSONResponse(w http.ResponseWriter, statusCode int, response interface{}) {
	// Marshal first so encoding errors surface before headers are written
	jsonData, err := json.Marshal(response)
	if err != nil {
		slog.Error("Server.writeJSONResponse: failed to marshal JSON response", "error", err)
		jsonData = fallbackErrorResponse
		statusCode = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, writeErr := w.Write(jsonData); writeErr != nil {
		slog.Error("Server.writeJSONResponse: failed to write JSON response", "error", writeErr)
	}
}

// clientErrors are reported back to the caller verbatim with 400 Bad Request.
var clientErrors = []error{
	assessment.ErrNoMoodObservations,
	models.ErrNoMoods,
	models.ErrTooManyMoods,
	models.ErrEmptyPeriod,
	models.ErrPeriodTooLong,
	models.ErrEmptyEmotion,
	models.ErrReflectionTooLong,
	models.ErrTooManyReflections,
	models.ErrMissingUserID,
	models.ErrInvalidLimit,
	models.ErrInvalidTrendPayload,
}

// writeServiceError maps a service error to a status code and writes it.
func writeServiceError(w http.ResponseWriter, handler string, err error) {
	if errors.Is(err, checkin.ErrUserNotFound) {
		slog.Warn("Server."+handler+": user not found", "error", err)
		writeJSONResponse(w, http.StatusNotFound, models.Error(err.Error()))
		return
	}
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			slog.Warn("Server."+handler+": validation failed", "error", err)
			writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
			return
		}
	}
	slog.Error("Server."+handler+": internal error", "error", err)
	writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
}

// requireMethod rejects requests whose method is not allowed, setting the Allow header.
func requireMethod(w http.ResponseWriter, r *http.Request, handler, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	slog.Warn("Server."+handler+": method not allowed", "method", r.Method)
	writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
	return false
}
