package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

// maxRecognizeBody bounds a recognize request. Two hands of 21 points
// are a few kilobytes.
const maxRecognizeBody = 64 << 10

// GestureHandler serves the recognizer's gestures and classifies
// snapshots posted over HTTP.
type GestureHandler struct {
	app    *app.App
	logger *slog.Logger
}

// NewGestureHandler creates a GestureHandler backed by a.
func NewGestureHandler(a *app.App, logger *slog.Logger) *GestureHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GestureHandler{app: a, logger: logger.With("component", "api")}
}

type recognizeRequest struct {
	Hands []detector.WireHand `json:"hands"`
}

type gestureResponse struct {
	gesture.GestureStatus
	Count int `json:"count"`
}

type listGesturesResponse struct {
	Gestures []gestureResponse `json:"gestures"`
}

// List handles GET /api/gestures. Each gesture carries its current phase
// and, when a store is configured, how many times it has been recognized.
func (h *GestureHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	counts := map[string]int{}
	if s := h.app.Store(); s != nil {
		c, err := s.Events().CountByGesture()
		if err != nil {
			h.logger.Error("failed to count events", "err", err)
			writeError(w, http.StatusInternalServerError, "Failed to count events")
			return
		}
		counts = c
	}

	statuses := h.app.Gestures()
	response := listGesturesResponse{Gestures: make([]gestureResponse, 0, len(statuses))}
	for _, s := range statuses {
		count := counts[s.Name]
		if s.Name == gesture.NameSwitchContent {
			count = counts[gesture.NameSwitchContentPrevious] + counts[gesture.NameSwitchContentNext]
		}
		response.Gestures = append(response.Gestures, gestureResponse{GestureStatus: s, Count: count})
	}

	writeJSON(w, http.StatusOK, response)
}

// Recognize handles POST /api/recognize. Malformed landmarks are a 400 and
// leave the recognizer untouched.
func (h *GestureHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req recognizeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRecognizeBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	hands, err := detector.FromWire(req.Hands)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.app.Process(r.Context(), hands)
	if err != nil {
		if errors.Is(err, gesture.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("recognition failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Recognition failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Reset handles POST /api/gestures/reset and returns every multi-frame
// gesture to idle.
func (h *GestureHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	h.app.Reset()
	w.WriteHeader(http.StatusNoContent)
}
