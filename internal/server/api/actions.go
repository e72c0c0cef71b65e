package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/store"
)

// maxActionBody bounds a binding request; configs are small key maps.
const maxActionBody = 16 << 10

// ActionHandler serves CRUD over gesture-to-plugin bindings.
type ActionHandler struct {
	store   *store.Store
	plugins *plugin.Manager
}

// NewActionHandler creates an ActionHandler. When plugins is non-nil,
// bindings must name a discovered plugin and one of its actions.
func NewActionHandler(s *store.Store, plugins *plugin.Manager) *ActionHandler {
	return &ActionHandler{store: s, plugins: plugins}
}

// ServeHTTP routes /api/actions and /api/actions/{id}.
func (h *ActionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/actions"), "/")

	switch {
	case id == "" && r.Method == http.MethodGet:
		h.list(w)
	case id == "" && r.Method == http.MethodPost:
		h.create(w, r)
	case id != "" && r.Method == http.MethodGet:
		h.get(w, id)
	case id != "" && r.Method == http.MethodPut:
		h.update(w, r, id)
	case id != "" && r.Method == http.MethodDelete:
		h.delete(w, id)
	default:
		methodNotAllowed(w)
	}
}

// actionRequest is the body of POST and PUT. On PUT, empty fields keep
// their stored value.
type actionRequest struct {
	Gesture    string          `json:"gesture"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    *bool           `json:"enabled"`
}

func (req *actionRequest) required() string {
	switch {
	case req.Gesture == "":
		return "gesture is required"
	case req.PluginName == "":
		return "plugin_name is required"
	case req.ActionName == "":
		return "action_name is required"
	}
	return ""
}

func (req *actionRequest) apply(a *store.Action) {
	if req.Gesture != "" {
		a.Gesture = req.Gesture
	}
	if req.PluginName != "" {
		a.PluginName = req.PluginName
	}
	if req.ActionName != "" {
		a.ActionName = req.ActionName
	}
	if req.Config != nil {
		a.Config = req.Config
	}
	if req.Enabled != nil {
		a.Enabled = *req.Enabled
	}
}

type listActionsResponse struct {
	Actions []*store.Action `json:"actions"`
}

func (h *ActionHandler) list(w http.ResponseWriter) {
	actions, err := h.store.Actions().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list actions")
		return
	}
	if actions == nil {
		actions = []*store.Action{}
	}
	writeJSON(w, http.StatusOK, listActionsResponse{Actions: actions})
}

func (h *ActionHandler) get(w http.ResponseWriter, id string) {
	action, err := h.store.Actions().GetByID(id)
	if err != nil {
		writeStoreError(w, err, "get")
		return
	}
	writeJSON(w, http.StatusOK, action)
}

func (h *ActionHandler) create(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAction(w, r)
	if !ok {
		return
	}
	if msg := req.required(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	action := &store.Action{Enabled: true}
	req.apply(action)
	if msg := h.validate(action); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.store.Actions().Create(action); err != nil {
		writeStoreError(w, err, "create")
		return
	}
	writeJSON(w, http.StatusCreated, action)
}

func (h *ActionHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	action, err := h.store.Actions().GetByID(id)
	if err != nil {
		writeStoreError(w, err, "get")
		return
	}

	req, ok := decodeAction(w, r)
	if !ok {
		return
	}
	req.apply(action)
	if msg := h.validate(action); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.store.Actions().Update(action); err != nil {
		writeStoreError(w, err, "update")
		return
	}
	writeJSON(w, http.StatusOK, action)
}

func (h *ActionHandler) delete(w http.ResponseWriter, id string) {
	if err := h.store.Actions().Delete(id); err != nil {
		writeStoreError(w, err, "delete")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeAction(w http.ResponseWriter, r *http.Request) (*actionRequest, bool) {
	var req actionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxActionBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return nil, false
	}
	return &req, true
}

// writeStoreError maps repository errors onto status codes.
func writeStoreError(w http.ResponseWriter, err error, verb string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Action not found")
	case errors.Is(err, store.ErrDuplicate):
		writeError(w, http.StatusConflict, "Action already bound to this gesture")
	default:
		writeError(w, http.StatusInternalServerError, "Failed to "+verb+" action")
	}
}

// validate returns a client-facing message when a cannot be bound.
func (h *ActionHandler) validate(a *store.Action) string {
	if !gesture.IsKnownName(a.Gesture) {
		return "unknown gesture: " + a.Gesture
	}
	if a.Config != nil && !json.Valid(a.Config) {
		return "config must be valid JSON"
	}
	if h.plugins == nil {
		return ""
	}
	if err := h.plugins.Supports(a.PluginName, a.ActionName); err != nil {
		return err.Error()
	}
	return ""
}
