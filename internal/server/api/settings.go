package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/morphcloud/internal/store"
)

// Toggle switches detection and the gesture chime on and off.
type Toggle interface {
	SetEnabled(enabled bool)
	IsEnabled() bool
	SetSoundEnabled(enabled bool)
	SoundEnabled() bool
}

// SettingsHandler reads and updates the persisted settings.
type SettingsHandler struct {
	store  *store.Store
	toggle Toggle
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(s *store.Store, t Toggle) *SettingsHandler {
	return &SettingsHandler{store: s, toggle: t}
}

type settingsResponse struct {
	DetectionEnabled bool              `json:"detection_enabled"`
	SoundEnabled     bool              `json:"sound_enabled"`
	Values           map[string]string `json:"values"`
}

type updateSettingsRequest struct {
	DetectionEnabled *bool `json:"detection_enabled"`
	SoundEnabled     *bool `json:"sound_enabled"`
}

// ServeHTTP handles GET and PUT /api/settings.
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPut:
		h.update(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SettingsHandler) get(w http.ResponseWriter, r *http.Request) {
	values, err := h.store.Settings().All()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read settings")
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{
		DetectionEnabled: h.toggle.IsEnabled(),
		SoundEnabled:     h.toggle.SoundEnabled(),
		Values:           values,
	})
}

func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.DetectionEnabled != nil {
		h.toggle.SetEnabled(*req.DetectionEnabled)
	}
	if req.SoundEnabled != nil {
		h.toggle.SetSoundEnabled(*req.SoundEnabled)
	}
	h.get(w, r)
}
