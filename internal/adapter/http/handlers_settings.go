package adapthttp

import (
	"errors"
	"net/http"
	"strings"

	"textweight/internal/app"
)

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		settings, err := s.settings.Get(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to fetch settings")
			return
		}
		writeJSON(w, http.StatusOK, settings)

	case http.MethodPut:
		var req struct {
			Timezone    string `json:"timezone"`
			DisplayUnit string `json:"display_unit"`
		}
		if err := parseJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}
		settings, err := s.settings.Update(r.Context(), req.Timezone, req.DisplayUnit)
		if errors.Is(err, app.ErrInvalidTimezone) || errors.Is(err, app.ErrInvalidUnit) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to update settings")
			return
		}
		writeJSON(w, http.StatusOK, settings)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSettingsSub(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/settings/")

	switch rest {
	case "timezones":
		writeJSON(w, http.StatusOK, s.settings.Timezones())

	case "phone/request-change":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			NewPhone string `json:"new_phone"`
		}
		if err := parseJSON(r, &req); err != nil || req.NewPhone == "" {
			writeError(w, http.StatusBadRequest, "New phone number required")
			return
		}
		if err := s.settings.RequestPhoneChange(r.Context(), req.NewPhone); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to send verification code")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Verification code sent to new number"})

	case "phone/confirm-change":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Code string `json:"code"`
		}
		if err := parseJSON(r, &req); err != nil || req.Code == "" {
			writeError(w, http.StatusBadRequest, "Verification code required")
			return
		}
		err := s.settings.ConfirmPhoneChange(r.Context(), req.Code)
		switch {
		case errors.Is(err, app.ErrNoPendingChange),
			errors.Is(err, app.ErrCodeExpired),
			errors.Is(err, app.ErrInvalidCode):
			writeError(w, http.StatusBadRequest, err.Error())
		case err != nil:
			writeError(w, http.StatusInternalServerError, "Failed to update phone number")
		default:
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Phone number updated"})
		}

	default:
		http.NotFound(w, r)
	}
}
