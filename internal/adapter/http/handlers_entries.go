package adapthttp

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"textweight/internal/app"
)

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		entries, err := s.entries.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to fetch entries")
			return
		}
		writeJSON(w, http.StatusOK, entries)

	case http.MethodPost:
		var req struct {
			Date   string  `json:"date"`
			Weight float64 `json:"weight"`
		}
		if err := parseJSON(r, &req); err != nil || req.Date == "" {
			writeError(w, http.StatusBadRequest, "Date and weight required")
			return
		}
		entry, err := s.entries.Backfill(r.Context(), req.Date, req.Weight)
		if errors.Is(err, app.ErrInvalidDate) || errors.Is(err, app.ErrInvalidWeight) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to create entry")
			return
		}
		writeJSON(w, http.StatusOK, entry)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleEntriesSub routes /api/entries/{...}: the fixed sub-resources and
// the id-addressed update/delete operations.
func (s *Server) handleEntriesSub(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/entries/")

	switch rest {
	case "export":
		s.handleExportCSV(w, r)
		return
	case "export/apple-health":
		s.handleExportAppleHealth(w, r)
		return
	case "import":
		s.handleImport(w, r)
		return
	case "pending":
		s.handlePendingStatus(w, r)
		return
	}

	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req struct {
			Weight float64 `json:"weight"`
		}
		if err := parseJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Weight required")
			return
		}
		entry, err := s.entries.Update(r.Context(), id, req.Weight)
		if errors.Is(err, app.ErrEntryNotFound) {
			writeError(w, http.StatusNotFound, "Entry not found")
			return
		}
		if errors.Is(err, app.ErrInvalidWeight) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to update entry")
			return
		}
		writeJSON(w, http.StatusOK, entry)

	case http.MethodDelete:
		err := s.entries.Delete(r.Context(), id)
		if errors.Is(err, app.ErrEntryNotFound) {
			writeError(w, http.StatusNotFound, "Entry not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to delete entry")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Entries []app.ImportRow `json:"entries"`
	}
	if err := parseJSON(r, &req); err != nil || len(req.Entries) == 0 {
		writeError(w, http.StatusBadRequest, "Entries array required")
		return
	}

	imported, rowErrs, err := s.entries.Import(r.Context(), req.Entries)
	if errors.Is(err, app.ErrNoValidEntries) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "No valid entries", "details": rowErrs})
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to import entries")
		return
	}

	resp := map[string]any{"success": true, "imported": imported}
	if len(rowErrs) > 0 {
		resp["errors"] = rowErrs
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	csv, err := s.entries.ExportCSV(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to export entries")
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="textweight-export.csv"`)
	_, _ = w.Write([]byte(csv))
}

func (s *Server) handleExportAppleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	xmlBody, err := s.entries.ExportAppleHealth(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to export")
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.Header().Set("Content-Disposition", `attachment; filename="textweight-apple-health.xml"`)
	_, _ = w.Write([]byte(xmlBody))
}

func (s *Server) handlePendingStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	pending, err := s.entries.Pending(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch pending status")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pending": pending})
}
