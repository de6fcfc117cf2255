package adapthttp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

func parseJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

func withNoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// spaFromDisk serves the dashboard: the login page for unauthenticated root
// requests, the app for authenticated ones, and static assets as-is.
func (s *Server) spaFromDisk() http.Handler {
	dir := s.webDir
	fileServer := http.FileServer(http.Dir(dir))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqPath := path.Clean(r.URL.Path)

		switch reqPath {
		case "/":
			if s.sessionFromRequest(r) {
				http.ServeFile(w, r, path.Join(dir, "index.html"))
			} else {
				http.ServeFile(w, r, path.Join(dir, "login.html"))
			}
			return
		case "/settings":
			if s.sessionFromRequest(r) {
				http.ServeFile(w, r, path.Join(dir, "settings.html"))
			} else {
				http.Redirect(w, r, "/", http.StatusFound)
			}
			return
		case "/consent":
			http.ServeFile(w, r, path.Join(dir, "consent.html"))
			return
		}

		staticPath := path.Join(dir, reqPath)
		if _, err := os.Stat(staticPath); err == nil {
			fileServer.ServeHTTP(w, r)
			return
		}

		http.ServeFile(w, r, path.Join(dir, "index.html"))
	})
}
