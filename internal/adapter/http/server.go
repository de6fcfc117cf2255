// Package adapthttp implements the driving HTTP adapter for the
// application.
package adapthttp

import (
	"net/http"

	"textweight/internal/adapter/twilio"
	"textweight/internal/app"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// OIDCConfig carries the optional SSO wiring for dashboard login.
type OIDCConfig struct {
	Enabled      bool
	Provider     *oidc.Provider
	OAuth2Config *oauth2.Config
	AllowedEmail string
}

// Server routes requests to the application services.
type Server struct {
	message  *app.MessageService
	entries  *app.EntryService
	settings *app.SettingsService
	auth     *app.AuthService
	sms      *twilio.Client

	oidcConfig OIDCConfig
	webDir     string

	// validateSignatures gates Twilio webhook signature checks; off outside
	// production so local testing can post plain forms.
	validateSignatures bool
}

// New creates a Server wired to the given application services.
func New(ms *app.MessageService, es *app.EntryService, ss *app.SettingsService, as *app.AuthService, sms *twilio.Client, oidcConfig OIDCConfig, webDir string, validateSignatures bool) *Server {
	return &Server{
		message:            ms,
		entries:            es,
		settings:           ss,
		auth:               as,
		sms:                sms,
		oidcConfig:         oidcConfig,
		webDir:             webDir,
		validateSignatures: validateSignatures,
	}
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	mux.HandleFunc("/api/sms/incoming", s.handleSMSIncoming)

	mux.HandleFunc("/api/auth/request-code", s.handleRequestCode)
	mux.HandleFunc("/api/auth/verify", s.handleVerify)
	mux.HandleFunc("/api/auth/logout", s.handleLogout)
	mux.HandleFunc("/api/auth/status", s.handleAuthStatus)
	mux.HandleFunc("/api/auth/sso/login", s.handleSSOLogin)
	mux.HandleFunc("/api/auth/sso/callback", s.handleSSOCallback)
	mux.HandleFunc("/api/config", s.handleConfig)

	mux.Handle("/api/entries", s.requireSession(http.HandlerFunc(s.handleEntries)))
	mux.Handle("/api/entries/", s.requireSession(http.HandlerFunc(s.handleEntriesSub)))
	mux.Handle("/api/settings", s.requireSession(http.HandlerFunc(s.handleSettings)))
	mux.Handle("/api/settings/", s.requireSession(http.HandlerFunc(s.handleSettingsSub)))

	mux.Handle("/", s.spaFromDisk())

	return withNoCache(mux)
}
