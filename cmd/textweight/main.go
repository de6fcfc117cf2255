package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adapthttp "textweight/internal/adapter/http"
	"textweight/internal/adapter/postgres"
	"textweight/internal/adapter/twilio"
	"textweight/internal/app"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	addr := env("ADDR", ":3000")
	webDir := env("WEB_DIR", "public")

	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := postgres.Open(connStr)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer func() { _ = db.Close() }()

	pendingRepo := postgres.NewPendingRepo(db)
	settingsRepo := postgres.NewSettingsRepo(db)
	codeRepo := postgres.NewAuthCodeRepo(db)
	sessionRepo := postgres.NewSessionRepo(db)

	sms := twilio.New(
		os.Getenv("TWILIO_ACCOUNT_SID"),
		os.Getenv("TWILIO_AUTH_TOKEN"),
		os.Getenv("TWILIO_PHONE_NUMBER"),
	)

	pendingSlot := app.NewPendingSlot(pendingRepo)
	limiter := app.NewRateLimiter(app.RateLimitWindow, app.RateLimitMax)
	phoneChange := app.NewPhoneChange()

	messageSvc := app.NewMessageService(db, pendingSlot, settingsRepo)
	entrySvc := app.NewEntryService(db, pendingSlot, settingsRepo)
	settingsSvc := app.NewSettingsService(settingsRepo, sms, phoneChange, twilio.GenerateCode)
	authSvc := app.NewAuthService(codeRepo, sessionRepo, settingsRepo, sms, limiter, twilio.GenerateCode)

	scheduler := app.NewScheduler(db, pendingSlot, codeRepo, sessionRepo, settingsRepo, sms)

	oidcConfig := loadOIDC(context.Background())

	production := os.Getenv("ENV") == "production"
	h := adapthttp.New(messageSvc, entrySvc, settingsSvc, authSvc, sms, oidcConfig, webDir, production).Handler()

	server := &http.Server{Addr: addr, Handler: h}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Start()

	go func() {
		log.Printf("listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down...")

	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}

// loadOIDC builds the optional SSO configuration. SSO stays disabled unless
// the issuer is set and reachable.
func loadOIDC(ctx context.Context) adapthttp.OIDCConfig {
	issuer := os.Getenv("OIDC_ISSUER")
	if issuer == "" {
		return adapthttp.OIDCConfig{}
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		log.Printf("oidc: provider %s unavailable, SSO disabled: %v", issuer, err)
		return adapthttp.OIDCConfig{}
	}

	return adapthttp.OIDCConfig{
		Enabled:  true,
		Provider: provider,
		OAuth2Config: &oauth2.Config{
			ClientID:     os.Getenv("OIDC_CLIENT_ID"),
			ClientSecret: os.Getenv("OIDC_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("OIDC_REDIRECT_URL"),
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
		AllowedEmail: os.Getenv("OIDC_ALLOWED_EMAIL"),
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
