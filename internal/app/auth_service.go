package app

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"textweight/internal/domain"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Auth code validity and session lifetime.
const (
	AuthCodeMaxAge  = 15 * time.Minute
	SessionLifetime = 30 * 24 * time.Hour
)

var (
	// ErrRateLimited indicates the phone key hit the request cap.
	ErrRateLimited = errors.New("too many requests")
	// ErrUnknownPhone indicates the phone is not the registered number.
	// Callers must not reveal this to the requester.
	ErrUnknownPhone = errors.New("phone not registered")
	// ErrSendFailed indicates the outbound SMS could not be delivered.
	ErrSendFailed = errors.New("failed to send message")
	// ErrInvalidCode indicates the code was wrong, expired or already used.
	ErrInvalidCode = errors.New("invalid or expired code")
)

// CodeGenerator produces a verification code for SMS delivery.
type CodeGenerator func() string

// AuthService issues login codes over SMS and manages dashboard sessions.
type AuthService struct {
	codes    domain.AuthCodeRepository
	sessions domain.SessionRepository
	settings domain.SettingsRepository
	sender   domain.MessageSender
	limiter  *RateLimiter
	genCode  CodeGenerator
	now      func() time.Time
}

// NewAuthService creates an AuthService.
func NewAuthService(codes domain.AuthCodeRepository, sessions domain.SessionRepository, settings domain.SettingsRepository, sender domain.MessageSender, limiter *RateLimiter, genCode CodeGenerator) *AuthService {
	return &AuthService{
		codes:    codes,
		sessions: sessions,
		settings: settings,
		sender:   sender,
		limiter:  limiter,
		genCode:  genCode,
		now:      time.Now,
	}
}

// RequestCode generates a login code and sends it to the phone. Only the
// registered number ever receives a code; requests for other numbers return
// ErrUnknownPhone so the boundary can answer without revealing whether the
// number is registered. The code is stored bcrypt-hashed.
func (s *AuthService) RequestCode(ctx context.Context, phone string) error {
	normalized := NormalizePhone(phone)

	registered, err := s.settings.Get(ctx, domain.SettingPhoneNumber)
	if err != nil {
		return err
	}
	if registered != "" && NormalizePhone(registered) != normalized {
		return ErrUnknownPhone
	}

	if !s.limiter.Allow(normalized) {
		return ErrRateLimited
	}

	code := s.genCode()
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.codes.Create(ctx, normalized, string(hash), s.now()); err != nil {
		return err
	}

	if !s.sender.Send(ctx, normalized, "Your TextWeight code: "+code) {
		return ErrSendFailed
	}
	return nil
}

// Verify consumes a valid login code and returns a new session token.
func (s *AuthService) Verify(ctx context.Context, phone, code string) (string, error) {
	normalized := NormalizePhone(phone)
	now := s.now()

	candidates, err := s.codes.RecentCodes(ctx, normalized, now.Add(-AuthCodeMaxAge))
	if err != nil {
		return "", err
	}
	for _, c := range candidates {
		if bcrypt.CompareHashAndPassword([]byte(c.CodeHash), []byte(code)) == nil {
			if err := s.codes.MarkUsed(ctx, c.ID); err != nil {
				return "", err
			}
			return s.CreateSession(ctx)
		}
	}
	return "", ErrInvalidCode
}

// CreateSession issues a new session token. Also used by the SSO callback
// once the identity provider has vouched for the user.
func (s *AuthService) CreateSession(ctx context.Context) (string, error) {
	token := uuid.NewString()
	now := s.now()
	if err := s.sessions.Create(ctx, token, now, now.Add(SessionLifetime)); err != nil {
		return "", err
	}
	return token, nil
}

// SessionValid reports whether a session token is current. Expired sessions
// are deleted on sight.
func (s *AuthService) SessionValid(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}
	session, err := s.sessions.Get(ctx, token)
	if err != nil || session == nil {
		return false
	}
	if s.now().After(session.ExpiresAt) {
		_ = s.sessions.Delete(ctx, token)
		return false
	}
	return true
}

// Logout destroys a session.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

var nonDigits = regexp.MustCompile(`\D`)

// NormalizePhone reduces a phone number to E.164 form, assuming US when the
// country code is missing.
func NormalizePhone(phone string) string {
	digits := nonDigits.ReplaceAllString(phone, "")
	if len(digits) == 10 {
		digits = "1" + digits
	}
	return "+" + digits
}

// MaskPhone hides all but the last four digits for display.
func MaskPhone(phone string) string {
	if phone == "" {
		return ""
	}
	if len(phone) <= 4 {
		return phone
	}
	masked := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return '*'
		}
		return r
	}, phone[:len(phone)-4])
	return masked + phone[len(phone)-4:]
}
