package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/memoralabs/memora/backend/models"
	"github.com/memoralabs/memora/memora"
)

const SessionCookieName = "memora_session"

// SessionService handles staff session management. Sessions are stateless:
// the cookie carries the signed session payload, nothing is stored server
// side.
type SessionService struct {
	config *memora.Config
	ttl    time.Duration
}

// NewSessionService creates a new session service
func NewSessionService(cfg *memora.Config) *SessionService {
	ttl := 24 * time.Hour
	if cfg.Session.TTLHours > 0 {
		ttl = time.Duration(cfg.Session.TTLHours) * time.Hour
	}
	return &SessionService{
		config: cfg,
		ttl:    ttl,
	}
}

// CreateSession creates a new staff session and sets the session cookie
func (s *SessionService) CreateSession(c *fiber.Ctx, session *models.StaffSession) error {
	session.ExpiresAt = time.Now().Add(s.ttl)

	sessionData, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	signedSession, err := s.signData(sessionData)
	if err != nil {
		return fmt.Errorf("failed to sign session: %w", err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     SessionCookieName,
		Value:    signedSession,
		Path:     "/",
		MaxAge:   int(s.ttl / time.Second),
		Secure:   !s.config.Web.Debug,
		HTTPOnly: true,
		SameSite: "Lax",
	})

	slog.Info("Session created for staff member",
		slog.String("uid", session.UID),
		slog.String("role", string(session.Role)))

	return nil
}

// GetSession retrieves and validates the staff session from the request
func (s *SessionService) GetSession(c *fiber.Ctx) (*models.StaffSession, error) {
	sessionCookie := c.Cookies(SessionCookieName)
	if sessionCookie == "" {
		return nil, fmt.Errorf("no session cookie found")
	}

	sessionData, err := s.verifyAndDecodeData(sessionCookie)
	if err != nil {
		return nil, fmt.Errorf("invalid session signature: %w", err)
	}

	var session models.StaffSession
	if err := json.Unmarshal(sessionData, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	if time.Now().After(session.ExpiresAt) {
		s.DestroySession(c)
		return nil, fmt.Errorf("session expired")
	}

	return &session, nil
}

// DestroySession removes the session cookie
func (s *SessionService) DestroySession(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   !s.config.Web.Debug,
		HTTPOnly: true,
		SameSite: "Lax",
	})
}

// AccessCodeFor derives the login access code for a staff UID. The same
// derivation runs in the memora-admin CLI, which prints the code when an
// account is created.
func (s *SessionService) AccessCodeFor(uid string) string {
	h := hmac.New(sha256.New, []byte(s.config.Session.Secret))
	h.Write([]byte("access-code:" + uid))
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyAccessCode checks a presented access code in constant time.
func (s *SessionService) VerifyAccessCode(uid, code string) bool {
	if s.config.Session.Secret == "" {
		return false
	}
	expected := s.AccessCodeFor(uid)
	return hmac.Equal([]byte(expected), []byte(code))
}

// signData signs data using HMAC-SHA256
func (s *SessionService) signData(data []byte) (string, error) {
	if s.config.Session.Secret == "" {
		return "", fmt.Errorf("session secret not configured")
	}

	h := hmac.New(sha256.New, []byte(s.config.Session.Secret))
	h.Write(data)
	signature := h.Sum(nil)

	combined := append(data, signature...)

	return base64.URLEncoding.EncodeToString(combined), nil
}

// verifyAndDecodeData verifies the signature and returns the original data
func (s *SessionService) verifyAndDecodeData(encodedData string) ([]byte, error) {
	if s.config.Session.Secret == "" {
		return nil, fmt.Errorf("session secret not configured")
	}

	combined, err := base64.URLEncoding.DecodeString(encodedData)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data: %w", err)
	}

	// Signature is the trailing 32 bytes.
	if len(combined) < 32 {
		return nil, fmt.Errorf("invalid data length")
	}

	data := combined[:len(combined)-32]
	receivedSignature := combined[len(combined)-32:]

	h := hmac.New(sha256.New, []byte(s.config.Session.Secret))
	h.Write(data)
	expectedSignature := h.Sum(nil)

	if !hmac.Equal(receivedSignature, expectedSignature) {
		return nil, fmt.Errorf("signature verification failed")
	}

	return data, nil
}
