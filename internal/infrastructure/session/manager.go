package session

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
	"golang.org/x/crypto/hkdf"

	"github.com/EthanMadison/hack-yourself.shop/internal/domain/shared"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/config"
)

// Manager loads and saves sessions. The cookie carries only the session
// id, signed and encrypted with securecookie; the data lives in the store.
type Manager struct {
	store      shared.SessionStore
	codec      *securecookie.SecureCookie
	cookieName string
	lifetime   time.Duration
	secure     bool
	sameSite   http.SameSite
	logger     *zap.Logger
}

// NewManager creates a manager. Empty cookie keys are derived from secret.
func NewManager(store shared.SessionStore, cfg config.SessionConfig, secret string, logger *zap.Logger) (*Manager, error) {
	if len(secret) == 0 && (cfg.HashKey == "" || cfg.BlockKey == "") {
		return nil, errors.New("session keys need app.secret_key or explicit session keys")
	}
	hashKey := []byte(cfg.HashKey)
	if len(hashKey) == 0 {
		hashKey = deriveKey(secret, "session-cookie-hash", 64)
	}
	blockKey := []byte(cfg.BlockKey)
	if len(blockKey) == 0 {
		blockKey = deriveKey(secret, "session-cookie-block", 32)
	}
	switch len(blockKey) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("session.block_key must be 16, 24 or 32 bytes, got %d", len(blockKey))
	}

	lifetime := cfg.Lifetime
	if lifetime <= 0 {
		lifetime = 30 * 24 * time.Hour
	}
	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(int(lifetime.Seconds()))
	codec.SetSerializer(securecookie.JSONEncoder{})

	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:      store,
		codec:      codec,
		cookieName: cfg.CookieName,
		lifetime:   lifetime,
		secure:     cfg.Secure,
		sameSite:   parseSameSite(cfg.SameSite),
		logger:     logger,
	}, nil
}

func deriveKey(secret, label string, n int) []byte {
	key := make([]byte, n)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(label))
	if _, err := io.ReadFull(r, key); err != nil {
		// hkdf only fails past 255*32 bytes of output
		panic(err)
	}
	return key
}

func parseSameSite(s string) http.SameSite {
	switch s {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// Load returns the session named by the request cookie, or a fresh one
// when the cookie is missing, forged, expired or unknown to the store.
func (m *Manager) Load(ctx context.Context, r *http.Request) *Session {
	c, err := r.Cookie(m.cookieName)
	if err != nil || c.Value == "" {
		return newSession()
	}
	var id string
	if err := m.codec.Decode(m.cookieName, c.Value, &id); err != nil {
		m.logger.Debug("Rejected session cookie", zap.Error(err))
		return newSession()
	}
	raw, err := m.store.Load(ctx, id)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			m.logger.Warn("Failed to load session", zap.Error(err))
		}
		return newSession()
	}
	s := &Session{id: id}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		m.logger.Warn("Discarding undecodable session", zap.Error(err))
		return newSession()
	}
	return s
}

// Save persists a changed session and writes the cookie. It must run
// before the response headers are sent.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if s.previous != "" {
		if err := m.store.Delete(ctx, s.previous); err != nil {
			m.logger.Warn("Failed to delete renewed session", zap.Error(err))
		}
		s.previous = ""
	}

	if s.destroyed {
		if !s.isNew {
			if err := m.store.Delete(ctx, s.id); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
		}
		m.expireCookie(w)
		return nil
	}
	if !s.dirty {
		return nil
	}
	if s.empty() {
		if !s.isNew {
			_ = m.store.Delete(ctx, s.id)
			m.expireCookie(w)
		}
		s.dirty = false
		return nil
	}

	raw, err := json.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := m.store.Save(ctx, s.id, raw, m.lifetime); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	value, err := m.codec.Encode(m.cookieName, s.id)
	if err != nil {
		return fmt.Errorf("encode session cookie: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(m.lifetime.Seconds()),
		Secure:   m.secure,
		HttpOnly: true,
		SameSite: m.sameSite,
	})
	s.dirty = false
	s.isNew = false
	return nil
}

func (m *Manager) expireCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   m.secure,
		HttpOnly: true,
		SameSite: m.sameSite,
	})
}
