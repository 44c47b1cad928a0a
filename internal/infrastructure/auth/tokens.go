// Package auth issues and verifies the signed links mailed to customers.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/EthanMadison/hack-yourself.shop/internal/domain/shared"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/config"
)

// Purpose scopes a token to one flow so a confirmation link cannot reset a password
type Purpose string

const (
	PurposeConfirmEmail  Purpose = "confirm_email"
	PurposeResetPassword Purpose = "reset_password"
)

// ErrTokenUsed is returned when a single-use link is presented twice
var ErrTokenUsed = shared.NewDomainError("TOKEN_USED", "The link has already been used")

// EmailClaims is the payload of an emailed link
type EmailClaims struct {
	jwt.RegisteredClaims
	Email   string  `json:"email"`
	Purpose Purpose `json:"purpose"`
}

// RemainingTTL returns the time left until the token expires, never negative
func (c *EmailClaims) RemainingTTL(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	if d := c.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// TokenService signs HS256 tokens carrying an email address and a purpose
type TokenService struct {
	secret []byte
	issuer string
	ttl    map[Purpose]time.Duration
	now    func() time.Time
}

// NewTokenService creates a service signing with secret
func NewTokenService(secret string, cfg config.TokenConfig) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		issuer: cfg.Issuer,
		ttl: map[Purpose]time.Duration{
			PurposeConfirmEmail:  cfg.EmailConfirmTTL,
			PurposeResetPassword: cfg.PasswordResetTTL,
		},
		now: time.Now,
	}
}

// TTL returns the lifetime of tokens issued for purpose
func (s *TokenService) TTL(purpose Purpose) time.Duration {
	return s.ttl[purpose]
}

// Issue signs a token for email valid for the purpose's TTL
func (s *TokenService) Issue(email string, purpose Purpose) (string, error) {
	ttl, ok := s.ttl[purpose]
	if !ok || ttl <= 0 {
		return "", shared.ErrInvalidInput.WithMessage("unknown token purpose " + string(purpose))
	}
	now := s.now()
	claims := &EmailClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email:   email,
		Purpose: purpose,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify parses token and checks its signature, expiry and purpose.
// Failures are shared.ErrTokenExpired or shared.ErrTokenInvalid.
func (s *TokenService) Verify(token string, purpose Purpose) (*EmailClaims, error) {
	claims := &EmailClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, shared.ErrTokenExpired
		}
		return nil, shared.ErrTokenInvalid.Wrap(err)
	}
	if !parsed.Valid || claims.Purpose != purpose || claims.Email == "" {
		return nil, shared.ErrTokenInvalid
	}
	return claims, nil
}
