// Package identity implements registration, login, email confirmation,
// password recovery and profile management.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/EthanMadison/hack-yourself.shop/internal/domain/identity"
	"github.com/EthanMadison/hack-yourself.shop/internal/domain/shared"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/auth"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/logger"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/mail"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/storage"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Errors returned by the identity use cases
var (
	ErrCredentialsRequired = shared.NewDomainError("CREDENTIALS_REQUIRED", "Email and password are required")
	ErrUserNotFound        = shared.NewDomainError("USER_NOT_FOUND", "User not found")
)

// Mailer delivers account emails
type Mailer interface {
	Send(ctx context.Context, msg mail.Message) error
}

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	BaseURL string // absolute URL prefix of emailed links
}

// AuthService handles accounts and the emailed confirmation and reset links
type AuthService struct {
	userRepo identity.UserRepository
	tokens   *auth.TokenService
	used     *auth.UsedTokens
	mailer   Mailer
	images   storage.ImageStorage
	metrics  *telemetry.Metrics
	config   AuthServiceConfig
	logger   *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo identity.UserRepository,
	tokens *auth.TokenService,
	used *auth.UsedTokens,
	mailer Mailer,
	images storage.ImageStorage,
	metrics *telemetry.Metrics,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		used:     used,
		mailer:   mailer,
		images:   images,
		metrics:  metrics,
		config:   config,
		logger:   logger,
	}
}

// Register creates an account and issues an email confirmation link
func (s *AuthService) Register(ctx context.Context, email, password string) (*RegisterResult, error) {
	email = identity.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrCredentialsRequired
	}
	if err := identity.ValidatePasswordStrength(password); err != nil {
		s.metrics.AuthAttempt("register", false)
		return nil, err
	}
	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		s.metrics.AuthAttempt("register", false)
		return nil, identity.ErrEmailTaken
	}

	user, err := identity.NewUser(email, password)
	if err != nil {
		s.metrics.AuthAttempt("register", false)
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	s.metrics.AuthAttempt("register", true)
	logger.For(ctx, s.logger).Info("User registered", zap.String("user_id", user.ID.String()))

	link, err := s.confirmationLink(ctx, user)
	if err != nil {
		return nil, err
	}
	return &RegisterResult{User: ToUserResponse(user), ConfirmLink: link}, nil
}

// Login checks the credentials. Unknown emails and wrong passwords fail
// the same way.
func (s *AuthService) Login(ctx context.Context, email, password string) (*UserResponse, error) {
	email = identity.NormalizeEmail(email)
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		s.metrics.AuthAttempt("login", false)
		logger.For(ctx, s.logger).Warn("Login for unknown email")
		return nil, identity.ErrInvalidCredentials
	}
	if !user.VerifyPassword(password) {
		s.metrics.AuthAttempt("login", false)
		logger.For(ctx, s.logger).Warn("Invalid password attempt", zap.String("user_id", user.ID.String()))
		return nil, identity.ErrInvalidCredentials
	}
	s.metrics.AuthAttempt("login", true)
	resp := ToUserResponse(user)
	return &resp, nil
}

// GetUser loads a user by ID
func (s *AuthService) GetUser(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// SendConfirmation issues a new confirmation link unless the address is
// already confirmed
func (s *AuthService) SendConfirmation(ctx context.Context, userID uuid.UUID) (*ConfirmationResult, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.EmailConfirmed {
		return &ConfirmationResult{AlreadyConfirmed: true}, nil
	}
	link, err := s.confirmationLink(ctx, user)
	if err != nil {
		return nil, err
	}
	return &ConfirmationResult{Link: link}, nil
}

// ConfirmEmail marks the user's address as confirmed. The token must have
// been issued for that same address.
func (s *AuthService) ConfirmEmail(ctx context.Context, userID uuid.UUID, token string) error {
	claims, err := s.tokens.Verify(token, auth.PurposeConfirmEmail)
	if err != nil {
		return err
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !strings.EqualFold(claims.Email, user.Email) {
		logger.For(ctx, s.logger).Warn("Confirmation link for another address",
			zap.String("user_id", user.ID.String()))
		return shared.ErrForbidden
	}
	if !user.ConfirmEmail() {
		return nil
	}
	return s.userRepo.Save(ctx, user)
}

// ForgotPassword issues a reset link when the address belongs to a user.
// It returns an empty link otherwise so callers can answer identically.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = identity.NormalizeEmail(email)
	if email == "" {
		return "", nil
	}
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			logger.For(ctx, s.logger).Info("Password reset for unknown email")
			return "", nil
		}
		return "", err
	}

	token, err := s.tokens.Issue(user.Email, auth.PurposeResetPassword)
	if err != nil {
		return "", err
	}
	link := s.link("password/reset", token)
	minutes := int(s.tokens.TTL(auth.PurposeResetPassword).Minutes())
	s.send(ctx, mail.Message{
		To:      user.Email,
		Subject: "Сброс пароля",
		Body:    fmt.Sprintf("Ссылка для сброса пароля (действует %d минут): %s", minutes, link),
	})
	return link, nil
}

// CheckResetToken validates a reset link before the form is shown
func (s *AuthService) CheckResetToken(ctx context.Context, token string) error {
	claims, err := s.tokens.Verify(token, auth.PurposeResetPassword)
	if err != nil {
		return err
	}
	spent, err := s.used.IsSpent(ctx, claims)
	if err != nil {
		return err
	}
	if spent {
		return auth.ErrTokenUsed
	}
	if _, err := s.findByEmail(ctx, claims.Email); err != nil {
		return err
	}
	return nil
}

// ResetPassword sets a new password through a reset link. Each link
// works once.
func (s *AuthService) ResetPassword(ctx context.Context, token, password, confirm string) error {
	claims, err := s.tokens.Verify(token, auth.PurposeResetPassword)
	if err != nil {
		return err
	}
	user, err := s.findByEmail(ctx, claims.Email)
	if err != nil {
		return err
	}
	if password != confirm {
		return identity.ErrPasswordMismatch
	}
	if err := user.SetPassword(password); err != nil {
		return err
	}
	if err := s.used.Spend(ctx, claims); err != nil {
		return err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		if restoreErr := s.used.Restore(ctx, claims); restoreErr != nil {
			logger.For(ctx, s.logger).Warn("Failed to restore reset token", zap.Error(restoreErr))
		}
		return err
	}
	logger.For(ctx, s.logger).Info("Password reset", zap.String("user_id", user.ID.String()))
	return nil
}

// UpdateProfile saves the name, default address and optionally a new avatar
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, input ProfileInput) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.UpdateProfile(input.FullName, input.DefaultAddress)

	previous := user.Avatar
	if input.Avatar != nil && s.images != nil {
		url, err := s.images.Save(ctx, storage.FolderAvatars, input.Avatar)
		if err != nil {
			return nil, err
		}
		user.SetAvatar(url)
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	if previous != "" && previous != user.Avatar && s.images != nil {
		if err := s.images.Delete(ctx, previous); err != nil {
			logger.For(ctx, s.logger).Warn("Failed to delete old avatar", zap.Error(err))
		}
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// ChangePassword replaces the password of a signed-in user
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next, confirm string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := user.ChangePassword(current, next, confirm); err != nil {
		return err
	}
	return s.userRepo.Save(ctx, user)
}

// CreateAdmin creates an administrator or promotes an existing user and
// resets their password. It reports whether a new account was created.
func (s *AuthService) CreateAdmin(ctx context.Context, email, password string) (bool, error) {
	email = identity.NormalizeEmail(email)
	if email == "" || password == "" {
		return false, ErrCredentialsRequired
	}
	user, err := s.userRepo.FindByEmail(ctx, email)
	created := false
	switch {
	case errors.Is(err, shared.ErrNotFound):
		if user, err = identity.NewUser(email, password); err != nil {
			return false, err
		}
		created = true
	case err != nil:
		return false, err
	default:
		if err := user.SetPassword(password); err != nil {
			return false, err
		}
	}
	user.PromoteToAdmin()
	if err := s.userRepo.Save(ctx, user); err != nil {
		return false, err
	}
	s.logger.Info("Administrator confirmed", zap.String("user_id", user.ID.String()), zap.Bool("created", created))
	return created, nil
}

func (s *AuthService) findByEmail(ctx context.Context, email string) (*identity.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, identity.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) confirmationLink(ctx context.Context, user *identity.User) (string, error) {
	token, err := s.tokens.Issue(user.Email, auth.PurposeConfirmEmail)
	if err != nil {
		return "", err
	}
	link := s.link("confirm", token)
	s.send(ctx, mail.Message{
		To:      user.Email,
		Subject: "Подтверждение email",
		Body:    "Подтвердите email: " + link,
	})
	return link, nil
}

// send delivers msg. The link is also shown on the page, so a mail
// failure is logged and not returned.
func (s *AuthService) send(ctx context.Context, msg mail.Message) {
	if s.mailer == nil {
		return
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		logger.For(ctx, s.logger).Error("Failed to send email", zap.String("subject", msg.Subject), zap.Error(err))
	}
}

func (s *AuthService) link(path, token string) string {
	return s.config.BaseURL + "/" + path + "/" + url.PathEscape(token)
}
