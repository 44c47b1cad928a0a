package identity

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/EthanMadison/hack-yourself.shop/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Password cost for bcrypt
const bcryptCost = 12

const (
	minPasswordLength = 6
	maxPasswordLength = 72 // bcrypt ignores anything beyond 72 bytes
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Errors returned by user operations
var (
	ErrEmailTaken         = shared.NewDomainError("EMAIL_TAKEN", "A user with this email already exists")
	ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	ErrWeakPassword       = shared.NewDomainError("WEAK_PASSWORD", "Password must be at least 6 characters and contain an upper-case letter, a digit and a special character")
	ErrPasswordMismatch   = shared.NewDomainError("PASSWORD_MISMATCH", "Passwords do not match")
	ErrWrongPassword      = shared.NewDomainError("WRONG_PASSWORD", "Current password is incorrect")
	ErrInvalidEmail       = shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
)

// User is a storefront customer or administrator
type User struct {
	shared.BaseEntity
	Email          string
	PasswordHash   string
	IsAdmin        bool
	FullName       string
	DefaultAddress string
	Avatar         string
	EmailConfirmed bool
}

// NormalizeEmail trims and lower-cases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewUser creates a user with a hashed password. The password must pass
// ValidatePasswordStrength.
func NewUser(email, password string) (*User, error) {
	email = NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	u := &User{BaseEntity: shared.NewBaseEntity(), Email: email}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	return u, nil
}

// SetPassword validates and stores a new password hash
func (u *User) SetPassword(password string) error {
	if err := ValidatePasswordStrength(password); err != nil {
		return err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.Touch()
	return nil
}

// VerifyPassword checks password against the stored hash
func (u *User) VerifyPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// ChangePassword replaces the password after checking the current one
// and that the new one was typed twice.
func (u *User) ChangePassword(current, next, confirm string) error {
	if !u.VerifyPassword(current) {
		return ErrWrongPassword
	}
	if next != confirm {
		return ErrPasswordMismatch
	}
	return u.SetPassword(next)
}

// ConfirmEmail marks the email address as verified. It reports whether
// anything changed.
func (u *User) ConfirmEmail() bool {
	if u.EmailConfirmed {
		return false
	}
	u.EmailConfirmed = true
	u.Touch()
	return true
}

// UpdateProfile sets the display name and the default shipping address
func (u *User) UpdateProfile(fullName, defaultAddress string) {
	u.FullName = strings.TrimSpace(fullName)
	u.DefaultAddress = strings.TrimSpace(defaultAddress)
	u.Touch()
}

// SetAvatar stores the avatar object path
func (u *User) SetAvatar(path string) {
	u.Avatar = path
	u.Touch()
}

// PromoteToAdmin grants access to the admin panel
func (u *User) PromoteToAdmin() {
	u.IsAdmin = true
	u.Touch()
}

// DisplayName returns the full name, falling back to the email
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

// ValidatePasswordStrength requires at least 6 characters with an
// upper-case letter, a digit and a character that is neither a letter
// nor a digit.
func ValidatePasswordStrength(password string) error {
	if len([]rune(password)) < minPasswordLength || len(password) > maxPasswordLength {
		return ErrWeakPassword
	}
	var hasUpper, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case !unicode.IsLetter(r) && !unicode.IsNumber(r):
			hasSpecial = true
		}
	}
	if !hasUpper || !hasDigit || !hasSpecial {
		return ErrWeakPassword
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" || len(email) > 200 || !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
