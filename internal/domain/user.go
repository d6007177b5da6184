package domain

import (
	"strings"
	"time"
)

// AuthMethod identifies the sign-in mechanism a user last authenticated with.
type AuthMethod string

// Supported auth methods. The identity provider decides which one applies;
// this service only records it.
const (
	AuthMethodEmail    AuthMethod = "email"
	AuthMethodGoogle   AuthMethod = "google"
	AuthMethodGitHub   AuthMethod = "github"
	AuthMethodFacebook AuthMethod = "facebook"
	AuthMethodTwitter  AuthMethod = "twitter"
	AuthMethodApple    AuthMethod = "apple"
)

// Valid reports whether m is a supported auth method.
func (m AuthMethod) Valid() bool {
	switch m {
	case AuthMethodEmail, AuthMethodGoogle, AuthMethodGitHub,
		AuthMethodFacebook, AuthMethodTwitter, AuthMethodApple:
		return true
	}
	return false
}

// User is an account record keyed by email.
type User struct {
	Email       string     `json:"email"`
	DisplayName string     `json:"displayName"`
	PhotoURL    string     `json:"photoURL"`
	AuthMethod  AuthMethod `json:"authMethod"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastLogin   time.Time  `json:"lastLogin"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// NewUser builds a user record for a first sign-in at now.
// Returns a ValidationError if the email or auth method is invalid.
func NewUser(email, displayName, photoURL string, authMethod AuthMethod, now time.Time) (*User, error) {
	user := &User{
		Email:       email,
		DisplayName: displayName,
		PhotoURL:    photoURL,
		AuthMethod:  authMethod,
		CreatedAt:   now,
		LastLogin:   now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if err := ValidateEmail(u.Email); err != nil {
		return err
	}
	if !u.AuthMethod.Valid() {
		return NewValidationError("authMethod", "is not a supported sign-in method", ErrInvalidAuthMethod)
	}
	return nil
}

// ValidateEmail checks that an email identifier is present. The identity
// provider owns format checks; emails are compared case-sensitively.
func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return NewValidationError("email", "is required", ErrEmptyEmail)
	}
	return nil
}
