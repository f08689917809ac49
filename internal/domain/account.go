package domain

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// User is a registered account. PasswordHash is never serialized.
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// UserStore persists accounts. Email lookups are case-insensitive because
// stores receive already-normalized addresses.
type UserStore interface {
	Create(ctx context.Context, u User) error
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
}

// Registration is the payload for creating an account.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Password length bounds. bcrypt rejects inputs longer than 72 bytes.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// Normalize trims fields and lower-cases the email address.
func (r Registration) Normalize() Registration {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = NormalizeEmail(r.Email)
	return r
}

// Validate reports the first problem with a normalized registration.
func (r Registration) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if len(r.Password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	if len(r.Password) > MaxPasswordLength {
		return fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidInput, MaxPasswordLength)
	}
	return nil
}

// ContactMessage is a message submitted through the contact form. It is
// handed to a downstream mailer rather than delivered here.
type ContactMessage struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Subject    string    `json:"subject"`
	Message    string    `json:"message"`
	ReceivedAt time.Time `json:"received_at"`
}

// Contact field limits.
const (
	maxSubjectLength = 200
	maxMessageLength = 5000
)

// Normalize trims all free-text fields and lower-cases the email address.
func (m ContactMessage) Normalize() ContactMessage {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = NormalizeEmail(m.Email)
	m.Subject = strings.TrimSpace(m.Subject)
	m.Message = strings.TrimSpace(m.Message)
	return m
}

// Validate reports the first problem with a normalized contact message.
func (m ContactMessage) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if err := validateEmail(m.Email); err != nil {
		return err
	}
	if m.Subject == "" || len(m.Subject) > maxSubjectLength {
		return fmt.Errorf("%w: subject must be 1-%d characters", ErrInvalidInput, maxSubjectLength)
	}
	if m.Message == "" || len(m.Message) > maxMessageLength {
		return fmt.Errorf("%w: message must be 1-%d characters", ErrInvalidInput, maxMessageLength)
	}
	return nil
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: email is not a valid address", ErrInvalidInput)
	}
	return nil
}
