package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUser         = "user"
)

type User struct {
	ID          json.RawMessage `json:"id,omitempty"`
	KeycloakID  string          `json:"keycloakId,omitempty"`
	Email       string          `json:"email" validate:"required,email"`
	FirstName   string          `json:"firstName" validate:"required"`
	LastName    string          `json:"lastName" validate:"required"`
	PhoneNumber string          `json:"phoneNumber,omitempty"`
	Address     string          `json:"address,omitempty"`
	City        string          `json:"city,omitempty"`
	State       string          `json:"state,omitempty"`
	ZipCode     string          `json:"zipCode,omitempty"`
	Country     string          `json:"country,omitempty"`
	Role        string          `json:"role,omitempty"`
	Active      *bool           `json:"active,omitempty"`
}

var errInvalidUser = errors.New("invalid cached user")

func decodeUser(raw string) (User, error) {
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return User{}, errors.Join(errInvalidUser, err)
	}
	if strings.TrimSpace(u.Email) == "" {
		return User{}, errInvalidUser
	}
	return u, nil
}

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type Registration struct {
	FirstName   string `json:"firstName" validate:"required,min=2"`
	LastName    string `json:"lastName" validate:"required,min=2"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	PhoneNumber string `json:"phoneNumber" validate:"required,min=7,max=20"`
}

// Grant is what a successful login hands back.
type Grant struct {
	AccessToken  string
	RefreshToken string
	User         User
}

// RegisterOutcome is the normalized registration reply. Success is false
// only when the service answered with an envelope saying so.
type RegisterOutcome struct {
	Success bool
	Message string
	Data    json.RawMessage
}

type AuthService interface {
	Login(ctx context.Context, c Credentials) (Grant, error)
	Register(ctx context.Context, r Registration) (RegisterOutcome, error)
}

// ServiceMessager is implemented by errors that carry a message from the
// remote service intended for the shopper.
type ServiceMessager interface {
	ServiceMessage() string
}

type Result struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func failure(err error, fallback string) Result {
	var m ServiceMessager
	if errors.As(err, &m) && m.ServiceMessage() != "" {
		return Result{Success: false, Message: m.ServiceMessage()}
	}
	return Result{Success: false, Message: fallback}
}
