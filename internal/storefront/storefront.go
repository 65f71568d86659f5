// Package storefront bundles one visitor's cart, session and gateway
// clients into a single context object with an explicit lifecycle.
package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/Skotchmaster/storefront/internal/apiclient"
	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/catalog"
	"github.com/Skotchmaster/storefront/internal/checkout"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/storage"
)

const profilePath = "/api/users/profile"

var (
	ErrSessionExpired = errors.New("session expired")
	ErrClosed         = errors.New("storefront closed")
)

// SessionExpiredError tells the caller where to send the visitor after a
// forced logout.
type SessionExpiredError struct {
	Redirect string
	Cause    error
}

func (e *SessionExpiredError) Error() string {
	return fmt.Sprintf("%v: %v", ErrSessionExpired, e.Cause)
}

func (e *SessionExpiredError) Is(target error) bool { return target == ErrSessionExpired }

func (e *SessionExpiredError) Unwrap() error { return e.Cause }

type Deps struct {
	Auth session.AuthService
	API  *apiclient.Client
}

type Storefront struct {
	Cart    *cart.Store
	Session *session.Gate
	Catalog *catalog.Client
	Orders  *checkout.Service

	api    *apiclient.Client
	closed bool
}

// Open restores the visitor's cart and session from st and binds the
// gateway client to the session token.
func Open(ctx context.Context, st storage.Storage, d Deps) *Storefront {
	gate := session.New(st, d.Auth)
	gate.Restore(ctx)

	api := d.API.WithTokens(gate)
	return &Storefront{
		Cart:    cart.Load(ctx, st),
		Session: gate,
		Catalog: catalog.NewClient(api),
		Orders:  checkout.NewService(api),
		api:     api,
	}
}

// Close ends the lifecycle and reports the last cart persistence failure.
func (s *Storefront) Close() error {
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	return s.Cart.Err()
}

// Dispatch is the single reaction to an expired or revoked session: any
// error carrying apiclient.ErrUnauthorized logs the visitor out and is
// replaced by a SessionExpiredError. Other errors pass through.
func (s *Storefront) Dispatch(ctx context.Context, err error) error {
	if err == nil || !errors.Is(err, apiclient.ErrUnauthorized) {
		return err
	}
	logging.FromContext(ctx).Info("session_expired", "error", err)
	s.Session.Logout(ctx)
	return &SessionExpiredError{Redirect: checkout.LoginPath, Cause: err}
}

// Profile fetches the signed-in user's profile and refreshes the cached copy.
func (s *Storefront) Profile(ctx context.Context) (session.User, error) {
	u, ok := s.Session.CurrentUser()
	if !ok {
		return session.User{}, session.ErrNotAuthenticated
	}

	var raw json.RawMessage
	if err := s.api.GetJSON(ctx, profilePath, url.Values{"email": {u.Email}}, &raw); err != nil {
		return session.User{}, fmt.Errorf("get profile: %w", err)
	}
	var fresh session.User
	if err := apiclient.DecodeData(raw, &fresh); err != nil {
		return session.User{}, fmt.Errorf("get profile: %w", err)
	}
	if fresh.Email == "" {
		return u, nil
	}
	if err := s.Session.UpdateUser(ctx, fresh); err != nil {
		logging.FromContext(ctx).Warn("profile_cache_error", "error", err)
	}
	return fresh, nil
}

func (s *Storefront) UpdateProfile(ctx context.Context, in session.User) (session.User, error) {
	u, ok := s.Session.CurrentUser()
	if !ok {
		return session.User{}, session.ErrNotAuthenticated
	}
	in.Email = u.Email
	in.ID = u.ID
	in.KeycloakID = u.KeycloakID
	in.Role = u.Role

	var raw json.RawMessage
	if err := s.api.PutJSON(ctx, profilePath, url.Values{"email": {u.Email}}, in, &raw); err != nil {
		return session.User{}, fmt.Errorf("update profile: %w", err)
	}
	updated := in
	var reply session.User
	if err := apiclient.DecodeData(raw, &reply); err == nil && reply.Email != "" {
		updated = reply
	}
	if err := s.Session.UpdateUser(ctx, updated); err != nil {
		return session.User{}, fmt.Errorf("update profile: %w", err)
	}
	return updated, nil
}
