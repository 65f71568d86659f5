// Package session tracks whether the visitor is signed in and persists the
// tokens and cached profile that make a session survive restarts.
package session

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/storage"
)

const (
	msgLoginFailed        = "Login failed"
	msgRegistrationFailed = "Registration failed"
)

var ErrNotAuthenticated = errors.New("not authenticated")

type Gate struct {
	storage storage.Storage
	auth    AuthService

	user         *User
	accessToken  string
	refreshToken string
}

func New(st storage.Storage, auth AuthService) *Gate {
	return &Gate{storage: st, auth: auth}
}

// Restore rebuilds the session from storage without calling the network.
// A token without a usable cached profile forces a logout.
func (g *Gate) Restore(ctx context.Context) {
	l := logging.FromContext(ctx).With("component", "session")

	token, ok, err := g.storage.GetItem(ctx, KeyAccessToken)
	if err != nil {
		l.Warn("session_restore_error", "error", err)
		g.reset()
		return
	}
	if !ok {
		g.reset()
		return
	}
	if token == "" {
		l.Info("session_token_empty")
		g.Logout(ctx)
		return
	}

	rawUser, ok, err := g.storage.GetItem(ctx, KeyUser)
	if err != nil {
		l.Warn("session_restore_error", "error", err)
		g.reset()
		return
	}
	if !ok {
		l.Info("session_user_missing")
		g.Logout(ctx)
		return
	}
	u, err := decodeUser(rawUser)
	if err != nil {
		l.Info("session_user_invalid", "error", err)
		g.Logout(ctx)
		return
	}

	refresh, _, err := g.storage.GetItem(ctx, KeyRefreshToken)
	if err != nil {
		l.Warn("session_restore_error", "error", err)
	}

	g.user = &u
	g.accessToken = token
	g.refreshToken = refresh
}

func (g *Gate) Login(ctx context.Context, c Credentials) Result {
	l := logging.FromContext(ctx).With("component", "session")

	grant, err := g.auth.Login(ctx, c)
	if err != nil {
		l.Info("login_failed", "error", err)
		return failure(err, msgLoginFailed)
	}

	userJSON, err := json.Marshal(grant.User)
	if err != nil {
		l.Error("login_persist_error", "error", err)
		return Result{Success: false, Message: msgLoginFailed}
	}

	writes := []struct{ key, value string }{
		{KeyAccessToken, grant.AccessToken},
		{KeyRefreshToken, grant.RefreshToken},
		{KeyUser, string(userJSON)},
	}
	for _, w := range writes {
		if err := g.storage.SetItem(ctx, w.key, w.value); err != nil {
			l.Error("login_persist_error", "key", w.key, "error", err)
			g.Logout(ctx)
			return Result{Success: false, Message: msgLoginFailed}
		}
	}

	u := grant.User
	g.user = &u
	g.accessToken = grant.AccessToken
	g.refreshToken = grant.RefreshToken
	return Result{Success: true}
}

// Register creates an account. It never signs the visitor in.
func (g *Gate) Register(ctx context.Context, r Registration) Result {
	out, err := g.auth.Register(ctx, r)
	if err != nil {
		logging.FromContext(ctx).Info("register_failed", "component", "session", "error", err)
		return failure(err, msgRegistrationFailed)
	}
	if !out.Success {
		msg := out.Message
		if msg == "" {
			msg = msgRegistrationFailed
		}
		return Result{Success: false, Message: msg}
	}
	return Result{Success: true, Message: out.Message, Data: out.Data}
}

// Logout drops every persisted credential. It is safe to call repeatedly.
func (g *Gate) Logout(ctx context.Context) {
	for _, key := range []string{KeyAccessToken, KeyRefreshToken, KeyUser} {
		if err := g.storage.RemoveItem(ctx, key); err != nil {
			logging.FromContext(ctx).Error("logout_remove_error", "component", "session", "key", key, "error", err)
		}
	}
	g.reset()
}

// UpdateUser replaces the cached profile of a signed-in visitor.
func (g *Gate) UpdateUser(ctx context.Context, u User) error {
	if !g.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	if u.Email == "" {
		u.Email = g.user.Email
	}
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	if err := g.storage.SetItem(ctx, KeyUser, string(data)); err != nil {
		return err
	}
	g.user = &u
	return nil
}

func (g *Gate) IsAuthenticated() bool {
	return g.user != nil && g.accessToken != ""
}

func (g *Gate) CurrentUser() (User, bool) {
	if !g.IsAuthenticated() {
		return User{}, false
	}
	return *g.user, true
}

func (g *Gate) AccessToken() string {
	if !g.IsAuthenticated() {
		return ""
	}
	return g.accessToken
}

func (g *Gate) RefreshToken() string {
	if !g.IsAuthenticated() {
		return ""
	}
	return g.refreshToken
}

func (g *Gate) reset() {
	g.user = nil
	g.accessToken = ""
	g.refreshToken = ""
}
