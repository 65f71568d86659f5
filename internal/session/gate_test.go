package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/storage"
)

type fakeAuth struct {
	grant    Grant
	loginErr error

	outcome     RegisterOutcome
	registerErr error

	logins int
}

func (f *fakeAuth) Login(context.Context, Credentials) (Grant, error) {
	f.logins++
	return f.grant, f.loginErr
}

func (f *fakeAuth) Register(context.Context, Registration) (RegisterOutcome, error) {
	return f.outcome, f.registerErr
}

type messageErr struct{ msg string }

func (e messageErr) Error() string          { return "status 401: " + e.msg }
func (e messageErr) ServiceMessage() string { return e.msg }

func alice() User {
	return User{Email: "alice@example.com", FirstName: "Alice", LastName: "Doe"}
}

func requireStored(t *testing.T, st storage.Storage, key string) string {
	t.Helper()
	v, ok, err := st.GetItem(context.Background(), key)
	require.NoError(t, err)
	require.Truef(t, ok, "key %q not stored", key)
	return v
}

func requireAbsent(t *testing.T, st storage.Storage, key string) {
	t.Helper()
	_, ok, err := st.GetItem(context.Background(), key)
	require.NoError(t, err)
	require.Falsef(t, ok, "key %q still stored", key)
}

func TestLoginSuccessPersistsSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := storage.NewMemory()
	auth := &fakeAuth{grant: Grant{AccessToken: "acc", RefreshToken: "ref", User: alice()}}
	g := New(mem, auth)

	res := g.Login(ctx, Credentials{Email: "alice@example.com", Password: "secret1"})

	require.True(t, res.Success)
	assert.True(t, g.IsAuthenticated())
	assert.Equal(t, "acc", g.AccessToken())
	assert.Equal(t, "ref", g.RefreshToken())
	u, ok := g.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "Alice", u.FirstName)

	assert.Equal(t, "acc", requireStored(t, mem, KeyAccessToken))
	assert.Equal(t, "ref", requireStored(t, mem, KeyRefreshToken))
	var stored User
	require.NoError(t, json.Unmarshal([]byte(requireStored(t, mem, KeyUser)), &stored))
	assert.Equal(t, "alice@example.com", stored.Email)
}

func TestLoginFailureMessages(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want string
	}{
		{"service_message", messageErr{msg: "Invalid credentials"}, "Invalid credentials"},
		{"wrapped_service_message", errors.Join(errors.New("login"), messageErr{msg: "Locked"}), "Locked"},
		{"empty_service_message", messageErr{}, "Login failed"},
		{"transport_error", errors.New("dial tcp: refused"), "Login failed"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			mem := storage.NewMemory()
			g := New(mem, &fakeAuth{loginErr: tc.err})

			res := g.Login(ctx, Credentials{Email: "a@b.co", Password: "secret1"})

			assert.False(t, res.Success)
			assert.Equal(t, tc.want, res.Message)
			assert.False(t, g.IsAuthenticated())
			requireAbsent(t, mem, KeyAccessToken)
			requireAbsent(t, mem, KeyRefreshToken)
			requireAbsent(t, mem, KeyUser)
		})
	}
}

func TestLoginFailureKeepsExistingSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := storage.NewMemory()
	auth := &fakeAuth{grant: Grant{AccessToken: "acc", RefreshToken: "ref", User: alice()}}
	g := New(mem, auth)
	require.True(t, g.Login(ctx, Credentials{}).Success)

	auth.loginErr = messageErr{msg: "nope"}
	res := g.Login(ctx, Credentials{})

	assert.False(t, res.Success)
	assert.True(t, g.IsAuthenticated())
	assert.Equal(t, "acc", requireStored(t, mem, KeyAccessToken))
}

func TestRegister(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		outcome     RegisterOutcome
		err         error
		wantSuccess bool
		wantMessage string
	}{
		{"raw_success", RegisterOutcome{Success: true, Data: json.RawMessage(`{"id":1}`)}, nil, true, ""},
		{"envelope_success", RegisterOutcome{Success: true, Message: "Welcome"}, nil, true, "Welcome"},
		{"envelope_failure", RegisterOutcome{Success: false, Message: "Email taken"}, nil, false, "Email taken"},
		{"envelope_failure_no_message", RegisterOutcome{Success: false}, nil, false, "Registration failed"},
		{"service_error", RegisterOutcome{}, messageErr{msg: "Email already registered"}, false, "Email already registered"},
		{"transport_error", RegisterOutcome{}, errors.New("timeout"), false, "Registration failed"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			mem := storage.NewMemory()
			g := New(mem, &fakeAuth{outcome: tc.outcome, registerErr: tc.err})

			res := g.Register(context.Background(), Registration{})

			assert.Equal(t, tc.wantSuccess, res.Success)
			assert.Equal(t, tc.wantMessage, res.Message)
			assert.False(t, g.IsAuthenticated(), "registration never signs in")
			requireAbsent(t, mem, KeyAccessToken)
		})
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := storage.NewMemory()
	g := New(mem, &fakeAuth{grant: Grant{AccessToken: "acc", RefreshToken: "ref", User: alice()}})
	require.True(t, g.Login(ctx, Credentials{}).Success)

	g.Logout(ctx)
	g.Logout(ctx)

	assert.False(t, g.IsAuthenticated())
	_, ok := g.CurrentUser()
	assert.False(t, ok)
	assert.Empty(t, g.AccessToken())
	requireAbsent(t, mem, KeyAccessToken)
	requireAbsent(t, mem, KeyRefreshToken)
	requireAbsent(t, mem, KeyUser)
}

func TestRestore(t *testing.T) {
	t.Parallel()

	validUser := `{"email":"alice@example.com","firstName":"Alice","lastName":"Doe"}`

	cases := []struct {
		name     string
		stored   map[string]string
		wantAuth bool
		wantGone bool
	}{
		{"nothing_stored", nil, false, false},
		{"token_and_user", map[string]string{KeyAccessToken: "acc", KeyRefreshToken: "ref", KeyUser: validUser}, true, false},
		{"token_without_user", map[string]string{KeyAccessToken: "acc", KeyRefreshToken: "ref"}, false, true},
		{"corrupt_user", map[string]string{KeyAccessToken: "acc", KeyUser: `{"email":`}, false, true},
		{"user_without_email", map[string]string{KeyAccessToken: "acc", KeyUser: `{"firstName":"A"}`}, false, true},
		{"user_without_token", map[string]string{KeyUser: validUser}, false, false},
		{"empty_token", map[string]string{KeyAccessToken: "", KeyRefreshToken: "ref", KeyUser: validUser}, false, true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			mem := storage.NewMemory()
			for k, v := range tc.stored {
				require.NoError(t, mem.SetItem(ctx, k, v))
			}
			auth := &fakeAuth{}
			g := New(mem, auth)

			g.Restore(ctx)

			assert.Equal(t, tc.wantAuth, g.IsAuthenticated())
			assert.Zero(t, auth.logins, "restore never calls the network")
			if tc.wantGone {
				requireAbsent(t, mem, KeyAccessToken)
				requireAbsent(t, mem, KeyRefreshToken)
				requireAbsent(t, mem, KeyUser)
			}
			if tc.wantAuth {
				u, _ := g.CurrentUser()
				assert.Equal(t, "alice@example.com", u.Email)
				assert.Equal(t, "acc", g.AccessToken())
			}
		})
	}
}

func TestUpdateUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := storage.NewMemory()
	g := New(mem, &fakeAuth{grant: Grant{AccessToken: "acc", User: alice()}})

	require.ErrorIs(t, g.UpdateUser(ctx, alice()), ErrNotAuthenticated)
	require.True(t, g.Login(ctx, Credentials{}).Success)

	updated := alice()
	updated.City = "Lisbon"
	require.NoError(t, g.UpdateUser(ctx, updated))

	restored := New(mem, &fakeAuth{})
	restored.Restore(ctx)
	u, ok := restored.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "Lisbon", u.City)
}
