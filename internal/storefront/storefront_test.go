package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/apiclient"
	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/storage"
)

type stubAuth struct{}

func (stubAuth) Login(context.Context, session.Credentials) (session.Grant, error) {
	return session.Grant{}, errors.New("not used")
}

func (stubAuth) Register(context.Context, session.Registration) (session.RegisterOutcome, error) {
	return session.RegisterOutcome{}, errors.New("not used")
}

func signedIn(t *testing.T, mem *storage.Memory, token string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, mem.SetItem(ctx, session.KeyAccessToken, token))
	require.NoError(t, mem.SetItem(ctx, session.KeyRefreshToken, "ref"))
	require.NoError(t, mem.SetItem(ctx, session.KeyUser, `{"email":"alice@example.com","firstName":"Alice","lastName":"Doe"}`))
}

func gatewayServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/orders", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Token expired"}`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})
	mux.HandleFunc("/api/users/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("email") != "alice@example.com" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"success":true,"data":{"id":1,"email":"alice@example.com","firstName":"Alice","lastName":"Doe","city":"Porto"}}`))
		case http.MethodPut:
			var u map[string]any
			_ = json.NewDecoder(r.Body).Decode(&u)
			u["active"] = true
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": u})
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func open(t *testing.T, mem *storage.Memory) *Storefront {
	t.Helper()
	srv := gatewayServer(t)
	return Open(context.Background(), mem, Deps{Auth: stubAuth{}, API: apiclient.New(srv.URL, srv.Client())})
}

func TestOpenRestoresState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := storage.NewMemory()
	signedIn(t, mem, "good")

	first := open(t, mem)
	first.Cart.AddToCart(ctx, cart.Product{ID: "1", Name: "Lamp", Price: decimal.NewFromInt(10)}, 2)
	require.NoError(t, first.Close())

	sf := open(t, mem)
	assert.True(t, sf.Session.IsAuthenticated())
	assert.Equal(t, 2, sf.Cart.ItemCount())
	require.NoError(t, sf.Close())
	require.ErrorIs(t, sf.Close(), ErrClosed)
}

func TestDispatchUnauthorized(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := storage.NewMemory()
	signedIn(t, mem, "stale")
	sf := open(t, mem)
	sf.Cart.AddToCart(ctx, cart.Product{ID: "1", Price: decimal.NewFromInt(3)}, 1)

	_, err := sf.Orders.History(ctx)
	require.ErrorIs(t, err, apiclient.ErrUnauthorized)
	assert.True(t, sf.Session.IsAuthenticated(), "call sites never log out on their own")

	err = sf.Dispatch(ctx, err)

	var expired *SessionExpiredError
	require.ErrorAs(t, err, &expired)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, "/login", expired.Redirect)
	assert.False(t, sf.Session.IsAuthenticated())
	_, ok, _ := mem.GetItem(ctx, session.KeyAccessToken)
	assert.False(t, ok)
	assert.Equal(t, 1, sf.Cart.ItemCount(), "the cart survives a session expiry")
}

func TestDispatchPassesOtherErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := storage.NewMemory()
	signedIn(t, mem, "good")
	sf := open(t, mem)

	assert.NoError(t, sf.Dispatch(ctx, nil))
	notFound := &apiclient.StatusError{Status: http.StatusNotFound}
	assert.Same(t, notFound, sf.Dispatch(ctx, notFound))
	assert.True(t, sf.Session.IsAuthenticated())

	orders, err := sf.Orders.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestProfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := storage.NewMemory()
	signedIn(t, mem, "good")
	sf := open(t, mem)

	u, err := sf.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Porto", u.City)
	cached, _ := sf.Session.CurrentUser()
	assert.Equal(t, "Porto", cached.City)

	updated, err := sf.UpdateProfile(ctx, session.User{Email: "mallory@example.com", FirstName: "Alicia", LastName: "Doe"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", updated.Email, "email is not editable")
	assert.Equal(t, "Alicia", updated.FirstName)
	require.NotNil(t, updated.Active)
	assert.True(t, *updated.Active)
}

func TestProfileRequiresSession(t *testing.T) {
	t.Parallel()
	sf := open(t, storage.NewMemory())

	_, err := sf.Profile(context.Background())
	require.ErrorIs(t, err, session.ErrNotAuthenticated)
	_, err = sf.UpdateProfile(context.Background(), session.User{})
	require.ErrorIs(t, err, session.ErrNotAuthenticated)
}
