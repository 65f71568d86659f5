package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, cfg Config, req *http.Request) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := Middleware(cfg)(func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})(c)
	return rec, err
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	return he.Code
}

func TestSafeMethodIssuesToken(t *testing.T) {
	t.Parallel()

	rec, err := run(t, DefaultConfig(), httptest.NewRequest(http.MethodGet, "/api/cart", nil))

	require.NoError(t, err)
	tok := rec.Header().Get("X-CSRF-Token")
	require.NotEmpty(t, tok)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "XSRF-TOKEN", cookies[0].Name)
	assert.Equal(t, tok, cookies[0].Value)
	assert.False(t, cookies[0].HttpOnly)
}

func TestMutatingRequests(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		cookie     string
		header     string
		origin     string
		wantStatus int
	}{
		{"valid", "tok", "tok", "http://example.com", 0},
		{"missing_header", "tok", "", "http://example.com", http.StatusForbidden},
		{"mismatch", "tok", "other", "http://example.com", http.StatusForbidden},
		{"cross_origin", "tok", "tok", "http://evil.example", http.StatusForbidden},
		{"allowed_origin", "tok", "tok", "http://shop.example", 0},
		{"no_cookie", "", "tok", "http://example.com", http.StatusForbidden},
	}

	cfg := DefaultConfig()
	cfg.AllowedOrigins = []string{"http://shop.example/"}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "/api/cart/items", nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: tc.cookie})
			}
			if tc.header != "" {
				req.Header.Set("X-CSRF-Token", tc.header)
			}
			req.Header.Set("Origin", tc.origin)

			rec, err := run(t, cfg, req)

			if tc.wantStatus == 0 {
				require.NoError(t, err)
				assert.Equal(t, http.StatusNoContent, rec.Code)
				return
			}
			assert.Equal(t, tc.wantStatus, statusOf(t, err))
		})
	}
}

func TestSkipPaths(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.SkipPaths = []string{"/api/auth/login"}
	cfg.SkipPrefixes = []string{"/health/"}

	for _, path := range []string{"/api/auth/login", "/health/ready"} {
		rec, err := run(t, cfg, httptest.NewRequest(http.MethodPost, path, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}
