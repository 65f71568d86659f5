// Package visitor identifies a browser with a signed cookie. The visitor id
// names the storage scope holding that browser's cart and session.
package visitor

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
)

const (
	CookieName = "visitor"
	ctxKey     = "visitor_id"
	issuer     = "storefront"
)

var ErrInvalidToken = errors.New("invalid visitor token")

type Claims struct {
	jwt.RegisteredClaims
}

type Issuer struct {
	Secret []byte
	TTL    time.Duration
	Secure bool
}

func (i *Issuer) Issue(id string, now time.Time) (string, error) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   id,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.TTL)),
	}}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.Secret)
}

func (i *Issuer) Parse(token string) (string, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return i.Secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		return "", errors.Join(ErrInvalidToken, err)
	}
	if !tkn.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func (i *Issuer) cookie(value string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   i.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Middleware resolves the visitor id from the cookie, minting a new
// identity when the cookie is missing or does not verify.
func (i *Issuer) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if ck, err := c.Cookie(CookieName); err == nil && ck.Value != "" {
				if id, err := i.Parse(ck.Value); err == nil {
					c.Set(ctxKey, id)
					return next(c)
				}
				logging.FromContext(c.Request().Context()).Info("visitor_cookie_rejected")
			}

			now := time.Now()
			id := uuid.NewString()
			tok, err := i.Issue(id, now)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "visitor identity unavailable")
			}
			c.SetCookie(i.cookie(tok, now.Add(i.TTL)))
			c.Set(ctxKey, id)
			return next(c)
		}
	}
}

func ID(c echo.Context) string {
	id, _ := c.Get(ctxKey).(string)
	return id
}
