package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/apiclient"
	"github.com/Skotchmaster/storefront/internal/catalog"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/ratelimit"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/storage"
	"github.com/Skotchmaster/storefront/internal/storefront"
	"github.com/Skotchmaster/storefront/internal/visitor"
)

const storefrontKey = "storefront"

type handler struct {
	store   storage.Scoper
	auth    session.AuthService
	api     *apiclient.Client
	search  catalog.Searcher
	events  events.Publisher
	limiter *ratelimit.Limiter
}

type errorReply struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

// withStorefront opens the visitor's storefront for the duration of the
// request and turns an expired gateway session into a 401 with a login
// redirect.
func (h *handler) withStorefront(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		sf := storefront.Open(ctx, h.store.Scope(visitor.ID(c)), storefront.Deps{Auth: h.auth, API: h.api})
		c.Set(storefrontKey, sf)

		err := sf.Dispatch(ctx, next(c))
		if cerr := sf.Close(); cerr != nil {
			logging.FromContext(ctx).Error("storefront_close_error", "error", cerr)
		}

		var expired *storefront.SessionExpiredError
		if errors.As(err, &expired) {
			h.publish(c, events.TopicUser, events.SessionExpired, nil)
			return c.JSON(http.StatusUnauthorized, errorReply{Error: "session expired", Redirect: expired.Redirect})
		}
		return err
	}
}

func current(c echo.Context) *storefront.Storefront {
	sf, _ := c.Get(storefrontKey).(*storefront.Storefront)
	return sf
}

func (h *handler) publish(c echo.Context, topic, eventType string, data map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ev := events.Event{Type: eventType, VisitorID: visitor.ID(c), Data: data}
	if sf := current(c); sf != nil {
		if u, ok := sf.Session.CurrentUser(); ok {
			ev.UserEmail = u.Email
		}
	}
	if err := h.events.Publish(ctx, topic, ev.VisitorID, ev); err != nil {
		logging.FromContext(ctx).Error("event_publish_error", "type", eventType, "error", err)
	}
}

// upstreamError maps a gateway failure onto the response status. 401s are
// returned untouched so the storefront middleware can dispatch them.
func upstreamError(err error) error {
	if errors.Is(err, apiclient.ErrUnauthorized) {
		return err
	}
	if errors.Is(err, catalog.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "product not found").SetInternal(err)
	}
	if errors.Is(err, apiclient.ErrUnavailable) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "service temporarily unavailable").SetInternal(err)
	}
	var se *apiclient.StatusError
	if errors.As(err, &se) && se.Status >= 400 && se.Status < 500 {
		msg := se.Message
		if msg == "" {
			msg = http.StatusText(se.Status)
		}
		return echo.NewHTTPError(se.Status, msg).SetInternal(err)
	}
	return echo.NewHTTPError(http.StatusBadGateway, "upstream error").SetInternal(err)
}

// requireSession answers 401 with a login redirect back to returnTo when
// the visitor is not signed in.
func requireSession(c echo.Context, sf *storefront.Storefront, returnTo string) (bool, error) {
	if sf.Session.IsAuthenticated() {
		return true, nil
	}
	return false, c.JSON(http.StatusUnauthorized, errorReply{Error: "authentication required", Redirect: loginURL(returnTo)})
}
