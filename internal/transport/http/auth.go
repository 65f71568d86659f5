package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/checkout"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/validate"
)

const msgTooManyAttempts = "Too many login attempts, please try again later"

type sessionView struct {
	IsAuthenticated bool          `json:"isAuthenticated"`
	User            *session.User `json:"user,omitempty"`
}

type loginRequest struct {
	session.Credentials
	ReturnTo string `json:"returnTo"`
}

type authReply struct {
	Success  bool          `json:"success"`
	Message  string        `json:"message,omitempty"`
	Redirect string        `json:"redirect,omitempty"`
	User     *session.User `json:"user,omitempty"`
}

func loginURL(returnTo string) string {
	return checkout.LoginURL(returnTo)
}

func (h *handler) getSession(c echo.Context) error {
	sf := current(c)
	out := sessionView{IsAuthenticated: sf.Session.IsAuthenticated()}
	if u, ok := sf.Session.CurrentUser(); ok {
		out.User = &u
	}
	return c.JSON(http.StatusOK, out)
}

func (h *handler) login(c echo.Context) error {
	l := logging.FromContext(c.Request().Context())

	// Keyed on the client address: visitor ids are free to mint.
	if h.limiter != nil && !h.limiter.Allow(c.RealIP()) {
		l.Warn("login_rate_limited", "remote_ip", c.RealIP())
		return c.JSON(http.StatusTooManyRequests, authReply{Message: msgTooManyAttempts})
	}

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, authReply{Message: "invalid body"})
	}
	if err := validate.Check(req); err != nil {
		return c.JSON(http.StatusBadRequest, authReply{Message: err.Error()})
	}

	sf := current(c)
	res := sf.Session.Login(c.Request().Context(), req.Credentials)
	if !res.Success {
		return c.JSON(http.StatusUnauthorized, authReply{Message: res.Message})
	}

	h.publish(c, events.TopicUser, events.UserLoggedIn, nil)

	returnTo := req.ReturnTo
	if returnTo == "" {
		returnTo = c.QueryParam(checkout.ReturnToParam)
	}
	u, _ := sf.Session.CurrentUser()
	return c.JSON(http.StatusOK, authReply{
		Success:  true,
		Redirect: checkout.SafeReturnPath(returnTo),
		User:     &u,
	})
}

func (h *handler) register(c echo.Context) error {
	var req session.Registration
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, authReply{Message: "invalid body"})
	}
	if err := validate.Check(req); err != nil {
		return c.JSON(http.StatusBadRequest, authReply{Message: err.Error()})
	}

	res := current(c).Session.Register(c.Request().Context(), req)
	if !res.Success {
		return c.JSON(http.StatusBadRequest, authReply{Message: res.Message})
	}

	h.publish(c, events.TopicUser, events.UserRegistered, map[string]any{"email": req.Email})
	return c.JSON(http.StatusCreated, authReply{
		Success:  true,
		Message:  res.Message,
		Redirect: checkout.LoginPath,
	})
}

func (h *handler) logout(c echo.Context) error {
	sf := current(c)
	if sf.Session.IsAuthenticated() {
		h.publish(c, events.TopicUser, events.UserLoggedOut, nil)
	}
	sf.Session.Logout(c.Request().Context())
	return c.JSON(http.StatusOK, authReply{Success: true, Redirect: "/"})
}

func (h *handler) getProfile(c echo.Context) error {
	sf := current(c)
	if ok, err := requireSession(c, sf, "/profile"); !ok {
		return err
	}

	u, err := sf.Profile(c.Request().Context())
	if err != nil {
		return upstreamError(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *handler) updateProfile(c echo.Context) error {
	sf := current(c)
	if ok, err := requireSession(c, sf, "/profile"); !ok {
		return err
	}

	var in session.User
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	cur, _ := sf.Session.CurrentUser()
	in.Email = cur.Email
	if err := validate.Check(in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	u, err := sf.UpdateProfile(c.Request().Context(), in)
	if err != nil {
		return upstreamError(err)
	}
	return c.JSON(http.StatusOK, u)
}
