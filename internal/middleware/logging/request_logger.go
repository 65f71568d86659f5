package loggingmw

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
)

// RequestLogger puts a request scoped logger into the context and logs
// one line per request. Errors are rendered here so the logged status is
// the one the client saw. attrs is consulted after the handler ran.
func RequestLogger(base *slog.Logger, attrs func(c echo.Context) []any) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			rid := req.Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = c.Response().Header().Get(echo.HeaderXRequestID)
			}

			l := base.With(
				"method", req.Method,
				"path", c.Path(),
				"url", req.URL.Path,
				"remote_ip", c.RealIP(),
			)
			if rid != "" {
				l = l.With("request_id", rid)
			}
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))

			start := time.Now()
			err := next(c)
			dur := time.Since(start)

			if err != nil {
				c.Echo().HTTPErrorHandler(err, c)
			}
			status := c.Response().Status

			fields := []any{"status", status, "duration_ms", dur.Milliseconds()}
			if attrs != nil {
				fields = append(fields, attrs(c)...)
			}
			switch {
			case status >= 500:
				if err != nil {
					fields = append(fields, "error", err.Error())
				}
				l.Error("request completed", fields...)
			case status >= 400:
				l.Warn("request completed", fields...)
			default:
				l.Info("request completed", append(fields, "bytes", c.Response().Size)...)
			}
			return nil
		}
	}
}
