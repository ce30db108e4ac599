package middleware

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Prajwol-Chhetri/Task-REST-API/internal/metrics"
)

// RequestLogger writes one structured log line per request and records it
// in rec. The level follows the status: 5xx error, 4xx warn, else info.
// Request bodies and headers are never logged.
func RequestLogger(log *slog.Logger, rec metrics.Recorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}
			d := time.Since(start)

			req, res := c.Request(), c.Response()
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}

			attrs := []any{
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.String("route", route),
				slog.Int("status", res.Status),
				slog.Float64("duration_ms", float64(d.Nanoseconds())/float64(time.Millisecond)),
			}
			if id := res.Header().Get(echo.HeaderXRequestID); id != "" {
				attrs = append(attrs, slog.String("request_id", id))
			}
			if uid := userID(c); uid != "guest" {
				attrs = append(attrs, slog.String("user_id", uid))
			}

			level := slog.LevelInfo
			switch {
			case res.Status >= 500:
				level = slog.LevelError
			case res.Status >= 400:
				level = slog.LevelWarn
			}
			log.Log(req.Context(), level, "http_request", attrs...)
			rec.RecordHTTPRequest(req.Method, route, res.Status, d)
			return nil
		}
	}
}
