package middleware

import (
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"

    "github.com/iftf/duoverkoop/internal/metrics"
)

// RequestLogger assigns every request an id (the incoming X-Request-ID or a
// fresh UUID), echoes it back, logs the outcome and records the latency
// histogram.  Errors are handed to echo's error handler here so the logged
// status is the one the client sees.
func RequestLogger(log *zap.Logger, m *metrics.Metrics) echo.MiddlewareFunc {
    if log == nil {
        log = zap.NewNop()
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            req := c.Request()

            id := req.Header.Get(echo.HeaderXRequestID)
            if id == "" {
                id = uuid.NewString()
            }
            c.Set(requestIDKey, id)
            c.Response().Header().Set(echo.HeaderXRequestID, id)

            err := next(c)
            if err != nil {
                c.Error(err)
            }

            status := c.Response().Status
            elapsed := time.Since(start)
            route := c.Path()
            if route == "" {
                route = "unmatched"
            }
            m.ObserveRequest(route, req.Method, status, elapsed)

            level := zapcore.InfoLevel
            switch {
            case status >= 500:
                level = zapcore.ErrorLevel
            case status >= 400:
                level = zapcore.WarnLevel
            }
            fields := []zap.Field{
                zap.String("request_id", id),
                zap.String("method", req.Method),
                zap.String("path", req.URL.Path),
                zap.String("route", route),
                zap.Int("status", status),
                zap.Duration("latency", elapsed),
                zap.String("ip", c.RealIP()),
            }
            if a, ok := ActorFrom(c); ok {
                fields = append(fields, zap.String("user", a.Username))
            }
            if err != nil {
                fields = append(fields, zap.Error(err))
            }
            log.Log(level, "request", fields...)
            return nil
        }
    }
}
