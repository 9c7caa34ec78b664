package middleware

// identity.go holds the context plumbing shared by the middleware files.
// JWTAuth stores the resolved service.Actor under actorKey; handlers and the
// rate limiter read it back through ActorFrom.

import (
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iftf/duoverkoop/internal/service"
)

const (
    actorKey     = "actor"
    requestIDKey = "request_id"
)

// ActorFrom returns the staff member attached to the request by JWTAuth.
func ActorFrom(c echo.Context) (service.Actor, bool) {
    a, ok := c.Get(actorKey).(service.Actor)
    return a, ok
}

// SetActor attaches a to the request.
func SetActor(c echo.Context, a service.Actor) {
    c.Set(actorKey, a)
}

// RequestID returns the id assigned by RequestLogger, or "".
func RequestID(c echo.Context) string {
    id, _ := c.Get(requestIDKey).(string)
    return id
}

// userID returns the authenticated user id as a string, or "anon".
func userID(c echo.Context) string {
    if a, ok := ActorFrom(c); ok && a.UserID != 0 {
        return strconv.FormatUint(a.UserID, 10)
    }
    return "anon"
}
