package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iftf/duoverkoop/internal/service"
)

// Capability selects one permission out of service.Capabilities.
type Capability func(service.Capabilities) bool

// The capabilities routes are gated on.
var (
    CanCreate Capability = func(c service.Capabilities) bool { return c.CanCreate }
    CanView   Capability = func(c service.Capabilities) bool { return c.CanView }
    CanEdit   Capability = func(c service.Capabilities) bool { return c.CanEdit }
    CanExport Capability = func(c service.Capabilities) bool { return c.CanExport }
)

// RequireCapability aborts with 403 unless the actor set by JWTAuth holds
// want.  Services repeat the check.
func RequireCapability(want Capability) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            a, ok := ActorFrom(c)
            if !ok || !want(a.Caps) {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
