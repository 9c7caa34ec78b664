package middleware

import (
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iftf/duoverkoop/internal/service"
    "github.com/iftf/duoverkoop/internal/store"
    "github.com/iftf/duoverkoop/internal/utils"
)

// JWTAuth validates the Bearer access token, loads the staff user it names
// and attaches a service.Actor to the context.  Capabilities come from the
// stored user rather than the token, so a group change takes effect on the
// next request.  The client IP is echo's RealIP: the first X-Forwarded-For
// hop when present, else the remote address.
func JWTAuth(secret string, users store.Users) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            id, err := claims.UserID()
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }

            u, err := users.GetUserByID(c.Request().Context(), id)
            if errors.Is(err, store.ErrNotFound) {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown user"})
            }
            if err != nil {
                return err
            }
            if !u.IsActive {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account disabled"})
            }

            SetActor(c, service.ActorFor(*u, c.RealIP()))
            return next(c)
        }
    }
}
