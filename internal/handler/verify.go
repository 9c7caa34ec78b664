package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iftf/duoverkoop/internal/middleware"
	"github.com/iftf/duoverkoop/internal/service"
)

// VerifyHandler serves ticket verification at the door.
type VerifyHandler struct {
	Verify *service.VerifyService
}

func NewVerifyHandler(v *service.VerifyService) *VerifyHandler {
	return &VerifyHandler{Verify: v}
}

// Lookup handles GET /v1/verify?code=.  An empty code and a malformed code
// are 400s with distinct messages; a well-formed unknown code is a 404.
func (h *VerifyHandler) Lookup(c echo.Context) error {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		return errUnauthorized
	}
	d, err := h.Verify.Lookup(c.Request().Context(), a, c.QueryParam("code"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDetail(d))
}

// CodeStats handles GET /v1/codes/stats.
func (h *VerifyHandler) CodeStats(c echo.Context) error {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		return errUnauthorized
	}
	st, err := h.Verify.CodeStats(c.Request().Context(), a)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}
