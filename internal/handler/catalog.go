package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iftf/duoverkoop/internal/middleware"
	"github.com/iftf/duoverkoop/internal/model"
	"github.com/iftf/duoverkoop/internal/service"
)

// CatalogHandler serves associations and performances.
type CatalogHandler struct {
	Catalog *service.CatalogService
}

func NewCatalogHandler(c *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{Catalog: c}
}

// List handles GET /v1/catalog.  The order page cannot be shown before
// every association has an image, so it answers 503 until then.
func (h *CatalogHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	ready, err := h.Catalog.DataReady(ctx)
	if err != nil {
		return err
	}
	if !ready {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "catalog is not ready: every association needs an image"})
	}
	groups, err := h.Catalog.Catalog(ctx)
	if err != nil {
		return err
	}
	out := make([]associationResp, 0, len(groups))
	for _, g := range groups {
		out = append(out, toAssociationGroup(g))
	}
	return c.JSON(http.StatusOK, echo.Map{"associations": out})
}

// Selectable handles GET /v1/performances/selectable: performances with
// tickets left, labelled for the order form.
func (h *CatalogHandler) Selectable(c echo.Context) error {
	opts, err := h.Catalog.Selectable(c.Request().Context())
	if err != nil {
		return err
	}
	if opts == nil {
		opts = []service.SelectableOption{}
	}
	return c.JSON(http.StatusOK, echo.Map{"performances": opts})
}

// CreateAssociation handles POST /v1/associations.  Creating an existing
// association is not an error; "created" tells the two apart.
func (h *CatalogHandler) CreateAssociation(c echo.Context) error {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		return errUnauthorized
	}
	var req associationReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	created, err := h.Catalog.CreateAssociation(c.Request().Context(), a, model.Association{Name: req.Name, Image: req.Image})
	if err != nil {
		return err
	}
	return c.JSON(statusFor(created), echo.Map{"name": strings.TrimSpace(req.Name), "created": created})
}

// CreatePerformance handles POST /v1/performances with the same
// get-or-create semantics as CreateAssociation.
func (h *CatalogHandler) CreatePerformance(c echo.Context) error {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		return errUnauthorized
	}
	var req performanceReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	p := model.Performance{
		Key:         req.Key,
		Date:        req.Date.UTC(),
		Association: strings.TrimSpace(req.Association),
		Name:        req.Name,
		PriceCents:  req.PriceCents,
		MaxTickets:  req.MaxTickets,
	}
	created, err := h.Catalog.CreatePerformance(c.Request().Context(), a, p)
	if err != nil {
		return err
	}
	return c.JSON(statusFor(created), echo.Map{"key": strings.TrimSpace(req.Key), "created": created})
}

// DeletePerformance handles DELETE /v1/performances/:key.  Performances
// with sold tickets answer 409.
func (h *CatalogHandler) DeletePerformance(c echo.Context) error {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		return errUnauthorized
	}
	if err := h.Catalog.DeletePerformance(c.Request().Context(), a, c.Param("key")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func statusFor(created bool) int {
	if created {
		return http.StatusCreated
	}
	return http.StatusOK
}
