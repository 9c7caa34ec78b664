package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iftf/duoverkoop/internal/middleware"
	"github.com/iftf/duoverkoop/internal/service"
)

// PurchaseHandler serves the staff purchase endpoints.
type PurchaseHandler struct {
	Purchases *service.PurchaseService
	Audit     *service.AuditLog
}

func NewPurchaseHandler(p *service.PurchaseService, a *service.AuditLog) *PurchaseHandler {
	return &PurchaseHandler{Purchases: p, Audit: a}
}

// purchaseID parses the :id path parameter.
func purchaseID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid purchase id")
	}
	return id, nil
}

// Create handles POST /v1/purchases.
func (h *PurchaseHandler) Create(c echo.Context) error {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		return errUnauthorized
	}
	var req purchaseReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	p, err := h.Purchases.Create(c.Request().Context(), a, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toPurchase(*p))
}

// List handles GET /v1/purchases, newest first.
func (h *PurchaseHandler) List(c echo.Context) error {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		return errUnauthorized
	}
	ps, err := h.Purchases.List(c.Request().Context(), a)
	if err != nil {
		return err
	}
	out := make([]purchaseResp, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPurchase(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"purchases": out})
}

// Get handles GET /v1/purchases/:id.
func (h *PurchaseHandler) Get(c echo.Context) error {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		return errUnauthorized
	}
	id, err := purchaseID(c)
	if err != nil {
		return err
	}
	d, err := h.Purchases.Get(c.Request().Context(), a, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDetail(d))
}

// History handles GET /v1/purchases/:id/audit.  Entries of deleted
// purchases remain readable.
func (h *PurchaseHandler) History(c echo.Context) error {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		return errUnauthorized
	}
	id, err := purchaseID(c)
	if err != nil {
		return err
	}
	entries, err := h.Audit.History(c.Request().Context(), a, id)
	if err != nil {
		return err
	}
	out := make([]auditResp, 0, len(entries))
	for _, e := range entries {
		out = append(out, toAudit(e))
	}
	return c.JSON(http.StatusOK, echo.Map{"entries": out})
}

// Update handles PUT /v1/purchases/:id.
func (h *PurchaseHandler) Update(c echo.Context) error {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		return errUnauthorized
	}
	id, err := purchaseID(c)
	if err != nil {
		return err
	}
	var req purchaseReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	res, err := h.Purchases.Update(c.Request().Context(), a, id, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"purchase":               toPurchase(*res.Purchase),
		"changed":                res.Changed,
		"price_difference_cents": res.PriceDifference,
	})
}

// Delete handles DELETE /v1/purchases/:id.
func (h *PurchaseHandler) Delete(c echo.Context) error {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		return errUnauthorized
	}
	id, err := purchaseID(c)
	if err != nil {
		return err
	}
	if _, err := h.Purchases.Delete(c.Request().Context(), a, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
