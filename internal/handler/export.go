package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iftf/duoverkoop/internal/middleware"
	"github.com/iftf/duoverkoop/internal/service"
)

// ExportHandler serves the sales export.
type ExportHandler struct {
	Exporter *service.Exporter
	now      func() time.Time
}

func NewExportHandler(e *service.Exporter) *ExportHandler {
	return &ExportHandler{Exporter: e, now: time.Now}
}

// CSV handles GET /v1/export.  The file is rendered into memory first so a
// failure halfway still produces a JSON error instead of a truncated file.
func (h *ExportHandler) CSV(c echo.Context) error {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		return errUnauthorized
	}
	var buf bytes.Buffer
	if err := h.Exporter.WriteCSV(c.Request().Context(), a, &buf); err != nil {
		return err
	}
	name := fmt.Sprintf("duoverkoop-%s.csv", h.now().UTC().Format("20060102-150405"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
