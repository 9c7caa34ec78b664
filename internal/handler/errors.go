package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iftf/duoverkoop/internal/service"
	"github.com/iftf/duoverkoop/internal/store"
	"github.com/iftf/duoverkoop/internal/verification"
)

// ErrorHandler renders every error a handler returns as {"error": ...}.
// echo HTTP errors keep their status; service and store errors are mapped
// by writeError.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg, ok := he.Message.(string)
			if !ok {
				msg = http.StatusText(he.Code)
			}
			err = c.JSON(he.Code, echo.Map{"error": msg})
		} else {
			err = writeError(c, log, err)
		}
		if err != nil {
			logger(log).Warn("write error response", zap.Error(err))
		}
	}
}

// writeError translates a service or store error into the JSON error
// response the API documents.  Anything unrecognised is a 500.
func writeError(c echo.Context, log *zap.Logger, err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		status := http.StatusBadRequest
		if errors.Is(err, service.ErrSoldOutDuringCommit) {
			status = http.StatusConflict
		}
		return c.JSON(status, echo.Map{"error": verr.Unwrap().Error(), "fields": verr.Fields})
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, service.ErrEmptyCode), errors.Is(err, service.ErrInvalidCodeFormat),
		errors.Is(err, service.ErrInvalidCatalogEntry), errors.Is(err, service.ErrUnknownGroup):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, store.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
	case errors.Is(err, verification.ErrGenerationExhausted):
		logger(log).Error("verification code space exhausted", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue a verification code"})
	}
	logger(log).Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

func logger(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// errUnauthorized is returned by staff handlers reached without JWTAuth.
var errUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
