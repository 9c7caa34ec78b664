package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iftf/duoverkoop/internal/metrics"
	"github.com/iftf/duoverkoop/internal/store"
	"github.com/iftf/duoverkoop/internal/verification"
)

// VerifyService answers "is this code valid?" at the door.
type VerifyService struct {
	st      store.Store
	metrics *metrics.Metrics
}

// NewVerifyService returns a VerifyService over st.  m may be nil.
func NewVerifyService(st store.Store, m *metrics.Metrics) *VerifyService {
	return &VerifyService{st: st, metrics: m}
}

// Lookup normalizes code, checks its shape and returns the matching
// purchase.  The three failure modes are distinct: ErrEmptyCode,
// ErrInvalidCodeFormat and store.ErrNotFound.
func (v *VerifyService) Lookup(ctx context.Context, actor Actor, code string) (*PurchaseDetail, error) {
	if !actor.Caps.CanView {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(code) == "" {
		v.metrics.VerificationLookup("empty")
		return nil, ErrEmptyCode
	}
	code = verification.NormalizeCode(code)
	if !verification.ValidateCodeFormat(code) {
		v.metrics.VerificationLookup("invalid_format")
		return nil, ErrInvalidCodeFormat
	}
	p, err := v.st.GetPurchaseByCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			v.metrics.VerificationLookup("not_found")
		}
		return nil, err
	}
	v.metrics.VerificationLookup("found")
	return loadDetail(ctx, v.st, p)
}

// CodeStats reports how much of the code space is in use.
func (v *VerifyService) CodeStats(ctx context.Context, actor Actor) (verification.Statistics, error) {
	if !actor.Caps.CanView {
		return verification.Statistics{}, ErrForbidden
	}
	used, err := v.st.CountVerificationCodes(ctx)
	if err != nil {
		return verification.Statistics{}, err
	}
	return verification.Stats(used), nil
}
