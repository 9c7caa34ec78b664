package service

import (
	"context"
	"fmt"

	"github.com/iftf/duoverkoop/internal/model"
	"github.com/iftf/duoverkoop/internal/store"
)

// AuditLog appends purchase audit entries and reads them back.  There is
// no way to alter or remove an entry through this type or any layer below.
type AuditLog struct {
	st store.Store
}

// NewAuditLog returns an AuditLog over st.
func NewAuditLog(st store.Store) *AuditLog {
	return &AuditLog{st: st}
}

// Log appends one entry through q, which is normally the transaction that
// performs the logged action.
func (a *AuditLog) Log(ctx context.Context, q store.AuditLogs, purchaseID uint64, action model.AuditAction, actor Actor, changes map[string]any) (*model.PurchaseAuditLog, error) {
	e := &model.PurchaseAuditLog{
		PurchaseID: purchaseID,
		Action:     action,
		UserID:     actor.UserID,
		Changes:    changes,
		IPAddress:  actor.ipAddress(),
	}
	if err := q.InsertAuditLog(ctx, e); err != nil {
		return nil, fmt.Errorf("audit %s of purchase %d: %w", action, purchaseID, err)
	}
	return e, nil
}

// History returns the entries of a purchase oldest first.  It works for
// deleted purchases too.
func (a *AuditLog) History(ctx context.Context, actor Actor, purchaseID uint64) ([]model.PurchaseAuditLog, error) {
	if !actor.Caps.CanView {
		return nil, ErrForbidden
	}
	return a.st.ListAuditLogs(ctx, purchaseID)
}
