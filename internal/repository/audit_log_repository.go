package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iftf/duoverkoop/internal/model"
)

// AuditLogRepo appends and reads purchase audit entries.  The table is
// guarded by triggers that reject UPDATE and DELETE, so the repository
// exposes neither.
type AuditLogRepo struct {
	q Querier
}

// NewAuditLogRepo constructs an AuditLogRepo on q.
func NewAuditLogRepo(q Querier) *AuditLogRepo {
	return &AuditLogRepo{q: q}
}

// InsertAuditLog stores e and assigns its ID.  Changes are serialized as
// JSON; a nil map is stored as NULL.
func (r *AuditLogRepo) InsertAuditLog(ctx context.Context, e *model.PurchaseAuditLog) error {
	if !e.Action.Valid() {
		return fmt.Errorf("audit: invalid action %q", e.Action)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	var changes []byte
	if e.Changes != nil {
		b, err := json.Marshal(e.Changes)
		if err != nil {
			return fmt.Errorf("audit: encode changes: %w", err)
		}
		changes = b
	}
	const q = `INSERT INTO purchase_audit_logs (purchase_id, action, timestamp, user_id, changes, ip_address)
               VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.q.ExecContext(ctx, q, e.PurchaseID, string(e.Action), e.Timestamp.UTC(), e.UserID, changes, nullString(e.IPAddress))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// ListAuditLogs returns a purchase's entries oldest first.
func (r *AuditLogRepo) ListAuditLogs(ctx context.Context, purchaseID uint64) ([]model.PurchaseAuditLog, error) {
	const q = `SELECT id, purchase_id, action, timestamp, user_id, changes, ip_address
               FROM purchase_audit_logs WHERE purchase_id = ? ORDER BY timestamp, id`
	rows, err := r.q.QueryContext(ctx, q, purchaseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.PurchaseAuditLog
	for rows.Next() {
		var (
			e       model.PurchaseAuditLog
			action  string
			changes []byte
			ip      sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.PurchaseID, &action, &e.Timestamp, &e.UserID, &changes, &ip); err != nil {
			return nil, err
		}
		e.Action = model.AuditAction(action)
		e.IPAddress = stringPtr(ip)
		if len(changes) > 0 {
			if err := json.Unmarshal(changes, &e.Changes); err != nil {
				return nil, fmt.Errorf("audit: decode changes of entry %d: %w", e.ID, err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
