package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iftf/duoverkoop/internal/model"
	"github.com/iftf/duoverkoop/internal/store"
)

// PurchaseRepo manages persistence for purchases.  Ticket counts are never
// stored; they are derived from the purchases referencing a performance.
type PurchaseRepo struct {
	q Querier
}

// NewPurchaseRepo constructs a PurchaseRepo on q.
func NewPurchaseRepo(q Querier) *PurchaseRepo {
	return &PurchaseRepo{q: q}
}

const purchaseColumns = `id, date, name, email, ticket1_key, ticket2_key, verification_code, created_by, modified_by, modified_date`

func scanPurchase(s rowScanner) (model.Purchase, error) {
	var (
		p            model.Purchase
		modifiedBy   sql.NullInt64
		modifiedDate sql.NullTime
	)
	err := s.Scan(&p.ID, &p.Date, &p.Name, &p.Email, &p.Ticket1, &p.Ticket2,
		&p.VerificationCode, &p.CreatedBy, &modifiedBy, &modifiedDate)
	if err != nil {
		return p, err
	}
	if modifiedBy.Valid {
		id := uint64(modifiedBy.Int64)
		p.ModifiedBy = &id
	}
	if modifiedDate.Valid {
		t := modifiedDate.Time
		p.ModifiedDate = &t
	}
	return p, nil
}

// CountTicketsSold counts purchases holding key in either ticket slot.  A
// purchase can never hold the same key twice, so the two counts add up.
func (r *PurchaseRepo) CountTicketsSold(ctx context.Context, key string) (int, error) {
	const q = `SELECT
        (SELECT COUNT(*) FROM purchases WHERE ticket1_key = ?) +
        (SELECT COUNT(*) FROM purchases WHERE ticket2_key = ?)`
	var n int
	err := r.q.QueryRowContext(ctx, q, key, key).Scan(&n)
	return n, err
}

// VerificationCodes returns the set of codes in use.
func (r *PurchaseRepo) VerificationCodes(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT verification_code FROM purchases`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		out[code] = struct{}{}
	}
	return out, rows.Err()
}

// CountVerificationCodes returns the number of codes in use.
func (r *PurchaseRepo) CountVerificationCodes(ctx context.Context) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM purchases`).Scan(&n)
	return n, err
}

// InsertPurchase stores p and assigns the generated ID.  The unique index
// on verification_code is authoritative: a collision returns
// store.ErrDuplicateCode.
func (r *PurchaseRepo) InsertPurchase(ctx context.Context, p *model.Purchase) error {
	if p.Date.IsZero() {
		p.Date = time.Now().UTC()
	}
	const q = `INSERT INTO purchases (date, name, email, ticket1_key, ticket2_key, verification_code, created_by)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.q.ExecContext(ctx, q, p.Date.UTC(), p.Name, p.Email, p.Ticket1, p.Ticket2, p.VerificationCode, p.CreatedBy)
	if err != nil {
		return mapPurchaseWriteErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

func mapPurchaseWriteErr(err error) error {
	switch {
	case isDuplicate(err):
		return store.ErrDuplicateCode
	case isMissingReference(err):
		return store.ErrNotFound
	case mysqlErrNumber(err) == errCheckConstraint:
		return store.ErrConflict
	default:
		return err
	}
}

// GetPurchase returns store.ErrNotFound when id is unknown.
func (r *PurchaseRepo) GetPurchase(ctx context.Context, id uint64) (*model.Purchase, error) {
	p, err := scanPurchase(r.q.QueryRowContext(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// GetPurchaseByCode looks a purchase up by its exact verification code.
func (r *PurchaseRepo) GetPurchaseByCode(ctx context.Context, code string) (*model.Purchase, error) {
	p, err := scanPurchase(r.q.QueryRowContext(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE verification_code = ?`, code))
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// ListPurchases returns all purchases, newest first.
func (r *PurchaseRepo) ListPurchases(ctx context.Context) ([]model.Purchase, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+purchaseColumns+` FROM purchases ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdatePurchase writes every mutable column of p.
func (r *PurchaseRepo) UpdatePurchase(ctx context.Context, p *model.Purchase) error {
	const q = `UPDATE purchases
               SET name = ?, email = ?, ticket1_key = ?, ticket2_key = ?, verification_code = ?, modified_by = ?, modified_date = ?
               WHERE id = ?`
	var (
		modifiedBy   sql.NullInt64
		modifiedDate sql.NullTime
	)
	if p.ModifiedBy != nil {
		modifiedBy = sql.NullInt64{Int64: int64(*p.ModifiedBy), Valid: true}
	}
	if p.ModifiedDate != nil {
		modifiedDate = sql.NullTime{Time: p.ModifiedDate.UTC(), Valid: true}
	}
	res, err := r.q.ExecContext(ctx, q, p.Name, p.Email, p.Ticket1, p.Ticket2, p.VerificationCode, modifiedBy, modifiedDate, p.ID)
	if err != nil {
		return mapPurchaseWriteErr(err)
	}
	return requireRow(ctx, r.q, res, `SELECT 1 FROM purchases WHERE id = ?`, p.ID)
}

// DeletePurchase removes a purchase.  Audit entries are kept.
func (r *PurchaseRepo) DeletePurchase(ctx context.Context, id uint64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM purchases WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// requireRow distinguishes "no such row" from "row unchanged": MySQL
// reports zero affected rows for an UPDATE that writes identical values.
func requireRow(ctx context.Context, q Querier, res sql.Result, probe string, args ...any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var one int
	if err := q.QueryRowContext(ctx, probe, args...).Scan(&one); err != nil {
		return notFound(err)
	}
	return nil
}
