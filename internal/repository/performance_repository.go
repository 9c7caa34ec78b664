package repository

import (
	"context"
	"strings"

	"github.com/iftf/duoverkoop/internal/model"
	"github.com/iftf/duoverkoop/internal/store"
)

// PerformanceRepo manages persistence for performances.  The key column is
// a reserved word in MySQL and is always quoted.
type PerformanceRepo struct {
	q Querier
}

// NewPerformanceRepo constructs a PerformanceRepo on q.
func NewPerformanceRepo(q Querier) *PerformanceRepo {
	return &PerformanceRepo{q: q}
}

const performanceColumns = "`key`, date, association_name, name, price_cents, max_tickets"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerformance(s rowScanner) (model.Performance, error) {
	var p model.Performance
	err := s.Scan(&p.Key, &p.Date, &p.Association, &p.Name, &p.PriceCents, &p.MaxTickets)
	return p, err
}

// CreatePerformance inserts p unless the key is taken and reports whether
// a row was created.  A missing association yields store.ErrNotFound.
func (r *PerformanceRepo) CreatePerformance(ctx context.Context, p model.Performance) (bool, error) {
	const q = "INSERT INTO performances (" + performanceColumns + ") VALUES (?, ?, ?, ?, ?, ?)"
	_, err := r.q.ExecContext(ctx, q, p.Key, p.Date.UTC(), p.Association, p.Name, p.PriceCents, p.MaxTickets)
	switch {
	case err == nil:
		return true, nil
	case isDuplicate(err):
		return false, nil
	case isMissingReference(err):
		return false, store.ErrNotFound
	default:
		return false, err
	}
}

// GetPerformance returns store.ErrNotFound when key is unknown.
func (r *PerformanceRepo) GetPerformance(ctx context.Context, key string) (*model.Performance, error) {
	const q = "SELECT " + performanceColumns + " FROM performances WHERE `key` = ?"
	p, err := scanPerformance(r.q.QueryRowContext(ctx, q, key))
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// ListPerformances returns all performances ordered by date then key.
func (r *PerformanceRepo) ListPerformances(ctx context.Context) ([]model.Performance, error) {
	const q = "SELECT " + performanceColumns + " FROM performances ORDER BY date, `key`"
	rows, err := r.q.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Performance
	for rows.Next() {
		p, err := scanPerformance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeletePerformance removes a performance.  Purchases reference
// performances with ON DELETE RESTRICT, so a referenced key maps to
// store.ErrConflict.
func (r *PerformanceRepo) DeletePerformance(ctx context.Context, key string) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM performances WHERE `key` = ?", key)
	if err != nil {
		if isReferenced(err) {
			return store.ErrConflict
		}
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

// LockPerformances takes exclusive row locks on keys.  Rows are locked in
// key order so two transactions touching the same pair cannot deadlock.
// Callers pass keys already sorted.
func (r *PerformanceRepo) LockPerformances(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	q := "SELECT `key` FROM performances WHERE `key` IN (" + placeholders + ") ORDER BY `key` FOR UPDATE"
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	found := 0
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return err
		}
		found++
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if found < distinct(keys) {
		return store.ErrNotFound
	}
	return nil
}

func distinct(keys []string) int {
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		seen[k] = struct{}{}
	}
	return len(seen)
}
