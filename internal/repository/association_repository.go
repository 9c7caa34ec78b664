package repository

import (
	"context"
	"database/sql"

	"github.com/iftf/duoverkoop/internal/model"
)

// AssociationRepo manages persistence for associations.
type AssociationRepo struct {
	q Querier
}

// NewAssociationRepo constructs an AssociationRepo on q.
func NewAssociationRepo(q Querier) *AssociationRepo {
	return &AssociationRepo{q: q}
}

// CreateAssociation inserts a unless an association with the same name
// already exists.  It reports whether a row was created.
func (r *AssociationRepo) CreateAssociation(ctx context.Context, a model.Association) (bool, error) {
	const q = `INSERT INTO associations (name, image) VALUES (?, ?)`
	_, err := r.q.ExecContext(ctx, q, a.Name, nullString(a.Image))
	if err != nil {
		if isDuplicate(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetAssociation returns store.ErrNotFound when name is unknown.
func (r *AssociationRepo) GetAssociation(ctx context.Context, name string) (*model.Association, error) {
	const q = `SELECT name, image FROM associations WHERE name = ?`
	var (
		a     model.Association
		image sql.NullString
	)
	if err := r.q.QueryRowContext(ctx, q, name).Scan(&a.Name, &image); err != nil {
		return nil, notFound(err)
	}
	a.Image = stringPtr(image)
	return &a, nil
}

// ListAssociations returns every association ordered by case-insensitive name.
func (r *AssociationRepo) ListAssociations(ctx context.Context) ([]model.Association, error) {
	const q = `SELECT name, image FROM associations ORDER BY LOWER(name), name`
	rows, err := r.q.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Association
	for rows.Next() {
		var (
			a     model.Association
			image sql.NullString
		)
		if err := rows.Scan(&a.Name, &image); err != nil {
			return nil, err
		}
		a.Image = stringPtr(image)
		out = append(out, a)
	}
	return out, rows.Err()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
