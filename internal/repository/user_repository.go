package repository

import (
	"context"
	"strings"
	"time"

	"github.com/iftf/duoverkoop/internal/model"
	"github.com/iftf/duoverkoop/internal/store"
)

// UserRepo manages staff accounts in the 'users' table.
type UserRepo struct{ q Querier }

func NewUserRepo(q Querier) *UserRepo { return &UserRepo{q: q} }

const userColumns = "id,username,email,password_hash,group_name,is_active,created_at,updated_at"

func scanUser(s rowScanner) (model.User, error) {
	var u model.User
	err := s.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Group, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// CreateUser inserts u and assigns its ID.  Usernames are unique; the
// column collation makes the check case-insensitive.
func (r *UserRepo) CreateUser(ctx context.Context, u *model.User) error {
	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.q.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, group_name, is_active) VALUES (?,?,?,?,?)",
		u.Username, u.Email, u.PasswordHash, u.Group, u.IsActive)
	if err != nil {
		if isDuplicate(err) {
			return store.ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	return nil
}

// GetUserByID fetches a user by id.
func (r *UserRepo) GetUserByID(ctx context.Context, id uint64) (*model.User, error) {
	u, err := scanUser(r.q.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// GetUserByUsername fetches a user by trimmed username.
func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(r.q.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", strings.TrimSpace(username)))
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// ListUsers returns every account ordered by id.
func (r *UserRepo) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := r.q.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// SetUserGroup replaces the user's group.  A user belongs to exactly one
// group at a time.
func (r *UserRepo) SetUserGroup(ctx context.Context, id uint64, group string) error {
	res, err := r.q.ExecContext(ctx, "UPDATE users SET group_name=? WHERE id=?", group, id)
	if err != nil {
		return err
	}
	return requireRow(ctx, r.q, res, "SELECT 1 FROM users WHERE id=?", id)
}
