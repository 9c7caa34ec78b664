package store

import (
	"context"
	"time"

	"github.com/iftf/duoverkoop/internal/model"
)

// Catalog covers associations and performances.
type Catalog interface {
	// CreateAssociation inserts a when no association with that name exists
	// and reports whether a row was created.
	CreateAssociation(ctx context.Context, a model.Association) (bool, error)
	GetAssociation(ctx context.Context, name string) (*model.Association, error)
	ListAssociations(ctx context.Context) ([]model.Association, error)

	// CreatePerformance inserts p when no performance with that key exists
	// and reports whether a row was created.
	CreatePerformance(ctx context.Context, p model.Performance) (bool, error)
	GetPerformance(ctx context.Context, key string) (*model.Performance, error)
	ListPerformances(ctx context.Context) ([]model.Performance, error)
	// DeletePerformance returns ErrConflict while purchases reference key.
	DeletePerformance(ctx context.Context, key string) error
	// LockPerformances takes row locks on the given performances until the
	// surrounding transaction ends.  Outside a transaction it is a no-op.
	LockPerformances(ctx context.Context, keys ...string) error
}

// Purchases covers purchase rows and the derived ticket counts.
type Purchases interface {
	// CountTicketsSold counts purchases referencing key in either slot.
	CountTicketsSold(ctx context.Context, key string) (int, error)
	VerificationCodes(ctx context.Context) (map[string]struct{}, error)
	CountVerificationCodes(ctx context.Context) (int, error)

	// InsertPurchase stores p and assigns p.ID.  It returns
	// ErrDuplicateCode when the verification code is taken.
	InsertPurchase(ctx context.Context, p *model.Purchase) error
	GetPurchase(ctx context.Context, id uint64) (*model.Purchase, error)
	GetPurchaseByCode(ctx context.Context, code string) (*model.Purchase, error)
	// ListPurchases returns all purchases, newest first.
	ListPurchases(ctx context.Context) ([]model.Purchase, error)
	UpdatePurchase(ctx context.Context, p *model.Purchase) error
	DeletePurchase(ctx context.Context, id uint64) error
}

// AuditLogs is append-only: there is deliberately no update or delete.
type AuditLogs interface {
	InsertAuditLog(ctx context.Context, e *model.PurchaseAuditLog) error
	// ListAuditLogs returns the entries of a purchase in temporal order.
	ListAuditLogs(ctx context.Context, purchaseID uint64) ([]model.PurchaseAuditLog, error)
}

// Users covers staff accounts.
type Users interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id uint64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	SetUserGroup(ctx context.Context, id uint64, group string) error
}

// Tokens persists refresh token hashes.
type Tokens interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	// ValidateRefresh returns the owner of a non-revoked, non-expired token
	// or ErrNotFound.
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// Queries is everything a request may read or write, either directly or
// inside a transaction.
type Queries interface {
	Catalog
	Purchases
	AuditLogs
	Users
	Tokens
}

// Store is a Queries bound to the shared database plus the ability to run a
// unit of work atomically.
type Store interface {
	Queries
	// InTx runs fn inside a transaction.  The transaction commits when fn
	// returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(q Queries) error) error
}
