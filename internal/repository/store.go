// Package repository implements store.Store on top of MySQL.  Each
// repository works against a Querier so the same code runs on the pool or
// inside a transaction.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/iftf/duoverkoop/internal/store"
)

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries bundles every repository bound to one Querier.
type Queries struct {
	*AssociationRepo
	*PerformanceRepo
	*PurchaseRepo
	*AuditLogRepo
	*UserRepo
	*TokenRepo
}

var _ store.Queries = (*Queries)(nil)

// NewQueries binds all repositories to q.
func NewQueries(q Querier) *Queries {
	return &Queries{
		AssociationRepo: NewAssociationRepo(q),
		PerformanceRepo: NewPerformanceRepo(q),
		PurchaseRepo:    NewPurchaseRepo(q),
		AuditLogRepo:    NewAuditLogRepo(q),
		UserRepo:        NewUserRepo(q),
		TokenRepo:       NewTokenRepo(q),
	}
}

// Store is the MySQL store.Store.
type Store struct {
	*Queries
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// NewStore returns a Store using db for reads and writes outside transactions.
func NewStore(db *sql.DB) *Store {
	return &Store{Queries: NewQueries(db), db: db}
}

// DB exposes the underlying pool for health checks and migrations.
func (s *Store) DB() *sql.DB { return s.db }

// InTx runs fn in a READ COMMITTED transaction.  Row locks taken with
// LockPerformances serialize concurrent purchases for the same shows.
func (s *Store) InTx(ctx context.Context, fn func(q store.Queries) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(NewQueries(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

// MySQL error numbers used to map driver errors onto store sentinels.
const (
	errDupEntry         = 1062
	errRowIsReferenced  = 1451
	errNoReferencedRow  = 1452
	errRowIsReferenced2 = 1217
	errNoReferencedRow2 = 1216
	errCheckConstraint  = 3819
)

func mysqlErrNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

func isDuplicate(err error) bool { return mysqlErrNumber(err) == errDupEntry }

func isReferenced(err error) bool {
	n := mysqlErrNumber(err)
	return n == errRowIsReferenced || n == errRowIsReferenced2
}

func isMissingReference(err error) bool {
	n := mysqlErrNumber(err)
	return n == errNoReferencedRow || n == errNoReferencedRow2
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}
