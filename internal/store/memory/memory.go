// Package memory provides an in-memory store.Store for development and
// tests.  All data is lost when the process exits.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iftf/duoverkoop/internal/model"
	"github.com/iftf/duoverkoop/internal/store"
)

type refreshRow struct {
	userID    uint64
	expiresAt time.Time
	revoked   bool
}

type state struct {
	associations map[string]model.Association
	performances map[string]model.Performance
	purchases    map[uint64]model.Purchase
	audit        []model.PurchaseAuditLog
	users        map[uint64]model.User
	refresh      map[string]refreshRow
	nextPurchase uint64
	nextAudit    uint64
	nextUser     uint64
}

func (s *state) clone() *state {
	return &state{
		associations: maps.Clone(s.associations),
		performances: maps.Clone(s.performances),
		purchases:    maps.Clone(s.purchases),
		audit:        append([]model.PurchaseAuditLog(nil), s.audit...),
		users:        maps.Clone(s.users),
		refresh:      maps.Clone(s.refresh),
		nextPurchase: s.nextPurchase,
		nextAudit:    s.nextAudit,
		nextUser:     s.nextUser,
	}
}

// Memory is a store.Store backed by maps.  InTx runs its unit of work
// against a private copy of the state and swaps it in on commit, so readers
// never see uncommitted rows.  Writers outside a transaction wait for the
// running transaction to finish.
type Memory struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	s    *state
	now  func() time.Time
}

var _ store.Store = (*Memory)(nil)

// New returns an empty Memory store.
func New() *Memory {
	return &Memory{
		s: &state{
			associations: make(map[string]model.Association),
			performances: make(map[string]model.Performance),
			purchases:    make(map[uint64]model.Purchase),
			users:        make(map[uint64]model.User),
			refresh:      make(map[string]refreshRow),
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// InTx runs fn on a copy of the store and publishes the copy when fn
// returns nil.  Transactions are serialized.
func (m *Memory) InTx(_ context.Context, fn func(q store.Queries) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.RLock()
	tx := &Memory{s: m.s.clone(), now: m.now}
	m.mu.RUnlock()

	if err := fn(tx); err != nil {
		return err
	}
	m.mu.Lock()
	m.s = tx.s
	m.mu.Unlock()
	return nil
}

// lockWrite takes both locks so a write cannot land between a transaction's
// snapshot and its commit.
func (m *Memory) lockWrite() func() {
	m.txMu.Lock()
	m.mu.Lock()
	return func() {
		m.mu.Unlock()
		m.txMu.Unlock()
	}
}

// ---- Catalog ----

func (m *Memory) CreateAssociation(_ context.Context, a model.Association) (bool, error) {
	defer m.lockWrite()()
	if _, ok := m.s.associations[a.Name]; ok {
		return false, nil
	}
	m.s.associations[a.Name] = a
	return true, nil
}

func (m *Memory) GetAssociation(_ context.Context, name string) (*model.Association, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.s.associations[name]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &a, nil
}

func (m *Memory) ListAssociations(_ context.Context) ([]model.Association, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Association, 0, len(m.s.associations))
	for _, a := range m.s.associations {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (m *Memory) CreatePerformance(_ context.Context, p model.Performance) (bool, error) {
	defer m.lockWrite()()
	if _, ok := m.s.associations[p.Association]; !ok {
		return false, store.ErrNotFound
	}
	if _, ok := m.s.performances[p.Key]; ok {
		return false, nil
	}
	m.s.performances[p.Key] = p
	return true, nil
}

func (m *Memory) GetPerformance(_ context.Context, key string) (*model.Performance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.s.performances[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (m *Memory) ListPerformances(_ context.Context) ([]model.Performance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Performance, 0, len(m.s.performances))
	for _, p := range m.s.performances {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

func (m *Memory) DeletePerformance(_ context.Context, key string) error {
	defer m.lockWrite()()
	if _, ok := m.s.performances[key]; !ok {
		return store.ErrNotFound
	}
	for _, p := range m.s.purchases {
		if p.Holds(key) > 0 {
			return store.ErrConflict
		}
	}
	delete(m.s.performances, key)
	return nil
}

// LockPerformances only checks existence; InTx already serializes writers.
func (m *Memory) LockPerformances(_ context.Context, keys ...string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, k := range keys {
		if _, ok := m.s.performances[k]; !ok {
			return store.ErrNotFound
		}
	}
	return nil
}

// ---- Purchases ----

func (m *Memory) CountTicketsSold(_ context.Context, key string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, p := range m.s.purchases {
		n += p.Holds(key)
	}
	return n, nil
}

func (m *Memory) VerificationCodes(_ context.Context) (map[string]struct{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	codes := make(map[string]struct{}, len(m.s.purchases))
	for _, p := range m.s.purchases {
		codes[p.VerificationCode] = struct{}{}
	}
	return codes, nil
}

func (m *Memory) CountVerificationCodes(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.s.purchases), nil
}

func (m *Memory) InsertPurchase(_ context.Context, p *model.Purchase) error {
	defer m.lockWrite()()
	for _, key := range p.Tickets() {
		if _, ok := m.s.performances[key]; !ok {
			return store.ErrNotFound
		}
	}
	for _, existing := range m.s.purchases {
		if existing.VerificationCode == p.VerificationCode {
			return store.ErrDuplicateCode
		}
	}
	m.s.nextPurchase++
	p.ID = m.s.nextPurchase
	if p.Date.IsZero() {
		p.Date = m.now()
	}
	m.s.purchases[p.ID] = *p
	return nil
}

func (m *Memory) GetPurchase(_ context.Context, id uint64) (*model.Purchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.s.purchases[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (m *Memory) GetPurchaseByCode(_ context.Context, code string) (*model.Purchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.s.purchases {
		if p.VerificationCode == code {
			return &p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Memory) ListPurchases(_ context.Context) ([]model.Purchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Purchase, 0, len(m.s.purchases))
	for _, p := range m.s.purchases {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *Memory) UpdatePurchase(_ context.Context, p *model.Purchase) error {
	defer m.lockWrite()()
	if _, ok := m.s.purchases[p.ID]; !ok {
		return store.ErrNotFound
	}
	for _, key := range p.Tickets() {
		if _, ok := m.s.performances[key]; !ok {
			return store.ErrNotFound
		}
	}
	m.s.purchases[p.ID] = *p
	return nil
}

func (m *Memory) DeletePurchase(_ context.Context, id uint64) error {
	defer m.lockWrite()()
	if _, ok := m.s.purchases[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.s.purchases, id)
	return nil
}

// ---- Audit log ----

func (m *Memory) InsertAuditLog(_ context.Context, e *model.PurchaseAuditLog) error {
	defer m.lockWrite()()
	m.s.nextAudit++
	e.ID = m.s.nextAudit
	if e.Timestamp.IsZero() {
		e.Timestamp = m.now()
	}
	stored, err := copyAuditLog(*e)
	if err != nil {
		return err
	}
	m.s.audit = append(m.s.audit, stored)
	return nil
}

func (m *Memory) ListAuditLogs(_ context.Context, purchaseID uint64) ([]model.PurchaseAuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.PurchaseAuditLog
	for _, e := range m.s.audit {
		if e.PurchaseID == purchaseID {
			c, err := copyAuditLog(e)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		}
	}
	return out, nil
}

// copyAuditLog detaches an entry from caller-owned memory.  Changes go
// through the same JSON encoding the MySQL store persists.
func copyAuditLog(e model.PurchaseAuditLog) (model.PurchaseAuditLog, error) {
	if e.IPAddress != nil {
		ip := *e.IPAddress
		e.IPAddress = &ip
	}
	if e.Changes == nil {
		return e, nil
	}
	raw, err := json.Marshal(e.Changes)
	if err != nil {
		return e, fmt.Errorf("encode audit changes: %w", err)
	}
	var changes map[string]any
	if err := json.Unmarshal(raw, &changes); err != nil {
		return e, fmt.Errorf("decode audit changes: %w", err)
	}
	e.Changes = changes
	return e, nil
}

// ---- Users ----

func (m *Memory) CreateUser(_ context.Context, u *model.User) error {
	defer m.lockWrite()()
	for _, existing := range m.s.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return store.ErrConflict
		}
	}
	m.s.nextUser++
	u.ID = m.s.nextUser
	now := m.now()
	u.CreatedAt, u.UpdatedAt = now, now
	m.s.users[u.ID] = *u
	return nil
}

func (m *Memory) GetUserByID(_ context.Context, id uint64) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (m *Memory) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.s.users {
		if strings.EqualFold(u.Username, username) {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Memory) ListUsers(_ context.Context) ([]model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.User, 0, len(m.s.users))
	for _, u := range m.s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) SetUserGroup(_ context.Context, id uint64, group string) error {
	defer m.lockWrite()()
	u, ok := m.s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.Group = group
	u.UpdatedAt = m.now()
	m.s.users[id] = u
	return nil
}

// ---- Tokens ----

func (m *Memory) StoreRefresh(_ context.Context, userID uint64, tokenHash string, exp time.Time) error {
	defer m.lockWrite()()
	m.s.refresh[tokenHash] = refreshRow{userID: userID, expiresAt: exp}
	return nil
}

func (m *Memory) ValidateRefresh(_ context.Context, tokenHash string) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.s.refresh[tokenHash]
	if !ok || row.revoked || m.now().After(row.expiresAt) {
		return 0, store.ErrNotFound
	}
	return row.userID, nil
}

func (m *Memory) RevokeByHash(_ context.Context, tokenHash string) error {
	defer m.lockWrite()()
	if row, ok := m.s.refresh[tokenHash]; ok {
		row.revoked = true
		m.s.refresh[tokenHash] = row
	}
	return nil
}

func (m *Memory) RevokeAllForUser(_ context.Context, userID uint64) error {
	defer m.lockWrite()()
	for h, row := range m.s.refresh {
		if row.userID == userID {
			row.revoked = true
			m.s.refresh[h] = row
		}
	}
	return nil
}
