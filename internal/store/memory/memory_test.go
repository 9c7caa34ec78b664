package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iftf/duoverkoop/internal/model"
	"github.com/iftf/duoverkoop/internal/store"
)

func seeded(t *testing.T) *Memory {
	t.Helper()
	ctx := context.Background()
	m := New()
	_, err := m.CreateAssociation(ctx, model.Association{Name: "Wina"})
	require.NoError(t, err)
	for _, key := range []string{"A", "B"} {
		_, err := m.CreatePerformance(ctx, model.Performance{Key: key, Association: "Wina", MaxTickets: 10, Date: time.Now()})
		require.NoError(t, err)
	}
	return m
}

func TestCreateIsGetOrCreate(t *testing.T) {
	ctx := context.Background()
	m := seeded(t)

	created, err := m.CreatePerformance(ctx, model.Performance{Key: "A", Association: "Wina", Name: "other"})
	require.NoError(t, err)
	assert.False(t, created)

	_, err = m.CreatePerformance(ctx, model.Performance{Key: "C", Association: "Nobody"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestInsertPurchaseRejectsDuplicateCode(t *testing.T) {
	ctx := context.Background()
	m := seeded(t)

	require.NoError(t, m.InsertPurchase(ctx, &model.Purchase{Ticket1: "A", Ticket2: "B", VerificationCode: "x-y-z"}))
	err := m.InsertPurchase(ctx, &model.Purchase{Ticket1: "A", Ticket2: "B", VerificationCode: "x-y-z"})
	assert.ErrorIs(t, err, store.ErrDuplicateCode)

	sold, err := m.CountTicketsSold(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 1, sold)
}

func TestDeletePerformanceProtectedByPurchases(t *testing.T) {
	ctx := context.Background()
	m := seeded(t)
	p := &model.Purchase{Ticket1: "A", Ticket2: "B", VerificationCode: "x-y-z"}
	require.NoError(t, m.InsertPurchase(ctx, p))

	assert.ErrorIs(t, m.DeletePerformance(ctx, "A"), store.ErrConflict)

	require.NoError(t, m.DeletePurchase(ctx, p.ID))
	assert.NoError(t, m.DeletePerformance(ctx, "A"))
	assert.ErrorIs(t, m.DeletePerformance(ctx, "A"), store.ErrNotFound)
}

func TestInTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	m := seeded(t)
	boom := errors.New("boom")

	err := m.InTx(ctx, func(q store.Queries) error {
		if err := q.InsertPurchase(ctx, &model.Purchase{Ticket1: "A", Ticket2: "B", VerificationCode: "x-y-z"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	purchases, err := m.ListPurchases(ctx)
	require.NoError(t, err)
	assert.Empty(t, purchases)
}

func TestAuditEntriesCannotBeMutatedThroughReads(t *testing.T) {
	ctx := context.Background()
	m := seeded(t)
	changes := map[string]any{"ticket2": map[string]any{"old": "A", "new": "B"}}
	require.NoError(t, m.InsertAuditLog(ctx, &model.PurchaseAuditLog{PurchaseID: 1, Action: model.AuditUpdate, Changes: changes}))

	changes["ticket2"].(map[string]any)["old"] = "tampered"
	got, err := m.ListAuditLogs(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	got[0].Changes["email"] = "tampered"
	got[0].Changes["ticket2"].(map[string]any)["old"] = "tampered"

	again, err := m.ListAuditLogs(ctx, 1)
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, map[string]any{"old": "A", "new": "B"}, again[0].Changes["ticket2"])
	assert.NotContains(t, again[0].Changes, "email")
}

func TestInTxHidesUncommittedWrites(t *testing.T) {
	ctx := context.Background()
	m := seeded(t)

	err := m.InTx(ctx, func(q store.Queries) error {
		require.NoError(t, q.InsertPurchase(ctx, &model.Purchase{Ticket1: "A", Ticket2: "B", VerificationCode: "x-y-z"}))
		outside, err := m.ListPurchases(ctx)
		require.NoError(t, err)
		assert.Empty(t, outside)
		return nil
	})
	require.NoError(t, err)

	purchases, err := m.ListPurchases(ctx)
	require.NoError(t, err)
	assert.Len(t, purchases, 1)
}

func TestRollbackKeepsWritesMadeOutsideTx(t *testing.T) {
	ctx := context.Background()
	m := seeded(t)
	require.NoError(t, m.StoreRefresh(ctx, 7, "h1", time.Now().Add(time.Hour)))
	boom := errors.New("boom")

	entered := make(chan struct{})
	release := make(chan struct{})
	txDone := make(chan error, 1)
	go func() {
		txDone <- m.InTx(ctx, func(q store.Queries) error {
			if err := q.InsertPurchase(ctx, &model.Purchase{Ticket1: "A", Ticket2: "B", VerificationCode: "x-y-z"}); err != nil {
				return err
			}
			close(entered)
			<-release
			return boom
		})
	}()
	<-entered

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		assert.NoError(t, m.CreateUser(ctx, &model.User{Username: "alice"}))
	}()
	go func() {
		defer wg.Done()
		assert.NoError(t, m.RevokeByHash(ctx, "h1"))
	}()
	close(release)
	require.ErrorIs(t, <-txDone, boom)
	wg.Wait()

	_, err := m.GetUserByUsername(ctx, "alice")
	assert.NoError(t, err)
	_, err = m.ValidateRefresh(ctx, "h1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	purchases, err := m.ListPurchases(ctx)
	require.NoError(t, err)
	assert.Empty(t, purchases)
}

func TestRefreshTokens(t *testing.T) {
	ctx := context.Background()
	m := New()
	require.NoError(t, m.StoreRefresh(ctx, 7, "h1", time.Now().Add(time.Hour)))
	require.NoError(t, m.StoreRefresh(ctx, 7, "h2", time.Now().Add(-time.Hour)))

	uid, err := m.ValidateRefresh(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), uid)

	_, err = m.ValidateRefresh(ctx, "h2")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, m.RevokeAllForUser(ctx, 7))
	_, err = m.ValidateRefresh(ctx, "h1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
