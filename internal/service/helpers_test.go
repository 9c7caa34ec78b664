package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iftf/duoverkoop/internal/model"
	"github.com/iftf/duoverkoop/internal/queue"
	"github.com/iftf/duoverkoop/internal/store"
	"github.com/iftf/duoverkoop/internal/store/memory"
)

var (
	pos     = Actor{UserID: 1, Username: "pos", IP: "10.0.0.1", Caps: CapabilitiesFor(model.GroupPOSStaff)}
	support = Actor{UserID: 2, Username: "support", IP: "10.0.0.2", Caps: CapabilitiesFor(model.GroupSupportStaff)}
	nobody  = Actor{UserID: 3, Username: "new"}
)

// seed creates association "Wina" with performances X (€5), Y (€7) and
// Z (€9), ten tickets each, plus the staff accounts used by the actors.
func seed(t *testing.T, st store.Store) {
	t.Helper()
	ctx := context.Background()
	img := "wina.jpg"
	_, err := st.CreateAssociation(ctx, model.Association{Name: "Wina", Image: &img})
	require.NoError(t, err)
	base := time.Date(2030, 4, 1, 20, 0, 0, 0, time.UTC)
	for i, p := range []struct {
		key   string
		price uint32
	}{{"X", 500}, {"Y", 700}, {"Z", 900}} {
		addPerformance(t, st, p.key, p.price, 10, base.AddDate(0, 0, i))
	}
	for _, u := range []model.User{
		{Username: "pos", Group: model.GroupPOSStaff},
		{Username: "support", Group: model.GroupSupportStaff},
		{Username: "new"},
	} {
		u := u
		require.NoError(t, st.CreateUser(ctx, &u))
	}
}

func addPerformance(t *testing.T, st store.Store, key string, price uint32, max int, date time.Time) {
	t.Helper()
	created, err := st.CreatePerformance(context.Background(), model.Performance{
		Key: key, Date: date, Association: "Wina", Name: "Show " + key, PriceCents: price, MaxTickets: max,
	})
	require.NoError(t, err)
	require.True(t, created)
}

func testDate() time.Time { return time.Date(2030, 5, 1, 20, 0, 0, 0, time.UTC) }

func newPurchaseService(st store.Store, opts ...Option) *PurchaseService {
	return NewPurchaseService(st, NewAuditLog(st), opts...)
}

func input(p1, p2 string) PurchaseInput {
	return PurchaseInput{Name: "ada lovelace", Email: "ada@example.com", Performance1: p1, Performance2: p2}
}

// sequence returns an intN yielding 0, 1, 2, ... modulo n.
func sequence() func(n int) int {
	var mu sync.Mutex
	i := 0
	return func(n int) int {
		mu.Lock()
		defer mu.Unlock()
		v := i % n
		i++
		return v
	}
}

// hiddenCodes hides the used code set from the purchase service so only
// the unique index catches collisions.
type hiddenCodes struct{ *memory.Memory }

func (h hiddenCodes) VerificationCodes(context.Context) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}

func (h hiddenCodes) InTx(ctx context.Context, fn func(q store.Queries) error) error {
	return h.Memory.InTx(ctx, func(q store.Queries) error { return fn(hiddenQueries{q}) })
}

type hiddenQueries struct{ store.Queries }

func (hiddenQueries) VerificationCodes(context.Context) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}

// racingStore runs race inside every transaction before the caller's work,
// simulating a concurrent writer that committed first.
type racingStore struct {
	*memory.Memory
	race func(q store.Queries)
}

func (r racingStore) InTx(ctx context.Context, fn func(q store.Queries) error) error {
	return r.Memory.InTx(ctx, func(q store.Queries) error {
		if r.race != nil {
			r.race(q)
		}
		return fn(q)
	})
}

type recordingNotifier struct {
	events []queue.PurchaseConfirmedEvent
	err    error
}

func (n *recordingNotifier) Channel() string { return "test" }

func (n *recordingNotifier) PurchaseConfirmed(_ context.Context, ev queue.PurchaseConfirmedEvent) error {
	n.events = append(n.events, ev)
	return n.err
}
