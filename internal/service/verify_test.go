package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iftf/duoverkoop/internal/metrics"
	"github.com/iftf/duoverkoop/internal/store"
	"github.com/iftf/duoverkoop/internal/store/memory"
	"github.com/iftf/duoverkoop/internal/verification"
)

func TestVerify_Lookup(t *testing.T) {
	st := memory.New()
	seed(t, st)
	ctx := context.Background()
	p, err := newPurchaseService(st).Create(ctx, pos, input("X", "Y"))
	require.NoError(t, err)
	v := NewVerifyService(st, metrics.New())

	d, err := v.Lookup(ctx, pos, "  "+strings.ToUpper(p.VerificationCode)+" ")
	require.NoError(t, err)
	assert.Equal(t, p.ID, d.Purchase.ID)
	assert.Equal(t, "X", d.Performances[0].Key)
	assert.Equal(t, uint32(1200), d.TotalCents)

	tests := []struct {
		code string
		want error
	}{
		{"", ErrEmptyCode},
		{"   ", ErrEmptyCode},
		{"happy-tree", ErrInvalidCodeFormat},
		{"happy-tree-b4tton", ErrInvalidCodeFormat},
		{"zzz-zzz-zzz", store.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			_, err := v.Lookup(ctx, pos, tt.code)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err = v.Lookup(ctx, nobody, p.VerificationCode)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestVerify_CodeStats(t *testing.T) {
	st := memory.New()
	seed(t, st)
	ctx := context.Background()
	svc := newPurchaseService(st)
	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, pos, input("X", "Y"))
		require.NoError(t, err)
	}

	stats, err := NewVerifyService(st, nil).CodeStats(ctx, pos)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.UsedCodes)
	assert.Equal(t, verification.TotalCombinations, stats.TotalCombinations)
	assert.Equal(t, verification.TotalCombinations-3, stats.Remaining)
}
