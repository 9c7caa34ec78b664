package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iftf/duoverkoop/internal/store/memory"
)

func TestValidator_Validate(t *testing.T) {
	st := memory.New()
	seed(t, st)
	addPerformance(t, st, "GONE", 500, 0, testDate())
	v := NewValidator()

	tests := []struct {
		name  string
		in    PurchaseInput
		field string
		code  string
	}{
		{"empty name", PurchaseInput{Name: "  ", Email: "a@b.be", Performance1: "X", Performance2: "Y"}, "name", CodeRequired},
		{"empty email", PurchaseInput{Name: "Ada", Performance1: "X", Performance2: "Y"}, "email", CodeRequired},
		{"malformed email", PurchaseInput{Name: "Ada", Email: "not-an-email", Performance1: "X", Performance2: "Y"}, "email", CodeInvalidEmail},
		{"missing first performance", PurchaseInput{Name: "Ada", Email: "a@b.be", Performance2: "Y"}, "performance1", CodeRequired},
		{"missing second performance", PurchaseInput{Name: "Ada", Email: "a@b.be", Performance1: "X"}, "performance2", CodeRequired},
		{"unknown performance", input("X", "NOPE"), "performance2", CodeNotFound},
		{"same performance twice", input("X", "X"), "performance2", CodeDuplicatePerformance},
		{"sold out", input("GONE", "X"), "performance1", CodeSoldOut},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := v.Validate(context.Background(), st, tt.in)
			require.NoError(t, err)
			assert.False(t, res.OK())
			assert.True(t, res.Has(tt.field, tt.code), "got %+v", res.Errors)

			var verr *ValidationError
			require.True(t, errors.As(res.Err(), &verr))
			assert.ErrorIs(t, res.Err(), ErrValidation)
		})
	}
}

func TestValidator_DuplicateRejectedRegardlessOfAvailability(t *testing.T) {
	st := memory.New()
	seed(t, st)
	addPerformance(t, st, "GONE", 500, 0, testDate())
	v := NewValidator()

	for _, key := range []string{"X", "GONE"} {
		res, err := v.Validate(context.Background(), st, input(key, key))
		require.NoError(t, err)
		assert.True(t, res.Has("performance2", CodeDuplicatePerformance), key)
	}
}

func TestValidator_Accepts(t *testing.T) {
	st := memory.New()
	seed(t, st)

	res, err := NewValidator().Validate(context.Background(), st, input(" X ", "Y"))
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.NoError(t, res.Err())
}

func TestCapitalizeName(t *testing.T) {
	assert.Equal(t, "Ada lovelace", CapitalizeName("  ada lovelace "))
	assert.Equal(t, "Élodie", CapitalizeName("élodie"))
	assert.Equal(t, "", CapitalizeName("   "))
}
