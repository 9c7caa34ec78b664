package service

import (
	"context"
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/iftf/duoverkoop/internal/model"
	"github.com/iftf/duoverkoop/internal/store"
)

// PurchaseInput is what staff submit to register or edit a purchase.
type PurchaseInput struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Performance1 string `json:"performance1"`
	Performance2 string `json:"performance2"`
}

// Normalized trims every field and capitalizes the buyer name.
func (in PurchaseInput) Normalized() PurchaseInput {
	return PurchaseInput{
		Name:         CapitalizeName(in.Name),
		Email:        strings.TrimSpace(in.Email),
		Performance1: strings.TrimSpace(in.Performance1),
		Performance2: strings.TrimSpace(in.Performance2),
	}
}

// CapitalizeName trims s and upper-cases its first letter, leaving the
// rest untouched: "  de smet" becomes "De smet".
func CapitalizeName(s string) string {
	s = strings.TrimSpace(s)
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Validator checks purchase inputs against the catalog and the ledger.
// Its verdict is advisory outside a transaction; PurchaseService repeats
// it under row locks before committing.
type Validator struct {
	v *validator.Validate
}

// NewValidator returns a Validator.
func NewValidator() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate checks a new purchase.  The returned error is reserved for
// storage failures; rejected input is reported in the result.
func (v *Validator) Validate(ctx context.Context, q ledgerQueries, in PurchaseInput) (*ValidationResult, error) {
	return v.validate(ctx, q, in, nil)
}

// ValidateEdit checks the new selection for an existing purchase, counting
// the tickets current already holds as available.
func (v *Validator) ValidateEdit(ctx context.Context, q ledgerQueries, in PurchaseInput, current *model.Purchase) (*ValidationResult, error) {
	return v.validate(ctx, q, in, current)
}

func (v *Validator) validate(ctx context.Context, q ledgerQueries, in PurchaseInput, current *model.Purchase) (*ValidationResult, error) {
	in = in.Normalized()
	res := &ValidationResult{}

	if in.Name == "" {
		res.add("name", CodeRequired, "name is required")
	}
	switch {
	case in.Email == "":
		res.add("email", CodeRequired, "email is required")
	case v.v.Var(in.Email, "email") != nil:
		res.add("email", CodeInvalidEmail, "email is not a valid address")
	}

	fields := []struct{ name, key string }{
		{"performance1", in.Performance1},
		{"performance2", in.Performance2},
	}
	for _, f := range fields {
		if f.key == "" {
			res.add(f.name, CodeRequired, "performance is required")
		}
	}
	if in.Performance1 != "" && in.Performance1 == in.Performance2 {
		res.add("performance2", CodeDuplicatePerformance, "both tickets are for the same performance")
		fields = fields[:1]
	}

	ledger := NewLedger(q)
	for _, f := range fields {
		if f.key == "" {
			continue
		}
		p, err := q.GetPerformance(ctx, f.key)
		if errors.Is(err, store.ErrNotFound) {
			res.add(f.name, CodeNotFound, "performance "+f.key+" does not exist")
			continue
		}
		if err != nil {
			return nil, err
		}
		left, err := ledger.ticketsLeft(ctx, p)
		if err != nil {
			return nil, err
		}
		if current != nil {
			left += current.Holds(f.key)
		}
		if left <= 0 {
			res.add(f.name, CodeSoldOut, "performance "+f.key+" is sold out")
		}
	}
	return res, nil
}
