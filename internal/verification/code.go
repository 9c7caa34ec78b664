// Package verification generates and checks the three-word verification
// codes printed on every purchase, e.g. "happy-tree-button".
package verification

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode"
)

// DefaultMaxAttempts bounds GenerateUniqueCode when callers have no opinion.
const DefaultMaxAttempts = 1000

// ErrGenerationExhausted is returned when no unused code was drawn within
// the attempt budget.  It means the word space is close to saturation and
// should be treated as an operational alert, not as a user error.
var ErrGenerationExhausted = errors.New("verification code generation exhausted")

// Generator draws codes from the word lists.  The zero value is not usable;
// use NewGenerator or the package-level helpers.
type Generator struct {
	intN func(n int) int
}

// NewGenerator returns a Generator backed by intN, which must return a
// uniformly distributed value in [0, n).  A nil intN selects math/rand/v2.
func NewGenerator(intN func(n int) int) *Generator {
	if intN == nil {
		intN = rand.IntN
	}
	return &Generator{intN: intN}
}

var defaultGenerator = NewGenerator(nil)

// GenerateCode returns a random code of the form adjective-noun-object.
func (g *Generator) GenerateCode() string {
	adjective := Adjectives[g.intN(len(Adjectives))]
	noun := Nouns[g.intN(len(Nouns))]
	object := Objects[g.intN(len(Objects))]
	return strings.ToLower(adjective + "-" + noun + "-" + object)
}

// GenerateUniqueCode draws candidates until one is not in existing.  It
// gives up with ErrGenerationExhausted after maxAttempts draws.  A
// non-positive maxAttempts selects DefaultMaxAttempts.
func (g *Generator) GenerateUniqueCode(existing map[string]struct{}, maxAttempts int) (string, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		code := g.GenerateCode()
		if _, taken := existing[code]; !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrGenerationExhausted, maxAttempts)
}

// GenerateCode draws a code using the default generator.
func GenerateCode() string { return defaultGenerator.GenerateCode() }

// GenerateUniqueCode draws a code not in existing using the default generator.
func GenerateUniqueCode(existing map[string]struct{}, maxAttempts int) (string, error) {
	return defaultGenerator.GenerateUniqueCode(existing, maxAttempts)
}

// NormalizeCode lower-cases and trims a code so lookups are case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// ValidateCodeFormat reports whether code consists of exactly three
// non-empty alphabetic segments joined by '-'.  The check runs on the
// normalized form.
func ValidateCodeFormat(code string) bool {
	if code == "" {
		return false
	}
	parts := strings.Split(NormalizeCode(code), "-")
	if len(parts) != 3 {
		return false
	}
	for _, part := range parts {
		if part == "" {
			return false
		}
		for _, r := range part {
			if !unicode.IsLetter(r) {
				return false
			}
		}
	}
	return true
}

// Statistics describes how much of the code space is in use.
type Statistics struct {
	TotalCombinations int     `json:"total_combinations"`
	UsedCodes         int     `json:"used_codes"`
	Remaining         int     `json:"remaining"`
	UsagePercentage   float64 `json:"usage_percentage"`
}

// Stats computes Statistics for the given number of issued codes.
func Stats(used int) Statistics {
	s := Statistics{
		TotalCombinations: TotalCombinations,
		UsedCodes:         used,
		Remaining:         TotalCombinations - used,
	}
	if TotalCombinations > 0 {
		s.UsagePercentage = float64(used) / float64(TotalCombinations) * 100
	}
	return s
}
