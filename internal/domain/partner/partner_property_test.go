package partner

import (
	"testing"

	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

// centsInRange draws a two-decimal amount between lo and hi cents.
func centsInRange(t *rapid.T, label string, lo, hi int64) decimal.Decimal {
	return decimal.New(rapid.Int64Range(lo, hi).Draw(t, label), -2)
}

// The ledger invariant: after any sequence of debits and credits,
// 0 <= AvailableCredit <= CreditLimit.
func TestProperty_LedgerStaysWithinBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		limit := centsInRange(t, "limit", 0, 1_000_000_00)
		p, err := New("P1", "prop", limit)
		if err != nil {
			t.Fatalf("New: %v", err)
		}

		steps := rapid.IntRange(1, 50).Draw(t, "steps")
		for range steps {
			amount := centsInRange(t, "amount", 0, 1_000_000_00)
			if rapid.Bool().Draw(t, "debit") {
				// A rejected debit is fine; a partial mutation is not.
				before := p.AvailableCredit
				if err := p.Debit(amount); err != nil && !p.AvailableCredit.Equal(before) {
					t.Fatalf("failed debit mutated ledger: %s -> %s", before, p.AvailableCredit)
				}
			} else if err := p.Credit(amount); err != nil {
				t.Fatalf("Credit(%s): %v", amount, err)
			}

			if p.AvailableCredit.IsNegative() {
				t.Fatalf("available credit went negative: %s", p.AvailableCredit)
			}
			if p.AvailableCredit.GreaterThan(p.CreditLimit) {
				t.Fatalf("available credit %s exceeds limit %s", p.AvailableCredit, p.CreditLimit)
			}
		}
	})
}

// Debit followed by an equal credit restores the ledger exactly, as long as
// the credit is not clamped by the limit (which cannot happen right after a
// successful debit of the same amount).
func TestProperty_DebitCreditRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		limit := centsInRange(t, "limit", 1, 1_000_000_00)
		p, err := New("P1", "prop", limit)
		if err != nil {
			t.Fatalf("New: %v", err)
		}

		// Spend some of the line first so the round trip starts from an
		// arbitrary mid-ledger position.
		spent := centsInRange(t, "spent", 0, limit.Mul(decimal.New(100, 0)).IntPart())
		if p.HasAvailableCredit(spent) {
			if err := p.Debit(spent); err != nil {
				t.Fatalf("Debit(%s): %v", spent, err)
			}
		}

		amount := centsInRange(t, "amount", 0, 1_000_000_00)
		if !p.HasAvailableCredit(amount) {
			t.Skip("amount exceeds available credit")
		}

		before := p.AvailableCredit
		if err := p.Debit(amount); err != nil {
			t.Fatalf("Debit(%s): %v", amount, err)
		}
		if err := p.Credit(amount); err != nil {
			t.Fatalf("Credit(%s): %v", amount, err)
		}
		if !p.AvailableCredit.Equal(before) {
			t.Fatalf("round trip drifted: before=%s after=%s", before, p.AvailableCredit)
		}
	})
}
