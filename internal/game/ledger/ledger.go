package ledger

import "math"

// DefaultCapMax is the capital ceiling used when no rules override it.
const DefaultCapMax = 10

// Ledger holds a player's economic counters.
// Capital is the per-turn spendable resource and is clamped to [0, capMax].
// Revenue is the cumulative score and only grows in normal play.
type Ledger struct {
	Capital int64 `json:"capital"`
	Revenue int64 `json:"revenue"`
}

// GainCapital adds amount (which may be negative) and clamps the result to
// [0, capMax]. It returns the change actually applied.
func (l *Ledger) GainCapital(amount int64, capMax int64) int64 {
	if capMax <= 0 {
		capMax = DefaultCapMax
	}
	before := l.Capital
	l.Capital = Clamp(AddSaturating(l.Capital, amount), 0, capMax)
	return l.Capital - before
}

// GainRevenue adds amount to revenue. Revenue has no ceiling; the sum
// saturates at math.MaxInt64 instead of wrapping.
func (l *Ledger) GainRevenue(amount int64) int64 {
	before := l.Revenue
	l.Revenue = AddSaturating(l.Revenue, amount)
	if l.Revenue < 0 {
		l.Revenue = 0
	}
	return l.Revenue - before
}

// CanAfford reports whether the capital covers cost.
func (l *Ledger) CanAfford(cost int64) bool {
	return cost <= l.Capital
}

// Spend deducts cost from capital. It returns false and leaves the ledger
// untouched when capital is insufficient.
func (l *Ledger) Spend(cost int64) bool {
	if cost <= 0 {
		return true
	}
	if !l.CanAfford(cost) {
		return false
	}
	l.Capital -= cost
	return true
}

// SetCapital replaces capital, clamped to [0, capMax].
func (l *Ledger) SetCapital(v int64, capMax int64) {
	if capMax <= 0 {
		capMax = DefaultCapMax
	}
	l.Capital = Clamp(v, 0, capMax)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}


// AddSaturating adds b to a, stopping at the int64 bounds.
func AddSaturating(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	if b < 0 && a < math.MinInt64-b {
		return math.MinInt64
	}
	return a + b
}

// MulSaturating multiplies two non-negative amounts, stopping at math.MaxInt64.
// Negative inputs are treated as zero.
func MulSaturating(a, b int64) int64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	if a > math.MaxInt64/b {
		return math.MaxInt64
	}
	return a * b
}
