package treeline

import (
	"encoding/json"
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money is a signed monetary amount in a single currency. The value is kept
// as an exact decimal in major units; negative means money leaving the
// account. Currency "" is weak: it adopts the other operand's currency in
// arithmetic, which keeps test fixtures and CSV rows (no currency column)
// painless.
type Money struct {
	value decimal.Decimal
	cur   string
}

// M builds a Money from any numeric value and a currency code.
func M[T float32 | float64 | int | int32 | int64 | decimal.Decimal](value T, currency string) Money {
	return Money{value: newDecimal(value), cur: currency}
}

// ParseMoney reads a decimal amount like "-1234.56".
func ParseMoney(s, currency string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Money{value: d, cur: currency}, nil
}

func newDecimal(v any) decimal.Decimal {
	switch n := v.(type) {
	case decimal.Decimal:
		return n
	case float32:
		return decimal.NewFromFloat32(n)
	case float64:
		return decimal.NewFromFloat(n)
	case int:
		return decimal.NewFromInt(int64(n))
	case int32:
		return decimal.NewFromInt32(n)
	case int64:
		return decimal.NewFromInt(n)
	}
	panic(fmt.Sprintf("unsupported numeric type %T", v))
}

// currency resolves the full currency record, defaulting unknown codes the
// way go-money does (2 fraction digits).
func (m Money) currency() money.Currency {
	return *money.New(0, m.cur).Currency()
}

// Fraction returns the currency's minor-unit digit count (2 for USD, 0 for
// JPY). The fingerprint scales amounts by this so "25.5" and "25.50" agree.
func (m Money) Fraction() int { return m.currency().Fraction }

// Scaled renders the amount at the currency's minor-unit scale, sign
// preserved, negative zero collapsed to zero. This is the canonical form
// hashed into content fingerprints: "-42.50", "0.00", "1200" (JPY).
func (m Money) Scaled() string {
	r := m.value.Round(int32(m.Fraction()))
	if r.IsZero() {
		// avoid "-0.00" from sign-preserving rounding
		r = decimal.Zero.Round(int32(m.Fraction()))
	}
	return r.StringFixed(int32(m.Fraction()))
}

// String formats the amount with the currency's symbol and grouping,
// e.g. "-$842.32".
func (m Money) String() string {
	cur := m.currency()
	minor := m.value.Shift(int32(cur.Fraction))
	return cur.Formatter().Format(minor.IntPart())
}

// Decimal exposes the exact major-unit value.
func (m Money) Decimal() decimal.Decimal { return m.value }

func (m Money) Currency() string    { return m.cur }
func (m Money) IsZero() bool        { return m.value.IsZero() }
func (m Money) IsNegative() bool    { return m.value.IsNegative() }
func (m Money) IsPositive() bool    { return m.value.IsPositive() }
func (m Money) Neg() Money          { return Money{value: m.value.Neg(), cur: m.cur} }
func (m Money) Equal(n Money) bool  { return m.value.Equal(n.value) && m.cur == n.cur }
func (m Money) Add(n Money) Money   { return Money{value: m.value.Add(n.value), cur: mergeCur(m, n)} }
func (m Money) Sub(n Money) Money   { return Money{value: m.value.Sub(n.value), cur: mergeCur(m, n)} }
func (m Money) Abs() Money          { return Money{value: m.value.Abs(), cur: m.cur} }
func (m Money) Cmp(n Money) int     { return m.value.Cmp(n.value) }
func (m Money) InexactFloat() float64 { return m.value.InexactFloat64() }

// WithinCent reports whether m and n differ by less than one hundredth of a
// major unit. The snapshot recorder uses this to ignore provider rounding
// noise on repeated same-day balances.
func (m Money) WithinCent(n Money) bool {
	diff := m.value.Sub(n.value).Abs()
	return diff.LessThan(decimal.New(1, -2))
}

func mergeCur(a, b Money) string {
	if a.cur == "" {
		return b.cur
	}
	if b.cur == "" {
		return a.cur
	}
	if a.cur != b.cur {
		panic("currency mismatch " + a.cur + " != " + b.cur)
	}
	return a.cur
}

// MarshalJSON writes {"amount": <number>, "currency": "USD"} with the amount
// rounded to the currency fraction.
func (m Money) MarshalJSON() ([]byte, error) {
	rounded := m.value.Round(int32(m.Fraction()))
	return []byte(fmt.Sprintf(`{"amount":%s,"currency":%q}`, rounded.String(), m.cur)), nil
}

// UnmarshalJSON reads the form written by MarshalJSON.
func (m *Money) UnmarshalJSON(b []byte) error {
	var raw struct {
		Amount   decimal.Decimal `json:"amount"`
		Currency string          `json:"currency"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("invalid money value: %w", err)
	}
	m.value = raw.Amount
	m.cur = raw.Currency
	return nil
}
