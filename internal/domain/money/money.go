package money

import "fmt"

// Cents is a monetary amount in integer minor units. All arithmetic in the
// billing engine goes through this type; floating point never touches an
// amount.
type Cents int64

// Add returns a + b.
func (a Cents) Add(b Cents) Cents { return a + b }

// Sub returns a - b clamped at zero. Balances and outstanding amounts never
// go negative.
func (a Cents) Sub(b Cents) Cents {
	if b >= a {
		return 0
	}
	return a - b
}

// Percent returns pct percent of the amount, rounded half up.
func (a Cents) Percent(pct int64) Cents {
	return Cents((int64(a)*pct + 50) / 100)
}

// Half returns half the amount, rounded half up.
func (a Cents) Half() Cents {
	return Cents((int64(a) + 1) / 2)
}

// Min returns the smaller of a and b.
func Min(a, b Cents) Cents {
	if a < b {
		return a
	}
	return b
}

// IsPositive reports whether the amount is strictly greater than zero.
func (a Cents) IsPositive() bool { return a > 0 }

// Format renders the amount as a dollar string, e.g. 1850 -> "$18.50".
func (a Cents) Format() string {
	v := int64(a)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s$%d.%02d", sign, v/100, v%100)
}
