// Package money provides integer minor-unit amounts for the tour ledger.
//
// All arithmetic is integer-only. An Amount of 9050 is 90.50 in major units.
package money

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// minorDigits is the number of fractional digits carried by an Amount.
const minorDigits = 2

// minorPerMajor is 10^minorDigits.
const minorPerMajor = 100

var (
	// ErrInvalidAmount indicates a value that cannot be read as a money amount.
	ErrInvalidAmount = errors.New("invalid money amount")
	// ErrOverflow is returned by Add and Sub when the result does not fit an Amount.
	ErrOverflow = errors.New("money amount overflow")
)

// Amount is a signed monetary value in minor units (cents).
type Amount int64

const (
	// Zero is the zero amount.
	Zero Amount = 0

	// MaxAmount caps a single expense at one trillion major units, far below
	// the int64 range so balances can absorb many maximal expenses.
	MaxAmount Amount = 1_000_000_000_000 * minorPerMajor
)

// FromMajor builds an Amount from whole major units.
func FromMajor(units int64) Amount {
	return Amount(units * minorPerMajor)
}

// ParseMajor parses a decimal string in major units such as "90", "90.5" or "-12.34".
// At most two fractional digits are accepted; exponents are not.
func ParseMajor(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}

	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	whole, frac, hasDot := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return 0, ErrInvalidAmount
	}
	if hasDot && (frac == "" || len(frac) > minorDigits) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if !allDigits(whole) || !allDigits(frac) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	var cents int64
	if frac != "" {
		for len(frac) < minorDigits {
			frac += "0"
		}
		cents, _ = strconv.ParseInt(frac, 10, 64)
	}

	var units int64
	if whole != "" {
		var err error
		units, err = strconv.ParseInt(whole, 10, 64)
		if err != nil || units > (math.MaxInt64-cents)/minorPerMajor {
			return 0, fmt.Errorf("%w: %q out of range", ErrInvalidAmount, s)
		}
	}

	total := units*minorPerMajor + cents
	if negative {
		total = -total
	}
	return Amount(total), nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Minor returns the raw minor-unit value.
func (a Amount) Minor() int64 { return int64(a) }

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool { return a == 0 }

// IsPositive reports whether the amount is greater than zero.
func (a Amount) IsPositive() bool { return a > 0 }

// IsNegative reports whether the amount is less than zero.
func (a Amount) IsNegative() bool { return a < 0 }

// Abs returns the absolute value.
func (a Amount) Abs() Amount {
	if a < 0 {
		return -a
	}
	return a
}

// Add returns a+b, or ErrOverflow if the sum leaves the int64 range.
func Add(a, b Amount) (Amount, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, fmt.Errorf("%w: %s + %s", ErrOverflow, a, b)
	}
	return sum, nil
}

// Sub returns a-b, or ErrOverflow if the difference leaves the int64 range.
func Sub(a, b Amount) (Amount, error) {
	diff := a - b
	if (b > 0 && diff > a) || (b < 0 && diff < a) {
		return 0, fmt.Errorf("%w: %s - %s", ErrOverflow, a, b)
	}
	return diff, nil
}

// Min returns the smaller of a and b.
func Min(a, b Amount) Amount {
	if a < b {
		return a
	}
	return b
}

// String formats the amount in major units with two fractional digits, e.g. "-30.00".
func (a Amount) String() string {
	sign := ""
	v := uint64(a)
	if a < 0 {
		sign = "-"
		v = uint64(-(a + 1)) + 1
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/minorPerMajor, v%minorPerMajor)
}

// MarshalJSON encodes the amount as a JSON number in major units.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string in major units.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidAmount, s)
		}
		s = unquoted
	}

	parsed, err := ParseMajor(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
