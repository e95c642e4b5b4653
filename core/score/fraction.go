package score

import (
	"fmt"
	"math/big"
)

// Fraction is a reduced rational duration measured in whole notes.
type Fraction struct {
	Num int64 `json:"numerator"`
	Den int64 `json:"denominator"`
}

// NewFraction returns num/den in lowest terms. den must not be zero.
func NewFraction(num, den int64) Fraction {
	return fromRat(big.NewRat(num, den))
}

func fromRat(r *big.Rat) Fraction {
	return Fraction{Num: r.Num().Int64(), Den: r.Denom().Int64()}
}

// Rat returns the fraction as a big.Rat.
func (f Fraction) Rat() *big.Rat {
	if f.Den == 0 {
		return new(big.Rat)
	}
	return big.NewRat(f.Num, f.Den)
}

// Add returns f + g in lowest terms.
func (f Fraction) Add(g Fraction) Fraction {
	return fromRat(new(big.Rat).Add(f.Rat(), g.Rat()))
}

// Mul returns f scaled by n.
func (f Fraction) Mul(n int64) Fraction {
	return fromRat(new(big.Rat).Mul(f.Rat(), big.NewRat(n, 1)))
}

// IsZero reports whether the fraction is zero or unset.
func (f Fraction) IsZero() bool {
	return f.Num == 0
}

// Equal compares two fractions by value.
func (f Fraction) Equal(g Fraction) bool {
	return f.Rat().Cmp(g.Rat()) == 0
}

func (f Fraction) String() string {
	return fmt.Sprintf("%d/%d", f.Num, f.Den)
}
