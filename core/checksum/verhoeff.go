// Package checksum validates the check digit embedded in national identity numbers.
package checksum

import (
	"fmt"
	"strings"
)

// Length is the number of digits of a national identity number.
const Length = 12

// Order is the order in which the digits are fed to the Verhoeff tables.
//
// Student and teacher registrations historically disagree on this: student IDs are checked
// rightmost digit first (textbook Verhoeff) while teacher IDs are checked as typed. Both are
// kept as named orders until the product owner decides which one is canonical.
type Order int

const (
	// Reversed processes the rightmost digit first.
	Reversed Order = iota
	// AsProvided processes the digits in the order they were typed.
	AsProvided
)

func (o Order) String() string {
	switch o {
	case Reversed:
		return "reversed"
	case AsProvided:
		return "as_provided"
	default:
		return fmt.Sprintf("Order(%d)", int(o))
	}
}

// ParseOrder parses "reversed" or "as_provided".
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reversed", "":
		return Reversed, nil
	case "as_provided", "asprovided", "as-provided":
		return AsProvided, nil
	default:
		return Reversed, fmt.Errorf("unknown checksum order %q", s)
	}
}

var (
	// multiplication table of the dihedral group D5
	mul = [10][10]int{
		{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
		{1, 2, 3, 4, 0, 6, 7, 8, 9, 5},
		{2, 3, 4, 0, 1, 7, 8, 9, 5, 6},
		{3, 4, 0, 1, 2, 8, 9, 5, 6, 7},
		{4, 0, 1, 2, 3, 9, 5, 6, 7, 8},
		{5, 9, 8, 7, 6, 0, 4, 3, 2, 1},
		{6, 5, 9, 8, 7, 1, 0, 4, 3, 2},
		{7, 6, 5, 9, 8, 2, 1, 0, 4, 3},
		{8, 7, 6, 5, 9, 3, 2, 1, 0, 4},
		{9, 8, 7, 6, 5, 4, 3, 2, 1, 0},
	}

	// position permutations; row i applies to the i-th processed digit (mod 8)
	perm = [8][10]int{
		{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
		{1, 5, 7, 6, 2, 8, 3, 0, 9, 4},
		{5, 8, 0, 3, 7, 9, 6, 1, 4, 2},
		{8, 9, 1, 6, 0, 4, 3, 5, 2, 7},
		{9, 4, 5, 3, 1, 2, 7, 8, 6, 0},
		{4, 2, 8, 6, 5, 7, 3, 9, 0, 1},
		{2, 7, 9, 3, 8, 0, 6, 4, 1, 5},
		{7, 0, 4, 6, 9, 1, 3, 2, 5, 8},
	}
)

// Valid reports whether digits is a 12 digit number whose Verhoeff checksum is zero when the
// digits are processed in the given order. Malformed input is simply invalid.
func Valid(digits string, order Order) bool {
	if len(digits) != Length {
		return false
	}
	check := 0
	for i := 0; i < Length; i++ {
		pos := i
		if order == Reversed {
			pos = Length - 1 - i
		}
		c := digits[pos]
		if c < '0' || c > '9' {
			return false
		}
		check = mul[check][perm[i%8][c-'0']]
	}
	return check == 0
}

// Complete appends the check digit to an 11 digit prefix.
func Complete(prefix string, order Order) (string, error) {
	if len(prefix) != Length-1 {
		return "", fmt.Errorf("prefix must be %d digits long", Length-1)
	}
	for d := byte('0'); d <= '9'; d++ {
		if id := prefix + string(d); Valid(id, order) {
			return id, nil
		}
	}
	return "", fmt.Errorf("prefix %q is not numeric", prefix)
}
