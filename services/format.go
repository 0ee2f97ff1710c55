package services

import (
	"fmt"
	"math"
	"strings"
)

// RoundCents rounds a dollar amount to the cent, half away from zero. The
// calculator applies it after every arithmetic step so floating-point drift
// cannot compound across the line items.
func RoundCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// FormatUSD formats a float64 amount into US dollar notation with 3-digit
// grouping and exactly 2 decimal places, e.g. $1,234,567.89.
func FormatUSD(amount float64) string {
	negative := false
	if amount < 0 {
		negative = true
		amount = -amount
	}

	raw := fmt.Sprintf("%.2f", amount)
	parts := strings.SplitN(raw, ".", 2)
	intPart := parts[0]
	decPart := parts[1]

	result := "$" + groupThousands(intPart) + "." + decPart
	if negative {
		result = "-" + result
	}
	return result
}

// groupThousands inserts commas into an integer string every 3 digits from
// the right.
func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	result := s[n-3:]
	remaining := s[:n-3]
	for len(remaining) > 3 {
		result = remaining[len(remaining)-3:] + "," + result
		remaining = remaining[:len(remaining)-3]
	}
	return remaining + "," + result
}
