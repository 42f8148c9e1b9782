// Package format provides human-readable renderings of monetary values.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Currency returns a currency string with a dollar sign and thousands separators (e.g., "-$1,234.56").
func Currency(amount float64) string {
	formatted := groupThousands(math.Abs(amount))
	if amount < 0 {
		return "-$" + formatted
	}
	return "$" + formatted
}

func groupThousands(value float64) string {
	formatted := fmt.Sprintf("%.2f", value)
	intPart, decPart, _ := strings.Cut(formatted, ".")

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	return intPart + "." + decPart
}

// Compact abbreviates a value with k/M/B suffixes (e.g., 250000 -> "250k").
// Fractions are kept to one decimal and trailing zeros dropped.
func Compact(value float64) string {
	abs := math.Abs(value)
	suffix := ""
	switch {
	case abs >= 1e9:
		value, suffix = value/1e9, "B"
	case abs >= 1e6:
		value, suffix = value/1e6, "M"
	case abs >= 1e3:
		value, suffix = value/1e3, "k"
	}
	return strconv.FormatFloat(math.Round(value*10)/10, 'f', -1, 64) + suffix
}
