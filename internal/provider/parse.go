package provider

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

var (
	nonPriceChars = regexp.MustCompile(`[^\d.,]`)
	digitsRe      = regexp.MustCompile(`\d+`)
)

// ParsePrice extracts a numeric value from a price string such as
// "€1.234", "€1,234.56" or "1.234,56". Both EU and US thousand/decimal
// separator conventions are handled.
func ParsePrice(s string) (float64, error) {
	cleaned := nonPriceChars.ReplaceAllString(s, "")
	if cleaned == "" {
		return 0, eris.Errorf("provider: no numeric value in price %q", s)
	}

	hasComma := strings.Contains(cleaned, ",")
	hasDot := strings.Contains(cleaned, ".")
	switch {
	case hasComma && hasDot:
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			// EU style: 1.234,56
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else {
			// US style: 1,234.56
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case hasComma:
		parts := strings.Split(cleaned, ",")
		if len(parts[len(parts)-1]) == 3 {
			// Thousands separator: 1,234
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		} else {
			// Decimal comma: 123,45
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		}
	case hasDot:
		parts := strings.Split(cleaned, ".")
		if len(parts) > 2 || len(parts[len(parts)-1]) == 3 {
			// EU thousands separator: 1.234
			cleaned = strings.ReplaceAll(cleaned, ".", "")
		}
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "provider: parse price %q", s)
	}
	return v, nil
}

// ParseStops extracts a stop count from a textual description such as
// "Nonstop", "1 stop" or "2 stops". Unrecognized input counts as direct.
func ParseStops(s string) int {
	if s == "" {
		return 0
	}
	lower := strings.ToLower(s)
	if strings.Contains(lower, "nonstop") || strings.Contains(lower, "direct") {
		return 0
	}
	if m := digitsRe.FindString(lower); m != "" {
		n, err := strconv.Atoi(m)
		if err == nil {
			return n
		}
	}
	return 0
}
