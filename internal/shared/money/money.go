// Package money formats integer minor-unit amounts for display.
package money

import (
	"strconv"
	"strings"
)

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"TRY": "₺",
	"JPY": "¥",
}

// zeroDecimal currencies have no minor unit; amounts are stored in whole units.
var zeroDecimal = map[string]bool{"JPY": true}

// Format renders cents as "$1,234.50". Unknown currencies render as "1,234.50 XYZ".
func Format(cents int64, currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))

	neg := cents < 0
	// unsigned so that math.MinInt64 negates cleanly
	mag := uint64(cents)
	if neg {
		mag = -mag
	}

	var num string
	if zeroDecimal[currency] {
		num = group(mag)
	} else {
		num = group(mag/100) + "." + pad2(mag%100)
	}

	var out string
	if sym, ok := symbols[currency]; ok {
		out = sym + num
	} else if currency != "" {
		out = num + " " + currency
	} else {
		out = num
	}
	if neg {
		return "-" + out
	}
	return out
}

// Major converts cents to a float for export formats that need a number.
func Major(cents int64, currency string) float64 {
	if zeroDecimal[strings.ToUpper(currency)] {
		return float64(cents)
	}
	return float64(cents) / 100
}

func group(n uint64) string {
	s := strconv.FormatUint(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func pad2(n uint64) string {
	if n < 10 {
		return "0" + strconv.FormatUint(n, 10)
	}
	return strconv.FormatUint(n, 10)
}
