package money

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		cents    int64
		currency string
		want     string
	}{
		{0, "USD", "$0.00"},
		{5, "USD", "$0.05"},
		{1250, "eur", "€12.50"},
		{123456789, "GBP", "£1,234,567.89"},
		{-1999, "USD", "-$19.99"},
		{1500, "JPY", "¥1,500"},
		{100000, "TRY", "₺1,000.00"},
		{1250, "CHF", "12.50 CHF"},
		{99, "", "0.99"},
		{math.MaxInt64, "USD", "$92,233,720,368,547,758.07"},
		{math.MinInt64, "USD", "-$92,233,720,368,547,758.08"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.cents, tt.currency))
		})
	}
}

func TestMajor(t *testing.T) {
	assert.InDelta(t, 12.5, Major(1250, "USD"), 0.0001)
	assert.InDelta(t, 1250, Major(1250, "JPY"), 0.0001)
}
