package clients

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmountToBaseUnits(t *testing.T) {
	tests := []struct {
		amount string
		exp    int32
		want   uint64
	}{
		{"0.5", 9, 500_000_000},
		{"1.0", 9, 1_000_000_000},
		{"0.000000001", 9, 1},
		{"2.5", 8, 250_000_000},
		{"500000000", 9, 500_000_000},
		{"1", 9, 1},
		{"1,000.5", 9, 1_000_500_000_000},
		{" 0.5 ", 9, 500_000_000},
	}
	for _, tt := range tests {
		got, err := parseAmountToBaseUnits(tt.amount, tt.exp)
		require.NoError(t, err, "amount %q", tt.amount)
		assert.Equal(t, tt.want, got, "amount %q", tt.amount)
	}
}

func TestParseAmountToBaseUnits_Errors(t *testing.T) {
	for _, amount := range []string{"", "abc", "-0.5", "1.2.3", "-5", "99999999999999999999999.0"} {
		_, err := parseAmountToBaseUnits(amount, 9)
		assert.Error(t, err, "amount %q", amount)
	}
}
