package auth

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExpiresIn(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"1m", time.Minute},
		{"15m", 15 * time.Minute},
		{"1h", time.Hour},
		{"7d", 7 * 24 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseExpiresIn(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseExpiresIn_Invalid(t *testing.T) {
	for _, in := range []string{"", "m", "15", "15s", "1w", "-1m", " 1m", "1m ", "1.5h", "0m", "99999999999d"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseExpiresIn(in)
			assert.ErrorIs(t, err, common.ErrorConfiguration)
		})
	}
}
