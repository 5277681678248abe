package auth

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
)

var expiresInPattern = regexp.MustCompile(`^(\d+)([mhd])$`)

// ParseExpiresIn converts "<N>m", "<N>h" or "<N>d" into a duration.
// Anything else, including a zero amount, is a configuration error.
func ParseExpiresIn(s string) (time.Duration, error) {
	m := expiresInPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: invalid expiry %q, want <N>m|h|d", common.ErrorConfiguration, s)
	}

	n, err := strconv.ParseInt(m[1], 10, 32)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: invalid expiry amount %q", common.ErrorConfiguration, s)
	}

	var unit time.Duration
	switch m[2] {
	case "m":
		unit = time.Minute
	case "h":
		unit = time.Hour
	case "d":
		unit = 24 * time.Hour
	}

	return time.Duration(n) * unit, nil
}
