// Package duration parses the ISO-8601 duration tokens returned by the
// time-tracking API.
package duration

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMalformed indicates a token that does not match PT[<n>H][<n>M][<n>S].
var ErrMalformed = errors.New("malformed duration")

// unit order within a token; each unit may appear at most once
var units = []struct {
	marker  byte
	perHour float64
}{
	{'H', 1},
	{'M', 60},
	{'S', 3600},
}

// Parse converts a token such as "PT1H30M" into hours rounded to the
// nearest half hour. Midpoints round up (math.Round on non-negative input),
// so 15 minutes is 0.5 and 45 minutes is 1.0.
func Parse(token string) (float64, error) {
	rest, ok := strings.CutPrefix(token, "PT")
	if !ok {
		return 0, fmt.Errorf("%w: %q: missing PT prefix", ErrMalformed, token)
	}
	if rest == "" {
		return 0, fmt.Errorf("%w: %q: no components", ErrMalformed, token)
	}

	var total float64
	next := 0 // index into units of the next allowed marker
	for rest != "" {
		i := 0
		for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
			i++
		}
		if i == 0 {
			return 0, fmt.Errorf("%w: %q: expected digits before %q", ErrMalformed, token, rest)
		}
		if i == len(rest) {
			return 0, fmt.Errorf("%w: %q: missing unit after %s", ErrMalformed, token, rest)
		}

		n, err := strconv.ParseUint(rest[:i], 10, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrMalformed, token, err)
		}

		marker := rest[i]
		u := next
		for u < len(units) && units[u].marker != marker {
			u++
		}
		if u == len(units) {
			if strings.IndexByte("HMS", marker) >= 0 {
				return 0, fmt.Errorf("%w: %q: unit %c out of order", ErrMalformed, token, marker)
			}
			return 0, fmt.Errorf("%w: %q: unknown unit %c", ErrMalformed, token, marker)
		}

		total += float64(n) / units[u].perHour
		next = u + 1
		rest = rest[i+1:]
	}

	return RoundHalfHour(total), nil
}

// RoundHalfHour rounds hours to the nearest 0.5.
func RoundHalfHour(hours float64) float64 {
	return math.Round(hours*2) / 2
}
