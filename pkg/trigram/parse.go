package trigram

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseSeed parses a seed entered by a caller. Empty input means no seed and
// returns ok == false. Integral numbers written with a fraction or exponent
// ("2.0", "1e2") are accepted; anything else that is not an integer in the
// int64 range is rejected with ErrInvalidArgument.
func ParseSeed(raw string) (seed int64, ok bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false, nil
	}
	seed, valid := parseInteger(raw)
	if !valid {
		return 0, false, fmt.Errorf("%w: seed must be an integer, got %q", ErrInvalidArgument, raw)
	}
	return seed, true, nil
}

// ParseMaxTokens parses a max token count entered by a caller. It must be a
// positive integer, in the same notations ParseSeed accepts.
func ParseMaxTokens(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	n, valid := parseInteger(raw)
	if !valid || n <= 0 || n > math.MaxInt {
		return 0, fmt.Errorf("%w: max tokens must be a positive integer, got %q", ErrInvalidArgument, raw)
	}
	return int(n), nil
}

// parseInteger accepts decimal integers and finite integral floats that fit
// in an int64.
func parseInteger(raw string) (int64, bool) {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return 0, false
	}
	// 2^63 is exactly representable; int64 covers [-2^63, 2^63).
	if f < -(1<<63) || f >= 1<<63 {
		return 0, false
	}
	return int64(f), true
}
