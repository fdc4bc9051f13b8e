package consolidation

import (
	"math"
	"strconv"
	"strings"
)

// ParseID turns a loosely typed identifier into a positive integer. Blank,
// "undefined" and "null" count as missing. Integral decimal forms such as
// "12.0" are accepted.
func ParseID(name, raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "", "undefined", "null":
		return 0, invalidArgument(ReasonMissingID, "%s is required", name)
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || math.IsInf(f, 0) || f != math.Trunc(f) || f >= math.MaxInt64 {
			return 0, invalidArgument(ReasonInvalidID, "%s must be an integer, got %q", name, raw)
		}
		if f <= 0 {
			return 0, invalidArgument(ReasonInvalidID, "%s must be a positive integer, got %q", name, raw)
		}
		n = int64(f)
	}
	if n <= 0 {
		return 0, invalidArgument(ReasonInvalidID, "%s must be a positive integer, got %q", name, raw)
	}
	return n, nil
}
