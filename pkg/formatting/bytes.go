// Package formatting provides parsing and formatting helpers for values that
// cross configuration and model boundaries: byte sizes and JSON replies.
package formatting

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var units = []string{"B", "KB", "MB", "GB", "TB", "PB"}

var bytesPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([A-Za-z]*)$`)

// FormatBytes renders n using base-1024 units with the given precision.
func FormatBytes(n int64, precision int) string {
	if n <= 0 {
		return "0 B"
	}
	precision = max(precision, 0)

	size := float64(n)
	idx := 0
	for size >= 1024 && idx < len(units)-1 {
		size /= 1024
		idx++
	}

	return strconv.FormatFloat(size, 'f', precision, 64) + " " + units[idx]
}

// ParseBytes parses a size such as "20MB", "512 KiB" or "1024" into bytes.
// Units are base-1024 and case-insensitive; "KiB" style suffixes are
// accepted as synonyms of "KB".
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size string")
	}

	m := bytesPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid byte size: %q", s)
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size number: %w", err)
	}

	exp, err := unitExponent(m[2])
	if err != nil {
		return 0, err
	}

	return int64(value * math.Pow(1024, float64(exp))), nil
}

func unitExponent(unit string) (int, error) {
	u := strings.ToUpper(unit)
	if u == "" || u == "B" {
		return 0, nil
	}
	u = strings.Replace(u, "IB", "B", 1)
	if len(u) == 1 {
		u += "B"
	}
	for i, known := range units {
		if u == known {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown byte size unit: %q", unit)
}
