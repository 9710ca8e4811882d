package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// parseNumber вычисляет значение литерала: 42, 1_000, 8'hff, 4'sb1111.
// Знаковый литерал с размером расширяется знаком из старшего бита.
func parseNumber(text string) (int64, error) {
	clean := strings.ReplaceAll(text, "_", "")
	size, rest, based := strings.Cut(clean, "'")
	if !based {
		v, err := strconv.ParseInt(clean, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("literal %s does not fit in 64 bits", text)
		}
		return v, nil
	}

	signed := false
	if rest != "" && (rest[0] == 's' || rest[0] == 'S') {
		signed = true
		rest = rest[1:]
	}
	if rest == "" {
		return 0, fmt.Errorf("malformed literal %s", text)
	}
	var base int
	switch rest[0] {
	case 'b', 'B':
		base = 2
	case 'o', 'O':
		base = 8
	case 'd', 'D':
		base = 10
	case 'h', 'H':
		base = 16
	default:
		return 0, fmt.Errorf("malformed literal %s", text)
	}
	v, err := strconv.ParseUint(rest[1:], base, 64)
	if err != nil {
		return 0, fmt.Errorf("literal %s does not fit in 64 bits", text)
	}

	if size == "" {
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("literal %s does not fit in 64 bits", text)
		}
		return int64(v), nil // #nosec G115 -- checked above
	}
	bits, err := strconv.ParseUint(size, 10, 8)
	if err != nil || bits == 0 || bits > 64 {
		return 0, fmt.Errorf("literal size must be between 1 and 64, got %s", size)
	}
	if bits < 64 && v>>bits != 0 {
		return 0, fmt.Errorf("literal %s does not fit in %d bits", text, bits)
	}
	if signed && v>>(bits-1)&1 == 1 {
		if bits < 64 {
			v |= ^uint64(0) << bits
		}
		return int64(v), nil // #nosec G115 -- two's complement reinterpretation
	}
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("literal %s does not fit in 64 bits", text)
	}
	return int64(v), nil // #nosec G115 -- checked above
}
