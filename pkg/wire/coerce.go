// Wrapping numeric coercion for Jack wire arguments
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package wire

import (
	"math/big"
	"strconv"
	"strings"
)

// ArgType identifies the declared type of a command argument.
type ArgType int

const (
	// Byte is an unsigned 8-bit value (wraps modulo 256).
	Byte ArgType = iota

	// Int is a signed 16-bit value (device int width).
	Int

	// Long is a signed 32-bit value (device long width).
	Long

	// Str is passed through verbatim.
	Str

	// FloatSigned is a signed decimal value.
	FloatSigned

	// List is a '.'-separated numeric sequence.
	List
)

// String returns the single-letter wire notation for the type.
func (t ArgType) String() string {
	switch t {
	case Byte:
		return "b"
	case Int:
		return "i"
	case Long:
		return "l"
	case Str:
		return "s"
	case FloatSigned:
		return "f"
	case List:
		return "L"
	default:
		return "?"
	}
}

var (
	mod8  = new(big.Int).Lsh(big.NewInt(1), 8)
	mod16 = new(big.Int).Lsh(big.NewInt(1), 16)
	mod32 = new(big.Int).Lsh(big.NewInt(1), 32)
)

// parseInteger extracts the integral part of text as an arbitrary-precision
// integer. Decimal fractions truncate toward the integral part and
// non-numeric text yields zero, nothing is ever rejected.
func parseInteger(text string) *big.Int {
	s := strings.TrimSpace(text)
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		s = s[:idx]
	}

	neg := false
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	s = s[:end]
	if s == "" {
		return new(big.Int)
	}

	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return new(big.Int)
	}
	if neg {
		v.Neg(v)
	}
	return v
}

// wrap reduces v modulo 2^bits; signed results land in two's-complement
// range, unsigned in [0, 2^bits).
func wrap(v *big.Int, modulus *big.Int, signed bool) int64 {
	r := new(big.Int).Mod(v, modulus) // Go big.Mod is Euclidean, result >= 0
	out := r.Int64()
	if signed {
		half := new(big.Int).Rsh(modulus, 1)
		if r.Cmp(half) >= 0 {
			out -= modulus.Int64()
		}
	}
	return out
}

// CoerceByte reduces text to an unsigned 8-bit value, wrapping negatives
// via two's complement ("-250" -> 6).
func CoerceByte(text string) int64 {
	return wrap(parseInteger(text), mod8, false)
}

// CoerceInt reduces text to a signed 16-bit value.
func CoerceInt(text string) int64 {
	return wrap(parseInteger(text), mod16, true)
}

// CoerceLong reduces text to a signed 32-bit value.
func CoerceLong(text string) int64 {
	return wrap(parseInteger(text), mod32, true)
}

// CoerceFloat parses text as a signed decimal; non-numeric text yields 0.
func CoerceFloat(text string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0
	}
	return v
}

// CoerceList splits a '.'-separated sequence and coerces each entry as a
// Long. Invalid or empty entries are skipped, not rejected.
func CoerceList(text string) []int64 {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	parts := strings.Split(text, ".")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !hasDigit(p) {
			continue
		}
		out = append(out, CoerceLong(p))
	}
	return out
}

func hasDigit(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			return true
		}
	}
	return false
}

// Coerce applies the declared type to a raw argument, returning the wire
// text of the coerced value. Str and List arguments pass through raw.
func Coerce(t ArgType, text string) string {
	switch t {
	case Byte:
		return strconv.FormatInt(CoerceByte(text), 10)
	case Int:
		return strconv.FormatInt(CoerceInt(text), 10)
	case Long:
		return strconv.FormatInt(CoerceLong(text), 10)
	case FloatSigned:
		return strconv.FormatFloat(CoerceFloat(text), 'g', -1, 64)
	default:
		return text
	}
}
