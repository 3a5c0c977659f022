// Package scoring computes proof-of-work difficulty for event identifiers and
// decides which events count as PoW-bearing.
package scoring

// leadingZeros[v] is the number of leading zero bits of the nibble v.
var leadingZeros = [16]int{4, 3, 2, 2, 1, 1, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0}

// Difficulty returns the number of leading zero bits of id read as a
// big-endian hex number. The whole string is validated; a non-hex character
// anywhere yields ErrMalformedID.
func Difficulty(id string) (int, error) {
	bits := 0
	done := false
	for i := 0; i < len(id); i++ {
		v, ok := nibble(id[i])
		if !ok {
			return 0, malformed(id)
		}
		if done {
			continue
		}
		if v == 0 {
			bits += 4
			continue
		}
		bits += leadingZeros[v]
		done = true
	}
	return bits, nil
}

func nibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
