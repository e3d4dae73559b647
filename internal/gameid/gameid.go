// Package gameid generates sortable game identifiers: a UUIDv7 encoded as a
// 26-character Crockford base32 string. The embedded timestamp keeps IDs
// roughly creation-ordered, which makes logs and database listings readable.
package gameid

import (
	"fmt"

	"github.com/google/uuid"
)

// Crockford's base32 alphabet, lowercase.
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Generate creates a new game ID from a fresh UUIDv7.
func Generate() string {
	return Encode(uuid.Must(uuid.NewV7()))
}

// Encode renders a UUID as a 26-character base32 game ID.
func Encode(u uuid.UUID) string {
	data := [16]byte(u)
	result := make([]byte, 26)

	// 128 bits in 5-bit groups, left-aligned: 26 characters, the last
	// group padded with zero bits.
	for i := 0; i < 26; i++ {
		bitOffset := i * 5
		byteIndex := bitOffset / 8
		bitIndex := bitOffset % 8

		var value uint8
		if byteIndex < 16 {
			if bitIndex <= 3 {
				value = (data[byteIndex] >> (3 - bitIndex)) & 0x1f
			} else {
				value = (data[byteIndex] << (bitIndex - 3)) & 0x1f
				if byteIndex+1 < 16 {
					value |= data[byteIndex+1] >> (11 - bitIndex)
				}
			}
		}
		result[i] = alphabet[value]
	}

	return string(result)
}

// Validate checks that an ID is 26 characters of valid base32 with a first
// character representing at most 128 bits.
func Validate(id string) error {
	if len(id) != 26 {
		return fmt.Errorf("game ID must be exactly 26 characters, got %d", len(id))
	}

	if id[0] > '7' {
		return fmt.Errorf("game ID first character must be 0-7, got %c", id[0])
	}

	for i, char := range id {
		valid := false
		for _, validChar := range alphabet {
			if char == validChar {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("invalid character %c at position %d", char, i)
		}
	}

	return nil
}
