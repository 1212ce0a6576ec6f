package parser

import (
	"encoding/base64"
	"strings"
)

// DecodeBody decodes a Gmail base64url body blob into text.
//
// Decoding is best effort and never fails: padding is optional, characters
// outside the alphabet are skipped, a dangling trailing character is dropped
// and invalid UTF-8 sequences are removed from the result. Padding that
// completes a group ends the data; anything after it is ignored.
func DecodeBody(data string) string {
	var b strings.Builder
	b.Grow(len(data))
	var quad, pads int
scan:
	for i := 0; i < len(data); i++ {
		c := data[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
			b.WriteByte(c)
		case c == '+':
			b.WriteByte('-')
		case c == '/':
			b.WriteByte('_')
		case c == '=':
			// Padding only counts once a group holds at least two characters.
			if quad >= 2 {
				pads++
				if quad+pads >= 4 {
					break scan
				}
			}
			continue
		default:
			continue
		}
		quad = (quad + 1) % 4
	}

	clean := b.String()
	// A single leftover character carries fewer than 8 bits.
	if len(clean)%4 == 1 {
		clean = clean[:len(clean)-1]
	}

	buf := make([]byte, base64.RawURLEncoding.DecodedLen(len(clean)))
	n, _ := base64.RawURLEncoding.Decode(buf, []byte(clean))
	return strings.ToValidUTF8(string(buf[:n]), "")
}
