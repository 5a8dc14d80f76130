package erc

import (
	"strings"
	"unicode/utf16"

	"golang.org/x/text/encoding/charmap"

	"github.com/exchrecover/edbcore/internal/lzxpress"
)

// decodeText mirrors the reference extractor's try_decode: detect
// UTF-16LE by its characteristic NUL high bytes, else fall through a
// fixed encoding chain, accepting the first one that decodes cleanly.
func decodeText(data []byte) string {
	if len(data) >= 4 && data[1] == 0 && data[3] == 0 {
		if s, ok := decodeUTF16LE(data); ok {
			return s
		}
	}

	if s, ok := decodeUTF8Strict(data); ok {
		return s
	}
	if s, ok := decodeASCII(data); ok {
		return s
	}
	if decoded, err := charmap.Windows1251.NewDecoder().String(string(data)); err == nil {
		return decoded
	}
	if decoded, err := charmap.KOI8R.NewDecoder().String(string(data)); err == nil {
		return decoded
	}
	if decoded, err := charmap.ISO8859_1.NewDecoder().String(string(data)); err == nil {
		return decoded
	}
	return string(data)
}

func decodeUTF16LE(data []byte) (string, bool) {
	if len(data)%2 != 0 {
		data = data[:len(data)-1]
	}
	units := make([]uint16, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		units = append(units, uint16(data[i])|uint16(data[i+1])<<8)
	}
	runes := utf16.Decode(units)
	return strings.TrimRight(string(runes), "\x00"), true
}

func decodeUTF8Strict(data []byte) (string, bool) {
	for i := 0; i < len(data); {
		r := data[i]
		switch {
		case r < 0x80:
			i++
		case r&0xE0 == 0xC0:
			if i+1 >= len(data) || data[i+1]&0xC0 != 0x80 {
				return "", false
			}
			i += 2
		case r&0xF0 == 0xE0:
			if i+2 >= len(data) || data[i+1]&0xC0 != 0x80 || data[i+2]&0xC0 != 0x80 {
				return "", false
			}
			i += 3
		case r&0xF8 == 0xF0:
			if i+3 >= len(data) || data[i+1]&0xC0 != 0x80 || data[i+2]&0xC0 != 0x80 || data[i+3]&0xC0 != 0x80 {
				return "", false
			}
			i += 4
		default:
			return "", false
		}
	}
	return string(data), true
}

func decodeASCII(data []byte) (string, bool) {
	for _, b := range data {
		if b >= 0x80 {
			return "", false
		}
	}
	return string(data), true
}

// decodeMessageClass LZXPRESS-decodes and then text-decodes a
// MessageClass-shaped column, stripping trailing NULs. A column that
// is not actually LZXPRESS-framed decodes unchanged: lzxpress.Decompress
// passes unrecognized framing through untouched.
func decodeMessageClass(raw []byte) string {
	decompressed := lzxpress.Decompress(raw)
	return strings.TrimRight(decodeText(decompressed), "\x00")
}
