package erc

import "github.com/exchrecover/edbcore/internal/lzxpress"

// ParseSubobjects decodes a SubobjectsBlob (§4.5.1): attempt LZXPRESS
// decompression, falling through to the raw bytes on failure, then scan
// for the byte 0x21 immediately followed by a 1-byte Inid. It returns
// the Inids in order, and ok=false when none were found (the caller
// should fall back to MessageDocumentId lookup in that case).
func ParseSubobjects(blob []byte) (inids []int, ok bool) {
	if len(blob) == 0 {
		return nil, false
	}

	data := lzxpress.Decompress(blob)
	if len(data) == 0 {
		data = blob
	}

	for i := 0; i < len(data)-1; i++ {
		if data[i] == 0x21 {
			inids = append(inids, int(data[i+1]))
			i++
		}
	}
	if len(inids) == 0 {
		return nil, false
	}
	return inids, true
}
