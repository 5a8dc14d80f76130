package pst

import (
	"encoding/binary"

	"github.com/exchrecover/edbcore/internal/pstcrc"
)

// AMap geometry, [MS-PST] 2.2.2.7.4. Each AMap page has 496 usable
// bitmap bytes (512 minus the 16-byte trailer); each bit covers one
// 64-byte slot, so one page covers 496*8*64 = 253952 file bytes.
const (
	amapDataSize  = pageSize - pageTrailerSize
	amapBits      = amapDataSize * 8
	amapCoverage  = amapBits * 64
	firstAMapOffset = 0x4400
)

// extent is an allocated [offset, offset+size) byte range.
type extent struct {
	offset uint64
	size   uint64
}

// buildAMapPage renders the 512-byte AMap page covering
// [fileBaseOffset, fileBaseOffset+amapCoverage), marking every slot
// that any extent in allocated (plus the AMap page itself) overlaps.
func buildAMapPage(allocated []extent, amapOffset, fileBaseOffset uint64, bid BID) []byte {
	bitmap := make([]byte, amapDataSize)

	mark := func(relOffset uint64, size uint64) {
		startSlot := relOffset / 64
		numSlots := (size + 63) / 64
		for slot := startSlot; slot < startSlot+numSlots; slot++ {
			if slot >= uint64(amapBits) {
				continue
			}
			bitmap[slot/8] |= 1 << (slot % 8)
		}
	}

	for _, e := range allocated {
		if e.offset < fileBaseOffset {
			continue
		}
		mark(e.offset-fileBaseOffset, e.size)
	}
	mark(amapOffset-fileBaseOffset, pageSize)

	crc := pstcrc.CRC32(bitmap)
	trailer := make([]byte, pageTrailerSize)
	trailer[0] = ptypeAMap
	trailer[1] = ptypeAMap
	binary.LittleEndian.PutUint16(trailer[2:4], 0)
	binary.LittleEndian.PutUint32(trailer[4:8], crc)
	binary.LittleEndian.PutUint64(trailer[8:16], uint64(bid))

	return append(bitmap, trailer...)
}

// computeAMapFree returns the number of unallocated bytes within the
// AMap coverage window starting at fileBaseOffset.
func computeAMapFree(allocated []extent, fileBaseOffset uint64) uint64 {
	coverageEnd := fileBaseOffset + amapCoverage
	var total uint64
	for _, e := range allocated {
		end := e.offset + e.size
		if e.offset >= coverageEnd || end <= fileBaseOffset {
			continue
		}
		start := e.offset
		if start < fileBaseOffset {
			start = fileBaseOffset
		}
		if end > coverageEnd {
			end = coverageEnd
		}
		total += end - start
	}
	total += pageSize // the AMap page itself
	return uint64(amapCoverage) - total
}
