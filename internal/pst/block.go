package pst

import (
	"encoding/binary"

	"github.com/exchrecover/edbcore/internal/pstcrc"
)

// blockAlign and maxBlockData per [MS-PST] 2.2.2.8: a data block's raw
// payload is at most 8176 bytes (8192 minus the 16-byte trailer), and
// the packed block (payload + padding + trailer) is 64-byte aligned.
const (
	blockAlign     = 64
	maxBlockData   = 8176
	blockTrailerSz = 16
)

// packBlock pads data and appends a BLOCKTRAILER: cb(2) wSig(2)
// crc32(4) bid(8), per [MS-PST] 2.2.2.8.
func packBlock(data []byte, bid BID, ib uint64) []byte {
	if len(data) > maxBlockData {
		panic("pst: block data too large")
	}

	totalRaw := len(data) + blockTrailerSz
	totalAligned := ((totalRaw + blockAlign - 1) / blockAlign) * blockAlign
	padding := totalAligned - totalRaw

	out := make([]byte, 0, totalAligned)
	out = append(out, data...)
	out = append(out, make([]byte, padding)...)

	var trailer [blockTrailerSz]byte
	binary.LittleEndian.PutUint16(trailer[0:2], uint16(len(data)))
	binary.LittleEndian.PutUint16(trailer[2:4], pstcrc.BlockSig(ib, uint64(bid)))
	binary.LittleEndian.PutUint32(trailer[4:8], pstcrc.CRC32(data))
	binary.LittleEndian.PutUint64(trailer[8:16], uint64(bid))

	return append(out, trailer[:]...)
}

// blockTotalSize is the on-disk footprint of a block holding dataLen
// raw bytes, without building the block itself.
func blockTotalSize(dataLen int) int {
	totalRaw := dataLen + blockTrailerSz
	return ((totalRaw + blockAlign - 1) / blockAlign) * blockAlign
}
