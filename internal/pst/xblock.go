package pst

import "encoding/binary"

// XBLOCK btype/level per [MS-PST] 2.2.2.8.3.2. Level 1 means the BID
// list it carries references level-0 (leaf) data blocks directly; this
// assembler builds no second level. A stream of more than 1021 leaf
// blocks (about 8 MB) yields an XBLOCK larger than one block, which
// packBlock rejects with a panic.
const (
	xblockBType = 0x01
	xblockLevel = 0x01
)

// buildXBlock packs an extended-data-tree block: a header plus the
// ordered BID list of the leaf blocks holding the logical stream's
// bytes, and the stream's total length.
func buildXBlock(bids []BID, totalDataBytes int) []byte {
	out := make([]byte, 8+8*len(bids))
	out[0] = xblockBType
	out[1] = xblockLevel
	binary.LittleEndian.PutUint16(out[2:4], uint16(len(bids)))
	binary.LittleEndian.PutUint32(out[4:8], uint32(totalDataBytes))
	for i, bid := range bids {
		binary.LittleEndian.PutUint64(out[8+8*i:16+8*i], uint64(bid))
	}
	return out
}
