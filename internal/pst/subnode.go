package pst

import "encoding/binary"

// slBlockType identifies a Subnode Leaf Block; cLevel 0 means this is
// the only level (no SIBLOCK index needed for the node counts this
// tool ever produces).
const slBlockType = 0x02

// slEntry is one Subnode Leaf Entry (24 bytes, Unicode): nid, bidData,
// bidSub.
type slEntry struct {
	nid     NID
	bidData BID
	bidSub  BID
}

// buildSLBlock packs a subnode B-tree leaf block from entries, which
// must already be sorted by NID.
func buildSLBlock(entries []slEntry) []byte {
	out := make([]byte, 8+24*len(entries))
	out[0] = slBlockType
	out[1] = 0
	binary.LittleEndian.PutUint16(out[2:4], uint16(len(entries)))
	for i, e := range entries {
		off := 8 + 24*i
		binary.LittleEndian.PutUint64(out[off:off+8], uint64(e.nid))
		binary.LittleEndian.PutUint64(out[off+8:off+16], uint64(e.bidData))
		binary.LittleEndian.PutUint64(out[off+16:off+24], uint64(e.bidSub))
	}
	return out
}
