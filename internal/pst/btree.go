package pst

import (
	"encoding/binary"
	"sort"

	"github.com/exchrecover/edbcore/internal/pstcrc"
)

// Page layout constants, [MS-PST] 2.2.2.7.
const (
	pageSize        = 512
	pageTrailerSize = 16
	entriesArea     = pageSize - pageTrailerSize - 8 // 488: minus trailer and the 8-byte page metadata

	nbtEntrySize = 32 // Unicode NBT leaf entry
	bbtEntrySize = 24 // Unicode BBT leaf entry
	btEntrySize  = 24 // interior node entry, either tree

	maxNBTLeaf  = entriesArea / nbtEntrySize
	maxBBTLeaf  = entriesArea / bbtEntrySize
	maxInterior = entriesArea / btEntrySize
)

// Page types, [MS-PST] 2.2.2.7.1.
const (
	ptypeBBT  = 0x80
	ptypeNBT  = 0x81
	ptypeAMap = 0x84
)

// nbtEntry is a Node B-Tree leaf entry: nid -> (bidData, bidSub,
// nidParent).
type nbtEntry struct {
	nid       NID
	bidData   BID
	bidSub    BID
	nidParent NID
}

func packNBTEntry(e nbtEntry) []byte {
	out := make([]byte, nbtEntrySize)
	binary.LittleEndian.PutUint64(out[0:8], uint64(e.nid))
	binary.LittleEndian.PutUint64(out[8:16], uint64(e.bidData))
	binary.LittleEndian.PutUint64(out[16:24], uint64(e.bidSub))
	binary.LittleEndian.PutUint32(out[24:28], uint32(e.nidParent))
	return out
}

// bbtEntry is a Block B-Tree leaf entry: bid -> (ib, cb, cRef).
type bbtEntry struct {
	bid BID
	ib  uint64
	cb  uint16
}

func packBBTEntry(e bbtEntry) []byte {
	out := make([]byte, bbtEntrySize)
	binary.LittleEndian.PutUint64(out[0:8], uint64(e.bid))
	binary.LittleEndian.PutUint64(out[8:16], e.ib)
	binary.LittleEndian.PutUint16(out[16:18], e.cb)
	binary.LittleEndian.PutUint16(out[18:20], 2) // cRef, unused by this writer
	return out
}

// packBTEntry builds an interior BTENTRY: btkey, then a BREF (bid, ib).
func packBTEntry(key uint64, bid BID, ib uint64) []byte {
	out := make([]byte, btEntrySize)
	binary.LittleEndian.PutUint64(out[0:8], key)
	binary.LittleEndian.PutUint64(out[8:16], uint64(bid))
	binary.LittleEndian.PutUint64(out[16:24], ib)
	return out
}

// entryKey extracts the leading 8-byte sort key every packed entry
// begins with (nid for NBT, bid for BBT, btkey for interior).
func entryKey(e []byte) uint64 { return binary.LittleEndian.Uint64(e[:8]) }

// buildBTPage packs a single 512-byte B-tree page from already-packed,
// same-size entries.
func buildBTPage(entries [][]byte, ptype byte, bid BID, cLevel byte) []byte {
	var entrySize int
	switch {
	case cLevel > 0:
		entrySize = btEntrySize
	case ptype == ptypeNBT:
		entrySize = nbtEntrySize
	default:
		entrySize = bbtEntrySize
	}
	if len(entries) > 0 {
		entrySize = len(entries[0])
	}
	maxEntries := 0
	if entrySize > 0 {
		maxEntries = entriesArea / entrySize
	}

	entriesData := make([]byte, 0, entriesArea)
	for _, e := range entries {
		entriesData = append(entriesData, e...)
	}
	if len(entriesData) > entriesArea {
		entriesData = entriesData[:entriesArea]
	}
	entriesData = append(entriesData, make([]byte, entriesArea-len(entriesData))...)

	page := make([]byte, 0, pageSize)
	page = append(page, entriesData...)
	page = append(page, byte(len(entries)), byte(maxEntries), byte(entrySize), cLevel)
	page = append(page, 0, 0, 0, 0) // dwPadding

	crc := pstcrc.CRC32(page)

	trailer := make([]byte, pageTrailerSize)
	trailer[0] = ptype
	trailer[1] = ptype
	binary.LittleEndian.PutUint16(trailer[2:4], 0) // wSig, always 0 for pages
	binary.LittleEndian.PutUint32(trailer[4:8], crc)
	binary.LittleEndian.PutUint64(trailer[8:16], uint64(bid))

	return append(page, trailer...)
}

// btreePage is one page produced by buildBTreePages, in the order the
// caller should write it; the last element is always the root.
type btreePage struct {
	bid    BID
	offset uint64
	data   []byte
}

// buildBTreePages lays out entries (already packed and sorted by key)
// into one or more 512-byte pages, adding interior levels of up to
// maxInterior entries per page when more than one leaf is needed, until
// a single root page remains. allocBID mints a fresh page BID;
// allocOffset assigns and returns the file offset for a page BID.
func buildBTreePages(entries [][]byte, ptype byte, allocBID func() BID, allocOffset func(BID) uint64) []btreePage {
	entrySize := nbtEntrySize
	if ptype != ptypeNBT {
		entrySize = bbtEntrySize
	}
	if len(entries) > 0 {
		entrySize = len(entries[0])
	}
	maxPerPage := entriesArea / entrySize

	if len(entries) <= maxPerPage {
		bid := allocBID()
		offset := allocOffset(bid)
		page := buildBTPage(entries, ptype, bid, 0)
		return []btreePage{{bid, offset, page}}
	}

	var pages []btreePage
	var interior [][]byte

	for i := 0; i < len(entries); i += maxPerPage {
		end := i + maxPerPage
		if end > len(entries) {
			end = len(entries)
		}
		chunk := entries[i:end]
		leafBID := allocBID()
		leafOffset := allocOffset(leafBID)
		leafPage := buildBTPage(chunk, ptype, leafBID, 0)
		pages = append(pages, btreePage{leafBID, leafOffset, leafPage})

		firstKey := entryKey(chunk[0])
		interior = append(interior, packBTEntry(firstKey, leafBID, leafOffset))
	}

	level := byte(1)
	for len(interior) > maxInterior {
		var next [][]byte
		for i := 0; i < len(interior); i += maxInterior {
			chunk := interior[i:min(i+maxInterior, len(interior))]
			bid := allocBID()
			offset := allocOffset(bid)
			pages = append(pages, btreePage{bid, offset, buildBTPage(chunk, ptype, bid, level)})
			next = append(next, packBTEntry(entryKey(chunk[0]), bid, offset))
		}
		interior = next
		level++
	}

	rootBID := allocBID()
	rootOffset := allocOffset(rootBID)
	rootPage := buildBTPage(interior, ptype, rootBID, level)
	pages = append(pages, btreePage{rootBID, rootOffset, rootPage})

	return pages
}

// sortEntries sorts packed entries by their leading 8-byte key, the
// convention pack*Entry shares across NBT, BBT, and interior entries.
func sortEntries(entries [][]byte) {
	sort.Slice(entries, func(i, j int) bool {
		return entryKey(entries[i]) < entryKey(entries[j])
	})
}
