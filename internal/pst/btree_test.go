package pst

import "testing"

func TestPackNBTEntryRoundTripsKey(t *testing.T) {
	e := nbtEntry{nid: NID(42), bidData: BID(100), bidSub: BID(0), nidParent: NID(1)}
	packed := packNBTEntry(e)
	if len(packed) != nbtEntrySize {
		t.Fatalf("packed NBT entry length = %d, want %d", len(packed), nbtEntrySize)
	}
	if entryKey(packed) != uint64(e.nid) {
		t.Errorf("entryKey = %d, want %d", entryKey(packed), e.nid)
	}
}

func TestPackBBTEntryRoundTripsKey(t *testing.T) {
	e := bbtEntry{bid: BID(7), ib: 0x4400, cb: 128}
	packed := packBBTEntry(e)
	if len(packed) != bbtEntrySize {
		t.Fatalf("packed BBT entry length = %d, want %d", len(packed), bbtEntrySize)
	}
	if entryKey(packed) != uint64(e.bid) {
		t.Errorf("entryKey = %d, want %d", entryKey(packed), e.bid)
	}
}

func TestSortEntriesOrdersByKey(t *testing.T) {
	entries := [][]byte{
		packNBTEntry(nbtEntry{nid: NID(30)}),
		packNBTEntry(nbtEntry{nid: NID(10)}),
		packNBTEntry(nbtEntry{nid: NID(20)}),
	}
	sortEntries(entries)
	for i := 1; i < len(entries); i++ {
		if entryKey(entries[i-1]) > entryKey(entries[i]) {
			t.Fatalf("entries not sorted: %v", entries)
		}
	}
}

func TestBuildBTreePagesSingleLeaf(t *testing.T) {
	entries := [][]byte{
		packNBTEntry(nbtEntry{nid: NID(1)}),
		packNBTEntry(nbtEntry{nid: NID(2)}),
	}
	var nextBID BID = 100
	allocBID := func() BID { b := nextBID; nextBID += 2; return b }
	var nextOffset uint64 = 0x4400
	allocOffset := func(b BID) uint64 { o := nextOffset; nextOffset += pageSize; return o }

	pages := buildBTreePages(entries, ptypeNBT, allocBID, allocOffset)
	if len(pages) != 1 {
		t.Fatalf("expected a single page for entries under maxNBTLeaf, got %d", len(pages))
	}
	if len(pages[0].data) != pageSize {
		t.Errorf("page data length = %d, want %d", len(pages[0].data), pageSize)
	}
}

func TestBuildBTreePagesMultiLevel(t *testing.T) {
	entries := make([][]byte, maxNBTLeaf+5)
	for i := range entries {
		entries[i] = packNBTEntry(nbtEntry{nid: NID(i + 1)})
	}
	var nextBID BID = 100
	allocBID := func() BID { b := nextBID; nextBID += 2; return b }
	var nextOffset uint64 = 0x4400
	allocOffset := func(b BID) uint64 { o := nextOffset; nextOffset += pageSize; return o }

	pages := buildBTreePages(entries, ptypeNBT, allocBID, allocOffset)
	// Two leaves (chunked at maxNBTLeaf) plus one interior root.
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages (2 leaves + root), got %d", len(pages))
	}
	root := pages[len(pages)-1]
	// The root page's cLevel byte sits at entriesArea+3.
	if root.data[entriesArea+3] != 1 {
		t.Errorf("root cLevel = %d, want 1", root.data[entriesArea+3])
	}
}
