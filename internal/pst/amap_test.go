package pst

import "testing"

func TestBuildAMapPageMarksAllocatedSlots(t *testing.T) {
	allocated := []extent{{offset: firstAMapOffset + 512, size: 128}}
	page := buildAMapPage(allocated, firstAMapOffset, firstAMapOffset, BID(5))

	if len(page) != pageSize {
		t.Fatalf("AMap page length = %d, want %d", len(page), pageSize)
	}

	// Byte 0 covers slots 0-7, i.e. file offsets [firstAMapOffset, firstAMapOffset+512).
	// The AMap page itself occupies the first 512 bytes of its own coverage window.
	if page[0] == 0 {
		t.Error("expected the AMap page's own extent to be marked allocated")
	}

	relSlot := 512 / 64 // slot covering offset firstAMapOffset+512
	byteIdx := relSlot / 8
	bit := byte(1) << (relSlot % 8)
	if page[byteIdx]&bit == 0 {
		t.Error("expected the extent's slot to be marked allocated")
	}
}

func TestBuildAMapPageTrailer(t *testing.T) {
	page := buildAMapPage(nil, firstAMapOffset, firstAMapOffset, BID(9))
	trailer := page[amapDataSize:]
	if trailer[0] != ptypeAMap || trailer[1] != ptypeAMap {
		t.Errorf("trailer ptype = %d/%d, want %d", trailer[0], trailer[1], ptypeAMap)
	}
}

func TestComputeAMapFreeAccountsForOwnPage(t *testing.T) {
	free := computeAMapFree(nil, firstAMapOffset)
	want := uint64(amapCoverage) - pageSize
	if free != want {
		t.Errorf("computeAMapFree(empty) = %d, want %d", free, want)
	}
}

func TestComputeAMapFreeSubtractsExtents(t *testing.T) {
	allocated := []extent{{offset: firstAMapOffset + 1024, size: 256}}
	free := computeAMapFree(allocated, firstAMapOffset)
	want := uint64(amapCoverage) - pageSize - 256
	if free != want {
		t.Errorf("computeAMapFree = %d, want %d", free, want)
	}
}

func TestComputeAMapFreeIgnoresExtentsOutsideWindow(t *testing.T) {
	allocated := []extent{{offset: firstAMapOffset + amapCoverage + 1000, size: 100}}
	free := computeAMapFree(allocated, firstAMapOffset)
	want := uint64(amapCoverage) - pageSize
	if free != want {
		t.Errorf("computeAMapFree should ignore out-of-window extents, got %d want %d", free, want)
	}
}
