package pst

import "testing"

func TestHeapOnNodeAllocateReturnsDistinctHIDs(t *testing.T) {
	h := newHeapOnNode(hnClientPC)
	a := h.allocate([]byte("first"))
	b := h.allocate([]byte("second"))
	if a == b {
		t.Fatalf("expected distinct HIDs, got %#x twice", a)
	}
	// Both allocations should land on page 0 (index bits 16-31 are 0).
	if a>>16 != 0 || b>>16 != 0 {
		t.Errorf("expected first allocations on page 0, got page indices %#x, %#x", a>>16, b>>16)
	}
}

func TestHeapOnNodeSpillsToNewPage(t *testing.T) {
	h := newHeapOnNode(hnClientPC)
	big := make([]byte, maxBlockData-hnhdrSize-64)
	first := h.allocate(big)
	second := h.allocate(make([]byte, 512))

	if first>>16 == second>>16 {
		t.Fatalf("expected allocation to spill onto a new page once the first is nearly full")
	}
}

func TestHeapOnNodeBuildPage0Header(t *testing.T) {
	h := newHeapOnNode(hnClientTC)
	h.allocate([]byte("abc"))
	h.setUserRoot(0x00050021)

	pages := h.build()
	if len(pages) != 1 {
		t.Fatalf("expected a single page, got %d", len(pages))
	}
	page := pages[0]
	if page[2] != hnSig {
		t.Errorf("page0 sig = %#x, want %#x", page[2], hnSig)
	}
	if page[3] != hnClientTC {
		t.Errorf("page0 client sig = %#x, want %#x", page[3], hnClientTC)
	}
}

func TestMakeHIDRoundTripsPageAndIndex(t *testing.T) {
	hid := makeHID(3, 7)
	if page := int(hid >> 16); page != 3 {
		t.Errorf("page = %d, want 3", page)
	}
	if idx := int((hid >> 5) & 0x7FF); idx != 7 {
		t.Errorf("index = %d, want 7", idx)
	}
}
