package pst

import "testing"

func TestBuildPCNodeProducesAtLeastOnePage(t *testing.T) {
	props := []prop{
		{tag: prSubject, value: propString("Hello")},
		{tag: prImportance, value: propInt64(1)},
		{tag: prHasAttach, value: propBool(true)},
	}
	pages, subnodes, err := buildPCNode(props)
	if err != nil {
		t.Fatalf("buildPCNode failed: %v", err)
	}
	if len(pages) == 0 {
		t.Fatal("expected at least one HN page")
	}
	if len(subnodes) != 0 {
		t.Errorf("expected no subnode overflow for small properties, got %d", len(subnodes))
	}
	if pages[0][2] != hnSig {
		t.Errorf("page0 sig = %#x, want %#x", pages[0][2], hnSig)
	}
	if pages[0][3] != hnClientPC {
		t.Errorf("page0 client sig = %#x, want %#x", pages[0][3], hnClientPC)
	}
}

func TestBuildPCNodeOverflowsLargeValueToSubnode(t *testing.T) {
	big := make([]byte, maxHNAlloc+100)
	for i := range big {
		big[i] = byte(i)
	}
	props := []prop{
		{tag: prHTML, value: propBinary(big)},
	}
	_, subnodes, err := buildPCNode(props)
	if err != nil {
		t.Fatalf("buildPCNode failed: %v", err)
	}
	if len(subnodes) != 1 {
		t.Fatalf("expected the oversized value to overflow into a subnode, got %d subnodes", len(subnodes))
	}
	if len(subnodes[0].data) != len(big) {
		t.Errorf("subnode data length = %d, want %d", len(subnodes[0].data), len(big))
	}
}

func TestBuildPCNodeRejectsMismatchedKind(t *testing.T) {
	props := []prop{
		{tag: prImportance, value: propString("not a number")},
	}
	if _, _, err := buildPCNode(props); err == nil {
		t.Fatal("expected an error for a string value on a fixed long property")
	}
}

func TestEncodeUnicodeProducesUTF16LE(t *testing.T) {
	got := encodeUnicode("AB")
	want := []byte{'A', 0, 'B', 0}
	if len(got) != len(want) {
		t.Fatalf("encodeUnicode length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("byte %d = %#x, want %#x", i, got[i], want[i])
		}
	}
}
