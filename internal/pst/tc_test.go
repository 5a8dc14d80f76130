package pst

import "testing"

func TestBuildTCNodeEmptyRows(t *testing.T) {
	columns := []uint32{prDisplayNameW, prEmailAddress, prRecipientType}
	pages, err := buildTCNode(columns, nil)
	if err != nil {
		t.Fatalf("buildTCNode failed: %v", err)
	}
	if len(pages) == 0 {
		t.Fatal("expected at least one HN page even with no rows")
	}
}

func TestBuildTCNodeWithRows(t *testing.T) {
	columns := []uint32{prDisplayNameW, prEmailAddress, prRecipientType}
	rows := []tcRow{
		{nid: 1, values: map[uint32]PropValue{
			prDisplayNameW:  propString("Bob"),
			prEmailAddress:  propString("bob@example.com"),
			prRecipientType: propInt64(int64(mapiTo)),
		}},
		{nid: 2, values: map[uint32]PropValue{
			prDisplayNameW:  propString("Carol"),
			prEmailAddress:  propString("carol@example.com"),
			prRecipientType: propInt64(int64(mapiCC)),
		}},
	}
	pages, err := buildTCNode(columns, rows)
	if err != nil {
		t.Fatalf("buildTCNode failed: %v", err)
	}
	if len(pages) == 0 {
		t.Fatal("expected at least one HN page")
	}
	if pages[0][3] != hnClientTC {
		t.Errorf("page0 client sig = %#x, want %#x", pages[0][3], hnClientTC)
	}
}

func TestBuildTCNodeRejectsMismatchedKind(t *testing.T) {
	columns := []uint32{prRecipientType}
	rows := []tcRow{
		{nid: 1, values: map[uint32]PropValue{prRecipientType: propString("not a number")}},
	}
	if _, err := buildTCNode(columns, rows); err == nil {
		t.Fatal("expected an error for a string value on a fixed long column")
	}
}

func TestWriteFixedColumnLong(t *testing.T) {
	row := make([]byte, 8)
	writeFixedColumn(row, 0, ptLong, 0x01020304)
	if row[0] != 0x04 || row[1] != 0x03 || row[2] != 0x02 || row[3] != 0x01 {
		t.Errorf("writeFixedColumn did not write little-endian uint32: % x", row[:4])
	}
}

func TestColumnStorageSizeFixedVsVariable(t *testing.T) {
	if got := columnStorageSize(ptLong); got != 4 {
		t.Errorf("columnStorageSize(ptLong) = %d, want 4", got)
	}
	if got := columnStorageSize(ptUnicode); got != 4 {
		t.Errorf("columnStorageSize(ptUnicode) = %d, want 4 (inline HNID)", got)
	}
}
