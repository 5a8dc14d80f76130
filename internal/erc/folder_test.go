package erc

import "testing"

func TestFolderIndexPathAndSpecialNames(t *testing.T) {
	table := newFakeTable([]string{"FolderId", "ParentFolderId", "SpecialFolderNumber", "DisplayName"})
	fid, pid, spec, name := colIndex(table, "FolderId"), colIndex(table, "ParentFolderId"), colIndex(table, "SpecialFolderNumber"), colIndex(table, "DisplayName")

	root := &fakeRecord{values: map[int][]byte{fid: []byte("root")}}
	inbox := &fakeRecord{values: map[int][]byte{
		fid:  []byte("inbox"),
		pid:  []byte("root"),
		spec: {4}, // Inbox
	}}
	custom := &fakeRecord{values: map[int][]byte{
		fid:  []byte("custom"),
		pid:  []byte("inbox"),
		name: []byte("Projects"),
	}}
	table.records = []*fakeRecord{root, inbox, custom}

	idx, err := BuildFolderIndex(table)
	if err != nil {
		t.Fatalf("BuildFolderIndex() error = %v", err)
	}

	if got := idx.Name("inbox"); got != "Inbox" {
		t.Errorf("Name(inbox) = %q, want Inbox", got)
	}
	if got := idx.Name("custom"); got != "Projects" {
		t.Errorf("Name(custom) = %q, want Projects", got)
	}

	want := idx.Name("root") + "/Inbox/Projects"
	if got := idx.Path("custom"); got != want {
		t.Errorf("Path(custom) = %q, want %q", got, want)
	}
}

func TestFolderIndexUnknownID(t *testing.T) {
	table := newFakeTable([]string{"FolderId"})
	idx, err := BuildFolderIndex(table)
	if err != nil {
		t.Fatalf("BuildFolderIndex() error = %v", err)
	}
	if got := idx.Name("deadbeef"); got == "" {
		t.Errorf("Name() on unknown id returned empty string, want a fallback name")
	}
}

func TestFolderIndexCycleGuard(t *testing.T) {
	table := newFakeTable([]string{"FolderId", "ParentFolderId"})
	fid, pid := colIndex(table, "FolderId"), colIndex(table, "ParentFolderId")

	a := &fakeRecord{values: map[int][]byte{fid: []byte("a"), pid: []byte("b")}}
	b := &fakeRecord{values: map[int][]byte{fid: []byte("b"), pid: []byte("a")}}
	table.records = []*fakeRecord{a, b}

	idx, _ := BuildFolderIndex(table)

	// The assertion is simply that this returns at all: without the
	// visited-set guard, a parent cycle would loop forever.
	got := idx.Path("a")
	if got == "" {
		t.Errorf("Path() on a cyclic parent chain returned empty string")
	}
}
