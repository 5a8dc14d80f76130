package erc

import (
	"encoding/binary"
	"fmt"

	"github.com/exchrecover/edbcore/internal/ese"
)

// specialFolderNames maps SpecialFolderNumber (0..27) to the
// well-known English name Exchange assigns it. The mapping is fixed
// across mailboxes; values beyond what a given store uses are simply
// never referenced.
var specialFolderNames = map[int]string{
	0:  "Top of Information Store",
	1:  "Deleted Items",
	2:  "Outbox",
	3:  "Sent Items",
	4:  "Inbox",
	5:  "Calendar",
	6:  "Contacts",
	7:  "Journal",
	8:  "Notes",
	9:  "Tasks",
	10: "Drafts",
	11: "Conflicts",
	12: "Sync Issues",
	13: "Local Failures",
	14: "Server Failures",
	15: "Junk E-mail",
	16: "RSS Feeds",
	17: "Conversation Action Settings",
	18: "Quick Step Settings",
	19: "Suggested Contacts",
	20: "IMContactList",
	21: "Recipient Cache",
	22: "Person Metadata",
	23: "Favorites",
	24: "All Public Folders",
	25: "Public Folders Favorites",
	26: "To-Do Search",
	27: "To-Do",
}

// FolderInfo is one row of the indexed Folder_<mailbox> table.
type FolderInfo struct {
	FolderID     string
	ParentID     string
	SpecialNum   int
	HasSpecial   bool
	DisplayName  string
}

// FolderIndex is the resolved folder hierarchy for one mailbox (C6).
type FolderIndex struct {
	byID map[string]FolderInfo
}

// BuildFolderIndex walks a Folder_<mailbox> table once, indexing
// FolderId -> (parent_id, special_folder_number, display_name).
func BuildFolderIndex(table ese.Table) (*FolderIndex, error) {
	cols := ese.ColumnIndex(table)
	idx := &FolderIndex{byID: make(map[string]FolderInfo, table.RecordCount())}

	for i := 0; i < table.RecordCount(); i++ {
		rec, ok := table.Record(i)
		if !ok {
			continue
		}
		info := FolderInfo{}

		if fid, ok := getBytes(rec, cols, "FolderId"); ok {
			info.FolderID = string(fid)
		} else {
			continue
		}
		if pid, ok := getBytes(rec, cols, "ParentFolderId"); ok {
			info.ParentID = string(pid)
		}
		if n, ok := getInt(rec, cols, "SpecialFolderNumber"); ok && n > 0 {
			info.SpecialNum = int(n)
			info.HasSpecial = true
		}
		if name, ok := getBytes(rec, cols, "DisplayName"); ok {
			info.DisplayName = decodeMessageClass(name)
		}

		idx.byID[info.FolderID] = info
	}
	return idx, nil
}

// Name resolves one folder's own display name: its special-folder name
// if Exchange assigned one, else its decoded DisplayName column, else
// a synthetic "Folder_<last 2 bytes of id>" fallback.
func (idx *FolderIndex) Name(folderID string) string {
	info, ok := idx.byID[folderID]
	if !ok {
		return fallbackFolderName(folderID)
	}
	if info.HasSpecial {
		if name, ok := specialFolderNames[info.SpecialNum]; ok {
			return name
		}
	}
	if info.DisplayName != "" {
		return info.DisplayName
	}
	return fallbackFolderName(folderID)
}

// Path climbs parent links from folderID to the root, returning a
// root-first "/"-joined path. Cycles (malformed source data) are
// guarded by a visited set; a cycle truncates the path at the point of
// re-entry rather than looping forever.
func (idx *FolderIndex) Path(folderID string) string {
	var segments []string
	visited := make(map[string]bool)

	cur := folderID
	for cur != "" && !visited[cur] {
		visited[cur] = true
		segments = append(segments, idx.Name(cur))
		info, ok := idx.byID[cur]
		if !ok {
			break
		}
		cur = info.ParentID
	}

	// segments were collected leaf-first; reverse for root-first order.
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}

	path := ""
	for i, s := range segments {
		if i > 0 {
			path += "/"
		}
		path += s
	}
	return path
}

func fallbackFolderName(folderID string) string {
	if len(folderID) < 2 {
		return fmt.Sprintf("Folder_%x", folderID)
	}
	tail := folderID[len(folderID)-2:]
	return fmt.Sprintf("Folder_%x", []byte(tail))
}

func getInt(rec ese.Record, cols map[string]int, name string) (int64, bool) {
	idx, ok := cols[name]
	if !ok {
		return 0, false
	}
	raw, ok := rec.Raw(idx)
	if !ok || len(raw) == 0 {
		return 0, false
	}
	switch len(raw) {
	case 1:
		return int64(raw[0]), true
	case 2:
		return int64(binary.LittleEndian.Uint16(raw)), true
	case 4:
		return int64(binary.LittleEndian.Uint32(raw)), true
	case 8:
		return int64(binary.LittleEndian.Uint64(raw)), true
	default:
		return 0, false
	}
}

func getBytes(rec ese.Record, cols map[string]int, name string) ([]byte, bool) {
	idx, ok := cols[name]
	if !ok {
		return nil, false
	}
	return rec.Raw(idx)
}
