package pst

// folderRow describes one subfolder's Hierarchy TC row.
type folderRow struct {
	nid            NID
	name           string
	contentCount   int
	hasSubfolders  bool
}

// buildFolderPC builds a folder's own Property Context.
func buildFolderPC(displayName string, contentCount int, hasSubfolders bool, now uint64) ([][]byte, []subnodeValue, error) {
	properties := []prop{
		{prDisplayName, propString(displayName)},
		{prContentCount, propInt64(int64(contentCount))},
		{prContentUnreadCount, propInt64(0)},
		{prSubfolders, propBool(hasSubfolders)},
		{prContainerClass, propString("IPF.Note")},
		{prCreationTime, propUint64(now)},
		{prLastModTime, propUint64(now)},
	}
	return buildPCNode(properties)
}

var hierarchyTCColumns = []uint32{prDisplayName, prContentCount, prContentUnreadCount, prSubfolders}

func buildHierarchyTC(subfolders []folderRow) ([][]byte, error) {
	rows := make([]tcRow, len(subfolders))
	for i, f := range subfolders {
		rows[i] = tcRow{
			nid: uint32(f.nid),
			values: map[uint32]PropValue{
				prDisplayName:        propString(f.name),
				prContentCount:       propInt64(int64(f.contentCount)),
				prContentUnreadCount: propInt64(0),
				prSubfolders:         propBool(f.hasSubfolders),
			},
		}
	}
	return buildTCNode(hierarchyTCColumns, rows)
}

// contentsRow describes one message's Contents TC row.
type contentsRow struct {
	nid            NID
	subject        string
	messageClass   string
	flags          int64
	size           int64
	deliveryTime   uint64
	hasDeliveryTime bool
	importance     int64
	hasAttach      bool
	senderName     string
}

var contentsTCColumns = []uint32{
	prSubject, prMessageClass, prMessageFlags, prMessageSize,
	prMessageDeliveryTime, prImportance, prHasAttach, prSenderName,
}

func buildContentsTC(messages []contentsRow) ([][]byte, error) {
	rows := make([]tcRow, len(messages))
	for i, m := range messages {
		values := map[uint32]PropValue{
			prSubject:      propString(m.subject),
			prMessageClass: propString(m.messageClass),
			prMessageFlags: propInt64(m.flags),
			prMessageSize:  propInt64(m.size),
			prImportance:   propInt64(m.importance),
			prHasAttach:    propBool(m.hasAttach),
			prSenderName:   propString(m.senderName),
		}
		if m.hasDeliveryTime {
			values[prMessageDeliveryTime] = propUint64(m.deliveryTime)
		}
		rows[i] = tcRow{nid: uint32(m.nid), values: values}
	}
	return buildTCNode(contentsTCColumns, rows)
}

// buildAssocContentsTC builds an empty but structurally valid
// Associated (FAI) Contents Table Context.
func buildAssocContentsTC() ([][]byte, error) {
	return buildTCNode(nil, nil)
}
