package pst

import "encoding/binary"

// makeEntryID builds a 24-byte PST entry ID: flags(4)=0, 16-byte
// provider UID (the store's record key), and the target NID.
func makeEntryID(recordKey []byte, nid NID) []byte {
	out := make([]byte, 24)
	key := recordKey
	if len(key) > 16 {
		key = key[:16]
	}
	copy(out[4:4+len(key)], key)
	binary.LittleEndian.PutUint32(out[20:24], uint32(nid))
	return out
}

// buildMessageStore builds the Message Store PC (NID 0x21), the root
// object every PST reader opens first. recordKey is a random 16-byte
// GUID identifying this store, reused by every entry ID it hands out.
func buildMessageStore(displayName string, recordKey []byte) ([][]byte, []subnodeValue, error) {
	properties := []prop{
		{prRecordKey, propBinary(recordKey)},
		{prDisplayName, propString(displayName)},
		{prIPMSubtreeEntryID, propBinary(makeEntryID(recordKey, NIDRootFolder))},
		{prStoreSupportMask, propInt64(int64(defaultStoreSupportMask))},
		{prValidFolderMask, propInt64(int64(folderIPMSubtreeValid))},
		{prPSTPassword, propInt64(0)},
	}
	return buildPCNode(properties)
}

// buildNameToIDMap builds the Name-to-ID Map PC (NID 0x61): a
// structurally valid but minimal named-property map, since nothing
// this tool synthesizes uses named (as opposed to tagged) properties.
func buildNameToIDMap() ([][]byte, []subnodeValue, error) {
	psMAPI := []byte{
		0x28, 0x03, 0x02, 0x00, 0x00, 0x00, 0x00, 0x00,
		0xC0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x46,
	}
	psPublicStrings := []byte{
		0x29, 0x03, 0x02, 0x00, 0x00, 0x00, 0x00, 0x00,
		0xC0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x46,
	}
	guidStream := append(append([]byte(nil), psMAPI...), psPublicStrings...)

	properties := []prop{
		{propTag(0x0001, ptLong), propInt64(251)},
		{propTag(0x0002, ptBinary), propBinary(guidStream)},
		{propTag(0x0003, ptBinary), propBinary(make([]byte, 8))},
		{propTag(0x0004, ptBinary), propBinary(make([]byte, 4))},
	}
	return buildPCNode(properties)
}
