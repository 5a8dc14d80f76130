package pst

import "fmt"

// Property type codes, the low 16 bits of a property tag.
const (
	ptShort    = 0x0002
	ptLong     = 0x0003
	ptBoolean  = 0x000B
	ptLongLong = 0x0014
	ptSysTime  = 0x0040
	ptString8  = 0x001E
	ptUnicode  = 0x001F
	ptGUID     = 0x0048
	ptBinary   = 0x0102
)

// fixedSizes gives the inline/heap storage size for each fixed-size
// property type; anything absent here is variable-size.
var fixedSizes = map[int]int{
	ptShort:    2,
	ptLong:     4,
	ptBoolean:  4,
	ptLongLong: 8,
	ptSysTime:  8,
	ptGUID:     16,
}

func isFixedType(t int) bool { _, ok := fixedSizes[t]; return ok }
func fixedSize(t int) int    { return fixedSizes[t] }

// propTag combines a 16-bit property id and 16-bit type code.
func propTag(id, typ int) uint32 { return (uint32(id) << 16) | uint32(typ) }
func propID(tag uint32) int      { return int((tag >> 16) & 0xFFFF) }
func propType(tag uint32) int    { return int(tag & 0xFFFF) }

// Message store properties.
var (
	prRecordKey           = propTag(0x0FF9, ptBinary)
	prDisplayName         = propTag(0x3001, ptUnicode)
	prIPMSubtreeEntryID   = propTag(0x35E0, ptBinary)
	prStoreSupportMask    = propTag(0x340D, ptLong)
	prValidFolderMask     = propTag(0x35DF, ptLong)
	prPSTPassword         = propTag(0x67FF, ptLong)
)

// Folder properties.
var (
	prContentCount       = propTag(0x3602, ptLong)
	prContentUnreadCount = propTag(0x3603, ptLong)
	prSubfolders         = propTag(0x360A, ptBoolean)
	prContainerClass     = propTag(0x3613, ptUnicode)
	prCreationTime       = propTag(0x3007, ptSysTime)
	prLastModTime        = propTag(0x3008, ptSysTime)
)

// Message properties.
var (
	prSubject              = propTag(0x0037, ptUnicode)
	prBody                 = propTag(0x1000, ptUnicode)
	prHTML                 = propTag(0x1013, ptBinary)
	prMessageClass         = propTag(0x001A, ptUnicode)
	prMessageFlags         = propTag(0x0E07, ptLong)
	prMessageSize          = propTag(0x0E08, ptLong)
	prImportance           = propTag(0x0017, ptLong)
	prPriority             = propTag(0x0026, ptLong)
	prSensitivity          = propTag(0x0036, ptLong)
	prHasAttach            = propTag(0x0E1B, ptBoolean)
	prMessageDeliveryTime  = propTag(0x0E06, ptSysTime)
	prClientSubmitTime     = propTag(0x0039, ptSysTime)
)

// Sender / sent-representing properties.
var (
	prSenderName               = propTag(0x0C1A, ptUnicode)
	prSenderEmailAddress       = propTag(0x0C1F, ptUnicode)
	prSenderAddrType           = propTag(0x0C1E, ptUnicode)
	prSentRepresentingName     = propTag(0x0042, ptUnicode)
	prSentRepresentingEmail    = propTag(0x0065, ptUnicode)
	prSentRepresentingAddrType = propTag(0x0064, ptUnicode)
)

// Recipient properties.
var (
	prDisplayNameW   = propTag(0x3001, ptUnicode)
	prEmailAddress   = propTag(0x3003, ptUnicode)
	prAddrType       = propTag(0x3002, ptUnicode)
	prRecipientType  = propTag(0x0C15, ptLong)
	prRowID          = propTag(0x3000, ptLong)
)

// Recipient types.
const (
	mapiTo  = 1
	mapiCC  = 2
	mapiBCC = 3
)

// Attachment properties.
var (
	prAttachNum          = propTag(0x0E21, ptLong)
	prAttachMethod       = propTag(0x3705, ptLong)
	prAttachLongFilename = propTag(0x3707, ptUnicode)
	prAttachSize         = propTag(0x0E20, ptLong)
	prAttachDataBin      = propTag(0x3701, ptBinary)
	prAttachMimeTag      = propTag(0x370E, ptUnicode)
	prRenderingPosition  = propTag(0x370B, ptLong)
)

const attachByValue = 1

// Message flags.
const (
	msgFlagRead       = 0x0001
	msgFlagHasAttach  = 0x0010
)

// Store support mask bits, and the default mask for a writable PST.
const (
	storeEntryIDUnique = 0x00000001
	storeSearchOK      = 0x00000004
	storeModifyOK      = 0x00000008
	storeCreateOK      = 0x00000010
	storeAttachOK      = 0x00000020
	storeOLEOK         = 0x00000040
	storeUnicodeOK     = 0x00040000

	defaultStoreSupportMask = storeEntryIDUnique | storeSearchOK | storeModifyOK |
		storeCreateOK | storeAttachOK | storeOLEOK | storeUnicodeOK

	folderIPMSubtreeValid = 0x00000001
)

// PidTagLtpRowId is the synthetic first TC column: dwRowID at offset 0.
var pidTagLtpRowId = propTag(0x67F2, ptLong)

// valueKind tags the single populated field of a PropValue.
type valueKind int

const (
	vkInt64 valueKind = iota
	vkBool
	vkUint64
	vkString
	vkBinary
)

func (k valueKind) String() string {
	switch k {
	case vkInt64:
		return "vkInt64"
	case vkBool:
		return "vkBool"
	case vkUint64:
		return "vkUint64"
	case vkString:
		return "vkString"
	case vkBinary:
		return "vkBinary"
	default:
		return fmt.Sprintf("valueKind(%d)", int(k))
	}
}

// PropValue is a tagged union carrying one MAPI property value. Kind
// says which field is live; builders must check it explicitly rather
// than guessing from a type switch, so an unexpected pairing of Kind
// and property type is a caught error instead of a silent zero-fill.
type PropValue struct {
	Kind  valueKind
	I64   int64
	Bool  bool
	U64   uint64 // FILETIME and other 64-bit unsigned fixed values
	Str   string
	Bytes []byte
}

func propInt64(v int64) PropValue    { return PropValue{Kind: vkInt64, I64: v} }
func propBool(v bool) PropValue      { return PropValue{Kind: vkBool, Bool: v} }
func propUint64(v uint64) PropValue  { return PropValue{Kind: vkUint64, U64: v} }
func propString(v string) PropValue { return PropValue{Kind: vkString, Str: v} }
func propBinary(v []byte) PropValue { return PropValue{Kind: vkBinary, Bytes: v} }

// prop is one (tag, value) pair destined for a PC or TC row.
type prop struct {
	tag   uint32
	value PropValue
}
