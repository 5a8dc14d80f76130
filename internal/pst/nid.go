// Package pst implements the NDB, LTP, and Messaging layers of the
// Unicode [MS-PST] format and assembles them into a complete .pst file
// from a stream of folders and normalized messages (package record).
package pst

import "fmt"

// NID is a 32-bit Node ID: a 5-bit type tag in the low bits plus a
// 27-bit index.
type NID uint32

// NID types, [MS-PST] 2.2.2.1.
const (
	NIDTypeNone                 = 0x00
	NIDTypeInternal             = 0x01
	NIDTypeNormalFolder         = 0x02
	NIDTypeSearchFolder         = 0x03
	NIDTypeNormalMessage        = 0x04
	NIDTypeAttachment           = 0x05
	NIDTypeSearchUpdateQueue    = 0x06
	NIDTypeSearchCriteriaObject = 0x07
	NIDTypeAssocMessage         = 0x08
	NIDTypeContentsTableIndex   = 0x0A
	NIDTypeReceiveFolderTable   = 0x0B
	NIDTypeOutgoingQueueTable   = 0x0C
	NIDTypeHierarchyTable       = 0x0D
	NIDTypeContentsTable        = 0x0E
	NIDTypeAssocContentsTable   = 0x0F
	NIDTypeSearchContentsTable  = 0x10
	NIDTypeAttachmentTable      = 0x11
	NIDTypeRecipientTable       = 0x12
	NIDTypeSearchTableIndex     = 0x13
	NIDTypeLTP                  = 0x1F
)

// Fixed, well-known NIDs every PST carries.
const (
	NIDMessageStore  NID = 0x21  // type=Internal, index=1
	NIDNameToIDMap   NID = 0x61  // type=Internal, index=3
	NIDRootFolder    NID = 0x122 // type=NormalFolder, index=9
	nidRecipientsFix NID = 0x0692
	nidAttachmentsFx NID = 0x0671
)

// MakeNID packs a type and index into a NID.
func MakeNID(nidType int, index uint32) NID {
	return NID((index << 5) | uint32(nidType&0x1F))
}

// Type returns the low 5-bit type tag.
func (n NID) Type() int { return int(n) & 0x1F }

// Index returns the 27-bit index.
func (n NID) Index() uint32 { return uint32(n) >> 5 }

func (n NID) String() string { return fmt.Sprintf("nid(%#x)", uint32(n)) }

// withType replaces n's type nibble, used to derive a folder's three
// per-folder TC NIDs from its own NID.
func (n NID) withType(nidType int) NID {
	return NID((uint32(n) &^ 0x1F) | uint32(nidType&0x1F))
}

func folderNIDHierarchy(n NID) NID { return n.withType(NIDTypeHierarchyTable) }
func folderNIDContents(n NID) NID  { return n.withType(NIDTypeContentsTable) }
func folderNIDAssoc(n NID) NID     { return n.withType(NIDTypeAssocContentsTable) }

// messageNIDRecipients and messageNIDAttachments are fixed well-known
// subnode NIDs per [MS-PST]/libpff convention, independent of the
// owning message's own NID.
func messageNIDRecipients(NID) NID { return nidRecipientsFix }
func messageNIDAttachments(NID) NID { return nidAttachmentsFx }

// attachmentSubnodeNID derives the i'th attachment's own PC subnode
// NID per [MS-PST] 2.4.6.2: (i << 5) | NIDTypeAttachment.
func attachmentSubnodeNID(i int) NID {
	return NID((uint32(i) << 5) | NIDTypeAttachment)
}

// BID is a 64-bit Block ID. Bit 1 (the "i-bit", value 2) distinguishes
// an internal block (XBLOCK/SLBLOCK) from a leaf data block; bit 0 set
// marks a B-tree page BID, which is otherwise unrelated to the i-bit
// scheme. See [MS-PST] 2.2.2.2.
type BID uint64

func (b BID) String() string { return fmt.Sprintf("bid(%#x)", uint64(b)) }
