package pst

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/exchrecover/edbcore/internal/mapitime"
	"github.com/exchrecover/edbcore/internal/record"
)

func filetimeOf(t time.Time) uint64 { return mapitime.FromTime(t) }

// folderState is the builder's working model of one folder while
// messages and subfolders accumulate into it.
type folderState struct {
	name          string
	parentNID     NID
	subfolderNIDs []NID
	messageNIDs   []NID
}

// Writer assembles a complete Unicode PST file from folders and
// normalized messages, mirroring the NID/BID allocation and layout
// rules of [MS-PST]. Build the tree with AddFolder/AddMessage, then
// call Write once.
type Writer struct {
	displayName string

	nextNIDIndex     uint32
	nextLeafBID      BID
	nextInternalBID  BID
	nextPageBID      BID

	nodes   []nbtEntry
	blocks  []blockEntry
	folders map[NID]*folderState
	messages map[NID]record.Message

	rootNID NID
}

type blockEntry struct {
	bid  BID
	data []byte
}

// NewWriter creates a Writer for a store whose top-level name is
// displayName (shown as the PST's "Personal Folders" root in Outlook).
func NewWriter(displayName string) *Writer {
	w := &Writer{
		displayName:     displayName,
		nextNIDIndex:    32, // 0..31 reserved for well-known/internal NIDs
		nextLeafBID:     4,  // leaf BIDs: i-bit 0, BID%4==0
		nextInternalBID: 6,  // internal BIDs: i-bit 1, BID%4==2
		nextPageBID:     5,  // page BIDs: odd
		folders:         map[NID]*folderState{},
		messages:        map[NID]record.Message{},
		rootNID:         NIDRootFolder,
	}
	w.folders[w.rootNID] = &folderState{name: "Top of Personal Folders", parentNID: w.rootNID}
	return w
}

func (w *Writer) allocLeafBID() BID {
	bid := w.nextLeafBID
	w.nextLeafBID += 4
	return bid
}

func (w *Writer) allocInternalBID() BID {
	bid := w.nextInternalBID
	w.nextInternalBID += 4
	return bid
}

func (w *Writer) allocPageBID() BID {
	bid := w.nextPageBID
	if bid%2 == 0 {
		bid++
	}
	w.nextPageBID = bid + 2
	return bid
}

func (w *Writer) allocNID(nidType int) NID {
	idx := w.nextNIDIndex
	w.nextNIDIndex++
	return MakeNID(nidType, idx)
}

func (w *Writer) storeDataBlock(data []byte) BID {
	bid := w.allocLeafBID()
	w.blocks = append(w.blocks, blockEntry{bid, data})
	return bid
}

func (w *Writer) storeInternalBlock(data []byte) BID {
	bid := w.allocInternalBID()
	w.blocks = append(w.blocks, blockEntry{bid, data})
	return bid
}

// storeNodePages stores an HN's pages: a single page becomes one leaf
// block; multiple pages are chunked into leaf blocks wrapped by one
// XBLOCK stored as an internal block.
func (w *Writer) storeNodePages(pages [][]byte) BID {
	if len(pages) == 1 {
		return w.storeDataBlock(pages[0])
	}
	bids := make([]BID, len(pages))
	total := 0
	for i, p := range pages {
		bids[i] = w.storeDataBlock(p)
		total += len(p)
	}
	return w.storeInternalBlock(buildXBlock(bids, total))
}

// storeSubnodeData stores a raw value too large for a heap allocation:
// small values become one leaf block, large ones are chunked under an
// XBLOCK the same way storeNodePages handles multi-page HNs.
func (w *Writer) storeSubnodeData(data []byte) BID {
	if len(data) <= maxBlockData {
		return w.storeDataBlock(data)
	}
	var bids []BID
	for i := 0; i < len(data); i += maxBlockData {
		end := i + maxBlockData
		if end > len(data) {
			end = len(data)
		}
		bids = append(bids, w.storeDataBlock(data[i:end]))
	}
	return w.storeInternalBlock(buildXBlock(bids, len(data)))
}

func (w *Writer) buildSLBID(entries []slEntry) BID {
	if len(entries) == 0 {
		return 0
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].nid < entries[j].nid })
	return w.storeInternalBlock(buildSLBlock(entries))
}

// storeTCOrPC stores a PC/TC's HN pages and any overflow subnodes,
// returning the node's (dataBID, subBID) pair.
func (w *Writer) storeTCOrPC(pages [][]byte, subnodes []subnodeValue) (BID, BID) {
	dataBID := w.storeNodePages(pages)
	var subBID BID
	if len(subnodes) > 0 {
		entries := make([]slEntry, len(subnodes))
		for i, sn := range subnodes {
			entries[i] = slEntry{sn.nid, w.storeSubnodeData(sn.data), 0}
		}
		subBID = w.buildSLBID(entries)
	}
	return dataBID, subBID
}

// addNode registers a top-level NBT entry for nid, storing its HN
// pages, merging any value-overflow subnodes with extraSL, and
// building the combined subnode index.
func (w *Writer) addNode(nid NID, pages [][]byte, subnodes []subnodeValue, extraSL []slEntry, parentNID NID) BID {
	dataBID := w.storeNodePages(pages)

	entries := append([]slEntry(nil), extraSL...)
	for _, sn := range subnodes {
		entries = append(entries, slEntry{sn.nid, w.storeSubnodeData(sn.data), 0})
	}

	subBID := w.buildSLBID(entries)
	w.nodes = append(w.nodes, nbtEntry{nid, dataBID, subBID, parentNID})
	return dataBID
}

// AddFolder registers a new folder under parent (the zero NID means
// the store's root folder) and returns its NID.
func (w *Writer) AddFolder(name string, parent NID) NID {
	if parent == 0 {
		parent = w.rootNID
	}
	nid := w.allocNID(NIDTypeNormalFolder)
	w.folders[nid] = &folderState{name: name, parentNID: parent}
	if pf, ok := w.folders[parent]; ok {
		pf.subfolderNIDs = append(pf.subfolderNIDs, nid)
	}
	return nid
}

// AddMessage adds msg to folder and returns its NID.
func (w *Writer) AddMessage(folder NID, msg record.Message) (NID, error) {
	nid := w.allocNID(NIDTypeNormalMessage)
	if f, ok := w.folders[folder]; ok {
		f.messageNIDs = append(f.messageNIDs, nid)
	}
	w.messages[nid] = msg

	now := filetimeOf(time.Now())
	msgPages, msgSubnodes, err := buildMessagePC(msg, now)
	if err != nil {
		return 0, fmt.Errorf("pst: message %q: %w", msg.Subject, err)
	}

	var extraSL []slEntry
	if len(msg.To)+len(msg.CC)+len(msg.BCC) > 0 {
		recipients := append(append(append([]record.Recipient(nil), msg.To...), msg.CC...), msg.BCC...)
		recipPages, err := buildRecipientsTC(recipients)
		if err != nil {
			return 0, fmt.Errorf("pst: message %q: recipients: %w", msg.Subject, err)
		}
		recipBID, recipSubBID := w.storeTCOrPC(recipPages, nil)
		extraSL = append(extraSL, slEntry{messageNIDRecipients(nid), recipBID, recipSubBID})
	}

	if len(msg.Attachments) > 0 {
		attachPages, err := buildAttachmentsTC(msg.Attachments)
		if err != nil {
			return 0, fmt.Errorf("pst: message %q: attachments: %w", msg.Subject, err)
		}
		attachBID, attachSubBID := w.storeTCOrPC(attachPages, nil)
		extraSL = append(extraSL, slEntry{messageNIDAttachments(nid), attachBID, attachSubBID})

		for i, att := range msg.Attachments {
			attPages, attSubnodes, err := buildAttachmentPC(att, i)
			if err != nil {
				return 0, fmt.Errorf("pst: message %q: attachment %d: %w", msg.Subject, i, err)
			}
			attBID, attSubBID := w.storeTCOrPC(attPages, attSubnodes)
			extraSL = append(extraSL, slEntry{attachmentSubnodeNID(i), attBID, attSubBID})
		}
	}

	w.addNode(nid, msgPages, msgSubnodes, extraSL, folder)
	return nid, nil
}

func (w *Writer) buildInternalNodes() error {
	recordKey := mustRandomBytes16()

	storePages, storeSubnodes, err := buildMessageStore(w.displayName, recordKey)
	if err != nil {
		return fmt.Errorf("pst: message store: %w", err)
	}
	w.addNode(NIDMessageStore, storePages, storeSubnodes, nil, 0)

	namemapPages, namemapSubnodes, err := buildNameToIDMap()
	if err != nil {
		return fmt.Errorf("pst: name-to-id map: %w", err)
	}
	w.addNode(NIDNameToIDMap, namemapPages, namemapSubnodes, nil, 0)
	return nil
}

func mustRandomBytes16() []byte {
	id := uuid.New()
	return id[:]
}

func (w *Writer) buildFolderNodes() error {
	now := filetimeOf(time.Now())

	for nid, f := range w.folders {
		hasSubs := len(f.subfolderNIDs) > 0
		msgCount := len(f.messageNIDs)

		pcPages, pcSubnodes, err := buildFolderPC(f.name, msgCount, hasSubs, now)
		if err != nil {
			return fmt.Errorf("pst: folder %q: %w", f.name, err)
		}

		var subRows []folderRow
		for _, subNID := range f.subfolderNIDs {
			sub := w.folders[subNID]
			subRows = append(subRows, folderRow{
				nid:           subNID,
				name:          sub.name,
				contentCount:  len(sub.messageNIDs),
				hasSubfolders: len(sub.subfolderNIDs) > 0,
			})
		}
		hierNID := folderNIDHierarchy(nid)
		hierPages, err := buildHierarchyTC(subRows)
		if err != nil {
			return fmt.Errorf("pst: folder %q: hierarchy table: %w", f.name, err)
		}
		hierBID, hierSubBID := w.storeTCOrPC(hierPages, nil)

		var msgRows []contentsRow
		for _, msgNID := range f.messageNIDs {
			msg := w.messages[msgNID]
			flags := int64(msgFlagRead)
			if msg.HasAttachments {
				flags |= msgFlagHasAttach
			}
			row := contentsRow{
				nid:          msgNID,
				subject:      msg.Subject,
				messageClass: nonEmpty(msg.MessageClass, "IPM.Note"),
				flags:        flags,
				size:         int64(len(encodeUnicode(msg.BodyText))),
				importance:   int64(msg.Importance),
				hasAttach:    msg.HasAttachments,
				senderName:   msg.SenderName,
			}
			if msg.DateReceivedOK {
				row.deliveryTime = filetimeOf(msg.DateReceived)
				row.hasDeliveryTime = true
			}
			msgRows = append(msgRows, row)
		}
		contentsNID := folderNIDContents(nid)
		contentsPages, err := buildContentsTC(msgRows)
		if err != nil {
			return fmt.Errorf("pst: folder %q: contents table: %w", f.name, err)
		}
		contentsBID, contentsSubBID := w.storeTCOrPC(contentsPages, nil)

		assocNID := folderNIDAssoc(nid)
		assocPages, err := buildAssocContentsTC()
		if err != nil {
			return fmt.Errorf("pst: folder %q: associated contents table: %w", f.name, err)
		}
		assocBID, assocSubBID := w.storeTCOrPC(assocPages, nil)

		w.addNode(nid, pcPages, pcSubnodes, nil, f.parentNID)
		w.nodes = append(w.nodes,
			nbtEntry{hierNID, hierBID, hierSubBID, 0},
			nbtEntry{contentsNID, contentsBID, contentsSubBID, 0},
			nbtEntry{assocNID, assocBID, assocSubBID, 0},
		)
	}
	return nil
}

// skipAMapPages advances offset so [offset, offset+size) doesn't
// overlap any fixed AMap page position.
func skipAMapPages(offset uint64, size uint64) uint64 {
	for {
		if offset < firstAMapOffset {
			return offset
		}
		rel := offset - firstAMapOffset
		n := rel / amapCoverage
		amapPos := firstAMapOffset + n*amapCoverage
		if offset < amapPos+pageSize {
			offset = amapPos + pageSize
			continue
		}
		nextAMap := firstAMapOffset + (n+1)*amapCoverage
		if offset+size > nextAMap {
			offset = nextAMap + pageSize
			continue
		}
		return offset
	}
}

// Write assembles the full file layout (blocks, B-trees, AMaps,
// header) and writes it to out.
func (w *Writer) Write(out io.Writer) error {
	if err := w.buildInternalNodes(); err != nil {
		return err
	}
	if err := w.buildFolderNodes(); err != nil {
		return err
	}

	// Phase 1: assign file offsets to every data block.
	currentOffset := uint64(firstAMapOffset) + pageSize

	type blockPos struct {
		offset uint64
		rawLen int
	}
	positions := make(map[BID]blockPos, len(w.blocks))
	for _, b := range w.blocks {
		total := uint64(blockTotalSize(len(b.data)))
		currentOffset = skipAMapPages(currentOffset, total)
		positions[b.bid] = blockPos{currentOffset, len(b.data)}
		currentOffset += total
	}
	if currentOffset%pageSize != 0 {
		currentOffset = ((currentOffset + pageSize - 1) / pageSize) * pageSize
	}

	// Phase 2: NBT entries, sorted by NID.
	nbtPacked := make([][]byte, len(w.nodes))
	for i, n := range w.nodes {
		nbtPacked[i] = packNBTEntry(n)
	}
	sortEntries(nbtPacked)

	// Phase 3: BBT entries, sorted by BID.
	var bbtPacked [][]byte
	for _, b := range w.blocks {
		pos, ok := positions[b.bid]
		if !ok {
			continue
		}
		bbtPacked = append(bbtPacked, packBBTEntry(bbtEntry{b.bid, pos.offset, uint16(pos.rawLen)}))
	}
	sortEntries(bbtPacked)

	// Phase 4: B-tree pages.
	pageCursor := currentOffset
	pageOffsets := map[BID]uint64{}
	allocPageOffset := func(bid BID) uint64 {
		offset := skipAMapPages(pageCursor, pageSize)
		pageOffsets[bid] = offset
		pageCursor = offset + pageSize
		return offset
	}

	nbtPages := buildBTreePages(nbtPacked, ptypeNBT, w.allocPageBID, allocPageOffset)
	bbtPages := buildBTreePages(bbtPacked, ptypeBBT, w.allocPageBID, allocPageOffset)

	nbtRoot := nbtPages[len(nbtPages)-1]
	bbtRoot := bbtPages[len(bbtPages)-1]

	fileEOF := pageCursor

	// Phase 5: AMap pages.
	var allocated []extent
	for _, b := range w.blocks {
		pos, ok := positions[b.bid]
		if !ok {
			continue
		}
		allocated = append(allocated, extent{pos.offset, uint64(blockTotalSize(pos.rawLen))})
	}
	for _, p := range append(append([]btreePage(nil), nbtPages...), bbtPages...) {
		allocated = append(allocated, extent{p.offset, pageSize})
	}

	numAMaps := (fileEOF - firstAMapOffset + amapCoverage - 1) / amapCoverage
	if numAMaps == 0 {
		numAMaps = 1
	}

	type amapPage struct {
		offset uint64
		data   []byte
	}
	var amapPages []amapPage
	var totalAMapFree uint64
	lastAMapOffset := uint64(firstAMapOffset)

	for i := uint64(0); i < numAMaps; i++ {
		amapOffset := uint64(firstAMapOffset) + i*amapCoverage
		amapBID := w.allocPageBID()
		page := buildAMapPage(allocated, amapOffset, amapOffset, amapBID)
		free := computeAMapFree(allocated, amapOffset)
		amapPages = append(amapPages, amapPage{amapOffset, page})
		totalAMapFree += free
		lastAMapOffset = amapOffset
	}

	// Phase 6: header.
	r := root{
		fileEOF:    fileEOF,
		ibAMapLast: lastAMapOffset,
		cbAMapFree: totalAMapFree,
		cbPMapFree: 0,
		bidNBT:     nbtRoot.bid,
		ibNBT:      nbtRoot.offset,
		bidBBT:     bbtRoot.bid,
		ibBBT:      bbtRoot.offset,
		fAMapValid: 2,
	}
	header := buildHeader(packRoot(r), w.nextPageBID, maxBID(w.nextLeafBID, w.nextInternalBID), 1)

	// Phase 7: write everything sorted by offset, zero-padding gaps.
	type writeItem struct {
		offset uint64
		data   []byte
	}
	var items []writeItem
	for _, p := range amapPages {
		items = append(items, writeItem{p.offset, p.data})
	}
	for _, b := range w.blocks {
		pos, ok := positions[b.bid]
		if !ok {
			continue
		}
		items = append(items, writeItem{pos.offset, packBlock(b.data, b.bid, pos.offset)})
	}
	for _, p := range append(append([]btreePage(nil), nbtPages...), bbtPages...) {
		items = append(items, writeItem{p.offset, p.data})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].offset < items[j].offset })

	if _, err := out.Write(header); err != nil {
		return err
	}
	if err := writeZeros(out, firstAMapOffset-uint64(len(header))); err != nil {
		return err
	}

	expected := uint64(firstAMapOffset)
	for _, it := range items {
		if it.offset > expected {
			if err := writeZeros(out, it.offset-expected); err != nil {
				return err
			}
		}
		if _, err := out.Write(it.data); err != nil {
			return err
		}
		expected = it.offset + uint64(len(it.data))
	}
	return nil
}

func writeZeros(out io.Writer, n uint64) error {
	const chunkSize = 4096
	var zeros [chunkSize]byte
	for n > 0 {
		c := uint64(chunkSize)
		if n < c {
			c = n
		}
		if _, err := out.Write(zeros[:c]); err != nil {
			return err
		}
		n -= c
	}
	return nil
}

func maxBID(a, b BID) BID {
	if a > b {
		return a
	}
	return b
}
