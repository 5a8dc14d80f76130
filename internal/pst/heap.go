package pst

import "encoding/binary"

// HN heap signature and client signatures, [MS-PST] 2.3.1.
const (
	hnSig      = 0xEC
	hnClientTC = 0x7C
	hnClientBTH = 0xB5
	hnClientPC = 0xBC

	hnhdrSize     = 12
	hnPageHdrSize = 2

	// maxHNAlloc is the largest single allocation an HN page will
	// hold; anything larger must live in a subnode instead.
	maxHNAlloc = 3580
)

// makeHID packs a Heap ID: bits 0-4 are the HID type (0 for plain HN
// allocations), bits 5-15 are the 1-based index within the page, bits
// 16-31 are the 0-based page (block) index.
func makeHID(blockIndex, index int) uint32 {
	return (uint32(blockIndex&0xFFFF) << 16) | (uint32(index&0x7FF) << 5)
}

// heapOnNode is a variable-size slab allocator over one or more HN
// pages, each of which becomes its own data block once built (and
// those blocks are chained with an XBLOCK if there is more than one).
type heapOnNode struct {
	clientSig  byte
	userRoot   uint32
	pages      [][][]byte // pages[pageIndex] = list of allocations, in order
}

func newHeapOnNode(clientSig byte) *heapOnNode {
	return &heapOnNode{clientSig: clientSig, pages: [][][]byte{nil}}
}

func (h *heapOnNode) pageHeaderSize(pageIndex int) int {
	if pageIndex == 0 {
		return hnhdrSize
	}
	return hnPageHdrSize
}

func (h *heapOnNode) canFit(pageIndex int, newDataLen int) bool {
	allocs := h.pages[pageIndex]
	headerSz := h.pageHeaderSize(pageIndex)
	currentData := 0
	for _, a := range allocs {
		currentData += len(a)
	}
	newCount := len(allocs) + 1
	pagemapSz := 4 + (newCount+1)*2
	return headerSz+currentData+newDataLen+pagemapSz <= maxBlockData
}

// allocate places data on the heap, starting a new page if it would
// not fit the current one, and returns its HID.
func (h *heapOnNode) allocate(data []byte) uint32 {
	page := len(h.pages) - 1
	if !h.canFit(page, len(data)) && len(h.pages[page]) > 0 {
		h.pages = append(h.pages, nil)
		page = len(h.pages) - 1
	}
	idx := len(h.pages[page]) + 1 // 1-based within the page
	hid := makeHID(page, idx)
	h.pages[page] = append(h.pages[page], data)
	return hid
}

func (h *heapOnNode) setUserRoot(hid uint32) { h.userRoot = hid }

// build renders every HN page to raw bytes, one per data block,
// without block trailers (the assembler packs those separately).
func (h *heapOnNode) build() [][]byte {
	out := make([][]byte, len(h.pages))
	for i, allocs := range h.pages {
		if i == 0 {
			out[i] = h.buildPage0(allocs)
		} else {
			out[i] = h.buildPageN(allocs)
		}
	}
	return out
}

func packHNPageMap(dataStart int, allocs [][]byte) []byte {
	offsets := make([]int, 0, len(allocs)+1)
	current := 0
	for _, a := range allocs {
		offsets = append(offsets, current)
		current += len(a)
	}
	offsets = append(offsets, current)

	out := make([]byte, 4+2*len(offsets))
	binary.LittleEndian.PutUint16(out[0:2], uint16(len(allocs)))
	binary.LittleEndian.PutUint16(out[2:4], 0) // cFree
	for i, off := range offsets {
		binary.LittleEndian.PutUint16(out[4+2*i:6+2*i], uint16(off+dataStart))
	}
	return out
}

func (h *heapOnNode) buildPage0(allocs [][]byte) []byte {
	dataStart := hnhdrSize
	dataArea := make([]byte, 0, 256)
	for _, a := range allocs {
		dataArea = append(dataArea, a...)
	}
	ibHnpm := dataStart + len(dataArea)

	hdr := make([]byte, hnhdrSize)
	binary.LittleEndian.PutUint16(hdr[0:2], uint16(ibHnpm))
	hdr[2] = hnSig
	hdr[3] = h.clientSig
	binary.LittleEndian.PutUint32(hdr[4:8], h.userRoot)
	binary.LittleEndian.PutUint32(hdr[8:12], 0) // dwFill

	out := append(hdr, dataArea...)
	out = append(out, packHNPageMap(dataStart, allocs)...)
	return out
}

func (h *heapOnNode) buildPageN(allocs [][]byte) []byte {
	dataStart := hnPageHdrSize
	dataArea := make([]byte, 0, 256)
	for _, a := range allocs {
		dataArea = append(dataArea, a...)
	}
	ibHnpm := dataStart + len(dataArea)

	hdr := make([]byte, hnPageHdrSize)
	binary.LittleEndian.PutUint16(hdr[0:2], uint16(ibHnpm))

	out := append(hdr, dataArea...)
	out = append(out, packHNPageMap(dataStart, allocs)...)
	return out
}
