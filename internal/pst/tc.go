package pst

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// tcRow is one Table Context row: a row id (the PC/message NID the
// row describes) and its column values, keyed by property tag.
type tcRow struct {
	nid    uint32
	values map[uint32]PropValue
}

type tcColumn struct {
	tag    uint32
	ibData int
	cbData int
	iBit   int
}

func columnStorageSize(ptype int) int {
	if isFixedType(ptype) {
		return fixedSize(ptype)
	}
	return 4 // variable-size columns store a 4-byte HNID inline
}

// buildTCNode builds a Table Context: TCINFO + TCOLDESC array plus row
// data, all inside an HN, per [MS-PST] 2.3.4. columnDefs must not
// include PidTagLtpRowId; it is always added as column 0. Returns an
// error if a row's PropValue.Kind doesn't match the column's storage
// shape, rather than leaving the column byte range untouched.
func buildTCNode(columnDefs []uint32, rows []tcRow) ([][]byte, error) {
	hn := newHeapOnNode(hnClientTC)

	var group4b, group2b, group1b, groupVar []uint32
	for _, tag := range columnDefs {
		if tag == pidTagLtpRowId {
			continue
		}
		ptype := propType(tag)
		if isFixedType(ptype) {
			switch sz := fixedSize(ptype); {
			case sz >= 4:
				group4b = append(group4b, tag)
			case sz == 2:
				group2b = append(group2b, tag)
			default:
				group1b = append(group1b, tag)
			}
		} else {
			groupVar = append(groupVar, tag)
		}
	}
	sort.Slice(group4b, func(i, j int) bool { return group4b[i] < group4b[j] })
	sort.Slice(group2b, func(i, j int) bool { return group2b[i] < group2b[j] })
	sort.Slice(group1b, func(i, j int) bool { return group1b[i] < group1b[j] })
	sort.Slice(groupVar, func(i, j int) bool { return groupVar[i] < groupVar[j] })

	columns := []tcColumn{{tag: pidTagLtpRowId, ibData: 0, cbData: 4, iBit: 0}}

	sortedTags := append(append(append(append([]uint32(nil), group4b...), group2b...), group1b...), groupVar...)
	currentOffset := 4
	offsetAfter4b, offsetAfter2b := 4, 4

	for i, tag := range sortedTags {
		ptype := propType(tag)
		cb := columnStorageSize(ptype)
		columns = append(columns, tcColumn{tag: tag, ibData: currentOffset, cbData: cb, iBit: i + 1})
		currentOffset += cb

		switch {
		case i < len(group4b):
			offsetAfter4b = currentOffset
		case i < len(group4b)+len(group2b):
			offsetAfter2b = currentOffset
		}
	}
	if len(group2b) == 0 {
		offsetAfter2b = offsetAfter4b
	}

	cebSize := (len(columns) + 7) / 8
	rgib0 := 0
	rgib1 := offsetAfter4b
	rgib2 := offsetAfter2b
	rgib3 := currentOffset + cebSize
	rowSize := rgib3

	coldesc := make([]byte, 0, tcoldescSize*len(columns))
	for _, c := range columns {
		entry := make([]byte, tcoldescSize)
		binary.LittleEndian.PutUint32(entry[0:4], c.tag)
		binary.LittleEndian.PutUint16(entry[4:6], uint16(c.ibData))
		entry[6] = byte(c.cbData)
		entry[7] = byte(c.iBit)
		coldesc = append(coldesc, entry...)
	}

	var allRowData []byte
	for rowIdx, row := range rows {
		rowBytes := make([]byte, rowSize)
		binary.LittleEndian.PutUint32(rowBytes[0:4], row.nid)

		ceb := make([]byte, cebSize)
		ceb[0] |= 1 << 7 // iBit 0 (PidTagLtpRowId) is always present

		for _, c := range columns[1:] {
			value, ok := row.values[c.tag]
			if !ok {
				continue
			}
			ceb[c.iBit/8] |= 1 << (7 - uint(c.iBit%8))

			ptype := propType(c.tag)
			off := c.ibData
			if isFixedType(ptype) {
				switch value.Kind {
				case vkInt64:
					writeFixedColumn(rowBytes, off, ptype, uint64(value.I64))
				case vkBool:
					b := uint64(0)
					if value.Bool {
						b = 1
					}
					writeFixedColumn(rowBytes, off, ptype, b)
				case vkUint64:
					writeFixedColumn(rowBytes, off, ptype, value.U64)
				default:
					return nil, fmt.Errorf("pst: row %d col %#x: %s value can't fill a fixed column", row.nid, c.tag, value.Kind)
				}
			} else {
				var heapData []byte
				switch value.Kind {
				case vkString:
					if ptype == ptString8 {
						heapData = []byte(value.Str)
					} else {
						heapData = encodeUnicode(value.Str)
					}
				case vkBinary:
					heapData = value.Bytes
				default:
					return nil, fmt.Errorf("pst: row %d col %#x: %s value isn't valid for a variable-size column", row.nid, c.tag, value.Kind)
				}
				hid := hn.allocate(heapData)
				binary.LittleEndian.PutUint32(rowBytes[off:off+4], hid)
			}
		}

		copy(rowBytes[currentOffset:currentOffset+cebSize], ceb)
		_ = rowIdx
		allRowData = append(allRowData, rowBytes...)
	}

	var rowsHID uint32
	if len(allRowData) > 0 {
		rowsHID = hn.allocate(allRowData)
	}

	var rowIndexHID uint32
	if len(rows) > 0 {
		type riPair struct{ rid, idx uint32 }
		pairs := make([]riPair, len(rows))
		for i, row := range rows {
			pairs[i] = riPair{row.nid, uint32(i)}
		}
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].rid < pairs[j].rid })

		leafData := make([]byte, 0, 8*len(pairs))
		for _, p := range pairs {
			b := make([]byte, 8)
			binary.LittleEndian.PutUint32(b[0:4], p.rid)
			binary.LittleEndian.PutUint32(b[4:8], p.idx)
			leafData = append(leafData, b...)
		}
		leafHID := hn.allocate(leafData)
		riHeader := buildBTHHeader(4, 4, leafHID)
		rowIndexHID = hn.allocate(riHeader)
	}

	tcinfo := make([]byte, tcinfoFixedSize)
	tcinfo[0] = hnClientTC
	tcinfo[1] = byte(len(columns))
	binary.LittleEndian.PutUint16(tcinfo[2:4], uint16(rgib0))
	binary.LittleEndian.PutUint16(tcinfo[4:6], uint16(rgib1))
	binary.LittleEndian.PutUint16(tcinfo[6:8], uint16(rgib2))
	binary.LittleEndian.PutUint16(tcinfo[8:10], uint16(rgib3))
	binary.LittleEndian.PutUint32(tcinfo[10:14], rowIndexHID)
	binary.LittleEndian.PutUint32(tcinfo[14:18], rowsHID)
	binary.LittleEndian.PutUint32(tcinfo[18:22], 0) // hidIndex, deprecated

	tcinfoData := append(tcinfo, coldesc...)
	tcinfoHID := hn.allocate(tcinfoData)
	hn.setUserRoot(tcinfoHID)

	return hn.build(), nil
}

func writeFixedColumn(row []byte, off, ptype int, v uint64) {
	switch ptype {
	case ptLong, ptBoolean:
		binary.LittleEndian.PutUint32(row[off:off+4], uint32(v))
	case ptShort:
		binary.LittleEndian.PutUint16(row[off:off+2], uint16(v))
	case ptSysTime, ptLongLong:
		binary.LittleEndian.PutUint64(row[off:off+8], v)
	}
}

// TCINFO/TCOLDESC sizes, [MS-PST] 2.3.4.1.
const (
	tcinfoFixedSize = 22
	tcoldescSize    = 8
)
