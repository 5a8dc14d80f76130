package pst

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// subnodeValue is a (nid, bytes) pair for a PC/TC value too large for
// the heap, carried in the owning node's subnode index instead.
type subnodeValue struct {
	nid  NID
	data []byte
}

func encodeUnicode(s string) []byte {
	u := make([]byte, 0, len(s)*2)
	for _, r := range []rune(s) {
		if r > 0xFFFF {
			r = '?' // BMP-only encoder; non-BMP runes are rare in mailbox text
		}
		u = append(u, byte(r), byte(r>>8))
	}
	return u
}

// buildPCNode builds a Property Context: a BTH (key=2-byte prop id,
// entry=6 bytes: prop type + inline value/HID/NID) inside an HN.
// Returns the HN's built pages and any values that overflowed the
// heap into subnodes. Returns an error if a property's PropValue.Kind
// doesn't match the storage shape its property type requires, rather
// than writing zeroed or truncated data for it.
func buildPCNode(properties []prop) ([][]byte, []subnodeValue, error) {
	hn := newHeapOnNode(hnClientPC)
	var subnodes []subnodeValue

	sorted := append([]prop(nil), properties...)
	sort.Slice(sorted, func(i, j int) bool { return propID(sorted[i].tag) < propID(sorted[j].tag) })

	var entries [][]byte
	for _, p := range sorted {
		pid := propID(p.tag)
		ptype := propType(p.tag)

		key := make([]byte, 2)
		binary.LittleEndian.PutUint16(key, uint16(pid))

		var data []byte
		if isFixedType(ptype) {
			fsize := fixedSize(ptype)
			if fsize <= 4 {
				var dw uint32
				switch p.value.Kind {
				case vkInt64:
					dw = uint32(p.value.I64)
				case vkBool:
					if p.value.Bool {
						dw = 1
					}
				default:
					return nil, nil, fmt.Errorf("pst: prop %#x: %s value can't fill a %d-byte fixed slot", p.tag, p.value.Kind, fsize)
				}
				data = make([]byte, 6)
				binary.LittleEndian.PutUint16(data[0:2], uint16(ptype))
				binary.LittleEndian.PutUint32(data[2:6], dw)
			} else {
				var heapData []byte
				switch p.value.Kind {
				case vkUint64:
					heapData = make([]byte, 8)
					binary.LittleEndian.PutUint64(heapData, p.value.U64)
				case vkInt64:
					heapData = make([]byte, 8)
					binary.LittleEndian.PutUint64(heapData, uint64(p.value.I64))
				case vkBinary:
					heapData = append([]byte(nil), p.value.Bytes...)
					for len(heapData) < 16 && ptype == ptGUID {
						heapData = append(heapData, 0)
					}
				default:
					return nil, nil, fmt.Errorf("pst: prop %#x: %s value can't fill an %d-byte fixed heap slot", p.tag, p.value.Kind, fsize)
				}
				hid := hn.allocate(heapData)
				data = make([]byte, 6)
				binary.LittleEndian.PutUint16(data[0:2], uint16(ptype))
				binary.LittleEndian.PutUint32(data[2:6], hid)
			}
		} else {
			var encoded []byte
			switch p.value.Kind {
			case vkString:
				if ptype == ptString8 {
					encoded = []byte(p.value.Str)
				} else {
					encoded = encodeUnicode(p.value.Str)
				}
			case vkBinary:
				encoded = p.value.Bytes
			default:
				return nil, nil, fmt.Errorf("pst: prop %#x: %s value isn't valid for a variable-size property", p.tag, p.value.Kind)
			}

			if len(encoded) > maxHNAlloc {
				nid := NID((uint32(pid) << 5) | NIDTypeLTP)
				subnodes = append(subnodes, subnodeValue{nid, encoded})
				data = make([]byte, 6)
				binary.LittleEndian.PutUint16(data[0:2], uint16(ptype))
				binary.LittleEndian.PutUint32(data[2:6], uint32(nid))
			} else {
				hid := hn.allocate(encoded)
				data = make([]byte, 6)
				binary.LittleEndian.PutUint16(data[0:2], uint16(ptype))
				binary.LittleEndian.PutUint32(data[2:6], hid)
			}
		}

		entry := make([]byte, 0, 8)
		entry = append(entry, key...)
		entry = append(entry, data...)
		entries = append(entries, entry)
	}

	var leafHID uint32
	if len(entries) > 0 {
		var leafData []byte
		for _, e := range entries {
			leafData = append(leafData, e...)
		}
		leafHID = hn.allocate(leafData)
	}

	header := buildBTHHeader(2, 6, leafHID)
	headerHID := hn.allocate(header)
	hn.setUserRoot(headerHID)

	return hn.build(), subnodes, nil
}
