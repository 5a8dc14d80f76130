package pst

import (
	"encoding/binary"

	"github.com/exchrecover/edbcore/internal/pstcrc"
)

// Header constants, [MS-PST] 2.2.2.6. wVer 23 with 19 client selects
// the Unicode (not ANSI) format: 8-byte BIDs and IBs throughout.
const (
	headerMagic       = "\x21\x42\x44\x4E" // "!BDN"
	headerMagicClient = "\x53\x4D"         // "SM"
	wVerUnicode       = 23
	wVerClient        = 19
	bPlatformCreate   = 0x01
	bPlatformAccess   = 0x01

	headerSize = 564
	cryptNone  = 0x00

	rootSize = 72
)

// root is the 72-byte ROOT structure embedded in the header: file EOF,
// AMap bookkeeping, and the two B-tree roots.
type root struct {
	fileEOF     uint64
	ibAMapLast  uint64
	cbAMapFree  uint64
	cbPMapFree  uint64
	bidNBT      BID
	ibNBT       uint64
	bidBBT      BID
	ibBBT       uint64
	fAMapValid  byte
}

func packRoot(r root) []byte {
	out := make([]byte, rootSize)
	binary.LittleEndian.PutUint32(out[0:4], 0) // dwReserved
	binary.LittleEndian.PutUint64(out[4:12], r.fileEOF)
	binary.LittleEndian.PutUint64(out[12:20], r.ibAMapLast)
	binary.LittleEndian.PutUint64(out[20:28], r.cbAMapFree)
	binary.LittleEndian.PutUint64(out[28:36], r.cbPMapFree)
	binary.LittleEndian.PutUint64(out[36:44], uint64(r.bidNBT))
	binary.LittleEndian.PutUint64(out[44:52], r.ibNBT)
	binary.LittleEndian.PutUint64(out[52:60], uint64(r.bidBBT))
	binary.LittleEndian.PutUint64(out[60:68], r.ibBBT)
	out[68] = r.fAMapValid
	out[69] = 0
	binary.LittleEndian.PutUint16(out[70:72], 0)
	return out
}

// buildHeader assembles the full 564-byte Unicode header and fills in
// both CRCs: a partial CRC over the 471 bytes starting at offset 0x08,
// and a full CRC over the 516 bytes starting at the same offset.
func buildHeader(rootData []byte, bidNextPage, bidNextBlock BID, unique uint32) []byte {
	buf := make([]byte, headerSize)

	copy(buf[0x00:0x04], headerMagic)
	copy(buf[0x08:0x0A], headerMagicClient)
	binary.LittleEndian.PutUint16(buf[0x0A:0x0C], wVerUnicode)
	binary.LittleEndian.PutUint16(buf[0x0C:0x0E], wVerClient)
	buf[0x0E] = bPlatformCreate
	buf[0x0F] = bPlatformAccess

	binary.LittleEndian.PutUint64(buf[0x20:0x28], uint64(bidNextPage))
	binary.LittleEndian.PutUint32(buf[0x28:0x2C], unique)

	copy(buf[0xB4:0xB4+rootSize], rootData)

	for i := 0x100; i < 0x180; i++ {
		buf[i] = 0xFF
	}
	for i := 0x180; i < 0x200; i++ {
		buf[i] = 0xFF
	}

	buf[0x200] = 0x80 // bSentinel
	buf[0x201] = cryptNone

	binary.LittleEndian.PutUint64(buf[0x204:0x20C], uint64(bidNextBlock))

	crcPartial := pstcrc.CRC32(buf[0x08 : 0x08+471])
	binary.LittleEndian.PutUint32(buf[0x04:0x08], crcPartial)

	crcFull := pstcrc.CRC32(buf[0x08 : 0x08+516])
	binary.LittleEndian.PutUint32(buf[0x20C:0x210], crcFull)

	return buf
}
