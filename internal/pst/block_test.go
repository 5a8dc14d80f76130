package pst

import (
	"encoding/binary"
	"testing"
)

func TestPackBlockAlignment(t *testing.T) {
	data := []byte("hello world")
	out := packBlock(data, BID(4), 0x4600)

	if len(out)%blockAlign != 0 {
		t.Fatalf("packed block length %d not 64-byte aligned", len(out))
	}
	if len(out) < len(data)+blockTrailerSz {
		t.Fatalf("packed block length %d shorter than data+trailer", len(out))
	}
}

func TestPackBlockTrailerFields(t *testing.T) {
	data := []byte("some block payload")
	bid := BID(12345)
	out := packBlock(data, bid, 0x8000)

	trailer := out[len(out)-blockTrailerSz:]
	cb := binary.LittleEndian.Uint16(trailer[0:2])
	if int(cb) != len(data) {
		t.Errorf("trailer cb = %d, want %d", cb, len(data))
	}
	gotBID := binary.LittleEndian.Uint64(trailer[8:16])
	if BID(gotBID) != bid {
		t.Errorf("trailer bid = %d, want %d", gotBID, bid)
	}
}

func TestPackBlockPanicsOnOversize(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for data exceeding maxBlockData")
		}
	}()
	packBlock(make([]byte, maxBlockData+1), BID(1), 0)
}

func TestBlockTotalSizeMatchesPackBlock(t *testing.T) {
	for _, n := range []int{0, 1, 63, 64, 100, 8176} {
		data := make([]byte, n)
		want := len(packBlock(data, BID(2), 0))
		if got := blockTotalSize(n); got != want {
			t.Errorf("blockTotalSize(%d) = %d, want %d", n, got, want)
		}
	}
}
