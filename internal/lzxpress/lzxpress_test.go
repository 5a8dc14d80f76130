package lzxpress

import "testing"

func TestDecompressPlainLiteral(t *testing.T) {
	// S2 from the design's seed tests: type 0x18, advisory length 0x0B,
	// flags ignored, payload is a plain literal run.
	data := []byte{0x18, 0x0B, 0x00, 0, 0, 0, 0,
		'H', 'e', 'l', 'l', 'o', ' ', 'w', 'o', 'r', 'l', 'd'}
	got := Decompress(data)
	want := "Hello world"
	if string(got) != want {
		t.Errorf("Decompress() = %q, want %q", got, want)
	}
}

func TestDecompressRawFrame(t *testing.T) {
	data := append([]byte{TypeRaw, 0, 0, 0, 0, 0, 0}, []byte("plain text")...)
	got := Decompress(data)
	if string(got) != "plain text" {
		t.Errorf("Decompress(raw) = %q", got)
	}
}

func TestDecompressRepeatPattern(t *testing.T) {
	// 'A' 00 00 z repeats 'A' four times and consumes 3 bytes.
	payload := []byte{'A', 0x00, 0x00, 'B'}
	got := decompressContent(payload, 0)
	if string(got) != "AAAAB" {
		t.Errorf("decompressContent(repeat) = %q, want %q", got, "AAAAB")
	}
}

func TestDecompressControlSequenceSkipped(t *testing.T) {
	payload := []byte{0x00, 0x01, 0x02, 0x00, 'x'}
	got := decompressContent(payload, 0)
	if string(got) != "x" {
		t.Errorf("decompressContent(control) = %q, want %q", got, "x")
	}
}

func TestDecompressBackReference(t *testing.T) {
	// Literal "ab" followed by a 2-byte back-reference, high bit set.
	// value = b1 | b2<<8; offset = (value>>3)+1; length = (value&7)+3.
	// b1=0x88 (>=0x80), b2=0x00: value=0x88, offset=(0x88>>3)+1=18, which
	// exceeds len(out)==2, so copyBackref is a no-op and output stays "ab".
	payload := []byte{'a', 'b', 0x88, 0x00}
	got := decompressContent(payload, 0)
	if string(got) != "ab" {
		t.Errorf("decompressContent(out-of-range backref) = %q, want %q", got, "ab")
	}
}

func TestDecompressNeverPanics(t *testing.T) {
	inputs := [][]byte{
		nil,
		{0x18},
		{0x18, 0xFF, 0xFF, 0, 0, 0, 0, 0x80},
		{0x19, 0, 0, 0, 0, 0, 0, 0xFF, 0xFF, 0xFF},
	}
	for _, in := range inputs {
		_ = Decompress(in)
	}
}
