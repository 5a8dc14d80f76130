package mapiblob

import "testing"

func TestExtractSenderSkipsSystemTokens(t *testing.T) {
	blob := make([]byte, 60)
	blob[0] = 'M'
	blob[1] = byte(len("Microsoft Exchange"))
	copy(blob[2:], "Microsoft Exchange")
	if got := ExtractSender(blob); got != "" {
		t.Errorf("ExtractSender() = %q, want \"\" (system token)", got)
	}
}

func TestExtractSenderAcceptsName(t *testing.T) {
	blob := make([]byte, 60)
	blob[0] = 'M'
	name := "Jane Q Doe"
	blob[1] = byte(len(name))
	copy(blob[2:], name)
	if got := ExtractSender(blob); got != name {
		t.Errorf("ExtractSender() = %q, want %q", got, name)
	}
}

func TestExtractSenderEmail(t *testing.T) {
	blob := make([]byte, 60)
	blob[0] = 'M'
	email := "jane.doe@example.com"
	blob[1] = byte(len(email))
	copy(blob[2:], email)
	if got := ExtractSenderEmail(blob); got != email {
		t.Errorf("ExtractSenderEmail() = %q, want %q", got, email)
	}
}

func TestExtractSenderEmailRejectsNoDot(t *testing.T) {
	blob := make([]byte, 60)
	blob[0] = 'M'
	email := "jane@localhost"
	blob[1] = byte(len(email))
	copy(blob[2:], email)
	if got := ExtractSenderEmail(blob); got != "" {
		t.Errorf("ExtractSenderEmail() = %q, want \"\" (no dot in domain)", got)
	}
}

func TestExtractMessageID(t *testing.T) {
	blob := []byte("junk before <abc123@example.com> junk after")
	if got := ExtractMessageID(blob); got != "<abc123@example.com>" {
		t.Errorf("ExtractMessageID() = %q", got)
	}
}

func TestExtractMessageIDRejectsNoAt(t *testing.T) {
	blob := []byte("some <notanemail> text")
	if got := ExtractMessageID(blob); got != "" {
		t.Errorf("ExtractMessageID() = %q, want \"\" (no @)", got)
	}
}

func TestDecodeRepeatNeverPanics(t *testing.T) {
	inputs := [][]byte{
		nil,
		{0x05},
		{0x05, 0x80},
		{0x0A, 'A', 0x00, 0x00, 'x'},
		{0xFF, 0x80, 0x80, 0x80, 0x80, 0x80},
	}
	for _, in := range inputs {
		_ = DecodeRepeat(in)
	}
}

func TestDecodeRepeatExpandsRun(t *testing.T) {
	// Expected length 4, then 'A' 00 00 expands to "AAAA".
	data := []byte{0x04, 'A', 0x00, 0x00}
	got := DecodeRepeat(data)
	if got != "AAAA" {
		t.Errorf("DecodeRepeat() = %q, want %q", got, "AAAA")
	}
}

func TestLooksLikeRepeatEncoding(t *testing.T) {
	yes := []byte{'A', 0x00, 0x00, 'B', 0x00, 0x00}
	if !looksLikeRepeatEncoding(yes) {
		t.Errorf("looksLikeRepeatEncoding(%v) = false, want true", yes)
	}
	no := []byte("plain subject text")
	if looksLikeRepeatEncoding(no) {
		t.Errorf("looksLikeRepeatEncoding(%v) = true, want false", no)
	}
}
