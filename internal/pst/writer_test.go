package pst

import (
	"bytes"
	"testing"
	"time"

	"github.com/exchrecover/edbcore/internal/record"
)

func TestWriterProducesValidHeader(t *testing.T) {
	w := NewWriter("Test Mailbox")
	var buf bytes.Buffer
	if err := w.Write(&buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	out := buf.Bytes()
	if len(out) < headerSize {
		t.Fatalf("output too short: %d bytes", len(out))
	}
	if string(out[0:4]) != headerMagic {
		t.Errorf("header magic = %q, want %q", out[0:4], headerMagic)
	}
	if string(out[8:10]) != headerMagicClient {
		t.Errorf("header client magic = %q, want %q", out[8:10], headerMagicClient)
	}
	if len(out)%pageSize != 0 {
		t.Errorf("file length %d is not a multiple of the page size", len(out))
	}
}

func TestWriterWithFoldersAndMessages(t *testing.T) {
	w := NewWriter("Test Mailbox")
	inbox := w.AddFolder("Inbox", 0)
	sub := w.AddFolder("Archive", inbox)

	msg := record.Message{
		Subject:         "Hello",
		SenderName:      "Alice",
		SenderEmail:     "alice@example.com",
		BodyText:        "hi there",
		MessageClass:    "IPM.Note",
		DateReceived:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		DateReceivedOK:  true,
		To: []record.Recipient{
			{DisplayName: "Bob", SMTPAddress: "bob@example.com"},
		},
	}
	msgNID, err := w.AddMessage(inbox, msg)
	if err != nil {
		t.Fatalf("AddMessage failed: %v", err)
	}
	if msgNID == 0 {
		t.Fatal("expected a non-zero NID for the added message")
	}

	attMsg := record.Message{
		Subject:        "With attachment",
		BodyText:       "see attached",
		HasAttachments: true,
		Attachments: []record.Attachment{
			{Filename: "a.txt", ContentType: "text/plain", Data: []byte("content")},
		},
	}
	if _, err := w.AddMessage(sub, attMsg); err != nil {
		t.Fatalf("AddMessage with attachment failed: %v", err)
	}

	var buf bytes.Buffer
	if err := w.Write(&buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected non-empty output")
	}
	if buf.Len()%pageSize != 0 {
		t.Errorf("file length %d is not a multiple of the page size", buf.Len())
	}
}

func TestSkipAMapPagesAvoidsFixedAMapPosition(t *testing.T) {
	offset := skipAMapPages(firstAMapOffset, 256)
	if offset == firstAMapOffset {
		t.Error("expected skipAMapPages to move past the AMap page itself")
	}
	if offset < firstAMapOffset+pageSize {
		t.Errorf("offset %d should land after the AMap page at %d", offset, firstAMapOffset+pageSize)
	}
}

func TestAllocatorsProduceDistinctParityBIDs(t *testing.T) {
	w := NewWriter("x")
	leaf := w.allocLeafBID()
	internal := w.allocInternalBID()
	page := w.allocPageBID()

	if leaf%4 != 0 {
		t.Errorf("leaf BID %d should be a multiple of 4", leaf)
	}
	if internal%4 != 2 {
		t.Errorf("internal BID %d should be congruent to 2 mod 4", internal)
	}
	if page%2 == 0 {
		t.Errorf("page BID %d should be odd", page)
	}
}
