package exporter_test

import (
	"strings"
	"testing"

	"github.com/exchrecover/edbcore/internal/exporter"
	"github.com/exchrecover/edbcore/internal/record"
)

func TestEMLPlainText(t *testing.T) {
	msg := record.Message{
		Subject:     "Hello",
		SenderName:  "Alice",
		SenderEmail: "alice@example.com",
		To:          []record.Recipient{{DisplayName: "Bob", SMTPAddress: "bob@example.com"}},
		BodyText:    "hi there",
	}
	out := string(exporter.EML(msg))

	for _, want := range []string{
		"From: Alice <alice@example.com>",
		"To: Bob <bob@example.com>",
		"Subject: Hello",
		"Content-Type: text/plain",
		"hi there",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("EML output missing %q:\n%s", want, out)
		}
	}
}

func TestEMLWithAttachmentIsMultipartMixed(t *testing.T) {
	msg := record.Message{
		Subject:         "Files",
		SenderEmail:     "a@example.com",
		BodyText:        "see attached",
		HasAttachments:  true,
		Attachments: []record.Attachment{
			{Filename: "a.txt", ContentType: "text/plain", Data: []byte("content")},
		},
	}
	out := string(exporter.EML(msg))

	if !strings.Contains(out, "multipart/mixed") {
		t.Error("expected multipart/mixed envelope for a message with attachments")
	}
	if !strings.Contains(out, `filename="a.txt"`) {
		t.Error("expected attachment filename in Content-Disposition")
	}
	if !strings.Contains(out, "Content-Transfer-Encoding: base64") {
		t.Error("expected base64 transfer encoding for attachment")
	}
}

func TestEMLBothBodiesAreAlternative(t *testing.T) {
	msg := record.Message{
		Subject:  "Both",
		BodyText: "plain body",
		BodyHTML: "<p>html body</p>",
	}
	out := string(exporter.EML(msg))
	if !strings.Contains(out, "multipart/alternative") {
		t.Error("expected multipart/alternative when both bodies are present")
	}
}
