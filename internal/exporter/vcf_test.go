package exporter_test

import (
	"strings"
	"testing"

	"github.com/exchrecover/edbcore/internal/exporter"
	"github.com/exchrecover/edbcore/internal/record"
)

func TestVCFBasicContact(t *testing.T) {
	msg := record.Message{
		Contact: &record.Contact{
			DisplayName: "Carol Jones",
			Email:       "carol@example.com",
			Phone:       "+1 555 0100",
			Company:     "Acme Corp",
			JobTitle:    "Engineer",
		},
	}
	out := exporter.VCF(msg)

	for _, want := range []string{
		"BEGIN:VCARD",
		"VERSION:3.0",
		"FN:Carol Jones",
		"EMAIL;TYPE=INTERNET:carol@example.com",
		"TEL:+1 555 0100",
		"ORG:Acme Corp",
		"TITLE:Engineer",
		"END:VCARD",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("VCF output missing %q:\n%s", want, out)
		}
	}
}

func TestVCFFallsBackToEmailWhenNameMissing(t *testing.T) {
	msg := record.Message{
		Contact: &record.Contact{Email: "noname@example.com"},
	}
	out := exporter.VCF(msg)
	if !strings.Contains(out, "FN:noname@example.com") {
		t.Errorf("VCF did not fall back to email for FN:\n%s", out)
	}
}
