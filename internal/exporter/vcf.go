package exporter

import (
	"strings"

	"github.com/exchrecover/edbcore/internal/record"
)

// VCF renders msg's contact view as a single vCard 3.0 card. msg.Contact
// must be non-nil.
func VCF(msg record.Message) string {
	c := msg.Contact
	var lines []string

	lines = append(lines, "BEGIN:VCARD", "VERSION:3.0")

	fn := c.DisplayName
	if fn == "" {
		fn = c.Email
	}
	if fn == "" {
		fn = "(No Name)"
	}
	lines = append(lines, "FN:"+escapeVCardText(fn))
	lines = append(lines, "N:"+escapeVCardText(fn)+";;;;")

	if c.Email != "" {
		lines = append(lines, "EMAIL;TYPE=INTERNET:"+escapeVCardText(c.Email))
	}
	if c.Phone != "" {
		lines = append(lines, "TEL:"+escapeVCardText(c.Phone))
	}
	if c.Company != "" {
		lines = append(lines, "ORG:"+escapeVCardText(c.Company))
	}
	if c.JobTitle != "" {
		lines = append(lines, "TITLE:"+escapeVCardText(c.JobTitle))
	}

	lines = append(lines, "END:VCARD")

	var out strings.Builder
	for _, l := range lines {
		out.WriteString(foldLine(l))
		out.WriteString("\r\n")
	}
	return out.String()
}

// escapeVCardText escapes text per vCard 3.0 (RFC 2426 §5.8.4):
// backslash, semicolon and comma are backslash-escaped and LF becomes
// \n. CR is left as it is.
func escapeVCardText(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
