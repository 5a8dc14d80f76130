package erc

import (
	"regexp"
	"strings"

	"github.com/exchrecover/edbcore/internal/mapiblob"
	"github.com/exchrecover/edbcore/internal/record"
)

// IsContactItem reports whether messageClass names an address-book
// entry.
func IsContactItem(messageClass string) bool {
	return strings.HasPrefix(strings.ToUpper(messageClass), "IPM.CONTACT")
}

var phonePattern = regexp.MustCompile(`[+]?[0-9][0-9 ()\-.]{6,16}[0-9]`)

// ExtractContact populates the supplemented Contact view (§3.1.2) from
// a PropertyBlob. There is no dedicated contact-extraction reference in
// the source corpus, so this reuses C4's sender/email marker scan (the
// same "M"-marker length-prefixed run convention applies to the
// display name and SMTP address fields of a contact row) plus a
// regex-based phone-number fallback, never raising on a miss.
func ExtractContact(blob []byte) *record.Contact {
	c := &record.Contact{}
	if len(blob) == 0 {
		return c
	}

	c.DisplayName = mapiblob.ExtractSender(blob)
	c.Email = mapiblob.ExtractSenderEmail(blob)

	if loc := phonePattern.FindString(string(blob)); loc != "" {
		c.Phone = loc
	}

	return c
}
