package erc

import (
	"bytes"
	"regexp"
	"strings"
	"time"

	"github.com/exchrecover/edbcore/internal/record"
)

// calendarMessageClasses lists the message-class prefixes that mark a
// row as a calendar item (case-insensitive prefix match).
var calendarMessageClasses = []string{
	"IPM.Appointment",
	"IPM.Schedule.Meeting.",
}

// IsCalendarItem reports whether messageClass names a calendar item.
func IsCalendarItem(messageClass string) bool {
	if messageClass == "" {
		return false
	}
	upper := strings.ToUpper(messageClass)
	for _, pattern := range calendarMessageClasses {
		if strings.HasPrefix(upper, strings.ToUpper(pattern)) {
			return true
		}
	}
	return false
}

var emailPattern = regexp.MustCompile(`[\w.\-]+@[\w.\-]+\.\w+`)

// ExtractEvent populates the supplemented Event view (§3.1.1) from a
// PropertyBlob. Only the location and attendee email addresses are
// scanned from the blob; start and end are not read from it: when
// dateSentOK is set, Start is DateSent and End one hour later. The
// organizer is the mailbox owner when one is given. It never fails.
func ExtractEvent(blob []byte, dateSent time.Time, dateSentOK bool, mailboxOwner, mailboxEmail string) *record.Event {
	ev := &record.Event{BusyStatus: record.BusyBusy}

	ev.Location = extractLocation(blob)

	if len(blob) >= 10 {
		for _, email := range findEmails(blob, 10) {
			if email == mailboxEmail {
				continue
			}
			ev.Attendees = append(ev.Attendees, record.Attendee{Email: email, Required: true})
		}
	}

	if !ev.StartOK && dateSentOK {
		ev.Start = dateSent
		ev.StartOK = true
		ev.End = dateSent.Add(time.Hour)
		ev.EndOK = true
	}

	if ev.OrganizerName == "" && mailboxOwner != "" {
		ev.OrganizerName = mailboxOwner
		ev.OrganizerEmail = mailboxEmail
	}

	return ev
}

// extractLocation scans blob for a "Location" marker (any casing) and
// reads the printable run that follows it, mirroring the reference
// extractor's marker-plus-printable-scan approach.
func extractLocation(blob []byte) string {
	for _, marker := range [][]byte{[]byte("Location"), []byte("LOCATION"), []byte("location")} {
		pos := bytes.Index(blob, marker)
		if pos < 0 {
			continue
		}
		start := pos + len(marker)
		end := start + 200
		if end > len(blob) {
			end = len(blob)
		}
		if start >= end {
			continue
		}
		if text := extractPrintableRun(blob[start:end], 100); text != "" {
			return text
		}
	}
	return ""
}

// extractPrintableRun collects bytes in [0x20,0x7F) up to the first NUL
// terminator or maxLen, matching the reference's null-terminated
// printable-text scan.
func extractPrintableRun(data []byte, maxLen int) string {
	var out []byte
	for _, b := range data {
		if b >= 32 && b < 127 {
			out = append(out, b)
			continue
		}
		if len(out) > 0 && b == 0 {
			break
		}
	}
	text := strings.TrimSpace(string(out))
	if len(text) > maxLen {
		text = text[:maxLen]
	}
	return text
}

func findEmails(blob []byte, limit int) []string {
	text := string(bytes.ToValidUTF8(blob, []byte{}))
	matches := emailPattern.FindAllString(text, limit)
	return matches
}
