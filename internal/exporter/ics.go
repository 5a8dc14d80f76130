package exporter

import (
	"strconv"
	"strings"
	"time"

	"github.com/exchrecover/edbcore/internal/record"
)

// ICS renders msg's calendar view as a single-event RFC 5545
// iCalendar document. msg.Event must be non-nil.
func ICS(msg record.Message) string {
	ev := msg.Event
	var lines []string

	lines = append(lines,
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//edbrecover//EN",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"BEGIN:VEVENT",
		"UID:"+uidFor(msg),
		"DTSTAMP:"+formatICSTime(time.Now().UTC()),
	)

	if ev.StartOK {
		lines = append(lines, icsDateLine("DTSTART", ev.Start, ev.IsAllDay))
	}
	if ev.EndOK {
		lines = append(lines, icsDateLine("DTEND", ev.End, ev.IsAllDay))
	}
	if msg.Subject != "" {
		lines = append(lines, "SUMMARY:"+escapeICSText(msg.Subject))
	}
	if msg.BodyText != "" {
		lines = append(lines, "DESCRIPTION:"+escapeICSText(msg.BodyText))
	}
	if ev.Location != "" {
		lines = append(lines, "LOCATION:"+escapeICSText(ev.Location))
	}

	if ev.OrganizerEmail != "" {
		if ev.OrganizerName != "" {
			lines = append(lines, "ORGANIZER;CN="+escapeICSText(ev.OrganizerName)+":mailto:"+ev.OrganizerEmail)
		} else {
			lines = append(lines, "ORGANIZER:mailto:"+ev.OrganizerEmail)
		}
	}

	for _, at := range ev.Attendees {
		if at.Email == "" {
			continue
		}
		role := "OPT-PARTICIPANT"
		if at.Required {
			role = "REQ-PARTICIPANT"
		}
		parts := []string{"ATTENDEE"}
		if at.DisplayName != "" {
			parts = append(parts, "CN="+escapeICSText(at.DisplayName))
		}
		parts = append(parts, "ROLE="+role, "RSVP=TRUE:mailto:"+at.Email)
		lines = append(lines, strings.Join(parts, ";"))
	}

	if ev.BusyStatus == record.BusyFree {
		lines = append(lines, "TRANSP:TRANSPARENT")
	} else {
		lines = append(lines, "TRANSP:OPAQUE")
	}

	// Event carries only IsRecurring, not the original RRULE text, so a
	// recurring event is marked X-MS-RECURRING rather than guessing a rule.
	if ev.IsRecurring {
		lines = append(lines, "X-MS-RECURRING:TRUE")
	}

	if ev.ReminderOK && ev.ReminderMinutes > 0 {
		lines = append(lines,
			"BEGIN:VALARM",
			"ACTION:DISPLAY",
			"TRIGGER:-PT"+strconv.Itoa(ev.ReminderMinutes)+"M",
			"DESCRIPTION:Reminder: "+escapeICSText(msg.Subject),
			"END:VALARM",
		)
	}

	lines = append(lines, "END:VEVENT", "END:VCALENDAR")

	var out strings.Builder
	for _, l := range lines {
		out.WriteString(foldLine(l))
		out.WriteString("\r\n")
	}
	return out.String()
}

func uidFor(msg record.Message) string {
	if msg.MessageID != "" {
		return strings.Trim(msg.MessageID, "<>")
	}
	return "edbrecover-" + strconv.FormatInt(msg.RecordIndex, 10) + "@local"
}

func icsDateLine(prop string, t time.Time, allDay bool) string {
	if allDay {
		return prop + ";VALUE=DATE:" + t.Format("20060102")
	}
	return prop + ":" + formatICSTime(t)
}

func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeICSText escapes text per RFC 5545 §3.3.11.
func escapeICSText(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, "\r\n", "\\n")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "")
	return s
}

// foldLine wraps a logical line at 75 octets per RFC 5545 §3.1,
// continuation lines beginning with a single space.
func foldLine(s string) string {
	if len(s) <= 75 {
		return s
	}
	var out strings.Builder
	for len(s) > 75 {
		out.WriteString(s[:75])
		out.WriteString("\r\n ")
		s = s[75:]
	}
	out.WriteString(s)
	return out.String()
}
