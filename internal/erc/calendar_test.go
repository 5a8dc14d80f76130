package erc

import (
	"testing"
	"time"
)

func TestIsCalendarItem(t *testing.T) {
	cases := map[string]bool{
		"IPM.Appointment":                   true,
		"IPM.Schedule.Meeting.Request":      true,
		"ipm.appointment.recurring":         true,
		"IPM.Note":                          false,
		"":                                  false,
	}
	for class, want := range cases {
		if got := IsCalendarItem(class); got != want {
			t.Errorf("IsCalendarItem(%q) = %v, want %v", class, got, want)
		}
	}
}

func TestExtractEventFallsBackToDateSent(t *testing.T) {
	sent := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ev := ExtractEvent(nil, sent, true, "Owner Name", "owner@example.com")

	if !ev.StartOK || !ev.Start.Equal(sent) {
		t.Errorf("Start = %v (ok=%v), want %v", ev.Start, ev.StartOK, sent)
	}
	if !ev.EndOK || !ev.End.Equal(sent.Add(time.Hour)) {
		t.Errorf("End = %v (ok=%v), want %v", ev.End, ev.EndOK, sent.Add(time.Hour))
	}
	if ev.OrganizerName != "Owner Name" {
		t.Errorf("OrganizerName = %q, want Owner Name", ev.OrganizerName)
	}
}

func TestExtractEventLocation(t *testing.T) {
	blob := []byte("junk Location: Room 204 more junk\x00trailing")
	ev := ExtractEvent(blob, time.Time{}, false, "", "")
	if ev.Location == "" {
		t.Errorf("Location is empty, want a non-empty extracted string")
	}
}

func TestExtractEventNeverPanics(t *testing.T) {
	inputs := [][]byte{nil, {}, {0x00}, make([]byte, 50)}
	for _, in := range inputs {
		_ = ExtractEvent(in, time.Time{}, false, "", "")
	}
}
