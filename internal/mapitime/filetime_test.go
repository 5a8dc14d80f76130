package mapitime

import "testing"

func TestRoundTrip(t *testing.T) {
	for _, sec := range []int64{0, 1, 1000000000, 1614124800, 253402300799} {
		want := sec
		ft := FromTime_secondsSinceUnixEpoch(want)
		got := ToTime(ft).Unix()
		if got != want {
			t.Errorf("round trip %d: got %d", want, got)
		}
	}
}

func TestKnownVector(t *testing.T) {
	// 0x01D70A3FFE840000 is 2021-02-24T00:00:00Z in 100ns ticks since
	// 1601-01-01 UTC.
	const ft = 0x01D70A3FFE840000
	got := ToTime(ft)
	want := "2021-02-24"
	if got.Format("2006-01-02") != want {
		t.Errorf("ToTime(%#x) = %v, want date %s", uint64(ft), got, want)
	}
}

func TestZeroIsUnset(t *testing.T) {
	if _, ok := OptionalTime(0); ok {
		t.Errorf("OptionalTime(0) should report unset")
	}
}

// FromTime_secondsSinceUnixEpoch is a test helper building a FILETIME
// from a second-aligned Unix timestamp, avoiding a dependency on the
// local timezone database in tests.
func FromTime_secondsSinceUnixEpoch(sec int64) uint64 {
	return uint64(sec*ticksPerSecond + filetimeEpochOffset)
}
