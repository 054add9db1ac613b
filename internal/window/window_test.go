package window

import (
	"testing"
	"time"
)

func TestCurrentAlignment(t *testing.T) {
	width := 15 * time.Minute
	w := int64(width / time.Second)

	times := []time.Time{
		time.Unix(1700000000, 0),
		time.Unix(1700000000, 500_000_000),
		time.Unix(1700000899, 0),
		time.Unix(1700000900, 0),
		time.Date(2025, 10, 31, 14, 7, 33, 0, time.UTC),
		time.Date(2025, 10, 31, 14, 7, 33, 0, time.FixedZone("EST", -5*3600)),
	}

	for _, now := range times {
		start := Current(width, now)
		if start%w != 0 {
			t.Errorf("Current(%v) = %d, not aligned to %d", now, start, w)
		}
		unix := now.UTC().Unix()
		if start > unix || unix >= start+w {
			t.Errorf("Current(%v) = %d, but now=%d not in [start, start+%d)", now, start, unix, w)
		}
	}
}

func TestCurrentKnownValue(t *testing.T) {
	now := time.Unix(1700000450, 0)
	if got := Current(15*time.Minute, now); got != 1700000400 {
		t.Fatalf("Current = %d, want 1700000400", got)
	}
}

func TestCurrentTimezoneIndependent(t *testing.T) {
	width := 15 * time.Minute
	utc := time.Date(2025, 10, 31, 14, 7, 33, 0, time.UTC)
	tokyo := utc.In(time.FixedZone("JST", 9*3600))

	if Current(width, utc) != Current(width, tokyo) {
		t.Fatalf("Current differs across zones: %d vs %d", Current(width, utc), Current(width, tokyo))
	}
}

func TestNext(t *testing.T) {
	width := 15 * time.Minute
	now := time.Unix(1700000450, 0)

	if got := Next(width, now); got != 1700001300 {
		t.Fatalf("Next = %d, want 1700001300", got)
	}
	if Next(width, now) != Current(width, now)+900 {
		t.Fatal("Next must be Current + width")
	}
}

func TestUntilNextBounds(t *testing.T) {
	width := 15 * time.Minute

	times := []time.Time{
		time.Unix(1700000001, 0),
		time.Unix(1700000450, 123_000_000),
		time.Unix(1700000899, 999_000_000),
	}
	for _, now := range times {
		d := UntilNext(width, now)
		if d <= 0 || d > width {
			t.Errorf("UntilNext(%v) = %v, want in (0, %v]", now, d, width)
		}
		// Advancing by the remaining duration must land in the next window.
		later := now.Add(d)
		if Current(width, later) != Next(width, now) {
			t.Errorf("now+UntilNext lands in window %d, want %d",
				Current(width, later), Next(width, now))
		}
	}
}
