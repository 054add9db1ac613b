package resolver

import (
	"reflect"
	"testing"
	"time"
)

func TestCandidatesOrder(t *testing.T) {
	// 1700000000 is itself a window boundary for width 900.
	now := time.Unix(1700000000, 0)

	got := Candidates("eth-updown-15m", 15*time.Minute, now)
	want := []string{
		"eth-updown-15m-1700000000",
		"eth-updown-15m-1699999100",
		"eth-updown-15m-1699998200",
		"eth-updown-15m-1700000900",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Candidates = %v, want %v", got, want)
	}
}

func TestCandidatesMidWindow(t *testing.T) {
	// Any time inside the window yields the same candidate set.
	a := Candidates("btc-updown-15m", 15*time.Minute, time.Unix(1700000000, 0))
	b := Candidates("btc-updown-15m", 15*time.Minute, time.Unix(1700000899, 0))
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("candidates differ within one window: %v vs %v", a, b)
	}
}
