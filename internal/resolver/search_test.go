package resolver

import (
	"testing"

	"github.com/alanyoungcy/framecast/internal/domain"
)

func mk(slug string, active, closed bool) domain.Market {
	return domain.Market{
		ConditionID: "0x" + slug,
		Slug:        slug,
		Active:      active,
		Closed:      closed,
	}
}

func TestSearchNewestActiveFirst(t *testing.T) {
	listing := []domain.Market{
		mk("btc-updown-15m-1700000000", true, false),
		mk("btc-updown-15m-1700000900", true, false),
		mk("btc-updown-15m-1699999100", false, true),
		mk("unrelated-market", true, false),
	}

	got := Search("btc-updown-15m", listing)
	if len(got) != 2 {
		t.Fatalf("Search returned %d markets, want 2", len(got))
	}
	if got[0].Slug != "btc-updown-15m-1700000900" {
		t.Errorf("first result = %q, want newest window", got[0].Slug)
	}
	if got[1].Slug != "btc-updown-15m-1700000000" {
		t.Errorf("second result = %q, want older window", got[1].Slug)
	}
}

func TestSearchCaseInsensitive(t *testing.T) {
	listing := []domain.Market{
		mk("BTC-UpDown-15m-1700000000", true, false),
	}
	if got := Search("btc-updown-15m", listing); len(got) != 1 {
		t.Fatalf("case-insensitive match failed, got %d results", len(got))
	}
}

func TestSearchExcludesInactive(t *testing.T) {
	listing := []domain.Market{
		mk("eth-updown-15m-1700000000", false, true),
		mk("eth-updown-15m-1700000900", true, true), // closed beats active flag
		mk("eth-updown-15m-1700001800", false, false),
	}
	if got := Search("eth-updown-15m", listing); len(got) != 0 {
		t.Fatalf("Search returned %d markets from an all-inactive listing, want 0", len(got))
	}
}

func TestSearchUntimestampedMatchesRankLast(t *testing.T) {
	listing := []domain.Market{
		mk("eth-updown-15m", true, false),
		mk("eth-updown-15m-1700000000", true, false),
	}
	got := Search("eth-updown-15m", listing)
	if len(got) != 2 {
		t.Fatalf("Search returned %d markets, want 2", len(got))
	}
	if got[0].Slug != "eth-updown-15m-1700000000" {
		t.Errorf("timestamped slug should rank first, got %q", got[0].Slug)
	}
}

func TestSearchEmptySlugSkipped(t *testing.T) {
	listing := []domain.Market{
		{ConditionID: "0xabc", Active: true},
	}
	if got := Search("btc-updown-15m", listing); len(got) != 0 {
		t.Fatal("market with empty slug must not match")
	}
}
