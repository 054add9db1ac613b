package resolver

import "testing"

func TestClassifyPeriodic(t *testing.T) {
	tests := []struct {
		raw  string
		base string
		ts   int64
	}{
		{"btc-updown-15m-1761921000", "btc-updown-15m", 1761921000},
		{"eth-updown-15m-1700000400", "eth-updown-15m", 1700000400},
		{"btc-updown-15m", "btc-updown-15m", 0},
		{"ETH-UPDOWN-15M-1700000400", "ETH-UPDOWN-15M", 1700000400},
	}

	for _, tc := range tests {
		id := Classify(tc.raw)
		if id.Kind != KindPeriodic {
			t.Errorf("Classify(%q).Kind = static, want periodic", tc.raw)
			continue
		}
		if id.BasePattern != tc.base {
			t.Errorf("Classify(%q).BasePattern = %q, want %q", tc.raw, id.BasePattern, tc.base)
		}
		if id.Timestamp != tc.ts {
			t.Errorf("Classify(%q).Timestamp = %d, want %d", tc.raw, id.Timestamp, tc.ts)
		}
	}
}

func TestClassifyStatic(t *testing.T) {
	statics := []string{
		"will-x-happen-2025",
		"0x157ebf10b47ebeedd56e1b4e3fcab375b62ba7bb6a1a1a4e132ee341a4a1d22f",
		"presidential-election-winner",
		"some-question-1761921000", // numeric suffix alone does not make it periodic
	}

	for _, raw := range statics {
		id := Classify(raw)
		if id.Kind != KindStatic {
			t.Errorf("Classify(%q).Kind = periodic, want static", raw)
		}
		if id.BasePattern != "" || id.Timestamp != 0 {
			t.Errorf("Classify(%q) parsed family fields for a static identifier", raw)
		}
	}
}

func TestIsSlug(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"btc-updown-15m-1761921000", true},
		{"will-x-happen", true},
		{"0x157ebf10b47ebeedd56e1b4e3fcab375b62ba7bb", false},
		{"123456789", false},
	}
	for _, tc := range tests {
		if got := IsSlug(tc.raw); got != tc.want {
			t.Errorf("IsSlug(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestTrailingTimestamp(t *testing.T) {
	tests := []struct {
		slug string
		want int64
	}{
		{"btc-updown-15m-1761921000", 1761921000},
		{"btc-updown-15m", 0},
		{"btc-updown-15m-", 0},
		{"plain", 0},
	}
	for _, tc := range tests {
		if got := trailingTimestamp(tc.slug); got != tc.want {
			t.Errorf("trailingTimestamp(%q) = %d, want %d", tc.slug, got, tc.want)
		}
	}
}
