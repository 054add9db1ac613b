// Package resolver maps opaque market identifiers to currently-active market
// instances. Static identifiers resolve by direct lookup. Periodic
// identifiers name a rotating family whose live instance changes every
// window; they resolve through timestamped slug probes with a listing search
// as fallback.
package resolver

import (
	"strings"
	"unicode"
)

// Kind classifies how an identifier maps to market instances.
type Kind int

const (
	// KindStatic identifiers name exactly one market.
	KindStatic Kind = iota
	// KindPeriodic identifiers name a rotating family of markets.
	KindPeriodic
)

// familyMarkers are the slug infixes that mark rotating market families.
// Matching is case-insensitive substring. Extend this list as new periodic
// families launch.
var familyMarkers = []string{
	"btc-updown-15m",
	"eth-updown-15m",
}

// Identifier is the parsed form of a raw market identifier.
type Identifier struct {
	Raw         string
	Kind        Kind
	BasePattern string // family pattern without the trailing timestamp
	Timestamp   int64  // embedded trailing timestamp, 0 when absent
}

// Classify parses a raw identifier. An identifier is periodic when it
// contains a known family marker; in that case a trailing "-<digits>" suffix
// is split off as the embedded window timestamp. Everything else is static
// and left untouched.
func Classify(raw string) Identifier {
	id := Identifier{Raw: raw, Kind: KindStatic}

	trimmed := strings.TrimSpace(raw)
	lower := strings.ToLower(trimmed)
	for _, marker := range familyMarkers {
		if strings.Contains(lower, marker) {
			id.Kind = KindPeriodic
			break
		}
	}

	if id.Kind == KindPeriodic {
		id.BasePattern, id.Timestamp = splitTrailingTimestamp(trimmed)
	}

	return id
}

// IsSlug reports whether the identifier looks like a URL slug rather than an
// on-chain condition id. Condition ids are 0x-prefixed hex and contain no
// hyphens.
func IsSlug(raw string) bool {
	return strings.Contains(raw, "-") && !strings.HasPrefix(raw, "0x")
}

// splitTrailingTimestamp strips a trailing "-<digits>" segment from a slug,
// returning the remaining base pattern and the parsed timestamp. When the
// final segment is not purely numeric the slug is returned unchanged with a
// zero timestamp.
func splitTrailingTimestamp(slug string) (string, int64) {
	i := strings.LastIndexByte(slug, '-')
	if i < 0 || i == len(slug)-1 {
		return slug, 0
	}

	ts := parseDigits(slug[i+1:])
	if ts == 0 {
		return slug, 0
	}
	return slug[:i], ts
}

// trailingTimestamp extracts the embedded timestamp from a slug without
// modifying it. Slugs with no numeric suffix yield 0.
func trailingTimestamp(slug string) int64 {
	i := strings.LastIndexByte(slug, '-')
	if i < 0 || i == len(slug)-1 {
		return 0
	}
	return parseDigits(slug[i+1:])
}

// parseDigits parses an all-digit string as int64, returning 0 for anything
// else. Timestamps of interest never overflow int64.
func parseDigits(s string) int64 {
	var n int64
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return 0
		}
		n = n*10 + int64(r-'0')
	}
	return n
}
