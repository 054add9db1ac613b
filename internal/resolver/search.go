package resolver

import (
	"sort"
	"strings"

	"github.com/alanyoungcy/framecast/internal/domain"
)

// Search filters a market listing down to instances of the given family and
// returns the active ones, newest window first. Matching is case-insensitive
// on the slug: a market matches when its slug contains or starts with the
// base pattern. Ranking uses the trailing slug timestamp; slugs without one
// rank last but are kept as matches.
func Search(basePattern string, listing []domain.Market) []domain.Market {
	pattern := strings.ToLower(basePattern)

	type ranked struct {
		market domain.Market
		ts     int64
	}

	var matches []ranked
	for _, m := range listing {
		slug := strings.ToLower(m.Slug)
		if slug == "" {
			continue
		}
		if strings.Contains(slug, pattern) || strings.HasPrefix(slug, pattern) {
			matches = append(matches, ranked{market: m, ts: trailingTimestamp(slug)})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].ts > matches[j].ts
	})

	var active []domain.Market
	for _, r := range matches {
		if r.market.IsActive() {
			active = append(active, r.market)
		}
	}
	return active
}
