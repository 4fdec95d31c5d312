// Wishlane - Social Wishlist and Recommendation Platform
// Copyright 2026 Wishlane Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wishlane/wishlane

package recommend

import (
	"sort"
	"strings"
)

// Score weights. Integer accumulation, no normalization.
const (
	categoryMatchScore = 3
	priceBandScore     = 2
	keywordMatchScore  = 1
	highPriorityBonus  = 1
)

// Rank scores the candidate pool against the profile and returns up to
// limit items ordered by descending score. Candidates whose ID appears in
// excludeItemIDs are skipped. Equal scores preserve pool iteration order
// (the sort is stable), so callers get deterministic results for a
// deterministic pool.
//
// An empty pool yields an empty result, not an error; the caller
// distinguishes that from the insufficient-signal case.
func Rank(profile PreferenceProfile, candidates []CatalogItem, excludeItemIDs map[string]struct{}, limit int) []CatalogItem {
	if limit <= 0 {
		return nil
	}

	scored := make([]ScoredCandidate, 0, len(candidates))
	for _, item := range candidates {
		if _, excluded := excludeItemIDs[item.ID]; excluded {
			continue
		}
		item.Normalize()
		scored = append(scored, ScoredCandidate{
			Item:  item,
			Score: scoreCandidate(profile, item),
		})
	}

	// Stable: pool order is the tie-break.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}

	items := make([]CatalogItem, len(scored))
	for i, sc := range scored {
		items[i] = sc.Item
	}
	return items
}

// scoreCandidate computes the relevance score for one candidate:
//
//   - +3 when the candidate's category is one of the profile's top
//     categories.
//   - +2 when the candidate's price falls inside any profile price band,
//     bounds inclusive. No contribution when the profile has no bands or
//     the candidate has no usable price.
//   - +1 per profile keyword appearing as a case-insensitive substring of
//     the candidate's title and description. Deliberately uncapped: a
//     candidate matching many keywords accumulates many points.
//   - +1 when the owner flagged the item as high priority.
func scoreCandidate(profile PreferenceProfile, item CatalogItem) int {
	score := 0

	for _, cat := range profile.TopCategories {
		if item.Category == cat {
			score += categoryMatchScore
			break
		}
	}

	if p := usablePrice(item.Price); p != nil {
		for _, band := range profile.PriceBands {
			if band.Contains(*p) {
				score += priceBandScore
				break
			}
		}
	}

	if len(profile.TopKeywords) > 0 {
		text := strings.ToLower(item.Title + " " + item.Description)
		for _, kw := range profile.TopKeywords {
			if strings.Contains(text, kw) {
				score += keywordMatchScore
			}
		}
	}

	if item.HighPriority {
		score += highPriorityBonus
	}

	return score
}
