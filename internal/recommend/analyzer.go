// Wishlane - Social Wishlist and Recommendation Platform
// Copyright 2026 Wishlane Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wishlane/wishlane

package recommend

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

// Analyzer reduces a viewer's recent view history to a compact preference
// profile. It is a pure computation over its inputs: no I/O, no clock, no
// randomness, which keeps it trivially unit-testable.
type Analyzer struct {
	topCategories  int
	topKeywords    int
	minTokenLength int
}

// NewAnalyzer creates an analyzer with the profile size limits from cfg.
func NewAnalyzer(cfg *Config) *Analyzer {
	return &Analyzer{
		topCategories:  cfg.TopCategories,
		topKeywords:    cfg.TopKeywords,
		minTokenLength: cfg.MinTokenLength,
	}
}

// tally accumulates occurrence counts while remembering the order in which
// keys were first seen, so ties can be broken deterministically.
type tally struct {
	counts    map[string]int
	firstSeen map[string]int
	next      int
}

func newTally() *tally {
	return &tally{
		counts:    make(map[string]int),
		firstSeen: make(map[string]int),
	}
}

func (t *tally) add(key string) {
	if _, ok := t.counts[key]; !ok {
		t.firstSeen[key] = t.next
		t.next++
	}
	t.counts[key]++
}

// top returns up to n keys ordered by descending count, ties broken by
// first-seen order.
func (t *tally) top(n int) []string {
	keys := make([]string, 0, len(t.counts))
	for k := range t.counts {
		keys = append(keys, k)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		ci, cj := t.counts[keys[i]], t.counts[keys[j]]
		if ci != cj {
			return ci > cj
		}
		return t.firstSeen[keys[i]] < t.firstSeen[keys[j]]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// Analyze builds a preference profile from a view history ordered most
// recent first. interestTags are optional long-lived tags from the profile
// store; each tag contributes one extra occurrence to the category and
// keyword tallies, behind all behavioral signal in tie-break order.
//
// Categories with zero signal are omitted entirely: there is no smoothing or
// fallback. A history without usable prices produces no price bands, which
// removes price from scoring downstream.
func (a *Analyzer) Analyze(history []CatalogItem, interestTags []string) PreferenceProfile {
	categories := newTally()
	keywords := newTally()
	var prices []float64

	for _, item := range history {
		if item.Category != "" {
			categories.add(item.Category)
		}
		for _, tok := range a.tokenize(item.Title + " " + item.Description) {
			keywords.add(tok)
		}
		if p := usablePrice(item.Price); p != nil {
			prices = append(prices, *p)
		}
	}

	for _, tag := range interestTags {
		if tag == "" {
			continue
		}
		categories.add(tag)
		for _, tok := range a.tokenize(tag) {
			keywords.add(tok)
		}
	}

	return PreferenceProfile{
		TopCategories: categories.top(a.topCategories),
		PriceBands:    deriveBands(prices),
		TopKeywords:   keywords.top(a.topKeywords),
	}
}

// tokenize splits text on whitespace, lower-cases it and drops tokens
// shorter than the configured minimum rune length.
func (a *Analyzer) tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := fields[:0]
	for _, tok := range fields {
		if utf8.RuneCountInString(tok) >= a.minTokenLength {
			out = append(out, tok)
		}
	}
	return out
}

// deriveBands computes two overlapping price bands from the observed prices:
// [min*0.8, median*1.2] and [median*0.8, max*1.2]. The median is the
// lower-middle element for even counts. An empty input yields no bands.
func deriveBands(prices []float64) []PriceBand {
	if len(prices) == 0 {
		return nil
	}
	sorted := make([]float64, len(prices))
	copy(sorted, prices)
	sort.Float64s(sorted)

	min := sorted[0]
	max := sorted[len(sorted)-1]
	median := sorted[(len(sorted)-1)/2]

	return []PriceBand{
		{Min: min * 0.8, Max: median * 1.2},
		{Min: median * 0.8, Max: max * 1.2},
	}
}

// usablePrice returns the price if it is a usable non-negative finite
// number, nil otherwise. Malformed values degrade to "no price signal"
// rather than failing the pipeline.
func usablePrice(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return p
}
