package rank

import (
	"math"
	"regexp"
	"strings"
)

var (
	reBaseFuel    = regexp.MustCompile(`(?i)\b(?:ev|bev|phev|hev|hybrid|plugin|plug-in|plugin-hybrid|electric)\b`)
	reBaseVariant = regexp.MustCompile(`(?i)\b(?:premium extended range|premiumextendedrange|premiumextended|extended range|extended-range|extendedrange|long range|longrange|two tone|two-tone|twotone|prime|signature|extended|premium|performance|dynamic|deluxe|sport|lr|standard|base|ultimate|plus|pro|elite|comfort|tech|advanced|limited|reguler|reg)\b`)
	reBaseVersion = regexp.MustCompile(`(?i)\b(?:v\d+|mk\d+|gen\d+|g\d+)\b`)
	reBaseWords   = regexp.MustCompile(`(?i)\b(?:reguler|series|type|edition|line|limited|model)\b`)
	reBaseSymbols = regexp.MustCompile(`[/,\-()]`)
)

// ModelBase strips fuel, trim and version tokens from a model name so that
// trims of one model family share a key.
func ModelBase(model string) string {
	s := strings.ToLower(model)
	s = reBaseFuel.ReplaceAllString(s, " ")
	s = reBaseVariant.ReplaceAllString(s, " ")
	s = reBaseVersion.ReplaceAllString(s, " ")
	s = reBaseWords.ReplaceAllString(s, " ")
	s = reBaseSymbols.ReplaceAllString(s, " ")
	s = strings.Join(strings.Fields(s), " ")
	if s != "" {
		return s
	}

	words := strings.Fields(strings.ToLower(model))
	if len(words) > 2 {
		words = words[:2]
	}
	return strings.Join(words, " ")
}

type dedupKey struct {
	model string
	price float64
}

// dedupe keeps the first occurrence of every (normalized model, rounded price)
// pair. Items must already be sorted best first.
func dedupe(items []Candidate) []Candidate {
	seen := make(map[dedupKey]bool, len(items))
	out := items[:0:0]
	for _, c := range items {
		k := dedupKey{model: c.Vehicle.NormalizedModel(), price: math.Round(c.Vehicle.Price)}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, c)
	}
	return out
}

type familyKey struct {
	brand string
	base  string
}

// capTrims keeps at most limit items per (brand, model base). Items must
// already be sorted best first. A non-positive limit disables the cap.
func capTrims(items []Candidate, limit int) []Candidate {
	if limit <= 0 {
		return items
	}
	count := make(map[familyKey]int, len(items))
	out := items[:0:0]
	for _, c := range items {
		k := familyKey{
			brand: strings.ToLower(strings.TrimSpace(c.Vehicle.Brand)),
			base:  ModelBase(c.Vehicle.Model),
		}
		if count[k] >= limit {
			continue
		}
		count[k]++
		out = append(out, c)
	}
	return out
}

// prune applies the trim cap and then drops duplicates. Duplicates count
// towards the cap of their family. Items must already be sorted best first.
func prune(items []Candidate, maxTrims int) []Candidate {
	return dedupe(capTrims(items, maxTrims))
}

// Points maps rank r of n onto 99..1, linearly. A single item gets 99.
func Points(r, n int) int {
	if n <= 1 {
		return 99
	}
	return int(math.Round(99 - 98*float64(r-1)/float64(n-1)))
}
