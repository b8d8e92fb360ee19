package need

import (
	"fmt"
	"strings"
)

// Need is one of the six usage intents a buyer can select.
type Need string

const (
	LongTrip   Need = "long_trip"
	Family     Need = "family"
	Fun        Need = "fun"
	City       Need = "city"
	Commercial Need = "commercial"
	Offroad    Need = "offroad"
)

// All lists the needs in their canonical order. Centroid labelling ties resolve in this order.
var All = []Need{LongTrip, Family, Fun, City, Commercial, Offroad}

// MaxNeeds is the largest effective need set.
const MaxNeeds = 3

func (n Need) IsValid() bool {
	switch n {
	case LongTrip, Family, Fun, City, Commercial, Offroad:
		return true
	}
	return false
}

func (n Need) String() string {
	return string(n)
}

// exclusive pairs: the need listed first in the input wins
var exclusive = [][2]Need{
	{Fun, Offroad},
	{Fun, Commercial},
	{LongTrip, City},
}

var aliases = map[string]Need{
	"long_trip":        LongTrip,
	"long trip":        LongTrip,
	"longtrip":         LongTrip,
	"trip":             LongTrip,
	"touring":          LongTrip,
	"perjalanan_jauh":  LongTrip,
	"perjalanan jauh":  LongTrip,
	"family":           Family,
	"keluarga":         Family,
	"fun":              Fun,
	"fun to drive":     Fun,
	"fun-to-drive":     Fun,
	"fun_to_drive":     Fun,
	"sporty":           Fun,
	"sport":            Fun,
	"city":             City,
	"urban":            City,
	"short trip":       City,
	"perkotaan":        City,
	"dalam kota":       City,
	"commercial":       Commercial,
	"niaga":            Commercial,
	"usaha":            Commercial,
	"business":         Commercial,
	"offroad":          Offroad,
	"off-road":         Offroad,
	"off road":         Offroad,
	"4x4":              Offroad,
	"adventure":        Offroad,
}

// Parse maps a free-text need token to its canonical need.
func Parse(token string) (Need, error) {
	key := strings.Join(strings.Fields(strings.ToLower(token)), " ")
	if n, ok := aliases[key]; ok {
		return n, nil
	}
	return "", fmt.Errorf("unknown need '%s'", token)
}

// Set is an ordered, deduplicated list of at most MaxNeeds needs with no exclusive pair.
type Set []Need

// NewSet builds an effective need set from requested needs. Duplicates and
// invalid values are dropped, the later member of an exclusive pair is
// discarded, and the result is truncated to MaxNeeds.
func NewSet(requested ...Need) Set {
	set := make(Set, 0, MaxNeeds)
	seen := make(map[Need]bool, len(requested))

	for _, n := range requested {
		if !n.IsValid() || seen[n] {
			continue
		}
		seen[n] = true
		if set.conflicts(n) {
			continue
		}
		set = append(set, n)
		if len(set) == MaxNeeds {
			break
		}
	}
	return set
}

// ParseSet parses tokens and builds the effective set. Unknown tokens are returned as an error
// together with the set built from the tokens that did parse.
func ParseSet(tokens []string) (Set, error) {
	var (
		parsed  []Need
		unknown []string
	)
	for _, t := range tokens {
		n, err := Parse(t)
		if err != nil {
			unknown = append(unknown, t)
			continue
		}
		parsed = append(parsed, n)
	}

	set := NewSet(parsed...)
	if len(unknown) > 0 {
		return set, fmt.Errorf("unknown needs: %s", strings.Join(unknown, ", "))
	}
	return set, nil
}

func (s Set) conflicts(n Need) bool {
	for _, pair := range exclusive {
		if (n == pair[0] && s.Has(pair[1])) || (n == pair[1] && s.Has(pair[0])) {
			return true
		}
	}
	return false
}

// Has reports whether n is part of the set.
func (s Set) Has(n Need) bool {
	for _, m := range s {
		if m == n {
			return true
		}
	}
	return false
}

func (s Set) Strings() []string {
	out := make([]string, len(s))
	for i, n := range s {
		out[i] = string(n)
	}
	return out
}

var schedule = [][]float64{
	{1.0},
	{0.65, 0.35},
	{0.55, 0.30, 0.15},
}

// Weights returns the blending weights for a set of size n, renormalized to sum to one.
func Weights(n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n > len(schedule) {
		n = len(schedule)
	}

	w := append([]float64(nil), schedule[n-1]...)
	var total float64
	for _, x := range w {
		total += x
	}
	for i := range w {
		w[i] /= total
	}
	return w
}
