// Package similarity ranks wines by shared characteristics for "find
// similar" recommendations.
package similarity

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/hyperengineering/cellar/internal/wine"
)

// DefaultLimit is the number of matches returned when none is requested.
const DefaultLimit = 6

// Attribute weights.
const (
	typeWeight        = 25
	bodyWeight        = 15
	tanninWeight      = 10
	acidityWeight     = 10
	countryWeight     = 8
	regionWeight      = 15
	grapeWeight       = 12
	maxGrapeOverlap   = 2
	oakWeight         = 5
	flavorBase        = 5
	flavorPerKeyword  = 2
	minSharedKeywords = 2
	maxFlavorKeywords = 4
)

// Match is one scored candidate. Reasons are in evaluation order.
type Match struct {
	Wine         wine.Wine `json:"wine"`
	Score        int       `json:"score"`
	MatchReasons []string  `json:"matchReasons"`
}

// Vocabulary is the fixed set of tasting descriptors compared between notes.
var Vocabulary = []string{
	"cherry", "plum", "blackberry", "raspberry", "strawberry", "blueberry",
	"apple", "pear", "peach", "apricot", "citrus", "lemon", "grapefruit", "orange",
	"vanilla", "oak", "spice", "pepper", "cinnamon", "clove",
	"chocolate", "coffee", "tobacco", "leather", "earth", "mineral",
	"floral", "rose", "violet", "honey", "butter", "tar", "truffle",
	"herbs", "mint", "eucalyptus",
}

var grapeSeparator = regexp.MustCompile(`[,;]`)

// Keywords returns the vocabulary terms present in notes, in vocabulary
// order. Presence is a case-insensitive substring test.
func Keywords(notes string) []string {
	lower := strings.ToLower(notes)
	var found []string
	for _, k := range Vocabulary {
		if strings.Contains(lower, k) {
			found = append(found, k)
		}
	}
	return found
}

// Score compares candidate against target. Absent attributes contribute
// nothing; the score is never negative.
func Score(target, candidate *wine.Wine) (int, []string) {
	score := 0
	reasons := []string{}
	add := func(points int, reason string) {
		score += points
		if reason != "" {
			reasons = append(reasons, reason)
		}
	}

	if candidate.WineType != "" && candidate.WineType == target.WineType {
		add(typeWeight, fmt.Sprintf("Same type (%s)", candidate.WineType))
	}
	if candidate.Body != "" && candidate.Body == target.Body {
		add(bodyWeight, fmt.Sprintf("Same body (%s)", candidate.Body))
	}
	if candidate.TanninLevel != "" && candidate.TanninLevel != "N/A" && candidate.TanninLevel == target.TanninLevel {
		add(tanninWeight, fmt.Sprintf("Similar tannins (%s)", candidate.TanninLevel))
	}
	if candidate.AcidityLevel != "" && candidate.AcidityLevel == target.AcidityLevel {
		add(acidityWeight, fmt.Sprintf("Similar acidity (%s)", candidate.AcidityLevel))
	}
	if candidate.Country == target.Country {
		add(countryWeight, fmt.Sprintf("Same country (%s)", candidate.Country))
	}
	if candidate.Region != "" && candidate.Region == target.Region {
		add(regionWeight, fmt.Sprintf("Same region (%s)", candidate.Region))
	}
	if n := grapeOverlap(target.GrapeVarieties, candidate.GrapeVarieties); n > 0 {
		add(grapeWeight*min(n, maxGrapeOverlap), "Shared grapes")
	}
	if candidate.OakTreatment != "" && candidate.OakTreatment != "Unknown" && candidate.OakTreatment == target.OakTreatment {
		add(oakWeight, "")
	}
	if n := sharedKeywords(target.TastingNotes, candidate.TastingNotes); n >= minSharedKeywords {
		add(flavorBase+flavorPerKeyword*min(n, maxFlavorKeywords), "Similar flavors")
	}

	return score, reasons
}

// grapeOverlap counts target grapes that contain, or are contained in, at
// least one candidate grape.
func grapeOverlap(target, candidate string) int {
	if target == "" || candidate == "" {
		return 0
	}
	theirs := splitGrapes(candidate)
	n := 0
	for _, g := range splitGrapes(target) {
		for _, c := range theirs {
			if strings.Contains(c, g) || strings.Contains(g, c) {
				n++
				break
			}
		}
	}
	return n
}

// splitGrapes lowercases and trims each entry. Blank entries are dropped, as
// the empty string would otherwise contain-match every grape.
func splitGrapes(s string) []string {
	var out []string
	for _, g := range grapeSeparator.Split(strings.ToLower(s), -1) {
		if g = strings.TrimSpace(g); g != "" {
			out = append(out, g)
		}
	}
	return out
}

func sharedKeywords(target, candidate string) int {
	if target == "" || candidate == "" {
		return 0
	}
	theirs := Keywords(candidate)
	n := 0
	for _, k := range Keywords(target) {
		if slices.Contains(theirs, k) {
			n++
		}
	}
	return n
}

// Rank scores every wine in pool other than target, keeps positive scores
// and returns them best first. Equal scores keep pool order. A negative limit
// returns every match.
func Rank(target *wine.Wine, pool []wine.Wine, limit int) []Match {
	matches := make([]Match, 0)
	for i := range pool {
		if pool[i].ID == target.ID {
			continue
		}
		score, reasons := Score(target, &pool[i])
		if score > 0 {
			matches = append(matches, Match{Wine: pool[i], Score: score, MatchReasons: reasons})
		}
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		return b.Score - a.Score
	})

	if limit >= 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
