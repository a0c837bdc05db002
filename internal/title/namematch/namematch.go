// Package namematch normalizes and compares recorded party names. It is the
// leaf utility under the chain builder and the satisfaction matcher: pure,
// deterministic, no I/O.
//
// Classification runs an ordered pipeline of independent strategies and
// returns the first confident result: exact set equality, superset/subset
// (party added or removed), Jaccard similarity, then per-token edit distance
// for typo tolerance. Strategies can be reordered or extended without
// touching any caller.
package namematch

import (
	"sort"
	"strings"
)

// Class tags how two party name sets relate.
type Class string

const (
	// Identical: the normalized sets are equal.
	Identical Class = "identical"
	// PartyAdded: the second set strictly contains the first (marriage,
	// co-investor joining).
	PartyAdded Class = "party_added"
	// PartyRemoved: the first set strictly contains the second (divorce,
	// buyout, survivorship).
	PartyRemoved Class = "party_removed"
	// Fuzzy: similar enough to link, with a confidence score.
	Fuzzy Class = "fuzzy"
	// NoMatch: the sets do not plausibly name the same parties.
	NoMatch Class = "no_match"
)

// Result is a pure computed value; it is never persisted.
type Result struct {
	Class Class
	Score float64
}

// Linkable reports whether the result justifies linking two chain periods.
func (r Result) Linkable() bool {
	return r.Class != NoMatch
}

// Confidence scores per strategy. Added/removed parties are a weaker link
// than exact identity; edit-distance matches sit below the satisfaction
// auto-match threshold so typo links always queue for review.
const (
	scoreIdentical    = 1.0
	scoreSubsetChange = 0.9
	scoreEditDistance = 0.65

	jaccardThreshold = 0.75
	editMaxDistance  = 2
)

// aliasMarkers truncate a name: only the primary name before an a/k/a,
// f/k/a, or d/b/a marker is kept.
var aliasMarkers = map[string]bool{
	"AKA": true, "A/K/A": true,
	"FKA": true, "F/K/A": true,
	"DBA": true, "D/B/A": true,
	"NKA": true, "N/K/A": true,
}

// entitySuffixes are legal-entity designators stripped during
// normalization so "ACME HOLDINGS LLC" matches "ACME HOLDINGS INC".
var entitySuffixes = map[string]bool{
	"LLC": true, "INC": true, "CORP": true, "CORPORATION": true,
	"INCORPORATED": true, "TRUST": true, "PA": true, "CO": true,
	"COMPANY": true, "LTD": true, "LP": true, "LLP": true, "NA": true,
}

// noiseWords are descriptive or marital words that vary between recordings
// of the same party.
var noiseWords = map[string]bool{
	"A": true, "AN": true, "THE": true, "AND": true, "OF": true,
	"HUSBAND": true, "WIFE": true, "HIS": true, "HER": true,
	"MARRIED": true, "SINGLE": true, "UNMARRIED": true, "REMARRIED": true,
	"MAN": true, "WOMAN": true, "PERSON": true,
	"WIDOW": true, "WIDOWER": true,
	"ET": true, "UX": true, "AL": true, "ETUX": true, "ETAL": true,
	"AS": true, "TRUSTEE": true, "TRUSTEES": true, "INDIVIDUALLY": true,
	"JOINT": true, "TENANTS": true, "TENANCY": true, "ENTIRETIES": true,
	"SURVIVORSHIP": true, "RIGHT": true, "RIGHTS": true, "WITH": true,
}

// Matcher compares party name sets. The normalization memo is valid for one
// run: normalized forms never change within a run, so no invalidation is
// needed. Matcher is not safe for concurrent use; each property analysis
// gets its own.
type Matcher struct {
	memo map[string][]string
}

// New constructs a Matcher with an empty normalization cache.
func New() *Matcher {
	return &Matcher{memo: make(map[string][]string)}
}

// Normalize converts one raw recorded name into its token form: truncated at
// alias markers, stripped of entity suffixes and noise words, uppercased,
// and split on whitespace. Results are memoized per raw name.
func (m *Matcher) Normalize(name string) []string {
	if cached, ok := m.memo[name]; ok {
		return cached
	}
	tokens := normalize(name)
	m.memo[name] = tokens
	return tokens
}

func normalize(name string) []string {
	upper := strings.ToUpper(name)
	// Commas and periods carry no name information once tokenized.
	upper = strings.NewReplacer(",", " ", ".", " ").Replace(upper)

	var tokens []string
	for _, tok := range strings.Fields(upper) {
		if aliasMarkers[tok] {
			break
		}
		if entitySuffixes[tok] || noiseWords[tok] {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// Set is a normalized token set built from a party name list.
type Set map[string]struct{}

// NormalizeSet builds the token set for a whole party list, the union of
// each name's tokens.
func (m *Matcher) NormalizeSet(names []string) Set {
	set := make(Set)
	for _, name := range names {
		for _, tok := range m.Normalize(name) {
			set[tok] = struct{}{}
		}
	}
	return set
}

// ClassifyNames is the common entry point: normalize both party lists and
// classify the resulting sets.
func (m *Matcher) ClassifyNames(a, b []string) Result {
	return Classify(m.NormalizeSet(a), m.NormalizeSet(b))
}

// Classify compares two normalized token sets. Symmetric under swap for
// Identical; the Jaccard score is commutative.
func Classify(a, b Set) Result {
	if len(a) == 0 || len(b) == 0 {
		return Result{Class: NoMatch}
	}

	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}

	switch {
	case inter == len(a) && inter == len(b):
		return Result{Class: Identical, Score: scoreIdentical}
	case inter == len(a): // b strictly contains a
		return Result{Class: PartyAdded, Score: scoreSubsetChange}
	case inter == len(b): // a strictly contains b
		return Result{Class: PartyRemoved, Score: scoreSubsetChange}
	}

	union := len(a) + len(b) - inter
	jaccard := float64(inter) / float64(union)
	if jaccard >= jaccardThreshold {
		return Result{Class: Fuzzy, Score: jaccard}
	}

	if editDistanceMajority(a, b) {
		return Result{Class: Fuzzy, Score: scoreEditDistance}
	}

	return Result{Class: NoMatch, Score: jaccard}
}

// editDistanceMajority pairs the tokens left unmatched by set intersection
// and reports whether a majority of them are within editMaxDistance of a
// counterpart, i.e. the difference looks like typos rather than different
// parties. Tokens are visited in sorted order so the outcome is
// deterministic and swap-symmetric.
func editDistanceMajority(a, b Set) bool {
	onlyA := sortedDifference(a, b)
	onlyB := sortedDifference(b, a)
	if len(onlyA) == 0 || len(onlyB) == 0 {
		return false
	}

	unmatched := len(onlyA) + len(onlyB)
	used := make([]bool, len(onlyB))
	covered := 0
	for _, ta := range onlyA {
		best, bestDist := -1, editMaxDistance+1
		for j, tb := range onlyB {
			if used[j] {
				continue
			}
			if d := levenshtein(ta, tb); d < bestDist {
				best, bestDist = j, d
			}
		}
		if best >= 0 {
			used[best] = true
			covered += 2 // the pair covers one token from each side
		}
	}
	return covered*2 > unmatched
}

func sortedDifference(a, b Set) []string {
	var out []string
	for tok := range a {
		if _, ok := b[tok]; !ok {
			out = append(out, tok)
		}
	}
	sort.Strings(out)
	return out
}

// levenshtein computes the edit distance between two tokens.
func levenshtein(s1, s2 string) int {
	if s1 == s2 {
		return 0
	}
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	matrix := make([][]int, len(s1)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(s2)+1)
	}
	for i := 0; i <= len(s1); i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len(s2); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(s1); i++ {
		for j := 1; j <= len(s2); j++ {
			cost := 0
			if s1[i-1] != s2[j-1] {
				cost = 1
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}
	return matrix[len(s1)][len(s2)]
}
