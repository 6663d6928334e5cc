// Package suggest ranks client and product names against partial, possibly
// misspelled input for search-as-you-type.
package suggest

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	DefaultMinQueryLength = 2
	DefaultThreshold      = 0.4
	DefaultLimit          = 5

	// substringScore ranks a mid-word hit below any prefix hit.
	substringScore = 0.1
)

// Candidate is anything with an id and a display name.
type Candidate struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Match is a candidate plus its distance from the query: 0 is perfect, 1 unrelated.
type Match struct {
	Item  Candidate `json:"item"`
	Score float64   `json:"score"`
}

// Options tune how loose matching is.
type Options struct {
	MinQueryLength int
	Threshold      float64
	Limit          int
}

func DefaultOptions() Options {
	return Options{
		MinQueryLength: DefaultMinQueryLength,
		Threshold:      DefaultThreshold,
		Limit:          DefaultLimit,
	}
}

func (o Options) normalized() Options {
	def := DefaultOptions()
	if o.MinQueryLength <= 0 {
		o.MinQueryLength = def.MinQueryLength
	}
	if o.Threshold <= 0 || o.Threshold > 1 {
		o.Threshold = def.Threshold
	}
	if o.Limit <= 0 {
		o.Limit = def.Limit
	}
	return o
}

// Suggest ranks candidates with the default options.
func Suggest(query string, candidates []Candidate) []Match {
	return DefaultOptions().Suggest(query, candidates)
}

// Suggest returns at most Limit matches ordered by score, ties kept in input order.
// Queries shorter than MinQueryLength runes yield an empty slice.
func (o Options) Suggest(query string, candidates []Candidate) []Match {
	o = o.normalized()
	q := fold(query)
	if utf8.RuneCountInString(q) < o.MinQueryLength {
		return []Match{}
	}

	matches := make([]Match, 0, o.Limit)
	for _, c := range candidates {
		s := score(q, fold(c.Name))
		if s <= o.Threshold {
			matches = append(matches, Match{Item: c, Score: s})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score < matches[j].Score
	})
	if len(matches) > o.Limit {
		matches = matches[:o.Limit]
	}
	return matches
}

// Resolve short-circuits suggestion once a name is settled. A held id whose
// candidate still carries the same name wins; otherwise an exact name match
// (case and accent insensitive) resolves.
func Resolve(name, resolvedID string, candidates []Candidate) (Candidate, bool) {
	target := fold(name)
	if target == "" {
		return Candidate{}, false
	}
	if resolvedID != "" {
		for _, c := range candidates {
			if c.ID == resolvedID && fold(c.Name) == target {
				return c, true
			}
		}
	}
	for _, c := range candidates {
		if fold(c.Name) == target {
			return c, true
		}
	}
	return Candidate{}, false
}

// score compares q against every word of name and the whole name, keeping the
// best. A word that starts with q scores 0. Otherwise the edit distance to the
// word, or to its prefix of the same length, is divided by the query length.
func score(q, name string) float64 {
	if q == "" || name == "" {
		return 1
	}
	qLen := utf8.RuneCountInString(q)
	best := 1.0

	tokens := append(strings.Fields(name), name)
	for _, tok := range tokens {
		if strings.HasPrefix(tok, q) {
			return 0
		}
		d := fuzzy.LevenshteinDistance(q, tok)
		if tr := []rune(tok); len(tr) > qLen {
			if dp := fuzzy.LevenshteinDistance(q, string(tr[:qLen])); dp < d {
				d = dp
			}
		}
		if s := float64(d) / float64(qLen); s < best {
			best = s
		}
	}
	if best > substringScore && strings.Contains(name, q) {
		best = substringScore
	}
	if best > 1 {
		best = 1
	}
	return best
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// fold lowercases, trims, collapses inner whitespace and strips diacritics.
func fold(s string) string {
	s = strings.Join(strings.Fields(strings.ToLower(s)), " ")
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return s
	}
	return out
}
