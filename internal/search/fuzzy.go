package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Bitap works on 32-bit masks; longer patterns are searched in chunks.
const maxBits = 32

// Matcher holds the fuzzy scoring parameters. The defaults reproduce the
// ranking of Fuse.js configured with a threshold of 0.4 over titles.
type Matcher struct {
	// Threshold is the worst raw score still considered a match; 0 is a
	// perfect match and 1 matches anything.
	Threshold float64
	// Location is where in the title the match is expected to start.
	Location int
	// Distance is how far from Location a match may sit before its
	// proximity penalty alone reaches 1.
	Distance int
	// Limit caps the number of results; 0 means no cap.
	Limit int
}

// DefaultMatcher is the matcher used for mention suggestions.
var DefaultMatcher = Matcher{Threshold: 0.4, Location: 0, Distance: 100, Limit: ResultLimit}

// Match is a scored article. Score is the final rank: lower is better.
type Match struct {
	Article Article
	Score   float64
}

// Score returns the raw bitap score of query against text and whether it is
// a match. Matching ignores case.
func (m Matcher) Score(query, text string) (float64, bool) {
	pattern := []rune(strings.ToLower(query))
	target := []rune(strings.ToLower(text))
	if len(pattern) == 0 {
		return 1, false
	}
	if string(pattern) == string(target) {
		return 0, true
	}

	total := 0.0
	matched := false
	for _, c := range chunk(pattern) {
		score, ok := m.bitap(target, c.pattern, m.Location+c.start)
		if ok {
			matched = true
		}
		total += score
	}
	if !matched {
		return 1, false
	}
	return total / float64(len(chunk(pattern))), true
}

type patternChunk struct {
	pattern []rune
	start   int
}

func chunk(pattern []rune) []patternChunk {
	if len(pattern) <= maxBits {
		return []patternChunk{{pattern: pattern, start: 0}}
	}
	var out []patternChunk
	remainder := len(pattern) % maxBits
	end := len(pattern) - remainder
	for i := 0; i < end; i += maxBits {
		out = append(out, patternChunk{pattern: pattern[i : i+maxBits], start: i})
	}
	if remainder > 0 {
		start := len(pattern) - maxBits
		out = append(out, patternChunk{pattern: pattern[start:], start: start})
	}
	return out
}

func (m Matcher) computeScore(patternLen, errors, current, expected int) float64 {
	accuracy := float64(errors) / float64(patternLen)
	proximity := current - expected
	if proximity < 0 {
		proximity = -proximity
	}
	if m.Distance == 0 {
		if proximity != 0 {
			return 1
		}
		return accuracy
	}
	return accuracy + float64(proximity)/float64(m.Distance)
}

func indexOf(text, pattern []rune, from int) int {
	for i := max(from, 0); i+len(pattern) <= len(text); i++ {
		if string(text[i:i+len(pattern)]) == string(pattern) {
			return i
		}
	}
	return -1
}

func at(arr []uint32, i int) uint32 {
	if i < 0 || i >= len(arr) {
		return 0
	}
	return arr[i]
}

// bitap is the approximate matcher: for each allowed error count it
// narrows the window around the expected location, then scans it right to
// left tracking which pattern prefixes match with that many errors.
func (m Matcher) bitap(text, pattern []rune, location int) (float64, bool) {
	patternLen := len(pattern)
	textLen := len(text)
	expected := max(0, min(location, textLen))
	threshold := m.Threshold
	bestLocation := expected

	alphabet := make(map[rune]uint32, patternLen)
	for i, r := range pattern {
		alphabet[r] |= 1 << uint(patternLen-i-1)
	}

	for {
		index := indexOf(text, pattern, bestLocation)
		if index < 0 {
			break
		}
		threshold = math.Min(m.computeScore(patternLen, 0, index, expected), threshold)
		bestLocation = index + patternLen
	}

	bestLocation = -1
	var lastBits []uint32
	bestScore := 1.0
	binMax := patternLen + textLen
	mask := uint32(1) << uint(patternLen-1)

	for i := 0; i < patternLen; i++ {
		binMin, binMid := 0, binMax
		for binMin < binMid {
			if m.computeScore(patternLen, i, expected+binMid, expected) <= threshold {
				binMin = binMid
			} else {
				binMax = binMid
			}
			binMid = (binMax-binMin)/2 + binMin
		}
		binMax = binMid

		start := max(1, expected-binMid+1)
		finish := min(expected+binMid, textLen) + patternLen
		bits := make([]uint32, finish+2)
		bits[finish+1] = (uint32(1) << uint(i)) - 1

		for j := finish; j >= start; j-- {
			current := j - 1
			var charMatch uint32
			if current >= 0 && current < textLen {
				charMatch = alphabet[text[current]]
			}
			bits[j] = ((bits[j+1] << 1) | 1) & charMatch
			if i > 0 {
				bits[j] |= ((at(lastBits, j+1) | at(lastBits, j)) << 1) | 1 | at(lastBits, j+1)
			}
			if bits[j]&mask != 0 {
				score := m.computeScore(patternLen, i, current, expected)
				if score <= threshold {
					threshold = score
					bestScore = score
					bestLocation = current
					if bestLocation <= expected {
						break
					}
					start = max(1, 2*expected-bestLocation)
				}
			}
		}

		if m.computeScore(patternLen, i+1, expected, expected) > threshold {
			break
		}
		lastBits = bits
	}

	return math.Max(0.001, bestScore), bestLocation >= 0
}

// fieldNorm weights a title by its token count so matches in short titles
// rank above the same match in long ones.
func fieldNorm(text string) float64 {
	tokens := 0
	for _, f := range strings.Split(text, " ") {
		if f != "" {
			tokens++
		}
	}
	if tokens == 0 {
		tokens = 1
	}
	return math.Round(1/math.Sqrt(float64(tokens))*1000) / 1000
}

// Rank scores every published article's title against query and returns
// matches best first. Equal ranks keep the input order, which callers
// supply newest first.
func (m Matcher) Rank(query string, articles []Article) []Match {
	var out []Match
	for _, a := range articles {
		if !a.Published || strings.TrimSpace(a.Title) == "" {
			continue
		}
		raw, ok := m.Score(query, a.Title)
		if !ok {
			continue
		}
		if raw == 0 {
			raw = epsilon
		}
		out = append(out, Match{Article: a, Score: math.Pow(raw, fieldNorm(a.Title))})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score < out[j].Score })
	if m.Limit > 0 && len(out) > m.Limit {
		out = out[:m.Limit]
	}
	return out
}

// epsilon is the gap between 1 and the next float64, used as the score of
// an exact match so it still ranks by field norm.
const epsilon = 2.220446049250313e-16

// Fuzzy is the in-process candidate search over a Source.
type Fuzzy struct {
	source  Source
	matcher Matcher
}

// NewFuzzy returns a fuzzy searcher using DefaultMatcher.
func NewFuzzy(source Source) *Fuzzy {
	return &Fuzzy{source: source, matcher: DefaultMatcher}
}

// Search ranks published articles by title similarity. An empty query
// returns no candidates without touching the source.
func (f *Fuzzy) Search(ctx context.Context, query string) ([]Candidate, error) {
	if query == "" {
		return []Candidate{}, nil
	}
	articles, err := f.source.ListPublishedArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list published articles: %w", err)
	}
	matches := f.matcher.Rank(query, articles)
	out := make([]Candidate, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Article.Candidate)
	}
	return out, nil
}

// GetByID returns a published article by id.
func (f *Fuzzy) GetByID(ctx context.Context, id string) (Candidate, error) {
	a, err := f.source.GetPublishedArticle(ctx, id)
	if err != nil {
		return Candidate{}, err
	}
	if !a.Published {
		return Candidate{}, ErrNotFound
	}
	return a.Candidate, nil
}
