package coder

import (
	"math"
	"path"
	"slices"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// normalize lower-cases s, folds diacritics and turns every run of
// non-alphanumeric characters into a single space.
func normalize(s string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}

// assetKey is the comparable form of an asset file name.
func assetKey(name string) string {
	base := path.Base(name)
	return normalize(strings.TrimSuffix(base, path.Ext(base)))
}

// unbaseScale discounts token-based scores against the plain ratio.
const unbaseScale = 0.95

// ratio is the Indel similarity of a and b on a 0-100 scale:
// 2*LCS / (len(a)+len(b)), where LCS is the longest common subsequence.
func ratio(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 100
	}
	return 100 * float64(2*edlib.LCS(a, b)) / float64(total)
}

// partialRatio is the best ratio of the shorter string against every
// window of the longer one, including windows cut short at either edge.
func partialRatio(a, b string) float64 {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}
	s := string(short)
	m, n := len(short), len(long)
	best := 0.0
	try := func(window []rune) bool {
		if r := ratio(s, string(window)); r > best {
			best = r
		}
		return best == 100
	}
	for i := 0; i+m <= n; i++ {
		if try(long[i : i+m]) {
			return best
		}
	}
	for i := 1; i < m && i <= n; i++ {
		if try(long[:i]) || try(long[n-i:]) {
			return best
		}
	}
	return best
}

func tokenSortRatio(a, b string) float64 {
	return ratio(sortTokens(a), sortTokens(b))
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// tokenSetRatio compares the shared words of a and b with each side's
// shared-plus-own words, so extra words on one side cost little.
func tokenSetRatio(a, b string) float64 {
	ta, tb := uniqueTokens(a), uniqueTokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	var sect, onlyA, onlyB []string
	for _, t := range ta {
		if slices.Contains(tb, t) {
			sect = append(sect, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for _, t := range tb {
		if !slices.Contains(ta, t) {
			onlyB = append(onlyB, t)
		}
	}
	if len(sect) > 0 && (len(onlyA) == 0 || len(onlyB) == 0) {
		return 100
	}

	joined := strings.Join(sect, " ")
	withA := strings.TrimSpace(joined + " " + strings.Join(onlyA, " "))
	withB := strings.TrimSpace(joined + " " + strings.Join(onlyB, " "))
	best := ratio(withA, withB)
	if joined != "" {
		best = max(best, ratio(joined, withA), ratio(joined, withB))
	}
	return best
}

// partialTokenRatio is 100 when a and b share a word, otherwise the partial
// ratio of their sorted words.
func partialTokenRatio(a, b string) float64 {
	ta, tb := uniqueTokens(a), uniqueTokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	for _, t := range ta {
		if slices.Contains(tb, t) {
			return 100
		}
	}
	return max(
		partialRatio(sortTokens(a), sortTokens(b)),
		partialRatio(strings.Join(ta, " "), strings.Join(tb, " ")),
	)
}

// uniqueTokens returns the distinct words of s, sorted.
func uniqueTokens(s string) []string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return slices.Compact(tokens)
}

// Score compares a query with a candidate on a 0-100 scale. Strings of
// similar length take the best of the plain, token-sort and token-set
// ratios; a much shorter query is scored on its best partial alignment,
// discounted by how much the lengths differ.
func Score(query, candidate string) int {
	return weightedRatio(normalize(query), candidate)
}

func weightedRatio(q, c string) int {
	if q == "" || c == "" {
		return 0
	}
	lq, lc := float64(len([]rune(q))), float64(len([]rune(c)))
	lenRatio := math.Max(lq, lc) / math.Min(lq, lc)

	best := ratio(q, c)
	if lenRatio < 1.5 {
		best = math.Max(best, unbaseScale*math.Max(tokenSortRatio(q, c), tokenSetRatio(q, c)))
		return int(math.RoundToEven(best))
	}

	scale := 0.9
	if lenRatio >= 8 {
		scale = 0.6
	}
	best = math.Max(best, scale*partialRatio(q, c))
	best = math.Max(best, unbaseScale*scale*partialTokenRatio(q, c))
	return int(math.RoundToEven(best))
}

// BestMatch returns the asset whose name best matches query, with its
// score. Ties keep the earlier asset. ok is false for an empty asset list.
func BestMatch(query string, assets []string) (name string, score int, ok bool) {
	q := normalize(query)
	score = -1
	for _, a := range assets {
		if s := weightedRatio(q, assetKey(a)); s > score {
			name, score, ok = a, s, true
		}
	}
	if !ok {
		return "", 0, false
	}
	return name, score, true
}
