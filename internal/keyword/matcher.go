package keyword

// #region imports
import (
	"regexp"
	"strings"

	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/knowledge"
	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/menu"
)

// #endregion

// #region constants

// keywordConfidence is the fixed confidence of any keyword verdict.
// The layer either knows (0.95) or abstains.
const keywordConfidence = 0.95

// #endregion

// #region matcher

// Matcher is the fast lexical layer: whole-word scanning of a candidate
// name for known vegetarian and non-vegetarian terms. Deterministic,
// no side effects.
type Matcher struct {
	positive []term
	negative []term
	markers  []string
}

type term struct {
	word    string
	pattern *regexp.Regexp
}

// NewMatcher compiles word-boundary patterns for the given keyword lists.
func NewMatcher(kw knowledge.Keywords) *Matcher {
	return &Matcher{
		positive: compileTerms(kw.Positive),
		negative: compileTerms(kw.Negative),
		markers:  lowerAll(kw.Markers),
	}
}

func compileTerms(words []string) []term {
	terms := make([]term, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(w)
		terms = append(terms, term{
			word:    w,
			pattern: regexp.MustCompile(`\b` + regexp.QuoteMeta(w) + `\b`),
		})
	}
	return terms
}

func lowerAll(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = strings.ToLower(w)
	}
	return out
}

// #endregion

// #region match

// Match scans a candidate name. A negative term wins over any positive
// term also present (conservative bias). Returns nil when nothing
// matches or the name is empty: this layer abstains, it never guesses.
func (m *Matcher) Match(name string) *menu.SignalVerdict {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return nil
	}

	for _, t := range m.negative {
		if t.pattern.MatchString(lower) {
			return &menu.SignalVerdict{
				Layer:        menu.LayerKeyword,
				IsVegetarian: false,
				Confidence:   keywordConfidence,
				Reason:       "contains non-vegetarian ingredient: '" + t.word + "'",
			}
		}
	}

	// Markers are punctuation-heavy annotations like "(v)"; word-boundary
	// patterns cannot anchor on them, so they match as substrings.
	for _, mk := range m.markers {
		if strings.Contains(lower, mk) {
			return &menu.SignalVerdict{
				Layer:        menu.LayerKeyword,
				IsVegetarian: true,
				Confidence:   keywordConfidence,
				Reason:       "contains vegetarian marker: '" + mk + "'",
			}
		}
	}

	for _, t := range m.positive {
		if t.pattern.MatchString(lower) {
			return &menu.SignalVerdict{
				Layer:        menu.LayerKeyword,
				IsVegetarian: true,
				Confidence:   keywordConfidence,
				Reason:       "contains vegetarian indicator: '" + t.word + "'",
			}
		}
	}

	return nil
}

// #endregion
