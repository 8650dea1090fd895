package evidence

// #region imports
import (
	"context"
	"fmt"
	"strings"

	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/menu"
	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/vecindex"
)

// #endregion

// #region config

// Config holds thresholds and limits for the retrieval layer.
type Config struct {
	TopK          int     // max results from the similarity index
	MinRelevance  float64 // matches below this are ignored
	MaxConfidence float64 // retrieval confidence is capped here
	MaxEvidence   int     // max evidence strings carried on the verdict
}

// DefaultConfig returns the standard retrieval settings.
func DefaultConfig() Config {
	return Config{
		TopK:          5,
		MinRelevance:  0.3,
		MaxConfidence: 0.85,
		MaxEvidence:   3,
	}
}

// #endregion config

// #region retriever

// Retriever is the semantic layer: it aggregates ranked matches from
// the similarity index into a single verdict.
type Retriever struct {
	index  vecindex.Index
	config Config
}

// NewRetriever creates a Retriever over the given index.
func NewRetriever(index vecindex.Index, config Config) *Retriever {
	return &Retriever{index: index, config: config}
}

// #endregion retriever

// #region retrieve

// Retrieve queries the index for a dish name and scores the matches.
// Returns (nil, evidence, err) when the index is unreachable and
// (nil, evidence, nil) when the matches are inconclusive; either way
// the layer is skipped, never fatal.
func (r *Retriever) Retrieve(ctx context.Context, dish string) (*menu.SignalVerdict, []string, error) {
	matches, err := r.index.Search(ctx, dish, r.config.TopK)
	if err != nil {
		return nil, nil, fmt.Errorf("evidence search: %w", err)
	}
	if len(matches) == 0 {
		return nil, nil, nil
	}

	var vegScore, nonVegScore float64
	var reasons []string
	var evidence []string

	for _, m := range matches {
		if len(evidence) < r.config.MaxEvidence {
			evidence = append(evidence, m.Document)
		}
		if m.Relevance < r.config.MinRelevance {
			continue
		}
		if m.IsVegetarian {
			vegScore += m.Relevance
			reasons = append(reasons, m.Name+" (vegetarian)")
		} else {
			nonVegScore += m.Relevance
			reasons = append(reasons, m.Name+" (non-vegetarian)")
		}
	}

	total := vegScore + nonVegScore
	if total == 0 {
		return nil, evidence, nil
	}

	// Tie resolves to non-vegetarian, matching the keyword layer's
	// negative-priority rule.
	isVeg := vegScore > nonVegScore
	top := nonVegScore
	if isVeg {
		top = vegScore
	}
	confidence := top / total
	if confidence > r.config.MaxConfidence {
		confidence = r.config.MaxConfidence
	}

	if len(reasons) > 3 {
		reasons = reasons[:3]
	}
	return &menu.SignalVerdict{
		Layer:        menu.LayerRAG,
		IsVegetarian: isVeg,
		Confidence:   confidence,
		Reason:       "similar to: " + strings.Join(reasons, ", "),
		Evidence:     evidence,
	}, evidence, nil
}

// #endregion retrieve
