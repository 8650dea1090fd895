package vecindex

import (
	"context"

	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/knowledge"
)

// #region match

// Match is a single ranked result from the similarity index.
type Match struct {
	Name         string  `json:"name"`
	Document     string  `json:"document"`
	Relevance    float64 `json:"relevance"` // in [0, 1]
	IsVegetarian bool    `json:"is_vegetarian"`
	Kind         string  `json:"kind"`
}

// #endregion match

// #region index-interface

// Index is the similarity search boundary. Implementations: Remote
// (external index service) and Local (embedded chromem collection).
type Index interface {
	Search(ctx context.Context, query string, topK int) ([]Match, error)
}

// Seeder is implemented by indexes that can be populated from the
// knowledge base.
type Seeder interface {
	Upsert(ctx context.Context, entries []knowledge.Entry) error
}

// #endregion index-interface

// #region embedder-interface

// Embedder abstracts text embedding so the local index can be tested
// without a model backend.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// #endregion embedder-interface
