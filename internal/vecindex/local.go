package vecindex

// #region imports
import (
	"context"
	"fmt"
	"strings"

	chromem "github.com/philippgille/chromem-go"

	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/knowledge"
)

// #endregion

// #region local-struct

// Local is an embedded similarity index backed by a chromem-go
// collection. It gives the engine an offline mode with no external
// index service; embeddings come from the injected Embedder.
type Local struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewLocal creates an in-memory chromem collection using the given embedder.
func NewLocal(collectionName string, embedder Embedder) (*Local, error) {
	if collectionName == "" {
		collectionName = "menu_knowledge"
	}

	db := chromem.NewDB()
	embeddingFunc := func(ctx context.Context, text string) ([]float32, error) {
		return embedder.Embed(ctx, text)
	}

	collection, err := db.GetOrCreateCollection(collectionName, nil, embeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &Local{db: db, collection: collection}, nil
}

// #endregion local-struct

// #region upsert

// Upsert indexes knowledge base entries into the collection.
func (l *Local) Upsert(ctx context.Context, entries []knowledge.Entry) error {
	for _, e := range entries {
		veg := "false"
		if e.IsVegetarian {
			veg = "true"
		}
		id := string(e.Kind) + "_" + strings.ReplaceAll(strings.ToLower(e.Name), " ", "_")
		err := l.collection.AddDocument(ctx, chromem.Document{
			ID:      id,
			Content: e.Document(),
			Metadata: map[string]string{
				"name":          e.Name,
				"is_vegetarian": veg,
				"kind":          string(e.Kind),
				"category":      e.Category,
			},
		})
		if err != nil {
			return fmt.Errorf("add document %s: %w", id, err)
		}
	}
	return nil
}

// #endregion upsert

// #region search

// Search returns the top-K most similar entries for the query.
func (l *Local) Search(ctx context.Context, query string, topK int) ([]Match, error) {
	// chromem rejects nResults > collection size
	if count := l.collection.Count(); topK > count {
		topK = count
	}
	if topK <= 0 {
		return nil, nil
	}

	results, err := l.collection.Query(ctx, query, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	matches := make([]Match, len(results))
	for i, r := range results {
		matches[i] = Match{
			Name:         r.Metadata["name"],
			Document:     r.Content,
			Relevance:    clamp01(float64(r.Similarity)),
			IsVegetarian: r.Metadata["is_vegetarian"] == "true",
			Kind:         r.Metadata["kind"],
		}
	}
	return matches, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion search

// #region count

// Count returns the number of indexed documents.
func (l *Local) Count() int {
	return l.collection.Count()
}

// #endregion count
