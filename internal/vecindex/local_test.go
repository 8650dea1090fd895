package vecindex

import (
	"context"
	"strings"
	"testing"

	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/knowledge"
)

// hashEmbedder produces deterministic vectors from character trigrams so
// similar strings land near each other without a model backend.
type hashEmbedder struct{}

func (hashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	const dim = 64
	vec := make([]float32, dim)
	lower := strings.ToLower(text)
	for i := 0; i+3 <= len(lower); i++ {
		h := 0
		for _, c := range lower[i : i+3] {
			h = h*31 + int(c)
		}
		if h < 0 {
			h = -h
		}
		vec[h%dim]++
	}
	return vec, nil
}

func seedLocal(t *testing.T) *Local {
	t.Helper()
	local, err := NewLocal("test_collection", hashEmbedder{})
	if err != nil {
		t.Fatalf("new local: %v", err)
	}
	err = local.Upsert(context.Background(), []knowledge.Entry{
		{Name: "tofu", Kind: knowledge.KindIngredient, IsVegetarian: true, Category: "protein", Description: "soybean curd plant protein"},
		{Name: "chicken", Kind: knowledge.KindIngredient, IsVegetarian: false, Category: "meat", Description: "poultry meat"},
		{Name: "greek salad", Kind: knowledge.KindDish, IsVegetarian: true, Category: "salad", Description: "tomato cucumber olives feta"},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	return local
}

func TestLocalSearchReturnsSeededEntries(t *testing.T) {
	local := seedLocal(t)

	matches, err := local.Search(context.Background(), "tofu", 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Name != "tofu" {
		t.Fatalf("expected exact string to rank first, got %+v", matches[0])
	}
	if !matches[0].IsVegetarian || matches[0].Kind != "ingredient" {
		t.Fatalf("metadata lost: %+v", matches[0])
	}
	for _, m := range matches {
		if m.Relevance < 0 || m.Relevance > 1 {
			t.Fatalf("relevance out of range: %v", m.Relevance)
		}
	}
}

func TestLocalSearchClampsTopK(t *testing.T) {
	local := seedLocal(t)

	// asking for more than indexed must not error
	matches, err := local.Search(context.Background(), "salad", 50)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != local.Count() {
		t.Fatalf("expected %d matches, got %d", local.Count(), len(matches))
	}
}

func TestLocalSearchEmptyCollection(t *testing.T) {
	local, err := NewLocal("empty_collection", hashEmbedder{})
	if err != nil {
		t.Fatalf("new local: %v", err)
	}
	matches, err := local.Search(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if matches != nil {
		t.Fatalf("expected no matches, got %+v", matches)
	}
}

func TestLocalCount(t *testing.T) {
	local := seedLocal(t)
	if local.Count() != 3 {
		t.Fatalf("expected 3 documents, got %d", local.Count())
	}
}
