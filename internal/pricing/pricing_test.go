package pricing

import (
	"testing"

	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/menu"
)

func res(name string, price float64, veg bool) menu.AggregateResult {
	return menu.AggregateResult{
		Candidate:    menu.DishCandidate{Name: name, Price: price},
		IsVegetarian: veg,
	}
}

func TestRound(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{12.345, 12.35},
		{12.344, 12.34},
		{0.1 + 0.2, 0.3},
		{0, 0},
	}
	for _, tc := range cases {
		if got := Round(tc.in); got != tc.want {
			t.Errorf("Round(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestVegetarianTotal(t *testing.T) {
	results := []menu.AggregateResult{
		res("Tofu Bowl", 12.50, true),
		res("Beef Stew", 15.00, false),
		res("Dal", 9.99, true),
		res("Free Sample", 0, true), // zero prices contribute nothing
	}
	if got := VegetarianTotal(results); got != 22.49 {
		t.Fatalf("expected 22.49, got %v", got)
	}
}

func TestVegetarianTotalEmpty(t *testing.T) {
	if got := VegetarianTotal(nil); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
}

func TestVegetarianItemsPreservesOrder(t *testing.T) {
	results := []menu.AggregateResult{
		res("C", 1, true),
		res("A", 2, false),
		res("B", 3, true),
	}
	items := VegetarianItems(results)
	if len(items) != 2 || items[0].Candidate.Name != "C" || items[1].Candidate.Name != "B" {
		t.Fatalf("unexpected items: %+v", items)
	}
}
