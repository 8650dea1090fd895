// Package pricing aggregates menu prices for classified items.
package pricing

// #region imports
import (
	"math"

	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/menu"
)

// #endregion

// #region round

// Round rounds a price to two decimal places.
func Round(v float64) float64 {
	return math.Round(v*100) / 100
}

// #endregion round

// #region totals

// VegetarianTotal sums the prices of all vegetarian results, rounded to
// two decimals. Items with zero or negative prices contribute nothing.
func VegetarianTotal(results []menu.AggregateResult) float64 {
	var sum float64
	for _, r := range results {
		if r.IsVegetarian && r.Candidate.Price > 0 {
			sum += r.Candidate.Price
		}
	}
	return Round(sum)
}

// VegetarianItems returns the subset of results classified vegetarian,
// preserving order.
func VegetarianItems(results []menu.AggregateResult) []menu.AggregateResult {
	var out []menu.AggregateResult
	for _, r := range results {
		if r.IsVegetarian {
			out = append(out, r)
		}
	}
	return out
}

// #endregion totals
