package catalog

import (
	"slices"
	"strings"
)

type SortKey string

const (
	SortDefault         SortKey = "default"
	SortPriceLowToHigh  SortKey = "price-low-to-high"
	SortPriceHighToLow  SortKey = "price-high-to-low"
	SortDateNewest      SortKey = "date-added-newest"
	SortDateOldest      SortKey = "date-added-oldest"
	SortRatingHighToLow SortKey = "rating-high-to-low"
	SortNameAZ          SortKey = "name-a-z"
	SortNameZA          SortKey = "name-z-a"
)

var knownSortKeys = map[SortKey]bool{
	SortDefault:         true,
	SortPriceLowToHigh:  true,
	SortPriceHighToLow:  true,
	SortDateNewest:      true,
	SortDateOldest:      true,
	SortRatingHighToLow: true,
	SortNameAZ:          true,
	SortNameZA:          true,
}

// ParseSortKey maps unknown or empty input to SortDefault.
func ParseSortKey(s string) SortKey {
	k := SortKey(strings.TrimSpace(s))
	if knownSortKeys[k] {
		return k
	}
	return SortDefault
}

// Filter returns the products whose category equals category exactly.
// An empty category returns a copy of the whole list in input order.
func Filter(products []Product, category string) []Product {
	if category == "" {
		return slices.Clone(products)
	}
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// Sort returns a sorted copy. The sort is stable, so equal keys and
// SortDefault keep input order.
func Sort(products []Product, key SortKey) []Product {
	out := slices.Clone(products)
	cmp := comparator(key)
	if cmp == nil {
		return out
	}
	slices.SortStableFunc(out, cmp)
	return out
}

// FilterAndSort is Filter followed by Sort.
func FilterAndSort(products []Product, category string, key SortKey) []Product {
	return Sort(Filter(products, category), key)
}

func comparator(key SortKey) func(a, b Product) int {
	switch key {
	case SortPriceLowToHigh:
		return func(a, b Product) int { return a.Price.Cmp(b.Price) }
	case SortPriceHighToLow:
		return func(a, b Product) int { return b.Price.Cmp(a.Price) }
	case SortDateNewest:
		return func(a, b Product) int { return b.AddedAt().Compare(a.AddedAt()) }
	case SortDateOldest:
		return func(a, b Product) int { return a.AddedAt().Compare(b.AddedAt()) }
	case SortRatingHighToLow:
		return func(a, b Product) int { return compareFloat(b.RatingOrZero(), a.RatingOrZero()) }
	case SortNameAZ:
		return func(a, b Product) int { return compareName(a.Name, b.Name) }
	case SortNameZA:
		return func(a, b Product) int { return compareName(b.Name, a.Name) }
	default:
		return nil
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// compareName orders case-insensitively, then byte-wise to keep the order total.
func compareName(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// Categories lists distinct categories in first-seen order.
func Categories(products []Product) []string {
	seen := make(map[string]bool, len(products))
	out := make([]string, 0)
	for _, p := range products {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		out = append(out, p.Category)
	}
	return out
}

// DisplayCategory turns "wall-hangings" into "wall hangings".
func DisplayCategory(c string) string {
	return strings.ReplaceAll(c, "-", " ")
}
