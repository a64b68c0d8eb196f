package catalog

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func rating(v float64) *float64 { return &v }

func fixture() []Product {
	return []Product{
		{ID: "1", Name: "Tulip Bouquet", Category: "bouquets", Price: decimal.NewFromInt(450), Rating: rating(4.5), DateAdded: "2024-03-01T10:00:00Z"},
		{ID: "2", Name: "amigurumi bear", Category: "toys", Price: decimal.NewFromInt(300), DateAdded: "2024-01-15"},
		{ID: "3", Name: "Coaster Set", Category: "home-decor", Price: decimal.RequireFromString("199.99"), Rating: rating(3)},
		{ID: "4", Name: "Bunny", Category: "toys", Price: decimal.NewFromInt(300), Rating: rating(5), DateAdded: "2024-06-20T08:30:00Z"},
	}
}

func ids(ps []Product) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func TestSortKeys(t *testing.T) {
	tests := []struct {
		key  SortKey
		want []string
	}{
		{SortDefault, []string{"1", "2", "3", "4"}},
		{SortPriceLowToHigh, []string{"3", "2", "4", "1"}},
		{SortPriceHighToLow, []string{"1", "2", "4", "3"}},
		{SortDateNewest, []string{"4", "1", "2", "3"}},
		{SortDateOldest, []string{"3", "2", "1", "4"}},
		{SortRatingHighToLow, []string{"4", "1", "3", "2"}},
		{SortNameAZ, []string{"2", "4", "3", "1"}},
		{SortNameZA, []string{"1", "3", "4", "2"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ids(Sort(fixture(), tt.key))); diff != "" {
				t.Errorf("Sort(%s) mismatch (-want +got):\n%s", tt.key, diff)
			}
		})
	}
}

func TestSortIsIdempotent(t *testing.T) {
	for key := range knownSortKeys {
		once := Sort(fixture(), key)
		twice := Sort(once, key)
		assert.Equal(t, ids(once), ids(twice), "key %s", key)
	}
}

func TestSortDoesNotMutateInput(t *testing.T) {
	in := fixture()
	_ = Sort(in, SortPriceLowToHigh)
	eqDecimal := cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })
	if diff := cmp.Diff(fixture(), in, eqDecimal); diff != "" {
		t.Errorf("input mutated (-want +got):\n%s", diff)
	}
}

func TestFilter(t *testing.T) {
	in := fixture()

	assert.Equal(t, []string{"2", "4"}, ids(Filter(in, "toys")))
	assert.Empty(t, Filter(in, "jewellery"))
	assert.Equal(t, ids(in), ids(Filter(in, "")))
}

func TestFilterAndSort(t *testing.T) {
	got := FilterAndSort(fixture(), "toys", SortRatingHighToLow)
	assert.Equal(t, []string{"4", "2"}, ids(got))
}

func TestParseSortKey(t *testing.T) {
	assert.Equal(t, SortNameZA, ParseSortKey("name-z-a"))
	assert.Equal(t, SortDefault, ParseSortKey(""))
	assert.Equal(t, SortDefault, ParseSortKey("popularity"))
}

func TestCategories(t *testing.T) {
	assert.Equal(t, []string{"bouquets", "toys", "home-decor"}, Categories(fixture()))
	assert.Equal(t, "home decor", DisplayCategory("home-decor"))
}

func TestProductFallbacks(t *testing.T) {
	p := Product{DateAdded: "not a date"}
	assert.Equal(t, int64(0), p.AddedAt().Unix())
	assert.Equal(t, 0.0, p.RatingOrZero())
	assert.Equal(t, PlaceholderImage, p.ImageOrPlaceholder())
}
