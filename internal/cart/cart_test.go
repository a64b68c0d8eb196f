package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id string) Item {
	return Item{ID: id, Name: "Item " + id, Price: decimal.NewFromInt(100), Image: "img"}
}

func TestAddSameItemTwice(t *testing.T) {
	c := New(Limits{MaxItemQuantity: 10, MaxCartItems: 100}, nil)

	r1 := c.Add(item("a"))
	r2 := c.Add(item("a"))

	assert.Equal(t, OutcomeAdded, r1.Outcome)
	assert.Equal(t, OutcomeIncremented, r2.Outcome)
	require.Len(t, c.Items(), 1)
	assert.Equal(t, 2, c.Items()[0].Quantity)
}

func TestAddCapsAtMaxItemQuantity(t *testing.T) {
	c := New(Limits{MaxItemQuantity: 10, MaxCartItems: 100}, nil)

	c.Add(item("a"))
	c.Add(item("a"))
	for i := 0; i < 8; i++ {
		assert.False(t, c.Add(item("a")).Rejected())
	}
	assert.Equal(t, 10, c.Items()[0].Quantity)

	r := c.Add(item("a"))
	assert.Equal(t, OutcomeRejectedItemLimit, r.Outcome)
	assert.Equal(t, 10, c.Items()[0].Quantity)
	assert.NotEmpty(t, r.Reason())
}

func TestAddRejectsWhenCartFull(t *testing.T) {
	c := New(Limits{MaxItemQuantity: 5, MaxCartItems: 2}, nil)
	c.Add(item("a"))
	c.Add(item("b"))

	before := c.Items()
	r := c.Add(item("c"))

	assert.Equal(t, OutcomeRejectedCartFull, r.Outcome)
	assert.Equal(t, before, c.Items())

	// existing lines can still be incremented when full
	assert.Equal(t, OutcomeIncremented, c.Add(item("a")).Outcome)
}

func TestAddIgnoresCandidateQuantity(t *testing.T) {
	c := New(DefaultLimits(), nil)
	it := item("a")
	it.Quantity = 7
	c.Add(it)
	assert.Equal(t, 1, c.Items()[0].Quantity)
}

func TestAddProductSnapshotsPlaceholder(t *testing.T) {
	c := New(DefaultLimits(), nil)
	c.AddProduct(catalog.Product{ID: "p1", Name: "Rose", Price: decimal.NewFromInt(250)})

	got := c.Items()[0]
	assert.Equal(t, catalog.PlaceholderImage, got.Image)
	assert.True(t, decimal.NewFromInt(250).Equal(got.Price))
}

func TestSetQuantity(t *testing.T) {
	c := New(Limits{MaxItemQuantity: 4, MaxCartItems: 10}, nil)
	c.Add(item("a"))
	c.Add(item("b"))

	r, err := c.SetQuantity("a", 3)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, r.Outcome)

	r, err = c.SetQuantity("a", 9)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejectedItemLimit, r.Outcome)
	assert.Equal(t, 3, c.Items()[0].Quantity)

	r, err = c.SetQuantity("b", 0)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRemoved, r.Outcome)
	assert.Equal(t, 1, c.Len())

	_, err = c.SetQuantity("zzz", 1)
	assert.ErrorIs(t, err, ErrNotInCart)
}

func TestRemoveClearTotals(t *testing.T) {
	c := New(DefaultLimits(), nil)
	c.Add(item("a"))
	c.Add(item("a"))
	c.Add(Item{ID: "b", Name: "B", Price: decimal.RequireFromString("49.50")})

	assert.Equal(t, 3, c.TotalItems())
	assert.Equal(t, "249.5", c.TotalPrice().String())

	require.NoError(t, c.Remove("a"))
	assert.ErrorIs(t, c.Remove("a"), ErrNotInCart)
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.True(t, c.TotalPrice().IsZero())
}

func TestRestoreDropsInvalidLines(t *testing.T) {
	c := Restore(DefaultLimits(), nil, []Item{{ID: "a", Quantity: 2}, {ID: "b", Quantity: 0}})
	assert.Equal(t, 1, c.Len())
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(DefaultLimits(), nil)

	c, err := s.Load(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())

	c.Add(item("a"))
	require.NoError(t, s.Save(ctx, "sess", c))

	// mutating the loaded cart must not leak into the store until Save
	c.Add(item("a"))
	again, err := s.Load(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, 1, again.Items()[0].Quantity)

	again.Clear()
	require.NoError(t, s.Save(ctx, "sess", again))
	empty, _ := s.Load(ctx, "sess")
	assert.Equal(t, 0, empty.Len())
}

func TestMemoryStoreUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(Limits{MaxItemQuantity: 1, MaxCartItems: 10}, nil)

	c, res, err := s.Update(ctx, "sess", func(c *Cart) (Result, error) { return c.Add(item("a")), nil })
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdded, res.Outcome)
	assert.Equal(t, 1, c.Len())

	// rejected and failed mutations are not stored
	_, res, err = s.Update(ctx, "sess", func(c *Cart) (Result, error) {
		c.Add(item("b"))
		return c.Add(item("a")), nil
	})
	require.NoError(t, err)
	assert.True(t, res.Rejected())

	boom := errors.New("boom")
	_, _, err = s.Update(ctx, "sess", func(c *Cart) (Result, error) {
		c.Clear()
		return Result{}, boom
	})
	assert.ErrorIs(t, err, boom)

	got, _ := s.Load(ctx, "sess")
	require.Equal(t, 1, got.Len())
	assert.Equal(t, "a", got.Items()[0].ID)
	assert.Empty(t, s.locks, "session locks are released")
}

func TestMemoryStoreConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(Limits{MaxItemQuantity: 5, MaxCartItems: 100}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := s.Update(ctx, "sess", func(c *Cart) (Result, error) {
				return c.Add(item(fmt.Sprintf("p%d", i))), nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := s.Load(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, 20, got.Len())
}
