package products

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestStore() *Store {
	clk := &stepClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	return NewStore(clk.Now)
}

func TestStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	p, err := s.Create(ctx, NewProduct{Name: " Widget ", PriceCents: 500, URLSlug: "widget"})
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)
	require.Equal(t, "Widget", p.Name)
	require.Equal(t, "$5.00", p.PriceDisplay())
	require.Equal(t, uint64(1), s.Version())

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, p, got)

	name, published := "Gadget", true
	up, err := s.Update(ctx, p.ID, Patch{Name: &name, Published: &published})
	require.NoError(t, err)
	require.Equal(t, "Gadget", up.Name)
	require.True(t, up.Published)
	require.Equal(t, 500, up.PriceCents)
	require.True(t, up.UpdatedAt.After(up.CreatedAt))

	require.NoError(t, s.Delete(ctx, p.ID))
	_, err = s.Get(ctx, p.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, s.Delete(ctx, p.ID), ErrNotFound)
	require.Equal(t, uint64(3), s.Version())
}

func TestStore_Errors(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	_, err := s.Create(ctx, NewProduct{Name: "A", URLSlug: "dup"})
	require.NoError(t, err)
	_, err = s.Create(ctx, NewProduct{Name: "B", URLSlug: "DUP"})
	require.ErrorIs(t, err, ErrSlugTaken)

	_, err = s.Update(ctx, "missing", Patch{})
	require.ErrorIs(t, err, ErrNoChanges)
	price := 0
	_, err = s.Update(ctx, "missing", Patch{PriceCents: &price})
	require.ErrorIs(t, err, ErrNotFound)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.List(canceled, "", 0, 10)
	require.ErrorIs(t, err, context.Canceled)
}

func TestStore_ListOrderingAndPaging(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	for _, n := range []string{"alpha", "beta", "gamma", "alphabet"} {
		_, err := s.Create(ctx, NewProduct{Name: n})
		require.NoError(t, err)
	}

	page, err := s.List(ctx, "", 1, 2)
	require.NoError(t, err)
	require.Equal(t, 4, page.Total)
	require.Len(t, page.Items, 2)
	require.Equal(t, "beta", page.Items[0].Name)
	require.Equal(t, "gamma", page.Items[1].Name)

	page, err = s.List(ctx, "ALPHA", 0, 10)
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	require.Equal(t, "alpha", page.Items[0].Name)

	page, err = s.List(ctx, "", 10, 5)
	require.NoError(t, err)
	require.Empty(t, page.Items)
	require.Equal(t, s.Version(), page.Version)
}

func TestPriceDisplay_Free(t *testing.T) {
	require.Equal(t, "Free", Product{}.PriceDisplay())
	require.Equal(t, "$12.05", Product{PriceCents: 1205}.PriceDisplay())
}
