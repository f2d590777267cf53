// Package products keeps an in-memory product catalog served by the product tools.
package products

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound indicates the product ID does not exist.
	ErrNotFound = errors.New("products: not found")
	// ErrSlugTaken indicates another product already uses the URL slug.
	ErrSlugTaken = errors.New("products: url slug already in use")
	// ErrNoChanges indicates an update carried no fields.
	ErrNoChanges = errors.New("products: no fields to update")
)

// Product is a sellable item.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	PriceCents  int       `json:"price_cents"`
	URLSlug     string    `json:"url_slug,omitempty"`
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PriceDisplay renders the price as dollars, or "Free".
func (p Product) PriceDisplay() string {
	if p.PriceCents == 0 {
		return "Free"
	}
	return fmt.Sprintf("$%d.%02d", p.PriceCents/100, p.PriceCents%100)
}

// NewProduct holds the fields accepted on create.
type NewProduct struct {
	Name        string
	Description string
	PriceCents  int
	URLSlug     string
}

// Patch holds optional fields for update. Nil fields are left unchanged.
type Patch struct {
	Name        *string
	Description *string
	PriceCents  *int
	Published   *bool
}

func (p Patch) empty() bool {
	return p.Name == nil && p.Description == nil && p.PriceCents == nil && p.Published == nil
}

// Store is a concurrency-safe product store. Every write bumps Version so
// pagination cursors can detect concurrent modification.
type Store struct {
	mu      sync.RWMutex
	items   map[string]Product
	version uint64
	clock   func() time.Time
}

// NewStore returns an empty store. clock defaults to time.Now when nil.
func NewStore(clock func() time.Time) *Store {
	if clock == nil {
		clock = time.Now
	}
	return &Store{items: make(map[string]Product), clock: clock}
}

// Version returns the current write version.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Create adds a product and returns it with its assigned ID.
func (s *Store) Create(ctx context.Context, in NewProduct) (Product, error) {
	if err := ctx.Err(); err != nil {
		return Product{}, err
	}
	now := s.clock().UTC()
	p := Product{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		PriceCents:  in.PriceCents,
		URLSlug:     strings.TrimSpace(in.URLSlug),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if p.URLSlug != "" {
		for _, other := range s.items {
			if strings.EqualFold(other.URLSlug, p.URLSlug) {
				return Product{}, fmt.Errorf("%w: %s", ErrSlugTaken, p.URLSlug)
			}
		}
	}
	s.items[p.ID] = p
	s.version++
	return p, nil
}

// Get returns a product by ID.
func (s *Store) Get(ctx context.Context, id string) (Product, error) {
	if err := ctx.Err(); err != nil {
		return Product{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.items[id]
	if !ok {
		return Product{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p, nil
}

// Update applies a patch and returns the updated product.
func (s *Store) Update(ctx context.Context, id string, patch Patch) (Product, error) {
	if err := ctx.Err(); err != nil {
		return Product{}, err
	}
	if patch.empty() {
		return Product{}, ErrNoChanges
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.items[id]
	if !ok {
		return Product{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.PriceCents != nil {
		p.PriceCents = *patch.PriceCents
	}
	if patch.Published != nil {
		p.Published = *patch.Published
	}
	p.UpdatedAt = s.clock().UTC()
	s.items[id] = p
	s.version++
	return p, nil
}

// Delete removes a product.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.items, id)
	s.version++
	return nil
}

// Page is one slice of an ordered listing.
type Page struct {
	Items   []Product
	Total   int
	Version uint64
}

// List returns up to limit products starting at offset, ordered by creation
// time then ID. A non-empty query filters by case-insensitive name substring.
func (s *Store) List(ctx context.Context, query string, offset, limit int) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	q := strings.ToLower(strings.TrimSpace(query))

	s.mu.RLock()
	all := make([]Product, 0, len(s.items))
	for _, p := range s.items {
		if q == "" || strings.Contains(strings.ToLower(p.Name), q) {
			all = append(all, p)
		}
	}
	version := s.version
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	page := Page{Total: len(all), Version: version}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) || limit <= 0 {
		return page, nil
	}
	end := min(offset+limit, len(all))
	page.Items = all[offset:end]
	return page, nil
}
