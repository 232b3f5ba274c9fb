// internal/catalog/service.go
package catalog

import (
	"context"
	"sync"
	"time"
)

type cacheEntry struct {
	product   Product
	expiresAt time.Time
}

// Service wraps a Reader with a short-lived per-product cache. Publishing
// invalidates the touched product so the next fetch sees the new gallery.
type Service struct {
	reader Reader
	ttl    time.Duration

	mu    sync.Mutex
	cache map[string]cacheEntry
}

func NewService(reader Reader, ttl time.Duration) *Service {
	return &Service{
		reader: reader,
		ttl:    ttl,
		cache:  make(map[string]cacheEntry),
	}
}

func (s *Service) GetProduct(ctx context.Context, productID string) (*Product, error) {
	if product, ok := s.cached(productID); ok {
		return product, nil
	}

	product, err := s.reader.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	s.store(*product)
	return product, nil
}

// GetProducts serves what it can from the cache and fetches the rest in one
// upstream call.
func (s *Service) GetProducts(ctx context.Context, productIDs []string) ([]Product, error) {
	products := make([]Product, 0, len(productIDs))
	var missing []string
	for _, id := range productIDs {
		if product, ok := s.cached(id); ok {
			products = append(products, *product)
		} else {
			missing = append(missing, id)
		}
	}

	if len(missing) == 0 {
		return products, nil
	}

	fetched, err := s.reader.GetProducts(ctx, missing)
	if err != nil {
		return nil, err
	}
	for _, product := range fetched {
		s.store(product)
		products = append(products, product)
	}

	return products, nil
}

// Invalidate drops one product from the cache.
func (s *Service) Invalidate(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, productID)
}

func (s *Service) cached(productID string) (*Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.cache[productID]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}

	product := entry.product
	return &product, true
}

func (s *Service) store(product Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[product.ID] = cacheEntry{
		product:   product,
		expiresAt: time.Now().Add(s.ttl),
	}
}
