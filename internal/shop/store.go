package shop

import (
	"slices"
	"sync"
)

// Store keeps products and orders in memory for the lifetime of the process.
// All methods are safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	products map[string]Product
	orders   map[string]Order
}

type StoreStats struct {
	Products int `json:"products"`
	Orders   int `json:"orders"`
}

func NewStore() *Store {
	return &Store{
		products: make(map[string]Product),
		orders:   make(map[string]Order),
	}
}

// AddProduct stores p as is. An existing product with the same id is left
// untouched.
func (s *Store) AddProduct(p Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[p.ID]; ok {
		return ErrProductExists
	}
	s.products[p.ID] = p

	return nil
}

func (s *Store) Product(id string) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return Product{}, productNotFound(id)
	}

	return p, nil
}

// Quote checks that every product exists and is in stock, and returns the sum
// of the unit prices. It does not modify the stock.
func (s *Store) Quote(ids []string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.quote(ids)
}

// Reserve is Quote followed by a stock decrement of one unit per occurrence of
// each id. Either every unit is reserved or none is.
func (s *Store) Reserve(ids []string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total, err := s.quote(ids)
	if err != nil {
		return 0, err
	}

	units := count(ids)
	for _, id := range ids {
		if s.products[id].Stock < units[id] {
			return 0, outOfStock(id)
		}
	}

	for id, n := range units {
		p := s.products[id]
		p.Stock -= n
		s.products[id] = p
	}

	return total, nil
}

// Release returns units taken by Reserve.
func (s *Store) Release(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, n := range count(ids) {
		p, ok := s.products[id]
		if !ok {
			continue
		}
		p.Stock += n
		s.products[id] = p
	}
}

func (s *Store) SaveOrder(o Order) {
	o.Products = slices.Clone(o.Products)

	s.mu.Lock()
	s.orders[o.ID] = o
	s.mu.Unlock()
}

func (s *Store) Order(id string) (Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	o.Products = slices.Clone(o.Products)

	return o, nil
}

func (s *Store) Stats() StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return StoreStats{
		Products: len(s.products),
		Orders:   len(s.orders),
	}
}

func (s *Store) quote(ids []string) (float64, error) {
	var total float64
	for _, id := range ids {
		p, ok := s.products[id]
		if !ok {
			return 0, productNotFound(id)
		}
		if p.Stock <= 0 {
			return 0, outOfStock(id)
		}
		total += p.Price
	}

	return total, nil
}

func count(ids []string) map[string]int {
	m := make(map[string]int, len(ids))
	for _, id := range ids {
		m[id]++
	}

	return m
}
