/*
products.go - Product catalog CRUD

Stock quantities are only ever mutated by invoice settlement and voiding;
this file manages the catalog fields around them.
*/
package ledger

import (
	"context"
	"strings"
)

// AddProductRequest creates a catalog entry.
type AddProductRequest struct {
	Product Product
}

// AddProduct creates a product. The id and timestamps are assigned here.
func (s *Service) AddProduct(ctx context.Context, req AddProductRequest) (Product, error) {
	p := req.Product
	if strings.TrimSpace(p.Name) == "" {
		return Product{}, &ValidationError{Field: "productName", Message: "product name is required"}
	}
	if p.Price.IsNegative() || p.Cost.IsNegative() || p.Quantity < 0 {
		return Product{}, &ValidationError{Field: "price", Message: "product amounts cannot be negative"}
	}

	now := s.clock.Now()
	p.ID = s.store.NextID(CollectionProducts)
	if p.Status == "" {
		p.Status = AccountActive
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.store.PutProduct(ctx, p); err != nil {
		return Product{}, err
	}
	return p, nil
}

// UpdateProduct replaces the catalog fields of an existing product. The
// stored stock quantity and creation time win over whatever the caller
// sent; settlement owns stock.
func (s *Service) UpdateProduct(ctx context.Context, p Product) (Product, error) {
	if p.ID == "" {
		return Product{}, &ValidationError{Field: "id", Message: "product id is required"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.store.GetProduct(ctx, p.ID)
	if err != nil {
		return Product{}, err
	}
	p.Quantity = current.Quantity
	p.CreatedAt = current.CreatedAt
	p.UpdatedAt = s.clock.Now()
	if err := s.store.PutProduct(ctx, p); err != nil {
		return Product{}, err
	}
	return p, nil
}

// Product returns a single product.
func (s *Service) Product(ctx context.Context, id string) (Product, error) {
	return s.store.GetProduct(ctx, id)
}

// Products lists the catalog, optionally filtered by status.
func (s *Service) Products(ctx context.Context, status string) ([]Product, error) {
	return s.store.ListProducts(ctx, status)
}
