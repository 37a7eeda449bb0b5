// Package view holds the transient state behind the product pages: the list
// fetched for one view load and the input of one product form.
package view

import (
	"context"
	"errors"
	"sync"

	"github.com/inventory-system/inventory-web/internal/core/domain"
	"github.com/inventory-system/inventory-web/internal/core/ports"
)

// ErrInactive is returned when a response arrives for a view that was closed
// or superseded while the request was in flight. The response is dropped.
var ErrInactive = errors.New("view no longer active")

// ProductList is the product list of one browser session. It is mutated only
// by results of remote calls, never by local edits.
type ProductList struct {
	gw ports.ProductGateway

	mu       sync.Mutex
	products []domain.Product
	loaded   bool
	gen      uint64
	closed   bool
}

func NewProductList(gw ports.ProductGateway) *ProductList {
	return &ProductList{gw: gw}
}

// Load fetches the list. A newer Load or a Delete started meanwhile, a
// Close, or a cancelled ctx turns the result into a no-op.
func (l *ProductList) Load(ctx context.Context) error {
	gen, err := l.begin()
	if err != nil {
		return err
	}

	products, err := l.gw.List(ctx)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.current(ctx, gen) {
		return ErrInactive
	}
	l.products = products
	l.loaded = true
	return nil
}

// Delete removes the product remotely, then drops it from the local list
// without refetching.
func (l *ProductList) Delete(ctx context.Context, id int64) error {
	if _, err := l.begin(); err != nil {
		return err
	}

	if err := l.gw.Delete(ctx, id); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrInactive
	}
	kept := l.products[:0:0]
	for _, p := range l.products {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	l.products = kept
	return nil
}

// Find returns the locally held product with id.
func (l *ProductList) Find(id int64) (domain.Product, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, p := range l.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

// Products returns a copy of the current list.
func (l *ProductList) Products() []domain.Product {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.Product(nil), l.products...)
}

// Loaded reports whether a Load has completed since the list was created.
func (l *ProductList) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}

// Close deactivates the list. Results still in flight are dropped.
func (l *ProductList) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.products = nil
	l.loaded = false
}

func (l *ProductList) begin() (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return 0, ErrInactive
	}
	l.gen++
	return l.gen, nil
}

// current must be called with mu held.
func (l *ProductList) current(ctx context.Context, gen uint64) bool {
	return !l.closed && l.gen == gen && ctx.Err() == nil
}
