package view

import (
	"context"

	"github.com/inventory-system/inventory-web/internal/core/domain"
)

type stubGateway struct {
	listFn   func(ctx context.Context) ([]domain.Product, error)
	getFn    func(ctx context.Context, id int64) (*domain.Product, error)
	createFn func(ctx context.Context, in domain.ProductInput) (*domain.Product, error)
	updateFn func(ctx context.Context, id int64, in domain.ProductInput) (*domain.Product, error)
	deleteFn func(ctx context.Context, id int64) error
}

func (s *stubGateway) List(ctx context.Context) ([]domain.Product, error) {
	return s.listFn(ctx)
}

func (s *stubGateway) Get(ctx context.Context, id int64) (*domain.Product, error) {
	return s.getFn(ctx, id)
}

func (s *stubGateway) Create(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	return s.createFn(ctx, in)
}

func (s *stubGateway) Update(ctx context.Context, id int64, in domain.ProductInput) (*domain.Product, error) {
	return s.updateFn(ctx, id, in)
}

func (s *stubGateway) Delete(ctx context.Context, id int64) error {
	return s.deleteFn(ctx, id)
}

func widgets() []domain.Product {
	return []domain.Product{
		{ID: 1, Name: "Widget", Price: "9.99", Stock: 5},
		{ID: 7, Name: "Gadget", Price: "19.50", Stock: 2},
	}
}
