package ports

import (
	"context"

	"github.com/inventory-system/inventory-web/internal/core/domain"
)

// TokenSource yields the access token attached to protected requests.
type TokenSource interface {
	Token() string
}

// ProductGateway is the credential-bearing product collaborator.
// List always returns the canonical slice shape whatever envelope the
// backend used. Create and Update return *domain.ValidationError when the
// backend rejects the input.
type ProductGateway interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id int64) (*domain.Product, error)
	Create(ctx context.Context, in domain.ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id int64, in domain.ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
}
