package ports

import (
	"context"

	"github.com/inventory-system/inventory-web/internal/core/domain"
)

// AuthGateway is the authentication collaborator on the backend.
// Implementations return domain.ErrRejected for refused credentials or
// tokens and domain.ErrUnavailable for transport failures and 5xx answers.
type AuthGateway interface {
	Login(ctx context.Context, email, password string) (domain.Credential, *domain.User, error)
	Logout(ctx context.Context, cred domain.Credential) error
	Refresh(ctx context.Context, refresh string) (string, error)
	Me(ctx context.Context, access string) (*domain.User, error)
}
