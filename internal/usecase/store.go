package usecase

import (
	"context"

	"github.com/Candy2803/mpesa/internal/domain"
)

// Store is the transaction record store contract. The sqlite repository
// satisfies it; reconciliation depends on its sparse uniqueness guarantees
// for checkout request IDs and receipt numbers. Lookups report a missing
// record as repository.ErrNotFound and inserts report uniqueness collisions
// as repository.ErrDuplicate.
type Store interface {
	Insert(ctx context.Context, t *domain.Transaction) error
	Update(ctx context.Context, t *domain.Transaction) error
	FindByID(ctx context.Context, id string) (*domain.Transaction, error)
	FindByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*domain.Transaction, error)
	FindByMerchantRequestID(ctx context.Context, merchantRequestID string) (*domain.Transaction, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Transaction, error)
}
