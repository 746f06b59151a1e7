package repository

import (
	"context"

	"github.com/tanmaydk/shopcore/internal/domain/model"
)

// CartRepository exposes the cart store to checkout.
type CartRepository interface {
	GetActiveCart(ctx context.Context, userID string) (*model.Cart, error)
	Clear(ctx context.Context, cartID string) error
}
