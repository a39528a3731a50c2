package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"storefront/api/internal/apperr"
	"storefront/api/internal/ids"
	"storefront/api/internal/metrics"
	"storefront/api/internal/models"
	"storefront/api/internal/repository"
)

type ProductLookup interface {
	FindProduct(ctx context.Context, id string) (models.Product, error)
}

type AccountSaver interface {
	Save(ctx context.Context, account *models.Account) error
}

type CartService struct {
	accounts AccountSaver
	products ProductLookup
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

func NewCartService(accounts AccountSaver, products ProductLookup, m *metrics.Metrics, log zerolog.Logger) *CartService {
	return &CartService{
		accounts: accounts,
		products: products,
		metrics:  m,
		log:      log,
	}
}

// ApplyDelta adds delta to the line for productID, removing the line once its quantity
// drops to zero or below. A product not yet in the cart must exist and be sellable; its
// line starts at delta as given. Returns the aggregate item count after saving.
func (s *CartService) ApplyDelta(ctx context.Context, account *models.Account, productID string, delta int) (int, error) {
	if !ids.Valid(productID) {
		return 0, apperr.New(apperr.KindInvalidProductID, "invalid product id")
	}
	if !quantityInRange(delta) {
		return 0, errQuantityRange
	}

	cart := make([]models.CartLine, 0, len(account.Cart)+1)
	cart = append(cart, account.Cart...)
	outcome := "updated"

	if idx := account.CartLineIndex(productID); idx >= 0 {
		quantity := cart[idx].Quantity + delta
		if !quantityInRange(quantity) {
			return 0, errQuantityRange
		}
		if quantity <= 0 {
			cart = append(cart[:idx], cart[idx+1:]...)
			outcome = "removed"
		} else {
			cart[idx].Quantity = quantity
		}
	} else {
		product, err := s.products.FindProduct(ctx, productID)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				return 0, apperr.New(apperr.KindProductUnavailable, "product not found")
			}
			return 0, fmt.Errorf("find product: %w", err)
		}
		if !product.Sellable {
			return 0, apperr.New(apperr.KindProductUnavailable, "product not found")
		}
		cart = append(cart, models.CartLine{ProductID: productID, Quantity: delta})
		outcome = "added"
	}

	previous := account.Cart
	account.Cart = cart
	if err := s.accounts.Save(ctx, account); err != nil {
		account.Cart = previous
		return 0, err
	}

	s.metrics.CartUpdated(outcome)
	return account.CartQuantity(), nil
}

var errQuantityRange = apperr.Validation("quantity", "quantity is out of range")

// Quantities are stored as 32-bit integers. Both operands of a line update are checked
// against this range first, so their sum cannot overflow int.
func quantityInRange(q int) bool {
	return q >= math.MinInt32 && q <= math.MaxInt32
}

// CartItem is a cart line resolved to the product's current snapshot. Product is nil when
// the referenced product no longer exists.
type CartItem struct {
	Product  *models.Product
	Quantity int
}

func (s *CartService) GetCart(ctx context.Context, account *models.Account) ([]CartItem, error) {
	items := make([]CartItem, 0, len(account.Cart))
	for _, line := range account.Cart {
		item := CartItem{Quantity: line.Quantity}

		product, err := s.products.FindProduct(ctx, line.ProductID)
		switch {
		case err == nil:
			item.Product = &product
		case errors.Is(err, repository.ErrProductNotFound):
			s.log.Warn().Str("account_id", account.ID).Str("product_id", line.ProductID).Msg("cart references missing product")
		default:
			return nil, fmt.Errorf("resolve cart product %s: %w", line.ProductID, err)
		}

		items = append(items, item)
	}
	return items, nil
}
