package pricing

import (
	"sort"

	"github.com/riversidefab/storefront-backend/pkg/db/models"
	pkgerrors "github.com/riversidefab/storefront-backend/pkg/errors"
)

// PriceResult is the outcome of pricing a product at a quantity. A product
// without a base price cannot be priced online and requires a manual quote.
type PriceResult struct {
	QuoteRequired bool
	UnitCents     int
}

// Priced builds a result carrying a concrete unit price.
func Priced(unitCents int) PriceResult {
	return PriceResult{UnitCents: unitCents}
}

// QuoteRequired builds a result flagging the product as quote-only.
func QuoteRequired() PriceResult {
	return PriceResult{QuoteRequired: true}
}

// UnitPrice resolves the per-unit price for the product at the given quantity.
// A product without a base price is quote-only at every quantity, even when a
// bulk tier would match. Otherwise tiers are evaluated from the highest
// minimum quantity down; the first tier the quantity satisfies wins, and the
// base price applies when none do.
func UnitPrice(product *models.Product, quantity int) (PriceResult, error) {
	if product == nil {
		return PriceResult{}, pkgerrors.New(pkgerrors.CodeValidation, "product is required")
	}
	if quantity < 1 {
		return PriceResult{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	if product.BasePriceCents == nil {
		return QuoteRequired(), nil
	}

	tiers := append([]models.ProductBulkTier(nil), product.BulkTiers...)
	sort.Slice(tiers, func(i, j int) bool {
		return tiers[i].MinQuantity > tiers[j].MinQuantity
	})
	for _, tier := range tiers {
		if quantity >= tier.MinQuantity {
			return Priced(tier.UnitPriceCents), nil
		}
	}

	return Priced(*product.BasePriceCents), nil
}

// LineSubtotalCents prices a single line at the given quantity.
func LineSubtotalCents(product *models.Product, quantity int) (int, error) {
	result, err := UnitPrice(product, quantity)
	if err != nil {
		return 0, err
	}
	if result.QuoteRequired {
		return 0, pkgerrors.New(pkgerrors.CodeStateConflict, "product requires a quote and cannot be priced")
	}
	return result.UnitCents * quantity, nil
}

// CartSubtotalCents sums the frozen line prices of the cart items.
func CartSubtotalCents(items []models.CartItem) int {
	total := 0
	for _, item := range items {
		total += item.SubtotalCents()
	}
	return total
}
