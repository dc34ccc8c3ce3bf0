// Package pricing derives the sale price of catalog items.
package pricing

import "skins-market/internal/domain"

// RealPrice applies a whole-percent discount to base and floors the result.
// A zero discount returns base unchanged.
func RealPrice(base int64, discount int) int64 {
	if discount <= 0 {
		return base
	}
	return base * int64(100-discount) / 100
}

// Validate checks the preconditions of RealPrice.
func Validate(base int64, discount int) error {
	if base < 0 {
		return domain.Invalid("priceWithoutSale", "must not be negative")
	}
	if discount < 0 || discount > 100 {
		return domain.Invalid("sale", "must be between 0 and 100")
	}
	return nil
}
