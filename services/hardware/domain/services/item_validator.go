// Package services contains stateless domain services for the hardware
// bounded context: item and quantity rules plus the reservation token codec.
package services

import (
	"fmt"
	"math"
	"net/url"
	"strings"
	"unicode"

	"github.com/hacklabs/hwlib/services/hardware/domain/models"
)

// MaxQuantity caps a single reservation.
const MaxQuantity = 100

// MaxStock is the largest total stock an item can hold; counts are stored
// as 32-bit integers.
const MaxStock = math.MaxInt32

// ValidateName enforces business rules for ItemName beyond the structural
// constraints enforced by the ItemName constructor (length 1 to 255).
//
// Business rules:
//   - No leading or trailing whitespace
//   - No control characters (Unicode category Cc)
//   - No consecutive spaces
//   - Must not be only whitespace characters
func ValidateName(name models.ItemName) error {
	s := name.String()

	if s != strings.TrimSpace(s) {
		return fmt.Errorf("item name must not have leading or trailing whitespace")
	}

	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("item name must not be only whitespace")
	}

	for _, r := range s {
		if unicode.IsControl(r) {
			return fmt.Errorf("item name must not contain control characters")
		}
	}

	if strings.Contains(s, "  ") {
		return fmt.Errorf("item name must not contain consecutive spaces")
	}

	return nil
}

// ValidateNewItem checks an item definition before bulk import.
func ValidateNewItem(item models.NewItem) error {
	if err := ValidateName(item.Name); err != nil {
		return fmt.Errorf("invalid name: %w", err)
	}
	if err := ValidateItemURL(item.URL); err != nil {
		return err
	}
	if item.TotalStock < 0 {
		return fmt.Errorf("stock must not be negative")
	}
	if item.TotalStock > MaxStock {
		return fmt.Errorf("stock %d exceeds %d", item.TotalStock, MaxStock)
	}
	return nil
}

// ValidateItemURL accepts absolute http(s) URLs only.
func ValidateItemURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("item url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("item url must use http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("item url must be absolute")
	}
	return nil
}

// ValidateQuantity enforces 1 <= qty <= MaxQuantity.
func ValidateQuantity(qty int) error {
	if qty < 1 {
		return fmt.Errorf("quantity %d is below 1", qty)
	}
	if qty > MaxQuantity {
		return fmt.Errorf("quantity %d exceeds %d", qty, MaxQuantity)
	}
	return nil
}
