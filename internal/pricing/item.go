package pricing

import (
	"errors"
	"math"
	"strings"
)

// ItemType enumerates the kinds of line items a billing document can carry.
type ItemType string

const (
	ItemTire               ItemType = "TIRE"
	ItemService            ItemType = "SERVICE"
	ItemPart               ItemType = "PART"
	ItemOther              ItemType = "OTHER"
	ItemLevy               ItemType = "LEVY"
	ItemDiscount           ItemType = "DISCOUNT"
	ItemDiscountPercentage ItemType = "DISCOUNT_PERCENTAGE"
)

var (
	ErrUnknownItemType   = errors.New("unknown item type")
	ErrEmptyDescription  = errors.New("item description is required")
	ErrInvalidQuantity   = errors.New("item quantity must be at least 1")
	ErrInvalidUnitPrice  = errors.New("item unit price must be greater than zero")
	ErrInvalidDiscount   = errors.New("discount amount must be greater than zero")
	ErrInvalidPercentage = errors.New("discount percentage must be between 0 and 100")
)

// Valid reports whether t is a member of the closed item type set.
func (t ItemType) Valid() bool {
	switch t {
	case ItemTire, ItemService, ItemPart, ItemOther, ItemLevy, ItemDiscount, ItemDiscountPercentage:
		return true
	}
	return false
}

// IsDiscount reports whether t is one of the two discount kinds.
// Discount items are excluded from the gross base and contribute
// negative amounts to the subtotal.
func (t ItemType) IsDiscount() bool {
	return t == ItemDiscount || t == ItemDiscountPercentage
}

// LineItem is a single row of a billing document.
//
// UnitPrice carries a different meaning per type: a positive unit price for
// merchandise and services, a negative fixed amount for DISCOUNT, and a
// percentage in [0,100] for DISCOUNT_PERCENTAGE. The stored type decides
// which interpretation applies; callers never branch on price sign.
type LineItem struct {
	Type        ItemType `json:"item_type"`
	Description string   `json:"description"`
	Quantity    int      `json:"quantity"`
	UnitPrice   float64  `json:"unit_price"`
	ReferenceID *int64   `json:"reference_id,omitempty"`
}

// NewLineItem validates fields against the item type and returns a
// normalized item ready to enter a document.
//
// Flat discounts are supplied by the operator as a positive magnitude and
// negated here, once, at the entry point. Recomputes never touch the sign
// again.
func NewLineItem(t ItemType, description string, quantity int, unitPrice float64, referenceID *int64) (LineItem, error) {
	if !t.Valid() {
		return LineItem{}, ErrUnknownItemType
	}
	if strings.TrimSpace(description) == "" {
		return LineItem{}, ErrEmptyDescription
	}

	item := LineItem{
		Type:        t,
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		ReferenceID: referenceID,
	}

	switch t {
	case ItemDiscount:
		if unitPrice <= 0 {
			return LineItem{}, ErrInvalidDiscount
		}
		item.UnitPrice = -unitPrice
		if item.Quantity < 1 {
			item.Quantity = 1
		}
	case ItemDiscountPercentage:
		if unitPrice < 0 || unitPrice > 100 {
			return LineItem{}, ErrInvalidPercentage
		}
		if item.Quantity < 1 {
			item.Quantity = 1
		}
	default:
		if quantity < 1 {
			return LineItem{}, ErrInvalidQuantity
		}
		if unitPrice <= 0 {
			return LineItem{}, ErrInvalidUnitPrice
		}
	}

	return item, nil
}

// Validate checks an already-normalized item, such as one loaded from
// storage. Unlike NewLineItem it expects flat discounts to carry their
// stored negative price.
func (it LineItem) Validate() error {
	if !it.Type.Valid() {
		return ErrUnknownItemType
	}
	if strings.TrimSpace(it.Description) == "" {
		return ErrEmptyDescription
	}
	switch it.Type {
	case ItemDiscount:
		if it.UnitPrice >= 0 {
			return ErrInvalidDiscount
		}
	case ItemDiscountPercentage:
		if it.UnitPrice < 0 || it.UnitPrice > 100 {
			return ErrInvalidPercentage
		}
	default:
		if it.Quantity < 1 {
			return ErrInvalidQuantity
		}
		if it.UnitPrice <= 0 || math.IsNaN(it.UnitPrice) || math.IsInf(it.UnitPrice, 0) {
			return ErrInvalidUnitPrice
		}
	}
	return nil
}
