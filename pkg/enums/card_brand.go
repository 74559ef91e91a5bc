package enums

import "fmt"

// CardBrand is the card network derived from a card number prefix.
type CardBrand string

const (
	CardBrandVisa       CardBrand = "visa"
	CardBrandMastercard CardBrand = "mastercard"
	CardBrandAmex       CardBrand = "amex"
	CardBrandDiscover   CardBrand = "discover"
	CardBrandUnknown    CardBrand = "unknown"
)

var validCardBrands = []CardBrand{
	CardBrandVisa,
	CardBrandMastercard,
	CardBrandAmex,
	CardBrandDiscover,
	CardBrandUnknown,
}

// String implements fmt.Stringer.
func (b CardBrand) String() string {
	return string(b)
}

// IsValid reports whether the value is a known CardBrand.
func (b CardBrand) IsValid() bool {
	for _, candidate := range validCardBrands {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseCardBrand converts raw input into a CardBrand.
func ParseCardBrand(value string) (CardBrand, error) {
	for _, candidate := range validCardBrands {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid card brand %q", value)
}

// CVCLength returns the number of digits the brand prints on the card.
func (b CardBrand) CVCLength() int {
	if b == CardBrandAmex {
		return 4
	}
	return 3
}

// IconClass is the font-awesome class the storefront shows next to the card preview.
func (b CardBrand) IconClass() string {
	switch b {
	case CardBrandMastercard:
		return "fab fa-cc-mastercard"
	case CardBrandAmex:
		return "fab fa-cc-amex"
	case CardBrandDiscover:
		return "fab fa-cc-discover"
	default:
		return "fab fa-cc-visa"
	}
}
