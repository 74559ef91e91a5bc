package helpers

import "strings"

// FieldSource reads raw form input by field name. ok is false when the field was not
// submitted at all, which differs from a submitted empty value.
type FieldSource interface {
	Field(name string) (string, bool)
}

// MapFieldSource is a FieldSource over a plain map, used by the HTTP layer and tests.
type MapFieldSource map[string]string

func (m MapFieldSource) Field(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// Form field names, matching the storefront's input ids.
const (
	FieldEmail = "checkout-email"
	FieldPhone = "checkout-phone"

	FieldShippingName     = "shipping-name"
	FieldShippingAddress1 = "shipping-address1"
	FieldShippingAddress2 = "shipping-address2"
	FieldShippingCity     = "shipping-city"
	FieldShippingState    = "shipping-state"
	FieldShippingZip      = "shipping-zip"
	FieldShippingCountry  = "shipping-country"

	FieldSameAsShipping = "same-as-shipping"

	FieldBillingName     = "billing-name"
	FieldBillingAddress1 = "billing-address1"
	FieldBillingAddress2 = "billing-address2"
	FieldBillingCity     = "billing-city"
	FieldBillingState    = "billing-state"
	FieldBillingZip      = "billing-zip"
	FieldBillingCountry  = "billing-country"

	FieldCardNumber     = "card-number"
	FieldCardExpiry     = "card-expiry"
	FieldCardCVC        = "card-cvc"
	FieldCardholderName = "cardholder-name"
)

type requiredField struct {
	name  string
	label string
}

func value(src FieldSource, name string) string {
	if src == nil {
		return ""
	}
	v, _ := src.Field(name)
	return strings.TrimSpace(v)
}

// countryValue applies the default country only when the field was never submitted.
func countryValue(src FieldSource, name, fallback string) (string, bool) {
	if src == nil {
		return fallback, true
	}
	v, ok := src.Field(name)
	if !ok {
		return fallback, true
	}
	v = strings.ToUpper(strings.TrimSpace(v))
	return v, v != ""
}

// flag parses a checkbox-style value. Absent fields fall back to def.
func flag(src FieldSource, name string, def bool) bool {
	if src == nil {
		return def
	}
	v, ok := src.Field(name)
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
