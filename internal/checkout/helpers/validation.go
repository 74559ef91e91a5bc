package helpers

import (
	"fmt"
	"time"

	"github.com/angelmondragon/merch-checkout/pkg/checkout"
	"github.com/angelmondragon/merch-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/merch-checkout/pkg/errors"
	"github.com/angelmondragon/merch-checkout/pkg/types"
)

var shippingRequired = []requiredField{
	{FieldEmail, "Email"},
	{FieldPhone, "Phone"},
	{FieldShippingName, "Full Name"},
	{FieldShippingAddress1, "Address"},
	{FieldShippingCity, "City"},
	{FieldShippingState, "State"},
	{FieldShippingZip, "ZIP"},
}

var billingRequired = []requiredField{
	{FieldBillingName, "Full Name"},
	{FieldBillingAddress1, "Address"},
	{FieldBillingCity, "City"},
	{FieldBillingState, "State"},
	{FieldBillingZip, "ZIP"},
}

// MissingFieldMessage is the prompt shown for an empty required field.
func MissingFieldMessage(label string) string {
	return fmt.Sprintf("Please fill in the %s field", label)
}

func fieldError(field, label, msg string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, msg).
		WithDetails(map[string]any{"field": field, "label": label})
}

// ShippingInput is the contact and address data accepted from the shipping form.
type ShippingInput struct {
	Contact types.Contact
	Address types.Address
}

// ValidateShipping checks required fields in form order and reports only the first
// problem, then checks the email, phone and postal code shapes.
func ValidateShipping(src FieldSource, defaultCountry string) (*ShippingInput, error) {
	for _, f := range shippingRequired {
		if value(src, f.name) == "" {
			return nil, fieldError(f.name, f.label, MissingFieldMessage(f.label))
		}
	}
	country, ok := countryValue(src, FieldShippingCountry, defaultCountry)
	if !ok {
		return nil, fieldError(FieldShippingCountry, "Country", MissingFieldMessage("Country"))
	}

	email := value(src, FieldEmail)
	if res := checkout.ValidateEmail(email, true); !res.Valid {
		return nil, fieldError(FieldEmail, "Email", res.Message)
	}
	phone := value(src, FieldPhone)
	if res := checkout.ValidatePhone(phone, true); !res.Valid {
		return nil, fieldError(FieldPhone, "Phone", res.Message)
	}
	zip := value(src, FieldShippingZip)
	if res := checkout.ValidatePostalCode(zip, country, true); !res.Valid {
		return nil, fieldError(FieldShippingZip, "ZIP", res.Message)
	}

	return &ShippingInput{
		Contact: types.Contact{Email: email, Phone: phone},
		Address: types.Address{
			Name:     value(src, FieldShippingName),
			Address1: value(src, FieldShippingAddress1),
			Address2: value(src, FieldShippingAddress2),
			City:     value(src, FieldShippingCity),
			State:    value(src, FieldShippingState),
			Zip:      zip,
			Country:  country,
		}.Normalized(),
	}, nil
}

// CardInput is a card that passed every field check.
type CardInput struct {
	Number      string
	Brand       enums.CardBrand
	ExpiryMonth int
	ExpiryYear  int
	CVC         string
	HolderName  string

	SameAsShipping bool
	Billing        *types.Address
}

// ValidateCard runs every card check and, when billing differs from shipping, the
// billing required fields. All failures are reported together keyed by field name.
func ValidateCard(src FieldSource, now time.Time, defaultCountry string) (*CardInput, error) {
	number := checkout.Digits(value(src, FieldCardNumber))
	brand := checkout.DetectBrand(number)
	expiry := value(src, FieldCardExpiry)
	cvc := value(src, FieldCardCVC)
	holder := value(src, FieldCardholderName)

	failures := map[string]string{}
	record := func(field string, res checkout.FieldResult) {
		if !res.Valid {
			failures[field] = res.Message
		}
	}
	record(FieldCardNumber, checkout.ValidateCardNumber(number, true))
	record(FieldCardExpiry, checkout.ValidateExpiry(expiry, now, true))
	record(FieldCardCVC, checkout.ValidateCVC(cvc, brand, true))
	record(FieldCardholderName, checkout.ValidateHolderName(holder, true))

	sameAsShipping := flag(src, FieldSameAsShipping, true)
	var billing *types.Address
	if !sameAsShipping {
		for _, f := range billingRequired {
			if value(src, f.name) == "" {
				failures[f.name] = MissingFieldMessage(f.label)
			}
		}
		country, ok := countryValue(src, FieldBillingCountry, defaultCountry)
		if !ok {
			failures[FieldBillingCountry] = MissingFieldMessage("Country")
		}
		addr := types.Address{
			Name:     value(src, FieldBillingName),
			Address1: value(src, FieldBillingAddress1),
			Address2: value(src, FieldBillingAddress2),
			City:     value(src, FieldBillingCity),
			State:    value(src, FieldBillingState),
			Zip:      value(src, FieldBillingZip),
			Country:  country,
		}.Normalized()
		billing = &addr
	}

	if len(failures) > 0 {
		return nil, pkgerrors.InvalidFields("Please correct the highlighted fields", failures)
	}

	month, year, _ := checkout.ParseExpiry(expiry)
	return &CardInput{
		Number:         number,
		Brand:          brand,
		ExpiryMonth:    month,
		ExpiryYear:     year,
		CVC:            cvc,
		HolderName:     holder,
		SameAsShipping: sameAsShipping,
		Billing:        billing,
	}, nil
}
