package checkout

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/merch-checkout/internal/checkout/helpers"
	"github.com/angelmondragon/merch-checkout/internal/payments"
	"github.com/angelmondragon/merch-checkout/pkg/enums"
)

// ShippingRequest mirrors the shipping form. Absent fields stay nil so the form
// validator can tell an omitted country from a blank one.
type ShippingRequest struct {
	Email    *string `json:"email" validate:"omitempty,max=254"`
	Phone    *string `json:"phone" validate:"omitempty,max=32"`
	Name     *string `json:"fullName" validate:"omitempty,max=200"`
	Address1 *string `json:"address1" validate:"omitempty,max=200"`
	Address2 *string `json:"address2" validate:"omitempty,max=200"`
	City     *string `json:"city" validate:"omitempty,max=100"`
	State    *string `json:"state" validate:"omitempty,max=100"`
	Zip      *string `json:"zip" validate:"omitempty,max=16"`
	Country  *string `json:"country" validate:"omitempty,max=2"`
}

func (s ShippingRequest) fields() helpers.MapFieldSource {
	src := helpers.MapFieldSource{}
	put(src, helpers.FieldEmail, s.Email)
	put(src, helpers.FieldPhone, s.Phone)
	put(src, helpers.FieldShippingName, s.Name)
	put(src, helpers.FieldShippingAddress1, s.Address1)
	put(src, helpers.FieldShippingAddress2, s.Address2)
	put(src, helpers.FieldShippingCity, s.City)
	put(src, helpers.FieldShippingState, s.State)
	put(src, helpers.FieldShippingZip, s.Zip)
	put(src, helpers.FieldShippingCountry, s.Country)
	return src
}

type BillingRequest struct {
	Name     *string `json:"fullName" validate:"omitempty,max=200"`
	Address1 *string `json:"address1" validate:"omitempty,max=200"`
	Address2 *string `json:"address2" validate:"omitempty,max=200"`
	City     *string `json:"city" validate:"omitempty,max=100"`
	State    *string `json:"state" validate:"omitempty,max=100"`
	Zip      *string `json:"zip" validate:"omitempty,max=16"`
	Country  *string `json:"country" validate:"omitempty,max=2"`
}

// CardRequest carries the card form. Number and CVC only live for this request.
type CardRequest struct {
	Number         string          `json:"cardNumber" validate:"max=32"`
	Expiry         string          `json:"expiry" validate:"max=7"`
	CVC            string          `json:"cvc" validate:"max=4"`
	HolderName     string          `json:"cardholderName" validate:"max=200"`
	SameAsShipping *bool           `json:"sameAsShipping"`
	Billing        *BillingRequest `json:"billing"`
}

func (c CardRequest) fields() helpers.MapFieldSource {
	src := helpers.MapFieldSource{
		helpers.FieldCardNumber:     c.Number,
		helpers.FieldCardExpiry:     c.Expiry,
		helpers.FieldCardCVC:        c.CVC,
		helpers.FieldCardholderName: c.HolderName,
	}
	if c.SameAsShipping != nil {
		src[helpers.FieldSameAsShipping] = strconv.FormatBool(*c.SameAsShipping)
	}
	if b := c.Billing; b != nil {
		put(src, helpers.FieldBillingName, b.Name)
		put(src, helpers.FieldBillingAddress1, b.Address1)
		put(src, helpers.FieldBillingAddress2, b.Address2)
		put(src, helpers.FieldBillingCity, b.City)
		put(src, helpers.FieldBillingState, b.State)
		put(src, helpers.FieldBillingZip, b.Zip)
		put(src, helpers.FieldBillingCountry, b.Country)
	}
	return src
}

// CardPreviewRequest carries a partially typed card number.
type CardPreviewRequest struct {
	Number string `json:"cardNumber" validate:"max=32"`
}

type MethodRequest struct {
	Method string `json:"method" validate:"required,oneof=credit_card paypal"`
}

func (m MethodRequest) method() enums.PaymentMethod {
	method, _ := enums.ParsePaymentMethod(m.Method)
	return method
}

type PayPalRequest struct {
	TransactionID string          `json:"transactionId" validate:"required,max=128"`
	PayerID       string          `json:"payerId" validate:"omitempty,max=128"`
	PayerEmail    string          `json:"payerEmail" validate:"omitempty,email"`
	Amount        decimal.Decimal `json:"amount"`
}

func (p PayPalRequest) capture() payments.PayPalCapture {
	return payments.PayPalCapture{
		TransactionID: p.TransactionID,
		PayerID:       p.PayerID,
		PayerEmail:    p.PayerEmail,
		Amount:        p.Amount,
	}
}

type PayPalFailureRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

func put(src helpers.MapFieldSource, name string, v *string) {
	if v != nil {
		src[name] = *v
	}
}
