package payments

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/merch-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/merch-checkout/pkg/errors"
	"github.com/angelmondragon/merch-checkout/pkg/types"
)

func TestOrderValidate(t *testing.T) {
	assert.NoError(t, cardOrder().Validate())
	assert.NoError(t, paypalOrder().Validate())

	tests := map[string]func(o *Order){
		"missing id":     func(o *Order) { o.ID = uuid.Nil },
		"no items":       func(o *Order) { o.Items = nil },
		"zero total":     func(o *Order) { o.Total = decimal.Zero },
		"card without":   func(o *Order) { o.Card = nil },
		"both":           func(o *Order) { o.PayPal = paypalOrder().PayPal },
		"unknown method": func(o *Order) { o.Method = enums.PaymentMethod("cash") },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			o := cardOrder()
			mutate(&o)
			assert.True(t, pkgerrors.IsCode(o.Validate(), pkgerrors.CodeValidation))
		})
	}
}

func TestPayPalAmountMustMatchTotal(t *testing.T) {
	o := paypalOrder()
	o.PayPal.Amount = decimal.RequireFromString("30.00")
	err := o.Validate()
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	o.PayPal.Amount = decimal.RequireFromString("33.050")
	assert.NoError(t, o.Validate(), "equal amounts with different scale match")
}

func TestBillingAddressFallsBackToShipping(t *testing.T) {
	o := cardOrder()
	assert.Equal(t, o.Shipping, o.BillingAddress())

	billing := types.Address{Name: "Charles Babbage", Address1: "2 Engine St", City: "Dallas", State: "TX", Zip: "75201", Country: "US"}
	o.Billing = &billing
	assert.Equal(t, billing, o.BillingAddress())
}
