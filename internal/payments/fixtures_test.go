package payments

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/merch-checkout/internal/cart"
	"github.com/angelmondragon/merch-checkout/pkg/enums"
	"github.com/angelmondragon/merch-checkout/pkg/types"
)

func cardOrder() Order {
	return Order{
		ID: uuid.MustParse("6f1c2d8e-3b7a-4c55-9a61-0d2e4f8b9c10"),
		Items: []cart.Item{
			{ID: "tour-tee", Name: "Tour Tee", Price: decimal.RequireFromString("25.00"), Size: "M", Quantity: 1},
		},
		Contact: types.Contact{Email: "ada@example.com", Phone: "555-123-4567"},
		Shipping: types.Address{
			Name: "Ada Lovelace", Address1: "1 Analytical Way", City: "Austin", State: "TX", Zip: "78701", Country: "US",
		},
		Method: enums.PaymentMethodCard,
		Card: &CardInstrument{
			Brand: enums.CardBrandVisa, Last4: "0366", HolderName: "Ada Lovelace", Expiry: "12/29",
		},
		Subtotal:     decimal.RequireFromString("25.00"),
		ShippingCost: decimal.RequireFromString("5.99"),
		Tax:          decimal.RequireFromString("2.06"),
		Total:        decimal.RequireFromString("33.05"),
		Currency:     "USD",
	}
}

func paypalOrder() Order {
	o := cardOrder()
	o.Method = enums.PaymentMethodPayPal
	o.Card = nil
	o.PayPal = &PayPalCapture{
		TransactionID: "PAY-123",
		PayerID:       "PAYER-9",
		PayerEmail:    "ada@example.com",
		Amount:        decimal.RequireFromString("33.05"),
	}
	return o
}
