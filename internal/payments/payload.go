package payments

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/merch-checkout/pkg/enums"
	"github.com/angelmondragon/merch-checkout/pkg/types"
)

// Request is the JSON document posted to the order webhook.
type Request struct {
	OrderID       string              `json:"orderId"`
	Contact       types.Contact       `json:"contact"`
	Shipping      types.Address       `json:"shipping"`
	Billing       BillingPayload      `json:"billing"`
	Payment       PaymentPayload      `json:"payment"`
	Cart          []LinePayload       `json:"cart"`
	Subtotal      json.Number         `json:"subtotal"`
	ShippingCost  json.Number         `json:"shippingCost"`
	Tax           json.Number         `json:"tax"`
	Total         json.Number         `json:"total"`
	Currency      string              `json:"currency"`
	Timestamp     string              `json:"timestamp"`
	PaymentStatus enums.PaymentStatus `json:"paymentStatus"`
}

// BillingPayload carries only the flag when billing mirrors shipping.
type BillingPayload struct {
	SameAsShipping bool `json:"sameAsShipping"`
	*types.Address
}

type PaymentPayload struct {
	Method enums.PaymentMethod `json:"method"`

	CardType       enums.CardBrand `json:"cardType,omitempty"`
	Last4          string          `json:"last4,omitempty"`
	CardholderName string          `json:"cardholderName,omitempty"`
	Expiry         string          `json:"expiry,omitempty"`

	TransactionID string      `json:"transactionId,omitempty"`
	PayerID       string      `json:"payerId,omitempty"`
	PayerEmail    string      `json:"payerEmail,omitempty"`
	Amount        json.Number `json:"amount,omitempty"`
}

type LinePayload struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Price    json.Number `json:"price"`
	Image    string      `json:"image,omitempty"`
	Size     string      `json:"size,omitempty"`
	Quantity int         `json:"quantity"`
}

func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

// BuildRequest maps a validated order onto the webhook document.
func BuildRequest(order Order, now time.Time) Request {
	req := Request{
		OrderID:      order.ID.String(),
		Contact:      order.Contact,
		Shipping:     order.Shipping,
		Cart:         make([]LinePayload, len(order.Items)),
		Subtotal:     money(order.Subtotal),
		ShippingCost: money(order.ShippingCost),
		Tax:          money(order.Tax),
		Total:        money(order.Total),
		Currency:     order.Currency,
		Timestamp:    now.UTC().Format(time.RFC3339Nano),
	}

	req.Billing.SameAsShipping = order.Billing == nil
	if order.Billing != nil {
		billing := *order.Billing
		req.Billing.Address = &billing
	}

	for i, item := range order.Items {
		req.Cart[i] = LinePayload{
			ID:       item.ID,
			Name:     item.Name,
			Price:    json.Number(item.Price.String()),
			Image:    item.Image,
			Size:     item.Size,
			Quantity: item.Quantity,
		}
	}

	req.Payment.Method = order.Method
	req.PaymentStatus = order.Method.SubmissionStatus()
	switch order.Method {
	case enums.PaymentMethodCard:
		if card := order.Card; card != nil {
			req.Payment.CardType = card.Brand
			req.Payment.Last4 = card.Last4
			req.Payment.CardholderName = card.HolderName
			req.Payment.Expiry = card.Expiry
		}
	case enums.PaymentMethodPayPal:
		if pp := order.PayPal; pp != nil {
			req.Payment.TransactionID = pp.TransactionID
			req.Payment.PayerID = pp.PayerID
			req.Payment.PayerEmail = pp.PayerEmail
			req.Payment.Amount = money(pp.Amount)
		}
	}
	return req
}
