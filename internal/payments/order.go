package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/merch-checkout/internal/cart"
	"github.com/angelmondragon/merch-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/merch-checkout/pkg/errors"
	"github.com/angelmondragon/merch-checkout/pkg/types"
)

// CardInstrument is the part of a card that may leave the process. The full number
// and the security code are never part of it.
type CardInstrument struct {
	Brand      enums.CardBrand
	Last4      string
	HolderName string
	Expiry     string
}

// PayPalCapture is what the PayPal buttons hand back after the buyer approves.
type PayPalCapture struct {
	TransactionID string          `json:"transactionId" validate:"required"`
	PayerID       string          `json:"payerId"`
	PayerEmail    string          `json:"payerEmail"`
	Amount        decimal.Decimal `json:"amount"`
}

// Order is a fully priced checkout ready to be submitted.
type Order struct {
	ID       uuid.UUID
	Items    []cart.Item
	Contact  types.Contact
	Shipping types.Address
	// Billing is nil when the buyer chose to bill the shipping address.
	Billing *types.Address
	Method  enums.PaymentMethod
	Card    *CardInstrument
	PayPal  *PayPalCapture

	Subtotal     decimal.Decimal
	ShippingCost decimal.Decimal
	Tax          decimal.Decimal
	Total        decimal.Decimal
	Currency     string
}

// BillingAddress resolves the address the instrument is billed to.
func (o Order) BillingAddress() types.Address {
	if o.Billing == nil {
		return o.Shipping
	}
	return *o.Billing
}

// Validate checks that the order carries exactly the instrument its method needs.
func (o Order) Validate() error {
	switch {
	case o.ID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	case len(o.Items) == 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "order has no items")
	case !o.Total.IsPositive():
		return pkgerrors.New(pkgerrors.CodeValidation, "order total must be positive")
	}

	switch o.Method {
	case enums.PaymentMethodCard:
		if o.Card == nil || o.PayPal != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "card orders need exactly a card instrument")
		}
	case enums.PaymentMethodPayPal:
		if o.PayPal == nil || o.Card != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "paypal orders need exactly a paypal capture")
		}
		if o.PayPal.TransactionID == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "paypal transaction id required")
		}
		if !o.PayPal.Amount.Equal(o.Total) {
			return pkgerrors.New(pkgerrors.CodeValidation, "paypal captured amount does not match order total").
				WithDetails(map[string]any{"captured": o.PayPal.Amount.StringFixed(2), "total": o.Total.StringFixed(2)})
		}
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment method").
			WithDetails(map[string]any{"method": o.Method})
	}
	return nil
}

// Receipt confirms an accepted submission.
type Receipt struct {
	OrderID     uuid.UUID           `json:"orderId"`
	Method      enums.PaymentMethod `json:"method"`
	Status      enums.PaymentStatus `json:"status"`
	Total       decimal.Decimal     `json:"total"`
	Currency    string              `json:"currency"`
	Reference   string              `json:"reference"`
	SubmittedAt time.Time           `json:"submittedAt"`
}
