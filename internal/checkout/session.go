package checkout

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/merch-checkout/internal/cart"
	"github.com/angelmondragon/merch-checkout/internal/payments"
	"github.com/angelmondragon/merch-checkout/pkg/checkout"
	"github.com/angelmondragon/merch-checkout/pkg/enums"
	"github.com/angelmondragon/merch-checkout/pkg/types"
)

// Pricing holds the configured amounts applied to every order.
type Pricing struct {
	TaxRate        decimal.Decimal
	Shipping       decimal.Decimal
	Currency       string
	DefaultCountry string
}

// Totals is the priced breakdown of an order.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// ComputeTotals rounds tax and the grand total to cents and adds the flat shipping charge.
func ComputeTotals(subtotal decimal.Decimal, p Pricing) Totals {
	tax := subtotal.Mul(p.TaxRate).Round(2)
	return Totals{
		Subtotal: subtotal,
		Shipping: p.Shipping,
		Tax:      tax,
		Total:    subtotal.Add(p.Shipping).Add(tax).Round(2),
	}
}

// CardDetails holds a card for the span of one submission.
type CardDetails struct {
	Number      string          `json:"-"`
	CVC         string          `json:"-"`
	Brand       enums.CardBrand `json:"brand"`
	Last4       string          `json:"last4"`
	ExpiryMonth int             `json:"expiryMonth"`
	ExpiryYear  int             `json:"expiryYear"`
	HolderName  string          `json:"holderName"`
}

// Expiry formats the expiry as MM/YY.
func (c CardDetails) Expiry() string {
	return fmt.Sprintf("%02d/%02d", c.ExpiryMonth, c.ExpiryYear%100)
}

// Masked renders the card for display.
func (c CardDetails) Masked() string {
	return checkout.MaskCardNumber(c.Last4)
}

// Redacted drops the full number and security code.
func (c CardDetails) Redacted() CardDetails {
	c.Number = ""
	c.CVC = ""
	return c
}

// Session is one pass through checkout, from Begin to a result or cancel.
type Session struct {
	ID             uuid.UUID               `json:"id"`
	StartedAt      time.Time               `json:"startedAt"`
	Items          []cart.Item             `json:"items,omitempty"`
	Contact        types.Contact           `json:"contact"`
	Shipping       types.Address           `json:"shipping"`
	Billing        *types.Address          `json:"billing,omitempty"`
	SameAsShipping bool                    `json:"sameAsShipping"`
	Method         enums.PaymentMethod     `json:"method"`
	Card           *CardDetails            `json:"card,omitempty"`
	PayPal         *payments.PayPalCapture `json:"paypal,omitempty"`
	Totals         *Totals                 `json:"totals,omitempty"`
	Error          string                  `json:"error,omitempty"`
}

// purge removes every sensitive card field.
func (s *Session) purge() {
	if s == nil || s.Card == nil {
		return
	}
	redacted := s.Card.Redacted()
	s.Card = &redacted
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Items = append([]cart.Item(nil), s.Items...)
	if s.Billing != nil {
		b := *s.Billing
		out.Billing = &b
	}
	if s.Card != nil {
		c := s.Card.Redacted()
		out.Card = &c
	}
	if s.PayPal != nil {
		p := *s.PayPal
		out.PayPal = &p
	}
	if s.Totals != nil {
		t := *s.Totals
		out.Totals = &t
	}
	return &out
}

// SummaryLine is one row of the order summary.
type SummaryLine struct {
	Label     string          `json:"label"`
	Image     string          `json:"image,omitempty"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// Summary is the order summary shown beside the checkout forms.
type Summary struct {
	Lines     []SummaryLine `json:"lines"`
	ItemCount int           `json:"itemCount"`
	Totals    Totals        `json:"totals"`
	Currency  string        `json:"currency"`
}

func buildSummary(items []cart.Item, p Pricing) Summary {
	lines := make([]SummaryLine, len(items))
	count := 0
	subtotal := decimal.Zero
	for i, item := range items {
		lines[i] = SummaryLine{Label: item.Label(), Image: item.Image, LineTotal: item.LineTotal()}
		count += item.Quantity
		subtotal = subtotal.Add(item.LineTotal())
	}
	return Summary{Lines: lines, ItemCount: count, Totals: ComputeTotals(subtotal, p), Currency: p.Currency}
}
