package checkout

import (
	"encoding/json"
	"time"

	checkoutsvc "github.com/angelmondragon/merch-checkout/internal/checkout"
	"github.com/angelmondragon/merch-checkout/internal/payments"
	pkgcheckout "github.com/angelmondragon/merch-checkout/pkg/checkout"
	"github.com/angelmondragon/merch-checkout/pkg/types"
)

type TotalsResponse struct {
	Subtotal json.Number `json:"subtotal"`
	Shipping json.Number `json:"shipping"`
	Tax      json.Number `json:"tax"`
	Total    json.Number `json:"total"`
}

type SummaryLineResponse struct {
	Label     string      `json:"label"`
	Image     string      `json:"image,omitempty"`
	LineTotal json.Number `json:"lineTotal"`
}

type SummaryResponse struct {
	Lines     []SummaryLineResponse `json:"lines"`
	ItemCount int                   `json:"itemCount"`
	Totals    TotalsResponse        `json:"totals"`
	Currency  string                `json:"currency"`
}

// CardResponse is the display form of a card; it never carries the full number.
type CardResponse struct {
	Brand      string `json:"brand"`
	IconClass  string `json:"iconClass"`
	Masked     string `json:"masked"`
	Expiry     string `json:"expiry"`
	HolderName string `json:"holderName"`
}

type SessionResponse struct {
	ID             string         `json:"id"`
	StartedAt      time.Time      `json:"startedAt"`
	Contact        types.Contact  `json:"contact"`
	Shipping       types.Address  `json:"shipping"`
	SameAsShipping bool           `json:"sameAsShipping"`
	Billing        *types.Address `json:"billing,omitempty"`
	Method         string         `json:"method"`
	Card           *CardResponse  `json:"card,omitempty"`
	PayPalTxn      string         `json:"paypalTransactionId,omitempty"`
	Error          string         `json:"error,omitempty"`
}

type ReceiptResponse struct {
	OrderID     string      `json:"orderId"`
	Method      string      `json:"method"`
	Status      string      `json:"status"`
	Total       json.Number `json:"total"`
	Currency    string      `json:"currency"`
	Reference   string      `json:"reference"`
	SubmittedAt time.Time   `json:"submittedAt"`
}

// CheckoutResponse reports the flow state. Editable is true while the shopper can
// still change checkout data.
type CheckoutResponse struct {
	State       string           `json:"state"`
	Editable    bool             `json:"editable"`
	Session     *SessionResponse `json:"session,omitempty"`
	Summary     SummaryResponse  `json:"summary"`
	LastReceipt *ReceiptResponse `json:"lastReceipt,omitempty"`
}

func newCheckoutResponse(ctrl *checkoutsvc.Controller) CheckoutResponse {
	state := ctrl.State()
	return CheckoutResponse{
		State:       state.String(),
		Editable:    state.AcceptsFormInput(),
		Session:     newSessionResponse(ctrl.Session()),
		Summary:     newSummaryResponse(ctrl.Summary()),
		LastReceipt: newReceiptResponse(ctrl.LastReceipt()),
	}
}

func newSummaryResponse(s checkoutsvc.Summary) SummaryResponse {
	lines := make([]SummaryLineResponse, 0, len(s.Lines))
	for _, line := range s.Lines {
		lines = append(lines, SummaryLineResponse{
			Label:     line.Label,
			Image:     line.Image,
			LineTotal: json.Number(line.LineTotal.StringFixed(2)),
		})
	}
	return SummaryResponse{
		Lines:     lines,
		ItemCount: s.ItemCount,
		Totals:    newTotalsResponse(s.Totals),
		Currency:  s.Currency,
	}
}

func newTotalsResponse(t checkoutsvc.Totals) TotalsResponse {
	return TotalsResponse{
		Subtotal: json.Number(t.Subtotal.StringFixed(2)),
		Shipping: json.Number(t.Shipping.StringFixed(2)),
		Tax:      json.Number(t.Tax.StringFixed(2)),
		Total:    json.Number(t.Total.StringFixed(2)),
	}
}

func newSessionResponse(s *checkoutsvc.Session) *SessionResponse {
	if s == nil {
		return nil
	}
	out := &SessionResponse{
		ID:             s.ID.String(),
		StartedAt:      s.StartedAt,
		Contact:        s.Contact,
		Shipping:       s.Shipping,
		SameAsShipping: s.SameAsShipping,
		Billing:        s.Billing,
		Method:         s.Method.String(),
		Error:          s.Error,
	}
	if s.Card != nil {
		out.Card = &CardResponse{
			Brand:      s.Card.Brand.String(),
			IconClass:  s.Card.Brand.IconClass(),
			Masked:     s.Card.Masked(),
			Expiry:     s.Card.Expiry(),
			HolderName: s.Card.HolderName,
		}
	}
	if s.PayPal != nil {
		out.PayPalTxn = s.PayPal.TransactionID
	}
	return out
}

func newReceiptResponse(r *payments.Receipt) *ReceiptResponse {
	if r == nil {
		return nil
	}
	return &ReceiptResponse{
		OrderID:     r.OrderID.String(),
		Method:      r.Method.String(),
		Status:      r.Status.String(),
		Total:       json.Number(r.Total.StringFixed(2)),
		Currency:    r.Currency,
		Reference:   r.Reference,
		SubmittedAt: r.SubmittedAt,
	}
}

// CardPreviewResponse drives the live card field: grouped digits, brand icon and the
// CVC length to expect.
type CardPreviewResponse struct {
	Formatted string `json:"formatted"`
	Brand     string `json:"brand"`
	IconClass string `json:"iconClass"`
	CVCLength int    `json:"cvcLength"`
}

func newCardPreviewResponse(number string) CardPreviewResponse {
	brand := pkgcheckout.DetectBrand(number)
	return CardPreviewResponse{
		Formatted: pkgcheckout.FormatCardNumber(number),
		Brand:     brand.String(),
		IconClass: brand.IconClass(),
		CVCLength: brand.CVCLength(),
	}
}
