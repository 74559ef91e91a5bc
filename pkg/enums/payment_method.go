package enums

import (
	"fmt"
	"strings"
)

// PaymentMethod describes how a shopper settles an order.
type PaymentMethod string

const (
	PaymentMethodCard   PaymentMethod = "credit_card"
	PaymentMethodPayPal PaymentMethod = "paypal"
)

var paymentMethodLabels = map[PaymentMethod]string{
	PaymentMethodCard:   "Credit Card",
	PaymentMethodPayPal: "PayPal",
}

func (p PaymentMethod) String() string {
	return string(p)
}

func (p PaymentMethod) IsValid() bool {
	_, ok := paymentMethodLabels[p]
	return ok
}

// Label is the name shown on the method toggle.
func (p PaymentMethod) Label() string {
	return paymentMethodLabels[p]
}

// FormState is the checkout state that collects this method's payment details.
func (p PaymentMethod) FormState() CheckoutState {
	if p == PaymentMethodPayPal {
		return CheckoutStatePaymentMethodSelect
	}
	return CheckoutStateCardCaptureForm
}

// SubmissionStatus is reported to the payment sink: card data is only processed by the
// receiver, while a PayPal capture has already completed.
func (p PaymentMethod) SubmissionStatus() PaymentStatus {
	if p == PaymentMethodPayPal {
		return PaymentStatusCompleted
	}
	return PaymentStatusProcessed
}

// ParsePaymentMethod accepts the wire value, case-insensitively.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	candidate := PaymentMethod(strings.ToLower(strings.TrimSpace(value)))
	if !candidate.IsValid() {
		return "", fmt.Errorf("invalid payment method %q", value)
	}
	return candidate, nil
}
