package enums

import "fmt"

// CheckoutState is the step of the checkout flow a shopper is currently on.
type CheckoutState string

const (
	CheckoutStateBrowsing            CheckoutState = "browsing"
	CheckoutStateShippingForm        CheckoutState = "shipping_form"
	CheckoutStatePaymentMethodSelect CheckoutState = "payment_method_select"
	CheckoutStateCardCaptureForm     CheckoutState = "card_capture_form"
	CheckoutStateProcessing          CheckoutState = "processing"
	CheckoutStateSuccess             CheckoutState = "success"
	CheckoutStateError               CheckoutState = "error"
)

var validCheckoutStates = []CheckoutState{
	CheckoutStateBrowsing,
	CheckoutStateShippingForm,
	CheckoutStatePaymentMethodSelect,
	CheckoutStateCardCaptureForm,
	CheckoutStateProcessing,
	CheckoutStateSuccess,
	CheckoutStateError,
}

// String implements fmt.Stringer.
func (s CheckoutState) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CheckoutState.
func (s CheckoutState) IsValid() bool {
	for _, candidate := range validCheckoutStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseCheckoutState converts raw input into a CheckoutState.
func ParseCheckoutState(value string) (CheckoutState, error) {
	for _, candidate := range validCheckoutStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout state %q", value)
}

// IsTerminal reports whether the state ends a checkout session.
func (s CheckoutState) IsTerminal() bool {
	return s == CheckoutStateSuccess
}

// AcceptsFormInput reports whether the shopper can still edit checkout data.
func (s CheckoutState) AcceptsFormInput() bool {
	switch s {
	case CheckoutStateShippingForm, CheckoutStatePaymentMethodSelect, CheckoutStateCardCaptureForm, CheckoutStateError:
		return true
	}
	return false
}
