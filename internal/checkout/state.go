package checkout

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/merch-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/merch-checkout/pkg/errors"
)

// AllowedTransitions lists every state the flow may move to from a given state.
var AllowedTransitions = map[enums.CheckoutState][]enums.CheckoutState{
	enums.CheckoutStateBrowsing: {
		enums.CheckoutStateShippingForm,
	},
	enums.CheckoutStateShippingForm: {
		enums.CheckoutStateCardCaptureForm,
		enums.CheckoutStateBrowsing,
	},
	enums.CheckoutStateCardCaptureForm: {
		enums.CheckoutStateProcessing,
		enums.CheckoutStatePaymentMethodSelect,
		enums.CheckoutStateShippingForm,
		enums.CheckoutStateBrowsing,
	},
	enums.CheckoutStatePaymentMethodSelect: {
		enums.CheckoutStateProcessing,
		enums.CheckoutStateCardCaptureForm,
		enums.CheckoutStateShippingForm,
		enums.CheckoutStateError,
		enums.CheckoutStateBrowsing,
	},
	enums.CheckoutStateProcessing: {
		enums.CheckoutStateSuccess,
		enums.CheckoutStateError,
	},
	enums.CheckoutStateSuccess: {
		enums.CheckoutStateBrowsing,
	},
	enums.CheckoutStateError: {
		enums.CheckoutStateCardCaptureForm,
		enums.CheckoutStatePaymentMethodSelect,
		enums.CheckoutStateProcessing,
		enums.CheckoutStateShippingForm,
		enums.CheckoutStateBrowsing,
	},
}

// CanTransition reports whether the flow may move from one state to another.
func CanTransition(from, to enums.CheckoutState) bool {
	for _, next := range AllowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns a STATE_CONFLICT error for a move the table does not allow.
func ValidateTransition(from, to enums.CheckoutState) error {
	if CanTransition(from, to) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move checkout from %s to %s", from, to)).
		WithDetails(map[string]any{"from": from, "to": to})
}

// Transition is published to observers after every state change.
type Transition struct {
	SessionID uuid.UUID           `json:"sessionId"`
	From      enums.CheckoutState `json:"from"`
	To        enums.CheckoutState `json:"to"`
	At        time.Time           `json:"at"`
}
