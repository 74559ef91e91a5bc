package checkout

import (
	"context"
	"net/http"

	"github.com/angelmondragon/merch-checkout/api/controllers/shoppercontext"
	"github.com/angelmondragon/merch-checkout/api/responses"
	"github.com/angelmondragon/merch-checkout/api/validators"
	checkoutsvc "github.com/angelmondragon/merch-checkout/internal/checkout"
	"github.com/angelmondragon/merch-checkout/pkg/logger"
)

// CheckoutFetch returns the flow state, the redacted session and the order summary.
func CheckoutFetch(resolver shoppercontext.Resolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := shoppercontext.ResolveSession(r, resolver)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCheckoutResponse(session.Checkout))
	}
}

func CheckoutBegin(resolver shoppercontext.Resolver, logg *logger.Logger) http.HandlerFunc {
	return event(resolver, logg, (*checkoutsvc.Controller).BeginCheckout)
}

func CheckoutBack(resolver shoppercontext.Resolver, logg *logger.Logger) http.HandlerFunc {
	return event(resolver, logg, (*checkoutsvc.Controller).Back)
}

func CheckoutDismissError(resolver shoppercontext.Resolver, logg *logger.Logger) http.HandlerFunc {
	return event(resolver, logg, (*checkoutsvc.Controller).DismissError)
}

func CheckoutCancel(resolver shoppercontext.Resolver, logg *logger.Logger) http.HandlerFunc {
	return event(resolver, logg, (*checkoutsvc.Controller).Cancel)
}

// CheckoutUnload is the navigate-away beacon.
func CheckoutUnload(resolver shoppercontext.Resolver, logg *logger.Logger) http.HandlerFunc {
	return event(resolver, logg, (*checkoutsvc.Controller).Unload)
}

func CheckoutShipping(resolver shoppercontext.Resolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := shoppercontext.ResolveSession(r, resolver)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload ShippingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := session.Checkout.SubmitShipping(r.Context(), payload.fields()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCheckoutResponse(session.Checkout))
	}
}

func CheckoutSelectMethod(resolver shoppercontext.Resolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := shoppercontext.ResolveSession(r, resolver)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload MethodRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := session.Checkout.SelectPaymentMethod(r.Context(), payload.method()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCheckoutResponse(session.Checkout))
	}
}

// CheckoutCard validates the card form and submits the order. A declined payment
// answers 402 with the failure message; the flow then sits in the error state.
func CheckoutCard(resolver shoppercontext.Resolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := shoppercontext.ResolveSession(r, resolver)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload CardRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// a shopper closing the tab must not abort a payment already on the wire
		receipt, err := session.Checkout.SubmitCard(context.WithoutCancel(r.Context()), payload.fields())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newReceiptResponse(receipt))
	}
}

// CheckoutCardPreview formats a card number as it is typed. Nothing is stored.
func CheckoutCardPreview(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload CardPreviewRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCardPreviewResponse(payload.Number))
	}
}

func CheckoutPayPal(resolver shoppercontext.Resolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := shoppercontext.ResolveSession(r, resolver)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload PayPalRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		receipt, err := session.Checkout.CompletePayPal(context.WithoutCancel(r.Context()), payload.capture())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newReceiptResponse(receipt))
	}
}

func CheckoutPayPalFailure(resolver shoppercontext.Resolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := shoppercontext.ResolveSession(r, resolver)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload PayPalFailureRequest
		if err := validators.DecodeOptionalJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := session.Checkout.FailPayPal(r.Context(), validators.SanitizeString(payload.Reason, 500)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCheckoutResponse(session.Checkout))
	}
}

func event(resolver shoppercontext.Resolver, logg *logger.Logger, fn func(*checkoutsvc.Controller, context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := shoppercontext.ResolveSession(r, resolver)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := fn(session.Checkout, r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCheckoutResponse(session.Checkout))
	}
}
