package cart

import (
	"context"
	"net/http"

	"github.com/angelmondragon/merch-checkout/api/controllers/shoppercontext"
	"github.com/angelmondragon/merch-checkout/api/responses"
	"github.com/angelmondragon/merch-checkout/api/validators"
	cartsvc "github.com/angelmondragon/merch-checkout/internal/cart"
	"github.com/angelmondragon/merch-checkout/pkg/logger"
)

// CartFetch returns the shopper's cart.
func CartFetch(resolver shoppercontext.Resolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := shoppercontext.ResolveSession(r, resolver)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(session.Cart.Snapshot()))
	}
}

// CartAddItem merges a product line into the cart.
func CartAddItem(resolver shoppercontext.Resolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := shoppercontext.ResolveSession(r, resolver)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := session.Cart.Add(r.Context(), toItem(payload)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCartResponse(session.Cart.Snapshot()))
	}
}

func CartIncrement(resolver shoppercontext.Resolver, logg *logger.Logger) http.HandlerFunc {
	return indexed(resolver, logg, (*cartsvc.Store).Increment)
}

func CartDecrement(resolver shoppercontext.Resolver, logg *logger.Logger) http.HandlerFunc {
	return indexed(resolver, logg, (*cartsvc.Store).Decrement)
}

func CartRemove(resolver shoppercontext.Resolver, logg *logger.Logger) http.HandlerFunc {
	return indexed(resolver, logg, (*cartsvc.Store).Remove)
}

// CartClear empties the cart.
func CartClear(resolver shoppercontext.Resolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := shoppercontext.ResolveSession(r, resolver)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := session.Cart.Clear(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(session.Cart.Snapshot()))
	}
}

func indexed(resolver shoppercontext.Resolver, logg *logger.Logger, op func(*cartsvc.Store, context.Context, int) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := shoppercontext.ResolveSession(r, resolver)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		index, err := validators.ParseIndexParam(r, "index")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := op(session.Cart, r.Context(), index); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(session.Cart.Snapshot()))
	}
}
