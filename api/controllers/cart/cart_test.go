package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/merch-checkout/api/middleware"
	"github.com/angelmondragon/merch-checkout/internal/checkout"
	"github.com/angelmondragon/merch-checkout/internal/payments"
	"github.com/angelmondragon/merch-checkout/internal/sessions"
	"github.com/angelmondragon/merch-checkout/pkg/storage"
	"github.com/angelmondragon/merch-checkout/pkg/types"
)

type noopSubmitter struct{}

func (noopSubmitter) Submit(context.Context, payments.Order) (*payments.Receipt, error) {
	return &payments.Receipt{}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	reg, err := sessions.NewRegistry(storage.NewMemoryFactory(), noopSubmitter{}, checkout.Pricing{
		TaxRate:  decimal.RequireFromString("0.0825"),
		Shipping: decimal.RequireFromString("5.99"),
		Currency: "USD",
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Session(nil))
	r.Get("/cart", CartFetch(reg, nil))
	r.Post("/cart/items", CartAddItem(reg, nil))
	r.Post("/cart/items/{index}/increment", CartIncrement(reg, nil))
	r.Post("/cart/items/{index}/decrement", CartDecrement(reg, nil))
	r.Delete("/cart/items/{index}", CartRemove(reg, nil))
	r.Delete("/cart", CartClear(reg, nil))
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, CartResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(middleware.SessionIDHeader, "cart-test")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	var envelope struct {
		Data CartResponse `json:"data"`
	}
	if resp.Code < 300 {
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp, envelope.Data
}

func TestCartAddAndFetch(t *testing.T) {
	h := newTestRouter(t)

	resp, cart := do(t, h, http.MethodPost, "/cart/items", `{"name":"Tour Tee","price":25,"size":"M","quantity":2}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(cart.Items) != 1 || cart.Items[0].ID != "tour-tee-m" {
		t.Fatalf("expected derived id, got %+v", cart.Items)
	}

	resp, cart = do(t, h, http.MethodGet, "/cart", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if cart.ItemCount != 2 || cart.Subtotal != "50.00" {
		t.Fatalf("unexpected cart %+v", cart)
	}
	if cart.Items[0].Label != "Tour Tee (M) × 2" {
		t.Fatalf("unexpected label %q", cart.Items[0].Label)
	}
}

func TestCartIndexOperations(t *testing.T) {
	h := newTestRouter(t)
	do(t, h, http.MethodPost, "/cart/items", `{"id":"pin","name":"Pin","price":"4.50"}`)

	_, cart := do(t, h, http.MethodPost, "/cart/items/0/increment", "")
	if cart.Items[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", cart.Items[0].Quantity)
	}
	_, cart = do(t, h, http.MethodPost, "/cart/items/0/decrement", "")
	if cart.Items[0].Quantity != 1 {
		t.Fatalf("expected quantity 1, got %d", cart.Items[0].Quantity)
	}

	resp, _ := do(t, h, http.MethodDelete, "/cart/items/3", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing index, got %d", resp.Code)
	}

	resp, cart = do(t, h, http.MethodDelete, "/cart/items/0", "")
	if resp.Code != http.StatusOK || len(cart.Items) != 0 {
		t.Fatalf("expected empty cart, got %d %+v", resp.Code, cart)
	}
}

func TestCartAddRejectsInvalidPayloads(t *testing.T) {
	h := newTestRouter(t)
	for _, body := range []string{
		`{"price":5}`,
		`{"id":"x","price":0}`,
		`{"id":"x","price":5,"quantity":-1}`,
		`{"id":"x","price":5,"cvv":"1"}`,
		`{"id":"x","price":10.005}`,
	} {
		resp, _ := do(t, h, http.MethodPost, "/cart/items", body)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d", body, resp.Code)
		}
		var envelope types.ErrorEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			t.Fatalf("decode error: %v", err)
		}
		if envelope.Error.Code != "VALIDATION_ERROR" {
			t.Fatalf("%s: unexpected code %s", body, envelope.Error.Code)
		}
	}
}

func TestCartClear(t *testing.T) {
	h := newTestRouter(t)
	do(t, h, http.MethodPost, "/cart/items", `{"id":"pin","name":"Pin","price":4.5}`)

	resp, cart := do(t, h, http.MethodDelete, "/cart", "")
	if resp.Code != http.StatusOK || cart.ItemCount != 0 || cart.Subtotal != "0.00" {
		t.Fatalf("unexpected clear result %d %+v", resp.Code, cart)
	}
}
