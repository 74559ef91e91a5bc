package checkout

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
	"github.com/angelmondragon/merch-checkout/internal/cart"
	checkoutsvc "github.com/angelmondragon/merch-checkout/internal/checkout"
	"github.com/angelmondragon/merch-checkout/internal/payments"
	"github.com/angelmondragon/merch-checkout/internal/sessions"
	pkgerrors "github.com/angelmondragon/merch-checkout/pkg/errors"
	"github.com/angelmondragon/merch-checkout/pkg/storage"
	"github.com/angelmondragon/merch-checkout/pkg/types"
)

type stubSubmitter struct {
	orders []payments.Order
	err    error
}

func (s *stubSubmitter) Submit(_ context.Context, order payments.Order) (*payments.Receipt, error) {
	s.orders = append(s.orders, order)
	if s.err != nil {
		return nil, s.err
	}
	return &payments.Receipt{OrderID: order.ID, Method: order.Method, Total: order.Total, Currency: order.Currency, Reference: "ref-1"}, nil
}

const sessionID = "checkout-test"

type harness struct {
	handler   http.Handler
	submitter *stubSubmitter
	registry  *sessions.Registry
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	sub := &stubSubmitter{}
	reg, err := sessions.NewRegistry(storage.NewMemoryFactory(), sub, checkoutsvc.Pricing{
		TaxRate:        decimal.RequireFromString("0.0825"),
		Shipping:       decimal.RequireFromString("5.99"),
		Currency:       "USD",
		DefaultCountry: "US",
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Session(nil))
	r.Get("/checkout", CheckoutFetch(reg, nil))
	r.Post("/checkout/begin", CheckoutBegin(reg, nil))
	r.Post("/checkout/shipping", CheckoutShipping(reg, nil))
	r.Post("/checkout/method", CheckoutSelectMethod(reg, nil))
	r.Post("/checkout/back", CheckoutBack(reg, nil))
	r.Post("/checkout/card", CheckoutCard(reg, nil))
	r.Post("/checkout/card/preview", CheckoutCardPreview(nil))
	r.Post("/checkout/paypal", CheckoutPayPal(reg, nil))
	r.Post("/checkout/paypal/failure", CheckoutPayPalFailure(reg, nil))
	r.Post("/checkout/dismiss", CheckoutDismissError(reg, nil))
	r.Post("/checkout/cancel", CheckoutCancel(reg, nil))
	return &harness{handler: r, submitter: sub, registry: reg}
}

func (h *harness) seedCart(t *testing.T) {
	t.Helper()
	s, err := h.registry.Get(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if err := s.Cart.Add(context.Background(), cart.Item{
		ID: "tour-tee", Name: "Tour Tee", Price: decimal.RequireFromString("25.00"), Size: "M", Quantity: 1,
	}); err != nil {
		t.Fatalf("seed cart: %v", err)
	}
}

func (h *harness) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(middleware.SessionIDHeader, sessionID)
	resp := httptest.NewRecorder()
	h.handler.ServeHTTP(resp, req)
	return resp
}

func decodeState(t *testing.T, resp *httptest.ResponseRecorder) CheckoutResponse {
	t.Helper()
	var envelope struct {
		Data CheckoutResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return envelope.Data
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return envelope.Error
}

const shippingBody = `{"email":"ada@example.com","phone":"(512) 555-0100","fullName":"Ada Lovelace",
	"address1":"1 Analytical Way","city":"Austin","state":"TX","zip":"78701"}`

const cardBody = `{"cardNumber":"4532 0151 1283 0366","expiry":"12/29","cvc":"123","cardholderName":"Ada Lovelace"}`

func TestCheckoutCardFlow(t *testing.T) {
	h := newHarness(t)
	h.seedCart(t)

	resp := h.do(t, http.MethodPost, "/checkout/begin", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("begin: expected 200 got %d", resp.Code)
	}
	if state := decodeState(t, resp); state.State != "shipping_form" || !state.Editable || state.Session.Shipping.Country != "US" {
		t.Fatalf("unexpected state after begin %+v", state)
	}

	resp = h.do(t, http.MethodPost, "/checkout/shipping", shippingBody)
	if resp.Code != http.StatusOK {
		t.Fatalf("shipping: expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	state := decodeState(t, resp)
	if state.State != "card_capture_form" {
		t.Fatalf("unexpected state %s", state.State)
	}
	if state.Summary.Totals.Total != "33.05" || state.Summary.Totals.Tax != "2.06" {
		t.Fatalf("unexpected totals %+v", state.Summary.Totals)
	}
	if state.Session.Shipping.Country != "US" {
		t.Fatalf("absent country should default to US, got %q", state.Session.Shipping.Country)
	}

	resp = h.do(t, http.MethodPost, "/checkout/card", cardBody)
	if resp.Code != http.StatusCreated {
		t.Fatalf("card: expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(h.submitter.orders) != 1 {
		t.Fatalf("expected one submission, got %d", len(h.submitter.orders))
	}
	order := h.submitter.orders[0]
	if order.Card == nil || order.Card.Last4 != "0366" || !order.Total.Equal(decimal.RequireFromString("33.05")) {
		t.Fatalf("unexpected order %+v", order)
	}

	state = decodeState(t, h.do(t, http.MethodGet, "/checkout", ""))
	if state.State != "browsing" || state.Editable || state.Session != nil || state.LastReceipt == nil {
		t.Fatalf("unexpected final state %+v", state)
	}
	if state.Summary.ItemCount != 0 {
		t.Fatalf("cart should be empty after success, got %d items", state.Summary.ItemCount)
	}
}

func TestCheckoutShippingReportsMissingField(t *testing.T) {
	h := newHarness(t)
	h.seedCart(t)
	h.do(t, http.MethodPost, "/checkout/begin", "")

	resp := h.do(t, http.MethodPost, "/checkout/shipping", `{"email":"ada@example.com","phone":"5125550100","country":""}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if apiErr := decodeError(t, resp); apiErr.Message != "Please fill in the Full Name field" {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}
}

func TestCheckoutBeginWithEmptyCart(t *testing.T) {
	h := newHarness(t)
	resp := h.do(t, http.MethodPost, "/checkout/begin", "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if apiErr := decodeError(t, resp); apiErr.Message != checkoutsvc.MsgEmptyCart {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}
}

func TestCheckoutDeclineThenDismiss(t *testing.T) {
	h := newHarness(t)
	h.seedCart(t)
	h.do(t, http.MethodPost, "/checkout/begin", "")
	h.do(t, http.MethodPost, "/checkout/shipping", shippingBody)

	h.submitter.err = pkgerrors.New(pkgerrors.CodePayment, "Card declined")
	resp := h.do(t, http.MethodPost, "/checkout/card", cardBody)
	if resp.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402 got %d", resp.Code)
	}
	if apiErr := decodeError(t, resp); apiErr.Message != "Card declined" || !apiErr.Retryable {
		t.Fatalf("unexpected error %+v", apiErr)
	}

	state := decodeState(t, h.do(t, http.MethodGet, "/checkout", ""))
	if state.State != "error" || state.Session.Error != "Card declined" {
		t.Fatalf("unexpected state %+v", state)
	}
	if state.Session.Card == nil || !strings.HasSuffix(state.Session.Card.Masked, "0366") {
		t.Fatalf("expected masked card on error screen, got %+v", state.Session.Card)
	}
	if strings.Contains(state.Session.Card.Masked, "4532") {
		t.Fatalf("full number leaked: %s", state.Session.Card.Masked)
	}

	state = decodeState(t, h.do(t, http.MethodPost, "/checkout/dismiss", ""))
	if state.State != "card_capture_form" {
		t.Fatalf("expected card form after dismiss, got %s", state.State)
	}
}

func TestCheckoutPayPalFlow(t *testing.T) {
	h := newHarness(t)
	h.seedCart(t)
	h.do(t, http.MethodPost, "/checkout/begin", "")
	h.do(t, http.MethodPost, "/checkout/shipping", shippingBody)

	resp := h.do(t, http.MethodPost, "/checkout/method", `{"method":"bitcoin"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown method, got %d", resp.Code)
	}

	state := decodeState(t, h.do(t, http.MethodPost, "/checkout/method", `{"method":"paypal"}`))
	if state.State != "payment_method_select" {
		t.Fatalf("unexpected state %s", state.State)
	}

	resp = h.do(t, http.MethodPost, "/checkout/paypal", `{"transactionId":"PAY-1","amount":"33.05"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if h.submitter.orders[0].PayPal == nil || h.submitter.orders[0].Card != nil {
		t.Fatalf("expected paypal-only order %+v", h.submitter.orders[0])
	}
}

func TestCheckoutPayPalFailureWithoutBody(t *testing.T) {
	h := newHarness(t)
	h.seedCart(t)
	h.do(t, http.MethodPost, "/checkout/begin", "")
	h.do(t, http.MethodPost, "/checkout/shipping", shippingBody)
	h.do(t, http.MethodPost, "/checkout/method", `{"method":"paypal"}`)

	resp := h.do(t, http.MethodPost, "/checkout/paypal/failure", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if state := decodeState(t, resp); state.State != "error" || state.Session.Error != payments.DefaultFailureMessage {
		t.Fatalf("unexpected state %+v", state)
	}
}

func TestCheckoutStateConflicts(t *testing.T) {
	h := newHarness(t)
	h.seedCart(t)

	resp := h.do(t, http.MethodPost, "/checkout/card", cardBody)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}

	h.do(t, http.MethodPost, "/checkout/begin", "")
	state := decodeState(t, h.do(t, http.MethodPost, "/checkout/cancel", ""))
	if state.State != "browsing" || state.Session != nil {
		t.Fatalf("unexpected state after cancel %+v", state)
	}
}

func TestCheckoutCardPreview(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, http.MethodPost, "/checkout/card/preview", `{"cardNumber":"3714-4963-5398-431"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data CardPreviewResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	want := CardPreviewResponse{Formatted: "3714 4963 5398 431", Brand: "amex", IconClass: "fab fa-cc-amex", CVCLength: 4}
	if envelope.Data != want {
		t.Fatalf("unexpected preview %+v", envelope.Data)
	}

	if resp := h.do(t, http.MethodPost, "/checkout/card/preview", `{"cardNumber":"4111","cvc":"123"}`); resp.Code != http.StatusBadRequest {
		t.Fatalf("unknown fields should be rejected, got %d", resp.Code)
	}
}
