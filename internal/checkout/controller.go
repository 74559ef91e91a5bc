package checkout

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/merch-checkout/internal/cart"
	"github.com/angelmondragon/merch-checkout/internal/checkout/helpers"
	"github.com/angelmondragon/merch-checkout/internal/payments"
	"github.com/angelmondragon/merch-checkout/pkg/checkout"
	"github.com/angelmondragon/merch-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/merch-checkout/pkg/errors"
	"github.com/angelmondragon/merch-checkout/pkg/logger"
)

const (
	MsgEmptyCart         = "Your cart is empty"
	MsgPaymentInProgress = "payment already in progress"
)

type paymentSubmitter interface {
	Submit(ctx context.Context, order payments.Order) (*payments.Receipt, error)
}

type Option func(*Controller)

func WithLogger(logg *logger.Logger) Option {
	return func(c *Controller) {
		if logg != nil {
			c.logg = logg
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// Controller drives one shopper through checkout. Events are serialized; the payment
// call itself runs unlocked while the state reads processing.
type Controller struct {
	mu        sync.Mutex
	cart      *cart.Store
	submitter paymentSubmitter
	pricing   Pricing
	now       func() time.Time
	logg      *logger.Logger

	state       enums.CheckoutState
	session     *Session
	lastReceipt *payments.Receipt

	obsMu     sync.Mutex
	nextObsID int
	observers map[int]func(Transition)
	pending   []Transition
}

func NewController(store *cart.Store, submitter paymentSubmitter, pricing Pricing, opts ...Option) (*Controller, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "cart store required")
	}
	if submitter == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "payment submitter required")
	}
	if pricing.TaxRate.IsNegative() || pricing.Shipping.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "pricing must not be negative")
	}
	if pricing.DefaultCountry == "" {
		pricing.DefaultCountry = "US"
	}
	c := &Controller{
		cart:      store,
		submitter: submitter,
		pricing:   pricing,
		now:       time.Now,
		logg:      logger.Nop(),
		state:     enums.CheckoutStateBrowsing,
		observers: make(map[int]func(Transition)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// OnTransition registers fn for every state change and returns an unsubscribe func.
func (c *Controller) OnTransition(fn func(Transition)) func() {
	if fn == nil {
		return func() {}
	}
	c.obsMu.Lock()
	id := c.nextObsID
	c.nextObsID++
	c.observers[id] = fn
	c.obsMu.Unlock()
	return func() {
		c.obsMu.Lock()
		delete(c.observers, id)
		c.obsMu.Unlock()
	}
}

func (c *Controller) State() enums.CheckoutState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session returns a copy of the active session with card secrets removed, or nil.
func (c *Controller) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.clone()
}

// LastReceipt is the receipt of the most recent successful payment, if any.
func (c *Controller) LastReceipt() *payments.Receipt {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastReceipt == nil {
		return nil
	}
	r := *c.lastReceipt
	return &r
}

// Summary prices the session snapshot once shipping is accepted, the live cart before.
func (c *Controller) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil && c.session.Totals != nil {
		return buildSummary(c.session.Items, c.pricing)
	}
	return buildSummary(c.cart.Items(), c.pricing)
}

func (c *Controller) BeginCheckout(ctx context.Context) error {
	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ValidateTransition(c.state, enums.CheckoutStateShippingForm); err != nil {
		return err
	}
	if c.cart.IsEmpty() {
		return pkgerrors.New(pkgerrors.CodeValidation, MsgEmptyCart)
	}

	c.session = &Session{
		ID:             uuid.New(),
		StartedAt:      c.now(),
		SameAsShipping: true,
		Method:         enums.PaymentMethodCard,
	}
	c.session.Shipping.Country = c.pricing.DefaultCountry
	c.transitionLocked(enums.CheckoutStateShippingForm)
	c.logg.Info(c.logg.WithCheckoutID(ctx, c.session.ID.String()), "checkout started")
	return nil
}

// SubmitShipping accepts the contact and shipping form, snapshots the cart and prices it.
func (c *Controller) SubmitShipping(ctx context.Context, src helpers.FieldSource) error {
	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != enums.CheckoutStateShippingForm {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "shipping form is not active").
			WithDetails(map[string]any{"state": c.state})
	}

	input, err := helpers.ValidateShipping(src, c.pricing.DefaultCountry)
	if err != nil {
		return err
	}

	items := c.cart.Items()
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, MsgEmptyCart)
	}
	summary := buildSummary(items, c.pricing)

	c.session.Contact = input.Contact
	c.session.Shipping = input.Address
	c.session.Items = items
	c.session.Totals = &summary.Totals
	c.session.Method = enums.PaymentMethodCard
	c.transitionLocked(enums.CheckoutStateCardCaptureForm)
	return nil
}

// SelectPaymentMethod switches between the card form and the PayPal buttons.
func (c *Controller) SelectPaymentMethod(ctx context.Context, method enums.PaymentMethod) error {
	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()

	if !method.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment method").
			WithDetails(map[string]any{"method": method})
	}
	if c.state == enums.CheckoutStateProcessing {
		return pkgerrors.New(pkgerrors.CodeConflict, MsgPaymentInProgress)
	}
	if c.session == nil || c.session.Totals == nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "shipping details required before choosing payment")
	}

	target := method.FormState()
	if c.state != target {
		if err := ValidateTransition(c.state, target); err != nil {
			return err
		}
	}
	c.session.Method = method
	c.session.Error = ""
	if c.state != target {
		c.transitionLocked(target)
	}
	return nil
}

// Back returns to the shipping form. Entered data is kept.
func (c *Controller) Back(ctx context.Context) error {
	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case enums.CheckoutStateCardCaptureForm, enums.CheckoutStatePaymentMethodSelect, enums.CheckoutStateError:
	case enums.CheckoutStateProcessing:
		return pkgerrors.New(pkgerrors.CodeConflict, MsgPaymentInProgress)
	default:
		return ValidateTransition(c.state, enums.CheckoutStateShippingForm)
	}
	c.session.purge()
	c.transitionLocked(enums.CheckoutStateShippingForm)
	return nil
}

// SubmitCard validates the card form and, when every field passes, submits the order.
// Validation failures leave the state unchanged.
func (c *Controller) SubmitCard(ctx context.Context, src helpers.FieldSource) (*payments.Receipt, error) {
	c.mu.Lock()
	if c.state == enums.CheckoutStateProcessing {
		c.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeConflict, MsgPaymentInProgress)
	}
	if c.state != enums.CheckoutStateCardCaptureForm && c.state != enums.CheckoutStateError {
		err := ValidateTransition(c.state, enums.CheckoutStateProcessing)
		if err == nil {
			err = pkgerrors.New(pkgerrors.CodeStateConflict, "card form is not active")
		}
		c.mu.Unlock()
		return nil, err
	}

	input, err := helpers.ValidateCard(src, c.now(), c.pricing.DefaultCountry)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}

	c.session.Method = enums.PaymentMethodCard
	c.session.PayPal = nil
	c.session.SameAsShipping = input.SameAsShipping
	c.session.Billing = input.Billing
	c.session.Card = &CardDetails{
		Number:      input.Number,
		CVC:         input.CVC,
		Brand:       input.Brand,
		Last4:       checkout.LastFour(input.Number),
		ExpiryMonth: input.ExpiryMonth,
		ExpiryYear:  input.ExpiryYear,
		HolderName:  input.HolderName,
	}

	order := c.orderLocked()
	if err := order.Validate(); err != nil {
		c.session.purge()
		c.mu.Unlock()
		return nil, err
	}
	return c.submit(ctx, order)
}

// CompletePayPal submits an order paid through PayPal. No card fields are involved.
func (c *Controller) CompletePayPal(ctx context.Context, capture payments.PayPalCapture) (*payments.Receipt, error) {
	c.mu.Lock()
	if c.state == enums.CheckoutStateProcessing {
		c.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeConflict, MsgPaymentInProgress)
	}
	if c.state != enums.CheckoutStatePaymentMethodSelect || c.session == nil || c.session.Method != enums.PaymentMethodPayPal {
		c.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "paypal is not the selected payment method")
	}
	if strings.TrimSpace(capture.TransactionID) == "" {
		c.mu.Unlock()
		return nil, pkgerrors.InvalidField("transactionId", "paypal transaction id required")
	}

	c.session.Card = nil
	c.session.PayPal = &capture
	order := c.orderLocked()
	if err := order.Validate(); err != nil {
		c.session.PayPal = nil
		c.mu.Unlock()
		return nil, err
	}
	return c.submit(ctx, order)
}

// FailPayPal records a failure reported by the PayPal buttons.
func (c *Controller) FailPayPal(ctx context.Context, reason string) error {
	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != enums.CheckoutStatePaymentMethodSelect {
		return ValidateTransition(c.state, enums.CheckoutStateError)
	}
	c.session.Error = failureMessage(reason)
	c.logg.Warn(c.logg.WithField(ctx, "reason", reason), "paypal reported a failure")
	c.transitionLocked(enums.CheckoutStateError)
	return nil
}

// DismissError returns from the error screen to the card form for another attempt.
func (c *Controller) DismissError(ctx context.Context) error {
	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != enums.CheckoutStateError {
		return ValidateTransition(c.state, enums.CheckoutStateCardCaptureForm)
	}
	c.session.Error = ""
	c.session.Method = enums.PaymentMethodCard
	c.transitionLocked(enums.CheckoutStateCardCaptureForm)
	return nil
}

// Cancel abandons checkout from any state except processing. The cart is untouched.
func (c *Controller) Cancel(ctx context.Context) error {
	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == enums.CheckoutStateProcessing {
		return pkgerrors.New(pkgerrors.CodeConflict, MsgPaymentInProgress)
	}
	c.discardLocked()
	if c.state != enums.CheckoutStateBrowsing {
		c.transitionLocked(enums.CheckoutStateBrowsing)
	}
	return nil
}

// Unload is the navigate-away hook. Card secrets are already gone while processing, so
// the in-flight result is left to settle the session.
func (c *Controller) Unload(ctx context.Context) error {
	c.mu.Lock()
	processing := c.state == enums.CheckoutStateProcessing
	if processing {
		c.session.purge()
	}
	c.mu.Unlock()
	if processing {
		return nil
	}
	return c.Cancel(ctx)
}

// submit moves to processing, releases the lock for the payment call and settles the
// result. The caller holds c.mu.
func (c *Controller) submit(ctx context.Context, order payments.Order) (*payments.Receipt, error) {
	c.transitionLocked(enums.CheckoutStateProcessing)
	// the order only carries the last four digits from here on
	c.session.purge()
	checkoutID := c.session.ID.String()
	c.mu.Unlock()
	c.flush()

	ctx = c.logg.WithCheckoutID(ctx, checkoutID)
	receipt, err := c.submitter.Submit(ctx, order)

	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.session.Error = displayMessage(err)
		c.transitionLocked(enums.CheckoutStateError)
		return nil, err
	}

	// the order is paid; the cart empties even if storage keeps refusing the write
	if resetErr := c.cart.Reset(ctx); resetErr != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", resetErr.Error()), "paid cart could not be removed from storage")
	}
	c.lastReceipt = receipt
	c.transitionLocked(enums.CheckoutStateSuccess)
	c.discardLocked()
	c.transitionLocked(enums.CheckoutStateBrowsing)
	return receipt, nil
}

func (c *Controller) orderLocked() payments.Order {
	s := c.session
	order := payments.Order{
		ID:       uuid.New(),
		Items:    append([]cart.Item(nil), s.Items...),
		Contact:  s.Contact,
		Shipping: s.Shipping,
		Method:   s.Method,
		Currency: c.pricing.Currency,
	}
	if s.Totals != nil {
		order.Subtotal = s.Totals.Subtotal
		order.ShippingCost = s.Totals.Shipping
		order.Tax = s.Totals.Tax
		order.Total = s.Totals.Total
	}
	if !s.SameAsShipping && s.Billing != nil {
		b := *s.Billing
		order.Billing = &b
	}
	if s.Card != nil {
		order.Card = &payments.CardInstrument{
			Brand:      s.Card.Brand,
			Last4:      s.Card.Last4,
			HolderName: s.Card.HolderName,
			Expiry:     s.Card.Expiry(),
		}
	}
	if s.PayPal != nil {
		p := *s.PayPal
		order.PayPal = &p
	}
	return order
}

func (c *Controller) discardLocked() {
	if c.session != nil {
		c.session.purge()
	}
	c.session = nil
}

func (c *Controller) transitionLocked(to enums.CheckoutState) {
	from := c.state
	c.state = to
	var id uuid.UUID
	if c.session != nil {
		id = c.session.ID
	}
	c.pending = append(c.pending, Transition{SessionID: id, From: from, To: to, At: c.now()})
}

// flush delivers queued transitions outside c.mu so observers may call back in.
func (c *Controller) flush() {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()
	if len(pending) == 0 {
		return
	}

	c.obsMu.Lock()
	observers := make([]func(Transition), 0, len(c.observers))
	for _, fn := range c.observers {
		observers = append(observers, fn)
	}
	c.obsMu.Unlock()

	for _, t := range pending {
		for _, fn := range observers {
			fn(t)
		}
	}
}

func displayMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodePayment {
		return failureMessage(typed.Message())
	}
	return payments.DefaultFailureMessage
}

func failureMessage(reason string) string {
	if r := strings.TrimSpace(reason); r != "" {
		return r
	}
	return payments.DefaultFailureMessage
}
