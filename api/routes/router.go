package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/angelmondragon/merch-checkout/api/controllers"
	cartcontrollers "github.com/angelmondragon/merch-checkout/api/controllers/cart"
	checkoutcontrollers "github.com/angelmondragon/merch-checkout/api/controllers/checkout"
	"github.com/angelmondragon/merch-checkout/api/controllers/shoppercontext"
	"github.com/angelmondragon/merch-checkout/api/middleware"
	"github.com/angelmondragon/merch-checkout/pkg/config"
	"github.com/angelmondragon/merch-checkout/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	storage controllers.Pinger,
	registry shoppercontext.Resolver,
	gatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, storage))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(registry, logg))
			r.Delete("/", cartcontrollers.CartClear(registry, logg))
			r.Post("/items", cartcontrollers.CartAddItem(registry, logg))
			r.Post("/items/{index}/increment", cartcontrollers.CartIncrement(registry, logg))
			r.Post("/items/{index}/decrement", cartcontrollers.CartDecrement(registry, logg))
			r.Delete("/items/{index}", cartcontrollers.CartRemove(registry, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", checkoutcontrollers.CheckoutFetch(registry, logg))
			r.Post("/begin", checkoutcontrollers.CheckoutBegin(registry, logg))
			r.Post("/shipping", checkoutcontrollers.CheckoutShipping(registry, logg))
			r.Post("/method", checkoutcontrollers.CheckoutSelectMethod(registry, logg))
			r.Post("/back", checkoutcontrollers.CheckoutBack(registry, logg))
			r.Post("/card", checkoutcontrollers.CheckoutCard(registry, logg))
			r.Post("/card/preview", checkoutcontrollers.CheckoutCardPreview(logg))
			r.Post("/paypal", checkoutcontrollers.CheckoutPayPal(registry, logg))
			r.Post("/paypal/failure", checkoutcontrollers.CheckoutPayPalFailure(registry, logg))
			r.Post("/dismiss", checkoutcontrollers.CheckoutDismissError(registry, logg))
			r.Post("/cancel", checkoutcontrollers.CheckoutCancel(registry, logg))
			r.Post("/unload", checkoutcontrollers.CheckoutUnload(registry, logg))
		})
	})

	return otelhttp.NewHandler(r, "merch-checkout-api")
}
