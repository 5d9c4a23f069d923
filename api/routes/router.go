package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inkingiwoods/sokohub-backend/api/controllers"
	"github.com/inkingiwoods/sokohub-backend/api/middleware"
	cartsvc "github.com/inkingiwoods/sokohub-backend/internal/cart"
	deliverysvc "github.com/inkingiwoods/sokohub-backend/internal/delivery"
	ordersvc "github.com/inkingiwoods/sokohub-backend/internal/orders"
	"github.com/inkingiwoods/sokohub-backend/internal/payments"
	"github.com/inkingiwoods/sokohub-backend/internal/users"
	"github.com/inkingiwoods/sokohub-backend/internal/webhooks"
	"github.com/inkingiwoods/sokohub-backend/pkg/config"
	"github.com/inkingiwoods/sokohub-backend/pkg/db"
	"github.com/inkingiwoods/sokohub-backend/pkg/enums"
	"github.com/inkingiwoods/sokohub-backend/pkg/logger"
	"github.com/inkingiwoods/sokohub-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	DB       db.Pinger
	Redis    *redis.Client
	Registry *prometheus.Registry

	Users    users.Service
	Cart     cartsvc.Service
	Orders   ordersvc.Service
	Delivery deliverysvc.Service
	Checkout payments.CheckoutService
	Engine   payments.Engine
	Webhooks webhooks.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", controllers.StripeWebhook(deps.Webhooks, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.AuthLogin(deps.Users, logg))
		r.With(middleware.Auth(cfg.JWT, logg)).Get("/me", controllers.AuthProfile(deps.Users, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.RequireUserType(enums.UserTypeCustomer, logg))
			r.Get("/", controllers.CartFetch(deps.Cart, logg))
			r.Post("/items", controllers.CartSetItem(deps.Cart, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(deps.Cart, logg))
			r.Delete("/", controllers.CartClear(deps.Cart, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(middleware.RequireUserType(enums.UserTypeCustomer, logg)).Post("/", controllers.OrderCreate(deps.Orders, deps.Cart, logg))
			r.With(middleware.RequireUserType(enums.UserTypeCustomer, logg)).Get("/", controllers.OrderList(deps.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(deps.Orders, logg))
			r.Post("/{orderId}/cancel", controllers.OrderCancel(deps.Orders, logg))
			r.Post("/{orderId}/checkout", controllers.CheckoutStart(deps.Checkout, logg))
			r.Post("/{orderId}/pay", controllers.MockPay(deps.Engine, logg))
			r.Get("/{orderId}/delivery", controllers.DeliveryDetail(deps.Delivery, deps.Orders, logg))
		})

		r.Route("/vendor", func(r chi.Router) {
			r.Use(middleware.RequireUserType(enums.UserTypeVendor, logg))
			r.Get("/orders", controllers.VendorOrderList(deps.Orders, logg))
			r.Post("/orders/{orderId}/decision", controllers.VendorOrderDecision(deps.Orders, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireStaff(logg))

		r.Route("/orders/{orderId}", func(r chi.Router) {
			r.Post("/confirm-payment", controllers.PaymentConfirm(deps.Engine, deps.Orders, logg))
			r.Get("/audit", controllers.OrderPaymentAudit(deps.Engine, logg))
			r.Post("/status", controllers.AdminOrderStatusOverride(deps.Orders, logg))
			r.Patch("/delivery", controllers.DeliveryUpdate(deps.Delivery, logg))
		})

		r.Post("/purchases/{purchaseId}/refund", controllers.AdminRefund(deps.Engine, logg))

		r.Route("/webhook-events", func(r chi.Router) {
			r.Get("/", controllers.AdminWebhookEvents(deps.Webhooks, logg))
			r.Post("/reprocess", controllers.AdminReprocessWebhooks(deps.Webhooks, logg))
		})
	})

	return r
}
