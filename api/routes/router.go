package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lankapos/pos-backend/api/controllers"
	"github.com/lankapos/pos-backend/api/middleware"
	authsvc "github.com/lankapos/pos-backend/internal/auth"
	catalogsvc "github.com/lankapos/pos-backend/internal/catalog"
	checkoutsvc "github.com/lankapos/pos-backend/internal/checkout"
	discountsvc "github.com/lankapos/pos-backend/internal/discounts"
	heldbillsvc "github.com/lankapos/pos-backend/internal/heldbills"
	inventorysvc "github.com/lankapos/pos-backend/internal/inventory"
	loyaltysvc "github.com/lankapos/pos-backend/internal/loyalty"
	salessvc "github.com/lankapos/pos-backend/internal/sales"
	"github.com/lankapos/pos-backend/internal/scanner"
	userssvc "github.com/lankapos/pos-backend/internal/users"
	"github.com/lankapos/pos-backend/pkg/config"
	"github.com/lankapos/pos-backend/pkg/db"
	"github.com/lankapos/pos-backend/pkg/logger"
	"github.com/lankapos/pos-backend/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        *db.Client
	Redis     *redis.Client
	Registry  *prometheus.Registry
	Auth      authsvc.Service
	Users     userssvc.Service
	Catalog   catalogsvc.Service
	Discounts discountsvc.Service
	Loyalty   loyaltysvc.Service
	Inventory inventorysvc.Service
	Sales     salessvc.Service
	HeldBills heldbillsvc.Service
	Checkout  checkoutsvc.Service
	Scanner   *scanner.Pipeline
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	logg := d.Logger
	cfg := d.Config

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, d.DB, d.Redis))
	})

	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.LoginRateLimit(d.Redis, logg, 10, time.Minute)).
			Post("/login", controllers.Login(d.Auth, logg))
		r.Post("/refresh", controllers.Refresh(d.Auth, logg))
		r.With(middleware.Auth(cfg.JWT, logg)).Post("/logout", controllers.Logout(d.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(
			middleware.Auth(cfg.JWT, logg),
			middleware.Idempotency(d.Redis, logg),
		)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(d.Catalog, logg))
			r.Get("/search", controllers.ProductSearch(d.Catalog, logg))
			r.Get("/{id}", controllers.ProductGet(d.Catalog, logg))
			r.Get("/{id}/inventory", controllers.InventoryHistory(d.Inventory, logg))
			r.With(requireManager(logg)).Post("/", controllers.ProductCreate(d.Catalog, logg))
			r.With(requireManager(logg)).Put("/{id}", controllers.ProductUpdate(d.Catalog, logg))
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.CustomerList(d.Catalog, logg))
			r.Get("/search", controllers.CustomerSearch(d.Catalog, logg))
			r.Get("/{id}", controllers.CustomerGet(d.Catalog, logg))
			r.Get("/{id}/loyalty", controllers.LoyaltyBalance(d.Loyalty, logg))
			r.Get("/{id}/loyalty/history", controllers.LoyaltyHistory(d.Loyalty, logg))
			r.Post("/", controllers.CustomerCreate(d.Catalog, logg))
			r.Put("/{id}", controllers.CustomerUpdate(d.Catalog, logg))
		})

		r.Route("/sessions/{terminal}", func(r chi.Router) {
			r.Get("/", controllers.SessionSnapshot(d.Checkout, logg))
			r.Post("/scan", controllers.SessionScan(d.Checkout, logg))
			r.Post("/scan/keystrokes", controllers.SessionKeystrokes(d.Checkout, d.Scanner, logg))
			r.Post("/scan/field", controllers.SessionFieldInput(d.Checkout, d.Scanner, logg))
			r.Post("/scan/field/poll", controllers.SessionFieldPoll(d.Checkout, d.Scanner, logg))
			r.Post("/items", controllers.SessionAddItem(d.Checkout, logg))
			r.Patch("/items/{index}", controllers.SessionUpdateItem(d.Checkout, logg))
			r.Delete("/items/{index}", controllers.SessionRemoveItem(d.Checkout, logg))
			r.Post("/clear", controllers.SessionClear(d.Checkout, d.Scanner, logg))
			r.Put("/customer", controllers.SessionSetCustomer(d.Checkout, logg))
			r.Put("/tier", controllers.SessionSetTier(d.Checkout, logg))
			r.Put("/payment-mode", controllers.SessionSetPaymentMode(d.Checkout, logg))
			r.Post("/payments", controllers.SessionAddPayment(d.Checkout, logg))
			r.Delete("/payments/{index}", controllers.SessionRemovePayment(d.Checkout, logg))
			r.Post("/redeem", controllers.SessionRedeem(d.Checkout, logg))
			r.Post("/hold", controllers.SessionHold(d.Checkout, logg))
			r.Post("/resume", controllers.SessionResume(d.Checkout, logg))
			r.Post("/checkout", controllers.SessionCheckout(d.Checkout, logg))
		})

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", controllers.SaleList(d.Sales, logg))
			r.Get("/invoice/{invoice}", controllers.SaleGetByInvoice(d.Sales, logg))
			r.Get("/{id}", controllers.SaleGet(d.Sales, logg))
		})

		r.Route("/held-bills", func(r chi.Router) {
			r.Get("/", controllers.HeldBillList(d.HeldBills, logg))
			r.Delete("/{id}", controllers.HeldBillDelete(d.HeldBills, logg))
		})

		r.Route("/discount-rules", func(r chi.Router) {
			r.Get("/", controllers.DiscountRuleList(d.Discounts, logg))
			r.Get("/{id}", controllers.DiscountRuleGet(d.Discounts, logg))
			r.With(requireManager(logg)).Post("/", controllers.DiscountRuleCreate(d.Discounts, logg))
			r.With(requireManager(logg)).Put("/{id}", controllers.DiscountRuleUpdate(d.Discounts, logg))
			r.With(requireManager(logg)).Delete("/{id}", controllers.DiscountRuleDelete(d.Discounts, logg))
		})

		r.Route("/loyalty/settings", func(r chi.Router) {
			r.Get("/", controllers.LoyaltySettingsGet(d.Loyalty, logg))
			r.With(requireAdmin(logg)).Put("/", controllers.LoyaltySettingsUpdate(d.Loyalty, logg))
		})

		r.With(requireManager(logg)).Post("/inventory/adjust", controllers.InventoryAdjust(d.Inventory, logg))

		r.Route("/users", func(r chi.Router) {
			r.Use(requireAdmin(logg))
			r.Get("/", controllers.UserList(d.Users, logg))
			r.Get("/{id}", controllers.UserGet(d.Users, logg))
			r.Post("/", controllers.UserCreate(d.Users, logg))
			r.Patch("/{id}/active", controllers.UserSetActive(d.Users, logg))
			r.Post("/{id}/password", controllers.UserChangePassword(d.Users, logg))
		})
	})

	return r
}

func requireAdmin(logg *logger.Logger) func(http.Handler) http.Handler {
	return middleware.RequireRole(logg, userssvc.RoleAdmin)
}

func requireManager(logg *logger.Logger) func(http.Handler) http.Handler {
	return middleware.RequireRole(logg, userssvc.RoleAdmin, userssvc.RoleManager)
}
