package mockapi

import (
	"net/http"

	"github.com/example/ec-storefront/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Store      *Store
	JWTService *auth.JWTService
	Logger     *zap.Logger
}

// NewRouter serves the storefront REST contract under /api
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "mockapi"))

	handlers := NewHandlers(cfg.Store, logger)
	authHandlers := NewAuthHandlers(cfg.Store, cfg.JWTService, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authHandlers.Login)
		r.Post("/auth/register", authHandlers.Register)

		r.Group(func(r chi.Router) {
			r.Use(authenticate(cfg.JWTService))

			r.Get("/product", handlers.GetProducts)
			r.Get("/products", handlers.GetProducts)
			r.Get("/product/search", handlers.SearchProducts)
			r.Get("/product/{id}", handlers.GetProduct)
			r.Get("/product/{id}/image", handlers.GetProductImage)

			r.With(requireAdmin).Post("/product", handlers.CreateProduct)
			r.With(requireAdmin).Put("/product/{id}", handlers.UpdateProduct)
			r.With(requireAdmin).Delete("/product/{id}", handlers.DeleteProduct)

			r.With(requireUser).Post("/orders", handlers.PlaceOrder)
			r.With(requireUser).Get("/orders/my", handlers.MyOrders)
			r.With(requireAdmin).Get("/orders", handlers.AllOrders)
			r.With(requireAdmin).Put("/orders/{id}/status", handlers.UpdateOrderStatus)
		})
	})

	return r
}
