package handler

import (
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	custommiddleware "github.com/mmeshcher/keystore/internal/middleware"
	"github.com/mmeshcher/keystore/internal/model"
	"go.uber.org/zap"
)

// recoverer перехватывает панику обработчика и отвечает ошибкой 500
// в общем формате ответа API.
func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			h.logger.Error("panic recovered",
				zap.Any("panic", rec),
				zap.String("request_id", chimw.GetReqID(r.Context())),
				zap.ByteString("stack", debug.Stack()),
			)
			failure(w, http.StatusInternalServerError, "Internal server error")
		}()

		next.ServeHTTP(w, r)
	})
}

// SetupRouter настраивает HTTP-маршруты и middleware магазина ключей.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(h.recoverer)
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	protect := h.authMiddleware.Protect
	admin := custommiddleware.Authorize(model.RoleAdmin)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.With(protect).Get("/me", h.Me)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			for _, s := range model.Slices {
				r.Get("/"+string(s), h.Slice(s))
				r.Get("/"+string(s)+"/"+string(s), h.Slice(s))
			}
			r.With(h.authMiddleware.Optional).Get("/{id}", h.GetProduct)

			r.Group(func(r chi.Router) {
				r.Use(protect, admin)
				r.Post("/", h.CreateProduct)
				r.Put("/{id}", h.UpdateProduct)
				r.Delete("/{id}", h.DeleteProduct)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(protect)
			r.Post("/", h.CreateOrder)
			r.Get("/", h.ListOrders)
			r.With(admin).Get("/admin/all", h.ListAllOrders)
			r.Get("/{id}", h.GetOrder)
			r.Put("/{id}/cancel", h.CancelOrder)
			r.With(admin).Put("/{id}/status", h.UpdateOrderStatus)
			r.With(admin).Post("/{id}/game-keys", h.AddGameKey)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(protect)

			r.Get("/wishlist", h.Wishlist)
			r.Post("/wishlist/{productId}", h.AddToWishlist)
			r.Delete("/wishlist/{productId}", h.RemoveFromWishlist)

			r.Get("/cart", h.Cart)
			r.Post("/cart", h.AddToCart)
			r.Delete("/cart", h.ClearCart)
			r.Put("/cart/{productId}", h.UpdateCartItem)
			r.Delete("/cart/{productId}", h.RemoveFromCart)

			r.Group(func(r chi.Router) {
				r.Use(admin)
				r.Get("/", h.ListUsers)
				r.Get("/{id}", h.GetUser)
				r.Put("/{id}", h.UpdateUser)
				r.Delete("/{id}", h.DeleteUser)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		failure(w, http.StatusNotFound, "Route not found")
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		failure(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}
