package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/handlers"

	"inkwell/internal/handler"
	"inkwell/internal/httputil"
	authmw "inkwell/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler    *handler.AuthHandler
	UserHandler    *handler.UserHandler
	PostHandler    *handler.PostHandler
	CommentHandler *handler.CommentHandler
	AdminHandler   *handler.AdminHandler
	JWTSecret      string
	AllowedOrigins []string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(handlers.CORS(
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	))

	optionalAuth := authmw.OptionalAuthMiddleware(cfg.JWTSecret)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Public routes - no authentication required
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", cfg.AuthHandler.Register)
		r.Post("/login", cfg.AuthHandler.Login)
	})

	r.Get("/users/{id}", cfg.UserHandler.GetProfile)
	r.Get("/users/{id}/top-rated", cfg.UserHandler.TopRated)
	r.With(optionalAuth).Get("/users/{id}/posts", cfg.UserHandler.ListPosts)

	r.With(optionalAuth).Get("/posts", cfg.PostHandler.List)
	r.Get("/posts/trending", cfg.PostHandler.Trending)
	r.Get("/posts/tags", cfg.PostHandler.Tags)
	r.With(optionalAuth).Get("/posts/{id}", cfg.PostHandler.GetByID)
	r.Get("/posts/{id}/related", cfg.PostHandler.Related)
	r.Get("/posts/{id}/comments", cfg.CommentHandler.List)

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		// Current user endpoints
		r.Get("/me", cfg.AuthHandler.Me)
		r.Put("/me", cfg.UserHandler.UpdateMe)
		r.Get("/users/{id}/bookmarks", cfg.UserHandler.ListBookmarks)

		// Post endpoints
		r.Get("/posts/mine", cfg.PostHandler.ListMine)
		r.Post("/posts", cfg.PostHandler.Create)
		r.Put("/posts/{id}", cfg.PostHandler.Update)
		r.Delete("/posts/{id}", cfg.PostHandler.Delete)
		r.Post("/posts/{id}/like", cfg.PostHandler.ToggleLike)
		r.Post("/posts/{id}/rate", cfg.PostHandler.Rate)
		r.Post("/posts/{id}/bookmark", cfg.PostHandler.ToggleBookmark)

		// Comment endpoints
		r.Post("/posts/{id}/comments", cfg.CommentHandler.Create)
		r.Put("/comments/{id}", cfg.CommentHandler.Update)
		r.Delete("/comments/{id}", cfg.CommentHandler.Delete)
		r.Post("/comments/{id}/like", cfg.CommentHandler.ToggleLike)

		// Moderation
		r.Route("/admin", func(r chi.Router) {
			r.Use(authmw.RequireAdmin)
			r.Get("/users", cfg.AdminHandler.ListUsers)
			r.Delete("/users/{id}", cfg.AdminHandler.DeleteUser)
			r.Delete("/posts/{id}", cfg.PostHandler.Delete)
			r.Delete("/comments/{id}", cfg.CommentHandler.Delete)
		})
	})

	return r
}
