package router

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"user-auth-service/internal/handler"
	"user-auth-service/internal/middleware"
	"user-auth-service/internal/model"
)

type Dependencies struct {
	Auth  *handler.AuthHandler
	Users *handler.UserHandler
	Guard *middleware.AuthMiddleware

	CORSOrigins    []string
	RequestTimeout time.Duration
}

func New(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics)
	r.Use(middleware.CORS(deps.CORSOrigins))

	r.Get("/health", healthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(deps.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/register", deps.Auth.Register)
			auth.Post("/login", deps.Auth.Login)
			auth.Post("/refresh", deps.Auth.Refresh)
			auth.Post("/logout", deps.Auth.Logout)

			auth.Group(func(protected chi.Router) {
				protected.Use(deps.Guard.RequireAuth)
				protected.Get("/me", deps.Auth.Me)
			})
		})

		api.Route("/users", func(users chi.Router) {
			users.Use(deps.Guard.RequireAuth)

			users.Put("/password", deps.Users.ChangePassword)
			users.Put("/profile", deps.Users.UpdateProfile)

			users.Group(func(admin chi.Router) {
				admin.Use(deps.Guard.RequireRoles("admin"))
				admin.Get("/", deps.Users.List)
				admin.Put("/{user_id}/role", deps.Users.UpdateRole)
				admin.Post("/{user_id}/deactivate", deps.Users.Deactivate)
			})
		})
	})

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    map[string]string{"status": "ok"},
	})
}
