package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridian-mfb/meridian-mfb/internal/auth"
	"github.com/meridian-mfb/meridian-mfb/internal/customers"
	"github.com/meridian-mfb/meridian-mfb/internal/masterdata/branches"
	"github.com/meridian-mfb/meridian-mfb/internal/masterdata/centers"
	"github.com/meridian-mfb/meridian-mfb/internal/masterdata/groups"
	"github.com/meridian-mfb/meridian-mfb/internal/permissions"
	"github.com/meridian-mfb/meridian-mfb/internal/products"
	"github.com/meridian-mfb/meridian-mfb/internal/roles"
	"github.com/meridian-mfb/meridian-mfb/internal/staff"
	"github.com/meridian-mfb/meridian-mfb/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger        *slog.Logger
	Config        *Config
	Authenticator auth.Authenticator

	AuthHandler        *auth.Handler
	UsersHandler       *users.Handler
	RolesHandler       *roles.Handler
	PermissionsHandler *permissions.Handler
	BranchesHandler    *branches.Handler
	CentersHandler     *centers.Handler
	GroupsHandler      *groups.Handler
	CustomersHandler   *customers.Handler
	ProductsHandler    *products.Handler
	StaffHandler       *staff.Handler
}

// NewRouter constructs the chi.Router for the API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountRoutes)

		r.Group(func(r chi.Router) {
			r.Use(params.Authenticator.Middleware)

			params.AuthHandler.MountSessionRoutes(r)
			r.Route("/users", params.UsersHandler.MountRoutes)
			r.Route("/roles", params.RolesHandler.MountRoutes)
			r.Route("/permissions", params.PermissionsHandler.MountRoutes)
			r.Route("/branches", params.BranchesHandler.MountRoutes)
			r.Route("/centers", params.CentersHandler.MountRoutes)
			r.Route("/groups", params.GroupsHandler.MountRoutes)
			r.Route("/customers", params.CustomersHandler.MountRoutes)
			r.Route("/products", params.ProductsHandler.MountRoutes)
			r.Route("/staff", params.StaffHandler.MountRoutes)
		})
	})

	return r
}
