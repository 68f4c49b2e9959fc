package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-mfb/meridian-mfb/internal/app"
	"github.com/meridian-mfb/meridian-mfb/internal/auth"
	"github.com/meridian-mfb/meridian-mfb/internal/authz"
	"github.com/meridian-mfb/meridian-mfb/internal/customers"
	"github.com/meridian-mfb/meridian-mfb/internal/masterdata/branches"
	"github.com/meridian-mfb/meridian-mfb/internal/masterdata/centers"
	"github.com/meridian-mfb/meridian-mfb/internal/masterdata/groups"
	"github.com/meridian-mfb/meridian-mfb/internal/permissions"
	"github.com/meridian-mfb/meridian-mfb/internal/platform/cache"
	"github.com/meridian-mfb/meridian-mfb/internal/platform/db"
	"github.com/meridian-mfb/meridian-mfb/internal/products"
	"github.com/meridian-mfb/meridian-mfb/internal/roles"
	"github.com/meridian-mfb/meridian-mfb/internal/shared"
	"github.com/meridian-mfb/meridian-mfb/internal/staff"
	"github.com/meridian-mfb/meridian-mfb/internal/users"
	"github.com/meridian-mfb/meridian-mfb/jobs"
)

// lockoutNotifier forwards auto-lock events to the jobs queue. Enqueue
// failures are logged and swallowed so a Redis outage cannot break login
// responses.
type lockoutNotifier struct {
	client *jobs.Client
	logger *slog.Logger
}

func (n lockoutNotifier) NotifyLockout(ctx context.Context, account *auth.Account) {
	if n.client == nil {
		return
	}
	_, err := n.client.EnqueueLockoutNotify(ctx, jobs.LockoutNotifyPayload{
		UserID:   account.ID,
		Username: account.Username,
		LockedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		n.logger.Warn("enqueue lockout notification", slog.Any("error", err))
	}
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, principal cache disabled", slog.Any("error", err))
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	var principalCache authz.PermissionCache
	if redisClient != nil {
		principalCache = cache.NewPrincipalCache(redisClient, cfg.TokenTTL)
	}
	gateway := authz.NewGateway(authz.NewPGStore(pool), principalCache)
	authzMW := authz.Middleware{Gateway: gateway, Logger: logger}

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Warn("jobs client unavailable", slog.Any("error", err))
	}
	defer func() {
		if jobsClient != nil {
			_ = jobsClient.Close()
		}
	}()

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, lockoutNotifier{client: jobsClient, logger: logger})
	tokenIssuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	authHandler := auth.NewHandler(logger, authService, tokenIssuer, gateway)
	authenticator := auth.Authenticator{Issuer: tokenIssuer, Gateway: gateway, Logger: logger}

	usersRepo := users.NewRepository(pool, gateway.Guard())
	auditLogger := shared.NewAuditLogger(pool)
	usersService := users.NewService(usersRepo, authRepo, gateway, auditLogger)
	usersHandler := users.NewHandler(logger, usersService, authzMW)

	rolesRepo := roles.NewRepository(pool, gateway.Guard())
	rolesService := roles.NewService(rolesRepo, gateway, auditLogger)
	rolesHandler := roles.NewHandler(logger, rolesService, authzMW)

	permissionsRepo := permissions.NewRepository(pool)
	permissionsService := permissions.NewService(permissionsRepo)
	permissionsHandler := permissions.NewHandler(logger, permissionsService, authzMW)

	branchesHandler := branches.NewHandler(logger, branches.NewService(branches.NewRepository(pool)), authzMW)
	centersHandler := centers.NewHandler(logger, centers.NewService(centers.NewRepository(pool)), authzMW)
	groupsHandler := groups.NewHandler(logger, groups.NewService(groups.NewRepository(pool)), authzMW)
	customersHandler := customers.NewHandler(logger, customers.NewService(customers.NewRepository(pool)), authzMW)
	productsHandler := products.NewHandler(logger, products.NewService(products.NewRepository(pool)), authzMW)

	staffRepo := staff.NewRepository(pool, gateway.Guard())
	staffHandler := staff.NewHandler(logger, staff.NewService(staffRepo, gateway), authzMW)

	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		Authenticator: authenticator,

		AuthHandler:        authHandler,
		UsersHandler:       usersHandler,
		RolesHandler:       rolesHandler,
		PermissionsHandler: permissionsHandler,
		BranchesHandler:    branchesHandler,
		CentersHandler:     centersHandler,
		GroupsHandler:      groupsHandler,
		CustomersHandler:   customersHandler,
		ProductsHandler:    productsHandler,
		StaffHandler:       staffHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
