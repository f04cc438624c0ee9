package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/econest/web/internal/web/content"
	httpapi "github.com/econest/web/internal/web/http"
	"github.com/econest/web/internal/web/metrics"
	"github.com/econest/web/internal/web/service"
	"github.com/econest/web/internal/web/session"
	"github.com/econest/web/internal/web/store"
	"github.com/econest/web/internal/web/store/drivers/postgres"
	"github.com/econest/web/internal/web/store/drivers/sqlite"
	"github.com/econest/web/pkg/cryptox"
	"github.com/econest/web/pkg/httpx"
	"github.com/econest/web/pkg/jwtx"
	"github.com/econest/web/pkg/slogx"
	"github.com/econest/web/pkg/supabase"
)

// BuildVersion is overridden at build time via -ldflags.
var BuildVersion = "v0.1.0"

// Application is the web front-end with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db      store.Store
	auth    *supabase.Client
	keys    *jwtx.KeySet
	metrics *metrics.Metrics
	hub     *session.Hub

	keyRefresher *session.KeyRefresher
	provisioner  *service.ProfileProvisioner

	server *http.Server
	router *httpapi.Router
}

// NewLogger builds the process logger from cfg and installs it as default.
func NewLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: "econest-web",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// OpenStore picks the driver from DatabaseURL and applies migrations.
func OpenStore(ctx context.Context, cfg Config) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	if cfg.UsesPostgres() {
		st, err = postgres.NewStore(ctx, cfg.DatabaseURL)
	} else {
		st, err = sqlite.NewStore(cfg.DatabaseURL)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := st.ApplyMigrations(); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}
	return st, nil
}

// New wires every dependency. Nothing is started until Run.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg:     cfg,
		logger:  NewLogger(cfg),
		metrics: metrics.New(),
		auth:    supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseAnonKey),
	}
	httpx.LoadRateLimits()

	ctx := context.Background()
	db, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.db = db
	app.logger.Info("database ready", "postgres", cfg.UsesPostgres())

	if err := app.initHTTP(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func (app *Application) initVerifier(ctx context.Context) (*jwtx.SupabaseVerifier, error) {
	opts := jwtx.VerifyOptions{
		Issuer:   app.cfg.Issuer(),
		Audience: []string{jwtx.AuthenticatedRole},
	}
	if app.cfg.SupabaseJWTSecret != "" {
		opts.Secret = []byte(app.cfg.SupabaseJWTSecret)
	}

	if app.cfg.JWKSEnabled {
		app.keys = jwtx.NewKeySet()
		opts.Keys = app.keys
		app.keyRefresher = session.NewKeyRefresher(app.auth, app.keys, app.logger, app.cfg.JWKSRefreshInterval)

		// Readiness reports the failure; the refresher keeps trying.
		if err := app.keyRefresher.Refresh(ctx); err != nil {
			app.logger.Warn("initial jwks fetch failed", "error", err)
		}
	}
	return jwtx.NewVerifier(opts)
}

func (app *Application) initHTTP(ctx context.Context) error {
	site, err := content.Load(app.cfg.ContentFile)
	if err != nil {
		return err
	}
	sealer, err := cryptox.NewSealer([]byte(app.cfg.CookieSecret), "refresh-token")
	if err != nil {
		return fmt.Errorf("cookie sealer: %w", err)
	}
	verifier, err := app.initVerifier(ctx)
	if err != nil {
		return fmt.Errorf("token verifier: %w", err)
	}

	app.hub = session.NewHub(app.cfg.HubBuffer, app.logger, app.metrics)
	app.provisioner = service.NewProfileProvisioner(app.db, app.metrics, app.cfg.ProvisionTimeout)

	oracle := &session.Oracle{
		Verifier: verifier,
		Auth:     app.auth,
		Cookies:  &session.CookieJar{Sealer: sealer, Secure: app.cfg.CookieSecure},
		Hub:      app.hub,
		Metrics:  app.metrics,
	}

	router, err := httpapi.NewRouter(httpapi.Deps{
		Site:          site,
		Store:         app.db,
		Auth:          app.auth,
		Oracle:        oracle,
		Hub:           app.hub,
		Roles:         &service.RoleResolver{Store: app.db},
		RolesService:  &service.RolesService{Store: app.db, Hub: app.hub},
		Profiles:      &service.ProfileService{Store: app.db},
		Provisioner:   app.provisioner,
		Metrics:       app.metrics,
		Logger:        app.logger,
		Keys:          app.keys,
		Version:       BuildVersion,
		PendingBudget: app.cfg.PendingBudget,
		SecureCookies: app.cfg.CookieSecure,
	})
	if err != nil {
		return err
	}
	router.ApplyRoutes()
	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	if app.keyRefresher != nil {
		app.keyRefresher.Start()
	}

	app.logger.Info("econest web starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.Shutdown()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}
	return nil
}

// Shutdown stops accepting requests, closes every mounted guard, and waits
// for in-flight provisioning before closing the database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down econest web...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Open event streams only end when their guard's subscription closes.
	app.hub.Close()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.keyRefresher != nil {
		app.keyRefresher.Stop()
	}

	if err := app.provisioner.Shutdown(ctx); err != nil {
		app.logger.Warn("profile provisioning did not finish", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("econest web stopped")
	return nil
}
