// Package app contains the application setup for the marketplace service.
package app

import (
	"log/slog"
	"net/http"

	"github.com/akrylov/marketplace/internal/config"
	"github.com/akrylov/marketplace/internal/product/service"
	"github.com/akrylov/marketplace/internal/product/store"
	"github.com/akrylov/marketplace/internal/product/transport/rest"
	"github.com/akrylov/marketplace/pkg/auth"
	"github.com/akrylov/marketplace/pkg/messaging"
	"github.com/akrylov/marketplace/pkg/server"
	"github.com/akrylov/marketplace/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Dependencies struct {
	ProductService service.ProductService
	Verifier       auth.Verifier
	Logger         *slog.Logger
}

func SetupDependencies(dbPool *pgxpool.Pool, verifier auth.Verifier, publisher messaging.Publisher, atomicInventory bool, logger *slog.Logger) *Dependencies {
	pService := service.NewService(store.NewPgStore(dbPool), publisher, atomicInventory)

	return &Dependencies{
		ProductService: pService,
		Verifier:       verifier,
		Logger:         logger,
	}
}

// SetupHttpHandler initializes the HTTP routes for the marketplace application.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the marketplace application.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	productHandler := rest.NewHandler(deps.ProductService, deps.Logger)
	productHandler.RegisterRoutes(mux, web.Authenticator(deps.Verifier, deps.Logger))
}

// SetupHttpServer creates and configures an HTTP server for the marketplace application.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}
