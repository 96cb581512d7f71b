package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/de-tools/housing-atlas/pkg/handlers/dashboard"
	"github.com/de-tools/housing-atlas/pkg/models/domain"
	"github.com/de-tools/housing-atlas/pkg/services/catalog"
	"github.com/de-tools/housing-atlas/pkg/services/figure"
	"github.com/de-tools/housing-atlas/pkg/services/selection"

	atlasmiddleware "github.com/de-tools/housing-atlas/pkg/server/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type WebAPI struct {
	router *chi.Mux
	logger *zerolog.Logger
	server *http.Server
}

type Dependencies struct {
	Catalog  *catalog.Catalog
	Resolver *selection.Resolver
	Composer figure.Composer
	Defaults domain.Defaults
	Logger   zerolog.Logger
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	Dependencies    Dependencies
}

func ConfigureRouter(config Config) *chi.Mux {
	deps := config.Dependencies
	handler := dashboard.NewHandler(deps.Catalog, deps.Resolver, deps.Composer, deps.Defaults)

	router := chi.NewRouter()
	router.Use(atlasmiddleware.Logger(&deps.Logger))
	router.Use(middleware.Recoverer)

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		r.Get("/defaults", handler.GetDefaults)
		r.Get("/variables", handler.ListVariables)
		r.Get("/regions", handler.ListRegions)
		r.Get("/periods", handler.ListPeriods)
		r.Post("/selection", handler.ResolveSelection)
		r.Post("/figures/map", handler.MapFigure)
		r.Post("/figures/timeseries", handler.TimeSeriesFigure)
	})

	return router
}

func NewWebAPI(logger zerolog.Logger, config Config) *WebAPI {
	config.Dependencies.Logger = logger
	router := ConfigureRouter(config)

	return &WebAPI{
		router: router,
		logger: &logger,
		server: &http.Server{
			Addr:    config.Addr,
			Handler: router,
		},
	}
}

func (w *WebAPI) Start() error {
	serverErrors := make(chan error, 1)
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-shutdown:
		w.logger.Info().Msg("shutdown initiated")

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := w.server.Shutdown(ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("graceful shutdown failed")
			err = w.server.Close()
		}

		if err != nil {
			return err
		}
	}

	return nil
}
