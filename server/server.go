package server

import (
	"context"
	"embed"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/zalepa/cocstats/dataset"
	"github.com/zalepa/cocstats/report"
	cocmiddleware "github.com/zalepa/cocstats/server/middleware"
	"github.com/zalepa/cocstats/view"
)

//go:embed web.html
var webContent embed.FS

type WebAPI struct {
	router          *chi.Mux
	logger          *zerolog.Logger
	server          *http.Server
	shutdownTimeout time.Duration
}

type Dependencies struct {
	Store    *dataset.Store
	Renderer report.Renderer
	Logger   zerolog.Logger
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	SessionTTL      time.Duration
	View            view.Options
	Dependencies    Dependencies
}

// ConfigureRouter wires the dashboard page, the JSON API and /metrics.
func ConfigureRouter(config Config) *chi.Mux {
	store := config.Dependencies.Store
	if store == nil {
		store = dataset.NewStore(nil)
	}
	storeRecords.Set(float64(store.Len()))

	records := store.Records()
	opts := config.View.WithDefaults()
	h := &handler{
		store: store,
		sessions: newSessionTable(config.SessionTTL, func() *view.Session {
			return view.NewSession(records, opts)
		}),
		renderer: config.Dependencies.Renderer,
		pageSize: opts.PageSize,
	}

	logger := config.Dependencies.Logger
	router := chi.NewRouter()
	router.Use(cocmiddleware.Logger(&logger))
	router.Use(middleware.Recoverer)
	router.Use(instrument)

	router.Get("/", h.Index)
	router.Get("/healthz", h.Health)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Get("/metadata", h.Metadata)
		r.Get("/view", h.View)
		r.Post("/filter", h.Filter)
		r.Post("/reset", h.Reset)
		r.Post("/page", h.Page)
		r.Post("/selection/toggle", h.Toggle)
		r.Post("/selection/page", h.SelectPage)
		r.Post("/rows/delete", h.DeleteRows)
		r.Get("/chart", h.Chart)
		r.Get("/chart.png", h.ChartPNG)
		r.Get("/export.pdf", h.ExportPDF)
	})
	return router
}

func NewWebAPI(logger zerolog.Logger, config Config) *WebAPI {
	config.Dependencies.Logger = logger
	router := ConfigureRouter(config)

	timeout := config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebAPI{
		router: router,
		logger: &logger,
		server: &http.Server{
			Addr:              config.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: timeout,
	}
}

// Start serves until the listener fails, ctx is cancelled or the process
// receives SIGINT or SIGTERM, then shuts down gracefully.
func (w *WebAPI) Start(ctx context.Context) error {
	serverErrors := make(chan error, 1)
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-shutdown:
	case <-ctx.Done():
	}
	w.logger.Info().Msg("shutdown initiated")

	// Give outstanding requests a deadline for completion.
	sctx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
	defer cancel()

	err := w.server.Shutdown(sctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("graceful shutdown failed")
		err = w.server.Close()
	}
	return err
}
