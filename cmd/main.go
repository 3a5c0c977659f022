package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/futurepaul/popow/internal/adapters/http/api"
	"github.com/futurepaul/popow/internal/adapters/http/swagger"
	"github.com/futurepaul/popow/internal/adapters/relay"
	"github.com/futurepaul/popow/internal/app"
	"github.com/futurepaul/popow/internal/config"
	"github.com/futurepaul/popow/internal/domain/scoring"
	"github.com/futurepaul/popow/pkg/logger"
	"github.com/futurepaul/popow/pkg/metrics"
)

// HTTP server timeout constants. There is no write timeout: /stream is
// long-lived.
const (
	readTimeout       = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger is not available until the format is known.
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	metrics.GetRegistry().MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "exiting", logger.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

// run serves HTTP and drives ingestion until ctx ends.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	coord := newCoordinator(cfg, log)
	srv := newHTTPServer(gctx, cfg, coord)

	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		// A failed start leaves the coordinator Disconnected; POST /reconnect retries.
		if err := coord.Start(gctx); err != nil {
			log.Warn(gctx, "initial relay connection failed", logger.Error(err))
		}
		<-gctx.Done()
		coord.Stop(context.Background())
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info(gctx, "shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	log.Info(ctx, "server stopped")
	return err
}

func newCoordinator(cfg *config.Config, log logger.Logger) *app.Coordinator {
	source := relay.NewNostrSource(cfg.RelayURL,
		relay.WithConnectTimeout(cfg.ConnectTimeout()),
		relay.WithBufferSize(cfg.SubscriptionBuffer),
		relay.WithLogger(log.Named("relay")),
	)
	policy := scoring.NewPolicy(
		scoring.WithNonceTag(cfg.NonceTag),
		scoring.WithTierThresholds(cfg.TierHigh, cfg.TierMedium),
	)
	return app.New(source,
		app.WithLogger(log.Named("coordinator")),
		app.WithPolicy(policy),
		app.WithEventKinds(cfg.EventKind),
		app.WithFetchLimit(cfg.FetchLimit),
		app.WithLookback(cfg.Lookback()),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.EventQueueSize),
	)
}

func newHTTPServer(ctx context.Context, cfg *config.Config, deps api.Dependencies) *http.Server {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(deps, api.WithMaxLimit(cfg.MaxRankedLimit)).Register(ctx, mux)

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		// Request contexts end with ctx; open /stream handlers return on shutdown.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
}
