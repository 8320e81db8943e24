// planner-server serves the planning service over gRPC, with Prometheus
// metrics on a separate HTTP listener.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"

	"github.com/signalsfoundry/tasking-planner/internal/config"
	"github.com/signalsfoundry/tasking-planner/internal/logging"
	"github.com/signalsfoundry/tasking-planner/internal/observability"
	"github.com/signalsfoundry/tasking-planner/internal/runner"
	"github.com/signalsfoundry/tasking-planner/internal/service"
	"github.com/signalsfoundry/tasking-planner/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to planner.yaml (default: ./planner.yaml if present)")
	listen := flag.String("listen", "", "TCP address the gRPC server listens on (overrides server.listen)")
	metricsListen := flag.String("metrics-listen", "", "HTTP address for Prometheus /metrics (overrides server.metrics_listen)")
	dbPath := flag.String("db", "", "record runs in this SQLite database (overrides store.path)")
	flag.Parse()

	ctx := context.Background()
	bootLog := logging.NewFromEnv()

	v, err := config.NewViper(*configPath)
	if err != nil {
		bootLog.Error(ctx, "failed to read configuration", logging.Err(err))
		os.Exit(1)
	}
	if *listen != "" {
		v.Set("server.listen", *listen)
	}
	if *metricsListen != "" {
		v.Set("server.metrics_listen", *metricsListen)
	}
	if *dbPath != "" {
		v.Set("store.path", *dbPath)
	}
	cfg, err := config.Load(v)
	if err != nil {
		bootLog.Error(ctx, "invalid configuration", logging.Err(err))
		os.Exit(1)
	}
	log := logging.New(cfg.Logging())

	lis, err := net.Listen("tcp", cfg.Server.Listen)
	if err != nil {
		log.Error(ctx, "failed to listen for gRPC", logging.String("addr", cfg.Server.Listen), logging.Err(err))
		os.Exit(1)
	}

	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if err := run(stopCtx, cfg, log, lis); err != nil {
		log.Error(ctx, "planner server exited", logging.Err(err))
		os.Exit(1)
	}
}

// run serves until ctx is cancelled, then drains in-flight RPCs.
func run(ctx context.Context, cfg *config.Config, log logging.Logger, lis net.Listener) error {
	shutdownTracing, err := observability.InitTracing(ctx, cfg.TracingConfig(), log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	collector, err := observability.NewPlannerCollector(nil)
	if err != nil {
		return fmt.Errorf("init metrics collector: %w", err)
	}
	metricsSrv := serveMetrics(cfg.Server.MetricsListen, collector, log)

	var opts []service.Option
	if cfg.Store.Path != "" {
		history, err := store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer history.Close()
		opts = append(opts, service.WithHistory(history))
	}

	r := runner.New(runner.Options{
		Planner: cfg.HTN(),
		Metrics: collector,
		Logger:  log,
	})

	server := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			service.RequestIDUnaryServerInterceptor(log),
			collector.UnaryServerInterceptor(),
			service.TracingUnaryServerInterceptor(),
		),
	)
	service.RegisterPlanningServiceServer(server, service.NewPlanningService(r, log, opts...))

	errCh := make(chan error, 1)
	log.Info(ctx, "starting planner gRPC server", logging.String("addr", lis.Addr().String()))
	go func() {
		errCh <- server.Serve(lis)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc serve: %w", err)
		}
	}

	log.Info(context.Background(), "shutting down planner server")
	server.GracefulStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	return nil
}

func serveMetrics(addr string, collector *observability.PlannerCollector, log logging.Logger) *http.Server {
	if collector == nil || addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
