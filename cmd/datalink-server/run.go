package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/signalsfoundry/datalink-fusion/api/iffv1"
	"github.com/signalsfoundry/datalink-fusion/api/radarv1"
	"github.com/signalsfoundry/datalink-fusion/internal/config"
	"github.com/signalsfoundry/datalink-fusion/internal/datalink"
	"github.com/signalsfoundry/datalink-fusion/internal/feed"
	"github.com/signalsfoundry/datalink-fusion/internal/fusion"
	"github.com/signalsfoundry/datalink-fusion/internal/gateway"
	"github.com/signalsfoundry/datalink-fusion/internal/ingest"
	"github.com/signalsfoundry/datalink-fusion/internal/logging"
	"github.com/signalsfoundry/datalink-fusion/internal/mirror"
	"github.com/signalsfoundry/datalink-fusion/internal/observability"
	"github.com/signalsfoundry/datalink-fusion/timectrl"
)

// listeners lets tests inject pre-bound sockets. Nil fields are bound from
// the configured addresses.
type listeners struct {
	grpc net.Listener
	http net.Listener
}

// run wires every component and blocks until ctx is cancelled or a server
// fails. Feed dial options are appended to the defaults.
func run(ctx context.Context, cfg config.Config, log logging.Logger, ls listeners, feedOpts ...grpc.DialOption) error {
	if log == nil {
		log = logging.Noop()
	}
	clock := timectrl.SystemClock{}

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	collector, err := observability.NewCollector(nil)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	store := fusion.NewStore(log.With(logging.String("component", "store")),
		fusion.WithShards(cfg.Store.Shards),
		fusion.WithEvictionTTL(cfg.Store.EvictionTTL),
		fusion.WithEvictManual(cfg.Store.EvictManual),
		fusion.WithMetricsRecorder(collector),
	)

	sink, err := mirror.Open(cfg.Mirror)
	if err != nil {
		return err
	}
	var mirrorWorker *mirror.Mirror
	if sink != nil {
		defer func() {
			if err := sink.Close(); err != nil {
				log.Warn(context.Background(), "closing mirror sink", logging.Err(err))
			}
		}()
		mirrorWorker = mirror.New(sink, mirror.Options{
			QueueSize:    cfg.Mirror.QueueSize,
			WriteTimeout: cfg.Mirror.WriteTimeout,
			Metrics:      collector,
			Logger:       log,
		})
		store.Subscribe(mirrorWorker.Observe)
		log.Info(ctx, "mirroring track mutations", logging.String("backend", cfg.Mirror.Backend))
	}

	feeds, err := feed.Dial(feed.Config{
		RadarAddress:    cfg.Radar.Address,
		RefreshInterval: cfg.Radar.RefreshInterval,
		IFFAddress:      cfg.IFF.Address,
		IFFArea:         feed.Area{Lat: cfg.IFF.Lat, Lon: cfg.IFF.Lon, RadiusKm: cfg.IFF.RadiusKm},
	}, feedOpts...)
	if err != nil {
		return err
	}
	defer func() { _ = feeds.Close() }()

	ingestCfg := ingest.Config{
		BackoffInitial: cfg.Ingest.BackoffInitial,
		BackoffMax:     cfg.Ingest.BackoffMax,
		QueueSize:      cfg.Ingest.QueueSize,
		Metrics:        collector,
		Logger:         log.With(logging.String("component", "ingest")),
	}
	radarRunner := ingest.NewRunner(ingest.SourceRadar,
		func(ctx context.Context) (ingest.Stream[*radarv1.RadarTarget], error) { return feeds.OpenRadar(ctx) },
		ingest.RadarApplier(store, clock),
		ingestCfg,
	)
	iffRunner := ingest.NewRunner(ingest.SourceIFF,
		func(ctx context.Context) (ingest.Stream[*iffv1.IFFStreamResponse], error) { return feeds.OpenIFF(ctx) },
		ingest.IFFApplier(store, clock),
		ingestCfg,
	)

	svc := datalink.NewService(store, clock, log)
	grpcSrv := datalink.NewGRPCServer(svc, datalink.ServerOptions{
		Logger:         log,
		Metrics:        collector,
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	grpcLis := ls.grpc
	if grpcLis == nil {
		if grpcLis, err = net.Listen("tcp", cfg.Server.GRPCAddr); err != nil {
			return fmt.Errorf("listen grpc %s: %w", cfg.Server.GRPCAddr, err)
		}
	}

	var httpSrv *http.Server
	httpLis := ls.http
	if httpLis == nil && cfg.Server.HTTPAddr != "" {
		if httpLis, err = net.Listen("tcp", cfg.Server.HTTPAddr); err != nil {
			_ = grpcLis.Close()
			return fmt.Errorf("listen http %s: %w", cfg.Server.HTTPAddr, err)
		}
	}
	if httpLis != nil {
		httpSrv = &http.Server{
			Handler: gateway.NewRouter(svc, gateway.Options{
				Logger:  log,
				Metrics: collector.Handler(),
				Timeout: cfg.Server.RequestTimeout,
			}),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return radarRunner.Run(gctx) })
	g.Go(func() error { return iffRunner.Run(gctx) })
	g.Go(func() error {
		store.RunEviction(gctx, clock, cfg.Store.SweepInterval)
		return nil
	})
	if mirrorWorker != nil {
		g.Go(func() error { return mirrorWorker.Run(gctx) })
	}

	g.Go(func() error {
		log.Info(gctx, "serving datalink gRPC", logging.String("addr", grpcLis.Addr().String()))
		if err := grpcSrv.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})
	if httpSrv != nil {
		g.Go(func() error {
			log.Info(gctx, "serving HTTP gateway", logging.String("addr", httpLis.Addr().String()))
			if err := httpSrv.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http gateway: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down datalink server")
		stopGRPC(grpcSrv, cfg.Server.ShutdownTimeout)
		if httpSrv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg.Server.ShutdownTimeout))
			defer cancel()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				log.Warn(shutdownCtx, "http gateway shutdown", logging.Err(err))
				_ = httpSrv.Close()
			}
		}
		return nil
	})

	return g.Wait()
}

func shutdownTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return 10 * time.Second
	}
	return d
}

// stopGRPC drains in-flight RPCs, forcing a hard stop once timeout elapses.
func stopGRPC(srv *grpc.Server, timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownTimeout(timeout)):
		srv.Stop()
		<-done
	}
}
