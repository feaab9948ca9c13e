package datalink

import (
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"

	"github.com/signalsfoundry/datalink-fusion/api/datalinkv1"
	"github.com/signalsfoundry/datalink-fusion/internal/logging"
	"github.com/signalsfoundry/datalink-fusion/internal/observability"
)

// ServerOptions configures NewGRPCServer.
type ServerOptions struct {
	Logger         logging.Logger
	Metrics        *observability.Collector
	RequestTimeout time.Duration
	Extra          []grpc.ServerOption
}

// NewGRPCServer builds a gRPC server with the service registered and the
// interceptor chain installed: request ID, deadline, tracing, metrics.
func NewGRPCServer(svc datalinkv1.DatalinkServiceServer, opts ServerOptions) *grpc.Server {
	interceptors := []grpc.UnaryServerInterceptor{
		RequestIDUnaryServerInterceptor(opts.Logger),
		DeadlineUnaryServerInterceptor(opts.RequestTimeout),
		TracingUnaryServerInterceptor(),
	}
	if opts.Metrics != nil {
		interceptors = append(interceptors, opts.Metrics.UnaryServerInterceptor())
	}

	serverOpts := []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(interceptors...),
	}
	serverOpts = append(serverOpts, opts.Extra...)

	srv := grpc.NewServer(serverOpts...)
	datalinkv1.RegisterDatalinkServiceServer(srv, svc)
	return srv
}
