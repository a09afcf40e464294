package rpc

import (
	"net"

	"github.com/spooky-finn/go-cryptomarkets-aggregator/rpc/booksummary"
	"github.com/spooky-finn/go-cryptomarkets-aggregator/usecase"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

type server struct {
	summaryUseCase *usecase.SummaryUseCase
	booksummary.UnimplementedOrderbookAggregatorServer
	validationService *ValidationService
	log               *zap.Logger
}

func NewServer(summaryUseCase *usecase.SummaryUseCase, conf *ValidationServiceConfig, log *zap.Logger) *server {
	return &server{
		summaryUseCase:    summaryUseCase,
		validationService: NewValidationService(conf),
		log:               log,
	}
}

// GrpcServer serves the aggregator next to the standard health service.
type GrpcServer struct {
	Server *grpc.Server
	health *health.Server
}

func NewGrpcServer(srv *server, development bool, opts ...grpc.ServerOption) *GrpcServer {
	opts = append(opts, grpc.ForceServerCodec(booksummary.Codec{}))
	s := &GrpcServer{
		Server: grpc.NewServer(opts...),
		health: health.NewServer(),
	}

	booksummary.RegisterOrderbookAggregatorServer(s.Server, srv)
	healthpb.RegisterHealthServer(s.Server, s.health)
	s.health.SetServingStatus(booksummary.ServiceName, healthpb.HealthCheckResponse_SERVING)

	if development {
		reflection.Register(s.Server)
	}

	return s
}

func (s *GrpcServer) Serve(lis net.Listener) error {
	return s.Server.Serve(lis)
}

// Stop reports NOT_SERVING and then cancels every running call, watch
// streams included.
func (s *GrpcServer) Stop() {
	s.health.Shutdown()
	s.Server.Stop()
}
