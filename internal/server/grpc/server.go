// Package grpc exposes the niceweather services over gRPC. Messages travel
// as JSON; clients select the codec with grpc.CallContentSubtype(CodecName).
package grpc

import (
	"context"
	"errors"
	"net"

	"github.com/dmitrijs2005/niceweather/internal/logging"
	"github.com/dmitrijs2005/niceweather/internal/server/models"
	"github.com/dmitrijs2005/niceweather/internal/server/services"
	"github.com/dmitrijs2005/niceweather/internal/server/weather"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type SessionManager interface {
	CreateUser(ctx context.Context, username, password string, loc *weather.Location) (*models.User, *models.Session, error)
	AuthenticateByCredentials(ctx context.Context, username, password string) (*models.User, *models.Session, error)
	AuthenticateByToken(ctx context.Context, token string) (*models.Session, error)
	RevokeSession(ctx context.Context, session *models.Session) error
	DeleteUser(ctx context.Context, userID string) error
}

type PushTokenRegistry interface {
	Register(ctx context.Context, deviceToken string, deviceType models.DeviceType, userID, sessionID string) (*models.PushToken, error)
	DeleteBySession(ctx context.Context, sessionID string) (int64, error)
}

type LocationManager interface {
	GetLocation(ctx context.Context, userID string) (*models.Location, error)
	UpdateLocation(ctx context.Context, userID string, lat, lon float64) (*models.Location, error)
}

type JobTrigger interface {
	Trigger(ctx context.Context) (services.RunReport, error)
}

type GRPCServer struct {
	address   string
	sessions  SessionManager
	registry  PushTokenRegistry
	locations LocationManager
	notifier  services.Notifier
	job       JobTrigger
	logger    logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, sm SessionManager, pr PushTokenRegistry,
	lm LocationManager, n services.Notifier, j JobTrigger) *GRPCServer {
	return &GRPCServer{
		address:   a,
		sessions:  sm,
		registry:  pr,
		locations: lm,
		notifier:  n,
		job:       j,
		logger:    l.With("module", "grpc_server"),
	}
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is cancelled, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.metricsInterceptor, s.accessTokenInterceptor))
	srv.RegisterService(&ServiceDesc, s)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		hs.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}
