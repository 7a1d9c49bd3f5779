package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/niceweather/internal/common"
	"github.com/dmitrijs2005/niceweather/internal/server/metrics"
	"github.com/dmitrijs2005/niceweather/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

// SessionKey holds the authenticated *models.Session in a request context.
const SessionKey ctxKey = "session"

// publicMethods are reachable without an access token.
var publicMethods = map[string]struct{}{
	MethodCreateUser: {},
	MethodLogin:      {},
}

func sessionFromContext(ctx context.Context) (*models.Session, error) {
	sess, ok := ctx.Value(SessionKey).(*models.Session)
	if !ok || sess == nil {
		return nil, status.Error(codes.Unauthenticated, "no session")
	}
	return sess, nil
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	// other services (health) carry no account data
	if !strings.HasPrefix(info.FullMethod, "/"+ServiceName+"/") {
		return handler(ctx, req)
	}
	if _, ok := publicMethods[info.FullMethod]; ok {
		return handler(ctx, req)
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing metadata")
	}

	values := md.Get(common.AccessTokenHeaderName)
	if len(values) == 0 || values[0] == "" {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	sess, err := s.sessions.AuthenticateByToken(ctx, values[0])
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}
		return nil, s.toStatus(ctx, err)
	}

	ctx = context.WithValue(ctx, SessionKey, sess)
	return handler(ctx, req)
}

func (s *GRPCServer) metricsInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	metrics.RPCRequests.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
	return resp, err
}
