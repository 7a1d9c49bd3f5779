package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/niceweather/internal/common"
	"github.com/dmitrijs2005/niceweather/internal/server/models"
	"github.com/dmitrijs2005/niceweather/internal/server/push"
	"github.com/dmitrijs2005/niceweather/internal/server/weather"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func authResponse(u *models.User, sess *models.Session) *AuthResponse {
	return &AuthResponse{
		UserID:    u.ID,
		Username:  u.UserName,
		SessionID: sess.ID,
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
	}
}

func locationResponse(l *models.Location) *LocationResponse {
	return &LocationResponse{
		Latitude:        l.Latitude,
		Longitude:       l.Longitude,
		LastTemperature: l.LastTemperature,
		LastNotifiedAt:  l.LastNotifiedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

func (s *GRPCServer) CreateUser(ctx context.Context, req *CreateUserRequest) (*AuthResponse, error) {
	var loc *weather.Location
	if req.Location != nil {
		loc = &weather.Location{Latitude: req.Location.Latitude, Longitude: req.Location.Longitude}
	}

	u, sess, err := s.sessions.CreateUser(ctx, req.Username, req.Password, loc)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return authResponse(u, sess), nil
}

func (s *GRPCServer) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	u, sess, err := s.sessions.AuthenticateByCredentials(ctx, req.Username, req.Password)
	if err != nil {
		// unknown user and wrong password look the same to the caller
		if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrIncorrectPassword) {
			return nil, errInvalidCredentials
		}
		return nil, s.toStatus(ctx, err)
	}
	return authResponse(u, sess), nil
}

func (s *GRPCServer) Logout(ctx context.Context, _ *Empty) (*Empty, error) {
	sess, err := sessionFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.RevokeSession(ctx, sess); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &Empty{}, nil
}

func (s *GRPCServer) DeleteAccount(ctx context.Context, _ *Empty) (*Empty, error) {
	sess, err := sessionFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.DeleteUser(ctx, sess.UserID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &Empty{}, nil
}

func (s *GRPCServer) RegisterPushToken(ctx context.Context, req *RegisterPushTokenRequest) (*PushTokenResponse, error) {
	sess, err := sessionFromContext(ctx)
	if err != nil {
		return nil, err
	}

	pt, err := s.registry.Register(ctx, req.DeviceToken, models.DeviceType(req.DeviceType), sess.UserID, sess.ID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &PushTokenResponse{
		ID:         pt.ID,
		DeviceType: string(pt.DeviceType),
		SessionID:  pt.SessionID,
		UpdatedAt:  pt.UpdatedAt,
	}, nil
}

func (s *GRPCServer) DeletePushTokensBySession(ctx context.Context, _ *Empty) (*DeleteCountResponse, error) {
	sess, err := sessionFromContext(ctx)
	if err != nil {
		return nil, err
	}

	n, err := s.registry.DeleteBySession(ctx, sess.ID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &DeleteCountResponse{Deleted: n}, nil
}

// SendNotification pushes a message to the caller's own devices.
func (s *GRPCServer) SendNotification(ctx context.Context, req *SendNotificationRequest) (*SendNotificationResponse, error) {
	sess, err := sessionFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Title) == "" && strings.TrimSpace(req.Body) == "" {
		return nil, status.Error(codes.InvalidArgument, "title or body is required")
	}

	report, err := s.notifier.SendToUser(ctx, sess.UserID, push.Message{Title: req.Title, Body: req.Body})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &SendNotificationResponse{
		Sent:        report.Sent,
		Failed:      report.Failed,
		Invalidated: report.Invalidated,
	}, nil
}

func (s *GRPCServer) RunWeatherJob(ctx context.Context, _ *Empty) (*RunWeatherJobResponse, error) {
	report, err := s.job.Trigger(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &RunWeatherJobResponse{
		Evaluated:  report.Evaluated,
		Notified:   report.Notified,
		Suppressed: report.Suppressed,
		Failed:     report.Failed,
	}, nil
}

func (s *GRPCServer) GetLocation(ctx context.Context, _ *Empty) (*LocationResponse, error) {
	sess, err := sessionFromContext(ctx)
	if err != nil {
		return nil, err
	}

	l, err := s.locations.GetLocation(ctx, sess.UserID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return locationResponse(l), nil
}

func (s *GRPCServer) UpdateLocation(ctx context.Context, req *Coordinates) (*LocationResponse, error) {
	sess, err := sessionFromContext(ctx)
	if err != nil {
		return nil, err
	}

	l, err := s.locations.UpdateLocation(ctx, sess.UserID, req.Latitude, req.Longitude)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return locationResponse(l), nil
}
