package grpc

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/niceweather/internal/common"
	"github.com/dmitrijs2005/niceweather/internal/logging"
	"github.com/dmitrijs2005/niceweather/internal/server/models"
	"github.com/dmitrijs2005/niceweather/internal/server/push"
	"github.com/dmitrijs2005/niceweather/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var testSession = &models.Session{ID: "s-1", UserID: "u-1", Token: "tok", ExpiresAt: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)}

func withSession(ctx context.Context) context.Context {
	return context.WithValue(ctx, SessionKey, testSession)
}

type deps struct {
	sessions  *fakeSessions
	registry  *fakeRegistry
	locations *fakeLocations
	notifier  *fakeNotifier
	job       *fakeJob
}

func newTestServer() (*GRPCServer, *deps) {
	d := &deps{
		sessions:  &fakeSessions{},
		registry:  &fakeRegistry{},
		locations: &fakeLocations{},
		notifier:  &fakeNotifier{},
		job:       &fakeJob{},
	}
	return NewGRPCServer("", logging.Nop{}, d.sessions, d.registry, d.locations, d.notifier, d.job), d
}

func TestCreateUser_Success(t *testing.T) {
	s, d := newTestServer()
	d.sessions.user = &models.User{ID: "u-1", UserName: "alice"}
	d.sessions.sess = testSession

	resp, err := s.CreateUser(context.Background(), &CreateUserRequest{
		Username: "Alice",
		Password: "password",
		Location: &Coordinates{Latitude: 51.5, Longitude: -0.1},
	})
	require.NoError(t, err)
	assert.Equal(t, &AuthResponse{
		UserID:    "u-1",
		Username:  "alice",
		SessionID: "s-1",
		Token:     "tok",
		ExpiresAt: testSession.ExpiresAt,
	}, resp)
	require.NotNil(t, d.sessions.gotLocation)
	assert.InDelta(t, 51.5, d.sessions.gotLocation.Latitude, 1e-9)
}

func TestCreateUser_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"short password", common.ErrPasswordTooShort, codes.InvalidArgument},
		{"bad username", common.ErrInvalidUsername, codes.InvalidArgument},
		{"bad location", common.ErrInvalidLocation, codes.InvalidArgument},
		{"taken", common.UserAlreadyExists("alice"), codes.AlreadyExists},
		{"store", fmt.Errorf("%w: begin", common.ErrStoreTransaction), codes.Internal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, d := newTestServer()
			d.sessions.err = tc.err

			_, err := s.CreateUser(context.Background(), &CreateUserRequest{Username: "alice", Password: "x"})
			assert.Equal(t, tc.want, status.Code(err))
		})
	}
}

func TestCreateUser_InternalErrorHidesDetails(t *testing.T) {
	s, d := newTestServer()
	d.sessions.err = errors.New("db error: disk I/O at /var/lib/niceweather.db")

	_, err := s.CreateUser(context.Background(), &CreateUserRequest{})
	st, _ := status.FromError(err)
	assert.Equal(t, codes.Internal, st.Code())
	assert.Equal(t, "internal error", st.Message())
}

func TestLogin_SameAnswerForUnknownUserAndWrongPassword(t *testing.T) {
	for _, cause := range []error{common.NotFound("bob"), common.IncorrectPassword("bob")} {
		s, d := newTestServer()
		d.sessions.err = cause

		_, err := s.Login(context.Background(), &LoginRequest{Username: "bob", Password: "whatever"})
		st, _ := status.FromError(err)
		assert.Equal(t, codes.Unauthenticated, st.Code())
		assert.Equal(t, "invalid credentials", st.Message())
	}
}

func TestLogin_Success(t *testing.T) {
	s, d := newTestServer()
	d.sessions.user = &models.User{ID: "u-1", UserName: "bob"}
	d.sessions.sess = testSession

	resp, err := s.Login(context.Background(), &LoginRequest{Username: "bob", Password: "password"})
	require.NoError(t, err)
	assert.Equal(t, "tok", resp.Token)
}

func TestAuthenticatedHandlers_RequireSession(t *testing.T) {
	s, _ := newTestServer()
	ctx := context.Background()

	calls := map[string]func() error{
		"Logout":                    func() error { _, err := s.Logout(ctx, &Empty{}); return err },
		"DeleteAccount":             func() error { _, err := s.DeleteAccount(ctx, &Empty{}); return err },
		"RegisterPushToken":         func() error { _, err := s.RegisterPushToken(ctx, &RegisterPushTokenRequest{}); return err },
		"DeletePushTokensBySession": func() error { _, err := s.DeletePushTokensBySession(ctx, &Empty{}); return err },
		"SendNotification":          func() error { _, err := s.SendNotification(ctx, &SendNotificationRequest{Title: "t"}); return err },
		"GetLocation":               func() error { _, err := s.GetLocation(ctx, &Empty{}); return err },
		"UpdateLocation":            func() error { _, err := s.UpdateLocation(ctx, &Coordinates{}); return err },
	}
	for name, call := range calls {
		assert.Equal(t, codes.Unauthenticated, status.Code(call()), name)
	}
}

func TestLogoutAndDeleteAccount_UseCallerSession(t *testing.T) {
	s, d := newTestServer()
	ctx := withSession(context.Background())

	_, err := s.Logout(ctx, &Empty{})
	require.NoError(t, err)
	assert.Same(t, testSession, d.sessions.revoked)

	_, err = s.DeleteAccount(ctx, &Empty{})
	require.NoError(t, err)
	assert.Equal(t, "u-1", d.sessions.deleted)

	d.sessions.deleteErr = common.NotFound("u-1")
	_, err = s.DeleteAccount(ctx, &Empty{})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestRegisterPushToken(t *testing.T) {
	s, d := newTestServer()
	ctx := withSession(context.Background())

	resp, err := s.RegisterPushToken(ctx, &RegisterPushTokenRequest{DeviceToken: "abc", DeviceType: "ios"})
	require.NoError(t, err)
	assert.Equal(t, "pt-1", resp.ID)
	assert.Equal(t, "s-1", resp.SessionID)
	assert.Equal(t, "u-1", d.registry.gotUser)
	assert.Equal(t, models.DeviceTypeIOS, d.registry.gotType)

	d.registry.err = fmt.Errorf("%w: %q", common.ErrInvalidDeviceType, "android")
	_, err = s.RegisterPushToken(ctx, &RegisterPushTokenRequest{DeviceToken: "abc", DeviceType: "android"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestDeletePushTokensBySession(t *testing.T) {
	s, d := newTestServer()
	d.registry.deleted = 3

	resp, err := s.DeletePushTokensBySession(withSession(context.Background()), &Empty{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.Deleted)
	assert.Equal(t, "s-1", d.registry.gotSession)
}

func TestSendNotification(t *testing.T) {
	s, d := newTestServer()
	ctx := withSession(context.Background())

	_, err := s.SendNotification(ctx, &SendNotificationRequest{Title: " ", Body: ""})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	d.notifier.report = services.DispatchReport{Sent: 2, Failed: 1, Invalidated: 1}
	resp, err := s.SendNotification(ctx, &SendNotificationRequest{Title: "Hi", Body: "there"})
	require.NoError(t, err)
	assert.Equal(t, &SendNotificationResponse{Sent: 2, Failed: 1, Invalidated: 1}, resp)
	assert.Equal(t, "u-1", d.notifier.gotUser)
	assert.Equal(t, push.Message{Title: "Hi", Body: "there"}, d.notifier.gotMsg)
}

func TestRunWeatherJob(t *testing.T) {
	s, d := newTestServer()
	ctx := withSession(context.Background())

	d.job.report = services.RunReport{Evaluated: 4, Notified: 1, Suppressed: 2, Failed: 1}
	resp, err := s.RunWeatherJob(ctx, &Empty{})
	require.NoError(t, err)
	assert.Equal(t, &RunWeatherJobResponse{Evaluated: 4, Notified: 1, Suppressed: 2, Failed: 1}, resp)

	d.job.err = common.ErrJobAlreadyRunning
	_, err = s.RunWeatherJob(ctx, &Empty{})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestLocations(t *testing.T) {
	s, d := newTestServer()
	ctx := withSession(context.Background())

	d.locations.err = common.NotFound("u-1")
	_, err := s.GetLocation(ctx, &Empty{})
	assert.Equal(t, codes.NotFound, status.Code(err))

	temp := 70.2
	d.locations.err = nil
	d.locations.loc = &models.Location{UserID: "u-1", Latitude: 1, Longitude: 2, LastTemperature: &temp}
	resp, err := s.GetLocation(ctx, &Empty{})
	require.NoError(t, err)
	assert.InDelta(t, 70.2, *resp.LastTemperature, 1e-9)

	resp, err = s.UpdateLocation(ctx, &Coordinates{Latitude: 10, Longitude: 20})
	require.NoError(t, err)
	assert.InDelta(t, 20, resp.Longitude, 1e-9)

	d.locations.err = common.ErrInvalidLocation
	_, err = s.UpdateLocation(ctx, &Coordinates{Latitude: 100})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
