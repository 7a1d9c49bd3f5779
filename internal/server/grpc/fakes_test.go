package grpc

import (
	"context"
	"net"
	"testing"

	"github.com/dmitrijs2005/niceweather/internal/server/models"
	"github.com/dmitrijs2005/niceweather/internal/server/push"
	"github.com/dmitrijs2005/niceweather/internal/server/services"
	"github.com/dmitrijs2005/niceweather/internal/server/weather"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

type fakeSessions struct {
	user *models.User
	sess *models.Session
	err  error

	gotLocation *weather.Location

	authSess *models.Session
	authErr  error

	revoked   *models.Session
	revokeErr error

	deleted   string
	deleteErr error
}

func (f *fakeSessions) CreateUser(_ context.Context, _, _ string, loc *weather.Location) (*models.User, *models.Session, error) {
	f.gotLocation = loc
	return f.user, f.sess, f.err
}

func (f *fakeSessions) AuthenticateByCredentials(context.Context, string, string) (*models.User, *models.Session, error) {
	return f.user, f.sess, f.err
}

func (f *fakeSessions) AuthenticateByToken(context.Context, string) (*models.Session, error) {
	return f.authSess, f.authErr
}

func (f *fakeSessions) RevokeSession(_ context.Context, s *models.Session) error {
	f.revoked = s
	return f.revokeErr
}

func (f *fakeSessions) DeleteUser(_ context.Context, userID string) error {
	f.deleted = userID
	return f.deleteErr
}

type fakeRegistry struct {
	gotUser, gotSession string
	gotType             models.DeviceType
	err                 error
	deleted             int64
}

func (f *fakeRegistry) Register(_ context.Context, token string, dt models.DeviceType, userID, sessionID string) (*models.PushToken, error) {
	f.gotUser, f.gotSession, f.gotType = userID, sessionID, dt
	if f.err != nil {
		return nil, f.err
	}
	return &models.PushToken{ID: "pt-1", UserID: userID, DeviceToken: token, DeviceType: dt, SessionID: sessionID}, nil
}

func (f *fakeRegistry) DeleteBySession(_ context.Context, sessionID string) (int64, error) {
	f.gotSession = sessionID
	return f.deleted, f.err
}

type fakeLocations struct {
	loc *models.Location
	err error
}

func (f *fakeLocations) GetLocation(context.Context, string) (*models.Location, error) {
	return f.loc, f.err
}

func (f *fakeLocations) UpdateLocation(_ context.Context, userID string, lat, lon float64) (*models.Location, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Location{UserID: userID, Latitude: lat, Longitude: lon}, nil
}

type fakeNotifier struct {
	gotUser string
	gotMsg  push.Message
	report  services.DispatchReport
	err     error
}

func (f *fakeNotifier) SendToUser(_ context.Context, userID string, msg push.Message) (services.DispatchReport, error) {
	f.gotUser, f.gotMsg = userID, msg
	return f.report, f.err
}

type fakeJob struct {
	report services.RunReport
	err    error
}

func (f *fakeJob) Trigger(context.Context) (services.RunReport, error) {
	return f.report, f.err
}

func newBufListener(t *testing.T) *bufconn.Listener {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	t.Cleanup(func() { _ = lis.Close() })
	return lis
}

// startBufServer serves s over an in-memory listener and returns a client
// connection to it. The server stops when the test ends.
func startBufServer(t *testing.T, s *GRPCServer) *grpc.ClientConn {
	t.Helper()
	lis := newBufListener(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		cancel()
		t.Fatalf("dial bufnet: %v", err)
	}

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Serve: %v", err)
		}
	})
	return conn
}
