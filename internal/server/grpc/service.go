package grpc

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "niceweather.v1.NiceWeather"

// Full method names, as seen by interceptors.
const (
	MethodCreateUser                = "/" + ServiceName + "/CreateUser"
	MethodLogin                     = "/" + ServiceName + "/Login"
	MethodLogout                    = "/" + ServiceName + "/Logout"
	MethodDeleteAccount             = "/" + ServiceName + "/DeleteAccount"
	MethodRegisterPushToken         = "/" + ServiceName + "/RegisterPushToken"
	MethodDeletePushTokensBySession = "/" + ServiceName + "/DeletePushTokensBySession"
	MethodSendNotification          = "/" + ServiceName + "/SendNotification"
	MethodRunWeatherJob             = "/" + ServiceName + "/RunWeatherJob"
	MethodGetLocation               = "/" + ServiceName + "/GetLocation"
	MethodUpdateLocation            = "/" + ServiceName + "/UpdateLocation"
)

// NiceWeatherServer is the server API of the NiceWeather service.
type NiceWeatherServer interface {
	CreateUser(context.Context, *CreateUserRequest) (*AuthResponse, error)
	Login(context.Context, *LoginRequest) (*AuthResponse, error)
	Logout(context.Context, *Empty) (*Empty, error)
	DeleteAccount(context.Context, *Empty) (*Empty, error)
	RegisterPushToken(context.Context, *RegisterPushTokenRequest) (*PushTokenResponse, error)
	DeletePushTokensBySession(context.Context, *Empty) (*DeleteCountResponse, error)
	SendNotification(context.Context, *SendNotificationRequest) (*SendNotificationResponse, error)
	RunWeatherJob(context.Context, *Empty) (*RunWeatherJobResponse, error)
	GetLocation(context.Context, *Empty) (*LocationResponse, error)
	UpdateLocation(context.Context, *Coordinates) (*LocationResponse, error)
}

// ServiceDesc describes the NiceWeather service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*NiceWeatherServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateUser", NiceWeatherServer.CreateUser),
		unary("Login", NiceWeatherServer.Login),
		unary("Logout", NiceWeatherServer.Logout),
		unary("DeleteAccount", NiceWeatherServer.DeleteAccount),
		unary("RegisterPushToken", NiceWeatherServer.RegisterPushToken),
		unary("DeletePushTokensBySession", NiceWeatherServer.DeletePushTokensBySession),
		unary("SendNotification", NiceWeatherServer.SendNotification),
		unary("RunWeatherJob", NiceWeatherServer.RunWeatherJob),
		unary("GetLocation", NiceWeatherServer.GetLocation),
		unary("UpdateLocation", NiceWeatherServer.UpdateLocation),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "niceweather/v1/niceweather",
}

func unary[Req, Resp any](name string, call func(NiceWeatherServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(NiceWeatherServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + name,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(NiceWeatherServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Client calls the NiceWeather service over the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateUser(ctx context.Context, in *CreateUserRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, MethodCreateUser, in, opts)
}

func (c *Client) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, MethodLogin, in, opts)
}

func (c *Client) Logout(ctx context.Context, opts ...grpc.CallOption) error {
	_, err := invoke[Empty](ctx, c.cc, MethodLogout, &Empty{}, opts)
	return err
}

func (c *Client) DeleteAccount(ctx context.Context, opts ...grpc.CallOption) error {
	_, err := invoke[Empty](ctx, c.cc, MethodDeleteAccount, &Empty{}, opts)
	return err
}

func (c *Client) RegisterPushToken(ctx context.Context, in *RegisterPushTokenRequest, opts ...grpc.CallOption) (*PushTokenResponse, error) {
	return invoke[PushTokenResponse](ctx, c.cc, MethodRegisterPushToken, in, opts)
}

func (c *Client) DeletePushTokensBySession(ctx context.Context, opts ...grpc.CallOption) (*DeleteCountResponse, error) {
	return invoke[DeleteCountResponse](ctx, c.cc, MethodDeletePushTokensBySession, &Empty{}, opts)
}

func (c *Client) SendNotification(ctx context.Context, in *SendNotificationRequest, opts ...grpc.CallOption) (*SendNotificationResponse, error) {
	return invoke[SendNotificationResponse](ctx, c.cc, MethodSendNotification, in, opts)
}

func (c *Client) RunWeatherJob(ctx context.Context, opts ...grpc.CallOption) (*RunWeatherJobResponse, error) {
	return invoke[RunWeatherJobResponse](ctx, c.cc, MethodRunWeatherJob, &Empty{}, opts)
}

func (c *Client) GetLocation(ctx context.Context, opts ...grpc.CallOption) (*LocationResponse, error) {
	return invoke[LocationResponse](ctx, c.cc, MethodGetLocation, &Empty{}, opts)
}

func (c *Client) UpdateLocation(ctx context.Context, in *Coordinates, opts ...grpc.CallOption) (*LocationResponse, error) {
	return invoke[LocationResponse](ctx, c.cc, MethodUpdateLocation, in, opts)
}
