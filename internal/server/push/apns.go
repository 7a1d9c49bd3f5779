package push

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// apnsPusher is the part of *apns2.Client the provider needs.
type apnsPusher interface {
	PushWithContext(ctx apns2.Context, n *apns2.Notification) (*apns2.Response, error)
}

// APNSConfig holds token-based (.p8) credentials.
type APNSConfig struct {
	KeyFile    string
	KeyID      string
	TeamID     string
	Topic      string
	Production bool
}

type APNSProvider struct {
	client apnsPusher
	topic  string
}

// NewAPNSProvider loads the signing key and builds an HTTP/2 client for the
// production or sandbox gateway.
func NewAPNSProvider(cfg APNSConfig) (*APNSProvider, error) {
	key, err := token.AuthKeyFromFile(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("apns key: %w", err)
	}
	client := apns2.NewTokenClient(&token.Token{AuthKey: key, KeyID: cfg.KeyID, TeamID: cfg.TeamID})
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}
	return &APNSProvider{client: client, topic: cfg.Topic}, nil
}

func newAPNSProviderWithClient(client apnsPusher, topic string) *APNSProvider {
	return &APNSProvider{client: client, topic: topic}
}

func (p *APNSProvider) Send(ctx context.Context, deviceToken string, msg Message) error {
	n := &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       p.topic,
		Payload:     payload.NewPayload().AlertTitle(msg.Title).AlertBody(msg.Body).Sound("default"),
	}

	res, err := p.client.PushWithContext(ctx, n)
	if err != nil {
		return transient("apns: %v", err)
	}
	if res.Sent() {
		return nil
	}

	switch {
	case res.StatusCode == http.StatusGone,
		res.Reason == apns2.ReasonBadDeviceToken,
		res.Reason == apns2.ReasonUnregistered,
		res.Reason == apns2.ReasonDeviceTokenNotForTopic:
		return invalidTarget("apns: %d %s", res.StatusCode, res.Reason)
	}
	return transient("apns: %d %s", res.StatusCode, res.Reason)
}
