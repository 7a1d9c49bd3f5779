package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// defaultWebPushTTL is how long, in seconds, the push service may hold a
// message for an offline browser.
const defaultWebPushTTL = 3600

// ParseSubscription decodes a stored Web Push token, the JSON a browser
// returns from PushManager.subscribe.
func ParseSubscription(deviceToken string) (*webpush.Subscription, error) {
	var s webpush.Subscription
	if err := json.Unmarshal([]byte(deviceToken), &s); err != nil {
		return nil, fmt.Errorf("subscription json: %w", err)
	}
	if s.Endpoint == "" {
		return nil, errors.New("subscription has no endpoint")
	}
	if s.Keys.Auth == "" || s.Keys.P256dh == "" {
		return nil, errors.New("subscription has no keys")
	}
	return &s, nil
}

// WebPushConfig holds the VAPID key pair and contact.
type WebPushConfig struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subscriber      string
	TTL             int
	HTTPClient      *http.Client
}

type WebPushProvider struct {
	cfg WebPushConfig
}

func NewWebPushProvider(cfg WebPushConfig) *WebPushProvider {
	if cfg.TTL == 0 {
		cfg.TTL = defaultWebPushTTL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &WebPushProvider{cfg: cfg}
}

func (p *WebPushProvider) Send(ctx context.Context, deviceToken string, msg Message) error {
	sub, err := ParseSubscription(deviceToken)
	if err != nil {
		return invalidTarget("webpush: %v", err)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return transient("webpush: %v", err)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, body, sub, &webpush.Options{
		HTTPClient:      p.cfg.HTTPClient,
		Subscriber:      p.cfg.Subscriber,
		VAPIDPublicKey:  p.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: p.cfg.VAPIDPrivateKey,
		TTL:             p.cfg.TTL,
	})
	if err != nil {
		return transient("webpush: %v", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusGone:
		return invalidTarget("webpush: status %d", resp.StatusCode)
	}
	return transient("webpush: status %d", resp.StatusCode)
}
