// Package push delivers notifications to devices through platform gateways.
//
// Every Provider error wraps exactly one of common.ErrProviderInvalidTarget
// (the device token is dead and should be forgotten) or
// common.ErrProviderTransient (anything else).
package push

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/niceweather/internal/common"
)

// Message is the user-visible content of a notification.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type Provider interface {
	Send(ctx context.Context, deviceToken string, msg Message) error
}

func invalidTarget(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrProviderInvalidTarget, fmt.Sprintf(format, args...))
}

func transient(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrProviderTransient, fmt.Sprintf(format, args...))
}
