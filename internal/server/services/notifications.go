package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dmitrijs2005/niceweather/internal/common"
	"github.com/dmitrijs2005/niceweather/internal/logging"
	"github.com/dmitrijs2005/niceweather/internal/server/metrics"
	"github.com/dmitrijs2005/niceweather/internal/server/models"
	"github.com/dmitrijs2005/niceweather/internal/server/push"
	"golang.org/x/sync/errgroup"
)

// tokenStore is the part of the registry the dispatcher needs.
type tokenStore interface {
	ListForUser(ctx context.Context, userID string) ([]models.PushToken, error)
	Invalidate(ctx context.Context, ids []string) (int64, error)
}

// DispatchReport summarizes one SendToUser call.
type DispatchReport struct {
	Sent        int
	Failed      int
	Invalidated int64
}

// Dispatcher fans a message out to every device of a user.
type Dispatcher struct {
	tokens    tokenStore
	providers map[models.DeviceType]push.Provider
	limit     int
	logger    logging.Logger
}

// NewDispatcher builds a dispatcher. A device type absent from providers is
// skipped at send time; limit caps concurrent provider calls.
func NewDispatcher(tokens tokenStore, providers map[models.DeviceType]push.Provider, limit int, logger logging.Logger) *Dispatcher {
	if limit < 1 {
		limit = 1
	}
	return &Dispatcher{tokens: tokens, providers: providers, limit: limit, logger: logger.With("module", "dispatcher")}
}

// SendToUser delivers msg to all of userID's devices. Per-device failures do
// not fail the call; tokens reported dead are deleted in one batch at the end.
func (d *Dispatcher) SendToUser(ctx context.Context, userID string, msg push.Message) (DispatchReport, error) {
	var report DispatchReport

	tokens, err := d.tokens.ListForUser(ctx, userID)
	if err != nil {
		return report, err
	}

	var (
		mu      sync.Mutex
		invalid []string
		g       errgroup.Group
		missing int
	)
	g.SetLimit(d.limit)

	for _, t := range tokens {
		t := t
		provider, ok := d.providers[t.DeviceType]
		if !ok {
			d.logger.Warn(ctx, "no push provider configured", "device_type", t.DeviceType, "token_id", t.ID)
			metrics.PushesTotal.WithLabelValues(string(t.DeviceType), metrics.OutcomeNoProvider).Inc()
			missing++
			continue
		}

		g.Go(func() error {
			err := provider.Send(ctx, t.DeviceToken, msg)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				report.Sent++
				metrics.PushesTotal.WithLabelValues(string(t.DeviceType), metrics.OutcomeSent).Inc()
			case errors.Is(err, common.ErrProviderInvalidTarget):
				report.Failed++
				invalid = append(invalid, t.ID)
				metrics.PushesTotal.WithLabelValues(string(t.DeviceType), metrics.OutcomeInvalidTarget).Inc()
				d.logger.Info(ctx, "push token rejected by provider", "token_id", t.ID, "error", err)
			default:
				report.Failed++
				metrics.PushesTotal.WithLabelValues(string(t.DeviceType), metrics.OutcomeFailed).Inc()
				d.logger.Warn(ctx, "push delivery failed", "token_id", t.ID, "device_type", t.DeviceType, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
	// workers are done, report is no longer shared
	report.Failed += missing

	if len(invalid) > 0 {
		sort.Strings(invalid)
		n, err := d.tokens.Invalidate(ctx, invalid)
		if err != nil {
			return report, fmt.Errorf("error invalidating push tokens: %w", err)
		}
		report.Invalidated = n
		metrics.InvalidatedTokens.Add(float64(n))
	}

	d.logger.Debug(ctx, "dispatch finished",
		"user_id", userID, "sent", report.Sent, "failed", report.Failed, "invalidated", report.Invalidated)
	return report, nil
}
