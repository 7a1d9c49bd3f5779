package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/niceweather/internal/clock"
	"github.com/dmitrijs2005/niceweather/internal/common"
	"github.com/dmitrijs2005/niceweather/internal/logging"
	"github.com/dmitrijs2005/niceweather/internal/server/metrics"
	"github.com/dmitrijs2005/niceweather/internal/server/models"
	"github.com/dmitrijs2005/niceweather/internal/server/push"
	"github.com/dmitrijs2005/niceweather/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/niceweather/internal/server/weather"
	"github.com/robfig/cron/v3"
)

// Notifier delivers a message to all devices of a user.
type Notifier interface {
	SendToUser(ctx context.Context, userID string, msg push.Message) (DispatchReport, error)
}

// RunReport summarizes one pass over all locations.
type RunReport struct {
	Evaluated  int
	Notified   int
	Suppressed int
	Failed     int
}

// WeatherJobConfig tunes the job.
type WeatherJobConfig struct {
	Interval        time.Duration
	NiceTemperature int
	Cooldown        time.Duration
}

// WeatherJob periodically checks every saved location and notifies users
// when the weather is nice. Only one run is ever in flight.
type WeatherJob struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	forecaster  weather.Forecaster
	notifier    Notifier
	clock       clock.Clock
	logger      logging.Logger
	cfg         WeatherJobConfig

	running atomic.Bool

	mu     sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
}

func NewWeatherJob(db *sql.DB, m repomanager.RepositoryManager, f weather.Forecaster, n Notifier,
	c clock.Clock, logger logging.Logger, cfg WeatherJobConfig) *WeatherJob {
	return &WeatherJob{
		db:          db,
		repomanager: m,
		forecaster:  f,
		notifier:    n,
		clock:       c,
		logger:      logger.With("module", "weatherjob"),
		cfg:         cfg,
	}
}

// RunOnce evaluates every location once. It returns common.ErrJobAlreadyRunning
// when another run is in flight, and ctx.Err() when cancelled between users.
func (j *WeatherJob) RunOnce(ctx context.Context) (RunReport, error) {
	var report RunReport

	if !j.running.CompareAndSwap(false, true) {
		return report, common.ErrJobAlreadyRunning
	}
	defer j.running.Store(false)

	locations, err := j.repomanager.Locations(j.db).List(ctx)
	if err != nil {
		metrics.JobRuns.WithLabelValues(metrics.ResultFailure).Inc()
		return report, fmt.Errorf("error listing locations: %w", err)
	}

	for _, loc := range locations {
		if err := ctx.Err(); err != nil {
			j.logger.Info(ctx, "weather job cancelled", "evaluated", report.Evaluated, "remaining", len(locations)-report.Evaluated)
			metrics.JobRuns.WithLabelValues(metrics.ResultFailure).Inc()
			return report, err
		}

		report.Evaluated++
		outcome := j.evaluate(ctx, loc)
		metrics.JobUserOutcomes.WithLabelValues(outcome).Inc()
		switch outcome {
		case metrics.OutcomeNotified:
			report.Notified++
		case metrics.OutcomeSuppressed:
			report.Suppressed++
		case metrics.OutcomeError:
			report.Failed++
		}
	}

	metrics.JobRuns.WithLabelValues(metrics.ResultSuccess).Inc()
	j.logger.Info(ctx, "weather job finished",
		"evaluated", report.Evaluated,
		"notified", report.Notified,
		"suppressed", report.Suppressed,
		"failed", report.Failed)
	return report, nil
}

// throttled reports whether the user was already told about this exact
// nice temperature within the cooldown.
func (j *WeatherJob) throttled(loc models.Location, now time.Time) bool {
	return loc.LastTemperature != nil &&
		int(*loc.LastTemperature) == j.cfg.NiceTemperature &&
		loc.LastNotifiedAt != nil &&
		now.Sub(*loc.LastNotifiedAt) < j.cfg.Cooldown
}

func niceMessage(f weather.Forecast) push.Message {
	return push.Message{
		Title: "It's nice out",
		Body:  fmt.Sprintf("It is %d°F right now. Go enjoy it.", int(f.Temperature)),
	}
}

func (j *WeatherJob) evaluate(ctx context.Context, loc models.Location) string {
	log := j.logger.With("user_id", loc.UserID)

	f, err := j.forecaster.Forecast(ctx, weather.Location{Latitude: loc.Latitude, Longitude: loc.Longitude})
	if err != nil {
		log.Warn(ctx, "forecast failed, skipping user", "error", err)
		return metrics.OutcomeError
	}

	now := j.clock.Now()
	outcome := metrics.OutcomeNotNice
	var notifiedAt *time.Time

	switch {
	case j.throttled(loc, now):
		outcome = metrics.OutcomeSuppressed
	case weather.IsNice(f, j.cfg.NiceTemperature):
		report, err := j.notifier.SendToUser(ctx, loc.UserID, niceMessage(f))
		switch {
		case err != nil:
			log.Warn(ctx, "dispatch failed", "error", err)
			outcome = metrics.OutcomeError
		case report.Sent == 0:
			log.Info(ctx, "nice weather but no device reached", "failed", report.Failed)
			outcome = metrics.OutcomeUndelivered
		default:
			notifiedAt = &now
			outcome = metrics.OutcomeNotified
		}
	}

	if err := j.repomanager.Locations(j.db).RecordObservation(ctx, loc.UserID, f.Temperature, notifiedAt, now); err != nil {
		log.Warn(ctx, "failed to record observation", "error", err)
		return metrics.OutcomeError
	}
	return outcome
}

// Start schedules RunOnce every configured interval until Stop is called or
// ctx is done. Calling Start on a started job does nothing.
func (j *WeatherJob) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.cron != nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{ctx: runCtx, l: j.logger})))
	spec := fmt.Sprintf("@every %s", j.cfg.Interval)
	if _, err := c.AddFunc(spec, func() {
		if _, err := j.RunOnce(runCtx); err != nil {
			j.logger.Warn(runCtx, "scheduled weather run failed", "error", err)
		}
	}); err != nil {
		cancel()
		return fmt.Errorf("error scheduling weather job: %w", err)
	}

	c.Start()
	j.cron = c
	j.cancel = cancel
	j.logger.Info(ctx, "weather job started", "interval", j.cfg.Interval.String())
	return nil
}

// Stop cancels the in-flight run, waits for it to return and unschedules the
// job. It is safe to call more than once.
func (j *WeatherJob) Stop() {
	j.mu.Lock()
	c, cancel := j.cron, j.cancel
	j.cron, j.cancel = nil, nil
	j.mu.Unlock()

	if c == nil {
		return
	}
	cancel()
	<-c.Stop().Done()
	j.logger.Info(context.Background(), "weather job stopped")
}

// Trigger runs the job on demand.
func (j *WeatherJob) Trigger(ctx context.Context) (RunReport, error) {
	return j.RunOnce(ctx)
}

// cronLogger adapts logging.Logger to cron.Logger.
type cronLogger struct {
	ctx context.Context
	l   logging.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(c.ctx, "cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(c.ctx, "cron: "+msg, append(keysAndValues, "error", err)...)
}
