package sched

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"carepay-gateway/internal/domain/ports/adapter"
	"carepay-gateway/internal/infra/metrics"
)

// GatewaySource lists the live gateways, e.g. a payment.Registry.
type GatewaySource interface {
	Gateways() []adapter.PaymentGateway
}

// PeriodWorker periodically rolls subscription periods on every gateway
// that keeps them itself.
type PeriodWorker struct {
	interval time.Duration
	source   GatewaySource
	now      func() time.Time
	log      *zerolog.Logger
}

// NewPeriodWorker defaults a non-positive interval to one minute.
func NewPeriodWorker(interval time.Duration, source GatewaySource, logger *zerolog.Logger) *PeriodWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	compLog := logger.With().Str("component", "PeriodWorker").Logger()
	return &PeriodWorker{
		interval: interval,
		source:   source,
		now:      time.Now,
		log:      &compLog,
	}
}

func (w *PeriodWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting period worker")
	// Run once on startup, then on every tick
	w.runCheck(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping period worker")
			return ctx.Err()
		case <-ticker.C:
			w.runCheck(ctx)
		}
	}
}

func (w *PeriodWorker) runCheck(ctx context.Context) {
	rep, err := w.RunOnce(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("period check failed")
	}
	if rep.Renewed+rep.TrialsEnded+rep.Cancelled > 0 {
		w.log.Info().
			Int("renewed", rep.Renewed).
			Int("trials_ended", rep.TrialsEnded).
			Int("cancelled", rep.Cancelled).
			Msg("subscription periods processed")
	}
}

// RunOnce advances every gateway at the current time. A failing gateway
// does not stop the others; their errors are joined.
func (w *PeriodWorker) RunOnce(ctx context.Context) (adapter.PeriodReport, error) {
	var (
		total adapter.PeriodReport
		errs  []error
	)
	now := w.now()
	for _, gw := range w.source.Gateways() {
		pa, ok := gw.(adapter.PeriodAdvancer)
		if !ok {
			continue
		}
		rep, err := pa.AdvancePeriods(ctx, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", gw.Provider().ID, err))
		}
		total.Renewed += rep.Renewed
		total.TrialsEnded += rep.TrialsEnded
		total.Cancelled += rep.Cancelled
	}
	metrics.AddSubscriptionPeriodEvents(total.Renewed, total.TrialsEnded, total.Cancelled)
	return total, errors.Join(errs...)
}
