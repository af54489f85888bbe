package payment

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"swapscribe/internal/config"
	"swapscribe/internal/domain/model"
	"swapscribe/internal/domain/ports/adapter"
	"swapscribe/internal/infra/metrics"
)

var _ adapter.SettlementGateway = (*BreakerGateway)(nil)

// BreakerGateway guards a gateway with a circuit breaker. Only unavailability trips
// it: rate limits, denials and bad requests are the provider answering normally.
type BreakerGateway struct {
	inner adapter.SettlementGateway
	cb    *gobreaker.CircuitBreaker[any]
	log   *zerolog.Logger
}

func NewBreakerGateway(inner adapter.SettlementGateway, cfg config.BreakerConfig, logger *zerolog.Logger) *BreakerGateway {
	l := logger.With().Str("component", "GatewayBreaker").Logger()
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	settings := gobreaker.Settings{
		Name:        "sideshift",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !IsProviderError(err, adapter.ProviderUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
			metrics.SetBreakerState(name, int(to))
		},
	}
	metrics.SetBreakerState(settings.Name, int(gobreaker.StateClosed))
	return &BreakerGateway{inner: inner, cb: gobreaker.NewCircuitBreaker[any](settings), log: &l}
}

func (b *BreakerGateway) SupportedAssets(ctx context.Context) ([]adapter.AssetDescriptor, error) {
	v, err := b.call("coins", func() (any, error) { return b.inner.SupportedAssets(ctx) })
	if err != nil {
		return nil, err
	}
	return v.([]adapter.AssetDescriptor), nil
}

func (b *BreakerGateway) CheckPermission(ctx context.Context, origin string) (adapter.Permission, error) {
	v, err := b.call("permissions", func() (any, error) { return b.inner.CheckPermission(ctx, origin) })
	if err != nil {
		return adapter.Permission{}, err
	}
	return v.(adapter.Permission), nil
}

func (b *BreakerGateway) CreateShift(ctx context.Context, req adapter.ShiftRequest) (model.ShiftDescriptor, error) {
	v, err := b.call("create_shift", func() (any, error) { return b.inner.CreateShift(ctx, req) })
	if err != nil {
		return model.ShiftDescriptor{}, err
	}
	return v.(model.ShiftDescriptor), nil
}

func (b *BreakerGateway) ShiftStatus(ctx context.Context, shiftID string) (model.ShiftReport, error) {
	v, err := b.call("shift_status", func() (any, error) { return b.inner.ShiftStatus(ctx, shiftID) })
	if err != nil {
		return model.ShiftReport{}, err
	}
	return v.(model.ShiftReport), nil
}

func (b *BreakerGateway) SetRefundAddress(ctx context.Context, shiftID, address string) error {
	_, err := b.call("set_refund_address", func() (any, error) { return nil, b.inner.SetRefundAddress(ctx, shiftID, address) })
	return err
}

func (b *BreakerGateway) call(op string, fn func() (any, error)) (any, error) {
	start := time.Now()
	v, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.ObserveGatewayCall(op, "breaker_open", time.Since(start))
		return nil, &adapter.ProviderError{Kind: adapter.ProviderUnavailable, Message: "circuit breaker open"}
	}
	metrics.ObserveGatewayCall(op, resultLabel(err), time.Since(start))
	return v, err
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var pe *adapter.ProviderError
	if errors.As(err, &pe) {
		return string(pe.Kind)
	}
	return string(adapter.ProviderUnavailable)
}
