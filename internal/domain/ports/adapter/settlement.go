package adapter

import (
	"context"
	"fmt"

	"swapscribe/internal/domain"
	"swapscribe/internal/domain/model"
)

// AssetDescriptor is one depositable coin and the networks it can travel on.
type AssetDescriptor struct {
	Coin     string   `json:"coin"`
	Name     string   `json:"name"`
	Networks []string `json:"networks"`
	HasMemo  bool     `json:"hasMemo"`
}

type Permission struct {
	Allowed bool
}

// ShiftRequest asks the provider to convert whatever arrives at a fresh deposit
// address into SettleAsset paid to SettleAddress.
type ShiftRequest struct {
	DepositAsset   string
	DepositNetwork string
	SettleAsset    string
	SettleNetwork  string
	SettleAddress  string
	RefundAddress  string // optional
	Origin         string // end-user IP forwarded to the provider
}

// SettlementGateway is the port for the crypto conversion provider. No other layer
// sees provider vocabulary beyond model.ShiftStatus.
type SettlementGateway interface {
	SupportedAssets(ctx context.Context) ([]AssetDescriptor, error)
	CheckPermission(ctx context.Context, origin string) (Permission, error)
	CreateShift(ctx context.Context, req ShiftRequest) (model.ShiftDescriptor, error)
	ShiftStatus(ctx context.Context, shiftID string) (model.ShiftReport, error)
	SetRefundAddress(ctx context.Context, shiftID, address string) error
}

type ProviderErrorKind string

const (
	ProviderRateLimited    ProviderErrorKind = "rate_limited"
	ProviderAccessDenied   ProviderErrorKind = "access_denied"
	ProviderInvalidRequest ProviderErrorKind = "invalid_request"
	ProviderUnavailable    ProviderErrorKind = "unavailable"
)

// ProviderError is a classified gateway failure. Message is the provider's own text
// and must not reach production clients.
type ProviderError struct {
	Kind       ProviderErrorKind
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %s (%d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %s: %s", e.Kind, e.Message)
}

// Unwrap lets callers match the domain taxonomy with errors.Is.
func (e *ProviderError) Unwrap() error {
	switch e.Kind {
	case ProviderRateLimited:
		return domain.ErrRateLimited
	case ProviderAccessDenied:
		return domain.ErrAccessDenied
	case ProviderInvalidRequest:
		return domain.ErrInvalidInput
	default:
		return domain.ErrProviderUnavailable
	}
}

// ClassifyStatus maps a provider HTTP status to an error kind.
func ClassifyStatus(code int) ProviderErrorKind {
	switch code {
	case 429:
		return ProviderRateLimited
	case 403:
		return ProviderAccessDenied
	case 400:
		return ProviderInvalidRequest
	default:
		return ProviderUnavailable
	}
}
