package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"swapscribe/internal/config"
	"swapscribe/internal/domain/model"
	"swapscribe/internal/domain/ports/adapter"
)

var _ adapter.SettlementGateway = (*SideShiftGateway)(nil)

// SideShiftGateway implements adapter.SettlementGateway over the SideShift v2 REST API.
type SideShiftGateway struct {
	baseURL        string
	secret         string
	affiliateID    string
	commissionRate string
	client         *http.Client
}

func NewSideShiftGateway(cfg config.SideShiftConfig) *SideShiftGateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SideShiftGateway{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		secret:         cfg.Secret,
		affiliateID:    cfg.AffiliateID,
		commissionRate: cfg.CommissionRate,
		client:         &http.Client{Timeout: timeout},
	}
}

type sideShiftCoin struct {
	Coin     string   `json:"coin"`
	Name     string   `json:"name"`
	Networks []string `json:"networks"`
	HasMemo  bool     `json:"hasMemo"`
}

type sideShiftPermissions struct {
	CreateShift bool `json:"createShift"`
}

type sideShiftCreateRequest struct {
	SettleAddress  string `json:"settleAddress"`
	DepositCoin    string `json:"depositCoin"`
	SettleCoin     string `json:"settleCoin"`
	DepositNetwork string `json:"depositNetwork,omitempty"`
	SettleNetwork  string `json:"settleNetwork,omitempty"`
	RefundAddress  string `json:"refundAddress,omitempty"`
	AffiliateID    string `json:"affiliateId"`
	CommissionRate string `json:"commissionRate,omitempty"`
}

type sideShiftShift struct {
	ID             string    `json:"id"`
	DepositAddress string    `json:"depositAddress"`
	DepositMemo    string    `json:"depositMemo"`
	DepositMin     string    `json:"depositMin"`
	DepositMax     string    `json:"depositMax"`
	ExpiresAt      time.Time `json:"expiresAt"`
	Status         string    `json:"status"`
	SettleAmount   string    `json:"settleAmount"`
	DepositAmount  string    `json:"depositAmount"`
}

type sideShiftError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (g *SideShiftGateway) SupportedAssets(ctx context.Context) ([]adapter.AssetDescriptor, error) {
	var coins []sideShiftCoin
	if err := g.do(ctx, http.MethodGet, "/coins", nil, nil, &coins); err != nil {
		return nil, err
	}
	out := make([]adapter.AssetDescriptor, 0, len(coins))
	for _, c := range coins {
		out = append(out, adapter.AssetDescriptor{
			Coin:     strings.ToLower(c.Coin),
			Name:     c.Name,
			Networks: c.Networks,
			HasMemo:  c.HasMemo,
		})
	}
	return out, nil
}

func (g *SideShiftGateway) CheckPermission(ctx context.Context, origin string) (adapter.Permission, error) {
	var p sideShiftPermissions
	h := http.Header{}
	h.Set("x-user-ip", origin)
	if err := g.do(ctx, http.MethodGet, "/permissions", h, nil, &p); err != nil {
		return adapter.Permission{}, err
	}
	return adapter.Permission{Allowed: p.CreateShift}, nil
}

func (g *SideShiftGateway) CreateShift(ctx context.Context, req adapter.ShiftRequest) (model.ShiftDescriptor, error) {
	if req.Origin == "" {
		return model.ShiftDescriptor{}, &adapter.ProviderError{Kind: adapter.ProviderInvalidRequest, Message: "user ip is required"}
	}
	body := sideShiftCreateRequest{
		SettleAddress:  req.SettleAddress,
		DepositCoin:    req.DepositAsset,
		SettleCoin:     req.SettleAsset,
		DepositNetwork: req.DepositNetwork,
		SettleNetwork:  req.SettleNetwork,
		RefundAddress:  req.RefundAddress,
		AffiliateID:    g.affiliateID,
		CommissionRate: g.commissionRate,
	}
	h := g.secretHeader()
	h.Set("x-user-ip", req.Origin)

	var s sideShiftShift
	if err := g.do(ctx, http.MethodPost, "/shifts/variable", h, body, &s); err != nil {
		return model.ShiftDescriptor{}, err
	}
	if s.ID == "" {
		return model.ShiftDescriptor{}, &adapter.ProviderError{Kind: adapter.ProviderUnavailable, Message: "shift response without id"}
	}
	return model.ShiftDescriptor{
		ID:             s.ID,
		DepositAddress: s.DepositAddress,
		DepositMemo:    s.DepositMemo,
		DepositMin:     s.DepositMin,
		DepositMax:     s.DepositMax,
		ExpiresAt:      s.ExpiresAt,
		Status:         model.ShiftStatus(s.Status),
	}, nil
}

func (g *SideShiftGateway) ShiftStatus(ctx context.Context, shiftID string) (model.ShiftReport, error) {
	var s sideShiftShift
	if err := g.do(ctx, http.MethodGet, "/shifts/"+url.PathEscape(shiftID), nil, nil, &s); err != nil {
		return model.ShiftReport{}, err
	}
	return model.ShiftReport{
		Status:        model.ShiftStatus(strings.ToLower(s.Status)),
		SettleAmount:  optionalDecimal(s.SettleAmount),
		DepositAmount: optionalDecimal(s.DepositAmount),
	}, nil
}

func (g *SideShiftGateway) SetRefundAddress(ctx context.Context, shiftID, address string) error {
	body := map[string]string{"address": address}
	return g.do(ctx, http.MethodPost, "/shifts/"+url.PathEscape(shiftID)+"/set-refund-address", g.secretHeader(), body, nil)
}

func (g *SideShiftGateway) secretHeader() http.Header {
	h := http.Header{}
	h.Set("x-sideshift-secret", g.secret)
	return h
}

// do sends one request and decodes a 2xx body into out. Every failure comes back as
// *adapter.ProviderError; there is no retry.
func (g *SideShiftGateway) do(ctx context.Context, method, path string, h http.Header, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &adapter.ProviderError{Kind: adapter.ProviderInvalidRequest, Message: err.Error()}
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return &adapter.ProviderError{Kind: adapter.ProviderUnavailable, Message: err.Error()}
	}
	for k, vs := range h {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return &adapter.ProviderError{Kind: adapter.ProviderUnavailable, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &adapter.ProviderError{Kind: adapter.ProviderUnavailable, StatusCode: resp.StatusCode, Message: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &adapter.ProviderError{
			Kind:       adapter.ClassifyStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Message:    errorMessage(raw, resp.Status),
		}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &adapter.ProviderError{Kind: adapter.ProviderUnavailable, StatusCode: resp.StatusCode, Message: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}

func errorMessage(raw []byte, fallback string) string {
	var e sideShiftError
	if json.Unmarshal(raw, &e) == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return fallback
}

func optionalDecimal(s string) *decimal.Decimal {
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

// IsProviderError reports whether err carries a classified provider failure of kind.
func IsProviderError(err error, kind adapter.ProviderErrorKind) bool {
	var pe *adapter.ProviderError
	return errors.As(err, &pe) && pe.Kind == kind
}
