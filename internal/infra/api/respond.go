package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"swapscribe/internal/domain"
	"swapscribe/internal/domain/model"
)

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps the domain taxonomy to an HTTP status and a client-safe message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "too many requests"
	case errors.Is(err, domain.ErrAccessDenied):
		return http.StatusForbidden, "access denied"
	case errors.Is(err, domain.ErrStaleInvoice):
		return http.StatusConflict, "invoice changed, retry"
	case errors.Is(err, domain.ErrProviderUnavailable):
		return http.StatusInternalServerError, "payment provider unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code, msg := statusFor(err)
	body := errorBody{Error: msg}
	if !s.production {
		body.Details = err.Error()
	}
	writeJSON(w, code, body)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: decode body: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

type invoiceJSON struct {
	ID             string           `json:"id"`
	SubscriptionID string           `json:"subscriptionId"`
	AmountUSD      decimal.Decimal  `json:"amountUsd"`
	DepositCoin    string           `json:"depositCoin"`
	DepositNetwork string           `json:"depositNetwork"`
	SettleCoin     string           `json:"settleCoin"`
	SettleNetwork  string           `json:"settleNetwork"`
	ShiftID        *string          `json:"shiftId,omitempty"`
	DepositAddress *string          `json:"depositAddress,omitempty"`
	DepositMemo    *string          `json:"depositMemo,omitempty"`
	DepositMin     *string          `json:"depositMin,omitempty"`
	DepositMax     *string          `json:"depositMax,omitempty"`
	ExpiresAt      *time.Time       `json:"expiresAt,omitempty"`
	DueAt          time.Time        `json:"dueAt"`
	Status         string           `json:"status"`
	PaidAt         *time.Time       `json:"paidAt,omitempty"`
	SettleAmount   *decimal.Decimal `json:"settleAmount,omitempty"`
	Warning        *string          `json:"warning,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

func toInvoiceJSON(inv *model.Invoice) invoiceJSON {
	return invoiceJSON{
		ID:             inv.ID,
		SubscriptionID: inv.SubscriptionID,
		AmountUSD:      inv.AmountUSD,
		DepositCoin:    inv.DepositCoin,
		DepositNetwork: inv.DepositNetwork,
		SettleCoin:     inv.SettleCoin,
		SettleNetwork:  inv.SettleNetwork,
		ShiftID:        inv.ShiftID,
		DepositAddress: inv.DepositAddress,
		DepositMemo:    inv.DepositMemo,
		DepositMin:     inv.DepositMin,
		DepositMax:     inv.DepositMax,
		ExpiresAt:      inv.ExpiresAt,
		DueAt:          inv.DueAt,
		Status:         string(inv.Status),
		PaidAt:         inv.PaidAt,
		SettleAmount:   inv.SettleAmount,
		Warning:        inv.Warning,
		CreatedAt:      inv.CreatedAt,
		UpdatedAt:      inv.UpdatedAt,
	}
}

type shiftJSON struct {
	ID             string    `json:"id"`
	DepositAddress string    `json:"depositAddress"`
	DepositMemo    string    `json:"depositMemo,omitempty"`
	DepositMin     string    `json:"depositMin"`
	DepositMax     string    `json:"depositMax"`
	ExpiresAt      time.Time `json:"expiresAt"`
}

func toShiftJSON(d model.ShiftDescriptor) shiftJSON {
	return shiftJSON{
		ID:             d.ID,
		DepositAddress: d.DepositAddress,
		DepositMemo:    d.DepositMemo,
		DepositMin:     d.DepositMin,
		DepositMax:     d.DepositMax,
		ExpiresAt:      d.ExpiresAt,
	}
}

type planJSON struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	PriceUSD        decimal.Decimal `json:"priceUsd"`
	BillingInterval string          `json:"billingInterval"`
	SettleCoin      string          `json:"settleCoin"`
	SettleNetwork   string          `json:"settleNetwork"`
	Slug            string          `json:"slug"`
	MerchantName    string          `json:"merchantName,omitempty"`
}

func toPlanJSON(p *model.Plan, settings *model.MerchantSettings) planJSON {
	out := planJSON{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		PriceUSD:        p.PriceUSD,
		BillingInterval: string(p.BillingInterval),
		SettleCoin:      p.SettleCoin,
		SettleNetwork:   p.SettleNetwork,
		Slug:            p.PublicSlug,
	}
	if settings != nil {
		out.MerchantName = settings.DisplayName
	}
	return out
}

type invoiceSummaryJSON struct {
	invoiceJSON
	SubscriberEmail string `json:"subscriberEmail"`
	PlanName        string `json:"planName"`
	PlanSlug        string `json:"planSlug"`
}
