package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"swapscribe/internal/infra/logging"
	"swapscribe/internal/infra/metrics"
	"swapscribe/internal/usecase"
)

type subscribeStartRequest struct {
	Email          string `json:"email"`
	PlanID         string `json:"planId"`
	DepositCoin    string `json:"depositCoin"`
	DepositNetwork string `json:"depositNetwork"`
	RefundAddress  string `json:"refundAddress"`
}

type payInvoiceRequest struct {
	DepositCoin    string `json:"depositCoin"`
	DepositNetwork string `json:"depositNetwork"`
	RefundAddress  string `json:"refundAddress"`
}

type checkoutResponse struct {
	Invoice invoiceJSON `json:"invoice"`
	Shift   shiftJSON   `json:"shift"`
}

func (s *Server) handleSubscribeStart(w http.ResponseWriter, r *http.Request) {
	var req subscribeStartRequest
	if err := decodeBody(w, r, &req); err != nil {
		metrics.IncCheckout(checkoutResult(err))
		s.writeError(w, err)
		return
	}

	res, err := s.deps.Checkout.Start(r.Context(), usecase.CheckoutRequest{
		Email:          req.Email,
		PlanRef:        req.PlanID,
		DepositCoin:    req.DepositCoin,
		DepositNetwork: req.DepositNetwork,
		RefundAddress:  req.RefundAddress,
		Origin:         ClientIP(r),
	})
	metrics.IncCheckout(checkoutResult(err))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, checkoutResponse{Invoice: toInvoiceJSON(res.Invoice), Shift: toShiftJSON(res.Shift)})
}

func (s *Server) handlePayInvoice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := logging.WithInvoiceID(r.Context(), id)

	var req payInvoiceRequest
	if err := decodeBody(w, r, &req); err != nil {
		metrics.IncCheckout(checkoutResult(err))
		s.writeError(w, err)
		return
	}

	res, err := s.deps.Checkout.Pay(ctx, id, usecase.PayRequest{
		DepositCoin:    req.DepositCoin,
		DepositNetwork: req.DepositNetwork,
		RefundAddress:  req.RefundAddress,
		Origin:         ClientIP(r),
	})
	metrics.IncCheckout(checkoutResult(err))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, checkoutResponse{Invoice: toInvoiceJSON(res.Invoice), Shift: toShiftJSON(res.Shift)})
}

func checkoutResult(err error) string {
	if err == nil {
		return "ok"
	}
	switch code, _ := statusFor(err); code {
	case http.StatusBadRequest:
		return "invalid"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusTooManyRequests:
		return "rate_limited"
	case http.StatusForbidden:
		return "denied"
	default:
		return "error"
	}
}
