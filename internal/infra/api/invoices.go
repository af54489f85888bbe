package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"swapscribe/internal/infra/logging"
)

const reconcileBudget = 20 * time.Second

type invoiceStatusResponse struct {
	Invoice         invoiceJSON `json:"invoice"`
	Warning         string      `json:"warning,omitempty"`
	SideShiftStatus string      `json:"sideShiftStatus,omitempty"`
}

type refundRequest struct {
	Address string `json:"address"`
}

// handleInvoiceStatus polls the provider and applies whatever moved. The poll is
// detached from the client so a disconnect cannot abandon a half-applied transition.
func (s *Server) handleInvoiceStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(context.WithoutCancel(logging.WithInvoiceID(r.Context(), id)), reconcileBudget)
	defer cancel()

	res, err := s.deps.Reconcile.Reconcile(ctx, id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := invoiceStatusResponse{
		Invoice:         toInvoiceJSON(res.Invoice),
		Warning:         res.Warning,
		SideShiftStatus: string(res.ProviderStatus),
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRefundAddress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := logging.WithInvoiceID(r.Context(), id)

	var req refundRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.deps.Reconcile.SetRefundAddress(ctx, id, req.Address); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
