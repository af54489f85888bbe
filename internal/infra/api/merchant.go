package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleMerchantInvoices(w http.ResponseWriter, r *http.Request) {
	rows, err := s.deps.Merchants.RecentInvoices(r.Context(), merchantFrom(r.Context()))
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]invoiceSummaryJSON, 0, len(rows))
	for _, row := range rows {
		out = append(out, invoiceSummaryJSON{
			invoiceJSON:     toInvoiceJSON(row.Invoice),
			SubscriberEmail: row.SubscriberEmail,
			PlanName:        row.PlanName,
			PlanSlug:        row.PlanSlug,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoices": out})
}

func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Merchants.Stats(r.Context(), merchantFrom(r.Context()))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	plan, settings, err := s.deps.Catalog.PlanBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"plan": toPlanJSON(plan, settings)})
}

func (s *Server) handleCoins(w http.ResponseWriter, r *http.Request) {
	coins, err := s.deps.Catalog.SupportedAssets(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"coins": coins})
}
