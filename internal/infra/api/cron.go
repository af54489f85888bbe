package api

import (
	"context"
	"net/http"
	"time"

	"swapscribe/internal/usecase"
)

type renewResponse struct {
	Success   bool                    `json:"success"`
	Processed int                     `json:"processed"`
	Details   []usecase.RenewalDetail `json:"details"`
}

type updateInvoicesResponse struct {
	Success bool `json:"success"`
	Checked int  `json:"checked"`
	Updated int  `json:"updated"`
}

func (s *Server) handleCronRenew(w http.ResponseWriter, r *http.Request) {
	rep, err := s.deps.Renewals.SweepRenewals(context.WithoutCancel(r.Context()), time.Now())
	if err != nil {
		s.writeError(w, err)
		return
	}
	details := rep.Details
	if details == nil {
		details = []usecase.RenewalDetail{}
	}
	writeJSON(w, http.StatusOK, renewResponse{Success: true, Processed: rep.Processed, Details: details})
}

func (s *Server) handleCronUpdateInvoices(w http.ResponseWriter, r *http.Request) {
	rep, err := s.deps.Sweeps.SweepPending(context.WithoutCancel(r.Context()), s.sweepLimit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updateInvoicesResponse{Success: true, Checked: rep.Checked, Updated: rep.Updated})
}
