package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/loan"
	"finanzas/internal/log"
	"finanzas/internal/suggest"
	"finanzas/internal/summary"
)

// SummaryResponse is what /api/summary returns and what the summary cache
// holds.
type SummaryResponse struct {
	From      string                `json:"from,omitempty"`
	To        string                `json:"to,omitempty"`
	Summary   core.FinancialSummary `json:"summary"`
	Breakdown []core.CategoryAmount `json:"breakdown"`
	Anomalies []summary.Anomaly     `json:"anomalies"`
}

// SimulationResponse is a rounded simulation whose schedule may be a preview.
type SimulationResponse struct {
	loan.Simulation
	TotalPeriods int  `json:"total_periods"`
	Truncated    bool `json:"truncated"`
}

type loanRequest struct {
	Name              string  `json:"name"`
	Principal         float64 `json:"principal"`
	AnnualRatePercent float64 `json:"annual_rate_percent"`
	TermMonths        int     `json:"term_months"`
	FullSchedule      bool    `json:"full_schedule"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady checks the store and reports cache and limiter occupancy.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status, code := "ready", http.StatusOK
	checks := map[string]any{"store": "ok"}
	if err := s.storeReady(r.Context()); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err.Error())
		checks["store"] = "failed: " + err.Error()
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	if s.summaries != nil {
		checks["summary_cache_entries"] = s.summaries.Size()
	}
	if s.limiter != nil {
		checks["rate_limiter_clients"] = s.limiter.ActiveClients()
	}
	NewJSONResponse().Status(code).Body(map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err, log.OpList)
		return
	}
	txs, err := s.tx.List(r.Context(), owner(r), f)
	if err != nil {
		writeError(w, r, err, log.OpList)
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	NewJSONResponse().Body(txs).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var in core.Transaction
	if err := DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, log.OpCreate)
		return
	}
	created, err := s.tx.Create(r.Context(), owner(r), in)
	if err != nil {
		writeError(w, r, err, log.OpCreate)
		return
	}
	s.invalidateSummaries(r.Context(), created.OwnerID)
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/"+created.ID).
		Body(created).
		Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.tx.Get(r.Context(), owner(r), pathID(r))
	if err != nil {
		writeError(w, r, err, log.OpRead)
		return
	}
	NewJSONResponse().Body(tx).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var in core.Transaction
	if err := DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, log.OpUpdate)
		return
	}
	updated, err := s.tx.Update(r.Context(), owner(r), pathID(r), in)
	if err != nil {
		writeError(w, r, err, log.OpUpdate)
		return
	}
	s.invalidateSummaries(r.Context(), updated.OwnerID)
	NewJSONResponse().Body(updated).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ownerID := owner(r)
	if err := s.tx.Delete(r.Context(), ownerID, pathID(r)); err != nil {
		writeError(w, r, err, log.OpDelete)
		return
	}
	s.invalidateSummaries(r.Context(), ownerID)
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	p, err := ParsePeriod(r.URL.Query())
	if err != nil {
		writeError(w, r, err, log.OpSummarize)
		return
	}
	resp, err := s.loadSummary(r.Context(), owner(r), p)
	if err != nil {
		writeError(w, r, err, log.OpSummarize)
		return
	}
	NewJSONResponse().Body(resp).Write(w)
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	p, err := ParsePeriod(r.URL.Query())
	if err != nil {
		writeError(w, r, err, log.OpSuggest)
		return
	}
	resp, err := s.loadSummary(r.Context(), owner(r), p)
	if err != nil {
		writeError(w, r, err, log.OpSuggest)
		return
	}
	NewJSONResponse().Body(map[string]any{
		"suggestions": suggest.Generate(resp.Summary),
	}).Write(w)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	kind, err := ParseKindParam(r.URL.Query())
	if err != nil {
		writeError(w, r, err, log.OpList)
		return
	}
	var out []core.CategoryInfo
	if kind == "" {
		out = append(core.Categories(core.Income), core.Categories(core.Expense)...)
	} else {
		out = core.Categories(kind)
	}
	NewJSONResponse().Body(out).Write(w)
}

func (s *Server) handleSimulateLoan(w http.ResponseWriter, r *http.Request) {
	var in loanRequest
	if err := DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, log.OpSimulate)
		return
	}
	sim, err := s.sims.Simulate(r.Context(), in.Principal, in.AnnualRatePercent, in.TermMonths)
	if err != nil {
		writeError(w, r, err, log.OpSimulate)
		return
	}
	NewJSONResponse().Body(presentSimulation(sim, in.FullSchedule)).Write(w)
}

func (s *Server) handleListLoans(w http.ResponseWriter, r *http.Request) {
	saved, err := s.sims.List(r.Context(), owner(r))
	if err != nil {
		writeError(w, r, err, log.OpList)
		return
	}
	out := make([]loan.Saved, len(saved))
	for i, sv := range saved {
		out[i] = roundSaved(sv)
	}
	NewJSONResponse().Body(out).Write(w)
}

func (s *Server) handleSaveLoan(w http.ResponseWriter, r *http.Request) {
	var in loanRequest
	if err := DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, log.OpCreate)
		return
	}
	saved, err := s.sims.Save(r.Context(), owner(r), in.Name, in.Principal, in.AnnualRatePercent, in.TermMonths)
	if err != nil {
		writeError(w, r, err, log.OpCreate)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/loans/"+saved.ID).
		Body(roundSaved(saved)).
		Write(w)
}

func (s *Server) handleDeleteLoan(w http.ResponseWriter, r *http.Request) {
	if err := s.sims.Delete(r.Context(), owner(r), pathID(r)); err != nil {
		writeError(w, r, err, log.OpDelete)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// loadSummary serves from cache, collapsing concurrent misses for the same
// owner and period into one store round trip. A result computed across a
// write by the same owner is returned but never cached.
func (s *Server) loadSummary(ctx context.Context, ownerID string, p Period) (SummaryResponse, error) {
	key := summaryKey(ownerID, p)
	if s.summaries != nil {
		if v, ok := s.summaries.Get(key); ok {
			return v, nil
		}
	}

	gen := s.summaryGeneration(ownerID)
	v, err, shared := s.inflight.Do(key+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		// Detached so one caller hanging up does not fail the others.
		sum, anomalies, err := s.tx.Summary(context.WithoutCancel(ctx), ownerID, p.From, p.To)
		if err != nil {
			return nil, err
		}
		if anomalies == nil {
			anomalies = []summary.Anomaly{}
		}
		resp := SummaryResponse{
			From:      p.From.String(),
			To:        p.To.String(),
			Summary:   sum,
			Breakdown: sum.SortedBreakdown(),
			Anomalies: anomalies,
		}
		if s.summaries != nil && s.summaryGeneration(ownerID) == gen {
			s.summaries.Set(key, resp)
		}
		return resp, nil
	})
	if err != nil {
		return SummaryResponse{}, err
	}
	if shared {
		log.FromContext(ctx).DebugContext(ctx, "Summary shared with concurrent request", log.FieldOwnerID, ownerID)
	}
	return v.(SummaryResponse), nil
}

func summaryKey(ownerID string, p Period) string {
	return ownerID + "|" + p.From.String() + "|" + p.To.String()
}

func (s *Server) summaryGeneration(ownerID string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.generations[ownerID]
}

// invalidateSummaries bumps the owner's generation before dropping cached
// entries, so summaries still in flight cannot repopulate the cache.
func (s *Server) invalidateSummaries(ctx context.Context, ownerID string) {
	s.genMu.Lock()
	s.generations[ownerID]++
	s.genMu.Unlock()

	if s.summaries == nil {
		return
	}
	if n := s.summaries.DeletePrefix(ownerID + "|"); n > 0 {
		log.FromContext(ctx).DebugContext(ctx, "Summary cache invalidated",
			log.FieldOwnerID, ownerID,
			log.FieldCount, n)
	}
}

func presentSimulation(sim loan.Simulation, full bool) SimulationResponse {
	rounded := sim.Rounded()
	out := SimulationResponse{Simulation: rounded, TotalPeriods: len(rounded.Schedule)}
	if !full {
		out.Schedule = rounded.Preview()
		out.Truncated = len(out.Schedule) < out.TotalPeriods
	}
	return out
}

func roundSaved(sv loan.Saved) loan.Saved {
	sv.MonthlyPayment = sv.MonthlyPayment.Round(2)
	sv.TotalInterest = sv.TotalInterest.Round(2)
	return sv
}
