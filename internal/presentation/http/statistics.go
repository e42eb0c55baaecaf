package httppresentation

import (
	"net/http"

	appstats "github.com/Zhima-Mochi/minishop-commerce/internal/application/statistics"
)

func (h *Handler) handleTopPurchased(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", appstats.DefaultLimit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	stats, err := h.svc.Statistics.TopPurchased(r.Context(), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleTopCancelled(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", appstats.DefaultLimit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	stats, err := h.svc.Statistics.TopCancelled(r.Context(), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleStuckInPending(w http.ResponseWriter, r *http.Request) {
	days, err := intQuery(r, "days", 0)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	stats, err := h.svc.Statistics.StuckInPendingPayment(r.Context(), days)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func profitQuery(r *http.Request) (appstats.ProfitQuery, error) {
	count, err := intQuery(r, "period_count", 0)
	if err != nil {
		return appstats.ProfitQuery{}, err
	}
	q := r.URL.Query()
	return appstats.ProfitQuery{
		PeriodCount: count,
		PeriodUnit:  q.Get("period_unit"),
		GroupBy:     q.Get("group_by"),
	}, nil
}

func (h *Handler) handleProfit(w http.ResponseWriter, r *http.Request) {
	q, err := profitQuery(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	report, err := h.svc.Statistics.Profit(r.Context(), q)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleOverview defaults to the last 7 days grouped by day.
func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", appstats.DefaultLimit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	days, err := intQuery(r, "days", 0)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	q, err := profitQuery(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if q.PeriodCount == 0 {
		q.PeriodCount = 7
	}
	if q.PeriodUnit == "" {
		q.PeriodUnit = string(appstats.Days)
	}
	if q.GroupBy == "" {
		q.GroupBy = string(appstats.ByDay)
	}
	ov, err := h.svc.Statistics.Overview(r.Context(), appstats.OverviewQuery{Limit: limit, StuckDays: days, Profit: q})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}
