package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/HSousa1987/Lavandaria-sub001/internal/envelope"
	"github.com/HSousa1987/Lavandaria-sub001/internal/repository"
)

const (
	defaultPaymentLimit = 50
	maxPaymentLimit     = 500
	dateLayout          = "2006-01-02"
)

type paymentView struct {
	ID          int64  `json:"id"`
	JobID       int64  `json:"jobId"`
	ClientID    string `json:"clientId"`
	AmountCents int64  `json:"amountCents"`
	Method      string `json:"method"`
	PaidAt      string `json:"paidAt"`
}

type financeHandlers struct {
	payments repository.PaymentRepository
	now      func() time.Time
}

// HandlePayments lists recent payments. ?limit= caps the count.
func (h *financeHandlers) HandlePayments(_ http.ResponseWriter, r *http.Request) (envelope.Fields, error) {
	limit := defaultPaymentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxPaymentLimit {
			return nil, envelope.InvalidRequest("limit must be between 1 and " + strconv.Itoa(maxPaymentLimit))
		}
		limit = n
	}

	rows, err := h.payments.List(r.Context(), limit)
	if err != nil {
		return nil, err
	}
	out := make([]paymentView, 0, len(rows))
	for _, p := range rows {
		out = append(out, paymentView{
			ID:          p.ID,
			JobID:       p.JobID,
			ClientID:    p.ClientID,
			AmountCents: p.AmountCents,
			Method:      p.Method,
			PaidAt:      envelope.FormatTimestamp(p.PaidAt),
		})
	}
	return envelope.Fields{"payments": out}, nil
}

// HandleTaxSummary totals payments over [from, to). Both default to the
// current calendar month in UTC; dates use YYYY-MM-DD.
func (h *financeHandlers) HandleTaxSummary(_ http.ResponseWriter, r *http.Request) (envelope.Fields, error) {
	now := h.now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	q := r.URL.Query()
	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, envelope.InvalidRequest("from must be a YYYY-MM-DD date")
		}
		from = t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, envelope.InvalidRequest("to must be a YYYY-MM-DD date")
		}
		to = t
	}
	if !from.Before(to) {
		return nil, envelope.InvalidRequest("from must be before to")
	}

	summary, err := h.payments.Summarize(r.Context(), from, to)
	if err != nil {
		return nil, err
	}
	return envelope.Fields{"summary": map[string]any{
		"from":          from.Format(dateLayout),
		"to":            to.Format(dateLayout),
		"count":         summary.Count,
		"totalCents":    summary.TotalCents,
		"byMethodCents": summary.ByMethodCents,
	}}, nil
}
