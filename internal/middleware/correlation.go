package middleware

import (
	"net/http"

	"github.com/HSousa1987/Lavandaria-sub001/internal/envelope"
)

// Correlation assigns a fresh correlation id to every request, stores it on
// the context and sets the response header before any later stage can
// respond. Inbound X-Correlation-Id headers are ignored.
func Correlation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := envelope.NewCorrelationID()
		w.Header().Set(envelope.HeaderCorrelationID, id)
		next.ServeHTTP(w, r.WithContext(envelope.WithCorrelationID(r.Context(), id)))
	})
}
