package envelope

import (
	"encoding/json"
	"net/http"
)

// ensureCorrelation returns the request's correlation id, minting one when an
// upstream middleware did not, and sets the response header before any body
// byte is written.
func ensureCorrelation(w http.ResponseWriter, r *http.Request) string {
	id, ok := CorrelationID(r.Context())
	if !ok {
		id = w.Header().Get(HeaderCorrelationID)
	}
	if id == "" {
		id = NewCorrelationID()
	}
	w.Header().Set(HeaderCorrelationID, id)
	return id
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteSuccess renders a success envelope with the given status.
func WriteSuccess(w http.ResponseWriter, r *http.Request, status int, fields Fields) {
	id := ensureCorrelation(w, r)
	writeJSON(w, status, Success(fields, id))
}

// WriteError renders err as an error envelope. Non-API errors become a 500
// INTERNAL_ERROR without leaking their text.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := AsError(err)
	id := ensureCorrelation(w, r)
	writeJSON(w, apiErr.Status, Failure(apiErr.Message, apiErr.Code, id))
}

// HandlerFunc is a handler that returns named fields or an error; Handle
// renders either into an envelope.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) (Fields, error)

// ErrorHook observes errors before they are rendered, typically for logging.
type ErrorHook func(r *http.Request, err *Error)

// Handle adapts fn to http.HandlerFunc. Successful results are rendered with
// status 200.
func Handle(fn HandlerFunc, hooks ...ErrorHook) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields, err := fn(w, r)
		if err != nil {
			apiErr := AsError(err)
			for _, h := range hooks {
				h(r, apiErr)
			}
			WriteError(w, r, apiErr)
			return
		}
		WriteSuccess(w, r, http.StatusOK, fields)
	}
}
