// Package envelope renders every response body the gateway writes.
//
// Success bodies merge the handler's named fields at the top level:
//
//	{"success": true, "job": {...}, "_meta": {"correlationId": "req_...", "timestamp": "..."}}
//
// Error bodies are fixed:
//
//	{"success": false, "error": "...", "code": "...", "_meta": {...}}
//
// _meta.correlationId always equals the X-Correlation-Id response header.
package envelope

import (
	"time"
)

// TimestampLayout is ISO 8601 with millisecond precision. Timestamps are
// always rendered in UTC so the zone designator is "Z".
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Reserved top-level keys. Handler fields with these names are overwritten.
const (
	keySuccess = "success"
	keyMeta    = "_meta"
)

// Now is the clock used for _meta.timestamp. Tests may replace it.
var Now = time.Now

// Fields are the named payload values a handler returns, e.g. {"job": job}.
type Fields map[string]any

// Meta is attached to every envelope.
type Meta struct {
	CorrelationID string `json:"correlationId"`
	Timestamp     string `json:"timestamp"`
}

// ErrorBody is the wire shape of a failed request.
type ErrorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Meta    Meta   `json:"_meta"`
}

// NewMeta stamps the current time for correlationID.
func NewMeta(correlationID string) Meta {
	return Meta{
		CorrelationID: correlationID,
		Timestamp:     FormatTimestamp(Now()),
	}
}

// FormatTimestamp renders t in UTC with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Success builds a success envelope with fields merged at the top level.
func Success(fields Fields, correlationID string) map[string]any {
	body := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		body[k] = v
	}
	body[keySuccess] = true
	body[keyMeta] = NewMeta(correlationID)
	return body
}

// Failure builds an error envelope.
func Failure(message, code, correlationID string) ErrorBody {
	return ErrorBody{
		Success: false,
		Error:   message,
		Code:    code,
		Meta:    NewMeta(correlationID),
	}
}
