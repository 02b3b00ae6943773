package server

import (
	"context"
	"net/http"
	"time"

	"github.com/HSousa1987/Lavandaria-sub001/internal/envelope"
	"github.com/HSousa1987/Lavandaria-sub001/internal/logging"
)

// readinessTimeout bounds each readiness probe.
const readinessTimeout = 2 * time.Second

// ReadinessCheck is one dependency probed by /api/readyz.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HandleHealthz reports liveness.
func HandleHealthz(_ http.ResponseWriter, _ *http.Request) (envelope.Fields, error) {
	return envelope.Fields{"status": "ok"}, nil
}

// HandleReadyz runs every check and answers 503 NOT_READY naming the first
// dependency that failed.
func HandleReadyz(checks []ReadinessCheck, logger logging.Logger) envelope.HandlerFunc {
	return func(_ http.ResponseWriter, r *http.Request) (envelope.Fields, error) {
		ctx := r.Context()
		status := make(map[string]string, len(checks))
		for _, c := range checks {
			cctx, cancel := context.WithTimeout(ctx, readinessTimeout)
			err := c.Check(cctx)
			cancel()
			if err != nil {
				logging.FromContext(ctx, logger).Warn(ctx, "readiness check failed", "check", c.Name, "error", err)
				return nil, envelope.NewError(http.StatusServiceUnavailable, envelope.CodeNotReady, c.Name+" is not ready").Wrap(err)
			}
			status[c.Name] = "ok"
		}
		return envelope.Fields{"status": "ready", "checks": status}, nil
	}
}
