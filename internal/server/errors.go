package server

import (
	"errors"

	"github.com/HSousa1987/Lavandaria-sub001/internal/envelope"
	"github.com/HSousa1987/Lavandaria-sub001/internal/sessions"
)

var (
	// ErrJobNotFound answers both missing jobs and jobs the caller may not see.
	ErrJobNotFound = envelope.NotFound("JOB", "job not found")

	errNoPrincipal    = errors.New("no principal on request context")
	errBackendMissing = errors.New("repository not configured")
)

// sessionError maps session store exhaustion to 503; other errors pass
// through and render as 500.
func sessionError(err error) error {
	if errors.Is(err, sessions.ErrStoreUnavailable) {
		return envelope.ErrSessionStore.Wrap(err)
	}
	return err
}
