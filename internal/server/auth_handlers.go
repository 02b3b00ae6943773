package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/HSousa1987/Lavandaria-sub001/internal/auth"
	"github.com/HSousa1987/Lavandaria-sub001/internal/credentials"
	"github.com/HSousa1987/Lavandaria-sub001/internal/envelope"
	"github.com/HSousa1987/Lavandaria-sub001/internal/logging"
	"github.com/HSousa1987/Lavandaria-sub001/internal/repository"
	"github.com/HSousa1987/Lavandaria-sub001/internal/sessions"
	"github.com/HSousa1987/Lavandaria-sub001/internal/telemetry"
)

type staffLoginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=72"`
}

type clientLoginRequest struct {
	Phone    string `json:"phone" validate:"required,max=32"`
	Password string `json:"password" validate:"required,max=72"`
}

// authHandlers serves login, logout and the session check.
type authHandlers struct {
	verifier *credentials.Verifier
	sessions *sessions.Manager
	staff    repository.StaffRepository
	cookie   auth.CookieConfig
	logger   logging.Logger
	metrics  *telemetry.GatewayMetrics
}

// HandleStaffLogin authenticates a username/password against the staff store.
func (h *authHandlers) HandleStaffLogin(w http.ResponseWriter, r *http.Request) (envelope.Fields, error) {
	var req staffLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return nil, err
	}
	return h.login(w, r, credentials.PartitionStaff, req.Username, req.Password)
}

// HandleClientLogin authenticates a phone/password against the client store.
func (h *authHandlers) HandleClientLogin(w http.ResponseWriter, r *http.Request) (envelope.Fields, error) {
	var req clientLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return nil, err
	}
	return h.login(w, r, credentials.PartitionClient, req.Phone, req.Password)
}

func (h *authHandlers) login(w http.ResponseWriter, r *http.Request, partition credentials.Partition, handle, password string) (envelope.Fields, error) {
	// Session mutations finish even if the client disconnects mid-login.
	ctx := context.WithoutCancel(r.Context())
	log := logging.FromContext(ctx, h.logger)
	start := time.Now()
	elapsed := func() float64 { return float64(time.Since(start).Microseconds()) / 1000 }

	principal, err := h.verifier.Verify(ctx, partition, handle, password)
	if err != nil {
		var failure *credentials.Failure
		if errors.As(err, &failure) {
			log.Warn(ctx, "login rejected",
				"partition", partition,
				"handle", failure.Handle,
				"reason", failure.Kind.String(),
			)
			h.metrics.RecordLogin(ctx, string(partition), failure.Kind.String(), elapsed())
			return nil, envelope.ErrInvalidCredentials
		}
		h.metrics.RecordLogin(ctx, string(partition), "error", elapsed())
		return nil, err
	}

	// Replace whatever session this browser held before.
	if old, ok := auth.SessionTokenFromRequest(r, h.cookie); ok {
		if err := h.sessions.Destroy(ctx, old); err != nil {
			log.Warn(ctx, "failed to destroy previous session", "error", err)
		}
	}

	token, rec, err := h.sessions.Create(ctx, *principal)
	if err != nil {
		h.metrics.RecordLogin(ctx, string(partition), "error", elapsed())
		return nil, sessionError(err)
	}
	auth.SetSessionCookie(w, h.cookie, token, rec.ExpiresAt)

	if partition == credentials.PartitionStaff && h.staff != nil {
		if err := h.staff.UpdateLastLogin(ctx, principal.ID, rec.CreatedAt); err != nil {
			log.Warn(ctx, "failed to record last login", "principal_id", principal.ID, "error", err)
		}
	}

	h.metrics.RecordLogin(ctx, string(partition), "success", elapsed())
	log.Info(ctx, "login succeeded",
		"principal_id", principal.ID,
		"principal_type", principal.Type,
	)
	return envelope.Fields{"user": principal}, nil
}

// HandleLogout destroys the session named by the cookie, if any, and clears
// the cookie. It succeeds for anonymous callers too.
func (h *authHandlers) HandleLogout(w http.ResponseWriter, r *http.Request) (envelope.Fields, error) {
	ctx := context.WithoutCancel(r.Context())

	if token, ok := auth.SessionTokenFromRequest(r, h.cookie); ok {
		if err := h.sessions.Destroy(ctx, token); err != nil {
			return nil, sessionError(err)
		}
		logging.FromContext(ctx, h.logger).Info(ctx, "logged out")
	}

	auth.ClearSessionCookie(w, h.cookie)
	return envelope.Fields{"message": "logged out"}, nil
}

// HandleCheck returns the principal behind the current session.
func (h *authHandlers) HandleCheck(_ http.ResponseWriter, r *http.Request) (envelope.Fields, error) {
	principal, err := principalFrom(r)
	if err != nil {
		return nil, err
	}
	fields := envelope.Fields{"user": principal}
	if rec, ok := sessions.RecordFromContext(r.Context()); ok {
		fields["session"] = map[string]string{
			"createdAt": envelope.FormatTimestamp(rec.CreatedAt),
			"expiresAt": envelope.FormatTimestamp(rec.ExpiresAt),
		}
	}
	return fields, nil
}
