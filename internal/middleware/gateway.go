package middleware

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"github.com/HSousa1987/Lavandaria-sub001/internal/auth"
	"github.com/HSousa1987/Lavandaria-sub001/internal/envelope"
	"github.com/HSousa1987/Lavandaria-sub001/internal/logging"
	"github.com/HSousa1987/Lavandaria-sub001/internal/policy"
	"github.com/HSousa1987/Lavandaria-sub001/internal/sessions"
	"github.com/HSousa1987/Lavandaria-sub001/internal/telemetry"
)

// GatewayOptions are the collaborators of the authorization stage.
type GatewayOptions struct {
	Sessions *sessions.Manager
	Routes   *policy.Table
	Cookie   auth.CookieConfig
	Logger   logging.Logger
	Metrics  *telemetry.GatewayMetrics
}

// Gateway resolves the session cookie, matches the route against the policy
// table and either short-circuits with an error envelope or lets the request
// through with the principal and session on the context.
//
// A session store failure on a public route is logged and the request goes
// on anonymously. Everywhere else it answers 503 SESSION_STORE_UNAVAILABLE.
func Gateway(opts GatewayOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := logging.FromContext(ctx, opts.Logger)

			route, _ := opts.Routes.Match(r.Method, r.URL.Path)

			ctx, span := telemetry.StartSpan(ctx, "lavandaria/gateway", "gateway.authorize",
				attribute.String(telemetry.AttrPolicyRoute, route.Name),
			)
			defer span.End()

			token, hasCookie := auth.SessionTokenFromRequest(r, opts.Cookie)

			var rec *sessions.Record
			if hasCookie {
				var err error
				rec, err = opts.Sessions.Resolve(ctx, token)
				if err != nil {
					telemetry.RecordError(span, err)
					if route.Audience != policy.AudiencePublic {
						log.Error(ctx, "session lookup failed", "route", route.Name, "error", err)
						envelope.WriteError(w, r, envelope.ErrSessionStore.Wrap(err))
						return
					}
					log.Warn(ctx, "session lookup failed on public route, continuing anonymously", "route", route.Name, "error", err)
				} else if rec == nil && route.Audience != policy.AudiencePublic {
					// Stale or malformed cookie.
					auth.ClearSessionCookie(w, opts.Cookie)
				}
			}

			var principal *auth.Principal
			if rec != nil {
				principal = &rec.Principal
				span.SetAttributes(
					attribute.String(telemetry.AttrPrincipalID, principal.ID),
					attribute.String(telemetry.AttrPrincipalType, string(principal.Type)),
				)
			}

			decision := policy.Authorize(principal, route)
			span.SetAttributes(
				attribute.Bool(telemetry.AttrPolicyAllowed, decision.Allowed),
				attribute.String(telemetry.AttrPolicyCode, decision.Code),
			)
			opts.Metrics.RecordDecision(ctx, route.Name, decision.Allowed, decision.Code)

			if !decision.Allowed {
				args := []any{"route", route.Name, "method", r.Method, "path", r.URL.Path, "code", decision.Code}
				if principal != nil {
					args = append(args, "principal_id", principal.ID, "principal_type", principal.Type)
				}
				log.Info(ctx, "request denied", args...)
				envelope.WriteError(w, r, decision.Err())
				return
			}

			if rec != nil {
				refreshed, err := opts.Sessions.Refresh(ctx, rec)
				switch {
				case err != nil:
					log.Warn(ctx, "session refresh failed", "error", err)
				case refreshed:
					auth.SetSessionCookie(w, opts.Cookie, token, rec.ExpiresAt)
				}

				ctx = sessions.WithRecord(ctx, rec)
				ctx = auth.SetPrincipalContext(ctx, rec.Principal)
				ctx = logging.WithLogger(ctx, log.With("principal_id", rec.Principal.ID, "principal_type", rec.Principal.Type))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
