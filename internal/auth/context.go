package auth

import "context"

// PrincipalType describes the type of authenticated principal. Staff types
// form a ranked hierarchy; client is a separate branch.
type PrincipalType string

const (
	PrincipalTypeMaster PrincipalType = "master"
	PrincipalTypeAdmin  PrincipalType = "admin"
	PrincipalTypeWorker PrincipalType = "worker"
	PrincipalTypeClient PrincipalType = "client"
)

// Principal captures identity metadata propagated through the request context.
type Principal struct {
	// ID references the backing store record (staff_users.id or clients.id).
	ID string `json:"principalId"`
	// Type never changes after the record is created.
	Type PrincipalType `json:"principalType"`
	// DisplayName is shown in the front end.
	DisplayName string `json:"displayName"`
	// ContactHandle is the username for staff and the phone number for clients.
	ContactHandle string `json:"-"`
}

type principalContextKey struct{}

// SetPrincipalContext stores the authenticated principal on the context for downstream consumers.
func SetPrincipalContext(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, principal)
}

// GetPrincipalFromContext retrieves the authenticated principal from the context.
func GetPrincipalFromContext(ctx context.Context) (Principal, bool) {
	principal, ok := ctx.Value(principalContextKey{}).(Principal)
	return principal, ok
}
