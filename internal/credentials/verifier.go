// Package credentials verifies staff and client logins against their
// independent credential stores.
package credentials

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"

	"github.com/HSousa1987/Lavandaria-sub001/internal/auth"
	"github.com/HSousa1987/Lavandaria-sub001/internal/telemetry"
)

// Partition names one of the two disjoint credential namespaces.
type Partition string

const (
	PartitionStaff  Partition = "staff"
	PartitionClient Partition = "client"
)

// MinHashCost is the lowest bcrypt cost accepted for new hashes.
const MinHashCost = 10

// HashCost is used by provisioning.
const HashCost = 12

// PublicMessage is the only text callers ever see for a failed login.
const PublicMessage = "invalid credentials"

var (
	// ErrNotFound marks a handle with no record in the partition.
	ErrNotFound = errors.New("credential not found")
	// ErrBadPassword marks a password that does not match the stored hash.
	ErrBadPassword = errors.New("password mismatch")
	// ErrRecordNotFound is returned by Store implementations for unknown handles.
	ErrRecordNotFound = errors.New("credential record not found")
)

// FailureKind distinguishes failures internally.
type FailureKind int

const (
	FailureNotFound FailureKind = iota + 1
	FailureBadPassword
)

func (k FailureKind) String() string {
	switch k {
	case FailureNotFound:
		return "not_found"
	case FailureBadPassword:
		return "bad_password"
	default:
		return "unknown"
	}
}

// Failure is a rejected login. Error() always returns PublicMessage; Kind is
// for logs and metrics only.
type Failure struct {
	Kind      FailureKind
	Partition Partition
	Handle    string
}

func (f *Failure) Error() string {
	return PublicMessage
}

// Unwrap lets errors.Is match ErrNotFound or ErrBadPassword.
func (f *Failure) Unwrap() error {
	if f.Kind == FailureNotFound {
		return ErrNotFound
	}
	return ErrBadPassword
}

// Record is one stored credential. PasswordHash never leaves this package.
type Record struct {
	Principal    auth.Principal
	PasswordHash string
}

// Store looks up credential records in one partition. Implementations return
// ErrRecordNotFound for unknown or disabled handles.
type Store interface {
	LookupCredential(ctx context.Context, handle string) (*Record, error)
}

// Verifier checks a handle/password pair against the store of a partition.
type Verifier struct {
	stores    map[Partition]Store
	dummyHash []byte
}

// NewVerifier creates a verifier over the staff and client stores.
func NewVerifier(staff, clients Store) (*Verifier, error) {
	if staff == nil || clients == nil {
		return nil, fmt.Errorf("both staff and client credential stores are required")
	}

	// Unknown handles are compared against this hash so both failure kinds
	// cost one bcrypt comparison.
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate dummy secret: %w", err)
	}
	dummy, err := bcrypt.GenerateFromPassword(secret, HashCost)
	if err != nil {
		return nil, fmt.Errorf("generate dummy hash: %w", err)
	}

	return &Verifier{
		stores: map[Partition]Store{
			PartitionStaff:  staff,
			PartitionClient: clients,
		},
		dummyHash: dummy,
	}, nil
}

// Verify returns the principal owning handle when password matches. Failed
// logins return a *Failure; store errors are returned wrapped.
func (v *Verifier) Verify(ctx context.Context, partition Partition, handle, password string) (*auth.Principal, error) {
	ctx, span := telemetry.StartSpan(ctx, "lavandaria/credentials", "credentials.Verify",
		attribute.String(telemetry.AttrCredentialPartition, string(partition)),
	)
	defer span.End()

	store, ok := v.stores[partition]
	if !ok {
		err := fmt.Errorf("unknown credential partition %q", partition)
		telemetry.RecordError(span, err)
		return nil, err
	}

	normalized := NormalizeHandle(partition, handle)
	record, err := store.LookupCredential(ctx, normalized)
	if err != nil && !errors.Is(err, ErrRecordNotFound) {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("lookup %s credential: %w", partition, err)
	}

	if record == nil {
		_ = bcrypt.CompareHashAndPassword(v.dummyHash, []byte(password))
		telemetry.AddEvent(span, "credentials.rejected", attribute.String("reason", FailureNotFound.String()))
		return nil, &Failure{Kind: FailureNotFound, Partition: partition, Handle: normalized}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)); err != nil {
		telemetry.AddEvent(span, "credentials.rejected", attribute.String("reason", FailureBadPassword.String()))
		return nil, &Failure{Kind: FailureBadPassword, Partition: partition, Handle: normalized}
	}

	principal := record.Principal
	span.SetAttributes(
		attribute.String(telemetry.AttrPrincipalID, principal.ID),
		attribute.String(telemetry.AttrPrincipalType, string(principal.Type)),
	)
	return &principal, nil
}

// HashPassword hashes a new password for provisioning.
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password is required")
	}
	if cost < MinHashCost {
		cost = MinHashCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
