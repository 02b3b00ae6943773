package credentials

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/HSousa1987/Lavandaria-sub001/internal/auth"
)

func mustHash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

type failingStore struct{ err error }

func (s failingStore) LookupCredential(context.Context, string) (*Record, error) {
	return nil, s.err
}

func newTestVerifier(t *testing.T) *Verifier {
	t.Helper()
	staff := NewMemoryStore(PartitionStaff)
	staff.Add(Record{
		Principal:    auth.Principal{ID: "staff-1", Type: auth.PrincipalTypeMaster, DisplayName: "Master", ContactHandle: "master"},
		PasswordHash: mustHash(t, "master123"),
	})
	staff.Add(Record{
		Principal:    auth.Principal{ID: "staff-2", Type: auth.PrincipalTypeWorker, DisplayName: "Rui", ContactHandle: "rui"},
		PasswordHash: mustHash(t, "worker123"),
	})

	clients := NewMemoryStore(PartitionClient)
	clients.Add(Record{
		Principal:    auth.Principal{ID: "client-1", Type: auth.PrincipalTypeClient, DisplayName: "Maria", ContactHandle: "+351 912 345 678"},
		PasswordHash: mustHash(t, "client123"),
	})
	// A client whose phone coincides with a staff username must not collide.
	clients.Add(Record{
		Principal:    auth.Principal{ID: "client-2", Type: auth.PrincipalTypeClient, DisplayName: "Collider", ContactHandle: "123"},
		PasswordHash: mustHash(t, "collide"),
	})
	staff.Add(Record{
		Principal:    auth.Principal{ID: "staff-3", Type: auth.PrincipalTypeAdmin, DisplayName: "Numeric", ContactHandle: "123"},
		PasswordHash: mustHash(t, "numeric"),
	})

	v, err := NewVerifier(staff, clients)
	require.NoError(t, err)
	return v
}

func TestVerify(t *testing.T) {
	v := newTestVerifier(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		partition Partition
		handle    string
		password  string
		wantID    string
		wantKind  FailureKind
	}{
		{"staff ok", PartitionStaff, "master", "master123", "staff-1", 0},
		{"staff handle case-insensitive", PartitionStaff, "  MASTER ", "master123", "staff-1", 0},
		{"staff bad password", PartitionStaff, "master", "nope", "", FailureBadPassword},
		{"staff unknown", PartitionStaff, "ghost", "master123", "", FailureNotFound},
		{"client ok", PartitionClient, "+351912345678", "client123", "client-1", 0},
		{"client formatted phone", PartitionClient, "+351 912-345-678", "client123", "client-1", 0},
		{"client bad password", PartitionClient, "+351912345678", "master123", "", FailureBadPassword},
		{"client unknown", PartitionClient, "+1555", "client123", "", FailureNotFound},
		{"staff cannot log in as client", PartitionClient, "master", "master123", "", FailureNotFound},
		{"same handle staff partition", PartitionStaff, "123", "numeric", "staff-3", 0},
		{"same handle client partition", PartitionClient, "123", "collide", "client-2", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := v.Verify(ctx, tt.partition, tt.handle, tt.password)
			if tt.wantKind == 0 {
				require.NoError(t, err)
				require.NotNil(t, p)
				assert.Equal(t, tt.wantID, p.ID)
				return
			}

			require.Error(t, err)
			assert.Nil(t, p)
			var failure *Failure
			require.True(t, errors.As(err, &failure))
			assert.Equal(t, tt.wantKind, failure.Kind)
			assert.Equal(t, PublicMessage, err.Error())
		})
	}
}

func TestVerify_FailureKindsShareMessage(t *testing.T) {
	v := newTestVerifier(t)
	ctx := context.Background()

	_, notFound := v.Verify(ctx, PartitionStaff, "ghost", "x")
	_, badPassword := v.Verify(ctx, PartitionStaff, "master", "x")

	assert.ErrorIs(t, notFound, ErrNotFound)
	assert.ErrorIs(t, badPassword, ErrBadPassword)
	assert.NotErrorIs(t, notFound, ErrBadPassword)
	assert.Equal(t, notFound.Error(), badPassword.Error())
}

func TestVerify_StoreError(t *testing.T) {
	boom := errors.New("connection refused")
	v, err := NewVerifier(failingStore{err: boom}, NewMemoryStore(PartitionClient))
	require.NoError(t, err)

	p, err := v.Verify(context.Background(), PartitionStaff, "master", "master123")
	assert.Nil(t, p)
	assert.ErrorIs(t, err, boom)
	var failure *Failure
	assert.False(t, errors.As(err, &failure))
}

func TestVerify_UnknownPartition(t *testing.T) {
	v := newTestVerifier(t)
	_, err := v.Verify(context.Background(), Partition("vendor"), "x", "y")
	assert.Error(t, err)
}

func TestNewVerifier_RequiresStores(t *testing.T) {
	_, err := NewVerifier(nil, NewMemoryStore(PartitionClient))
	assert.Error(t, err)
}

func TestNormalizePhone(t *testing.T) {
	tests := map[string]string{
		"+351 912 345 678": "+351912345678",
		"(21) 555-0100":    "215550100",
		"00351912345678":   "00351912345678",
		"91+2":             "912",
		"":                 "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizePhone(in), in)
	}
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("s3cret", bcrypt.MinCost)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, cost, MinHashCost)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))

	_, err = HashPassword("", HashCost)
	assert.Error(t, err)
}
