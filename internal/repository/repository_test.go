package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HSousa1987/Lavandaria-sub001/internal/auth"
	"github.com/HSousa1987/Lavandaria-sub001/internal/credentials"
	"github.com/HSousa1987/Lavandaria-sub001/internal/db/bunx"
	"github.com/HSousa1987/Lavandaria-sub001/internal/db/dbtest"
	"github.com/HSousa1987/Lavandaria-sub001/internal/db/models"
)

func newStaff(t *testing.T, username, role string) *models.StaffUser {
	t.Helper()
	now := time.Now().UTC()
	return &models.StaffUser{
		ID:           bunx.NewUUIDv7(),
		Username:     username,
		DisplayName:  username,
		Role:         role,
		PasswordHash: "$2a$10$placeholderplaceholderplaceholderplaceholderplacehold",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestStaffRepository_SeededMaster(t *testing.T) {
	db := dbtest.NewSQLite(t)
	repo := NewBunStaffRepository(db)
	ctx := context.Background()

	master, err := repo.GetByUsername(ctx, "master")
	require.NoError(t, err)
	assert.Equal(t, "master", master.Role)

	rec, err := repo.LookupCredential(ctx, "master")
	require.NoError(t, err)
	assert.Equal(t, auth.PrincipalTypeMaster, rec.Principal.Type)
	assert.Equal(t, master.ID, rec.Principal.ID)
	assert.Equal(t, "master", rec.Principal.ContactHandle)
}

func TestStaffRepository_CRUD(t *testing.T) {
	db := dbtest.NewSQLite(t)
	repo := NewBunStaffRepository(db)
	ctx := context.Background()

	worker := newStaff(t, "wendy", "worker")
	require.NoError(t, repo.Create(ctx, worker))

	got, err := repo.GetByID(ctx, worker.ID)
	require.NoError(t, err)
	assert.Equal(t, "wendy", got.Username)
	assert.Nil(t, got.LastLoginAt)

	loginAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.UpdateLastLogin(ctx, worker.ID, loginAt))
	got, err = repo.GetByID(ctx, worker.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLoginAt)
	assert.True(t, got.LastLoginAt.Equal(loginAt))

	require.NoError(t, repo.UpdatePassword(ctx, worker.ID, "new-hash"))
	got, err = repo.GetByID(ctx, worker.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)
	assert.ErrorIs(t, repo.UpdatePassword(ctx, "missing", "x"), ErrNotFound)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "master", all[0].Username)
	assert.Equal(t, "wendy", all[1].Username)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetByUsername(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	// usernames are unique
	assert.Error(t, repo.Create(ctx, newStaff(t, "wendy", "admin")))
}

func TestStaffRepository_LookupCredentialHidesUnusableAccounts(t *testing.T) {
	db := dbtest.NewSQLite(t)
	repo := NewBunStaffRepository(db)
	ctx := context.Background()

	disabled := newStaff(t, "gone", "admin")
	at := time.Now().UTC()
	disabled.DisabledAt = &at
	require.NoError(t, repo.Create(ctx, disabled))

	require.NoError(t, repo.Create(ctx, newStaff(t, "odd", "janitor")))

	for _, handle := range []string{"gone", "odd", "nobody"} {
		rec, err := repo.LookupCredential(ctx, handle)
		assert.Nil(t, rec, handle)
		assert.ErrorIs(t, err, credentials.ErrRecordNotFound, handle)
	}
}

func TestClientRepository(t *testing.T) {
	db := dbtest.NewSQLite(t)
	repo := NewBunClientRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	client := &models.Client{
		ID:           bunx.NewUUIDv7(),
		Phone:        "+351910000001",
		Name:         "Carla",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, repo.Create(ctx, client))

	got, err := repo.GetByPhone(ctx, "+351910000001")
	require.NoError(t, err)
	assert.Equal(t, client.ID, got.ID)

	rec, err := repo.LookupCredential(ctx, "+351910000001")
	require.NoError(t, err)
	assert.Equal(t, auth.PrincipalTypeClient, rec.Principal.Type)
	assert.Equal(t, "Carla", rec.Principal.DisplayName)
	assert.Equal(t, "hash", rec.PasswordHash)

	_, err = repo.LookupCredential(ctx, "+351000000000")
	assert.ErrorIs(t, err, credentials.ErrRecordNotFound)

	// a staff username never resolves in the client partition
	_, err = repo.LookupCredential(ctx, "master")
	assert.ErrorIs(t, err, credentials.ErrRecordNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSessionRepository(t *testing.T) {
	db := dbtest.NewSQLite(t)
	repo := NewBunSessionRepository(db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	live := &models.Session{
		ID:            bunx.NewUUIDv7(),
		TokenHash:     "live",
		PrincipalID:   "p1",
		PrincipalType: "worker",
		DisplayName:   "Wendy",
		ContactHandle: "wendy",
		CreatedAt:     now,
		ExpiresAt:     now.Add(time.Hour),
	}
	stale := *live
	stale.ID = bunx.NewUUIDv7()
	stale.TokenHash = "stale"
	stale.ExpiresAt = now.Add(-time.Minute)

	require.NoError(t, repo.Create(ctx, live))
	require.NoError(t, repo.Create(ctx, &stale))

	got, err := repo.GetByTokenHash(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, "Wendy", got.DisplayName)
	assert.True(t, got.ExpiresAt.Equal(now.Add(time.Hour)))

	ok, err := repo.UpdateExpiry(ctx, "live", now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UpdateExpiry(ctx, "missing", now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.GetByTokenHash(ctx, "stale")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.DeleteByTokenHash(ctx, "live"))
	require.NoError(t, repo.DeleteByTokenHash(ctx, "live"))
	_, err = repo.GetByTokenHash(ctx, "live")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, repo.Ping(ctx))
}

func TestJobRepository(t *testing.T) {
	db := dbtest.NewSQLite(t)
	repo := NewBunJobRepository(db)
	ctx := context.Background()

	worker := "worker-1"
	jobs := []*models.Job{
		{ID: 1, ClientID: "c1", Kind: "laundry", Status: "pending", CreatedAt: time.Now().UTC()},
		{ID: 2, ClientID: "c1", AssignedTo: &worker, Kind: "cleaning", Status: "scheduled", CreatedAt: time.Now().UTC()},
		{ID: 3, ClientID: "c2", AssignedTo: &worker, Kind: "cleaning", Status: "done", CreatedAt: time.Now().UTC()},
	}
	for _, j := range jobs {
		require.NoError(t, repo.Create(ctx, j))
	}

	got, err := repo.GetByID(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, got.AssignedTo)
	assert.Equal(t, worker, *got.AssignedTo)

	_, err = repo.GetByID(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, int64(3), all[0].ID)

	mine, err := repo.ListByClient(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	assigned, err := repo.ListByAssignee(ctx, worker)
	require.NoError(t, err)
	assert.Len(t, assigned, 2)

	none, err := repo.ListByAssignee(ctx, "worker-2")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPaymentRepository(t *testing.T) {
	db := dbtest.NewSQLite(t)
	repo := NewBunPaymentRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	payments := []*models.Payment{
		{ID: 1, JobID: 1, ClientID: "c1", AmountCents: 1500, Method: "cash", PaidAt: base},
		{ID: 2, JobID: 2, ClientID: "c1", AmountCents: 2500, Method: "card", PaidAt: base.Add(24 * time.Hour)},
		{ID: 3, JobID: 3, ClientID: "c2", AmountCents: 1000, Method: "cash", PaidAt: base.Add(48 * time.Hour)},
		{ID: 4, JobID: 4, ClientID: "c2", AmountCents: 9999, Method: "card", PaidAt: base.AddDate(0, 1, 0)},
	}
	for _, p := range payments {
		require.NoError(t, repo.Create(ctx, p))
	}

	recent, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, int64(4), recent[0].ID)

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	summary, err := repo.Summarize(ctx, from, from.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.Count)
	assert.Equal(t, int64(5000), summary.TotalCents)
	assert.Equal(t, map[string]int64{"cash": 2500, "card": 2500}, summary.ByMethodCents)

	empty, err := repo.Summarize(ctx, from.AddDate(1, 0, 0), from.AddDate(1, 1, 0))
	require.NoError(t, err)
	assert.Zero(t, empty.Count)
	assert.Empty(t, empty.ByMethodCents)
}
