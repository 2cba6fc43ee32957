package db

import (
	"context"
	"testing"

	"tutor_market/internal/domain"
	"tutor_market/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSeedIsRepeatable(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()

	for i := 0; i < 2; i++ {
		require.NoError(t, Seed(ctx, store, SeedOptions{AdminEmail: "admin@example.com", AdminPassword: "admin123"}))
	}

	subjects, err := store.Subjects.List(ctx)
	require.NoError(t, err)
	assert.Len(t, subjects, len(SeedSubjects))

	approved, err := store.Tutors.ListByStatus(ctx, domain.ApprovalApproved)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Len(t, approved[0].Subjects, 2)
	assert.Equal(t, 50.0, approved[0].Rate())

	tutor, err := store.Users.ByEmail(ctx, SampleTutorEmail)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(tutor.PasswordHash), []byte(SampleTutorPassword)))

	admin, err := store.Users.ByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
}

func TestSeedKeepsAdminDecision(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	require.NoError(t, Seed(ctx, store, SeedOptions{}))

	tutor, err := store.Users.ByEmail(ctx, SampleTutorEmail)
	require.NoError(t, err)
	profile, err := store.Tutors.ByUserID(ctx, tutor.ID)
	require.NoError(t, err)
	_, err = store.Tutors.SetStatus(ctx, profile.ID, domain.ApprovalRejected)
	require.NoError(t, err)

	require.NoError(t, Seed(ctx, store, SeedOptions{}))

	got, err := store.Tutors.ByID(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalRejected, got.ApprovalStatus)
	approved, err := store.Tutors.ListByStatus(ctx, domain.ApprovalApproved)
	require.NoError(t, err)
	assert.Empty(t, approved)
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	body, err := migrationsFS.ReadFile("migrations/" + entries[0].Name())
	require.NoError(t, err)
	assert.Contains(t, string(body), "-- +goose Up")
	assert.Contains(t, string(body), "EXCLUDE USING gist")
}
