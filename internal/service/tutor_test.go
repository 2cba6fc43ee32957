package service

import (
	"context"
	"testing"

	"tutor_market/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	second := f.user(t, "Tom", "tom@example.com", domain.RoleTutor)
	negative := -1.0

	tests := []struct {
		name  string
		actor domain.Actor
		in    CreateProfileInput
		kind  domain.ErrorKind
	}{
		{"bad user id", second, CreateProfileInput{UserID: "nope"}, domain.KindValidation},
		{"negative rate", second, CreateProfileInput{UserID: second.UserID, HourlyRate: &negative}, domain.KindValidation},
		{"other user", second, CreateProfileInput{UserID: f.student.UserID}, domain.KindForbidden},
		{"user is not a tutor", f.admin, CreateProfileInput{UserID: f.student.UserID}, domain.KindValidation},
		{"unknown subject", second, CreateProfileInput{UserID: second.UserID, SubjectIDs: []string{"00000000-0000-0000-0000-000000000000"}}, domain.KindValidation},
		{"already has a profile", f.tutor, CreateProfileInput{UserID: f.tutor.UserID}, domain.KindConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.tutors.CreateProfile(ctx, tt.actor, tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.kind, domain.KindOf(err))
		})
	}

	bio := "Grammar and essays"
	p, err := f.tutors.CreateProfile(ctx, second, CreateProfileInput{
		UserID:     second.UserID,
		Bio:        &bio,
		SubjectIDs: []string{f.english.ID, f.english.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalPending, p.ApprovalStatus)
	require.Len(t, p.Subjects, 1)
	assert.Equal(t, "English", p.Subjects[0].Name)
}

func TestApprovalGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	second := f.user(t, "Tom", "tom@example.com", domain.RoleTutor)
	p, err := f.tutors.CreateProfile(ctx, second, CreateProfileInput{UserID: second.UserID})
	require.NoError(t, err)

	listed, err := f.tutors.ListApproved(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, f.profile.ID, listed[0].ID)

	_, err = f.tutors.Approve(ctx, second, p.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.tutors.Approve(ctx, f.admin, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	pending, err := f.tutors.ListByStatus(ctx, f.admin, "pending")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, p.ID, pending[0].ID)
	_, err = f.tutors.ListByStatus(ctx, f.admin, "maybe")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.tutors.ListByStatus(ctx, f.student, "pending")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	approved, err := f.tutors.Approve(ctx, f.admin, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalApproved, approved.ApprovalStatus)
	listed, err = f.tutors.ListApproved(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	_, err = f.tutors.Reject(ctx, f.admin, p.ID)
	require.NoError(t, err)
	listed, err = f.tutors.ListApproved(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestGetTutorByID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.tutors.GetByID(ctx, f.profile.ID)
	require.NoError(t, err)
	assert.True(t, p.Teaches(f.math.ID))

	_, err = f.tutors.GetByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.tutors.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	subjects, err := f.tutors.ListSubjects(ctx)
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, "English", subjects[0].Name)
}
