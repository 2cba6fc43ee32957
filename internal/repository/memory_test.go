package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tutor_market/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTutor(t *testing.T, s *Store) *domain.TutorProfile {
	t.Helper()
	ctx := context.Background()
	u := &domain.User{Name: "Tutor", Email: "tutor@example.com", PasswordHash: "x", Role: domain.RoleTutor}
	require.NoError(t, s.Users.Create(ctx, u))
	p := &domain.TutorProfile{UserID: u.ID, ApprovalStatus: domain.ApprovalApproved}
	require.NoError(t, s.Tutors.Create(ctx, p))
	return p
}

func booking(tutorID string, start time.Time, d time.Duration) *domain.Booking {
	return &domain.Booking{
		StudentID: "student-1",
		TutorID:   tutorID,
		SubjectID: "subject-1",
		Mode:      domain.ModeOnline,
		StartAt:   start,
		EndAt:     start.Add(d),
		Status:    domain.StatusPending,
	}
}

func TestMemoryUsersUniqueEmail(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Users.Create(ctx, &domain.User{Name: "A", Email: "Alice@Example.com", Role: domain.RoleStudent}))
	err := s.Users.Create(ctx, &domain.User{Name: "B", Email: "alice@example.com", Role: domain.RoleStudent})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	u, err := s.Users.ByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)

	_, err = s.Users.ByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryTutorsOneProfilePerUser(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	p := seedTutor(t, s)

	err := s.Tutors.Create(ctx, &domain.TutorProfile{UserID: p.UserID, ApprovalStatus: domain.ApprovalPending})
	assert.ErrorIs(t, err, ErrProfileExists)

	math, err := s.Subjects.FindOrCreate(ctx, "Math")
	require.NoError(t, err)
	again, err := s.Subjects.FindOrCreate(ctx, "Math")
	require.NoError(t, err)
	assert.Equal(t, math.ID, again.ID)

	require.NoError(t, s.Tutors.AddSubjects(ctx, p.ID, []string{math.ID, math.ID}))
	got, err := s.Tutors.ByID(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Subjects, 1)
	assert.True(t, got.Teaches(math.ID))
}

func TestMemoryCreateIfFree(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	p := seedTutor(t, s)
	now := time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC)
	start := now.Add(2 * time.Hour)

	first := booking(p.ID, start, time.Hour)
	require.NoError(t, s.Bookings.CreateIfFree(ctx, first, now))
	assert.NotEmpty(t, first.ID)

	assert.ErrorIs(t, s.Bookings.CreateIfFree(ctx, booking(p.ID, start.Add(30*time.Minute), time.Hour), now), ErrSlotTaken)
	assert.NoError(t, s.Bookings.CreateIfFree(ctx, booking(p.ID, start.Add(time.Hour), time.Hour), now), "adjacent interval is free")

	_, err := s.Bookings.Update(ctx, first.ID, func(b *domain.Booking) error {
		b.Status = domain.StatusCancelled
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, s.Bookings.CreateIfFree(ctx, booking(p.ID, start, 30*time.Minute), now), "cancelled booking frees the slot")
}

func TestMemoryCreateIfFreeReleasesLapsedHold(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	p := seedTutor(t, s)
	now := time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC)
	start := now.Add(2 * time.Hour)

	exp := now.Add(10 * time.Minute)
	key := "k1"
	hold := booking(p.ID, start, time.Hour)
	hold.HoldExpiresAt = &exp
	hold.IdempotencyKey = &key
	require.NoError(t, s.Bookings.CreateIfFree(ctx, hold, now))

	assert.ErrorIs(t, s.Bookings.CreateIfFree(ctx, booking(p.ID, start, time.Hour), now.Add(5*time.Minute)), ErrSlotTaken)
	require.NoError(t, s.Bookings.CreateIfFree(ctx, booking(p.ID, start, time.Hour), exp))

	old, err := s.Bookings.ByID(ctx, hold.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, old.Status)

	dup := booking(p.ID, start.Add(5*time.Hour), time.Hour)
	dup.IdempotencyKey = &key
	assert.ErrorIs(t, s.Bookings.CreateIfFree(ctx, dup, exp), ErrDuplicateKey)
}

func TestMemoryCreateIfFreeConcurrent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	p := seedTutor(t, s)
	now := time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC)
	start := now.Add(2 * time.Hour)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Bookings.CreateIfFree(ctx, booking(p.ID, start, time.Hour), now); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestMemoryListAndExpire(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	p := seedTutor(t, s)
	now := time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC)

	exp := now.Add(time.Minute)
	for i := 0; i < 5; i++ {
		b := booking(p.ID, now.Add(time.Duration(i+1)*time.Hour), time.Hour)
		if i%2 == 0 {
			b.HoldExpiresAt = &exp
		}
		require.NoError(t, s.Bookings.CreateIfFree(ctx, b, now))
	}

	items, total, err := s.Bookings.List(ctx, BookingFilter{StudentID: "student-1"}, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, items, 2)
	assert.True(t, items[0].StartAt.Before(items[1].StartAt))

	items, _, err = s.Bookings.List(ctx, BookingFilter{StudentID: "nobody"}, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, items)

	n, err := s.Bookings.ExpireHolds(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = s.Bookings.ExpireHolds(ctx, exp)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
