package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tutor_market/internal/domain"
	"tutor_market/internal/payment"
	"tutor_market/internal/repository"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeGateway struct {
	mu    sync.Mutex
	calls []payment.ChargeRequest
	fail  bool
}

func (g *fakeGateway) Charge(_ context.Context, req payment.ChargeRequest) (*payment.Charge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, req)
	if g.fail {
		return nil, errors.New("card declined")
	}
	return &payment.Charge{ID: "chrg_test", Status: "successful"}, nil
}

func (g *fakeGateway) Calls() []payment.ChargeRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]payment.ChargeRequest(nil), g.calls...)
}

type recorder struct {
	mu   sync.Mutex
	keys []string
}

func (r *recorder) PublishJSON(_ context.Context, key string, _ any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
	return nil
}

func (r *recorder) Close() error { return nil }

func (r *recorder) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.keys...)
}

// fixture is a marketplace with one approved tutor teaching Math, two
// students and an admin
type fixture struct {
	store    *repository.Store
	clock    *fakeClock
	gateway  *fakeGateway
	events   *recorder
	auth     *AuthService
	tutors   *TutorService
	bookings *BookingService
	meetings *MeetingService

	student, other, tutor, admin domain.Actor
	profile                      *domain.TutorProfile
	math, english                *domain.Subject
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		store:   repository.NewMemoryStore(),
		clock:   &fakeClock{t: time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC)},
		gateway: &fakeGateway{},
		events:  &recorder{},
	}
	var err error
	f.auth, err = NewAuthService(f.store.Users, "test-secret", time.Hour, WithBcryptCost(bcrypt.MinCost), WithAuthClock(f.clock.Now))
	require.NoError(t, err)
	f.tutors = NewTutorService(f.store, nil)
	f.bookings = NewBookingService(f.store, f.gateway, f.events, BookingConfig{HoldTTL: 10 * time.Minute}, f.clock.Now)
	f.meetings = NewMeetingService(f.bookings, "")

	f.student = f.user(t, "Sam", "sam@example.com", domain.RoleStudent)
	f.other = f.user(t, "Pat", "pat@example.com", domain.RoleParent)
	f.tutor = f.user(t, "Tia", "tia@example.com", domain.RoleTutor)
	f.admin = f.user(t, "Ada", "ada@example.com", domain.RoleAdmin)

	f.math, err = f.store.Subjects.FindOrCreate(ctx, "Math")
	require.NoError(t, err)
	f.english, err = f.store.Subjects.FindOrCreate(ctx, "English")
	require.NoError(t, err)

	rate := 50.0
	f.profile, err = f.tutors.CreateProfile(ctx, f.tutor, CreateProfileInput{
		UserID:     f.tutor.UserID,
		HourlyRate: &rate,
		SubjectIDs: []string{f.math.ID},
	})
	require.NoError(t, err)
	f.profile, err = f.tutors.Approve(ctx, f.admin, f.profile.ID)
	require.NoError(t, err)
	return f
}

func (f *fixture) user(t *testing.T, name, email string, role domain.Role) domain.Actor {
	t.Helper()
	u := &domain.User{Name: name, Email: email, PasswordHash: "unused", Role: role}
	require.NoError(t, f.store.Users.Create(context.Background(), u))
	return domain.Actor{UserID: u.ID, Role: role}
}

// input books the fixture tutor for Math starting offset after the clock
func (f *fixture) input(student domain.Actor, offset, d time.Duration) BookingInput {
	start := f.clock.Now().Add(offset)
	return BookingInput{
		StudentID: student.UserID,
		TutorID:   f.profile.ID,
		SubjectID: f.math.ID,
		Mode:      "online",
		StartAt:   start,
		EndAt:     start.Add(d),
	}
}
