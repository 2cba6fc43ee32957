package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBookingStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to BookingStatus
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCompleted, StatusCancelled, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_to_%s", tt.from, tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.False(t, StatusPending.Terminal())
}

func TestBookingOverlapsIsHalfOpen(t *testing.T) {
	base := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	b := &Booking{StartAt: base, EndAt: base.Add(time.Hour)}

	assert.True(t, b.Overlaps(base.Add(30*time.Minute), base.Add(90*time.Minute)))
	assert.True(t, b.Overlaps(base.Add(-time.Hour), base.Add(2*time.Hour)))
	assert.False(t, b.Overlaps(base.Add(time.Hour), base.Add(2*time.Hour)), "adjacent after")
	assert.False(t, b.Overlaps(base.Add(-time.Hour), base), "adjacent before")
	assert.Equal(t, time.Hour, b.Duration())
}

func TestBookingHoldLapsed(t *testing.T) {
	now := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	exp := now.Add(10 * time.Minute)

	held := &Booking{Status: StatusPending, HoldExpiresAt: &exp}
	assert.False(t, held.HoldLapsed(now))
	assert.True(t, held.HoldLapsed(exp), "expiry instant counts as lapsed")
	assert.True(t, held.Blocks(now))
	assert.False(t, held.Blocks(exp))

	plain := &Booking{Status: StatusPending}
	assert.False(t, plain.HoldLapsed(exp.Add(time.Hour)))

	confirmed := &Booking{Status: StatusConfirmed, HoldExpiresAt: &exp}
	assert.False(t, confirmed.HoldLapsed(exp.Add(time.Hour)))

	cancelled := &Booking{Status: StatusCancelled}
	assert.False(t, cancelled.Blocks(now))
}

func TestRoles(t *testing.T) {
	r, ok := ParseRole("tutor")
	assert.True(t, ok)
	assert.Equal(t, RoleTutor, r)
	_, ok = ParseRole("superuser")
	assert.False(t, ok)

	assert.True(t, RoleStudent.CanSelfRegister())
	assert.True(t, RoleParent.CanSelfRegister())
	assert.True(t, RoleTutor.CanSelfRegister())
	assert.False(t, RoleAdmin.CanSelfRegister())

	assert.True(t, RoleStudent.CanBook())
	assert.True(t, RoleParent.CanBook())
	assert.False(t, RoleTutor.CanBook())
}

func TestErrorClassification(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NotFound("tutor %s not found", "x"))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))

	cause := errors.New("card declined")
	pe := PaymentFailed(cause, "payment could not be captured")
	assert.True(t, errors.Is(pe, cause))
	assert.True(t, errors.Is(pe, ErrPayment))
	assert.Equal(t, "payment could not be captured: card declined", pe.Error())
}
