package domain

import "time"

// BookingStatus is the lifecycle state of a booking
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

// Terminal reports whether no further transition is possible
func (s BookingStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// CanTransition reports whether moving from s to next is a legal lifecycle step
func (s BookingStatus) CanTransition(next BookingStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCompleted || next == StatusCancelled
	case StatusCancelled, StatusCompleted:
		return false
	}
	return false
}

// BookingMode is how the session is delivered
type BookingMode string

const (
	ModeOnline   BookingMode = "online"
	ModeInPerson BookingMode = "in_person"
)

// ParseBookingMode converts a raw string into a known BookingMode
func ParseBookingMode(s string) (BookingMode, bool) {
	switch m := BookingMode(s); m {
	case ModeOnline, ModeInPerson:
		return m, true
	}
	return "", false
}

// Booking Model
type Booking struct {
	ID               string        `gorm:"type:uuid;primaryKey" json:"id"`                // Primary key
	StudentID        string        `gorm:"type:uuid;not null;index" json:"studentId"`     // Booking user
	TutorID          string        `gorm:"type:uuid;not null;index" json:"tutorId"`       // TutorProfile.ID
	SubjectID        string        `gorm:"type:uuid;not null" json:"subjectId"`           // Subject.ID
	Mode             BookingMode   `gorm:"type:varchar(16);not null" json:"mode"`         // online or in_person
	StartAt          time.Time     `gorm:"not null;index" json:"startAt"`                 // Inclusive start
	EndAt            time.Time     `gorm:"not null;index" json:"endAt"`                   // Exclusive end
	Status           BookingStatus `gorm:"type:varchar(16);not null;index" json:"status"` // Lifecycle state
	HoldExpiresAt    *time.Time    `gorm:"index" json:"holdExpiresAt,omitempty"`          // Set for held bookings
	IdempotencyKey   *string       `json:"idempotencyKey,omitempty"`                      // Hold replay key, scoped per student
	PaymentReference *string       `json:"paymentReference,omitempty"`                    // Payment method used to confirm
	ChargeID         *string       `json:"chargeId,omitempty"`                            // Captured charge
	CancelledBy      *string       `gorm:"type:uuid" json:"cancelledBy,omitempty"`        // Actor that cancelled, empty when expired
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// Overlaps reports whether [start, end) intersects the booking interval
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartAt.Before(end) && start.Before(b.EndAt)
}

// HoldLapsed reports whether the booking is a pending hold whose TTL has elapsed at now
func (b *Booking) HoldLapsed(now time.Time) bool {
	return b.Status == StatusPending && b.HoldExpiresAt != nil && !now.Before(*b.HoldExpiresAt)
}

// Blocks reports whether the booking still reserves its interval at now
func (b *Booking) Blocks(now time.Time) bool {
	if b.Status == StatusCancelled {
		return false
	}
	return !b.HoldLapsed(now)
}

// Duration of the session
func (b *Booking) Duration() time.Duration {
	return b.EndAt.Sub(b.StartAt)
}
