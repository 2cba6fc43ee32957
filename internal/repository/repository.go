package repository

import (
	"context" // Request-scoped cancellation
	"time"    // Time handling

	"tutor_market/internal/domain" // Domain types
)

// Users persists marketplace accounts
type Users interface {
	Create(ctx context.Context, u *domain.User) error
	ByID(ctx context.Context, id string) (*domain.User, error)
	ByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.User, error)
}

// Subjects persists the subject reference data
type Subjects interface {
	List(ctx context.Context) ([]domain.Subject, error)
	ByID(ctx context.Context, id string) (*domain.Subject, error)
	FindOrCreate(ctx context.Context, name string) (*domain.Subject, error)
}

// Tutors persists tutor profiles and their subject tags
type Tutors interface {
	Create(ctx context.Context, p *domain.TutorProfile) error
	ByID(ctx context.Context, id string) (*domain.TutorProfile, error)
	ByUserID(ctx context.Context, userID string) (*domain.TutorProfile, error)
	ListByStatus(ctx context.Context, status domain.ApprovalStatus) ([]domain.TutorProfile, error)
	SetStatus(ctx context.Context, id string, status domain.ApprovalStatus) (*domain.TutorProfile, error)
	AddSubjects(ctx context.Context, id string, subjectIDs []string) error
}

// BookingFilter narrows a booking listing. StudentID and TutorID are OR-ed when both are set.
type BookingFilter struct {
	StudentID string
	TutorID   string
}

// Bookings persists bookings and enforces the per-tutor no-overlap invariant
type Bookings interface {
	// CreateIfFree inserts b unless a booking of the same tutor that still
	// blocks at now intersects [b.StartAt, b.EndAt). Lapsed holds on the
	// interval are cancelled first.
	CreateIfFree(ctx context.Context, b *domain.Booking, now time.Time) error
	ByID(ctx context.Context, id string) (*domain.Booking, error)
	ByIdempotencyKey(ctx context.Context, studentID, key string) (*domain.Booking, error)
	// Update runs fn on the locked booking and persists it if fn returns nil.
	// fn must not block on I/O; the memory store holds its only mutex meanwhile.
	Update(ctx context.Context, id string, fn func(b *domain.Booking) error) (*domain.Booking, error)
	List(ctx context.Context, f BookingFilter, page, pageSize int) ([]domain.Booking, int64, error)
	// ExpireHolds cancels pending bookings whose hold lapsed at or before now
	ExpireHolds(ctx context.Context, now time.Time) (int64, error)
}

// Store bundles the repositories behind one handle
type Store struct {
	Users    Users
	Subjects Subjects
	Tutors   Tutors
	Bookings Bookings
	Backend  string // "postgres" or "memory"
}

// Conflicts reported by every Store implementation
var (
	ErrSlotTaken      = domain.Conflict("tutor already has a booking in this time range")
	ErrDuplicateEmail = domain.Conflict("email already registered")
	ErrProfileExists  = domain.Conflict("user already has a tutor profile")
	ErrDuplicateKey   = domain.Conflict("idempotency key already used")
)
