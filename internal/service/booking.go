package service

import (
	"context" // Request-scoped cancellation
	"errors"  // Error handling
	"fmt"     // Error wrapping
	"math"    // Rounding
	"strings" // String manipulation
	"time"    // Time handling

	"tutor_market/internal/domain"     // Domain types
	"tutor_market/internal/events"     // Booking event publisher
	"tutor_market/internal/payment"    // Payment gateways
	"tutor_market/internal/repository" // Stores

	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// BookingConfig tunes the booking lifecycle
type BookingConfig struct {
	HoldTTL        time.Duration // How long a hold reserves its interval
	PaymentTimeout time.Duration // Upper bound on a payment capture
	Currency       string        // ISO currency for captures
}

// BookingService runs the booking state machine
type BookingService struct {
	store    *repository.Store
	payments payment.Gateway
	events   events.Publisher
	cfg      BookingConfig
	now      func() time.Time
}

// NewBookingService builds a BookingService; now defaults to time.Now
func NewBookingService(store *repository.Store, payments payment.Gateway, pub events.Publisher, cfg BookingConfig, now func() time.Time) *BookingService {
	if now == nil {
		now = time.Now
	}
	if pub == nil {
		pub = events.Noop{}
	}
	if cfg.HoldTTL <= 0 {
		cfg.HoldTTL = 10 * time.Minute
	}
	if cfg.PaymentTimeout <= 0 {
		cfg.PaymentTimeout = 15 * time.Second
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &BookingService{store: store, payments: payments, events: pub, cfg: cfg, now: now}
}

// BookingInput carries the fields shared by create and hold
type BookingInput struct {
	StudentID string
	TutorID   string
	SubjectID string
	Mode      string
	StartAt   time.Time
	EndAt     time.Time
}

// validate checks input shape and resolves every reference before any write
func (s *BookingService) validate(ctx context.Context, in BookingInput, now time.Time) (domain.BookingMode, error) {
	for _, ref := range [][2]string{{"studentId", in.StudentID}, {"tutorId", in.TutorID}, {"subjectId", in.SubjectID}} {
		if err := checkID(ref[0], ref[1]); err != nil {
			return "", err
		}
	}
	mode, ok := domain.ParseBookingMode(in.Mode)
	if !ok {
		return "", domain.Validation("mode must be one of online, in_person")
	}
	if in.StartAt.IsZero() || in.EndAt.IsZero() {
		return "", domain.Validation("startAt and endAt are required")
	}
	if !in.StartAt.Before(in.EndAt) {
		return "", domain.Validation("startAt must be before endAt")
	}
	if in.StartAt.Before(now) {
		return "", domain.Validation("startAt must not be in the past")
	}

	student, err := s.store.Users.ByID(ctx, in.StudentID)
	if err != nil {
		return "", unresolved(err, "studentId does not reference an existing user")
	}
	if !student.Role.CanBook() {
		return "", domain.Validation("studentId must reference a student or parent")
	}
	tutor, err := s.store.Tutors.ByID(ctx, in.TutorID)
	if err != nil {
		return "", unresolved(err, "tutorId does not reference an existing tutor profile")
	}
	if tutor.ApprovalStatus != domain.ApprovalApproved {
		return "", domain.Validation("tutor is not approved for bookings")
	}
	if _, err := s.store.Subjects.ByID(ctx, in.SubjectID); err != nil {
		return "", unresolved(err, "subjectId does not reference an existing subject")
	}
	if !tutor.Teaches(in.SubjectID) {
		return "", domain.Validation("tutor does not teach this subject")
	}
	return mode, nil
}

// unresolved turns a not-found lookup into a validation failure
func unresolved(err error, msg string) error {
	if domain.KindOf(err) == domain.KindNotFound {
		return domain.Validation("%s", msg)
	}
	return err
}

// Create persists a pending booking with no hold expiry
func (s *BookingService) Create(ctx context.Context, actor domain.Actor, in BookingInput) (*domain.Booking, error) {
	now := s.now()
	mode, err := s.validate(ctx, in, now)
	if err != nil {
		return nil, err
	}
	if !canBookFor(actor, in.StudentID) {
		return nil, domain.Forbidden("cannot book on behalf of another user")
	}
	b := newBooking(in, mode)
	if err := s.store.Bookings.CreateIfFree(ctx, b, now); err != nil {
		return nil, err
	}
	s.publish(ctx, events.BookingCreated, b)
	logBooking(b, actor).Info("Booking created")
	return b, nil
}

// Hold reserves an interval for HoldTTL. Replays of the same
// (studentId, idempotencyKey) while the hold is live return the original
// booking with replayed set.
func (s *BookingService) Hold(ctx context.Context, actor domain.Actor, in BookingInput, key string) (b *domain.Booking, replayed bool, err error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false, domain.Validation("idempotencyKey is required")
	}
	if len(key) > 255 {
		return nil, false, domain.Validation("idempotencyKey must be at most 255 characters")
	}
	if err := checkID("studentId", in.StudentID); err != nil {
		return nil, false, err
	}
	if !canBookFor(actor, in.StudentID) {
		return nil, false, domain.Forbidden("cannot book on behalf of another user")
	}

	now := s.now()
	if prior, err := s.replay(ctx, in, key, now); err != nil || prior != nil {
		return prior, prior != nil, err
	}

	mode, err := s.validate(ctx, in, now)
	if err != nil {
		return nil, false, err
	}
	b = newBooking(in, mode)
	expires := now.Add(s.cfg.HoldTTL)
	b.HoldExpiresAt = &expires
	b.IdempotencyKey = &key
	if err := s.store.Bookings.CreateIfFree(ctx, b, now); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			// A concurrent request with the same key won the insert
			prior, rerr := s.replay(ctx, in, key, now)
			if rerr != nil {
				return nil, false, rerr
			}
			if prior != nil {
				return prior, true, nil
			}
		}
		return nil, false, err
	}
	s.publish(ctx, events.BookingHeld, b)
	logBooking(b, actor).WithField("hold_expires_at", expires.Format(time.RFC3339)).Info("Booking held")
	return b, false, nil
}

// replay returns the booking previously stored under key, or nil if none exists
func (s *BookingService) replay(ctx context.Context, in BookingInput, key string, now time.Time) (*domain.Booking, error) {
	prior, err := s.store.Bookings.ByIdempotencyKey(ctx, in.StudentID, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if prior.TutorID != in.TutorID || prior.SubjectID != in.SubjectID || string(prior.Mode) != in.Mode ||
		!prior.StartAt.Equal(storedTime(in.StartAt)) || !prior.EndAt.Equal(storedTime(in.EndAt)) {
		return nil, domain.Conflict("idempotencyKey was already used for a different booking")
	}
	if prior.HoldLapsed(now) || (prior.Status == domain.StatusCancelled && prior.CancelledBy == nil) {
		return nil, domain.Conflict("hold for this idempotencyKey has expired")
	}
	return prior, nil
}

// Confirm captures payment and moves a pending booking to confirmed.
// Re-confirming with the same payment reference is a no-op success.
// The capture runs outside the store lock and is keyed by
// payment.CaptureKey; the provider replays it for a retry.
func (s *BookingService) Confirm(ctx context.Context, actor domain.Actor, bookingID, paymentRef string) (*domain.Booking, error) {
	paymentRef = strings.TrimSpace(paymentRef)
	if paymentRef == "" {
		return nil, domain.Validation("paymentMethodId is required")
	}
	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !canConfirm(actor, b) {
		return nil, domain.Forbidden("only the booking student or an admin may confirm")
	}
	startedAt := s.now()
	if b.HoldLapsed(startedAt) {
		s.expire(ctx, b.ID)
		return nil, domain.Conflict("hold has expired")
	}
	done, err := confirmable(b, paymentRef)
	if err != nil {
		return nil, err
	}
	if done {
		return b, nil
	}
	tutor, err := s.store.Tutors.ByID(ctx, b.TutorID)
	if err != nil {
		return nil, err
	}

	var chargeID *string
	if amount := sessionAmount(tutor.Rate(), b.Duration()); amount > 0 {
		pctx, cancel := context.WithTimeout(ctx, s.cfg.PaymentTimeout)
		charge, err := s.payments.Charge(pctx, payment.ChargeRequest{
			BookingID:       b.ID,
			Amount:          amount,
			Currency:        s.cfg.Currency,
			PaymentMethodID: paymentRef,
			IdempotencyKey:  payment.CaptureKey(b.ID, paymentRef),
		})
		cancel()
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"booking_id": b.ID,
				"amount":     amount,
				"error":      err.Error(),
			}).Error("Payment capture failed")
			return nil, domain.PaymentFailed(err, "payment could not be captured")
		}
		chargeID = &charge.ID
	}

	noop := false
	confirmed, err := s.store.Bookings.Update(ctx, b.ID, func(b *domain.Booking) error {
		// The hold is judged at capture start; a capture that began on a live hold completes
		if b.HoldLapsed(startedAt) {
			return domain.Conflict("hold has expired")
		}
		done, err := confirmable(b, paymentRef)
		if err != nil {
			return err
		}
		if done {
			noop = true
			return nil
		}
		b.ChargeID = chargeID
		b.Status = domain.StatusConfirmed
		b.PaymentReference = &paymentRef
		return nil
	})
	if err != nil {
		if chargeID != nil {
			logrus.WithFields(logrus.Fields{
				"booking_id": b.ID,
				"charge_id":  *chargeID,
				"error":      err.Error(),
			}).Error("Captured payment for a booking that could not be confirmed")
		}
		return nil, err
	}
	if !noop {
		s.publish(ctx, events.BookingConfirmed, confirmed)
		logBooking(confirmed, actor).Info("Booking confirmed")
	}
	return confirmed, nil
}

// confirmable reports whether b may be confirmed with paymentRef. done is
// set when b is already confirmed with that same reference.
func confirmable(b *domain.Booking, paymentRef string) (done bool, err error) {
	switch b.Status {
	case domain.StatusPending:
		return false, nil
	case domain.StatusConfirmed:
		if b.PaymentReference != nil && *b.PaymentReference == paymentRef {
			return true, nil
		}
		return false, domain.Conflict("booking is already confirmed with a different payment reference")
	default:
		return false, domain.Conflict("booking is %s and cannot be confirmed", b.Status)
	}
}

// Cancel moves a pending or confirmed booking to cancelled, releasing its interval
func (s *BookingService) Cancel(ctx context.Context, actor domain.Actor, bookingID string) (*domain.Booking, error) {
	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	tutorUserID, err := s.tutorUserID(ctx, b)
	if err != nil {
		return nil, err
	}
	if !canCancel(actor, b, tutorUserID) {
		return nil, domain.Forbidden("only the student, the tutor, or an admin may cancel")
	}
	cancelled, err := s.store.Bookings.Update(ctx, b.ID, func(b *domain.Booking) error {
		if b.Status.Terminal() {
			return domain.Conflict("booking is %s and cannot be cancelled", b.Status)
		}
		b.Status = domain.StatusCancelled
		b.CancelledBy = &actor.UserID
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.BookingCancelled, cancelled)
	logBooking(cancelled, actor).Info("Booking cancelled")
	return cancelled, nil
}

// Complete marks a confirmed session as held once its end time has passed
func (s *BookingService) Complete(ctx context.Context, actor domain.Actor, bookingID string) (*domain.Booking, error) {
	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	tutorUserID, err := s.tutorUserID(ctx, b)
	if err != nil {
		return nil, err
	}
	if !canComplete(actor, tutorUserID) {
		return nil, domain.Forbidden("only the tutor or an admin may complete a booking")
	}
	completed, err := s.store.Bookings.Update(ctx, b.ID, func(b *domain.Booking) error {
		if !b.Status.CanTransition(domain.StatusCompleted) {
			return domain.Conflict("booking is %s and cannot be completed", b.Status)
		}
		if s.now().Before(b.EndAt) {
			return domain.Conflict("session has not ended yet")
		}
		b.Status = domain.StatusCompleted
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.BookingCompleted, completed)
	logBooking(completed, actor).Info("Booking completed")
	return completed, nil
}

// GetByID returns a booking to one of its participants
func (s *BookingService) GetByID(ctx context.Context, actor domain.Actor, bookingID string) (*domain.Booking, error) {
	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	tutorUserID, err := s.tutorUserID(ctx, b)
	if err != nil {
		return nil, err
	}
	if !canView(actor, b, tutorUserID) {
		return nil, domain.Forbidden("not a participant of this booking")
	}
	if b.HoldLapsed(s.now()) {
		if expired := s.expire(ctx, b.ID); expired != nil {
			b = expired
		}
	}
	return b, nil
}

// BookingPage is one page of a booking listing
type BookingPage struct {
	Bookings   []domain.Booking `json:"bookings"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	Total      int64            `json:"total"`
	TotalPages int              `json:"total_pages"`
}

// Listing bounds
const (
	MaxPage     = 100000
	MaxPageSize = 100
)

// ListForActor lists the caller's bookings; admins see every booking
func (s *BookingService) ListForActor(ctx context.Context, actor domain.Actor, page, pageSize int) (*BookingPage, error) {
	if page < 1 || page > MaxPage {
		return nil, domain.Validation("page must be between 1 and %d", MaxPage)
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		return nil, domain.Validation("page_size must be between 1 and %d", MaxPageSize)
	}
	var f repository.BookingFilter
	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleStudent, domain.RoleParent:
		f.StudentID = actor.UserID
	case domain.RoleTutor:
		p, err := s.store.Tutors.ByUserID(ctx, actor.UserID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return &BookingPage{Bookings: []domain.Booking{}, Page: page, PageSize: pageSize}, nil
			}
			return nil, err
		}
		f.TutorID = p.ID
	}
	items, total, err := s.store.Bookings.List(ctx, f, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return &BookingPage{
		Bookings:   items,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: (int(total) + pageSize - 1) / pageSize,
	}, nil
}

// ExpireHolds cancels every lapsed hold and reports how many were released
func (s *BookingService) ExpireHolds(ctx context.Context) (int64, error) {
	n, err := s.store.Bookings.ExpireHolds(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("expire holds: %w", err)
	}
	return n, nil
}

// expire cancels one booking if its hold is still lapsed; failures are only logged
func (s *BookingService) expire(ctx context.Context, id string) *domain.Booking {
	b, err := s.store.Bookings.Update(ctx, id, func(b *domain.Booking) error {
		if !b.HoldLapsed(s.now()) {
			return errNotLapsed
		}
		b.Status = domain.StatusCancelled
		return nil
	})
	if err != nil {
		if !errors.Is(err, errNotLapsed) {
			logrus.WithFields(logrus.Fields{"booking_id": id, "error": err.Error()}).Warn("Hold expiry failed")
		}
		return nil
	}
	s.publish(ctx, events.BookingExpired, b)
	return b
}

var errNotLapsed = errors.New("hold not lapsed")

func (s *BookingService) load(ctx context.Context, id string) (*domain.Booking, error) {
	if err := checkID("bookingId", id); err != nil {
		return nil, domain.NotFound("booking %s not found", id)
	}
	return s.store.Bookings.ByID(ctx, id)
}

// tutorUserID resolves the user that owns the booking's tutor profile
func (s *BookingService) tutorUserID(ctx context.Context, b *domain.Booking) (string, error) {
	p, err := s.store.Tutors.ByID(ctx, b.TutorID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return p.UserID, nil
}

func (s *BookingService) publish(ctx context.Context, key string, b *domain.Booking) {
	err := s.events.PublishJSON(ctx, key, map[string]any{
		"booking_id": b.ID,
		"student_id": b.StudentID,
		"tutor_id":   b.TutorID,
		"status":     b.Status,
		"start":      b.StartAt.Unix(),
		"end":        b.EndAt.Unix(),
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{"booking_id": b.ID, "event": key, "error": err.Error()}).Warn("Event publish failed")
	}
}

func newBooking(in BookingInput, mode domain.BookingMode) *domain.Booking {
	return &domain.Booking{
		StudentID: in.StudentID,
		TutorID:   in.TutorID,
		SubjectID: in.SubjectID,
		Mode:      mode,
		StartAt:   storedTime(in.StartAt),
		EndAt:     storedTime(in.EndAt),
		Status:    domain.StatusPending,
	}
}

// storedTime normalizes to what Postgres timestamptz keeps: UTC, microseconds
func storedTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// sessionAmount prices a session in minor units
func sessionAmount(hourlyRate float64, d time.Duration) int64 {
	return int64(math.Round(hourlyRate * d.Hours() * 100))
}

func logBooking(b *domain.Booking, actor domain.Actor) *logrus.Entry {
	return logrus.WithFields(logrus.Fields{
		"booking_id": b.ID,
		"tutor_id":   b.TutorID,
		"student_id": b.StudentID,
		"status":     b.Status,
		"actor_id":   actor.UserID,
	})
}
