package repository

import (
	"context" // Request-scoped cancellation
	"errors"  // Error handling
	"strings" // String manipulation
	"time"    // Time handling

	"tutor_market/internal/domain" // Domain types

	"github.com/google/uuid"         // UUID generation
	"github.com/jackc/pgx/v5/pgconn" // Postgres error codes
	"gorm.io/gorm"                   // GORM ORM
	"gorm.io/gorm/clause"            // Row locking
)

// Postgres SQLSTATE codes
const (
	codeUniqueViolation    = "23505"
	codeExclusionViolation = "23P01"
)

// NewGormStore builds a Store backed by a gorm connection
func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Users:    &userRepo{db: db},
		Subjects: &subjectRepo{db: db},
		Tutors:   &tutorRepo{db: db},
		Bookings: &bookingRepo{db: db},
		Backend:  "postgres",
	}
}

// pgCode extracts the SQLSTATE from a driver error
func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func notFound(err error, what, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotFound("%s %s not found", what, id)
	}
	return err
}

type userRepo struct{ db *gorm.DB }

func (r *userRepo) Create(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = strings.ToLower(u.Email)
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if pgCode(err) == codeUniqueViolation {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *userRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "user", id)
	}
	return &u, nil
}

func (r *userRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&u).Error; err != nil {
		return nil, notFound(err, "user", email)
	}
	return &u, nil
}

func (r *userRepo) UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&u, "id = ?", id).Error; err != nil {
			return notFound(err, "user", id)
		}
		if err := tx.Model(&u).Update("role", role).Error; err != nil {
			return err
		}
		u.Role = role
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

type subjectRepo struct{ db *gorm.DB }

func (r *subjectRepo) List(ctx context.Context) ([]domain.Subject, error) {
	var out []domain.Subject
	if err := r.db.WithContext(ctx).Order("name asc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *subjectRepo) ByID(ctx context.Context, id string) (*domain.Subject, error) {
	var s domain.Subject
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "subject", id)
	}
	return &s, nil
}

func (r *subjectRepo) FindOrCreate(ctx context.Context, name string) (*domain.Subject, error) {
	s := domain.Subject{ID: uuid.NewString(), Name: name}
	if err := r.db.WithContext(ctx).Where(domain.Subject{Name: name}).FirstOrCreate(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

type tutorRepo struct{ db *gorm.DB }

func (r *tutorRepo) Create(ctx context.Context, p *domain.TutorProfile) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&domain.TutorProfile{}).Where("user_id = ?", p.UserID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrProfileExists
		}
		// Subjects are reference data; only the join rows are written
		return tx.Omit("Subjects.*").Create(p).Error
	})
	if pgCode(err) == codeUniqueViolation {
		return ErrProfileExists
	}
	return err
}

func (r *tutorRepo) ByID(ctx context.Context, id string) (*domain.TutorProfile, error) {
	var p domain.TutorProfile
	if err := r.db.WithContext(ctx).Preload("Subjects").First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "tutor", id)
	}
	return &p, nil
}

func (r *tutorRepo) ByUserID(ctx context.Context, userID string) (*domain.TutorProfile, error) {
	var p domain.TutorProfile
	if err := r.db.WithContext(ctx).Preload("Subjects").First(&p, "user_id = ?", userID).Error; err != nil {
		return nil, notFound(err, "tutor profile for user", userID)
	}
	return &p, nil
}

func (r *tutorRepo) ListByStatus(ctx context.Context, status domain.ApprovalStatus) ([]domain.TutorProfile, error) {
	var out []domain.TutorProfile
	err := r.db.WithContext(ctx).
		Preload("Subjects").
		Where("approval_status = ?", status).
		Order("created_at asc, id asc").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *tutorRepo) SetStatus(ctx context.Context, id string, status domain.ApprovalStatus) (*domain.TutorProfile, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p domain.TutorProfile
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", id).Error; err != nil {
			return notFound(err, "tutor", id)
		}
		return tx.Model(&p).Update("approval_status", status).Error
	})
	if err != nil {
		return nil, err
	}
	return r.ByID(ctx, id)
}

func (r *tutorRepo) AddSubjects(ctx context.Context, id string, subjectIDs []string) error {
	if len(subjectIDs) == 0 {
		return nil
	}
	rows := make([]domain.TutorSubject, 0, len(subjectIDs))
	for _, sid := range subjectIDs {
		rows = append(rows, domain.TutorSubject{TutorProfileID: id, SubjectID: sid})
	}
	// Existing pairs are left untouched
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

type bookingRepo struct{ db *gorm.DB }

// overlapping scopes a query to bookings of tutorID intersecting [start, end)
func overlapping(tutorID string, start, end time.Time) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		return q.Where("tutor_id = ?", tutorID).Where("start_at < ? AND end_at > ?", end, start)
	}
}

func (r *bookingRepo) CreateIfFree(ctx context.Context, b *domain.Booking, now time.Time) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Locking the profile row serializes booking writes per tutor
		var p domain.TutorProfile
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&p, "id = ?", b.TutorID).Error; err != nil {
			return notFound(err, "tutor", b.TutorID)
		}
		if err := tx.Model(&domain.Booking{}).
			Scopes(overlapping(b.TutorID, b.StartAt, b.EndAt)).
			Where("status = ? AND hold_expires_at <= ?", domain.StatusPending, now).
			Updates(map[string]any{"status": domain.StatusCancelled, "updated_at": now}).Error; err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&domain.Booking{}).
			Scopes(overlapping(b.TutorID, b.StartAt, b.EndAt)).
			Where("status <> ?", domain.StatusCancelled).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrSlotTaken
		}
		return tx.Create(b).Error
	})
	switch pgCode(err) {
	case codeExclusionViolation:
		return ErrSlotTaken
	case codeUniqueViolation:
		return ErrDuplicateKey
	}
	return err
}

func (r *bookingRepo) ByID(ctx context.Context, id string) (*domain.Booking, error) {
	var b domain.Booking
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "booking", id)
	}
	return &b, nil
}

func (r *bookingRepo) ByIdempotencyKey(ctx context.Context, studentID, key string) (*domain.Booking, error) {
	var b domain.Booking
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND idempotency_key = ?", studentID, key).
		First(&b).Error
	if err != nil {
		return nil, notFound(err, "booking with idempotency key", key)
	}
	return &b, nil
}

func (r *bookingRepo) Update(ctx context.Context, id string, fn func(b *domain.Booking) error) (*domain.Booking, error) {
	var b domain.Booking
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&b, "id = ?", id).Error; err != nil {
			return notFound(err, "booking", id)
		}
		if err := fn(&b); err != nil {
			return err // Rolls back
		}
		return tx.Save(&b).Error
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepo) List(ctx context.Context, f BookingFilter, page, pageSize int) ([]domain.Booking, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Booking{})
	switch {
	case f.StudentID != "" && f.TutorID != "":
		q = q.Where("student_id = ? OR tutor_id = ?", f.StudentID, f.TutorID)
	case f.StudentID != "":
		q = q.Where("student_id = ?", f.StudentID)
	case f.TutorID != "":
		q = q.Where("tutor_id = ?", f.TutorID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []domain.Booking
	err := q.Order("start_at asc, id asc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *bookingRepo) ExpireHolds(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.Booking{}).
		Where("status = ? AND hold_expires_at <= ?", domain.StatusPending, now).
		Updates(map[string]any{"status": domain.StatusCancelled, "updated_at": now})
	return res.RowsAffected, res.Error
}
