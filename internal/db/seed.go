package db

import (
	"context" // Request-scoped cancellation
	"errors"  // Error handling
	"fmt"     // Error wrapping

	"tutor_market/internal/domain"     // Domain types
	"tutor_market/internal/repository" // Stores

	"github.com/sirupsen/logrus" // Logrus for structured logging
	"golang.org/x/crypto/bcrypt" // Password hashing
)

// Sample tutor loaded by Seed
const (
	SampleTutorEmail    = "tutor@example.com"
	SampleTutorPassword = "secret123"
	sampleTutorRate     = 50.0
)

// SeedSubjects is the reference subject catalogue
var SeedSubjects = []string{"Math", "English"}

// SeedOptions adds an optional admin account to the sample data
type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
}

// Seed loads reference subjects and an approved sample tutor. It is safe to
// run repeatedly; an existing sample profile keeps whatever approval status
// an admin gave it.
func Seed(ctx context.Context, store *repository.Store, opts SeedOptions) error {
	subjectIDs := make([]string, 0, len(SeedSubjects))
	for _, name := range SeedSubjects {
		s, err := store.Subjects.FindOrCreate(ctx, name)
		if err != nil {
			return fmt.Errorf("seed subject %s: %w", name, err)
		}
		subjectIDs = append(subjectIDs, s.ID)
	}

	tutor, err := ensureUser(ctx, store, "Sample Tutor", SampleTutorEmail, SampleTutorPassword, domain.RoleTutor)
	if err != nil {
		return err
	}
	created := false
	profile, err := store.Tutors.ByUserID(ctx, tutor.ID)
	if errors.Is(err, domain.ErrNotFound) {
		created = true
		bio := "Experienced tutor for Math and English"
		rate := sampleTutorRate
		profile = &domain.TutorProfile{UserID: tutor.ID, Bio: &bio, HourlyRate: &rate, ApprovalStatus: domain.ApprovalPending}
		err = store.Tutors.Create(ctx, profile)
	}
	if err != nil {
		return fmt.Errorf("seed tutor profile: %w", err)
	}
	if err := store.Tutors.AddSubjects(ctx, profile.ID, subjectIDs); err != nil {
		return fmt.Errorf("seed tutor subjects: %w", err)
	}
	if created {
		if _, err := store.Tutors.SetStatus(ctx, profile.ID, domain.ApprovalApproved); err != nil {
			return fmt.Errorf("approve sample tutor: %w", err)
		}
	}

	if opts.AdminEmail != "" && opts.AdminPassword != "" {
		if _, err := ensureUser(ctx, store, "Administrator", opts.AdminEmail, opts.AdminPassword, domain.RoleAdmin); err != nil {
			return err
		}
	}
	logrus.WithFields(logrus.Fields{
		"subjects": len(subjectIDs),
		"tutor_id": profile.ID,
		"backend":  store.Backend,
	}).Info("Seed completed")
	return nil
}

func ensureUser(ctx context.Context, store *repository.Store, name, email, password string, role domain.Role) (*domain.User, error) {
	u, err := store.Users.ByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("lookup %s: %w", email, err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u = &domain.User{Name: name, Email: email, PasswordHash: string(hash), Role: role}
	if err := store.Users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("seed user %s: %w", email, err)
	}
	return u, nil
}
