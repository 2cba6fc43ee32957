package service

import (
	"context" // Request-scoped cancellation
	"fmt"     // Error wrapping
	"time"    // Time handling

	"tutor_market/internal/domain"     // Domain types
	"tutor_market/internal/repository" // Stores
	"tutor_market/internal/utils"      // Cache and JWT helpers

	"github.com/sirupsen/logrus" // Logrus for structured logging
)

const approvedTutorsKey = "tutors:approved"

// TutorService manages the tutor directory and its approval gate
type TutorService struct {
	store    *repository.Store
	cache    *utils.Cache
	cacheTTL time.Duration
}

// NewTutorService builds a TutorService; cache may be nil
func NewTutorService(store *repository.Store, cache *utils.Cache) *TutorService {
	return &TutorService{store: store, cache: cache, cacheTTL: 60 * time.Second}
}

// CreateProfileInput carries a new tutor profile
type CreateProfileInput struct {
	UserID     string
	Bio        *string
	HourlyRate *float64
	SubjectIDs []string
}

// CreateProfile creates a pending profile. The approval status is always
// server-assigned regardless of what the caller sent.
func (s *TutorService) CreateProfile(ctx context.Context, actor domain.Actor, in CreateProfileInput) (*domain.TutorProfile, error) {
	if err := checkID("userId", in.UserID); err != nil {
		return nil, err
	}
	if in.HourlyRate != nil && *in.HourlyRate < 0 {
		return nil, domain.Validation("hourlyRate must be nonnegative")
	}
	if !actor.IsAdmin() && actor.UserID != in.UserID {
		return nil, domain.Forbidden("cannot create a profile for another user")
	}
	u, err := s.store.Users.ByID(ctx, in.UserID)
	if err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			return nil, domain.Validation("userId does not reference an existing user")
		}
		return nil, err
	}
	if u.Role != domain.RoleTutor {
		return nil, domain.Validation("user must have the tutor role")
	}

	subjects := make([]domain.Subject, 0, len(in.SubjectIDs))
	seen := map[string]bool{}
	for _, sid := range in.SubjectIDs {
		if seen[sid] {
			continue
		}
		seen[sid] = true
		if err := checkID("subjectIds", sid); err != nil {
			return nil, err
		}
		sub, err := s.store.Subjects.ByID(ctx, sid)
		if err != nil {
			if domain.KindOf(err) == domain.KindNotFound {
				return nil, domain.Validation("subject %s does not exist", sid)
			}
			return nil, err
		}
		subjects = append(subjects, *sub)
	}

	p := &domain.TutorProfile{
		UserID:         in.UserID,
		Bio:            in.Bio,
		HourlyRate:     in.HourlyRate,
		ApprovalStatus: domain.ApprovalPending,
		Subjects:       subjects,
	}
	if err := s.store.Tutors.Create(ctx, p); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"tutor_id": p.ID,
		"user_id":  p.UserID,
		"subjects": len(subjects),
	}).Info("Tutor profile created")
	return s.store.Tutors.ByID(ctx, p.ID)
}

// ListApproved returns publicly listable profiles, read through the cache
func (s *TutorService) ListApproved(ctx context.Context) ([]domain.TutorProfile, error) {
	var cached []domain.TutorProfile
	if found, err := s.cache.Get(ctx, approvedTutorsKey, &cached); err == nil && found {
		return cached, nil
	} else if err != nil {
		logrus.WithError(err).Warn("Tutor cache read failed")
	}
	out, err := s.store.Tutors.ListByStatus(ctx, domain.ApprovalApproved)
	if err != nil {
		return nil, fmt.Errorf("list approved tutors: %w", err)
	}
	if err := s.cache.Set(ctx, approvedTutorsKey, out, s.cacheTTL); err != nil {
		logrus.WithError(err).Warn("Tutor cache write failed")
	}
	return out, nil
}

// GetByID returns a profile
func (s *TutorService) GetByID(ctx context.Context, id string) (*domain.TutorProfile, error) {
	if err := checkID("id", id); err != nil {
		return nil, domain.NotFound("tutor %s not found", id)
	}
	return s.store.Tutors.ByID(ctx, id)
}

// ListByStatus lets an admin review profiles in any approval state
func (s *TutorService) ListByStatus(ctx context.Context, actor domain.Actor, rawStatus string) ([]domain.TutorProfile, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	status, ok := domain.ParseApprovalStatus(rawStatus)
	if !ok {
		return nil, domain.Validation("status must be one of pending, approved, rejected")
	}
	return s.store.Tutors.ListByStatus(ctx, status)
}

// Approve makes a profile publicly listable
func (s *TutorService) Approve(ctx context.Context, actor domain.Actor, id string) (*domain.TutorProfile, error) {
	return s.setStatus(ctx, actor, id, domain.ApprovalApproved)
}

// Reject removes a profile from public listing
func (s *TutorService) Reject(ctx context.Context, actor domain.Actor, id string) (*domain.TutorProfile, error) {
	return s.setStatus(ctx, actor, id, domain.ApprovalRejected)
}

func (s *TutorService) setStatus(ctx context.Context, actor domain.Actor, id string, status domain.ApprovalStatus) (*domain.TutorProfile, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := checkID("id", id); err != nil {
		return nil, domain.NotFound("tutor %s not found", id)
	}
	p, err := s.store.Tutors.SetStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Delete(ctx, approvedTutorsKey); err != nil {
		logrus.WithError(err).Warn("Tutor cache invalidation failed")
	}
	logrus.WithFields(logrus.Fields{
		"tutor_id": p.ID,
		"status":   status,
		"admin_id": actor.UserID,
	}).Info("Tutor approval status changed")
	return p, nil
}

// ListSubjects returns the subject catalogue
func (s *TutorService) ListSubjects(ctx context.Context) ([]domain.Subject, error) {
	return s.store.Subjects.List(ctx)
}
