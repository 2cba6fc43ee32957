package service

import (
	"context" // Request-scoped cancellation
	"errors"  // Error handling
	"fmt"     // Error wrapping
	"strings" // String manipulation
	"time"    // Time handling

	"tutor_market/internal/domain"     // Domain types
	"tutor_market/internal/repository" // Stores
	"tutor_market/internal/utils"      // Cache and JWT helpers

	"github.com/sirupsen/logrus" // Logrus for structured logging
	"golang.org/x/crypto/bcrypt" // Password hashing
)

// errInvalidCredentials is shared by every login failure so callers cannot tell them apart
var errInvalidCredentials = domain.Unauthenticated("invalid credentials")

// AuthService registers users and issues bearer tokens
type AuthService struct {
	users      repository.Users
	secret     string
	tokenTTL   time.Duration
	bcryptCost int
	dummyHash  []byte // compared against when the email is unknown
	now        func() time.Time
}

// AuthOption customizes an AuthService
type AuthOption func(*AuthService)

// WithBcryptCost overrides the hashing cost; tests use bcrypt.MinCost
func WithBcryptCost(cost int) AuthOption {
	return func(s *AuthService) { s.bcryptCost = cost }
}

// WithAuthClock overrides the time source
func WithAuthClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

// NewAuthService builds an AuthService
func NewAuthService(users repository.Users, secret string, tokenTTL time.Duration, opts ...AuthOption) (*AuthService, error) {
	s := &AuthService{
		users:      users,
		secret:     secret,
		tokenTTL:   tokenTTL,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}
	s.dummyHash = hash
	return s, nil
}

// RegisterInput carries a self-registration request
type RegisterInput struct {
	Name     string `validate:"required,max=200"`
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,min=6,max=72"` // bcrypt ignores bytes past 72
	Role     string `validate:"required"`
}

// Register creates an account and returns its public projection
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.PublicUser, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := checkStruct(in); err != nil {
		return nil, err
	}
	role, ok := domain.ParseRole(in.Role)
	if !ok || !role.CanSelfRegister() {
		return nil, domain.Validation("role must be one of student, parent, tutor")
	}

	if _, err := s.users.ByEmail(ctx, in.Email); err == nil {
		return nil, repository.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &domain.User{Name: in.Name, Email: in.Email, PasswordHash: string(hash), Role: role}
	// The store re-checks uniqueness, covering concurrent registrations
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"user_id": u.ID,
		"role":    u.Role,
	}).Info("User registered")
	pub := u.Public()
	return &pub, nil
}

// LoginResult is a freshly issued token with its user
type LoginResult struct {
	Token string            `json:"token"`
	User  domain.PublicUser `json:"user"`
}

// Login verifies credentials and issues a token
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.users.ByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("lookup email: %w", err)
		}
		// Spend the same bcrypt time as a real mismatch
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, errInvalidCredentials
	}
	token, err := utils.GenerateJWT(u.ID, string(u.Role), s.secret, s.tokenTTL, s.now())
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &LoginResult{Token: token, User: u.Public()}, nil
}

// Verify checks a bearer token and returns the actor it encodes.
// Claims are trusted without a store lookup, so role changes apply from the next login.
func (s *AuthService) Verify(token string) (domain.Actor, error) {
	claims, err := utils.ParseJWT(token, s.secret)
	if err != nil {
		return domain.Actor{}, domain.Unauthenticated("invalid or expired token")
	}
	role, ok := domain.ParseRole(claims.Role)
	if !ok {
		return domain.Actor{}, domain.Unauthenticated("invalid or expired token")
	}
	return domain.Actor{UserID: claims.Subject, Role: role}, nil
}

// ChangeRole lets an admin move a user to another role
func (s *AuthService) ChangeRole(ctx context.Context, actor domain.Actor, userID, rawRole string) (*domain.PublicUser, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := checkID("userId", userID); err != nil {
		return nil, err
	}
	role, ok := domain.ParseRole(rawRole)
	if !ok {
		return nil, domain.Validation("role must be one of student, parent, tutor, admin")
	}
	u, err := s.users.UpdateRole(ctx, userID, role)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"user_id":  u.ID,
		"role":     u.Role,
		"admin_id": actor.UserID,
	}).Info("User role changed")
	pub := u.Public()
	return &pub, nil
}
