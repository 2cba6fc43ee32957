package repository

import (
	"context" // Request-scoped cancellation
	"sort"    // Ordering
	"strings" // String manipulation
	"sync"    // Mutex
	"time"    // Time handling

	"tutor_market/internal/domain" // Domain types

	"github.com/google/uuid" // UUID generation
)

// memory is a process-local store used when no database is reachable and in tests.
// One mutex serializes every operation, which makes CreateIfFree atomic.
type memory struct {
	mu       sync.Mutex
	users    map[string]domain.User
	subjects map[string]domain.Subject
	tutors   map[string]domain.TutorProfile // Subjects field left empty, see tags
	tags     map[string]map[string]bool     // tutor id -> subject ids
	bookings map[string]domain.Booking
	now      func() time.Time
}

// NewMemoryStore builds an empty in-memory Store
func NewMemoryStore() *Store {
	m := &memory{
		users:    map[string]domain.User{},
		subjects: map[string]domain.Subject{},
		tutors:   map[string]domain.TutorProfile{},
		tags:     map[string]map[string]bool{},
		bookings: map[string]domain.Booking{},
		now:      time.Now,
	}
	return &Store{
		Users:    (*memUsers)(m),
		Subjects: (*memSubjects)(m),
		Tutors:   (*memTutors)(m),
		Bookings: (*memBookings)(m),
		Backend:  "memory",
	}
}

// stamp sets timestamps the way gorm autoCreateTime/autoUpdateTime would
func (m *memory) stamp(created, updated *time.Time) {
	t := m.now().UTC()
	if created.IsZero() {
		*created = t
	}
	*updated = t
}

type memUsers memory

func (r *memUsers) Create(_ context.Context, u *domain.User) error {
	m := (*memory)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	u.Email = strings.ToLower(u.Email)
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrDuplicateEmail
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	m.stamp(&u.CreatedAt, &u.UpdatedAt)
	m.users[u.ID] = *u
	return nil
}

func (r *memUsers) ByID(_ context.Context, id string) (*domain.User, error) {
	m := (*memory)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.NotFound("user %s not found", id)
	}
	return &u, nil
}

func (r *memUsers) ByEmail(_ context.Context, email string) (*domain.User, error) {
	m := (*memory)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(email)
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.NotFound("user %s not found", email)
}

func (r *memUsers) UpdateRole(_ context.Context, id string, role domain.Role) (*domain.User, error) {
	m := (*memory)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.NotFound("user %s not found", id)
	}
	u.Role = role
	m.stamp(&u.CreatedAt, &u.UpdatedAt)
	m.users[id] = u
	return &u, nil
}

type memSubjects memory

func (r *memSubjects) List(_ context.Context) ([]domain.Subject, error) {
	m := (*memory)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Subject, 0, len(m.subjects))
	for _, s := range m.subjects {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memSubjects) ByID(_ context.Context, id string) (*domain.Subject, error) {
	m := (*memory)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subjects[id]
	if !ok {
		return nil, domain.NotFound("subject %s not found", id)
	}
	return &s, nil
}

func (r *memSubjects) FindOrCreate(_ context.Context, name string) (*domain.Subject, error) {
	m := (*memory)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subjects {
		if s.Name == name {
			return &s, nil
		}
	}
	s := domain.Subject{ID: uuid.NewString(), Name: name}
	m.subjects[s.ID] = s
	return &s, nil
}

type memTutors memory

// hydrate fills the Subjects of a stored profile; caller holds the lock
func (m *memory) hydrate(p domain.TutorProfile) domain.TutorProfile {
	p.Subjects = []domain.Subject{}
	for sid := range m.tags[p.ID] {
		if s, ok := m.subjects[sid]; ok {
			p.Subjects = append(p.Subjects, s)
		}
	}
	sort.Slice(p.Subjects, func(i, j int) bool { return p.Subjects[i].Name < p.Subjects[j].Name })
	return p
}

func (r *memTutors) Create(_ context.Context, p *domain.TutorProfile) error {
	m := (*memory)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.tutors {
		if existing.UserID == p.UserID {
			return ErrProfileExists
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	m.stamp(&p.CreatedAt, &p.UpdatedAt)
	tags := map[string]bool{}
	for _, s := range p.Subjects {
		tags[s.ID] = true
	}
	stored := *p
	stored.Subjects = nil
	m.tutors[p.ID] = stored
	m.tags[p.ID] = tags
	return nil
}

func (r *memTutors) ByID(_ context.Context, id string) (*domain.TutorProfile, error) {
	m := (*memory)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.tutors[id]
	if !ok {
		return nil, domain.NotFound("tutor %s not found", id)
	}
	p = m.hydrate(p)
	return &p, nil
}

func (r *memTutors) ByUserID(_ context.Context, userID string) (*domain.TutorProfile, error) {
	m := (*memory)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.tutors {
		if p.UserID == userID {
			p = m.hydrate(p)
			return &p, nil
		}
	}
	return nil, domain.NotFound("tutor profile for user %s not found", userID)
}

func (r *memTutors) ListByStatus(_ context.Context, status domain.ApprovalStatus) ([]domain.TutorProfile, error) {
	m := (*memory)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.TutorProfile{}
	for _, p := range m.tutors {
		if p.ApprovalStatus == status {
			out = append(out, m.hydrate(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *memTutors) SetStatus(_ context.Context, id string, status domain.ApprovalStatus) (*domain.TutorProfile, error) {
	m := (*memory)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.tutors[id]
	if !ok {
		return nil, domain.NotFound("tutor %s not found", id)
	}
	p.ApprovalStatus = status
	m.stamp(&p.CreatedAt, &p.UpdatedAt)
	m.tutors[id] = p
	p = m.hydrate(p)
	return &p, nil
}

func (r *memTutors) AddSubjects(_ context.Context, id string, subjectIDs []string) error {
	m := (*memory)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tutors[id]; !ok {
		return domain.NotFound("tutor %s not found", id)
	}
	for _, sid := range subjectIDs {
		m.tags[id][sid] = true
	}
	return nil
}

type memBookings memory

func (r *memBookings) CreateIfFree(_ context.Context, b *domain.Booking, now time.Time) error {
	m := (*memory)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tutors[b.TutorID]; !ok {
		return domain.NotFound("tutor %s not found", b.TutorID)
	}
	if b.IdempotencyKey != nil {
		for _, existing := range m.bookings {
			if existing.StudentID == b.StudentID && existing.IdempotencyKey != nil && *existing.IdempotencyKey == *b.IdempotencyKey {
				return ErrDuplicateKey
			}
		}
	}
	for id, existing := range m.bookings {
		if existing.TutorID != b.TutorID || !existing.Overlaps(b.StartAt, b.EndAt) {
			continue
		}
		if existing.HoldLapsed(now) {
			existing.Status = domain.StatusCancelled
			existing.UpdatedAt = now
			m.bookings[id] = existing
			continue
		}
		if existing.Blocks(now) {
			return ErrSlotTaken
		}
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	m.stamp(&b.CreatedAt, &b.UpdatedAt)
	m.bookings[b.ID] = *b
	return nil
}

func (r *memBookings) ByID(_ context.Context, id string) (*domain.Booking, error) {
	m := (*memory)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, domain.NotFound("booking %s not found", id)
	}
	return &b, nil
}

func (r *memBookings) ByIdempotencyKey(_ context.Context, studentID, key string) (*domain.Booking, error) {
	m := (*memory)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.StudentID == studentID && b.IdempotencyKey != nil && *b.IdempotencyKey == key {
			return &b, nil
		}
	}
	return nil, domain.NotFound("booking with idempotency key %s not found", key)
}

func (r *memBookings) Update(_ context.Context, id string, fn func(b *domain.Booking) error) (*domain.Booking, error) {
	m := (*memory)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, domain.NotFound("booking %s not found", id)
	}
	if err := fn(&b); err != nil {
		return nil, err
	}
	m.stamp(&b.CreatedAt, &b.UpdatedAt)
	m.bookings[id] = b
	return &b, nil
}

func (r *memBookings) List(_ context.Context, f BookingFilter, page, pageSize int) ([]domain.Booking, int64, error) {
	m := (*memory)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	all := []domain.Booking{}
	for _, b := range m.bookings {
		match := f.StudentID == "" && f.TutorID == ""
		if f.StudentID != "" && b.StudentID == f.StudentID {
			match = true
		}
		if f.TutorID != "" && b.TutorID == f.TutorID {
			match = true
		}
		if match {
			all = append(all, b)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].StartAt.Equal(all[j].StartAt) {
			return all[i].StartAt.Before(all[j].StartAt)
		}
		return all[i].ID < all[j].ID
	})
	total := int64(len(all))
	from := (page - 1) * pageSize
	if page < 1 || pageSize < 1 || from < 0 || from >= len(all) {
		return []domain.Booking{}, total, nil
	}
	to := min(from+pageSize, len(all))
	return all[from:to], total, nil
}

func (r *memBookings) ExpireHolds(_ context.Context, now time.Time) (int64, error) {
	m := (*memory)(r)
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, b := range m.bookings {
		if b.HoldLapsed(now) {
			b.Status = domain.StatusCancelled
			b.UpdatedAt = now
			m.bookings[id] = b
			n++
		}
	}
	return n, nil
}
