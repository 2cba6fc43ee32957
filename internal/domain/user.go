package domain

import "time"

// Role is the caller's role in the marketplace
type Role string

const (
	RoleStudent Role = "student"
	RoleParent  Role = "parent"
	RoleTutor   Role = "tutor"
	RoleAdmin   Role = "admin"
)

// ParseRole converts a raw string into a known Role
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleStudent, RoleParent, RoleTutor, RoleAdmin:
		return r, true
	}
	return "", false
}

// CanSelfRegister reports whether the role may be chosen at registration
func (r Role) CanSelfRegister() bool {
	switch r {
	case RoleStudent, RoleParent, RoleTutor:
		return true
	case RoleAdmin:
		return false
	}
	return false
}

// CanBook reports whether a user of this role may be the student on a booking
func (r Role) CanBook() bool {
	switch r {
	case RoleStudent, RoleParent:
		return true
	case RoleTutor, RoleAdmin:
		return false
	}
	return false
}

// User Model
type User struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`         // Primary key
	Name         string    `gorm:"not null" json:"name"`                   // Display name
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`      // Unique, lowercase
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"` // bcrypt hash, never serialized
	Role         Role      `gorm:"type:varchar(16);not null" json:"role"`  // student, parent, tutor or admin
	CreatedAt    time.Time `json:"createdAt"`                              // Creation time
	UpdatedAt    time.Time `json:"updatedAt"`                              // Last update time
}

// PublicUser is the projection of a user returned to clients
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Public strips credentials from the user
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// Actor is the authenticated caller as resolved from a verified token
type Actor struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the actor holds the admin role
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
