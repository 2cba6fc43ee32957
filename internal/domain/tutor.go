package domain

import "time"

// ApprovalStatus of a tutor profile
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// ParseApprovalStatus converts a raw string into a known ApprovalStatus
func ParseApprovalStatus(s string) (ApprovalStatus, bool) {
	switch a := ApprovalStatus(s); a {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return a, true
	}
	return "", false
}

// TutorProfile Model
type TutorProfile struct {
	ID             string         `gorm:"type:uuid;primaryKey" json:"id"`                        // Primary key
	UserID         string         `gorm:"type:uuid;uniqueIndex;not null" json:"userId"`          // Owning user, one profile per user
	Bio            *string        `gorm:"type:text" json:"bio"`                                  // Optional biography
	HourlyRate     *float64       `json:"hourlyRate"`                                            // Optional rate, nonnegative
	ApprovalStatus ApprovalStatus `gorm:"type:varchar(16);not null;index" json:"approvalStatus"` // Admin-controlled
	Subjects       []Subject      `gorm:"many2many:tutor_subjects" json:"subjects"`              // Taught subjects
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// Teaches reports whether the profile is tagged with the subject
func (p *TutorProfile) Teaches(subjectID string) bool {
	for _, s := range p.Subjects {
		if s.ID == subjectID {
			return true
		}
	}
	return false
}

// Rate returns the hourly rate, zero when unset
func (p *TutorProfile) Rate() float64 {
	if p.HourlyRate == nil {
		return 0
	}
	return *p.HourlyRate
}
