package domain

// Subject Model
type Subject struct {
	ID   string `gorm:"type:uuid;primaryKey" json:"id"`   // Primary key
	Name string `gorm:"uniqueIndex;not null" json:"name"` // Unique subject name
}

// TutorSubject joins tutor profiles and subjects; the composite key forbids duplicates
type TutorSubject struct {
	TutorProfileID string `gorm:"type:uuid;primaryKey"`
	SubjectID      string `gorm:"type:uuid;primaryKey"`
}
