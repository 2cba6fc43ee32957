package service

import "tutor_market/internal/domain"

// Authorization rules per operation; each switch covers every Role.

func requireAdmin(a domain.Actor) error {
	if !a.IsAdmin() {
		return domain.Forbidden("admin access required")
	}
	return nil
}

// canBookFor reports whether a may create or hold a booking as studentID
func canBookFor(a domain.Actor, studentID string) bool {
	switch a.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleStudent, domain.RoleParent:
		return a.UserID == studentID
	case domain.RoleTutor:
		return false
	}
	return false
}

// canView reports whether a participates in b; tutorUserID owns b's tutor profile
func canView(a domain.Actor, b *domain.Booking, tutorUserID string) bool {
	switch a.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleStudent, domain.RoleParent:
		return a.UserID == b.StudentID
	case domain.RoleTutor:
		return a.UserID == tutorUserID
	}
	return false
}

// canCancel mirrors canView: the student, the assigned tutor, or an admin
func canCancel(a domain.Actor, b *domain.Booking, tutorUserID string) bool {
	return canView(a, b, tutorUserID)
}

// canConfirm allows the paying student or an admin
func canConfirm(a domain.Actor, b *domain.Booking) bool {
	switch a.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleStudent, domain.RoleParent:
		return a.UserID == b.StudentID
	case domain.RoleTutor:
		return false
	}
	return false
}

// canComplete allows the assigned tutor or an admin
func canComplete(a domain.Actor, tutorUserID string) bool {
	switch a.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleTutor:
		return a.UserID == tutorUserID
	case domain.RoleStudent, domain.RoleParent:
		return false
	}
	return false
}
