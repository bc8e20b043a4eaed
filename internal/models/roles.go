package models

const (
	RoleUser    = "ROLE_USER"
	RoleTeacher = "ROLE_TEACHER"
	RoleAdmin   = "ROLE_ADMIN"
)

// IsStaffRole reports whether the role may author content and run classrooms.
func IsStaffRole(role string) bool {
	return role == RoleTeacher || role == RoleAdmin
}
