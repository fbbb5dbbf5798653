package models

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

// Caller is the authenticated identity of a request. Identity lives in the external
// IdP; nothing here is persisted.
type Caller struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Email       string   `json:"email"`
	Role        UserRole `json:"role"`
}
