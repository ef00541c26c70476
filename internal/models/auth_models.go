package models

import "time"

// Roles known to the back office.
const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
	RoleStaff      = "staff"
)

// User represents a back-office account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     *string   `json:"full_name,omitempty"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Caller is the authenticated identity passed explicitly into every core operation.
type Caller struct {
	UserID   int64
	Username string
	Role     string
}

// IsAdmin reports whether the caller has the admin role.
func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// CanManage reports whether the caller may perform supervisor-level actions.
func (c Caller) CanManage() bool {
	return c.Role == RoleAdmin || c.Role == RoleSupervisor
}
