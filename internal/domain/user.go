package domain

import (
	"strings"
	"time"
)

// UserRole distinguishes citizens from staff accounts.
type UserRole string

const (
	RoleCitizen           UserRole = "CITIZEN"
	RoleAdmin             UserRole = "ADMIN"
	RoleMunicipalityAdmin UserRole = "MUNICIPALITY_ADMIN"
)

// IsStaff reports whether the role may act on requests.
func (r UserRole) IsStaff() bool {
	return r == RoleAdmin || r == RoleMunicipalityAdmin
}

// User is the identity model for citizens and staff. Citizens are created
// implicitly on first submission; accounts are deactivated, never deleted.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	Phone        *string
	Role         UserRole
	PasswordHash *string
	Active       bool
	CreatedAt    time.Time
}

// FullName joins the name parts for display and notifications.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
