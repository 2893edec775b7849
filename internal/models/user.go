package models

import "time"

// Role represents the two access levels of the system.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleEmployee Role = "EMPLOYEE"
)

// Valid returns true when the role is a supported value.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

// EmployeeType distinguishes regular staff from outsourced staff.
// Outsourced staff have fully manual attendance marking.
type EmployeeType string

const (
	EmployeeRegular    EmployeeType = "REGULAR"
	EmployeeOutsourced EmployeeType = "OUTSOURCED"
)

// Valid returns true when the employee type is a supported value.
func (t EmployeeType) Valid() bool {
	return t == EmployeeRegular || t == EmployeeOutsourced
}

// ProtectedAdminID is the reserved system administrator account.
// It can never be deleted.
const ProtectedAdminID = "1"

// User represents an application user stored in the users table.
// Emails are stored lowercase and compared case-insensitively.
type User struct {
	ID           string       `db:"id" json:"id"`
	Name         string       `db:"name" json:"name"`
	Email        string       `db:"email" json:"email"`
	PasswordHash string       `db:"password_hash" json:"-"`
	Role         Role         `db:"role" json:"role"`
	EmployeeType EmployeeType `db:"employee_type" json:"employee_type"`
	Position     string       `db:"position" json:"position"`
	JoinDate     time.Time    `db:"join_date" json:"join_date"`
	Birthday     *time.Time   `db:"birthday" json:"birthday,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role         *Role
	EmployeeType *EmployeeType
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// UserPatch is a field-level patch for a user record. Nil fields are left
// untouched by the update.
type UserPatch struct {
	Name         *string       `json:"name,omitempty"`
	Email        *string       `json:"email,omitempty"`
	Role         *Role         `json:"role,omitempty"`
	EmployeeType *EmployeeType `json:"employee_type,omitempty"`
	Position     *string       `json:"position,omitempty"`
	JoinDate     *time.Time    `json:"join_date,omitempty"`
	Birthday     *time.Time    `json:"birthday,omitempty"`
}

// Empty reports whether the patch carries no changes.
func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Role == nil &&
		p.EmployeeType == nil && p.Position == nil && p.JoinDate == nil && p.Birthday == nil
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
