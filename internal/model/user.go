package model

import "strings"

// Role name constants. Roles are seeded once and referenced, never
// created by normal flow.
const (
	RoleAdmin   = "ADMIN"
	RoleDentist = "DENTIST"
	RolePatient = "PATIENT"
)

// RoleHolder is the capability every identity shape exposes: "does this
// identity hold role R". Token claims implement it over a scalar role
// field, accounts over a role collection; the authorization layer never
// needs to know which it is looking at.
type RoleHolder interface {
	HasRole(name string) bool
}

// Role represents a fixed permission group
type Role struct {
	Base
	Name string `db:"name" json:"name"`
}

// User represents an account: unique username and email, a password
// digest, and a set of roles. The first-assigned role acts as primary
// where a single role is required (token issuance).
type User struct {
	Base
	Username     string `db:"username" json:"username"`
	Email        string `db:"email" json:"email"`
	PasswordHash string `db:"password_hash" json:"-"`
	Enabled      bool   `db:"enabled" json:"enabled"`
	Roles        []Role `db:"-" json:"roles,omitempty"`
}

// HasRole reports whether the account holds the named role,
// case-insensitively.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if strings.EqualFold(r.Name, name) {
			return true
		}
	}
	return false
}

// PrimaryRole returns the first-assigned role name, or "" for an account
// with no roles.
func (u *User) PrimaryRole() string {
	if len(u.Roles) == 0 {
		return ""
	}
	return u.Roles[0].Name
}

// RoleNames returns the account's role names in assignment order.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// CreateUserRequest represents admin-side user creation parameters
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required,oneof=ADMIN DENTIST PATIENT"`
}

// UpdateUserRequest represents user update parameters
type UpdateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=8"`
	Enabled  *bool   `json:"enabled"`
}

// UpdateUserRolesRequest replaces an account's role set.
type UpdateUserRolesRequest struct {
	Roles []string `json:"roles" binding:"required,min=1,dive,oneof=ADMIN DENTIST PATIENT"`
}
