package models

// Role determines a profile's default landing destination and which
// gated routes it may reach.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
	RoleClient  Role = "client"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleStaff, RoleClient:
		return true
	}
	return false
}

// IsStaff reports whether the role belongs to the firm side of the console.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleManager || r == RoleStaff
}

// Profile is the durable record of an authenticated user, distinct from
// the transient session. Created by the auth service at sign-up and
// read-only everywhere else.
type Profile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
	// Avatar is a short display reference (initials), not an image.
	Avatar string `json:"avatar,omitempty"`
	// Created timestamp (ns)
	CreatedTS int64 `json:"created_ts,omitempty"`
}

// Credential pairs a profile with its password hash. Stored under the
// sign-in email, never returned over the API.
type Credential struct {
	ProfileID    string `json:"profile_id"`
	PasswordHash string `json:"password_hash"`
}
