// Package model defines the data structures shared by the dashboard client and
// the development backend.
//
// The `json:"..."` tags follow the backend's wire format (camelCase), and the
// `validate:"..."` tags are checked by the API client before a decoded payload
// is handed to callers.
package model

import "time"

// Role is the authorization role of an account.
type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleModerator:
		return true
	}
	return false
}

// User is the canonical account record owned by the backend.
//
// WHY NO PASSWORD FIELD?
// The backend never serialises credentials. Clients hold at most a transient
// copy of this record per view, and nothing here is worth persisting.
type User struct {
	UID            string    `json:"uid"                   validate:"required"`
	Email          string    `json:"email"                 validate:"required"`
	DisplayName    string    `json:"displayName,omitempty"`
	PhoneNumber    string    `json:"phoneNumber,omitempty"`
	Role           Role      `json:"role"                  validate:"required,oneof=user admin moderator"`
	IsActive       bool      `json:"isActive"`
	CanAccessTodos bool      `json:"canAccessTodos"`
	IPAddress      string    `json:"ipAddress,omitempty"`
	CreatedAt      time.Time `json:"createdAt,omitzero"`
	UpdatedAt      time.Time `json:"updatedAt,omitzero"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// AuthData is returned by sign-in and sign-up.
type AuthData struct {
	UID         string `json:"uid"   validate:"required"`
	Token       string `json:"token" validate:"required"`
	Email       string `json:"email" validate:"required"`
	Role        Role   `json:"role"  validate:"required,oneof=user admin moderator"`
	DisplayName string `json:"displayName,omitempty"`
}

// RoleStatus is the body of the role endpoints.
type RoleStatus struct {
	Role     Role `json:"role"     validate:"required,oneof=user admin moderator"`
	IsActive bool `json:"isActive"`
}

// ProfileUpdate carries the fields a user may change about themselves.
type ProfileUpdate struct {
	DisplayName string `json:"displayName"`
	PhoneNumber string `json:"phoneNumber"`
}

// IPRecord is one entry of the sign-up address log shown to admins.
type IPRecord struct {
	ID        string    `json:"id"        validate:"required"`
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent,omitempty"`
	UserID    string    `json:"userId,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}
