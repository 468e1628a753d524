package models

import "time"

// Staff roles stored in users.role
const (
	RoleAdmin = "Admin"
	RoleGuide = "Guide"
)

// Staff account statuses stored in users.status
const (
	UserStatusActive   = "Active"
	UserStatusInactive = "Inactive"
)

// User is a staff account: administrator or guide
type User struct {
	ID            int64     `json:"userId" db:"user_id"`
	FirstName     string    `json:"firstName" db:"first_name"`
	LastName      string    `json:"lastName" db:"last_name"`
	Email         string    `json:"email" db:"email"`
	ContactNumber *string   `json:"contactNumber,omitempty" db:"contact_number"`
	Role          string    `json:"role" db:"role"`
	Status        string    `json:"status" db:"status"`
	PasswordHash  string    `json:"-" db:"password_hash"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

// FullName returns the display name of the user
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// IsActiveGuide reports whether the user can receive assignments
func (u *User) IsActiveGuide() bool {
	return u.Role == RoleGuide && u.Status == UserStatusActive
}

// LoginRequest is the staff login body
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest exchanges a refresh token for a new access token
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// LoginResponse carries issued staff tokens
type LoginResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt"`
	User         *User     `json:"user"`
}

// ChangePasswordRequest changes the authenticated user's password
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}
