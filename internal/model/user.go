package model

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	RolePatient          UserRole = "Patient"
	RoleDoctor           UserRole = "Doctor"
	RoleNursing          UserRole = "Nursing"
	RoleLab              UserRole = "Lab"
	RoleHospital         UserRole = "Hospital"
	RoleDoctorsAssistant UserRole = "DoctorsAssistant"
	RoleAdmin            UserRole = "Admin"
)

type User struct {
	Base
	PublicID   string     `db:"public_id" json:"public_id"`
	Email      string     `db:"email" json:"email"`
	Username   string     `db:"username" json:"username"`
	Name       *string    `db:"name" json:"name,omitempty"`
	DOB        *time.Time `db:"dob" json:"dob,omitempty"`
	BloodGroup *string    `db:"blood_group" json:"blood_group,omitempty"`
	Phone      *string    `db:"phone" json:"phone,omitempty"`
	Gender     *string    `db:"gender" json:"gender,omitempty"`
	Address    *string    `db:"address" json:"address,omitempty"`
	ProfilePic *string    `db:"profile_pic" json:"profile_pic,omitempty"`
	Role       UserRole   `db:"role" json:"role"`

	PasswordHash string `db:"password_hash" json:"-"`
}

func (u *User) IsProvider() bool {
	switch u.Role {
	case RoleDoctor, RoleNursing, RoleLab, RoleHospital, RoleDoctorsAssistant:
		return true
	}
	return false
}

type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateUserRequest struct {
	UserID     uuid.UUID `json:"user_id" binding:"required"`
	Name       *string   `json:"name" binding:"omitempty,max=100"`
	DOB        *string   `json:"dob"`
	BloodGroup *string   `json:"blood_group"`
	Phone      *string   `json:"phone" binding:"omitempty,max=20"`
	Gender     *string   `json:"gender" binding:"omitempty,oneof=Male Female Other"`
	Address    *string   `json:"address" binding:"omitempty,max=500"`
}

// TokenClaims are the validated contents of an access token.
type TokenClaims struct {
	UserID uuid.UUID
	Email  string
	Role   UserRole
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}
