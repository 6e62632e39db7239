package domain

import "time"

// Roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User Model
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`                                                     // Primary key
	Name         string     `gorm:"size:120;not null" json:"name"`                                            // Display name
	Email        string     `gorm:"size:191;uniqueIndex;not null" json:"email"`                               // Unique, lower-cased email
	Phone        string     `gorm:"size:32" json:"phone"`                                                     // Optional phone number
	PasswordHash string     `gorm:"not null" json:"-"`                                                        // Bcrypt hash, never serialized
	Role         string     `gorm:"size:16;not null;default:user;check:role IN ('user','admin')" json:"role"` // Role: user or admin
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`                                   // False once deactivated by an admin
	CreatedAt    time.Time  `json:"created_at"`                                                               // Registration time
	LastLogin    *time.Time `json:"last_login"`                                                               // Set on every successful login

	Assessments []AssessmentResult `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"` // One-to-many relationship with results
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
