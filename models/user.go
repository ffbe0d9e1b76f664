package models

import (
	"time"
)

const (
	// RoleRegular ordinary account
	RoleRegular = "Regular"
	// RoleAdmin may manage categories, list everything and bulk-delete
	RoleAdmin = "Admin"
)

// User account
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:100;not null"`
	Password     string    `json:"-" gorm:"size:255;not null"`
	Role         string    `json:"role" gorm:"size:20;default:Regular;index"`
	RefreshToken *string   `json:"-" gorm:"size:512;index"` // nil after logout
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName table name
func (User) TableName() string {
	return "users"
}

// UserView is the public projection returned by the user endpoints.
type UserView struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// View projects the user for responses.
func (u User) View() UserView {
	return UserView{Username: u.Username, Email: u.Email, Role: u.Role}
}
