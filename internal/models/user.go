package models

import (
	"time"

	"gorm.io/gorm"
)

// User & account activation models
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null" json:"name"`
	Email     string         `gorm:"unique;not null;index" json:"email"`
	Password  string         `gorm:"not null" json:"-"` // bcrypt hash
	Status    string         `gorm:"not null;default:'pending'" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

const (
	UserStatusPending = "pending"
	UserStatusActive  = "active"
)

func (u *User) GetUserID() uint { return u.ID }

// CanLogin reports whether the account finished activation.
func (u *User) CanLogin() bool { return u.Status == UserStatusActive }

// AccountActivation stores a hashed one-shot activation token.
type AccountActivation struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	TokenHash   string     `gorm:"unique;not null" json:"-"`
	ExpiresAt   time.Time  `gorm:"not null" json:"expires_at"`
	ActivatedAt *time.Time `json:"activated_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// Usable reports whether the token can still activate an account.
func (a *AccountActivation) Usable(now time.Time) bool {
	return a.ActivatedAt == nil && now.Before(a.ExpiresAt)
}
