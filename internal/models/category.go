package models

import (
	"time"

	"gorm.io/gorm"
)

// EntryType classifies both categories and invoices as money in or money out.
type EntryType string

const (
	TypeIncome  EntryType = "income"
	TypeExpense EntryType = "expense"
)

// Valid reports whether t is one of the known entry types.
func (t EntryType) Valid() bool { return t == TypeIncome || t == TypeExpense }

// Category is a user-scoped income/expense taxonomy entry.
// (user_id, name, type) is unique: "Food" may exist once as expense and once as income.
type Category struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;uniqueIndex:idx_categories_user_name_type" json:"user_id"`
	Name      string         `gorm:"not null;uniqueIndex:idx_categories_user_name_type" json:"name"`
	Type      EntryType      `gorm:"not null;uniqueIndex:idx_categories_user_name_type" json:"type"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Category) GetUserID() uint { return c.UserID }
