package models

import (
	"time"

	"gorm.io/gorm"
)

// Wallet is a money account. Balance is an accumulator in minor currency
// units, mutated only through the invoice pay/unpay protocol, never
// recomputed from invoice history.
type Wallet struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;uniqueIndex:idx_wallets_user_name" json:"user_id"`
	Name      string         `gorm:"not null;uniqueIndex:idx_wallets_user_name" json:"name"`
	Balance   int64          `gorm:"not null;default:0" json:"balance"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (w *Wallet) GetUserID() uint { return w.UserID }
