package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// InvoiceStatus is derived from (paid_at, due_at, today) via ComputeStatus.
type InvoiceStatus string

const (
	StatusUnpaid  InvoiceStatus = "unpaid"
	StatusPaid    InvoiceStatus = "paid"
	StatusOverdue InvoiceStatus = "overdue"
)

// Period is the due-date step between members of an installment series.
type Period string

const (
	PeriodUnique  Period = "unique"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

// RepeatMonthly is the only supported recurrence declaration.
const RepeatMonthly = "monthly"

// Invoice is a single ledger entry (income or expense) with a due date and
// payment state. Amount is always positive in minor currency units; the sign
// of its balance effect is implied by Type.
//
// InvoiceOf links installment/recurring series members to their root entry
// (the root's own InvoiceOf is nil). Enrollments is the series size and
// EnrollmentsOf the 1-indexed position within it.
type Invoice struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UserID        uint           `gorm:"not null;index:idx_invoices_user_status,priority:1;index:idx_invoices_user_type,priority:1" json:"user_id"`
	WalletID      uint           `gorm:"not null" json:"wallet_id"`
	CategoryID    uint           `gorm:"not null" json:"category_id"`
	InvoiceOf     *uint          `gorm:"index" json:"invoice_of,omitempty"`
	Description   string         `json:"description"`
	Type          EntryType      `gorm:"not null;index:idx_invoices_user_type,priority:2" json:"type"`
	Amount        int64          `gorm:"not null" json:"amount"`
	Currency      string         `gorm:"not null;default:'BRL'" json:"currency"`
	DueAt         time.Time      `gorm:"not null;index" json:"due_at"`
	PaidAt        *time.Time     `json:"paid_at,omitempty"`
	RepeatWhen    *string        `json:"repeat_when,omitempty"`
	Period        Period         `gorm:"not null;default:'unique'" json:"period"`
	Enrollments   *int           `json:"enrollments,omitempty"`
	EnrollmentsOf *int           `json:"enrollments_of,omitempty"`
	Status        InvoiceStatus  `gorm:"not null;default:'unpaid';index:idx_invoices_user_status,priority:2" json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Wallet   Wallet   `gorm:"foreignKey:WalletID" json:"wallet,omitempty"`
	Category Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

func (i *Invoice) GetUserID() uint { return i.UserID }

// IsRoot reports whether this invoice is the first entry of its series (or a
// plain single invoice). Structural edits and deletion apply only to roots.
func (i *Invoice) IsRoot() bool { return i.InvoiceOf == nil }

// DateOnly truncates t to midnight UTC so due/paid dates compare at calendar
// granularity.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ComputeStatus derives the invoice status from its payment state and due
// date. It is deterministic in its inputs and independent of any stored
// status: paid when a payment date is set, overdue when the due date is
// strictly before today, unpaid otherwise (a due date of today is not
// overdue).
func ComputeStatus(dueAt time.Time, paidAt *time.Time, today time.Time) InvoiceStatus {
	if paidAt != nil {
		return StatusPaid
	}
	if DateOnly(dueAt).Before(DateOnly(today)) {
		return StatusOverdue
	}
	return StatusUnpaid
}

// AddPeriods steps a due date forward by n periods. When the original day of
// month does not exist in the target month (Jan 31 + 1 month), the day is
// clamped to the last day of that month. Each installment steps from the root
// due date, so clamping never compounds: Jan 31 → Feb 28 → Mar 31.
func AddPeriods(t time.Time, p Period, n int) time.Time {
	if n <= 0 || p == PeriodUnique {
		return t
	}
	y, m, d := t.Date()
	if p == PeriodYearly {
		y += n
	} else {
		m += time.Month(n)
	}
	// time.Date normalizes month overflow (e.g. month 14 of 2025 → Feb 2026).
	first := time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, t.Location())
}

// InstallmentDescription suffixes a description with its series position,
// e.g. "Rent (2/12)".
func InstallmentDescription(base string, position, total int) string {
	return fmt.Sprintf("%s (%d/%d)", base, position, total)
}
