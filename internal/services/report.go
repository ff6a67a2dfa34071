package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/erickcordeiroa/my-invoices/internal/models"
)

// ReportService builds read-only cash-flow aggregations over invoices and
// wallets. It never mutates anything.
type ReportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) *ReportService { return &ReportService{db: db} }

// CashFlowFilter scopes a report. From and To are mandatory; the rest narrow
// the selection the same way invoice search does.
type CashFlowFilter struct {
	From             time.Time
	To               time.Time
	WalletID         uint
	CategoryID       uint
	Type             models.EntryType
	Status           models.InvoiceStatus
	OnlyInstallments bool
}

// PeriodTotals breaks the period down by direction and payment state.
// Net is total income minus total expense regardless of payment state.
type PeriodTotals struct {
	Income         int64 `json:"income"`
	Expense        int64 `json:"expense"`
	PaidIncome     int64 `json:"paid_income"`
	PendingIncome  int64 `json:"pending_income"`
	PaidExpense    int64 `json:"paid_expense"`
	PendingExpense int64 `json:"pending_expense"`
	Net            int64 `json:"net"`
}

type CategoryTotal struct {
	CategoryID uint             `json:"category_id"`
	Name       string           `json:"name"`
	Type       models.EntryType `json:"type"`
	Count      int64            `json:"count"`
	Amount     int64            `json:"amount"`
}

// WalletSnapshot pairs the current accumulator balance with the balance the
// wallet would have if every pending invoice in the period were paid.
type WalletSnapshot struct {
	WalletID  uint   `json:"wallet_id"`
	Name      string `json:"name"`
	Balance   int64  `json:"balance"`
	Projected int64  `json:"projected"`
}

type CashFlowReport struct {
	From       time.Time        `json:"from"`
	To         time.Time        `json:"to"`
	Totals     PeriodTotals     `json:"totals"`
	Categories []CategoryTotal  `json:"categories"`
	Wallets    []WalletSnapshot `json:"wallets"`
}

// CashFlow aggregates the user's invoices inside [From, To] by due date.
// An empty period yields zero totals, not an error.
func (s *ReportService) CashFlow(ctx context.Context, userID uint, f CashFlowFilter) (*CashFlowReport, error) {
	if f.From.IsZero() || f.To.IsZero() {
		return nil, ErrInvalidReportRange
	}
	from := models.DateOnly(f.From)
	to := models.DateOnly(f.To)

	q := applyInvoiceFilter(
		s.db.WithContext(ctx).Where("user_id = ?", userID),
		InvoiceFilter{
			Type:             f.Type,
			Status:           f.Status,
			WalletID:         f.WalletID,
			CategoryID:       f.CategoryID,
			DateFrom:         &from,
			DateTo:           &to,
			OnlyInstallments: f.OnlyInstallments,
		},
	)

	var invoices []models.Invoice
	if err := q.Preload("Category").Find(&invoices).Error; err != nil {
		return nil, fmt.Errorf("load report invoices: %w", err)
	}

	report := &CashFlowReport{From: from, To: to}
	report.Totals = sumPeriod(invoices)
	report.Categories = sumByCategory(invoices)

	wallets, err := s.walletSnapshots(ctx, userID, f.WalletID, invoices)
	if err != nil {
		return nil, err
	}
	report.Wallets = wallets
	return report, nil
}

func sumPeriod(invoices []models.Invoice) PeriodTotals {
	var t PeriodTotals
	for i := range invoices {
		inv := &invoices[i]
		paid := inv.PaidAt != nil
		if inv.Type == models.TypeIncome {
			t.Income += inv.Amount
			if paid {
				t.PaidIncome += inv.Amount
			} else {
				t.PendingIncome += inv.Amount
			}
		} else {
			t.Expense += inv.Amount
			if paid {
				t.PaidExpense += inv.Amount
			} else {
				t.PendingExpense += inv.Amount
			}
		}
	}
	t.Net = t.Income - t.Expense
	return t
}

func sumByCategory(invoices []models.Invoice) []CategoryTotal {
	byID := make(map[uint]*CategoryTotal)
	var order []uint
	for i := range invoices {
		inv := &invoices[i]
		ct, ok := byID[inv.CategoryID]
		if !ok {
			ct = &CategoryTotal{
				CategoryID: inv.CategoryID,
				Name:       inv.Category.Name,
				Type:       inv.Type,
			}
			byID[inv.CategoryID] = ct
			order = append(order, inv.CategoryID)
		}
		ct.Count++
		ct.Amount += inv.Amount
	}
	totals := make([]CategoryTotal, 0, len(order))
	for _, id := range order {
		totals = append(totals, *byID[id])
	}
	return totals
}

// walletSnapshots projects each wallet forward: pending income in the period
// raises the balance, pending expense lowers it.
func (s *ReportService) walletSnapshots(ctx context.Context, userID, walletID uint, invoices []models.Invoice) ([]WalletSnapshot, error) {
	wq := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if walletID != 0 {
		wq = wq.Where("id = ?", walletID)
	}
	var wallets []models.Wallet
	if err := wq.Order("id asc").Find(&wallets).Error; err != nil {
		return nil, fmt.Errorf("load report wallets: %w", err)
	}

	pending := make(map[uint]int64)
	for i := range invoices {
		inv := &invoices[i]
		if inv.PaidAt != nil {
			continue
		}
		if inv.Type == models.TypeIncome {
			pending[inv.WalletID] += inv.Amount
		} else {
			pending[inv.WalletID] -= inv.Amount
		}
	}

	snapshots := make([]WalletSnapshot, 0, len(wallets))
	for _, w := range wallets {
		snapshots = append(snapshots, WalletSnapshot{
			WalletID:  w.ID,
			Name:      w.Name,
			Balance:   w.Balance,
			Projected: w.Balance + pending[w.ID],
		})
	}
	return snapshots, nil
}
