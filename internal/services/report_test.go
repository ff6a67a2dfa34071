package services

import (
	"context"
	"errors"
	"testing"

	"github.com/erickcordeiroa/my-invoices/internal/models"
)

func TestCashFlowRequiresRange(t *testing.T) {
	db := setupTestDB(t)
	user, _, _, _ := seedLedgerFixtures(t, db)
	svc := NewReportService(db)

	_, err := svc.CashFlow(context.Background(), user.ID, CashFlowFilter{})
	if !errors.Is(err, ErrInvalidReportRange) {
		t.Fatalf("expected ErrInvalidReportRange, got %v", err)
	}
}

func TestCashFlowTotalsAndProjection(t *testing.T) {
	db := setupTestDB(t)
	user, wallet, income, expense := seedLedgerFixtures(t, db)
	invoices := newInvoiceService(db, date(2025, 6, 15))
	svc := NewReportService(db)
	ctx := context.Background()

	salary, err := invoices.Create(ctx, user.ID, InvoiceInput{
		WalletID: wallet.ID, CategoryID: income.ID,
		Description: "Salary", Type: models.TypeIncome, Amount: 500_00,
		DueAt: date(2025, 6, 5),
	})
	if err != nil {
		t.Fatalf("seed salary: %v", err)
	}
	if _, err := invoices.Create(ctx, user.ID, InvoiceInput{
		WalletID: wallet.ID, CategoryID: expense.ID,
		Description: "Rent", Type: models.TypeExpense, Amount: 200_00,
		DueAt: date(2025, 6, 10),
	}); err != nil {
		t.Fatalf("seed rent: %v", err)
	}
	// Outside the period, must not count.
	if _, err := invoices.Create(ctx, user.ID, InvoiceInput{
		WalletID: wallet.ID, CategoryID: expense.ID,
		Description: "Rent July", Type: models.TypeExpense, Amount: 200_00,
		DueAt: date(2025, 7, 10),
	}); err != nil {
		t.Fatalf("seed july rent: %v", err)
	}

	if _, err := invoices.Pay(ctx, user.ID, salary[0].ID, nil); err != nil {
		t.Fatalf("pay salary: %v", err)
	}

	report, err := svc.CashFlow(ctx, user.ID, CashFlowFilter{
		From: date(2025, 6, 1), To: date(2025, 6, 30),
	})
	if err != nil {
		t.Fatalf("cash flow: %v", err)
	}

	tot := report.Totals
	if tot.Income != 500_00 || tot.Expense != 200_00 || tot.Net != 300_00 {
		t.Fatalf("unexpected totals: %+v", tot)
	}
	if tot.PaidIncome != 500_00 || tot.PendingIncome != 0 {
		t.Fatalf("unexpected income breakdown: %+v", tot)
	}
	if tot.PaidExpense != 0 || tot.PendingExpense != 200_00 {
		t.Fatalf("unexpected expense breakdown: %+v", tot)
	}

	if len(report.Categories) != 2 {
		t.Fatalf("expected 2 category totals, got %d", len(report.Categories))
	}
	byName := map[string]CategoryTotal{}
	for _, ct := range report.Categories {
		byName[ct.Name] = ct
	}
	if ct := byName["Salary"]; ct.Count != 1 || ct.Amount != 500_00 {
		t.Fatalf("unexpected salary total: %+v", ct)
	}
	if ct := byName["Rent"]; ct.Count != 1 || ct.Amount != 200_00 {
		t.Fatalf("unexpected rent total: %+v", ct)
	}

	if len(report.Wallets) != 1 {
		t.Fatalf("expected 1 wallet snapshot, got %d", len(report.Wallets))
	}
	snap := report.Wallets[0]
	// Fixture balance 100_00 plus the paid salary.
	if snap.Balance != 600_00 {
		t.Fatalf("balance %d, want 60000", snap.Balance)
	}
	// Pending june rent lowers the projection; july rent is outside the period.
	if snap.Projected != 400_00 {
		t.Fatalf("projected %d, want 40000", snap.Projected)
	}
}

func TestCashFlowOnlyInstallments(t *testing.T) {
	db := setupTestDB(t)
	user, wallet, _, expense := seedLedgerFixtures(t, db)
	invoices := newInvoiceService(db, date(2025, 1, 1))
	svc := NewReportService(db)
	ctx := context.Background()

	if _, err := invoices.Create(ctx, user.ID, InvoiceInput{
		WalletID: wallet.ID, CategoryID: expense.ID,
		Description: "One-off", Type: models.TypeExpense, Amount: 10_00,
		DueAt: date(2025, 1, 10),
	}); err != nil {
		t.Fatalf("seed single: %v", err)
	}
	if _, err := invoices.Create(ctx, user.ID, InvoiceInput{
		WalletID: wallet.ID, CategoryID: expense.ID,
		Description: "Furniture", Type: models.TypeExpense, Amount: 50_00,
		DueAt: date(2025, 1, 15), Enrollments: intp(3),
	}); err != nil {
		t.Fatalf("seed installments: %v", err)
	}

	report, err := svc.CashFlow(ctx, user.ID, CashFlowFilter{
		From: date(2025, 1, 1), To: date(2025, 12, 31),
		OnlyInstallments: true,
	})
	if err != nil {
		t.Fatalf("cash flow: %v", err)
	}
	if report.Totals.Expense != 150_00 {
		t.Fatalf("expected only the 3 installments (15000), got %d", report.Totals.Expense)
	}
}

func TestCashFlowEmptyPeriod(t *testing.T) {
	db := setupTestDB(t)
	user, _, _, _ := seedLedgerFixtures(t, db)
	svc := NewReportService(db)

	report, err := svc.CashFlow(context.Background(), user.ID, CashFlowFilter{
		From: date(2030, 1, 1), To: date(2030, 1, 31),
	})
	if err != nil {
		t.Fatalf("empty period should not error: %v", err)
	}
	if report.Totals != (PeriodTotals{}) {
		t.Fatalf("expected zero totals, got %+v", report.Totals)
	}
	if len(report.Wallets) != 1 {
		t.Fatalf("wallet snapshots still reported, got %d", len(report.Wallets))
	}
}
