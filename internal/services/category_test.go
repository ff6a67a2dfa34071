package services

import (
	"context"
	"errors"
	"testing"

	"github.com/erickcordeiroa/my-invoices/internal/models"
)

func TestCategoryUniquePerNameAndType(t *testing.T) {
	db := setupTestDB(t)
	user, _, _, _ := seedLedgerFixtures(t, db)
	svc := NewCategoryService(db)
	ctx := context.Background()

	// Same name, other type is a different category.
	if _, err := svc.Create(ctx, user.ID, CategoryInput{Name: "Salary", Type: models.TypeExpense}); err != nil {
		t.Fatalf("same name other type: %v", err)
	}
	if _, err := svc.Create(ctx, user.ID, CategoryInput{Name: "Salary", Type: models.TypeIncome}); !errors.Is(err, ErrDuplicateCategory) {
		t.Fatalf("expected ErrDuplicateCategory, got %v", err)
	}
}

func TestCategoryUpdateUnchangedPairIsDuplicate(t *testing.T) {
	db := setupTestDB(t)
	user, _, income, _ := seedLedgerFixtures(t, db)
	svc := NewCategoryService(db)
	ctx := context.Background()

	_, err := svc.Update(ctx, user.ID, income.ID, CategoryInput{Name: income.Name, Type: income.Type})
	if !errors.Is(err, ErrDuplicateCategory) {
		t.Fatalf("expected ErrDuplicateCategory on unchanged update, got %v", err)
	}
	updated, err := svc.Update(ctx, user.ID, income.ID, CategoryInput{Name: "Wages", Type: models.TypeIncome})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Wages" {
		t.Fatalf("expected renamed category, got %q", updated.Name)
	}
}

func TestCategoryUpdateCollision(t *testing.T) {
	db := setupTestDB(t)
	user, _, income, expense := seedLedgerFixtures(t, db)
	svc := NewCategoryService(db)
	ctx := context.Background()

	// Renaming expense "Rent" onto ("Salary", income) collides with the
	// existing income category.
	_, err := svc.Update(ctx, user.ID, expense.ID, CategoryInput{Name: income.Name, Type: models.TypeIncome})
	if !errors.Is(err, ErrDuplicateCategory) {
		t.Fatalf("expected ErrDuplicateCategory on collision, got %v", err)
	}
}

func TestCategoryDeleteWithInvoices(t *testing.T) {
	db := setupTestDB(t)
	user, wallet, _, expense := seedLedgerFixtures(t, db)
	svc := NewCategoryService(db)
	ctx := context.Background()

	inv := models.Invoice{
		UserID: user.ID, WalletID: wallet.ID, CategoryID: expense.ID,
		Description: "Rent", Type: models.TypeExpense, Amount: 50_00,
		Currency: "BRL", DueAt: date(2025, 6, 1), Period: models.PeriodUnique,
		Status: models.StatusUnpaid,
	}
	if err := db.Create(&inv).Error; err != nil {
		t.Fatalf("seed invoice: %v", err)
	}

	if err := svc.Delete(ctx, user.ID, expense.ID); !errors.Is(err, ErrCategoryHasDependents) {
		t.Fatalf("expected ErrCategoryHasDependents, got %v", err)
	}
	if err := db.Delete(&inv).Error; err != nil {
		t.Fatalf("remove invoice: %v", err)
	}
	if err := svc.Delete(ctx, user.ID, expense.ID); err != nil {
		t.Fatalf("delete after removing invoices: %v", err)
	}
}

func TestCategorySearchAllWildcard(t *testing.T) {
	db := setupTestDB(t)
	user, _, _, _ := seedLedgerFixtures(t, db)
	svc := NewCategoryService(db)
	ctx := context.Background()

	all, err := svc.Search(ctx, user.ID, "all", "")
	if err != nil {
		t.Fatalf("search all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected both categories, got %d", len(all))
	}
	incomes, err := svc.Search(ctx, user.ID, "all", models.TypeIncome)
	if err != nil {
		t.Fatalf("search incomes: %v", err)
	}
	if len(incomes) != 1 || incomes[0].Type != models.TypeIncome {
		t.Fatalf("unexpected income search: %#v", incomes)
	}
	if _, err := svc.Search(ctx, user.ID, "nothing", ""); !errors.Is(err, ErrNoResults) {
		t.Fatalf("expected ErrNoResults, got %v", err)
	}
}
