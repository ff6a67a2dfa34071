package services

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/erickcordeiroa/my-invoices/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.AccountActivation{}, &models.Wallet{}, &models.Category{}, &models.Invoice{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// seedLedgerFixtures creates one active user with a wallet and one category
// per entry type.
func seedLedgerFixtures(t *testing.T, db *gorm.DB) (user models.User, wallet models.Wallet, income, expense models.Category) {
	t.Helper()
	user = models.User{Name: "Ledger User", Email: "ledger@test", Password: "x", Status: models.UserStatusActive}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("user: %v", err)
	}
	wallet = models.Wallet{UserID: user.ID, Name: "Checking", Balance: 100_00}
	if err := db.Create(&wallet).Error; err != nil {
		t.Fatalf("wallet: %v", err)
	}
	income = models.Category{UserID: user.ID, Name: "Salary", Type: models.TypeIncome}
	if err := db.Create(&income).Error; err != nil {
		t.Fatalf("income category: %v", err)
	}
	expense = models.Category{UserID: user.ID, Name: "Rent", Type: models.TypeExpense}
	if err := db.Create(&expense).Error; err != nil {
		t.Fatalf("expense category: %v", err)
	}
	return
}

func seedOtherUser(t *testing.T, db *gorm.DB) (user models.User, wallet models.Wallet, category models.Category) {
	t.Helper()
	user = models.User{Name: "Other User", Email: "other@test", Password: "x", Status: models.UserStatusActive}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("other user: %v", err)
	}
	wallet = models.Wallet{UserID: user.ID, Name: "Other Wallet", Balance: 0}
	if err := db.Create(&wallet).Error; err != nil {
		t.Fatalf("other wallet: %v", err)
	}
	category = models.Category{UserID: user.ID, Name: "Other Expenses", Type: models.TypeExpense}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("other category: %v", err)
	}
	return
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func walletBalance(t *testing.T, db *gorm.DB, id uint) int64 {
	t.Helper()
	var wallet models.Wallet
	if err := db.First(&wallet, id).Error; err != nil {
		t.Fatalf("reload wallet: %v", err)
	}
	return wallet.Balance
}

func intp(v int) *int              { return &v }
func strp(v string) *string        { return &v }
func timep(v time.Time) *time.Time { return &v }
