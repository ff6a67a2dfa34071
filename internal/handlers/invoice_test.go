package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/erickcordeiroa/my-invoices/internal/auth"
	"github.com/erickcordeiroa/my-invoices/internal/models"
	"github.com/erickcordeiroa/my-invoices/internal/services"
)

func setupHandlerTestDB(t *testing.T) *gorm.DB {
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

func seedHandlerFixtures(t *testing.T, db *gorm.DB) (user models.User, wallet models.Wallet, expense models.Category) {
	t.Helper()
	user = models.User{Name: "H User", Email: "h@test", Password: "x", Status: models.UserStatusActive}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("user: %v", err)
	}
	wallet = models.Wallet{UserID: user.ID, Name: "Checking", Balance: 100_00}
	if err := db.Create(&wallet).Error; err != nil {
		t.Fatalf("wallet: %v", err)
	}
	expense = models.Category{UserID: user.ID, Name: "Rent", Type: models.TypeExpense}
	if err := db.Create(&expense).Error; err != nil {
		t.Fatalf("category: %v", err)
	}
	return
}

func authedRequest(t *testing.T, method, target, body string, userID uint) *http.Request {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return req.WithContext(auth.WithUserID(req.Context(), userID))
}

func TestInvoiceCreateAndPayJSON(t *testing.T) {
	db := setupHandlerTestDB(t)
	user, wallet, expense := seedHandlerFixtures(t, db)
	walletSvc := services.NewWalletService(db)
	h := NewInvoiceHandler(services.NewInvoiceService(db, walletSvc, nil))

	body := fmt.Sprintf(`{"wallet_id":%d,"category_id":%d,"description":"Rent","type":"expense","amount":8000,"due_at":"2030-06-05"}`,
		wallet.ID, expense.ID)
	w := httptest.NewRecorder()
	h.Handle(w, authedRequest(t, http.MethodPost, "/invoices", body, user.ID))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	var created []models.Invoice
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(created) != 1 || created[0].Status != models.StatusUnpaid {
		t.Fatalf("unexpected creation response: %#v", created)
	}

	payBody := fmt.Sprintf(`{"id":%d}`, created[0].ID)
	payW := httptest.NewRecorder()
	h.Pay(payW, authedRequest(t, http.MethodPost, "/invoices/pay", payBody, user.ID))
	if payW.Code != http.StatusOK {
		t.Fatalf("pay: expected 200 got %d body=%s", payW.Code, payW.Body.String())
	}
	var paid models.Invoice
	if err := json.Unmarshal(payW.Body.Bytes(), &paid); err != nil {
		t.Fatalf("decode paid: %v", err)
	}
	if paid.Status != models.StatusPaid || paid.PaidAt == nil {
		t.Fatalf("expected paid invoice, got %#v", paid)
	}

	var fresh models.Wallet
	if err := db.First(&fresh, wallet.ID).Error; err != nil {
		t.Fatalf("reload wallet: %v", err)
	}
	if fresh.Balance != 100_00-80_00 {
		t.Fatalf("balance %d after expense payment", fresh.Balance)
	}

	// Second pay is a domain guard, not a 500.
	againW := httptest.NewRecorder()
	h.Pay(againW, authedRequest(t, http.MethodPost, "/invoices/pay", payBody, user.ID))
	if againW.Code != http.StatusBadRequest {
		t.Fatalf("double pay: expected 400 got %d", againW.Code)
	}
}

func TestInvoiceCreateInstallmentsJSON(t *testing.T) {
	db := setupHandlerTestDB(t)
	user, wallet, expense := seedHandlerFixtures(t, db)
	h := NewInvoiceHandler(services.NewInvoiceService(db, services.NewWalletService(db), nil))

	body := fmt.Sprintf(`{"wallet_id":%d,"category_id":%d,"description":"Furniture","type":"expense","amount":30000,"due_at":"2030-01-31","enrollments":3}`,
		wallet.ID, expense.ID)
	w := httptest.NewRecorder()
	h.Handle(w, authedRequest(t, http.MethodPost, "/invoices", body, user.ID))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	var created []models.Invoice
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(created) != 3 {
		t.Fatalf("expected 3 installments, got %d", len(created))
	}
	if created[1].Description != "Furniture (2/3)" {
		t.Fatalf("installment description %q", created[1].Description)
	}
}

func TestInvoiceErrorMapping(t *testing.T) {
	db := setupHandlerTestDB(t)
	user, wallet, expense := seedHandlerFixtures(t, db)
	h := NewInvoiceHandler(services.NewInvoiceService(db, services.NewWalletService(db), nil))

	// Unknown wallet -> 404.
	body := fmt.Sprintf(`{"wallet_id":9999,"category_id":%d,"description":"x","type":"expense","amount":100,"due_at":"2030-01-01"}`, expense.ID)
	w := httptest.NewRecorder()
	h.Handle(w, authedRequest(t, http.MethodPost, "/invoices", body, user.ID))
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown wallet: expected 404 got %d", w.Code)
	}

	// Invalid shape -> 400.
	body = fmt.Sprintf(`{"wallet_id":%d,"category_id":%d,"description":"x","type":"expense","amount":100,"due_at":"2030-01-01","enrollments":1}`, wallet.ID, expense.ID)
	w = httptest.NewRecorder()
	h.Handle(w, authedRequest(t, http.MethodPost, "/invoices", body, user.ID))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid shape: expected 400 got %d", w.Code)
	}

	// Malformed date -> 400.
	body = fmt.Sprintf(`{"wallet_id":%d,"category_id":%d,"description":"x","type":"expense","amount":100,"due_at":"01/01/2030"}`, wallet.ID, expense.ID)
	w = httptest.NewRecorder()
	h.Handle(w, authedRequest(t, http.MethodPost, "/invoices", body, user.ID))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad date: expected 400 got %d", w.Code)
	}

	// Search with no matches -> 404.
	w = httptest.NewRecorder()
	h.Search(w, authedRequest(t, http.MethodGet, "/invoices/search?description=yacht", "", user.ID))
	if w.Code != http.StatusNotFound {
		t.Fatalf("empty search: expected 404 got %d", w.Code)
	}
}

func TestWalletHandlerConflict(t *testing.T) {
	db := setupHandlerTestDB(t)
	user, _, _ := seedHandlerFixtures(t, db)
	h := NewWalletHandler(services.NewWalletService(db))

	w := httptest.NewRecorder()
	h.Handle(w, authedRequest(t, http.MethodPost, "/wallets", `{"name":"Checking"}`, user.ID))
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate wallet: expected 409 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestCategoryHandlerValidation(t *testing.T) {
	db := setupHandlerTestDB(t)
	user, _, _ := seedHandlerFixtures(t, db)
	h := NewCategoryHandler(services.NewCategoryService(db))

	w := httptest.NewRecorder()
	h.Handle(w, authedRequest(t, http.MethodPost, "/categories", `{"name":"Stuff","type":"sideways"}`, user.ID))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid type: expected 400 got %d", w.Code)
	}
	w = httptest.NewRecorder()
	h.Handle(w, authedRequest(t, http.MethodPost, "/categories", `{"name":"Stuff","type":"income"}`, user.ID))
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestReportHandlerRequiresRange(t *testing.T) {
	db := setupHandlerTestDB(t)
	user, _, _ := seedHandlerFixtures(t, db)
	h := NewReportHandler(services.NewReportService(db))

	w := httptest.NewRecorder()
	h.CashFlow(w, authedRequest(t, http.MethodGet, "/reports/cashflow", "", user.ID))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing range: expected 400 got %d", w.Code)
	}
	w = httptest.NewRecorder()
	h.CashFlow(w, authedRequest(t, http.MethodGet, "/reports/cashflow?from=2030-01-01&to=2030-01-31", "", user.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("valid range: expected 200 got %d body=%s", w.Code, w.Body.String())
	}
}
