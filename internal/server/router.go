package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/erickcordeiroa/my-invoices/internal/auth"
	"github.com/erickcordeiroa/my-invoices/internal/handlers"
	"github.com/erickcordeiroa/my-invoices/internal/httpx"
	"github.com/erickcordeiroa/my-invoices/internal/models"
	"github.com/erickcordeiroa/my-invoices/internal/notify"
	"github.com/erickcordeiroa/my-invoices/internal/services"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB, notifier notify.Notifier) http.Handler {
	mux := http.NewServeMux()

	// Configure a user verifier so RequireAuth can ensure the user still
	// exists and is active.
	auth.SetUserVerifier(func(_ context.Context, uid uint) bool {
		var count int64
		err := db.Model(&models.User{}).
			Where("id = ? AND status = ?", uid, models.UserStatusActive).
			Limit(1).Count(&count).Error
		if err != nil {
			return false
		}
		return count > 0
	})

	// --- Health endpoints ---
	//revive:disable:unused-parameter simple handlers intentionally ignore *http.Request
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	walletSvc := services.NewWalletService(db)
	categorySvc := services.NewCategoryService(db)
	invoiceSvc := services.NewInvoiceService(db, walletSvc, notifier)
	reportSvc := services.NewReportService(db)
	authSvc := services.NewAuthService(db)

	handlers.NewAuthHandler(authSvc).Register(mux)

	protect := func(h http.HandlerFunc) http.Handler {
		return auth.RequireAuth(h)
	}

	wh := handlers.NewWalletHandler(walletSvc)
	mux.Handle("/wallets", protect(wh.Handle))
	mux.Handle("/wallets/search", protect(wh.Search))
	mux.Handle("/wallets/update", protect(wh.Update))
	mux.Handle("/wallets/delete", protect(wh.Delete))

	ch := handlers.NewCategoryHandler(categorySvc)
	mux.Handle("/categories", protect(ch.Handle))
	mux.Handle("/categories/search", protect(ch.Search))
	mux.Handle("/categories/update", protect(ch.Update))
	mux.Handle("/categories/delete", protect(ch.Delete))

	ih := handlers.NewInvoiceHandler(invoiceSvc)
	mux.Handle("/invoices", protect(ih.Handle))
	mux.Handle("/invoices/search", protect(ih.Search))
	mux.Handle("/invoices/update", protect(ih.Update))
	mux.Handle("/invoices/delete", protect(ih.Delete))
	mux.Handle("/invoices/pay", protect(ih.Pay))
	mux.Handle("/invoices/unpay", protect(ih.Unpay))

	rh := handlers.NewReportHandler(reportSvc)
	mux.Handle("/reports/cashflow", protect(rh.CashFlow))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"service": "my-invoices"})
	})
	//revive:enable:unused-parameter

	return auth.Middleware(withRecover(withLogging(mux)))
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("panic recovered", "path", r.URL.Path, "panic", rec)
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
