package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/erickcordeiroa/my-invoices/internal/models"
	"github.com/erickcordeiroa/my-invoices/internal/notify"
)

// InvoiceService is the invoice lifecycle engine: creation strategies, the
// pay/unpay state machine, and the update/delete rules that keep wallet
// balances consistent. Every mutation that touches a balance runs in a single
// transaction together with the invoice write.
type InvoiceService struct {
	db       *gorm.DB
	wallets  *WalletService
	notifier notify.Notifier
	now      func() time.Time
}

func NewInvoiceService(db *gorm.DB, wallets *WalletService, notifier notify.Notifier) *InvoiceService {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &InvoiceService{db: db, wallets: wallets, notifier: notifier, now: time.Now}
}

// InvoiceInput carries validated fields for create/update. Enrollments and
// RepeatWhen select the creation strategy (see Create).
type InvoiceInput struct {
	WalletID    uint
	CategoryID  uint
	Description string
	Type        models.EntryType
	Amount      int64
	Currency    string
	DueAt       time.Time
	RepeatWhen  *string
	Period      models.Period
	Enrollments *int
}

// InvoiceFilter narrows search and report queries. Zero values mean "any".
type InvoiceFilter struct {
	Description      string
	Type             models.EntryType
	Status           models.InvoiceStatus
	WalletID         uint
	CategoryID       uint
	DateFrom         *time.Time
	DateTo           *time.Time
	OnlyInstallments bool
}

// List returns the user's invoices ordered by due date descending.
// Listing never fails on empty: it returns an empty page.
func (s *InvoiceService) List(ctx context.Context, userID uint, page, perPage int) ([]models.Invoice, int64, error) {
	limit, offset := pageBounds(page, perPage)
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)

	var total int64
	if err := q.Model(&models.Invoice{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}
	var invoices []models.Invoice
	err := q.Preload("Wallet").Preload("Category").
		Order("due_at desc").Limit(limit).Offset(offset).
		Find(&invoices).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	return invoices, total, nil
}

// Search returns filtered invoices; an empty result is ErrNoResults.
func (s *InvoiceService) Search(ctx context.Context, userID uint, f InvoiceFilter) ([]models.Invoice, error) {
	q := applyInvoiceFilter(s.db.WithContext(ctx).Where("user_id = ?", userID), f)

	var invoices []models.Invoice
	err := q.Preload("Wallet").Preload("Category").Order("due_at desc").Find(&invoices).Error
	if err != nil {
		return nil, fmt.Errorf("search invoices: %w", err)
	}
	if len(invoices) == 0 {
		return nil, ErrNoResults
	}
	return invoices, nil
}

func applyInvoiceFilter(q *gorm.DB, f InvoiceFilter) *gorm.DB {
	if f.Description != "" {
		q = q.Where("description LIKE ?", "%"+f.Description+"%")
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.WalletID != 0 {
		q = q.Where("wallet_id = ?", f.WalletID)
	}
	if f.CategoryID != 0 {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.DateFrom != nil {
		q = q.Where("due_at >= ?", models.DateOnly(*f.DateFrom))
	}
	if f.DateTo != nil {
		q = q.Where("due_at <= ?", models.DateOnly(*f.DateTo))
	}
	if f.OnlyInstallments {
		q = q.Where("enrollments IS NOT NULL AND repeat_when IS NULL")
	}
	return q
}

// Get fetches one invoice owned by userID, with wallet and category loaded.
func (s *InvoiceService) Get(ctx context.Context, userID, id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	err := s.db.WithContext(ctx).Preload("Wallet").Preload("Category").
		Where("id = ? AND user_id = ?", id, userID).
		First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return &invoice, nil
}

// Create dispatches on the input shape, in fixed order:
//
//  1. no enrollments and no repeat_when  → one unique invoice
//  2. enrollments > 1 and no repeat_when → installment batch, one row per
//     enrollment, all in one transaction
//  3. repeat_when = monthly with enrollments → a single recurring root;
//     future occurrences are materialized by an external scheduler
//
// Anything else is ErrInvalidInvoiceConfiguration. The referenced wallet and
// category must belong to userID.
func (s *InvoiceService) Create(ctx context.Context, userID uint, in InvoiceInput) ([]models.Invoice, error) {
	if !in.Type.Valid() || in.Amount <= 0 {
		return nil, ErrInvalidInvoiceConfiguration
	}
	if _, err := s.ownedWallet(s.db.WithContext(ctx), userID, in.WalletID); err != nil {
		return nil, err
	}
	if _, err := s.ownedCategory(s.db.WithContext(ctx), userID, in.CategoryID); err != nil {
		return nil, err
	}

	switch {
	case in.Enrollments == nil && in.RepeatWhen == nil:
		inv, err := s.createSingle(ctx, userID, in)
		if err != nil {
			return nil, err
		}
		return []models.Invoice{*inv}, nil
	case in.Enrollments != nil && *in.Enrollments > 1 && in.RepeatWhen == nil:
		return s.createInstallments(ctx, userID, in)
	case in.RepeatWhen != nil && *in.RepeatWhen == models.RepeatMonthly && in.Enrollments != nil && *in.Enrollments > 0:
		inv, err := s.createRecurring(ctx, userID, in)
		if err != nil {
			return nil, err
		}
		return []models.Invoice{*inv}, nil
	default:
		return nil, ErrInvalidInvoiceConfiguration
	}
}

func (s *InvoiceService) createSingle(ctx context.Context, userID uint, in InvoiceInput) (*models.Invoice, error) {
	dueAt := models.DateOnly(in.DueAt)
	invoice := models.Invoice{
		UserID:      userID,
		WalletID:    in.WalletID,
		CategoryID:  in.CategoryID,
		Description: in.Description,
		Type:        in.Type,
		Amount:      in.Amount,
		Currency:    currencyOrDefault(in.Currency),
		DueAt:       dueAt,
		Period:      models.PeriodUnique,
		Status:      models.ComputeStatus(dueAt, nil, s.now()),
	}
	if err := s.db.WithContext(ctx).Create(&invoice).Error; err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	return &invoice, nil
}

func (s *InvoiceService) createInstallments(ctx context.Context, userID uint, in InvoiceInput) ([]models.Invoice, error) {
	total := *in.Enrollments
	period := stepPeriod(in.Period)
	rootDue := models.DateOnly(in.DueAt)
	today := s.now()

	var created []models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rootID *uint
		for i := 1; i <= total; i++ {
			position := i
			dueAt := models.AddPeriods(rootDue, period, i-1)
			invoice := models.Invoice{
				UserID:        userID,
				WalletID:      in.WalletID,
				CategoryID:    in.CategoryID,
				InvoiceOf:     rootID,
				Description:   models.InstallmentDescription(in.Description, i, total),
				Type:          in.Type,
				Amount:        in.Amount,
				Currency:      currencyOrDefault(in.Currency),
				DueAt:         dueAt,
				Period:        period,
				Enrollments:   &total,
				EnrollmentsOf: &position,
				Status:        models.ComputeStatus(dueAt, nil, today),
			}
			if err := tx.Create(&invoice).Error; err != nil {
				return err
			}
			if i == 1 {
				id := invoice.ID
				rootID = &id
			}
			created = append(created, invoice)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvoiceCreationFailed, err)
	}
	return created, nil
}

func (s *InvoiceService) createRecurring(ctx context.Context, userID uint, in InvoiceInput) (*models.Invoice, error) {
	total := *in.Enrollments
	first := 1
	repeat := models.RepeatMonthly
	dueAt := models.DateOnly(in.DueAt)
	invoice := models.Invoice{
		UserID:        userID,
		WalletID:      in.WalletID,
		CategoryID:    in.CategoryID,
		Description:   in.Description,
		Type:          in.Type,
		Amount:        in.Amount,
		Currency:      currencyOrDefault(in.Currency),
		DueAt:         dueAt,
		RepeatWhen:    &repeat,
		Period:        stepPeriod(in.Period),
		Enrollments:   &total,
		EnrollmentsOf: &first,
		Status:        models.ComputeStatus(dueAt, nil, s.now()),
	}
	if err := s.db.WithContext(ctx).Create(&invoice).Error; err != nil {
		return nil, fmt.Errorf("create recurring invoice: %w", err)
	}
	return &invoice, nil
}

// Update applies structural edits to a root invoice and cascades them to its
// installments in one transaction. Installments themselves and recurrences
// that already advanced past their first occurrence are frozen.
func (s *InvoiceService) Update(ctx context.Context, userID, id uint, in InvoiceInput) (*models.Invoice, error) {
	if !in.Type.Valid() || in.Amount <= 0 {
		return nil, ErrInvalidInvoiceConfiguration
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.ownedInvoice(tx, userID, id)
		if err != nil {
			return err
		}
		if !invoice.IsRoot() {
			return ErrCannotUpdateInstallment
		}
		if invoice.RepeatWhen != nil && invoice.EnrollmentsOf != nil && *invoice.EnrollmentsOf > 1 {
			return ErrCannotUpdateProcessedRecurring
		}
		if _, err := s.ownedWallet(tx, userID, in.WalletID); err != nil {
			return err
		}
		category, err := s.ownedCategory(tx, userID, in.CategoryID)
		if err != nil {
			return err
		}
		if category.Type != in.Type {
			return ErrCategoryTypeMismatch
		}

		today := s.now()
		newDue := models.DateOnly(in.DueAt)
		currency := currencyOrDefault(in.Currency)

		updates := map[string]any{
			"wallet_id":   in.WalletID,
			"category_id": in.CategoryID,
			"description": in.Description,
			"type":        in.Type,
			"amount":      in.Amount,
			"currency":    currency,
			"due_at":      newDue,
			"status":      models.ComputeStatus(newDue, invoice.PaidAt, today),
		}
		if err := tx.Model(invoice).Updates(updates).Error; err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}

		var installments []models.Invoice
		err = tx.Where("invoice_of = ? AND user_id = ?", invoice.ID, userID).
			Order("enrollments_of asc").
			Find(&installments).Error
		if err != nil {
			return fmt.Errorf("load installments: %w", err)
		}
		if len(installments) == 0 {
			return nil
		}

		total := len(installments) + 1
		if invoice.Enrollments != nil {
			total = *invoice.Enrollments
		}
		period := stepPeriod(invoice.Period)

		// The root is position 1 of the series; keep its description suffixed.
		err = tx.Model(invoice).
			Update("description", models.InstallmentDescription(in.Description, 1, total)).Error
		if err != nil {
			return fmt.Errorf("update root description: %w", err)
		}

		for i := range installments {
			inst := &installments[i]
			position := 2
			if inst.EnrollmentsOf != nil {
				position = *inst.EnrollmentsOf
			}
			instDue := models.AddPeriods(newDue, period, position-1)
			err := tx.Model(inst).Updates(map[string]any{
				"wallet_id":   in.WalletID,
				"category_id": in.CategoryID,
				"description": models.InstallmentDescription(in.Description, position, total),
				"type":        in.Type,
				"amount":      in.Amount,
				"currency":    currency,
				"due_at":      instDue,
				"status":      models.ComputeStatus(instDue, inst.PaidAt, today),
			}).Error
			if err != nil {
				return fmt.Errorf("update installment %d: %w", inst.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID, id)
}

// Delete removes a root invoice and all of its installments atomically,
// reversing the wallet balance effect of every paid row first.
func (s *InvoiceService) Delete(ctx context.Context, userID, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.ownedInvoice(tx, userID, id)
		if err != nil {
			return err
		}
		if !invoice.IsRoot() {
			return ErrCannotDeleteInstallment
		}

		var installments []models.Invoice
		err = tx.Where("invoice_of = ? AND user_id = ?", invoice.ID, userID).
			Find(&installments).Error
		if err != nil {
			return fmt.Errorf("load installments: %w", err)
		}
		for i := range installments {
			inst := &installments[i]
			if inst.PaidAt != nil {
				if err := s.wallets.ReversePayment(tx, inst); err != nil {
					return err
				}
			}
			if err := tx.Delete(inst).Error; err != nil {
				return fmt.Errorf("delete installment %d: %w", inst.ID, err)
			}
		}
		if invoice.PaidAt != nil {
			if err := s.wallets.ReversePayment(tx, invoice); err != nil {
				return err
			}
		}
		if err := tx.Delete(invoice).Error; err != nil {
			return fmt.Errorf("delete invoice: %w", err)
		}
		return nil
	})
}

// Pay marks an invoice paid and applies its balance effect in one
// transaction. paidAt defaults to today. Payment state is per-row:
// installments are payable independently of their root.
func (s *InvoiceService) Pay(ctx context.Context, userID, id uint, paidAt *time.Time) (*models.Invoice, error) {
	var paid models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.ownedInvoice(tx, userID, id)
		if err != nil {
			return err
		}
		if invoice.PaidAt != nil {
			return ErrAlreadyPaid
		}
		when := models.DateOnly(s.now())
		if paidAt != nil {
			when = models.DateOnly(*paidAt)
		}
		err = tx.Model(invoice).Updates(map[string]any{
			"paid_at": when,
			"status":  models.StatusPaid,
		}).Error
		if err != nil {
			return fmt.Errorf("mark invoice paid: %w", err)
		}
		if err := s.wallets.ApplyPayment(tx, invoice); err != nil {
			return err
		}
		invoice.PaidAt = &when
		invoice.Status = models.StatusPaid
		paid = *invoice
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Confirmation is fire-and-forget, outside the transaction.
	go s.notifyPayment(paid)

	return s.Get(ctx, userID, id)
}

// Unpay reverts a payment: the balance effect is reversed and the status
// recomputed from the due date, all in one transaction.
func (s *InvoiceService) Unpay(ctx context.Context, userID, id uint) (*models.Invoice, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.ownedInvoice(tx, userID, id)
		if err != nil {
			return err
		}
		if invoice.PaidAt == nil {
			return ErrNotPaid
		}
		if err := s.wallets.ReversePayment(tx, invoice); err != nil {
			return err
		}
		err = tx.Model(invoice).Updates(map[string]any{
			"paid_at": nil,
			"status":  models.ComputeStatus(invoice.DueAt, nil, s.now()),
		}).Error
		if err != nil {
			return fmt.Errorf("mark invoice unpaid: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID, id)
}

func (s *InvoiceService) notifyPayment(inv models.Invoice) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg := notify.PaymentMessage{
		InvoiceID:   inv.ID,
		UserID:      inv.UserID,
		WalletID:    inv.WalletID,
		Description: inv.Description,
		Type:        string(inv.Type),
		Amount:      inv.Amount,
		Currency:    inv.Currency,
		Timestamp:   time.Now(),
	}
	if inv.PaidAt != nil {
		msg.PaidAt = *inv.PaidAt
	}
	if err := s.notifier.PaymentConfirmed(ctx, msg); err != nil {
		slog.Warn("payment confirmation not delivered", "invoice_id", inv.ID, "error", err)
	}
}

func (s *InvoiceService) ownedInvoice(tx *gorm.DB, userID, id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	err := tx.Where("id = ? AND user_id = ?", id, userID).First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return &invoice, nil
}

func (s *InvoiceService) ownedWallet(tx *gorm.DB, userID, id uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := tx.Where("id = ? AND user_id = ?", id, userID).First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	return &wallet, nil
}

func (s *InvoiceService) ownedCategory(tx *gorm.DB, userID, id uint) (*models.Category, error) {
	var category models.Category
	err := tx.Where("id = ? AND user_id = ?", id, userID).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &category, nil
}

func currencyOrDefault(c string) string {
	if c == "" {
		return "BRL"
	}
	return c
}

// stepPeriod normalizes the due-date step for series: only monthly and
// yearly step; anything else defaults to monthly.
func stepPeriod(p models.Period) models.Period {
	if p == models.PeriodYearly {
		return models.PeriodYearly
	}
	return models.PeriodMonthly
}
