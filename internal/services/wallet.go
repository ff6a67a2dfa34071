package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/erickcordeiroa/my-invoices/internal/models"
)

// WalletService owns wallet CRUD and the balance ledger. Balance is an
// accumulator: ApplyPayment/ReversePayment are the only code paths that
// mutate it, always under a row lock inside the caller's transaction.
type WalletService struct {
	db *gorm.DB
}

func NewWalletService(db *gorm.DB) *WalletService { return &WalletService{db: db} }

// WalletInput carries validated fields for create/update.
type WalletInput struct {
	Name    string
	Balance int64
}

// List returns the user's wallets, newest first, with the total count.
func (s *WalletService) List(ctx context.Context, userID uint, page, perPage int) ([]models.Wallet, int64, error) {
	limit, offset := pageBounds(page, perPage)
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)

	var total int64
	if err := q.Model(&models.Wallet{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count wallets: %w", err)
	}
	var wallets []models.Wallet
	if err := q.Order("id desc").Limit(limit).Offset(offset).Find(&wallets).Error; err != nil {
		return nil, 0, fmt.Errorf("list wallets: %w", err)
	}
	return wallets, total, nil
}

// Search finds wallets by name fragment. Empty result is a domain condition.
func (s *WalletService) Search(ctx context.Context, userID uint, name string) ([]models.Wallet, error) {
	var wallets []models.Wallet
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("name LIKE ?", "%"+name+"%").
		Find(&wallets).Error
	if err != nil {
		return nil, fmt.Errorf("search wallets: %w", err)
	}
	if len(wallets) == 0 {
		return nil, ErrNoResults
	}
	return wallets, nil
}

// Get fetches a wallet owned by userID.
func (s *WalletService) Get(ctx context.Context, userID, id uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	return &wallet, nil
}

// Create adds a wallet; names are unique per user.
func (s *WalletService) Create(ctx context.Context, userID uint, in WalletInput) (*models.Wallet, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Wallet{}).
		Where("user_id = ? AND name = ?", userID, in.Name).
		Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("check wallet name: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicateWallet
	}
	wallet := models.Wallet{UserID: userID, Name: in.Name, Balance: in.Balance}
	if err := s.db.WithContext(ctx).Create(&wallet).Error; err != nil {
		return nil, fmt.Errorf("create wallet: %w", err)
	}
	return &wallet, nil
}

// Update renames a wallet. Submitting the current name is rejected as a
// duplicate, matching the create-side uniqueness error.
func (s *WalletService) Update(ctx context.Context, userID, id uint, in WalletInput) (*models.Wallet, error) {
	wallet, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if wallet.Name == in.Name {
		return nil, ErrDuplicateWallet
	}
	var count int64
	err = s.db.WithContext(ctx).Model(&models.Wallet{}).
		Where("user_id = ? AND name = ? AND id <> ?", userID, in.Name, id).
		Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("check wallet name: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicateWallet
	}
	// Balance is an accumulator owned by the payment paths; update never
	// touches it.
	if err := s.db.WithContext(ctx).Model(wallet).Update("name", in.Name).Error; err != nil {
		return nil, fmt.Errorf("update wallet: %w", err)
	}
	return wallet, nil
}

// Delete soft-deletes a wallet unless invoices still reference it.
func (s *WalletService) Delete(ctx context.Context, userID, id uint) error {
	wallet, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	var count int64
	err = s.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("wallet_id = ? AND user_id = ?", id, userID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("check wallet invoices: %w", err)
	}
	if count > 0 {
		return ErrWalletHasDependents
	}
	if err := s.db.WithContext(ctx).Delete(wallet).Error; err != nil {
		return fmt.Errorf("delete wallet: %w", err)
	}
	return nil
}

// ApplyPayment reflects a paid invoice into its wallet balance: income adds,
// expense subtracts. Must run inside tx.
func (s *WalletService) ApplyPayment(tx *gorm.DB, inv *models.Invoice) error {
	return s.adjustBalance(tx, inv, paymentDelta(inv))
}

// ReversePayment is the exact inverse of ApplyPayment.
func (s *WalletService) ReversePayment(tx *gorm.DB, inv *models.Invoice) error {
	return s.adjustBalance(tx, inv, -paymentDelta(inv))
}

func paymentDelta(inv *models.Invoice) int64 {
	if inv.Type == models.TypeIncome {
		return inv.Amount
	}
	return -inv.Amount
}

// adjustBalance locks the wallet row for the remainder of the transaction so
// concurrent pay/unpay against the same wallet serialize their
// read-modify-write. The balance write uses a SQL expression, not a value
// computed in Go, so the accumulator is safe even on backends that do not
// honor FOR UPDATE.
func (s *WalletService) adjustBalance(tx *gorm.DB, inv *models.Invoice, delta int64) error {
	var wallet models.Wallet
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ?", inv.WalletID, inv.UserID).
		First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrWalletNotFound
		}
		return fmt.Errorf("lock wallet %d: %w", inv.WalletID, err)
	}
	err = tx.Model(&wallet).
		Update("balance", gorm.Expr("balance + ?", delta)).Error
	if err != nil {
		return fmt.Errorf("adjust wallet %d balance: %w", wallet.ID, err)
	}
	return nil
}

// pageBounds translates 1-indexed pages into limit/offset with sane caps.
func pageBounds(page, perPage int) (limit, offset int) {
	if perPage <= 0 {
		perPage = 12
	}
	if perPage > 100 {
		perPage = 100
	}
	if page > 1 {
		offset = (page - 1) * perPage
	}
	return perPage, offset
}
