package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/erickcordeiroa/my-invoices/internal/models"
)

const (
	activationTTL     = 24 * time.Hour
	defaultWalletName = "Main Wallet"
)

// AuthService handles registration, account activation and credential checks.
// Sessions themselves live in the HTTP layer.
type AuthService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{db: db, now: time.Now}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates a pending account and returns the plaintext activation
// token. Only its sha256 hash is stored.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", in.Email).
		Count(&count).Error
	if err != nil {
		return nil, "", fmt.Errorf("check email: %w", err)
	}
	if count > 0 {
		return nil, "", ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	token := uuid.NewString()
	user := models.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: string(hash),
		Status:   models.UserStatusPending,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		activation := models.AccountActivation{
			UserID:    user.ID,
			TokenHash: hashToken(token),
			ExpiresAt: s.now().Add(activationTTL),
		}
		if err := tx.Create(&activation).Error; err != nil {
			return fmt.Errorf("create activation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

// Activate consumes an activation token, marks the account active and
// provisions the default wallet when the user has none yet.
func (s *AuthService) Activate(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var activation models.AccountActivation
		err := tx.Where("token_hash = ?", hashToken(token)).First(&activation).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidActivation
			}
			return fmt.Errorf("find activation: %w", err)
		}
		now := s.now()
		if !activation.Usable(now) {
			return ErrInvalidActivation
		}

		if err := tx.First(&user, activation.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidActivation
			}
			return fmt.Errorf("find user: %w", err)
		}

		if err := tx.Model(&activation).Update("activated_at", now).Error; err != nil {
			return fmt.Errorf("consume activation: %w", err)
		}
		if err := tx.Model(&user).Update("status", models.UserStatusActive).Error; err != nil {
			return fmt.Errorf("activate user: %w", err)
		}
		user.Status = models.UserStatusActive

		var wallets int64
		err = tx.Model(&models.Wallet{}).Where("user_id = ?", user.ID).Count(&wallets).Error
		if err != nil {
			return fmt.Errorf("count wallets: %w", err)
		}
		if wallets == 0 {
			wallet := models.Wallet{UserID: user.ID, Name: defaultWalletName, Balance: 0}
			if err := tx.Create(&wallet).Error; err != nil {
				return fmt.Errorf("create default wallet: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Login verifies credentials for an active account.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.CanLogin() {
		return nil, ErrAccountNotActive
	}
	return &user, nil
}

// GetUser fetches a user by id.
func (s *AuthService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
