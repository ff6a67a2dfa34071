package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/erickcordeiroa/my-invoices/internal/models"
)

// CategoryService manages the user-scoped income/expense taxonomy.
type CategoryService struct {
	db *gorm.DB
}

func NewCategoryService(db *gorm.DB) *CategoryService { return &CategoryService{db: db} }

type CategoryInput struct {
	Name string
	Type models.EntryType
}

// List returns the user's categories with the total count.
func (s *CategoryService) List(ctx context.Context, userID uint, page, perPage int) ([]models.Category, int64, error) {
	limit, offset := pageBounds(page, perPage)
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)

	var total int64
	if err := q.Model(&models.Category{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count categories: %w", err)
	}
	var categories []models.Category
	if err := q.Order("id desc").Limit(limit).Offset(offset).Find(&categories).Error; err != nil {
		return nil, 0, fmt.Errorf("list categories: %w", err)
	}
	return categories, total, nil
}

// Search filters by type and name fragment. The name "all" matches any name.
func (s *CategoryService) Search(ctx context.Context, userID uint, name string, typ models.EntryType) ([]models.Category, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if name != "" && name != "all" {
		q = q.Where("name LIKE ?", "%"+name+"%")
	}
	if typ != "" {
		q = q.Where("type = ?", typ)
	}
	var categories []models.Category
	if err := q.Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("search categories: %w", err)
	}
	if len(categories) == 0 {
		return nil, ErrNoResults
	}
	return categories, nil
}

// Get fetches a category owned by userID.
func (s *CategoryService) Get(ctx context.Context, userID, id uint) (*models.Category, error) {
	var category models.Category
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &category, nil
}

// Create adds a category; (name, type) is unique per user, so the same name
// may exist once as income and once as expense.
func (s *CategoryService) Create(ctx context.Context, userID uint, in CategoryInput) (*models.Category, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Category{}).
		Where("user_id = ? AND name = ? AND type = ?", userID, in.Name, in.Type).
		Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("check category: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicateCategory
	}
	category := models.Category{UserID: userID, Name: in.Name, Type: in.Type}
	if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &category, nil
}

// Update changes name/type. Submitting the current (name, type) pair is
// rejected as a duplicate, as is colliding with another category.
func (s *CategoryService) Update(ctx context.Context, userID, id uint, in CategoryInput) (*models.Category, error) {
	category, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if category.Name == in.Name && category.Type == in.Type {
		return nil, ErrDuplicateCategory
	}
	var count int64
	err = s.db.WithContext(ctx).Model(&models.Category{}).
		Where("user_id = ? AND name = ? AND type = ? AND id <> ?", userID, in.Name, in.Type, id).
		Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("check category: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicateCategory
	}
	if err := s.db.WithContext(ctx).Model(category).Updates(map[string]any{
		"name": in.Name,
		"type": in.Type,
	}).Error; err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return category, nil
}

// Delete removes a category unless invoices still reference it.
func (s *CategoryService) Delete(ctx context.Context, userID, id uint) error {
	category, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	var count int64
	err = s.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("category_id = ? AND user_id = ?", id, userID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("check category invoices: %w", err)
	}
	if count > 0 {
		return ErrCategoryHasDependents
	}
	if err := s.db.WithContext(ctx).Delete(category).Error; err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
