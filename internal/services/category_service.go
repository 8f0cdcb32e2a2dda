package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/JohanDJ0/restapi-gastos/internal/errors"
	"github.com/JohanDJ0/restapi-gastos/internal/logger"
	"github.com/JohanDJ0/restapi-gastos/internal/models"
)

type categorySeed struct {
	name  string
	typ   models.CategoryType
	icon  string
	color string
}

// globalCategories are shared by every user and seeded on first listing.
var globalCategories = []categorySeed{
	{"Salario", models.CategoryTypeIncome, "💰", "#28a745"},
	{"Regalos", models.CategoryTypeIncome, "🎁", "#e83e8c"},
	{"Reembolsos", models.CategoryTypeIncome, "↩️", "#6f42c1"},
	{"Otros Ingresos", models.CategoryTypeIncome, "➕", "#20c997"},
	{"Alimentación", models.CategoryTypeExpense, "🍽️", "#dc3545"},
	{"Transporte", models.CategoryTypeExpense, "🚗", "#fd7e14"},
	{"Vivienda", models.CategoryTypeExpense, "🏠", "#6f42c1"},
	{"Servicios", models.CategoryTypeExpense, "⚡", "#ffc107"},
	{"Entretenimiento", models.CategoryTypeExpense, "🎬", "#e83e8c"},
	{"Otros Gastos", models.CategoryTypeExpense, "💸", "#dc3545"},
}

// starterCategories are copied into a user's own categories on request.
var starterCategories = []categorySeed{
	{"Mi Salario", models.CategoryTypeIncome, "💰", "#28a745"},
	{"Proyectos", models.CategoryTypeIncome, "💼", "#17a2b8"},
	{"Comida", models.CategoryTypeExpense, "🍽️", "#dc3545"},
	{"Gasolina", models.CategoryTypeExpense, "⛽", "#fd7e14"},
	{"Renta", models.CategoryTypeExpense, "🏠", "#6f42c1"},
}

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// visible lists global categories first, then the user's, each by name.
func (s *categoryService) visible(userID string) *gorm.DB {
	return s.db.Where("user_id IS NULL OR user_id = ?", userID).
		Order("CASE WHEN user_id IS NULL THEN 0 ELSE 1 END").
		Order("name ASC")
}

// ensureGlobals seeds the shared defaults when none exist yet.
func (s *categoryService) ensureGlobals() error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Category{}).Where("user_id IS NULL").Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		categories := make([]models.Category, 0, len(globalCategories))
		for _, seed := range globalCategories {
			categories = append(categories, models.Category{Name: seed.name, Type: seed.typ, Icon: seed.icon, Color: seed.color})
		}
		if err := tx.Create(&categories).Error; err != nil {
			return err
		}
		logger.Get().Infow("seeded default categories", "count", len(categories))
		return nil
	})
}

// GetUserCategories returns the global and owned categories.
func (s *categoryService) GetUserCategories(userID string) ([]models.Category, error) {
	if err := s.ensureGlobals(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := s.visible(userID).Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// GetUserCategoriesByType returns the visible categories of one type.
func (s *categoryService) GetUserCategoriesByType(userID string, categoryType models.CategoryType) ([]models.Category, error) {
	if err := validCategoryType(categoryType); err != nil {
		return nil, err
	}

	var categories []models.Category
	if err := s.visible(userID).Where("type = ?", categoryType).Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// GetCategoryByID returns a category that is global or owned by the user.
func (s *categoryService) GetCategoryByID(userID, categoryID string) (*models.Category, error) {
	var category models.Category
	err := s.db.Where("id = ? AND (user_id IS NULL OR user_id = ?)", categoryID, userID).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

func validCategoryType(t models.CategoryType) error {
	if !t.Valid() {
		return apperrors.WithMessage(apperrors.ErrInvalidCategoryType,
			"Invalid tipo. Accepted values: "+strings.Join(models.CategoryTypes(), ", "))
	}
	return nil
}

func (s *categoryService) nameTaken(userID, name, exceptID string) (bool, error) {
	q := s.db.Model(&models.Category{}).Where("user_id = ? AND name = ?", userID, name)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateCategory creates a personal category with a name unique to the user.
func (s *categoryService) CreateCategory(userID, name string, categoryType models.CategoryType, icon, color string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "nombre is required")
	}
	if err := validCategoryType(categoryType); err != nil {
		return nil, err
	}

	taken, err := s.nameTaken(userID, name, "")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if taken {
		return nil, apperrors.ErrDuplicateCategory
	}

	category := &models.Category{
		UserID: &userID,
		Name:   name,
		Type:   categoryType,
		Icon:   icon,
		Color:  color,
	}
	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

func (s *categoryService) ownedCategory(userID, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// UpdateCategory changes an owned category. Global categories are reported
// as not found.
func (s *categoryService) UpdateCategory(userID, categoryID string, name *string, categoryType *models.CategoryType, icon, color *string) (*models.Category, error) {
	category, err := s.ownedCategory(userID, categoryID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "nombre cannot be empty")
		}
		if trimmed != category.Name {
			taken, err := s.nameTaken(userID, trimmed, category.ID)
			if err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if taken {
				return nil, apperrors.ErrDuplicateCategory
			}
		}
		updates["name"] = trimmed
	}
	if categoryType != nil {
		if err := validCategoryType(*categoryType); err != nil {
			return nil, err
		}
		updates["type"] = *categoryType
	}
	if icon != nil {
		updates["icon"] = *icon
	}
	if color != nil {
		updates["color"] = *color
	}

	if len(updates) > 0 {
		if err := s.db.Model(category).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return s.ownedCategory(userID, categoryID)
}

// DeleteCategory removes an owned category. Transactions keep their rows
// with the category cleared.
func (s *categoryService) DeleteCategory(userID, categoryID string) error {
	category, err := s.ownedCategory(userID, categoryID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Transaction{}).Where("category_id = ?", category.ID).Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Category{}, "id = ?", category.ID).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// CreateDefaultCategories gives a user with no personal categories the
// starter set and returns everything now visible to them.
func (s *categoryService) CreateDefaultCategories(userID string) ([]models.Category, error) {
	var count int64
	if err := s.db.Model(&models.Category{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrCategoriesExist
	}

	categories := make([]models.Category, 0, len(starterCategories))
	for _, seed := range starterCategories {
		categories = append(categories, models.Category{
			UserID: &userID,
			Name:   seed.name,
			Type:   seed.typ,
			Icon:   seed.icon,
			Color:  seed.color,
		})
	}
	if err := s.db.Create(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.GetUserCategories(userID)
}
