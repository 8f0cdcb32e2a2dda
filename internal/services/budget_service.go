package services

import (
	"errors"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "github.com/JohanDJ0/restapi-gastos/internal/errors"
	"github.com/JohanDJ0/restapi-gastos/internal/metrics"
	"github.com/JohanDJ0/restapi-gastos/internal/models"
	"github.com/JohanDJ0/restapi-gastos/internal/period"
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db       *gorm.DB
	calc     *period.Calculator
	archival ArchivalServicer
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB, calc *period.Calculator, archival ArchivalServicer) BudgetServicer {
	return &budgetService{db: db, calc: calc, archival: archival}
}

// view annotates a budget with its expiration, near-expiration flag and
// current window. Custom budgets carry only the period name.
func (s *budgetService) view(b models.Budget) BudgetView {
	v := BudgetView{Budget: b, PeriodName: s.calc.Name(b.Kind, b.CreatedAt)}
	if exp, ok := s.calc.Expiration(b.Kind, b.CreatedAt); ok {
		near := s.calc.IsNearExpiration(b.Kind, b.CreatedAt, 3)
		v.ExpiresAt = &exp
		v.NearExpiration = &near
	}
	if info, ok := s.calc.Info(b.Kind, b.CreatedAt); ok {
		v.PeriodInfo = &info
	}
	return v
}

// clearDefault unsets the default flag on every other budget of the user.
func clearDefault(tx *gorm.DB, userID, exceptID string) error {
	q := tx.Model(&models.Budget{}).Where("user_id = ? AND is_default = ?", userID, true)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	return q.Update("is_default", false).Error
}

func (s *budgetService) find(userID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// CreateBudget creates a new budget. When the budget is marked default
// every other budget of the user loses the flag in the same transaction.
func (s *budgetService) CreateBudget(userID string, input CreateBudgetInput) (*BudgetView, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "nombre is required")
	}
	if !input.Kind.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidBudgetKind,
			"Invalid tipo. Accepted values: "+strings.Join(models.BudgetKinds(), ", "))
	}
	status := input.Status
	if status == "" {
		status = models.BudgetStatusActive
	}
	if !status.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidBudgetStatus,
			"Invalid estado. Accepted values: "+strings.Join(models.BudgetStatuses(), ", "))
	}
	if input.InitialAmount.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "monto_inicial cannot be negative")
	}

	available := input.InitialAmount
	if input.AvailableBalance != nil {
		available = *input.AvailableBalance
	}

	budget := &models.Budget{
		Base:             models.Base{CreatedAt: s.calc.Current()},
		UserID:           userID,
		Name:             name,
		Description:      input.Description,
		Kind:             input.Kind,
		InitialAmount:    input.InitialAmount,
		AvailableBalance: available,
		IsDefault:        input.IsDefault,
		Status:           status,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if budget.IsDefault {
			if err := clearDefault(tx, userID, ""); err != nil {
				return err
			}
		}
		return tx.Create(budget).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	v := s.view(*budget)
	return &v, nil
}

// GetUserBudgets archives the user's expired budgets, then lists every
// budget newest first.
func (s *budgetService) GetUserBudgets(userID string) ([]BudgetView, error) {
	s.archival.SweepForOwner(userID, metrics.TriggerRead)

	var budgets []models.Budget
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	views := make([]BudgetView, 0, len(budgets))
	for _, b := range budgets {
		views = append(views, s.view(b))
	}
	return views, nil
}

// GetBudgetByID returns a budget by ID if it belongs to the user.
func (s *budgetService) GetBudgetByID(userID, budgetID string) (*BudgetView, error) {
	if _, err := s.archival.CheckOne(userID, budgetID); err != nil {
		return nil, err
	}
	budget, err := s.find(userID, budgetID)
	if err != nil {
		return nil, err
	}
	v := s.view(*budget)
	return &v, nil
}

// GetDefaultBudget returns the user's default budget.
func (s *budgetService) GetDefaultBudget(userID string) (*BudgetView, error) {
	var budget models.Budget
	if err := s.db.Where("user_id = ? AND is_default = ?", userID, true).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNoDefaultBudget
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	archived, err := s.archival.CheckOne(userID, budget.ID)
	if err != nil {
		return nil, err
	}
	if archived {
		budget.Status = models.BudgetStatusArchived
	}

	v := s.view(budget)
	return &v, nil
}

// UpdateBudget applies the provided fields. The kind is fixed at creation
// and an archived budget cannot be set back to active.
func (s *budgetService) UpdateBudget(userID, budgetID string, input UpdateBudgetInput) (*BudgetView, error) {
	budget, err := s.find(userID, budgetID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "nombre cannot be empty")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Kind != nil {
		if !input.Kind.Valid() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidBudgetKind,
				"Invalid tipo. Accepted values: "+strings.Join(models.BudgetKinds(), ", "))
		}
		if *input.Kind != budget.Kind {
			return nil, apperrors.ErrBudgetKindFixed
		}
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidBudgetStatus,
				"Invalid estado. Accepted values: "+strings.Join(models.BudgetStatuses(), ", "))
		}
		if budget.Status == models.BudgetStatusArchived && *input.Status == models.BudgetStatusActive {
			return nil, apperrors.ErrBudgetReactivation
		}
		updates["status"] = *input.Status
	}
	if input.InitialAmount != nil {
		if input.InitialAmount.IsNegative() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "monto_inicial cannot be negative")
		}
		updates["initial_amount"] = *input.InitialAmount
	}
	if input.AvailableBalance != nil {
		updates["available_balance"] = *input.AvailableBalance
	}
	if input.IsDefault != nil {
		updates["is_default"] = *input.IsDefault
	}

	if len(updates) > 0 {
		err := s.db.Transaction(func(tx *gorm.DB) error {
			if input.IsDefault != nil && *input.IsDefault {
				if err := clearDefault(tx, userID, budget.ID); err != nil {
					return err
				}
			}
			return tx.Model(budget).Updates(updates).Error
		})
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return s.GetBudgetByID(userID, budgetID)
}

// DeleteBudget removes a budget together with its transactions and cycle summaries.
func (s *budgetService) DeleteBudget(userID, budgetID string) error {
	budget, err := s.find(userID, budgetID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("budget_id = ?", budget.ID).Delete(&models.Transaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("budget_id = ?", budget.ID).Delete(&models.CycleSummary{}).Error; err != nil {
			return err
		}
		return tx.Delete(budget).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// RenewBudget starts a fresh active budget from an expired or archived
// periodic one. Amounts default to the source's initial amount.
func (s *budgetService) RenewBudget(userID, budgetID string, initialAmount, availableBalance *decimal.Decimal) (*BudgetView, error) {
	if _, err := s.archival.CheckOne(userID, budgetID); err != nil {
		return nil, err
	}
	source, err := s.find(userID, budgetID)
	if err != nil {
		return nil, err
	}

	if source.Kind == models.BudgetKindCustom {
		return nil, apperrors.ErrCustomNotRenewable
	}
	if source.Status == models.BudgetStatusActive && !s.calc.IsExpired(source.Kind, source.CreatedAt) {
		return nil, apperrors.ErrBudgetNotExpired
	}

	initial := source.InitialAmount
	if initialAmount != nil {
		if initialAmount.IsNegative() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "monto_inicial cannot be negative")
		}
		initial = *initialAmount
	}
	available := initial
	if availableBalance != nil {
		available = *availableBalance
	}

	renewed := &models.Budget{
		Base:             models.Base{CreatedAt: s.calc.Current()},
		UserID:           userID,
		Name:             source.Name,
		Description:      source.Description,
		Kind:             source.Kind,
		InitialAmount:    initial,
		AvailableBalance: available,
		IsDefault:        source.IsDefault,
		Status:           models.BudgetStatusActive,
	}

	// The old default is cleared before the insert so the one-default index holds.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if renewed.IsDefault {
			if err := clearDefault(tx, userID, ""); err != nil {
				return err
			}
		}
		return tx.Create(renewed).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	v := s.view(*renewed)
	return &v, nil
}

// GetUpcomingExpirations returns the active periodic budgets expiring
// within lookaheadDays, soonest first.
func (s *budgetService) GetUpcomingExpirations(userID string, lookaheadDays float64) ([]BudgetView, error) {
	if lookaheadDays <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "dias must be greater than 0")
	}

	var budgets []models.Budget
	err := s.db.Where("user_id = ? AND status = ? AND kind IN ?", userID, models.BudgetStatusActive,
		[]models.BudgetKind{models.BudgetKindWeekly, models.BudgetKindMonthly}).
		Find(&budgets).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	views := []BudgetView{}
	for _, b := range budgets {
		if !s.calc.IsNearExpiration(b.Kind, b.CreatedAt, lookaheadDays) {
			continue
		}
		v := s.view(b)
		days := s.calc.DaysUntil(*v.ExpiresAt)
		v.DaysRemaining = &days
		views = append(views, v)
	}
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].ExpiresAt.Before(*views[j].ExpiresAt)
	})
	return views, nil
}
