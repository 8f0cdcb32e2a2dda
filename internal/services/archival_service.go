package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	apperrors "github.com/JohanDJ0/restapi-gastos/internal/errors"
	"github.com/JohanDJ0/restapi-gastos/internal/logger"
	"github.com/JohanDJ0/restapi-gastos/internal/metrics"
	"github.com/JohanDJ0/restapi-gastos/internal/models"
	"github.com/JohanDJ0/restapi-gastos/internal/period"
)

// archivalService flips expired weekly and monthly budgets to archived.
type archivalService struct {
	db   *gorm.DB
	calc *period.Calculator
}

// NewArchivalService creates a new ArchivalServicer.
func NewArchivalService(db *gorm.DB, calc *period.Calculator) ArchivalServicer {
	return &archivalService{db: db, calc: calc}
}

// archive marks budget archived if it is still active. It reports false
// when another writer archived or deleted the row first.
func (s *archivalService) archive(db *gorm.DB, budget *models.Budget) (bool, error) {
	result := db.Model(&models.Budget{}).
		Where("id = ? AND status = ?", budget.ID, models.BudgetStatusActive).
		Update("status", models.BudgetStatusArchived)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	budget.Status = models.BudgetStatusArchived
	return true, nil
}

func (s *archivalService) sweep(db *gorm.DB, userID, trigger string) []string {
	var budgets []models.Budget
	err := db.Where("user_id = ? AND status = ? AND kind IN ?", userID, models.BudgetStatusActive,
		[]models.BudgetKind{models.BudgetKindWeekly, models.BudgetKindMonthly}).
		Find(&budgets).Error
	if err != nil {
		metrics.ArchivalSweepErrors.Inc()
		logger.Get().Errorw("failed to load budgets for archival", "error", err, "user_id", userID)
		return nil
	}

	archived := []string{}
	for i := range budgets {
		b := &budgets[i]
		if !s.calc.IsExpired(b.Kind, b.CreatedAt) {
			continue
		}
		ok, err := s.archive(db, b)
		if err != nil {
			metrics.ArchivalSweepErrors.Inc()
			logger.Get().Errorw("failed to archive budget", "error", err, "budget_id", b.ID, "user_id", userID)
			continue
		}
		if ok {
			archived = append(archived, b.ID)
		}
	}

	if len(archived) > 0 {
		metrics.BudgetsArchived.WithLabelValues(trigger).Add(float64(len(archived)))
		logger.Get().Infow("archived expired budgets", "user_id", userID, "count", len(archived), "trigger", trigger)
	}
	return archived
}

// SweepForOwner archives every expired active periodic budget of the user
// and returns the ids it archived. Failures are logged, never returned.
func (s *archivalService) SweepForOwner(userID, trigger string) []string {
	return s.sweep(s.db, userID, trigger)
}

// CheckOne archives a single budget if its window has ended.
func (s *archivalService) CheckOne(userID, budgetID string) (bool, error) {
	var budget models.Budget
	if err := s.db.Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, apperrors.ErrBudgetNotFound
		}
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if budget.Status != models.BudgetStatusActive || !budget.Kind.Periodic() {
		return false, nil
	}
	if !s.calc.IsExpired(budget.Kind, budget.CreatedAt) {
		return false, nil
	}

	ok, err := s.archive(s.db, &budget)
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if ok {
		metrics.BudgetsArchived.WithLabelValues(metrics.TriggerRead).Inc()
	}
	return ok, nil
}

// SweepAll runs SweepForOwner for every user owning an active periodic budget.
func (s *archivalService) SweepAll(ctx context.Context, trigger string) []string {
	db := s.db.WithContext(ctx)

	var owners []string
	err := db.Model(&models.Budget{}).
		Distinct("user_id").
		Where("status = ? AND kind IN ?", models.BudgetStatusActive,
			[]models.BudgetKind{models.BudgetKindWeekly, models.BudgetKindMonthly}).
		Pluck("user_id", &owners).Error
	if err != nil {
		metrics.ArchivalSweepErrors.Inc()
		logger.Get().Errorw("failed to list budget owners for archival", "error", err)
		return nil
	}

	archived := []string{}
	for _, owner := range owners {
		if ctx.Err() != nil {
			logger.Get().Warnw("archival sweep interrupted", "error", ctx.Err(), "archived", len(archived))
			break
		}
		archived = append(archived, s.sweep(db, owner, trigger)...)
	}
	return archived
}
