package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JohanDJ0/restapi-gastos/internal/models"

	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a free user with a unique name.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	user := &models.User{Name: fmt.Sprintf("Usuario %d", nextID()), Role: models.RoleFree}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestIdentity links externalID to userID.
func CreateTestIdentity(t *testing.T, db *gorm.DB, userID, externalID string) *models.IdentityLink {
	t.Helper()

	link := &models.IdentityLink{
		ExternalID: externalID,
		UserID:     userID,
		Email:      fmt.Sprintf("%s@test.com", externalID),
	}
	if err := db.Create(link).Error; err != nil {
		t.Fatalf("failed to create test identity link: %v", err)
	}
	return link
}

// CreateTestBudget creates an active, non-default budget whose initial
// and available amounts are both amount.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID string, kind models.BudgetKind, createdAt time.Time, amount string) *models.Budget {
	t.Helper()

	return CreateTestBudgetFrom(t, db, &models.Budget{
		Base:             models.Base{CreatedAt: createdAt},
		UserID:           userID,
		Name:             fmt.Sprintf("Presupuesto %d", nextID()),
		Kind:             kind,
		InitialAmount:    Dec(amount),
		AvailableBalance: Dec(amount),
		Status:           models.BudgetStatusActive,
	})
}

// CreateTestBudgetFrom inserts budget as given.
func CreateTestBudgetFrom(t *testing.T, db *gorm.DB, budget *models.Budget) *models.Budget {
	t.Helper()

	if budget.Status == "" {
		budget.Status = models.BudgetStatusActive
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestCategory creates a category owned by userID, or a global one if nil.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID *string, typ models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: userID,
		Name:   fmt.Sprintf("Categoria %d", nextID()),
		Type:   typ,
		Icon:   "🏷️",
		Color:  "#6c757d",
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestTransaction inserts a ledger row without touching the budget balance.
func CreateTestTransaction(t *testing.T, db *gorm.DB, budgetID string, typ models.TransactionType, amount string, date time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		BudgetID: budgetID,
		Type:     typ,
		Amount:   Dec(amount),
		Date:     date,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestCycleSummary inserts a summary with net computed from the totals.
func CreateTestCycleSummary(t *testing.T, db *gorm.DB, budgetID string, closeDate time.Time, income, expense string, action models.LeftoverAction) *models.CycleSummary {
	t.Helper()

	in, out := Dec(income), Dec(expense)
	summary := &models.CycleSummary{
		BudgetID:       budgetID,
		CloseDate:      closeDate,
		TotalIncome:    in,
		TotalExpense:   out,
		NetBalance:     in.Sub(out),
		LeftoverAction: action,
	}
	if err := db.Create(summary).Error; err != nil {
		t.Fatalf("failed to create test cycle summary: %v", err)
	}
	return summary
}

// CreateTestSubscription inserts a subscription row for externalID.
func CreateTestSubscription(t *testing.T, db *gorm.DB, externalID, planKey, status string, periodEnd *time.Time) *models.Subscription {
	t.Helper()

	sub := &models.Subscription{
		ExternalID:       externalID,
		PlanID:           fmt.Sprintf("cplan_%d", nextID()),
		PlanKey:          planKey,
		Status:           status,
		CurrentPeriodEnd: periodEnd,
	}
	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("failed to create test subscription: %v", err)
	}
	return sub
}
