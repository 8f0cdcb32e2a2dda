package services

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "github.com/JohanDJ0/restapi-gastos/internal/errors"
	"github.com/JohanDJ0/restapi-gastos/internal/models"
	"github.com/JohanDJ0/restapi-gastos/internal/pagination"
)

// transactionService handles the ledger and keeps each budget's available
// balance in step with it.
type transactionService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db, now: time.Now}
}

// owned scopes a transaction query to budgets of userID.
func owned(db *gorm.DB, userID string) *gorm.DB {
	return db.Model(&models.Transaction{}).
		Joins("JOIN budgets ON budgets.id = transactions.budget_id").
		Where("budgets.user_id = ?", userID)
}

// adjustBalance adds delta to the budget's available balance in SQL so
// concurrent writers never overwrite each other.
func adjustBalance(tx *gorm.DB, budgetID string, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}
	return tx.Model(&models.Budget{}).
		Where("id = ?", budgetID).
		Update("available_balance", gorm.Expr("available_balance + ?", delta)).Error
}

func validType(t models.TransactionType) error {
	if !t.Valid() {
		return apperrors.WithMessage(apperrors.ErrInvalidTransactionType,
			"Invalid tipo. Accepted values: "+strings.Join(models.TransactionTypes(), ", "))
	}
	return nil
}

func (s *transactionService) ownedBudget(userID, budgetID string) error {
	var count int64
	if err := s.db.Model(&models.Budget{}).Where("id = ? AND user_id = ?", budgetID, userID).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrBudgetNotFound
	}
	return nil
}

// visibleCategory checks the category is global or owned by userID.
func (s *transactionService) visibleCategory(userID, categoryID string) error {
	var count int64
	err := s.db.Model(&models.Category{}).
		Where("id = ? AND (user_id IS NULL OR user_id = ?)", categoryID, userID).
		Count(&count).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrCategoryNotFound
	}
	return nil
}

// CreateTransaction records a ledger entry and applies its signed amount to
// the budget balance in the same database transaction.
func (s *transactionService) CreateTransaction(userID string, input CreateTransactionInput) (*models.Transaction, error) {
	if err := validType(input.Type); err != nil {
		return nil, err
	}
	if !input.Amount.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}
	if input.BudgetID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "presupuesto_id is required")
	}
	if err := s.ownedBudget(userID, input.BudgetID); err != nil {
		return nil, err
	}
	categoryID := input.CategoryID
	if categoryID != nil && *categoryID == "" {
		categoryID = nil
	}
	if categoryID != nil {
		if err := s.visibleCategory(userID, *categoryID); err != nil {
			return nil, err
		}
	}

	date := s.now()
	if input.Date != nil {
		date = *input.Date
	}

	transaction := &models.Transaction{
		BudgetID:    input.BudgetID,
		Type:        input.Type,
		CategoryID:  categoryID,
		Description: input.Description,
		Amount:      input.Amount,
		Date:        date,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(transaction).Error; err != nil {
			return err
		}
		return adjustBalance(tx, transaction.BudgetID, transaction.Type.Delta(transaction.Amount))
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.GetTransactionByID(userID, transaction.ID)
}

func (s *transactionService) list(q *gorm.DB) ([]models.Transaction, error) {
	var transactions []models.Transaction
	err := q.Preload("Budget").Preload("Category").
		Order("transactions.date DESC").
		Order("transactions.created_at DESC").
		Find(&transactions).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for i := range transactions {
		transactions[i].Decorate()
	}
	return transactions, nil
}

// GetUserTransactions lists every transaction of the user's budgets, newest
// first. A non-nil page limits the result and the total is returned alongside.
func (s *transactionService) GetUserTransactions(userID string, page *pagination.PageRequest) ([]models.Transaction, int64, error) {
	if page == nil {
		transactions, err := s.list(owned(s.db, userID))
		return transactions, int64(len(transactions)), err
	}

	page.Defaults()
	var total int64
	if err := owned(s.db, userID).Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	transactions, err := s.list(owned(s.db, userID).Scopes(pagination.Paginate(*page)))
	return transactions, total, err
}

// GetBudgetTransactions lists the transactions of one owned budget.
func (s *transactionService) GetBudgetTransactions(userID, budgetID string) ([]models.Transaction, error) {
	if err := s.ownedBudget(userID, budgetID); err != nil {
		return nil, err
	}
	return s.list(owned(s.db, userID).Where("transactions.budget_id = ?", budgetID))
}

// GetCategoryTransactions lists the user's transactions under a visible category.
func (s *transactionService) GetCategoryTransactions(userID, categoryID string) ([]models.Transaction, error) {
	if err := s.visibleCategory(userID, categoryID); err != nil {
		return nil, err
	}
	return s.list(owned(s.db, userID).Where("transactions.category_id = ?", categoryID))
}

// GetTransactionByID retrieves a transaction by ID for a specific user
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := owned(s.db, userID).
		Preload("Budget").Preload("Category").
		Where("transactions.id = ?", transactionID).
		First(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	transaction.Decorate()
	return &transaction, nil
}

// UpdateTransaction reverses the old entry's effect on its budget, applies
// the changes, then applies the new effect to the resulting budget.
func (s *transactionService) UpdateTransaction(userID, transactionID string, input UpdateTransactionInput) (*models.Transaction, error) {
	old, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}

	updated := *old
	updates := make(map[string]any)
	if input.BudgetID != nil && *input.BudgetID != old.BudgetID {
		if err := s.ownedBudget(userID, *input.BudgetID); err != nil {
			return nil, err
		}
		updated.BudgetID = *input.BudgetID
		updates["budget_id"] = updated.BudgetID
	}
	if input.Type != nil {
		if err := validType(*input.Type); err != nil {
			return nil, err
		}
		updated.Type = *input.Type
		updates["type"] = updated.Type
	}
	if input.Amount != nil {
		if !input.Amount.IsPositive() {
			return nil, apperrors.ErrInvalidAmount
		}
		updated.Amount = *input.Amount
		updates["amount"] = updated.Amount
	}
	if input.CategoryID != nil {
		if *input.CategoryID == "" {
			updates["category_id"] = nil
		} else {
			if err := s.visibleCategory(userID, *input.CategoryID); err != nil {
				return nil, err
			}
			updates["category_id"] = *input.CategoryID
		}
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Date != nil {
		updates["date"] = *input.Date
	}

	if len(updates) == 0 {
		return old, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := adjustBalance(tx, old.BudgetID, old.Type.Delta(old.Amount).Neg()); err != nil {
			return err
		}
		if err := tx.Model(&models.Transaction{}).Where("id = ?", old.ID).Updates(updates).Error; err != nil {
			return err
		}
		return adjustBalance(tx, updated.BudgetID, updated.Type.Delta(updated.Amount))
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.GetTransactionByID(userID, transactionID)
}

// DeleteTransaction deletes a transaction and reverses its balance effect.
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Transaction{}, "id = ?", transaction.ID).Error; err != nil {
			return err
		}
		return adjustBalance(tx, transaction.BudgetID, transaction.Type.Delta(transaction.Amount).Neg())
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

type windowRow struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// SumByWindow totals a budget's income and expense dated within
// [start, end]. A nil start means no lower bound.
func (s *transactionService) SumByWindow(budgetID string, start *time.Time, end time.Time) (WindowTotals, error) {
	q := s.db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE 0 END), 0) AS income, "+
			"COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE 0 END), 0) AS expense",
			models.TransactionTypeIncome, models.TransactionTypeExpense).
		Where("budget_id = ? AND date <= ?", budgetID, end)
	if start != nil {
		q = q.Where("date >= ?", *start)
	}

	var row windowRow
	if err := q.Scan(&row).Error; err != nil {
		return WindowTotals{}, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return WindowTotals{Income: row.Income.Round(2), Expense: row.Expense.Round(2)}, nil
}

type summaryRow struct {
	Income     decimal.Decimal
	Expense    decimal.Decimal
	TotalCount int64
}

// GetSummary totals the user's ledger within an optional date range and
// breaks it down per category and type.
func (s *transactionService) GetSummary(userID string, from, to *time.Time) (*TransactionSummary, error) {
	scoped := func() *gorm.DB {
		q := owned(s.db, userID)
		if from != nil {
			q = q.Where("transactions.date >= ?", *from)
		}
		if to != nil {
			q = q.Where("transactions.date <= ?", *to)
		}
		return q
	}

	var totals summaryRow
	err := scoped().
		Select("COALESCE(SUM(CASE WHEN transactions.type = ? THEN transactions.amount ELSE 0 END), 0) AS income, "+
			"COALESCE(SUM(CASE WHEN transactions.type = ? THEN transactions.amount ELSE 0 END), 0) AS expense, "+
			"COUNT(*) AS total_count",
			models.TransactionTypeIncome, models.TransactionTypeExpense).
		Scan(&totals).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var byCategory []CategoryTotal
	err = scoped().
		Select("categories.name AS category_name, categories.icon AS category_icon, categories.color AS category_color, " +
			"transactions.type AS type, SUM(transactions.amount) AS total").
		Joins("LEFT JOIN categories ON categories.id = transactions.category_id").
		Group("categories.id, categories.name, categories.icon, categories.color, transactions.type").
		Order("total DESC").
		Scan(&byCategory).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for i := range byCategory {
		byCategory[i].Total = byCategory[i].Total.Round(2)
	}
	if byCategory == nil {
		byCategory = []CategoryTotal{}
	}

	return &TransactionSummary{
		TotalIncome:  totals.Income.Round(2),
		TotalExpense: totals.Expense.Round(2),
		Count:        totals.TotalCount,
		ByCategory:   byCategory,
	}, nil
}
