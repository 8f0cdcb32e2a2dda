package services

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "github.com/JohanDJ0/restapi-gastos/internal/errors"
	"github.com/JohanDJ0/restapi-gastos/internal/metrics"
	"github.com/JohanDJ0/restapi-gastos/internal/models"
	"github.com/JohanDJ0/restapi-gastos/internal/period"
)

// cycleSummaryService closes budget cycles into persisted summaries.
type cycleSummaryService struct {
	db     *gorm.DB
	calc   *period.Calculator
	ledger TransactionServicer
}

// NewCycleSummaryService creates a new CycleSummaryServicer.
func NewCycleSummaryService(db *gorm.DB, calc *period.Calculator, ledger TransactionServicer) CycleSummaryServicer {
	return &cycleSummaryService{db: db, calc: calc, ledger: ledger}
}

func (s *cycleSummaryService) ownedBudget(userID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

func validLeftover(action models.LeftoverAction, amount *decimal.Decimal) error {
	if !action.Valid() {
		return apperrors.WithMessage(apperrors.ErrInvalidLeftoverAction,
			"Invalid accion_sobrante. Accepted values: "+strings.Join(models.LeftoverActions(), ", "))
	}
	if amount != nil && amount.IsNegative() {
		return apperrors.ErrNegativeLeftoverAmount
	}
	return nil
}

// prepare validates a close request and resolves its budget and close date.
func (s *cycleSummaryService) prepare(userID string, input *CloseCycleInput) (*models.Budget, time.Time, error) {
	if input.LeftoverAction == "" {
		input.LeftoverAction = models.LeftoverNone
	}
	if err := validLeftover(input.LeftoverAction, input.LeftoverAmount); err != nil {
		return nil, time.Time{}, err
	}
	if input.BudgetID == "" {
		return nil, time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "presupuesto_id is required")
	}
	budget, err := s.ownedBudget(userID, input.BudgetID)
	if err != nil {
		return nil, time.Time{}, err
	}

	closeDate := s.calc.Current()
	if input.CloseDate != nil {
		if input.CloseDate.IsZero() {
			return nil, time.Time{}, apperrors.ErrInvalidCloseDate
		}
		closeDate = *input.CloseDate
	}
	return budget, closeDate, nil
}

func (s *cycleSummaryService) record(budget *models.Budget, closeDate time.Time, totals WindowTotals, input CloseCycleInput, mode string) (*models.CycleSummary, error) {
	amount := decimal.Zero
	if input.LeftoverAmount != nil {
		amount = *input.LeftoverAmount
	}

	summary := &models.CycleSummary{
		BudgetID:       budget.ID,
		CloseDate:      closeDate,
		TotalIncome:    totals.Income,
		TotalExpense:   totals.Expense,
		NetBalance:     totals.Net(),
		LeftoverAction: input.LeftoverAction,
		LeftoverAmount: amount,
	}
	if err := s.db.Create(summary).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	summary.Budget = budget
	summary.Decorate()

	metrics.CycleSummariesCreated.WithLabelValues(mode).Inc()
	return summary, nil
}

// CloseCycle snapshots every transaction of the budget dated on or before
// the close date.
func (s *cycleSummaryService) CloseCycle(userID string, input CloseCycleInput) (*models.CycleSummary, error) {
	budget, closeDate, err := s.prepare(userID, &input)
	if err != nil {
		return nil, err
	}

	totals, err := s.ledger.SumByWindow(budget.ID, nil, closeDate)
	if err != nil {
		return nil, err
	}
	return s.record(budget, closeDate, totals, input, metrics.CloseModeManual)
}

// windowStart infers where the cycle ending at closeDate began: the week or
// month start for periodic budgets, else the previous close or the
// budget's creation.
func (s *cycleSummaryService) windowStart(budget *models.Budget, closeDate time.Time) (time.Time, error) {
	switch budget.Kind {
	case models.BudgetKindWeekly:
		return s.calc.WeekStart(closeDate), nil
	case models.BudgetKindMonthly:
		return s.calc.MonthStart(closeDate), nil
	}

	var previous models.CycleSummary
	err := s.db.Where("budget_id = ?", budget.ID).Order("close_date DESC").First(&previous).Error
	if err == nil {
		return previous.CloseDate, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return budget.CreatedAt, nil
	}
	return time.Time{}, apperrors.Wrap(apperrors.ErrInternalServer, err)
}

// CloseCycleAutomatic snapshots only the transactions inside the inferred window.
func (s *cycleSummaryService) CloseCycleAutomatic(userID string, input CloseCycleInput) (*AutomaticCycleSummary, error) {
	budget, closeDate, err := s.prepare(userID, &input)
	if err != nil {
		return nil, err
	}

	start, err := s.windowStart(budget, closeDate)
	if err != nil {
		return nil, err
	}
	totals, err := s.ledger.SumByWindow(budget.ID, &start, closeDate)
	if err != nil {
		return nil, err
	}

	summary, err := s.record(budget, closeDate, totals, input, metrics.CloseModeAutomatic)
	if err != nil {
		return nil, err
	}
	return &AutomaticCycleSummary{
		CycleSummary: *summary,
		WindowStart:  start,
		Window:       CycleWindow{Start: start, End: closeDate},
	}, nil
}

func (s *cycleSummaryService) ownedSummaries() *gorm.DB {
	return s.db.Model(&models.CycleSummary{}).
		Joins("JOIN budgets ON budgets.id = cycle_summaries.budget_id")
}

func (s *cycleSummaryService) list(q *gorm.DB) ([]models.CycleSummary, error) {
	var summaries []models.CycleSummary
	if err := q.Preload("Budget").Order("cycle_summaries.close_date DESC").Find(&summaries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for i := range summaries {
		summaries[i].Decorate()
	}
	return summaries, nil
}

// GetUserSummaries lists the user's summaries, latest close first.
func (s *cycleSummaryService) GetUserSummaries(userID string) ([]models.CycleSummary, error) {
	return s.list(s.ownedSummaries().Where("budgets.user_id = ?", userID))
}

// GetBudgetSummaries lists the summaries of one owned budget.
func (s *cycleSummaryService) GetBudgetSummaries(userID, budgetID string) ([]models.CycleSummary, error) {
	if _, err := s.ownedBudget(userID, budgetID); err != nil {
		return nil, err
	}
	return s.list(s.ownedSummaries().Where("budgets.user_id = ? AND cycle_summaries.budget_id = ?", userID, budgetID))
}

// GetSummaryByID returns a summary if its budget belongs to the user.
func (s *cycleSummaryService) GetSummaryByID(userID, summaryID string) (*models.CycleSummary, error) {
	var summary models.CycleSummary
	err := s.ownedSummaries().
		Preload("Budget").
		Where("cycle_summaries.id = ? AND budgets.user_id = ?", summaryID, userID).
		First(&summary).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCycleSummaryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	summary.Decorate()
	return &summary, nil
}

// UpdateSummary changes the leftover fields or the close date. A new close
// date recomputes the totals up to that date.
func (s *cycleSummaryService) UpdateSummary(userID, summaryID string, input UpdateCycleSummaryInput) (*models.CycleSummary, error) {
	summary, err := s.GetSummaryByID(userID, summaryID)
	if err != nil {
		return nil, err
	}

	action := summary.LeftoverAction
	if input.LeftoverAction != nil {
		action = *input.LeftoverAction
	}
	if err := validLeftover(action, input.LeftoverAmount); err != nil {
		return nil, err
	}

	updates := map[string]any{"leftover_action": action}
	if input.LeftoverAmount != nil {
		updates["leftover_amount"] = *input.LeftoverAmount
	}
	if input.CloseDate != nil {
		if input.CloseDate.IsZero() {
			return nil, apperrors.ErrInvalidCloseDate
		}
		if !input.CloseDate.Equal(summary.CloseDate) {
			totals, err := s.ledger.SumByWindow(summary.BudgetID, nil, *input.CloseDate)
			if err != nil {
				return nil, err
			}
			updates["close_date"] = *input.CloseDate
			updates["total_income"] = totals.Income
			updates["total_expense"] = totals.Expense
			updates["net_balance"] = totals.Net()
		}
	}

	if err := s.db.Model(&models.CycleSummary{}).Where("id = ?", summary.ID).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetSummaryByID(userID, summaryID)
}

// DeleteSummary removes a summary. Budgets and transactions are untouched.
func (s *cycleSummaryService) DeleteSummary(userID, summaryID string) error {
	summary, err := s.GetSummaryByID(userID, summaryID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(&models.CycleSummary{}, "id = ?", summary.ID).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

type accumulator struct {
	n                    int
	income, expense, net decimal.Decimal
	leftoverTotal        decimal.Decimal
	budgetName           string
	budgetKind           models.BudgetKind
}

func (a *accumulator) avg(sum decimal.Decimal) decimal.Decimal {
	if a.n == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(int64(a.n))).Round(2)
}

// GetStatistics aggregates the user's summaries overall, per budget and
// per leftover action.
func (s *cycleSummaryService) GetStatistics(userID string, filter StatisticsFilter) (*CycleStatistics, error) {
	q := s.ownedSummaries().Where("budgets.user_id = ?", userID)
	if filter.BudgetID != nil && *filter.BudgetID != "" {
		q = q.Where("cycle_summaries.budget_id = ?", *filter.BudgetID)
	}
	if filter.From != nil && filter.To != nil {
		q = q.Where("cycle_summaries.close_date BETWEEN ? AND ?", *filter.From, *filter.To)
	}

	summaries, err := s.list(q)
	if err != nil {
		return nil, err
	}

	var total accumulator
	positive, negative := 0, 0
	perBudget := map[string]*accumulator{}
	var budgetOrder []string
	perAction := map[models.LeftoverAction]*accumulator{}
	var actionOrder []models.LeftoverAction

	for _, sm := range summaries {
		total.n++
		total.income = total.income.Add(sm.TotalIncome)
		total.expense = total.expense.Add(sm.TotalExpense)
		total.net = total.net.Add(sm.NetBalance)
		switch {
		case sm.NetBalance.IsPositive():
			positive++
		case sm.NetBalance.IsNegative():
			negative++
		}

		b, ok := perBudget[sm.BudgetID]
		if !ok {
			b = &accumulator{budgetName: sm.BudgetName, budgetKind: sm.BudgetKind}
			perBudget[sm.BudgetID] = b
			budgetOrder = append(budgetOrder, sm.BudgetID)
		}
		b.n++
		b.income = b.income.Add(sm.TotalIncome)
		b.expense = b.expense.Add(sm.TotalExpense)
		b.net = b.net.Add(sm.NetBalance)

		a, ok := perAction[sm.LeftoverAction]
		if !ok {
			a = &accumulator{}
			perAction[sm.LeftoverAction] = a
			actionOrder = append(actionOrder, sm.LeftoverAction)
		}
		a.n++
		a.leftoverTotal = a.leftoverTotal.Add(sm.LeftoverAmount)
	}

	stats := &CycleStatistics{
		Overview: StatisticsOverview{
			TotalCycles:    total.n,
			AverageIncome:  total.avg(total.income),
			AverageExpense: total.avg(total.expense),
			AverageNet:     total.avg(total.net),
			PositiveCycles: positive,
			NegativeCycles: negative,
		},
		ByBudget: make([]BudgetStatistics, 0, len(budgetOrder)),
		ByAction: make([]LeftoverActionStatistics, 0, len(actionOrder)),
	}

	for _, id := range budgetOrder {
		b := perBudget[id]
		stats.ByBudget = append(stats.ByBudget, BudgetStatistics{
			BudgetID:       id,
			BudgetName:     b.budgetName,
			BudgetKind:     b.budgetKind,
			TotalCycles:    b.n,
			AverageIncome:  b.avg(b.income),
			AverageExpense: b.avg(b.expense),
			AverageNet:     b.avg(b.net),
		})
	}
	sort.SliceStable(stats.ByBudget, func(i, j int) bool {
		return stats.ByBudget[i].AverageNet.GreaterThan(stats.ByBudget[j].AverageNet)
	})

	for _, action := range actionOrder {
		a := perAction[action]
		stats.ByAction = append(stats.ByAction, LeftoverActionStatistics{
			Action:        action,
			Frequency:     a.n,
			AverageAmount: a.avg(a.leftoverTotal),
		})
	}
	sort.SliceStable(stats.ByAction, func(i, j int) bool {
		if stats.ByAction[i].Frequency != stats.ByAction[j].Frequency {
			return stats.ByAction[i].Frequency > stats.ByAction[j].Frequency
		}
		return stats.ByAction[i].Action < stats.ByAction[j].Action
	})

	return stats, nil
}
