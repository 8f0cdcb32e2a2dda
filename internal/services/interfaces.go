package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JohanDJ0/restapi-gastos/internal/models"
	"github.com/JohanDJ0/restapi-gastos/internal/pagination"
	"github.com/JohanDJ0/restapi-gastos/internal/period"
)

// Identity is the verified subject of an identity-provider token.
type Identity struct {
	ExternalID string
	Email      string
	FirstName  string
	LastName   string
}

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	ResolveAccount(ctx context.Context, identity Identity) (string, error)
	GetUserByID(id string) (*models.User, error)
	GetProfile(id string) (*Profile, error)
}

// Profile is the caller's own account with its linked identity.
type Profile struct {
	models.User
	ExternalID string `json:"clerk_user_id"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
}

// ArchivalServicer moves periodic budgets whose window has ended to archived.
type ArchivalServicer interface {
	SweepForOwner(userID string, trigger string) []string
	CheckOne(userID, budgetID string) (bool, error)
	SweepAll(ctx context.Context, trigger string) []string
}

// CreateBudgetInput holds the fields accepted when creating a budget.
// A nil AvailableBalance starts the budget at its initial amount.
type CreateBudgetInput struct {
	Name             string
	Description      string
	Kind             models.BudgetKind
	InitialAmount    decimal.Decimal
	AvailableBalance *decimal.Decimal
	IsDefault        bool
	Status           models.BudgetStatus
}

// UpdateBudgetInput holds the optional fields of a budget update.
type UpdateBudgetInput struct {
	Name             *string
	Description      *string
	Kind             *models.BudgetKind
	InitialAmount    *decimal.Decimal
	AvailableBalance *decimal.Decimal
	IsDefault        *bool
	Status           *models.BudgetStatus
}

// BudgetView is a budget annotated with its period state.
type BudgetView struct {
	models.Budget
	ExpiresAt      *time.Time   `json:"fecha_expiracion,omitempty"`
	NearExpiration *bool        `json:"proximo_a_expirar,omitempty"`
	PeriodInfo     *period.Info `json:"informacion_periodo,omitempty"`
	PeriodName     string       `json:"nombre_periodo,omitempty"`
	DaysRemaining  *int         `json:"dias_restantes,omitempty"`
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(userID string, input CreateBudgetInput) (*BudgetView, error)
	GetUserBudgets(userID string) ([]BudgetView, error)
	GetBudgetByID(userID, budgetID string) (*BudgetView, error)
	GetDefaultBudget(userID string) (*BudgetView, error)
	UpdateBudget(userID, budgetID string, input UpdateBudgetInput) (*BudgetView, error)
	DeleteBudget(userID, budgetID string) error
	RenewBudget(userID, budgetID string, initialAmount, availableBalance *decimal.Decimal) (*BudgetView, error)
	GetUpcomingExpirations(userID string, lookaheadDays float64) ([]BudgetView, error)
}

// CreateTransactionInput holds the fields accepted when recording a transaction.
// A nil Date records the transaction at the current time.
type CreateTransactionInput struct {
	BudgetID    string
	Type        models.TransactionType
	CategoryID  *string
	Description *string
	Amount      decimal.Decimal
	Date        *time.Time
}

// UpdateTransactionInput holds the optional fields of a transaction update.
// A CategoryID pointing at the empty string clears the category.
type UpdateTransactionInput struct {
	BudgetID    *string
	Type        *models.TransactionType
	CategoryID  *string
	Description *string
	Amount      *decimal.Decimal
	Date        *time.Time
}

// WindowTotals are the income and expense sums of a budget over a date window.
type WindowTotals struct {
	Income  decimal.Decimal `json:"total_ingresos"`
	Expense decimal.Decimal `json:"total_gastos"`
}

// Net is income minus expense.
func (w WindowTotals) Net() decimal.Decimal {
	return w.Income.Sub(w.Expense)
}

// CategoryTotal is one row of the per-category breakdown of a summary.
type CategoryTotal struct {
	CategoryName  *string                `json:"categoria_nombre"`
	CategoryIcon  *string                `json:"categoria_icono"`
	CategoryColor *string                `json:"categoria_color"`
	Type          models.TransactionType `json:"tipo"`
	Total         decimal.Decimal        `json:"total"`
}

// TransactionSummary aggregates a user's ledger over an optional range.
type TransactionSummary struct {
	TotalIncome  decimal.Decimal `json:"total_ingresos"`
	TotalExpense decimal.Decimal `json:"total_gastos"`
	Count        int64           `json:"total_transacciones"`
	ByCategory   []CategoryTotal `json:"por_categoria"`
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(userID string, input CreateTransactionInput) (*models.Transaction, error)
	GetUserTransactions(userID string, page *pagination.PageRequest) ([]models.Transaction, int64, error)
	GetBudgetTransactions(userID, budgetID string) ([]models.Transaction, error)
	GetCategoryTransactions(userID, categoryID string) ([]models.Transaction, error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID string, input UpdateTransactionInput) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
	SumByWindow(budgetID string, start *time.Time, end time.Time) (WindowTotals, error)
	GetSummary(userID string, from, to *time.Time) (*TransactionSummary, error)
}

// CloseCycleInput holds the fields accepted when closing a cycle.
// A nil CloseDate closes at the current time.
type CloseCycleInput struct {
	BudgetID       string
	CloseDate      *time.Time
	LeftoverAction models.LeftoverAction
	LeftoverAmount *decimal.Decimal
}

// UpdateCycleSummaryInput holds the optional fields of a summary update.
type UpdateCycleSummaryInput struct {
	CloseDate      *time.Time
	LeftoverAction *models.LeftoverAction
	LeftoverAmount *decimal.Decimal
}

// CycleWindow is the date range an automatic close aggregated.
type CycleWindow struct {
	Start time.Time `json:"inicio"`
	End   time.Time `json:"fin"`
}

// AutomaticCycleSummary is a summary plus the window it was computed over.
type AutomaticCycleSummary struct {
	models.CycleSummary
	WindowStart time.Time   `json:"fecha_inicio"`
	Window      CycleWindow `json:"periodo_ciclo"`
}

// StatisticsFilter narrows the summaries aggregated into statistics.
// The date range applies only when both bounds are set.
type StatisticsFilter struct {
	BudgetID *string
	From     *time.Time
	To       *time.Time
}

// StatisticsOverview aggregates every matching summary.
type StatisticsOverview struct {
	TotalCycles    int             `json:"total_ciclos"`
	AverageIncome  decimal.Decimal `json:"promedio_ingresos"`
	AverageExpense decimal.Decimal `json:"promedio_gastos"`
	AverageNet     decimal.Decimal `json:"promedio_saldo"`
	PositiveCycles int             `json:"ciclos_positivos"`
	NegativeCycles int             `json:"ciclos_negativos"`
}

// BudgetStatistics aggregates the summaries of one budget.
type BudgetStatistics struct {
	BudgetID       string            `json:"presupuesto_id"`
	BudgetName     string            `json:"presupuesto_nombre"`
	BudgetKind     models.BudgetKind `json:"presupuesto_tipo"`
	TotalCycles    int               `json:"total_ciclos"`
	AverageIncome  decimal.Decimal   `json:"promedio_ingresos"`
	AverageExpense decimal.Decimal   `json:"promedio_gastos"`
	AverageNet     decimal.Decimal   `json:"promedio_saldo"`
}

// LeftoverActionStatistics counts how often a leftover action was chosen.
type LeftoverActionStatistics struct {
	Action        models.LeftoverAction `json:"accion_sobrante"`
	Frequency     int                   `json:"frecuencia"`
	AverageAmount decimal.Decimal       `json:"monto_promedio"`
}

// CycleStatistics is the full statistics report.
type CycleStatistics struct {
	Overview StatisticsOverview         `json:"estadisticas"`
	ByBudget []BudgetStatistics         `json:"por_presupuesto"`
	ByAction []LeftoverActionStatistics `json:"acciones_sobrantes"`
}

// CycleSummaryServicer defines the contract for cycle-close business logic.
type CycleSummaryServicer interface {
	CloseCycle(userID string, input CloseCycleInput) (*models.CycleSummary, error)
	CloseCycleAutomatic(userID string, input CloseCycleInput) (*AutomaticCycleSummary, error)
	GetUserSummaries(userID string) ([]models.CycleSummary, error)
	GetBudgetSummaries(userID, budgetID string) ([]models.CycleSummary, error)
	GetSummaryByID(userID, summaryID string) (*models.CycleSummary, error)
	UpdateSummary(userID, summaryID string, input UpdateCycleSummaryInput) (*models.CycleSummary, error)
	DeleteSummary(userID, summaryID string) error
	GetStatistics(userID string, filter StatisticsFilter) (*CycleStatistics, error)
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	GetUserCategories(userID string) ([]models.Category, error)
	GetUserCategoriesByType(userID string, categoryType models.CategoryType) ([]models.Category, error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
	CreateCategory(userID, name string, categoryType models.CategoryType, icon, color string) (*models.Category, error)
	UpdateCategory(userID, categoryID string, name *string, categoryType *models.CategoryType, icon, color *string) (*models.Category, error)
	DeleteCategory(userID, categoryID string) error
	CreateDefaultCategories(userID string) ([]models.Category, error)
}

// Feature names a free-tier quota.
type Feature string

const (
	FeatureCategories Feature = "categories"
	FeatureBudgets    Feature = "budgets"
)

// Limits are the free-tier quotas.
type Limits struct {
	MaxCategories int64
	MaxBudgets    int64
}

// DefaultLimits returns the stock free-tier quotas.
func DefaultLimits() Limits {
	return Limits{MaxCategories: 10, MaxBudgets: 3}
}

// LimitCheck is the outcome of a quota check.
type LimitCheck struct {
	Allowed bool   `json:"allowed"`
	Current int64  `json:"current"`
	Limit   int64  `json:"limit"`
	Message string `json:"message,omitempty"`
}

// SubscriptionInfo describes the caller's plan.
type SubscriptionInfo struct {
	HasSubscription   bool       `json:"has_subscription"`
	Plan              string     `json:"plan"`
	Status            string     `json:"status"`
	CurrentPeriodEnd  *time.Time `json:"current_period_end"`
	CancelAtPeriodEnd bool       `json:"cancel_at_period_end"`
	PlanID            string     `json:"plan_id,omitempty"`
}

// RecentSubscription is one row of the admin stats listing.
type RecentSubscription struct {
	ExternalID       string     `gorm:"column:clerk_user_id" json:"clerk_user_id"`
	PlanKey          string     `gorm:"column:plan_key" json:"plan_key"`
	Status           string     `gorm:"column:status" json:"status"`
	CurrentPeriodEnd *time.Time `gorm:"column:current_period_end" json:"current_period_end"`
	CreatedAt        time.Time  `gorm:"column:created_at" json:"created_at"`
	Email            *string    `gorm:"column:email" json:"email"`
}

// SubscriptionStats is the admin overview of the subscriber base.
type SubscriptionStats struct {
	ActiveSubscriptions int64                `json:"active_subscriptions"`
	PremiumUsers        int64                `json:"premium_users"`
	FreeUsers           int64                `json:"free_users"`
	RecentSubscriptions []RecentSubscription `json:"recent_subscriptions"`
}

// SubscriptionServicer defines the contract for entitlements and billing webhooks.
type SubscriptionServicer interface {
	HasPremium(ctx context.Context, externalID string) (bool, error)
	CheckLimit(ctx context.Context, userID string, feature Feature) (*LimitCheck, error)
	GetSubscriptionInfo(ctx context.Context, externalID string) (*SubscriptionInfo, error)
	HandleWebhook(ctx context.Context, eventType string, data json.RawMessage) error
	GetStats(ctx context.Context) (*SubscriptionStats, error)
}

// EntitlementCache is the optional read-through cache behind HasPremium.
type EntitlementCache interface {
	Get(ctx context.Context, externalID string) (premium bool, found bool, err error)
	Set(ctx context.Context, externalID string, premium bool) error
	Invalidate(ctx context.Context, externalID string) error
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}
