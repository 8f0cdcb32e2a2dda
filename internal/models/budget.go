package models

import "github.com/shopspring/decimal"

// BudgetKind is the period kind of a budget. It is fixed at creation.
type BudgetKind string

const (
	BudgetKindWeekly  BudgetKind = "semanal"
	BudgetKindMonthly BudgetKind = "mensual"
	BudgetKindCustom  BudgetKind = "personalizado"
)

// BudgetKinds lists the accepted budget kinds in wire order.
func BudgetKinds() []string {
	return []string{string(BudgetKindWeekly), string(BudgetKindMonthly), string(BudgetKindCustom)}
}

// Valid reports whether k is a known budget kind.
func (k BudgetKind) Valid() bool {
	switch k {
	case BudgetKindWeekly, BudgetKindMonthly, BudgetKindCustom:
		return true
	}
	return false
}

// Periodic reports whether budgets of this kind expire on a calendar boundary.
func (k BudgetKind) Periodic() bool {
	return k == BudgetKindWeekly || k == BudgetKindMonthly
}

// BudgetStatus is the lifecycle state of a budget.
type BudgetStatus string

const (
	BudgetStatusActive   BudgetStatus = "activo"
	BudgetStatusArchived BudgetStatus = "archivado"
)

// BudgetStatuses lists the accepted budget statuses.
func BudgetStatuses() []string {
	return []string{string(BudgetStatusActive), string(BudgetStatusArchived)}
}

// Valid reports whether s is a known budget status.
func (s BudgetStatus) Valid() bool {
	return s == BudgetStatusActive || s == BudgetStatusArchived
}

// Budget is a per-user spending envelope with a running available balance.
// At most one budget per user has IsDefault set.
type Budget struct {
	Base
	UserID           string          `gorm:"type:uuid;not null;index" json:"usuario_id"`
	Name             string          `gorm:"not null" json:"nombre"`
	Description      string          `json:"descripcion"`
	Kind             BudgetKind      `gorm:"not null" json:"tipo"`
	InitialAmount    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"monto_inicial"`
	AvailableBalance decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"saldo_disponible"`
	IsDefault        bool            `gorm:"not null;default:false;index" json:"es_predeterminado"`
	Status           BudgetStatus    `gorm:"not null;default:'activo';index" json:"estado"`
}
