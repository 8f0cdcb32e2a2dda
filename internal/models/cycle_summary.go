package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LeftoverAction is what the user chose to do with a cycle's remainder.
type LeftoverAction string

const (
	LeftoverCarryForward LeftoverAction = "agregar_al_siguiente"
	LeftoverToSavings    LeftoverAction = "enviar_a_ahorro"
	LeftoverSubtractNext LeftoverAction = "restar_al_siguiente"
	LeftoverNone         LeftoverAction = "ninguna"
)

// LeftoverActions lists the accepted leftover actions.
func LeftoverActions() []string {
	return []string{
		string(LeftoverCarryForward),
		string(LeftoverToSavings),
		string(LeftoverSubtractNext),
		string(LeftoverNone),
	}
}

// Valid reports whether a is a known leftover action.
func (a LeftoverAction) Valid() bool {
	switch a {
	case LeftoverCarryForward, LeftoverToSavings, LeftoverSubtractNext, LeftoverNone:
		return true
	}
	return false
}

// CycleSummary is an immutable-by-default snapshot of a budget's totals
// at the close of a cycle. NetBalance is always TotalIncome - TotalExpense.
type CycleSummary struct {
	Base
	BudgetID       string          `gorm:"type:uuid;not null;index" json:"presupuesto_id"`
	CloseDate      time.Time       `gorm:"not null;index" json:"fecha_cierre"`
	TotalIncome    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"total_ingresos"`
	TotalExpense   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"total_gastos"`
	NetBalance     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"saldo_final"`
	LeftoverAction LeftoverAction  `gorm:"not null;default:'ninguna'" json:"accion_sobrante"`
	LeftoverAmount decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"monto_accion"`

	BudgetName string     `gorm:"-" json:"presupuesto_nombre,omitempty"`
	BudgetKind BudgetKind `gorm:"-" json:"presupuesto_tipo,omitempty"`

	Budget *Budget `gorm:"foreignKey:BudgetID;constraint:OnDelete:CASCADE" json:"-"`
}

// Decorate copies display fields from the loaded budget.
func (s *CycleSummary) Decorate() {
	if s.Budget != nil {
		s.BudgetName = s.Budget.Name
		s.BudgetKind = s.Budget.Kind
	}
}
