package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a ledger entry.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "ingreso"
	TransactionTypeExpense TransactionType = "gasto"
)

// TransactionTypes lists the accepted transaction types.
func TransactionTypes() []string {
	return []string{string(TransactionTypeIncome), string(TransactionTypeExpense)}
}

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// Sign returns +1 for income and -1 for expense.
func (t TransactionType) Sign() int64 {
	if t == TransactionTypeExpense {
		return -1
	}
	return 1
}

// Delta is the signed effect of a transaction of this type on a budget balance.
func (t TransactionType) Delta(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(t.Sign()))
}

// Transaction is one ledger entry inside a budget.
type Transaction struct {
	Base
	BudgetID    string          `gorm:"type:uuid;not null;index" json:"presupuesto_id"`
	Type        TransactionType `gorm:"not null" json:"tipo"`
	CategoryID  *string         `gorm:"type:uuid;index" json:"categoria_id"`
	Description *string         `json:"descripcion"`
	Amount      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"monto"`
	Date        time.Time       `gorm:"not null;index" json:"fecha"`

	// Read-side decorations filled from the preloaded relations.
	BudgetName    string  `gorm:"-" json:"presupuesto_nombre,omitempty"`
	CategoryName  *string `gorm:"-" json:"categoria_nombre,omitempty"`
	CategoryIcon  *string `gorm:"-" json:"categoria_icono,omitempty"`
	CategoryColor *string `gorm:"-" json:"categoria_color,omitempty"`

	Budget   *Budget   `gorm:"foreignKey:BudgetID;constraint:OnDelete:CASCADE" json:"-"`
	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"-"`
}

// Decorate copies display fields from the loaded relations.
func (t *Transaction) Decorate() {
	if t.Budget != nil {
		t.BudgetName = t.Budget.Name
	}
	if t.Category != nil {
		name, icon, color := t.Category.Name, t.Category.Icon, t.Category.Color
		t.CategoryName, t.CategoryIcon, t.CategoryColor = &name, &icon, &color
	}
}
