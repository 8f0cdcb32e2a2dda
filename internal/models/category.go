package models

// CategoryType mirrors the transaction type a category applies to.
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "ingreso"
	CategoryTypeExpense CategoryType = "gasto"
)

// CategoryTypes lists the accepted category types.
func CategoryTypes() []string {
	return []string{string(CategoryTypeIncome), string(CategoryTypeExpense)}
}

// Valid reports whether t is a known category type.
func (t CategoryType) Valid() bool {
	return t == CategoryTypeIncome || t == CategoryTypeExpense
}

// Category labels transactions. A nil UserID marks a global default
// category that every user can see and nobody can edit.
type Category struct {
	Base
	UserID *string      `gorm:"type:uuid;index" json:"usuario_id"`
	Name   string       `gorm:"not null" json:"nombre"`
	Type   CategoryType `gorm:"not null" json:"tipo"`
	Icon   string       `json:"icono"`
	Color  string       `json:"color"`
}

// IsGlobal reports whether the category is a shared default.
func (c *Category) IsGlobal() bool {
	return c.UserID == nil
}
