package models

// AuditLog records mutating user operations on budgets and cycle summaries.
type AuditLog struct {
	Base
	UserID       string `gorm:"type:uuid;not null;index" json:"usuario_id"`
	Action       string `gorm:"not null" json:"action"`
	ResourceType string `gorm:"not null" json:"resource_type"`
	ResourceID   string `json:"resource_id"`
	IPAddress    string `json:"ip_address"`
	Changes      string `json:"changes,omitempty"`
}

// All returns every persisted model in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&IdentityLink{},
		&Budget{},
		&Category{},
		&Transaction{},
		&CycleSummary{},
		&Subscription{},
		&WebhookEvent{},
		&AuditLog{},
	}
}
