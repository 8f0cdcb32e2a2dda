package models

import "time"

// Subscription mirrors a billing-provider subscription keyed by the
// external identity id and plan.
type Subscription struct {
	Base
	ExternalID         string     `gorm:"column:clerk_user_id;not null;uniqueIndex:idx_subscription_user_plan" json:"clerk_user_id"`
	PlanID             string     `gorm:"not null;uniqueIndex:idx_subscription_user_plan" json:"plan_id"`
	PlanKey            string     `json:"plan_key"`
	Status             string     `gorm:"not null;index" json:"status"`
	CurrentPeriodStart *time.Time `json:"current_period_start"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end"`
	CancelAtPeriodEnd  bool       `gorm:"not null;default:false" json:"cancel_at_period_end"`
}

// SubscriptionStatusActive is the only status that grants premium.
const SubscriptionStatusActive = "active"

// WebhookEvent is the raw record of a received billing webhook.
type WebhookEvent struct {
	Base
	EventType  string `gorm:"not null;index" json:"event_type"`
	ExternalID string `gorm:"column:clerk_user_id;index" json:"clerk_user_id"`
	PlanID     string `json:"plan_id"`
	EventData  string `gorm:"type:text" json:"event_data"`
}
