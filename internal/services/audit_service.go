package services

import (
	"encoding/json"

	"github.com/JohanDJ0/restapi-gastos/internal/logger"
	"github.com/JohanDJ0/restapi-gastos/internal/models"

	"gorm.io/gorm"
)

// Audit actions recorded for budgets and cycle summaries.
const (
	AuditCreateBudget       = "CREATE_BUDGET"
	AuditUpdateBudget       = "UPDATE_BUDGET"
	AuditDeleteBudget       = "DELETE_BUDGET"
	AuditRenewBudget        = "RENEW_BUDGET"
	AuditCloseCycle         = "CLOSE_CYCLE"
	AuditUpdateCycleSummary = "UPDATE_CYCLE_SUMMARY"
	AuditDeleteCycleSummary = "DELETE_CYCLE_SUMMARY"

	AuditResourceBudget       = "budget"
	AuditResourceCycleSummary = "cycle_summary"
)

// auditService handles audit log recording.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audit event. Errors are logged but never propagate
// so the audited operation is not disrupted.
func (s *auditService) Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any) {
	var changesJSON string
	if changes != nil {
		data, err := json.Marshal(changes)
		if err != nil {
			logger.Get().Errorw("failed to marshal audit log changes", "error", err, "action", action)
			changesJSON = "{}"
		} else {
			changesJSON = string(data)
		}
	}

	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      changesJSON,
	}

	if err := s.db.Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to create audit log entry",
			"error", err,
			"user_id", userID,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
	}
}
