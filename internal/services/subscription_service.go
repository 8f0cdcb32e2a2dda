package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "github.com/JohanDJ0/restapi-gastos/internal/errors"
	"github.com/JohanDJ0/restapi-gastos/internal/logger"
	"github.com/JohanDJ0/restapi-gastos/internal/metrics"
	"github.com/JohanDJ0/restapi-gastos/internal/models"
)

// Billing webhook event types.
const (
	EventSubscriptionCreated   = "subscription.created"
	EventSubscriptionUpdated   = "subscription.updated"
	EventSubscriptionCancelled = "subscription.cancelled"
	EventPaymentFailed         = "subscription.payment_failed"
	EventPaymentSucceeded      = "subscription.payment_succeeded"
)

// webhookData is the data object of a billing webhook. Period bounds are
// unix seconds.
type webhookData struct {
	UserID       string `json:"user_id"`
	Subscription *struct {
		UserID             string `json:"user_id"`
		PlanID             string `json:"plan_id"`
		PlanKey            string `json:"plan_key"`
		Status             string `json:"status"`
		CurrentPeriodStart *int64 `json:"current_period_start"`
		CurrentPeriodEnd   *int64 `json:"current_period_end"`
		CancelAtPeriodEnd  bool   `json:"cancel_at_period_end"`
	} `json:"subscription"`
}

func (d webhookData) externalID() string {
	if d.UserID != "" {
		return d.UserID
	}
	if d.Subscription != nil {
		return d.Subscription.UserID
	}
	return ""
}

func unixTime(v *int64) *time.Time {
	if v == nil || *v == 0 {
		return nil
	}
	t := time.Unix(*v, 0).UTC()
	return &t
}

// subscriptionService handles entitlements and billing webhooks.
type subscriptionService struct {
	db             *gorm.DB
	cache          EntitlementCache
	premiumPlanKey string
	limits         Limits
	now            func() time.Time
}

// NewSubscriptionService creates a new SubscriptionServicer. cache may be nil.
func NewSubscriptionService(db *gorm.DB, cache EntitlementCache, premiumPlanKey string, limits Limits) SubscriptionServicer {
	return &subscriptionService{
		db:             db,
		cache:          cache,
		premiumPlanKey: premiumPlanKey,
		limits:         limits,
		now:            time.Now,
	}
}

func (s *subscriptionService) premiumFromDB(ctx context.Context, externalID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("clerk_user_id = ? AND plan_key = ? AND status = ?", externalID, s.premiumPlanKey, models.SubscriptionStatusActive).
		Where("current_period_end IS NULL OR current_period_end > ?", s.now().UTC()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasPremium reports whether the identity holds an active premium
// subscription. Cache failures fall back to the database.
func (s *subscriptionService) HasPremium(ctx context.Context, externalID string) (bool, error) {
	if s.cache != nil {
		premium, found, err := s.cache.Get(ctx, externalID)
		switch {
		case err != nil:
			metrics.EntitlementCacheLookups.WithLabelValues("error").Inc()
			logger.Get().Warnw("entitlement cache read failed", "error", err, "clerk_user_id", externalID)
		case found:
			metrics.EntitlementCacheLookups.WithLabelValues("hit").Inc()
			return premium, nil
		default:
			metrics.EntitlementCacheLookups.WithLabelValues("miss").Inc()
		}
	}

	premium, err := s.premiumFromDB(ctx, externalID)
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, externalID, premium); err != nil {
			logger.Get().Warnw("entitlement cache write failed", "error", err, "clerk_user_id", externalID)
		}
	}
	return premium, nil
}

// CheckLimit compares the user's usage of feature with the free-tier quota.
func (s *subscriptionService) CheckLimit(ctx context.Context, userID string, feature Feature) (*LimitCheck, error) {
	db := s.db.WithContext(ctx)
	var (
		count int64
		limit int64
		msg   string
		err   error
	)

	switch feature {
	case FeatureCategories:
		limit = s.limits.MaxCategories
		err = db.Model(&models.Category{}).Where("user_id = ?", userID).Count(&count).Error
		msg = fmt.Sprintf("Free users can only create up to %d categories. Upgrade to Premium for unlimited categories.", limit)
	case FeatureBudgets:
		limit = s.limits.MaxBudgets
		err = db.Model(&models.Budget{}).Where("user_id = ? AND status = ?", userID, models.BudgetStatusActive).Count(&count).Error
		msg = fmt.Sprintf("Free users can only have %d active budgets. Upgrade to Premium for unlimited budgets.", limit)
	default:
		return &LimitCheck{Allowed: true}, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	check := &LimitCheck{Allowed: count < limit, Current: count, Limit: limit}
	if !check.Allowed {
		check.Message = msg
	}
	return check, nil
}

// GetSubscriptionInfo describes the identity's most recent subscription.
func (s *subscriptionService) GetSubscriptionInfo(ctx context.Context, externalID string) (*SubscriptionInfo, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).Where("clerk_user_id = ?", externalID).Order("created_at DESC").First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &SubscriptionInfo{Plan: string(models.RoleFree)}, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	plan := models.RoleFree
	if sub.PlanKey == s.premiumPlanKey {
		plan = models.RolePremium
	}
	return &SubscriptionInfo{
		HasSubscription:   true,
		Plan:              string(plan),
		Status:            sub.Status,
		CurrentPeriodEnd:  sub.CurrentPeriodEnd,
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		PlanID:            sub.PlanID,
	}, nil
}

// HandleWebhook records a billing event and applies it. Only a failure to
// record the event is returned; everything after is logged.
func (s *subscriptionService) HandleWebhook(ctx context.Context, eventType string, data json.RawMessage) error {
	log := logger.Get()

	var payload webhookData
	if len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			log.Warnw("webhook data is not an object", "event_type", eventType, "error", err)
		}
	}

	event := &models.WebhookEvent{
		EventType:  eventType,
		ExternalID: payload.externalID(),
		EventData:  string(data),
	}
	if payload.Subscription != nil {
		event.PlanID = payload.Subscription.PlanID
	}
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	switch eventType {
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionCancelled,
		EventPaymentFailed, EventPaymentSucceeded:
	default:
		log.Infow("unhandled webhook type", "event_type", eventType)
		return nil
	}

	if payload.Subscription == nil || payload.UserID == "" {
		log.Warnw("webhook missing subscription or user_id", "event_type", eventType)
		return nil
	}

	var err error
	switch eventType {
	case EventSubscriptionCreated:
		if payload.Subscription.PlanKey != s.premiumPlanKey {
			log.Infow("ignoring non-premium plan", "plan_key", payload.Subscription.PlanKey)
			return nil
		}
		err = s.upsert(ctx, payload)
	case EventSubscriptionUpdated:
		err = s.updatePeriod(ctx, payload)
	default:
		err = s.updateStatus(ctx, payload)
	}
	if err != nil {
		log.Errorw("failed to apply webhook", "event_type", eventType, "clerk_user_id", payload.UserID, "error", err)
		return nil
	}

	s.refreshRole(ctx, payload.UserID)
	log.Infow("webhook applied", "event_type", eventType, "clerk_user_id", payload.UserID)
	return nil
}

func (s *subscriptionService) upsert(ctx context.Context, p webhookData) error {
	sub := &models.Subscription{
		ExternalID:         p.UserID,
		PlanID:             p.Subscription.PlanID,
		PlanKey:            p.Subscription.PlanKey,
		Status:             p.Subscription.Status,
		CurrentPeriodStart: unixTime(p.Subscription.CurrentPeriodStart),
		CurrentPeriodEnd:   unixTime(p.Subscription.CurrentPeriodEnd),
		CancelAtPeriodEnd:  p.Subscription.CancelAtPeriodEnd,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "clerk_user_id"}, {Name: "plan_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "current_period_start", "current_period_end", "cancel_at_period_end", "updated_at",
		}),
	}).Create(sub).Error
}

func (s *subscriptionService) updatePeriod(ctx context.Context, p webhookData) error {
	return s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("clerk_user_id = ? AND plan_id = ?", p.UserID, p.Subscription.PlanID).
		Updates(map[string]any{
			"status":               p.Subscription.Status,
			"current_period_start": unixTime(p.Subscription.CurrentPeriodStart),
			"current_period_end":   unixTime(p.Subscription.CurrentPeriodEnd),
			"cancel_at_period_end": p.Subscription.CancelAtPeriodEnd,
		}).Error
}

func (s *subscriptionService) updateStatus(ctx context.Context, p webhookData) error {
	return s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("clerk_user_id = ? AND plan_id = ?", p.UserID, p.Subscription.PlanID).
		Update("status", p.Subscription.Status).Error
}

// refreshRole recomputes the linked user's role and drops the cached answer.
func (s *subscriptionService) refreshRole(ctx context.Context, externalID string) {
	log := logger.Get()

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, externalID); err != nil {
			log.Warnw("entitlement cache invalidate failed", "error", err, "clerk_user_id", externalID)
		}
	}

	premium, err := s.premiumFromDB(ctx, externalID)
	if err != nil {
		log.Errorw("failed to check premium for role update", "error", err, "clerk_user_id", externalID)
		return
	}

	link, err := findLink(s.db.WithContext(ctx), externalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Infow("no local user linked to identity", "clerk_user_id", externalID)
		} else {
			log.Errorw("failed to load identity link", "error", err, "clerk_user_id", externalID)
		}
		return
	}

	role := models.RoleFree
	if premium {
		role = models.RolePremium
	}
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", link.UserID).Update("rol", role).Error; err != nil {
		log.Errorw("failed to update user role", "error", err, "user_id", link.UserID)
	}
}

// GetStats summarises the subscriber base for administrators.
func (s *subscriptionService) GetStats(ctx context.Context) (*SubscriptionStats, error) {
	db := s.db.WithContext(ctx)
	stats := &SubscriptionStats{RecentSubscriptions: []RecentSubscription{}}

	if err := db.Model(&models.Subscription{}).Where("status = ?", models.SubscriptionStatusActive).
		Count(&stats.ActiveSubscriptions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := db.Model(&models.User{}).Where("rol = ?", models.RolePremium).Count(&stats.PremiumUsers).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := db.Model(&models.User{}).Where("rol = ?", models.RoleFree).Count(&stats.FreeUsers).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	err := db.Table("subscriptions").
		Select("subscriptions.clerk_user_id, subscriptions.plan_key, subscriptions.status, subscriptions.current_period_end, subscriptions.created_at, identity_links.email").
		Joins("LEFT JOIN identity_links ON identity_links.clerk_user_id = subscriptions.clerk_user_id").
		Where("subscriptions.status = ?", models.SubscriptionStatusActive).
		Order("subscriptions.created_at DESC").
		Limit(10).
		Scan(&stats.RecentSubscriptions).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return stats, nil
}
