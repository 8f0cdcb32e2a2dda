package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/JohanDJ0/restapi-gastos/internal/errors"
	"github.com/JohanDJ0/restapi-gastos/internal/logger"
	"github.com/JohanDJ0/restapi-gastos/internal/models"
	"github.com/JohanDJ0/restapi-gastos/internal/services"
)

// SubscriptionHandler handles plan lookups and billing webhooks.
type SubscriptionHandler struct {
	subscriptionService services.SubscriptionServicer
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subscriptionService services.SubscriptionServicer) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

// WebhookRequest is the envelope the billing provider posts.
type WebhookRequest struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data" swaggertype:"object"`
}

// SuccessResponse wraps a successful payload.
type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// PremiumCheck is the body of the subscription check.
type PremiumCheck struct {
	HasPremium bool        `json:"hasPremium"`
	Plan       models.Role `json:"plan"`
}

// GetInfo handles describing the caller's plan.
// @Summary     Subscription info
// @Tags        suscripciones
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} SuccessResponse{data=services.SubscriptionInfo} "Plan details"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /subscription/info [get]
func (h *SubscriptionHandler) GetInfo(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	info, err := h.subscriptionService.GetSubscriptionInfo(c.Request.Context(), identity.ExternalID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: info})
}

// Check handles the premium entitlement lookup.
// @Summary     Check premium
// @Tags        suscripciones
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} SuccessResponse{data=PremiumCheck} "Entitlement"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /subscription/check [get]
func (h *SubscriptionHandler) Check(c *gin.Context) {
	identity, err := getIdentity(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	premium, err := h.subscriptionService.HasPremium(c.Request.Context(), identity.ExternalID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	plan := models.RoleFree
	if premium {
		plan = models.RolePremium
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: PremiumCheck{HasPremium: premium, Plan: plan}})
}

// Webhook handles billing-provider subscription events.
// @Summary     Subscription webhook
// @Description Unauthenticated. Events are recorded and acknowledged; unknown types are ignored.
// @Tags        suscripciones
// @Accept      json
// @Produce     json
// @Param       request body WebhookRequest true "Webhook event"
// @Success     200 {object} SuccessResponse "Acknowledged"
// @Failure     400 {object} ErrorResponse "Body is not JSON"
// @Router      /webhook/subscription [post]
func (h *SubscriptionHandler) Webhook(c *gin.Context) {
	var req WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Webhook body must be a JSON object"))
		return
	}

	if err := h.subscriptionService.HandleWebhook(c.Request.Context(), req.Type, req.Data); err != nil {
		logger.Get().Errorw("webhook processing failed", "event_type", req.Type, "error", err)
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// GetStats handles the admin subscriber overview.
// @Summary     Subscription stats
// @Tags        admin
// @Produce     json
// @Security    AdminKey
// @Success     200 {object} SuccessResponse{data=services.SubscriptionStats} "Stats"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     503 {object} ErrorResponse "Admin endpoints disabled"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/subscription/stats [get]
func (h *SubscriptionHandler) GetStats(c *gin.Context) {
	stats, err := h.subscriptionService.GetStats(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: stats})
}
