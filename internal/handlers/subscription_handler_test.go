package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/JohanDJ0/restapi-gastos/internal/models"
	"github.com/JohanDJ0/restapi-gastos/internal/services"
)

const testExternalID = "user_2abcDEF"

// --- mocks ---

type mockSubscriptionService struct {
	hasPremiumFn          func(ctx context.Context, externalID string) (bool, error)
	checkLimitFn          func(ctx context.Context, userID string, feature services.Feature) (*services.LimitCheck, error)
	getSubscriptionInfoFn func(ctx context.Context, externalID string) (*services.SubscriptionInfo, error)
	handleWebhookFn       func(ctx context.Context, eventType string, data json.RawMessage) error
	getStatsFn            func(ctx context.Context) (*services.SubscriptionStats, error)
}

func (m *mockSubscriptionService) HasPremium(ctx context.Context, externalID string) (bool, error) {
	if m.hasPremiumFn != nil {
		return m.hasPremiumFn(ctx, externalID)
	}
	return false, nil
}

func (m *mockSubscriptionService) CheckLimit(ctx context.Context, userID string, feature services.Feature) (*services.LimitCheck, error) {
	if m.checkLimitFn != nil {
		return m.checkLimitFn(ctx, userID, feature)
	}
	return &services.LimitCheck{Allowed: true}, nil
}

func (m *mockSubscriptionService) GetSubscriptionInfo(ctx context.Context, externalID string) (*services.SubscriptionInfo, error) {
	if m.getSubscriptionInfoFn != nil {
		return m.getSubscriptionInfoFn(ctx, externalID)
	}
	return &services.SubscriptionInfo{Plan: string(models.RoleFree), Status: "inactive"}, nil
}

func (m *mockSubscriptionService) HandleWebhook(ctx context.Context, eventType string, data json.RawMessage) error {
	if m.handleWebhookFn != nil {
		return m.handleWebhookFn(ctx, eventType, data)
	}
	return nil
}

func (m *mockSubscriptionService) GetStats(ctx context.Context) (*services.SubscriptionStats, error) {
	if m.getStatsFn != nil {
		return m.getStatsFn(ctx)
	}
	return &services.SubscriptionStats{RecentSubscriptions: []services.RecentSubscription{}}, nil
}

func setupSubscriptionRouter(mock *mockSubscriptionService) *gin.Engine {
	r := gin.New()
	h := NewSubscriptionHandler(mock)
	r.POST("/api/webhook/subscription", h.Webhook)
	r.GET("/api/admin/subscription/stats", h.GetStats)
	auth := r.Group("/api", injectIdentity(testExternalID), injectUserID(testUserID))
	auth.GET("/subscription/info", h.GetInfo)
	auth.GET("/subscription/check", h.Check)
	return r
}

// --- tests ---

func TestSubscriptionCheck(t *testing.T) {
	tests := []struct {
		name     string
		premium  bool
		err      error
		wantCode int
		wantPlan string
	}{
		{name: "free", wantCode: http.StatusOK, wantPlan: "free"},
		{name: "premium", premium: true, wantCode: http.StatusOK, wantPlan: "premium"},
		{name: "lookup_failure", err: errors.New("db down"), wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockSubscriptionService{
				hasPremiumFn: func(_ context.Context, externalID string) (bool, error) {
					if externalID != testExternalID {
						t.Errorf("expected external id %s, got %s", testExternalID, externalID)
					}
					return tt.premium, tt.err
				},
			}
			rec := doRequest(setupSubscriptionRouter(mock), http.MethodGet, "/api/subscription/check", "")
			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}
			result := parseJSON(t, rec)
			if tt.err != nil {
				assertErrorCode(t, result, "INTERNAL_ERROR")
				return
			}
			data := result["data"].(map[string]interface{})
			if result["success"] != true || data["plan"] != tt.wantPlan || data["hasPremium"] != tt.premium {
				t.Errorf("unexpected body %v", result)
			}
		})
	}
}

func TestSubscriptionInfo(t *testing.T) {
	rec := doRequest(setupSubscriptionRouter(&mockSubscriptionService{}), http.MethodGet, "/api/subscription/info", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data := parseJSON(t, rec)["data"].(map[string]interface{})
	if data["plan"] != "free" || data["has_subscription"] != false {
		t.Errorf("unexpected info %v", data)
	}
}

func TestSubscriptionInfoRequiresIdentity(t *testing.T) {
	r := gin.New()
	r.GET("/info", NewSubscriptionHandler(&mockSubscriptionService{}).GetInfo)
	rec := doRequest(r, http.MethodGet, "/info", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestWebhook(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
		wantType   string
	}{
		{name: "created", body: `{"type":"subscription.created","data":{"id":"sub_1"}}`, wantStatus: http.StatusOK, wantType: "subscription.created"},
		{name: "unknown_type", body: `{"type":"invoice.paid","data":{}}`, wantStatus: http.StatusOK, wantType: "invoice.paid"},
		{name: "service_error_still_acknowledged", body: `{"type":"subscription.updated","data":{}}`, serviceErr: errors.New("boom"), wantStatus: http.StatusOK, wantType: "subscription.updated"},
		{name: "not_json", body: `not json`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotType string
			mock := &mockSubscriptionService{
				handleWebhookFn: func(_ context.Context, eventType string, _ json.RawMessage) error {
					gotType = eventType
					return tt.serviceErr
				},
			}
			rec := doRequest(setupSubscriptionRouter(mock), http.MethodPost, "/api/webhook/subscription", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			result := parseJSON(t, rec)
			if tt.wantStatus != http.StatusOK {
				assertErrorCode(t, result, "INVALID_INPUT")
				return
			}
			if result["success"] != true {
				t.Errorf("expected success ack, got %v", result)
			}
			if gotType != tt.wantType {
				t.Errorf("expected event %q, got %q", tt.wantType, gotType)
			}
		})
	}
}

func TestSubscriptionStats(t *testing.T) {
	mock := &mockSubscriptionService{
		getStatsFn: func(context.Context) (*services.SubscriptionStats, error) {
			return &services.SubscriptionStats{
				ActiveSubscriptions: 2,
				PremiumUsers:        2,
				FreeUsers:           5,
				RecentSubscriptions: []services.RecentSubscription{},
			}, nil
		},
	}
	rec := doRequest(setupSubscriptionRouter(mock), http.MethodGet, "/api/admin/subscription/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data := parseJSON(t, rec)["data"].(map[string]interface{})
	if data["free_users"].(float64) != 5 {
		t.Errorf("expected 5 free users, got %v", data["free_users"])
	}
}
