package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "github.com/JohanDJ0/restapi-gastos/internal/errors"
	"github.com/JohanDJ0/restapi-gastos/internal/models"
	"github.com/JohanDJ0/restapi-gastos/internal/services"
)

// --- mock ---

type mockBudgetService struct {
	createBudgetFn           func(userID string, input services.CreateBudgetInput) (*services.BudgetView, error)
	getUserBudgetsFn         func(userID string) ([]services.BudgetView, error)
	getBudgetByIDFn          func(userID, budgetID string) (*services.BudgetView, error)
	getDefaultBudgetFn       func(userID string) (*services.BudgetView, error)
	updateBudgetFn           func(userID, budgetID string, input services.UpdateBudgetInput) (*services.BudgetView, error)
	deleteBudgetFn           func(userID, budgetID string) error
	renewBudgetFn            func(userID, budgetID string, initialAmount, availableBalance *decimal.Decimal) (*services.BudgetView, error)
	getUpcomingExpirationsFn func(userID string, lookaheadDays float64) ([]services.BudgetView, error)
}

func (m *mockBudgetService) CreateBudget(userID string, input services.CreateBudgetInput) (*services.BudgetView, error) {
	if m.createBudgetFn != nil {
		return m.createBudgetFn(userID, input)
	}
	return nil, nil
}

func (m *mockBudgetService) GetUserBudgets(userID string) ([]services.BudgetView, error) {
	if m.getUserBudgetsFn != nil {
		return m.getUserBudgetsFn(userID)
	}
	return []services.BudgetView{}, nil
}

func (m *mockBudgetService) GetBudgetByID(userID, budgetID string) (*services.BudgetView, error) {
	if m.getBudgetByIDFn != nil {
		return m.getBudgetByIDFn(userID, budgetID)
	}
	return nil, apperrors.ErrBudgetNotFound
}

func (m *mockBudgetService) GetDefaultBudget(userID string) (*services.BudgetView, error) {
	if m.getDefaultBudgetFn != nil {
		return m.getDefaultBudgetFn(userID)
	}
	return nil, apperrors.ErrNoDefaultBudget
}

func (m *mockBudgetService) UpdateBudget(userID, budgetID string, input services.UpdateBudgetInput) (*services.BudgetView, error) {
	if m.updateBudgetFn != nil {
		return m.updateBudgetFn(userID, budgetID, input)
	}
	return nil, nil
}

func (m *mockBudgetService) DeleteBudget(userID, budgetID string) error {
	if m.deleteBudgetFn != nil {
		return m.deleteBudgetFn(userID, budgetID)
	}
	return nil
}

func (m *mockBudgetService) RenewBudget(userID, budgetID string, initialAmount, availableBalance *decimal.Decimal) (*services.BudgetView, error) {
	if m.renewBudgetFn != nil {
		return m.renewBudgetFn(userID, budgetID, initialAmount, availableBalance)
	}
	return nil, nil
}

func (m *mockBudgetService) GetUpcomingExpirations(userID string, lookaheadDays float64) ([]services.BudgetView, error) {
	if m.getUpcomingExpirationsFn != nil {
		return m.getUpcomingExpirationsFn(userID, lookaheadDays)
	}
	return []services.BudgetView{}, nil
}

func setupBudgetRouter(mock *mockBudgetService, audit *mockAuditService) *gin.Engine {
	r := gin.New()
	h := NewBudgetHandler(mock, audit)
	auth := r.Group("/api", injectUserID(testUserID))
	auth.POST("/presupuestos", h.CreateBudget)
	auth.GET("/presupuestos", h.GetBudgets)
	auth.GET("/presupuestos/predeterminado", h.GetDefaultBudget)
	auth.GET("/presupuestos/proximos-expirar", h.GetUpcomingExpirations)
	auth.GET("/presupuestos/:id", h.GetBudget)
	auth.PUT("/presupuestos/:id", h.UpdateBudget)
	auth.DELETE("/presupuestos/:id", h.DeleteBudget)
	auth.POST("/presupuestos/:id/renovar", h.RenewBudget)
	return r
}

func budgetView(id string, amount string) *services.BudgetView {
	v := &services.BudgetView{Budget: models.Budget{
		Name:             "Comida",
		Kind:             models.BudgetKindMonthly,
		InitialAmount:    decimal.RequireFromString(amount),
		AvailableBalance: decimal.RequireFromString(amount),
		Status:           models.BudgetStatusActive,
	}}
	v.ID = id
	v.UserID = testUserID
	return v
}

// --- tests ---

func TestCreateBudget(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		mockFn     func(userID string, input services.CreateBudgetInput) (*services.BudgetView, error)
		wantStatus int
		wantCode   string
	}{
		{
			name: "success_number_amount",
			body: `{"nombre":"Comida","tipo":"mensual","monto_inicial":1500}`,
			mockFn: func(_ string, input services.CreateBudgetInput) (*services.BudgetView, error) {
				if !input.InitialAmount.Equal(decimal.NewFromInt(1500)) {
					t.Errorf("expected initial amount 1500, got %s", input.InitialAmount)
				}
				if input.AvailableBalance != nil {
					t.Errorf("expected nil available balance, got %s", input.AvailableBalance)
				}
				return budgetView(testID, "1500"), nil
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "success_string_amount",
			body: `{"nombre":"Comida","tipo":"semanal","monto_inicial":"250.50","saldo_disponible":"100"}`,
			mockFn: func(_ string, input services.CreateBudgetInput) (*services.BudgetView, error) {
				if input.Kind != models.BudgetKindWeekly {
					t.Errorf("expected weekly kind, got %s", input.Kind)
				}
				if input.AvailableBalance == nil || !input.AvailableBalance.Equal(decimal.NewFromInt(100)) {
					t.Errorf("expected available balance 100, got %v", input.AvailableBalance)
				}
				return budgetView(testID, "250.50"), nil
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing_name",
			body:       `{"tipo":"mensual","monto_inicial":100}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_INPUT",
		},
		{
			name:       "missing_amount",
			body:       `{"nombre":"Comida","tipo":"mensual"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_INPUT",
		},
		{
			name:       "invalid_kind",
			body:       `{"nombre":"Comida","tipo":"anual","monto_inicial":100}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_INPUT",
		},
		{
			name: "service_error",
			body: `{"nombre":"Comida","tipo":"mensual","monto_inicial":-5}`,
			mockFn: func(string, services.CreateBudgetInput) (*services.BudgetView, error) {
				return nil, apperrors.ErrInvalidAmount
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_AMOUNT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			audit := &mockAuditService{}
			r := setupBudgetRouter(&mockBudgetService{createBudgetFn: tt.mockFn}, audit)
			rec := doRequest(r, http.MethodPost, "/api/presupuestos", tt.body)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			result := parseJSON(t, rec)
			if tt.wantCode != "" {
				assertErrorCode(t, result, tt.wantCode)
				if len(audit.entries) != 0 {
					t.Errorf("expected no audit entry on failure, got %d", len(audit.entries))
				}
				return
			}
			if result["id"] != testID {
				t.Errorf("expected id %s, got %v", testID, result["id"])
			}
			if len(audit.entries) != 1 || audit.entries[0].action != services.AuditCreateBudget {
				t.Errorf("expected one CREATE_BUDGET audit entry, got %+v", audit.entries)
			}
		})
	}
}

func TestGetBudgets(t *testing.T) {
	mock := &mockBudgetService{
		getUserBudgetsFn: func(userID string) ([]services.BudgetView, error) {
			if userID != testUserID {
				t.Errorf("expected caller %s, got %s", testUserID, userID)
			}
			return []services.BudgetView{*budgetView(testID, "100"), *budgetView(otherID, "200")}, nil
		},
	}
	r := setupBudgetRouter(mock, &mockAuditService{})
	rec := doRequest(r, http.MethodGet, "/api/presupuestos", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := parseJSONArray(t, rec); len(got) != 2 {
		t.Errorf("expected 2 budgets, got %d", len(got))
	}
}

func TestGetBudgetsEmpty(t *testing.T) {
	r := setupBudgetRouter(&mockBudgetService{}, &mockAuditService{})
	rec := doRequest(r, http.MethodGet, "/api/presupuestos", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "[]" {
		t.Errorf("expected empty array, got %s", rec.Body.String())
	}
}

func TestGetBudget(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantCode   string
	}{
		{name: "found", path: "/api/presupuestos/" + testID, wantStatus: http.StatusOK},
		{name: "not_owned", path: "/api/presupuestos/" + otherID, wantStatus: http.StatusNotFound, wantCode: "BUDGET_NOT_FOUND"},
		{name: "malformed_id", path: "/api/presupuestos/abc", wantStatus: http.StatusNotFound, wantCode: "BUDGET_NOT_FOUND"},
	}

	mock := &mockBudgetService{
		getBudgetByIDFn: func(_, budgetID string) (*services.BudgetView, error) {
			if budgetID == testID {
				return budgetView(testID, "100"), nil
			}
			return nil, apperrors.ErrBudgetNotFound
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupBudgetRouter(mock, &mockAuditService{})
			rec := doRequest(r, http.MethodGet, tt.path, "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantCode != "" {
				assertErrorCode(t, parseJSON(t, rec), tt.wantCode)
			}
		})
	}
}

func TestGetDefaultBudget(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		r := setupBudgetRouter(&mockBudgetService{}, &mockAuditService{})
		rec := doRequest(r, http.MethodGet, "/api/presupuestos/predeterminado", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "NO_DEFAULT_BUDGET")
	})

	t.Run("found", func(t *testing.T) {
		mock := &mockBudgetService{
			getDefaultBudgetFn: func(string) (*services.BudgetView, error) {
				v := budgetView(testID, "100")
				v.IsDefault = true
				return v, nil
			},
		}
		r := setupBudgetRouter(mock, &mockAuditService{})
		rec := doRequest(r, http.MethodGet, "/api/presupuestos/predeterminado", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if parseJSON(t, rec)["es_predeterminado"] != true {
			t.Error("expected default flag in response")
		}
	})
}

func TestGetUpcomingExpirations(t *testing.T) {
	var gotDays float64
	mock := &mockBudgetService{
		getUpcomingExpirationsFn: func(_ string, lookaheadDays float64) ([]services.BudgetView, error) {
			gotDays = lookaheadDays
			return []services.BudgetView{*budgetView(testID, "100")}, nil
		},
	}
	r := setupBudgetRouter(mock, &mockAuditService{})
	rec := doRequest(r, http.MethodGet, "/api/presupuestos/proximos-expirar", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotDays != 3 {
		t.Errorf("expected a three day lookahead, got %v", gotDays)
	}
	if got := parseJSONArray(t, rec); len(got) != 1 {
		t.Errorf("expected 1 budget, got %d", len(got))
	}
}

func TestUpdateBudget(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		mockFn     func(userID, budgetID string, input services.UpdateBudgetInput) (*services.BudgetView, error)
		wantStatus int
		wantCode   string
	}{
		{
			name: "rename",
			body: `{"nombre":"Super"}`,
			mockFn: func(_, _ string, input services.UpdateBudgetInput) (*services.BudgetView, error) {
				if input.Name == nil || *input.Name != "Super" {
					t.Errorf("expected name Super, got %v", input.Name)
				}
				if input.InitialAmount != nil {
					t.Error("expected untouched initial amount")
				}
				v := budgetView(testID, "100")
				v.Name = "Super"
				return v, nil
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "kind_fixed",
			body: `{"tipo":"semanal"}`,
			mockFn: func(string, string, services.UpdateBudgetInput) (*services.BudgetView, error) {
				return nil, apperrors.ErrBudgetKindFixed
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "BUDGET_KIND_FIXED",
		},
		{
			name:       "invalid_status",
			body:       `{"estado":"borrado"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_INPUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			audit := &mockAuditService{}
			r := setupBudgetRouter(&mockBudgetService{updateBudgetFn: tt.mockFn}, audit)
			rec := doRequest(r, http.MethodPut, "/api/presupuestos/"+testID, tt.body)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantCode != "" {
				assertErrorCode(t, parseJSON(t, rec), tt.wantCode)
				return
			}
			if len(audit.entries) != 1 || audit.entries[0].changes["nombre"] != "Super" {
				t.Errorf("expected audit entry with the new name, got %+v", audit.entries)
			}
		})
	}
}

func TestDeleteBudget(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupBudgetRouter(&mockBudgetService{}, audit)
		rec := doRequest(r, http.MethodDelete, "/api/presupuestos/"+testID, "")
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if len(audit.entries) != 1 || audit.entries[0].resourceID != testID {
			t.Errorf("expected DELETE_BUDGET audit for %s, got %+v", testID, audit.entries)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		mock := &mockBudgetService{
			deleteBudgetFn: func(string, string) error { return apperrors.ErrBudgetNotFound },
		}
		r := setupBudgetRouter(mock, &mockAuditService{})
		rec := doRequest(r, http.MethodDelete, "/api/presupuestos/"+otherID, "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestRenewBudget(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		mockFn     func(userID, budgetID string, initialAmount, availableBalance *decimal.Decimal) (*services.BudgetView, error)
		wantStatus int
		wantCode   string
	}{
		{
			name: "no_body",
			mockFn: func(_, _ string, initialAmount, availableBalance *decimal.Decimal) (*services.BudgetView, error) {
				if initialAmount != nil || availableBalance != nil {
					t.Error("expected no overrides without a body")
				}
				return budgetView(otherID, "100"), nil
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "with_override",
			body: `{"monto_inicial":"300"}`,
			mockFn: func(_, _ string, initialAmount, _ *decimal.Decimal) (*services.BudgetView, error) {
				if initialAmount == nil || !initialAmount.Equal(decimal.NewFromInt(300)) {
					t.Errorf("expected override 300, got %v", initialAmount)
				}
				return budgetView(otherID, "300"), nil
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "custom_not_renewable",
			mockFn: func(string, string, *decimal.Decimal, *decimal.Decimal) (*services.BudgetView, error) {
				return nil, apperrors.ErrCustomNotRenewable
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "CUSTOM_NOT_RENEWABLE",
		},
		{
			name: "not_expired",
			mockFn: func(string, string, *decimal.Decimal, *decimal.Decimal) (*services.BudgetView, error) {
				return nil, apperrors.ErrBudgetNotExpired
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "BUDGET_NOT_EXPIRED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			audit := &mockAuditService{}
			r := setupBudgetRouter(&mockBudgetService{renewBudgetFn: tt.mockFn}, audit)
			rec := doRequest(r, http.MethodPost, "/api/presupuestos/"+testID+"/renovar", tt.body)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			result := parseJSON(t, rec)
			if tt.wantCode != "" {
				assertErrorCode(t, result, tt.wantCode)
				return
			}
			if result["message"] != "Presupuesto renovado exitosamente" {
				t.Errorf("unexpected message %v", result["message"])
			}
			budget, ok := result["presupuesto"].(map[string]interface{})
			if !ok || budget["id"] != otherID {
				t.Errorf("expected renewed budget %s, got %v", otherID, result["presupuesto"])
			}
			if len(audit.entries) != 1 || audit.entries[0].changes["origen"] != testID {
				t.Errorf("expected RENEW_BUDGET audit from %s, got %+v", testID, audit.entries)
			}
		})
	}
}
