package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "github.com/JohanDJ0/restapi-gastos/internal/errors"
	"github.com/JohanDJ0/restapi-gastos/internal/models"
	"github.com/JohanDJ0/restapi-gastos/internal/pagination"
	"github.com/JohanDJ0/restapi-gastos/internal/services"
)

// --- mock ---

type mockTransactionService struct {
	createTransactionFn       func(userID string, input services.CreateTransactionInput) (*models.Transaction, error)
	getUserTransactionsFn     func(userID string, page *pagination.PageRequest) ([]models.Transaction, int64, error)
	getBudgetTransactionsFn   func(userID, budgetID string) ([]models.Transaction, error)
	getCategoryTransactionsFn func(userID, categoryID string) ([]models.Transaction, error)
	getTransactionByIDFn      func(userID, transactionID string) (*models.Transaction, error)
	updateTransactionFn       func(userID, transactionID string, input services.UpdateTransactionInput) (*models.Transaction, error)
	deleteTransactionFn       func(userID, transactionID string) error
	getSummaryFn              func(userID string, from, to *time.Time) (*services.TransactionSummary, error)
}

func (m *mockTransactionService) CreateTransaction(userID string, input services.CreateTransactionInput) (*models.Transaction, error) {
	if m.createTransactionFn != nil {
		return m.createTransactionFn(userID, input)
	}
	return nil, nil
}

func (m *mockTransactionService) GetUserTransactions(userID string, page *pagination.PageRequest) ([]models.Transaction, int64, error) {
	if m.getUserTransactionsFn != nil {
		return m.getUserTransactionsFn(userID, page)
	}
	return []models.Transaction{}, 0, nil
}

func (m *mockTransactionService) GetBudgetTransactions(userID, budgetID string) ([]models.Transaction, error) {
	if m.getBudgetTransactionsFn != nil {
		return m.getBudgetTransactionsFn(userID, budgetID)
	}
	return []models.Transaction{}, nil
}

func (m *mockTransactionService) GetCategoryTransactions(userID, categoryID string) ([]models.Transaction, error) {
	if m.getCategoryTransactionsFn != nil {
		return m.getCategoryTransactionsFn(userID, categoryID)
	}
	return []models.Transaction{}, nil
}

func (m *mockTransactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	if m.getTransactionByIDFn != nil {
		return m.getTransactionByIDFn(userID, transactionID)
	}
	return nil, apperrors.ErrTransactionNotFound
}

func (m *mockTransactionService) UpdateTransaction(userID, transactionID string, input services.UpdateTransactionInput) (*models.Transaction, error) {
	if m.updateTransactionFn != nil {
		return m.updateTransactionFn(userID, transactionID, input)
	}
	return nil, nil
}

func (m *mockTransactionService) DeleteTransaction(userID, transactionID string) error {
	if m.deleteTransactionFn != nil {
		return m.deleteTransactionFn(userID, transactionID)
	}
	return nil
}

func (m *mockTransactionService) SumByWindow(string, *time.Time, time.Time) (services.WindowTotals, error) {
	return services.WindowTotals{}, nil
}

func (m *mockTransactionService) GetSummary(userID string, from, to *time.Time) (*services.TransactionSummary, error) {
	if m.getSummaryFn != nil {
		return m.getSummaryFn(userID, from, to)
	}
	return &services.TransactionSummary{}, nil
}

var testLocation = time.FixedZone("CST", -6*3600)

func setupTransactionRouter(mock *mockTransactionService) *gin.Engine {
	r := gin.New()
	h := NewTransactionHandler(mock, testLocation)
	auth := r.Group("/api", injectUserID(testUserID))
	auth.POST("/transacciones", h.CreateTransaction)
	auth.GET("/transacciones", h.GetTransactions)
	auth.GET("/transacciones/resumen", h.GetSummary)
	auth.GET("/transacciones/presupuesto/:presupuesto_id", h.GetBudgetTransactions)
	auth.GET("/transacciones/categoria/:categoria_id", h.GetCategoryTransactions)
	auth.GET("/transacciones/:id", h.GetTransaction)
	auth.PUT("/transacciones/:id", h.UpdateTransaction)
	auth.DELETE("/transacciones/:id", h.DeleteTransaction)
	return r
}

func transaction(id string, kind models.TransactionType, amount string) models.Transaction {
	tx := models.Transaction{
		BudgetID: otherID,
		Type:     kind,
		Amount:   decimal.RequireFromString(amount),
		Date:     time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC),
	}
	tx.ID = id
	return tx
}

// --- tests ---

func TestCreateTransaction(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		mockFn     func(userID string, input services.CreateTransactionInput) (*models.Transaction, error)
		wantStatus int
		wantCode   string
	}{
		{
			name: "success_without_date",
			body: `{"presupuesto_id":"` + otherID + `","tipo":"gasto","monto":"25.50"}`,
			mockFn: func(_ string, input services.CreateTransactionInput) (*models.Transaction, error) {
				if input.Date != nil {
					t.Errorf("expected nil date, got %v", input.Date)
				}
				if !input.Amount.Equal(decimal.RequireFromString("25.50")) {
					t.Errorf("expected amount 25.50, got %s", input.Amount)
				}
				tx := transaction(testID, models.TransactionTypeExpense, "25.50")
				return &tx, nil
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "date_only_in_business_zone",
			body: `{"presupuesto_id":"` + otherID + `","tipo":"ingreso","monto":100,"fecha":"2024-01-10"}`,
			mockFn: func(_ string, input services.CreateTransactionInput) (*models.Transaction, error) {
				want := time.Date(2024, 1, 10, 0, 0, 0, 0, testLocation)
				if input.Date == nil || !input.Date.Equal(want) {
					t.Errorf("expected date %v, got %v", want, input.Date)
				}
				tx := transaction(testID, models.TransactionTypeIncome, "100")
				return &tx, nil
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "invalid_date",
			body:       `{"presupuesto_id":"` + otherID + `","tipo":"gasto","monto":1,"fecha":"mañana"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_DATE",
		},
		{
			name:       "invalid_type",
			body:       `{"presupuesto_id":"` + otherID + `","tipo":"transferencia","monto":1}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_INPUT",
		},
		{
			name:       "malformed_budget_id",
			body:       `{"presupuesto_id":"nope","tipo":"gasto","monto":1}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_INPUT",
		},
		{
			name: "budget_not_owned",
			body: `{"presupuesto_id":"` + otherID + `","tipo":"gasto","monto":1}`,
			mockFn: func(string, services.CreateTransactionInput) (*models.Transaction, error) {
				return nil, apperrors.ErrBudgetNotFound
			},
			wantStatus: http.StatusNotFound,
			wantCode:   "BUDGET_NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupTransactionRouter(&mockTransactionService{createTransactionFn: tt.mockFn})
			rec := doRequest(r, http.MethodPost, "/api/transacciones", tt.body)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			result := parseJSON(t, rec)
			if tt.wantCode != "" {
				assertErrorCode(t, result, tt.wantCode)
				return
			}
			if result["id"] != testID {
				t.Errorf("expected id %s, got %v", testID, result["id"])
			}
		})
	}
}

func TestGetTransactions(t *testing.T) {
	t.Run("bare_list", func(t *testing.T) {
		mock := &mockTransactionService{
			getUserTransactionsFn: func(_ string, page *pagination.PageRequest) ([]models.Transaction, int64, error) {
				if page != nil {
					t.Errorf("expected no page request, got %+v", page)
				}
				return []models.Transaction{transaction(testID, models.TransactionTypeExpense, "1")}, 1, nil
			},
		}
		rec := doRequest(setupTransactionRouter(mock), http.MethodGet, "/api/transacciones", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got := parseJSONArray(t, rec); len(got) != 1 {
			t.Errorf("expected 1 transaction, got %d", len(got))
		}
	})

	t.Run("page_envelope", func(t *testing.T) {
		mock := &mockTransactionService{
			getUserTransactionsFn: func(_ string, page *pagination.PageRequest) ([]models.Transaction, int64, error) {
				if page == nil || page.Page != 2 || page.PageSize != 10 {
					t.Errorf("expected page 2 of 10, got %+v", page)
				}
				return []models.Transaction{transaction(testID, models.TransactionTypeIncome, "5")}, 11, nil
			},
		}
		rec := doRequest(setupTransactionRouter(mock), http.MethodGet, "/api/transacciones?pagina=2&por_pagina=10", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		if result["total"].(float64) != 11 || result["total_paginas"].(float64) != 2 {
			t.Errorf("unexpected page metadata: %v", result)
		}
		if len(result["datos"].([]interface{})) != 1 {
			t.Errorf("expected 1 item, got %v", result["datos"])
		}
	})

	t.Run("page_size_too_large", func(t *testing.T) {
		rec := doRequest(setupTransactionRouter(&mockTransactionService{}), http.MethodGet, "/api/transacciones?por_pagina=500", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}

func TestGetTransaction(t *testing.T) {
	mock := &mockTransactionService{
		getTransactionByIDFn: func(_, transactionID string) (*models.Transaction, error) {
			if transactionID != testID {
				return nil, apperrors.ErrTransactionNotFound
			}
			tx := transaction(testID, models.TransactionTypeExpense, "9.99")
			return &tx, nil
		},
	}
	r := setupTransactionRouter(mock)

	rec := doRequest(r, http.MethodGet, "/api/transacciones/"+testID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if parseJSON(t, rec)["monto"] != "9.99" {
		t.Errorf("expected amount serialised as string")
	}

	rec = doRequest(r, http.MethodGet, "/api/transacciones/not-a-uuid", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	assertErrorCode(t, parseJSON(t, rec), "TRANSACTION_NOT_FOUND")
}

func TestGetBudgetAndCategoryTransactions(t *testing.T) {
	var budgetArg, categoryArg string
	mock := &mockTransactionService{
		getBudgetTransactionsFn: func(_, budgetID string) ([]models.Transaction, error) {
			budgetArg = budgetID
			return []models.Transaction{transaction(testID, models.TransactionTypeExpense, "1")}, nil
		},
		getCategoryTransactionsFn: func(_, categoryID string) ([]models.Transaction, error) {
			categoryArg = categoryID
			return nil, apperrors.ErrCategoryNotFound
		},
	}
	r := setupTransactionRouter(mock)

	rec := doRequest(r, http.MethodGet, "/api/transacciones/presupuesto/"+otherID, "")
	if rec.Code != http.StatusOK || budgetArg != otherID {
		t.Fatalf("expected 200 for budget %s, got %d (%s)", otherID, rec.Code, budgetArg)
	}

	rec = doRequest(r, http.MethodGet, "/api/transacciones/categoria/"+testID, "")
	if rec.Code != http.StatusNotFound || categoryArg != testID {
		t.Fatalf("expected 404 for category %s, got %d (%s)", testID, rec.Code, categoryArg)
	}
	assertErrorCode(t, parseJSON(t, rec), "CATEGORY_NOT_FOUND")

	rec = doRequest(r, http.MethodGet, "/api/transacciones/presupuesto/bad", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for malformed budget id, got %d", rec.Code)
	}
	assertErrorCode(t, parseJSON(t, rec), "BUDGET_NOT_FOUND")
}

func TestGetTransactionSummary(t *testing.T) {
	food := "Comida"
	mock := &mockTransactionService{
		getSummaryFn: func(_ string, from, to *time.Time) (*services.TransactionSummary, error) {
			if from == nil || to != nil {
				t.Errorf("expected only a start bound, got %v %v", from, to)
			}
			return &services.TransactionSummary{
				TotalIncome:  decimal.NewFromInt(100),
				TotalExpense: decimal.RequireFromString("40.5"),
				Count:        3,
				ByCategory: []services.CategoryTotal{
					{CategoryName: &food, Type: models.TransactionTypeExpense, Total: decimal.RequireFromString("40.5")},
				},
			}, nil
		},
	}
	rec := doRequest(setupTransactionRouter(mock), http.MethodGet, "/api/transacciones/resumen?fecha_inicio=2024-01-01", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	summary := result["resumen"].(map[string]interface{})
	if summary["total_ingresos"] != "100" || summary["total_gastos"] != "40.5" || summary["total_transacciones"].(float64) != 3 {
		t.Errorf("unexpected summary %v", summary)
	}
	if len(result["por_categoria"].([]interface{})) != 1 {
		t.Errorf("expected 1 category row, got %v", result["por_categoria"])
	}
}

func TestGetTransactionSummaryEmpty(t *testing.T) {
	rec := doRequest(setupTransactionRouter(&mockTransactionService{}), http.MethodGet, "/api/transacciones/resumen", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rows, ok := parseJSON(t, rec)["por_categoria"].([]interface{}); !ok || len(rows) != 0 {
		t.Errorf("expected empty category breakdown, got %v", rows)
	}
}

func TestUpdateTransaction(t *testing.T) {
	mock := &mockTransactionService{
		updateTransactionFn: func(_, transactionID string, input services.UpdateTransactionInput) (*models.Transaction, error) {
			if input.CategoryID == nil || *input.CategoryID != "" {
				t.Errorf("expected category cleared, got %v", input.CategoryID)
			}
			if input.Amount == nil || !input.Amount.Equal(decimal.NewFromInt(12)) {
				t.Errorf("expected amount 12, got %v", input.Amount)
			}
			tx := transaction(transactionID, models.TransactionTypeExpense, "12")
			return &tx, nil
		},
	}
	rec := doRequest(setupTransactionRouter(mock), http.MethodPut, "/api/transacciones/"+testID, `{"categoria_id":"","monto":12}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteTransaction(t *testing.T) {
	rec := doRequest(setupTransactionRouter(&mockTransactionService{}), http.MethodDelete, "/api/transacciones/"+testID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	mock := &mockTransactionService{
		deleteTransactionFn: func(string, string) error { return apperrors.ErrTransactionNotFound },
	}
	rec = doRequest(setupTransactionRouter(mock), http.MethodDelete, "/api/transacciones/"+otherID, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
