package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/JohanDJ0/restapi-gastos/internal/logger"
	"github.com/JohanDJ0/restapi-gastos/internal/middleware"
	"github.com/JohanDJ0/restapi-gastos/internal/period"
	"github.com/JohanDJ0/restapi-gastos/internal/server"
	"github.com/JohanDJ0/restapi-gastos/internal/services"
	"github.com/JohanDJ0/restapi-gastos/internal/testutil"
	"github.com/JohanDJ0/restapi-gastos/internal/validator"
)

const (
	testSecret     = "integration-secret"
	testIssuer     = "https://fluent-owl-12.clerk.accounts.dev"
	testAudience   = "gastos-api"
	testAdminKey   = "integration-admin-key"
	testPremiumKey = "plan_gastos_premium"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test", "error")
	validator.Register()
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)

	calc := period.NewInLocation(time.UTC)
	archivalService := services.NewArchivalService(db, calc)
	transactionService := services.NewTransactionService(db)

	verifier, err := middleware.NewTokenVerifier("", testSecret, "clerk.accounts.dev", []string{testAudience})
	if err != nil {
		t.Fatalf("failed to build verifier: %v", err)
	}

	router := server.NewRouter(server.Services{
		Users:          services.NewUserService(db),
		Budgets:        services.NewBudgetService(db, calc, archivalService),
		Transactions:   transactionService,
		CycleSummaries: services.NewCycleSummaryService(db, calc, transactionService),
		Categories:     services.NewCategoryService(db),
		Subscriptions:  services.NewSubscriptionService(db, nil, testPremiumKey, services.DefaultLimits()),
		Archival:       archivalService,
		Audit:          services.NewAuditService(db),
	}, server.Options{
		Verifier:    verifier,
		CORSOrigins: []string{"*"},
		AdminAPIKey: testAdminKey,
		Location:    time.UTC,
	})

	return &testApp{DB: db, Router: router}
}

// tokenFor signs a session token for the given identity-provider subject.
func tokenFor(t *testing.T, externalID string) string {
	t.Helper()
	return signToken(t, jwt.MapClaims{
		"sub":        externalID,
		"iss":        testIssuer,
		"aud":        testAudience,
		"email":      externalID + "@example.com",
		"first_name": "Test",
		"last_name":  "User",
		"iat":        time.Now().Unix(),
		"exp":        time.Now().Add(time.Hour).Unix(),
	})
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// admin makes a request carrying the admin API key.
func (app *testApp) admin(method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("X-API-Key", testAdminKey)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// parseJSONArray parses the response body into a slice.
func parseJSONArray(t *testing.T, rec *httptest.ResponseRecorder) []interface{} {
	t.Helper()
	var result []interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON array: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// expectStatus fails the test when rec does not carry the wanted status.
func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

// expectMoney compares a JSON money field with its decimal string form.
func expectMoney(t *testing.T, got interface{}, want string) {
	t.Helper()
	s, ok := got.(string)
	if !ok {
		t.Fatalf("expected money as string, got %T %v", got, got)
	}
	if !decimal.RequireFromString(s).Equal(decimal.RequireFromString(want)) {
		t.Errorf("expected %s, got %s", want, s)
	}
}

// createBudget creates a budget through the API and returns its id.
func (app *testApp) createBudget(t *testing.T, token, name, kind, amount string) string {
	t.Helper()
	body := fmt.Sprintf(`{"nombre":%q,"tipo":%q,"monto_inicial":%q}`, name, kind, amount)
	rec := app.request(http.MethodPost, "/api/presupuestos", body, token)
	expectStatus(t, rec, http.StatusCreated)
	return parseJSON(t, rec)["id"].(string)
}

// createTransaction records a transaction through the API and returns its id.
func (app *testApp) createTransaction(t *testing.T, token, budgetID, kind, amount string) string {
	t.Helper()
	body := fmt.Sprintf(`{"presupuesto_id":%q,"tipo":%q,"monto":%q}`, budgetID, kind, amount)
	rec := app.request(http.MethodPost, "/api/transacciones", body, token)
	expectStatus(t, rec, http.StatusCreated)
	return parseJSON(t, rec)["id"].(string)
}

// balanceOf reads the available balance of a budget through the API.
func (app *testApp) balanceOf(t *testing.T, token, budgetID string) interface{} {
	t.Helper()
	rec := app.request(http.MethodGet, "/api/presupuestos/"+budgetID, "", token)
	expectStatus(t, rec, http.StatusOK)
	return parseJSON(t, rec)["saldo_disponible"]
}
