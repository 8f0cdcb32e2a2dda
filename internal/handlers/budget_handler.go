package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "github.com/JohanDJ0/restapi-gastos/internal/errors"
	"github.com/JohanDJ0/restapi-gastos/internal/models"
	"github.com/JohanDJ0/restapi-gastos/internal/services"
)

// upcomingLookaheadDays is how far ahead the upcoming-expirations list looks.
const upcomingLookaheadDays = 3

// BudgetHandler handles budget-related requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	auditService  services.AuditServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, auditService: auditService}
}

// CreateBudgetRequest represents the request payload for creating a budget.
// Amounts accept a JSON number or string.
type CreateBudgetRequest struct {
	Name             string               `json:"nombre" binding:"required,max=100"`
	Description      string               `json:"descripcion" binding:"max=500"`
	Kind             models.BudgetKind    `json:"tipo" binding:"required,budget_kind"`
	InitialAmount    *decimal.Decimal     `json:"monto_inicial" binding:"required" swaggertype:"string" example:"1500.00"`
	AvailableBalance *decimal.Decimal     `json:"saldo_disponible" swaggertype:"string" example:"1500.00"`
	IsDefault        bool                 `json:"es_predeterminado"`
	Status           *models.BudgetStatus `json:"estado" binding:"omitempty,budget_status"`
}

// UpdateBudgetRequest represents the request payload for updating a budget.
// Omitted fields are left untouched.
type UpdateBudgetRequest struct {
	Name             *string              `json:"nombre" binding:"omitempty,max=100"`
	Description      *string              `json:"descripcion" binding:"omitempty,max=500"`
	Kind             *models.BudgetKind   `json:"tipo" binding:"omitempty,budget_kind"`
	InitialAmount    *decimal.Decimal     `json:"monto_inicial" swaggertype:"string"`
	AvailableBalance *decimal.Decimal     `json:"saldo_disponible" swaggertype:"string"`
	IsDefault        *bool                `json:"es_predeterminado"`
	Status           *models.BudgetStatus `json:"estado" binding:"omitempty,budget_status"`
}

// RenewBudgetRequest optionally overrides the amounts of the renewed budget.
type RenewBudgetRequest struct {
	InitialAmount    *decimal.Decimal `json:"monto_inicial" swaggertype:"string"`
	AvailableBalance *decimal.Decimal `json:"saldo_disponible" swaggertype:"string"`
}

// RenewBudgetResponse is returned after a successful renewal.
type RenewBudgetResponse struct {
	Message string               `json:"message"`
	Budget  *services.BudgetView `json:"presupuesto"`
}

// CreateBudget handles the creation of a new budget.
// @Summary     Create a budget
// @Description Create a weekly, monthly or custom budget. Free accounts are limited in active budgets.
// @Tags        presupuestos
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateBudgetRequest true "Budget details"
// @Success     201 {object} services.BudgetView "Budget created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Free plan limit reached"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /presupuestos [post]
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	input := services.CreateBudgetInput{
		Name:             req.Name,
		Description:      req.Description,
		Kind:             req.Kind,
		InitialAmount:    *req.InitialAmount,
		AvailableBalance: req.AvailableBalance,
		IsDefault:        req.IsDefault,
	}
	if req.Status != nil {
		input.Status = *req.Status
	}

	budget, err := h.budgetService.CreateBudget(userID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditCreateBudget, services.AuditResourceBudget, budget.ID, c.ClientIP(),
		map[string]any{"nombre": budget.Name, "tipo": budget.Kind, "monto_inicial": budget.InitialAmount.String()})

	c.JSON(http.StatusCreated, budget)
}

// GetBudgets handles listing budgets for the authenticated user.
// @Summary     List budgets
// @Description List the caller's budgets, newest first. Expired periodic budgets are archived before the list is read.
// @Tags        presupuestos
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  services.BudgetView "Budgets"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /presupuestos [get]
func (h *BudgetHandler) GetBudgets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgets, err := h.budgetService.GetUserBudgets(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, budgets)
}

// GetBudget handles retrieving a specific budget.
// @Summary     Get budget by ID
// @Description Get one budget with its period information
// @Tags        presupuestos
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} services.BudgetView "Budget details"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /presupuestos/{id} [get]
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id", apperrors.ErrBudgetNotFound)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetBudgetByID(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, budget)
}

// GetDefaultBudget handles retrieving the caller's default budget.
// @Summary     Get default budget
// @Tags        presupuestos
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.BudgetView "Default budget"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "No default budget"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /presupuestos/predeterminado [get]
func (h *BudgetHandler) GetDefaultBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetDefaultBudget(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, budget)
}

// GetUpcomingExpirations handles listing budgets about to expire.
// @Summary     Upcoming expirations
// @Description Active periodic budgets expiring within the next three days
// @Tags        presupuestos
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  services.BudgetView "Budgets about to expire"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /presupuestos/proximos-expirar [get]
func (h *BudgetHandler) GetUpcomingExpirations(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgets, err := h.budgetService.GetUpcomingExpirations(userID, upcomingLookaheadDays)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, budgets)
}

// UpdateBudget handles updating an existing budget.
// @Summary     Update budget
// @Description Update an existing budget. The kind is fixed and archived budgets only come back through renewal.
// @Tags        presupuestos
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string              true "Budget ID"
// @Param       request body UpdateBudgetRequest true "Fields to update"
// @Success     200 {object} services.BudgetView "Updated budget"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /presupuestos/{id} [put]
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id", apperrors.ErrBudgetNotFound)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	budget, err := h.budgetService.UpdateBudget(userID, budgetID, services.UpdateBudgetInput{
		Name:             req.Name,
		Description:      req.Description,
		Kind:             req.Kind,
		InitialAmount:    req.InitialAmount,
		AvailableBalance: req.AvailableBalance,
		IsDefault:        req.IsDefault,
		Status:           req.Status,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	changes := map[string]any{}
	if req.Name != nil {
		changes["nombre"] = *req.Name
	}
	if req.InitialAmount != nil {
		changes["monto_inicial"] = req.InitialAmount.String()
	}
	if req.AvailableBalance != nil {
		changes["saldo_disponible"] = req.AvailableBalance.String()
	}
	if req.IsDefault != nil {
		changes["es_predeterminado"] = *req.IsDefault
	}
	if req.Status != nil {
		changes["estado"] = *req.Status
	}
	h.auditService.Log(userID, services.AuditUpdateBudget, services.AuditResourceBudget, budgetID, c.ClientIP(), changes)

	c.JSON(http.StatusOK, budget)
}

// DeleteBudget handles deleting a budget with its transactions and summaries.
// @Summary     Delete budget
// @Tags        presupuestos
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     204 "Budget deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /presupuestos/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id", apperrors.ErrBudgetNotFound)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.DeleteBudget(userID, budgetID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditDeleteBudget, services.AuditResourceBudget, budgetID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// RenewBudget handles starting a new period from an expired budget.
// @Summary     Renew budget
// @Description Create a fresh active budget from an expired or archived weekly or monthly one
// @Tags        presupuestos
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string             true  "Budget ID"
// @Param       request body RenewBudgetRequest false "Amount overrides"
// @Success     201 {object} RenewBudgetResponse "Budget renewed"
// @Failure     400 {object} ErrorResponse "Budget cannot be renewed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /presupuestos/{id}/renovar [post]
func (h *BudgetHandler) RenewBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id", apperrors.ErrBudgetNotFound)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RenewBudgetRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, bindError(err))
			return
		}
	}

	budget, err := h.budgetService.RenewBudget(userID, budgetID, req.InitialAmount, req.AvailableBalance)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditRenewBudget, services.AuditResourceBudget, budget.ID, c.ClientIP(),
		map[string]any{"origen": budgetID, "monto_inicial": budget.InitialAmount.String()})

	c.JSON(http.StatusCreated, RenewBudgetResponse{Message: "Presupuesto renovado exitosamente", Budget: budget})
}
