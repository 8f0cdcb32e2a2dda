package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "github.com/JohanDJ0/restapi-gastos/internal/errors"
	"github.com/JohanDJ0/restapi-gastos/internal/models"
	"github.com/JohanDJ0/restapi-gastos/internal/pagination"
	"github.com/JohanDJ0/restapi-gastos/internal/services"
)

// TransactionHandler handles ledger requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	loc                *time.Location
}

// NewTransactionHandler creates a new TransactionHandler. Zone-less dates
// in requests are read in loc.
func NewTransactionHandler(transactionService services.TransactionServicer, loc *time.Location) *TransactionHandler {
	if loc == nil {
		loc = time.Local
	}
	return &TransactionHandler{transactionService: transactionService, loc: loc}
}

// CreateTransactionRequest represents the request payload for recording a transaction.
type CreateTransactionRequest struct {
	BudgetID    string                 `json:"presupuesto_id" binding:"required,uuid"`
	Type        models.TransactionType `json:"tipo" binding:"required,transaction_type"`
	CategoryID  *string                `json:"categoria_id" binding:"omitempty,uuid"`
	Description *string                `json:"descripcion" binding:"omitempty,max=500"`
	Amount      *decimal.Decimal       `json:"monto" binding:"required" swaggertype:"string" example:"25.50"`
	Date        *string                `json:"fecha" example:"2024-01-10"`
}

// UpdateTransactionRequest represents the request payload for updating a
// transaction. An empty categoria_id clears the category.
type UpdateTransactionRequest struct {
	BudgetID    *string                 `json:"presupuesto_id" binding:"omitempty,uuid"`
	Type        *models.TransactionType `json:"tipo" binding:"omitempty,transaction_type"`
	CategoryID  *string                 `json:"categoria_id"`
	Description *string                 `json:"descripcion" binding:"omitempty,max=500"`
	Amount      *decimal.Decimal        `json:"monto" swaggertype:"string"`
	Date        *string                 `json:"fecha"`
}

// TransactionSummaryTotals is the headline of the ledger summary.
type TransactionSummaryTotals struct {
	TotalIncome  decimal.Decimal `json:"total_ingresos" swaggertype:"string"`
	TotalExpense decimal.Decimal `json:"total_gastos" swaggertype:"string"`
	Count        int64           `json:"total_transacciones"`
}

// TransactionSummaryResponse is the ledger summary body.
type TransactionSummaryResponse struct {
	Summary    TransactionSummaryTotals `json:"resumen"`
	ByCategory []services.CategoryTotal `json:"por_categoria"`
}

// CreateTransaction handles recording a new transaction.
// @Summary     Create a transaction
// @Description Record income or expense in an owned budget and adjust its available balance
// @Tags        transacciones
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget or category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transacciones [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	date, err := parseOptionalDate(req.Date, h.loc)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.CreateTransaction(userID, services.CreateTransactionInput{
		BudgetID:    req.BudgetID,
		Type:        req.Type,
		CategoryID:  req.CategoryID,
		Description: req.Description,
		Amount:      *req.Amount,
		Date:        date,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, transaction)
}

// GetTransactions handles listing the caller's transactions.
// @Summary     List transactions
// @Description List the caller's transactions, newest first. Passing pagina or por_pagina returns a page envelope.
// @Tags        transacciones
// @Produce     json
// @Security    BearerAuth
// @Param       pagina     query int false "Page number"
// @Param       por_pagina query int false "Items per page (max 200)"
// @Success     200 {array}  models.Transaction "Transactions"
// @Failure     400 {object} ErrorResponse "Invalid pagination"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transacciones [get]
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	if !page.Requested() {
		transactions, _, err := h.transactionService.GetUserTransactions(userID, nil)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, transactions)
		return
	}

	transactions, total, err := h.transactionService.GetUserTransactions(userID, &page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, pagination.NewPageResponse(transactions, page, total))
}

// GetTransaction handles retrieving a specific transaction.
// @Summary     Get transaction by ID
// @Tags        transacciones
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction details"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transacciones/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id", apperrors.ErrTransactionNotFound)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, transaction)
}

// GetBudgetTransactions handles listing the transactions of one budget.
// @Summary     List transactions by budget
// @Tags        transacciones
// @Produce     json
// @Security    BearerAuth
// @Param       presupuesto_id path string true "Budget ID"
// @Success     200 {array}  models.Transaction "Transactions"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transacciones/presupuesto/{presupuesto_id} [get]
func (h *TransactionHandler) GetBudgetTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "presupuesto_id", apperrors.ErrBudgetNotFound)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactions, err := h.transactionService.GetBudgetTransactions(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, transactions)
}

// GetCategoryTransactions handles listing the caller's transactions in a category.
// @Summary     List transactions by category
// @Tags        transacciones
// @Produce     json
// @Security    BearerAuth
// @Param       categoria_id path string true "Category ID"
// @Success     200 {array}  models.Transaction "Transactions"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transacciones/categoria/{categoria_id} [get]
func (h *TransactionHandler) GetCategoryTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "categoria_id", apperrors.ErrCategoryNotFound)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactions, err := h.transactionService.GetCategoryTransactions(userID, categoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, transactions)
}

// GetSummary handles the ledger summary.
// @Summary     Transaction summary
// @Description Income, expense and per-category totals over an optional date range
// @Tags        transacciones
// @Produce     json
// @Security    BearerAuth
// @Param       fecha_inicio query string false "Range start (inclusive)"
// @Param       fecha_fin    query string false "Range end (inclusive)"
// @Success     200 {object} TransactionSummaryResponse "Summary"
// @Failure     400 {object} ErrorResponse "Invalid date"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transacciones/resumen [get]
func (h *TransactionHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	from, err := parseOptionalDate(queryPtr(c, "fecha_inicio"), h.loc)
	if err != nil {
		respondWithError(c, err)
		return
	}
	to, err := parseOptionalDate(queryPtr(c, "fecha_fin"), h.loc)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.transactionService.GetSummary(userID, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	byCategory := summary.ByCategory
	if byCategory == nil {
		byCategory = []services.CategoryTotal{}
	}
	c.JSON(http.StatusOK, TransactionSummaryResponse{
		Summary: TransactionSummaryTotals{
			TotalIncome:  summary.TotalIncome,
			TotalExpense: summary.TotalExpense,
			Count:        summary.Count,
		},
		ByCategory: byCategory,
	})
}

// UpdateTransaction handles updating a transaction and rebalancing its budgets.
// @Summary     Update transaction
// @Tags        transacciones
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                   true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Fields to update"
// @Success     200 {object} models.Transaction "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction, budget or category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transacciones/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id", apperrors.ErrTransactionNotFound)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	date, err := parseOptionalDate(req.Date, h.loc)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.UpdateTransaction(userID, transactionID, services.UpdateTransactionInput{
		BudgetID:    req.BudgetID,
		Type:        req.Type,
		CategoryID:  req.CategoryID,
		Description: req.Description,
		Amount:      req.Amount,
		Date:        date,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, transaction)
}

// DeleteTransaction handles deleting a transaction and reversing its balance effect.
// @Summary     Delete transaction
// @Tags        transacciones
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     204 "Transaction deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transacciones/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id", apperrors.ErrTransactionNotFound)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(userID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
