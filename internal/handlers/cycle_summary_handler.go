package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "github.com/JohanDJ0/restapi-gastos/internal/errors"
	"github.com/JohanDJ0/restapi-gastos/internal/metrics"
	"github.com/JohanDJ0/restapi-gastos/internal/models"
	"github.com/JohanDJ0/restapi-gastos/internal/services"
)

// CycleSummaryHandler handles cycle-close requests.
type CycleSummaryHandler struct {
	summaryService services.CycleSummaryServicer
	auditService   services.AuditServicer
	loc            *time.Location
}

// NewCycleSummaryHandler creates a new CycleSummaryHandler. Zone-less dates
// in requests are read in loc.
func NewCycleSummaryHandler(summaryService services.CycleSummaryServicer, auditService services.AuditServicer, loc *time.Location) *CycleSummaryHandler {
	if loc == nil {
		loc = time.Local
	}
	return &CycleSummaryHandler{summaryService: summaryService, auditService: auditService, loc: loc}
}

// CloseCycleRequest represents the request payload for closing a cycle.
type CloseCycleRequest struct {
	BudgetID       string                `json:"presupuesto_id" binding:"required,uuid"`
	CloseDate      *string               `json:"fecha_cierre" example:"2024-01-07"`
	LeftoverAction models.LeftoverAction `json:"accion_sobrante" binding:"required,leftover_action"`
	LeftoverAmount *decimal.Decimal      `json:"monto_accion" swaggertype:"string" example:"120.00"`
}

// UpdateCycleSummaryRequest represents the request payload for correcting a summary.
type UpdateCycleSummaryRequest struct {
	CloseDate      *string                `json:"fecha_cierre"`
	LeftoverAction *models.LeftoverAction `json:"accion_sobrante" binding:"omitempty,leftover_action"`
	LeftoverAmount *decimal.Decimal       `json:"monto_accion" swaggertype:"string"`
}

func (h *CycleSummaryHandler) closeInput(c *gin.Context) (services.CloseCycleInput, error) {
	var req CloseCycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return services.CloseCycleInput{}, bindError(err)
	}
	closeDate, err := parseOptionalDate(req.CloseDate, h.loc)
	if err != nil {
		return services.CloseCycleInput{}, apperrors.WithMessage(apperrors.ErrInvalidCloseDate, err.Error())
	}
	return services.CloseCycleInput{
		BudgetID:       req.BudgetID,
		CloseDate:      closeDate,
		LeftoverAction: req.LeftoverAction,
		LeftoverAmount: req.LeftoverAmount,
	}, nil
}

func (h *CycleSummaryHandler) auditClose(c *gin.Context, userID string, summary *models.CycleSummary, mode string) {
	h.auditService.Log(userID, services.AuditCloseCycle, services.AuditResourceCycleSummary, summary.ID, c.ClientIP(),
		map[string]any{
			"presupuesto_id":  summary.BudgetID,
			"modo":            mode,
			"saldo_final":     summary.NetBalance.String(),
			"accion_sobrante": summary.LeftoverAction,
		})
}

// CloseCycle handles recording a cycle summary over the budget's whole ledger.
// @Summary     Close a cycle
// @Description Snapshot every transaction of the budget up to the close date
// @Tags        resumen-ciclo
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CloseCycleRequest true "Close details"
// @Success     201 {object} models.CycleSummary "Summary created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /resumen-ciclo [post]
func (h *CycleSummaryHandler) CloseCycle(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	input, err := h.closeInput(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.summaryService.CloseCycle(userID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditClose(c, userID, summary, metrics.CloseModeManual)
	c.JSON(http.StatusCreated, summary)
}

// CloseCycleAutomatic handles closing only the current period window.
// @Summary     Close the current period
// @Description Snapshot the transactions of the week, month or custom span that ends at the close date
// @Tags        resumen-ciclo
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CloseCycleRequest true "Close details"
// @Success     201 {object} services.AutomaticCycleSummary "Summary created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /resumen-ciclo/automatico [post]
func (h *CycleSummaryHandler) CloseCycleAutomatic(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	input, err := h.closeInput(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.summaryService.CloseCycleAutomatic(userID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditClose(c, userID, &summary.CycleSummary, metrics.CloseModeAutomatic)
	c.JSON(http.StatusCreated, summary)
}

// GetSummaries handles listing the caller's cycle summaries.
// @Summary     List cycle summaries
// @Tags        resumen-ciclo
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  models.CycleSummary "Summaries"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /resumen-ciclo [get]
func (h *CycleSummaryHandler) GetSummaries(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summaries, err := h.summaryService.GetUserSummaries(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summaries)
}

// GetBudgetSummaries handles listing the summaries of one budget.
// @Summary     List cycle summaries by budget
// @Tags        resumen-ciclo
// @Produce     json
// @Security    BearerAuth
// @Param       presupuesto_id path string true "Budget ID"
// @Success     200 {array}  models.CycleSummary "Summaries"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /resumen-ciclo/presupuesto/{presupuesto_id} [get]
func (h *CycleSummaryHandler) GetBudgetSummaries(c *gin.Context) {
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

	summaries, err := h.summaryService.GetBudgetSummaries(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summaries)
}

// GetSummary handles retrieving one cycle summary.
// @Summary     Get cycle summary by ID
// @Tags        resumen-ciclo
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Summary ID"
// @Success     200 {object} models.CycleSummary "Summary"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Summary not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /resumen-ciclo/{id} [get]
func (h *CycleSummaryHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summaryID, err := parsePathID(c, "id", apperrors.ErrCycleSummaryNotFound)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.summaryService.GetSummaryByID(userID, summaryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// UpdateSummary handles correcting a summary's close date or leftover choice.
// @Summary     Update cycle summary
// @Description Totals are never recomputed; only the close date and leftover disposition change
// @Tags        resumen-ciclo
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                    true "Summary ID"
// @Param       request body UpdateCycleSummaryRequest true "Fields to update"
// @Success     200 {object} models.CycleSummary "Updated summary"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Summary not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /resumen-ciclo/{id} [put]
func (h *CycleSummaryHandler) UpdateSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summaryID, err := parsePathID(c, "id", apperrors.ErrCycleSummaryNotFound)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateCycleSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	closeDate, err := parseOptionalDate(req.CloseDate, h.loc)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidCloseDate, err.Error()))
		return
	}

	summary, err := h.summaryService.UpdateSummary(userID, summaryID, services.UpdateCycleSummaryInput{
		CloseDate:      closeDate,
		LeftoverAction: req.LeftoverAction,
		LeftoverAmount: req.LeftoverAmount,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	changes := map[string]any{}
	if closeDate != nil {
		changes["fecha_cierre"] = closeDate
	}
	if req.LeftoverAction != nil {
		changes["accion_sobrante"] = *req.LeftoverAction
	}
	if req.LeftoverAmount != nil {
		changes["monto_accion"] = req.LeftoverAmount.String()
	}
	h.auditService.Log(userID, services.AuditUpdateCycleSummary, services.AuditResourceCycleSummary, summaryID, c.ClientIP(), changes)

	c.JSON(http.StatusOK, summary)
}

// DeleteSummary handles deleting a cycle summary.
// @Summary     Delete cycle summary
// @Tags        resumen-ciclo
// @Security    BearerAuth
// @Param       id path string true "Summary ID"
// @Success     204 "Summary deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Summary not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /resumen-ciclo/{id} [delete]
func (h *CycleSummaryHandler) DeleteSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summaryID, err := parsePathID(c, "id", apperrors.ErrCycleSummaryNotFound)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.summaryService.DeleteSummary(userID, summaryID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditDeleteCycleSummary, services.AuditResourceCycleSummary, summaryID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// GetStatistics handles the cycle statistics report.
// @Summary     Cycle statistics
// @Description Averages over matching summaries, per budget and per leftover action. The date range applies only when both bounds are given.
// @Tags        resumen-ciclo
// @Produce     json
// @Security    BearerAuth
// @Param       presupuesto_id query string false "Restrict to one budget"
// @Param       fecha_inicio   query string false "Range start"
// @Param       fecha_fin      query string false "Range end"
// @Success     200 {object} services.CycleStatistics "Statistics"
// @Failure     400 {object} ErrorResponse "Invalid date"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /resumen-ciclo/estadisticas [get]
func (h *CycleSummaryHandler) GetStatistics(c *gin.Context) {
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

	stats, err := h.summaryService.GetStatistics(userID, services.StatisticsFilter{
		BudgetID: queryPtr(c, "presupuesto_id"),
		From:     from,
		To:       to,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
