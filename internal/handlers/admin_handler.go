package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JohanDJ0/restapi-gastos/internal/metrics"
	"github.com/JohanDJ0/restapi-gastos/internal/services"
)

// AdminHandler exposes maintenance operations behind the admin API key.
type AdminHandler struct {
	archivalService services.ArchivalServicer
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(archivalService services.ArchivalServicer) *AdminHandler {
	return &AdminHandler{archivalService: archivalService}
}

// SweepResponse lists the budgets a sweep archived.
type SweepResponse struct {
	Archived []string `json:"archivados"`
	Count    int      `json:"total"`
}

// SweepArchival handles an on-demand archival sweep over every owner.
// @Summary     Run archival sweep
// @Tags        admin
// @Produce     json
// @Security    AdminKey
// @Success     200 {object} SweepResponse "Archived budget ids"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     503 {object} ErrorResponse "Admin endpoints disabled"
// @Router      /admin/archival/sweep [post]
func (h *AdminHandler) SweepArchival(c *gin.Context) {
	archived := h.archivalService.SweepAll(c.Request.Context(), metrics.TriggerSweep)
	if archived == nil {
		archived = []string{}
	}
	c.JSON(http.StatusOK, SweepResponse{Archived: archived, Count: len(archived)})
}
