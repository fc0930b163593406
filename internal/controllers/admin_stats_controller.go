package controllers

import (
	"net/http"

	"github.com/osvaldoandrade/scanq/internal/services"

	"github.com/gin-gonic/gin"
)

type adminStatsController struct{ svc services.IntakeService }

func NewAdminStatsController(svc services.IntakeService) *adminStatsController {
	return &adminStatsController{svc: svc}
}

func (h *adminStatsController) Handle(c *gin.Context) {
	out, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}
