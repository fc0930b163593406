package controllers

import (
	"net/http"

	"github.com/osvaldoandrade/scanq/internal/services"

	"github.com/gin-gonic/gin"
)

type workersController struct{ svc services.IntakeService }

func NewWorkersController(svc services.IntakeService) *workersController {
	return &workersController{svc}
}

func (h *workersController) Handle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"workers": h.svc.PageContext().Workers})
}
