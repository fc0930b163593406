package controllers

import (
	"net/http"

	"github.com/osvaldoandrade/scanq/internal/services"

	"github.com/gin-gonic/gin"
)

type contextController struct{ svc services.IntakeService }

func NewContextController(svc services.IntakeService) *contextController {
	return &contextController{svc}
}

// Handle serves the configuration the submission page boots from.
func (h *contextController) Handle(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.PageContext())
}
