package controllers

import (
	"errors"
	"net/http"

	"github.com/osvaldoandrade/scanq/internal/middleware"
	"github.com/osvaldoandrade/scanq/internal/repository"
	"github.com/osvaldoandrade/scanq/internal/services"

	"github.com/gin-gonic/gin"
)

type getTaskController struct {
	svc          services.TaskViewService
	authRequired bool
}

// NewGetTaskController serves one task with its reports. authRequired
// reflects whether validators are configured: with auth on, a request needs
// either claims or a matching seed; without, reads are open.
func NewGetTaskController(svc services.TaskViewService, authRequired bool) *getTaskController {
	return &getTaskController{svc: svc, authRequired: authRequired}
}

func (h *getTaskController) Handle(c *gin.Context) {
	taskID := c.Param("id")
	seed := c.Query("seed")

	if seed == "" && h.authRequired {
		if claims, ok := middleware.GetClaims(c); !ok || claims == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
			return
		}
	}

	var err error
	var view any
	if seed != "" {
		view, err = h.svc.BySeed(c.Request.Context(), taskID, seed)
	} else {
		view, err = h.svc.Get(c.Request.Context(), taskID)
	}
	if err != nil {
		respondViewError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// respondViewError keeps seed misses and unknown tasks indistinguishable.
func respondViewError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrSeedExpired):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
