package controllers

import (
	"net/http"
	"strings"

	"github.com/osvaldoandrade/scanq/internal/middleware"
	"github.com/osvaldoandrade/scanq/internal/services"

	"github.com/gin-gonic/gin"
)

type analysisViewController struct {
	svc          services.TaskViewService
	authRequired bool
}

// NewAnalysisViewController serves the result view the submit link points
// at: /analysis/:id for the submitter, /analysis/:id/seed-<seed> for anyone
// holding a live seed.
func NewAnalysisViewController(svc services.TaskViewService, authRequired bool) *analysisViewController {
	return &analysisViewController{svc: svc, authRequired: authRequired}
}

func (h *analysisViewController) Handle(c *gin.Context) {
	if h.authRequired {
		if claims, ok := middleware.GetClaims(c); !ok || claims == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
			return
		}
	}
	view, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondViewError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// HandleSeed matches the :share segment against the seed-<seed> shape; the
// seed alone authorizes the view.
func (h *analysisViewController) HandleSeed(c *gin.Context) {
	share := c.Param("share")
	seed := strings.TrimPrefix(share, "seed-")
	if seed == share || seed == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	view, err := h.svc.BySeed(c.Request.Context(), c.Param("id"), seed)
	if err != nil {
		respondViewError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
