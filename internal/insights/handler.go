package insights

import (
	"net/http"

	"github.com/gin-gonic/gin"

	httperr "github.com/pulselog-lab/pulselog/internal/core/errors"
)

// RegisterRoutes registers the insights API route.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/subjects/:subject_id/insights", s.HandleGet)
}

// HandleGet handles GET /v1/subjects/:subject_id/insights.
func (s *Service) HandleGet(c *gin.Context) {
	var uri struct {
		SubjectID string `uri:"subject_id" binding:"required"`
	}
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid path parameters",
			Details:   err.Error(),
		})
		return
	}

	resp, err := s.Get(c.Request.Context(), uri.SubjectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to compute insights",
			Details:   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, resp)
}
