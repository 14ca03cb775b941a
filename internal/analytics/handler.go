package analytics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	httperr "github.com/pulselog-lab/pulselog/internal/core/errors"
	"github.com/pulselog-lab/pulselog/internal/core/period"
)

// RegisterRoutes registers all analytics API routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	g := r.Group("/v1/subjects/:subject_id")
	g.GET("/streak", s.HandleStreak)
	g.GET("/trend/weekly", s.HandleWeeklyTrend)
	g.GET("/trend/rolling", s.HandleRollingAverage)
	g.GET("/calendar/:month", s.HandleCalendar)
	g.GET("/heatmap", s.HandleHeatmap)
	g.GET("/score/consistency", s.HandleConsistency)
	g.GET("/score/burnout", s.HandleBurnout)
}

type subjectURI struct {
	SubjectID string `uri:"subject_id" binding:"required"`
}

type rangeQuery struct {
	Start time.Time `form:"start" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	End   time.Time `form:"end" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
}

// HandleStreak handles GET /v1/subjects/:subject_id/streak?period=day|week
func (s *Service) HandleStreak(c *gin.Context) {
	var uri subjectURI
	if !bindURI(c, &uri) {
		return
	}

	kind, ok := bindPeriodKind(c)
	if !ok {
		return
	}

	resp, err := s.Streak(c.Request.Context(), uri.SubjectID, kind)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleWeeklyTrend handles GET /v1/subjects/:subject_id/trend/weekly?start=..&end=..
func (s *Service) HandleWeeklyTrend(c *gin.Context) {
	var uri subjectURI
	var query rangeQuery
	if !bindURI(c, &uri) || !bindQuery(c, &query) {
		return
	}

	resp, err := s.WeeklyTrend(c.Request.Context(), uri.SubjectID, query.Start, query.End)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleRollingAverage handles GET /v1/subjects/:subject_id/trend/rolling?start=..&end=..
func (s *Service) HandleRollingAverage(c *gin.Context) {
	var uri subjectURI
	var query rangeQuery
	if !bindURI(c, &uri) || !bindQuery(c, &query) {
		return
	}

	resp, err := s.RollingAverage(c.Request.Context(), uri.SubjectID, query.Start, query.End)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleCalendar handles GET /v1/subjects/:subject_id/calendar/:month (YYYY-MM)
func (s *Service) HandleCalendar(c *gin.Context) {
	var uri struct {
		SubjectID string `uri:"subject_id" binding:"required"`
		Month     string `uri:"month" binding:"required"`
	}
	if err := c.ShouldBindUri(&uri); err != nil {
		writeBindError(c, "Invalid path parameters", err)
		return
	}

	monthStart, err := time.Parse("2006-01", uri.Month)
	if err != nil {
		writeBindError(c, "Invalid month (expected YYYY-MM)", err)
		return
	}

	resp, svcErr := s.Calendar(c.Request.Context(), uri.SubjectID, monthStart.Year(), monthStart.Month())
	if svcErr != nil {
		writeServiceError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleHeatmap handles GET /v1/subjects/:subject_id/heatmap?days=N
func (s *Service) HandleHeatmap(c *gin.Context) {
	var uri subjectURI
	if !bindURI(c, &uri) {
		return
	}

	days := 0
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeBindError(c, "Invalid days parameter", err)
			return
		}
		days = parsed
	}

	resp, err := s.Heatmap(c.Request.Context(), uri.SubjectID, days)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleConsistency handles GET /v1/subjects/:subject_id/score/consistency?period=..&expected_periods=N
func (s *Service) HandleConsistency(c *gin.Context) {
	var uri subjectURI
	if !bindURI(c, &uri) {
		return
	}

	kind, ok := bindPeriodKind(c)
	if !ok {
		return
	}

	expected := 30
	if raw := c.Query("expected_periods"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeBindError(c, "Invalid expected_periods parameter", err)
			return
		}
		expected = parsed
	}

	resp, err := s.Consistency(c.Request.Context(), uri.SubjectID, kind, expected)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleBurnout handles GET /v1/subjects/:subject_id/score/burnout?start=..&end=..
func (s *Service) HandleBurnout(c *gin.Context) {
	var uri subjectURI
	var query rangeQuery
	if !bindURI(c, &uri) || !bindQuery(c, &query) {
		return
	}

	resp, err := s.Burnout(c.Request.Context(), uri.SubjectID, query.Start, query.End)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func bindURI(c *gin.Context, uri *subjectURI) bool {
	if err := c.ShouldBindUri(uri); err != nil {
		writeBindError(c, "Invalid path parameters", err)
		return false
	}
	return true
}

func bindQuery(c *gin.Context, query *rangeQuery) bool {
	if err := c.ShouldBindQuery(query); err != nil {
		writeBindError(c, "Invalid query parameters", err)
		return false
	}
	return true
}

func bindPeriodKind(c *gin.Context) (period.Kind, bool) {
	raw := c.DefaultQuery("period", string(period.Day))
	kind := period.Kind(raw)
	if kind != period.Day && kind != period.Week {
		writeBindError(c, "Invalid period (must be day or week)", errors.New(raw))
		return "", false
	}
	return kind, true
}

func writeBindError(c *gin.Context, message string, err error) {
	c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
		ErrorType: httperr.HttpInvalidJsonError,
		Message:   message,
		Details:   err.Error(),
	})
}

func writeServiceError(c *gin.Context, err error) {
	if errors.Is(err, ErrInvalidQuery) || isInvalidRange(err) {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidRangeError,
			Message:   "Invalid analytics query",
			Details:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
		ErrorType: httperr.HttpInternalError,
		Message:   "Failed to compute analytics",
		Details:   err.Error(),
	})
}
