package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetHSNSummary(c *gin.Context) {
	tc, ok := s.tenant(c)
	if !ok {
		return
	}

	from, err := requiredDateQuery(c, "from")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	to, err := requiredDateQuery(c, "to")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	rows, err := s.reportingSvc.HSNSummary(c.Request.Context(), tc, from, to)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

func (s *Server) GetDailySummary(c *gin.Context) {
	tc, ok := s.tenant(c)
	if !ok {
		return
	}

	day, err := requiredDateQuery(c, "date")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	summary, err := s.reportingSvc.DailySummary(c.Request.Context(), tc, day)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summary})
}

func (s *Server) GetYearEndSummary(c *gin.Context) {
	tc, ok := s.tenant(c)
	if !ok {
		return
	}

	start, err := requiredDateQuery(c, "fiscal_year_start")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	summary, err := s.reportingSvc.YearEndSummary(c.Request.Context(), tc, start)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summary})
}

func requiredDateQuery(c *gin.Context, name string) (time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return time.Time{}, invalidRequestError("missing " + name)
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, invalidRequestError("invalid " + name)
	}
	return t, nil
}
