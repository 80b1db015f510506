package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	customerdomain "github.com/medloop/aushadhi/internal/customer/domain"
)

func (s *Server) CreateCustomer(c *gin.Context) {
	tc, ok := s.tenant(c)
	if !ok {
		return
	}

	var body customerdomain.CreateCustomerRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError("malformed request body"))
		return
	}

	cust, err := s.customerSvc.Create(c.Request.Context(), tc, body)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": cust})
}

func (s *Server) GetCustomerByID(c *gin.Context) {
	tc, ok := s.tenant(c)
	if !ok {
		return
	}
	id, ok := s.pathID(c)
	if !ok {
		return
	}

	cust, err := s.customerSvc.GetByID(c.Request.Context(), tc, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cust})
}

func (s *Server) ListCustomerLedger(c *gin.Context) {
	tc, ok := s.tenant(c)
	if !ok {
		return
	}
	id, ok := s.pathID(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			AbortWithError(c, invalidRequestError("invalid limit"))
			return
		}
		limit = n
	}

	entries, err := s.customerSvc.ListLedger(c.Request.Context(), tc, id, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries})
}
