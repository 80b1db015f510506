package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	creditnotedomain "github.com/medloop/aushadhi/internal/creditnote/domain"
	paymentdomain "github.com/medloop/aushadhi/internal/payment/domain"
)

type returnLineBody struct {
	LineItemID string `json:"line_item_id"`
	Quantity   int64  `json:"quantity"`
}

type processReturnBody struct {
	OriginalInvoiceID string           `json:"original_invoice_id"`
	Lines             []returnLineBody `json:"line_items"`
	Reason            string           `json:"reason"`
	RefundMethod      *string          `json:"refund_method"`
	ReturnRef         string           `json:"return_ref"`
}

func (s *Server) ProcessReturn(c *gin.Context) {
	tc, ok := s.tenant(c)
	if !ok {
		return
	}

	var body processReturnBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError("malformed request body"))
		return
	}

	originalID, err := snowflake.ParseString(body.OriginalInvoiceID)
	if err != nil {
		AbortWithError(c, invalidRequestError("invalid original_invoice_id"))
		return
	}

	req := creditnotedomain.ProcessReturnRequest{
		OriginalInvoiceID: originalID,
		Reason:            body.Reason,
		ReturnRef:         body.ReturnRef,
		Lines:             make([]creditnotedomain.ReturnLine, 0, len(body.Lines)),
	}
	if body.RefundMethod != nil {
		m := paymentdomain.Method(*body.RefundMethod)
		req.RefundMethod = &m
	}
	for _, line := range body.Lines {
		lineID, err := snowflake.ParseString(line.LineItemID)
		if err != nil {
			AbortWithError(c, invalidRequestError("invalid line_item_id"))
			return
		}
		req.Lines = append(req.Lines, creditnotedomain.ReturnLine{
			LineItemID: lineID,
			Quantity:   line.Quantity,
		})
	}

	resp, err := s.creditNoteSvc.ProcessReturn(c.Request.Context(), tc, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": resp})
}
