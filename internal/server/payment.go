package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/medloop/aushadhi/internal/payment/domain"
)

type recordPaymentsBody struct {
	Payments []paymentdomain.NewPayment `json:"payments"`
}

func (s *Server) RecordPayments(c *gin.Context) {
	tc, ok := s.tenant(c)
	if !ok {
		return
	}
	invoiceID, ok := s.pathID(c)
	if !ok {
		return
	}

	var body recordPaymentsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError("malformed request body"))
		return
	}

	resp, err := s.paymentSvc.RecordPayments(c.Request.Context(), tc, paymentdomain.RecordPaymentsRequest{
		InvoiceID: invoiceID,
		Payments:  body.Payments,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ConfirmPayment(c *gin.Context) {
	tc, ok := s.tenant(c)
	if !ok {
		return
	}
	paymentID, ok := s.pathID(c)
	if !ok {
		return
	}

	if err := s.paymentSvc.ConfirmPayment(c.Request.Context(), tc, paymentID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "confirmed"})
}

func (s *Server) FailPayment(c *gin.Context) {
	tc, ok := s.tenant(c)
	if !ok {
		return
	}
	paymentID, ok := s.pathID(c)
	if !ok {
		return
	}

	if err := s.paymentSvc.FailPayment(c.Request.Context(), tc, paymentID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "failed"})
}

type paymentWebhookBody struct {
	ProviderPaymentID string `json:"provider_payment_id"`
	Event             string `json:"event"`
}

// HandlePaymentWebhook processes provider callbacks. Duplicate deliveries
// for the same provider payment id are harmless: confirmation is keyed on
// that id and replays of a PAID payment are no-ops.
func (s *Server) HandlePaymentWebhook(c *gin.Context) {
	tc, ok := s.tenant(c)
	if !ok {
		return
	}

	var body paymentWebhookBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError("malformed request body"))
		return
	}
	if strings.TrimSpace(body.ProviderPaymentID) == "" {
		AbortWithError(c, invalidRequestError("missing provider_payment_id"))
		return
	}

	switch body.Event {
	case "payment.captured", "payment.success":
		if err := s.paymentSvc.ConfirmByProviderRef(c.Request.Context(), tc, body.ProviderPaymentID); err != nil {
			AbortWithError(c, err)
			return
		}
	case "payment.failed":
		p, err := s.paymentRepo.FindByProviderRef(c.Request.Context(), tc.TenantID, body.ProviderPaymentID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if p == nil {
			AbortWithError(c, paymentdomain.ErrPaymentNotFound)
			return
		}
		if err := s.paymentSvc.FailPayment(c.Request.Context(), tc, p.ID); err != nil {
			AbortWithError(c, err)
			return
		}
	default:
		AbortWithError(c, invalidRequestError("unknown event"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
