package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	creditnotedomain "github.com/medloop/aushadhi/internal/creditnote/domain"
	customerdomain "github.com/medloop/aushadhi/internal/customer/domain"
	"github.com/medloop/aushadhi/internal/gst"
	invoicedomain "github.com/medloop/aushadhi/internal/invoice/domain"
	paymentdomain "github.com/medloop/aushadhi/internal/payment/domain"
	"github.com/medloop/aushadhi/internal/tenantctx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type          string `json:"type"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var ErrInvalidRequest = errors.New("invalid_request")

// ErrorHandlingMiddleware turns errors pushed onto the gin context into one
// JSON error response. Reconciliation failures additionally get a
// correlation id logged server-side so the aborted invoice can be traced.
func ErrorHandlingMiddleware(log *zap.Logger) gin.HandlerFunc {
	l := log.Named("http.errors")
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		if status == http.StatusInternalServerError {
			payload.CorrelationID = correlationID(c)
			l.Error("request failed",
				zap.String("correlation_id", payload.CorrelationID),
				zap.Error(lastErr.Err),
			)
		}
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError(message string) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, message)
}

func mapError(err error) (int, errorPayload) {
	switch {
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case errors.Is(err, paymentdomain.ErrOverpayment):
		return http.StatusBadRequest, errorPayload{
			Type:    "overpayment",
			Message: err.Error(),
		}
	case errors.Is(err, customerdomain.ErrCreditLimitExceeded):
		return http.StatusBadRequest, errorPayload{
			Type:    "credit_limit_exceeded",
			Message: err.Error(),
		}
	case errors.Is(err, tenantctx.ErrMissingTenant):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "missing or invalid seller identity",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: err.Error(),
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case errors.Is(err, invoicedomain.ErrReconciliationFailure):
		return http.StatusInternalServerError, errorPayload{
			Type:    "reconciliation_failure",
			Message: "invoice reconciliation failed, transaction rolled back",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, gst.ErrEmptyCart),
		errors.Is(err, gst.ErrMissingStateCode),
		errors.Is(err, gst.ErrInvalidQuantity),
		errors.Is(err, gst.ErrInvalidUnitPrice),
		errors.Is(err, gst.ErrInvalidDiscount),
		errors.Is(err, gst.ErrInvalidRate),
		errors.Is(err, gst.ErrMissingHSNCode),
		errors.Is(err, gst.ErrInvalidInclusion),
		errors.Is(err, gst.ErrAmbiguousDiscount),
		errors.Is(err, invoicedomain.ErrInvalidID),
		errors.Is(err, invoicedomain.ErrInvalidRoundingRequest),
		errors.Is(err, paymentdomain.ErrInvalidMethod),
		errors.Is(err, paymentdomain.ErrInvalidDetails),
		errors.Is(err, paymentdomain.ErrInvalidAmount),
		errors.Is(err, paymentdomain.ErrNoPayments),
		errors.Is(err, paymentdomain.ErrMissingCustomer),
		errors.Is(err, paymentdomain.ErrInvoiceNotSettlable),
		errors.Is(err, customerdomain.ErrInvalidName),
		errors.Is(err, creditnotedomain.ErrNothingToReturn),
		errors.Is(err, creditnotedomain.ErrMissingReturnRef),
		errors.Is(err, creditnotedomain.ErrInvalidQuantity),
		errors.Is(err, creditnotedomain.ErrQuantityExceeded),
		errors.Is(err, creditnotedomain.ErrNotReturnable),
		errors.Is(err, creditnotedomain.ErrInvalidRefund),
		errors.Is(err, creditnotedomain.ErrRefundNeedsAccount):
		return true
	}
	return false
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, invoicedomain.ErrNotFound),
		errors.Is(err, customerdomain.ErrNotFound),
		errors.Is(err, paymentdomain.ErrPaymentNotFound),
		errors.Is(err, creditnotedomain.ErrLineNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	}
	return false
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, invoicedomain.ErrAlreadyCancelled),
		errors.Is(err, invoicedomain.ErrCancelSettledInvoice),
		errors.Is(err, invoicedomain.ErrCancelWrongStatus),
		errors.Is(err, paymentdomain.ErrAlreadyFinal),
		errors.Is(err, paymentdomain.ErrDuplicateProvider),
		errors.Is(err, creditnotedomain.ErrDuplicateReturn):
		return true
	}
	return false
}

func correlationID(c *gin.Context) string {
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	return fmt.Sprintf("req-%d", time.Now().UnixNano())
}
