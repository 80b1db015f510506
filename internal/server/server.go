// Package server exposes the billing engine over HTTP: checkout, payment
// recording, returns, customer accounts and the GST reporting reads.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/medloop/aushadhi/internal/config"
	"github.com/medloop/aushadhi/internal/creditnote"
	creditnotedomain "github.com/medloop/aushadhi/internal/creditnote/domain"
	"github.com/medloop/aushadhi/internal/customer"
	customerdomain "github.com/medloop/aushadhi/internal/customer/domain"
	"github.com/medloop/aushadhi/internal/inventory"
	"github.com/medloop/aushadhi/internal/invoice"
	invoicedomain "github.com/medloop/aushadhi/internal/invoice/domain"
	obsmetrics "github.com/medloop/aushadhi/internal/observability/metrics"
	"github.com/medloop/aushadhi/internal/payment"
	paymentdomain "github.com/medloop/aushadhi/internal/payment/domain"
	paymentrepo "github.com/medloop/aushadhi/internal/payment/repository"
	"github.com/medloop/aushadhi/internal/reporting"
	reportingdomain "github.com/medloop/aushadhi/internal/reporting/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	obsmetrics.Module,
	fx.Provide(registerGin),
	customer.Module,
	inventory.Module,
	invoice.Module,
	payment.Module,
	creditnote.Module,
	reporting.Module,
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(ErrorHandlingMiddleware(log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	invoiceSvc    invoicedomain.Service
	paymentSvc    paymentdomain.Service
	paymentRepo   paymentrepo.Repository
	creditNoteSvc creditnotedomain.Service
	customerSvc   customerdomain.Service
	reportingSvc  reportingdomain.Service
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	InvoiceSvc    invoicedomain.Service
	PaymentSvc    paymentdomain.Service
	PaymentRepo   paymentrepo.Repository
	CreditNoteSvc creditnotedomain.Service
	CustomerSvc   customerdomain.Service
	ReportingSvc  reportingdomain.Service
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		invoiceSvc:    p.InvoiceSvc,
		paymentSvc:    p.PaymentSvc,
		paymentRepo:   p.PaymentRepo,
		creditNoteSvc: p.CreditNoteSvc,
		customerSvc:   p.CustomerSvc,
		reportingSvc:  p.ReportingSvc,
	}
}

func registerRoutes(s *Server) {
	s.RegisterAPIRoutes()
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) RegisterAPIRoutes() {
	api := s.engine.Group("/api", s.TenantRequired())

	// -------- Checkout / Invoices --------
	api.POST("/checkout", s.Checkout)
	api.GET("/invoices", s.ListInvoices)
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.POST("/invoices/:id/cancel", s.CancelInvoice)

	// -------- Payments --------
	api.POST("/invoices/:id/payments", s.RecordPayments)
	api.POST("/payments/:id/confirm", s.ConfirmPayment)
	api.POST("/payments/:id/fail", s.FailPayment)
	api.POST("/payments/webhooks", s.HandlePaymentWebhook)

	// -------- Returns --------
	api.POST("/returns", s.ProcessReturn)

	// -------- Customers --------
	api.POST("/customers", s.CreateCustomer)
	api.GET("/customers/:id", s.GetCustomerByID)
	api.GET("/customers/:id/ledger", s.ListCustomerLedger)

	// -------- Reports --------
	api.GET("/reports/hsn-summary", s.GetHSNSummary)
	api.GET("/reports/daily-summary", s.GetDailySummary)
	api.GET("/reports/year-end-summary", s.GetYearEndSummary)
}
