// Package metrics exposes prometheus counters for the billing engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

type Metrics struct {
	invoicesIssued         *prometheus.CounterVec
	paymentsRecorded       *prometheus.CounterVec
	creditNotesIssued      prometheus.Counter
	reconciliationFailures prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		invoicesIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aushadhi_invoices_issued_total",
			Help: "Invoices issued, by invoice type.",
		}, []string{"invoice_type"}),
		paymentsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aushadhi_payments_recorded_total",
			Help: "Payments recorded, by method.",
		}, []string{"method"}),
		creditNotesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aushadhi_credit_notes_issued_total",
			Help: "Credit notes issued for returns.",
		}),
		reconciliationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aushadhi_reconciliation_failures_total",
			Help: "Invoice assemblies aborted by the reconciliation check.",
		}),
	}
	prometheus.MustRegister(
		m.invoicesIssued,
		m.paymentsRecorded,
		m.creditNotesIssued,
		m.reconciliationFailures,
	)
	return m
}

func (m *Metrics) RecordInvoiceIssued(invoiceType string) {
	m.invoicesIssued.WithLabelValues(invoiceType).Inc()
}

func (m *Metrics) RecordPaymentRecorded(method string) {
	m.paymentsRecorded.WithLabelValues(method).Inc()
}

func (m *Metrics) RecordCreditNoteIssued() {
	m.creditNotesIssued.Inc()
}

func (m *Metrics) RecordReconciliationFailure() {
	m.reconciliationFailures.Inc()
}

var Module = fx.Module("observability.metrics",
	fx.Provide(New),
)
