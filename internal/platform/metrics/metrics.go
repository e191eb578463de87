package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RegistrationsCreated prometheus.Counter
	PaymentsConfirmed    prometheus.Counter
	PaymentsFailed       prometheus.Counter
	EmailsSent           prometheus.Counter
	EmailsFailed         prometheus.Counter
	WebhooksRejected     prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RegistrationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "confreg_registrations_created_total",
			Help: "Total number of registrations created",
		}),
		PaymentsConfirmed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "confreg_payments_confirmed_total",
			Help: "Total number of registrations transitioned to paid",
		}),
		PaymentsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "confreg_payments_failed_total",
			Help: "Total number of gateway verifications reporting non-success",
		}),
		EmailsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "confreg_confirmation_emails_sent_total",
			Help: "Total number of confirmation email sequences delivered",
		}),
		EmailsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "confreg_confirmation_emails_failed_total",
			Help: "Total number of confirmation email sequences exhausted without delivery",
		}),
		WebhooksRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "confreg_webhooks_rejected_total",
			Help: "Total number of webhook requests rejected for bad signatures",
		}),
	}
}

func (m *Metrics) IncrementRegistrationsCreated() {
	if m != nil {
		m.RegistrationsCreated.Inc()
	}
}

func (m *Metrics) IncrementPaymentsConfirmed() {
	if m != nil {
		m.PaymentsConfirmed.Inc()
	}
}

func (m *Metrics) IncrementPaymentsFailed() {
	if m != nil {
		m.PaymentsFailed.Inc()
	}
}

func (m *Metrics) IncrementEmailsSent() {
	if m != nil {
		m.EmailsSent.Inc()
	}
}

func (m *Metrics) IncrementEmailsFailed() {
	if m != nil {
		m.EmailsFailed.Inc()
	}
}

func (m *Metrics) IncrementWebhooksRejected() {
	if m != nil {
		m.WebhooksRejected.Inc()
	}
}
