// internal/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the purchase engine collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Purchases        *prometheus.CounterVec
	Compensations    *prometheus.CounterVec
	WalletOperations *prometheus.CounterVec
	PurchaseDuration prometheus.Histogram
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Purchases: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "marketplace_purchases_total",
			Help: "Purchase attempts by outcome (completed or error kind)",
		}, []string{"outcome"}),
		Compensations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "marketplace_compensations_total",
			Help: "Compensation steps run after a partial purchase failure",
		}, []string{"step", "result"}),
		WalletOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "marketplace_wallet_operations_total",
			Help: "Wallet operations by type and result",
		}, []string{"op", "result"}),
		PurchaseDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "marketplace_purchase_duration_seconds",
			Help:    "Duration of purchase workflows",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// ObservePurchase records the outcome and duration of one purchase.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObservePurchase(outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.Purchases.WithLabelValues(outcome).Inc()
	m.PurchaseDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncCompensation(step, result string) {
	if m == nil {
		return
	}
	m.Compensations.WithLabelValues(step, result).Inc()
}

func (m *Metrics) IncWalletOperation(op, result string) {
	if m == nil {
		return
	}
	m.WalletOperations.WithLabelValues(op, result).Inc()
}
