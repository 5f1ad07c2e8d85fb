package observability

import (
	"context"
	"time"

	"betpool/events"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments of the betting pool
type Metrics struct {
	DomainEvents      *prometheus.CounterVec
	LedgerMovements   *prometheus.CounterVec
	LedgerVolume      *prometheus.CounterVec
	StakePlaced       prometheus.Counter
	SettlementPool    prometheus.Histogram
	SettlementWinners prometheus.Histogram

	Transactions        *prometheus.CounterVec
	TransactionDuration *prometheus.HistogramVec
}

// NewMetrics creates the instruments and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		DomainEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "betpool_domain_events_total",
			Help: "Committed domain events by type",
		}, []string{"event_type"}),

		LedgerMovements: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "betpool_ledger_movements_total",
			Help: "Wallet balance changes by transaction type",
		}, []string{"transaction_type"}),

		LedgerVolume: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "betpool_ledger_volume_total",
			Help: "Absolute amount moved through wallets by transaction type",
		}, []string{"transaction_type"}),

		StakePlaced: factory.NewCounter(prometheus.CounterOpts{
			Name: "betpool_stake_placed_total",
			Help: "Sum of stakes of accepted bets",
		}),

		SettlementPool: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "betpool_settlement_pool",
			Help:    "Pool size of settled events",
			Buckets: prometheus.ExponentialBuckets(10, 10, 8),
		}),

		SettlementWinners: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "betpool_settlement_winners",
			Help:    "Winning bets per settled event",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),

		Transactions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "betpool_store_transactions_total",
			Help: "Units of work by outcome",
		}, []string{"outcome"}),

		TransactionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "betpool_store_transaction_duration_seconds",
			Help:    "Time from Begin to Commit or Rollback",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
	}
}

// Attach counts every committed domain event emitted on bus
func (m *Metrics) Attach(bus *events.Bus) {
	for _, eventType := range events.AllEventTypes() {
		bus.Subscribe(eventType, func(_ context.Context, e events.Event) {
			m.observeEvent(e)
		})
	}
}

func (m *Metrics) observeEvent(e events.Event) {
	m.DomainEvents.WithLabelValues(string(e.Type())).Inc()

	switch ev := e.(type) {
	case events.BalanceChangeEvent:
		change := ev.ChangeAmount
		if change < 0 {
			change = -change
		}
		m.LedgerMovements.WithLabelValues(string(ev.TransactionType)).Inc()
		m.LedgerVolume.WithLabelValues(string(ev.TransactionType)).Add(float64(change))
	case events.BetPlacedEvent:
		m.StakePlaced.Add(float64(ev.Stake))
	case events.EventSettledEvent:
		m.SettlementPool.Observe(float64(ev.Pool))
		m.SettlementWinners.Observe(float64(ev.WinnerCount))
	}
}

// ObserveTransaction records how a unit of work ended
func (m *Metrics) ObserveTransaction(outcome string, duration time.Duration) {
	m.Transactions.WithLabelValues(outcome).Inc()
	m.TransactionDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}
