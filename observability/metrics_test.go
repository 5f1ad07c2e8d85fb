package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"betpool/events"
	"betpool/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Attach(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	bus := events.NewBus()
	m.Attach(bus)

	ctx := context.Background()
	bus.Emit(ctx, events.BalanceChangeEvent{TransactionType: models.TransactionTypeBetPlaced, ChangeAmount: -60})
	bus.Emit(ctx, events.BalanceChangeEvent{TransactionType: models.TransactionTypeBetPlaced, ChangeAmount: -40})
	bus.Emit(ctx, events.BetPlacedEvent{Stake: 60})
	bus.Emit(ctx, events.EventSettledEvent{Pool: 100, WinnerCount: 2})
	bus.Wait()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DomainEvents.WithLabelValues("balance_change")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DomainEvents.WithLabelValues("event_settled")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LedgerMovements.WithLabelValues("bet_placed")))
	assert.Equal(t, 100.0, testutil.ToFloat64(m.LedgerVolume.WithLabelValues("bet_placed")))
	assert.Equal(t, 60.0, testutil.ToFloat64(m.StakePlaced))
	assert.Equal(t, 1, testutil.CollectAndCount(m.SettlementPool))
}

func TestMetrics_ObserveTransaction(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveTransaction("commit", 20*time.Millisecond)
	m.ObserveTransaction("commit", 10*time.Millisecond)
	m.ObserveTransaction("rollback", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Transactions.WithLabelValues("commit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transactions.WithLabelValues("rollback")))
}

func TestServer(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.ObserveTransaction("commit", time.Millisecond)

	var healthErr error
	srv := NewServer(":0", reg, func(ctx context.Context) error { return healthErr })

	t.Run("metrics", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, strings.Contains(rec.Body.String(), "betpool_store_transactions_total"))
	})

	t.Run("healthy", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", rec.Body.String())
	})

	t.Run("unhealthy", func(t *testing.T) {
		healthErr = errors.New("database unreachable")
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "database unreachable")
	})
}
