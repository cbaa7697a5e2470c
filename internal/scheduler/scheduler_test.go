// server/internal/scheduler/scheduler_test.go
package scheduler

import (
	"context"
	"testing"
	"time"

	"freight-marketplace-api-server/internal/models"
	"freight-marketplace-api-server/internal/notify"
	"freight-marketplace-api-server/internal/store/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedOrder(t *testing.T, orders *memstore.OrderStore, orderID string, status models.OrderStatus, scheduledAt time.Time) {
	t.Helper()
	biddingClosesAt, expiresAt := models.DeriveDeadlines(scheduledAt)
	now := time.Now()
	require.NoError(t, orders.Insert(context.Background(), &models.Order{
		OrderID:         orderID,
		CustomerID:      "CUST-1",
		PickupAddress:   models.Address{FullText: "KCN Tan Binh, TP.HCM"},
		DeliveryAddress: models.Address{FullText: "Cang Cat Lai, TP.HCM"},
		MaxPrice:        5000000,
		TruckType:       "TRUCK",
		ScheduledAt:     scheduledAt,
		BiddingClosesAt: biddingClosesAt,
		ExpiresAt:       expiresAt,
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}))
}

func seedBid(t *testing.T, bids *memstore.BidStore, orderID, transporterID string) {
	t.Helper()
	require.NoError(t, bids.Insert(context.Background(), &models.Bid{
		BidID:         "BID-" + orderID + "-" + transporterID,
		OrderID:       orderID,
		TransporterID: transporterID,
		Amount:        3000000,
		CreatedAt:     time.Now(),
	}))
}

// Đơn quá hạn không có bid nào -> REJECTED.
func TestRunOnceForeclosesNoBidOrderAsRejected(t *testing.T) {
	orders := memstore.NewOrderStore()
	bids := memstore.NewBidStore()
	// scheduledAt còn cách 12h => expiresAt đã qua 12h trước.
	seedOrder(t, orders, "ORD-1", models.StatusPlaced, time.Now().Add(12*time.Hour))

	s := New(orders, bids, notify.Noop{}, time.Hour)
	n, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := orders.FindByOrderID(context.Background(), "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, got.Status)
}

// Đơn quá hạn có bid nhưng chưa ai được trao thầu -> EXPIRED, bid giữ nguyên.
func TestRunOnceForeclosesBidOrderAsExpiredAndKeepsBids(t *testing.T) {
	orders := memstore.NewOrderStore()
	bids := memstore.NewBidStore()
	seedOrder(t, orders, "ORD-1", models.StatusPlaced, time.Now().Add(12*time.Hour))
	seedBid(t, bids, "ORD-1", "TRANS-1")
	seedBid(t, bids, "ORD-1", "TRANS-2")

	s := New(orders, bids, notify.Noop{}, time.Hour)
	n, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := orders.FindByOrderID(context.Background(), "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, got.Status)

	count, err := bids.CountByOrder(context.Background(), "ORD-1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

// Đơn chưa tới expiresAt và đơn không còn PLACED không bị quét đụng tới.
func TestRunOnceSkipsFreshAndNonPlacedOrders(t *testing.T) {
	orders := memstore.NewOrderStore()
	bids := memstore.NewBidStore()
	seedOrder(t, orders, "ORD-FRESH", models.StatusPlaced, time.Now().Add(96*time.Hour))
	seedOrder(t, orders, "ORD-ASSIGNED", models.StatusAssigned, time.Now().Add(12*time.Hour))
	seedOrder(t, orders, "ORD-DONE", models.StatusCompleted, time.Now().Add(-24*time.Hour))

	s := New(orders, bids, notify.Noop{}, time.Hour)
	n, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	for orderID, want := range map[string]models.OrderStatus{
		"ORD-FRESH":    models.StatusPlaced,
		"ORD-ASSIGNED": models.StatusAssigned,
		"ORD-DONE":     models.StatusCompleted,
	} {
		got, err := orders.FindByOrderID(context.Background(), orderID)
		require.NoError(t, err)
		assert.Equal(t, want, got.Status)
	}
}

// Quét hai lần liên tiếp cho cùng kết quả như quét một lần.
func TestRunOnceIsIdempotent(t *testing.T) {
	orders := memstore.NewOrderStore()
	bids := memstore.NewBidStore()
	seedOrder(t, orders, "ORD-1", models.StatusPlaced, time.Now().Add(12*time.Hour))
	seedBid(t, bids, "ORD-1", "TRANS-1")

	s := New(orders, bids, notify.Noop{}, time.Hour)

	n, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := orders.FindByOrderID(context.Background(), "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, got.Status)
}

func TestStartIsIdempotentAndStopWaits(t *testing.T) {
	orders := memstore.NewOrderStore()
	bids := memstore.NewBidStore()

	s := New(orders, bids, notify.Noop{}, 10*time.Millisecond)
	s.Start()
	s.Start() // gọi lần hai là no-op
	time.Sleep(30 * time.Millisecond)
	s.Stop()
	s.Stop() // dừng lần hai cũng là no-op
}

// Scheduler thua cuộc đua với một lần trao thầu xảy ra giữa chừng: đơn đã
// ASSIGNED thì foreclosure phải trượt sạch sẽ, không ghi đè.
func TestForecloseLosesRaceCleanly(t *testing.T) {
	orders := memstore.NewOrderStore()
	bids := memstore.NewBidStore()
	seedOrder(t, orders, "ORD-1", models.StatusPlaced, time.Now().Add(12*time.Hour))

	// Giả lập award chen vào sau khi scheduler đã liệt kê đơn.
	expired, err := orders.ListPlacedExpired(context.Background(), time.Now())
	require.NoError(t, err)
	require.Len(t, expired, 1)

	ok, err := orders.TransitionStatus(context.Background(), "ORD-1", models.StatusPlaced, models.StatusAssigned, nil)
	require.NoError(t, err)
	require.True(t, ok)

	s := New(orders, bids, notify.Noop{}, time.Hour)
	n, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := orders.FindByOrderID(context.Background(), "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, got.Status)
}
