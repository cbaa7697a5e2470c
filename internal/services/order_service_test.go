// server/internal/services/order_service_test.go
package services

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

type testEnv struct {
	orders   *memstore.OrderStore
	bids     *memstore.BidStore
	vehicles *memstore.VehicleStore
	users    *memstore.UserStore
	proofs   *memstore.ProofStore

	orderSvc *OrderService
	bidSvc   *BidService
	tripSvc  *TripService
}

func newTestEnv() *testEnv {
	env := &testEnv{
		orders:   memstore.NewOrderStore(),
		bids:     memstore.NewBidStore(),
		vehicles: memstore.NewVehicleStore(),
		users:    memstore.NewUserStore(),
		proofs:   memstore.NewProofStore(),
	}
	env.orderSvc = NewOrderService(env.orders, env.bids, env.vehicles, notify.Noop{})
	env.bidSvc = NewBidService(env.orders, env.bids, env.users, notify.Noop{})
	env.tripSvc = NewTripService(env.orders, env.vehicles, env.proofs, notify.Noop{})
	return env
}

func validOrderInput(customerID string) PlaceOrderInput {
	return PlaceOrderInput{
		CustomerID:      customerID,
		PickupAddress:   models.Address{FullText: "KCN Tan Binh, TP.HCM", Latitude: 10.8, Longitude: 106.65},
		DeliveryAddress: models.Address{FullText: "Cang Cat Lai, TP.HCM", Latitude: 10.76, Longitude: 106.79},
		DistanceKM:      25,
		MaxPrice:        5000000,
		TruckType:       "TRUCK",
		GoodsType:       "Electronics",
		Weight:          models.Weight{Value: 2.5, Unit: "tonnes"},
		ScheduledAt:     time.Now().Add(96 * time.Hour),
	}
}

func (env *testEnv) placeOrder(t *testing.T, customerID string) *models.Order {
	t.Helper()
	order, err := env.orderSvc.PlaceOrder(context.Background(), validOrderInput(customerID))
	require.NoError(t, err)
	return order
}

func TestPlaceOrderDerivesImmutableDeadlines(t *testing.T) {
	env := newTestEnv()
	in := validOrderInput("CUST-1")

	order, err := env.orderSvc.PlaceOrder(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, models.StatusPlaced, order.Status)
	assert.Equal(t, in.ScheduledAt.Add(-48*time.Hour), order.BiddingClosesAt)
	assert.Equal(t, order.BiddingClosesAt.Add(24*time.Hour), order.ExpiresAt)
	require.Len(t, order.Stops, 2)
	assert.Equal(t, models.StopPickup, order.Stops[0].Type)
	assert.Equal(t, models.StopDropoff, order.Stops[1].Type)
}

func TestPlaceOrderValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	in := validOrderInput("CUST-1")
	in.MaxPrice = 0
	_, err := env.orderSvc.PlaceOrder(ctx, in)
	assert.ErrorIs(t, err, ErrValidation)

	in = validOrderInput("CUST-1")
	in.PickupAddress.FullText = ""
	_, err = env.orderSvc.PlaceOrder(ctx, in)
	assert.ErrorIs(t, err, ErrValidation)

	// scheduledAt quá gần: cửa sổ đấu thầu đã đóng ngay từ lúc tạo.
	in = validOrderInput("CUST-1")
	in.ScheduledAt = time.Now().Add(24 * time.Hour)
	_, err = env.orderSvc.PlaceOrder(ctx, in)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGetOrderForUserScoping(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	order := env.placeOrder(t, "CUST-1")

	// Chủ đơn thấy đơn của mình.
	got, err := env.orderSvc.GetOrderForUser(ctx, "CUST-1", models.RoleCustomer, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderID, got.OrderID)

	// Khách khác nhận NotFound, không phải Forbidden.
	_, err = env.orderSvc.GetOrderForUser(ctx, "CUST-2", models.RoleCustomer, order.OrderID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Nhà vận chuyển thấy đơn còn mở thầu.
	_, err = env.orderSvc.GetOrderForUser(ctx, "TRANS-1", models.RoleTransporter, order.OrderID)
	assert.NoError(t, err)

	// Admin thấy tất cả.
	_, err = env.orderSvc.GetOrderForUser(ctx, "ADMIN-1", models.RoleAdmin, order.OrderID)
	assert.NoError(t, err)
}

func TestCancelOrderFromPlacedClearsBids(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	order := env.placeOrder(t, "CUST-1")

	_, err := env.bidSvc.SubmitBid(ctx, "TRANS-1", order.OrderID, 3000000, "")
	require.NoError(t, err)

	require.NoError(t, env.orderSvc.CancelOrder(ctx, "CUST-1", order.OrderID))

	got, err := env.orders.FindByOrderID(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)

	count, err := env.bids.CountByOrder(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCancelOrderFromAssignedClearsAwardAndReleasesVehicle(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	order := env.placeOrder(t, "CUST-1")

	bid, err := env.bidSvc.SubmitBid(ctx, "TRANS-1", order.OrderID, 3000000, "")
	require.NoError(t, err)
	_, err = env.bidSvc.AcceptBid(ctx, "CUST-1", order.OrderID, bid.BidID)
	require.NoError(t, err)

	seedVehicle(t, env, "TRANS-1", "VEH-1")
	_, err = env.tripSvc.AssignVehicle(ctx, "TRANS-1", order.OrderID, "VEH-1")
	require.NoError(t, err)

	require.NoError(t, env.orderSvc.CancelOrder(ctx, "CUST-1", order.OrderID))

	got, err := env.orders.FindByOrderID(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)
	assert.Empty(t, got.TransporterID)
	assert.Zero(t, got.FinalPrice)
	assert.Nil(t, got.Vehicle)

	v, err := env.vehicles.FindByVehicleID(ctx, "VEH-1")
	require.NoError(t, err)
	assert.Equal(t, models.VehicleAvailable, v.Status)
}

func TestCancelOrderRejectedAfterTransitStarts(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	order := startedOrder(t, env, "CUST-1", "TRANS-1")

	err := env.orderSvc.CancelOrder(ctx, "CUST-1", order.OrderID)
	assert.ErrorIs(t, err, ErrInvalidOperation)

	got, err := env.orders.FindByOrderID(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusStarted, got.Status)
}

func TestCancelOrderOwnershipReportedAsNotFound(t *testing.T) {
	env := newTestEnv()
	order := env.placeOrder(t, "CUST-1")

	err := env.orderSvc.CancelOrder(context.Background(), "CUST-2", order.OrderID)
	assert.ErrorIs(t, err, ErrNotFound)
}
