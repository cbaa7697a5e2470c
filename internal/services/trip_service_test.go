// server/internal/services/trip_service_test.go
package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"freight-marketplace-api-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedVehicle(t *testing.T, env *testEnv, ownerID, vehicleID string) {
	t.Helper()
	now := time.Now()
	require.NoError(t, env.vehicles.Insert(context.Background(), &models.Vehicle{
		VehicleID:   vehicleID,
		PlateNumber: "51C-123.45",
		OwnerID:     ownerID,
		Specs:       models.VehicleSpecs{Type: "TRUCK", PayloadTonnes: 5},
		Status:      models.VehicleAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}))
}

// assignedOrder dựng một đơn đã trúng thầu cho transporterID.
func assignedOrder(t *testing.T, env *testEnv, customerID, transporterID string) *models.Order {
	t.Helper()
	ctx := context.Background()
	order := env.placeOrder(t, customerID)
	bid, err := env.bidSvc.SubmitBid(ctx, transporterID, order.OrderID, 3000000, "")
	require.NoError(t, err)
	updated, err := env.bidSvc.AcceptBid(ctx, customerID, order.OrderID, bid.BidID)
	require.NoError(t, err)
	return updated
}

// startedOrder dựng một đơn đã gán xe và bắt đầu chuyến.
func startedOrder(t *testing.T, env *testEnv, customerID, transporterID string) *models.Order {
	t.Helper()
	ctx := context.Background()
	order := assignedOrder(t, env, customerID, transporterID)
	seedVehicle(t, env, transporterID, "VEH-"+order.OrderID)
	_, err := env.tripSvc.AssignVehicle(ctx, transporterID, order.OrderID, "VEH-"+order.OrderID)
	require.NoError(t, err)
	require.NoError(t, env.tripSvc.StartTransit(ctx, transporterID, order.OrderID))

	got, err := env.orders.FindByOrderID(ctx, order.OrderID)
	require.NoError(t, err)
	return got
}

func TestAssignVehicleClaimsVehicle(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	order := assignedOrder(t, env, "CUST-1", "TRANS-1")
	seedVehicle(t, env, "TRANS-1", "VEH-1")

	updated, err := env.tripSvc.AssignVehicle(ctx, "TRANS-1", order.OrderID, "VEH-1")
	require.NoError(t, err)
	require.NotNil(t, updated.Vehicle)
	assert.Equal(t, "VEH-1", updated.Vehicle.VehicleID)
	assert.Equal(t, "51C-123.45", updated.Vehicle.PlateNumber)

	v, err := env.vehicles.FindByVehicleID(ctx, "VEH-1")
	require.NoError(t, err)
	assert.Equal(t, models.VehicleAssigned, v.Status)
}

func TestAssignVehicleRejectsForeignVehicle(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	order := assignedOrder(t, env, "CUST-1", "TRANS-1")
	seedVehicle(t, env, "TRANS-2", "VEH-OTHER")

	// Xe của người khác: NotFound, không để lộ fleet ngoài.
	_, err := env.tripSvc.AssignVehicle(ctx, "TRANS-1", order.OrderID, "VEH-OTHER")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAssignVehicleCannotDoubleBookAcrossOrders(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	first := assignedOrder(t, env, "CUST-1", "TRANS-1")
	second := assignedOrder(t, env, "CUST-2", "TRANS-1")
	seedVehicle(t, env, "TRANS-1", "VEH-1")

	_, err := env.tripSvc.AssignVehicle(ctx, "TRANS-1", first.OrderID, "VEH-1")
	require.NoError(t, err)

	// Xe đã bận với đơn thứ nhất.
	_, err = env.tripSvc.AssignVehicle(ctx, "TRANS-1", second.OrderID, "VEH-1")
	assert.ErrorIs(t, err, ErrInvalidOperation)
}

func TestStartTransitRequiresVehicle(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	order := assignedOrder(t, env, "CUST-1", "TRANS-1")

	err := env.tripSvc.StartTransit(ctx, "TRANS-1", order.OrderID)
	assert.ErrorIs(t, err, ErrInvalidOperation)

	got, err := env.orders.FindByOrderID(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, got.Status)
}

func TestStartTransitGeneratesFourDigitOTP(t *testing.T) {
	env := newTestEnv()
	order := startedOrder(t, env, "CUST-1", "TRANS-1")

	assert.Equal(t, models.StatusStarted, order.Status)
	// OTP 4 chữ số, đệm số 0 ("0042" hợp lệ).
	assert.Regexp(t, regexp.MustCompile(`^\d{4}$`), order.OTP)
}

func TestConfirmPickupRejectsWrongOTP(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	order := startedOrder(t, env, "CUST-1", "TRANS-1")

	wrong := "0000"
	if order.OTP == "0000" {
		wrong = "0001"
	}

	err := env.tripSvc.ConfirmPickup(ctx, "TRANS-1", order.OrderID, wrong)
	assert.ErrorIs(t, err, ErrInvalidOperation)

	// Sai OTP: status và OTP giữ nguyên.
	got, err := env.orders.FindByOrderID(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusStarted, got.Status)
	assert.Equal(t, order.OTP, got.OTP)
}

func TestConfirmPickupAcceptsCorrectOTPAndClearsIt(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	order := startedOrder(t, env, "CUST-1", "TRANS-1")

	require.NoError(t, env.tripSvc.ConfirmPickup(ctx, "TRANS-1", order.OrderID, order.OTP))

	got, err := env.orders.FindByOrderID(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInTransit, got.Status)
	assert.Empty(t, got.OTP)

	// OTP đã dùng xong, xác nhận lại là thao tác không hợp lệ.
	err = env.tripSvc.ConfirmPickup(ctx, "TRANS-1", order.OrderID, order.OTP)
	assert.ErrorIs(t, err, ErrInvalidOperation)
}

func TestConfirmPickupRotatesOTPAfterRepeatedFailures(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	order := startedOrder(t, env, "CUST-1", "TRANS-1")

	wrong := "0000"
	if order.OTP == "0000" {
		wrong = "0001"
	}

	for i := 0; i < maxOTPAttempts; i++ {
		err := env.tripSvc.ConfirmPickup(ctx, "TRANS-1", order.OrderID, wrong)
		assert.ErrorIs(t, err, ErrInvalidOperation)
	}

	got, err := env.orders.FindByOrderID(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusStarted, got.Status)
	assert.Zero(t, got.OTPAttempts, "counter resets after rotation")
	assert.Regexp(t, regexp.MustCompile(`^\d{4}$`), got.OTP)

	// OTP mới (có thể trùng giá trị cũ về mặt xác suất, nhưng mã hiện hành
	// luôn xác nhận được): chuyến đi không bao giờ bị khóa vĩnh viễn.
	require.NoError(t, env.tripSvc.ConfirmPickup(ctx, "TRANS-1", order.OrderID, got.OTP))
}

func TestConfirmDeliveryCompletesAndReleasesVehicle(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	order := startedOrder(t, env, "CUST-1", "TRANS-1")
	require.NoError(t, env.tripSvc.ConfirmPickup(ctx, "TRANS-1", order.OrderID, order.OTP))

	require.NoError(t, env.tripSvc.ConfirmDelivery(ctx, "TRANS-1", order.OrderID))

	got, err := env.orders.FindByOrderID(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	// Snapshot xe giữ lại làm lịch sử.
	require.NotNil(t, got.Vehicle)

	v, err := env.vehicles.FindByVehicleID(ctx, got.Vehicle.VehicleID)
	require.NoError(t, err)
	assert.Equal(t, models.VehicleAvailable, v.Status)
}

func TestConfirmDeliveryRequiresInTransit(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	order := startedOrder(t, env, "CUST-1", "TRANS-1")

	// Còn ở STARTED, chưa qua cổng OTP.
	err := env.tripSvc.ConfirmDelivery(ctx, "TRANS-1", order.OrderID)
	assert.ErrorIs(t, err, ErrInvalidOperation)
}

func TestStopProgression(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	order := startedOrder(t, env, "CUST-1", "TRANS-1")

	// Không thể đến điểm giao khi chưa rời điểm lấy.
	err := env.tripSvc.ArriveAtStop(ctx, "TRANS-1", order.OrderID, 2)
	assert.ErrorIs(t, err, ErrInvalidOperation)

	require.NoError(t, env.tripSvc.ArriveAtStop(ctx, "TRANS-1", order.OrderID, 1))

	// Chưa rời thì không đến tiếp được.
	err = env.tripSvc.ArriveAtStop(ctx, "TRANS-1", order.OrderID, 2)
	assert.ErrorIs(t, err, ErrInvalidOperation)

	require.NoError(t, env.tripSvc.DepartFromStop(ctx, "TRANS-1", order.OrderID, 1))
	require.NoError(t, env.tripSvc.ArriveAtStop(ctx, "TRANS-1", order.OrderID, 2))

	got, err := env.orders.FindByOrderID(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.StopDeparted, got.Stops[0].Status)
	assert.NotNil(t, got.Stops[0].ActualArrival)
	assert.NotNil(t, got.Stops[0].ActualDeparture)
	assert.Equal(t, models.StopArrived, got.Stops[1].Status)
}

func TestSkipStopOnlyForWaypoints(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	order := startedOrder(t, env, "CUST-1", "TRANS-1")

	// Điểm lấy hàng không bao giờ được bỏ qua.
	err := env.tripSvc.SkipStop(ctx, "TRANS-1", order.OrderID, 1)
	assert.ErrorIs(t, err, ErrInvalidOperation)
}

func TestRecordStopProof(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	order := startedOrder(t, env, "CUST-1", "TRANS-1")

	photo := models.MediaPointer{ID: "proofs/x", URL: "https://cdn.example.com/proofs/x", FileName: "pickup.jpg", FileType: "image/jpeg"}
	proof, err := env.tripSvc.RecordStopProof(ctx, "TRANS-1", order.OrderID, 1, "PICKUP", photo, "abc123")
	require.NoError(t, err)
	assert.Equal(t, order.OrderID, proof.OrderID)
	assert.Equal(t, "TRANS-1", proof.UploadedBy)

	_, err = env.tripSvc.RecordStopProof(ctx, "TRANS-1", order.OrderID, 1, "SELFIE", photo, "abc123")
	assert.ErrorIs(t, err, ErrValidation)

	proofs, err := env.tripSvc.ListProofs(ctx, "TRANS-1", order.OrderID)
	require.NoError(t, err)
	assert.Len(t, proofs, 1)
}

func TestTripActionsByNonOwnerReportedAsNotFound(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	order := startedOrder(t, env, "CUST-1", "TRANS-1")

	assert.ErrorIs(t, env.tripSvc.StartTransit(ctx, "TRANS-2", order.OrderID), ErrNotFound)
	assert.ErrorIs(t, env.tripSvc.ConfirmPickup(ctx, "TRANS-2", order.OrderID, order.OTP), ErrNotFound)
	assert.ErrorIs(t, env.tripSvc.ConfirmDelivery(ctx, "TRANS-2", order.OrderID), ErrNotFound)
}
