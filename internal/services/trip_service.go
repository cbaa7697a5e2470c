// server/internal/services/trip_service.go
package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"freight-marketplace-api-server/internal/models"
	"freight-marketplace-api-server/internal/notify"
	"freight-marketplace-api-server/internal/store"
)

// Sau 5 lần nhập sai liên tiếp, OTP bị xoay: mã mới được đẩy cho khách và bộ
// đếm reset, nên vòng lặp brute-force không bao giờ hội tụ về mã đang thử.
const maxOTPAttempts = 5

// generateOTP sinh mã 4 chữ số, đệm số 0 (ví dụ "0042").
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}

// TripService điều khiển một đơn đã gán qua các checkpoint vật lý:
// gán xe, bắt đầu chuyến, xác nhận lấy hàng bằng OTP, giao hàng.
type TripService struct {
	orders   store.OrderStore
	vehicles store.VehicleStore
	proofs   store.ProofStore
	notifier notify.Notifier
}

func NewTripService(orders store.OrderStore, vehicles store.VehicleStore, proofs store.ProofStore, notifier notify.Notifier) *TripService {
	return &TripService{orders: orders, vehicles: vehicles, proofs: proofs, notifier: notifier}
}

// findOwnedOrder nạp đơn và kiểm tra nó được gán cho đúng nhà vận chuyển.
func (s *TripService) findOwnedOrder(ctx context.Context, transporterID, orderID string) (*models.Order, error) {
	o, err := s.orders.FindByOrderID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if o.TransporterID != transporterID {
		return nil, ErrNotFound
	}
	return o, nil
}

// AssignVehicle gán một xe đang rảnh trong fleet của nhà vận chuyển cho đơn.
// Flip trạng thái xe là CAS trong phạm vi fleet, nên hai đơn không thể cùng
// giành một xe.
func (s *TripService) AssignVehicle(ctx context.Context, transporterID, orderID, vehicleID string) (*models.Order, error) {
	o, err := s.findOwnedOrder(ctx, transporterID, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != models.StatusAssigned {
		return nil, fmt.Errorf("%w: a vehicle can only be assigned before transit starts", ErrInvalidOperation)
	}
	if o.Vehicle != nil {
		return nil, fmt.Errorf("%w: order already has a vehicle assigned", ErrInvalidOperation)
	}

	v, err := s.vehicles.FindByVehicleID(ctx, vehicleID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if v.OwnerID != transporterID {
		return nil, ErrNotFound
	}

	claimed, err := s.vehicles.TransitionStatus(ctx, vehicleID, transporterID, models.VehicleAvailable, models.VehicleAssigned)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, fmt.Errorf("%w: vehicle is not available", ErrInvalidOperation)
	}

	va := &models.VehicleAssignment{
		VehicleID:   v.VehicleID,
		VehicleType: v.Specs.Type,
		PlateNumber: v.PlateNumber,
		AssignedAt:  time.Now(),
	}
	ok, err := s.orders.SetVehicleAssignment(ctx, orderID, models.StatusAssigned, va)
	if err != nil || !ok {
		// Đơn vừa đổi trạng thái hoặc vừa nhận xe khác: trả xe lại fleet.
		released, rbErr := s.vehicles.TransitionStatus(ctx, vehicleID, transporterID, models.VehicleAssigned, models.VehicleAvailable)
		if rbErr != nil || !released {
			log.Printf("CRITICAL: failed to release vehicle %s after aborted assignment to order %s: %v", vehicleID, orderID, rbErr)
		}
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: order is no longer accepting a vehicle", ErrInvalidOperation)
	}

	updated, err := s.orders.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UnassignVehicle gỡ xe khỏi đơn chưa bắt đầu chuyến và trả xe về AVAILABLE.
func (s *TripService) UnassignVehicle(ctx context.Context, transporterID, orderID string) error {
	o, err := s.findOwnedOrder(ctx, transporterID, orderID)
	if err != nil {
		return err
	}
	if o.Status != models.StatusAssigned {
		return fmt.Errorf("%w: vehicle can only be unassigned before transit starts", ErrInvalidOperation)
	}
	if o.Vehicle == nil {
		return fmt.Errorf("%w: order has no vehicle assigned", ErrInvalidOperation)
	}

	ok, err := s.orders.SetVehicleAssignment(ctx, orderID, models.StatusAssigned, nil)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: order state changed, vehicle was not unassigned", ErrInvalidOperation)
	}

	released, err := s.vehicles.TransitionStatus(ctx, o.Vehicle.VehicleID, transporterID, models.VehicleAssigned, models.VehicleAvailable)
	if err != nil || !released {
		log.Printf("CRITICAL: failed to release vehicle %s unassigned from order %s: %v", o.Vehicle.VehicleID, orderID, err)
	}
	return nil
}

// StartTransit chuyển đơn ASSIGNED sang STARTED. Đơn bắt buộc phải có xe
// được gán trước. OTP sinh ra được đẩy cho KHÁCH (out-of-band), không bao
// giờ trả về cho nhà vận chuyển.
func (s *TripService) StartTransit(ctx context.Context, transporterID, orderID string) error {
	o, err := s.findOwnedOrder(ctx, transporterID, orderID)
	if err != nil {
		return err
	}
	if o.Status != models.StatusAssigned {
		return fmt.Errorf("%w: transit can only start from an assigned order", ErrInvalidOperation)
	}
	if o.Vehicle == nil {
		return fmt.Errorf("%w: a vehicle must be assigned before starting transit", ErrInvalidOperation)
	}

	otp, err := generateOTP()
	if err != nil {
		return err
	}
	ok, err := s.orders.TransitionStatus(ctx, orderID, models.StatusAssigned, models.StatusStarted, &store.OrderPatch{OTP: &otp})
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}

	s.notifier.Notify(o.CustomerID, "pickup_otp", map[string]interface{}{
		"orderID": orderID,
		"otp":     otp,
	})
	return nil
}

// ConfirmPickup xác nhận lấy hàng: chỉ hợp lệ từ STARTED và chỉ khi OTP
// khớp chính xác. Sai OTP thì status và OTP giữ nguyên.
func (s *TripService) ConfirmPickup(ctx context.Context, transporterID, orderID, suppliedOTP string) error {
	if suppliedOTP == "" {
		return fmt.Errorf("%w: otp is required", ErrValidation)
	}
	o, err := s.findOwnedOrder(ctx, transporterID, orderID)
	if err != nil {
		return err
	}
	if o.Status != models.StatusStarted {
		return fmt.Errorf("%w: pickup can only be confirmed after transit has started", ErrInvalidOperation)
	}

	if suppliedOTP != o.OTP {
		attempts, err := s.orders.IncrementOTPAttempts(ctx, orderID)
		if err == nil && attempts >= maxOTPAttempts {
			s.rotateOTP(ctx, o)
		}
		return fmt.Errorf("%w: incorrect OTP", ErrInvalidOperation)
	}

	cleared := ""
	ok, err := s.orders.TransitionStatus(ctx, orderID, models.StatusStarted, models.StatusInTransit, &store.OrderPatch{OTP: &cleared})
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}

	s.notifier.Notify(o.CustomerID, "pickup_confirmed", map[string]interface{}{"orderID": orderID})
	return nil
}

func (s *TripService) rotateOTP(ctx context.Context, o *models.Order) {
	otp, err := generateOTP()
	if err != nil {
		log.Printf("Failed to rotate OTP for order %s: %v", o.OrderID, err)
		return
	}
	rotated, err := s.orders.RotateOTP(ctx, o.OrderID, otp)
	if err != nil || !rotated {
		log.Printf("Failed to rotate OTP for order %s: %v", o.OrderID, err)
		return
	}
	log.Printf("OTP for order %s rotated after %d failed attempts", o.OrderID, maxOTPAttempts)
	s.notifier.Notify(o.CustomerID, "pickup_otp_rotated", map[string]interface{}{
		"orderID": o.OrderID,
		"otp":     otp,
	})
}

// ConfirmDelivery chuyển đơn IN_TRANSIT sang COMPLETED và trả xe về fleet.
// Các collaborator thanh toán/đánh giá tiêu thụ trạng thái COMPLETED ở phía sau.
func (s *TripService) ConfirmDelivery(ctx context.Context, transporterID, orderID string) error {
	o, err := s.findOwnedOrder(ctx, transporterID, orderID)
	if err != nil {
		return err
	}
	if o.Status != models.StatusInTransit {
		return fmt.Errorf("%w: delivery can only be confirmed while in transit", ErrInvalidOperation)
	}

	ok, err := s.orders.TransitionStatus(ctx, orderID, models.StatusInTransit, models.StatusCompleted, nil)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}

	// Snapshot xe trên đơn giữ nguyên làm lịch sử; chỉ flip trạng thái xe.
	if o.Vehicle != nil {
		released, err := s.vehicles.TransitionStatus(ctx, o.Vehicle.VehicleID, transporterID, models.VehicleAssigned, models.VehicleAvailable)
		if err != nil || !released {
			log.Printf("CRITICAL: order %s completed but failed to release vehicle %s: %v", orderID, o.Vehicle.VehicleID, err)
		}
	}

	s.notifier.Notify(o.CustomerID, "order_completed", map[string]interface{}{"orderID": orderID})
	return nil
}

// ===== Điểm dừng =====

func (s *TripService) findStop(o *models.Order, seq int) (*models.TripStop, error) {
	for i := range o.Stops {
		if o.Stops[i].Seq == seq {
			return &o.Stops[i], nil
		}
	}
	return nil, ErrNotFound
}

func (s *TripService) inTransitOrder(ctx context.Context, transporterID, orderID string) (*models.Order, error) {
	o, err := s.findOwnedOrder(ctx, transporterID, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != models.StatusStarted && o.Status != models.StatusInTransit {
		return nil, fmt.Errorf("%w: trip is not underway", ErrInvalidOperation)
	}
	return o, nil
}

// ArriveAtStop đánh dấu tài xế đã đến một điểm dừng. Seq tăng dần chặt:
// không thể đến một điểm khi điểm trước đó chưa rời đi hoặc chưa bị bỏ qua.
func (s *TripService) ArriveAtStop(ctx context.Context, transporterID, orderID string, seq int) error {
	o, err := s.inTransitOrder(ctx, transporterID, orderID)
	if err != nil {
		return err
	}
	stop, err := s.findStop(o, seq)
	if err != nil {
		return err
	}
	for _, prev := range o.Stops {
		if prev.Seq < seq && prev.Status != models.StopDeparted && prev.Status != models.StopSkipped {
			return fmt.Errorf("%w: previous stops must be completed first", ErrInvalidOperation)
		}
	}
	if !models.CanTransitionStop(stop.Status, models.StopArrived) {
		return fmt.Errorf("%w: stop cannot be marked arrived from %s", ErrInvalidOperation, stop.Status)
	}

	ok, err := s.orders.TransitionStop(ctx, orderID, seq, stop.Status, models.StopArrived, time.Now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

// DepartFromStop đánh dấu rời điểm dừng; điểm dừng phải đang ARRIVED.
// Điểm kế tiếp (nếu có) được flip sang EN_ROUTE, best effort.
func (s *TripService) DepartFromStop(ctx context.Context, transporterID, orderID string, seq int) error {
	o, err := s.inTransitOrder(ctx, transporterID, orderID)
	if err != nil {
		return err
	}
	stop, err := s.findStop(o, seq)
	if err != nil {
		return err
	}
	if !models.CanTransitionStop(stop.Status, models.StopDeparted) {
		return fmt.Errorf("%w: stop must be arrived before departing", ErrInvalidOperation)
	}

	ok, err := s.orders.TransitionStop(ctx, orderID, seq, stop.Status, models.StopDeparted, time.Now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}

	for _, next := range o.Stops {
		if next.Seq == seq+1 && next.Status == models.StopPending {
			if _, err := s.orders.TransitionStop(ctx, orderID, next.Seq, models.StopPending, models.StopEnRoute, time.Now()); err != nil {
				log.Printf("Failed to mark stop %d of order %s en route: %v", next.Seq, orderID, err)
			}
		}
	}
	return nil
}

// SkipStop bỏ qua một điểm dừng trung gian. Điểm lấy hàng và giao hàng
// không bao giờ được bỏ qua.
func (s *TripService) SkipStop(ctx context.Context, transporterID, orderID string, seq int) error {
	o, err := s.inTransitOrder(ctx, transporterID, orderID)
	if err != nil {
		return err
	}
	stop, err := s.findStop(o, seq)
	if err != nil {
		return err
	}
	if stop.Type != models.StopWaypoint {
		return fmt.Errorf("%w: only waypoints can be skipped", ErrInvalidOperation)
	}
	if !models.CanTransitionStop(stop.Status, models.StopSkipped) {
		return fmt.Errorf("%w: stop cannot be skipped from %s", ErrInvalidOperation, stop.Status)
	}

	ok, err := s.orders.TransitionStop(ctx, orderID, seq, stop.Status, models.StopSkipped, time.Now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

// RecordStopProof lưu ảnh minh chứng (đã upload lên S3) cho một điểm dừng.
func (s *TripService) RecordStopProof(ctx context.Context, transporterID, orderID string, seq int, kind string, photo models.MediaPointer, photoHash string) (*models.TripProof, error) {
	if kind != "PICKUP" && kind != "DELIVERY" {
		return nil, fmt.Errorf("%w: proof kind must be PICKUP or DELIVERY", ErrValidation)
	}
	o, err := s.inTransitOrder(ctx, transporterID, orderID)
	if err != nil {
		return nil, err
	}
	if _, err := s.findStop(o, seq); err != nil {
		return nil, err
	}

	proof := &models.TripProof{
		OrderID:    orderID,
		StopSeq:    seq,
		Kind:       kind,
		Photo:      photo,
		PhotoHash:  photoHash,
		UploadedBy: transporterID,
		CreatedAt:  time.Now(),
	}
	if err := s.proofs.Insert(ctx, proof); err != nil {
		return nil, err
	}
	return proof, nil
}

func (s *TripService) ListProofs(ctx context.Context, transporterID, orderID string) ([]models.TripProof, error) {
	if _, err := s.findOwnedOrder(ctx, transporterID, orderID); err != nil {
		return nil, err
	}
	return s.proofs.ListByOrder(ctx, orderID)
}
