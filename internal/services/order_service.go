// server/internal/services/order_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"freight-marketplace-api-server/internal/models"
	"freight-marketplace-api-server/internal/notify"
	"freight-marketplace-api-server/internal/store"
)

// newID sinh ID dễ đọc kiểu "ORD-1A2B3C4D".
func newID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, strings.ToUpper(uuid.New().String()[:8]))
}

type OrderService struct {
	orders   store.OrderStore
	bids     store.BidStore
	vehicles store.VehicleStore
	notifier notify.Notifier
}

func NewOrderService(orders store.OrderStore, bids store.BidStore, vehicles store.VehicleStore, notifier notify.Notifier) *OrderService {
	return &OrderService{orders: orders, bids: bids, vehicles: vehicles, notifier: notifier}
}

type PlaceOrderInput struct {
	CustomerID      string
	PickupAddress   models.Address
	DeliveryAddress models.Address
	DistanceKM      float64
	MaxPrice        float64
	TruckType       string
	GoodsType       string
	Weight          models.Weight
	ScheduledAt     time.Time
}

// PlaceOrder tạo đơn mới ở trạng thái PLACED. biddingClosesAt và expiresAt
// được tính đúng một lần tại đây và bất biến về sau.
func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*models.Order, error) {
	if in.MaxPrice <= 0 {
		return nil, fmt.Errorf("%w: maxPrice must be positive", ErrValidation)
	}
	if in.PickupAddress.FullText == "" || in.DeliveryAddress.FullText == "" {
		return nil, fmt.Errorf("%w: pickup and delivery addresses are required", ErrValidation)
	}
	// scheduledAt phải cách hiện tại hơn 48h, nếu không cửa sổ đấu thầu
	// đã đóng ngay từ lúc tạo đơn.
	if time.Until(in.ScheduledAt) <= models.BiddingLeadTime {
		return nil, fmt.Errorf("%w: scheduledAt must be more than 48h in the future", ErrValidation)
	}

	biddingClosesAt, expiresAt := models.DeriveDeadlines(in.ScheduledAt)
	now := time.Now()
	scheduledAt := in.ScheduledAt

	order := &models.Order{
		OrderID:         newID("ORD"),
		CustomerID:      in.CustomerID,
		PickupAddress:   in.PickupAddress,
		DeliveryAddress: in.DeliveryAddress,
		DistanceKM:      in.DistanceKM,
		MaxPrice:        in.MaxPrice,
		TruckType:       in.TruckType,
		GoodsType:       in.GoodsType,
		Weight:          in.Weight,
		ScheduledAt:     scheduledAt,
		BiddingClosesAt: biddingClosesAt,
		ExpiresAt:       expiresAt,
		Status:          models.StatusPlaced,
		Stops: []models.TripStop{
			{Seq: 1, Type: models.StopPickup, Address: in.PickupAddress, ScheduledAt: &scheduledAt, Status: models.StopPending},
			{Seq: 2, Type: models.StopDropoff, Address: in.DeliveryAddress, Status: models.StopPending},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.orders.Insert(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrderForUser trả về đơn theo quyền của người gọi: khách chỉ thấy đơn
// của mình, nhà vận chuyển thấy đơn được gán cho mình hoặc đơn còn mở thầu,
// admin thấy tất cả. Sai quyền sở hữu trả về NotFound, không phải Forbidden.
func (s *OrderService) GetOrderForUser(ctx context.Context, userID, role, orderID string) (*models.Order, error) {
	o, err := s.orders.FindByOrderID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	switch role {
	case models.RoleAdmin:
		return o, nil
	case models.RoleCustomer:
		if o.CustomerID != userID {
			return nil, ErrNotFound
		}
		return o, nil
	case models.RoleTransporter:
		if o.TransporterID == userID || o.Status == models.StatusPlaced {
			return o, nil
		}
		return nil, ErrNotFound
	default:
		return nil, ErrNotFound
	}
}

func (s *OrderService) ListByCustomer(ctx context.Context, customerID string) ([]models.Order, error) {
	return s.orders.ListByCustomer(ctx, customerID)
}

func (s *OrderService) ListAssignedToTransporter(ctx context.Context, transporterID string) ([]models.Order, error) {
	return s.orders.ListByTransporter(ctx, transporterID)
}

// ListOpenForBidding trả về các đơn nhà vận chuyển còn có thể bỏ thầu.
func (s *OrderService) ListOpenForBidding(ctx context.Context) ([]models.Order, error) {
	return s.orders.ListOpenForBidding(ctx, time.Now())
}

// CancelOrder hủy đơn theo yêu cầu của khách. Chính sách: chỉ hủy được
// trước khi chuyến đi bắt đầu (PLACED hoặc ASSIGNED).
func (s *OrderService) CancelOrder(ctx context.Context, customerID, orderID string) error {
	o, err := s.orders.FindByOrderID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if o.CustomerID != customerID {
		return ErrNotFound
	}
	if o.Status != models.StatusPlaced && o.Status != models.StatusAssigned {
		return fmt.Errorf("%w: order can no longer be cancelled", ErrInvalidOperation)
	}

	patch := &store.OrderPatch{}
	if o.Status == models.StatusAssigned {
		patch.ClearAward = true
		patch.ClearVehicle = true
	}
	ok, err := s.orders.TransitionStatus(ctx, orderID, o.Status, models.StatusCancelled, patch)
	if err != nil {
		return err
	}
	if !ok {
		// Đơn vừa đổi trạng thái dưới tay người gọi (gán thầu hoặc scheduler
		// nhanh hơn).
		return ErrForbidden
	}

	// Dọn dẹp sau khi hủy đã commit: lỗi ở đây chỉ log, không rollback.
	if o.Status == models.StatusPlaced {
		if _, err := s.bids.DeleteByOrder(ctx, orderID); err != nil {
			log.Printf("CRITICAL: order %s cancelled but failed to clear bids: %v", orderID, err)
		}
	}
	if o.Status == models.StatusAssigned {
		if o.Vehicle != nil {
			released, err := s.vehicles.TransitionStatus(ctx, o.Vehicle.VehicleID, o.TransporterID, models.VehicleAssigned, models.VehicleAvailable)
			if err != nil || !released {
				log.Printf("CRITICAL: order %s cancelled but failed to release vehicle %s: %v", orderID, o.Vehicle.VehicleID, err)
			}
		}
		s.notifier.Notify(o.TransporterID, "order_cancelled", map[string]interface{}{"orderID": orderID})
	}
	return nil
}
