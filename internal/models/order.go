// server/internal/models/order.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus là trạng thái vòng đời của một đơn vận chuyển.
type OrderStatus string

const (
	StatusPlaced    OrderStatus = "PLACED"
	StatusAssigned  OrderStatus = "ASSIGNED"
	StatusStarted   OrderStatus = "STARTED"
	StatusInTransit OrderStatus = "IN_TRANSIT"
	StatusCompleted OrderStatus = "COMPLETED"
	StatusCancelled OrderStatus = "CANCELLED"
	StatusExpired   OrderStatus = "EXPIRED"
	StatusRejected  OrderStatus = "REJECTED"
)

// AllowedTransitions là bảng chuyển trạng thái duy nhất của Order.
// Mọi cạnh không có trong bảng này đều bị từ chối.
// Chính sách hủy: chỉ cho phép hủy trước khi chuyến đi bắt đầu (PLACED, ASSIGNED).
var AllowedTransitions = map[OrderStatus][]OrderStatus{
	StatusPlaced:    {StatusAssigned, StatusRejected, StatusExpired, StatusCancelled},
	StatusAssigned:  {StatusStarted, StatusCancelled},
	StatusStarted:   {StatusInTransit},
	StatusInTransit: {StatusCompleted},
}

func CanTransition(from, to OrderStatus) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal cho biết trạng thái đã là trạng thái kết thúc chưa.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusExpired, StatusRejected:
		return true
	default:
		return false
	}
}

// Cửa sổ đấu thầu đóng 2 ngày trước giờ lấy hàng; đơn bị đóng băng 1 ngày sau đó.
const (
	BiddingLeadTime = 48 * time.Hour
	ExpiryGrace     = 24 * time.Hour
)

// DeriveDeadlines tính biddingClosesAt và expiresAt từ scheduledAt.
// Hai mốc này được tính đúng một lần lúc tạo đơn và không bao giờ thay đổi;
// scheduler phụ thuộc vào phép tính này.
func DeriveDeadlines(scheduledAt time.Time) (biddingClosesAt, expiresAt time.Time) {
	biddingClosesAt = scheduledAt.Add(-BiddingLeadTime)
	expiresAt = biddingClosesAt.Add(ExpiryGrace)
	return biddingClosesAt, expiresAt
}

// VehicleAssignment là bản snapshot của xe được gán cho đơn.
type VehicleAssignment struct {
	VehicleID   string    `bson:"vehicleID" json:"vehicleID"`
	VehicleType string    `bson:"vehicleType" json:"vehicleType"`
	PlateNumber string    `bson:"plateNumber" json:"plateNumber"`
	AssignedAt  time.Time `bson:"assignedAt" json:"assignedAt"`
}

type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID         string             `bson:"orderID" json:"orderID"`
	CustomerID      string             `bson:"customerID" json:"customerID"`
	PickupAddress   Address            `bson:"pickupAddress" json:"pickupAddress"`
	DeliveryAddress Address            `bson:"deliveryAddress" json:"deliveryAddress"`
	DistanceKM      float64            `bson:"distanceKM" json:"distanceKM"`
	MaxPrice        float64            `bson:"maxPrice" json:"maxPrice"`
	FinalPrice      float64            `bson:"finalPrice,omitempty" json:"finalPrice,omitempty"`
	TruckType       string             `bson:"truckType" json:"truckType"` // TRUCK, VAN, CONTAINER, REFRIGERATED
	GoodsType       string             `bson:"goodsType" json:"goodsType"`
	Weight          Weight             `bson:"weight" json:"weight"`
	ScheduledAt     time.Time          `bson:"scheduledAt" json:"scheduledAt"`
	BiddingClosesAt time.Time          `bson:"biddingClosesAt" json:"biddingClosesAt"`
	ExpiresAt       time.Time          `bson:"expiresAt" json:"expiresAt"`
	Status          OrderStatus        `bson:"status" json:"status"`
	TransporterID   string             `bson:"transporterID,omitempty" json:"transporterID,omitempty"`
	Vehicle         *VehicleAssignment `bson:"vehicleAssignment,omitempty" json:"vehicleAssignment,omitempty"`
	// OTP chỉ tồn tại khi status là STARTED và không bao giờ được trả về qua API.
	OTP         string     `bson:"otp,omitempty" json:"-"`
	OTPAttempts int        `bson:"otpAttempts,omitempty" json:"-"`
	Stops       []TripStop `bson:"stops" json:"stops"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
}
