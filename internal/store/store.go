// server/internal/store/store.go
package store

import (
	"context"
	"errors"
	"time"

	"freight-marketplace-api-server/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrIllegalTransition báo một cạnh không có trong models.AllowedTransitions.
	// Đây là lỗi lập trình ở call site, khác với ghi trượt CAS (false, nil).
	ErrIllegalTransition = errors.New("illegal status transition")
)

// OrderPatch gom các field được set cùng với một lần chuyển trạng thái.
// Mỗi cạnh của state machine có side effect riêng (ASSIGNED set giá chốt,
// STARTED set OTP, IN_TRANSIT xóa OTP...) và tất cả phải được ghi trong
// cùng một conditional update với chính việc đổi status.
type OrderPatch struct {
	FinalPrice    *float64
	TransporterID *string
	// OTP trỏ tới chuỗi rỗng nghĩa là xóa OTP khỏi document.
	OTP          *string
	ClearVehicle bool
	// ClearAward xóa finalPrice + transporterID (dùng khi hủy đơn đã gán).
	ClearAward bool
}

// OrderStore là collaborator lưu trữ của Order. Mọi thao tác đổi trạng thái
// đều là compare-and-swap: chỉ ghi khi status hiện tại đúng như mong đợi.
type OrderStore interface {
	Insert(ctx context.Context, o *models.Order) error
	FindByOrderID(ctx context.Context, orderID string) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]models.Order, error)
	ListByTransporter(ctx context.Context, transporterID string) ([]models.Order, error)
	// ListOpenForBidding trả về các đơn PLACED còn mở thầu tại thời điểm now.
	ListOpenForBidding(ctx context.Context, now time.Time) ([]models.Order, error)
	// ListPlacedExpired trả về các đơn PLACED có expiresAt <= now (đầu vào của scheduler).
	ListPlacedExpired(ctx context.Context, now time.Time) ([]models.Order, error)
	// TransitionStatus đổi status từ from sang to kèm patch, trong MỘT lần ghi
	// có điều kiện. Trả về false (không lỗi) khi status hiện tại không còn là from.
	TransitionStatus(ctx context.Context, orderID string, from, to models.OrderStatus, patch *OrderPatch) (bool, error)
	// SetVehicleAssignment gán (va != nil, đòi hỏi đơn chưa có xe) hoặc gỡ
	// (va == nil) snapshot xe, chỉ khi status còn là expect.
	SetVehicleAssignment(ctx context.Context, orderID string, expect models.OrderStatus, va *models.VehicleAssignment) (bool, error)
	// TransitionStop đổi trạng thái một điểm dừng nhúng, có điều kiện theo
	// trạng thái hiện tại của chính điểm dừng đó.
	TransitionStop(ctx context.Context, orderID string, seq int, from, to models.TripStopStatus, at time.Time) (bool, error)
	// IncrementOTPAttempts tăng bộ đếm nhập sai OTP và trả về giá trị mới.
	IncrementOTPAttempts(ctx context.Context, orderID string) (int, error)
	// RotateOTP thay OTP mới và reset bộ đếm, chỉ khi đơn còn ở STARTED.
	RotateOTP(ctx context.Context, orderID, otp string) (bool, error)
}

type BidStore interface {
	// Insert trả về ErrDuplicate nếu nhà vận chuyển đã có bid cho đơn này.
	Insert(ctx context.Context, b *models.Bid) error
	FindByBidID(ctx context.Context, bidID string) (*models.Bid, error)
	ListByOrder(ctx context.Context, orderID string) ([]models.Bid, error)
	ListByTransporter(ctx context.Context, transporterID string) ([]models.Bid, error)
	CountByOrder(ctx context.Context, orderID string) (int64, error)
	Delete(ctx context.Context, bidID string) error
	DeleteByOrder(ctx context.Context, orderID string) (int64, error)
}

type VehicleStore interface {
	Insert(ctx context.Context, v *models.Vehicle) error
	FindByVehicleID(ctx context.Context, vehicleID string) (*models.Vehicle, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Vehicle, error)
	// TransitionStatus là CAS trên status của xe, giới hạn trong fleet của
	// ownerID để hai đơn không thể cùng giành một xe.
	TransitionStatus(ctx context.Context, vehicleID, ownerID string, from, to models.VehicleStatus) (bool, error)
}

type UserStore interface {
	Insert(ctx context.Context, u *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUserID(ctx context.Context, userID string) (*models.User, error)
}

type ProofStore interface {
	Insert(ctx context.Context, p *models.TripProof) error
	ListByOrder(ctx context.Context, orderID string) ([]models.TripProof, error)
}
