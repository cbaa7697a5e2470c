// server/internal/models/bid.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Bid là báo giá của một nhà vận chuyển cho một đơn đang mở thầu.
// Mỗi cặp (orderID, transporterID) chỉ có tối đa một bid đang hoạt động;
// ràng buộc này được bảo đảm bằng unique index trong collection "bids".
// Bid bị xóa cứng (không soft-delete): xóa lẻ khi rút/bị từ chối, xóa
// hàng loạt ngay khi một bid của đơn được chấp nhận.
type Bid struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BidID           string             `bson:"bidID" json:"bidID"`
	OrderID         string             `bson:"orderID" json:"orderID"`
	TransporterID   string             `bson:"transporterID" json:"transporterID"`
	TransporterName string             `bson:"transporterName" json:"transporterName"`
	Amount          float64            `bson:"amount" json:"amount"`
	Notes           string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}
