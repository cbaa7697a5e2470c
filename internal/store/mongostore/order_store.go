// server/internal/store/mongostore/order_store.go
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"freight-marketplace-api-server/internal/models"
	"freight-marketplace-api-server/internal/store"
)

// OrderStore cài đặt store.OrderStore trên MongoDB.
// Mọi thao tác đổi trạng thái đều đưa status mong đợi vào filter, nên
// "ai nhanh hơn thắng": bản update thứ hai không match document nào nữa.
type OrderStore struct {
	coll *mongo.Collection
}

func NewOrderStore(db *mongo.Database) *OrderStore {
	return &OrderStore{coll: db.Collection("orders")}
}

func (s *OrderStore) Insert(ctx context.Context, o *models.Order) error {
	result, err := s.coll.InsertOne(ctx, o)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicate
		}
		return err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		o.ID = oid
	}
	return nil
}

func (s *OrderStore) FindByOrderID(ctx context.Context, orderID string) (*models.Order, error) {
	var o models.Order
	err := s.coll.FindOne(ctx, bson.M{"orderID": orderID}).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *OrderStore) ListByCustomer(ctx context.Context, customerID string) ([]models.Order, error) {
	return s.list(ctx, bson.M{"customerID": customerID})
}

func (s *OrderStore) ListByTransporter(ctx context.Context, transporterID string) ([]models.Order, error) {
	return s.list(ctx, bson.M{"transporterID": transporterID})
}

func (s *OrderStore) ListOpenForBidding(ctx context.Context, now time.Time) ([]models.Order, error) {
	return s.list(ctx, bson.M{
		"status":          models.StatusPlaced,
		"biddingClosesAt": bson.M{"$gt": now},
	})
}

func (s *OrderStore) ListPlacedExpired(ctx context.Context, now time.Time) ([]models.Order, error) {
	return s.list(ctx, bson.M{
		"status":    models.StatusPlaced,
		"expiresAt": bson.M{"$lte": now},
	})
}

func (s *OrderStore) list(ctx context.Context, filter bson.M) ([]models.Order, error) {
	cursor, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

func (s *OrderStore) TransitionStatus(ctx context.Context, orderID string, from, to models.OrderStatus, patch *store.OrderPatch) (bool, error) {
	// Cạnh ngoài bảng chuyển trạng thái bị chặn ngay tại đây, trước khi chạm
	// DB: một call site sai không bao giờ được phép ghi lặng lẽ.
	if !models.CanTransition(from, to) {
		return false, fmt.Errorf("%w: %s -> %s", store.ErrIllegalTransition, from, to)
	}

	set := bson.M{"status": to, "updatedAt": time.Now()}
	unset := bson.M{}
	if patch != nil {
		if patch.FinalPrice != nil {
			set["finalPrice"] = *patch.FinalPrice
		}
		if patch.TransporterID != nil {
			set["transporterID"] = *patch.TransporterID
		}
		if patch.OTP != nil {
			if *patch.OTP == "" {
				unset["otp"] = ""
				unset["otpAttempts"] = ""
			} else {
				set["otp"] = *patch.OTP
				set["otpAttempts"] = 0
			}
		}
		if patch.ClearVehicle {
			unset["vehicleAssignment"] = ""
		}
		if patch.ClearAward {
			unset["finalPrice"] = ""
			unset["transporterID"] = ""
		}
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	// Status mong đợi nằm trong filter: đây là compare-and-swap, không phải
	// blind write. Ghi trượt (MatchedCount == 0) không phải là lỗi DB.
	result, err := s.coll.UpdateOne(ctx, bson.M{"orderID": orderID, "status": from}, update)
	if err != nil {
		return false, err
	}
	return result.MatchedCount == 1, nil
}

func (s *OrderStore) SetVehicleAssignment(ctx context.Context, orderID string, expect models.OrderStatus, va *models.VehicleAssignment) (bool, error) {
	filter := bson.M{"orderID": orderID, "status": expect}
	var update bson.M
	if va != nil {
		// Gán xe đòi hỏi đơn chưa có xe nào.
		filter["vehicleAssignment"] = bson.M{"$exists": false}
		update = bson.M{"$set": bson.M{"vehicleAssignment": va, "updatedAt": time.Now()}}
	} else {
		update = bson.M{
			"$unset": bson.M{"vehicleAssignment": ""},
			"$set":   bson.M{"updatedAt": time.Now()},
		}
	}

	result, err := s.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return result.MatchedCount == 1, nil
}

func (s *OrderStore) TransitionStop(ctx context.Context, orderID string, seq int, from, to models.TripStopStatus, at time.Time) (bool, error) {
	filter := bson.M{
		"orderID": orderID,
		"stops":   bson.M{"$elemMatch": bson.M{"seq": seq, "status": from}},
	}
	set := bson.M{"stops.$.status": to, "updatedAt": time.Now()}
	switch to {
	case models.StopArrived:
		set["stops.$.actualArrival"] = at
	case models.StopDeparted:
		set["stops.$.actualDeparture"] = at
	}

	result, err := s.coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	return result.MatchedCount == 1, nil
}

func (s *OrderStore) IncrementOTPAttempts(ctx context.Context, orderID string) (int, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var o models.Order
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"orderID": orderID, "status": models.StatusStarted},
		bson.M{
			"$inc": bson.M{"otpAttempts": 1},
			"$set": bson.M{"updatedAt": time.Now()},
		},
		opts,
	).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, store.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return o.OTPAttempts, nil
}

func (s *OrderStore) RotateOTP(ctx context.Context, orderID, otp string) (bool, error) {
	result, err := s.coll.UpdateOne(ctx,
		bson.M{"orderID": orderID, "status": models.StatusStarted},
		bson.M{"$set": bson.M{"otp": otp, "otpAttempts": 0, "updatedAt": time.Now()}},
	)
	if err != nil {
		return false, err
	}
	return result.MatchedCount == 1, nil
}
