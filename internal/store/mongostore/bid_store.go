// server/internal/store/mongostore/bid_store.go
package mongostore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"freight-marketplace-api-server/internal/models"
	"freight-marketplace-api-server/internal/store"
)

type BidStore struct {
	coll *mongo.Collection
}

func NewBidStore(db *mongo.Database) *BidStore {
	return &BidStore{coll: db.Collection("bids")}
}

// Insert dựa vào unique index (orderID, transporterID) để bảo đảm mỗi nhà
// vận chuyển chỉ có một bid đang hoạt động trên một đơn.
func (s *BidStore) Insert(ctx context.Context, b *models.Bid) error {
	result, err := s.coll.InsertOne(ctx, b)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicate
		}
		return err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		b.ID = oid
	}
	return nil
}

func (s *BidStore) FindByBidID(ctx context.Context, bidID string) (*models.Bid, error) {
	var b models.Bid
	err := s.coll.FindOne(ctx, bson.M{"bidID": bidID}).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *BidStore) ListByOrder(ctx context.Context, orderID string) ([]models.Bid, error) {
	return s.list(ctx, bson.M{"orderID": orderID})
}

func (s *BidStore) ListByTransporter(ctx context.Context, transporterID string) ([]models.Bid, error) {
	return s.list(ctx, bson.M{"transporterID": transporterID})
}

func (s *BidStore) list(ctx context.Context, filter bson.M) ([]models.Bid, error) {
	cursor, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.M{"createdAt": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var bids []models.Bid
	if err := cursor.All(ctx, &bids); err != nil {
		return nil, err
	}
	if bids == nil {
		bids = []models.Bid{}
	}
	return bids, nil
}

func (s *BidStore) CountByOrder(ctx context.Context, orderID string) (int64, error) {
	return s.coll.CountDocuments(ctx, bson.M{"orderID": orderID})
}

func (s *BidStore) Delete(ctx context.Context, bidID string) error {
	result, err := s.coll.DeleteOne(ctx, bson.M{"bidID": bidID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *BidStore) DeleteByOrder(ctx context.Context, orderID string) (int64, error) {
	result, err := s.coll.DeleteMany(ctx, bson.M{"orderID": orderID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}
