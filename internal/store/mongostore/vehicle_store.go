// server/internal/store/mongostore/vehicle_store.go
package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"freight-marketplace-api-server/internal/models"
	"freight-marketplace-api-server/internal/store"
)

type VehicleStore struct {
	coll *mongo.Collection
}

func NewVehicleStore(db *mongo.Database) *VehicleStore {
	return &VehicleStore{coll: db.Collection("vehicles")}
}

func (s *VehicleStore) Insert(ctx context.Context, v *models.Vehicle) error {
	result, err := s.coll.InsertOne(ctx, v)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicate
		}
		return err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		v.ID = oid
	}
	return nil
}

func (s *VehicleStore) FindByVehicleID(ctx context.Context, vehicleID string) (*models.Vehicle, error) {
	var v models.Vehicle
	err := s.coll.FindOne(ctx, bson.M{"vehicleID": vehicleID}).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *VehicleStore) ListByOwner(ctx context.Context, ownerID string) ([]models.Vehicle, error) {
	cursor, err := s.coll.Find(ctx, bson.M{"ownerID": ownerID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var vehicles []models.Vehicle
	if err := cursor.All(ctx, &vehicles); err != nil {
		return nil, err
	}
	if vehicles == nil {
		vehicles = []models.Vehicle{}
	}
	return vehicles, nil
}

// TransitionStatus là CAS trên status của xe, giới hạn trong fleet của
// ownerID: hai đơn chạy song song không thể cùng flip một xe sang ASSIGNED.
func (s *VehicleStore) TransitionStatus(ctx context.Context, vehicleID, ownerID string, from, to models.VehicleStatus) (bool, error) {
	result, err := s.coll.UpdateOne(ctx,
		bson.M{"vehicleID": vehicleID, "ownerID": ownerID, "status": from},
		bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now()}},
	)
	if err != nil {
		return false, err
	}
	return result.MatchedCount == 1, nil
}
