// server/internal/store/mongostore/proof_store.go
package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"freight-marketplace-api-server/internal/models"
)

type ProofStore struct {
	coll *mongo.Collection
}

func NewProofStore(db *mongo.Database) *ProofStore {
	return &ProofStore{coll: db.Collection("trip_proofs")}
}

func (s *ProofStore) Insert(ctx context.Context, p *models.TripProof) error {
	result, err := s.coll.InsertOne(ctx, p)
	if err != nil {
		return err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		p.ID = oid
	}
	return nil
}

func (s *ProofStore) ListByOrder(ctx context.Context, orderID string) ([]models.TripProof, error) {
	cursor, err := s.coll.Find(ctx, bson.M{"orderID": orderID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var proofs []models.TripProof
	if err := cursor.All(ctx, &proofs); err != nil {
		return nil, err
	}
	if proofs == nil {
		proofs = []models.TripProof{}
	}
	return proofs, nil
}
