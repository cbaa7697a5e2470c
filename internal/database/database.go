// server/internal/database/database.go
package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"freight-marketplace-api-server/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Connect mở kết nối tới MongoDB và ping để chắc chắn server sống.
func Connect(cfg config.MongoConfig) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("unable to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("unable to ping MongoDB: %w", err)
	}

	log.Println("Successfully connected to MongoDB")
	return client.Database(cfg.DBName), nil
}

// EnsureIndexes tạo các index mà logic nghiệp vụ phụ thuộc vào. Đặc biệt
// unique index (orderID, transporterID) trên "bids" là thứ bảo đảm mỗi nhà
// vận chuyển chỉ có một bid đang hoạt động trên một đơn.
func EnsureIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	unique := options.Index().SetUnique(true)

	_, err := db.Collection("orders").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "orderID", Value: 1}}, Options: unique},
		// Phục vụ lượt quét của scheduler: status == PLACED, expiresAt <= now.
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "expiresAt", Value: 1}}},
		{Keys: bson.D{{Key: "customerID", Value: 1}}},
		{Keys: bson.D{{Key: "transporterID", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create order indexes: %w", err)
	}

	_, err = db.Collection("bids").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "bidID", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "orderID", Value: 1}, {Key: "transporterID", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("failed to create bid indexes: %w", err)
	}

	_, err = db.Collection("vehicles").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "vehicleID", Value: 1}}, Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create vehicle indexes: %w", err)
	}

	_, err = db.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	return nil
}
