// server/internal/models/vehicle.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "AVAILABLE"
	VehicleAssigned    VehicleStatus = "ASSIGNED"
	VehicleMaintenance VehicleStatus = "MAINTENANCE"
)

type VehicleSpecs struct {
	Type          string  `bson:"type" json:"type"` // TRUCK, VAN, CONTAINER, REFRIGERATED
	Refrigerated  bool    `bson:"refrigerated" json:"refrigerated"`
	PayloadTonnes float64 `bson:"payloadTonnes" json:"payloadTonnes"` // Tải trọng (tấn)
}

type Vehicle struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VehicleID        string             `bson:"vehicleID" json:"vehicleID"` // ID tự tạo, dễ đọc
	PlateNumber      string             `bson:"plateNumber" json:"plateNumber"`
	OwnerID          string             `bson:"ownerID" json:"ownerID"` // userID của nhà vận chuyển sở hữu
	Model            string             `bson:"model" json:"model"`
	Specs            VehicleSpecs       `bson:"specs" json:"specs"`
	Status           VehicleStatus      `bson:"status" json:"status"`
	RegistrationDocs []MediaPointer     `bson:"registrationDocs,omitempty" json:"registrationDocs"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}
