// server/internal/models/trip_stop.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TripStopType string

const (
	StopPickup   TripStopType = "PICKUP"
	StopDropoff  TripStopType = "DROPOFF"
	StopWaypoint TripStopType = "WAYPOINT"
)

// TripStopStatus là trạng thái của một điểm dừng trong chuyến đi.
type TripStopStatus string

const (
	StopPending  TripStopStatus = "PENDING"
	StopEnRoute  TripStopStatus = "EN_ROUTE"
	StopArrived  TripStopStatus = "ARRIVED"
	StopDeparted TripStopStatus = "DEPARTED"
	StopSkipped  TripStopStatus = "SKIPPED"
)

// stopTransitions: một điểm dừng không thể DEPARTED khi chưa ARRIVED.
var stopTransitions = map[TripStopStatus][]TripStopStatus{
	StopPending: {StopEnRoute, StopArrived, StopSkipped},
	StopEnRoute: {StopArrived, StopSkipped},
	StopArrived: {StopDeparted},
}

func CanTransitionStop(from, to TripStopStatus) bool {
	next, ok := stopTransitions[from]
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

// TripStop là một điểm dừng nhúng trong Order. Seq tăng dần trong một chuyến.
type TripStop struct {
	Seq             int            `bson:"seq" json:"seq"`
	Type            TripStopType   `bson:"type" json:"type"`
	Address         Address        `bson:"address" json:"address"`
	ScheduledAt     *time.Time     `bson:"scheduledAt,omitempty" json:"scheduledAt,omitempty"`
	ActualArrival   *time.Time     `bson:"actualArrival,omitempty" json:"actualArrival,omitempty"`
	ActualDeparture *time.Time     `bson:"actualDeparture,omitempty" json:"actualDeparture,omitempty"`
	Status          TripStopStatus `bson:"status" json:"status"`
}

// TripProof là ảnh minh chứng tài xế upload tại một điểm dừng (lưu trên S3).
type TripProof struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID    string             `bson:"orderID" json:"orderID"`
	StopSeq    int                `bson:"stopSeq" json:"stopSeq"`
	Kind       string             `bson:"kind" json:"kind"` // PICKUP hoặc DELIVERY
	Photo      MediaPointer       `bson:"photo" json:"photo"`
	PhotoHash  string             `bson:"photoHash" json:"photoHash"`
	UploadedBy string             `bson:"uploadedBy" json:"uploadedBy"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
