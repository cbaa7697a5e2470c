// server/internal/api/handlers/vehicle_handler.go
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"freight-marketplace-api-server/internal/models"
	"freight-marketplace-api-server/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type VehicleHandler struct {
	Vehicles store.VehicleStore
}

type CreateVehicleRequest struct {
	PlateNumber string              `json:"plateNumber" binding:"required"`
	Model       string              `json:"model"`
	Specs       models.VehicleSpecs `json:"specs" binding:"required"`
}

// CreateVehicle xử lý việc nhà vận chuyển đăng ký xe mới vào đội xe của mình.
func (h *VehicleHandler) CreateVehicle(c *gin.Context) {
	var req CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ownerID := c.GetString("user_id")
	now := time.Now()

	vehicle := &models.Vehicle{
		VehicleID:   fmt.Sprintf("VEH-%s", strings.ToUpper(uuid.New().String()[:8])),
		PlateNumber: req.PlateNumber,
		OwnerID:     ownerID,
		Model:       req.Model,
		Specs:       req.Specs,
		Status:      models.VehicleAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Vehicles.Insert(context.Background(), vehicle); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "Vehicle already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create vehicle"})
		return
	}

	c.JSON(http.StatusCreated, vehicle)
}

// GetMyVehicles lấy danh sách xe của nhà vận chuyển đang đăng nhập.
func (h *VehicleHandler) GetMyVehicles(c *gin.Context) {
	ownerID := c.GetString("user_id")

	vehicles, err := h.Vehicles.ListByOwner(context.Background(), ownerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query vehicles"})
		return
	}
	if vehicles == nil {
		vehicles = []models.Vehicle{}
	}

	c.JSON(http.StatusOK, vehicles)
}

// SetMaintenance chuyển một xe đang rảnh sang trạng thái bảo trì (hoặc ngược lại).
func (h *VehicleHandler) SetMaintenance(c *gin.Context) {
	vehicleID := c.Param("id")
	ownerID := c.GetString("user_id")

	var req struct {
		InMaintenance bool `json:"inMaintenance"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	from, to := models.VehicleAvailable, models.VehicleMaintenance
	if !req.InMaintenance {
		from, to = models.VehicleMaintenance, models.VehicleAvailable
	}

	ok, err := h.Vehicles.TransitionStatus(context.Background(), vehicleID, ownerID, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update vehicle status"})
		return
	}
	if !ok {
		// Xe không tồn tại, không thuộc sở hữu, hoặc đang được gán cho một đơn.
		c.JSON(http.StatusConflict, gin.H{"error": "Vehicle is not in a state that allows this change"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "vehicleID": vehicleID, "vehicleStatus": to})
}
