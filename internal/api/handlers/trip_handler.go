// server/internal/api/handlers/trip_handler.go
package handlers

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"freight-marketplace-api-server/internal/models"
	"freight-marketplace-api-server/internal/s3"
	"freight-marketplace-api-server/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TripHandler struct {
	Trips      *services.TripService
	S3Uploader *s3.Uploader
}

type AssignVehicleRequest struct {
	VehicleID string `json:"vehicleID" binding:"required"`
}

type ConfirmPickupRequest struct {
	OTP string `json:"otp" binding:"required"`
}

// AssignVehicle xử lý việc nhà vận chuyển gán xe cho đơn đã trúng thầu.
func (h *TripHandler) AssignVehicle(c *gin.Context) {
	var req AssignVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orderID := c.Param("id")
	transporterID := c.GetString("user_id")

	order, err := h.Trips.AssignVehicle(context.Background(), transporterID, orderID, req.VehicleID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// UnassignVehicle gỡ xe khỏi đơn (chỉ khi chuyến đi chưa bắt đầu).
func (h *TripHandler) UnassignVehicle(c *gin.Context) {
	orderID := c.Param("id")
	transporterID := c.GetString("user_id")

	if err := h.Trips.UnassignVehicle(context.Background(), transporterID, orderID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Vehicle has been unassigned",
		"orderID": orderID,
	})
}

// StartTransit xử lý việc nhà vận chuyển bắt đầu chuyến đi. OTP nhận hàng
// được sinh tại đây và gửi cho khách hàng.
func (h *TripHandler) StartTransit(c *gin.Context) {
	orderID := c.Param("id")
	transporterID := c.GetString("user_id")

	if err := h.Trips.StartTransit(context.Background(), transporterID, orderID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Trip started. Pickup OTP has been sent to the customer.",
		"orderID": orderID,
	})
}

// ConfirmPickup xác nhận lấy hàng bằng OTP khách hàng cung cấp tại điểm lấy.
func (h *TripHandler) ConfirmPickup(c *gin.Context) {
	var req ConfirmPickupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orderID := c.Param("id")
	transporterID := c.GetString("user_id")

	if err := h.Trips.ConfirmPickup(context.Background(), transporterID, orderID, req.OTP); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Pickup confirmed. Order is now in transit.",
		"orderID": orderID,
	})
}

// ConfirmDelivery xác nhận giao hàng, kết thúc vòng đời đơn.
func (h *TripHandler) ConfirmDelivery(c *gin.Context) {
	orderID := c.Param("id")
	transporterID := c.GetString("user_id")

	if err := h.Trips.ConfirmDelivery(context.Background(), transporterID, orderID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Delivery confirmed. Order completed.",
		"orderID": orderID,
	})
}

func stopSeqParam(c *gin.Context) (int, bool) {
	seq, err := strconv.Atoi(c.Param("seq"))
	if err != nil || seq <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid stop sequence number"})
		return 0, false
	}
	return seq, true
}

// ArriveAtStop ghi nhận xe đã đến một điểm dừng.
func (h *TripHandler) ArriveAtStop(c *gin.Context) {
	seq, ok := stopSeqParam(c)
	if !ok {
		return
	}

	orderID := c.Param("id")
	transporterID := c.GetString("user_id")

	if err := h.Trips.ArriveAtStop(context.Background(), transporterID, orderID, seq); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "orderID": orderID, "stopSeq": seq})
}

// DepartFromStop ghi nhận xe rời một điểm dừng.
func (h *TripHandler) DepartFromStop(c *gin.Context) {
	seq, ok := stopSeqParam(c)
	if !ok {
		return
	}

	orderID := c.Param("id")
	transporterID := c.GetString("user_id")

	if err := h.Trips.DepartFromStop(context.Background(), transporterID, orderID, seq); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "orderID": orderID, "stopSeq": seq})
}

// SkipStop bỏ qua một điểm dừng trung gian (chỉ áp dụng cho WAYPOINT).
func (h *TripHandler) SkipStop(c *gin.Context) {
	seq, ok := stopSeqParam(c)
	if !ok {
		return
	}

	orderID := c.Param("id")
	transporterID := c.GetString("user_id")

	if err := h.Trips.SkipStop(context.Background(), transporterID, orderID, seq); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "orderID": orderID, "stopSeq": seq})
}

// UploadStopProof xử lý việc tài xế upload ảnh minh chứng tại một điểm dừng.
// Ảnh được đẩy lên S3, hash SHA-256 được lưu kèm để đối soát về sau.
func (h *TripHandler) UploadStopProof(c *gin.Context) {
	if h.S3Uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "File storage is not configured"})
		return
	}

	seq, ok := stopSeqParam(c)
	if !ok {
		return
	}

	kind := strings.ToUpper(c.PostForm("kind"))
	if kind != "PICKUP" && kind != "DELIVERY" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be PICKUP or DELIVERY"})
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Photo file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open uploaded file"})
		return
	}
	defer file.Close()

	// Đọc toàn bộ file một lần để vừa upload vừa tính hash.
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	sum := sha256.Sum256(data)
	photoHash := hex.EncodeToString(sum[:])

	orderID := c.Param("id")
	transporterID := c.GetString("user_id")
	contentType := fileHeader.Header.Get("Content-Type")

	objectKey := fmt.Sprintf("proofs/%s/stop-%d/%s-%s", orderID, seq, strings.ToLower(kind), uuid.New().String())
	url, err := h.S3Uploader.UploadFile(context.Background(), bytes.NewReader(data), objectKey, contentType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload photo", "details": err.Error()})
		return
	}

	photo := models.MediaPointer{
		ID:       objectKey,
		URL:      url,
		FileName: fileHeader.Filename,
		FileType: contentType,
	}

	proof, err := h.Trips.RecordStopProof(context.Background(), transporterID, orderID, seq, kind, photo, photoHash)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, proof)
}

// GetProofs lấy danh sách minh chứng đã upload cho một đơn.
func (h *TripHandler) GetProofs(c *gin.Context) {
	orderID := c.Param("id")
	transporterID := c.GetString("user_id")

	proofs, err := h.Trips.ListProofs(context.Background(), transporterID, orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if proofs == nil {
		proofs = []models.TripProof{}
	}

	c.JSON(http.StatusOK, proofs)
}
