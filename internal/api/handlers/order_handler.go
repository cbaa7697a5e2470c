// server/internal/api/handlers/order_handler.go
package handlers

import (
	"context"
	"net/http"
	"time"

	"freight-marketplace-api-server/internal/models"
	"freight-marketplace-api-server/internal/services"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	Orders *services.OrderService
}

type CreateOrderRequest struct {
	PickupAddress   models.Address `json:"pickupAddress" binding:"required"`
	DeliveryAddress models.Address `json:"deliveryAddress" binding:"required"`
	DistanceKM      float64        `json:"distanceKM"`
	MaxPrice        float64        `json:"maxPrice" binding:"required"`
	TruckType       string         `json:"truckType" binding:"required"`
	GoodsType       string         `json:"goodsType" binding:"required"`
	Weight          models.Weight  `json:"weight" binding:"required"`
	ScheduledAt     time.Time      `json:"scheduledAt" binding:"required"`
}

// CreateOrder xử lý việc khách hàng đăng đơn vận chuyển mới.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customerID := c.GetString("user_id")

	order, err := h.Orders.PlaceOrder(context.Background(), services.PlaceOrderInput{
		CustomerID:      customerID,
		PickupAddress:   req.PickupAddress,
		DeliveryAddress: req.DeliveryAddress,
		DistanceKM:      req.DistanceKM,
		MaxPrice:        req.MaxPrice,
		TruckType:       req.TruckType,
		GoodsType:       req.GoodsType,
		Weight:          req.Weight,
		ScheduledAt:     req.ScheduledAt,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// GetOrder trả về chi tiết một đơn, theo quyền của người gọi.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID := c.Param("id")
	userID := c.GetString("user_id")
	role := c.GetString("user_role")

	order, err := h.Orders.GetOrderForUser(context.Background(), userID, role, orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// GetMyOrders lấy danh sách đơn của khách hàng đang đăng nhập.
func (h *OrderHandler) GetMyOrders(c *gin.Context) {
	customerID := c.GetString("user_id")

	orders, err := h.Orders.ListByCustomer(context.Background(), customerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}

	c.JSON(http.StatusOK, orders)
}

// GetAssignedOrders lấy danh sách đơn đã được gán cho nhà vận chuyển đang đăng nhập.
func (h *OrderHandler) GetAssignedOrders(c *gin.Context) {
	transporterID := c.GetString("user_id")

	orders, err := h.Orders.ListAssignedToTransporter(context.Background(), transporterID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}

	c.JSON(http.StatusOK, orders)
}

// GetOpenOrders lấy danh sách đơn còn mở thầu cho nhà vận chuyển.
func (h *OrderHandler) GetOpenOrders(c *gin.Context) {
	orders, err := h.Orders.ListOpenForBidding(context.Background())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}

	c.JSON(http.StatusOK, orders)
}

// CancelOrder xử lý việc khách hàng hủy đơn trước khi chuyến đi bắt đầu.
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	orderID := c.Param("id")
	customerID := c.GetString("user_id")

	if err := h.Orders.CancelOrder(context.Background(), customerID, orderID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Order has been cancelled",
		"orderID": orderID,
	})
}
