// server/internal/api/handlers/bid_handler.go
package handlers

import (
	"context"
	"net/http"

	"freight-marketplace-api-server/internal/models"
	"freight-marketplace-api-server/internal/services"

	"github.com/gin-gonic/gin"
)

type BidHandler struct {
	Bids *services.BidService
}

type SubmitBidRequest struct {
	Amount float64 `json:"amount" binding:"required"`
	Notes  string  `json:"notes"`
}

// SubmitBid xử lý việc nhà vận chuyển bỏ thầu cho một đơn đang mở.
func (h *BidHandler) SubmitBid(c *gin.Context) {
	var req SubmitBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orderID := c.Param("id")
	transporterID := c.GetString("user_id")

	bid, err := h.Bids.SubmitBid(context.Background(), transporterID, orderID, req.Amount, req.Notes)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, bid)
}

// WithdrawBid xử lý việc nhà vận chuyển rút lại bid của chính mình.
func (h *BidHandler) WithdrawBid(c *gin.Context) {
	bidID := c.Param("bidID")
	transporterID := c.GetString("user_id")

	if err := h.Bids.WithdrawBid(context.Background(), transporterID, bidID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Bid has been withdrawn",
		"bidID":   bidID,
	})
}

// RejectBid xử lý việc khách hàng loại một bid khỏi đơn của mình.
func (h *BidHandler) RejectBid(c *gin.Context) {
	orderID := c.Param("id")
	bidID := c.Param("bidID")
	customerID := c.GetString("user_id")

	if err := h.Bids.RejectBid(context.Background(), customerID, orderID, bidID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Bid has been rejected",
		"bidID":   bidID,
	})
}

// AcceptBid xử lý việc khách hàng chốt thầu. Nếu hai request cùng chốt,
// chỉ một bên thắng; bên thua nhận 403.
func (h *BidHandler) AcceptBid(c *gin.Context) {
	orderID := c.Param("id")
	bidID := c.Param("bidID")
	customerID := c.GetString("user_id")

	order, err := h.Bids.AcceptBid(context.Background(), customerID, orderID, bidID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Bid accepted. Order has been assigned.",
		"order":   order,
	})
}

// GetBidsForOrder lấy danh sách bid của một đơn (chỉ chủ đơn xem được).
func (h *BidHandler) GetBidsForOrder(c *gin.Context) {
	orderID := c.Param("id")
	customerID := c.GetString("user_id")

	bids, err := h.Bids.ListBidsForOrder(context.Background(), customerID, orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if bids == nil {
		bids = []models.Bid{}
	}

	c.JSON(http.StatusOK, bids)
}

// GetMyBids lấy danh sách bid đang chờ của nhà vận chuyển đang đăng nhập.
func (h *BidHandler) GetMyBids(c *gin.Context) {
	transporterID := c.GetString("user_id")

	bids, err := h.Bids.ListMyBids(context.Background(), transporterID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if bids == nil {
		bids = []models.Bid{}
	}

	c.JSON(http.StatusOK, bids)
}
