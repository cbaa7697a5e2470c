// server/internal/services/bid_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"freight-marketplace-api-server/internal/models"
	"freight-marketplace-api-server/internal/notify"
	"freight-marketplace-api-server/internal/store"
)

type BidService struct {
	orders   store.OrderStore
	bids     store.BidStore
	users    store.UserStore
	notifier notify.Notifier
}

func NewBidService(orders store.OrderStore, bids store.BidStore, users store.UserStore, notifier notify.Notifier) *BidService {
	return &BidService{orders: orders, bids: bids, users: users, notifier: notifier}
}

// SubmitBid tạo báo giá của một nhà vận chuyển cho một đơn còn mở thầu.
func (s *BidService) SubmitBid(ctx context.Context, transporterID, orderID string, amount float64, notes string) (*models.Bid, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: bid amount must be positive", ErrValidation)
	}

	o, err := s.orders.FindByOrderID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if o.Status != models.StatusPlaced {
		return nil, fmt.Errorf("%w: order is not open for bidding", ErrNotFound)
	}
	// Kiểm tra cửa sổ theo scheduledAt, dư thừa có chủ đích với biddingClosesAt
	// đã tính sẵn: hai phép so này phải cho cùng kết quả vì biddingClosesAt
	// được suy ra đúng bằng scheduledAt - 48h.
	now := time.Now()
	if time.Until(o.ScheduledAt) < models.BiddingLeadTime || !now.Before(o.BiddingClosesAt) {
		return nil, fmt.Errorf("%w: bidding window has closed", ErrNotFound)
	}
	if amount >= o.MaxPrice {
		return nil, fmt.Errorf("%w: bid amount must undercut the order's max price", ErrValidation)
	}

	transporterName := ""
	if u, err := s.users.FindByUserID(ctx, transporterID); err == nil {
		transporterName = u.Name
	}

	bid := &models.Bid{
		BidID:           newID("BID"),
		OrderID:         orderID,
		TransporterID:   transporterID,
		TransporterName: transporterName,
		Amount:          amount,
		Notes:           notes,
		CreatedAt:       now,
	}
	if err := s.bids.Insert(ctx, bid); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, fmt.Errorf("%w: you already have an active bid for this order", ErrInvalidOperation)
		}
		return nil, err
	}

	s.notifier.Notify(o.CustomerID, "new_bid", map[string]interface{}{
		"orderID": orderID,
		"bidID":   bid.BidID,
		"amount":  amount,
	})
	return bid, nil
}

// WithdrawBid xóa báo giá của chính nhà vận chuyển.
func (s *BidService) WithdrawBid(ctx context.Context, transporterID, bidID string) error {
	b, err := s.bids.FindByBidID(ctx, bidID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if b.TransporterID != transporterID {
		return ErrNotFound
	}
	if err := s.bids.Delete(ctx, bidID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// RejectBid là việc khách loại một báo giá mà không trao thầu cho ai;
// trạng thái đơn không đổi.
func (s *BidService) RejectBid(ctx context.Context, customerID, orderID, bidID string) error {
	o, err := s.orders.FindByOrderID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if o.CustomerID != customerID {
		return ErrNotFound
	}

	b, err := s.bids.FindByBidID(ctx, bidID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if b.OrderID != orderID {
		return ErrNotFound
	}

	if err := s.bids.Delete(ctx, bidID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.notifier.Notify(b.TransporterID, "bid_rejected", map[string]interface{}{
		"orderID": orderID,
		"bidID":   bidID,
	})
	return nil
}

func (s *BidService) ListBidsForOrder(ctx context.Context, customerID, orderID string) ([]models.Bid, error) {
	o, err := s.orders.FindByOrderID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if o.CustomerID != customerID {
		return nil, ErrNotFound
	}
	return s.bids.ListByOrder(ctx, orderID)
}

func (s *BidService) ListMyBids(ctx context.Context, transporterID string) ([]models.Bid, error) {
	return s.bids.ListByTransporter(ctx, transporterID)
}

// resolveMissingBid phân xử khi bid không còn tìm thấy (hoặc không thuộc đơn).
// Trao thầu xóa toàn bộ bid của đơn ngay sau khi commit, nên một request chấp
// nhận đến muộn sẽ trượt ngay ở bước tìm bid: nếu đơn đã rời PLACED thì đó là
// kẻ thua cuộc đua và phải nhận AlreadyAssigned, không phải NotFound.
func (s *BidService) resolveMissingBid(ctx context.Context, orderID string) error {
	o, err := s.orders.FindByOrderID(ctx, orderID)
	if err == nil && o.Status != models.StatusPlaced {
		return ErrAlreadyAssigned
	}
	return ErrNotFound
}

// AcceptBid là thao tác trao thầu: chuyển đúng MỘT bid thành assignment và
// đóng mọi bid còn lại của đơn. Linh hồn của nó là compare-and-swap trên
// status: hai request chấp nhận song song thì chỉ request chạm DB trước
// thắng, request sau nhận ErrAlreadyAssigned chứ không ghi đè.
func (s *BidService) AcceptBid(ctx context.Context, customerID, orderID, bidID string) (*models.Order, error) {
	// Bước 1: xác minh quyền sở hữu đơn và bid thuộc về đơn.
	o, err := s.orders.FindByOrderID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if o.CustomerID != customerID {
		return nil, ErrNotFound
	}

	b, err := s.bids.FindByBidID(ctx, bidID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, s.resolveMissingBid(ctx, orderID)
	}
	if err != nil {
		return nil, err
	}
	if b.OrderID != orderID {
		return nil, s.resolveMissingBid(ctx, orderID)
	}

	// Danh sách bid lấy trước để còn báo cho những người thua (best effort).
	allBids, _ := s.bids.ListByOrder(ctx, orderID)

	// Bước 2: conditional update — chỉ gán khi status vẫn còn PLACED.
	patch := &store.OrderPatch{
		FinalPrice:    &b.Amount,
		TransporterID: &b.TransporterID,
	}
	ok, err := s.orders.TransitionStatus(ctx, orderID, models.StatusPlaced, models.StatusAssigned, patch)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Ai đó nhanh tay hơn (một bid khác vừa được chấp nhận, hoặc
		// scheduler/khách vừa đóng đơn).
		return nil, ErrAlreadyAssigned
	}

	// Bước 3: chỉ chạy sau khi bước 2 đã commit. Điều khoản của bid thắng đã
	// được chép sang đơn nên toàn bộ bid không còn cần thiết. Lỗi dọn dẹp
	// không được phép rollback assignment.
	if _, err := s.bids.DeleteByOrder(ctx, orderID); err != nil {
		log.Printf("CRITICAL: order %s assigned to %s but failed to clear bids: %v", orderID, b.TransporterID, err)
	}

	s.notifier.Notify(b.TransporterID, "bid_accepted", map[string]interface{}{
		"orderID":    orderID,
		"finalPrice": b.Amount,
	})
	for _, other := range allBids {
		if other.BidID == bidID {
			continue
		}
		s.notifier.Notify(other.TransporterID, "bid_closed", map[string]interface{}{
			"orderID": orderID,
		})
	}

	updated, err := s.orders.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return updated, nil
}
