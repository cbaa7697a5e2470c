// server/internal/scheduler/scheduler.go
//
// Scheduler quét định kỳ các đơn PLACED đã quá expiresAt và đóng chúng:
// không có bid nào -> REJECTED, có bid nhưng chưa ai được chọn -> EXPIRED.
// Đơn không còn ở PLACED không bao giờ bị scan đụng tới, nên chạy quét hai
// lần liên tiếp cho cùng kết quả như chạy một lần.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"freight-marketplace-api-server/internal/models"
	"freight-marketplace-api-server/internal/notify"
	"freight-marketplace-api-server/internal/store"
)

type Scheduler struct {
	orders   store.OrderStore
	bids     store.BidStore
	notifier notify.Notifier
	interval time.Duration

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

func New(orders store.OrderStore, bids store.BidStore, notifier notify.Notifier, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		orders:   orders,
		bids:     bids,
		notifier: notifier,
		interval: interval,
	}
}

// Start chạy vòng quét nền. Gọi Start khi đã chạy là no-op, không phải lỗi.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(s.stop, s.done)
	log.Printf("Order expiry scheduler started (interval %s)", s.interval)
}

// Stop dừng vòng quét và chờ lần quét đang dở (nếu có) kết thúc.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	done := s.done
	s.mu.Unlock()

	<-done
	log.Println("Order expiry scheduler stopped")
}

func (s *Scheduler) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, err := s.RunOnce(context.Background()); err != nil {
				log.Printf("Order expiry scan failed: %v", err)
			}
		}
	}
}

// RunOnce quét một lượt và trả về số đơn đã đóng. Lỗi trên một đơn chỉ được
// log rồi đi tiếp đơn sau; cả lượt quét không bao giờ bỏ dở giữa chừng vì
// một record hỏng. Hàm này export để test gọi đồng bộ.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	expired, err := s.orders.ListPlacedExpired(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	foreclosed := 0
	for _, o := range expired {
		target, err := s.foreclose(ctx, &o)
		if err != nil {
			log.Printf("Failed to foreclose order %s: %v", o.OrderID, err)
			continue
		}
		if target == "" {
			// Đơn vừa được gán hoặc hủy dưới tay scheduler: thua cuộc đua
			// một cách sạch sẽ, không làm gì thêm.
			continue
		}
		foreclosed++
		log.Printf("Order %s foreclosed as %s", o.OrderID, target)
		s.notifier.Notify(o.CustomerID, "order_foreclosed", map[string]interface{}{
			"orderID": o.OrderID,
			"status":  string(target),
		})
	}
	return foreclosed, nil
}

// foreclose đóng một đơn quá hạn. Trả về trạng thái đích, hoặc "" nếu CAS
// trượt vì đơn không còn ở PLACED.
func (s *Scheduler) foreclose(ctx context.Context, o *models.Order) (models.OrderStatus, error) {
	count, err := s.bids.CountByOrder(ctx, o.OrderID)
	if err != nil {
		return "", err
	}

	// Không ai muốn đơn -> REJECTED; có người muốn nhưng không được trao
	// thầu kịp -> EXPIRED. Bid của đơn expired giữ nguyên: chỉ award mới
	// xóa bid, scheduler thì không.
	target := models.StatusExpired
	if count == 0 {
		target = models.StatusRejected
	}

	// Cùng kỷ luật conditional-update với Award Resolver: chỉ hành động nếu
	// status vẫn là PLACED, để award và foreclosure đua nhau an toàn.
	ok, err := s.orders.TransitionStatus(ctx, o.OrderID, models.StatusPlaced, target, nil)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return target, nil
}
