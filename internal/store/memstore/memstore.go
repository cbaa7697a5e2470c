// server/internal/store/memstore/memstore.go
//
// Bản cài đặt in-memory của các store interface, dùng cho unit test.
// Semantics của conditional update phải giống hệt mongostore: chỉ ghi khi
// trạng thái hiện tại đúng như mong đợi, ghi trượt trả về false chứ không lỗi.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"freight-marketplace-api-server/internal/models"
	"freight-marketplace-api-server/internal/store"
)

// ===== OrderStore =====

type OrderStore struct {
	mu     sync.Mutex
	orders map[string]*models.Order
}

func NewOrderStore() *OrderStore {
	return &OrderStore{orders: make(map[string]*models.Order)}
}

func copyOrder(o *models.Order) *models.Order {
	c := *o
	c.Stops = append([]models.TripStop(nil), o.Stops...)
	if o.Vehicle != nil {
		v := *o.Vehicle
		c.Vehicle = &v
	}
	return &c
}

func (s *OrderStore) Insert(ctx context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.OrderID]; ok {
		return store.ErrDuplicate
	}
	s.orders[o.OrderID] = copyOrder(o)
	return nil
}

func (s *OrderStore) FindByOrderID(ctx context.Context, orderID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyOrder(o), nil
}

func (s *OrderStore) ListByCustomer(ctx context.Context, customerID string) ([]models.Order, error) {
	return s.list(func(o *models.Order) bool { return o.CustomerID == customerID })
}

func (s *OrderStore) ListByTransporter(ctx context.Context, transporterID string) ([]models.Order, error) {
	return s.list(func(o *models.Order) bool { return o.TransporterID == transporterID })
}

func (s *OrderStore) ListOpenForBidding(ctx context.Context, now time.Time) ([]models.Order, error) {
	return s.list(func(o *models.Order) bool {
		return o.Status == models.StatusPlaced && o.BiddingClosesAt.After(now)
	})
}

func (s *OrderStore) ListPlacedExpired(ctx context.Context, now time.Time) ([]models.Order, error) {
	return s.list(func(o *models.Order) bool {
		return o.Status == models.StatusPlaced && !o.ExpiresAt.After(now)
	})
}

func (s *OrderStore) list(match func(*models.Order) bool) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Order{}
	for _, o := range s.orders {
		if match(o) {
			out = append(out, *copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out, nil
}

func (s *OrderStore) TransitionStatus(ctx context.Context, orderID string, from, to models.OrderStatus, patch *store.OrderPatch) (bool, error) {
	if !models.CanTransition(from, to) {
		return false, fmt.Errorf("%w: %s -> %s", store.ErrIllegalTransition, from, to)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	if patch != nil {
		if patch.FinalPrice != nil {
			o.FinalPrice = *patch.FinalPrice
		}
		if patch.TransporterID != nil {
			o.TransporterID = *patch.TransporterID
		}
		if patch.OTP != nil {
			o.OTP = *patch.OTP
			o.OTPAttempts = 0
		}
		if patch.ClearVehicle {
			o.Vehicle = nil
		}
		if patch.ClearAward {
			o.FinalPrice = 0
			o.TransporterID = ""
		}
	}
	return true, nil
}

func (s *OrderStore) SetVehicleAssignment(ctx context.Context, orderID string, expect models.OrderStatus, va *models.VehicleAssignment) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok || o.Status != expect {
		return false, nil
	}
	if va != nil {
		if o.Vehicle != nil {
			return false, nil
		}
		v := *va
		o.Vehicle = &v
	} else {
		o.Vehicle = nil
	}
	o.UpdatedAt = time.Now()
	return true, nil
}

func (s *OrderStore) TransitionStop(ctx context.Context, orderID string, seq int, from, to models.TripStopStatus, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return false, nil
	}
	for i := range o.Stops {
		if o.Stops[i].Seq != seq || o.Stops[i].Status != from {
			continue
		}
		o.Stops[i].Status = to
		switch to {
		case models.StopArrived:
			t := at
			o.Stops[i].ActualArrival = &t
		case models.StopDeparted:
			t := at
			o.Stops[i].ActualDeparture = &t
		}
		o.UpdatedAt = time.Now()
		return true, nil
	}
	return false, nil
}

func (s *OrderStore) IncrementOTPAttempts(ctx context.Context, orderID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok || o.Status != models.StatusStarted {
		return 0, store.ErrNotFound
	}
	o.OTPAttempts++
	o.UpdatedAt = time.Now()
	return o.OTPAttempts, nil
}

func (s *OrderStore) RotateOTP(ctx context.Context, orderID, otp string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok || o.Status != models.StatusStarted {
		return false, nil
	}
	o.OTP = otp
	o.OTPAttempts = 0
	o.UpdatedAt = time.Now()
	return true, nil
}

// ===== BidStore =====

type BidStore struct {
	mu   sync.Mutex
	bids map[string]*models.Bid
}

func NewBidStore() *BidStore {
	return &BidStore{bids: make(map[string]*models.Bid)}
}

func (s *BidStore) Insert(ctx context.Context, b *models.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.bids {
		if existing.OrderID == b.OrderID && existing.TransporterID == b.TransporterID {
			return store.ErrDuplicate
		}
	}
	c := *b
	s.bids[b.BidID] = &c
	return nil
}

func (s *BidStore) FindByBidID(ctx context.Context, bidID string) (*models.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bids[bidID]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *b
	return &c, nil
}

func (s *BidStore) ListByOrder(ctx context.Context, orderID string) ([]models.Bid, error) {
	return s.list(func(b *models.Bid) bool { return b.OrderID == orderID })
}

func (s *BidStore) ListByTransporter(ctx context.Context, transporterID string) ([]models.Bid, error) {
	return s.list(func(b *models.Bid) bool { return b.TransporterID == transporterID })
}

func (s *BidStore) list(match func(*models.Bid) bool) ([]models.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Bid{}
	for _, b := range s.bids {
		if match(b) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *BidStore) CountByOrder(ctx context.Context, orderID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, b := range s.bids {
		if b.OrderID == orderID {
			n++
		}
	}
	return n, nil
}

func (s *BidStore) Delete(ctx context.Context, bidID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bids[bidID]; !ok {
		return store.ErrNotFound
	}
	delete(s.bids, bidID)
	return nil
}

func (s *BidStore) DeleteByOrder(ctx context.Context, orderID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, b := range s.bids {
		if b.OrderID == orderID {
			delete(s.bids, id)
			n++
		}
	}
	return n, nil
}

// ===== VehicleStore =====

type VehicleStore struct {
	mu       sync.Mutex
	vehicles map[string]*models.Vehicle
}

func NewVehicleStore() *VehicleStore {
	return &VehicleStore{vehicles: make(map[string]*models.Vehicle)}
}

func (s *VehicleStore) Insert(ctx context.Context, v *models.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vehicles[v.VehicleID]; ok {
		return store.ErrDuplicate
	}
	c := *v
	s.vehicles[v.VehicleID] = &c
	return nil
}

func (s *VehicleStore) FindByVehicleID(ctx context.Context, vehicleID string) (*models.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[vehicleID]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *v
	return &c, nil
}

func (s *VehicleStore) ListByOwner(ctx context.Context, ownerID string) ([]models.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Vehicle{}
	for _, v := range s.vehicles {
		if v.OwnerID == ownerID {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VehicleID < out[j].VehicleID })
	return out, nil
}

func (s *VehicleStore) TransitionStatus(ctx context.Context, vehicleID, ownerID string, from, to models.VehicleStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[vehicleID]
	if !ok || v.OwnerID != ownerID || v.Status != from {
		return false, nil
	}
	v.Status = to
	v.UpdatedAt = time.Now()
	return true, nil
}

// ===== UserStore =====

type UserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]*models.User)}
}

func (s *UserStore) Insert(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	c := *u
	s.users[u.UserID] = &c
	return nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *UserStore) FindByUserID(ctx context.Context, userID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *u
	return &c, nil
}

// ===== ProofStore =====

type ProofStore struct {
	mu     sync.Mutex
	proofs []models.TripProof
}

func NewProofStore() *ProofStore {
	return &ProofStore{}
}

func (s *ProofStore) Insert(ctx context.Context, p *models.TripProof) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proofs = append(s.proofs, *p)
	return nil
}

func (s *ProofStore) ListByOrder(ctx context.Context, orderID string) ([]models.TripProof, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.TripProof{}
	for _, p := range s.proofs {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out, nil
}
