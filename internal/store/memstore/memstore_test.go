// server/internal/store/memstore/memstore_test.go
package memstore

import (
	"context"
	"testing"
	"time"

	"freight-marketplace-api-server/internal/models"
	"freight-marketplace-api-server/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedOrder(t *testing.T, s *OrderStore, orderID string, status models.OrderStatus) {
	t.Helper()
	scheduledAt := time.Now().Add(96 * time.Hour)
	biddingClosesAt, expiresAt := models.DeriveDeadlines(scheduledAt)
	now := time.Now()
	require.NoError(t, s.Insert(context.Background(), &models.Order{
		OrderID:         orderID,
		CustomerID:      "CUST-1",
		MaxPrice:        5000000,
		ScheduledAt:     scheduledAt,
		BiddingClosesAt: biddingClosesAt,
		ExpiresAt:       expiresAt,
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}))
}

// Cạnh không có trong bảng chuyển trạng thái bị chặn bằng lỗi, không phải
// ghi trượt lặng lẽ: call site sai phải nổ ngay.
func TestTransitionStatusRejectsIllegalEdge(t *testing.T) {
	s := NewOrderStore()
	ctx := context.Background()
	seedOrder(t, s, "ORD-1", models.StatusCompleted)

	ok, err := s.TransitionStatus(ctx, "ORD-1", models.StatusCompleted, models.StatusPlaced, nil)
	assert.False(t, ok)
	assert.ErrorIs(t, err, store.ErrIllegalTransition)

	// Trạng thái không bị đụng tới.
	got, err := s.FindByOrderID(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)

	// Cạnh nhảy cóc cũng bị chặn dù đơn đang ở đúng trạng thái nguồn.
	seedOrder(t, s, "ORD-2", models.StatusPlaced)
	_, err = s.TransitionStatus(ctx, "ORD-2", models.StatusPlaced, models.StatusCompleted, nil)
	assert.ErrorIs(t, err, store.ErrIllegalTransition)
}

// Ghi trượt CAS (status hiện tại khác from) vẫn là (false, nil) như cũ.
func TestTransitionStatusMissIsNotAnError(t *testing.T) {
	s := NewOrderStore()
	ctx := context.Background()
	seedOrder(t, s, "ORD-1", models.StatusAssigned)

	ok, err := s.TransitionStatus(ctx, "ORD-1", models.StatusPlaced, models.StatusAssigned, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

// Các thao tác OTP cũng ghi updatedAt, cùng hành vi với bản Mongo.
func TestOTPWritesTouchUpdatedAt(t *testing.T) {
	s := NewOrderStore()
	ctx := context.Background()
	seedOrder(t, s, "ORD-1", models.StatusStarted)

	before, err := s.FindByOrderID(ctx, "ORD-1")
	require.NoError(t, err)

	time.Sleep(time.Millisecond)
	attempts, err := s.IncrementOTPAttempts(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)

	afterInc, err := s.FindByOrderID(ctx, "ORD-1")
	require.NoError(t, err)
	assert.True(t, afterInc.UpdatedAt.After(before.UpdatedAt))

	time.Sleep(time.Millisecond)
	rotated, err := s.RotateOTP(ctx, "ORD-1", "0042")
	require.NoError(t, err)
	require.True(t, rotated)

	afterRotate, err := s.FindByOrderID(ctx, "ORD-1")
	require.NoError(t, err)
	assert.True(t, afterRotate.UpdatedAt.After(afterInc.UpdatedAt))
	assert.Equal(t, "0042", afterRotate.OTP)
	assert.Zero(t, afterRotate.OTPAttempts)
}
