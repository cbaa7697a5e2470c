// server/internal/models/order_test.go
package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeriveDeadlines(t *testing.T) {
	scheduledAt := time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC)

	biddingClosesAt, expiresAt := DeriveDeadlines(scheduledAt)

	assert.Equal(t, scheduledAt.Add(-48*time.Hour), biddingClosesAt)
	assert.Equal(t, biddingClosesAt.Add(24*time.Hour), expiresAt)
	// expiresAt luôn nằm giữa biddingClosesAt và scheduledAt.
	assert.True(t, expiresAt.After(biddingClosesAt))
	assert.True(t, expiresAt.Before(scheduledAt))
}

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to OrderStatus }{
		{StatusPlaced, StatusAssigned},
		{StatusPlaced, StatusRejected},
		{StatusPlaced, StatusExpired},
		{StatusPlaced, StatusCancelled},
		{StatusAssigned, StatusStarted},
		{StatusAssigned, StatusCancelled},
		{StatusStarted, StatusInTransit},
		{StatusInTransit, StatusCompleted},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	denied := []struct{ from, to OrderStatus }{
		{StatusPlaced, StatusStarted},
		{StatusPlaced, StatusCompleted},
		{StatusAssigned, StatusInTransit},
		{StatusStarted, StatusCompleted},
		{StatusStarted, StatusCancelled},
		{StatusInTransit, StatusCancelled},
		{StatusCompleted, StatusPlaced},
		{StatusCancelled, StatusAssigned},
		{StatusExpired, StatusAssigned},
		{StatusRejected, StatusPlaced},
	}
	for _, tc := range denied {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s should be denied", tc.from, tc.to)
	}
}

func TestTerminalStatusesHaveNoOutgoingEdges(t *testing.T) {
	for _, status := range []OrderStatus{StatusCompleted, StatusCancelled, StatusExpired, StatusRejected} {
		assert.True(t, status.IsTerminal())
		assert.Empty(t, AllowedTransitions[status])
	}
	for _, status := range []OrderStatus{StatusPlaced, StatusAssigned, StatusStarted, StatusInTransit} {
		assert.False(t, status.IsTerminal())
		assert.NotEmpty(t, AllowedTransitions[status])
	}
}

func TestCanTransitionStop(t *testing.T) {
	assert.True(t, CanTransitionStop(StopPending, StopEnRoute))
	assert.True(t, CanTransitionStop(StopPending, StopArrived))
	assert.True(t, CanTransitionStop(StopEnRoute, StopArrived))
	assert.True(t, CanTransitionStop(StopArrived, StopDeparted))
	assert.True(t, CanTransitionStop(StopPending, StopSkipped))

	assert.False(t, CanTransitionStop(StopDeparted, StopArrived))
	assert.False(t, CanTransitionStop(StopArrived, StopSkipped))
	assert.False(t, CanTransitionStop(StopSkipped, StopArrived))
	assert.False(t, CanTransitionStop(StopDeparted, StopPending))
}
