package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionStatusTransitions(t *testing.T) {
	assert.True(t, SessionActive.CanTransitionTo(SessionProcessing))
	assert.True(t, SessionActive.CanTransitionTo(SessionCancelled))
	assert.True(t, SessionProcessing.CanTransitionTo(SessionCompleted))
	assert.True(t, SessionProcessing.CanTransitionTo(SessionCancelled))

	// Les états terminaux ne bougent plus.
	assert.False(t, SessionCompleted.CanTransitionTo(SessionActive))
	assert.False(t, SessionCancelled.CanTransitionTo(SessionProcessing))
	assert.False(t, SessionExpired.CanTransitionTo(SessionActive))
	// Pas de retour en arrière.
	assert.False(t, SessionProcessing.CanTransitionTo(SessionActive))
	// Pas de saut direct active→completed.
	assert.False(t, SessionActive.CanTransitionTo(SessionCompleted))
}

func TestOrderStatusTransitions(t *testing.T) {
	assert.True(t, OrderPending.CanTransitionTo(OrderProcessing))
	assert.True(t, OrderPending.CanTransitionTo(OrderCancelled))
	assert.True(t, OrderProcessing.CanTransitionTo(OrderCompleted))
	assert.True(t, OrderCompleted.CanTransitionTo(OrderDelivered))

	assert.False(t, OrderDelivered.CanTransitionTo(OrderCancelled))
	assert.False(t, OrderCancelled.CanTransitionTo(OrderProcessing))
	assert.False(t, OrderPending.CanTransitionTo(OrderDelivered))
}

func TestPaymentStateTransitions(t *testing.T) {
	assert.True(t, PaymentPending.CanTransitionTo(PaymentPaid))
	assert.True(t, PaymentPending.CanTransitionTo(PaymentFailed))

	// paid et failed sont définitifs.
	assert.False(t, PaymentPaid.CanTransitionTo(PaymentPending))
	assert.False(t, PaymentPaid.CanTransitionTo(PaymentFailed))
	assert.False(t, PaymentFailed.CanTransitionTo(PaymentPaid))
}

func TestStatusValid(t *testing.T) {
	assert.True(t, SessionActive.Valid())
	assert.True(t, OrderPending.Valid())
	assert.True(t, PaymentPaid.Valid())

	assert.False(t, SessionStatus("archived").Valid())
	assert.False(t, OrderStatus("shipped").Valid())
	assert.False(t, PaymentState("refunded").Valid())
}
