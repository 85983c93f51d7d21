package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var feeNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func pendingPayment(amount float64, daysOverdue int) Payment {
	return Payment{
		Amount:  amount,
		DueDate: feeNow.AddDate(0, 0, -daysOverdue),
		Status:  PaymentStatusPending,
	}
}

func TestCalculateLateFee(t *testing.T) {
	cases := []struct {
		name        string
		amount      float64
		daysOverdue int
		want        float64
	}{
		{"one day into first block", 350000, 1, 17500.00},
		{"end of first block", 350000, 24, 17500.00},
		{"exactly thirty days", 350000, 30, 17500.00},
		{"second block", 350000, 31, 35000.00},
		{"third block", 100000, 61, 15000.00},
		{"rounds half up", 333.33, 5, 16.67},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := pendingPayment(tc.amount, tc.daysOverdue)
			assert.Equal(t, tc.want, p.CalculateLateFee(feeNow, 0.05))
		})
	}
}

func TestCalculateLateFeeNotOverdue(t *testing.T) {
	notDue := pendingPayment(350000, 0)
	notDue.DueDate = feeNow.AddDate(0, 0, 10)
	assert.Zero(t, notDue.CalculateLateFee(feeNow, 0.05))

	dueToday := pendingPayment(350000, 0)
	assert.Zero(t, dueToday.CalculateLateFee(feeNow, 0.05))
}

func TestCalculateLateFeeCompletedIsZero(t *testing.T) {
	p := pendingPayment(350000, 24)
	p.Status = PaymentStatusCompleted
	assert.Zero(t, p.CalculateLateFee(feeNow, 0.05))
	assert.Zero(t, p.DaysOverdue(feeNow))
}

func TestCalculateLateFeeIsPure(t *testing.T) {
	p := pendingPayment(350000, 24)
	p.CalculateLateFee(feeNow, 0.05)
	assert.Zero(t, p.LateFee)
}

func TestDaysOverdue(t *testing.T) {
	p := pendingPayment(1000, 24)
	assert.Equal(t, 24, p.DaysOverdue(feeNow))

	future := pendingPayment(1000, 0)
	future.DueDate = feeNow.AddDate(0, 0, 3)
	assert.Zero(t, future.DaysOverdue(feeNow))
}

func TestTotalAmount(t *testing.T) {
	p := Payment{Amount: 350000, LateFee: 17500}
	assert.Equal(t, 367500.00, p.TotalAmount())
}

func TestPaymentStatusIsTerminal(t *testing.T) {
	assert.False(t, PaymentStatusPending.IsTerminal())
	assert.True(t, PaymentStatusCompleted.IsTerminal())
	assert.True(t, PaymentStatusCancelled.IsTerminal())
	assert.True(t, PaymentStatusFailed.IsTerminal())
}

func TestIsDeletable(t *testing.T) {
	assert.True(t, (&Payment{Status: PaymentStatusPending}).IsDeletable())
	assert.True(t, (&Payment{Status: PaymentStatusCancelled}).IsDeletable())
	assert.False(t, (&Payment{Status: PaymentStatusCompleted}).IsDeletable())
}
