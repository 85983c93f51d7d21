package notify

import (
	"testing"
	"time"

	"rentfolio-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestPaymentReminderFactory(t *testing.T) {
	due := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)
	n := PaymentReminder(7, 42, due)

	assert.Equal(t, uint(7), n.RecipientID)
	assert.Equal(t, models.NotificationTypePaymentReminder, n.Type)
	assert.Equal(t, models.NotificationPriorityHigh, n.Priority)
	assert.Contains(t, n.Message, "Sep 30, 2026")
	assert.Equal(t, "/payments/42", n.ActionURL)
	assert.Nil(t, n.ExpiresAt)
}

func TestPaymentCompletedFactory(t *testing.T) {
	n := PaymentCompleted(7, 42, "RCP20260901120000042")

	assert.Equal(t, models.NotificationTypePaymentCompleted, n.Type)
	assert.Equal(t, models.NotificationPriorityMedium, n.Priority)
	assert.Contains(t, n.Message, "RCP20260901120000042")
	assert.Contains(t, n.Data, "receipt_number")
}

func TestMaintenanceUpdateFactoryMessages(t *testing.T) {
	cases := []struct {
		status models.MaintenanceStatus
		want   string
	}{
		{models.MaintenanceStatusInProgress, "being processed"},
		{models.MaintenanceStatusCompleted, "has been completed"},
		{models.MaintenanceStatusCancelled, "has been cancelled"},
		{models.MaintenanceStatusPending, "has been updated"},
	}

	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			n := MaintenanceUpdate(7, 9, tc.status)
			assert.Equal(t, models.NotificationTypeMaintenanceUpdate, n.Type)
			assert.Contains(t, n.Message, tc.want)
		})
	}
}

func TestLeaseExpiryFactoryExpiresWithLease(t *testing.T) {
	end := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	n := LeaseExpiry(7, end)

	assert.Equal(t, models.NotificationTypeLeaseExpiry, n.Type)
	assert.Equal(t, models.NotificationPriorityHigh, n.Priority)
	assert.Contains(t, n.Message, "Oct 15, 2026")

	// the reminder is pointless once the lease has ended
	assert.NotNil(t, n.ExpiresAt)
	assert.True(t, n.ExpiresAt.Equal(end))
}

func TestMaintenanceRequestCreatedFactoryPriority(t *testing.T) {
	urgent := MaintenanceRequestCreated(3, 9, "Sunrise Apartments", models.MaintenancePriorityUrgent)
	assert.Equal(t, uint(3), urgent.RecipientID)
	assert.Equal(t, models.NotificationPriorityHigh, urgent.Priority)
	assert.Contains(t, urgent.Message, "Sunrise Apartments")

	routine := MaintenanceRequestCreated(3, 9, "Sunrise Apartments", models.MaintenancePriorityLow)
	assert.Equal(t, models.NotificationPriorityMedium, routine.Priority)
}
