package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"rentfolio-backend/internal/models"

	"gorm.io/gorm"
)

// Factories build notification records for the four domain events. They are
// pure; Emit does the insert. Delivery (email/SMS) is a separate collaborator
// that polls these rows, so a failed insert never rolls back the business
// transaction that triggered it.

func PaymentReminder(tenantID, paymentID uint, dueDate time.Time) models.Notification {
	return models.Notification{
		RecipientID: tenantID,
		Type:        models.NotificationTypePaymentReminder,
		Title:       "Payment Reminder",
		Message:     "Your rent payment is due on " + dueDate.Format("Jan 02, 2006"),
		Data:        mustJSON(map[string]interface{}{"payment_id": paymentID}),
		Priority:    models.NotificationPriorityHigh,
		ActionURL:   fmt.Sprintf("/payments/%d", paymentID),
	}
}

func PaymentCompleted(tenantID, paymentID uint, receiptNumber string) models.Notification {
	return models.Notification{
		RecipientID: tenantID,
		Type:        models.NotificationTypePaymentCompleted,
		Title:       "Payment Received",
		Message:     "Your payment has been received. Receipt " + receiptNumber,
		Data:        mustJSON(map[string]interface{}{"payment_id": paymentID, "receipt_number": receiptNumber}),
		Priority:    models.NotificationPriorityMedium,
		ActionURL:   fmt.Sprintf("/payments/%d", paymentID),
	}
}

func MaintenanceUpdate(tenantID, requestID uint, status models.MaintenanceStatus) models.Notification {
	var msg string
	switch status {
	case models.MaintenanceStatusInProgress:
		msg = "Your maintenance request is now being processed"
	case models.MaintenanceStatusCompleted:
		msg = "Your maintenance request has been completed"
	case models.MaintenanceStatusCancelled:
		msg = "Your maintenance request has been cancelled"
	default:
		msg = "Your maintenance request status has been updated"
	}

	return models.Notification{
		RecipientID: tenantID,
		Type:        models.NotificationTypeMaintenanceUpdate,
		Title:       "Maintenance Request Update",
		Message:     msg,
		Data:        mustJSON(map[string]interface{}{"request_id": requestID, "status": status}),
		Priority:    models.NotificationPriorityMedium,
		ActionURL:   fmt.Sprintf("/maintenance/%d", requestID),
	}
}

func LeaseExpiry(tenantID uint, leaseEnd time.Time) models.Notification {
	expires := leaseEnd
	return models.Notification{
		RecipientID: tenantID,
		Type:        models.NotificationTypeLeaseExpiry,
		Title:       "Lease Expiring Soon",
		Message:     "Your lease will expire on " + leaseEnd.Format("Jan 02, 2006"),
		Data:        mustJSON(map[string]interface{}{"lease_end_date": leaseEnd.Format("2006-01-02")}),
		Priority:    models.NotificationPriorityHigh,
		ExpiresAt:   &expires,
	}
}

func MaintenanceRequestCreated(landlordID, requestID uint, propertyName string, priority models.MaintenancePriority) models.Notification {
	p := models.NotificationPriorityMedium
	if priority == models.MaintenancePriorityUrgent {
		p = models.NotificationPriorityHigh
	}

	return models.Notification{
		RecipientID: landlordID,
		Type:        models.NotificationTypeMaintenanceRequest,
		Title:       "New Maintenance Request",
		Message:     "A new maintenance request has been submitted for " + propertyName,
		Data:        mustJSON(map[string]interface{}{"request_id": requestID}),
		Priority:    p,
		ActionURL:   fmt.Sprintf("/maintenance/%d", requestID),
	}
}

// Emit inserts the record. Callers log the error and move on.
func Emit(db *gorm.DB, n models.Notification) error {
	return db.Create(&n).Error
}

func mustJSON(v map[string]interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
