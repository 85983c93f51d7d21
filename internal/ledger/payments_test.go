package ledger

import (
	"regexp"
	"testing"
	"time"

	"rentfolio-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkPaidSetsCompletionFields(t *testing.T) {
	db := newTestDB(t)
	p := seedPayment(t, db, 150000, time.Now().AddDate(0, 0, 7))

	got, err := MarkPaid(db, p.ID, MarkPaidInput{ProcessedBy: 42})
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusCompleted, got.Status)
	require.NotNil(t, got.PaidDate)
	require.NotNil(t, got.ReceiptNumber)
	assert.Regexp(t, regexp.MustCompile(`^RCP\d{14}\d{3}$`), *got.ReceiptNumber)
	require.NotNil(t, got.ProcessedByID)
	assert.Equal(t, uint(42), *got.ProcessedByID)
	assert.NoError(t, CheckPaymentInvariant(got))
}

func TestMarkPaidTwiceSecondCallLoses(t *testing.T) {
	db := newTestDB(t)
	p := seedPayment(t, db, 150000, time.Now())

	first, err := MarkPaid(db, p.ID, MarkPaidInput{ProcessedBy: 1})
	require.NoError(t, err)

	_, err = MarkPaid(db, p.ID, MarkPaidInput{ProcessedBy: 2})
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	// the winner's completion fields survive untouched
	var current models.Payment
	require.NoError(t, db.First(&current, p.ID).Error)
	assert.Equal(t, *first.ReceiptNumber, *current.ReceiptNumber)
	assert.Equal(t, uint(1), *current.ProcessedByID)
}

func TestMarkPaidKeepsExistingReferenceWhenInputEmpty(t *testing.T) {
	db := newTestDB(t)
	p := seedPayment(t, db, 80000, time.Now())
	require.NoError(t, db.Model(&p).Update("transaction_reference", "TX-ORIG").Error)

	got, err := MarkPaid(db, p.ID, MarkPaidInput{ProcessedBy: 1})
	require.NoError(t, err)
	assert.Equal(t, "TX-ORIG", got.TransactionReference)
}

func TestCancelCompletedPaymentFails(t *testing.T) {
	db := newTestDB(t)
	p := seedPayment(t, db, 150000, time.Now())

	_, err := MarkPaid(db, p.ID, MarkPaidInput{ProcessedBy: 1})
	require.NoError(t, err)

	_, err = Cancel(db, p.ID)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
}

func TestCancelPendingPayment(t *testing.T) {
	db := newTestDB(t)
	p := seedPayment(t, db, 150000, time.Now())

	got, err := Cancel(db, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCancelled, got.Status)
	assert.Nil(t, got.PaidDate)
	assert.Nil(t, got.ReceiptNumber)
}

func TestMarkFailedThenMarkPaidFails(t *testing.T) {
	db := newTestDB(t)
	p := seedPayment(t, db, 150000, time.Now())

	_, err := MarkFailed(db, p.ID)
	require.NoError(t, err)

	_, err = MarkPaid(db, p.ID, MarkPaidInput{ProcessedBy: 1})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestApplyLateFeePersistsDerivedFee(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()
	p := seedPayment(t, db, 350000, now.AddDate(0, 0, -24))

	got, err := ApplyLateFee(db, p.ID, 0.05, now)
	require.NoError(t, err)
	assert.Equal(t, 17500.00, got.LateFee)
	assert.Equal(t, 367500.00, got.TotalAmount())
}

func TestApplyLateFeeOnCompletedPaymentFails(t *testing.T) {
	db := newTestDB(t)
	p := seedPayment(t, db, 350000, time.Now().AddDate(0, 0, -24))

	_, err := MarkPaid(db, p.ID, MarkPaidInput{ProcessedBy: 1})
	require.NoError(t, err)

	_, err = ApplyLateFee(db, p.ID, 0.05, time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestValidateUpdateFreezesCompletedPayments(t *testing.T) {
	now := time.Now()
	receipt := "RCP20260901120000042"
	completed := &models.Payment{
		TenantID:      7,
		PropertyID:    3,
		Amount:        150000,
		PaymentType:   models.PaymentTypeRent,
		Status:        models.PaymentStatusCompleted,
		PaidDate:      &now,
		ReceiptNumber: &receipt,
	}

	newAmount := 99999.0
	assert.ErrorIs(t, ValidateUpdate(completed, &newAmount, nil, nil, nil), ErrImmutableField)

	otherTenant := uint(8)
	assert.ErrorIs(t, ValidateUpdate(completed, nil, &otherTenant, nil, nil), ErrImmutableField)

	// unchanged values and untouched fields pass
	sameAmount := 150000.0
	assert.NoError(t, ValidateUpdate(completed, &sameAmount, nil, nil, nil))
	assert.NoError(t, ValidateUpdate(completed, nil, nil, nil, nil))

	pending := &models.Payment{Amount: 150000, Status: models.PaymentStatusPending}
	assert.NoError(t, ValidateUpdate(pending, &newAmount, nil, nil, nil))
}

func TestCheckPaymentInvariant(t *testing.T) {
	now := time.Now()
	receipt := "RCP20260901120000042"

	cases := []struct {
		name    string
		payment models.Payment
		wantErr bool
	}{
		{"pending clean", models.Payment{Status: models.PaymentStatusPending}, false},
		{"completed clean", models.Payment{Status: models.PaymentStatusCompleted, PaidDate: &now, ReceiptNumber: &receipt}, false},
		{"completed missing receipt", models.Payment{Status: models.PaymentStatusCompleted, PaidDate: &now}, true},
		{"completed missing paid date", models.Payment{Status: models.PaymentStatusCompleted, ReceiptNumber: &receipt}, true},
		{"pending with paid date", models.Payment{Status: models.PaymentStatusPending, PaidDate: &now}, true},
		{"cancelled with receipt", models.Payment{Status: models.PaymentStatusCancelled, ReceiptNumber: &receipt}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckPaymentInvariant(&tc.payment)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvariantViolation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGenerateReceiptNumberFormat(t *testing.T) {
	now := time.Date(2026, 9, 1, 14, 30, 5, 0, time.UTC)
	re := regexp.MustCompile(`^RCP20260901143005\d{3}$`)

	for i := 0; i < 50; i++ {
		r := GenerateReceiptNumber(now)
		require.Regexp(t, re, r)
	}
}
