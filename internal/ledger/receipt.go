package ledger

import (
	"fmt"
	"math/rand"
	"time"
)

const receiptPrefix = "RCP"

// GenerateReceiptNumber builds RCP + timestamp + zero-padded random suffix.
// Uniqueness is best effort; MarkPaid retries on the unique index when two
// completions land in the same second with the same suffix.
func GenerateReceiptNumber(now time.Time) string {
	return fmt.Sprintf("%s%s%03d", receiptPrefix, now.Format("20060102150405"), rand.Intn(999)+1)
}
