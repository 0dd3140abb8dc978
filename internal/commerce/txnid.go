package commerce

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Internal transaction ids are assigned before any gateway round-trip and
// serve as the idempotency key for the whole payment attempt.

func NewTransactionID() string       { return txnID("TXN") }
func NewRefundTransactionID() string { return txnID("RTXN") }

func txnID(prefix string) string {
	u := uuid.New()
	return fmt.Sprintf("%s%d%s", prefix, time.Now().UnixMilli(), hex.EncodeToString(u[:4]))
}
