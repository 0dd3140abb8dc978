package commerce

const (
	TopicPaymentCompleted     = "payment.completed"
	TopicPaymentFailed        = "payment.failed"
	TopicPaymentRefunded      = "payment.refunded"
	TopicNotificationOutbound = "notifications.outbound"
)

// Partition key = order_id, supaya semua event 1 order maintain urutan.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
