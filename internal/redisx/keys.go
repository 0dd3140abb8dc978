package redisx

import "time"

const (
	// Fast-path dedup webhook: dedup:webhook:{transaction_id} -> 1.
	// Advisory saja; kebenaran idempotency ada di row lock DB.
	KeyWebhookDedup = "dedup:webhook:%s"

	// Cache status payment: payment_status:%s -> {"status": "..."}
	KeyPaymentStatus = "payment_status:%s"

	// Cache status order: order_status:{order_id} -> {"status": "...", "payment_status": "..."}
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing di consumer: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLWebhookDedup = 48 * time.Hour
	TTLStatusCache  = 5 * time.Minute
	TTLDedup        = 48 * time.Hour
)
