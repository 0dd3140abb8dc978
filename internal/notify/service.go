package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/ariefcatur/go-payment-engine.git/internal/commerce"
	kafkax "github.com/ariefcatur/go-payment-engine.git/internal/kafka"
	"github.com/ariefcatur/go-payment-engine.git/internal/redisx"
)

// Outbound message yang dikirim ke channel notifikasi (email/push worker
// downstream). Satu bentuk untuk semua event payment.
type Outbound struct {
	NotificationID string    `json:"notification_id"`
	UserID         string    `json:"user_id"`
	OrderID        string    `json:"order_id"`
	Kind           string    `json:"kind"` // payment_completed | payment_failed | payment_refunded
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	Amount         int64     `json:"amount"`
	CreatedAt      time.Time `json:"created_at"`
}

type Service struct {
	Redis       *redis.Client
	Producer    *kafkax.Producer // publish notifications.outbound
	ServiceName string
}

// HandlePaymentEvent: dipasang sebagai handler consumer atas topic
// payment.completed / payment.failed / payment.refunded.
func (s *Service) HandlePaymentEvent(ctx context.Context, m kafkago.Message) error {
	var env commerce.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}

	// dedup via Redis (pakai event_id); at-least-once dari Kafka
	dkey := fmt.Sprintf(redisx.KeyDedup, "notify", env.EventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	out, orderStatus, ok := s.build(env)
	if !ok {
		return nil // event type bukan urusan notifier
	}

	// refresh cache status order supaya GET cepat tanpa DB
	if out.OrderID != "" && orderStatus != "" {
		key := fmt.Sprintf(redisx.KeyOrderStatus, out.OrderID)
		_ = s.Redis.Set(ctx, key, orderStatus, redisx.TTLStatusCache).Err()
	}

	s.Producer.Publish(commerce.PartitionKey(out.OrderID), kafkax.MustMarshal(out),
		kafkago.Header{Key: "x-notification-kind", Value: []byte(out.Kind)},
	)
	return nil
}

func (s *Service) build(env commerce.Envelope) (Outbound, string, bool) {
	out := Outbound{
		NotificationID: uuid.NewString(),
		CreatedAt:      time.Now().UTC(),
	}
	switch env.EventType {
	case commerce.EventPaymentCompleted:
		p, err := kafkax.UnwrapPayload[commerce.PaymentCompletedPayload](env.Payload)
		if err != nil {
			return out, "", false
		}
		out.UserID = p.UserID
		out.OrderID = p.OrderID
		out.Kind = "payment_completed"
		out.Title = "결제 완료"
		out.Body = fmt.Sprintf("주문 결제가 완료되었습니다. (%d %s)", p.Amount, p.Currency)
		out.Amount = p.Amount
		return out, `{"status":"CONFIRMED","payment_status":"PAID"}`, true

	case commerce.EventPaymentFailed:
		p, err := kafkax.UnwrapPayload[commerce.PaymentFailedPayload](env.Payload)
		if err != nil {
			return out, "", false
		}
		out.UserID = p.UserID
		out.OrderID = p.OrderID
		out.Kind = "payment_failed"
		out.Title = "결제 실패"
		out.Body = fmt.Sprintf("결제에 실패했습니다: %s", p.Reason)
		return out, `{"status":"CANCELLED","payment_status":"FAILED"}`, true

	case commerce.EventPaymentRefunded:
		p, err := kafkax.UnwrapPayload[commerce.PaymentRefundedPayload](env.Payload)
		if err != nil {
			return out, "", false
		}
		out.UserID = p.UserID
		out.OrderID = p.OrderID
		out.Kind = "payment_refunded"
		out.Title = "환불 완료"
		out.Body = fmt.Sprintf("환불이 처리되었습니다. (%d KRW)", p.Amount)
		out.Amount = p.Amount
		status := ""
		if p.Full {
			status = `{"status":"REFUNDED","payment_status":"REFUNDED"}`
		}
		return out, status, true
	}
	return out, "", false
}
