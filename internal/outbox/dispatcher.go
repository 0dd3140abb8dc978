package outbox

import (
	"context"
	"log"
	"time"

	"github.com/ariefcatur/go-payment-engine.git/internal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	kafkago "github.com/segmentio/kafka-go"
)

type Dispatcher struct {
	DB           *pgxpool.Pool
	Writer       *kafkago.Writer // sync writer, topic per message
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
}

type pendingEvent struct {
	ID       string
	Topic    string
	Key      []byte
	Payload  []byte
	Attempts int
}

// Run polls sampai ctx selesai.
func (d *Dispatcher) Run(ctx context.Context) error {
	t := time.NewTicker(d.PollInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if n, err := d.dispatchBatch(ctx); err != nil {
				log.Printf("outbox: dispatch batch: %v", err)
			} else if n > 0 {
				log.Printf("outbox: dispatched %d event(s)", n)
			}
		}
	}
}

// dispatchBatch: claim batch dengan FOR UPDATE SKIP LOCKED supaya beberapa
// worker tidak rebutan row yang sama, kirim sinkron, baru tandai SENT.
func (d *Dispatcher) dispatchBatch(ctx context.Context) (int, error) {
	sent := 0
	err := postgres.WithTx(ctx, d.DB, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT id, topic, key, payload, attempts
			FROM outbox_events
			WHERE status='PENDING' AND next_attempt_at <= now()
			ORDER BY created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED`, d.BatchSize)
		if err != nil {
			return err
		}
		var batch []pendingEvent
		for rows.Next() {
			var ev pendingEvent
			if err := rows.Scan(&ev.ID, &ev.Topic, &ev.Key, &ev.Payload, &ev.Attempts); err != nil {
				rows.Close()
				return err
			}
			batch = append(batch, ev)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, ev := range batch {
			werr := d.Writer.WriteMessages(ctx, kafkago.Message{
				Topic: ev.Topic,
				Key:   ev.Key,
				Value: ev.Payload,
				Time:  time.Now(),
			})
			if werr == nil {
				if _, err := tx.Exec(ctx, `
					UPDATE outbox_events SET status='SENT', sent_at=now() WHERE id=$1`, ev.ID); err != nil {
					return err
				}
				sent++
				continue
			}

			attempts := ev.Attempts + 1
			if attempts >= d.MaxAttempts {
				// kegagalan tidak boleh ditelan diam-diam: FAILED kelihatan
				// dan bisa di-requeue manual
				log.Printf("outbox: event %s topic %s failed permanently after %d attempts: %v",
					ev.ID, ev.Topic, attempts, werr)
				if _, err := tx.Exec(ctx, `
					UPDATE outbox_events SET status='FAILED', attempts=$2 WHERE id=$1`, ev.ID, attempts); err != nil {
					return err
				}
				continue
			}
			log.Printf("outbox: event %s attempt %d failed: %v", ev.ID, attempts, werr)
			if _, err := tx.Exec(ctx, `
				UPDATE outbox_events SET attempts=$2, next_attempt_at=$3 WHERE id=$1`,
				ev.ID, attempts, time.Now().Add(NextBackoff(attempts))); err != nil {
				return err
			}
		}
		return nil
	})
	return sent, err
}

// NextBackoff: exponential, 1s * 2^(attempts-1), cap 5 menit.
func NextBackoff(attempts int) time.Duration {
	d := time.Second
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= 5*time.Minute {
			return 5 * time.Minute
		}
	}
	return d
}
