package outbox

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Outbox menggantikan side effect fire-and-forget pasca-commit: intent
// ditulis di transaksi yang sama dengan perubahan finansial, lalu
// Dispatcher (proses worker) yang mengirim dengan retry dan status gagal
// yang kelihatan. Crash di antara commit dan kirim -> row PENDING tetap
// ada dan dikirim ulang.

// Emit menulis satu intent event di dalam transaksi pemanggil.
func Emit(ctx context.Context, tx pgx.Tx, topic string, key []byte, payload []byte) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO outbox_events(id, topic, key, payload, status, attempts, next_attempt_at)
		VALUES ($1, $2, $3, $4, 'PENDING', 0, now())`,
		uuid.NewString(), topic, key, payload)
	return err
}
