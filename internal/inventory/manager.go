package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ariefcatur/go-payment-engine.git/internal/commerce"
	"github.com/ariefcatur/go-payment-engine.git/internal/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Manager memegang hold stok short-lived per order. Stok TIDAK didebit saat
// reserve — hanya row reservation dengan expiry; debit permanen terjadi di
// Confirm. Semua locking lewat row lock DB (FOR UPDATE), bukan mutex
// aplikasi, karena engine jalan multi-proses.
type Manager struct {
	DB *pgxpool.Pool
}

// Reserve: all-or-nothing. Lock stok per product (FOR UPDATE) -> hitung
// available = stock - reserved aktif -> jika ada item kurang, tidak ada
// yang di-hold (rollback). Idempotent per order: reservation RESERVED yang
// masih hidup dikembalikan apa adanya.
func (m *Manager) Reserve(ctx context.Context, orderID string, items []commerce.ItemQty, ttl time.Duration) (string, error) {
	var reservationID string
	err := postgres.WithTx(ctx, m.DB, func(tx pgx.Tx) error {
		id, err := m.ReserveTx(ctx, tx, orderID, items, ttl)
		reservationID = id
		return err
	})
	if err != nil {
		return "", err
	}
	return reservationID, nil
}

// ReserveTx: versi komposisi untuk engine — hold diambil di transaksi
// pemanggil sehingga payment row dan reservation commit bareng.
func (m *Manager) ReserveTx(ctx context.Context, tx pgx.Tx, orderID string, items []commerce.ItemQty, ttl time.Duration) (string, error) {
	now := time.Now().UTC()

	var existingID string
	var expiresAt time.Time
	err := tx.QueryRow(ctx, `
		SELECT id, expires_at FROM inventory_reservations
		WHERE order_id=$1 AND status='RESERVED'
		FOR UPDATE`, orderID).Scan(&existingID, &expiresAt)
	switch {
	case err == nil:
		if expiresAt.After(now) {
			return existingID, nil
		}
		// hold lama sudah lewat expiry: tandai dan buat yang baru
		if _, err := tx.Exec(ctx, `UPDATE inventory_reservations SET status='EXPIRED' WHERE id=$1`, existingID); err != nil {
			return "", err
		}
	case errors.Is(err, pgx.ErrNoRows):
	default:
		return "", err
	}

	// lock product dalam urutan deterministik
	sorted := make([]commerce.ItemQty, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

	var shortages []commerce.StockShortage
	for _, it := range sorted {
		var stock int
		var manage bool
		err := tx.QueryRow(ctx, `
			SELECT stock_quantity, manage_stock FROM products
			WHERE id=$1 FOR UPDATE`, it.ProductID).Scan(&stock, &manage)
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w: product %s", commerce.ErrNotFound, it.ProductID)
		}
		if err != nil {
			return "", err
		}
		if !manage {
			continue // untracked product selalu available
		}

		var reserved int
		if err := tx.QueryRow(ctx, `
			SELECT COALESCE(SUM(ri.quantity), 0)
			FROM reservation_items ri
			JOIN inventory_reservations r ON r.id = ri.reservation_id
			WHERE ri.product_id=$1 AND r.status='RESERVED' AND r.expires_at > $2`,
			it.ProductID, now).Scan(&reserved); err != nil {
			return "", err
		}

		if ok, available := Available(stock, reserved, it.Quantity); !ok {
			shortages = append(shortages, commerce.StockShortage{
				ProductID: it.ProductID, Requested: it.Quantity, Available: available,
			})
		}
	}
	if len(shortages) > 0 {
		return "", &commerce.InsufficientStockError{Details: shortages} // rollback di pemanggil
	}

	reservationID := uuid.NewString()
	if _, err := tx.Exec(ctx, `
		INSERT INTO inventory_reservations(id, order_id, status, expires_at)
		VALUES ($1, $2, 'RESERVED', $3)`,
		reservationID, orderID, now.Add(ttl)); err != nil {
		return "", err
	}
	for _, it := range items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO reservation_items(reservation_id, product_id, quantity)
			VALUES ($1, $2, $3)`,
			reservationID, it.ProductID, it.Quantity); err != nil {
			return "", err
		}
	}
	return reservationID, nil
}

// Confirm mengubah hold jadi debit permanen. Idempotent: reservation yang
// sudah CONFIRMED/RELEASED adalah no-op.
func (m *Manager) Confirm(ctx context.Context, reservationID string) error {
	return postgres.WithTx(ctx, m.DB, func(tx pgx.Tx) error {
		return m.confirmTx(ctx, tx, reservationID)
	})
}

// ConfirmOrderTx: versi komposisi untuk engine — cari reservation milik
// order di dalam transaksi pemanggil. Tidak ada reservation (atau sudah
// expired) -> ErrReservationExpired; konfirmasi telat ditolak, tidak ada
// re-reservation diam-diam.
func (m *Manager) ConfirmOrderTx(ctx context.Context, tx pgx.Tx, orderID string) error {
	var id string
	err := tx.QueryRow(ctx, `
		SELECT id FROM inventory_reservations
		WHERE order_id=$1 AND status IN ('RESERVED','CONFIRMED')
		ORDER BY created_at DESC LIMIT 1
		FOR UPDATE`, orderID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return commerce.ErrReservationExpired
	}
	if err != nil {
		return err
	}
	return m.confirmTx(ctx, tx, id)
}

func (m *Manager) confirmTx(ctx context.Context, tx pgx.Tx, reservationID string) error {
	var status commerce.ReservationStatus
	var expiresAt time.Time
	err := tx.QueryRow(ctx, `
		SELECT status, expires_at FROM inventory_reservations
		WHERE id=$1 FOR UPDATE`, reservationID).Scan(&status, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: reservation %s", commerce.ErrNotFound, reservationID)
	}
	if err != nil {
		return err
	}

	switch status {
	case commerce.ReservationConfirmed, commerce.ReservationReleased:
		return nil // no-op
	}
	if Expired(status, expiresAt, time.Now().UTC()) {
		return commerce.ErrReservationExpired
	}

	rows, err := tx.Query(ctx, `
		SELECT product_id, quantity FROM reservation_items
		WHERE reservation_id=$1 ORDER BY product_id`, reservationID)
	if err != nil {
		return err
	}
	items, err := collectItems(rows)
	if err != nil {
		return err
	}

	for _, it := range items {
		var manage bool
		var stock int
		if err := tx.QueryRow(ctx, `
			SELECT manage_stock, stock_quantity FROM products
			WHERE id=$1 FOR UPDATE`, it.ProductID).Scan(&manage, &stock); err != nil {
			return err
		}
		if !manage {
			continue
		}
		if stock < it.Quantity {
			// accounting rusak: hold aktif seharusnya menjamin stok cukup
			return fmt.Errorf("stock underflow for product %s: have %d need %d", it.ProductID, stock, it.Quantity)
		}
		if _, err := tx.Exec(ctx, `
			UPDATE products SET stock_quantity = stock_quantity - $2, updated_at = now()
			WHERE id=$1`, it.ProductID, it.Quantity); err != nil {
			return err
		}
	}

	_, err = tx.Exec(ctx, `UPDATE inventory_reservations SET status='CONFIRMED' WHERE id=$1`, reservationID)
	return err
}

// Release men-drop hold tanpa menyentuh stok (payment gagal sebelum
// confirm). Idempotent.
func (m *Manager) Release(ctx context.Context, reservationID string) error {
	return postgres.WithTx(ctx, m.DB, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			UPDATE inventory_reservations SET status='RELEASED'
			WHERE id=$1 AND status='RESERVED'`, reservationID)
		return err
	})
}

func (m *Manager) ReleaseOrderTx(ctx context.Context, tx pgx.Tx, orderID string) error {
	_, err := tx.Exec(ctx, `
		UPDATE inventory_reservations SET status='RELEASED'
		WHERE order_id=$1 AND status='RESERVED'`, orderID)
	return err
}

// RestoreTx menambah stok kembali (sale yang sudah CONFIRMED lalu
// di-refund penuh). Additive, tidak merujuk reservation id.
func (m *Manager) RestoreTx(ctx context.Context, tx pgx.Tx, items []commerce.ItemQty) error {
	sorted := make([]commerce.ItemQty, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

	for _, it := range sorted {
		var manage bool
		err := tx.QueryRow(ctx, `
			SELECT manage_stock FROM products WHERE id=$1 FOR UPDATE`, it.ProductID).Scan(&manage)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: product %s", commerce.ErrNotFound, it.ProductID)
		}
		if err != nil {
			return err
		}
		if !manage {
			continue
		}
		if _, err := tx.Exec(ctx, `
			UPDATE products SET stock_quantity = stock_quantity + $2, updated_at = now()
			WHERE id=$1`, it.ProductID, it.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// SweepExpired: job periodik yang menandai hold lewat expiry jadi EXPIRED.
// Tidak ada stok yang berubah — hold tidak pernah mendebit; row EXPIRED
// berhenti dihitung sebagai reserved. Ini mekanisme reclaim stok dari
// checkout yang ditinggal.
func (m *Manager) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	ct, err := m.DB.Exec(ctx, `
		UPDATE inventory_reservations SET status='EXPIRED'
		WHERE status='RESERVED' AND expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

func collectItems(rows pgx.Rows) ([]commerce.ItemQty, error) {
	defer rows.Close()
	var out []commerce.ItemQty
	for rows.Next() {
		var it commerce.ItemQty
		if err := rows.Scan(&it.ProductID, &it.Quantity); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
