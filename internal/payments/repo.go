package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-payment-engine.git/internal/commerce"
	"github.com/jackc/pgx/v5"
)

const paymentColumns = `
	id, order_id, user_id, type, provider, COALESCE(method,''), status, amount, currency,
	transaction_id, gateway_transaction_id, refunded_amount, original_payment_id,
	COALESCE(failure_reason,''), COALESCE(failure_code,''), COALESCE(refund_reason,''),
	refund_requested_by, refund_requested_at, refund_processed_at, created_at, updated_at`

func scanPayment(row pgx.Row) (*commerce.Payment, error) {
	var p commerce.Payment
	var provider string
	err := row.Scan(
		&p.ID, &p.OrderID, &p.UserID, &p.Type, &provider, &p.Method, &p.Status,
		&p.Amount, &p.Currency, &p.TransactionID, &p.GatewayTransactionID,
		&p.RefundedAmount, &p.OriginalPaymentID, &p.FailureReason, &p.FailureCode,
		&p.RefundReason, &p.RefundRequestedBy, &p.RefundRequestedAt,
		&p.RefundProcessedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, commerce.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Provider = commerce.Provider(provider)
	return &p, nil
}

// paymentByTransactionIDTx adalah idempotency gate: lock row payment by
// internal transaction_id di dalam transaksi unit of work, menutup race
// dua delivery konkuren untuk event yang sama.
func paymentByTransactionIDTx(ctx context.Context, tx pgx.Tx, transactionID string) (*commerce.Payment, error) {
	row := tx.QueryRow(ctx, `SELECT`+paymentColumns+`
		FROM payments WHERE transaction_id=$1 FOR UPDATE`, transactionID)
	return scanPayment(row)
}

func paymentByIDTx(ctx context.Context, tx pgx.Tx, id string) (*commerce.Payment, error) {
	row := tx.QueryRow(ctx, `SELECT`+paymentColumns+`
		FROM payments WHERE id=$1 FOR UPDATE`, id)
	return scanPayment(row)
}

func insertPaymentTx(ctx context.Context, tx pgx.Tx, p *commerce.Payment) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO payments(
			id, order_id, user_id, type, provider, method, status, amount, currency,
			transaction_id, original_payment_id, refund_reason, refund_requested_by,
			refund_requested_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		p.ID, p.OrderID, p.UserID, p.Type, string(p.Provider), p.Method, p.Status,
		p.Amount, p.Currency, p.TransactionID, p.OriginalPaymentID, p.RefundReason,
		p.RefundRequestedBy, p.RefundRequestedAt)
	return err
}

// pendingRefundTotalTx: total refund PROCESSING yang sedang in-flight untuk
// satu original payment — dihitung terhadap sisa refundable supaya dua
// refund konkuren tidak bisa melewati original.Amount.
func pendingRefundTotalTx(ctx context.Context, tx pgx.Tx, originalID string) (int64, error) {
	var total int64
	err := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM payments
		WHERE original_payment_id=$1 AND status='PROCESSING'`, originalID).Scan(&total)
	return total, err
}

func orderByIDTx(ctx context.Context, tx pgx.Tx, orderID string) (*commerce.Order, error) {
	var o commerce.Order
	err := tx.QueryRow(ctx, `
		SELECT id, user_id, status, payment_status, payment_id, payment_method,
		       total_amount, currency, created_at, updated_at
		FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(
		&o.ID, &o.UserID, &o.Status, &o.PaymentStatus, &o.PaymentID, &o.PaymentMethod,
		&o.TotalAmount, &o.Currency, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: order %s", commerce.ErrNotFound, orderID)
	}
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT order_id, product_id, quantity, price
		FROM order_items WHERE order_id=$1 ORDER BY product_id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it commerce.OrderItem
		if err := rows.Scan(&it.OrderID, &it.ProductID, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, it)
	}
	return &o, rows.Err()
}

func applyOrderUpdateTx(ctx context.Context, tx pgx.Tx, orderID string, up commerce.OrderUpdate, p *commerce.Payment) error {
	if up.SetPaymentRef {
		_, err := tx.Exec(ctx, `
			UPDATE orders SET status=$2, payment_status=$3, payment_id=$4,
			       payment_method=$5, updated_at=now()
			WHERE id=$1`, orderID, up.Status, up.PaymentStatus, p.ID, p.Method)
		return err
	}
	_, err := tx.Exec(ctx, `
		UPDATE orders SET status=$2, payment_status=$3, updated_at=now()
		WHERE id=$1`, orderID, up.Status, up.PaymentStatus)
	return err
}

func markPaymentCompletedTx(ctx context.Context, tx pgx.Tx, id, gatewayTxnID string) error {
	_, err := tx.Exec(ctx, `
		UPDATE payments SET status='COMPLETED', gateway_transaction_id=NULLIF($2,''), updated_at=now()
		WHERE id=$1`, id, gatewayTxnID)
	return err
}

func markPaymentFailedTx(ctx context.Context, tx pgx.Tx, id, reason, code string) error {
	_, err := tx.Exec(ctx, `
		UPDATE payments SET status='FAILED', failure_reason=$2, failure_code=$3, updated_at=now()
		WHERE id=$1`, id, reason, code)
	return err
}

func markRefundCompletedTx(ctx context.Context, tx pgx.Tx, refundID, gatewayTxnID string, at time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE payments SET status='COMPLETED', gateway_transaction_id=NULLIF($2,''),
		       refund_processed_at=$3, updated_at=now()
		WHERE id=$1`, refundID, gatewayTxnID, at)
	return err
}

func applyRefundToOriginalTx(ctx context.Context, tx pgx.Tx, originalID string, amount int64, after commerce.PaymentStatus) error {
	_, err := tx.Exec(ctx, `
		UPDATE payments SET refunded_amount = refunded_amount + $2, status=$3, updated_at=now()
		WHERE id=$1`, originalID, amount, after)
	return err
}

func setGatewayInfoTx(ctx context.Context, tx pgx.Tx, id, gatewayPaymentID string) error {
	_, err := tx.Exec(ctx, `
		UPDATE payments SET gateway_transaction_id=NULLIF($2,''), updated_at=now()
		WHERE id=$1`, id, gatewayPaymentID)
	return err
}
