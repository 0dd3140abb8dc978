package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-payment-engine.git/internal/commerce"
	"github.com/ariefcatur/go-payment-engine.git/internal/gateway"
	"github.com/ariefcatur/go-payment-engine.git/internal/inventory"
	kafkax "github.com/ariefcatur/go-payment-engine.git/internal/kafka"
	"github.com/ariefcatur/go-payment-engine.git/internal/outbox"
	"github.com/ariefcatur/go-payment-engine.git/internal/postgres"
	"github.com/ariefcatur/go-payment-engine.git/internal/redisx"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
)

const (
	codeAmountMismatch     = "AMOUNT_MISMATCH"
	codeReservationExpired = "RESERVATION_EXPIRED"
)

// DB adalah subset *pgxpool.Pool yang dipakai engine; interface supaya
// unit of work bisa dites dengan transaksi palsu.
type DB interface {
	postgres.Beginner
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Engine menjalankan unit of work payment+order+inventory dalam satu
// transaksi DB. Dependency di-inject eksplisit; lifecycle dimiliki proses
// entry point, bukan singleton import-time.
type Engine struct {
	DB             DB
	Redis          *redis.Client
	Gateways       *gateway.Registry
	Inventory      *inventory.Manager
	Service        string
	ReservationTTL time.Duration
}

// CreatePayment membuat payment PENDING untuk order + info redirect
// gateway. Order harus belum dibayar; stok di-recheck dulu.
func (e *Engine) CreatePayment(ctx context.Context, in CreatePaymentInput) (*CreatePaymentResult, error) {
	gw, err := e.Gateways.Lookup(in.Provider)
	if err != nil {
		return nil, err
	}

	p := &commerce.Payment{
		ID:            uuid.NewString(),
		OrderID:       in.OrderID,
		UserID:        in.UserID,
		Type:          commerce.TypePayment,
		Provider:      in.Provider,
		Method:        in.Method,
		Status:        commerce.PaymentPending,
		TransactionID: commerce.NewTransactionID(),
	}

	var order *commerce.Order
	err = postgres.WithTx(ctx, e.DB, func(tx pgx.Tx) error {
		order, err = orderByIDTx(ctx, tx, in.OrderID)
		if err != nil {
			return err
		}
		if order.UserID != in.UserID {
			return fmt.Errorf("%w: order %s", commerce.ErrNotFound, in.OrderID)
		}
		if order.PaymentStatus != commerce.OrderPaymentPending {
			return commerce.ErrOrderNotPayable
		}

		// hold stok selama user di halaman pembayaran; expiry adalah
		// satu-satunya jalur pembatalan hold
		items := make([]commerce.ItemQty, 0, len(order.Items))
		for _, it := range order.Items {
			items = append(items, commerce.ItemQty{ProductID: it.ProductID, Quantity: it.Quantity})
		}
		if _, err := e.Inventory.ReserveTx(ctx, tx, order.ID, items, e.ReservationTTL); err != nil {
			return err
		}

		p.Amount = order.TotalAmount
		p.Currency = order.Currency
		return insertPaymentTx(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}

	// gateway round-trip di luar transaksi; hasilnya dicatat terpisah
	cres, err := gw.CreatePayment(ctx, gateway.CreateRequest{Payment: p, Order: order})
	if err != nil {
		var ge *commerce.GatewayError
		reason, code := err.Error(), "GATEWAY_ERROR"
		if errors.As(err, &ge) {
			reason, code = ge.Message, ge.Code
		}
		_ = postgres.WithTx(ctx, e.DB, func(tx pgx.Tx) error {
			if err := markPaymentFailedTx(ctx, tx, p.ID, reason, code); err != nil {
				return err
			}
			return e.Inventory.ReleaseOrderTx(ctx, tx, p.OrderID)
		})
		return nil, err
	}
	if cres.GatewayPaymentID != "" {
		if err := postgres.WithTx(ctx, e.DB, func(tx pgx.Tx) error {
			return setGatewayInfoTx(ctx, tx, p.ID, cres.GatewayPaymentID)
		}); err != nil {
			return nil, err
		}
	}

	return &CreatePaymentResult{
		PaymentID:     p.ID,
		TransactionID: p.TransactionID,
		RedirectURL:   cres.RedirectURL,
		Method:        cres.Method,
	}, nil
}

// ProcessNotification: jalur webhook asinkron. Dipanggil setelah signature
// lolos dan payload sudah dinormalisasi. Idempotency gate + transisi +
// derivasi order + confirm/release stok dalam SATU transaksi.
func (e *Engine) ProcessNotification(ctx context.Context, n commerce.GatewayNotification) (NotificationResult, error) {
	// fast-path advisory; kebenaran tetap di row lock DB
	dkey := fmt.Sprintf(redisx.KeyWebhookDedup, n.TransactionID)
	if seen, _ := redisx.Exists(ctx, e.Redis, dkey); seen {
		return NotificationResult{TransactionID: n.TransactionID, AlreadyProcessed: true}, nil
	}

	var res NotificationResult
	err := postgres.WithTx(ctx, e.DB, func(tx pgx.Tx) error {
		p, err := paymentByTransactionIDTx(ctx, tx, n.TransactionID)
		if err != nil {
			return err
		}
		res.PaymentID = p.ID
		res.TransactionID = p.TransactionID

		if commerce.Finalized(p.Status) {
			// gate short-circuit: sukses bagi caller, outcome dibedakan internal
			res.Status = p.Status
			res.AlreadyProcessed = true
			return nil
		}

		if n.Outcome == commerce.OutcomeSuccess && n.Amount != 0 && n.Amount != p.Amount {
			res.Status, err = e.finalizeTx(ctx, tx, p, commerce.OutcomeFailed, n.GatewayTransactionID,
				fmt.Sprintf("notification amount %d does not match payment amount %d", n.Amount, p.Amount),
				codeAmountMismatch)
			return err
		}

		res.Status, err = e.finalizeTx(ctx, tx, p, n.Outcome, n.GatewayTransactionID, n.FailureReason, n.FailureCode)
		return err
	})
	if err != nil {
		return NotificationResult{}, err
	}

	// post-commit, best-effort
	e.cacheResult(ctx, dkey, res)
	return res, nil
}

// ConfirmPayment: jalur sinkron (confirm-after-redirect). Round-trip ke
// gateway dilakukan di luar transaksi; gate dicek ulang di dalam.
func (e *Engine) ConfirmPayment(ctx context.Context, in ConfirmInput) (*ConfirmResult, error) {
	p, err := e.paymentByTransactionID(ctx, in.TransactionID)
	if err != nil {
		return nil, err
	}
	if p.OrderID != in.OrderID {
		return nil, fmt.Errorf("%w: payment does not belong to order %s", commerce.ErrNotFound, in.OrderID)
	}
	if commerce.Finalized(p.Status) {
		return &ConfirmResult{PaymentID: p.ID, TransactionID: p.TransactionID,
			Status: p.Status, AlreadyProcessed: true}, nil
	}
	if in.Amount != p.Amount {
		return e.confirmFinalize(ctx, p, commerce.OutcomeFailed, "",
			fmt.Sprintf("confirm amount %d does not match payment amount %d", in.Amount, p.Amount),
			codeAmountMismatch)
	}

	gw, err := e.Gateways.Lookup(p.Provider)
	if err != nil {
		return nil, err
	}
	cres, err := gw.ConfirmPayment(ctx, gateway.ConfirmRequest{
		TransactionID: p.TransactionID,
		GatewayKey:    in.PaymentKey,
		Amount:        in.Amount,
	})
	if err != nil {
		var ge *commerce.GatewayError
		reason, code := err.Error(), "GATEWAY_ERROR"
		if errors.As(err, &ge) {
			reason, code = ge.Message, ge.Code
		}
		return e.confirmFinalize(ctx, p, commerce.OutcomeFailed, "", reason, code)
	}
	if cres.Outcome != commerce.OutcomeSuccess {
		return e.confirmFinalize(ctx, p, commerce.OutcomeFailed, cres.GatewayTransactionID,
			cres.FailureReason, cres.FailureCode)
	}
	if cres.Amount != 0 && cres.Amount != p.Amount {
		return e.confirmFinalize(ctx, p, commerce.OutcomeFailed, cres.GatewayTransactionID,
			fmt.Sprintf("gateway amount %d does not match payment amount %d", cres.Amount, p.Amount),
			codeAmountMismatch)
	}
	return e.confirmFinalize(ctx, p, commerce.OutcomeSuccess, cres.GatewayTransactionID, "", "")
}

func (e *Engine) confirmFinalize(ctx context.Context, p *commerce.Payment, outcome commerce.Outcome, gatewayTxnID, reason, code string) (*ConfirmResult, error) {
	res := &ConfirmResult{PaymentID: p.ID, TransactionID: p.TransactionID,
		FailureReason: reason, FailureCode: code}
	err := postgres.WithTx(ctx, e.DB, func(tx pgx.Tx) error {
		locked, err := paymentByTransactionIDTx(ctx, tx, p.TransactionID)
		if err != nil {
			return err
		}
		if commerce.Finalized(locked.Status) {
			// webhook menang duluan; jalur kedua jadi no-op
			res.Status = locked.Status
			res.AlreadyProcessed = true
			res.FailureReason, res.FailureCode = "", ""
			return nil
		}
		res.Status, err = e.finalizeTx(ctx, tx, locked, outcome, gatewayTxnID, reason, code)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.cacheResult(ctx, fmt.Sprintf(redisx.KeyWebhookDedup, p.TransactionID), NotificationResult{
		PaymentID: res.PaymentID, TransactionID: res.TransactionID, Status: res.Status,
	})
	return res, nil
}

// finalizeTx: transisi terminal payment + derivasi order + inventory, satu
// transaksi. Konfirmasi sukses atas reservation yang sudah expired ditolak
// dan dibukukan sebagai FAILED (butuh rekonsiliasi manual, tanpa
// re-reservation diam-diam).
func (e *Engine) finalizeTx(ctx context.Context, tx pgx.Tx, p *commerce.Payment, outcome commerce.Outcome, gatewayTxnID, reason, code string) (commerce.PaymentStatus, error) {
	if outcome == commerce.OutcomeSuccess {
		if !commerce.CanTransitionPayment(p.Status, commerce.PaymentCompleted) {
			return "", fmt.Errorf("%w: %s -> COMPLETED", commerce.ErrInvalidTransition, p.Status)
		}
		err := e.Inventory.ConfirmOrderTx(ctx, tx, p.OrderID)
		if errors.Is(err, commerce.ErrReservationExpired) {
			outcome = commerce.OutcomeFailed
			reason = "stock reservation expired before payment confirmation"
			code = codeReservationExpired
		} else if err != nil {
			return "", err
		} else {
			if err := markPaymentCompletedTx(ctx, tx, p.ID, gatewayTxnID); err != nil {
				return "", err
			}
			order, err := orderByIDTx(ctx, tx, p.OrderID)
			if err != nil {
				return "", err
			}
			up := commerce.OrderAfterPaymentCompleted(order.Status)
			if err := applyOrderUpdateTx(ctx, tx, order.ID, up, p); err != nil {
				return "", err
			}
			if err := e.emitTx(ctx, tx, commerce.EventPaymentCompleted, commerce.TopicPaymentCompleted, p.OrderID,
				commerce.PaymentCompletedPayload{
					PaymentID: p.ID, OrderID: p.OrderID, UserID: p.UserID,
					TransactionID: p.TransactionID, GatewayTransactionID: gatewayTxnID,
					Provider: string(p.Provider), Amount: p.Amount, Currency: p.Currency,
				}); err != nil {
				return "", err
			}
			return commerce.PaymentCompleted, nil
		}
	}

	if !commerce.CanTransitionPayment(p.Status, commerce.PaymentFailed) {
		return "", fmt.Errorf("%w: %s -> FAILED", commerce.ErrInvalidTransition, p.Status)
	}
	if err := markPaymentFailedTx(ctx, tx, p.ID, reason, code); err != nil {
		return "", err
	}
	up := commerce.OrderAfterPaymentFailed()
	if err := applyOrderUpdateTx(ctx, tx, p.OrderID, up, p); err != nil {
		return "", err
	}
	if err := e.Inventory.ReleaseOrderTx(ctx, tx, p.OrderID); err != nil {
		return "", err
	}
	if err := e.emitTx(ctx, tx, commerce.EventPaymentFailed, commerce.TopicPaymentFailed, p.OrderID,
		commerce.PaymentFailedPayload{
			PaymentID: p.ID, OrderID: p.OrderID, UserID: p.UserID,
			TransactionID: p.TransactionID, Provider: string(p.Provider),
			Reason: reason, Code: code,
		}); err != nil {
		return "", err
	}
	return commerce.PaymentFailed, nil
}

// Refund membuat row Payment baru (REFUND / PARTIAL_REFUND) — original
// tidak pernah dimutasi in-place selain refunded_amount/status setelah
// gateway sukses. Refund gagal di gateway tidak menyentuh pembukuan
// original sama sekali.
func (e *Engine) Refund(ctx context.Context, in RefundInput) (*RefundResult, error) {
	now := time.Now().UTC()
	var original *commerce.Payment
	var plan commerce.RefundPlan

	refund := &commerce.Payment{
		ID:                uuid.NewString(),
		Type:              commerce.TypePartialRefund,
		Status:            commerce.PaymentProcessing,
		TransactionID:     commerce.NewRefundTransactionID(),
		RefundReason:      in.Reason,
		RefundRequestedAt: &now,
	}
	if in.RequestedBy != "" {
		refund.RefundRequestedBy = &in.RequestedBy
	}

	// fase 1: validasi + row PROCESSING, supaya refund konkuren terhitung
	err := postgres.WithTx(ctx, e.DB, func(tx pgx.Tx) error {
		var err error
		original, err = paymentByIDTx(ctx, tx, in.PaymentID)
		if err != nil {
			return err
		}
		pending, err := pendingRefundTotalTx(ctx, tx, original.ID)
		if err != nil {
			return err
		}
		plan, err = commerce.PlanRefund(original, in.Amount, pending)
		if err != nil {
			return err
		}

		refund.OrderID = original.OrderID
		refund.UserID = original.UserID
		refund.Type = plan.Type
		refund.Provider = original.Provider
		refund.Method = original.Method
		refund.Amount = plan.Amount
		refund.Currency = original.Currency
		refund.OriginalPaymentID = &original.ID
		return insertPaymentTx(ctx, tx, refund)
	})
	if err != nil {
		return nil, err
	}

	// fase 2: gateway refund, di luar transaksi
	gw, err := e.Gateways.Lookup(original.Provider)
	if err != nil {
		return nil, err
	}
	rres, gwErr := gw.Refund(ctx, gateway.RefundRequest{
		Original: original, Amount: plan.Amount, Reason: in.Reason,
	})

	// fase 3: bukukan hasil
	res := &RefundResult{RefundID: refund.ID, TransactionID: refund.TransactionID, Amount: plan.Amount}
	err = postgres.WithTx(ctx, e.DB, func(tx pgx.Tx) error {
		if gwErr != nil {
			var ge *commerce.GatewayError
			reason, code := gwErr.Error(), "GATEWAY_ERROR"
			if errors.As(gwErr, &ge) {
				reason, code = ge.Message, ge.Code
			}
			res.Status = commerce.PaymentFailed
			res.FailureReason = reason
			return markPaymentFailedTx(ctx, tx, refund.ID, reason, code)
		}

		if err := markRefundCompletedTx(ctx, tx, refund.ID, rres.RefundTransactionID, now); err != nil {
			return err
		}
		// lock ulang original sebelum pembukuan
		if _, err := paymentByIDTx(ctx, tx, original.ID); err != nil {
			return err
		}
		if err := applyRefundToOriginalTx(ctx, tx, original.ID, plan.Amount, plan.OriginalAfter); err != nil {
			return err
		}

		order, err := orderByIDTx(ctx, tx, original.OrderID)
		if err != nil {
			return err
		}
		up, restore := commerce.OrderAfterRefund(plan.Full, order.Status, order.PaymentStatus)
		if plan.Full {
			if err := applyOrderUpdateTx(ctx, tx, order.ID, up, original); err != nil {
				return err
			}
		}
		if restore {
			items := make([]commerce.ItemQty, 0, len(order.Items))
			for _, it := range order.Items {
				items = append(items, commerce.ItemQty{ProductID: it.ProductID, Quantity: it.Quantity})
			}
			if err := e.Inventory.RestoreTx(ctx, tx, items); err != nil {
				return err
			}
		}

		res.Status = commerce.PaymentCompleted
		return e.emitTx(ctx, tx, commerce.EventPaymentRefunded, commerce.TopicPaymentRefunded, original.OrderID,
			commerce.PaymentRefundedPayload{
				RefundID: refund.ID, OriginalPaymentID: original.ID,
				OrderID: original.OrderID, UserID: original.UserID,
				Amount: plan.Amount, Full: plan.Full,
			})
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Payment: view tanpa lock untuk endpoint GET.
func (e *Engine) Payment(ctx context.Context, id string) (*commerce.Payment, error) {
	row := e.DB.QueryRow(ctx, `SELECT`+paymentColumns+` FROM payments WHERE id=$1`, id)
	return scanPayment(row)
}

func (e *Engine) paymentByTransactionID(ctx context.Context, transactionID string) (*commerce.Payment, error) {
	row := e.DB.QueryRow(ctx, `SELECT`+paymentColumns+` FROM payments WHERE transaction_id=$1`, transactionID)
	return scanPayment(row)
}

func (e *Engine) emitTx(ctx context.Context, tx pgx.Tx, eventType, topic, orderID string, payload any) error {
	env := commerce.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      e.Service,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	return outbox.Emit(ctx, tx, topic, commerce.PartitionKey(orderID), kafkax.MustMarshal(env))
}

// cacheResult: dedup advisory + cache status, best-effort pasca-commit.
func (e *Engine) cacheResult(ctx context.Context, dedupKey string, res NotificationResult) {
	if e.Redis == nil {
		return
	}
	_ = e.Redis.Set(ctx, dedupKey, "1", redisx.TTLWebhookDedup).Err()
	if res.PaymentID != "" && res.Status != "" {
		skey := fmt.Sprintf(redisx.KeyPaymentStatus, res.PaymentID)
		_ = e.Redis.Set(ctx, skey, fmt.Sprintf(`{"status":%q}`, res.Status), redisx.TTLStatusCache).Err()
	}
}
