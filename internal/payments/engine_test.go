package payments

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ariefcatur/go-payment-engine.git/internal/commerce"
	"github.com/ariefcatur/go-payment-engine.git/internal/inventory"
)

// Transaksi palsu: QueryRow di-route berdasarkan tabel, Exec dicatat.
// Cukup untuk menguji komposisi unit of work tanpa server postgres.

type execCall struct {
	sql  string
	args []any
}

type fakeTx struct {
	payment   commerce.Payment
	execs     []execCall
	committed bool
}

func (t *fakeTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *fakeTx) Commit(ctx context.Context) error          { t.committed = true; return nil }
func (t *fakeTx) Rollback(ctx context.Context) error        { return nil }
func (t *fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *fakeTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *fakeTx) Conn() *pgx.Conn { return nil }

func (t *fakeTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	t.execs = append(t.execs, execCall{sql: sql, args: arguments})
	return pgconn.CommandTag{}, nil
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, fmt.Errorf("unexpected query: %s", sql)
}

func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	switch {
	case strings.Contains(sql, "FROM payments"):
		return paymentRow{p: t.payment}
	case strings.Contains(sql, "inventory_reservations"):
		// tidak ada hold aktif untuk order ini
		return errRow{err: pgx.ErrNoRows}
	default:
		return errRow{err: fmt.Errorf("unexpected query: %s", sql)}
	}
}

type fakeDB struct {
	tx *fakeTx
}

func (d *fakeDB) BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error) {
	return d.tx, nil
}

func (d *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return d.tx.QueryRow(ctx, sql, args...)
}

type errRow struct{ err error }

func (r errRow) Scan(dest ...any) error { return r.err }

// paymentRow mengisi dest sesuai urutan paymentColumns.
type paymentRow struct{ p commerce.Payment }

func (r paymentRow) Scan(dest ...any) error {
	p := r.p
	*dest[0].(*string) = p.ID
	*dest[1].(*string) = p.OrderID
	*dest[2].(*string) = p.UserID
	*dest[3].(*commerce.PaymentType) = p.Type
	*dest[4].(*string) = string(p.Provider)
	*dest[5].(*string) = p.Method
	*dest[6].(*commerce.PaymentStatus) = p.Status
	*dest[7].(*int64) = p.Amount
	*dest[8].(*string) = p.Currency
	*dest[9].(*string) = p.TransactionID
	*dest[10].(**string) = p.GatewayTransactionID
	*dest[11].(*int64) = p.RefundedAmount
	*dest[12].(**string) = p.OriginalPaymentID
	*dest[13].(*string) = p.FailureReason
	*dest[14].(*string) = p.FailureCode
	*dest[15].(*string) = p.RefundReason
	*dest[16].(**string) = p.RefundRequestedBy
	*dest[17].(**time.Time) = p.RefundRequestedAt
	*dest[18].(**time.Time) = p.RefundProcessedAt
	*dest[19].(*time.Time) = p.CreatedAt
	*dest[20].(*time.Time) = p.UpdatedAt
	return nil
}

func pendingPayment() commerce.Payment {
	now := time.Now().UTC()
	return commerce.Payment{
		ID:            "pay_1",
		OrderID:       "ord_1",
		UserID:        "usr_1",
		Type:          commerce.TypePayment,
		Provider:      commerce.ProviderIamport,
		Method:        "card",
		Status:        commerce.PaymentPending,
		Amount:        10000,
		Currency:      "KRW",
		TransactionID: "TXN1",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func newTestEngine(tx *fakeTx) *Engine {
	return &Engine{DB: &fakeDB{tx: tx}, Inventory: &inventory.Manager{}, Service: "payment-test"}
}

func successNotification(amount int64) commerce.GatewayNotification {
	return commerce.GatewayNotification{
		Provider:             commerce.ProviderIamport,
		TransactionID:        "TXN1",
		GatewayTransactionID: "imp_1",
		Outcome:              commerce.OutcomeSuccess,
		Amount:               amount,
		Currency:             "KRW",
	}
}

func findExec(execs []execCall, table string) (execCall, bool) {
	for _, e := range execs {
		if strings.Contains(e.sql, table) {
			return e, true
		}
	}
	return execCall{}, false
}

// Delivery kedua untuk payment yang sudah final: gate short-circuit di
// bawah row lock, tanpa side effect baru.
func TestProcessNotificationGateShortCircuit(t *testing.T) {
	p := pendingPayment()
	p.Status = commerce.PaymentCompleted
	tx := &fakeTx{payment: p}
	e := newTestEngine(tx)

	res, err := e.ProcessNotification(context.Background(), successNotification(10000))
	if err != nil {
		t.Fatal(err)
	}
	if !res.AlreadyProcessed {
		t.Fatal("expected already_processed")
	}
	if res.Status != commerce.PaymentCompleted {
		t.Fatalf("status = %s, want COMPLETED", res.Status)
	}
	if len(tx.execs) != 0 {
		t.Fatalf("finalized payment must not write anything, got %d exec(s)", len(tx.execs))
	}
	if !tx.committed {
		t.Fatal("transaction not committed")
	}
}

// Webhook sukses datang setelah hold expired: payment dibukukan FAILED
// dengan code RESERVATION_EXPIRED, tidak ada re-reservation diam-diam.
func TestProcessNotificationExpiredReservation(t *testing.T) {
	tx := &fakeTx{payment: pendingPayment()}
	e := newTestEngine(tx)

	res, err := e.ProcessNotification(context.Background(), successNotification(10000))
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != commerce.PaymentFailed {
		t.Fatalf("status = %s, want FAILED", res.Status)
	}

	mark, ok := findExec(tx.execs, "UPDATE payments")
	if !ok {
		t.Fatal("payment row not updated")
	}
	if code := mark.args[2].(string); code != codeReservationExpired {
		t.Fatalf("failure code = %s, want %s", code, codeReservationExpired)
	}
	if _, ok := findExec(tx.execs, "UPDATE orders"); !ok {
		t.Fatal("order not moved to failed state")
	}
	if _, ok := findExec(tx.execs, "outbox_events"); !ok {
		t.Fatal("failure event not emitted to outbox")
	}
	if !tx.committed {
		t.Fatal("transaction not committed")
	}
}

// Amount webhook != amount payment: dibukukan FAILED dengan AMOUNT_MISMATCH,
// bukan COMPLETED dengan angka yang salah.
func TestProcessNotificationAmountMismatch(t *testing.T) {
	tx := &fakeTx{payment: pendingPayment()}
	e := newTestEngine(tx)

	res, err := e.ProcessNotification(context.Background(), successNotification(9999))
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != commerce.PaymentFailed {
		t.Fatalf("status = %s, want FAILED", res.Status)
	}
	mark, ok := findExec(tx.execs, "UPDATE payments")
	if !ok {
		t.Fatal("payment row not updated")
	}
	if code := mark.args[2].(string); code != codeAmountMismatch {
		t.Fatalf("failure code = %s, want %s", code, codeAmountMismatch)
	}
}
