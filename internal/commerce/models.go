package commerce

import "time"

type Product struct {
	ID            string
	SKU           string
	Name          string
	StockQuantity int
	ManageStock   bool
	Price         int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Order struct {
	ID            string
	UserID        string
	Status        OrderStatus        // lihat status.go
	PaymentStatus OrderPaymentStatus // PENDING | PAID | FAILED | REFUNDED
	PaymentID     *string            // set saat payment pertama COMPLETED
	PaymentMethod *string
	TotalAmount   int64
	Currency      string
	Items         []OrderItem
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type OrderItem struct {
	OrderID   string
	ProductID string
	Quantity  int
	Price     int64
}

// Payment baris append-only: refund dibuat sebagai row baru (type REFUND /
// PARTIAL_REFUND) yang menunjuk ke original via OriginalPaymentID, bukan
// mutasi in-place.
type Payment struct {
	ID                   string
	OrderID              string
	UserID               string
	Type                 PaymentType
	Provider             Provider
	Method               string
	Status               PaymentStatus
	Amount               int64
	Currency             string
	TransactionID        string  // internal, unik, idempotency key
	GatewayTransactionID *string // assigned oleh provider, nullable
	RefundedAmount       int64
	OriginalPaymentID    *string
	FailureReason        string
	FailureCode          string
	RefundReason         string
	RefundRequestedBy    *string
	RefundRequestedAt    *time.Time
	RefundProcessedAt    *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Remaining is the amount still refundable on a PAYMENT row.
func (p *Payment) Remaining() int64 { return p.Amount - p.RefundedAmount }

type ItemQty struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}
