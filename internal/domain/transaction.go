package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Transaction types.
const (
	TransactionTypeDeposit    = "DEPOSIT"
	TransactionTypeWithdrawal = "WITHDRAWAL"
	TransactionTypeTransfer   = "TRANSFER"
)

// Transaction statuses.
const (
	TransactionStatusPending    = "PENDING"
	TransactionStatusCompleted  = "COMPLETED"
	TransactionStatusFailed     = "FAILED"
	TransactionStatusCancelled  = "CANCELLED"
	TransactionStatusProcessing = "PROCESSING"
)

// TransactionTypes lists every valid transaction type.
var TransactionTypes = []string{TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeTransfer}

// Currencies used by generated transactions.
var Currencies = []string{"USD", "EUR", "GBP"}

// TransactionRecord is the request body for POST /transactions.
type TransactionRecord struct {
	TransactionType string          `json:"transactionType"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency,omitempty"`
	Description     string          `json:"description,omitempty"`
	FromAccountID   *int64          `json:"fromAccountId,omitempty"`
	ToAccountID     *int64          `json:"toAccountId,omitempty"`
}

// TransactionParams are the named inputs of NewTransactionRecord. Account ids
// may be zero until the orchestrator injects them.
type TransactionParams struct {
	TransactionType string          `validate:"required,oneof=DEPOSIT WITHDRAWAL TRANSFER"`
	Amount          decimal.Decimal `validate:"gt=0"`
	Currency        string          `validate:"required,iso4217"`
	Description     string
	FromAccountID   int64 `validate:"gte=0"`
	ToAccountID     int64 `validate:"gte=0"`
}

// NewTransactionRecord builds a validated transaction payload.
func NewTransactionRecord(p TransactionParams) (TransactionRecord, error) {
	if err := validateParams("transaction", p); err != nil {
		return TransactionRecord{}, err
	}
	if p.TransactionType == TransactionTypeTransfer && (p.FromAccountID == 0) != (p.ToAccountID == 0) {
		return TransactionRecord{}, fmt.Errorf("%w: transaction: transfer requires both fromAccountId and toAccountId", ErrInvalidRecord)
	}
	rec := TransactionRecord{
		TransactionType: p.TransactionType,
		Amount:          p.Amount,
		Currency:        p.Currency,
		Description:     p.Description,
	}
	if p.FromAccountID > 0 {
		rec.FromAccountID = Ptr(p.FromAccountID)
	}
	if p.ToAccountID > 0 {
		rec.ToAccountID = Ptr(p.ToAccountID)
	}
	return rec, nil
}

// IsTransfer reports a TRANSFER record.
func (t TransactionRecord) IsTransfer() bool {
	return t.TransactionType == TransactionTypeTransfer
}

// WithAccounts returns a copy routed between the given accounts.
func (t TransactionRecord) WithAccounts(from, to int64) TransactionRecord {
	t.FromAccountID = Ptr(from)
	t.ToAccountID = Ptr(to)
	return t
}

// Transaction is the transaction document returned by the API.
type Transaction struct {
	ID                   int64           `json:"id"`
	TransactionReference string          `json:"transactionReference"`
	TransactionType      string          `json:"transactionType"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency,omitempty"`
	Description          string          `json:"description,omitempty"`
	FromAccountID        *int64          `json:"fromAccountId,omitempty"`
	ToAccountID          *int64          `json:"toAccountId,omitempty"`
	Status               string          `json:"status,omitempty"`
	Fee                  decimal.Decimal `json:"fee"`
	Cleared              *bool           `json:"cleared,omitempty"`
	CreatedAt            string          `json:"createdAt,omitempty"`
	CompletedAt          string          `json:"completedAt,omitempty"`
}

func (t Transaction) IsCompleted() bool  { return t.Status == TransactionStatusCompleted }
func (t Transaction) IsPending() bool    { return t.Status == TransactionStatusPending }
func (t Transaction) IsFailed() bool     { return t.Status == TransactionStatusFailed }
func (t Transaction) IsCancelled() bool  { return t.Status == TransactionStatusCancelled }
func (t Transaction) IsCleared() bool    { return t.Cleared != nil && *t.Cleared }
func (t Transaction) IsSuccessful() bool { return t.IsCompleted() || t.IsCleared() }
func (t Transaction) IsTransfer() bool   { return t.TransactionType == TransactionTypeTransfer }
func (t Transaction) IsDeposit() bool    { return t.TransactionType == TransactionTypeDeposit }
func (t Transaction) IsWithdrawal() bool { return t.TransactionType == TransactionTypeWithdrawal }

// IsDebit reports money leaving an account.
func (t Transaction) IsDebit() bool {
	return t.IsWithdrawal() || (t.IsTransfer() && t.FromAccountID != nil)
}

// IsCredit reports money entering an account.
func (t Transaction) IsCredit() bool {
	return t.IsDeposit() || (t.IsTransfer() && t.ToAccountID != nil)
}

func (t Transaction) HasFee() bool {
	return t.Fee.IsPositive()
}

// TotalAmount is amount plus fee when a fee was charged.
func (t Transaction) TotalAmount() decimal.Decimal {
	if t.HasFee() {
		return t.Amount.Add(t.Fee)
	}
	return t.Amount
}

// StatusDisplayName renders the status for reports.
func (t Transaction) StatusDisplayName() string {
	switch strings.ToUpper(t.Status) {
	case "":
		return "Unknown"
	case TransactionStatusPending:
		return "Pending"
	case TransactionStatusCompleted:
		return "Completed"
	case TransactionStatusFailed:
		return "Failed"
	case TransactionStatusCancelled:
		return "Cancelled"
	case TransactionStatusProcessing:
		return "Processing"
	default:
		return t.Status
	}
}
