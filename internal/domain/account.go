package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Account types accepted by the banking API.
const (
	AccountTypeSavings        = "SAVINGS"
	AccountTypeChecking       = "CHECKING"
	AccountTypeBusiness       = "BUSINESS"
	AccountTypePremiumSavings = "PREMIUM_SAVINGS"
)

// Account statuses.
const (
	AccountStatusActive   = "ACTIVE"
	AccountStatusInactive = "INACTIVE"
	AccountStatusClosed   = "CLOSED"
)

// AccountTypes lists every valid account type.
var AccountTypes = []string{AccountTypeSavings, AccountTypeChecking, AccountTypeBusiness, AccountTypePremiumSavings}

// AccountRecord is the request body for POST /accounts and PUT /accounts/{id}.
type AccountRecord struct {
	AccountType string          `json:"accountType"`
	Status      string          `json:"status,omitempty"`
	OwnerID     *int64          `json:"userId"`
	Balance     decimal.Decimal `json:"balance"`
	CreditLimit decimal.Decimal `json:"creditLimit"`
}

// AccountParams are the named inputs of NewAccountRecord. OwnerID may be zero
// while the owning user does not exist yet; the orchestrator injects it.
type AccountParams struct {
	AccountType string          `validate:"required,oneof=SAVINGS CHECKING BUSINESS PREMIUM_SAVINGS"`
	Status      string          `validate:"omitempty,oneof=ACTIVE INACTIVE CLOSED"`
	OwnerID     int64           `validate:"gte=0"`
	Balance     decimal.Decimal `validate:"gte=0"`
	CreditLimit decimal.Decimal `validate:"gte=0"`
}

// NewAccountRecord builds a validated account payload.
func NewAccountRecord(p AccountParams) (AccountRecord, error) {
	if err := validateParams("account", p); err != nil {
		return AccountRecord{}, err
	}
	rec := AccountRecord{
		AccountType: p.AccountType,
		Status:      p.Status,
		Balance:     p.Balance,
		CreditLimit: p.CreditLimit,
	}
	if p.OwnerID > 0 {
		rec.OwnerID = Ptr(p.OwnerID)
	}
	return rec, nil
}

// WithOwner returns a copy of the record owned by userID.
func (a AccountRecord) WithOwner(userID int64) AccountRecord {
	a.OwnerID = Ptr(userID)
	return a
}

// Account is the account document returned by the API.
type Account struct {
	ID             int64           `json:"id"`
	AccountNumber  string          `json:"accountNumber"`
	AccountType    string          `json:"accountType"`
	Balance        decimal.Decimal `json:"balance"`
	Currency       string          `json:"currency,omitempty"`
	UserID         *int64          `json:"userId"`
	Active         *bool           `json:"active,omitempty"`
	OverdraftLimit decimal.Decimal `json:"overdraftLimit"`
	CreditLimit    decimal.Decimal `json:"creditLimit"`
	MinimumBalance decimal.Decimal `json:"minimumBalance"`
	AccountStatus  string          `json:"accountStatus,omitempty"`
	Frozen         *bool           `json:"frozen,omitempty"`
	CreatedAt      string          `json:"createdAt,omitempty"`
	UpdatedAt      string          `json:"updatedAt,omitempty"`
}

// IsActive reports an account flagged active that has not been closed.
func (a Account) IsActive() bool {
	return a.Active != nil && *a.Active && a.AccountStatus != AccountStatusClosed
}

func (a Account) IsFrozen() bool {
	return a.Frozen != nil && *a.Frozen
}

func (a Account) HasOverdraftLimit() bool {
	return a.OverdraftLimit.IsPositive()
}

// AvailableBalance is balance plus overdraft when an overdraft limit is set.
func (a Account) AvailableBalance() decimal.Decimal {
	if a.HasOverdraftLimit() {
		return a.Balance.Add(a.OverdraftLimit)
	}
	return a.Balance
}

// HasSufficientBalance reports whether a positive amount fits the available balance.
func (a Account) HasSufficientBalance(amount decimal.Decimal) bool {
	if !amount.IsPositive() {
		return false
	}
	return a.AvailableBalance().GreaterThanOrEqual(amount)
}

// IsMinimumBalanceViolated is false when no minimum balance is configured.
func (a Account) IsMinimumBalanceViolated() bool {
	if a.MinimumBalance.IsZero() {
		return false
	}
	return a.Balance.LessThan(a.MinimumBalance)
}

func (a Account) IsSavings() bool {
	return a.AccountType == AccountTypeSavings || a.AccountType == AccountTypePremiumSavings
}

func (a Account) IsChecking() bool { return a.AccountType == AccountTypeChecking }

func (a Account) IsBusiness() bool { return a.AccountType == AccountTypeBusiness }

// TypeDisplayName renders the account type for reports.
func (a Account) TypeDisplayName() string {
	switch strings.ToUpper(a.AccountType) {
	case "":
		return "Unknown"
	case AccountTypeSavings:
		return "Savings Account"
	case AccountTypeChecking:
		return "Checking Account"
	case AccountTypeBusiness:
		return "Business Account"
	case AccountTypePremiumSavings:
		return "Premium Savings Account"
	default:
		return a.AccountType
	}
}
