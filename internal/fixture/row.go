package fixture

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/transfa/bank-api-harness/internal/domain"
)

// Row is one data row of a tabular fixture keyed by header.
type Row map[string]string

// dateLayouts are tried in order by Row.Date.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01-02-06",
	"1/2/06",
	"01/02/2006",
	"02.01.2006",
}

// String returns the trimmed cell or "" when absent.
func (r Row) String(col string) string {
	return strings.TrimSpace(r[col])
}

// Int parses the cell as an integer. Spreadsheet numbers such as "12.0" are
// accepted when they have no fractional part.
func (r Row) Int(col string) (int64, bool) {
	raw := r.String(col)
	if raw == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, true
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || !d.IsInteger() {
		return 0, false
	}
	return d.IntPart(), true
}

// Decimal parses the cell as a decimal number.
func (r Row) Decimal(col string) (decimal.Decimal, bool) {
	raw := strings.ReplaceAll(r.String(col), ",", "")
	if raw == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Bool accepts true/false, yes/no, y/n and 1/0 in any case.
func (r Row) Bool(col string) (bool, bool) {
	switch strings.ToLower(r.String(col)) {
	case "true", "yes", "y", "1":
		return true, true
	case "false", "no", "n", "0":
		return false, true
	default:
		return false, false
	}
}

func (r Row) Date(col string) (time.Time, bool) {
	raw := r.String(col)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// UserFromRow maps the username, email, password, fullName and phoneNumber
// columns to a validated record.
func UserFromRow(r Row) (domain.UserRecord, error) {
	return domain.NewUserRecord(domain.UserParams{
		Username:    r.String("username"),
		Email:       r.String("email"),
		Password:    r.String("password"),
		FullName:    r.String("fullName"),
		PhoneNumber: r.String("phoneNumber"),
	})
}

// AccountFromRow maps the accountType, status, balance and creditLimit columns.
func AccountFromRow(r Row) (domain.AccountRecord, error) {
	balance, _ := r.Decimal("balance")
	creditLimit, _ := r.Decimal("creditLimit")
	return domain.NewAccountRecord(domain.AccountParams{
		AccountType: strings.ToUpper(r.String("accountType")),
		Status:      strings.ToUpper(r.String("status")),
		Balance:     balance,
		CreditLimit: creditLimit,
	})
}

// TransactionFromRow maps the transactionType, amount, currency and description
// columns. Currency defaults to USD.
func TransactionFromRow(r Row) (domain.TransactionRecord, error) {
	amount, _ := r.Decimal("amount")
	currency := strings.ToUpper(r.String("currency"))
	if currency == "" {
		currency = "USD"
	}
	return domain.NewTransactionRecord(domain.TransactionParams{
		TransactionType: strings.ToUpper(r.String("transactionType")),
		Amount:          amount,
		Currency:        currency,
		Description:     r.String("description"),
	})
}
