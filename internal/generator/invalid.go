package generator

import (
	"github.com/shopspring/decimal"
	"github.com/transfa/bank-api-harness/internal/domain"
)

// InvalidUserEmptyFields has an empty username and a malformed email.
func (g *Generator) InvalidUserEmptyFields() domain.UserRecord {
	return domain.UserRecord{Username: domain.Ptr(""), Email: "invalid-email"}
}

func (g *Generator) InvalidUserWrongEmail() domain.UserRecord {
	return domain.UserRecord{Username: domain.Ptr(g.validUsername()), Email: "not-an-email"}
}

// InvalidUserShortUsername is one character below the minimum length.
func (g *Generator) InvalidUserShortUsername() domain.UserRecord {
	return domain.UserRecord{Username: domain.Ptr("ab"), Email: g.email()}
}

func (g *Generator) InvalidUserNullUsername() domain.UserRecord {
	return domain.UserRecord{Username: nil, Email: g.email()}
}

func (g *Generator) InvalidUserEmptyEmail() domain.UserRecord {
	return domain.UserRecord{Username: domain.Ptr(g.validUsername()), Email: ""}
}

// InvalidUsers is the negative user catalogue.
func (g *Generator) InvalidUsers() []Named[domain.UserRecord] {
	return []Named[domain.UserRecord]{
		{Name: "empty username and malformed email", Record: g.InvalidUserEmptyFields()},
		{Name: "malformed email", Record: g.InvalidUserWrongEmail()},
		{Name: "username too short", Record: g.InvalidUserShortUsername()},
		{Name: "empty email", Record: g.InvalidUserEmptyEmail()},
		{Name: "null username", Record: g.InvalidUserNullUsername()},
	}
}

// InvalidAccountEmptyType is routed to a real owner by the scenario, so only
// the account type is wrong.
func (g *Generator) InvalidAccountEmptyType() domain.AccountRecord {
	return domain.AccountRecord{AccountType: "", Balance: decimal.NewFromInt(MinBalance)}
}

func (g *Generator) InvalidAccountNullOwner() domain.AccountRecord {
	return domain.AccountRecord{AccountType: domain.AccountTypeSavings, OwnerID: nil, Balance: decimal.NewFromInt(MinBalance)}
}

func (g *Generator) InvalidAccountUnknownType() domain.AccountRecord {
	return domain.AccountRecord{AccountType: "INVALID_TYPE", Balance: decimal.NewFromInt(MinBalance)}
}

// InvalidAccounts is the negative account catalogue. Only the empty type case
// has an agreed expected outcome; null owner and unknown type are left out
// until the API's validation rules for them are pinned down.
func (g *Generator) InvalidAccounts() []Named[domain.AccountRecord] {
	return []Named[domain.AccountRecord]{
		{Name: "empty account type", Record: g.InvalidAccountEmptyType()},
	}
}

func (g *Generator) InvalidTransactionZeroAmount() domain.TransactionRecord {
	return domain.TransactionRecord{TransactionType: domain.TransactionTypeDeposit, Amount: decimal.Zero, Currency: "USD"}
}

func (g *Generator) InvalidTransactionNegativeAmount() domain.TransactionRecord {
	return domain.TransactionRecord{TransactionType: domain.TransactionTypeDeposit, Amount: decimal.NewFromInt(-100), Currency: "USD"}
}

func (g *Generator) InvalidTransactionEmptyType() domain.TransactionRecord {
	return domain.TransactionRecord{TransactionType: "", Amount: decimal.NewFromInt(100), Currency: "USD"}
}

// InvalidTransactions is the negative transaction catalogue.
func (g *Generator) InvalidTransactions() []Named[domain.TransactionRecord] {
	return []Named[domain.TransactionRecord]{
		{Name: "zero amount", Record: g.InvalidTransactionZeroAmount()},
		{Name: "negative amount", Record: g.InvalidTransactionNegativeAmount()},
		{Name: "empty transaction type", Record: g.InvalidTransactionEmptyType()},
	}
}
