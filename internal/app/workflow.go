/**
 * @description
 * The end-to-end workflow: user, account, optional counterparty, transaction
 * and verification, each step feeding the ids it extracted into the next.
 *
 * @notes
 * - FAILED is terminal. Nothing is rolled back; created ids stay on the
 *   ScenarioContext for the report and the cleanup tool.
 * - A TRANSFER needs a destination, so a second user and CHECKING account
 *   are created before the transaction.
 */
package app

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/transfa/bank-api-harness/internal/domain"
	"github.com/transfa/bank-api-harness/internal/schema"
	"github.com/transfa/bank-api-harness/pkg/bankclient"
	"go.uber.org/zap"
)

// State is a workflow state.
type State string

const (
	StateInit                 State = "INIT"
	StateUserCreated          State = "USER_CREATED"
	StateAccountCreated       State = "ACCOUNT_CREATED"
	StateSecondAccountCreated State = "SECOND_ACCOUNT_CREATED"
	StateTransactionCreated   State = "TRANSACTION_CREATED"
	StateVerified             State = "VERIFIED"
	StateDone                 State = "DONE"
	StateFailed               State = "FAILED"
)

// Counterparty account used as the destination of transfers.
var (
	CounterpartyBalance     = decimal.RequireFromString("500.00")
	CounterpartyCreditLimit = decimal.RequireFromString("100.00")
)

// WorkflowInput is one row of end-to-end data. Owner and account ids are
// injected by the workflow.
type WorkflowInput struct {
	User        domain.UserRecord
	Account     domain.AccountRecord
	Transaction domain.TransactionRecord
}

// WorkflowResult holds what the workflow created, as returned by the API.
type WorkflowResult struct {
	User         domain.User
	Account      domain.Account
	Counterparty *domain.Account
	Transaction  domain.Transaction
	FinalState   State
}

// RunWorkflow drives the state machine to DONE or FAILED.
func RunWorkflow(ctx context.Context, sc *ScenarioContext, in WorkflowInput) (WorkflowResult, error) {
	res, err := runWorkflow(ctx, sc, in)
	if err != nil {
		sc.transition(StateFailed)
	} else {
		sc.transition(StateDone)
	}
	res.FinalState = sc.state
	return res, err
}

func runWorkflow(ctx context.Context, sc *ScenarioContext, in WorkflowInput) (WorkflowResult, error) {
	var res WorkflowResult

	user, err := sc.CreateUser(ctx, in.User)
	if err != nil {
		return res, err
	}
	res.User = user
	sc.transition(StateUserCreated)

	account, err := sc.CreateAccount(ctx, in.Account.WithOwner(user.ID))
	if err != nil {
		return res, err
	}
	res.Account = account
	sc.transition(StateAccountCreated)

	tx := in.Transaction
	if tx.IsTransfer() {
		counterparty, err := sc.createCounterparty(ctx)
		if err != nil {
			return res, err
		}
		res.Counterparty = &counterparty
		sc.transition(StateSecondAccountCreated)
		tx = tx.WithAccounts(account.ID, counterparty.ID)
	} else {
		tx = tx.WithAccounts(account.ID, account.ID)
	}

	created, err := sc.CreateTransaction(ctx, tx)
	if err != nil {
		return res, err
	}
	res.Transaction = created
	sc.transition(StateTransactionCreated)

	if err := sc.verify(ctx, account, created, tx.Amount); err != nil {
		return res, err
	}
	sc.transition(StateVerified)
	return res, nil
}

func (sc *ScenarioContext) createCounterparty(ctx context.Context) (domain.Account, error) {
	user, err := sc.CreateUser(ctx, sc.Gen.ValidUser())
	if err != nil {
		return domain.Account{}, err
	}
	rec, err := domain.NewAccountRecord(domain.AccountParams{
		AccountType: domain.AccountTypeChecking,
		OwnerID:     user.ID,
		Balance:     CounterpartyBalance,
		CreditLimit: CounterpartyCreditLimit,
	})
	if err != nil {
		return domain.Account{}, err
	}
	return sc.CreateAccount(ctx, rec)
}

// verify re-reads the account and transaction through their natural keys and
// the account history.
func (sc *ScenarioContext) verify(ctx context.Context, account domain.Account, tx domain.Transaction, amount decimal.Decimal) error {
	var byNumber domain.Account
	resp, err := sc.Do("get account by number", func() (*bankclient.Response, error) {
		return sc.Client.GetAccountByNumber(ctx, account.AccountNumber)
	}, Status(http.StatusOK), sc.Conforms(schema.Account), DecodeInto(&byNumber))
	if err != nil {
		return err
	}
	if err := Equal("account.id", account.ID, byNumber.ID, resp); err != nil {
		return err
	}

	var byRef domain.Transaction
	resp, err = sc.Do("get transaction by reference", func() (*bankclient.Response, error) {
		return sc.Client.GetTransactionByReference(ctx, tx.TransactionReference)
	}, Status(http.StatusOK), sc.Conforms(schema.Transaction), DecodeInto(&byRef))
	if err != nil {
		return err
	}
	if err := Equal("transaction.id", tx.ID, byRef.ID, resp); err != nil {
		return err
	}
	if err := Equal("transaction.transactionReference", tx.TransactionReference, byRef.TransactionReference, resp); err != nil {
		return err
	}
	if err := Equal("transaction.amount", amount, byRef.Amount, resp); err != nil {
		return err
	}

	var history []domain.Transaction
	resp, err = sc.Do("get account history", func() (*bankclient.Response, error) {
		return sc.Client.GetTransactionsByAccountID(ctx, account.ID)
	}, Status(http.StatusOK), sc.Conforms(schema.TransactionList), DecodeInto(&history))
	if err != nil {
		return err
	}
	for _, h := range history {
		if h.TransactionReference == tx.TransactionReference {
			return Equal("history.amount", amount, h.Amount, resp)
		}
	}
	return &domain.AssertionFailure{
		Field:    "history",
		Expected: tx.TransactionReference,
		Actual:   len(history),
		Message:  "transaction missing from account history",
		Exchange: resp.Context(),
	}
}

// CreateUser posts rec, expects 201 and a conforming body, and tracks the id.
// On a retried attempt the username gets a fresh suffix, since the user an
// earlier attempt created still holds the original one.
func (sc *ScenarioContext) CreateUser(ctx context.Context, rec domain.UserRecord) (domain.User, error) {
	if sc.Attempt > 1 && len(rec.UsernameValue()) >= 3 {
		fresh := sc.Gen.FreshUsername(rec.UsernameValue())
		sc.Logger.Info("reissuing username for retry", zap.String("username", rec.UsernameValue()), zap.String("fresh", fresh))
		rec.Username = domain.Ptr(fresh)
	}
	var user domain.User
	resp, err := sc.Do("create user", func() (*bankclient.Response, error) {
		return sc.Client.CreateUser(ctx, rec)
	}, Status(http.StatusCreated), sc.Conforms(schema.User), DecodeInto(&user))
	if err != nil {
		return user, err
	}
	sc.TrackUser(user.ID)
	if err := Equal("user.username", rec.UsernameValue(), user.Username, resp); err != nil {
		return user, err
	}
	return user, Equal("user.email", rec.Email, user.Email, resp)
}

// CreateAccount posts rec, expects 201 and a conforming body, and tracks the id.
func (sc *ScenarioContext) CreateAccount(ctx context.Context, rec domain.AccountRecord) (domain.Account, error) {
	var account domain.Account
	resp, err := sc.Do("create account", func() (*bankclient.Response, error) {
		return sc.Client.CreateAccount(ctx, rec)
	}, Status(http.StatusCreated), sc.Conforms(schema.Account), DecodeInto(&account))
	if err != nil {
		return account, err
	}
	sc.TrackAccount(account.ID)
	if err := Equal("account.accountType", rec.AccountType, account.AccountType, resp); err != nil {
		return account, err
	}
	return account, Equal("account.balance", rec.Balance, account.Balance, resp)
}

// CreateTransaction posts rec, expects 201 and a conforming body, and tracks the id.
func (sc *ScenarioContext) CreateTransaction(ctx context.Context, rec domain.TransactionRecord) (domain.Transaction, error) {
	var tx domain.Transaction
	resp, err := sc.Do("create transaction", func() (*bankclient.Response, error) {
		return sc.Client.CreateTransaction(ctx, rec)
	}, Status(http.StatusCreated), sc.Conforms(schema.Transaction), DecodeInto(&tx))
	if err != nil {
		return tx, err
	}
	sc.TrackTransaction(tx.ID)
	if err := Equal("transaction.transactionType", rec.TransactionType, tx.TransactionType, resp); err != nil {
		return tx, err
	}
	return tx, Equal("transaction.amount", rec.Amount, tx.Amount, resp)
}
