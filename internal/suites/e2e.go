package suites

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/transfa/bank-api-harness/internal/app"
	"github.com/transfa/bank-api-harness/internal/domain"
	"github.com/transfa/bank-api-harness/internal/fixture"
	"github.com/transfa/bank-api-harness/internal/schema"
	"github.com/transfa/bank-api-harness/pkg/bankclient"
)

type e2eRow struct {
	Label string
	Input app.WorkflowInput
}

// workflowRows returns the generated rows followed by the YAML fixture rows.
func workflowRows(env *app.Env) ([]e2eRow, error) {
	funded := env.Gen.CheckingAccount()
	funded.Balance = fundedBalance

	rows := []e2eRow{
		{Label: "generated deposit", Input: app.WorkflowInput{
			User:        env.Gen.ValidUser(),
			Account:     env.Gen.ValidAccount(),
			Transaction: env.Gen.Deposit(),
		}},
		{Label: "generated transfer", Input: app.WorkflowInput{
			User:        env.Gen.ValidUser(),
			Account:     funded,
			Transaction: env.Gen.Transfer(),
		}},
	}

	fixtures, err := fixtureRows(env)
	if err != nil {
		return nil, err
	}
	return append(rows, fixtures...), nil
}

// fixtureRows pairs the accounts and transactions sections of the YAML
// fixture by position.
func fixtureRows(env *app.Env) ([]e2eRow, error) {
	accounts, err := fixture.LoadRecords[domain.AccountRecord](env.Fixtures, E2EFixtureFile, "accounts")
	if err != nil {
		return nil, err
	}
	txs, err := fixture.LoadRecords[domain.TransactionRecord](env.Fixtures, E2EFixtureFile, "transactions")
	if err != nil {
		return nil, err
	}
	if len(accounts) != len(txs) {
		return nil, &domain.FixtureNotFoundError{
			Resource: E2EFixtureFile,
			Key:      "transactions",
			Err:      fmt.Errorf("%d accounts but %d transactions", len(accounts), len(txs)),
		}
	}

	rows := make([]e2eRow, 0, len(accounts))
	for i := range accounts {
		account, err := domain.NewAccountRecord(domain.AccountParams{
			AccountType: accounts[i].AccountType,
			Status:      accounts[i].Status,
			Balance:     accounts[i].Balance,
			CreditLimit: accounts[i].CreditLimit,
		})
		if err != nil {
			return nil, fmt.Errorf("%s accounts[%d]: %w", E2EFixtureFile, i, err)
		}
		tx, err := domain.NewTransactionRecord(domain.TransactionParams{
			TransactionType: txs[i].TransactionType,
			Amount:          txs[i].Amount,
			Currency:        txs[i].Currency,
			Description:     txs[i].Description,
		})
		if err != nil {
			return nil, fmt.Errorf("%s transactions[%d]: %w", E2EFixtureFile, i, err)
		}
		rows = append(rows, e2eRow{
			Label: fmt.Sprintf("fixture[%d] %s %s", i, account.AccountType, tx.TransactionType),
			Input: app.WorkflowInput{User: env.Gen.ValidUser(), Account: account, Transaction: tx},
		})
	}
	return rows, nil
}

func registerE2E(s *app.Suite) {
	app.Register(s, app.Case[e2eRow]{
		Name:  "e2e/complete workflow",
		Tags:  []string{TagE2E},
		Data:  workflowRows,
		Label: func(_ int, row e2eRow) string { return row.Label },
		Run: func(ctx context.Context, sc *app.ScenarioContext, row e2eRow) error {
			_, err := app.RunWorkflow(ctx, sc, row.Input)
			return err
		},
	})

	app.Register(s, app.Case[struct{}]{
		Name: "e2e/multiple accounts and transfer",
		Tags: []string{TagE2E},
		Run:  runMultipleAccounts,
	})

	app.Register(s, app.Case[struct{}]{
		Name: "e2e/account lifecycle",
		Tags: []string{TagE2E},
		Run:  runAccountLifecycle,
	})
}

func runMultipleAccounts(ctx context.Context, sc *app.ScenarioContext, _ struct{}) error {
	user, err := sc.CreateUser(ctx, sc.Gen.ValidUser())
	if err != nil {
		return err
	}
	savingsRec, err := domain.NewAccountRecord(domain.AccountParams{
		AccountType: domain.AccountTypeSavings,
		OwnerID:     user.ID,
		Balance:     decimal.RequireFromString("2000.00"),
	})
	if err != nil {
		return err
	}
	checkingRec, err := domain.NewAccountRecord(domain.AccountParams{
		AccountType: domain.AccountTypeChecking,
		OwnerID:     user.ID,
		Balance:     decimal.RequireFromString("1000.00"),
		CreditLimit: decimal.RequireFromString("500.00"),
	})
	if err != nil {
		return err
	}
	savings, err := sc.CreateAccount(ctx, savingsRec)
	if err != nil {
		return err
	}
	checking, err := sc.CreateAccount(ctx, checkingRec)
	if err != nil {
		return err
	}

	var owned []domain.Account
	resp, err := sc.Do("get accounts by user id", func() (*bankclient.Response, error) {
		return sc.Client.GetAccountsByUserID(ctx, user.ID)
	}, app.Status(http.StatusOK), sc.Conforms(schema.AccountList), app.DecodeInto(&owned))
	if err != nil {
		return err
	}
	if err := app.True(len(owned) >= 2, "accounts", "user should own at least two accounts", resp); err != nil {
		return err
	}

	transfer, err := domain.NewTransactionRecord(domain.TransactionParams{
		TransactionType: domain.TransactionTypeTransfer,
		Amount:          decimal.RequireFromString("300.00"),
		Currency:        "USD",
		Description:     "Transfer from savings to checking",
		FromAccountID:   savings.ID,
		ToAccountID:     checking.ID,
	})
	if err != nil {
		return err
	}
	if _, err := sc.CreateTransaction(ctx, transfer); err != nil {
		return err
	}

	for _, account := range []domain.Account{savings, checking} {
		var history []domain.Transaction
		resp, err := sc.Do("get account history", func() (*bankclient.Response, error) {
			return sc.Client.GetTransactionsByAccountID(ctx, account.ID)
		}, app.Status(http.StatusOK), sc.Conforms(schema.TransactionList), app.DecodeInto(&history))
		if err != nil {
			return err
		}
		if err := app.True(len(history) > 0, "history", fmt.Sprintf("account %d has no transactions", account.ID), resp); err != nil {
			return err
		}
	}
	return nil
}

func runAccountLifecycle(ctx context.Context, sc *app.ScenarioContext, _ struct{}) error {
	user, err := sc.CreateUser(ctx, sc.Gen.ValidUser())
	if err != nil {
		return err
	}
	rec := sc.Gen.ValidAccount().WithOwner(user.ID)
	account, err := sc.CreateAccount(ctx, rec)
	if err != nil {
		return err
	}

	const deposits = 3
	for i := 1; i <= deposits; i++ {
		deposit, err := domain.NewTransactionRecord(domain.TransactionParams{
			TransactionType: domain.TransactionTypeDeposit,
			Amount:          decimal.RequireFromString("100.00"),
			Currency:        "USD",
			Description:     fmt.Sprintf("Test deposit %d", i),
			FromAccountID:   account.ID,
			ToAccountID:     account.ID,
		})
		if err != nil {
			return err
		}
		if _, err := sc.CreateTransaction(ctx, deposit); err != nil {
			return err
		}
	}

	var history []domain.Transaction
	resp, err := sc.Do("get account history", func() (*bankclient.Response, error) {
		return sc.Client.GetTransactionsByAccountID(ctx, account.ID)
	}, app.Status(http.StatusOK), sc.Conforms(schema.TransactionList), app.DecodeInto(&history))
	if err != nil {
		return err
	}
	if err := app.True(len(history) >= deposits, "history", "account should hold every deposit", resp); err != nil {
		return err
	}

	update, err := domain.NewAccountRecord(domain.AccountParams{
		AccountType: domain.AccountTypeChecking,
		OwnerID:     user.ID,
		Balance:     rec.Balance,
		CreditLimit: decimal.RequireFromString("1000.00"),
	})
	if err != nil {
		return err
	}
	var updated domain.Account
	resp, err = sc.Do("update account", func() (*bankclient.Response, error) {
		return sc.Client.UpdateAccount(ctx, account.ID, update)
	}, app.Status(http.StatusOK), sc.Conforms(schema.Account), app.DecodeInto(&updated))
	if err != nil {
		return err
	}
	if err := app.Equal("account.accountType", domain.AccountTypeChecking, updated.AccountType, resp); err != nil {
		return err
	}

	_, err = sc.Do("get updated account", func() (*bankclient.Response, error) {
		return sc.Client.GetAccountByID(ctx, account.ID)
	}, app.Status(http.StatusOK), sc.Conforms(schema.Account))
	return err
}
