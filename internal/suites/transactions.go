package suites

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/transfa/bank-api-harness/internal/app"
	"github.com/transfa/bank-api-harness/internal/domain"
	"github.com/transfa/bank-api-harness/internal/generator"
	"github.com/transfa/bank-api-harness/internal/schema"
	"github.com/transfa/bank-api-harness/pkg/bankclient"
)

// fundedBalance covers any generated transaction amount.
var fundedBalance = decimal.NewFromInt(10 * generator.MaxAmount)

func validTransaction(env *app.Env) ([]domain.TransactionRecord, error) {
	return one(env.Gen.ValidTransaction()), nil
}

// createFunded creates a user owning a CHECKING account with balance.
func createFunded(ctx context.Context, sc *app.ScenarioContext, balance decimal.Decimal) (domain.Account, error) {
	user, err := sc.CreateUser(ctx, sc.Gen.ValidUser())
	if err != nil {
		return domain.Account{}, err
	}
	rec, err := domain.NewAccountRecord(domain.AccountParams{
		AccountType: domain.AccountTypeChecking,
		OwnerID:     user.ID,
		Balance:     balance,
	})
	if err != nil {
		return domain.Account{}, err
	}
	return sc.CreateAccount(ctx, rec)
}

// createRouted funds two accounts and posts rec between them.
func createRouted(ctx context.Context, sc *app.ScenarioContext, rec domain.TransactionRecord) (domain.Account, domain.Transaction, error) {
	from, err := createFunded(ctx, sc, fundedBalance)
	if err != nil {
		return from, domain.Transaction{}, err
	}
	to, err := createFunded(ctx, sc, fundedBalance)
	if err != nil {
		return from, domain.Transaction{}, err
	}
	tx, err := sc.CreateTransaction(ctx, rec.WithAccounts(from.ID, to.ID))
	return from, tx, err
}

func registerTransactions(s *app.Suite) {
	app.Register(s, app.Case[domain.TransactionRecord]{
		Name: "transactions/create valid transaction",
		Tags: []string{TagSmoke},
		Data: validTransaction,
		Run: func(ctx context.Context, sc *app.ScenarioContext, rec domain.TransactionRecord) error {
			_, tx, err := createRouted(ctx, sc, rec)
			if err != nil {
				return err
			}
			return app.True(tx.TransactionReference != "", "transaction.transactionReference", "reference not assigned", nil)
		},
	})

	app.Register(s, app.Case[generator.Named[domain.TransactionRecord]]{
		Name:  "transactions/reject invalid transaction",
		Tags:  []string{TagNegative},
		Data:  func(env *app.Env) ([]generator.Named[domain.TransactionRecord], error) { return env.Gen.InvalidTransactions(), nil },
		Label: namedLabel[domain.TransactionRecord],
		Run: func(ctx context.Context, sc *app.ScenarioContext, n generator.Named[domain.TransactionRecord]) error {
			_, err := sc.Do("create invalid transaction", func() (*bankclient.Response, error) {
				return sc.Client.CreateTransaction(ctx, n.Record)
			}, app.ClientError())
			return err
		},
	})

	app.Register(s, app.Case[domain.TransactionRecord]{
		Name: "transactions/get by id",
		Tags: []string{TagSmoke},
		Data: validTransaction,
		Run: func(ctx context.Context, sc *app.ScenarioContext, rec domain.TransactionRecord) error {
			_, created, err := createRouted(ctx, sc, rec)
			if err != nil {
				return err
			}
			var got domain.Transaction
			resp, err := sc.Do("get transaction by id", func() (*bankclient.Response, error) {
				return sc.Client.GetTransactionByID(ctx, created.ID)
			}, app.Status(http.StatusOK), sc.Conforms(schema.Transaction), app.DecodeInto(&got))
			if err != nil {
				return err
			}
			if err := app.Equal("transaction.id", created.ID, got.ID, resp); err != nil {
				return err
			}
			return app.Equal("transaction.amount", rec.Amount, got.Amount, resp)
		},
	})

	app.Register(s, app.Case[domain.TransactionRecord]{
		Name: "transactions/get by reference",
		Data: validTransaction,
		Run: func(ctx context.Context, sc *app.ScenarioContext, rec domain.TransactionRecord) error {
			_, created, err := createRouted(ctx, sc, rec)
			if err != nil {
				return err
			}
			var got domain.Transaction
			resp, err := sc.Do("get transaction by reference", func() (*bankclient.Response, error) {
				return sc.Client.GetTransactionByReference(ctx, created.TransactionReference)
			}, app.Status(http.StatusOK), sc.Conforms(schema.Transaction), app.DecodeInto(&got))
			if err != nil {
				return err
			}
			return app.Equal("transaction.id", created.ID, got.ID, resp)
		},
	})

	app.Register(s, app.Case[domain.TransactionRecord]{
		Name: "transactions/get by account id",
		Data: validTransaction,
		Run: func(ctx context.Context, sc *app.ScenarioContext, rec domain.TransactionRecord) error {
			from, created, err := createRouted(ctx, sc, rec)
			if err != nil {
				return err
			}
			var history []domain.Transaction
			resp, err := sc.Do("get transactions by account id", func() (*bankclient.Response, error) {
				return sc.Client.GetTransactionsByAccountID(ctx, from.ID)
			}, app.Status(http.StatusOK), sc.Conforms(schema.TransactionList), app.DecodeInto(&history))
			if err != nil {
				return err
			}
			for _, h := range history {
				if h.ID == created.ID {
					return nil
				}
			}
			return app.True(false, "transactions", "transaction missing from account history", resp)
		},
	})

	app.Register(s, app.Case[struct{}]{
		Name: "transactions/get all",
		Run: func(ctx context.Context, sc *app.ScenarioContext, _ struct{}) error {
			var txs []domain.Transaction
			_, err := sc.Do("get all transactions", func() (*bankclient.Response, error) {
				return sc.Client.GetAllTransactions(ctx)
			}, app.Status(http.StatusOK), sc.Conforms(schema.TransactionList), app.DecodeInto(&txs))
			return err
		},
	})

	app.Register(s, app.Case[struct{}]{
		Name: "transactions/get missing transaction",
		Tags: []string{TagNegative},
		Run: func(ctx context.Context, sc *app.ScenarioContext, _ struct{}) error {
			_, err := sc.Do("get missing transaction", func() (*bankclient.Response, error) {
				return sc.Client.GetTransactionByID(ctx, missingID)
			}, app.Status(http.StatusNotFound))
			return err
		},
	})

	app.Register(s, app.Case[struct{}]{
		Name: "transactions/reject insufficient funds",
		Tags: []string{TagNegative},
		Run: func(ctx context.Context, sc *app.ScenarioContext, _ struct{}) error {
			from, err := createFunded(ctx, sc, decimal.NewFromInt(50))
			if err != nil {
				return err
			}
			to, err := createFunded(ctx, sc, fundedBalance)
			if err != nil {
				return err
			}
			rec, err := domain.NewTransactionRecord(domain.TransactionParams{
				TransactionType: domain.TransactionTypeTransfer,
				Amount:          decimal.NewFromInt(100),
				Currency:        "USD",
				Description:     "Insufficient funds",
				FromAccountID:   from.ID,
				ToAccountID:     to.ID,
			})
			if err != nil {
				return err
			}
			_, err = sc.Do("create overdrawn transfer", func() (*bankclient.Response, error) {
				return sc.Client.CreateTransaction(ctx, rec)
			}, app.ClientError())
			return err
		},
	})
}
