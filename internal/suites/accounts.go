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

// ownedAccount is an account record paired with the user that will own it.
type ownedAccount struct {
	User    domain.UserRecord
	Account domain.AccountRecord
}

func validOwnedAccount(env *app.Env) ([]ownedAccount, error) {
	return one(ownedAccount{User: env.Gen.ValidUser(), Account: env.Gen.ValidAccount()}), nil
}

// createOwned creates the owner and then the account.
func createOwned(ctx context.Context, sc *app.ScenarioContext, in ownedAccount) (domain.User, domain.Account, error) {
	user, err := sc.CreateUser(ctx, in.User)
	if err != nil {
		return user, domain.Account{}, err
	}
	account, err := sc.CreateAccount(ctx, in.Account.WithOwner(user.ID))
	return user, account, err
}

func registerAccounts(s *app.Suite) {
	app.Register(s, app.Case[ownedAccount]{
		Name: "accounts/create valid account",
		Tags: []string{TagSmoke},
		Data: validOwnedAccount,
		Run: func(ctx context.Context, sc *app.ScenarioContext, in ownedAccount) error {
			user, account, err := createOwned(ctx, sc, in)
			if err != nil {
				return err
			}
			if err := app.True(account.UserID != nil, "account.userId", "created account has no owner", nil); err != nil {
				return err
			}
			if err := app.Equal("account.userId", user.ID, *account.UserID, nil); err != nil {
				return err
			}
			return app.True(account.AccountNumber != "", "account.accountNumber", "account number not assigned", nil)
		},
	})

	// Invalid accounts are created against a real owner so the only defect
	// is the one the record was built with.
	app.Register(s, app.Case[generator.Named[domain.AccountRecord]]{
		Name:  "accounts/reject invalid account",
		Tags:  []string{TagNegative},
		Data:  func(env *app.Env) ([]generator.Named[domain.AccountRecord], error) { return env.Gen.InvalidAccounts(), nil },
		Label: namedLabel[domain.AccountRecord],
		Run: func(ctx context.Context, sc *app.ScenarioContext, n generator.Named[domain.AccountRecord]) error {
			user, err := sc.CreateUser(ctx, sc.Gen.ValidUser())
			if err != nil {
				return err
			}
			_, err = sc.Do("create invalid account", func() (*bankclient.Response, error) {
				return sc.Client.CreateAccount(ctx, n.Record.WithOwner(user.ID))
			}, app.ClientError())
			return err
		},
	})

	app.Register(s, app.Case[ownedAccount]{
		Name: "accounts/get by id",
		Tags: []string{TagSmoke},
		Data: validOwnedAccount,
		Run: func(ctx context.Context, sc *app.ScenarioContext, in ownedAccount) error {
			_, created, err := createOwned(ctx, sc, in)
			if err != nil {
				return err
			}
			var got domain.Account
			resp, err := sc.Do("get account by id", func() (*bankclient.Response, error) {
				return sc.Client.GetAccountByID(ctx, created.ID)
			}, app.Status(http.StatusOK), sc.Conforms(schema.Account), app.DecodeInto(&got))
			if err != nil {
				return err
			}
			if err := app.Equal("account.id", created.ID, got.ID, resp); err != nil {
				return err
			}
			return app.Equal("account.accountNumber", created.AccountNumber, got.AccountNumber, resp)
		},
	})

	app.Register(s, app.Case[struct{}]{
		Name: "accounts/get missing account",
		Tags: []string{TagNegative},
		Run: func(ctx context.Context, sc *app.ScenarioContext, _ struct{}) error {
			_, err := sc.Do("get missing account", func() (*bankclient.Response, error) {
				return sc.Client.GetAccountByID(ctx, missingID)
			}, app.Status(http.StatusNotFound))
			return err
		},
	})

	app.Register(s, app.Case[struct{}]{
		Name: "accounts/get all",
		Run: func(ctx context.Context, sc *app.ScenarioContext, _ struct{}) error {
			var accounts []domain.Account
			_, err := sc.Do("get all accounts", func() (*bankclient.Response, error) {
				return sc.Client.GetAllAccounts(ctx)
			}, app.Status(http.StatusOK), sc.Conforms(schema.AccountList), app.DecodeInto(&accounts))
			return err
		},
	})

	app.Register(s, app.Case[ownedAccount]{
		Name: "accounts/get by user id",
		Data: validOwnedAccount,
		Run: func(ctx context.Context, sc *app.ScenarioContext, in ownedAccount) error {
			user, created, err := createOwned(ctx, sc, in)
			if err != nil {
				return err
			}
			var accounts []domain.Account
			resp, err := sc.Do("get accounts by user id", func() (*bankclient.Response, error) {
				return sc.Client.GetAccountsByUserID(ctx, user.ID)
			}, app.Status(http.StatusOK), sc.Conforms(schema.AccountList), app.DecodeInto(&accounts))
			if err != nil {
				return err
			}
			for _, a := range accounts {
				if err := app.True(a.UserID != nil && *a.UserID == user.ID, "account.userId", "listing holds a foreign account", resp); err != nil {
					return err
				}
				if a.ID == created.ID {
					return nil
				}
			}
			return app.True(false, "accounts", "created account missing from owner listing", resp)
		},
	})

	app.Register(s, app.Case[ownedAccount]{
		Name: "accounts/update",
		Data: validOwnedAccount,
		Run: func(ctx context.Context, sc *app.ScenarioContext, in ownedAccount) error {
			user, created, err := createOwned(ctx, sc, in)
			if err != nil {
				return err
			}
			update, err := domain.NewAccountRecord(domain.AccountParams{
				AccountType: domain.AccountTypeChecking,
				OwnerID:     user.ID,
				Balance:     created.Balance,
				CreditLimit: decimal.NewFromInt(1000),
			})
			if err != nil {
				return err
			}
			var got domain.Account
			resp, err := sc.Do("update account", func() (*bankclient.Response, error) {
				return sc.Client.UpdateAccount(ctx, created.ID, update)
			}, app.Status(http.StatusOK), sc.Conforms(schema.Account), app.DecodeInto(&got))
			if err != nil {
				return err
			}
			if err := app.Equal("account.accountType", update.AccountType, got.AccountType, resp); err != nil {
				return err
			}
			return app.Equal("account.creditLimit", update.CreditLimit, got.CreditLimit, resp)
		},
	})

	app.Register(s, app.Case[ownedAccount]{
		Name: "accounts/delete",
		Data: validOwnedAccount,
		Run: func(ctx context.Context, sc *app.ScenarioContext, in ownedAccount) error {
			_, created, err := createOwned(ctx, sc, in)
			if err != nil {
				return err
			}
			if _, err := sc.Do("delete account", func() (*bankclient.Response, error) {
				return sc.Client.DeleteAccount(ctx, created.ID)
			}, app.Status(http.StatusNoContent)); err != nil {
				return err
			}
			for _, step := range []string{"get deleted account", "get deleted account again"} {
				if _, err := sc.Do(step, func() (*bankclient.Response, error) {
					return sc.Client.GetAccountByID(ctx, created.ID)
				}, app.Status(http.StatusNotFound)); err != nil {
					return err
				}
			}
			return nil
		},
	})

	app.Register(s, app.Case[ownedAccount]{
		Name: "accounts/get by number",
		Data: validOwnedAccount,
		Run: func(ctx context.Context, sc *app.ScenarioContext, in ownedAccount) error {
			_, created, err := createOwned(ctx, sc, in)
			if err != nil {
				return err
			}
			var got domain.Account
			resp, err := sc.Do("get account by number", func() (*bankclient.Response, error) {
				return sc.Client.GetAccountByNumber(ctx, created.AccountNumber)
			}, app.Status(http.StatusOK), sc.Conforms(schema.Account), app.DecodeInto(&got))
			if err != nil {
				return err
			}
			if err := app.Equal("account.id", created.ID, got.ID, resp); err != nil {
				return err
			}
			return app.Equal("account.accountNumber", created.AccountNumber, got.AccountNumber, resp)
		},
	})
}
