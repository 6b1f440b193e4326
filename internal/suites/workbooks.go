package suites

import (
	"context"
	"fmt"

	"github.com/transfa/bank-api-harness/internal/app"
	"github.com/transfa/bank-api-harness/internal/domain"
	"github.com/transfa/bank-api-harness/internal/fixture"
)

// sheetRecords maps every row of a workbook sheet through adapt.
func sheetRecords[T any](resource, sheet string, adapt func(fixture.Row) (T, error)) func(env *app.Env) ([]T, error) {
	return func(env *app.Env) ([]T, error) {
		rows, err := env.Fixtures.LoadTable(resource, sheet)
		if err != nil {
			return nil, err
		}
		out := make([]T, 0, len(rows))
		for i, row := range rows {
			rec, err := adapt(row)
			if err != nil {
				return nil, fmt.Errorf("%s/%s row %d: %w", resource, sheet, i+2, err)
			}
			out = append(out, rec)
		}
		return out, nil
	}
}

func registerWorkbooks(s *app.Suite) {
	app.Register(s, app.Case[domain.UserRecord]{
		Name: "users/create from workbook",
		Tags: []string{TagFixture},
		Data: sheetRecords(UserWorkbook, UserSheet, fixture.UserFromRow),
		Label: func(_ int, rec domain.UserRecord) string {
			return rec.UsernameValue()
		},
		Run: func(ctx context.Context, sc *app.ScenarioContext, rec domain.UserRecord) error {
			_, err := sc.CreateUser(ctx, rec)
			return err
		},
	})

	app.Register(s, app.Case[domain.AccountRecord]{
		Name: "accounts/create from workbook",
		Tags: []string{TagFixture},
		Data: sheetRecords(AccountWorkbook, AccountSheet, fixture.AccountFromRow),
		Run: func(ctx context.Context, sc *app.ScenarioContext, rec domain.AccountRecord) error {
			_, _, err := createOwned(ctx, sc, ownedAccount{User: sc.Gen.ValidUser(), Account: rec})
			return err
		},
	})

	app.Register(s, app.Case[domain.TransactionRecord]{
		Name: "transactions/create from workbook",
		Tags: []string{TagFixture},
		Data: sheetRecords(TransactionWorkbook, TransactionSheet, fixture.TransactionFromRow),
		Run: func(ctx context.Context, sc *app.ScenarioContext, rec domain.TransactionRecord) error {
			_, _, err := createRouted(ctx, sc, rec)
			return err
		},
	})
}
