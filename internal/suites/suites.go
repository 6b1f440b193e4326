// Package suites is the built-in scenario catalogue for the banking API:
// users, accounts, transactions and end-to-end workflows.
package suites

import (
	"github.com/transfa/bank-api-harness/internal/app"
	"github.com/transfa/bank-api-harness/internal/generator"
)

// Tags used across the catalogue.
const (
	TagSmoke    = "smoke"
	TagNegative = "negative"
	TagFixture  = "fixture"
	TagE2E      = "e2e"
)

// Fixture resources read by the catalogue.
const (
	UserFixtureFile     = "user-test-data.json"
	UserFixtureKey      = "validUsers"
	E2EFixtureFile      = "e2e-test-data.yaml"
	UserWorkbook        = "user-test-data.xlsx"
	UserSheet           = "ValidUsers"
	AccountWorkbook     = "account-test-data.xlsx"
	AccountSheet        = "ValidAccounts"
	TransactionWorkbook = "transaction-test-data.xlsx"
	TransactionSheet    = "ValidTransactions"
)

// missingID is an id no banking API under test is expected to have issued.
const missingID int64 = 999999999

// RegisterAll registers the whole catalogue on s. Workbook-driven scenarios
// are only registered when testdata.excel.enabled is set.
func RegisterAll(s *app.Suite) {
	registerUsers(s)
	registerAccounts(s)
	registerTransactions(s)
	registerE2E(s)
	if s.Env().Settings.ExcelFixturesEnabled {
		registerWorkbooks(s)
	}
}

func one[T any](v T) []T {
	return []T{v}
}

func namedLabel[T any](_ int, n generator.Named[T]) string {
	return n.Name
}
