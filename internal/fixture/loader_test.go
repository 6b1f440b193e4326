package fixture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/transfa/bank-api-harness/internal/domain"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, dir, name, sheet string, rows [][]any) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	_, err := f.NewSheet(sheet)
	require.NoError(t, err)
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, value))
		}
	}
	require.NoError(t, f.SaveAs(filepath.Join(dir, name)))
}

func TestLoadTable(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, dir, "account-test-data.xlsx", "ValidAccounts", [][]any{
		{"accountType", "status", "balance", "creditLimit"},
		{"SAVINGS", "ACTIVE", 1000, 0},
		{"checking", "", "2000.50"},
		{"", "", "", ""},
	})
	loader := NewLoader("", dir)

	rows, err := loader.LoadTable("account-test-data.xlsx", "ValidAccounts")
	require.NoError(t, err)
	require.Len(t, rows, 2, "blank rows are skipped")

	assert.Equal(t, "SAVINGS", rows[0].String("accountType"))
	n, ok := rows[0].Int("balance")
	assert.True(t, ok)
	assert.Equal(t, int64(1000), n)
	assert.Equal(t, "", rows[1].String("creditLimit"), "absent cells read as empty")

	acc, err := AccountFromRow(rows[1])
	require.NoError(t, err)
	assert.Equal(t, domain.AccountTypeChecking, acc.AccountType)
	assert.True(t, acc.Balance.Equal(decimal.RequireFromString("2000.50")))
	assert.True(t, acc.CreditLimit.IsZero())
}

func TestLoadTable_NotFound(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, dir, "users.xlsx", "ValidUsers", [][]any{{"username"}, {"alice"}})
	loader := NewLoader("", dir)

	_, err := loader.LoadTable("missing.xlsx", "ValidUsers")
	assert.Equal(t, domain.KindFixture, domain.KindOf(err))

	_, err = loader.LoadTable("users.xlsx", "NoSuchSheet")
	var notFound *domain.FixtureNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "NoSuchSheet", notFound.Sheet)
}

func TestLoadRecords_JSON(t *testing.T) {
	loader := NewLoader(filepath.Join("..", "..", "testdata"), "")

	users, err := LoadRecords[domain.UserRecord](loader, "user-test-data.json", "validUsers")
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "fixture_alice", users[0].UsernameValue())
	assert.Equal(t, "bob.fixture@example.com", users[1].Email)

	single, err := LoadRecords[domain.UserRecord](loader, "user-test-data.json", "singleUser")
	require.NoError(t, err)
	require.Len(t, single, 1)
	assert.Equal(t, "fixture_carol", single[0].UsernameValue())

	_, err = LoadRecords[domain.UserRecord](loader, "user-test-data.json", "missingSection")
	var notFound *domain.FixtureNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missingSection", notFound.Key)

	_, err = LoadRecords[domain.UserRecord](loader, "nope.json", "validUsers")
	assert.Equal(t, domain.KindFixture, domain.KindOf(err))
}

func TestLoadRecords_YAML(t *testing.T) {
	loader := NewLoader(filepath.Join("..", "..", "testdata"), "")

	accounts, err := LoadRecords[domain.AccountRecord](loader, "e2e-test-data.yaml", "accounts")
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, domain.AccountTypeSavings, accounts[0].AccountType)
	assert.True(t, accounts[0].Balance.Equal(decimal.NewFromInt(1000)))

	txs, err := LoadRecords[domain.TransactionRecord](loader, "e2e-test-data.yaml", "transactions")
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "EUR", txs[1].Currency)
	assert.True(t, txs[1].Amount.Equal(decimal.NewFromInt(300)))
}

func TestLoadRecords_MalformedDocument(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0o644))
	loader := NewLoader(dir, "")

	_, err := LoadRecords[domain.UserRecord](loader, "broken.json", "validUsers")
	require.Error(t, err)
	assert.Equal(t, domain.KindUnknown, domain.KindOf(err))
}

func TestRowCoercion(t *testing.T) {
	row := Row{
		"count":   "12.0",
		"frac":    "12.5",
		"amount":  "1,250.75",
		"flag":    "Yes",
		"bad":     "perhaps",
		"date":    "2025-09-27",
		"usDate":  "09-27-25",
		"garbage": "n/a",
	}

	n, ok := row.Int("count")
	assert.True(t, ok)
	assert.Equal(t, int64(12), n)
	_, ok = row.Int("frac")
	assert.False(t, ok)
	_, ok = row.Int("absent")
	assert.False(t, ok)

	d, ok := row.Decimal("amount")
	assert.True(t, ok)
	assert.True(t, d.Equal(decimal.RequireFromString("1250.75")))

	b, ok := row.Bool("flag")
	assert.True(t, ok)
	assert.True(t, b)
	_, ok = row.Bool("bad")
	assert.False(t, ok)

	date, ok := row.Date("date")
	assert.True(t, ok)
	assert.Equal(t, 27, date.Day())
	date, ok = row.Date("usDate")
	assert.True(t, ok)
	assert.Equal(t, 2025, date.Year())
	_, ok = row.Date("garbage")
	assert.False(t, ok)
	assert.Equal(t, "", row.String("absent"))
}

func TestRowAdapters(t *testing.T) {
	user, err := UserFromRow(Row{"username": "excel_user", "email": "excel@example.com", "password": "Passw0rd123"})
	require.NoError(t, err)
	assert.Equal(t, "excel_user", user.UsernameValue())

	_, err = UserFromRow(Row{"username": "ab", "email": "excel@example.com"})
	assert.ErrorIs(t, err, domain.ErrInvalidRecord)

	tx, err := TransactionFromRow(Row{"transactionType": "deposit", "amount": "100"})
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionTypeDeposit, tx.TransactionType)
	assert.Equal(t, "USD", tx.Currency)

	_, err = TransactionFromRow(Row{"transactionType": "DEPOSIT", "amount": "0"})
	assert.ErrorIs(t, err, domain.ErrInvalidRecord)
}
