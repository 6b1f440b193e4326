package suites

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/transfa/bank-api-harness/internal/app"
	"github.com/transfa/bank-api-harness/internal/config"
	"github.com/transfa/bank-api-harness/internal/report"
	"github.com/transfa/bank-api-harness/internal/sandbox"
	"github.com/xuri/excelize/v2"
)

func newSuite(t *testing.T, mutate func(*config.Settings)) *app.Suite {
	t.Helper()
	srv := httptest.NewServer(sandbox.New(sandbox.Options{BasePath: "/api", JWTSecret: "sandbox-secret"}).Router())
	t.Cleanup(srv.Close)

	settings := config.Settings{
		Env:                     "test",
		BaseURL:                 srv.URL,
		BasePath:                "/api",
		JWTSecret:               "sandbox-secret",
		RetryCount:              0,
		ParallelThreads:         3,
		RequestTimeout:          5 * time.Second,
		SchemaValidationEnabled: true,
		JSONFixtureDir:          "../../testdata",
		ExcelFixtureDir:         "../../testdata",
		GeneratorSeed:           7,
	}
	if mutate != nil {
		mutate(&settings)
	}
	env, err := app.NewEnv(settings, app.EnvOptions{})
	require.NoError(t, err)

	s := app.NewSuite(env, app.SuiteOptions{})
	RegisterAll(s)
	return s
}

func failures(rep *report.Report) []string {
	var out []string
	for _, res := range rep.Results {
		if res.Status != report.StatusPassed {
			out = append(out, res.Scenario+" "+res.Instance+": "+res.Error)
		}
	}
	return out
}

func TestRegisterAll_PassesAgainstSandbox(t *testing.T) {
	s := newSuite(t, nil)

	rep, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, failures(rep))

	summary := rep.Snapshot()
	assert.Equal(t, 39, summary.Total)
	assert.Equal(t, summary.Total, summary.Passed)

	created := rep.Created()
	assert.NotEmpty(t, created.UserIDs)
	assert.NotEmpty(t, created.AccountIDs)
	assert.NotEmpty(t, created.TransactionIDs)
}

func TestRegisterAll_Names(t *testing.T) {
	names := newSuite(t, nil).Names()
	assert.Contains(t, names, "users/reject invalid user")
	assert.Contains(t, names, "e2e/complete workflow")
	for _, name := range names {
		assert.NotContains(t, name, "workbook", "workbook scenarios need testdata.excel.enabled")
	}
}

func TestRegisterAll_NegativeInstancesAreLabelled(t *testing.T) {
	s := newSuite(t, nil)
	rep, err := s.Run(context.Background())
	require.NoError(t, err)

	var labels []string
	for _, res := range rep.Results {
		if res.Scenario == "users/reject invalid user" {
			labels = append(labels, res.Instance)
			require.NotEmpty(t, res.Exchanges)
			last := res.Exchanges[len(res.Exchanges)-1]
			assert.GreaterOrEqual(t, last.StatusCode, 400)
			assert.Less(t, last.StatusCode, 500)
		}
	}
	assert.Len(t, labels, 5)
	for _, l := range labels {
		assert.False(t, strings.HasPrefix(l, "["), "instances carry the rule they break")
	}
}

func writeSheet(t *testing.T, dir, name, sheet string, rows [][]any) {
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

func TestRegisterAll_Workbooks(t *testing.T) {
	dir := t.TempDir()
	writeSheet(t, dir, UserWorkbook, UserSheet, [][]any{
		{"username", "email", "password", "fullName", "phoneNumber"},
		{"sheet_dana", "dana@example.com", "Passw0rd!", "Dana Sheet", "+14155550103"},
	})
	writeSheet(t, dir, AccountWorkbook, AccountSheet, [][]any{
		{"accountType", "status", "balance", "creditLimit"},
		{"savings", "active", "1,500.00", 0},
		{"BUSINESS", "", 250, 100},
	})
	writeSheet(t, dir, TransactionWorkbook, TransactionSheet, [][]any{
		{"transactionType", "amount", "currency", "description"},
		{"DEPOSIT", 75, "usd", "Sheet deposit"},
		{"TRANSFER", "20.5", "", "Sheet transfer"},
	})

	s := newSuite(t, func(st *config.Settings) {
		st.ExcelFixturesEnabled = true
		st.ExcelFixtureDir = dir
	})
	assert.Contains(t, s.Names(), "accounts/create from workbook")

	rep, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, failures(rep))
	assert.Equal(t, 39+5, rep.Snapshot().Total)
}

func TestRegisterAll_MissingWorkbookFailsOnlyItsScenario(t *testing.T) {
	s := newSuite(t, func(st *config.Settings) {
		st.ExcelFixturesEnabled = true
		st.ExcelFixtureDir = t.TempDir()
	})

	rep, err := s.Run(context.Background())
	require.NoError(t, err)
	summary := rep.Snapshot()
	assert.Equal(t, 3, summary.Failed)
	assert.Equal(t, 39, summary.Passed)
	for _, res := range rep.Results {
		if strings.HasSuffix(res.Scenario, "from workbook") {
			assert.Equal(t, "FIXTURE_NOT_FOUND", string(res.ErrorKind))
			assert.Zero(t, res.Attempts)
		}
	}
}
