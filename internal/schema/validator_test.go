package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/transfa/bank-api-harness/internal/domain"
)

func TestValidate_EmbeddedSchemas(t *testing.T) {
	v := NewValidator(true, "", nil)

	tests := []struct {
		name    string
		schema  string
		body    string
		wantErr bool
	}{
		{name: "valid user", schema: User, body: `{"id":1,"username":"alice","email":"alice@example.com"}`},
		{name: "user leaks password", schema: User, body: `{"id":1,"username":"alice","email":"alice@example.com","password":"x"}`, wantErr: true},
		{name: "user missing id", schema: User, body: `{"username":"alice","email":"alice@example.com"}`, wantErr: true},
		{name: "valid account", schema: Account, body: `{"id":3,"accountNumber":"ACC0000000001","accountType":"SAVINGS","balance":1000.00,"userId":1}`},
		{name: "unknown account type", schema: Account, body: `{"id":3,"accountNumber":"ACC1","accountType":"CREDIT","balance":1}`, wantErr: true},
		{name: "valid transaction", schema: Transaction, body: `{"id":9,"transactionReference":"TXN1","transactionType":"DEPOSIT","amount":100,"status":"COMPLETED"}`},
		{name: "zero amount transaction", schema: Transaction, body: `{"id":9,"transactionReference":"TXN1","transactionType":"DEPOSIT","amount":0}`, wantErr: true},
		{name: "empty user list", schema: UserList, body: `[]`},
		{name: "account list", schema: AccountList, body: `[{"id":3,"accountNumber":"ACC1","accountType":"CHECKING","balance":5}]`},
		{name: "list given object", schema: TransactionList, body: `{"id":1}`, wantErr: true},
		{name: "not json", schema: User, body: `<html>`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := &domain.Exchange{Method: "GET", Endpoint: "/x", ResponseBody: tt.body}
			err := v.Validate(tt.schema, []byte(tt.body), ex)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var schemaErr *domain.SchemaValidationError
			require.ErrorAs(t, err, &schemaErr)
			assert.Equal(t, tt.schema, schemaErr.Schema)
			assert.Equal(t, tt.body, string(schemaErr.Payload))
			assert.NotEmpty(t, schemaErr.Problems)
			assert.Same(t, ex, domain.ExchangeOf(err))
		})
	}
}

func TestValidate_Disabled(t *testing.T) {
	v := NewValidator(false, "", nil)
	assert.False(t, v.Enabled())
	assert.NoError(t, v.Validate(User, []byte(`"anything"`), nil))
	assert.NoError(t, v.Validate("missing-schema.json", nil, nil))
}

func TestValidate_DirectoryOverride(t *testing.T) {
	dir := t.TempDir()
	strict := `{"type":"object","required":["id","username","email","fullName"]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, User), []byte(strict), 0o644))

	v := NewValidator(true, dir, nil)
	err := v.Validate(User, []byte(`{"id":1,"username":"alice","email":"a@example.com"}`), nil)
	assert.Equal(t, domain.KindSchema, domain.KindOf(err))

	assert.NoError(t, v.Validate(Account, []byte(`{"id":3,"accountNumber":"A","accountType":"SAVINGS","balance":1}`), nil),
		"schemas absent from the directory fall back to the embedded copy")
}

func TestValidate_UnknownSchema(t *testing.T) {
	v := NewValidator(true, "", nil)
	err := v.Validate("ledger-schema.json", []byte(`{}`), nil)
	assert.Equal(t, domain.KindFixture, domain.KindOf(err))
}

func TestValidate_BrokenOverrideIsFatal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, Transaction), []byte(`{"type":`), 0o644))

	v := NewValidator(true, dir, nil)
	err := v.Validate(Transaction, []byte(`{}`), nil)
	require.Error(t, err)
	assert.Equal(t, domain.KindConfig, domain.KindOf(err))
	assert.True(t, domain.IsFatal(err))

	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "schema.dir", cfgErr.Key)
}
