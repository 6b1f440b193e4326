package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAccountAvailableBalance(t *testing.T) {
	tests := []struct {
		name      string
		balance   string
		overdraft string
		want      string
	}{
		{name: "no overdraft", balance: "100", overdraft: "0", want: "100"},
		{name: "with overdraft", balance: "100", overdraft: "50", want: "150"},
		{name: "negative overdraft ignored", balance: "100", overdraft: "-20", want: "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := Account{Balance: dec(tt.balance), OverdraftLimit: dec(tt.overdraft)}
			assert.True(t, acc.AvailableBalance().Equal(dec(tt.want)), "got %s", acc.AvailableBalance())
		})
	}
}

func TestAccountHasSufficientBalance(t *testing.T) {
	acc := Account{Balance: dec("100"), OverdraftLimit: dec("50")}

	assert.True(t, acc.HasSufficientBalance(dec("150")))
	assert.False(t, acc.HasSufficientBalance(dec("150.01")))
	assert.False(t, acc.HasSufficientBalance(dec("0")))
	assert.False(t, acc.HasSufficientBalance(dec("-5")))
}

func TestAccountFlags(t *testing.T) {
	active := Account{Active: Ptr(true), AccountStatus: AccountStatusActive, AccountType: AccountTypePremiumSavings}
	assert.True(t, active.IsActive())
	assert.True(t, active.IsSavings())
	assert.Equal(t, "Premium Savings Account", active.TypeDisplayName())

	closed := Account{Active: Ptr(true), AccountStatus: AccountStatusClosed}
	assert.False(t, closed.IsActive())
	assert.False(t, Account{}.IsFrozen())
	assert.False(t, Account{Balance: dec("10")}.IsMinimumBalanceViolated())
	assert.True(t, Account{Balance: dec("10"), MinimumBalance: dec("20")}.IsMinimumBalanceViolated())
}

func TestTransactionPredicates(t *testing.T) {
	from := Ptr(int64(1))
	to := Ptr(int64(2))

	transfer := Transaction{TransactionType: TransactionTypeTransfer, FromAccountID: from, ToAccountID: to}
	assert.True(t, transfer.IsTransfer())
	assert.True(t, transfer.IsDebit())
	assert.True(t, transfer.IsCredit())

	deposit := Transaction{TransactionType: TransactionTypeDeposit}
	assert.True(t, deposit.IsCredit())
	assert.False(t, deposit.IsDebit())

	withdrawal := Transaction{TransactionType: TransactionTypeWithdrawal, Amount: dec("100"), Fee: dec("2.5")}
	assert.True(t, withdrawal.IsDebit())
	assert.True(t, withdrawal.TotalAmount().Equal(dec("102.5")))
	assert.True(t, Transaction{Amount: dec("100")}.TotalAmount().Equal(dec("100")))

	assert.True(t, Transaction{Cleared: Ptr(true)}.IsSuccessful())
	assert.Equal(t, "Processing", Transaction{Status: TransactionStatusProcessing}.StatusDisplayName())
}

func TestNewUserRecordValidation(t *testing.T) {
	_, err := NewUserRecord(UserParams{Username: "alice", Email: "alice@example.com", Password: "s3cretpass"})
	require.NoError(t, err)

	cases := []UserParams{
		{Username: "ab", Email: "ab@example.com"},
		{Username: "valid_user", Email: "not-an-email"},
		{Username: "", Email: "x@example.com"},
		{Username: "valid_user", Email: "x@example.com", Password: "short"},
	}
	for i, p := range cases {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			_, err := NewUserRecord(p)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRecord))
		})
	}
}

func TestNewAccountRecordValidation(t *testing.T) {
	rec, err := NewAccountRecord(AccountParams{AccountType: AccountTypeSavings, Balance: dec("100")})
	require.NoError(t, err)
	assert.Nil(t, rec.OwnerID)
	assert.Equal(t, int64(7), *rec.WithOwner(7).OwnerID)

	_, err = NewAccountRecord(AccountParams{AccountType: ""})
	assert.ErrorIs(t, err, ErrInvalidRecord)

	_, err = NewAccountRecord(AccountParams{AccountType: "CREDIT"})
	assert.ErrorIs(t, err, ErrInvalidRecord)

	_, err = NewAccountRecord(AccountParams{AccountType: AccountTypeChecking, Balance: dec("-1")})
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestNewTransactionRecordValidation(t *testing.T) {
	_, err := NewTransactionRecord(TransactionParams{TransactionType: TransactionTypeDeposit, Amount: dec("10"), Currency: "USD"})
	require.NoError(t, err)

	_, err = NewTransactionRecord(TransactionParams{TransactionType: TransactionTypeDeposit, Amount: dec("0"), Currency: "USD"})
	assert.ErrorIs(t, err, ErrInvalidRecord)

	_, err = NewTransactionRecord(TransactionParams{TransactionType: TransactionTypeTransfer, Amount: dec("5"), Currency: "USD", FromAccountID: 1})
	assert.ErrorIs(t, err, ErrInvalidRecord)

	_, err = NewTransactionRecord(TransactionParams{TransactionType: TransactionTypeDeposit, Amount: dec("5"), Currency: "XXQ"})
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestRecordsMarshalMoneyAsNumbers(t *testing.T) {
	body, err := json.Marshal(TransactionRecord{TransactionType: TransactionTypeDeposit, Amount: dec("100.00")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"transactionType":"DEPOSIT","amount":100}`, string(body))

	body, err = json.Marshal(UserRecord{Email: "x@example.com"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":null,"email":"x@example.com"}`, string(body))
}

func TestKindOf(t *testing.T) {
	ex := &Exchange{Method: "GET", Endpoint: "/users/1", StatusCode: 500}
	tests := []struct {
		err  error
		want Kind
	}{
		{nil, KindNone},
		{&ConfigError{Key: "base.url", Reason: "missing", Err: ErrConfigNotFound}, KindConfig},
		{fmt.Errorf("load: %w", &FixtureNotFoundError{Resource: "users.json"}), KindFixture},
		{&SchemaValidationError{Schema: "user-schema.json"}, KindSchema},
		{&AssertionFailure{Field: "status", Exchange: ex}, KindAssertion},
		{&RequestTimeoutError{Method: "GET", Endpoint: "/x"}, KindTimeout},
		{&TransportError{Method: "GET", Endpoint: "/x"}, KindTransport},
		{errors.New("boom"), KindUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.err))
	}

	assert.True(t, IsFatal(&ConfigError{Key: "k"}))
	assert.False(t, IsFatal(&TransportError{}))
	assert.Same(t, ex, ExchangeOf(fmt.Errorf("step: %w", &AssertionFailure{Exchange: ex})))
}

func TestExchangeOf_NetworkErrorsKeepRequestBody(t *testing.T) {
	body := `{"amount":100}`
	timeout := ExchangeOf(&RequestTimeoutError{Method: "POST", Endpoint: "/transactions", RequestBody: body, Timeout: time.Second})
	require.NotNil(t, timeout)
	assert.Equal(t, body, timeout.RequestBody)
	assert.Equal(t, time.Second, timeout.Elapsed)

	transport := ExchangeOf(fmt.Errorf("attempt: %w", &TransportError{Method: "POST", Endpoint: "/users", RequestBody: body}))
	require.NotNil(t, transport)
	assert.Equal(t, body, transport.RequestBody)
	assert.Equal(t, "/users", transport.Endpoint)
}
