package bankclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/transfa/bank-api-harness/internal/domain"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingObserver struct {
	mu     sync.Mutex
	routes []string
	status []int
}

func (o *recordingObserver) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.routes = append(o.routes, method+" "+route)
	o.status = append(o.status, status)
}

func TestClient_SendsHeadersAndBody(t *testing.T) {
	var gotHeader http.Header
	var gotBody string
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Clone()
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":42,"transactionReference":"TXN1","transactionType":"DEPOSIT","amount":100}`))
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	c := NewClient(Options{BaseURL: srv.URL + "/api/", Token: "secret-token", Observer: obs})

	resp, err := c.CreateTransaction(context.Background(), domain.TransactionRecord{
		TransactionType: domain.TransactionTypeDeposit,
		Amount:          decimal.NewFromInt(100),
		ToAccountID:     domain.Ptr(int64(7)),
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/transactions", gotPath)
	assert.Equal(t, "application/json", gotHeader.Get("Content-Type"))
	assert.Equal(t, "application/json", gotHeader.Get("Accept"))
	assert.Equal(t, "Bearer secret-token", gotHeader.Get("Authorization"))
	assert.JSONEq(t, `{"transactionType":"DEPOSIT","amount":100,"toAccountId":7}`, gotBody)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, http.MethodPost, resp.Method)
	assert.Equal(t, srv.URL+"/api/transactions", resp.Endpoint)
	assert.Equal(t, gotBody, resp.RequestBody)
	assert.Positive(t, resp.Elapsed)

	var tx domain.Transaction
	require.NoError(t, resp.Decode(&tx))
	assert.Equal(t, int64(42), tx.ID)

	assert.Equal(t, []string{"POST /transactions"}, obs.routes)
	assert.Equal(t, []int{http.StatusCreated}, obs.status)
}

func TestClient_NonSuccessStatusIsData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Not Found"}`))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL})
	resp, err := c.GetUserByID(context.Background(), 99)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Empty(t, resp.RequestBody)
	assert.JSONEq(t, `{"error":"Not Found"}`, resp.ResponseBody)
}

func TestClient_PathEscaping(t *testing.T) {
	var gotRawPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRawPath = r.URL.EscapedPath()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL})
	_, err := c.GetUserByUsername(context.Background(), "john doe/x")
	require.NoError(t, err)
	assert.Equal(t, "/users/username/john%20doe%2Fx", gotRawPath)
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := c.GetAllAccounts(context.Background())

	var timeoutErr *domain.RequestTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, http.MethodGet, timeoutErr.Method)
	assert.Equal(t, 50*time.Millisecond, timeoutErr.Timeout)
	assert.Empty(t, timeoutErr.RequestBody, "GET has no body")
	assert.Equal(t, domain.KindTimeout, domain.KindOf(err))
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(Options{BaseURL: url, Timeout: time.Second})
	_, err := c.DeleteAccount(context.Background(), 1)
	assert.Equal(t, domain.KindTransport, domain.KindOf(err))

	ex := domain.ExchangeOf(err)
	require.NotNil(t, ex)
	assert.Equal(t, http.MethodDelete, ex.Method)
	assert.Equal(t, url+"/accounts/1", ex.Endpoint)
}

func TestClient_TransportErrorCarriesRequestBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(Options{BaseURL: url, Timeout: time.Second})
	_, err := c.CreateUser(context.Background(), domain.UserRecord{Username: domain.Ptr("jdoe"), Email: "jdoe@example.com"})
	require.Error(t, err)

	ex := domain.ExchangeOf(err)
	require.NotNil(t, ex)
	assert.Equal(t, http.MethodPost, ex.Method)
	assert.JSONEq(t, `{"username":"jdoe","email":"jdoe@example.com"}`, ex.RequestBody)
}

func TestClient_TracingToggle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	core, logs := observer.New(zap.InfoLevel)
	traced := NewClient(Options{BaseURL: srv.URL, Trace: true, Logger: zap.New(core)})
	_, err := traced.GetAllTransactions(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "sending request", logs.All()[0].Message)
	assert.Equal(t, "received response", logs.All()[1].Message)

	core, logs = observer.New(zap.InfoLevel)
	silent := NewClient(Options{BaseURL: srv.URL, Trace: false, Logger: zap.New(core)})
	_, err = silent.GetAllTransactions(context.Background())
	require.NoError(t, err)
	assert.Zero(t, logs.Len())
}

func TestMintToken(t *testing.T) {
	token, err := MintToken("shh", "harness-run", time.Minute)
	require.NoError(t, err)

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) { return []byte("shh"), nil })
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, "harness-run", claims.Subject)
	assert.Equal(t, TokenIssuer, claims.Issuer)

	_, err = MintToken("  ", "x", time.Minute)
	assert.Error(t, err)
}
