package bankclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/transfa/bank-api-harness/internal/domain"
)

// Users

func (c *Client) CreateUser(ctx context.Context, user domain.UserRecord) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/users", "/users", user)
}

func (c *Client) GetUserByID(ctx context.Context, id int64) (*Response, error) {
	return c.do(ctx, http.MethodGet, "/users/{id}", fmt.Sprintf("/users/%d", id), nil)
}

func (c *Client) GetAllUsers(ctx context.Context) (*Response, error) {
	return c.do(ctx, http.MethodGet, "/users", "/users", nil)
}

func (c *Client) GetUserByUsername(ctx context.Context, username string) (*Response, error) {
	return c.do(ctx, http.MethodGet, "/users/username/{username}", "/users/username/"+url.PathEscape(username), nil)
}

func (c *Client) UpdateUser(ctx context.Context, id int64, user domain.UserRecord) (*Response, error) {
	return c.do(ctx, http.MethodPut, "/users/{id}", fmt.Sprintf("/users/%d", id), user)
}

func (c *Client) DeleteUser(ctx context.Context, id int64) (*Response, error) {
	return c.do(ctx, http.MethodDelete, "/users/{id}", fmt.Sprintf("/users/%d", id), nil)
}

// Accounts

func (c *Client) CreateAccount(ctx context.Context, account domain.AccountRecord) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/accounts", "/accounts", account)
}

func (c *Client) GetAccountByID(ctx context.Context, id int64) (*Response, error) {
	return c.do(ctx, http.MethodGet, "/accounts/{id}", fmt.Sprintf("/accounts/%d", id), nil)
}

func (c *Client) GetAllAccounts(ctx context.Context) (*Response, error) {
	return c.do(ctx, http.MethodGet, "/accounts", "/accounts", nil)
}

func (c *Client) GetAccountsByUserID(ctx context.Context, userID int64) (*Response, error) {
	return c.do(ctx, http.MethodGet, "/accounts/user/{userId}", fmt.Sprintf("/accounts/user/%d", userID), nil)
}

func (c *Client) GetAccountByNumber(ctx context.Context, number string) (*Response, error) {
	return c.do(ctx, http.MethodGet, "/accounts/number/{number}", "/accounts/number/"+url.PathEscape(number), nil)
}

func (c *Client) UpdateAccount(ctx context.Context, id int64, account domain.AccountRecord) (*Response, error) {
	return c.do(ctx, http.MethodPut, "/accounts/{id}", fmt.Sprintf("/accounts/%d", id), account)
}

func (c *Client) DeleteAccount(ctx context.Context, id int64) (*Response, error) {
	return c.do(ctx, http.MethodDelete, "/accounts/{id}", fmt.Sprintf("/accounts/%d", id), nil)
}

// Transactions

func (c *Client) CreateTransaction(ctx context.Context, tx domain.TransactionRecord) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/transactions", "/transactions", tx)
}

func (c *Client) GetTransactionByID(ctx context.Context, id int64) (*Response, error) {
	return c.do(ctx, http.MethodGet, "/transactions/{id}", fmt.Sprintf("/transactions/%d", id), nil)
}

func (c *Client) GetAllTransactions(ctx context.Context) (*Response, error) {
	return c.do(ctx, http.MethodGet, "/transactions", "/transactions", nil)
}

// GetTransactionsByAccountID returns the account's history as source or destination.
func (c *Client) GetTransactionsByAccountID(ctx context.Context, accountID int64) (*Response, error) {
	return c.do(ctx, http.MethodGet, "/transactions/account/{accountId}", fmt.Sprintf("/transactions/account/%d", accountID), nil)
}

func (c *Client) GetTransactionByReference(ctx context.Context, reference string) (*Response, error) {
	return c.do(ctx, http.MethodGet, "/transactions/reference/{ref}", "/transactions/reference/"+url.PathEscape(reference), nil)
}
