/**
 * @description
 * In-memory state behind the sandbox API. It mirrors the observable contract of
 * the banking service closely enough for the harness to exercise itself:
 * server-assigned ids, unique usernames, account numbers and references, and
 * balance movement with an insufficient-funds rule.
 *
 * @notes
 * - All state lives behind one mutex; the sandbox is a test double, not a bank.
 */
package sandbox

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/transfa/bank-api-harness/internal/domain"
)

var (
	errNotFound          = errors.New("resource not found")
	errConflict          = errors.New("resource already exists")
	errInsufficientFunds = errors.New("insufficient funds")
)

type store struct {
	mu sync.Mutex

	nextUserID    int64
	nextAccountID int64
	nextTxID      int64

	users        map[int64]domain.User
	usernames    map[string]int64
	accounts     map[int64]domain.Account
	accountByNum map[string]int64
	txs          map[int64]domain.Transaction
	txByRef      map[string]int64

	now func() time.Time
}

func newStore() *store {
	return &store{
		users:        make(map[int64]domain.User),
		usernames:    make(map[string]int64),
		accounts:     make(map[int64]domain.Account),
		accountByNum: make(map[string]int64),
		txs:          make(map[int64]domain.Transaction),
		txByRef:      make(map[string]int64),
		now:          time.Now,
	}
}

func (s *store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func (s *store) createUser(rec domain.UserRecord) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := rec.UsernameValue()
	if _, taken := s.usernames[username]; taken {
		return domain.User{}, fmt.Errorf("username %q: %w", username, errConflict)
	}
	s.nextUserID++
	ts := s.timestamp()
	user := domain.User{
		ID:          s.nextUserID,
		Username:    username,
		Email:       rec.Email,
		FullName:    rec.FullName,
		PhoneNumber: rec.PhoneNumber,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	s.users[user.ID] = user
	s.usernames[username] = user.ID
	return user, nil
}

func (s *store) getUser(id int64) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return domain.User{}, errNotFound
	}
	return user, nil
}

func (s *store) getUserByUsername(username string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.usernames[username]
	if !ok {
		return domain.User{}, errNotFound
	}
	return s.users[id], nil
}

func (s *store) listUsers() []domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

func (s *store) updateUser(id int64, rec domain.UserRecord) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return domain.User{}, errNotFound
	}
	username := rec.UsernameValue()
	if owner, taken := s.usernames[username]; taken && owner != id {
		return domain.User{}, fmt.Errorf("username %q: %w", username, errConflict)
	}
	delete(s.usernames, user.Username)
	user.Username = username
	user.Email = rec.Email
	user.FullName = rec.FullName
	user.PhoneNumber = rec.PhoneNumber
	user.UpdatedAt = s.timestamp()
	s.users[id] = user
	s.usernames[username] = id
	return user, nil
}

func (s *store) deleteUser(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return errNotFound
	}
	delete(s.users, id)
	delete(s.usernames, user.Username)
	return nil
}

func (s *store) createAccount(rec domain.AccountRecord) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[*rec.OwnerID]; !ok {
		return domain.Account{}, fmt.Errorf("user %d: %w", *rec.OwnerID, errNotFound)
	}
	s.nextAccountID++
	status := rec.Status
	if status == "" {
		status = domain.AccountStatusActive
	}
	ts := s.timestamp()
	acc := domain.Account{
		ID:             s.nextAccountID,
		AccountNumber:  fmt.Sprintf("ACC%010d", s.nextAccountID),
		AccountType:    rec.AccountType,
		Balance:        rec.Balance,
		Currency:       "USD",
		UserID:         domain.Ptr(*rec.OwnerID),
		Active:         domain.Ptr(status == domain.AccountStatusActive),
		OverdraftLimit: rec.CreditLimit,
		CreditLimit:    rec.CreditLimit,
		MinimumBalance: decimal.Zero,
		AccountStatus:  status,
		Frozen:         domain.Ptr(false),
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}
	s.accounts[acc.ID] = acc
	s.accountByNum[acc.AccountNumber] = acc.ID
	return acc, nil
}

func (s *store) getAccount(id int64) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return domain.Account{}, errNotFound
	}
	return acc, nil
}

func (s *store) getAccountByNumber(number string) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.accountByNum[number]
	if !ok {
		return domain.Account{}, errNotFound
	}
	return s.accounts[id], nil
}

func (s *store) listAccounts(filter func(domain.Account) bool) []domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	accounts := make([]domain.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		if filter == nil || filter(a) {
			accounts = append(accounts, a)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts
}

func (s *store) userExists(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[id]
	return ok
}

func (s *store) updateAccount(id int64, rec domain.AccountRecord) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return domain.Account{}, errNotFound
	}
	if rec.OwnerID != nil {
		if _, ok := s.users[*rec.OwnerID]; !ok {
			return domain.Account{}, fmt.Errorf("user %d: %w", *rec.OwnerID, errNotFound)
		}
		acc.UserID = domain.Ptr(*rec.OwnerID)
	}
	acc.AccountType = rec.AccountType
	if rec.Status != "" {
		acc.AccountStatus = rec.Status
		acc.Active = domain.Ptr(rec.Status == domain.AccountStatusActive)
	}
	acc.Balance = rec.Balance
	acc.CreditLimit = rec.CreditLimit
	acc.OverdraftLimit = rec.CreditLimit
	acc.UpdatedAt = s.timestamp()
	s.accounts[id] = acc
	return acc, nil
}

func (s *store) deleteAccount(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return errNotFound
	}
	delete(s.accounts, id)
	delete(s.accountByNum, acc.AccountNumber)
	return nil
}

// createTransaction moves money and records the transaction. Deposits credit
// the destination (or source when only one id is given), withdrawals debit the
// source (or destination), transfers do both.
func (s *store) createTransaction(rec domain.TransactionRecord) (domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	debitID, creditID := route(rec)

	var debit, credit domain.Account
	if debitID != nil {
		acc, ok := s.accounts[*debitID]
		if !ok {
			return domain.Transaction{}, fmt.Errorf("account %d: %w", *debitID, errNotFound)
		}
		if !acc.HasSufficientBalance(rec.Amount) {
			return domain.Transaction{}, fmt.Errorf("account %d: %w", *debitID, errInsufficientFunds)
		}
		debit = acc
	}
	if creditID != nil {
		acc, ok := s.accounts[*creditID]
		if !ok {
			return domain.Transaction{}, fmt.Errorf("account %d: %w", *creditID, errNotFound)
		}
		credit = acc
	}

	ts := s.timestamp()
	if debitID != nil {
		debit.Balance = debit.Balance.Sub(rec.Amount)
		debit.UpdatedAt = ts
		s.accounts[debit.ID] = debit
	}
	if creditID != nil {
		if debitID != nil && *creditID == *debitID {
			credit = s.accounts[*creditID]
		}
		credit.Balance = credit.Balance.Add(rec.Amount)
		credit.UpdatedAt = ts
		s.accounts[credit.ID] = credit
	}

	currency := rec.Currency
	if currency == "" {
		currency = "USD"
	}
	s.nextTxID++
	tx := domain.Transaction{
		ID:                   s.nextTxID,
		TransactionReference: fmt.Sprintf("TXN%012d", s.nextTxID),
		TransactionType:      rec.TransactionType,
		Amount:               rec.Amount,
		Currency:             currency,
		Description:          rec.Description,
		FromAccountID:        rec.FromAccountID,
		ToAccountID:          rec.ToAccountID,
		Status:               domain.TransactionStatusCompleted,
		Fee:                  decimal.Zero,
		Cleared:              domain.Ptr(true),
		CreatedAt:            ts,
		CompletedAt:          ts,
	}
	s.txs[tx.ID] = tx
	s.txByRef[tx.TransactionReference] = tx.ID
	return tx, nil
}

func route(rec domain.TransactionRecord) (debitID, creditID *int64) {
	switch rec.TransactionType {
	case domain.TransactionTypeDeposit:
		if rec.ToAccountID != nil {
			return nil, rec.ToAccountID
		}
		return nil, rec.FromAccountID
	case domain.TransactionTypeWithdrawal:
		if rec.FromAccountID != nil {
			return rec.FromAccountID, nil
		}
		return rec.ToAccountID, nil
	default:
		return rec.FromAccountID, rec.ToAccountID
	}
}

func (s *store) getTransaction(id int64) (domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txs[id]
	if !ok {
		return domain.Transaction{}, errNotFound
	}
	return tx, nil
}

func (s *store) getTransactionByReference(ref string) (domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.txByRef[ref]
	if !ok {
		return domain.Transaction{}, errNotFound
	}
	return s.txs[id], nil
}

func (s *store) listTransactions(accountID *int64) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if accountID != nil {
		if _, ok := s.accounts[*accountID]; !ok {
			return nil, errNotFound
		}
	}
	txs := make([]domain.Transaction, 0)
	for _, tx := range s.txs {
		if accountID == nil || touches(tx, *accountID) {
			txs = append(txs, tx)
		}
	}
	sort.Slice(txs, func(i, j int) bool { return txs[i].ID < txs[j].ID })
	return txs, nil
}

func touches(tx domain.Transaction, accountID int64) bool {
	return (tx.FromAccountID != nil && *tx.FromAccountID == accountID) ||
		(tx.ToAccountID != nil && *tx.ToAccountID == accountID)
}
