/**
 * @description
 * Synthetic data for positive and negative scenarios. Valid generators always
 * produce records that pass the domain constructors; invalid generators build
 * literals that break exactly one rule so the API under test must reject them.
 *
 * @dependencies
 * - github.com/brianvoe/gofakeit/v7: seeded random source and fake identities.
 *
 * @notes
 * - A Generator is safe for concurrent use; scenarios running on the worker
 *   pool share one instance.
 * - The same seed yields the same sequence of records when calls are made in
 *   the same order.
 */
package generator

import (
	"fmt"
	"strings"
	"sync"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"github.com/transfa/bank-api-harness/internal/domain"
)

// Value ranges for generated money fields.
const (
	MinBalance     = 100
	MaxBalance     = 10000
	MaxOverdraft   = 2000
	MinAmount      = 10
	MaxAmount      = 1000
	maxUsernameLen = 32
	suffixLen      = 6
)

// Named pairs a record with the rule it exercises.
type Named[T any] struct {
	Name   string
	Record T
}

// Generator produces domain records from a seedable random source.
type Generator struct {
	mu    sync.Mutex
	faker *gofakeit.Faker
}

// New returns a Generator. Seed 0 picks a random seed.
func New(seed uint64) *Generator {
	return &Generator{faker: gofakeit.New(seed)}
}

func (g *Generator) with(fn func(f *gofakeit.Faker)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(g.faker)
}

func must[T any](rec T, err error) T {
	if err != nil {
		panic(fmt.Sprintf("generator produced an invalid record: %v", err))
	}
	return rec
}

func (g *Generator) username(f *gofakeit.Faker) string {
	base := strings.ToLower(f.Username())
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, base)
	if len(base) < 3 {
		base = "user" + base
	}
	limit := maxUsernameLen - suffixLen - 1
	if len(base) > limit {
		base = base[:limit]
	}
	return base + "_" + strings.ToLower(f.LetterN(suffixLen))
}

// FreshUsername keeps the stem of username and gives it a new random suffix.
// A trailing generated suffix is replaced rather than stacked.
func (g *Generator) FreshUsername(username string) string {
	base := username
	if i := strings.LastIndex(base, "_"); i >= 3 && len(base)-i-1 == suffixLen {
		base = base[:i]
	}
	limit := maxUsernameLen - suffixLen - 1
	if len(base) > limit {
		base = base[:limit]
	}
	var suffix string
	g.with(func(f *gofakeit.Faker) { suffix = strings.ToLower(f.LetterN(suffixLen)) })
	return base + "_" + suffix
}

// ValidUser returns a user with a unique username, a well-formed email and a
// strong password.
func (g *Generator) ValidUser() domain.UserRecord {
	var p domain.UserParams
	g.with(func(f *gofakeit.Faker) {
		p = domain.UserParams{
			Username:    g.username(f),
			Email:       strings.ToLower(f.Email()),
			Password:    f.Password(true, true, true, false, false, 12),
			FullName:    f.Name(),
			PhoneNumber: "+1" + f.Phone(),
		}
	})
	return must(domain.NewUserRecord(p))
}

// Users returns n valid users.
func (g *Generator) Users(n int) []domain.UserRecord {
	users := make([]domain.UserRecord, 0, n)
	for i := 0; i < n; i++ {
		users = append(users, g.ValidUser())
	}
	return users
}

func (g *Generator) account(accountType string) domain.AccountRecord {
	var p domain.AccountParams
	g.with(func(f *gofakeit.Faker) {
		if accountType == "" {
			accountType = f.RandomString(domain.AccountTypes)
		}
		p = domain.AccountParams{
			AccountType: accountType,
			Status:      f.RandomString([]string{domain.AccountStatusActive, domain.AccountStatusInactive}),
			Balance:     decimal.NewFromInt(int64(f.IntRange(MinBalance, MaxBalance))),
			CreditLimit: decimal.NewFromInt(int64(f.IntRange(0, MaxOverdraft))),
		}
	})
	return must(domain.NewAccountRecord(p))
}

// ValidAccount returns an ownerless account of a random type.
func (g *Generator) ValidAccount() domain.AccountRecord { return g.account("") }

func (g *Generator) SavingsAccount() domain.AccountRecord {
	return g.account(domain.AccountTypeSavings)
}

func (g *Generator) CheckingAccount() domain.AccountRecord {
	return g.account(domain.AccountTypeChecking)
}

func (g *Generator) BusinessAccount() domain.AccountRecord {
	return g.account(domain.AccountTypeBusiness)
}

func (g *Generator) transaction(txType string) domain.TransactionRecord {
	var p domain.TransactionParams
	g.with(func(f *gofakeit.Faker) {
		if txType == "" {
			txType = f.RandomString(domain.TransactionTypes)
		}
		p = domain.TransactionParams{
			TransactionType: txType,
			Amount:          decimal.NewFromInt(int64(f.IntRange(MinAmount, MaxAmount))),
			Currency:        f.RandomString(domain.Currencies),
			Description:     fmt.Sprintf("%s %s payment", f.Adjective(), f.Noun()),
		}
	})
	return must(domain.NewTransactionRecord(p))
}

// ValidTransaction returns an unrouted transaction of a random type.
func (g *Generator) ValidTransaction() domain.TransactionRecord { return g.transaction("") }

func (g *Generator) Deposit() domain.TransactionRecord {
	return g.transaction(domain.TransactionTypeDeposit)
}

func (g *Generator) Withdrawal() domain.TransactionRecord {
	return g.transaction(domain.TransactionTypeWithdrawal)
}

func (g *Generator) Transfer() domain.TransactionRecord {
	return g.transaction(domain.TransactionTypeTransfer)
}

func (g *Generator) email() string {
	var email string
	g.with(func(f *gofakeit.Faker) { email = strings.ToLower(f.Email()) })
	return email
}

func (g *Generator) validUsername() string {
	var name string
	g.with(func(f *gofakeit.Faker) { name = g.username(f) })
	return name
}
