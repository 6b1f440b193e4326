/**
 * @description
 * Removes resources a harness run left on the banking API. Accounts go first
 * so the API never sees a user deleted while it still owns accounts.
 *
 * @notes
 * - The API exposes no transaction delete; transactions are reported as
 *   retained.
 * - A 404 means the resource is already gone and is not a failure.
 */
package cleanup

import (
	"context"
	"fmt"
	"net/http"

	"github.com/transfa/bank-api-harness/internal/report"
	"github.com/transfa/bank-api-harness/pkg/bankclient"
	"go.uber.org/zap"
)

// Deleter is the subset of the façade the cleaner needs.
type Deleter interface {
	DeleteAccount(ctx context.Context, id int64) (*bankclient.Response, error)
	DeleteUser(ctx context.Context, id int64) (*bankclient.Response, error)
}

// Summary counts cleanup outcomes.
type Summary struct {
	Deleted  int
	Missing  int
	Retained int
	Errors   []error
}

// Cleaner deletes created resources through the façade.
type Cleaner struct {
	client Deleter
	logger *zap.Logger
}

func New(client Deleter, logger *zap.Logger) *Cleaner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cleaner{client: client, logger: logger.Named("cleanup")}
}

// Run deletes every account, then every user in res. It keeps going past
// individual failures and returns them in the summary.
func (c *Cleaner) Run(ctx context.Context, res report.Resources) Summary {
	var s Summary
	for _, id := range unique(res.AccountIDs) {
		c.delete(ctx, &s, "account", id, c.client.DeleteAccount)
	}
	for _, id := range unique(res.UserIDs) {
		c.delete(ctx, &s, "user", id, c.client.DeleteUser)
	}
	s.Retained = len(unique(res.TransactionIDs))
	c.logger.Info("cleanup finished",
		zap.Int("deleted", s.Deleted),
		zap.Int("missing", s.Missing),
		zap.Int("retained_transactions", s.Retained),
		zap.Int("errors", len(s.Errors)),
	)
	return s
}

func (c *Cleaner) delete(ctx context.Context, s *Summary, kind string, id int64, del func(context.Context, int64) (*bankclient.Response, error)) {
	resp, err := del(ctx, id)
	if err != nil {
		c.logger.Warn("delete failed", zap.String("kind", kind), zap.Int64("id", id), zap.Error(err))
		s.Errors = append(s.Errors, fmt.Errorf("delete %s %d: %w", kind, id, err))
		return
	}
	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusOK:
		s.Deleted++
	case http.StatusNotFound:
		s.Missing++
	default:
		c.logger.Warn("unexpected delete status", zap.String("kind", kind), zap.Int64("id", id), zap.Int("status", resp.StatusCode))
		s.Errors = append(s.Errors, fmt.Errorf("delete %s %d: status %d: %s", kind, id, resp.StatusCode, resp.ResponseBody))
	}
}

func unique(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
