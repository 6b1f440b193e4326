/**
 * @description
 * Structured results of a harness run. Every failed scenario carries its error
 * kind, expected/actual values and the full request/response exchange that
 * produced the failure, so a report is actionable without re-running.
 *
 * @dependencies
 * - github.com/google/uuid: run and result identifiers.
 */
package report

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/transfa/bank-api-harness/internal/domain"
)

// Status is the final outcome of a scenario instance.
type Status string

const (
	StatusPassed  Status = "PASSED"
	StatusFailed  Status = "FAILED"
	StatusSkipped Status = "SKIPPED"
)

// Step is one logged action inside a scenario attempt.
type Step struct {
	Name    string        `json:"name"`
	State   string        `json:"state,omitempty"`
	Elapsed time.Duration `json:"elapsed_ns"`
	Error   string        `json:"error,omitempty"`
}

// Resources lists what a scenario created on the API. Nothing is rolled back;
// the cleanup tool consumes this.
type Resources struct {
	UserIDs        []int64 `json:"userIds,omitempty"`
	AccountIDs     []int64 `json:"accountIds,omitempty"`
	TransactionIDs []int64 `json:"transactionIds,omitempty"`
}

// Empty reports whether nothing was created.
func (r Resources) Empty() bool {
	return len(r.UserIDs) == 0 && len(r.AccountIDs) == 0 && len(r.TransactionIDs) == 0
}

// Result is the outcome of one scenario instance after all attempts.
type Result struct {
	ID        string            `json:"id"`
	Seq       int               `json:"seq"`
	Scenario  string            `json:"scenario"`
	Instance  string            `json:"instance,omitempty"`
	Tags      []string          `json:"tags,omitempty"`
	Status    Status            `json:"status"`
	Attempts  int               `json:"attempts"`
	Started   time.Time         `json:"started"`
	Finished  time.Time         `json:"finished"`
	Duration  time.Duration     `json:"duration_ns"`
	ErrorKind domain.Kind       `json:"errorKind,omitempty"`
	Error     string            `json:"error,omitempty"`
	Expected  string            `json:"expected,omitempty"`
	Actual    string            `json:"actual,omitempty"`
	Failure   *domain.Exchange  `json:"failure,omitempty"`
	Steps     []Step            `json:"steps,omitempty"`
	Exchanges []domain.Exchange `json:"exchanges,omitempty"`
	Created   Resources         `json:"created"`
}

// NewResultID returns a fresh result identifier.
func NewResultID() string {
	return uuid.NewString()
}

// Summary counts results by status.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Report is the outcome of one run. Add is safe for concurrent use.
type Report struct {
	RunID    string        `json:"runId"`
	Env      string        `json:"env"`
	Target   string        `json:"target"`
	Started  time.Time     `json:"started"`
	Finished time.Time     `json:"finished"`
	Duration time.Duration `json:"duration_ns"`
	Summary  Summary       `json:"summary"`
	Results  []Result      `json:"results"`

	mu sync.Mutex
}

// New starts a report for env against target.
func New(env, target string) *Report {
	return &Report{
		RunID:   uuid.NewString(),
		Env:     env,
		Target:  target,
		Started: time.Now().UTC(),
		Results: []Result{},
	}
}

// Add appends res and updates the summary.
func (r *Report) Add(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Results = append(r.Results, res)
	r.Summary.Total++
	switch res.Status {
	case StatusPassed:
		r.Summary.Passed++
	case StatusFailed:
		r.Summary.Failed++
	case StatusSkipped:
		r.Summary.Skipped++
	}
}

// Finish stamps the end time and orders results by registration sequence.
func (r *Report) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Finished = time.Now().UTC()
	r.Duration = r.Finished.Sub(r.Started)
	sort.SliceStable(r.Results, func(i, j int) bool { return r.Results[i].Seq < r.Results[j].Seq })
}

// Failed reports whether any scenario failed.
func (r *Report) Failed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Summary.Failed > 0
}

// Snapshot returns a copy of the summary.
func (r *Report) Snapshot() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Summary
}

// Created merges the resources created by every result.
func (r *Report) Created() Resources {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all Resources
	for _, res := range r.Results {
		all.UserIDs = append(all.UserIDs, res.Created.UserIDs...)
		all.AccountIDs = append(all.AccountIDs, res.Created.AccountIDs...)
		all.TransactionIDs = append(all.TransactionIDs, res.Created.TransactionIDs...)
	}
	return all
}
