/**
 * @description
 * Explicit suite registration and the bounded worker pool that runs it.
 * Scenarios are registered with a typed data source; every data item becomes
 * one instance with its own retry loop and ScenarioContext.
 *
 * @dependencies
 * - golang.org/x/sync/errgroup: bounded concurrency.
 * - go.uber.org/zap: run logging.
 *
 * @notes
 * - Fatal errors (config, fixture) fail the affected instance without retry.
 * - Cancelling ctx stops scheduling; unscheduled instances are reported as
 *   SKIPPED. Remote resources created so far remain.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/transfa/bank-api-harness/internal/domain"
	"github.com/transfa/bank-api-harness/internal/report"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrSkipped marks an instance that chose not to run.
var ErrSkipped = errors.New("scenario skipped")

// Skip returns an error that reports the instance as SKIPPED.
func Skip(reason string) error {
	return fmt.Errorf("%w: %s", ErrSkipped, reason)
}

// Case is a named scenario over a typed data source.
type Case[T any] struct {
	Name string
	Tags []string
	// Data yields one item per instance. Nil means a single instance run
	// with the zero value.
	Data func(env *Env) ([]T, error)
	// Label names an instance in the report. Defaults to its index.
	Label func(i int, item T) string
	// Retry overrides retry.count when set.
	Retry *int
	Run   func(ctx context.Context, sc *ScenarioContext, item T) error
}

// SuiteOptions narrows what a suite runs.
type SuiteOptions struct {
	// Filter keeps scenarios whose name matches. Nil keeps all.
	Filter *regexp.Regexp
}

type scenario struct {
	name   string
	tags   []string
	retry  RetryPolicy
	expand func(env *Env) ([]instance, error)
}

type instance struct {
	label string
	run   func(ctx context.Context, sc *ScenarioContext) error
}

type job struct {
	seq      int
	scenario *scenario
	instance instance
}

// Suite is an ordered set of registered scenarios bound to one Env.
type Suite struct {
	env       *Env
	opts      SuiteOptions
	scenarios []*scenario
	names     map[string]struct{}
}

func NewSuite(env *Env, opts SuiteOptions) *Suite {
	return &Suite{env: env, opts: opts, names: make(map[string]struct{})}
}

// Register adds c to s. It panics on an empty name, a nil Run or a duplicate
// name, all of which are programming errors.
func Register[T any](s *Suite, c Case[T]) {
	if c.Name == "" || c.Run == nil {
		panic("app: Register requires a name and a Run func")
	}
	if _, dup := s.names[c.Name]; dup {
		panic(fmt.Sprintf("app: scenario %q registered twice", c.Name))
	}
	s.names[c.Name] = struct{}{}

	retry := NewRetryPolicy(s.env.Settings.RetryCount)
	if c.Retry != nil {
		retry = NewRetryPolicy(*c.Retry)
	}
	s.scenarios = append(s.scenarios, &scenario{
		name:  c.Name,
		tags:  c.Tags,
		retry: retry,
		expand: func(env *Env) ([]instance, error) {
			items := []T{*new(T)}
			if c.Data != nil {
				var err error
				if items, err = c.Data(env); err != nil {
					return nil, err
				}
			}
			out := make([]instance, 0, len(items))
			for i, item := range items {
				label := fmt.Sprintf("[%d]", i)
				if c.Label != nil {
					label = c.Label(i, item)
				}
				out = append(out, instance{
					label: label,
					run: func(ctx context.Context, sc *ScenarioContext) error {
						return c.Run(ctx, sc, item)
					},
				})
			}
			return out, nil
		},
	})
}

// Env returns the collaborators the suite runs with.
func (s *Suite) Env() *Env {
	return s.env
}

// Names lists the scenarios the suite would run, in registration order.
func (s *Suite) Names() []string {
	var names []string
	for _, sc := range s.selected() {
		names = append(names, sc.name)
	}
	return names
}

func (s *Suite) selected() []*scenario {
	if s.opts.Filter == nil {
		return s.scenarios
	}
	var out []*scenario
	for _, sc := range s.scenarios {
		if s.opts.Filter.MatchString(sc.name) {
			out = append(out, sc)
		}
	}
	return out
}

// Run executes every selected instance on at most test.parallel.threads
// workers and returns the finished report. The error is ctx.Err() when the
// run was cancelled; failed scenarios are reported, not returned.
func (s *Suite) Run(ctx context.Context) (*report.Report, error) {
	rep := report.New(s.env.Settings.Env, s.env.Client.BaseURL())
	logger := s.env.Logger.With(zap.String("run_id", rep.RunID))
	threads := max(s.env.Settings.ParallelThreads, 1)

	var jobs []job
	seq := 0
	for _, sc := range s.selected() {
		instances, err := sc.expand(s.env)
		if err != nil {
			seq++
			logger.Error("failed to load scenario data", zap.String("scenario", sc.name), zap.Error(err))
			now := time.Now().UTC()
			res := report.Result{
				ID:       report.NewResultID(),
				Seq:      seq,
				Scenario: sc.name,
				Tags:     sc.tags,
				Started:  now,
				Finished: now,
			}
			describeFailure(&res, err)
			s.record(ctx, rep, res)
			continue
		}
		for _, inst := range instances {
			seq++
			jobs = append(jobs, job{seq: seq, scenario: sc, instance: inst})
		}
	}

	logger.Info("suite started",
		zap.String("env", rep.Env),
		zap.String("target", rep.Target),
		zap.Int("instances", len(jobs)),
		zap.Int("threads", threads),
	)

	var g errgroup.Group
	g.SetLimit(threads)
	for i, j := range jobs {
		if ctx.Err() != nil {
			logger.Warn("run cancelled, skipping remaining instances", zap.Int("remaining", len(jobs)-i))
			for _, rest := range jobs[i:] {
				s.record(ctx, rep, skippedResult(rest, "run cancelled"))
			}
			break
		}
		g.Go(func() error {
			s.record(ctx, rep, s.runJob(ctx, j))
			return nil
		})
	}
	_ = g.Wait()

	rep.Finish()
	_ = s.env.Sink.Publish(context.WithoutCancel(ctx), rep)

	summary := rep.Snapshot()
	logger.Info("suite finished",
		zap.Int("total", summary.Total),
		zap.Int("passed", summary.Passed),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Duration("duration", rep.Duration),
	)
	return rep, ctx.Err()
}

func (s *Suite) record(ctx context.Context, rep *report.Report, res report.Result) {
	rep.Add(res)
	s.env.Recorder.ObserveScenario(string(res.Status))
	_ = s.env.Sink.PublishResult(context.WithoutCancel(ctx), rep, res)
}

func (s *Suite) runJob(ctx context.Context, j job) report.Result {
	res := report.Result{
		ID:       report.NewResultID(),
		Seq:      j.seq,
		Scenario: j.scenario.name,
		Instance: j.instance.label,
		Tags:     j.scenario.tags,
		Started:  time.Now().UTC(),
	}

	var (
		err error
		sc  *ScenarioContext
	)
	for attempt := 1; ; attempt++ {
		s.env.Recorder.ObserveAttempt()
		sc = newScenarioContext(s.env, res.Scenario, res.Instance, attempt)
		err = runSafely(ctx, sc, j.instance.run)
		res.Attempts = attempt
		res.Created = mergeResources(res.Created, sc.Created())

		if err == nil || errors.Is(err, ErrSkipped) || domain.IsFatal(err) || ctx.Err() != nil {
			break
		}
		if !j.scenario.retry.ShouldRetry(attempt) {
			break
		}
		sc.Logger.Warn("scenario failed, retrying", zap.Error(err), zap.Int("max_retries", j.scenario.retry.Max()))
	}

	res.Finished = time.Now().UTC()
	res.Duration = res.Finished.Sub(res.Started)
	res.Steps = sc.Steps()
	res.Exchanges = sc.Exchanges()

	switch {
	case err == nil:
		res.Status = report.StatusPassed
		sc.Logger.Info("scenario passed", zap.Duration("duration", res.Duration))
	case errors.Is(err, ErrSkipped):
		res.Status = report.StatusSkipped
		res.Error = err.Error()
	default:
		describeFailure(&res, err)
		sc.Logger.Error("scenario failed", zap.String("kind", string(res.ErrorKind)), zap.Error(err))
	}
	return res
}

func runSafely(ctx context.Context, sc *ScenarioContext, run func(context.Context, *ScenarioContext) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scenario panicked: %v", r)
		}
	}()
	return run(ctx, sc)
}

func describeFailure(res *report.Result, err error) {
	res.Status = report.StatusFailed
	res.ErrorKind = domain.KindOf(err)
	res.Error = err.Error()
	res.Failure = domain.ExchangeOf(err)
	var assertion *domain.AssertionFailure
	if errors.As(err, &assertion) {
		res.Expected = fmt.Sprint(assertion.Expected)
		res.Actual = fmt.Sprint(assertion.Actual)
	}
}

func skippedResult(j job, reason string) report.Result {
	now := time.Now().UTC()
	return report.Result{
		ID:       report.NewResultID(),
		Seq:      j.seq,
		Scenario: j.scenario.name,
		Instance: j.instance.label,
		Tags:     j.scenario.tags,
		Status:   report.StatusSkipped,
		Started:  now,
		Finished: now,
		Error:    reason,
	}
}

func mergeResources(a, b report.Resources) report.Resources {
	a.UserIDs = append(a.UserIDs, b.UserIDs...)
	a.AccountIDs = append(a.AccountIDs, b.AccountIDs...)
	a.TransactionIDs = append(a.TransactionIDs, b.TransactionIDs...)
	return a
}
