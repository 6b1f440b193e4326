package app

import (
	"time"

	"github.com/transfa/bank-api-harness/internal/domain"
	"github.com/transfa/bank-api-harness/internal/generator"
	"github.com/transfa/bank-api-harness/internal/report"
	"github.com/transfa/bank-api-harness/internal/schema"
	"github.com/transfa/bank-api-harness/pkg/bankclient"
	"go.uber.org/zap"
)

// ScenarioContext is owned by exactly one attempt of one scenario instance.
// It is never shared between goroutines.
type ScenarioContext struct {
	Scenario string
	Instance string
	Attempt  int

	Logger *zap.Logger
	Client *bankclient.Client
	Schema *schema.Validator
	Gen    *generator.Generator

	state     State
	steps     []report.Step
	exchanges []domain.Exchange
	created   report.Resources
}

func newScenarioContext(env *Env, scenario, instance string, attempt int) *ScenarioContext {
	return &ScenarioContext{
		Scenario: scenario,
		Instance: instance,
		Attempt:  attempt,
		Logger: env.Logger.With(
			zap.String("scenario", scenario),
			zap.String("instance", instance),
			zap.Int("attempt", attempt),
		),
		Client: env.Client,
		Schema: env.Schema,
		Gen:    env.Gen,
		state:  StateInit,
	}
}

// State returns the current workflow state.
func (sc *ScenarioContext) State() State {
	return sc.state
}

func (sc *ScenarioContext) transition(to State) {
	sc.Logger.Debug("workflow transition", zap.String("from", string(sc.state)), zap.String("to", string(to)))
	sc.state = to
}

// Step records a named action. The returned func closes it with its outcome.
func (sc *ScenarioContext) Step(name string) func(err error) {
	start := time.Now()
	sc.Logger.Info("step started", zap.String("step", name))
	return func(err error) {
		step := report.Step{Name: name, State: string(sc.state), Elapsed: time.Since(start)}
		if err != nil {
			step.Error = err.Error()
			sc.Logger.Warn("step failed", zap.String("step", name), zap.Error(err))
		}
		sc.steps = append(sc.steps, step)
	}
}

// Attach keeps the exchange of resp for the report.
func (sc *ScenarioContext) Attach(resp *bankclient.Response) {
	if resp != nil {
		sc.exchanges = append(sc.exchanges, resp.Exchange)
	}
}

func (sc *ScenarioContext) TrackUser(id int64) {
	sc.created.UserIDs = append(sc.created.UserIDs, id)
}

func (sc *ScenarioContext) TrackAccount(id int64) {
	sc.created.AccountIDs = append(sc.created.AccountIDs, id)
}

func (sc *ScenarioContext) TrackTransaction(id int64) {
	sc.created.TransactionIDs = append(sc.created.TransactionIDs, id)
}

// Created returns the resources this attempt left on the API.
func (sc *ScenarioContext) Created() report.Resources {
	return sc.created
}

func (sc *ScenarioContext) Steps() []report.Step {
	return sc.steps
}

func (sc *ScenarioContext) Exchanges() []domain.Exchange {
	return sc.exchanges
}
