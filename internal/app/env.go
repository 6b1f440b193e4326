package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/transfa/bank-api-harness/internal/config"
	"github.com/transfa/bank-api-harness/internal/fixture"
	"github.com/transfa/bank-api-harness/internal/generator"
	"github.com/transfa/bank-api-harness/internal/report"
	"github.com/transfa/bank-api-harness/internal/schema"
	"github.com/transfa/bank-api-harness/pkg/bankclient"
	"go.uber.org/zap"
)

// tokenTTL bounds bearer tokens minted from auth.jwt.secret.
const tokenTTL = time.Hour

// tokenSubject identifies the harness in minted tokens.
const tokenSubject = "harness"

// Recorder observes scenario outcomes. *metrics.Metrics satisfies it.
type Recorder interface {
	ObserveScenario(status string)
	ObserveAttempt()
}

type nopRecorder struct{}

func (nopRecorder) ObserveScenario(string) {}
func (nopRecorder) ObserveAttempt()        {}

// Env holds the shared, read-only collaborators of a run. Every field is safe
// for concurrent use.
type Env struct {
	Settings config.Settings
	Logger   *zap.Logger
	Client   *bankclient.Client
	Schema   *schema.Validator
	Gen      *generator.Generator
	Fixtures *fixture.Loader
	Recorder Recorder
	Sink     report.Sink
}

// EnvOptions supplies the optional collaborators of NewEnv.
type EnvOptions struct {
	Logger *zap.Logger
	// Observer receives request latencies, usually the same *metrics.Metrics
	// passed as Recorder.
	Observer   bankclient.Observer
	Recorder   Recorder
	Sink       report.Sink
	HTTPClient *http.Client
}

// NewEnv wires the run collaborators from settings.
func NewEnv(settings config.Settings, opts EnvOptions) (*Env, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := NewBankClient(settings, logger, opts.Observer, opts.HTTPClient)
	if err != nil {
		return nil, err
	}
	env := &Env{
		Settings: settings,
		Logger:   logger,
		Client:   client,
		Schema:   schema.NewValidator(settings.SchemaValidationEnabled, settings.SchemaDir, logger),
		Gen:      generator.New(settings.GeneratorSeed),
		Fixtures: fixture.NewLoader(settings.JSONFixtureDir, settings.ExcelFixtureDir),
		Recorder: opts.Recorder,
		Sink:     opts.Sink,
	}
	if env.Recorder == nil {
		env.Recorder = nopRecorder{}
	}
	if env.Sink == nil {
		env.Sink = report.NewMultiSink(logger)
	}
	return env, nil
}

// NewBankClient builds the façade for settings. A static auth.token wins;
// otherwise a token is minted when auth.jwt.secret is set.
func NewBankClient(settings config.Settings, logger *zap.Logger, observer bankclient.Observer, httpClient *http.Client) (*bankclient.Client, error) {
	target, err := settings.Target()
	if err != nil {
		return nil, err
	}
	token := settings.AuthToken
	if token == "" && settings.JWTSecret != "" {
		if token, err = bankclient.MintToken(settings.JWTSecret, tokenSubject, tokenTTL); err != nil {
			return nil, fmt.Errorf("mint bearer token: %w", err)
		}
	}
	return bankclient.NewClient(bankclient.Options{
		BaseURL:    target,
		Token:      token,
		Timeout:    settings.RequestTimeout,
		Trace:      settings.LoggingEnabled,
		Logger:     logger,
		Observer:   observer,
		HTTPClient: httpClient,
	}), nil
}
