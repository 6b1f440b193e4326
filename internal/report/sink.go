package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/transfa/bank-api-harness/pkg/rabbitmq"
	"go.uber.org/zap"
)

// Routing keys used by AMQPSink.
const (
	RoutingKeyRunFinished = "harness.run.finished"
	routingKeyResult      = "harness.result."
)

// Sink receives results as they complete and the final report.
type Sink interface {
	PublishResult(ctx context.Context, r *Report, res Result) error
	Publish(ctx context.Context, r *Report) error
}

// FileSink writes the final report as report_<timestamp>.json under Dir.
type FileSink struct {
	Dir string
	// Path is set after a successful Publish.
	Path string
}

func (s *FileSink) PublishResult(ctx context.Context, r *Report, res Result) error { return nil }

func (s *FileSink) Publish(ctx context.Context, r *Report) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	r.mu.Lock()
	body, err := json.MarshalIndent(r, "", "  ")
	finished := r.Finished
	r.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	path := filepath.Join(s.Dir, fmt.Sprintf("report_%s.json", finished.Format("20060102_150405.000")))
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	s.Path = path
	return nil
}

// ReadFile loads a report written by FileSink.
func ReadFile(path string) (*Report, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Report
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", path, err)
	}
	return &r, nil
}

// resultEvent is the per-result message body.
type resultEvent struct {
	RunID  string `json:"runId"`
	Env    string `json:"env"`
	Result Result `json:"result"`
}

// summaryEvent is the run-finished message body; it omits per-result detail.
type summaryEvent struct {
	RunID    string  `json:"runId"`
	Env      string  `json:"env"`
	Target   string  `json:"target"`
	Summary  Summary `json:"summary"`
	Duration int64   `json:"duration_ms"`
}

// AMQPSink streams results and the run summary to a topic exchange.
type AMQPSink struct {
	publisher rabbitmq.Publisher
	exchange  string
}

// NewAMQPSink publishes through p to exchange.
func NewAMQPSink(p rabbitmq.Publisher, exchange string) *AMQPSink {
	return &AMQPSink{publisher: p, exchange: exchange}
}

// PublishResult sends res under harness.result.<status>. RunID and Env are
// fixed at report creation and read without locking.
func (s *AMQPSink) PublishResult(ctx context.Context, r *Report, res Result) error {
	key := routingKeyResult + strings.ToLower(string(res.Status))
	return s.publisher.Publish(ctx, s.exchange, key, resultEvent{RunID: r.RunID, Env: r.Env, Result: res})
}

func (s *AMQPSink) Publish(ctx context.Context, r *Report) error {
	r.mu.Lock()
	event := summaryEvent{
		RunID:    r.RunID,
		Env:      r.Env,
		Target:   r.Target,
		Summary:  r.Summary,
		Duration: r.Duration.Milliseconds(),
	}
	r.mu.Unlock()
	return s.publisher.Publish(ctx, s.exchange, RoutingKeyRunFinished, event)
}

// MultiSink fans out to every sink. Failures are logged and never returned:
// reporting must not fail a run.
type MultiSink struct {
	sinks  []Sink
	logger *zap.Logger
}

func NewMultiSink(logger *zap.Logger, sinks ...Sink) *MultiSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MultiSink{sinks: sinks, logger: logger.Named("report")}
}

func (m *MultiSink) PublishResult(ctx context.Context, r *Report, res Result) error {
	for _, s := range m.sinks {
		if err := s.PublishResult(ctx, r, res); err != nil {
			m.logger.Warn("failed to publish result", zap.String("scenario", res.Scenario), zap.Error(err))
		}
	}
	return nil
}

func (m *MultiSink) Publish(ctx context.Context, r *Report) error {
	for _, s := range m.sinks {
		if err := s.Publish(ctx, r); err != nil {
			m.logger.Warn("failed to publish report", zap.String("run_id", r.RunID), zap.Error(err))
		}
	}
	return nil
}
