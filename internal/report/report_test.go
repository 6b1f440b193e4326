package report

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/transfa/bank-api-harness/internal/domain"
)

type published struct {
	exchange   string
	routingKey string
	body       interface{}
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *fakePublisher) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, published{exchange: exchange, routingKey: routingKey, body: body})
	return nil
}

func (p *fakePublisher) Close() {}

func sampleReport() *Report {
	r := New("test", "http://localhost:8083/api")
	r.Add(Result{ID: NewResultID(), Seq: 2, Scenario: "users/create", Status: StatusFailed, ErrorKind: domain.KindAssertion,
		Failure: &domain.Exchange{Method: "POST", Endpoint: "/users", StatusCode: 500}, Created: Resources{UserIDs: []int64{3}}})
	r.Add(Result{ID: NewResultID(), Seq: 1, Scenario: "accounts/create", Status: StatusPassed, Created: Resources{UserIDs: []int64{1}, AccountIDs: []int64{2}}})
	r.Add(Result{ID: NewResultID(), Seq: 3, Scenario: "excel", Status: StatusSkipped})
	r.Finish()
	return r
}

func TestReport_SummaryAndOrdering(t *testing.T) {
	r := sampleReport()

	assert.Equal(t, Summary{Total: 3, Passed: 1, Failed: 1, Skipped: 1}, r.Snapshot())
	assert.True(t, r.Failed())
	assert.Equal(t, "accounts/create", r.Results[0].Scenario, "results are ordered by registration")
	assert.False(t, r.Finished.Before(r.Started))

	created := r.Created()
	assert.ElementsMatch(t, []int64{1, 3}, created.UserIDs)
	assert.Equal(t, []int64{2}, created.AccountIDs)
	assert.True(t, Resources{}.Empty())
}

func TestReport_ConcurrentAdd(t *testing.T) {
	r := New("test", "x")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Add(Result{Seq: i, Status: StatusPassed})
		}(i)
	}
	wg.Wait()
	r.Finish()
	assert.Equal(t, 50, r.Snapshot().Passed)
	for i, res := range r.Results {
		assert.Equal(t, i, res.Seq)
	}
}

func TestFileSink_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	sink := &FileSink{Dir: dir}
	r := sampleReport()

	require.NoError(t, sink.Publish(context.Background(), r))
	assert.True(t, strings.HasPrefix(filepath.Base(sink.Path), "report_"))

	loaded, err := ReadFile(sink.Path)
	require.NoError(t, err)
	assert.Equal(t, r.RunID, loaded.RunID)
	require.Len(t, loaded.Results, 3)
	assert.Equal(t, domain.KindAssertion, loaded.Results[1].ErrorKind)
	assert.Equal(t, 500, loaded.Results[1].Failure.StatusCode)
	assert.Equal(t, []int64{3}, loaded.Created().UserIDs[1:])
}

func TestAMQPSink_RoutingKeys(t *testing.T) {
	pub := &fakePublisher{}
	r := sampleReport()
	sink := NewAMQPSink(pub, "harness_events")

	for _, res := range r.Results {
		require.NoError(t, sink.PublishResult(context.Background(), r, res))
	}
	require.NoError(t, sink.Publish(context.Background(), r))

	require.Len(t, pub.msgs, 4)
	assert.Equal(t, "harness.result.passed", pub.msgs[0].routingKey)
	assert.Equal(t, "harness.result.failed", pub.msgs[1].routingKey)
	assert.Equal(t, "harness.result.skipped", pub.msgs[2].routingKey)
	assert.Equal(t, RoutingKeyRunFinished, pub.msgs[3].routingKey)
	for _, m := range pub.msgs {
		assert.Equal(t, "harness_events", m.exchange)
	}
	summary, ok := pub.msgs[3].body.(summaryEvent)
	require.True(t, ok)
	assert.Equal(t, 1, summary.Summary.Failed)
}

func TestMultiSink_SwallowsFailures(t *testing.T) {
	broken := NewAMQPSink(&fakePublisher{err: errors.New("broker down")}, "x")
	dir := t.TempDir()
	file := &FileSink{Dir: dir}
	multi := NewMultiSink(nil, broken, file)

	r := sampleReport()
	assert.NoError(t, multi.PublishResult(context.Background(), r, r.Results[0]))
	assert.NoError(t, multi.Publish(context.Background(), r))
	assert.NotEmpty(t, file.Path, "later sinks still run")
}
