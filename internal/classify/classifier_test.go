package classify

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuseats/spider/internal/spider"
)

type fakeOracle struct {
	mu    sync.Mutex
	calls int32
	resp  OracleResponse
	err   error
	// block, when non-nil, holds every Check call until closed.
	block chan struct{}
}

func (o *fakeOracle) Check(_ context.Context, _ OracleRequest) (OracleResponse, error) {
	atomic.AddInt32(&o.calls, 1)
	if o.block != nil {
		<-o.block
	}
	return o.resp, o.err
}

func (o *fakeOracle) callCount() int32 { return atomic.LoadInt32(&o.calls) }

func candidate(url, title string) spider.RawEventCandidate {
	return spider.RawEventCandidate{SourceURL: url, Title: title, Platform: spider.PlatformLocalist}
}

func TestClassifyHighConfidenceSkipsOracle(t *testing.T) {
	t.Parallel()

	oracle := &fakeOracle{resp: OracleResponse{HasFreeFood: false, Confidence: 0.1}}
	c := New(oracle, zap.NewNop())

	verdict, usage := c.Classify(context.Background(),
		candidate("https://events.umass.edu/events/1", "Free Pizza Night"),
		"Free pizza while supplies last.")

	require.Equal(t, spider.SourceHeuristic, verdict.Source)
	require.True(t, verdict.HasFood)
	require.Equal(t, 1.0, verdict.Confidence)
	require.False(t, usage.OracleCalled)
	require.Zero(t, oracle.callCount())
}

func TestClassifyNoKeywordsSkipsOracle(t *testing.T) {
	t.Parallel()

	oracle := &fakeOracle{}
	c := New(oracle, zap.NewNop())

	verdict, usage := c.Classify(context.Background(),
		candidate("https://events.umass.edu/events/2", "Linear Algebra Review"),
		"Practice problems and proofs.")

	require.False(t, verdict.HasFood)
	require.Zero(t, verdict.Confidence)
	require.False(t, usage.OracleCalled)
	require.Zero(t, oracle.callCount())
}

func TestClassifyNegationSkipsOracle(t *testing.T) {
	t.Parallel()

	oracle := &fakeOracle{}
	c := New(oracle, zap.NewNop())

	verdict, usage := c.Classify(context.Background(),
		candidate("https://events.umass.edu/events/3", "Pizza Trivia"),
		"Pizza-themed quiz. No food will be served.")

	require.False(t, verdict.HasFood)
	require.Zero(t, verdict.Confidence)
	require.False(t, usage.OracleCalled)
	require.Zero(t, oracle.callCount())
}

func TestClassifyAmbiguousConsultsOracle(t *testing.T) {
	t.Parallel()

	oracle := &fakeOracle{resp: OracleResponse{
		HasFreeFood: true,
		Confidence:  0.92,
		Proof:       "coffee and donuts provided to attendees",
	}}
	c := New(oracle, zap.NewNop())

	verdict, usage := c.Classify(context.Background(),
		candidate("https://events.umass.edu/events/4", "Morning Seminar"),
		"Coffee served before the talk.")

	require.True(t, usage.OracleCalled)
	require.False(t, usage.OracleFailed)
	require.Equal(t, spider.SourceOracle, verdict.Source)
	require.True(t, verdict.HasFood)
	require.Equal(t, 0.92, verdict.Confidence)
	require.Equal(t, "coffee and donuts provided to attendees", verdict.Reason)
}

func TestClassifyOracleFailureKeepsHeuristic(t *testing.T) {
	t.Parallel()

	oracle := &fakeOracle{err: errors.New("oracle unavailable: timeout")}
	c := New(oracle, zap.NewNop())

	verdict, usage := c.Classify(context.Background(),
		candidate("https://events.umass.edu/events/5", "Afternoon Tea"),
		"Tea in the lounge.")

	require.True(t, usage.OracleCalled)
	require.True(t, usage.OracleFailed)
	require.Equal(t, spider.SourceHeuristic, verdict.Source)
	require.InDelta(t, 0.5, verdict.Confidence, 1e-9)
	require.True(t, verdict.HasFood)
}

func TestClassifyNilOracleKeepsHeuristic(t *testing.T) {
	t.Parallel()

	c := New(nil, zap.NewNop())

	verdict, usage := c.Classify(context.Background(),
		candidate("https://events.umass.edu/events/6", "Study Break"),
		"Cookies in the library lobby.")

	require.False(t, usage.OracleCalled)
	require.Equal(t, spider.SourceHeuristic, verdict.Source)
	require.InDelta(t, 0.6, verdict.Confidence, 1e-9)
	require.True(t, verdict.HasFood)
}

func TestClassifyCachesPerURL(t *testing.T) {
	t.Parallel()

	oracle := &fakeOracle{resp: OracleResponse{HasFreeFood: true, Confidence: 0.8, Proof: "snacks"}}
	c := New(oracle, zap.NewNop())
	cand := candidate("https://events.umass.edu/events/7", "Open House")
	text := "Coffee in the atrium."

	first, firstUsage := c.Classify(context.Background(), cand, text)
	require.False(t, firstUsage.CacheHit)
	require.True(t, firstUsage.OracleCalled)

	second, secondUsage := c.Classify(context.Background(), cand, text)
	require.True(t, secondUsage.CacheHit)
	require.False(t, secondUsage.OracleCalled)
	require.Equal(t, first, second)
	require.Equal(t, int32(1), oracle.callCount())
}

func TestClassifyConcurrentSameURLSingleOracleCall(t *testing.T) {
	t.Parallel()

	oracle := &fakeOracle{
		resp:  OracleResponse{HasFreeFood: true, Confidence: 0.75, Proof: "juice and snacks"},
		block: make(chan struct{}),
	}
	c := New(oracle, zap.NewNop())
	cand := candidate("https://events.umass.edu/events/8", "Club Fair")
	text := "Juice provided at every table."

	const callers = 8
	var (
		wg       sync.WaitGroup
		hits     int32
		verdicts [callers]spider.Verdict
	)
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			v, u := c.Classify(context.Background(), cand, text)
			verdicts[i] = v
			if u.CacheHit {
				atomic.AddInt32(&hits, 1)
			}
		}(i)
	}

	// Let the goroutines pile up on the in-flight computation before
	// releasing it.
	for oracle.callCount() == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(10 * time.Millisecond)
	close(oracle.block)
	wg.Wait()

	require.Equal(t, int32(1), oracle.callCount())
	for i := 1; i < callers; i++ {
		require.Equal(t, verdicts[0], verdicts[i])
	}
	// Everyone but the one caller that did the work shares the result.
	require.Equal(t, int32(callers-1), hits)
}
