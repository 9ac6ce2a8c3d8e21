package classify

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/campuseats/spider/internal/metrics"
	"github.com/campuseats/spider/internal/spider"
)

// Thresholds split the heuristic's range into finalize-positive,
// finalize-negative, and ask-the-oracle.
const (
	// highConfidence finalizes a positive verdict without an oracle call.
	highConfidence = 0.85
	// hasFoodCutoff decides HasFood for heuristic-sourced verdicts.
	hasFoodCutoff = 0.5
)

// Classifier scores candidates with the keyword heuristic and escalates
// ambiguous pages to the oracle. Verdicts are memoized per source URL;
// singleflight makes concurrent first lookups share one computation, so a
// page linked from many discovered URLs costs at most one oracle call.
type Classifier struct {
	oracle Oracle
	logger *zap.Logger

	mu    sync.Mutex
	cache map[string]spider.Verdict
	group singleflight.Group
}

// New builds a Classifier. A nil oracle disables stage two; ambiguous
// pages then keep their heuristic verdict.
func New(oracle Oracle, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{
		oracle: oracle,
		logger: logger,
		cache:  make(map[string]spider.Verdict),
	}
}

// classifyOutcome is what one singleflight computation produces.
type classifyOutcome struct {
	verdict spider.Verdict
	usage   spider.ClassifyUsage
}

// Classify returns the page verdict for a candidate. The verdict is
// page-level (keyed by source URL); a specific event's confidence derives
// from its page's verdict.
func (c *Classifier) Classify(ctx context.Context, cand spider.RawEventCandidate, pageText string) (spider.Verdict, spider.ClassifyUsage) {
	key := cand.SourceURL

	c.mu.Lock()
	if v, ok := c.cache[key]; ok {
		c.mu.Unlock()
		metrics.ObserveCacheHit()
		return v, spider.ClassifyUsage{CacheHit: true}
	}
	c.mu.Unlock()

	// The closure runs only for the caller that wins the singleflight;
	// waiters piggyback on its result and count as cache hits, so one
	// oracle call is reported exactly once no matter how many workers
	// raced on the URL.
	executed := false
	result, _, _ := c.group.Do(key, func() (any, error) {
		executed = true
		out := c.evaluate(ctx, cand, pageText)
		c.mu.Lock()
		c.cache[key] = out.verdict
		c.mu.Unlock()
		return out, nil
	})
	out := result.(classifyOutcome)

	if !executed {
		metrics.ObserveCacheHit()
		return out.verdict, spider.ClassifyUsage{CacheHit: true}
	}
	return out.verdict, out.usage
}

// evaluate runs both stages for a cache miss.
func (c *Classifier) evaluate(ctx context.Context, cand spider.RawEventCandidate, pageText string) classifyOutcome {
	text := cand.Title + " " + cand.Description + " " + pageText
	h := ScoreText(text)

	heuristicVerdict := spider.Verdict{
		Confidence: h.Score,
		Reason:     h.Reason,
		Source:     spider.SourceHeuristic,
		HasFood:    h.Score >= hasFoodCutoff,
	}

	// Clear either way: no oracle call needed.
	if h.Negated || h.Hits == 0 || h.Score >= highConfidence {
		return classifyOutcome{verdict: heuristicVerdict}
	}
	if c.oracle == nil {
		return classifyOutcome{verdict: heuristicVerdict}
	}

	usage := spider.ClassifyUsage{OracleCalled: true}
	resp, err := c.oracle.Check(ctx, OracleRequest{
		URL:      cand.SourceURL,
		Title:    cand.Title,
		Location: cand.LocationText,
		Start:    cand.RawStartText,
		Text:     pageText,
	})
	metrics.ObserveOracleCall(err != nil)
	if err != nil {
		// Downgrade rather than block the run.
		usage.OracleFailed = true
		c.logger.Warn("oracle unavailable, keeping heuristic verdict",
			zap.String("url", cand.SourceURL),
			zap.Error(err),
		)
		return classifyOutcome{verdict: heuristicVerdict, usage: usage}
	}

	return classifyOutcome{
		verdict: spider.Verdict{
			Confidence: resp.Confidence,
			Reason:     resp.Proof,
			Source:     spider.SourceOracle,
			HasFood:    resp.HasFreeFood,
		},
		usage: usage,
	}
}
