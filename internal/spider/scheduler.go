package spider

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/campuseats/spider/internal/metrics"
)

// ErrNoSeeds is returned when no seed URL survives validation.
var ErrNoSeeds = errors.New("no valid seed urls")

// Options bound a single crawl run.
type Options struct {
	MaxPages           int
	MaxDepth           int
	MaxConcurrent      int
	RestrictToSameSite bool
	// RunTimeout caps the whole run's wall clock. Zero disables it; on
	// expiry the scheduler stops dispatching, lets in-flight fetches
	// finish under their own per-request timeouts, and finalizes.
	RunTimeout time.Duration
}

// Scheduler owns the frontier, the visited set, and the stats for one run,
// and drives the fetch/extract/classify pipeline through a bounded worker
// pool. All shared mutable state lives on the scheduler goroutine; workers
// communicate back over a single completion channel, so the frontier and
// stats need no locking.
type Scheduler struct {
	opts       Options
	fetcher    Fetcher
	extractor  Extractor
	dates      DateParser
	classifier Classifier
	aggregator Aggregator
	clock      Clock
	logger     *zap.Logger
}

// NewScheduler wires the pipeline components into a scheduler.
func NewScheduler(
	opts Options,
	fetcher Fetcher,
	extractor Extractor,
	dates DateParser,
	classifier Classifier,
	aggregator Aggregator,
	clock Clock,
	logger *zap.Logger,
) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}
	return &Scheduler{
		opts:       opts,
		fetcher:    fetcher,
		extractor:  extractor,
		dates:      dates,
		classifier: classifier,
		aggregator: aggregator,
		clock:      clock,
		logger:     logger,
	}
}

// scoredCandidate pairs a normalized event with its page verdict.
type scoredCandidate struct {
	event   NormalizedEvent
	verdict Verdict
}

// pageOutcome is everything a worker learned from one URL.
type pageOutcome struct {
	task       CrawlTask
	fetchedOK  bool
	status     FetchStatus
	links      []Link
	candidates []scoredCandidate
	errorKinds []string
	cacheHits  int
	oracleCall bool
	oracleFail bool
}

// Run crawls from the seeds until the page budget or the frontier is
// exhausted. It always returns a best-effort event list and stats;
// the only error is seed validation failure.
func (s *Scheduler) Run(ctx context.Context, seeds []string) ([]NormalizedEvent, CrawlStats, error) {
	started := s.clock.Now()
	stats := CrawlStats{ErrorsByKind: make(map[string]int)}

	frontier := NewFrontier(s.opts.MaxDepth, s.opts.RestrictToSameSite)
	if frontier.Seed(seeds, started) == 0 {
		return nil, stats, ErrNoSeeds
	}

	runCtx := ctx
	if s.opts.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.opts.RunTimeout)
		defer cancel()
	}

	results := make(chan pageOutcome)
	inflight := 0
	dispatched := 0

	dispatch := func() {
		for inflight < s.opts.MaxConcurrent && dispatched < s.opts.MaxPages && runCtx.Err() == nil {
			task, ok := frontier.Pop()
			if !ok {
				return
			}
			dispatched++
			inflight++
			// Workers run on the parent context: run-timeout expiry stops
			// new dispatches but never cuts off a fetch already in flight.
			go func(t CrawlTask) {
				results <- s.processTask(ctx, t)
			}(task)
		}
	}

	dispatch()
	for inflight > 0 {
		outcome := <-results
		inflight--
		s.apply(&stats, frontier, outcome)
		dispatch()
	}

	stats.ElapsedSeconds = s.clock.Now().Sub(started).Seconds()
	events := s.aggregator.Finalize()

	outcomeLabel := "complete"
	if runCtx.Err() != nil {
		outcomeLabel = "timeout"
	}
	metrics.ObserveRun(outcomeLabel)

	s.logger.Info("crawl finished",
		zap.Int("pages_crawled", stats.PagesCrawled),
		zap.Int("events_found", stats.EventsFound),
		zap.Int("events_with_food", stats.EventsWithFood),
		zap.Int("oracle_calls", stats.OracleCalls),
		zap.Int("cache_hits", stats.CacheHits),
		zap.Float64("elapsed_seconds", stats.ElapsedSeconds),
	)
	return events, stats, nil
}

// apply folds one worker outcome into the run state. Runs only on the
// scheduler goroutine.
func (s *Scheduler) apply(stats *CrawlStats, frontier *Frontier, o pageOutcome) {
	stats.PagesCrawled++
	for _, kind := range o.errorKinds {
		stats.RecordError(kind)
	}
	stats.CacheHits += o.cacheHits
	if o.oracleCall {
		stats.OracleCalls++
	}
	if o.oracleFail {
		stats.OracleErrors++
	}

	for _, link := range o.links {
		if frontier.Enqueue(link.URL, o.task.Depth+1, s.clock.Now()) != Enqueued {
			stats.PagesSkipped++
		}
	}

	stats.EventsFound += len(o.candidates)
	metrics.ObserveEventsFound(len(o.candidates))
	for _, sc := range o.candidates {
		if s.aggregator.Add(sc.event, sc.verdict) {
			if sc.verdict.HasFood {
				stats.EventsWithFood++
			}
			metrics.ObserveEventEmitted(string(sc.event.Platform))
		}
	}
}

// processTask runs the full per-URL pipeline: fetch, detect, extract,
// normalize, classify. Errors are contained at page granularity.
func (s *Scheduler) processTask(ctx context.Context, task CrawlTask) pageOutcome {
	out := pageOutcome{task: task}

	res, err := s.fetcher.Fetch(ctx, task)
	metrics.ObservePage(Host(task.URL), string(res.Status))
	if err != nil || res.Status != FetchOK {
		out.status = res.Status
		out.errorKinds = append(out.errorKinds, ErrKindHTTP)
		s.logger.Debug("fetch failed",
			zap.String("url", task.URL),
			zap.String("status", string(res.Status)),
			zap.Error(err),
		)
		return out
	}
	out.fetchedOK = true
	out.status = FetchOK

	links, err := s.extractor.Links(task.URL, res.Body)
	if err != nil {
		out.errorKinds = append(out.errorKinds, ErrKindLinkExtraction)
		s.logger.Debug("link extraction failed", zap.String("url", task.URL), zap.Error(err))
	}
	out.links = links

	platform := s.extractor.Detect(task.URL, res.Body)
	candidates, err := s.extractor.Extract(platform, task.URL, res.Body)
	if err != nil {
		out.errorKinds = append(out.errorKinds, ErrKindParse)
		s.logger.Debug("extraction failed",
			zap.String("url", task.URL),
			zap.String("platform", string(platform)),
			zap.Error(err),
		)
		return out
	}
	if len(candidates) == 0 {
		return out
	}

	pageText := s.extractor.PageText(res.Body)
	for _, cand := range candidates {
		event := s.normalize(cand, res.FetchedAt)
		verdict, usage := s.classifier.Classify(ctx, cand, pageText)
		if usage.CacheHit {
			out.cacheHits++
		}
		if usage.OracleCalled {
			out.oracleCall = true
		}
		if usage.OracleFailed {
			out.oracleFail = true
			out.errorKinds = append(out.errorKinds, ErrKindOracle)
		}
		event.Confidence = verdict.Confidence
		event.Reason = verdict.Reason
		out.candidates = append(out.candidates, scoredCandidate{event: event, verdict: verdict})
	}
	return out
}

// normalize converts a raw candidate into an event record. An unparseable
// start date is preserved as nil with the raw text intact rather than
// dropping the candidate.
func (s *Scheduler) normalize(cand RawEventCandidate, fetchedAt time.Time) NormalizedEvent {
	event := NormalizedEvent{
		Title:        cand.Title,
		Description:  cand.Description,
		Location:     cand.LocationText,
		SourceURL:    cand.SourceURL,
		Platform:     cand.Platform,
		RawStartText: cand.RawStartText,
	}
	if start, ok := s.dates.Parse(cand.RawStartText, fetchedAt); ok {
		event.StartTime = &start
	}
	if end, ok := s.dates.Parse(cand.RawEndText, fetchedAt); ok {
		event.EndTime = &end
	}
	return event
}
