package spider

import (
	"context"
	"time"
)

// Fetcher retrieves a page. Implementations apply their own retry policy
// and per-host politeness; a non-OK status is reflected in the result, not
// only in the error.
type Fetcher interface {
	Fetch(ctx context.Context, task CrawlTask) (FetchResult, error)
}

// Extractor turns a fetched body into candidates and discovered links.
type Extractor interface {
	Detect(pageURL string, body []byte) Platform
	Extract(platform Platform, pageURL string, body []byte) ([]RawEventCandidate, error)
	Links(pageURL string, body []byte) ([]Link, error)
	PageText(body []byte) string
}

// DateParser converts raw date text into a UTC instant. Zone-less input is
// interpreted in the campus zone; ok is false when no format matched.
type DateParser interface {
	Parse(raw string, ref time.Time) (time.Time, bool)
}

// Classifier scores a candidate's page for food relevance. Verdicts are
// cached per source URL; usage reports whether this call hit the cache or
// reached the oracle.
type Classifier interface {
	Classify(ctx context.Context, candidate RawEventCandidate, pageText string) (Verdict, ClassifyUsage)
}

// Aggregator collects qualifying events and deduplicates them at run end.
// Add reports whether the event passed the confidence and date filters.
type Aggregator interface {
	Add(event NormalizedEvent, verdict Verdict) bool
	Finalize() []NormalizedEvent
}

// Publisher hands a finalized event to the downstream ingestion boundary.
type Publisher interface {
	Publish(ctx context.Context, event NormalizedEvent) (string, error)
}

// Clock returns the current time (injectable for tests).
type Clock interface {
	Now() time.Time
}
