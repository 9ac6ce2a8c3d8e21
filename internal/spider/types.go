// Package spider defines the core types shared across the crawl pipeline
// and the scheduler that drives it.
package spider

import (
	"time"
)

// Platform classifies the structural origin of an event page.
type Platform string

// Known platform tags. Adding a platform means adding a tag here and an
// extraction path in internal/extract.
const (
	PlatformLocalist   Platform = "localist"
	PlatformEventbrite Platform = "eventbrite"
	PlatformFacebook   Platform = "facebook"
	PlatformMeetup     Platform = "meetup"
	PlatformSchemaOrg  Platform = "schema_org"
	PlatformCustom     Platform = "custom"
)

// Specific reports whether the tag identifies a known structured source.
// Specific platforms win dedup ties over the generic extractor.
func (p Platform) Specific() bool {
	return p != "" && p != PlatformCustom
}

// FetchStatus is the coarse outcome of a fetch attempt.
type FetchStatus string

// Fetch outcomes.
const (
	FetchOK      FetchStatus = "ok"
	FetchError   FetchStatus = "error"
	FetchTimeout FetchStatus = "timeout"
)

// CrawlTask is one URL waiting to be fetched. Tasks are created by the
// scheduler (seeds) or from discovered links and are never mutated after
// creation.
type CrawlTask struct {
	URL          string
	Depth        int
	DiscoveredAt time.Time
}

// FetchResult is the transient outcome of retrieving a CrawlTask. The body
// is consumed by the extractor and then discarded; nothing persists it.
type FetchResult struct {
	URL         string
	Status      FetchStatus
	StatusCode  int
	Body        []byte
	ContentType string
	FetchedAt   time.Time
}

// Link is an outbound URL discovered on a page, tagged for frontier
// prioritization.
type Link struct {
	URL       string
	EventLike bool
}

// RawEventCandidate holds fields as extracted from a page, before date
// normalization or classification. A single page may yield zero, one, or
// many candidates.
type RawEventCandidate struct {
	SourceURL    string
	Platform     Platform
	Title        string
	Description  string
	LocationText string
	RawStartText string
	RawEndText   string
	ExternalID   string
}

// NormalizedEvent is the output record handed to downstream consumers.
// StartTime is nil when no recognized date format matched; the raw text is
// preserved so the event can still be reviewed manually.
type NormalizedEvent struct {
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Location     string     `json:"location,omitempty"`
	StartTime    *time.Time `json:"start_time,omitempty"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	SourceURL    string     `json:"source_url"`
	Platform     Platform   `json:"platform"`
	RawStartText string     `json:"raw_start_text,omitempty"`
	Confidence   float64    `json:"confidence"`
	Reason       string     `json:"reason,omitempty"`
	EventID      string     `json:"event_id,omitempty"`
}

// Undated reports whether the event carries no parsed start time.
func (e NormalizedEvent) Undated() bool {
	return e.StartTime == nil
}

// VerdictSource names which classification stage produced a verdict.
type VerdictSource string

// Verdict sources.
const (
	SourceHeuristic VerdictSource = "heuristic"
	SourceOracle    VerdictSource = "oracle"
)

// Verdict is the classifier's page-level judgment of food relevance.
// One verdict is cached per source URL for the lifetime of a run.
type Verdict struct {
	Confidence float64       `json:"confidence"`
	Reason     string        `json:"reason"`
	Source     VerdictSource `json:"source"`
	HasFood    bool          `json:"has_food"`
}

// ClassifyUsage reports what a Classify call cost, so the scheduler can
// account for oracle traffic and cache effectiveness.
type ClassifyUsage struct {
	CacheHit     bool
	OracleCalled bool
	OracleFailed bool
}

// CrawlStats accumulates run counters. It is owned exclusively by the
// scheduler goroutine; workers report outcomes over a channel.
type CrawlStats struct {
	ElapsedSeconds float64        `json:"elapsed_seconds"`
	PagesCrawled   int            `json:"pages_crawled"`
	PagesSkipped   int            `json:"pages_skipped"`
	EventsFound    int            `json:"events_found"`
	EventsWithFood int            `json:"events_with_food"`
	OracleCalls    int            `json:"oracle_calls"`
	OracleErrors   int            `json:"oracle_errors"`
	CacheHits      int            `json:"cache_hits"`
	ErrorsByKind   map[string]int `json:"errors_by_kind"`
}

// Error kinds recorded in CrawlStats.ErrorsByKind.
const (
	ErrKindHTTP           = "http_error"
	ErrKindParse          = "parse_error"
	ErrKindLinkExtraction = "link_extraction"
	ErrKindOracle         = "oracle"
)

// RecordError increments the counter for the given error kind.
func (s *CrawlStats) RecordError(kind string) {
	if s.ErrorsByKind == nil {
		s.ErrorsByKind = make(map[string]int)
	}
	s.ErrorsByKind[kind]++
}
