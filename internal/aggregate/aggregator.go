// Package aggregate filters, deduplicates, and finalizes the run's event
// list.
package aggregate

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/campuseats/spider/internal/spider"
)

// Aggregator collects qualifying events during a run. It is driven only by
// the scheduler goroutine; dedup is order-independent (highest confidence
// wins regardless of arrival order), so worker completion order does not
// matter.
type Aggregator struct {
	minConfidence float64
	lookahead     time.Duration
	clock         spider.Clock
	entries       map[string]entry
}

type entry struct {
	event   spider.NormalizedEvent
	verdict spider.Verdict
}

// New builds an Aggregator for one run.
func New(minConfidence float64, daysLookahead int, clock spider.Clock) *Aggregator {
	return &Aggregator{
		minConfidence: minConfidence,
		lookahead:     time.Duration(daysLookahead) * 24 * time.Hour,
		clock:         clock,
		entries:       make(map[string]entry),
	}
}

// Add applies the confidence filter and the lookahead window, then folds
// the event into the dedup map. Undated events pass the window filter;
// they cannot be time-filtered and are kept for manual review. Returns
// whether the event qualified.
func (a *Aggregator) Add(event spider.NormalizedEvent, verdict spider.Verdict) bool {
	if verdict.Confidence < a.minConfidence {
		return false
	}
	if event.StartTime != nil {
		now := a.clock.Now()
		if event.StartTime.Before(now) || event.StartTime.After(now.Add(a.lookahead)) {
			return false
		}
	}

	key := dedupKey(event)
	if existing, ok := a.entries[key]; ok {
		if !wins(event, verdict, existing.event, existing.verdict) {
			return true
		}
	}
	a.entries[key] = entry{event: event, verdict: verdict}
	return true
}

// wins decides a dedup collision: higher confidence first, then a more
// specific platform tag.
func wins(ev spider.NormalizedEvent, v spider.Verdict, oldEv spider.NormalizedEvent, oldV spider.Verdict) bool {
	if v.Confidence != oldV.Confidence {
		return v.Confidence > oldV.Confidence
	}
	return ev.Platform.Specific() && !oldEv.Platform.Specific()
}

// Finalize returns the deduplicated events sorted by start time, undated
// events last. It mutates nothing and may be called repeatedly.
func (a *Aggregator) Finalize() []spider.NormalizedEvent {
	out := make([]spider.NormalizedEvent, 0, len(a.entries))
	for _, e := range a.entries {
		ev := e.event
		ev.EventID = EventID(ev)
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.StartTime == nil && b.StartTime == nil:
			return a.EventID < b.EventID
		case a.StartTime == nil:
			return false
		case b.StartTime == nil:
			return true
		case !a.StartTime.Equal(*b.StartTime):
			return a.StartTime.Before(*b.StartTime)
		default:
			return a.EventID < b.EventID
		}
	})
	return out
}

// dedupKey is (title, location, start truncated to the minute), case and
// whitespace insensitive.
func dedupKey(ev spider.NormalizedEvent) string {
	start := "undated"
	if ev.StartTime != nil {
		start = ev.StartTime.Truncate(time.Minute).UTC().Format(time.RFC3339)
	}
	return strings.ToLower(strings.TrimSpace(ev.Title)) + "|" +
		strings.ToLower(strings.TrimSpace(ev.Location)) + "|" +
		start
}

// EventID derives a stable identifier from the event's identity fields so
// downstream consumers can upsert idempotently across runs.
func EventID(ev spider.NormalizedEvent) string {
	start := ""
	if ev.StartTime != nil {
		start = ev.StartTime.UTC().Format(time.RFC3339)
	}
	key := fmt.Sprintf("%s|%s|%s|%s",
		strings.ToLower(strings.TrimSpace(ev.Title)),
		start,
		strings.ToLower(strings.TrimSpace(ev.Location)),
		ev.SourceURL,
	)
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", sum)[:24]
}
