package spider

import (
	"time"
)

// Frontier holds the not-yet-fetched URLs in two FIFO queues plus the
// visited set. It is not safe for concurrent use: only the scheduler
// goroutine touches it, workers report discovered links back over a
// channel.
type Frontier struct {
	priority []CrawlTask
	normal   []CrawlTask

	// visited maps normalized URL to the shallowest depth it was seen at.
	// URLs are marked here at enqueue time so concurrently discovered
	// duplicates cannot enqueue twice.
	visited map[string]int

	allowedHosts map[string]struct{}
	maxDepth     int
	sameSiteOnly bool
}

// EnqueueOutcome explains why a URL was or was not admitted.
type EnqueueOutcome int

// Enqueue outcomes.
const (
	Enqueued EnqueueOutcome = iota
	SkipVisited
	SkipTooDeep
	SkipOffSite
	SkipMalformed
)

// NewFrontier builds a frontier bounded by maxDepth. When sameSiteOnly is
// set, only hosts appearing in the seed list are admitted.
func NewFrontier(maxDepth int, sameSiteOnly bool) *Frontier {
	return &Frontier{
		visited:      make(map[string]int),
		allowedHosts: make(map[string]struct{}),
		maxDepth:     maxDepth,
		sameSiteOnly: sameSiteOnly,
	}
}

// Seed admits the starting URLs at depth zero and records their hosts as
// the same-site allow-list.
func (f *Frontier) Seed(urls []string, now time.Time) int {
	admitted := 0
	for _, raw := range urls {
		if h := Host(raw); h != "" {
			f.allowedHosts[h] = struct{}{}
		}
		if f.Enqueue(raw, 0, now) == Enqueued {
			admitted++
		}
	}
	return admitted
}

// Enqueue admits a URL at the given depth, routing event-like URLs to the
// priority queue. The URL is marked visited immediately.
func (f *Frontier) Enqueue(rawURL string, depth int, now time.Time) EnqueueOutcome {
	norm, err := NormalizeURL(rawURL)
	if err != nil {
		return SkipMalformed
	}
	if depth > f.maxDepth {
		return SkipTooDeep
	}
	if f.sameSiteOnly && depth > 0 {
		if _, ok := f.allowedHosts[Host(norm)]; !ok {
			return SkipOffSite
		}
	}
	if seen, ok := f.visited[norm]; ok {
		// Track the shallowest discovery depth but never re-process.
		if depth < seen {
			f.visited[norm] = depth
		}
		return SkipVisited
	}
	f.visited[norm] = depth

	task := CrawlTask{URL: norm, Depth: depth, DiscoveredAt: now}
	if IsEventLike(norm) {
		f.priority = append(f.priority, task)
	} else {
		f.normal = append(f.normal, task)
	}
	return Enqueued
}

// Pop returns the next task, draining the priority queue before the normal
// queue. Within a queue, discovery order is preserved.
func (f *Frontier) Pop() (CrawlTask, bool) {
	if len(f.priority) > 0 {
		task := f.priority[0]
		f.priority = f.priority[1:]
		return task, true
	}
	if len(f.normal) > 0 {
		task := f.normal[0]
		f.normal = f.normal[1:]
		return task, true
	}
	return CrawlTask{}, false
}

// Len reports how many tasks are waiting.
func (f *Frontier) Len() int {
	return len(f.priority) + len(f.normal)
}

// Visited reports whether a URL has ever been admitted.
func (f *Frontier) Visited(rawURL string) bool {
	norm, err := NormalizeURL(rawURL)
	if err != nil {
		return false
	}
	_, ok := f.visited[norm]
	return ok
}

// VisitedCount returns the size of the visited set.
func (f *Frontier) VisitedCount() int {
	return len(f.visited)
}
