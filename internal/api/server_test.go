package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuseats/spider/internal/spider"
)

type fakeRunner struct {
	gotSeeds []string
	events   []spider.NormalizedEvent
	stats    spider.CrawlStats
	err      error
}

func (r *fakeRunner) Crawl(_ context.Context, seeds []string) ([]spider.NormalizedEvent, spider.CrawlStats, error) {
	r.gotSeeds = seeds
	return r.events, r.stats, r.err
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv := NewServer(0, &fakeRunner{}, zap.NewNop())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCrawlEndpoint(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 11, 2, 18, 0, 0, 0, time.UTC)
	runner := &fakeRunner{
		events: []spider.NormalizedEvent{{
			Title:      "Free Pizza Night",
			SourceURL:  "https://events.umass.edu/events/1",
			Platform:   spider.PlatformLocalist,
			StartTime:  &start,
			Confidence: 1.0,
		}},
		stats: spider.CrawlStats{PagesCrawled: 12, EventsFound: 3, EventsWithFood: 1},
	}
	srv := NewServer(0, runner, zap.NewNop())

	body := strings.NewReader(`{"seed_urls": ["https://events.umass.edu"]}`)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/crawl", body))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"https://events.umass.edu"}, runner.gotSeeds)

	var resp struct {
		Events []spider.NormalizedEvent `json:"events"`
		Stats  spider.CrawlStats        `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 1)
	require.Equal(t, "Free Pizza Night", resp.Events[0].Title)
	require.Equal(t, 12, resp.Stats.PagesCrawled)
}

func TestCrawlEndpointBadJSON(t *testing.T) {
	t.Parallel()

	srv := NewServer(0, &fakeRunner{}, zap.NewNop())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/crawl", strings.NewReader("{not json")))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCrawlEndpointNoSeeds(t *testing.T) {
	t.Parallel()

	srv := NewServer(0, &fakeRunner{err: spider.ErrNoSeeds}, zap.NewNop())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/crawl", strings.NewReader(`{"seed_urls": []}`)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "no valid seed urls")
}

func TestCrawlEndpointInternalError(t *testing.T) {
	t.Parallel()

	srv := NewServer(0, &fakeRunner{err: errors.New("boom")}, zap.NewNop())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/crawl", strings.NewReader(`{"seed_urls": ["https://events.umass.edu"]}`)))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	// Internal detail stays out of the response body.
	require.NotContains(t, rec.Body.String(), "boom")
}
