// Package fetch implements the bounded-retry HTTP fetch pool on top of a
// Colly collector.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/campuseats/spider/internal/metrics"
	"github.com/campuseats/spider/internal/spider"
)

// Config tunes the fetch client.
type Config struct {
	UserAgent       string
	RequestTimeout  time.Duration
	MaxRetries      int
	BackoffInitial  time.Duration
	BackoffMax      time.Duration
	Concurrency     int
	PolitenessDelay time.Duration
}

// Client fetches pages. The global concurrency cap lives in the scheduler;
// the client enforces per-host politeness and retries independently, so a
// slow host never starves the pool yet never gets hammered.
type Client struct {
	base   *colly.Collector
	hosts  *hostLimiters
	retry  *retryPolicy
	logger *zap.Logger
}

// fetchAttempt carries one collector round trip back to the caller.
type fetchAttempt struct {
	statusCode  int
	body        []byte
	contentType string
	err         error
}

// NewClient builds a fetch client with a tuned shared transport.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 20 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	base := colly.NewCollector(
		colly.Async(true),
		colly.UserAgent(cfg.UserAgent),
	)
	base.AllowURLRevisit = true
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          128,
		MaxIdleConnsPerHost:   32,
		MaxConnsPerHost:       cfg.Concurrency * 2,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.RequestTimeout,
		ForceAttemptHTTP2:     true,
	})
	base.SetRequestTimeout(cfg.RequestTimeout)

	return &Client{
		base:   base,
		hosts:  newHostLimiters(cfg.PolitenessDelay),
		retry:  newRetryPolicy(cfg.MaxRetries, cfg.BackoffInitial, cfg.BackoffMax),
		logger: logger,
	}, nil
}

// Fetch retrieves a task's URL, retrying transient failures with backoff.
// The returned result always carries a status; the error adds detail for
// logging and is non-nil exactly when the status is not ok.
func (c *Client) Fetch(ctx context.Context, task spider.CrawlTask) (spider.FetchResult, error) {
	host := spider.Host(task.URL)
	result := spider.FetchResult{URL: task.URL, Status: spider.FetchError}

	var lastErr error
	for attempt := 1; ; attempt++ {
		if err := c.hosts.Wait(ctx, host); err != nil {
			result.FetchedAt = time.Now().UTC()
			return result, err
		}

		att := c.doFetch(ctx, task.URL)
		result.StatusCode = att.statusCode
		result.FetchedAt = time.Now().UTC()

		if att.err == nil && att.statusCode < 400 {
			result.Status = spider.FetchOK
			result.Body = att.body
			result.ContentType = att.contentType
			return result, nil
		}

		lastErr = att.err
		if lastErr == nil {
			lastErr = &httpStatusError{code: att.statusCode}
		}
		if !c.retry.retryable(att.err, att.statusCode, attempt) {
			break
		}
		metrics.ObserveFetchRetry()
		c.logger.Debug("retrying fetch",
			zap.String("url", task.URL),
			zap.Int("attempt", attempt),
			zap.Int("status_code", att.statusCode),
			zap.Error(att.err),
		)

		timer := time.NewTimer(c.retry.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			result.Status = spider.FetchError
			return result, ctx.Err()
		case <-timer.C:
		}
	}

	if isTimeout(lastErr) {
		result.Status = spider.FetchTimeout
	}
	return result, lastErr
}

// doFetch performs one request via a cloned collector, bridging Colly's
// callback style to a single synchronous attempt.
func (c *Client) doFetch(ctx context.Context, url string) fetchAttempt {
	collector := c.base.Clone()
	resultCh := make(chan fetchAttempt, 1)
	var once sync.Once
	send := func(att fetchAttempt) {
		once.Do(func() { resultCh <- att })
	}

	collector.OnResponse(func(r *colly.Response) {
		contentType := ""
		if r.Headers != nil {
			contentType = r.Headers.Get("Content-Type")
		}
		send(fetchAttempt{
			statusCode:  r.StatusCode,
			body:        append([]byte{}, r.Body...),
			contentType: contentType,
		})
	})
	collector.OnError(func(r *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown colly error")
		}
		att := fetchAttempt{err: err}
		if r != nil {
			att.statusCode = r.StatusCode
		}
		send(att)
	})

	if err := collector.Visit(url); err != nil {
		return fetchAttempt{err: err}
	}

	done := make(chan struct{})
	go func() {
		collector.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return fetchAttempt{err: ctx.Err()}
	case <-done:
	}

	select {
	case att := <-resultCh:
		return att
	default:
		return fetchAttempt{err: errors.New("no response received")}
	}
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// httpStatusError surfaces non-2xx responses that Colly reports without an
// underlying transport error.
type httpStatusError struct {
	code int
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("http status %d %s", e.code, http.StatusText(e.code))
}
