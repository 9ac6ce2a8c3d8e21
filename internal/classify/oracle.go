package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// ErrOracleUnavailable wraps every oracle failure so callers can downgrade
// to the heuristic verdict uniformly.
var ErrOracleUnavailable = errors.New("oracle unavailable")

// Oracle is the external text-classification service consulted for
// ambiguous pages.
type Oracle interface {
	Check(ctx context.Context, req OracleRequest) (OracleResponse, error)
}

// OracleRequest is the candidate context submitted for confirmation. Text
// is truncated client-side to keep the payload small.
type OracleRequest struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Location string `json:"location,omitempty"`
	Start    string `json:"start,omitempty"`
	Text     string `json:"text"`
}

// OracleResponse is the service's judgment. Proof is the exact page phrase
// supporting the verdict.
type OracleResponse struct {
	HasFreeFood bool    `json:"has_free_food"`
	Confidence  float64 `json:"confidence"`
	Proof       string  `json:"proof"`
}

// OracleConfig tunes the HTTP oracle client.
type OracleConfig struct {
	Endpoint   string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
	MaxChars   int
}

// HTTPOracle calls a JSON request/response classification endpoint.
type HTTPOracle struct {
	cfg    OracleConfig
	client *http.Client
	logger *zap.Logger
}

// NewHTTPOracle builds the client. The timeout bounds each attempt
// independently of the fetch pool's timeouts.
func NewHTTPOracle(cfg OracleConfig, logger *zap.Logger) *HTTPOracle {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 12 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = 3000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPOracle{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Check submits the candidate and parses the verdict, retrying within the
// small per-call budget. All failures surface as ErrOracleUnavailable.
func (o *HTTPOracle) Check(ctx context.Context, req OracleRequest) (OracleResponse, error) {
	if o.cfg.Endpoint == "" {
		return OracleResponse{}, fmt.Errorf("%w: no endpoint configured", ErrOracleUnavailable)
	}
	req.Text = truncateRunes(req.Text, o.cfg.MaxChars)

	payload, err := json.Marshal(struct {
		Model string `json:"model,omitempty"`
		OracleRequest
	}{Model: o.cfg.Model, OracleRequest: req})
	if err != nil {
		return OracleResponse{}, fmt.Errorf("%w: marshal request: %v", ErrOracleUnavailable, err)
	}

	var lastErr error
	for attempt := 0; attempt <= o.cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return OracleResponse{}, fmt.Errorf("%w: %v", ErrOracleUnavailable, ctx.Err())
		}
		resp, err := o.doRequest(ctx, payload)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		o.logger.Warn("oracle call failed",
			zap.String("url", req.URL),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	return OracleResponse{}, fmt.Errorf("%w: %v", ErrOracleUnavailable, lastErr)
}

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func (o *HTTPOracle) doRequest(ctx context.Context, payload []byte) (OracleResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return OracleResponse{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if o.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)
	}

	httpResp, err := o.client.Do(httpReq)
	if err != nil {
		return OracleResponse{}, fmt.Errorf("post: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	if httpResp.StatusCode != http.StatusOK {
		return OracleResponse{}, fmt.Errorf("status %d", httpResp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return OracleResponse{}, fmt.Errorf("read body: %w", err)
	}

	var out OracleResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return OracleResponse{}, fmt.Errorf("malformed response: %w", err)
	}
	if out.Confidence < 0 || out.Confidence > 1 {
		return OracleResponse{}, fmt.Errorf("confidence %v out of range", out.Confidence)
	}
	return out, nil
}
