package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/ipqc-tracker/internal/common"
)

// ReadConfig configures the asynchronous cloud read API client.
type ReadConfig struct {
	Endpoint          string        // https://<resource>.cognitiveservices.azure.com
	APIKey            string
	PollAttempts      int           // default 30
	PollInterval      time.Duration // default 1s
	SubmitRetries     int           // retries on 429 when submitting, default 3, negative disables
	DefaultRetryAfter time.Duration // wait on 429 without a hint, default 20s
	Timeout           time.Duration // per HTTP request, default 30s
}

// ReadClient submits a page image to an asynchronous read API and polls the
// returned operation until the text is ready.
type ReadClient struct {
	cfg    ReadConfig
	http   *http.Client
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewReadClient(cfg ReadConfig, logger *slog.Logger) (*ReadClient, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.Endpoint = strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if cfg.Endpoint == "" {
		return nil, common.NewAppError(common.CodeConfig, "read api endpoint is required", common.ErrInvalidInput)
	}
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = 30
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.SubmitRetries < 0 {
		cfg.SubmitRetries = 0
	} else if cfg.SubmitRetries == 0 {
		cfg.SubmitRetries = 3
	}
	if cfg.DefaultRetryAfter <= 0 {
		cfg.DefaultRetryAfter = 20 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &ReadClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
		sleep:  sleepCtx,
	}, nil
}

func (c *ReadClient) Name() string { return "read-api" }

type readResult struct {
	Status        string `json:"status"`
	AnalyzeResult struct {
		ReadResults []struct {
			Lines []struct {
				Text string `json:"text"`
			} `json:"lines"`
		} `json:"readResults"`
	} `json:"analyzeResult"`
}

// Recognize returns the recognized lines of image joined by newlines.
// Polling gives up after PollAttempts with an error matching common.ErrTimeout.
func (c *ReadClient) Recognize(ctx context.Context, image []byte) (string, error) {
	reqID := uuid.New().String()
	start := time.Now()

	opURL, err := c.submit(ctx, reqID, image)
	if err != nil {
		return "", err
	}
	c.logger.Debug("ocr.read.submitted", "req_id", reqID, "operation", opURL)

	for attempt := 1; attempt <= c.cfg.PollAttempts; attempt++ {
		if err := c.sleep(ctx, c.cfg.PollInterval); err != nil {
			return "", err
		}
		res, wait, err := c.poll(ctx, opURL)
		if err != nil {
			return "", err
		}
		if wait > 0 {
			if err := c.sleep(ctx, wait); err != nil {
				return "", err
			}
			continue
		}
		switch strings.ToLower(res.Status) {
		case "succeeded":
			var lines []string
			for _, page := range res.AnalyzeResult.ReadResults {
				for _, ln := range page.Lines {
					lines = append(lines, ln.Text)
				}
			}
			c.logger.Info("ocr.read.ok", "req_id", reqID, "polls", attempt, "lines", len(lines), "elapsed_ms", time.Since(start).Milliseconds())
			return Normalize(strings.Join(lines, "\n")), nil
		case "failed":
			return "", fmt.Errorf("read operation failed")
		}
	}
	c.logger.Warn("ocr.read.timeout", "req_id", reqID, "polls", c.cfg.PollAttempts, "elapsed_ms", time.Since(start).Milliseconds())
	return "", common.TimeoutError(fmt.Sprintf("read operation not done after %d polls", c.cfg.PollAttempts))
}

func (c *ReadClient) submit(ctx context.Context, reqID string, image []byte) (string, error) {
	url := c.cfg.Endpoint + "/vision/v3.2/read/analyze"
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(image))
		if err != nil {
			return "", fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/octet-stream")
		req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.APIKey)

		resp, err := c.http.Do(req)
		if err != nil {
			return "", fmt.Errorf("submit: %w", err)
		}
		raw, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		switch {
		case resp.StatusCode/100 == 2:
			op := resp.Header.Get("Operation-Location")
			if op == "" {
				return "", fmt.Errorf("submit: no Operation-Location header")
			}
			return op, nil
		case resp.StatusCode == http.StatusTooManyRequests && attempt < c.cfg.SubmitRetries:
			wait := retryAfter(resp.Header, raw, c.cfg.DefaultRetryAfter)
			c.logger.Warn("ocr.read.rate_limited", "req_id", reqID, "attempt", attempt+1, "wait_ms", wait.Milliseconds())
			if err := c.sleep(ctx, wait); err != nil {
				return "", err
			}
		default:
			return "", fmt.Errorf("submit: status %d: %s", resp.StatusCode, truncate(string(raw), 512))
		}
	}
}

// poll fetches the operation once. A positive wait asks the caller to back off.
func (c *ReadClient) poll(ctx context.Context, opURL string) (readResult, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opURL, nil)
	if err != nil {
		return readResult{}, 0, fmt.Errorf("build poll request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return readResult{}, 0, fmt.Errorf("poll: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusTooManyRequests {
		return readResult{}, retryAfter(resp.Header, raw, c.cfg.PollInterval), nil
	}
	if resp.StatusCode != http.StatusOK {
		return readResult{}, 0, fmt.Errorf("poll: status %d: %s", resp.StatusCode, truncate(string(raw), 512))
	}
	var res readResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return readResult{}, 0, fmt.Errorf("decode poll response: %w", err)
	}
	return res, 0, nil
}

var reRetryAfterMsg = regexp.MustCompile(`(?i)retry after (\d+) seconds?`)

// retryAfter reads the Retry-After header, then a "retry after N seconds"
// hint in the error body (plus two seconds of slack), then falls back to def.
func retryAfter(h http.Header, body []byte, def time.Duration) time.Duration {
	if s := strings.TrimSpace(h.Get("Retry-After")); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			return time.Duration(n) * time.Second
		}
	}
	if m := reRetryAfterMsg.FindSubmatch(body); m != nil {
		n, _ := strconv.Atoi(string(m[1]))
		return time.Duration(n+2) * time.Second
	}
	return def
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
