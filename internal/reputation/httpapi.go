package reputation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"cidrscout/internal/domain"
)

const maxAPIResponseBytes = 1 << 20 // 1 MiB safety cap

// HTTPBackend queries a JSON reputation API (StopForumSpam style). The API
// reports how often an address appeared in abuse submissions plus its own
// confidence estimate.
type HTTPBackend struct {
	name    string
	baseURL string
	client  *http.Client
}

func NewHTTPBackend(name, baseURL string, timeout time.Duration) *HTTPBackend {
	return &HTTPBackend{
		name:    name,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (b *HTTPBackend) Name() string { return b.name }

func (b *HTTPBackend) Probe(ctx context.Context, ip string) domain.BackendResult {
	unknown := domain.BackendResult{Backend: b.name, Verdict: domain.VerdictUnknown, Confidence: 25}

	appears, confidence, err := b.query(ctx, ip)
	if err != nil {
		return unknown
	}

	if appears == 0 {
		return domain.BackendResult{Backend: b.name, Verdict: domain.VerdictClean, Confidence: 0}
	}

	if confidence > 100 {
		confidence = 100
	}
	return domain.BackendResult{Backend: b.name, Verdict: domain.VerdictListed, Confidence: confidence}
}

func (b *HTTPBackend) query(ctx context.Context, ip string) (int, float64, error) {
	endpoint := fmt.Sprintf("%s?ip=%s&json", b.baseURL, url.QueryEscape(ip))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		IP struct {
			Appears    int     `json:"appears"`
			Confidence float64 `json:"confidence"`
		} `json:"ip"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxAPIResponseBytes)).Decode(&payload); err != nil {
		return 0, 0, fmt.Errorf("decode response: %w", err)
	}

	confidence := payload.IP.Confidence
	if payload.IP.Appears != 0 && confidence == 0 {
		confidence = 50
	}

	return payload.IP.Appears, confidence, nil
}
