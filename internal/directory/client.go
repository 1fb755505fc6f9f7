// Package directory talks to a BGPView-style ASN directory: operator search
// per country and prefix listing per operator.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/net/proxy"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"cidrscout/internal/config"
	"cidrscout/internal/domain"
)

const maxResponseBytes = 10 << 20 // 10 MiB safety cap

// Client queries the directory over HTTP. Identical concurrent searches are
// collapsed with singleflight and all requests share one rate limiter so the
// aggregate request rate stays inside what the directory tolerates.
type Client struct {
	cfg     config.DirectoryConfig
	client  *http.Client
	limiter *rate.Limiter
	flight  singleflight.Group

	mu  sync.Mutex
	rng *rand.Rand
}

// NewClient builds a directory client. When cfg.SocksProxy is set, requests
// are dialed through it; the original deployments reach the directory via a
// relay for the same reason.
func NewClient(cfg config.DirectoryConfig, rng *rand.Rand) (*Client, error) {
	transport := &http.Transport{
		DisableKeepAlives: true,
	}

	if cfg.SocksProxy != "" {
		socksDialer, err := proxy.SOCKS5("tcp", cfg.SocksProxy, nil, &net.Dialer{
			Timeout: time.Duration(cfg.TimeoutMs) * time.Millisecond,
		})
		if err != nil {
			return nil, fmt.Errorf("directory: socks dialer: %w", err)
		}
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return socksDialer.Dial(network, addr)
		}
	}

	gap := time.Duration(cfg.RequestGapMs) * time.Millisecond
	limiter := rate.NewLimiter(rate.Inf, 1)
	if gap > 0 {
		limiter = rate.NewLimiter(rate.Every(gap), 1)
	}

	return &Client{
		cfg: cfg,
		client: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.TimeoutMs) * time.Millisecond,
		},
		limiter: limiter,
		rng:     rng,
	}, nil
}

type searchResponse struct {
	Data struct {
		ASNs []struct {
			ASN         int    `json:"asn"`
			Name        string `json:"name"`
			Description string `json:"description"`
			CountryCode string `json:"country_code"`
		} `json:"asns"`
	} `json:"data"`
}

type prefixesResponse struct {
	Data struct {
		IPv4Prefixes []struct {
			Prefix string `json:"prefix"`
		} `json:"ipv4_prefixes"`
	} `json:"data"`
}

// SearchOperators returns the raw operator records the directory knows for a
// country code. Records come back untiered; classification happens later.
func (c *Client) SearchOperators(ctx context.Context, country string) ([]domain.OperatorRecord, error) {
	result, err, _ := c.flight.Do("search:"+country, func() (interface{}, error) {
		var payload searchResponse
		if err := c.get(ctx, c.cfg.BaseURL+"/search?query_term="+url.QueryEscape(country), &payload); err != nil {
			return nil, err
		}

		records := make([]domain.OperatorRecord, 0, len(payload.Data.ASNs))
		for _, entry := range payload.Data.ASNs {
			if entry.ASN == 0 {
				continue
			}
			records = append(records, domain.OperatorRecord{
				OperatorID:  strconv.Itoa(entry.ASN),
				DisplayName: entry.Name,
				Description: entry.Description,
				CountryCode: entry.CountryCode,
			})
		}
		return records, nil
	})
	if err != nil {
		return nil, err
	}

	records, _ := result.([]domain.OperatorRecord)
	return records, nil
}

// ListPrefixes returns up to PrefixSample IPv4 prefixes announced by the
// operator, keeping only blocks in the configured residential size window.
func (c *Client) ListPrefixes(ctx context.Context, operatorID string) ([]string, error) {
	var payload prefixesResponse
	if err := c.get(ctx, c.cfg.BaseURL+"/asn/"+url.PathEscape(operatorID)+"/prefixes", &payload); err != nil {
		return nil, err
	}

	prefixes := make([]string, 0, len(payload.Data.IPv4Prefixes))
	for _, entry := range payload.Data.IPv4Prefixes {
		_, network, err := net.ParseCIDR(entry.Prefix)
		if err != nil || network.IP.To4() == nil {
			continue
		}
		ones, bits := network.Mask.Size()
		if bits != 32 {
			continue
		}
		if ones < c.cfg.MinPrefixBits || ones > c.cfg.MaxPrefixBits {
			continue
		}
		prefixes = append(prefixes, entry.Prefix)
	}

	if c.cfg.PrefixSample > 0 && len(prefixes) > c.cfg.PrefixSample {
		prefixes = c.samplePrefixes(prefixes, c.cfg.PrefixSample)
	}

	return prefixes, nil
}

func (c *Client) samplePrefixes(prefixes []string, n int) []string {
	c.mu.Lock()
	c.rng.Shuffle(len(prefixes), func(i, j int) {
		prefixes[i], prefixes[j] = prefixes[j], prefixes[i]
	})
	c.mu.Unlock()
	return prefixes[:n]
}

func (c *Client) get(ctx context.Context, target string, out any) error {
	if c.cfg.RelayURL != "" {
		target = c.cfg.RelayURL + "?url=" + url.QueryEscape(target)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		log.Debug("Directory request failed", "status", resp.StatusCode, "body_len", len(body))
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
