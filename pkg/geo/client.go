package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/zachbush96/treelead-backend/pkg/errors"
)

const (
	defaultCountryCode         = "us"
	errorBodyReadLimit   int64 = 1024
	defaultClientTimeout       = 10 * time.Second
)

var errBaseURLRequired = errors.New("geo base url is required")

// Client resolves ZIP centroids from a zippopotam-style lookup API. Results
// are cached for the process lifetime; ZIP centroids do not move.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	countryCode string

	mu    sync.RWMutex
	cache map[string]LatLng
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithCountryCode overrides the country segment used in lookups.
func WithCountryCode(code string) Option {
	return func(c *Client) {
		trimmed := strings.ToLower(strings.TrimSpace(code))
		if trimmed != "" {
			c.countryCode = trimmed
		}
	}
}

// NewClient builds a centroid lookup client for the given base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:     trimmed,
		countryCode: defaultCountryCode,
		httpClient:  &http.Client{Timeout: defaultClientTimeout},
		cache:       map[string]LatLng{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// Locate returns the centroid for the given ZIP.
func (c *Client) Locate(ctx context.Context, zip string) (LatLng, error) {
	if c == nil {
		return LatLng{}, pkgerrors.New(pkgerrors.CodeDependency, "geo client not configured")
	}
	trimmed := strings.TrimSpace(zip)
	if trimmed == "" {
		return LatLng{}, pkgerrors.New(pkgerrors.CodeValidation, "zip is required")
	}

	c.mu.RLock()
	cached, ok := c.cache[trimmed]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	lookupURL := fmt.Sprintf("%s/%s/%s", c.baseURL, c.countryCode, url.PathEscape(trimmed))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return LatLng{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build centroid request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return LatLng{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute centroid request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return LatLng{}, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("zip %s not found", trimmed))
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return LatLng{}, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "centroid request failed")
	}

	var apiResp struct {
		Places []struct {
			Latitude  string `json:"latitude"`
			Longitude string `json:"longitude"`
		} `json:"places"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return LatLng{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode centroid response")
	}
	if len(apiResp.Places) == 0 {
		return LatLng{}, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("zip %s has no places", trimmed))
	}

	lat, err := strconv.ParseFloat(apiResp.Places[0].Latitude, 64)
	if err != nil {
		return LatLng{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "parse centroid latitude")
	}
	lng, err := strconv.ParseFloat(apiResp.Places[0].Longitude, 64)
	if err != nil {
		return LatLng{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "parse centroid longitude")
	}

	point := LatLng{Latitude: lat, Longitude: lng}
	c.mu.Lock()
	c.cache[trimmed] = point
	c.mu.Unlock()

	return point, nil
}
