// Package sensorpush is a client for the SensorPush cloud API, which supplies
// sensor readings and the per-sensor alert configuration.
package sensorpush

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
)

const DefaultBaseURL = "https://api.sensorpush.com/api/v1"

// the API issues access tokens valid for roughly 30 minutes; refresh early
const tokenLifetime = 25 * time.Minute

const authMaxRetries = 4

// Client talks to the SensorPush Gateway Cloud API. All requests are bounded
// by the configured timeout and guarded by a circuit breaker so a provider
// outage fails the cycle instead of hanging it.
type Client struct {
	baseURL    string
	email      string
	password   string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewClient(baseURL, email, password string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		email:      email,
		password:   password,
		httpClient: &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "sensorpush",
			Timeout: 30 * time.Second,
		}),
	}
}

// Sensors returns all sensors registered to the account, keyed by sensor ID.
func (c *Client) Sensors(ctx context.Context) (map[string]Sensor, error) {
	slog.Debug(">>sensorpush.Sensors")
	defer slog.Debug("<<sensorpush.Sensors")

	sensors := make(map[string]Sensor)
	if err := c.post(ctx, "/devices/sensors", struct{}{}, &sensors); err != nil {
		return nil, err
	}

	// the API omits the map key inside each record on some firmware versions
	for id, s := range sensors {
		if s.ID == "" {
			s.ID = id
			sensors[id] = s
		}
	}

	return sensors, nil
}

// Samples returns the most recent samples for every sensor, keyed by sensor
// ID and ordered newest first. A limit of 1 fetches just the current reading.
func (c *Client) Samples(ctx context.Context, limit int) (map[string][]Sample, error) {
	slog.Debug(">>sensorpush.Samples")
	defer slog.Debug("<<sensorpush.Samples")

	var resp samplesResponse
	if err := c.post(ctx, "/samples", samplesRequest{Limit: limit}, &resp); err != nil {
		return nil, err
	}

	return resp.Sensors, nil
}

// post sends an authorized request through the circuit breaker.
func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	token, err := c.token(ctx)
	if err != nil {
		return fmt.Errorf("sensorpush authorization: %w", err)
	}

	_, err = c.breaker.Execute(func() (any, error) {
		status, err := c.doJSON(ctx, path, token, body, out)
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			// force a fresh token on the next call
			c.invalidateToken()
		}
		return nil, err
	})

	return err
}

// token returns a cached access token, authorizing with the API when the
// cached one is missing or about to expire.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	operation := func() error {
		return c.authorize(ctx)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), authMaxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return "", err
	}

	return c.accessToken, nil
}

// authorize performs the two-step oauth exchange: credentials buy an
// authorization code, the code buys an access token. Caller holds c.mu.
func (c *Client) authorize(ctx context.Context) error {
	slog.Debug(">>sensorpush.authorize")
	defer slog.Debug("<<sensorpush.authorize")

	var auth authorizeResponse
	if _, err := c.doJSON(ctx, "/oauth/authorize", "", authorizeRequest{Email: c.email, Password: c.password}, &auth); err != nil {
		return fmt.Errorf("authorize: %w", err)
	}

	var access accessTokenResponse
	if _, err := c.doJSON(ctx, "/oauth/accesstoken", "", accessTokenRequest{Authorization: auth.Authorization}, &access); err != nil {
		return fmt.Errorf("access token: %w", err)
	}

	c.accessToken = access.AccessToken
	c.tokenExpiry = time.Now().Add(tokenLifetime)

	return nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.accessToken = ""
	c.mu.Unlock()
}

func (c *Client) doJSON(ctx context.Context, path, token string, body any, out any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("request %s: status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s response: %w", path, err)
	}

	return resp.StatusCode, nil
}
