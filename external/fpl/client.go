package fpl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/predict-league/internal/platform/logging"
	"github.com/riskibarqy/predict-league/internal/platform/resilience"
	"github.com/riskibarqy/predict-league/internal/usecase"
)

const defaultBaseURL = "https://fantasy.premierleague.com/api"

var errFPLTransient = crerr.New("fpl transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads the public Fantasy Premier League API. The API needs no
// authentication but throttles aggressively, so every fetch goes through a
// circuit breaker and concurrent identical requests are collapsed.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 15 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

func (c *Client) FetchBootstrap(ctx context.Context) (usecase.ExternalBootstrap, error) {
	var envelope bootstrapEnvelope
	if _, err := c.doJSON(ctx, "/bootstrap-static/", nil, &envelope); err != nil {
		return usecase.ExternalBootstrap{}, fmt.Errorf("fetch bootstrap: %w", err)
	}

	teams := make([]usecase.ExternalTeam, 0, len(envelope.Teams))
	for _, item := range envelope.Teams {
		if item.ID <= 0 || strings.TrimSpace(item.Name) == "" {
			continue
		}
		teams = append(teams, usecase.ExternalTeam{
			ExternalID: item.ID,
			Name:       strings.TrimSpace(item.Name),
			ShortName:  strings.TrimSpace(item.ShortName),
			Strength:   item.StrengthOverall,
		})
	}

	events := make([]usecase.ExternalEvent, 0, len(envelope.Events))
	for _, item := range envelope.Events {
		if item.ID <= 0 {
			continue
		}
		event := usecase.ExternalEvent{
			ID:        item.ID,
			Name:      strings.TrimSpace(item.Name),
			Finished:  item.Finished,
			IsCurrent: item.IsCurrent,
			IsNext:    item.IsNext,
		}
		if parsed := parseProviderDateTime(item.DeadlineTime); parsed != nil {
			event.DeadlineAt = *parsed
		}
		events = append(events, event)
	}

	return usecase.ExternalBootstrap{Teams: teams, Events: events}, nil
}

func (c *Client) FetchFixturesByGameweek(ctx context.Context, gameweek int) ([]usecase.ExternalFixture, error) {
	if gameweek <= 0 {
		return nil, fmt.Errorf("gameweek must be greater than zero")
	}

	query := map[string]string{"event": strconv.Itoa(gameweek)}
	var items []fixtureItem
	if _, err := c.doJSON(ctx, "/fixtures/", query, &items); err != nil {
		return nil, fmt.Errorf("fetch fixtures gameweek=%d: %w", gameweek, err)
	}

	out := make([]usecase.ExternalFixture, 0, len(items))
	for _, item := range items {
		mapped, ok := mapFixture(item)
		if !ok {
			continue
		}
		out = append(out, mapped)
	}
	return out, nil
}

func mapFixture(item fixtureItem) (usecase.ExternalFixture, bool) {
	if item.ID <= 0 || item.Event == nil || *item.Event <= 0 {
		return usecase.ExternalFixture{}, false
	}
	if item.KickoffTime == nil {
		return usecase.ExternalFixture{}, false
	}
	kickoff := parseProviderDateTime(*item.KickoffTime)
	if kickoff == nil {
		return usecase.ExternalFixture{}, false
	}

	started := false
	if item.Started != nil {
		started = *item.Started
	}

	return usecase.ExternalFixture{
		ExternalID:          item.ID,
		Gameweek:            *item.Event,
		HomeTeamExternalID:  item.TeamH,
		AwayTeamExternalID:  item.TeamA,
		KickoffAt:           *kickoff,
		Started:             started,
		Minutes:             item.Minutes,
		HomeScore:           item.TeamHScore,
		AwayScore:           item.TeamAScore,
		Finished:            item.Finished,
		FinishedProvisional: item.FinishedProvisional,
	}, true
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "fpl circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: fixture provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}

	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	key := path + "?" + values.Encode()
	out, err, _ := c.flight.Do(key, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && crerr.Is(reqErr, errFPLTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected response payload type %T", out)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return nil, fmt.Errorf("decode provider payload: %w", err)
	}

	return raw, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errFPLTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 6<<20))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errFPLTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else if isRetryableStatus(resp.StatusCode) {
				lastErr = fmt.Errorf("%w: provider status=%d body=%s", errFPLTransient, resp.StatusCode, abbreviateBody(raw))
			} else {
				return nil, fmt.Errorf("provider status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("provider request failed")
	}
	c.logger.WarnContext(ctx, "fpl request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func parseProviderDateTime(raw string) *time.Time {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}

	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			v := parsed.UTC()
			return &v
		}
	}
	return nil
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func abbreviateBody(raw []byte) string {
	const maxLen = 512
	text := strings.TrimSpace(string(raw))
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
