// Package upstream is the REST client for the external scoring and roster
// service. It fetches scorecards, participants and divisions and submits
// bulk division assignments.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/fairway/internal/domain/model"
	"github.com/okian/fairway/pkg/logger"
	"github.com/okian/fairway/pkg/metrics"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout         = 5 * time.Second
	defaultBreakerFailures = 5
	defaultBreakerOpen     = 15 * time.Second
	maxErrorBody           = 512
)

// Endpoint labels used in logs and metrics.
const (
	EndpointScorecards   = "scorecards"
	EndpointParticipants = "participants"
	EndpointDivisions    = "divisions"
	EndpointBulkAssign   = "bulk_assign"
)

// Client talks to one tournament on the upstream service.
type Client struct {
	base         *url.URL
	tournamentID string
	token        string
	timeout      time.Duration
	http         *http.Client
	limiter      *rate.Limiter

	breakerFailures uint32
	breakerOpen     time.Duration
	breaker         *gobreaker.CircuitBreaker

	logger logger.Logger
}

// New creates a client for baseURL and tournamentID.
func New(baseURL, tournamentID string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: base url %q", ErrInvalidConfig, baseURL)
	}
	if tournamentID == "" {
		return nil, fmt.Errorf("%w: tournament id is required", ErrInvalidConfig)
	}

	c := &Client{
		base:            u,
		tournamentID:    tournamentID,
		timeout:         defaultTimeout,
		http:            &http.Client{},
		limiter:         rate.NewLimiter(rate.Inf, 0),
		breakerFailures: defaultBreakerFailures,
		breakerOpen:     defaultBreakerOpen,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("upstream")
	}

	failures := c.breakerFailures
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "upstream-reads",
		Timeout: c.breakerOpen,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, ErrUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn(context.Background(), "circuit state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	})
	return c, nil
}

// FetchScorecards returns the scorecards of every participant.
func (c *Client) FetchScorecards(ctx context.Context) ([]model.ScorecardSnapshot, error) {
	var out []model.ScorecardSnapshot
	if err := c.read(ctx, EndpointScorecards, "scorecards", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchParticipants returns the tournament roster.
func (c *Client) FetchParticipants(ctx context.Context) ([]model.Participant, error) {
	var out []model.Participant
	if err := c.read(ctx, EndpointParticipants, "participants", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchDivisions returns every division and sub-division definition.
func (c *Client) FetchDivisions(ctx context.Context) ([]model.DivisionDefinition, error) {
	var out []model.DivisionDefinition
	if err := c.read(ctx, EndpointDivisions, "divisions", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitAssignments posts a bulk assignment. Writes bypass the circuit
// breaker so an operator action is never refused locally.
func (c *Client) SubmitAssignments(ctx context.Context, items []model.BulkAssignment) (model.BulkResult, error) {
	body, err := json.Marshal(struct {
		Assignments []model.BulkAssignment `json:"assignments"`
	}{Assignments: items})
	if err != nil {
		return model.BulkResult{}, fmt.Errorf("encode bulk assignment: %w", err)
	}

	var out model.BulkResult
	if err := c.do(ctx, EndpointBulkAssign, http.MethodPost, "divisions/bulk-assign", body, &out); err != nil {
		return model.BulkResult{}, err
	}
	return out, nil
}

func (c *Client) read(ctx context.Context, endpoint, path string, out any) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.do(ctx, endpoint, http.MethodGet, path, nil, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.RecordUpstreamRequest(endpoint, "circuit_open", 0)
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, endpoint, err)
	}
	return err
}

func (c *Client) do(ctx context.Context, endpoint, method, path string, body []byte, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %s: rate limit wait: %v", ErrUnavailable, endpoint, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordUpstreamRequest(endpoint, "transport_error", elapsed)
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, endpoint, err)
	}
	defer resp.Body.Close()
	metrics.RecordUpstreamRequest(endpoint, strconv.Itoa(resp.StatusCode), elapsed)

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: %s: status %d: %s", ErrUnavailable, endpoint, resp.StatusCode, snippet(resp.Body))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: %s: status %d: %s", ErrRejected, endpoint, resp.StatusCode, snippet(resp.Body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDecode, endpoint, err)
	}
	c.logger.Debug(ctx, "upstream call",
		logger.String("endpoint", endpoint),
		logger.Int("status", resp.StatusCode),
		logger.Float64("duration_ms", elapsed),
	)
	return nil
}

func (c *Client) url(path string) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/tournaments/" + url.PathEscape(c.tournamentID) + "/" + path
	return u.String()
}

func snippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return strings.TrimSpace(string(b))
}
