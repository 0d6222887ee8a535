// Package petfinder provides the Petfinder v2 API client: authenticated
// requests, paginated animal listings, single-animal and organization lookups.
package petfinder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/annika-mcmullen/animal-shelter-insights/pkg/logging"
	"github.com/annika-mcmullen/animal-shelter-insights/pkg/pagination"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://api.petfinder.com/v2"

// Prometheus metrics for Petfinder client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "petfinder_requests_total",
		Help: "Total Petfinder requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "petfinder_request_duration_seconds",
		Help:    "Petfinder request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "petfinder_errors_total",
		Help: "Total Petfinder errors by class",
	}, []string{"class"})
)

// TokenSource supplies bearer tokens. *token.Manager implements it.
type TokenSource interface {
	Authenticate(ctx context.Context) bool
	EnsureValid(ctx context.Context) bool
	Token() string
	Invalidate()
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API root, e.g. https://api.petfinder.com/v2.
	BaseURL string

	// UserAgent header sent with every request.
	UserAgent string

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// MaxRequestsPerSecond is a client-side ceiling on request rate; 0 disables it.
	MaxRequestsPerSecond float64

	// Pagination configures GetAnimals.
	Pagination pagination.Config
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:              DefaultBaseURL,
		UserAgent:            "animal-shelter-insights/0.1.0",
		Timeout:              30 * time.Second,
		MaxRequestsPerSecond: 5,
		Pagination:           pagination.DefaultConfig(),
	}
}

// Client is the Petfinder API client.
type Client struct {
	httpClient *http.Client
	tokens     TokenSource
	limiter    *rate.Limiter
	config     Config
	logger     zerolog.Logger
}

// New creates a new Petfinder client.
func New(cfg Config, tokens TokenSource) (*Client, error) {
	if tokens == nil {
		return nil, fmt.Errorf("token source is required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.MaxRequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.MaxRequestsPerSecond), 1)
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		tokens:     tokens,
		limiter:    limiter,
		config:     cfg,
		logger:     logging.NewLogger("petfinder-client"),
	}, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Authenticate forces a token exchange.
func (c *Client) Authenticate(ctx context.Context) bool {
	return c.tokens.Authenticate(ctx)
}

// animalsResponse is the listing endpoint body.
type animalsResponse struct {
	Animals    []json.RawMessage `json:"animals"`
	Pagination *struct {
		CountPerPage int `json:"count_per_page"`
		TotalCount   int `json:"total_count"`
		CurrentPage  int `json:"current_page"`
		TotalPages   int `json:"total_pages"`
	} `json:"pagination"`
}

// FetchAnimalsPage requests one listing page. The returned page carries the raw
// animal payloads and the server-reported page count (0 when absent).
func (c *Client) FetchAnimalsPage(ctx context.Context, f Filters) (pagination.Page[json.RawMessage], error) {
	if err := f.Validate(); err != nil {
		return pagination.Page[json.RawMessage]{}, err
	}

	var body animalsResponse
	if err := c.getJSON(ctx, "/animals", "/animals", f.Query(), &body); err != nil {
		return pagination.Page[json.RawMessage]{}, err
	}

	page := pagination.Page[json.RawMessage]{Items: body.Animals}
	if body.Pagination != nil {
		page.TotalPages = body.Pagination.TotalPages
	}
	return page, nil
}

// GetAnimals walks every listing page for f, starting at f.Page (default 1).
// A failed request ends the walk; animals from earlier pages are returned and
// the failure is reported in the result.
func (c *Client) GetAnimals(ctx context.Context, f Filters) ([]json.RawMessage, pagination.Result) {
	cfg := c.config.Pagination
	if f.Page > 0 {
		cfg.StartPage = f.Page
	}

	return pagination.Collect(ctx, cfg, func(ctx context.Context, page int) (pagination.Page[json.RawMessage], error) {
		return c.FetchAnimalsPage(ctx, f.WithPage(page))
	})
}

// GetAnimalByID fetches a single animal payload.
func (c *Client) GetAnimalByID(ctx context.Context, id string) (json.RawMessage, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("animal id is required")
	}

	var body struct {
		Animal json.RawMessage `json:"animal"`
	}
	if err := c.getJSON(ctx, "/animals/"+url.PathEscape(id), "/animals/{id}", nil, &body); err != nil {
		return nil, err
	}
	if len(body.Animal) == 0 || string(body.Animal) == "null" {
		return nil, &APIError{StatusCode: http.StatusOK, ErrorClass: ErrorClassClient, Message: "response has no animal"}
	}
	return body.Animal, nil
}

// GetOrganizations fetches one page of organizations (no pagination loop).
func (c *Client) GetOrganizations(ctx context.Context, f OrganizationFilters) ([]json.RawMessage, error) {
	var body struct {
		Organizations []json.RawMessage `json:"organizations"`
	}
	if err := c.getJSON(ctx, "/organizations", "/organizations", f.Query(), &body); err != nil {
		return nil, err
	}
	return body.Organizations, nil
}

// getJSON performs an authenticated GET and decodes the JSON body into out.
// label is the endpoint name used for metrics and logs.
func (c *Client) getJSON(ctx context.Context, path, label string, query url.Values, out any) error {
	if !c.tokens.EnsureValid(ctx) {
		errorsTotal.WithLabelValues(string(ErrorClassAuth)).Inc()
		requestsTotal.WithLabelValues(label, "unauthenticated").Inc()
		return &APIError{ErrorClass: ErrorClassAuth, Message: "no valid token", Err: ErrNotAuthenticated}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	target := c.config.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.tokens.Token())
	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	c.logger.Debug().
		Str("endpoint", label).
		Str("query", query.Encode()).
		Msg("Executing Petfinder request")

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	requestDuration.WithLabelValues(label).Observe(time.Since(startTime).Seconds())
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(label, "network_error").Inc()
		c.logger.Error().Err(err).Str("endpoint", label).Msg("HTTP request failed")
		return &APIError{ErrorClass: ErrorClassNetwork, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(label, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		class := classifyStatus(resp.StatusCode)
		errorsTotal.WithLabelValues(string(class)).Inc()
		if class == ErrorClassAuth {
			c.tokens.Invalidate()
		}

		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn().
			Str("endpoint", label).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Str("body", strings.TrimSpace(string(snippet))).
			Msg("Petfinder request error")

		return &APIError{StatusCode: resp.StatusCode, ErrorClass: class, Message: resp.Status}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return &APIError{StatusCode: resp.StatusCode, ErrorClass: ErrorClassNetwork, Message: "decode response", Err: err}
	}
	return nil
}
