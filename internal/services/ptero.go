package services

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

	"golang.org/x/time/rate"

	"github.com/Xreatlabs/Helium-sub000/internal/backoff"
	"github.com/Xreatlabs/Helium-sub000/internal/models"
)

const maxResponseBody = 10 << 20

// PteroOptions tunes a PteroClient. Start from DefaultPteroOptions.
type PteroOptions struct {
	MaxRetries        int
	RetryDelay        time.Duration
	CacheTTL          time.Duration
	Cache             ResponseCache
	HTTPClient        *http.Client
	RequestsPerSecond float64
	Metrics           *MetricsCollector
	Sleep             backoff.Sleeper
}

func DefaultPteroOptions() PteroOptions {
	return PteroOptions{
		MaxRetries: 3,
		RetryDelay: time.Second,
		CacheTTL:   60 * time.Second,
	}
}

// PteroClient talks to the Pterodactyl application API.
// It retries transient failures, honours 429 Retry-After hints and keeps a
// short-lived read cache that mutations evict before they return.
type PteroClient struct {
	baseURL    string
	apiKey     string
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
	cacheTTL   time.Duration
	cache      ResponseCache
	limiter    *rate.Limiter
	metrics    *MetricsCollector
	sleep      backoff.Sleeper
	now        func() time.Time
	rateLimit  rateLimitState
	evictions  evictionLog
}

func NewPteroClient(domain, apiKey string, opts PteroOptions) *PteroClient {
	c := &PteroClient{
		baseURL:    strings.TrimSuffix(domain, "/"),
		apiKey:     apiKey,
		client:     opts.HTTPClient,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		cacheTTL:   opts.CacheTTL,
		cache:      opts.Cache,
		metrics:    opts.Metrics,
		sleep:      opts.Sleep,
		now:        time.Now,
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: 30 * time.Second}
	}
	if c.maxRetries < 0 {
		c.maxRetries = 0
	}
	if c.retryDelay <= 0 {
		c.retryDelay = time.Second
	}
	if c.cache == nil {
		c.cache = NewMemoryCache()
	}
	if c.sleep == nil {
		c.sleep = backoff.Sleep
	}
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return c
}

type pteroRequest struct {
	method string
	path   string
	query  url.Values
	body   any

	// reads only
	scope string
	fresh bool

	// scopes evicted after a successful mutation
	evict []string

	singleAttempt bool
}

func (r *pteroRequest) cacheable() bool {
	return r.method == http.MethodGet && r.scope != ""
}

func (r *pteroRequest) cacheKey() string {
	key := r.method + " " + r.path
	if len(r.query) > 0 {
		key += "?" + r.query.Encode()
	}
	return key
}

// do runs a request through the cache and retry policy.
func (c *PteroClient) do(ctx context.Context, req *pteroRequest) ([]byte, error) {
	if req.cacheable() && !req.fresh {
		if data, ok, err := c.cache.Get(ctx, req.cacheKey()); err == nil && ok {
			c.metrics.RecordCacheHit()
			return data, nil
		}
	}
	var token evictionToken
	if req.cacheable() {
		c.metrics.RecordCacheMiss()
		token = c.evictions.token(req.scope)
	}

	data, err := c.execute(ctx, req)
	if err != nil {
		return nil, err
	}

	// skip the write if a mutation evicted this scope while the read was in flight.
	// An eviction landing between the check and the write is caught by the recheck.
	if req.cacheable() && c.evictions.token(req.scope) == token {
		// a failed cache write only costs a future network call
		_ = c.cache.Set(ctx, req.cacheKey(), req.scope, data, c.cacheTTL)
		if c.evictions.token(req.scope) != token {
			_ = c.cache.InvalidateScope(ctx, req.scope)
		}
	}

	var evictErrs []error
	for _, scope := range req.evict {
		c.evictions.evicted(scope)
		if err := c.cache.InvalidateScope(ctx, scope); err != nil {
			evictErrs = append(evictErrs, fmt.Errorf("evict %s: %w", scope, err))
		}
	}
	if len(evictErrs) > 0 {
		return data, fmt.Errorf("pterodactyl %s %s succeeded but cache eviction failed: %w",
			req.method, req.path, errors.Join(evictErrs...))
	}

	return data, nil
}

// execute performs the HTTP exchange with bounded retries.
// 429 and 5xx are retried, as are network errors; other statuses fail at once.
func (c *PteroClient) execute(ctx context.Context, req *pteroRequest) ([]byte, error) {
	maxRetries := c.maxRetries
	if req.singleAttempt {
		maxRetries = 0
	}

	var payload []byte
	if req.body != nil {
		var err error
		if payload, err = json.Marshal(req.body); err != nil {
			return nil, fmt.Errorf("pterodactyl %s %s: failed to marshal request body: %w", req.method, req.path, err)
		}
	}

	for attempt := 0; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("pterodactyl %s %s: %w", req.method, req.path, err)
			}
		}

		status, header, body, err := c.send(ctx, req, payload)
		if err != nil {
			if ctx.Err() != nil || attempt >= maxRetries || errors.Is(err, errBuildRequest) {
				return nil, fmt.Errorf("pterodactyl %s %s: %w", req.method, req.path, err)
			}
			c.metrics.RecordPteroRetry("network")
			if err := c.sleep(ctx, backoff.Exponential(c.retryDelay, attempt)); err != nil {
				return nil, err
			}
			continue
		}

		switch {
		case status == http.StatusTooManyRequests:
			if attempt >= maxRetries {
				return nil, newAPIError(req.method, req.path, status, body, ErrRateLimitExceeded)
			}
			delay, ok := backoff.ParseRetryAfter(header.Get("Retry-After"))
			if !ok {
				delay = backoff.Exponential(c.retryDelay, attempt)
			}
			c.metrics.RecordPteroRetry("rate_limited")
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
			continue

		case IsRetryable(status):
			if attempt >= maxRetries {
				return nil, newAPIError(req.method, req.path, status, body, nil)
			}
			c.metrics.RecordPteroRetry("server_error")
			if err := c.sleep(ctx, backoff.Exponential(c.retryDelay, attempt)); err != nil {
				return nil, err
			}
			continue

		case status < 200 || status >= 300:
			return nil, newAPIError(req.method, req.path, status, body, nil)
		}

		c.rateLimit.observe(header)
		return body, nil
	}
}

// errBuildRequest marks failures that happen before anything is sent; retrying cannot help.
var errBuildRequest = errors.New("failed to create request")

func (c *PteroClient) send(ctx context.Context, req *pteroRequest, payload []byte) (int, http.Header, []byte, error) {
	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("%w: %v", errBuildRequest, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := c.now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.metrics.RecordPteroAttempt(req.method, 0, c.now().Sub(start))
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	c.metrics.RecordPteroAttempt(req.method, resp.StatusCode, c.now().Sub(start))
	if err != nil {
		return 0, nil, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return resp.StatusCode, resp.Header, data, nil
}

// HealthCheck issues one minimal uncached read. It never returns an error;
// failures are reported in the result.
func (c *PteroClient) HealthCheck(ctx context.Context) models.HealthStatus {
	_, err := c.execute(ctx, &pteroRequest{
		method:        http.MethodGet,
		path:          "/api/application/users",
		query:         url.Values{"per_page": {"1"}},
		singleAttempt: true,
	})
	now := c.now().UTC()
	if err != nil {
		return models.HealthStatus{
			Status:    models.Unhealthy,
			Message:   "Pterodactyl API is unreachable",
			Timestamp: now,
			Error:     err.Error(),
		}
	}
	return models.HealthStatus{
		Status:    models.Healthy,
		Message:   "Pterodactyl API is reachable",
		Timestamp: now,
	}
}

func listQuery(opts models.ListOptions) url.Values {
	q := url.Values{}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(opts.PerPage))
	}
	for k, v := range opts.Filters {
		q.Set("filter["+k+"]", v)
	}
	if len(opts.Include) > 0 {
		q.Set("include", strings.Join(opts.Include, ","))
	}
	return q
}

func serverPath(id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", errors.New("server id is required")
	}
	return "/api/application/servers/" + url.PathEscape(id), nil
}

func serverScope(id string) string { return "servers/" + id }

func userScope(id int) string { return "users/" + strconv.Itoa(id) }

func decodeObject[T any](data []byte) (*T, error) {
	var obj models.PteroObject[T]
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("failed to decode pterodactyl response: %w", err)
	}
	return &obj.Attributes, nil
}

func decodeList[T any](data []byte) (*models.PteroList[T], error) {
	var list models.PteroList[T]
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to decode pterodactyl response: %w", err)
	}
	return &list, nil
}

func (c *PteroClient) ListUsers(ctx context.Context, opts models.ListOptions, fresh bool) (*models.PteroList[models.User], error) {
	data, err := c.do(ctx, &pteroRequest{
		method: http.MethodGet,
		path:   "/api/application/users",
		query:  listQuery(opts),
		scope:  "users",
		fresh:  fresh,
	})
	if err != nil {
		return nil, err
	}
	return decodeList[models.User](data)
}

// GetUser loads one panel user, optionally with its servers
func (c *PteroClient) GetUser(ctx context.Context, id int, withServers, fresh bool) (*models.User, error) {
	q := url.Values{}
	if withServers {
		q.Set("include", "servers")
	}
	data, err := c.do(ctx, &pteroRequest{
		method: http.MethodGet,
		path:   "/api/application/users/" + strconv.Itoa(id),
		query:  q,
		scope:  userScope(id),
		fresh:  fresh,
	})
	if err != nil {
		return nil, err
	}
	return decodeObject[models.User](data)
}

func (c *PteroClient) ListServers(ctx context.Context, opts models.ListOptions, fresh bool) (*models.PteroList[models.Server], error) {
	data, err := c.do(ctx, &pteroRequest{
		method: http.MethodGet,
		path:   "/api/application/servers",
		query:  listQuery(opts),
		scope:  "servers",
		fresh:  fresh,
	})
	if err != nil {
		return nil, err
	}
	return decodeList[models.Server](data)
}

func (c *PteroClient) GetServer(ctx context.Context, id string, include []string, fresh bool) (*models.Server, error) {
	path, err := serverPath(id)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	if len(include) > 0 {
		q.Set("include", strings.Join(include, ","))
	}
	data, err := c.do(ctx, &pteroRequest{
		method: http.MethodGet,
		path:   path,
		query:  q,
		scope:  serverScope(id),
		fresh:  fresh,
	})
	if err != nil {
		return nil, err
	}
	return decodeObject[models.Server](data)
}

func (c *PteroClient) CreateServer(ctx context.Context, req models.CreateServerRequest) (*models.Server, error) {
	data, err := c.do(ctx, &pteroRequest{
		method: http.MethodPost,
		path:   "/api/application/servers",
		body:   req,
		evict:  []string{"servers", userScope(req.User)},
	})
	if err != nil {
		return nil, err
	}
	return decodeObject[models.Server](data)
}

// UpdateServerBuild changes resource limits. The server's cached reads are
// evicted before this returns.
func (c *PteroClient) UpdateServerBuild(ctx context.Context, id string, patch models.BuildPatch) (*models.Server, error) {
	path, err := serverPath(id)
	if err != nil {
		return nil, err
	}
	data, err := c.do(ctx, &pteroRequest{
		method: http.MethodPatch,
		path:   path + "/build",
		body:   patch,
		evict:  []string{serverScope(id), "servers"},
	})
	if err != nil {
		return nil, err
	}
	return decodeObject[models.Server](data)
}

func (c *PteroClient) UpdateServerDetails(ctx context.Context, id string, patch models.DetailsPatch) (*models.Server, error) {
	path, err := serverPath(id)
	if err != nil {
		return nil, err
	}
	data, err := c.do(ctx, &pteroRequest{
		method: http.MethodPatch,
		path:   path + "/details",
		body:   patch,
		evict:  []string{serverScope(id), "servers"},
	})
	if err != nil {
		return nil, err
	}
	return decodeObject[models.Server](data)
}

func (c *PteroClient) SuspendServer(ctx context.Context, id string) error {
	path, err := serverPath(id)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, &pteroRequest{
		method: http.MethodPost,
		path:   path + "/suspend",
		evict:  []string{serverScope(id), "servers"},
	})
	return err
}

func (c *PteroClient) UnsuspendServer(ctx context.Context, id string) error {
	path, err := serverPath(id)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, &pteroRequest{
		method: http.MethodPost,
		path:   path + "/unsuspend",
		evict:  []string{serverScope(id), "servers"},
	})
	return err
}

// DeleteServer removes a server; force skips the daemon-side cleanup checks.
func (c *PteroClient) DeleteServer(ctx context.Context, id string, force bool) error {
	path, err := serverPath(id)
	if err != nil {
		return err
	}
	if force {
		path += "/force"
	}
	_, err = c.do(ctx, &pteroRequest{
		method: http.MethodDelete,
		path:   path,
		evict:  []string{serverScope(id), "servers"},
	})
	return err
}

// ClearCache drops every cached read. No network call.
func (c *PteroClient) ClearCache(ctx context.Context) error {
	c.evictions.cleared()
	return c.cache.Clear(ctx)
}

// RateLimitInfo returns the last observed rate-limit headers.
func (c *PteroClient) RateLimitInfo() models.RateLimitInfo {
	return c.rateLimit.snapshot()
}
