// Package rest implements the REST dispatcher: a thin layer
// that resolves an Endpoint's path template and bucket key, marshals an
// optional JSON body via the field descriptor runtime, attaches
// authorization and a per-request trace id, and submits the resulting HTTP
// call through ratelimit.Coordinator. It owns no retry, timeout, or
// circuit-breaker policy.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/corvidkit/corvid/field"
	"github.com/corvidkit/corvid/ratelimit"
)

// Dispatcher owns the shared HTTP client session and bucket registry for
// one REST session: one shared HTTP client, reused across buckets.
type Dispatcher struct {
	httpClient  *http.Client
	baseURL     string
	token       string
	coordinator *ratelimit.Coordinator
	logger      *zap.Logger
}

// Option configures a Dispatcher at construction time.
type Option func(*Dispatcher)

// WithHTTPClient overrides the default http.Client, e.g. for test transports.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Dispatcher) { d.httpClient = c }
}

// WithLogger attaches a structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithCoordinator overrides the default rate-limit coordinator, e.g. to
// share one across Dispatchers or observe its metrics.
func WithCoordinator(c *ratelimit.Coordinator) Option {
	return func(d *Dispatcher) { d.coordinator = c }
}

// NewDispatcher returns a Dispatcher targeting baseURL (e.g.
// "https://discord.com/api/v7/") and authorizing with "Bot <token>".
func NewDispatcher(baseURL, token string, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		httpClient:  http.DefaultClient,
		baseURL:     strings.TrimSuffix(baseURL, "/") + "/",
		token:       token,
		coordinator: ratelimit.NewCoordinator(),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Do resolves ep's path template against params, marshals body through
// bodyFields (nil for bodyless requests), and submits the request on the
// bucket named by the key formula over params.
func (d *Dispatcher) Do(ctx context.Context, ep Endpoint, params map[string]string, bodyFields field.Set, bodyValues map[string]any) (*http.Response, error) {
	path, err := substitutePath(ep.PathTemplate, params)
	if err != nil {
		return nil, err
	}
	url := d.baseURL + path

	var payload []byte
	if bodyFields != nil {
		doc := bodyFields.Marshal(bodyValues)
		payload, err = json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("rest: marshal body: %w", err)
		}
	}

	traceID := uuid.NewString()
	key := bucketKey(ep.Method, params)

	d.logger.Debug("rest request",
		zap.String("trace_id", traceID),
		zap.String("method", ep.Method),
		zap.String("path", path),
		zap.String("bucket", key),
	)

	req := func(ctx context.Context) (*http.Response, error) {
		var body *bytes.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		} else {
			body = bytes.NewReader(nil)
		}
		httpReq, err := http.NewRequestWithContext(ctx, ep.Method, url, body)
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Authorization", "Bot "+d.token)
		httpReq.Header.Set("X-Request-Id", traceID)
		if payload != nil {
			httpReq.Header.Set("Content-Type", "application/json")
		}
		return d.httpClient.Do(httpReq)
	}

	return d.coordinator.Submit(ctx, key, req)
}

// substitutePath replaces every "{name}" placeholder in template with
// params["name"], failing if a placeholder has no supplied value.
func substitutePath(template string, params map[string]string) (string, error) {
	var b strings.Builder
	i := 0
	for i < len(template) {
		if template[i] == '{' {
			end := strings.IndexByte(template[i:], '}')
			if end < 0 {
				return "", fmt.Errorf("rest: unterminated path placeholder in %q", template)
			}
			name := template[i+1 : i+end]
			v, ok := params[name]
			if !ok {
				return "", fmt.Errorf("rest: missing path parameter %q", name)
			}
			b.WriteString(v)
			i += end + 1
			continue
		}
		b.WriteByte(template[i])
		i++
	}
	return b.String(), nil
}
