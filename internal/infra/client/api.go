// Package client is the single HTTP gateway to the e-invoicing backend.
// Every call goes through Call, which attaches the bearer token, unwraps the
// {code, message, data} envelope and maps non-2xx responses to
// *domain.RequestError.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/uplug/einvoice-bfa-go/internal/config"
	"github.com/uplug/einvoice-bfa-go/internal/domain"
	"github.com/uplug/einvoice-bfa-go/internal/infra/observability"
	"github.com/uplug/einvoice-bfa-go/internal/infra/resilience"
	"github.com/uplug/einvoice-bfa-go/internal/port"
)

var tracer = otel.Tracer("client")

const maxBodyBytes = 10 << 20

// Request describes one backend call. The zero value is a GET.
type Request struct {
	Method string
	Query  url.Values
	Body   any
	Header http.Header
}

// Response is the decoded outcome of a successful call.
// JSON holds the unwrapped payload when the backend answered with JSON;
// otherwise Text holds the raw body.
type Response struct {
	Status      int
	ContentType string
	JSON        json.RawMessage
	Text        string
}

// IsJSON reports whether the backend answered with a JSON content type.
func (r *Response) IsJSON() bool {
	return r.JSON != nil
}

// Client calls the backend API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	endpoints  config.Endpoints
	tokens     port.TokenSource
	cb         *gobreaker.CircuitBreaker
	bulkhead   *resilience.Bulkhead
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// Deps groups the collaborators of a Client. Tokens, Breaker, Bulkhead and
// Metrics are optional.
type Deps struct {
	HTTPClient *http.Client
	Tokens     port.TokenSource
	Breaker    *gobreaker.CircuitBreaker
	Bulkhead   *resilience.Bulkhead
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// New creates a Client for baseURL+basePath.
func New(baseURL, basePath string, endpoints config.Endpoints, deps Deps) *Client {
	if deps.HTTPClient == nil {
		deps.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Client{
		httpClient: deps.HTTPClient,
		baseURL:    strings.TrimRight(baseURL, "/") + basePath,
		endpoints:  endpoints,
		tokens:     deps.Tokens,
		cb:         deps.Breaker,
		bulkhead:   deps.Bulkhead,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
}

// Endpoints returns the configured backend paths.
func (c *Client) Endpoints() config.Endpoints {
	return c.endpoints
}

// Call performs one request against endpoint. It never retries and never
// refreshes the token: a 401 surfaces as a RequestError like any other status.
func (c *Client) Call(ctx context.Context, endpoint string, req Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	ctx, span := tracer.Start(ctx, "Client.Call", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("api.endpoint", endpoint),
	)

	if c.bulkhead != nil {
		if err := c.bulkhead.Acquire(ctx); err != nil {
			return nil, err
		}
		defer c.bulkhead.Release()
	}

	start := time.Now()
	var (
		resp *Response
		err  error
	)
	if c.cb != nil {
		var result any
		result, err = c.cb.Execute(func() (any, error) {
			return c.do(ctx, method, endpoint, req)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = &domain.ErrCircuitOpen{Service: "api"}
		}
		if err == nil {
			resp = result.(*Response)
		}
	} else {
		resp, err = c.do(ctx, method, endpoint, req)
	}

	if c.metrics != nil {
		c.metrics.RecordUpstream(method, time.Since(start))
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.recordFailure(err)
		c.logger.Debug("api call failed",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.Status))
	c.logger.Debug("api call",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.Status),
		zap.Duration("latency", time.Since(start)),
	)
	return resp, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, req Request) (*Response, error) {
	target := c.baseURL + endpoint
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &domain.ErrExternalService{Service: "api", Err: err}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "api", Err: err}
	}

	contentType := httpResp.Header.Get("Content-Type")
	isJSON := strings.Contains(contentType, "application/json")

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		msg := ""
		if isJSON {
			msg = messageField(raw)
		}
		return nil, domain.NewRequestError(httpResp.StatusCode, msg)
	}

	resp := &Response{Status: httpResp.StatusCode, ContentType: contentType}
	if !isJSON {
		resp.Text = string(raw)
		return resp, nil
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		resp.JSON = json.RawMessage("null")
		return resp, nil
	}
	if !json.Valid(raw) {
		return nil, &domain.ErrMalformedResponse{Endpoint: endpoint, Err: errors.New("invalid JSON body")}
	}
	resp.JSON = unwrapEnvelope(raw)
	return resp, nil
}

// unwrapEnvelope returns data when the body is an object carrying both code
// and data keys; any other body is returned unchanged.
func unwrapEnvelope(raw []byte) json.RawMessage {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return raw
	}
	_, hasCode := obj["code"]
	data, hasData := obj["data"]
	if hasCode && hasData {
		return data
	}
	return raw
}

// messageField extracts a string "message" from an error body.
func messageField(raw []byte) string {
	var body struct {
		Message any `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if s, ok := body.Message.(string); ok {
		return s
	}
	return ""
}

func (c *Client) recordFailure(err error) {
	if c.metrics == nil {
		return
	}
	var (
		re *domain.RequestError
		mr *domain.ErrMalformedResponse
		co *domain.ErrCircuitOpen
	)
	switch {
	case errors.As(err, &re):
		c.metrics.IncrUpstreamError("status")
	case errors.As(err, &mr):
		c.metrics.IncrUpstreamError("malformed")
	case errors.As(err, &co):
		c.metrics.IncrUpstreamError("circuit_open")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.metrics.IncrUpstreamError("cancelled")
	default:
		c.metrics.IncrUpstreamError("transport")
	}
}

// Do calls endpoint and decodes the unwrapped payload into T.
// A text response can only be decoded into a string.
func Do[T any](ctx context.Context, c *Client, endpoint string, req Request) (T, error) {
	resp, err := c.Call(ctx, endpoint, req)
	if err != nil {
		var zero T
		return zero, err
	}
	return decode[T](endpoint, resp)
}

func decode[T any](endpoint string, resp *Response) (T, error) {
	var out T

	if !resp.IsJSON() {
		if s, ok := any(&out).(*string); ok {
			*s = resp.Text
			return out, nil
		}
		if strings.TrimSpace(resp.Text) == "" {
			return out, nil
		}
		return out, &domain.ErrMalformedResponse{
			Endpoint: endpoint,
			Err:      fmt.Errorf("expected JSON, got %q", resp.ContentType),
		}
	}

	if err := json.Unmarshal(resp.JSON, &out); err != nil {
		var zero T
		return zero, &domain.ErrMalformedResponse{Endpoint: endpoint, Err: err}
	}
	return out, nil
}

// path formats an endpoint template with one escaped path argument.
func path(template, arg string) string {
	return fmt.Sprintf(template, url.PathEscape(arg))
}
