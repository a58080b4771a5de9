package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"

	"go.uber.org/zap"
)

// maxResponseBytes caps how much of a backend response body is read.
const maxResponseBytes = 1 << 20

// Client is the REST API the checkout core consumes.
type Client interface {
	ValidateVoucher(ctx context.Context, req ValidateVoucherRequest) (*ValidateVoucherResponse, error)
	CalculateShippingFee(ctx context.Context, req ShippingFeeRequest) (*ShippingFeeResponse, error)
	GetOrderTracking(ctx context.Context, orderNumber string) (*OrderTracking, error)
	CreateOrder(ctx context.Context, req CreateOrderRequest, idempotencyKey string) (*CreatedOrder, error)
}

type httpClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	stats      *metrics.Checkout
}

type Option func(*httpClient)

// WithMetrics counts calls and failures into m.
func WithMetrics(m *metrics.Checkout) Option {
	return func(c *httpClient) { c.stats = m }
}

// WithTransport swaps the http transport, mostly for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *httpClient) { c.httpClient.Transport = rt }
}

func NewClient(baseURL string, timeout time.Duration, opts ...Option) (Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	c := &httpClient{
		baseURL: u,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		stats: &metrics.Checkout{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *httpClient) ValidateVoucher(ctx context.Context, req ValidateVoucherRequest) (*ValidateVoucherResponse, error) {
	var res ValidateVoucherResponse
	if err := c.do(ctx, http.MethodPost, "/vouchers/validate", req, &res, nil); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *httpClient) CalculateShippingFee(ctx context.Context, req ShippingFeeRequest) (*ShippingFeeResponse, error) {
	var res ShippingFeeResponse
	if err := c.do(ctx, http.MethodPost, "/shipping/calculate-fee", req, &res, nil); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *httpClient) GetOrderTracking(ctx context.Context, orderNumber string) (*OrderTracking, error) {
	var res OrderTracking
	path := "/orders/" + url.PathEscape(orderNumber) + "/tracking"
	if err := c.do(ctx, http.MethodGet, path, nil, &res, nil); err != nil {
		return nil, err
	}
	if res.OrderNumber == "" {
		res.OrderNumber = orderNumber
	}
	return &res, nil
}

func (c *httpClient) CreateOrder(ctx context.Context, req CreateOrderRequest, idempotencyKey string) (*CreatedOrder, error) {
	headers := http.Header{}
	if idempotencyKey != "" {
		headers.Set("Idempotency-Key", idempotencyKey)
	}

	var res CreatedOrder
	if err := c.do(ctx, http.MethodPost, "/orders", req, &res, headers); err != nil {
		return nil, err
	}
	if res.OrderNumber == "" {
		return nil, fmt.Errorf("%w: order number missing", ErrBadResponse)
	}
	return &res, nil
}

func (c *httpClient) do(ctx context.Context, method, path string, in, out any, headers http.Header) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "backend"),
		zap.String("method", method),
		zap.String("path", path),
	)
	timer := metrics.StartTimer()
	c.stats.BackendCalls.Inc()

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			log.Error("failed to marshal request", zap.Error(err))
			return err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		log.Error("failed creating request", zap.Error(err))
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if rid := logger.RequestIDFrom(ctx); rid != "" {
		req.Header.Set("X-Request-ID", rid)
	}
	if token := AccessTokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, vv := range headers {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.stats.BackendFailures.Inc()
		log.Warn("backend request failed", zap.Error(err), zap.Duration("duration", timer.Duration()))
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		c.stats.BackendFailures.Inc()
		log.Warn("failed to read response body", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(raw) > maxResponseBytes {
		c.stats.BackendFailures.Inc()
		log.Error("backend response too large", zap.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: body exceeds %d bytes", ErrBadResponse, maxResponseBytes)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.stats.BackendFailures.Inc()
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(raw),
			Body:       raw,
		}
		log.Warn("backend returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", raw),
			zap.Duration("duration", timer.Duration()),
		)
		return apiErr
	}

	if out != nil {
		if err := decode(raw, out); err != nil {
			c.stats.BackendFailures.Inc()
			log.Error("failed decoding backend response", zap.Error(err))
			return fmt.Errorf("%w: %v", ErrBadResponse, err)
		}
	}

	log.Debug("backend call done",
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", timer.Duration()),
	)
	return nil
}

// decode accepts both bare payloads and {"data": ...} envelopes.
func decode(raw []byte, out any) error {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && len(env.Data) > 0 && string(env.Data) != "null" {
		return json.Unmarshal(env.Data, out)
	}
	return json.Unmarshal(raw, out)
}

// errorMessage digs the human readable message out of an error body.
func errorMessage(raw []byte) string {
	var body struct {
		Message json.RawMessage `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}

	if len(body.Message) > 0 {
		var s string
		if json.Unmarshal(body.Message, &s) == nil && s != "" {
			return s
		}
		// validation pipes answer with a list of messages
		var list []string
		if json.Unmarshal(body.Message, &list) == nil && len(list) > 0 {
			return strings.Join(list, "; ")
		}
	}
	return body.Error
}
