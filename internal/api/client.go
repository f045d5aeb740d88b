package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// TokenSource supplies the bearer token for authenticated calls.
type TokenSource interface {
	Token() (string, error)
}

// Recorder observes backend calls. Implemented by the metrics package.
type Recorder interface {
	ObserveAPICall(method, route string, status int, elapsed time.Duration)
}

// Client is a resty-backed client for the inventory/sales backend.
type Client struct {
	http     *resty.Client
	tokens   TokenSource
	logger   *zap.Logger
	recorder Recorder
}

// Option customises a Client.
type Option func(*Client)

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// NewClient builds a client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		tokens: tokens,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.http = resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	c.http.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		c.observe(resp.Request, resp.StatusCode(), resp.Time())
		return nil
	})
	c.http.OnError(func(req *resty.Request, err error) {
		c.observe(req, 0, 0)
		c.logger.Debug("backend call failed", zap.String("method", req.Method), zap.String("url", req.URL), zap.Error(err))
	})

	return c
}

func (c *Client) observe(req *resty.Request, status int, elapsed time.Duration) {
	if c.recorder == nil || req == nil {
		return
	}
	name, _ := req.Context().Value(routeKey{}).(string)
	if name == "" {
		name = req.URL
	}
	c.recorder.ObserveAPICall(req.Method, name, status, elapsed)
}

type routeKey struct{}

// request prepares an authenticated request. route is the templated path
// used as the metrics label.
func (c *Client) request(ctx context.Context, route string) (*resty.Request, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return nil, err
	}
	return c.anonymous(ctx, route).SetAuthToken(token), nil
}

func (c *Client) anonymous(ctx context.Context, route string) *resty.Request {
	ctx = context.WithValue(ctx, routeKey{}, route)
	return c.http.R().SetContext(ctx).SetError(&errorBody{})
}

// do executes req and converts transport and HTTP failures into errors.
func (c *Client) do(req *resty.Request, method, path, op string) error {
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.IsError() {
		return newError(op, resp)
	}
	return nil
}
