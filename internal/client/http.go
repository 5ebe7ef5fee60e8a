package client

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

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultTimeout = 10 * time.Second

// HTTPClient makes REST calls to the CataMaze game server.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
	log     *zap.Logger
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithTimeout sets the per-request timeout of the underlying http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *HTTPClient) {
		if l != nil {
			c.log = l
		}
	}
}

// WithHTTPClient replaces the underlying http.Client (tests use the one
// from httptest.Server).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		if hc != nil {
			c.client = hc
		}
	}
}

// NewHTTPClient creates a client targeting the given base URL
// (e.g. "https://catamaze.catachess.com").
func NewHTTPClient(baseURL, token string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: defaultTimeout},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server URL this client targets.
func (c *HTTPClient) BaseURL() string { return c.baseURL }

// CreateGame sends POST /game/new.
func (c *HTTPClient) CreateGame(ctx context.Context) (*NewGameResponse, error) {
	var out NewGameResponse
	if err := c.post(ctx, "/game/new", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitAction sends POST /game/action.
func (c *HTTPClient) SubmitAction(ctx context.Context, gameID string, action Action) (*ActionResponse, error) {
	var out ActionResponse
	body := ActionRequest{GameID: gameID, Action: action}
	if err := c.post(ctx, "/game/action", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExecuteTick sends POST /game/tick.
func (c *HTTPClient) ExecuteTick(ctx context.Context, gameID string) (*TickResponse, error) {
	var out TickResponse
	if err := c.post(ctx, "/game/tick", GameRequest{GameID: gameID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearQueue sends POST /game/clear_queue.
func (c *HTTPClient) ClearQueue(ctx context.Context, gameID string) (*ClearQueueResponse, error) {
	var out ClearQueueResponse
	if err := c.post(ctx, "/game/clear_queue", GameRequest{GameID: gameID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Observe fetches GET /game/observe.
func (c *HTTPClient) Observe(ctx context.Context, gameID string) (*ObserveResponse, error) {
	var out ObserveResponse
	if err := c.get(ctx, "/game/observe?game_id="+url.QueryEscape(gameID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Resume sends POST /game/resume.
func (c *HTTPClient) Resume(ctx context.Context, gameID string) (*ResumeResponse, error) {
	var out ResumeResponse
	if err := c.post(ctx, "/game/resume", GameRequest{GameID: gameID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Watch fetches GET /game/watch, the spectator view of a game.
func (c *HTTPClient) Watch(ctx context.Context, gameID string) (*WatchResponse, error) {
	var out WatchResponse
	if err := c.get(ctx, "/game/watch?game_id="+url.QueryEscape(gameID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, path, out)
}

func (c *HTTPClient) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path, out)
}

func (c *HTTPClient) do(req *http.Request, path string, out interface{}) error {
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)
	c.setAuth(req)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn("request failed",
			zap.String("method", req.Method),
			zap.String("path", path),
			zap.String("request_id", reqID),
			zap.Error(err))
		return fmt.Errorf("%s %s: %w", req.Method, path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("request",
		zap.String("method", req.Method),
		zap.String("path", path),
		zap.String("request_id", reqID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return newAPIError(resp.StatusCode, req.Method+" "+path, respBody)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding %s response: %w", path, err)
		}
	}
	return nil
}

func (c *HTTPClient) setAuth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
