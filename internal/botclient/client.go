// Package botclient is a small typed client for the matebot HTTP API, used
// by the smoke-check command and by integration scripts.
package botclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmelim/matebot/pkg/botdto"
	"github.com/valyala/fasthttp"
)

type Client struct {
	baseURL string
	http    *fasthttp.Client

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 64},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Health(ctx context.Context) error {
	var body map[string]string
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/healthz", nil, &body, true); err != nil {
		return err
	}
	if body["status"] != "ok" {
		return fmt.Errorf("unexpected health payload: %v", body)
	}
	return nil
}

func (c *Client) Presets(ctx context.Context) ([]botdto.PresetInfo, error) {
	var resp botdto.PresetsResponse
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/api/presets", nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Presets, nil
}

func (c *Client) Start(ctx context.Context, playerID, preset string) (*botdto.StartSessionResponse, error) {
	req := botdto.StartSessionRequest{PlayerID: playerID, Preset: preset}
	var resp botdto.StartSessionResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/api/game/start", req, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Play(ctx context.Context, playerID, move string) (*botdto.MoveSummary, error) {
	req := botdto.PlayRequest{PlayerID: playerID, Move: move}
	var resp botdto.PlayResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/api/game/move", req, &resp, false); err != nil {
		return nil, err
	}
	return resp.Summary, nil
}

func (c *Client) Status(ctx context.Context, playerID string) (*botdto.SessionState, error) {
	var resp botdto.StatusResponse
	path := "/api/game/status?player_id=" + playerID
	if err := c.doJSON(ctx, fasthttp.MethodGet, path, nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.State, nil
}

func (c *Client) Resign(ctx context.Context, playerID string) (*botdto.SessionState, error) {
	req := botdto.ResignRequest{PlayerID: playerID}
	var resp botdto.ResignResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/api/game/resign", req, &resp, false); err != nil {
		return nil, err
	}
	return resp.State, nil
}

func (c *Client) History(ctx context.Context, playerID string, limit int) ([]*botdto.GameRecord, error) {
	var resp botdto.HistoryResponse
	path := "/api/game/history?player_id=" + playerID
	if limit > 0 {
		path += "&limit=" + strconv.Itoa(limit)
	}
	if err := c.doJSON(ctx, fasthttp.MethodGet, path, nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Games, nil
}

func (c *Client) Profile(ctx context.Context, playerID string) (*botdto.PlayerProfile, error) {
	var resp botdto.ProfileResponse
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/api/profile?player_id="+playerID, nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Profile, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any, retry bool) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")

	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	attempts := 1
	if retry {
		attempts = c.retryMax
		if attempts <= 0 {
			attempts = 1
		}
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx))
		if err != nil {
			if attempt == attempts || !retry {
				return fmt.Errorf("request failed: %w", err)
			}
			lastErr = err
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			err := apiError(status, resp.Body())
			if attempt == attempts || !retry || !shouldRetryStatus(status) {
				return err
			}
			lastErr = err
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		if out != nil {
			if err := json.Unmarshal(resp.Body(), out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}

	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

func apiError(status int, body []byte) error {
	var derr botdto.DomainError
	if err := json.Unmarshal(body, &derr); err == nil && derr.Code != "" {
		return fmt.Errorf("api error: status=%d code=%s message=%s", status, derr.Code, derr.Message)
	}
	return fmt.Errorf("api error: status=%d body=%s", status, truncate(string(body), 512))
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
}

func shouldRetryStatus(code int) bool {
	switch code {
	case fasthttp.StatusInternalServerError,
		fasthttp.StatusBadGateway,
		fasthttp.StatusServiceUnavailable,
		fasthttp.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
