package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
	"go.uber.org/zap"

	"sanee/messenger/internal/apperrors"
	"sanee/messenger/internal/config"
	"sanee/messenger/internal/logger"
)

// TokenSource supplies the bearer token attached to every authenticated
// request. It returns an UNAUTHENTICATED error when no live token exists.
type TokenSource interface {
	Token() (string, error)
}

// Client talks to the Sanee marketplace REST API. All durable state and
// business-rule enforcement lives server-side; the client only shuttles JSON
// and multipart payloads.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	sendLimit  *rate.Limiter
}

// NewClient creates an API client bound to cfg.APIBaseURL.
func NewClient(cfg *config.Config, tokens TokenSource) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.APIBaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		tokens:     tokens,
		sendLimit:  rate.NewLimiter(rate.Limit(cfg.SendRatePerSecond), cfg.SendBurst),
	}
}

// errorBody is the error envelope the backend uses for non-2xx responses.
type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) newRequest(ctx context.Context, method, path string, contentType string, body io.Reader) (*http.Request, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

// do executes the request and maps failures onto the client error taxonomy:
// transport errors become UNAVAILABLE, 401 becomes UNAUTHENTICATED, other 4xx
// carry the server-provided message as FAILED_PRECONDITION.
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Unavailable("backend unreachable", errors.Wrap(err, req.URL.Path))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.Unavailable("failed to read response", errors.Wrap(err, req.URL.Path))
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(data) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to parse response", errors.Wrap(err, req.URL.Path))
		}
		return nil
	}

	var eb errorBody
	_ = json.Unmarshal(data, &eb)
	if eb.Error == "" {
		eb.Error = strings.TrimSpace(string(data))
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return apperrors.Unauthenticated(eb.Error)
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.NotFound(eb.Error)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return apperrors.FailedPrecondition(eb.Error)
	default:
		logger.L.Warn("server error", zap.String("path", req.URL.Path), zap.Int("status", resp.StatusCode))
		return apperrors.Internal(fmt.Sprintf("server error (status %d)", resp.StatusCode))
	}
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to encode request", err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, "application/json", body)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, path, "", nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func queryInt64(values url.Values, key string, v int64) {
	if v > 0 {
		values.Set(key, fmt.Sprintf("%d", v))
	}
}
