package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eduplatform/gateway/pkg/config"
	appErrors "github.com/eduplatform/gateway/pkg/errors"
)

// Auth carries the credentials attached to an upstream call. SessionID is
// only used to invalidate the session when the backend answers 401.
type Auth struct {
	SessionID   string
	AccessToken string
}

// Anonymous is used for the calls that run before a session exists.
var Anonymous = Auth{}

// InvalidationFunc is invoked whenever the backend rejects a request with
// 401. It gives the session layer one place to tear the session down
// instead of every caller handling expiry on its own.
type InvalidationFunc func(ctx context.Context, sessionID string)

// Observer records upstream call latency for metrics.
type Observer interface {
	ObserveUpstreamRequest(method, path string, status int, duration time.Duration)
}

// Client is the single adapter between the gateway and the LMS backend.
// It owns the base URL, bearer injection, request id propagation, error
// mapping and list-shape normalization; domain services stay thin typed
// wrappers on top of it.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	logger         *zap.Logger
	observer       Observer
	onUnauthorized InvalidationFunc
}

// New constructs the adapter from configuration.
func New(cfg config.UpstreamConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// SetInvalidation installs the 401 hook. Wired after construction because
// the session layer depends on the client itself.
func (c *Client) SetInvalidation(fn InvalidationFunc) {
	c.onUnauthorized = fn
}

// SetObserver installs the metrics observer.
func (c *Client) SetObserver(obs Observer) {
	c.observer = obs
}

type requestIDKey struct{}

// WithRequestID stores the inbound request id so upstream calls carry it.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// do performs one backend round trip. A single attempt, no retries: a
// failed request is reported once (the product never retried either).
func (c *Client) do(ctx context.Context, auth Auth, method, path string, query url.Values, body interface{}) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode request")
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if auth.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+auth.AccessToken)
	}
	if reqID := requestIDFrom(ctx); reqID != "" {
		req.Header.Set("X-Request-ID", reqID)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		if c.observer != nil {
			c.observer.ObserveUpstreamRequest(method, path, 0, duration)
		}
		c.logger.Warn("upstream unreachable",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrUnreachable.Code, appErrors.ErrUnreachable.Status, appErrors.ErrUnreachable.Message)
	}
	defer resp.Body.Close()

	if c.observer != nil {
		c.observer.ObserveUpstreamRequest(method, path, resp.StatusCode, duration)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to read backend response")
	}

	if resp.StatusCode >= 400 {
		return nil, c.mapError(ctx, auth, resp.StatusCode, respBody)
	}

	return respBody, nil
}

// mapError converts a backend error payload into the gateway taxonomy.
// The backend-supplied detail message wins when present (the UI shows it
// verbatim); otherwise the caller gets a generic string for the class.
func (c *Client) mapError(ctx context.Context, auth Auth, status int, body []byte) error {
	detail := extractDetail(body)

	if status == http.StatusUnauthorized {
		// Anonymous calls are credential exchanges; a 401 there is a
		// rejected login, not an expired session.
		if auth.SessionID == "" {
			if detail != "" {
				return appErrors.Clone(appErrors.ErrInvalidCredentials, detail)
			}
			return appErrors.ErrInvalidCredentials
		}
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx, auth.SessionID)
		}
		if detail != "" {
			return appErrors.Clone(appErrors.ErrSessionExpired, detail)
		}
		return appErrors.ErrSessionExpired
	}

	var base *appErrors.Error
	switch status {
	case http.StatusBadRequest:
		base = appErrors.ErrValidation
	case http.StatusForbidden:
		base = appErrors.ErrForbidden
	case http.StatusNotFound:
		base = appErrors.ErrNotFound
	case http.StatusConflict:
		base = appErrors.ErrConflict
	default:
		base = appErrors.New(appErrors.ErrUpstream.Code, status, appErrors.ErrUpstream.Message)
	}

	if detail != "" {
		return appErrors.Clone(base, detail)
	}
	return base
}

// extractDetail pulls the human readable message out of a backend error
// payload. DRF style responses use {"detail": "..."} for most rejections
// and a field → messages map for validation errors.
func extractDetail(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	if raw, ok := payload["detail"]; ok {
		var detail string
		if err := json.Unmarshal(raw, &detail); err == nil {
			return detail
		}
	}

	// Field validation errors: render the first field's first message.
	// Fields are visited in sorted order so the same rejection always
	// surfaces the same message.
	fields := make([]string, 0, len(payload))
	for field := range payload {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		var messages []string
		if err := json.Unmarshal(payload[field], &messages); err == nil && len(messages) > 0 {
			return fmt.Sprintf("%s: %s", field, messages[0])
		}
	}

	return ""
}
