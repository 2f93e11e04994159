// Package rest talks to the TaskFlow backend over HTTP: the PostgREST-style
// task collection under /rest/v1 and the auth endpoints under /auth/v1.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/domain"
)

const (
	mimeJSON   = "application/json"
	mimeObject = "application/vnd.pgrst.object+json"
)

// Config describes how to reach the backend.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// Dial overrides the network dialer; tests use an in-memory listener.
	Dial fasthttp.DialFunc
}

type baseClient struct {
	http    *fasthttp.Client
	baseURL string
	apiKey  string
	timeout time.Duration
	logger  *zap.Logger
}

func newBaseClient(cfg Config, logger *zap.Logger) baseClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseClient{
		http: &fasthttp.Client{
			Name:         "taskflow-cli",
			Dial:         cfg.Dial,
			ReadTimeout:  cfg.Timeout,
			WriteTimeout: cfg.Timeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

type call struct {
	method string
	path   string
	query  [][2]string
	token  string
	accept string
	prefer string
	body   interface{}
}

// errorBody accepts both the backend's envelope and PostgREST error objects.
type errorBody struct {
	Code    string `json:"code"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e errorBody) text() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Error != "":
		return e.Error
	default:
		return ""
	}
}

// do executes the call and decodes a 2xx body into out. It returns the
// status code for callers that branch on it.
func (c *baseClient) do(ctx context.Context, cl call, out interface{}) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + cl.path)
	for _, kv := range cl.query {
		req.URI().QueryArgs().Add(kv[0], kv[1])
	}
	req.Header.SetMethod(cl.method)
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}
	accept := cl.accept
	if accept == "" {
		accept = mimeJSON
	}
	req.Header.Set("Accept", accept)
	if cl.prefer != "" {
		req.Header.Set("Prefer", cl.prefer)
	}
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return 0, err
		}
		req.Header.SetContentType(mimeJSON)
		req.SetBodyRaw(payload)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}

	started := time.Now()
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		c.logger.Debug("backend request failed",
			zap.String("method", cl.method),
			zap.String("path", cl.path),
			zap.Error(err))
		return 0, err
	}

	status := resp.StatusCode()
	c.logger.Debug("backend request",
		zap.String("method", cl.method),
		zap.String("path", cl.path),
		zap.Int("status", status),
		zap.Duration("elapsed", time.Since(started)))

	if status < 200 || status >= 300 {
		var body errorBody
		_ = json.Unmarshal(resp.Body(), &body)
		return status, statusError(status, body.text())
	}

	if out != nil && len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return status, fmt.Errorf("decode %s %s response: %w", cl.method, cl.path, err)
		}
	}
	return status, nil
}

// statusError maps an HTTP failure back onto the domain error codes.
func statusError(status int, message string) error {
	if message == "" {
		message = http.StatusText(status)
	}
	switch status {
	case http.StatusNotFound, http.StatusNotAcceptable:
		return domain.ErrTaskNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return domain.NewError(domain.ErrCodeInvalid, message)
	case http.StatusUnauthorized:
		return domain.NewError(domain.ErrCodeUnauthorized, message)
	case http.StatusForbidden:
		return domain.NewError(domain.ErrCodeForbidden, message)
	case http.StatusConflict:
		return domain.NewError(domain.ErrCodeConflict, message)
	default:
		return domain.NewError(domain.ErrCodeUnavailable, fmt.Sprintf("backend returned %d: %s", status, message))
	}
}
