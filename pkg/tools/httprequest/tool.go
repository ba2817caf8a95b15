// Package httprequest provides a generic HTTP request tool. Target URLs come
// from workflow arguments, so they pass the same network policy the sandbox
// enforces before any request goes out.
package httprequest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/striderun/stride/pkg/sandbox"
)

const ToolID = "http-request"

var ErrURLRequired = errors.New("http-request tool requires a url argument")

type Config struct {
	Timeout time.Duration
	Client  *http.Client
	Policy  *sandbox.NetworkPolicy
}

type Tool struct {
	timeout time.Duration
	client  *http.Client
	policy  *sandbox.NetworkPolicy
	logger  *slog.Logger
}

func NewTool(config Config, logger *slog.Logger) *Tool {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	if config.Client == nil {
		config.Client = &http.Client{}
	}

	if config.Policy == nil {
		config.Policy = &sandbox.NetworkPolicy{}
	}

	return &Tool{
		timeout: config.Timeout,
		client:  config.Client,
		policy:  config.Policy,
		logger:  logger.With("module", "http_request_tool"),
	}
}

func (t *Tool) ID() string { return ToolID }

func (t *Tool) Invoke(ctx context.Context, args map[string]any) (any, error) {
	url, _ := args["url"].(string)
	if url == "" {
		return nil, ErrURLRequired
	}

	if err := t.policy.ValidateURL(url); err != nil {
		return nil, err
	}

	method, _ := args["method"].(string)
	if method == "" {
		method = http.MethodGet
	}

	method = strings.ToUpper(method)

	body, _ := args["body"].(string)

	headers := make(map[string]string)
	if headersArg, ok := args["headers"].(map[string]any); ok {
		for key, value := range headersArg {
			if s, ok := value.(string); ok {
				headers[key] = s
			}
		}
	}

	attempts, delay := retryConfig(args)

	var (
		response *httpResponse
		lastErr  error
	)

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			t.logger.InfoContext(ctx, "Retrying HTTP request", "attempt", attempt, "url", url)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		response, lastErr = t.do(ctx, method, url, headers, body)
		if lastErr != nil {
			continue
		}

		if response.status >= 500 && attempt < attempts {
			lastErr = fmt.Errorf("server error (status %d)", response.status)
			response = nil

			continue
		}

		break
	}

	if response == nil {
		return nil, fmt.Errorf("all attempts failed: %w", lastErr)
	}

	var decoded any
	if err := json.Unmarshal(response.raw, &decoded); err != nil {
		decoded = string(response.raw)
	}

	return map[string]any{
		"status_code": response.status,
		"body":        decoded,
		"headers":     response.headers,
	}, nil
}

// httpResponse is one fully consumed response. The body is buffered inside
// do() so the per-request timeout covers the read, not just the headers.
type httpResponse struct {
	status  int
	headers map[string]string
	raw     []byte
}

func (t *Tool) do(ctx context.Context, method, url string, headers map[string]string, body string) (*httpResponse, error) {
	requestCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	request, err := http.NewRequestWithContext(requestCtx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range headers {
		request.Header.Set(key, value)
	}

	response, err := t.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	responseHeaders := make(map[string]string, len(response.Header))
	for key := range response.Header {
		responseHeaders[key] = response.Header.Get(key)
	}

	return &httpResponse{
		status:  response.StatusCode,
		headers: responseHeaders,
		raw:     raw,
	}, nil
}

func retryConfig(args map[string]any) (attempts int, delay time.Duration) {
	attempts = 1
	delay = time.Second

	retry, ok := args["retry"].(map[string]any)
	if !ok {
		return attempts, delay
	}

	if value, ok := retry["attempts"].(float64); ok && value >= 1 {
		attempts = int(value)
	}

	if value, ok := retry["delay"].(float64); ok && value >= 0 {
		delay = time.Duration(value) * time.Second
	}

	return attempts, delay
}
