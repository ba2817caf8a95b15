package sandbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dop251/goja"
)

// hostState accumulates host-side failures raised from inside a run. A policy
// violation surfaces in the snippet as a thrown error; the recorded value lets
// the runner report it as a NetworkPolicyError instead of a plain runtime one.
type hostState struct {
	policyErr error
}

// bind installs the capability surface: the execution context object, a
// console that forwards to the structured logger, and the policy-guarded
// fetch.
func (r *Runner) bind(ctx context.Context, vm *goja.Runtime, host *hostState, globals map[string]any) error {
	if globals == nil {
		globals = map[string]any{}
	}

	if err := vm.Set("context", globals); err != nil {
		return err
	}

	console := map[string]func(call goja.FunctionCall) goja.Value{
		"log":   r.consoleFunc(slogInfo),
		"info":  r.consoleFunc(slogInfo),
		"warn":  r.consoleFunc(slogWarn),
		"error": r.consoleFunc(slogWarn),
	}

	if err := vm.Set("console", console); err != nil {
		return err
	}

	return vm.Set("fetch", r.fetchFunc(ctx, vm, host))
}

type slogLevel int

const (
	slogInfo slogLevel = iota
	slogWarn
)

func (r *Runner) consoleFunc(level slogLevel) func(call goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, 0, len(call.Arguments))
		for _, arg := range call.Arguments {
			parts = append(parts, arg.String())
		}

		message := strings.Join(parts, " ")

		if level == slogWarn {
			r.logger.Warn("console", "message", message)
		} else {
			r.logger.Info("console", "message", message)
		}

		return goja.Undefined()
	}
}

// fetchFunc performs a synchronous HTTP request on behalf of the snippet. The
// returned object carries status, ok, headers, the body text and, when the
// response is JSON, the decoded body under `json`.
func (r *Runner) fetchFunc(ctx context.Context, vm *goja.Runtime, host *hostState) func(call goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		rawURL := call.Argument(0).String()

		if err := r.policy.ValidateURL(rawURL); err != nil {
			host.policyErr = err

			panic(vm.NewGoError(err))
		}

		method, headers, body := parseFetchOptions(call.Argument(1))

		response, err := r.doRequest(ctx, method, rawURL, headers, body)
		if err != nil {
			panic(vm.NewGoError(err))
		}

		return vm.ToValue(response)
	}
}

func parseFetchOptions(options goja.Value) (method string, headers map[string]string, body string) {
	method = http.MethodGet
	headers = map[string]string{}

	if options == nil || goja.IsUndefined(options) || goja.IsNull(options) {
		return method, headers, ""
	}

	opts, ok := options.Export().(map[string]any)
	if !ok {
		return method, headers, ""
	}

	if m, ok := opts["method"].(string); ok && m != "" {
		method = strings.ToUpper(m)
	}

	if b, ok := opts["body"].(string); ok {
		body = b
	}

	if h, ok := opts["headers"].(map[string]any); ok {
		for key, value := range h {
			if s, ok := value.(string); ok {
				headers[key] = s
			}
		}
	}

	return method, headers, body
}

func (r *Runner) doRequest(ctx context.Context, method, rawURL string, headers map[string]string, body string) (map[string]any, error) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	request, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range headers {
		request.Header.Set(key, value)
	}

	response, err := r.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(response.Body, r.maxBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	responseHeaders := make(map[string]string, len(response.Header))
	for key := range response.Header {
		responseHeaders[key] = response.Header.Get(key)
	}

	result := map[string]any{
		"status":  response.StatusCode,
		"ok":      response.StatusCode >= 200 && response.StatusCode < 300,
		"headers": responseHeaders,
		"body":    string(raw),
	}

	if strings.Contains(response.Header.Get("Content-Type"), "application/json") {
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err == nil {
			result["json"] = decoded
		}
	}

	return result, nil
}
