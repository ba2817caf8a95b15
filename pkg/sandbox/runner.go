// Package sandbox executes user-authored code snippets in an isolated
// interpreter with a constrained capability surface. The only way out of the
// sandbox is the host-provided fetch binding, and every URL it receives is
// validated against the network policy first.
package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dop251/goja"
	esbuild "github.com/evanw/esbuild/pkg/api"
)

const (
	defaultTimeout          = 30 * time.Second
	defaultMaxResponseBytes = 5 << 20
)

// Config carries everything the runner needs. There is no process-wide
// mutable state: network policy and capability surface travel with the
// constructed runner.
type Config struct {
	Timeout          time.Duration
	HTTPClient       *http.Client
	Policy           *NetworkPolicy
	MaxResponseBytes int64
	Logger           *slog.Logger
}

// Runner executes one snippet per Run call. Calls are independent: there is
// no shared mutable state across calls, so callers may run them concurrently.
type Runner struct {
	timeout time.Duration
	client  *http.Client
	policy  *NetworkPolicy
	maxBody int64
	logger  *slog.Logger
}

func NewRunner(config Config) *Runner {
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}

	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: config.Timeout}
	}

	if config.Policy == nil {
		config.Policy = &NetworkPolicy{}
	}

	if config.MaxResponseBytes <= 0 {
		config.MaxResponseBytes = defaultMaxResponseBytes
	}

	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Runner{
		timeout: config.Timeout,
		client:  config.HTTPClient,
		policy:  config.Policy,
		maxBody: config.MaxResponseBytes,
		logger:  config.Logger.With("module", "sandbox"),
	}
}

// Run compiles the snippet under its classified dialect, executes it, then
// evaluates the entry point expression and returns its value. The returned
// value is always a JSON-serializable shape; anything else is an
// InvalidResultTypeError. Globals are exposed to the snippet as the `context`
// object.
func (r *Runner) Run(ctx context.Context, source, entryPoint string, globals map[string]any) (any, error) {
	program, err := r.compile(source)
	if err != nil {
		return nil, err
	}

	vm := goja.New()
	host := &hostState{}

	if err := r.bind(ctx, vm, host, globals); err != nil {
		return nil, &RuntimeError{Err: err}
	}

	stop := r.watchdog(ctx, vm)
	defer stop()

	if _, err := vm.RunProgram(program); err != nil {
		return nil, r.classifyRunError(host, err)
	}

	if entryPoint == "" {
		entryPoint = "main()"
	}

	value, err := vm.RunString(entryPoint)
	if err != nil {
		return nil, r.classifyRunError(host, err)
	}

	// An entry point naming a function rather than calling one is invoked
	// with no arguments.
	if fn, ok := goja.AssertFunction(value); ok {
		value, err = fn(goja.Undefined())
		if err != nil {
			return nil, r.classifyRunError(host, err)
		}
	}

	value, err = r.await(host, value)
	if err != nil {
		return nil, err
	}

	return normalize(value)
}

// compile selects the compile path from the dialect heuristics. A snippet the
// heuristics left on the plain path gets one more chance through the
// transpiler before a CompileError is reported, so misclassification never
// rejects valid code.
func (r *Runner) compile(source string) (*goja.Program, error) {
	dialect := ClassifyDialect(source)

	js := source
	if dialect == DialectTyped {
		transpiled, err := transpile(source)
		if err != nil {
			return nil, &CompileError{Err: err}
		}

		js = transpiled
	}

	program, err := goja.Compile("step.js", js, false)
	if err == nil {
		return program, nil
	}

	if dialect == DialectPlain {
		transpiled, terr := transpile(source)
		if terr == nil {
			if program, perr := goja.Compile("step.js", transpiled, false); perr == nil {
				return program, nil
			}
		}
	}

	return nil, &CompileError{Err: err}
}

// transpile lowers the typed superset to plain code in-process.
func transpile(source string) (string, error) {
	result := esbuild.Transform(source, esbuild.TransformOptions{
		Loader: esbuild.LoaderTS,
		Target: esbuild.ES2017,
	})

	if len(result.Errors) > 0 {
		messages := make([]string, 0, len(result.Errors))
		for _, msg := range result.Errors {
			messages = append(messages, msg.Text)
		}

		return "", errors.New(strings.Join(messages, "; "))
	}

	return string(result.Code), nil
}

// watchdog interrupts the interpreter on timeout or context cancellation.
func (r *Runner) watchdog(ctx context.Context, vm *goja.Runtime) func() {
	timer := time.AfterFunc(r.timeout, func() {
		vm.Interrupt("execution timed out")
	})

	done := make(chan struct{})

	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt("execution canceled")
		case <-done:
		}
	}()

	return func() {
		timer.Stop()
		close(done)
	}
}

func (r *Runner) classifyRunError(host *hostState, err error) error {
	if host.policyErr != nil {
		return host.policyErr
	}

	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return &RuntimeError{Err: fmt.Errorf("interrupted: %v", interrupted.Value())}
	}

	var exception *goja.Exception
	if errors.As(err, &exception) {
		return &RuntimeError{Err: errors.New(exception.String())}
	}

	return &RuntimeError{Err: err}
}

// await unwraps a settled promise returned by an async entry point. Host
// bindings are synchronous, so the interpreter has already drained its job
// queue by the time the value is inspected.
func (r *Runner) await(host *hostState, value goja.Value) (goja.Value, error) {
	promise, ok := value.Export().(*goja.Promise)
	if !ok {
		return value, nil
	}

	switch promise.State() {
	case goja.PromiseStateFulfilled:
		return promise.Result(), nil
	case goja.PromiseStateRejected:
		if host.policyErr != nil {
			return nil, host.policyErr
		}

		return nil, &RuntimeError{Err: fmt.Errorf("promise rejected: %v", promise.Result())}
	default:
		return nil, &RuntimeError{Err: errors.New("entry point promise did not settle")}
	}
}

// normalize constrains produced values to JSON-serializable shapes.
func normalize(value goja.Value) (any, error) {
	if value == nil || goja.IsUndefined(value) {
		return nil, &InvalidResultTypeError{Type: "undefined"}
	}

	if goja.IsNull(value) {
		return nil, &InvalidResultTypeError{Type: "null"}
	}

	exported := value.Export()
	if exported == nil {
		return nil, &InvalidResultTypeError{Type: "null"}
	}

	if _, err := json.Marshal(exported); err != nil {
		return nil, &InvalidResultTypeError{Type: fmt.Sprintf("%T", exported)}
	}

	return exported, nil
}
