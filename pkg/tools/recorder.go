package tools

import (
	"context"
	"sync"
)

// Mode selects, per tool, whether the test invoker fabricates a result or
// falls through to the real dispatcher.
type Mode string

const (
	// ModeReal falls through to the live dispatcher.
	ModeReal Mode = "real"
	// ModeTest fabricates a canned result via the tool's override.
	ModeTest Mode = "test"
)

// Override decides at call time what a tool in test mode returns.
type Override func(ctx context.Context, args map[string]any) (any, error)

// CallRecord captures one tool invocation, in order.
type CallRecord struct {
	Tool     string
	Args     map[string]any
	Sequence int
}

// Observer receives every call the test invoker sees. Injected at
// construction so test doubles need no closures over external state.
type Observer interface {
	Record(call CallRecord)
}

// CallLog is the standard Observer: an append-only, thread-safe call list.
type CallLog struct {
	mu    sync.Mutex
	calls []CallRecord
}

func NewCallLog() *CallLog {
	return &CallLog{}
}

func (l *CallLog) Record(call CallRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls = append(l.calls, call)
}

// Calls returns a copy of all recorded calls in invocation order.
func (l *CallLog) Calls() []CallRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]CallRecord, len(l.calls))
	copy(out, l.calls)

	return out
}

// CallsFor returns the recorded calls for one tool.
func (l *CallLog) CallsFor(toolName string) []CallRecord {
	var out []CallRecord

	for _, call := range l.Calls() {
		if call.Tool == toolName {
			out = append(out, call)
		}
	}

	return out
}

// Count returns how many times a tool was invoked.
func (l *CallLog) Count(toolName string) int {
	return len(l.CallsFor(toolName))
}

// TestInvoker wraps the live dispatcher with per-tool overrides and records
// every call so tests can assert exact invocation counts and payloads.
type TestInvoker struct {
	live     Invoker
	observer Observer

	mu        sync.Mutex
	sequence  int
	modes     map[string]Mode
	overrides map[string]Override
}

func NewTestInvoker(live Invoker, observer Observer) *TestInvoker {
	return &TestInvoker{
		live:      live,
		observer:  observer,
		modes:     make(map[string]Mode),
		overrides: make(map[string]Override),
	}
}

// SetMode configures how calls to one tool behave. The override may be nil
// for ModeReal.
func (t *TestInvoker) SetMode(toolName string, mode Mode, override Override) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.modes[toolName] = mode
	t.overrides[toolName] = override
}

func (t *TestInvoker) Invoke(ctx context.Context, toolName string, args map[string]any) (any, error) {
	t.mu.Lock()
	t.sequence++
	sequence := t.sequence
	mode := t.modes[toolName]
	override := t.overrides[toolName]
	t.mu.Unlock()

	t.observer.Record(CallRecord{
		Tool:     toolName,
		Args:     args,
		Sequence: sequence,
	})

	if mode == ModeTest {
		if override != nil {
			return override(ctx, args)
		}

		return map[string]any{"ok": true, "tool": toolName}, nil
	}

	return t.live.Invoke(ctx, toolName, args)
}

var _ Invoker = (*TestInvoker)(nil)
