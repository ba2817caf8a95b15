// Package template resolves argument templates for workflow steps. Values may
// embed `${{ ... }}` reference expressions over prior step outputs and initial
// context values; references are parsed expressions, validated when the
// workflow graph is built, and a reference that resolves to nothing is an
// error rather than a silently interpolated placeholder.
package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
)

var (
	ErrUnclosedReference = errors.New("unclosed ${{ reference")
	ErrEmptyReference    = errors.New("empty ${{ }} reference")
	ErrNilReference      = errors.New("reference resolved to no value")
)

// Scope holds the data available to reference expressions.
type Scope struct {
	Steps    map[string]any // step id -> produced value
	Inputs   map[string]any // initial context (user profile, seed values)
	Workflow map[string]any // workflow/job metadata
}

func (s *Scope) env() map[string]any {
	steps := s.Steps
	if steps == nil {
		steps = map[string]any{}
	}

	inputs := s.Inputs
	if inputs == nil {
		inputs = map[string]any{}
	}

	workflow := s.Workflow
	if workflow == nil {
		workflow = map[string]any{}
	}

	return map[string]any{
		"steps":    steps,
		"inputs":   inputs,
		"workflow": workflow,
	}
}

// ResolveArgs resolves every value of an argument template against the scope.
func ResolveArgs(args map[string]any, scope *Scope) (map[string]any, error) {
	if args == nil {
		return map[string]any{}, nil
	}

	resolved, err := Resolve(args, scope)
	if err != nil {
		return nil, err
	}

	return resolved.(map[string]any), nil
}

// Resolve walks a template value, substituting references in strings and
// recursing into maps and slices.
func Resolve(value any, scope *Scope) (any, error) {
	switch v := value.(type) {
	case string:
		return resolveString(v, scope)
	case map[string]any:
		out := make(map[string]any, len(v))

		for key, item := range v {
			resolved, err := Resolve(item, scope)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", key, err)
			}

			out[key] = resolved
		}

		return out, nil
	case []any:
		out := make([]any, len(v))

		for i, item := range v {
			resolved, err := Resolve(item, scope)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}

			out[i] = resolved
		}

		return out, nil
	default:
		return value, nil
	}
}

// resolveString substitutes `${{ ... }}` tokens. A string that is exactly one
// token keeps the referenced value's type; a token embedded in surrounding
// text is rendered inline.
func resolveString(input string, scope *Scope) (any, error) {
	tokens, err := scanTokens(input)
	if err != nil {
		return nil, err
	}

	if len(tokens) == 0 {
		return input, nil
	}

	if len(tokens) == 1 && tokens[0].start == 0 && tokens[0].end == len(input) {
		return evaluate(tokens[0].expression, scope)
	}

	var out strings.Builder

	last := 0

	for _, token := range tokens {
		out.WriteString(input[last:token.start])

		value, err := evaluate(token.expression, scope)
		if err != nil {
			return nil, err
		}

		out.WriteString(renderInline(value))

		last = token.end
	}

	out.WriteString(input[last:])

	return out.String(), nil
}

type token struct {
	expression string
	start, end int // byte offsets of the whole ${{ }} token
}

func scanTokens(input string) ([]token, error) {
	var tokens []token

	i := 0

	for {
		idx := strings.Index(input[i:], "${{")
		if idx == -1 {
			return tokens, nil
		}

		start := i + idx

		end := strings.Index(input[start+3:], "}}")
		if end == -1 {
			return nil, ErrUnclosedReference
		}

		end += start + 3

		expression := strings.TrimSpace(input[start+3 : end])
		if expression == "" {
			return nil, ErrEmptyReference
		}

		tokens = append(tokens, token{expression: expression, start: start, end: end + 2})
		i = end + 2
	}
}

func evaluate(expression string, scope *Scope) (any, error) {
	env := scope.env()

	program, err := expr.Compile(expression, expr.Env(env), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("invalid reference %q: %w", expression, err)
	}

	value, err := expr.Run(program, env)
	if err != nil {
		return nil, fmt.Errorf("reference %q: %w", expression, err)
	}

	if value == nil {
		return nil, fmt.Errorf("%w: %q", ErrNilReference, expression)
	}

	return value, nil
}

// renderInline embeds a resolved value into surrounding text.
func renderInline(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}

		return string(raw)
	}
}
