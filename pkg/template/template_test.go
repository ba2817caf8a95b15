package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testScope() *Scope {
	return &Scope{
		Steps: map[string]any{
			"price": map[string]any{"price": 105.2, "symbol": "BTC"},
			"check": true,
		},
		Inputs: map[string]any{
			"user": map[string]any{"name": "Ada"},
		},
		Workflow: map[string]any{"id": "wf-1"},
	}
}

func TestResolveArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     map[string]any
		expected map[string]any
	}{
		{
			name:     "literal values pass through",
			args:     map[string]any{"chat_id": "123", "count": 3},
			expected: map[string]any{"chat_id": "123", "count": 3},
		},
		{
			name:     "whole-string reference keeps type",
			args:     map[string]any{"price": "${{ steps.price.price }}"},
			expected: map[string]any{"price": 105.2},
		},
		{
			name:     "embedded reference renders inline",
			args:     map[string]any{"message": "BTC is at ${{ steps.price.price }} now"},
			expected: map[string]any{"message": "BTC is at 105.2 now"},
		},
		{
			name:     "inputs and workflow namespaces",
			args:     map[string]any{"greeting": "Hi ${{ inputs.user.name }} (${{ workflow.id }})"},
			expected: map[string]any{"greeting": "Hi Ada (wf-1)"},
		},
		{
			name: "nested maps and slices",
			args: map[string]any{
				"payload": map[string]any{
					"symbols": []any{"${{ steps.price.symbol }}", "ETH"},
				},
			},
			expected: map[string]any{
				"payload": map[string]any{
					"symbols": []any{"BTC", "ETH"},
				},
			},
		},
		{
			name:     "expression over references",
			args:     map[string]any{"double": "${{ steps.price.price * 2 }}"},
			expected: map[string]any{"double": 210.4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := ResolveArgs(tt.args, testScope())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, resolved)
		})
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
	}{
		{
			name: "missing step output",
			args: map[string]any{"message": "price: ${{ steps.missing.price }}"},
		},
		{
			name: "unclosed reference",
			args: map[string]any{"message": "price: ${{ steps.price.price"},
		},
		{
			name: "empty reference",
			args: map[string]any{"message": "price: ${{ }}"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveArgs(tt.args, testScope())
			assert.Error(t, err)
		})
	}
}

func TestResolveNeverEmitsUndefined(t *testing.T) {
	// A reference to an absent value must fail loudly instead of rendering a
	// placeholder into the message.
	_, err := ResolveArgs(
		map[string]any{"message": "price is ${{ steps.price.absent }}"},
		testScope(),
	)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNilReference)
}

func TestReferences(t *testing.T) {
	args := map[string]any{
		"message": "price ${{ steps.price.price }} checked=${{ steps.check }}",
		"nested": map[string]any{
			"other": []any{"${{ steps['price-check'].ok }}"},
			"plain": "no references here",
		},
		"greeting": "${{ inputs.user.name }}",
	}

	refs, err := References(args)
	require.NoError(t, err)
	assert.Equal(t, []string{"check", "price", "price-check"}, refs)
}

func TestReferencesRejectsMalformedExpressions(t *testing.T) {
	_, err := References(map[string]any{"x": "${{ steps.price. }}"})
	assert.Error(t, err)
}
