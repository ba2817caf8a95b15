package template

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/expr-lang/expr"
)

// Step references appear either as property access (steps.price.value) or as
// index access for ids that are not valid identifiers (steps["price-check"]).
var stepRefPattern = regexp.MustCompile(`\bsteps\.([A-Za-z_$][\w$]*)|\bsteps\[["']([^"']+)["']\]`)

// References returns the distinct step ids a template value refers to. Every
// token is syntax-checked here, so a malformed reference rejects the workflow
// before anything executes.
func References(value any) ([]string, error) {
	found := map[string]bool{}

	if err := collectReferences(value, found); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(found))
	for id := range found {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids, nil
}

func collectReferences(value any, found map[string]bool) error {
	switch v := value.(type) {
	case string:
		tokens, err := scanTokens(v)
		if err != nil {
			return err
		}

		for _, token := range tokens {
			if _, err := expr.Compile(token.expression, expr.AllowUndefinedVariables()); err != nil {
				return fmt.Errorf("invalid reference %q: %w", token.expression, err)
			}

			for _, match := range stepRefPattern.FindAllStringSubmatch(token.expression, -1) {
				if match[1] != "" {
					found[match[1]] = true
				} else if match[2] != "" {
					found[match[2]] = true
				}
			}
		}

		return nil
	case map[string]any:
		for _, item := range v {
			if err := collectReferences(item, found); err != nil {
				return err
			}
		}

		return nil
	case []any:
		for _, item := range v {
			if err := collectReferences(item, found); err != nil {
				return err
			}
		}

		return nil
	default:
		return nil
	}
}
