package sandbox

import "regexp"

// Dialect selects the compile path for a snippet.
type Dialect string

const (
	// DialectPlain is interpreted directly.
	DialectPlain Dialect = "plain"
	// DialectTyped is a statically-typed superset and is transpiled before
	// interpretation.
	DialectTyped Dialect = "typed"
)

// Syntactic markers of the typed superset. Heuristic by design: a false
// negative is harmless because the runner falls back to the transpile path
// when the plain path fails to compile.
var typedMarkers = []*regexp.Regexp{
	regexp.MustCompile(`\binterface\s+[A-Za-z_$][\w$]*\s*\{`),
	regexp.MustCompile(`\btype\s+[A-Za-z_$][\w$]*\s*=`),
	regexp.MustCompile(`\benum\s+[A-Za-z_$][\w$]*\s*\{`),
	regexp.MustCompile(`\bimplements\s+[A-Za-z_$]`),
	regexp.MustCompile(`\b(public|private|protected|readonly)\s+[A-Za-z_$][\w$]*\s*[:;=(]`),
	regexp.MustCompile(`:\s*(string|number|boolean|void|any|unknown|never|object|bigint)\b`),
	regexp.MustCompile(`:\s*[A-Za-z_$][\w$]*(\[\])?\s*[|&]\s*[A-Za-z_$]`),
	regexp.MustCompile(`\bfunction\s+[A-Za-z_$][\w$]*\s*<[A-Za-z_$]`),
	regexp.MustCompile(`\bas\s+(const|string|number|boolean|[A-Z][\w$]*)\b`),
	regexp.MustCompile(`\)\s*:\s*[A-Za-z_$][\w$]*(\[\])?\s*(\{|=>)`),
}

// ClassifyDialect inspects a snippet for type annotations, interfaces,
// generics, access modifiers and union markers to pick the compile path.
// Best-effort only; it must never be the reason valid code gets rejected.
func ClassifyDialect(source string) Dialect {
	stripped := stripLiterals(source)

	for _, marker := range typedMarkers {
		if marker.MatchString(stripped) {
			return DialectTyped
		}
	}

	return DialectPlain
}

// stripLiterals blanks out string literals and comments so their contents do
// not trip the markers.
func stripLiterals(source string) string {
	out := []rune(source)
	var quote rune

	inLineComment := false
	inBlockComment := false

	for i := 0; i < len(out); i++ {
		c := out[i]

		switch {
		case inLineComment:
			if c == '\n' {
				inLineComment = false
			} else {
				out[i] = ' '
			}
		case inBlockComment:
			if c == '*' && i+1 < len(out) && out[i+1] == '/' {
				out[i] = ' '
				out[i+1] = ' '
				inBlockComment = false
				i++
			} else {
				out[i] = ' '
			}
		case quote != 0:
			if c == '\\' && i+1 < len(out) {
				out[i] = ' '
				out[i+1] = ' '
				i++
			} else if c == quote {
				quote = 0
			} else {
				out[i] = ' '
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '/' && i+1 < len(out) && out[i+1] == '/':
			inLineComment = true
		case c == '/' && i+1 < len(out) && out[i+1] == '*':
			inBlockComment = true
		}
	}

	return string(out)
}
