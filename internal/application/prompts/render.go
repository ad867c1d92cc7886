// Package prompts is the Prompt Library (C6): versioned system, recipe,
// and fix-prompt text treated as data, plus the small template renderer
// the Stage Operators use to bind a context into that text.
package prompts

import (
	"fmt"
	"regexp"
	"strings"
)

// varPattern matches {{variable}} placeholders, the same simple
// mustache-style syntax the teacher's TemplateProcessor resolves before
// falling back to an expr-lang expression; this package only ever needs
// plain variable substitution, never expression evaluation, so that
// second stage is dropped.
var varPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.]+)\s*\}\}`)

// Render substitutes every {{key}} placeholder in tmpl with vars[key],
// stringified. A placeholder with no matching key is left untouched so
// a missing optional field is visible in the rendered output rather
// than silently producing an empty string.
func Render(tmpl string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(tmpl, func(placeholder string) string {
		m := varPattern.FindStringSubmatch(placeholder)
		key := m[1]
		if v, ok := vars[key]; ok {
			return v
		}
		return placeholder
	})
}

// RenderAny is Render over arbitrary values, each formatted with fmt.Sprint.
func RenderAny(tmpl string, vars map[string]any) string {
	strVars := make(map[string]string, len(vars))
	for k, v := range vars {
		strVars[k] = fmt.Sprint(v)
	}
	return Render(tmpl, strVars)
}

// JoinNonEmpty joins non-empty strings with sep, skipping blanks —
// used to compose optional prompt sections without stray separators.
func JoinNonEmpty(parts []string, sep string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
