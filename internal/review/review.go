// Package review runs advisory heuristics over generated files. Findings are
// reported only; they never change what the pipeline writes.
package review

import (
	"regexp"
	"strings"

	"route-forge/internal/model"
)

const maxLineLength = 80

var (
	camelCase    = regexp.MustCompile(`^[a-z][a-zA-Z0-9]*$`)
	declaredVar  = regexp.MustCompile(`\b(?:let|const|var)\s+(\w+)`)
	declaredFunc = regexp.MustCompile(`\bfunction\s+(\w+)`)
	jsDocComment = regexp.MustCompile(`/\*\*[\s\S]*?\*/`)
)

// Review returns the issues found in text for an artifact of kind.
// The swagger document only gets the structural checks in Docs.
func Review(text string, kind model.ArtifactKind) []string {
	if kind == model.KindSwagger {
		return nil
	}

	var issues []string

	if strings.Contains(text, "TODO") {
		issues = append(issues, "Code contains TODO comments")
	}
	if strings.Contains(text, "console.log") {
		issues = append(issues, "Code contains console.log statements")
	}

	switch kind {
	case model.KindRoute:
		if !strings.Contains(text, "router.") {
			issues = append(issues, "Route file doesn't use Express router")
		}
		if !strings.Contains(text, "module.exports") {
			issues = append(issues, "Route file doesn't export the router")
		}
	case model.KindController:
		if !strings.Contains(text, "exports.") && !strings.Contains(text, "module.exports") {
			issues = append(issues, "Controller doesn't export any functions")
		}
	case model.KindService:
		lower := strings.ToLower(text)
		if !strings.Contains(lower, "class") && !strings.Contains(lower, "function") {
			issues = append(issues, "Service file doesn't define any classes or functions")
		}
	}

	if !strings.Contains(text, "async") {
		issues = append(issues, "Consider using async/await for asynchronous operations")
	}
	if !strings.Contains(text, "try") {
		issues = append(issues, "Consider adding try-catch blocks for error handling")
	}

	issues = append(issues, naming(text)...)
	issues = append(issues, formatting(text)...)
	if !jsDocComment.MatchString(text) {
		issues = append(issues, "Missing JSDoc comments")
	}

	return issues
}

// Suggest returns improvement suggestions for an artifact of kind
func Suggest(text string, kind model.ArtifactKind) []string {
	var out []string
	lower := strings.ToLower(text)
	logic := kind == model.KindController || kind == model.KindService

	if logic && !strings.Contains(text, "await") {
		out = append(out, "Consider using async/await for database operations")
	}
	if kind == model.KindRoute && !strings.Contains(lower, "validate") {
		out = append(out, "Consider adding input validation to the route")
	}
	if logic && !strings.Contains(lower, "transaction") {
		out = append(out, "Consider using database transactions for data integrity")
	}
	return out
}

func naming(text string) []string {
	var issues []string
	seen := make(map[string]bool)

	for _, re := range []*regexp.Regexp{declaredVar, declaredFunc} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			name := m[1]
			if seen[name] || camelCase.MatchString(name) {
				continue
			}
			seen[name] = true
			issues = append(issues, "'"+name+"' is not in camelCase")
		}
	}
	return issues
}

func formatting(text string) []string {
	var issues []string
	lines := strings.Split(text, "\n")

	oddIndent, long := false, false
	for _, line := range lines {
		if strings.HasPrefix(line, " ") && !strings.HasPrefix(line, "  ") {
			oddIndent = true
		}
		if len([]rune(line)) > maxLineLength {
			long = true
		}
	}

	if oddIndent {
		issues = append(issues, "Indentation should be 2 spaces")
	}
	if long {
		issues = append(issues, "Some lines are longer than 80 characters")
	}
	if !strings.HasSuffix(text, "\n") {
		issues = append(issues, "File should end with a newline")
	}
	return issues
}

// SchemaUsage reports columns of schema tables that text mentions by table
// name but never uses. Matching is case-insensitive.
func SchemaUsage(text string, tables map[string][]string) []string {
	lower := strings.ToLower(text)
	var issues []string

	for _, table := range sortedKeys(tables) {
		if !strings.Contains(lower, strings.ToLower(table)) {
			continue
		}
		for _, col := range tables[table] {
			if !strings.Contains(lower, strings.ToLower(col)) {
				issues = append(issues, "The column '"+col+"' of table '"+table+"' is defined in the schema but not used in the code")
			}
		}
	}
	return issues
}

// MiddlewareUsage returns the names from catalog that appear in text
func MiddlewareUsage(text string, catalog []string) []string {
	lower := strings.ToLower(text)
	var used []string
	for _, name := range catalog {
		if name != "" && strings.Contains(lower, strings.ToLower(name)) {
			used = append(used, name)
		}
	}
	return used
}
