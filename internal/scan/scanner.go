// Package scan implements the static heuristic scanner. It produces issues
// from source text using language-specific pattern rules: a Tree-sitter
// syntax-tree walk for Python and regex line scans for everything else.
// None of the checks involve control- or data-flow analysis; they are
// deliberately shallow pattern matches.
package scan

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/aurahq/aura/internal/models"
)

// maxLiteralLen is the string-literal length above which a literal is flagged
// as an apparent magic value.
const maxLiteralLen = 50

// Scanner produces issues from source text. It is stateless and safe for
// concurrent use; a Tree-sitter parser is created per call since parsers are
// not goroutine-safe.
type Scanner struct{}

// New returns a Scanner.
func New() *Scanner {
	return &Scanner{}
}

// Scan analyzes code for the given language tag and returns issues in
// discovery order. It never returns an error: a parse failure becomes a
// single critical issue instead.
func (s *Scanner) Scan(code, language string) []models.Issue {
	issues := []models.Issue{}

	lang := strings.ToLower(language)
	if lang == "python" {
		issues = append(issues, s.scanPythonTree(code)...)
	}
	if lang == "java" {
		issues = append(issues, scanJavaLines(code)...)
	}

	lines := strings.Split(code, "\n")
	for i, line := range lines {
		for _, p := range securityPatterns {
			if p.re.MatchString(line) {
				issues = append(issues, models.Issue{
					Kind:       p.kind,
					Severity:   p.severity,
					Line:       i + 1,
					Message:    p.message,
					Suggestion: p.fix,
				})
			}
		}
	}

	if lang == "python" {
		for i, line := range lines {
			if appendPattern.MatchString(line) {
				issues = append(issues, models.Issue{
					Kind:       models.IssueKindPerformance,
					Severity:   models.SeverityLow,
					Line:       i + 1,
					Message:    "Consider list comprehension for better performance",
					Suggestion: "Use list comprehension: [x for x in iterable]",
				})
			}
		}
	}

	return issues
}

// scanPythonTree walks the parsed Python syntax tree. On a parse failure it
// emits exactly one critical issue at the first error's line and skips the
// rest of the walk.
func (s *Scanner) scanPythonTree(code string) []models.Issue {
	src := []byte(code)

	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		// Tree-sitter only fails on cancellation or internal errors, never
		// on malformed input. Treat it like a parse failure at line 0.
		return []models.Issue{syntaxIssue(0, err.Error())}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		line, msg := firstSyntaxError(root)
		return []models.Issue{syntaxIssue(line, msg)}
	}

	var issues []models.Issue
	walkPython(root, src, &issues)
	return issues
}

func syntaxIssue(line int, msg string) models.Issue {
	return models.Issue{
		Kind:       models.IssueKindBug,
		Severity:   models.SeverityCritical,
		Line:       line,
		Message:    "Syntax error: " + msg,
		Suggestion: "Fix syntax error",
	}
}

// firstSyntaxError finds the first ERROR or MISSING node and returns its
// 1-based line and a short description.
func firstSyntaxError(node *sitter.Node) (int, string) {
	if node.IsError() {
		return int(node.StartPoint().Row) + 1, "invalid syntax"
	}
	if node.IsMissing() {
		return int(node.StartPoint().Row) + 1, "missing " + node.Type()
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if !child.HasError() && !child.IsMissing() {
			continue
		}
		if line, msg := firstSyntaxError(child); line > 0 {
			return line, msg
		}
	}
	return 0, "invalid syntax"
}

// walkPython recursively visits named nodes, flagging bare except handlers
// and long string literals.
func walkPython(node *sitter.Node, src []byte, issues *[]models.Issue) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)

		switch child.Type() {
		case "except_clause":
			// A bare `except:` has only the handler block as a named child;
			// a typed handler carries the exception expression first.
			if first := child.NamedChild(0); first != nil && first.Type() == "block" {
				*issues = append(*issues, models.Issue{
					Kind:       models.IssueKindBug,
					Severity:   models.SeverityHigh,
					Line:       int(child.StartPoint().Row) + 1,
					Message:    "Bare except clause catches all exceptions, including system exits",
					Suggestion: "Specify exception types: except ValueError as e:",
				})
			}
		case "string":
			if literalLen(child.Content(src)) > maxLiteralLen {
				*issues = append(*issues, models.Issue{
					Kind:       models.IssueKindStyle,
					Severity:   models.SeverityLow,
					Line:       int(child.StartPoint().Row) + 1,
					Message:    "Consider extracting long string to a constant",
					Suggestion: "Define as a module-level constant",
				})
			}
		}

		walkPython(child, src, issues)
	}
}

// literalLen returns the length of a string literal's content, ignoring its
// surrounding quotes (single, double, or triple).
func literalLen(text string) int {
	for _, q := range []string{`"""`, "'''", `"`, "'"} {
		if strings.HasPrefix(text, q) && strings.HasSuffix(text, q) && len(text) >= 2*len(q) {
			return len(text) - 2*len(q)
		}
	}
	return len(text)
}

// scanJavaLines applies the Java-specific line heuristics: null-check and
// raw-type suggestions plus the javaPatterns table.
func scanJavaLines(code string) []models.Issue {
	var issues []models.Issue

	for i, line := range strings.Split(code, "\n") {
		lower := strings.ToLower(line)
		if javaCallPattern.MatchString(line) &&
			!strings.Contains(lower, "if") && !strings.Contains(lower, "null") &&
			javaChainedAssign.MatchString(line) {
			issues = append(issues, models.Issue{
				Kind:       models.IssueKindBestPractice,
				Severity:   models.SeverityMedium,
				Line:       i + 1,
				Message:    "Consider null check before method call",
				Suggestion: "Add null check: if (obj != null) { ... }",
			})
		}

		if javaRawListPattern.MatchString(line) && !strings.Contains(line, "<") {
			issues = append(issues, models.Issue{
				Kind:       models.IssueKindBestPractice,
				Severity:   models.SeverityLow,
				Line:       i + 1,
				Message:    "Using raw type instead of generic",
				Suggestion: "Use generic type: List<String> list = new ArrayList<>();",
			})
		}

		for _, p := range javaPatterns {
			if p.re.MatchString(line) {
				issues = append(issues, models.Issue{
					Kind:       p.kind,
					Severity:   p.severity,
					Line:       i + 1,
					Message:    p.message,
					Suggestion: p.fix,
				})
			}
		}
	}

	return issues
}
