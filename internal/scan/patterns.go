package scan

import (
	"regexp"

	"github.com/aurahq/aura/internal/models"
)

// linePattern is one regex heuristic applied line-by-line.
type linePattern struct {
	re       *regexp.Regexp
	message  string
	kind     models.IssueKind
	severity models.Severity
	fix      string
}

// securityPatterns apply to every language, including Python. They catch
// dynamic code execution and assignment-shaped hardcoded secrets.
var securityPatterns = []linePattern{
	{regexp.MustCompile(`(?i)eval\s*\(`), "Use of eval() is dangerous", models.IssueKindSecurity, models.SeverityCritical, "Avoid dynamic code execution"},
	{regexp.MustCompile(`(?i)exec\s*\(`), "Use of exec() is dangerous", models.IssueKindSecurity, models.SeverityCritical, "Avoid dynamic code execution"},
	{regexp.MustCompile(`(?i)__import__\s*\(`), "Use of __import__() is dangerous", models.IssueKindSecurity, models.SeverityHigh, "Use static imports"},
	{regexp.MustCompile(`(?i)password\s*=\s*["']`), "Hardcoded password detected", models.IssueKindSecurity, models.SeverityCritical, "Use environment variables or secure configuration management"},
	{regexp.MustCompile(`(?i)api_key\s*=\s*["']`), "Hardcoded API key detected", models.IssueKindSecurity, models.SeverityCritical, "Use environment variables or secure configuration management"},
	{regexp.MustCompile(`(?i)apikey\s*=\s*["']`), "Hardcoded API key detected", models.IssueKindSecurity, models.SeverityCritical, "Use environment variables or secure configuration management"},
	{regexp.MustCompile(`(?i)secret\s*=\s*["']`), "Hardcoded secret detected", models.IssueKindSecurity, models.SeverityCritical, "Use environment variables or secure configuration management"},
}

// javaPatterns are extra heuristics for Java sources.
var javaPatterns = []linePattern{
	{regexp.MustCompile(`String\s+\w*[Pp]assword\s*=\s*["']`), "Hardcoded password detected", models.IssueKindSecurity, models.SeverityCritical, "Use environment variables or secure configuration"},
	{regexp.MustCompile(`String\s+\w*[Aa]pi[Kk]ey\s*=\s*["']`), "Hardcoded API key detected", models.IssueKindSecurity, models.SeverityCritical, "Use environment variables or secure configuration"},
	{regexp.MustCompile(`System\.getProperty\s*\([^)]*\)\s*==\s*null`), "Potential null pointer exception", models.IssueKindBug, models.SeverityHigh, "Guard the property lookup before dereferencing"},
	{regexp.MustCompile(`\.equals\s*\([^)]*\)\s*==\s*true`), "Redundant boolean comparison", models.IssueKindStyle, models.SeverityLow, "Drop the == true comparison"},
}

// appendPattern flags lines ending in a list-append call. This is a blunt,
// false-positive-prone heuristic: any trailing .append(...) call triggers it,
// whether or not a comprehension would actually apply.
var appendPattern = regexp.MustCompile(`\.append\s*\([^)]*\)\s*$`)

// Java null-check and raw-type heuristics, matching chained calls assigned to
// a String and generic-less List declarations.
var (
	javaCallPattern     = regexp.MustCompile(`\.\w+\s*\([^)]*\)`)
	javaChainedAssign   = regexp.MustCompile(`String\s+\w+\s*=\s*\w+\.`)
	javaRawListPattern  = regexp.MustCompile(`List\s+\w+\s*=`)
)
