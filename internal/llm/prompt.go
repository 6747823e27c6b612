package llm

import (
	"fmt"
	"strings"
)

const reviewSystemPrompt = "You are an expert code reviewer and security analyst. Analyze code thoroughly and provide specific, actionable feedback."

// BuildReviewPrompt constructs the system and user prompts for a code
// review completion.
func BuildReviewPrompt(code, language string) (system, user string) {
	system = reviewSystemPrompt

	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyze the following %s code and identify issues. Return a structured response with:\n", language)
	sb.WriteString(`1. Potential bugs (with line numbers if possible)
2. Security vulnerabilities
3. Performance issues
4. Code style improvements
5. Best practice violations

For each issue, provide:
- Type (bug/security/performance/style/best_practice)
- Severity (critical/high/medium/low)
- Line number (if applicable)
- Message (brief description)
- Suggestion (specific fix recommendation)

`)
	fmt.Fprintf(&sb, "Code:\n```%s\n%s\n```\n\n", language, code)
	sb.WriteString("Provide specific, actionable suggestions in a clear format.")

	return system, sb.String()
}
