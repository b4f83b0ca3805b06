package export

import (
	"fmt"
	"strings"

	"github.com/nutype/nutype-bot/internal/domain/feedback"
)

const (
	timestampLayout = "2006-01-02 15:04:05"

	// FallbackSummary replaces the summary when generation fails.
	FallbackSummary = "(AI summary failed - showing raw feedback only)"

	// ContinuedPrefix heads every raw feedback chunk of an oversized export.
	ContinuedPrefix = "Raw feedback (continued):\n\n"
)

// FormatRaw renders feedback as labeled blocks separated by a blank line,
// in the order given.
func FormatRaw(items []feedback.Feedback) string {
	blocks := make([]string, 0, len(items))
	for _, item := range items {
		label := item.AuthorLabel
		if label == "" {
			label = "anonymous"
		}
		blocks = append(blocks, fmt.Sprintf("@%s (%s):\n%s",
			label, item.CreatedAt.UTC().Format(timestampLayout), item.Message))
	}
	return strings.Join(blocks, "\n\n")
}

func title(projectName string) string {
	return fmt.Sprintf("# %s - Beta Testing Feedback", projectName)
}

func formatDocument(e *Export) string {
	var b strings.Builder
	b.WriteString(title(e.Project.Name))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "**Status:** %s\n", e.Project.Status())
	fmt.Fprintf(&b, "**Feedback count:** %d\n", e.Count)
	b.WriteString("\n---\n\n")
	b.WriteString(e.Summary)
	b.WriteString("\n\n---\n\n## Raw Feedback\n\n")
	b.WriteString(e.Raw)
	b.WriteString("\n")
	return b.String()
}
