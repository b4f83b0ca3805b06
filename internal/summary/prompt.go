package summary

import "fmt"

const promptTemplate = `You are helping a beta testing community summarize user feedback for a crypto project called "%s".

Below is raw feedback from testers. Please create a structured summary that can be shared with the project team.

Format your response as:

## Summary
(2-3 sentence overview)

## UX & Usability
(bullet points)

## Bugs & Issues
(bullet points)

## Feature Requests
(bullet points)

## What Works Well
(bullet points)

## Comparisons to Competitors
(bullet points, if any)

If a category has no relevant feedback, write "No feedback in this category."

---
RAW FEEDBACK:

%s`

// BuildPrompt renders the summary instructions for a project's raw feedback.
func BuildPrompt(projectName, rawFeedback string) string {
	return fmt.Sprintf(promptTemplate, projectName, rawFeedback)
}
