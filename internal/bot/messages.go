package bot

import (
	"fmt"
	"strings"

	"github.com/nutype/nutype-bot/internal/domain/project"
)

const welcomeText = `Welcome to Nutype!

We're a community of beta testers for early-stage crypto and onchain projects.

How it works:
1. Admins will register new projects to test
2. You try out the project and share feedback
3. Use #ProjectName to tag your feedback
4. We aggregate and send it to the project team

Commands:
/projects - See active projects to test
/start - See this message again

To give feedback, just type:
#ProjectName your feedback here

Happy testing!`

const (
	noActiveProjectsText = "No active projects right now. Stay tuned!"
	tagHintText          = "To give feedback, type:\n#ProjectName your feedback here"
	progressText         = "Generating AI summary... this may take a moment."
	invalidNameText      = "Project names may only contain letters, digits and underscores."
	genericFailureText   = "Something went wrong. Please try again later."
)

var refusalText = map[string]string{
	CommandRegister: "Only admins can register projects.",
	CommandClose:    "Only admins can close projects.",
	CommandFeedback: "Only admins can export feedback.",
}

func usageText(command string) string {
	return fmt.Sprintf("Usage: /%s ProjectName", command)
}

func projectListText(projects []project.Project) string {
	var b strings.Builder
	b.WriteString("Active projects to test:\n\n")
	for _, p := range projects {
		b.WriteString("  #")
		b.WriteString(p.Name)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(tagHintText)
	return b.String()
}

func registeredText(name string) string {
	return fmt.Sprintf("Project #%s registered!\n\nTesters can now submit feedback with:\n#%s their feedback", name, name)
}

func duplicateText(name string) string {
	return fmt.Sprintf("Project '%s' already exists.", name)
}

func closedText(name string) string {
	return fmt.Sprintf("Project #%s closed.", name)
}

func notFoundOrClosedText(name string) string {
	return fmt.Sprintf("Project '%s' not found or already closed.", name)
}

func notFoundText(name string) string {
	return fmt.Sprintf("Project '%s' not found.", name)
}

func noFeedbackText(name string) string {
	return fmt.Sprintf("No feedback collected for #%s yet.", name)
}

func acknowledgementText(name string) string {
	return fmt.Sprintf("Feedback recorded for #%s. Thanks!", name)
}
