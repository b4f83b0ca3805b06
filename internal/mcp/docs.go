package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `nutype-bot collects tagged beta-testing feedback for community projects.

- Project: a named feedback target. Active projects accept feedback; closed ones keep their history.
- Feedback: a message captured from chat when it starts with #ProjectName.

Tools:
- list_projects: active projects, newest first.
- register_project / close_project / export_feedback: admin only.
- submit_feedback: records feedback as the calling identity.

Replies are returned exactly as the chat bot would send them.`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "nutype://docs/tagging",
		Name:        "tagging",
		Title:       "Tagging feedback",
		Description: "How chat messages become feedback",
		Content: `# Tagging feedback

A message is captured when the trimmed text starts with ` + "`#Name`" + ` followed by
whitespace and a non-empty remainder:

    #Alpha the onboarding flow is confusing

- Name characters: letters, digits, underscore. Matching is case-sensitive.
- A tag anywhere but the start is ignored.
- Tags that do not name an active project are ignored silently.
- Messages starting with ` + "`/`" + ` are commands and never captured.
`,
	},
	{
		URI:         "nutype://docs/export",
		Name:        "export",
		Title:       "Feedback export",
		Description: "Layout of export_feedback output",
		Content: `# Feedback export

An export has a header (name, status, feedback count), an AI summary with six
sections, and the raw feedback in chronological order:

    @author (2025-01-02 15:04:05):
    message

When the summary cannot be generated, a fallback line replaces it and the raw
feedback is still returned in full. Oversized exports are split: header and
summary first, then raw feedback chunks prefixed "Raw feedback (continued):".
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
