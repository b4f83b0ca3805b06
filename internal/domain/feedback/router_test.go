package feedback_test

import (
	"context"
	"errors"
	"testing"

	"github.com/nutype/nutype-bot/internal/domain/feedback"
	"github.com/nutype/nutype-bot/internal/repository"
	"github.com/stretchr/testify/require"
)

type appendCall struct {
	project string
	message string
}

type appenderStub struct {
	active map[string]bool
	err    error
	calls  []appendCall
}

func (a *appenderStub) Append(_ context.Context, projectName string, author feedback.Author, message string) (*feedback.Feedback, error) {
	a.calls = append(a.calls, appendCall{project: projectName, message: message})
	if a.err != nil {
		return nil, a.err
	}
	if !a.active[projectName] {
		return nil, feedback.ErrNoActiveProject
	}
	return &feedback.Feedback{ID: int64(len(a.calls)), AuthorID: author.ID, Message: message}, nil
}

func TestParseTag(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantTag  string
		wantBody string
		wantOK   bool
	}{
		{name: "simple", text: "#Alpha hello world", wantTag: "Alpha", wantBody: "hello world", wantOK: true},
		{name: "leading whitespace", text: "   #Alpha hello", wantTag: "Alpha", wantBody: "hello", wantOK: true},
		{name: "multiline body", text: "#Alpha line one\nline two", wantTag: "Alpha", wantBody: "line one\nline two", wantOK: true},
		{name: "newline separator", text: "#Alpha\nbody", wantTag: "Alpha", wantBody: "body", wantOK: true},
		{name: "no-break space separator", text: "#Alpha\u00a0hello", wantTag: "Alpha", wantBody: "hello", wantOK: true},
		{name: "ideographic space separator", text: "#Alpha\u3000hello", wantTag: "Alpha", wantBody: "hello", wantOK: true},
		{name: "vertical tab separator", text: "#Alpha\vhello", wantTag: "Alpha", wantBody: "hello", wantOK: true},
		{name: "line separator", text: "#Alpha\u2028hello", wantTag: "Alpha", wantBody: "hello", wantOK: true},
		{name: "unicode tag", text: "#Проект отлично", wantTag: "Проект", wantBody: "отлично", wantOK: true},
		{name: "underscore and digits", text: "#web_3 nice", wantTag: "web_3", wantBody: "nice", wantOK: true},
		{name: "only first tag", text: "#Alpha #Beta both", wantTag: "Alpha", wantBody: "#Beta both", wantOK: true},
		{name: "empty remainder", text: "  #Alpha  ", wantOK: false},
		{name: "tag not at start", text: "text #Alpha hello", wantOK: false},
		{name: "no whitespace after tag", text: "#Alpha-beta text", wantOK: false},
		{name: "bare hash", text: "# hello", wantOK: false},
		{name: "plain chat", text: "hello everyone", wantOK: false},
		{name: "empty", text: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag, body, ok := feedback.ParseTag(tt.text)
			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.wantTag, tag)
			require.Equal(t, tt.wantBody, body)
		})
	}
}

func TestRouter_Route(t *testing.T) {
	ctx := context.Background()
	author := feedback.Author{ID: "7", Username: "bob"}

	t.Run("captures active project", func(t *testing.T) {
		stub := &appenderStub{active: map[string]bool{"Alpha": true}}
		router := feedback.NewRouter(stub, nil)

		fb, tag, err := router.Route(ctx, author, "#Alpha hello world")
		require.NoError(t, err)
		require.NotNil(t, fb)
		require.Equal(t, "Alpha", tag)
		require.Equal(t, []appendCall{{project: "Alpha", message: "hello world"}}, stub.calls)
	})

	t.Run("case sensitive", func(t *testing.T) {
		stub := &appenderStub{active: map[string]bool{"Alpha": true}}
		router := feedback.NewRouter(stub, nil)

		fb, _, err := router.Route(ctx, author, "#alpha hello")
		require.NoError(t, err)
		require.Nil(t, fb)
	})

	t.Run("ignores unmatched text without touching the store", func(t *testing.T) {
		stub := &appenderStub{active: map[string]bool{"Alpha": true}}
		router := feedback.NewRouter(stub, nil)

		for _, text := range []string{"  #Alpha  ", "text #Alpha hello", "just chatting"} {
			fb, _, err := router.Route(ctx, author, text)
			require.NoError(t, err)
			require.Nil(t, fb)
		}
		require.Empty(t, stub.calls)
	})

	t.Run("unknown project is silent", func(t *testing.T) {
		stub := &appenderStub{active: map[string]bool{}}
		router := feedback.NewRouter(stub, nil)

		fb, _, err := router.Route(ctx, author, "#Hashtag unrelated text")
		require.NoError(t, err)
		require.Nil(t, fb)
		require.Len(t, stub.calls, 1)
	})

	t.Run("storage errors propagate", func(t *testing.T) {
		stub := &appenderStub{err: repository.NewStorageError("append feedback", errors.New("boom"))}
		router := feedback.NewRouter(stub, nil)

		fb, tag, err := router.Route(ctx, author, "#Alpha hello")
		require.ErrorIs(t, err, repository.ErrStorage)
		require.Nil(t, fb)
		require.Equal(t, "Alpha", tag)
	})
}
