package aksjeradar

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Forum posts are written in markdown and rendered to HTML once, at write
// time; the rendered form is cached on the row.

const (
	maxPostTitleLen = 200
	maxPostBodyLen  = 20_000
)

// forumMarkdown renders GitHub-flavored tables and strikethrough but keeps
// raw HTML escaped: user input never reaches the page unfiltered.
var forumMarkdown = goldmark.New(
	goldmark.WithExtensions(extension.Table, extension.Strikethrough, extension.Linkify),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// RenderPost converts a markdown post body to HTML.
func RenderPost(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := forumMarkdown.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("cannot render post: %w", err)
	}
	return buf.String(), nil
}

// ValidatePost checks the title and body limits of a new forum post.
func ValidatePost(title, body string) error {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if title == "" {
		return fmt.Errorf("post title cannot be empty")
	}
	if utf8.RuneCountInString(title) > maxPostTitleLen {
		return fmt.Errorf("post title exceeds %d characters", maxPostTitleLen)
	}
	if body == "" {
		return fmt.Errorf("post body cannot be empty")
	}
	if utf8.RuneCountInString(body) > maxPostBodyLen {
		return fmt.Errorf("post body exceeds %d characters", maxPostBodyLen)
	}
	return nil
}
