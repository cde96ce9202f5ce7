package aksjeradar

import (
	"strings"
	"testing"
)

func TestRenderPostEscapesHTML(t *testing.T) {
	html, err := RenderPost("hei <script>alert(1)</script>")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(html, "<script>") {
		t.Errorf("raw HTML reached the rendered output: %s", html)
	}
}

func TestRenderPostMarkdown(t *testing.T) {
	html, err := RenderPost("**viktig** og ~~feil~~")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, "<strong>viktig</strong>") {
		t.Errorf("bold not rendered: %s", html)
	}
	if !strings.Contains(html, "<del>feil</del>") {
		t.Errorf("strikethrough not rendered: %s", html)
	}
}

func TestValidatePost(t *testing.T) {
	tests := []struct {
		name  string
		title string
		body  string
		ok    bool
	}{
		{"valid", "Equinor Q3", "Gode tall i dag.", true},
		{"empty title", "", "body", false},
		{"blank title", "   ", "body", false},
		{"empty body", "title", "", false},
		{"title too long", strings.Repeat("x", 201), "body", false},
		{"body too long", "title", strings.Repeat("y", 20_001), false},
		{"at the limits", strings.Repeat("x", 200), strings.Repeat("y", 20_000), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePost(tt.title, tt.body)
			if (err == nil) != tt.ok {
				t.Errorf("ValidatePost = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}
