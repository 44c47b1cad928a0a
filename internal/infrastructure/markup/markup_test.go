package markup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderer_Render(t *testing.T) {
	r := NewRenderer()

	tests := []struct {
		name     string
		src      string
		contains []string
		excludes []string
	}{
		{
			name:     "markdown emphasis and lists",
			src:      "**Хлопок** 100%\n\n- S\n- M",
			contains: []string{"<strong>Хлопок</strong>", "<li>S</li>"},
		},
		{
			name:     "hard wraps keep plain text lines",
			src:      "line one\nline two",
			contains: []string{"line one<br"},
		},
		{
			name:     "script tags are stripped",
			src:      "hello <script>alert(1)</script>",
			excludes: []string{"<script", "alert(1)</script>"},
		},
		{
			name:     "javascript links are dropped",
			src:      "[click](javascript:alert(1))",
			excludes: []string{"javascript:"},
		},
		{
			name:     "external links get rel nofollow",
			src:      "[docs](https://example.com)",
			contains: []string{`href="https://example.com"`, `nofollow`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := string(r.Render(tt.src))
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}

	assert.Empty(t, r.Render("   "))
}

func TestRenderer_Excerpt(t *testing.T) {
	r := NewRenderer()
	assert.Equal(t, "Мягкое худи", r.Excerpt("**Мягкое** худи", 50))

	long := strings.Repeat("а", 30)
	got := r.Excerpt(long, 10)
	assert.Equal(t, strings.Repeat("а", 10)+"…", got)
}
