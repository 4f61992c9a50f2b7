package models

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestArticleViewTruncatesAtRuneBoundary(t *testing.T) {
	// A multi-byte character straddling the limit must not be split.
	content := strings.Repeat("a", listContentLimit-1) + strings.Repeat("é", 10)
	view := NewArticleView(&Article{Title: "Long read", Content: content}, true)

	assert.True(t, utf8.ValidString(view.Content))
	assert.True(t, strings.HasSuffix(view.Content, "..."))

	trimmed := strings.TrimSuffix(view.Content, "...")
	assert.Equal(t, listContentLimit, utf8.RuneCountInString(trimmed))
	assert.True(t, strings.HasSuffix(trimmed, "é"))
}

func TestArticleViewKeepsShortContent(t *testing.T) {
	view := NewArticleView(&Article{Title: "Note", Content: "short"}, true)
	assert.Equal(t, "short", view.Content)

	untruncated := NewArticleView(&Article{Title: "Note", Content: strings.Repeat("a", listContentLimit+50)}, false)
	assert.Len(t, untruncated.Content, listContentLimit+50)
}
