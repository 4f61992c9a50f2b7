package extractor

import (
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docFromHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

// sentence produces a paragraph of n filler words
func sentence(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("word%d", i)
	}
	return strings.Join(words, " ")
}

func TestExtractFiltersBoilerplate(t *testing.T) {
	body := sentence(120)
	html := fmt.Sprintf(`<html><body>
		<p>%s</p>
		<p>%s Please read our cookie policy before continuing to browse the site today.</p>
	</body></html>`, body, sentence(110))

	content := ExtractFromDocument(docFromHTML(t, html), "Some Title")

	require.NotNil(t, content)
	assert.Equal(t, 1, content.ParagraphCount)
	assert.Equal(t, 120, content.WordCount)
}

func TestExtractReturnsNilWithoutUsableParagraphs(t *testing.T) {
	html := `<html><body><p>Too short.</p><p>Also short.</p></body></html>`

	content := ExtractFromDocument(docFromHTML(t, html), "Title")

	assert.Nil(t, content)
}

func TestExtractTruncatesLongContent(t *testing.T) {
	html := fmt.Sprintf(`<html><body><p>%s</p><p>%s</p><p>%s</p></body></html>`,
		sentence(250), sentence(250), sentence(250))

	content := ExtractFromDocument(docFromHTML(t, html), "Title")

	require.NotNil(t, content)
	assert.Equal(t, 750, content.WordCount)
	assert.True(t, strings.HasSuffix(content.Truncated, ElisionMarker))
	// Truncated text holds exactly MaxContentWords words plus the marker
	trimmed := strings.TrimSuffix(content.Truncated, ElisionMarker)
	assert.Len(t, strings.Fields(trimmed), MaxContentWords)
}

func TestExtractSkipsTitleEcho(t *testing.T) {
	title := "the big announcement"
	echo := fmt.Sprintf("%s %s", title, sentence(120))
	html := fmt.Sprintf(`<html><body><p>%s</p><p>%s</p></body></html>`, echo, sentence(130))

	content := ExtractFromDocument(docFromHTML(t, html), title)

	require.NotNil(t, content)
	assert.Equal(t, 1, content.ParagraphCount)
	assert.Equal(t, 130, content.WordCount)
}
