package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/russross/blackfriday/v2"
)

// DocsHandler renders the repository's markdown documentation as HTML.
type DocsHandler struct{}

func NewDocsHandler() *DocsHandler {
	return &DocsHandler{}
}

// allowedDocs is the closed set of documents the handler will serve.
var allowedDocs = map[string]string{
	"README": "README.md",
	"API":    "API.md",
}

var docTitles = map[string]string{
	"README": "Project Overview",
	"API":    "API Reference",
}

// ServeMarkdownAsHTML handles GET /doc/:doc.
func (h *DocsHandler) ServeMarkdownAsHTML(c *gin.Context) {
	docName := c.Param("doc")

	fileName, ok := allowedDocs[docName]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}

	content, err := os.ReadFile(filepath.Join(".", fileName))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}

	extensions := blackfriday.CommonExtensions | blackfriday.AutoHeadingIDs
	renderer := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.CommonHTMLFlags,
	})
	htmlContent := blackfriday.Run(content, blackfriday.WithRenderer(renderer), blackfriday.WithExtensions(extensions))

	title, ok := docTitles[docName]
	if !ok {
		title = strings.ReplaceAll(docName, "_", " ")
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, wrapWithTheme(string(htmlContent), title))
}

// wrapWithTheme wraps rendered markdown in the shared documentation page.
func wrapWithTheme(content, title string) string {
	return `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>` + title + ` - News Aggregator</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            line-height: 1.6;
            color: #333;
            background: #f8f9fa;
            padding: 20px;
        }

        .container { max-width: 900px; margin: 0 auto; }

        .header {
            background: #2563eb;
            color: white;
            padding: 1.5rem 2rem;
            margin-bottom: 2rem;
            border-radius: 10px;
        }

        .header h1 { font-size: 1.8rem; font-weight: 700; }

        .content {
            background: white;
            padding: 2.5rem;
            border-radius: 10px;
            border: 1px solid #e5e7eb;
        }

        .content h1, .content h2, .content h3 {
            color: #1f2937;
            margin-top: 1.5rem;
            margin-bottom: 1rem;
        }

        .content h1 { margin-top: 0; border-bottom: 2px solid #e5e7eb; padding-bottom: 0.5rem; }
        .content h2 { color: #2563eb; }
        .content p, .content li { margin-bottom: 0.75rem; color: #374151; }
        .content ul, .content ol { margin-bottom: 1rem; padding-left: 2rem; }

        .content pre {
            background: #f3f4f6;
            border: 1px solid #d1d5db;
            border-radius: 8px;
            padding: 1.25rem;
            overflow-x: auto;
            margin-bottom: 1.25rem;
            font-family: 'Menlo', 'Ubuntu Mono', monospace;
            font-size: 0.9rem;
        }

        .content code {
            background: #f3f4f6;
            padding: 0.15rem 0.35rem;
            border-radius: 4px;
            font-family: 'Menlo', 'Ubuntu Mono', monospace;
            font-size: 0.9rem;
            color: #2563eb;
        }

        .content pre code { background: none; padding: 0; color: #374151; }
        .content a { color: #2563eb; text-decoration: none; }
        .content a:hover { text-decoration: underline; }

        .content table { width: 100%; border-collapse: collapse; margin-bottom: 1.25rem; }
        .content th, .content td { border: 1px solid #d1d5db; padding: 0.6rem; text-align: left; }
        .content th { background: #f9fafb; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>` + title + `</h1>
        </div>
        <div class="content">
            ` + content + `
        </div>
    </div>
</body>
</html>`
}
