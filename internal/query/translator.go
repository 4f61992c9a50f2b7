// Package query parses user search queries into a source-agnostic token set
// and renders source-specific query strings from it.
package query

import (
	"regexp"
	"strings"
)

// SearchMode selects the boolean operator used when rendering a query for a
// source that understands boolean syntax.
type SearchMode string

const (
	ModeAnd SearchMode = "and"
	ModeOr  SearchMode = "or"
)

// MinTermLength is the shortest bare term kept by the parser.
const MinTermLength = 3

var (
	phrasePattern = regexp.MustCompile(`"(.*?)"`)
	termPattern   = regexp.MustCompile(`[+-]?\w+`)
)

// Query is the parsed, source-agnostic form of a user search string.
type Query struct {
	Terms   []string `json:"terms"`
	Phrases []string `json:"phrases"`
}

// IsEmpty reports whether parsing produced no usable tokens. Callers must
// treat an empty query as "no keyword filter", not "match nothing".
func (q Query) IsEmpty() bool {
	return len(q.Terms) == 0 && len(q.Phrases) == 0
}

// Keywords returns all tokens, lowercased, for keyword indexing.
func (q Query) Keywords() []string {
	keywords := make([]string, 0, len(q.Phrases)+len(q.Terms))
	for _, phrase := range q.Phrases {
		keywords = append(keywords, strings.ToLower(phrase))
	}
	for _, term := range q.Terms {
		keywords = append(keywords, strings.ToLower(strings.TrimLeft(term, "+-")))
	}
	return keywords
}

// Parse extracts quoted phrases (order preserved) and bare terms from a raw
// user query. The connective keywords AND, OR and NOT are query syntax, not
// search terms, and are excluded case-sensitively; terms shorter than
// MinTermLength are dropped.
func Parse(raw string) Query {
	var q Query

	for _, match := range phrasePattern.FindAllStringSubmatch(raw, -1) {
		phrase := strings.TrimSpace(match[1])
		if phrase != "" {
			q.Phrases = append(q.Phrases, phrase)
		}
	}

	remainder := phrasePattern.ReplaceAllString(raw, " ")

	for _, token := range termPattern.FindAllString(remainder, -1) {
		if token == "AND" || token == "OR" || token == "NOT" {
			continue
		}
		if len(strings.TrimLeft(token, "+-")) < MinTermLength {
			continue
		}
		q.Terms = append(q.Terms, token)
	}

	return q
}

// RenderBoolean renders the query for sources that accept boolean syntax
// (quoted phrases, OR). Phrases come first, re-quoted, then bare terms.
func (q Query) RenderBoolean(mode SearchMode) string {
	separator := " "
	if mode == ModeOr {
		separator = " OR "
	}

	parts := make([]string, 0, len(q.Phrases)+len(q.Terms))
	for _, phrase := range q.Phrases {
		parts = append(parts, `"`+phrase+`"`)
	}
	parts = append(parts, q.Terms...)

	return strings.Join(parts, separator)
}

// RenderPlain renders the query for sources without boolean support: quotes
// are stripped and everything is space-joined. The resulting semantics are
// approximate by design of those sources, not of this renderer.
func (q Query) RenderPlain() string {
	parts := make([]string, 0, len(q.Phrases)+len(q.Terms))
	parts = append(parts, q.Phrases...)
	parts = append(parts, q.Terms...)
	return strings.Join(parts, " ")
}
