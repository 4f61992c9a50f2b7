package query

import (
	"strings"

	"gorm.io/gorm"
)

// ArticleFilter returns a gorm scope restricting articles to those matching
// the parsed query: title contains a phrase or term, or the article is
// tagged with the term as a keyword. An empty query is no filter at all.
func ArticleFilter(q Query) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if q.IsEmpty() {
			return db
		}

		var clauses []string
		var args []any

		for _, phrase := range q.Phrases {
			clauses = append(clauses, "LOWER(articles.title) LIKE ?")
			args = append(args, contains(phrase))
		}
		for _, term := range q.Terms {
			keyword := strings.ToLower(strings.TrimLeft(term, "+-"))
			clauses = append(clauses,
				"(LOWER(articles.title) LIKE ? OR articles.id IN ("+
					"SELECT ak.article_id FROM article_keywords ak "+
					"JOIN keywords k ON k.id = ak.keyword_id WHERE k.keyword = ?))")
			args = append(args, contains(keyword), keyword)
		}

		return db.Where(strings.Join(clauses, " OR "), args...)
	}
}

func contains(token string) string {
	return "%" + strings.ToLower(token) + "%"
}
