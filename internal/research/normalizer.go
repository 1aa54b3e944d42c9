package research

import (
	"strings"
	"time"

	"github.com/agcreativegroup/News-Research-Tool/internal/helpers"
	"github.com/agcreativegroup/News-Research-Tool/models"
	"github.com/agcreativegroup/News-Research-Tool/news"
)

// Normalize converts raw provider records into canonical articles.
// Records missing a title or URL are dropped. Articles whose normalized
// title, source and publication date coincide are the same story: the
// earliest-published instance wins, keeping the position where the story
// first appeared.
func Normalize(raw []news.RawArticle) []models.Article {
	articles := make([]models.Article, 0, len(raw))
	index := make(map[string]int, len(raw))

	for _, r := range raw {
		title := strings.TrimSpace(r.Title)
		// NewsAPI replaces withdrawn articles with "[Removed]" tombstones.
		if title == "" || strings.EqualFold(title, "[Removed]") || strings.TrimSpace(r.URL) == "" {
			continue
		}

		summary := strings.TrimSpace(r.Description)
		if summary == "" {
			summary = strings.TrimSpace(r.Content)
		}

		published := r.PublishedAt.UTC()
		article := models.Article{
			ID:          ArticleID(title, r.Source, published),
			Title:       title,
			Summary:     summary,
			Source:      strings.TrimSpace(r.Source),
			Author:      strings.TrimSpace(r.Author),
			URL:         canonicalOrRaw(r.URL),
			ImageURL:    strings.TrimSpace(r.ImageURL),
			PublishedAt: published,
		}

		if at, seen := index[article.ID]; seen {
			if article.PublishedAt.Before(articles[at].PublishedAt) {
				articles[at] = article
			}
			continue
		}
		index[article.ID] = len(articles)
		articles = append(articles, article)
	}
	return articles
}

// ArticleID derives the stable identity of a story: the SHA-256 of the
// punctuation-stripped lowercase title, the source name and the UTC
// publication date. Syndicated near-duplicates collapse to one ID.
func ArticleID(title, source string, published time.Time) string {
	return helpers.Fingerprint(
		strings.Join(helpers.Tokenize(title), " "),
		helpers.NormalizeText(source),
		published.UTC().Format("2006-01-02"),
	)
}

func canonicalOrRaw(raw string) string {
	if canonical, err := helpers.CanonicalURL(raw); err == nil {
		return canonical
	}
	return strings.TrimSpace(raw)
}
