package research

import (
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/agcreativegroup/News-Research-Tool/internal/helpers"
	"github.com/agcreativegroup/News-Research-Tool/models"
)

// Rank filters the corpus by the query's date range and source filter,
// orders it by the query's sort mode and truncates to MaxArticles.
// Every mode breaks remaining ties by article ID, so equal inputs always
// produce identical output. An empty result is a valid outcome.
func Rank(articles []models.Article, query models.Query) []models.Article {
	ranked := make([]models.Article, 0, len(articles))
	for _, a := range articles {
		if !withinRange(a.PublishedAt, query.DateFrom, query.DateTo) {
			continue
		}
		if !matchesSourceFilter(a, query.SourceFilter) {
			continue
		}
		ranked = append(ranked, a)
	}

	switch query.SortMode {
	case models.SortSource:
		sort.Slice(ranked, func(i, j int) bool {
			a, b := ranked[i], ranked[j]
			as, bs := strings.ToLower(a.Source), strings.ToLower(b.Source)
			if as != bs {
				return as < bs
			}
			if !a.PublishedAt.Equal(b.PublishedAt) {
				return a.PublishedAt.After(b.PublishedAt)
			}
			return a.ID < b.ID
		})
	case models.SortRelevance:
		terms := queryTerms(query.Text)
		scores := make(map[string]int, len(ranked))
		for _, a := range ranked {
			scores[a.ID] = relevanceScore(terms, a)
		}
		sort.Slice(ranked, func(i, j int) bool {
			a, b := ranked[i], ranked[j]
			if scores[a.ID] != scores[b.ID] {
				return scores[a.ID] > scores[b.ID]
			}
			if !a.PublishedAt.Equal(b.PublishedAt) {
				return a.PublishedAt.After(b.PublishedAt)
			}
			return a.ID < b.ID
		})
	default:
		sort.Slice(ranked, func(i, j int) bool {
			a, b := ranked[i], ranked[j]
			if !a.PublishedAt.Equal(b.PublishedAt) {
				return a.PublishedAt.After(b.PublishedAt)
			}
			return a.ID < b.ID
		})
	}

	if query.MaxArticles > 0 && len(ranked) > query.MaxArticles {
		ranked = ranked[:query.MaxArticles]
	}
	return ranked
}

func withinRange(ts time.Time, from, to time.Time) bool {
	if !from.IsZero() && ts.Before(from) {
		return false
	}
	if !to.IsZero() && ts.After(to) {
		return false
	}
	return true
}

// matchesSourceFilter accepts an article when its URL host equals a
// filter domain or is a subdomain of one. Articles whose URL does not
// parse fall back to a source-name comparison.
func matchesSourceFilter(a models.Article, filter []string) bool {
	if len(filter) == 0 {
		return true
	}
	host := ""
	if u, err := url.Parse(a.URL); err == nil {
		host = strings.ToLower(u.Hostname())
	}
	source := helpers.NormalizeText(a.Source)
	for _, entry := range filter {
		domain := strings.ToLower(strings.TrimSpace(entry))
		if domain == "" {
			continue
		}
		if host != "" && (host == domain || strings.HasSuffix(host, "."+domain)) {
			return true
		}
		if source != "" && source == helpers.NormalizeText(domain) {
			return true
		}
	}
	return false
}

func queryTerms(text string) []string {
	seen := make(map[string]bool)
	terms := make([]string, 0, 8)
	for _, term := range helpers.Tokenize(text) {
		if seen[term] {
			continue
		}
		seen[term] = true
		terms = append(terms, term)
	}
	return terms
}

// relevanceScore counts query-term overlap. A term found in the title
// scores 2, a term found only in the summary scores 1.
func relevanceScore(terms []string, a models.Article) int {
	if len(terms) == 0 {
		return 0
	}
	title := make(map[string]bool)
	for _, tok := range helpers.Tokenize(a.Title) {
		title[tok] = true
	}
	summary := make(map[string]bool)
	for _, tok := range helpers.Tokenize(a.Summary) {
		summary[tok] = true
	}
	score := 0
	for _, term := range terms {
		switch {
		case title[term]:
			score += 2
		case summary[term]:
			score++
		}
	}
	return score
}
