package research

import (
	"sort"
	"time"

	"github.com/agcreativegroup/News-Research-Tool/models"
)

const bucketLayout = "2006-01-02"

// Aggregate computes descriptive statistics over a corpus. Source counts
// keep the order in which each source first appears in the corpus, and
// timeline buckets are UTC calendar dates in ascending order with
// zero-count days omitted. Per-source counts always sum to the total.
func Aggregate(corpus []models.Article) models.Analytics {
	analytics := models.Analytics{TotalArticles: len(corpus)}
	if len(corpus) == 0 {
		return analytics
	}

	counts := make(map[string]int, len(corpus))
	order := make([]string, 0, len(corpus))
	buckets := make(map[string]int)

	var earliest, latest time.Time
	for i, a := range corpus {
		source := a.Source
		if source == "" {
			source = "unknown"
		}
		if _, seen := counts[source]; !seen {
			order = append(order, source)
		}
		counts[source]++

		published := a.PublishedAt.UTC()
		buckets[published.Format(bucketLayout)]++
		if i == 0 || published.Before(earliest) {
			earliest = published
		}
		if i == 0 || published.After(latest) {
			latest = published
		}
	}

	analytics.DistinctSources = len(counts)
	analytics.SourceCounts = make([]models.SourceCount, 0, len(order))
	for _, source := range order {
		analytics.SourceCounts = append(analytics.SourceCounts, models.SourceCount{
			Source: source,
			Count:  counts[source],
		})
	}

	days := make([]string, 0, len(buckets))
	for day := range buckets {
		days = append(days, day)
	}
	sort.Strings(days)
	analytics.Timeline = make([]models.TimelineBucket, 0, len(days))
	for _, day := range days {
		analytics.Timeline = append(analytics.Timeline, models.TimelineBucket{
			Date:  day,
			Count: buckets[day],
		})
	}

	analytics.EarliestPublished = earliest
	analytics.LatestPublished = latest
	analytics.SpanDays = spanDays(earliest, latest)
	return analytics
}

// spanDays is the inclusive number of calendar days covered, so a
// single-day corpus spans 1.
func spanDays(earliest, latest time.Time) int {
	from := earliest.UTC().Truncate(24 * time.Hour)
	to := latest.UTC().Truncate(24 * time.Hour)
	return int(to.Sub(from).Hours()/24) + 1
}
