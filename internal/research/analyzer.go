package research

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/agcreativegroup/News-Research-Tool/config"
	"github.com/agcreativegroup/News-Research-Tool/internal/helpers"
	"github.com/agcreativegroup/News-Research-Tool/internal/telemetry"
	"github.com/agcreativegroup/News-Research-Tool/models"
	"github.com/agcreativegroup/News-Research-Tool/provider"
)

// Analyzer turns a prompt into a validated analysis report. A failed
// call is retried once on the same model, then once on the first
// fallback model that differs from the selection, so a single run never
// issues more than three model calls. Malformed output counts as a
// failure and walks the same chain.
type Analyzer struct {
	provider  provider.Provider
	fallbacks []string
	tel       *telemetry.Telemetry
	logger    *log.Logger
}

func NewAnalyzer(p provider.Provider, cfg config.LLMConfig, tel *telemetry.Telemetry) *Analyzer {
	return &Analyzer{
		provider:  p,
		fallbacks: cfg.Fallback,
		tel:       tel,
		logger:    log.New(log.Writer(), "[ANALYZE] ", log.LstdFlags),
	}
}

func (a *Analyzer) Analyze(ctx context.Context, prompt, model string) (*models.AnalysisReport, error) {
	type attempt struct {
		model    string
		fallback bool
	}
	attempts := []attempt{{model, false}, {model, false}}
	if fb := a.fallbackFor(model); fb != "" {
		attempts = append(attempts, attempt{fb, true})
	}

	var lastErr error
	for i, att := range attempts {
		if i > 0 {
			a.logger.Printf("retrying analysis with %s after: %v", att.model, lastErr)
		}
		report, err := a.attempt(ctx, prompt, att.model)
		if err == nil {
			report.FallbackUsed = att.fallback
			return report, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (a *Analyzer) attempt(ctx context.Context, prompt, model string) (*models.AnalysisReport, error) {
	out, err := a.provider.Generate(ctx, model, prompt)
	if err != nil {
		a.tel.RecordModelCall(model, "error")
		return nil, err
	}
	report, err := ParseReport(out, model)
	if err != nil {
		a.tel.RecordModelCall(model, "error")
		return nil, err
	}
	a.tel.RecordModelCall(model, "ok")
	return report, nil
}

func (a *Analyzer) fallbackFor(model string) string {
	for _, fb := range a.fallbacks {
		if fb != "" && fb != model {
			return fb
		}
	}
	return ""
}

// ParseReport extracts the fixed report sections from model output.
// Markdown fences and ** decoration around headers are tolerated. A
// missing executive summary or recommendation section, or a
// recommendation outside the four known values, rejects the whole
// reply. Unknown recommendations are never coerced.
func ParseReport(raw, model string) (*models.AnalysisReport, error) {
	cleaned := strings.TrimSpace(helpers.StripCodeFence(raw))
	sections := splitSections(cleaned)

	summary := strings.TrimSpace(sections[sectionSummary])
	recSection := strings.TrimSpace(sections[sectionRecommendation])
	if summary == "" || recSection == "" {
		return nil, provider.NewError(provider.KindMalformed, model, errors.New("required sections missing"))
	}

	rec, rationale, ok := extractRecommendation(recSection)
	if !ok {
		return nil, provider.NewError(provider.KindMalformed, model, errors.New("unrecognized recommendation"))
	}

	return &models.AnalysisReport{
		Model:              model,
		ExecutiveSummary:   summary,
		MarketImplications: strings.TrimSpace(sections[sectionImplications]),
		RiskAssessment:     strings.TrimSpace(sections[sectionRisk]),
		Recommendation:     rec,
		Rationale:          rationale,
		Credibility:        strings.TrimSpace(sections[sectionCredibility]),
		Raw:                cleaned,
		GeneratedAt:        time.Now().UTC(),
	}, nil
}

var sectionMarkers = []string{
	sectionSummary,
	sectionImplications,
	sectionRisk,
	sectionRecommendation,
	sectionCredibility,
}

func splitSections(text string) map[string]string {
	sections := make(map[string]string, len(sectionMarkers))
	var current string
	var buf strings.Builder

	flush := func() {
		if current != "" {
			sections[current] = buf.String()
		}
		buf.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		if marker, rest, ok := matchMarker(line); ok {
			flush()
			current = marker
			if rest != "" {
				buf.WriteString(rest + "\n")
			}
			continue
		}
		if current != "" {
			buf.WriteString(line + "\n")
		}
	}
	flush()
	return sections
}

func matchMarker(line string) (marker, rest string, ok bool) {
	cleaned := strings.Trim(line, "#* \t\r")
	upper := strings.ToUpper(cleaned)
	for _, m := range sectionMarkers {
		if strings.HasPrefix(upper, m) {
			rest = strings.TrimSpace(cleaned[len(m):])
			rest = strings.TrimSpace(strings.Trim(rest, ":*"))
			return m, rest, true
		}
	}
	return "", "", false
}

func extractRecommendation(section string) (models.Recommendation, string, bool) {
	fields := strings.Fields(section)
	if len(fields) == 0 {
		return "", "", false
	}
	consumed := 1
	first := strings.ToUpper(strings.Trim(fields[0], ".,:;*-"))

	var rec models.Recommendation
	switch first {
	case "BUY":
		rec = models.RecommendationBuy
	case "HOLD":
		rec = models.RecommendationHold
	case "SELL":
		rec = models.RecommendationSell
	case "INSUFFICIENT_DATA", "INSUFFICIENT-DATA":
		rec = models.RecommendationInsufficientData
	case "INSUFFICIENT":
		if len(fields) < 2 || strings.ToUpper(strings.Trim(fields[1], ".,:;*-")) != "DATA" {
			return "", "", false
		}
		rec = models.RecommendationInsufficientData
		consumed = 2
	default:
		return "", "", false
	}

	rationale := strings.Join(fields[consumed:], " ")
	rationale = strings.TrimSpace(strings.TrimLeft(rationale, ".,:;- "))
	return rec, rationale, true
}
