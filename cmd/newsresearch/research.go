package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/agcreativegroup/News-Research-Tool/config"
	"github.com/agcreativegroup/News-Research-Tool/internal/research"
	"github.com/agcreativegroup/News-Research-Tool/models"
)

func researchCMD() *cobra.Command {
	var (
		cfgPath     string
		days        int
		maxArticles int
		sortMode    string
		model       string
		sources     []string
		fromDate    string
		toDate      string
		asJSON      bool
		asCSV       bool
		outPath     string
	)

	var cmd = &cobra.Command{
		Use:   "research [query]",
		Short: "Run one research query and print the analyst report",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON && asCSV {
				return fmt.Errorf("--json and --csv are mutually exclusive")
			}
			cfg := config.LoadConfig(cfgPath)

			query := models.Query{
				Text:         strings.Join(args, " "),
				MaxArticles:  maxArticles,
				SortMode:     models.SortMode(sortMode),
				SourceFilter: sources,
				Model:        model,
			}
			var err error
			if query.DateFrom, err = parseDay(fromDate); err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			if query.DateTo, err = parseDay(toDate); err != nil {
				return fmt.Errorf("--to: %w", err)
			}
			// --days only applies when no explicit range was given
			if query.DateFrom.IsZero() && query.DateTo.IsZero() && days > 0 {
				now := time.Now().UTC()
				query.DateTo = now
				query.DateFrom = now.AddDate(0, 0, -days)
			}

			ctx := cmd.Context()
			orch, err := research.NewFromConfig(ctx, cfg)
			if err != nil {
				return err
			}
			result, err := orch.Run(ctx, query)
			if err != nil {
				return err
			}

			var payload []byte
			switch {
			case asJSON:
				payload, err = research.BuildJSON(result)
			case asCSV:
				var csv string
				csv, err = research.BuildCSV(result)
				payload = []byte(csv)
			default:
				payload = []byte(research.BuildReport(result))
			}
			if err != nil {
				return err
			}

			if outPath != "" {
				return os.WriteFile(outPath, payload, 0o644)
			}
			_, err = cmd.OutOrStdout().Write(payload)
			return err
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "look back this many days (default from config)")
	cmd.Flags().StringVar(&fromDate, "from", "", "start date YYYY-MM-DD (overrides --days)")
	cmd.Flags().StringVar(&toDate, "to", "", "end date YYYY-MM-DD (overrides --days)")
	cmd.Flags().IntVar(&maxArticles, "max", 0, "article limit 5-50 (default from config)")
	cmd.Flags().StringVar(&sortMode, "sort", "", "relevance, date or source (default from config)")
	cmd.Flags().StringVar(&model, "model", "", "model from the configured catalog")
	cmd.Flags().StringSliceVar(&sources, "sources", nil, "only these sources (domains or names)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the full result as JSON")
	cmd.Flags().BoolVar(&asCSV, "csv", false, "emit the article table as CSV")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write output to a file instead of stdout")
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return cmd
}

func parseDay(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD, got %q", raw)
	}
	return ts.UTC(), nil
}
