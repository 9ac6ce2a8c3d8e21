package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/campuseats/spider/internal/app"
)

// newCrawlCmd creates the 'crawl' subcommand: run one crawl over the given
// seeds and print (or write) the resulting events.
func newCrawlCmd() *cobra.Command {
	var (
		output        string
		maxPages      int
		maxDepth      int
		minConfidence float64
		days          int
	)

	cmd := &cobra.Command{
		Use:   "crawl [seed-url...]",
		Short: "Crawl seed URLs for free-food events",
		Long: `Crawls from the given seed URLs (or the configured defaults),
prints run statistics, and writes the confirmed events as JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfigAndLogger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if cmd.Flags().Changed("max-pages") {
				cfg.Crawler.MaxPages = maxPages
			}
			if cmd.Flags().Changed("max-depth") {
				cfg.Crawler.MaxDepth = maxDepth
			}
			if cmd.Flags().Changed("min-confidence") {
				cfg.Crawler.MinConfidence = minConfidence
			}
			if cmd.Flags().Changed("days") {
				cfg.Crawler.DaysLookahead = days
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			application, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("init application: %w", err)
			}
			defer application.Close()

			events, stats, err := application.Crawl(cmd.Context(), args)
			if err != nil {
				return fmt.Errorf("crawl: %w", err)
			}

			summary, _ := json.MarshalIndent(stats, "", "  ")
			fmt.Fprintf(cmd.OutOrStdout(), "Crawl statistics:\n%s\n", summary)
			fmt.Fprintf(cmd.OutOrStdout(), "Found %d confirmed events\n", len(events))

			payload, err := json.MarshalIndent(events, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal events: %w", err)
			}
			if output == "-" {
				fmt.Fprintln(cmd.OutOrStdout(), string(payload))
				return nil
			}
			if err := os.WriteFile(output, payload, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			logger.Info("events written", zap.String("path", output), zap.Int("count", len(events)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "free_food_events.json", "output file, or - for stdout")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "override max pages to crawl")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "override max crawl depth")
	cmd.Flags().Float64Var(&minConfidence, "min-confidence", 0, "override minimum confidence threshold")
	cmd.Flags().IntVar(&days, "days", 0, "override days lookahead window")
	return cmd
}
