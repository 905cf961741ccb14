package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/campusbot/config"
	"github.com/mohammad-safakhou/campusbot/internal/crawler"
	"github.com/mohammad-safakhou/campusbot/tools/web_fetch"
)

type crawlFlags struct {
	mode     string
	maxPages int
	depth    int
	workers  int
	out      string
}

func crawlCMD(a *app) *cobra.Command {
	var f crawlFlags
	c := &cobra.Command{
		Use:   "crawl [url...]",
		Short: "Crawl the university website and write one text file per page",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := applyCrawlFlags(a.cfg.Crawl, cmd, f, args)
			if err := cfg.Validate(); err != nil {
				return err
			}

			fetcher, err := web_fetch.NewWebFetcher(web_fetch.FetcherType(cfg.Renderer), web_fetch.Options{
				Timeout:      cfg.Timeout,
				UserAgent:    cfg.UserAgent,
				MaxBodyBytes: cfg.MaxBodyBytes,
			})
			if err != nil {
				return err
			}
			writer, err := crawler.NewWriter(cfg.OutputDir)
			if err != nil {
				return err
			}
			strategy, err := crawler.NewStrategy(cfg)
			if err != nil {
				return err
			}

			sess := crawler.NewSession(crawler.Options{
				Fetcher: fetcher,
				Writer:  writer,
				Extract: crawler.ExtractOptions{Strip: crawler.StripLevel(cfg.Strip), Readability: cfg.Readability},
				Allow:   cfg.Policy.Allows,
				Logger:  a.log,
			})
			a.log.WithField("mode", strategy.Name()).WithField("seeds", len(cfg.StartURLs)).Info("crawl started")
			stats, err := strategy.Crawl(cmd.Context(), sess, cfg.StartURLs)
			fmt.Fprintf(cmd.OutOrStdout(), "processed=%d persisted=%d failed=%d skipped=%d dir=%s\n",
				stats.Processed, stats.Persisted, stats.Failed, stats.Skipped, writer.Dir())
			return err
		},
	}
	c.Flags().StringVar(&f.mode, "mode", "", "crawl mode: pool or depth")
	c.Flags().IntVar(&f.maxPages, "max-pages", 0, "page budget for pool mode")
	c.Flags().IntVar(&f.depth, "depth", 0, "maximum link depth for depth mode")
	c.Flags().IntVar(&f.workers, "workers", 0, "concurrent fetches for pool mode")
	c.Flags().StringVar(&f.out, "out", "", "output directory")
	return c
}

// applyCrawlFlags overlays explicitly set flags and positional URLs on the configured crawl.
func applyCrawlFlags(cfg config.CrawlConfig, cmd *cobra.Command, f crawlFlags, args []string) config.CrawlConfig {
	flags := cmd.Flags()
	if flags.Changed("mode") {
		cfg.Mode = f.mode
	}
	if flags.Changed("max-pages") {
		cfg.MaxPages = f.maxPages
	}
	if flags.Changed("depth") {
		cfg.MaxDepth = f.depth
	}
	if flags.Changed("workers") {
		cfg.Workers = f.workers
	}
	if flags.Changed("out") {
		cfg.OutputDir = f.out
	}
	if len(args) > 0 {
		cfg.StartURLs = args
	}
	return cfg.Normalize()
}
