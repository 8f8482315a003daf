package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/clinrec-lab/longview/pkg/cli/config"
	"github.com/clinrec-lab/longview/pkg/repository/kbfile"
	"github.com/clinrec-lab/longview/pkg/service/analysis"
	"github.com/clinrec-lab/longview/pkg/service/merge"
	"github.com/clinrec-lab/longview/pkg/usecase"
	"github.com/clinrec-lab/longview/pkg/utils/logging"
)

func cmdBuild(version string) *cli.Command {
	var appCfg config.App
	var claudeCfg config.Claude
	var dedupWindow time.Duration
	var noAnalysis bool

	flags := []cli.Flag{
		&cli.DurationFlag{
			Name:        "dedup-window",
			Usage:       "Time bucket for timeline event deduplication",
			Value:       time.Hour,
			Sources:     cli.EnvVars("LONGVIEW_DEDUP_WINDOW"),
			Destination: &dedupWindow,
		},
		&cli.BoolFlag{
			Name:        "no-analysis",
			Usage:       "Skip LLM analysis even when an API key is configured",
			Sources:     cli.EnvVars("LONGVIEW_NO_ANALYSIS"),
			Destination: &noAnalysis,
		},
	}
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, claudeCfg.Flags()...)

	return &cli.Command{
		Name:    "build",
		Aliases: []string{"b"},
		Usage:   "Ingest medical documents and update the knowledge base",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			if err := appCfg.Configure(); err != nil {
				return err
			}
			if appCfg.DataDir() == "" {
				return goerr.New("data directory is required (--data-dir or [paths] data_dir)")
			}

			var storeOpts []kbfile.Option
			if appCfg.HistoryDir() != "" {
				storeOpts = append(storeOpts, kbfile.WithHistoryDir(appCfg.HistoryDir()))
			}
			store := kbfile.New(appCfg.KBPath(), storeOpts...)

			merger := merge.New(
				merge.WithDedupBucket(dedupWindow),
				merge.WithGeneratorVersion(version),
			)

			ucOpts := []usecase.Option{usecase.WithMerger(merger)}

			if !noAnalysis {
				llmClient, err := claudeCfg.Configure(ctx)
				if err != nil {
					return err
				}
				if llmClient != nil {
					analyzer, err := analysis.New(llmClient)
					if err != nil {
						return err
					}
					ucOpts = append(ucOpts, usecase.WithAnalysis(analyzer))
					logger.Info("Analysis enabled")
				} else {
					logger.Info("No Claude API key configured, analysis disabled")
				}
			}

			uc := usecase.New(store, ucOpts...)

			result, err := uc.Build(ctx, appCfg.DataDir())
			if err != nil {
				return goerr.Wrap(err, "build failed")
			}

			if result.DocumentsProcessed == 0 {
				color.Yellow("No documents found in %s", appCfg.DataDir())
				return nil
			}

			color.Green("Knowledge base updated: %s -> %s", result.PreviousVersion, result.Version)
			fmt.Printf("  Documents processed: %d\n", result.DocumentsProcessed)
			fmt.Printf("  Timeline events:     %d\n", result.TimelineEvents)
			fmt.Printf("  Changelog:           %s\n", result.Changelog)
			fmt.Printf("  Duration:            %s\n", result.Duration.Round(time.Millisecond))

			if result.AnalysisRan {
				fmt.Printf("  Patterns found:      %d\n", len(result.Patterns))
				for _, p := range result.Patterns {
					fmt.Printf("    - %s\n", p.Pattern)
				}
				fmt.Printf("  Insights:            %d\n", len(result.Insights))
				for _, i := range result.Insights {
					fmt.Printf("    - %s\n", i.Insight)
				}
			}

			return nil
		},
	}
}
