package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/clinrec-lab/longview/pkg/cli/config"
	"github.com/clinrec-lab/longview/pkg/repository/kbfile"
	"github.com/clinrec-lab/longview/pkg/usecase"
)

func cmdStats() *cli.Command {
	var appCfg config.App

	return &cli.Command{
		Name:    "stats",
		Aliases: []string{"s"},
		Usage:   "Show knowledge base summary statistics",
		Flags:   appCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := appCfg.Configure(); err != nil {
				return err
			}

			uc := usecase.New(kbfile.New(appCfg.KBPath()))
			stats, err := uc.CollectStats(ctx)
			if err != nil {
				return err
			}

			header := color.New(color.Bold)
			header.Printf("Knowledge base %s (version %s)\n", appCfg.KBPath(), stats.Version)
			fmt.Printf("  Patient:          %s (%s)\n", stats.PatientName, stats.PatientID)
			fmt.Printf("  Generated:        %s\n", stats.GeneratedAt.Format("2006-01-02 15:04:05"))
			fmt.Printf("  Source files:     %d\n", stats.SourceFilesCount)
			fmt.Println()
			fmt.Printf("  Conditions:       %d (%d active)\n", stats.Conditions, stats.ActiveConditions)
			fmt.Printf("  Devices:          %d\n", stats.Devices)
			fmt.Printf("  Allergies:        %d\n", stats.Allergies)
			fmt.Printf("  Care team:        %d\n", stats.CareTeamMembers)
			fmt.Println()
			fmt.Printf("  Timeline events:  %d\n", stats.TimelineEvents)
			if stats.TimelineEvents > 0 {
				fmt.Printf("  Date range:       %s to %s\n",
					stats.FirstEvent.Format("2006-01-02"), stats.LastEvent.Format("2006-01-02"))
			}
			fmt.Printf("  Symptoms:         %d (%d active)\n", stats.Symptoms, stats.ActiveSymptoms)
			fmt.Printf("  Action items:     %d (%d pending)\n", stats.ActionItems, stats.PendingActions)
			fmt.Printf("  Open questions:   %d\n", stats.Questions)
			return nil
		},
	}
}
