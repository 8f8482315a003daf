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

func cmdValidate() *cli.Command {
	var appCfg config.App

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate the knowledge base file structure",
		Flags:   appCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := appCfg.Configure(); err != nil {
				return err
			}

			uc := usecase.New(kbfile.New(appCfg.KBPath()))
			kb, err := uc.Validate(ctx)
			if err != nil {
				color.Red("FAIL: %s", appCfg.KBPath())
				return err
			}

			color.Green("OK: %s", appCfg.KBPath())
			fmt.Printf("  Version:   %s\n", kb.Metadata.Version)
			fmt.Printf("  Patient:   %s (%s)\n", kb.PatientProfile.Demographics.Name, kb.PatientProfile.Demographics.PatientID)
			fmt.Printf("  Generated: %s\n", kb.Metadata.GeneratedAt.Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}
