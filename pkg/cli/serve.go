package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/clinrec-lab/longview/pkg/cli/config"
	httpctrl "github.com/clinrec-lab/longview/pkg/controller/http"
	"github.com/clinrec-lab/longview/pkg/repository/kbfile"
	"github.com/clinrec-lab/longview/pkg/usecase"
	"github.com/clinrec-lab/longview/pkg/utils/logging"
)

func cmdServe() *cli.Command {
	var addr string
	var appCfg config.App

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("LONGVIEW_ADDR"),
			Destination: &addr,
		},
	}
	flags = append(flags, appCfg.Flags()...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the knowledge base as a read-only JSON API",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := appCfg.Configure(); err != nil {
				return err
			}

			var storeOpts []kbfile.Option
			if appCfg.HistoryDir() != "" {
				storeOpts = append(storeOpts, kbfile.WithHistoryDir(appCfg.HistoryDir()))
			}
			store := kbfile.New(appCfg.KBPath(), storeOpts...)

			var srvOpts []httpctrl.Options
			if appCfg.DataDir() != "" {
				uc := usecase.New(store)
				srvOpts = append(srvOpts, httpctrl.WithRebuild(uc, appCfg.DataDir()))
				logging.Default().Info("Rebuild endpoint enabled", "data_dir", appCfg.DataDir())
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(store, srvOpts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr, "kb", appCfg.KBPath())
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
