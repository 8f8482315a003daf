package config

import (
	"log/slog"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// App holds application paths and analysis options. Flags override
// values from the optional TOML configuration file.
type App struct {
	configPath string
	kbPath     string
	historyDir string
	dataDir    string
}

// fileConfig mirrors the TOML configuration document
type fileConfig struct {
	Paths struct {
		KnowledgeBase string `toml:"knowledge_base"`
		HistoryDir    string `toml:"history_dir"`
		DataDir       string `toml:"data_dir"`
	} `toml:"paths"`
}

// Flags returns CLI flags for application configuration
func (a *App) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "Path to TOML configuration file",
			Sources:     cli.EnvVars("LONGVIEW_CONFIG"),
			Destination: &a.configPath,
		},
		&cli.StringFlag{
			Name:        "kb",
			Usage:       "Path to the knowledge base JSON file",
			Sources:     cli.EnvVars("LONGVIEW_KB"),
			Destination: &a.kbPath,
		},
		&cli.StringFlag{
			Name:        "history-dir",
			Usage:       "Directory for knowledge base backups (default: sibling 'history' dir)",
			Sources:     cli.EnvVars("LONGVIEW_HISTORY_DIR"),
			Destination: &a.historyDir,
		},
		&cli.StringFlag{
			Name:        "data-dir",
			Usage:       "Directory containing source medical documents",
			Sources:     cli.EnvVars("LONGVIEW_DATA_DIR"),
			Destination: &a.dataDir,
		},
	}
}

// LogValue renders the configuration for startup logging
func (a App) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("config", a.configPath),
		slog.String("kb", a.kbPath),
		slog.String("history_dir", a.historyDir),
		slog.String("data_dir", a.dataDir),
	)
}

// Configure merges the TOML file into unset flags and validates the
// result. A missing --config is fine; flags alone can carry the setup.
func (a *App) Configure() error {
	if a.configPath != "" {
		data, err := os.ReadFile(a.configPath)
		if err != nil {
			return goerr.Wrap(err, "failed to read configuration file", goerr.V("path", a.configPath))
		}

		var fc fileConfig
		if err := toml.Unmarshal(data, &fc); err != nil {
			return goerr.Wrap(err, "failed to parse configuration file", goerr.V("path", a.configPath))
		}

		if a.kbPath == "" {
			a.kbPath = fc.Paths.KnowledgeBase
		}
		if a.historyDir == "" {
			a.historyDir = fc.Paths.HistoryDir
		}
		if a.dataDir == "" {
			a.dataDir = fc.Paths.DataDir
		}
	}

	if a.kbPath == "" {
		a.kbPath = "knowledge_base/kb.json"
	}

	return nil
}

// KBPath returns the knowledge base file path
func (a *App) KBPath() string {
	return a.kbPath
}

// HistoryDir returns the backup directory, empty when the store default
// applies
func (a *App) HistoryDir() string {
	return a.historyDir
}

// DataDir returns the source document directory
func (a *App) DataDir() string {
	return a.dataDir
}
