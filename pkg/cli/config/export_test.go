package config

// NewAppForTest builds an App as if the given flag values had been set
func NewAppForTest(configPath, kbPath, historyDir, dataDir string) *App {
	return &App{
		configPath: configPath,
		kbPath:     kbPath,
		historyDir: historyDir,
		dataDir:    dataDir,
	}
}
