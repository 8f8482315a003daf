package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/clinrec-lab/longview/pkg/cli/config"
)

const tomlFixture = `
[paths]
knowledge_base = "/data/kb.json"
history_dir = "/data/history"
data_dir = "/data/incoming"
`

func TestApp_ConfigureFromTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "longview.toml")
	gt.NoError(t, os.WriteFile(path, []byte(tomlFixture), 0600)).Required()

	app := config.NewAppForTest(path, "", "", "")
	gt.NoError(t, app.Configure()).Required()

	gt.Value(t, app.KBPath()).Equal("/data/kb.json")
	gt.Value(t, app.HistoryDir()).Equal("/data/history")
	gt.Value(t, app.DataDir()).Equal("/data/incoming")
}

func TestApp_FlagsOverrideTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "longview.toml")
	gt.NoError(t, os.WriteFile(path, []byte(tomlFixture), 0600)).Required()

	app := config.NewAppForTest(path, "/override/kb.json", "", "")
	gt.NoError(t, app.Configure()).Required()

	gt.Value(t, app.KBPath()).Equal("/override/kb.json")
	gt.Value(t, app.DataDir()).Equal("/data/incoming")
}

func TestApp_Defaults(t *testing.T) {
	app := config.NewAppForTest("", "", "", "")
	gt.NoError(t, app.Configure()).Required()
	gt.Value(t, app.KBPath()).Equal("knowledge_base/kb.json")
}

func TestApp_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	gt.NoError(t, os.WriteFile(path, []byte("[paths"), 0600)).Required()

	app := config.NewAppForTest(path, "", "", "")
	gt.Error(t, app.Configure())
}

func TestApp_MissingConfigFile(t *testing.T) {
	app := config.NewAppForTest("/does/not/exist.toml", "", "", "")
	gt.Error(t, app.Configure())
}
