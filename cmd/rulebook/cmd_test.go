package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"mercator-hq/rulebook/pkg/config"
	"mercator-hq/rulebook/pkg/policy/manager"
)

// newTestCommand returns a command whose output is captured in the returned
// buffer.
func newTestCommand() (*cobra.Command, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	return cmd, buf
}

func TestLoadConfigDefaults(t *testing.T) {
	cfgFile = ""
	logLevel = ""

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Rules.Path != ".cursorrules" {
		t.Errorf("Rules.Path = %q, want .cursorrules", cfg.Rules.Path)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfgFile = "testdata/absent.yaml"
	defer func() { cfgFile = "" }()

	if _, err := loadConfig(); err == nil {
		t.Error("loadConfig() with missing explicit file should fail")
	}
}

func TestLoadConfigLogLevelOverride(t *testing.T) {
	cfgFile = ""
	logLevel = "verbose"
	defer func() { logLevel = "" }()

	if _, err := loadConfig(); err == nil {
		t.Error("loadConfig() with invalid --log-level should fail")
	}

	logLevel = "debug"
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Telemetry.Logging.Level)
	}
}

func TestSubcommandsRegistered(t *testing.T) {
	want := map[string]bool{"lint": false, "list": false, "show": false, "watch": false, "version": false, "completion": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newLoaderForTest(cfg *config.Config) *manager.Loader {
	return manager.NewLoader(manager.LoaderConfigFromRules(&cfg.Rules))
}
