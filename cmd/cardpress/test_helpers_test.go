package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cardpress/internal/composition"
	"cardpress/internal/config"
	"cardpress/internal/draft"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	dataDir    string
	backendURL string
}

func setupCLITestEnv(t *testing.T, backendURL string) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	dataDir := filepath.Join(base, "data")
	logDir := filepath.Join(base, "logs")
	configPath := filepath.Join(homeDir, ".config", "cardpress", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, dataDir, logDir, backendURL)

	return &cliTestEnv{
		baseDir:    base,
		configPath: configPath,
		dataDir:    dataDir,
		backendURL: backendURL,
	}
}

func writeTestConfig(t *testing.T, path, dataDir, logDir, backendURL string) {
	t.Helper()
	content := fmt.Sprintf(`
[paths]
data_dir = %q
log_dir = %q

[backend]
base_url = %q

[logging]
format = "json"
level = "error"
`, dataDir, logDir, backendURL)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

// appendConfig adds a section to the test configuration file.
func appendConfig(t *testing.T, env *cliTestEnv, section string) {
	t.Helper()
	f, err := os.OpenFile(env.configPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open config for append: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(section); err != nil {
		t.Fatalf("append config section: %v", err)
	}
}

// restoreDraft loads a stored snapshot the way the publish command would.
func restoreDraft(t *testing.T, env *cliTestEnv, key string) *composition.Composition {
	t.Helper()
	cfg, _, _, err := config.Load(env.configPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	store, err := draft.Open(cfg)
	if err != nil {
		t.Fatalf("open draft store: %v", err)
	}
	defer store.Close()

	snap, err := store.Restore(context.Background(), key, time.Now())
	if err != nil {
		t.Fatalf("restore draft %q: %v", key, err)
	}
	return snap.Composition
}
