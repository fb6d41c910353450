package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bpeabody/git-meta/internal/config"
	"github.com/bpeabody/git-meta/internal/output"
)

func runConfigCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := newConfigCmd()
	cmd.SetContext(output.WithPrinter(context.Background(), output.New(&buf)))
	cmd.SetArgs(args)
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	err := cmd.Execute()
	return buf.String(), err
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "git-meta", "config.toml")
	t.Setenv(config.EnvConfigPath, path)

	out, err := runConfigCmd(t, "init")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Errorf("output should name %s: %q", path, out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if string(data) != config.DefaultContent() {
		t.Errorf("unexpected config content:\n%s", data)
	}

	if _, err := runConfigCmd(t, "init"); err == nil || !strings.Contains(err.Error(), "-f") {
		t.Errorf("expected overwrite hint, got %v", err)
	}
	if _, err := runConfigCmd(t, "init", "-f"); err != nil {
		t.Errorf("config init -f: %v", err)
	}
}

func TestConfigInitStdout(t *testing.T) {
	t.Setenv(config.EnvConfigPath, filepath.Join(t.TempDir(), "config.toml"))

	out, err := runConfigCmd(t, "init", "-s")
	if err != nil {
		t.Fatalf("config init -s: %v", err)
	}
	if out != config.DefaultContent() {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestConfigShow(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(config.EnvParallelism, "")

	out, err := runConfigCmd(t, "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "parallelism = 100") {
		t.Errorf("expected default parallelism:\n%s", out)
	}
}
