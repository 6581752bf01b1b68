package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestCacheClearCommand_RemovesFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "entry-1"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := &CLI{Config: testCLI(t).Config}
	c.Config.CacheDir = dir

	ptr := c
	cmd := newCacheClearCommand(&ptr)
	var out bytes.Buffer
	cmd.SetOut(&out)
	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatalf("RunE: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected cache dir to be empty, found %d entries", len(entries))
	}
}

func TestCachePathCommand_PrintsConfiguredDir(t *testing.T) {
	c := &CLI{Config: testCLI(t).Config}
	c.Config.CacheDir = "/tmp/example-cache"
	ptr := c

	cmd := newCachePathCommand(&ptr)
	var out bytes.Buffer
	cmd.SetOut(&out)
	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatalf("RunE: %v", err)
	}
	if got := out.String(); got != "/tmp/example-cache\n" {
		t.Errorf("output = %q", got)
	}
}
