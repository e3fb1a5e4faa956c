package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	domainerrors "github.com/rollupdb/rollupdb/internal/errors"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	// run_in_memory is left unset so its value must come from Default().
	if err := os.WriteFile(path, []byte("temp_path: scratch\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !c.RunInMemory {
		t.Errorf("expected RunInMemory true")
	}
}

func TestLoadRequiresDataDirectoryOnDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("run_in_memory: false\n"), 0o644)

	_, err := Load(path)
	if !errors.Is(err, domainerrors.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestAllowIncrementalBackupsRejectsNonBool(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("run_in_memory: true\nallow_incremental_backups: \"not-a-bool\"\n"), 0o644)

	_, err := Load(path)
	if !errors.Is(err, domainerrors.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestAllowIncrementalBackupsAcceptsStringBool(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("run_in_memory: true\nallow_incremental_backups: \"true\"\n"), 0o644)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !c.IncrementalBackupsAllowed() {
		t.Errorf("expected incremental backups allowed")
	}
}
