package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vsinha/scanflow/pkg/application/services/workflow"
)

func TestDefault_KeepsBuiltinProcesses(t *testing.T) {
	procs, err := Default().WorkflowProcesses()
	if err != nil {
		t.Fatalf("WorkflowProcesses failed: %v", err)
	}
	if len(procs) != 6 {
		t.Fatalf("expected 6 processes, got %d", len(procs))
	}
	if !procs[workflow.ClusterPicking].Options.RequirePackage {
		t.Error("expected cluster_picking to require packages by default")
	}
}

func TestLoad_OverridesSelectedOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scanflow.yaml")
	content := `
logging:
  level: debug
  development: true
processes:
  checkout:
    zero_check: false
    allowed_dest_barcode: LOC-OUTPUT
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level, got %q", cfg.Logging.Level)
	}

	procs, err := cfg.WorkflowProcesses()
	if err != nil {
		t.Fatalf("WorkflowProcesses failed: %v", err)
	}
	checkout := procs[workflow.Checkout].Options
	if checkout.ZeroCheck {
		t.Error("expected zero_check to be overridden off")
	}
	if checkout.AllowedDestBarcode != "LOC-OUTPUT" {
		t.Errorf("expected allowed destination override, got %q", checkout.AllowedDestBarcode)
	}
	if !checkout.AllowPackage {
		t.Error("expected untouched options to keep their defaults")
	}

	if _, err := cfg.Logger(); err != nil {
		t.Fatalf("Logger failed: %v", err)
	}
}

func TestLoad_UnknownProcessRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scanflow.yaml")
	content := "processes:\n  teleport:\n    zero_check: true\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := cfg.WorkflowProcesses(); err == nil {
		t.Fatal("expected unknown process to fail")
	}
}
