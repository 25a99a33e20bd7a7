package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeDataset(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"locations.csv": "name,barcode,parent\n" +
			"WH,LOC-WH,\n" +
			"Stock,LOC-STOCK,WH\n" +
			"Bin-01,LOC-BIN-01,Stock\n" +
			"Out-01,LOC-OUT-01,WH\n",
		"products.csv": "name,barcode,tracking,packagings\n" +
			"Widget,PRD-WIDGET,none,\n",
		"packages.csv": "name,location\n" +
			"ROLLCAGE-1,Stock\n",
		"stock.csv": "location,product_barcode,lot,package,quantity\n" +
			"Bin-01,PRD-WIDGET,,,8\n",
		"transfers.csv": "name,source,dest\n" +
			"PICK-001,Stock,Out-01\n",
		"demand.csv": "transfer,product_barcode,lot,source,dest,quantity,operator\n" +
			"PICK-001,PRD-WIDGET,,Bin-01,Out-01,8,\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	return dir
}

func TestScanCommand_ScriptedCheckout(t *testing.T) {
	script := strings.Join([]string{
		"start LOC-BIN-01",
		"dest ROLLCAGE-1 8",
		"zero yes",
		"unload LOC-OUT-01",
		"quit",
	}, "\n")

	var out bytes.Buffer
	cmd := NewScanCommand(Config{
		DatasetDir: writeDataset(t),
		Process:    "checkout",
		Operator:   "alice",
		Input:      strings.NewReader(script),
		Output:     &out,
	})

	if err := cmd.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	text := out.String()
	for _, want := range []string{"set_destination", "zero_check", "unload_all", "summary", "completed lines: 1"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected session output to contain %q\noutput:\n%s", want, text)
		}
	}
}

func TestScanCommand_RequiresDataset(t *testing.T) {
	cmd := NewScanCommand(Config{
		Process:  "checkout",
		Operator: "alice",
	})
	if err := cmd.Execute(context.Background()); err == nil {
		t.Fatal("expected missing dataset to fail")
	}
}

func TestScanCommand_UnknownProcess(t *testing.T) {
	cmd := NewScanCommand(Config{
		DatasetDir: writeDataset(t),
		Process:    "teleport",
		Operator:   "alice",
	})
	if err := cmd.Execute(context.Background()); err == nil {
		t.Fatal("expected unknown process to fail")
	}
}
