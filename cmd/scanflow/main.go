package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/vsinha/scanflow/pkg/interfaces/cli/commands"
)

func main() {
	var (
		datasetDir = flag.String(
			"dataset",
			"",
			"Path to dataset directory containing warehouse CSV files",
		)
		configFile = flag.String("config", "", "Path to YAML configuration file")
		process    = flag.String("process", "checkout", "Scan process to run")
		operator   = flag.String("operator", "", "Operator name for this session")
		format     = flag.String("format", "text", "Output format: text, json")
		verbose    = flag.Bool("verbose", false, "Enable verbose output")
		help       = flag.Bool("help", false, "Show help message")
	)

	flag.Parse()

	config := commands.Config{
		DatasetDir: *datasetDir,
		ConfigFile: *configFile,
		Process:    *process,
		Operator:   *operator,
		Format:     *format,
		Verbose:    *verbose,
		Help:       *help,
	}

	cmd := commands.NewScanCommand(config)
	ctx := context.Background()

	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
