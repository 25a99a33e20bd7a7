package config

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/vsinha/scanflow/pkg/application/services/resolve"
	"github.com/vsinha/scanflow/pkg/application/services/workflow"
)

// Config is the deployment configuration: logging plus per-process
// option overrides. Processes not mentioned keep their built-in
// behavior.
type Config struct {
	Logging   Logging                    `yaml:"logging"`
	Dataset   string                     `yaml:"dataset"`
	Processes map[string]ProcessOverride `yaml:"processes"`
}

// Logging selects the log output
type Logging struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// ProcessOverride overrides selected options of one process. Nil
// fields keep the default.
type ProcessOverride struct {
	Side               *string `yaml:"side"`
	StartByDocument    *bool   `yaml:"start_by_document"`
	StartByPackage     *bool   `yaml:"start_by_package"`
	PrefillQuantity    *bool   `yaml:"prefill_quantity"`
	AllowPackage       *bool   `yaml:"allow_package"`
	RequirePackage     *bool   `yaml:"require_package"`
	SystemWideUnload   *bool   `yaml:"system_wide_unload"`
	ZeroCheck          *bool   `yaml:"zero_check"`
	AllowedDestBarcode *string `yaml:"allowed_dest_barcode"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Logging: Logging{Level: "info"},
	}
}

// Load reads a YAML configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// WorkflowProcesses applies the overrides to the built-in process set
func (c *Config) WorkflowProcesses() (map[workflow.ProcessID]*workflow.Process, error) {
	procs := workflow.DefaultProcesses()
	for name, ov := range c.Processes {
		proc, ok := procs[workflow.ProcessID(name)]
		if !ok {
			return nil, fmt.Errorf("unknown process %q in config", name)
		}
		if err := ov.apply(&proc.Options); err != nil {
			return nil, fmt.Errorf("process %q: %w", name, err)
		}
	}
	return procs, nil
}

func (o ProcessOverride) apply(opts *workflow.Options) error {
	if o.Side != nil {
		switch *o.Side {
		case "source":
			opts.Side = resolve.SideSource
		case "dest":
			opts.Side = resolve.SideDest
		default:
			return fmt.Errorf("invalid side %q (expected: source or dest)", *o.Side)
		}
	}
	if o.StartByDocument != nil {
		opts.StartByDocument = *o.StartByDocument
	}
	if o.StartByPackage != nil {
		opts.StartByPackage = *o.StartByPackage
	}
	if o.PrefillQuantity != nil {
		opts.PrefillQuantity = *o.PrefillQuantity
	}
	if o.AllowPackage != nil {
		opts.AllowPackage = *o.AllowPackage
	}
	if o.RequirePackage != nil {
		opts.RequirePackage = *o.RequirePackage
	}
	if o.SystemWideUnload != nil {
		opts.SystemWideUnload = *o.SystemWideUnload
	}
	if o.ZeroCheck != nil {
		opts.ZeroCheck = *o.ZeroCheck
	}
	if o.AllowedDestBarcode != nil {
		opts.AllowedDestBarcode = *o.AllowedDestBarcode
	}
	return nil
}

// Logger builds the zap logger the configuration asks for
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.Logging.Level, err)
	}
	var zcfg zap.Config
	if c.Logging.Development {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}
