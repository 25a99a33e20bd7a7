package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vsinha/scanflow/pkg/application/services/workflow"
	"github.com/vsinha/scanflow/pkg/infrastructure/config"
	"github.com/vsinha/scanflow/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/scanflow/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/scanflow/pkg/interfaces/cli/output"
)

// Config holds configuration for the scan command
type Config struct {
	DatasetDir string
	ConfigFile string
	Process    string
	Operator   string
	Format     string
	Verbose    bool
	Help       bool

	// Input overrides stdin, for scripted sessions.
	Input io.Reader
	// Output overrides stdout.
	Output io.Writer
}

// ScanCommand runs an interactive scanning session against one process
type ScanCommand struct {
	config Config

	machine *workflow.Machine
	gateway *memory.Gateway
	process workflow.ProcessID
	out     io.Writer

	// Client-side session context, echoed back to the engine.
	workingLocationID uuid.UUID
	transferID        uuid.UUID
	lineID            uuid.UUID
	selection         []workflow.LineView
	zeroCheck         workflow.ZeroCheckPayload
}

// NewScanCommand creates a new scan command with the given
// configuration
func NewScanCommand(config Config) *ScanCommand {
	return &ScanCommand{config: config}
}

// Execute runs the scan command
func (c *ScanCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}
	if err := c.setup(); err != nil {
		return err
	}

	input := c.config.Input
	if input == nil {
		input = os.Stdin
	}

	fmt.Fprintf(c.out, "scanflow %s session for %s (type 'help' for commands)\n", c.process, c.config.Operator)
	scanner := bufio.NewScanner(input)
	for {
		fmt.Fprint(c.out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}
		if err := c.handleCommand(ctx, line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (c *ScanCommand) setup() error {
	if c.config.DatasetDir == "" {
		return fmt.Errorf("a dataset directory is required (-dataset)")
	}
	if c.config.Operator == "" {
		return fmt.Errorf("an operator name is required (-operator)")
	}

	cfg := config.Default()
	if c.config.ConfigFile != "" {
		loaded, err := config.Load(c.config.ConfigFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if c.config.Verbose {
		cfg.Logging.Level = "debug"
		cfg.Logging.Development = true
	}

	logger, err := cfg.Logger()
	if err != nil {
		return err
	}
	procs, err := cfg.WorkflowProcesses()
	if err != nil {
		return err
	}

	c.process = workflow.ProcessID(c.config.Process)
	if _, ok := procs[c.process]; !ok {
		return fmt.Errorf("unknown process %q", c.config.Process)
	}

	c.gateway = memory.NewGateway(logger)
	if err := csv.NewLoader(c.gateway).LoadDataset(c.config.DatasetDir); err != nil {
		return fmt.Errorf("error loading dataset: %w", err)
	}

	c.machine = workflow.NewMachine(c.gateway, procs, nil, logger)
	c.out = c.config.Output
	if c.out == nil {
		c.out = os.Stdout
	}
	return nil
}

func (c *ScanCommand) handleCommand(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		c.showHelp()
		return nil
	case "start":
		if len(args) != 1 {
			return c.usage("start <code>")
		}
		return c.start(ctx, args[0])
	case "scan":
		if len(args) != 1 {
			return c.usage("scan <code>")
		}
		return c.send(ctx, workflow.ActionScanLine, workflow.Request{Scanned: args[0]})
	case "line":
		if len(args) != 1 {
			return c.usage("line <number>")
		}
		return c.selectLine(args[0])
	case "dest", "confirm":
		if len(args) < 1 || len(args) > 2 {
			return c.usage("dest <code> [qty]")
		}
		qty, err := parseQty(args)
		if err != nil {
			return err
		}
		return c.send(ctx, workflow.ActionSetDestination, workflow.Request{
			Scanned:   args[0],
			Quantity:  qty,
			Confirmed: cmd == "confirm",
		})
	case "issue":
		return c.send(ctx, workflow.ActionStockIssue, workflow.Request{})
	case "zero":
		if len(args) != 1 || (args[0] != "yes" && args[0] != "no") {
			return c.usage("zero yes|no")
		}
		return c.answerZero(ctx, args[0] == "yes")
	case "unload":
		if len(args) < 1 || len(args) > 2 {
			return c.usage("unload <code> [confirm]")
		}
		return c.send(ctx, workflow.ActionUnloadAll, workflow.Request{
			Scanned:   args[0],
			Confirmed: len(args) == 2 && args[1] == "confirm",
		})
	case "unload-one":
		if len(args) < 2 || len(args) > 3 {
			return c.usage("unload-one <package> <code> [confirm]")
		}
		return c.unloadOne(ctx, args)
	case "abandon":
		c.lineID = uuid.Nil
		c.selection = nil
		return c.send(ctx, workflow.ActionAbandon, workflow.Request{})
	default:
		fmt.Fprintf(c.out, "unknown command %q, type 'help'\n", cmd)
		return nil
	}
}

// start resolves what the opening scan identified so later requests
// can echo the session scope back to the engine
func (c *ScanCommand) start(ctx context.Context, code string) error {
	c.workingLocationID = uuid.Nil
	c.transferID = uuid.Nil
	if loc, err := c.gateway.FindLocation(ctx, code); err == nil && loc != nil {
		c.workingLocationID = loc.ID
	} else if tr, err := c.gateway.FindTransferByName(ctx, code); err == nil && tr != nil {
		c.transferID = tr.ID
	} else if pkg, err := c.gateway.FindPackage(ctx, code); err == nil && pkg != nil {
		c.workingLocationID = pkg.LocationID
	}
	return c.send(ctx, workflow.ActionStart, workflow.Request{Scanned: code})
}

func (c *ScanCommand) selectLine(arg string) error {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(c.selection) {
		return c.usage(fmt.Sprintf("line <1..%d>", len(c.selection)))
	}
	id, err := uuid.Parse(c.selection[n-1].ID)
	if err != nil {
		return fmt.Errorf("corrupt line id %q: %w", c.selection[n-1].ID, err)
	}
	c.lineID = id
	fmt.Fprintf(c.out, "selected %s\n", c.selection[n-1].Product)
	return nil
}

func (c *ScanCommand) answerZero(ctx context.Context, confirmed bool) error {
	req := workflow.Request{Confirmed: confirmed}
	var err error
	if req.LocationID, err = uuid.Parse(c.zeroCheck.LocationID); err != nil {
		return fmt.Errorf("no zero check pending")
	}
	if req.ProductID, err = uuid.Parse(c.zeroCheck.ProductID); err != nil {
		return fmt.Errorf("no zero check pending")
	}
	if c.zeroCheck.LotID != "" {
		if req.LotID, err = uuid.Parse(c.zeroCheck.LotID); err != nil {
			return fmt.Errorf("corrupt lot id: %w", err)
		}
	}
	return c.send(ctx, workflow.ActionZeroCheck, req)
}

func (c *ScanCommand) unloadOne(ctx context.Context, args []string) error {
	pkg, err := c.gateway.FindPackage(ctx, args[0])
	if err != nil {
		return err
	}
	if pkg == nil {
		fmt.Fprintf(c.out, "unknown package %q\n", args[0])
		return nil
	}
	return c.send(ctx, workflow.ActionUnloadSingle, workflow.Request{
		PackageID: pkg.ID,
		Scanned:   args[1],
		Confirmed: len(args) == 3 && args[2] == "confirm",
	})
}

// send fills in the session context, runs the action and folds the
// response back into the session
func (c *ScanCommand) send(ctx context.Context, action workflow.Action, req workflow.Request) error {
	req.Operator = c.config.Operator
	req.WorkingLocationID = c.workingLocationID
	req.TransferID = c.transferID
	if req.LineID == uuid.Nil {
		req.LineID = c.lineID
	}

	env, err := c.machine.Handle(ctx, c.process, action, req)
	if err != nil {
		return err
	}
	c.absorb(env)

	format := c.config.Format
	if format == "" {
		format = "text"
	}
	return output.Render(c.out, env, format)
}

// absorb keeps the session pointing at what the next screen shows
func (c *ScanCommand) absorb(env *workflow.Envelope) {
	switch payload := env.Data[env.NextState].(type) {
	case workflow.SelectLinePayload:
		c.selection = payload.Lines
	case workflow.SetDestinationPayload:
		if payload.Line != nil {
			if id, err := uuid.Parse(payload.Line.ID); err == nil {
				c.lineID = id
			}
		}
		if len(payload.Lines) > 0 {
			c.selection = payload.Lines
		}
	case workflow.ZeroCheckPayload:
		c.zeroCheck = payload
	}
}

func parseQty(args []string) (decimal.Decimal, error) {
	if len(args) < 2 {
		return decimal.Zero, nil
	}
	qty, err := decimal.NewFromString(args[1])
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid quantity %q", args[1])
	}
	return qty, nil
}

func (c *ScanCommand) usage(u string) error {
	fmt.Fprintf(c.out, "usage: %s\n", u)
	return nil
}

func (c *ScanCommand) showHelp() {
	w := c.out
	if w == nil {
		w = os.Stdout
	}
	fmt.Fprintln(w, `scanflow - scan-driven warehouse workflows

Usage:
  scanflow -dataset <dir> -process <name> -operator <name> [flags]

Processes:
  checkout, cluster_picking, zone_picking,
  location_content_transfer, delivery, single_pack_transfer

Session commands:
  start <code>                    scan a location, document or package to begin
  scan <code>                     narrow the line selection with another scan
  line <n>                        select a listed line by number
  dest <code> [qty]               scan the destination package or location
  confirm <code> [qty]            re-submit a deviating destination
  issue                           declare the selected line's stock missing
  zero yes|no                     answer a pending zero check
  unload <code> [confirm]         unload all buffered packages
  unload-one <package> <code>     unload one buffered package
  abandon                         release in-progress work
  quit

Flags:
  -dataset   directory of warehouse CSV files
  -config    YAML configuration file
  -process   process to run (default checkout)
  -operator  operator name
  -format    output format: text, json
  -verbose   debug logging`)
}
