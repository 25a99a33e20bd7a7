package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/vsinha/scanflow/pkg/application/services/workflow"
)

// Render writes an envelope in the requested format
func Render(w io.Writer, env *workflow.Envelope, format string) error {
	switch format {
	case "text":
		return renderText(w, env)
	case "json":
		return renderJSON(w, env)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func renderJSON(w io.Writer, env *workflow.Envelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

func renderText(w io.Writer, env *workflow.Envelope) error {
	fmt.Fprintf(w, "➡️  %s\n", env.NextState)
	if env.Popup != nil {
		fmt.Fprintf(w, "❗ %s\n", env.Popup.Body)
	}
	if env.Message != nil {
		fmt.Fprintf(w, "%s %s\n", messageIcon(env.Message.Type), env.Message.Body)
	}

	switch payload := env.Data[env.NextState].(type) {
	case workflow.SelectLinePayload:
		renderLines(w, payload.Lines)
	case workflow.SetDestinationPayload:
		if payload.ConfirmationRequired {
			fmt.Fprintf(w, "   confirm destination: %s\n", payload.ProposedLocation)
		}
		if payload.Line != nil {
			renderLines(w, []workflow.LineView{*payload.Line})
			fmt.Fprintf(w, "   quantity: %s\n", payload.Qty)
		}
		if len(payload.Lines) > 0 {
			if payload.Package != "" {
				fmt.Fprintf(w, "   package %s:\n", payload.Package)
			}
			renderLines(w, payload.Lines)
		}
	case workflow.UnloadPayload:
		if payload.ConfirmationRequired {
			fmt.Fprintf(w, "   confirm destination: %s\n", payload.ProposedLocation)
		}
		renderLines(w, payload.Entries)
	case workflow.ZeroCheckPayload:
		lot := payload.Lot
		if lot == "" {
			lot = "-"
		}
		fmt.Fprintf(w, "   is %s empty of %s (lot %s)? answer with: zero yes|no\n",
			payload.Location, payload.Product, lot)
	case workflow.SummaryPayload:
		fmt.Fprintf(w, "   completed lines: %d\n", payload.Completed)
	}
	return nil
}

func renderLines(w io.Writer, lines []workflow.LineView) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(w, "   %-3s %-12s %-8s %-10s %-10s %-10s %8s %8s\n",
		"#", "Product", "Lot", "Source", "Dest", "Package", "Reserved", "Done")
	for i, l := range lines {
		lot := l.Lot
		if lot == "" {
			lot = "-"
		}
		pkg := l.Package
		if pkg == "" {
			pkg = "-"
		}
		fmt.Fprintf(w, "   %-3d %-12s %-8s %-10s %-10s %-10s %8s %8s\n",
			i+1, l.Product, lot, l.Source, l.Destination, pkg, l.ReservedQty, l.DoneQty)
	}
}

func messageIcon(sev workflow.Severity) string {
	switch sev {
	case workflow.SeverityError:
		return "❌"
	case workflow.SeverityWarning:
		return "⚠️ "
	default:
		return "ℹ️ "
	}
}
