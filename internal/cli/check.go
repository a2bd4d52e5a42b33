package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"angles/pkg/config"
	"angles/pkg/engine"
	"angles/pkg/fastjson"
)

const checkUsage = "Usage: angles check [--json] [--dir <templates>] [file...]"

// HandleCheck validates templates without writing anything.
func HandleCheck(args []string) {
	cfg, ok := loadConfig(os.Stderr)
	if !ok {
		os.Exit(1)
	}
	os.Exit(runCheck(context.Background(), cfg, args, os.Stdout, os.Stderr))
}

func runCheck(ctx context.Context, cfg config.Config, args []string, stdout, stderr io.Writer) int {
	flags, err := parseFlags(args, []string{"json"}, []string{"dir"})
	if err != nil {
		fmt.Fprintf(stderr, "%v\n%s\n", err, checkUsage)
		return 2
	}
	dir, isJSON := flags.values["dir"], flags.switches["json"]
	if dir == "" && len(flags.args) == 0 {
		fmt.Fprintln(stderr, checkUsage)
		return 2
	}

	var extra []string
	if dir != "" {
		extra = append(extra, dir)
	}
	a, err := newApp(ctx, cfg, extra...)
	if err != nil {
		fmt.Fprintf(stderr, "❌ %v\n", err)
		return 1
	}
	defer a.Close()

	inputs, err := collectInputs(dir, flags.args, cfg.Extension)
	if err != nil {
		fmt.Fprintf(stderr, "❌ %v\n", err)
		return 1
	}

	diags := []engine.Diagnostic{}
	for _, in := range inputs {
		if _, err := a.transpiler.Transpile(in.name, in.source); err != nil {
			var d engine.Diagnostic
			if !errors.As(err, &d) {
				d = engine.Diagnostic{Type: "error", Message: err.Error(), Filename: in.name}
			}
			diags = append(diags, d)
		}
	}

	if isJSON {
		_ = fastjson.Write(stdout, map[string]any{
			"success": len(diags) == 0,
			"checked": len(inputs),
			"errors":  diags,
		}, true)
	} else if len(diags) > 0 {
		fmt.Fprintf(stdout, "❌ Check failed (%d errors):\n", len(diags))
		for _, d := range diags {
			fmt.Fprintf(stdout, "  - [%s:%d:%d] %s\n", d.Filename, d.Line, d.Col, d.Message)
		}
	} else {
		fmt.Fprintf(stdout, "✅ %d template(s) valid\n", len(inputs))
	}

	if len(diags) > 0 {
		return 1
	}
	return 0
}
