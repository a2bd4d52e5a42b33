package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"angles/pkg/config"
)

const transpileUsage = "Usage: angles transpile [--dir <templates>] [--out <dir>] [file...]"

// HandleTranspile converts templates and prints them, or writes them under
// --out keeping their relative paths.
func HandleTranspile(args []string) {
	cfg, ok := loadConfig(os.Stderr)
	if !ok {
		os.Exit(1)
	}
	os.Exit(runTranspile(context.Background(), cfg, args, os.Stdout, os.Stderr))
}

func runTranspile(ctx context.Context, cfg config.Config, args []string, stdout, stderr io.Writer) int {
	flags, err := parseFlags(args, nil, []string{"dir", "out"})
	if err != nil {
		fmt.Fprintf(stderr, "%v\n%s\n", err, transpileUsage)
		return 2
	}
	dir, outDir := flags.values["dir"], flags.values["out"]
	if dir == "" && len(flags.args) == 0 {
		fmt.Fprintln(stderr, transpileUsage)
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

	failed := 0
	for _, in := range inputs {
		out, err := a.transpiler.Transpile(in.name, in.source)
		if err != nil {
			fmt.Fprintf(stderr, "❌ %v\n", err)
			failed++
			continue
		}

		if outDir == "" {
			fmt.Fprint(stdout, out)
			continue
		}

		target := filepath.Join(outDir, filepath.FromSlash(in.rel))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			fmt.Fprintf(stderr, "❌ %v\n", err)
			return 1
		}
		if err := os.WriteFile(target, []byte(out), 0o644); err != nil {
			fmt.Fprintf(stderr, "❌ %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "✅ %s -> %s\n", in.name, target)
	}

	if failed > 0 {
		fmt.Fprintf(stderr, "%d of %d template(s) failed\n", failed, len(inputs))
		return 1
	}
	return 0
}
