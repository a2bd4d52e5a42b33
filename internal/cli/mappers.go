package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"angles/pkg/config"
	"angles/pkg/fastjson"
	"angles/pkg/mappers"
)

// HandleMappers prints the tag names the configured registry knows.
func HandleMappers(args []string) {
	cfg, ok := loadConfig(os.Stderr)
	if !ok {
		os.Exit(1)
	}
	os.Exit(runMappers(cfg, args, os.Stdout, os.Stderr))
}

func runMappers(cfg config.Config, args []string, stdout, stderr io.Writer) int {
	flags, err := parseFlags(args, []string{"json"}, nil)
	if err != nil {
		fmt.Fprintf(stderr, "%v\nUsage: angles mappers [--json]\n", err)
		return 2
	}

	reg := mappers.Cached(registries, cfg.MapperOptions())
	list := mappers.Describe(reg)

	if flags.switches["json"] {
		_ = fastjson.Write(stdout, map[string]any{
			"has_default": reg.HasDefault(),
			"mappers":     list,
		}, true)
		return 0
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tDESCRIPTION")
	for _, m := range list {
		desc := m.Description
		if m.Kind == "static" {
			desc = "{% " + m.Directive + " %} " + desc
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Name, m.Kind, desc)
	}
	tw.Flush()

	if reg.HasDefault() {
		fmt.Fprintln(stdout, "Unknown tags include the template named after the tag.")
	}
	return 0
}
