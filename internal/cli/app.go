package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"angles/pkg/config"
	"angles/pkg/dbmanager"
	"angles/pkg/engine"
	"angles/pkg/loader"
	"angles/pkg/mappers"
	"angles/pkg/transpiler"
)

var registries = engine.NewRegistryCache()

// app is the wiring shared by the subcommands.
type app struct {
	cfg        config.Config
	registry   *engine.Registry
	transpiler *transpiler.Transpiler
	loader     loader.Chain
	store      *loader.SQLLoader
	db         *dbmanager.DBManager
}

// newApp builds loaders, registry and transpiler from cfg. dirs are searched
// before the configured template directories.
func newApp(ctx context.Context, cfg config.Config, dirs ...string) (*app, error) {
	a := &app{cfg: cfg}

	roots := append(append([]string(nil), dirs...), cfg.TemplateDirs...)
	a.loader = loader.Chain{loader.NewDirLoader(roots...)}

	if cfg.SQLEnabled() {
		a.db = dbmanager.NewDBManager()
		driver := dbmanager.DriverName(cfg.DBDriver)
		if err := a.db.AddConnection(ctx, "default", driver, cfg.DBDSN, 0, 0); err != nil {
			return nil, err
		}
		db, dialect := a.db.GetDefault()
		store := loader.NewSQLLoader(db, dialect, cfg.DBTable)
		if err := store.Migrate(ctx); err != nil {
			a.Close()
			return nil, err
		}
		a.loader = append(a.loader, store)
		a.store = store
		slog.Debug("SQL template store connected", "driver", driver, "table", cfg.DBTable)
	}

	a.registry = mappers.Cached(registries, cfg.MapperOptions())

	tr, err := transpiler.New(cfg.TranspilerOptions(), a.registry, a.loader)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.transpiler = tr
	return a, nil
}

func (a *app) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

// flagSet is the hand-rolled flag parsing shared by the subcommands:
// boolean switches, "--name value" and "--name=value" options, and
// positional arguments.
type flagSet struct {
	switches map[string]bool
	values   map[string]string
	args     []string
}

func parseFlags(args []string, switches []string, options []string) (*flagSet, error) {
	fs := &flagSet{switches: map[string]bool{}, values: map[string]string{}}

	isSwitch := make(map[string]bool)
	for _, s := range switches {
		isSwitch[s] = true
	}
	isOption := make(map[string]bool)
	for _, o := range options {
		isOption[o] = true
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			fs.args = append(fs.args, arg)
			continue
		}

		name, value, hasValue := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		switch {
		case isSwitch[name] && !hasValue:
			fs.switches[name] = true
		case isOption[name] && hasValue:
			fs.values[name] = value
		case isOption[name]:
			if i+1 >= len(args) {
				return nil, fmt.Errorf("flag --%s needs a value", name)
			}
			i++
			fs.values[name] = args[i]
		default:
			return nil, fmt.Errorf("unknown flag %s", arg)
		}
	}
	return fs, nil
}

// input is one template to process. rel is the path used for output files.
type input struct {
	name   string
	rel    string
	source string
}

// collectInputs gathers the templates under dir (when set) and the explicit
// files.
func collectInputs(dir string, files []string, ext string) ([]input, error) {
	var inputs []input

	if dir != "" {
		l := loader.NewDirLoader(dir)
		names, err := l.List(ext)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", dir, err)
		}
		for _, name := range names {
			src, err := l.Source(name)
			if err != nil {
				return nil, err
			}
			inputs = append(inputs, input{name: name, rel: name, source: src})
		}
	}

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		inputs = append(inputs, input{name: file, rel: filepath.Base(file), source: string(data)})
	}

	return inputs, nil
}

func loadConfig(stderr io.Writer) (config.Config, bool) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "❌ %v\n", err)
		return cfg, false
	}
	return cfg, true
}
