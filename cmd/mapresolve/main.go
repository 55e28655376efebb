// mapresolve resolves the symbol mapping table for one runtime version and
// prints lookups or table statistics.
//
// Settings come from an optional YAML or JSONC file (--config) and are
// overridden by flags. Each positional argument is a Class.member lookup:
//
//	mapresolve --data-root ~/.cache/mapresolve --version 1.20.1 \
//	    --build 20230612.114412 net.minecraft.client.Minecraft.tick
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/meigma/mapresolve"
	"github.com/meigma/mapresolve/config"
	"github.com/meigma/mapresolve/mapping"
)

const waitTimeout = 10 * time.Minute

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	var (
		configPath string
		override   config.Config
		verbose    bool
	)

	flagSet := pflag.NewFlagSet("mapresolve", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&configPath, "config", "", "YAML or JSONC config file")
	flagSet.StringVar(&override.DataRoot, "data-root", "", "directory holding per-version caches")
	flagSet.StringVar(&override.RuntimeVersion, "version", "", "runtime version to resolve")
	flagSet.StringVar(&override.Build, "build", "", "intermediate archive build identifier")
	flagSet.StringVar(&override.Distribution, "dist", "", "distribution: client or server")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log debug output")
	flagSet.Usage = func() {
		fmt.Fprintf(stderr, "Usage: mapresolve [flags] [Class.member ...]\n\nFlags:\n%s", flagSet.FlagUsages())
	}

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg := &config.Config{}
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	merge(cfg, &override)

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	provider, err := cfg.NewProvider(mapresolve.WithLogger(logger))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	table, err := provider.Table(ctx)
	if err != nil {
		return err
	}

	lookups := flagSet.Args()
	if len(lookups) == 0 {
		printStats(stdout, table)
		return nil
	}
	for _, arg := range lookups {
		if err := printLookup(stdout, table, arg); err != nil {
			return err
		}
	}
	return nil
}

// merge copies the non-empty fields of override into cfg.
func merge(cfg, override *config.Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.DataRoot, override.DataRoot)
	set(&cfg.RuntimeVersion, override.RuntimeVersion)
	set(&cfg.Build, override.Build)
	set(&cfg.Distribution, override.Distribution)
}

func printStats(w io.Writer, table *mapping.Table) {
	s := table.Stats()
	fmt.Fprintf(w, "classes:      %d\n", s.Classes)
	fmt.Fprintf(w, "methods:      %d\n", s.Methods)
	fmt.Fprintf(w, "overloads:    %d\n", s.Overloads)
	fmt.Fprintf(w, "fields:       %d\n", s.Fields)
	fmt.Fprintf(w, "stable names: %d\n", s.StableNames)
}

// splitLookup splits "pkg.Class.member" at its last dot.
func splitLookup(arg string) (class, member string, err error) {
	i := strings.LastIndexByte(arg, '.')
	if i <= 0 || i == len(arg)-1 {
		return "", "", fmt.Errorf("lookup %q: want Class.member", arg)
	}
	return arg[:i], arg[i+1:], nil
}

func printLookup(w io.Writer, table *mapping.Table, arg string) error {
	class, member, err := splitLookup(arg)
	if err != nil {
		return err
	}
	found := false
	for _, stable := range table.Methods(class, member) {
		fmt.Fprintf(w, "%s\tmethod\t%s\n", arg, stable)
		found = true
	}
	if stable, ok := table.Field(class, member); ok {
		fmt.Fprintf(w, "%s\tfield\t%s\n", arg, stable)
		found = true
	}
	if !found {
		fmt.Fprintf(w, "%s\t-\n", arg)
	}
	return nil
}
