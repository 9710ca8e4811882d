package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"svir/internal/diag"
	"svir/internal/diagfmt"
	"svir/internal/driver"
	"svir/internal/mir"
	"svir/internal/project"
	"svir/internal/trace"
)

var lowerCmd = &cobra.Command{
	Use:   "lower [flags] [svir.toml]",
	Short: "Lower the expressions of a design description",
	Long: `Lower every [[lower]] root of a design description under each of its
parameter environments and print the resulting MIR. Without an argument
svir.toml is looked up from the current directory upwards.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLower,
}

func init() {
	addLowerFlags(lowerCmd)
	lowerCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	lowerCmd.Flags().Bool("clear-cache", false, "drop the disk cache before lowering")
}

// addLowerFlags registers the flags shared by lower and watch.
func addLowerFlags(cmd *cobra.Command) {
	cmd.Flags().String("format", "pretty", "diagnostics format (pretty|json|short)")
	cmd.Flags().String("emit", "dump", "what to emit per root (dump|snapshot|none)")
	cmd.Flags().String("out", "", "write outputs to this directory instead of stdout")
	cmd.Flags().Int("jobs", 0, "max parallel lowering workers (0=auto)")
	cmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	cmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	cmd.Flags().Bool("cache", false, "reuse results of unchanged designs from the disk cache")
}

type lowerConfig struct {
	path        string
	format      string
	emit        string
	outDir      string
	jobs        int
	withNotes   bool
	fullPath    bool
	useCache    bool
	clearCache  bool
	quiet       bool
	showTimings bool
	maxDiags    int
	ui          uiMode
}

func readLowerConfig(cmd *cobra.Command, args []string) (*lowerConfig, error) {
	cfg := &lowerConfig{ui: uiModeOff}
	var err error

	if len(args) == 1 {
		cfg.path = args[0]
	} else {
		path, ok, ferr := project.FindDesign(".")
		if ferr != nil {
			return nil, ferr
		}
		if !ok {
			return nil, fmt.Errorf("no %s found in the current directory or its parents", project.ManifestName)
		}
		cfg.path = path
	}
	if cfg.path, err = filepath.Abs(cfg.path); err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", cfg.path, err)
	}

	flags := cmd.Flags()
	if cfg.format, err = flags.GetString("format"); err != nil {
		return nil, fmt.Errorf("failed to get format flag: %w", err)
	}
	switch cfg.format {
	case "pretty", "json", "short":
	default:
		return nil, fmt.Errorf("unknown format %q (expected pretty|json|short)", cfg.format)
	}
	if cfg.emit, err = flags.GetString("emit"); err != nil {
		return nil, fmt.Errorf("failed to get emit flag: %w", err)
	}
	if cfg.outDir, err = flags.GetString("out"); err != nil {
		return nil, fmt.Errorf("failed to get out flag: %w", err)
	}
	switch cfg.emit {
	case "dump", "none":
	case "snapshot":
		if cfg.outDir == "" {
			return nil, errors.New("--emit snapshot requires --out")
		}
	default:
		return nil, fmt.Errorf("unknown emit mode %q (expected dump|snapshot|none)", cfg.emit)
	}
	if cfg.jobs, err = flags.GetInt("jobs"); err != nil {
		return nil, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if cfg.withNotes, err = flags.GetBool("with-notes"); err != nil {
		return nil, fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	if cfg.fullPath, err = flags.GetBool("fullpath"); err != nil {
		return nil, fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	if cfg.useCache, err = flags.GetBool("cache"); err != nil {
		return nil, fmt.Errorf("failed to get cache flag: %w", err)
	}
	if flags.Lookup("clear-cache") != nil {
		if cfg.clearCache, err = flags.GetBool("clear-cache"); err != nil {
			return nil, fmt.Errorf("failed to get clear-cache flag: %w", err)
		}
	}
	if flags.Lookup("ui") != nil {
		raw, uerr := flags.GetString("ui")
		if uerr != nil {
			return nil, fmt.Errorf("failed to get ui flag: %w", uerr)
		}
		if cfg.ui, err = readUIMode(raw); err != nil {
			return nil, err
		}
	}

	root := cmd.Root().PersistentFlags()
	if cfg.quiet, err = root.GetBool("quiet"); err != nil {
		return nil, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if cfg.showTimings, err = root.GetBool("timings"); err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if cfg.maxDiags, err = root.GetInt("max-diagnostics"); err != nil {
		return nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	return cfg, nil
}

func runLower(cmd *cobra.Command, args []string) error {
	cfg, err := readLowerConfig(cmd, args)
	if err != nil {
		return err
	}
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()

	code, err := lowerOnce(cmd, cfg)
	if err != nil {
		return err
	}
	if code != 0 {
		return &exitError{code: code}
	}
	return nil
}

// lowerOnce runs one lowering of cfg.path and prints its results. It
// returns the exit status: 1 when the design has errors, 2 on an internal
// compiler error.
func lowerOnce(cmd *cobra.Command, cfg *lowerConfig) (int, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	timeout, err := timeoutFlag(cmd)
	if err != nil {
		return 1, err
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	stderr := cmd.ErrOrStderr()
	tracer := trace.FromContext(ctx)

	opts := driver.LowerOptions{
		Jobs:           cfg.jobs,
		MaxDiagnostics: cfg.maxDiags,
		Tracer:         tracer,
		EmitTimings:    cfg.showTimings && cfg.format == "json",
	}
	if cfg.useCache || cfg.clearCache {
		cache, cerr := driver.OpenDiskCache("svir")
		switch {
		case cerr != nil:
			fmt.Fprintf(stderr, "warning: disk cache disabled: %v\n", cerr)
		case cfg.clearCache:
			if derr := cache.DropAll(); derr != nil {
				fmt.Fprintf(stderr, "warning: failed to clear disk cache: %v\n", derr)
			}
		}
		if cfg.useCache && cerr == nil {
			opts.Cache = cache
		}
	}

	var res *driver.Result
	if !cfg.quiet && shouldUseTUI(cfg.ui) {
		res, err = runLowerWithUI(ctx, "svir lower "+filepath.Base(cfg.path), cfg.path, opts)
	} else {
		res, err = driver.LowerDesign(ctx, cfg.path, opts)
	}

	var fault *mir.InternalFault
	if err != nil && errors.As(err, &fault) {
		if res != nil {
			if perr := printDiagnostics(cmd, stderr, res, cfg); perr != nil {
				return 2, perr
			}
		}
		reportInternalError(stderr, err, tracer)
		return 2, nil
	}
	if err != nil {
		return 1, err
	}

	if err := printDiagnostics(cmd, stderr, res, cfg); err != nil {
		return 1, err
	}
	if res.CacheErr != nil && !cfg.quiet {
		fmt.Fprintf(stderr, "warning: disk cache: %v\n", res.CacheErr)
	}
	if err := emitOutputs(cmd.OutOrStdout(), res, cfg); err != nil {
		return 1, err
	}
	if cfg.showTimings && cfg.format != "json" {
		printTimings(stderr, res)
	}
	if res.Bag.HasErrors() {
		return 1, nil
	}
	return 0, nil
}

func printDiagnostics(cmd *cobra.Command, w io.Writer, res *driver.Result, cfg *lowerConfig) error {
	if res.Bag.Len() == 0 {
		return nil
	}
	mode := diagfmt.PathModeAuto
	if cfg.fullPath {
		mode = diagfmt.PathModeAbsolute
	}
	switch cfg.format {
	case "json":
		return diagfmt.JSON(w, res.Bag, res.Files, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         mode,
			Max:              cfg.maxDiags,
			IncludeNotes:     cfg.withNotes,
		})
	case "short":
		_, err := io.WriteString(w, diag.FormatShort(res.Bag.Items(), res.Files, cfg.withNotes))
		return err
	default:
		colored, err := useColor(cmd, os.Stderr)
		if err != nil {
			return err
		}
		return diagfmt.Pretty(w, res.Bag, res.Files, diagfmt.PrettyOpts{
			Color:     colored,
			PathMode:  mode,
			ShowNotes: cfg.withNotes,
		})
	}
}

// emitOutputs prints dumps to w or writes one file per output to cfg.outDir.
func emitOutputs(w io.Writer, res *driver.Result, cfg *lowerConfig) error {
	if cfg.emit == "none" || len(res.Outputs) == 0 {
		return nil
	}
	if cfg.outDir != "" {
		if err := os.MkdirAll(cfg.outDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	for i := range res.Outputs {
		out := &res.Outputs[i]
		if cfg.outDir == "" {
			fmt.Fprintf(w, "== %s (%s) ==\n%s", out.Label(), out.Kind, out.Dump)
			continue
		}
		if err := writeOutputFile(cfg.outDir, out, cfg.emit); err != nil {
			return err
		}
	}
	return nil
}

func writeOutputFile(dir string, out *driver.Output, emit string) (err error) {
	ext := ".mir"
	if emit == "snapshot" {
		ext = ".mp"
	}
	path := filepath.Join(dir, outputFileName(out)+ext)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if emit == "snapshot" {
		if out.Snapshot == nil {
			return fmt.Errorf("%s has no snapshot", out.Label())
		}
		return out.Snapshot.Encode(f)
	}
	_, err = io.WriteString(f, out.Dump)
	return err
}

// outputFileName builds "<root>-<env>" with the root index zero-padded so
// files sort in description order.
func outputFileName(out *driver.Output) string {
	env := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ':' || r == ' ' {
			return '_'
		}
		return r
	}, out.Env)
	return fmt.Sprintf("%03d-%s", out.Root, env)
}

func printTimings(w io.Writer, res *driver.Result) {
	if res.Timing == nil {
		return
	}
	for _, p := range res.Timing.Phases {
		if p.Note != "" {
			fmt.Fprintf(w, "%s %.1f ms (%s)\n", p.Name, p.DurationMS, p.Note)
			continue
		}
		fmt.Fprintf(w, "%s %.1f ms\n", p.Name, p.DurationMS)
	}
	fmt.Fprintf(w, "total %.1f ms\n", res.Timing.TotalMS)
	for _, st := range res.Stats {
		if st.Hits+st.Misses == 0 {
			continue
		}
		fmt.Fprintf(w, "  %-16s entries=%d hits=%d misses=%d\n", st.Name, st.Entries, st.Hits, st.Misses)
	}
}

// reportInternalError prints the banner for a broken compiler invariant,
// followed by the ring trace when one was recorded.
func reportInternalError(w io.Writer, err error, tracer trace.Tracer) {
	fmt.Fprintln(w, "internal compiler error:", err)
	fmt.Fprintln(w, "this is a bug in svir; please report it with the design that triggered it")
	if !dumpRing(w, tracer) {
		fmt.Fprintln(w, "rerun with --trace-level=debug --trace-mode=ring to capture a trace")
	}
}
