package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

const watchDebounce = 150 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch [flags] [svir.toml]",
	Short: "Lower a design description again whenever it changes",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func init() {
	addLowerFlags(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
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

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cmd.SetContext(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	defer watcher.Close()
	// Редакторы часто пишут через rename, поэтому следим за каталогом.
	if err := watcher.Add(filepath.Dir(cfg.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(cfg.path), err)
	}

	stderr := cmd.ErrOrStderr()
	rerun := func() {
		if _, err := lowerOnce(cmd, cfg); err != nil {
			fmt.Fprintln(stderr, "error:", err)
		}
	}
	rerun()

	var debounce *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != cfg.path || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(watchDebounce)
			} else {
				debounce.Reset(watchDebounce)
			}
			fire = debounce.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintln(stderr, "watch:", err)
		case <-fire:
			fire = nil
			if !cfg.quiet {
				fmt.Fprintf(stderr, "--- %s changed, lowering again (%s) ---\n", filepath.Base(cfg.path), time.Now().Format(time.TimeOnly))
			}
			rerun()
		}
	}
}
