package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bft-labs/cfghist/internal/domain"
	"github.com/bft-labs/cfghist/pkg/log"
	"github.com/bft-labs/cfghist/pkg/watch"
)

func newBootCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "boot",
		Short: "Resolve the boot file, prime the history and mark the boot successful",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cf, err := a.open()
			if err != nil {
				return err
			}
			if err := cf.SuccessfulBoot(); err != nil {
				return err
			}
			r := cf.BootResolution()
			fmt.Fprintf(cmd.OutOrStdout(), "boot file: %s (%s)\n", r.Path, r.Kind)
			fmt.Fprintf(cmd.OutOrStdout(), "history:   %s\n", cf.HistoryDir())
			return nil
		},
	}
}

func newStoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "store [file|-]",
		Short: "Persist new configuration content read from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			cf, err := a.open()
			if err != nil {
				return err
			}
			if err := cf.SuccessfulBoot(); err != nil {
				return err
			}
			if err := cf.Store(content); err != nil {
				return err
			}
			target := cf.MainFile()
			if !cf.Persistent() {
				target = cf.SlotFile(domain.SlotLast)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %d bytes to %s\n", len(content), target)
			return nil
		},
	}
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return b, nil
}

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List slots, versions and snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cf, err := a.open()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "history: %s\n", cf.HistoryDir())

			fmt.Fprintln(out, "slots:")
			for _, slot := range domain.Slots {
				state := "missing"
				if info, err := os.Stat(cf.SlotFile(slot)); err == nil {
					state = fmt.Sprintf("%d bytes, %s", info.Size(), info.ModTime().Format(time.RFC3339))
				}
				fmt.Fprintf(out, "  %-8s %s\n", slot, state)
			}

			versions, err := cf.Versions()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "versions (%d):\n", len(versions))
			for _, v := range versions {
				fmt.Fprintf(out, "  v%-6d %s\n", v.N, v.Path)
			}

			snaps, err := cf.ListSnapshots()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "snapshots (%d):\n", len(snaps.Names))
			for _, name := range snaps.Names {
				fmt.Fprintf(out, "  %s\n", name)
			}
			return nil
		},
	}
}

func newResetCmd(a *app) *cobra.Command {
	var (
		useLast bool
		name    string
	)
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Restore the main file from the last slot or a named history entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if useLast == (name != "") {
				return errors.New("exactly one of --use-last or --name is required")
			}
			cf, err := a.open()
			if err != nil {
				return err
			}
			if useLast {
				cf.ResetBootFile(true)
			} else if err := cf.ResetBootFileName(name); err != nil {
				return err
			}

			source := cf.BootFile()
			content, err := os.ReadFile(source)
			if err != nil {
				return fmt.Errorf("%w: read %s: %v", domain.ErrIllegalState, source, err)
			}
			if err := cf.SuccessfulBoot(); err != nil {
				return err
			}
			if err := cf.Store(content); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %s from %s\n", cf.MainFile(), source)
			return nil
		},
	}
	cmd.Flags().BoolVar(&useLast, "use-last", false, "restore from the last slot")
	cmd.Flags().StringVar(&name, "name", "", "restore from a boot name (slot, v<N>, file or snapshot prefix)")
	return cmd
}

func newSnapshotCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage named snapshots",
	}

	take := &cobra.Command{
		Use:   "take [name]",
		Short: "Save the current configuration as a snapshot",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cf, err := a.open()
			if err != nil {
				return err
			}
			var name string
			if len(args) == 1 {
				name = args[0]
			}
			path, err := cf.TakeSnapshot(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "snapshot: %s\n", path)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cf, err := a.open()
			if err != nil {
				return err
			}
			snaps, err := cf.ListSnapshots()
			if err != nil {
				return err
			}
			for _, name := range snaps.Names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <prefix|all>",
		Short: "Delete snapshots by name prefix, or all of them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cf, err := a.open()
			if err != nil {
				return err
			}
			return cf.DeleteSnapshot(args[0])
		},
	}

	cmd.AddCommand(take, list, del)
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Store a source file every time it changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if source == "" {
				return errors.New("--source is required")
			}
			cf, err := a.open()
			if err != nil {
				return err
			}
			if err := cf.SuccessfulBoot(); err != nil {
				return err
			}

			w, err := watch.New(watch.Config{
				Source:        source,
				DebounceDelay: a.cfg.WatchDebounce,
			}, cf.Store, log.NewZerologAdapterWithLogger(a.log))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			a.log.Info().Msg("watch stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "file to follow")
	cmd.Flags().DurationVar(&a.cfg.WatchDebounce, "debounce", a.cfg.WatchDebounce, "quiet period before storing a change")
	return cmd
}
