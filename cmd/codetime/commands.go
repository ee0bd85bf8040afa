package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tools.zach/dev/codetime/internal/config"
	"tools.zach/dev/codetime/internal/dashboard"
	"tools.zach/dev/codetime/internal/ipc"
	"tools.zach/dev/codetime/internal/logger"
	"tools.zach/dev/codetime/internal/stats"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	dataDir string
	addr    string
}

func (g *globalFlags) paths() DataPaths { return DataPaths{Root: g.dataDir} }

// loadConfig reads the config without seeding it. Client commands fall back
// to defaults so a broken config never blocks talking to the daemon.
func (g *globalFlags) loadConfig() *config.Config {
	cfg, err := config.Load(g.dataDir)
	if err != nil {
		return config.DefaultConfig()
	}
	return cfg
}

// address resolves the control address: flag, then config, then default.
func (g *globalFlags) address() string {
	if g.addr != "" {
		return g.addr
	}
	return ipcAddress(g.loadConfig(), g.paths())
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "codetime",
		Short:         "Track coding time per project and language",
		Long:          "codetime counts the seconds you spend coding, broken down by project and language. `codetime run` starts the tracking daemon; editors and scripts report focus, document and workspace changes to it with the other subcommands.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&g.dataDir, "data-dir", defaultDataDir(), "data directory for config, ledger and logs")
	rootCmd.PersistentFlags().StringVar(&g.addr, "addr", "", "control socket or pipe (default from config)")

	rootCmd.AddCommand(
		newRunCmd(g),
		newCommandCmd(g, ipc.CommandStart, "Start the timer"),
		newCommandCmd(g, ipc.CommandToggle, "Pause a running timer or resume a paused one"),
		newCommandCmd(g, ipc.CommandReset, "Erase all recorded time and restart the timer"),
		newShowCmd(g),
		newFocusCmd(g),
		newDocCmd(g),
		newWorkspaceCmd(g),
		newStatusCmd(g),
		newStatsCmd(g),
		newLogsCmd(g),
		newVersionCmd(),
	)
	return rootCmd
}

// ///////////////////////////////////////////////
// Daemon
// ///////////////////////////////////////////////

func newRunCmd(g *globalFlags) *cobra.Command {
	var verbose, paused bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the tracking daemon in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemon(runOptions{
				paths:   g.paths(),
				addr:    g.addr,
				verbose: verbose,
				paused:  paused,
			})
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "mirror the log to stderr")
	cmd.Flags().BoolVar(&paused, "paused", false, "start with the timer paused until a focus event")
	return cmd
}

// ///////////////////////////////////////////////
// Host Events
// ///////////////////////////////////////////////

// send delivers ev and prints the resulting status line.
func send(cmd *cobra.Command, g *globalFlags, ev ipc.Event) error {
	rep, err := ipc.Send(g.address(), ev)
	if err != nil {
		return err
	}
	if rep.Snapshot != nil {
		fmt.Fprintln(cmd.OutOrStdout(), rep.Snapshot.StatusLabel)
	}
	return nil
}

func newCommandCmd(g *globalFlags, c ipc.Command, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(c),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return send(cmd, g, ipc.Run(c))
		},
	}
}

func newShowCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Open the stats view and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rep, err := ipc.Send(g.address(), ipc.Run(ipc.CommandShow))
			if err != nil {
				return err
			}
			if rep.Snapshot != nil {
				fmt.Fprintln(cmd.OutOrStdout(), dashboard.Render(*rep.Snapshot, 0))
			}
			return nil
		},
	}
}

func newFocusCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "focus <true|false>",
		Short: "Report editor window focus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			focused, err := strconv.ParseBool(args[0])
			if err != nil {
				return fmt.Errorf("focus: %q is not a boolean", args[0])
			}
			return send(cmd, g, ipc.Focus(focused))
		},
	}
}

// documentEvent treats arg as a file path when it looks like one and as a
// language id otherwise.
func documentEvent(arg string) ipc.Event {
	if strings.ContainsAny(arg, `./\`) {
		return ipc.Document("", arg)
	}
	return ipc.Document(arg, "")
}

func newDocCmd(g *globalFlags) *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "doc <language|path>",
		Short: "Report the active document",
		Long:  "Report the active document by language id (e.g. \"go\") or by file path. Paths are mapped to a language with the [[languages]] rules in the config; pass --language to override.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ev := documentEvent(args[0])
			if lang != "" {
				ev.Language = lang
			}
			return send(cmd, g, ev)
		},
	}
	cmd.Flags().StringVarP(&lang, "language", "l", "", "language id to record instead of the path's")
	return cmd
}

func newWorkspaceCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "workspace <name> [path]",
		Short: "Report the open workspace (project)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 2 {
				path = args[1]
			}
			return send(cmd, g, ipc.Workspace(args[0], path))
		},
	}
}

// ///////////////////////////////////////////////
// Views
// ///////////////////////////////////////////////

func newStatusCmd(g *globalFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the daemon's current snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rep, err := ipc.Send(g.address(), ipc.Status())
			if err != nil {
				return err
			}
			if rep.Snapshot == nil {
				return errors.New("daemon returned no snapshot")
			}
			return writeSnapshot(cmd, *rep.Snapshot, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func writeSnapshot(cmd *cobra.Command, snap stats.Snapshot, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), dashboard.Render(snap, 0))
	return err
}

func newStatsCmd(g *globalFlags) *cobra.Command {
	var once, asJSON bool
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the live stats dashboard",
		Long:  "Show the live stats dashboard. Data comes from the running daemon, or from the stats file it last wrote when the daemon is down.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			src := dashboard.Fallback(
				dashboard.IPCSource(g.address()),
				dashboard.FileSource(g.paths().Stats()),
			)
			if once || asJSON {
				snap, err := src()
				if err != nil {
					return err
				}
				return writeSnapshot(cmd, snap, asJSON)
			}
			if interval <= 0 {
				interval = g.loadConfig().RefreshInterval()
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return dashboard.Run(ctx, src, interval)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "print the dashboard once and exit")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the snapshot as JSON and exit")
	cmd.Flags().DurationVar(&interval, "interval", 0, "refresh interval (default from config)")
	return cmd
}

func newLogsCmd(g *globalFlags) *cobra.Command {
	var lines int
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the end of the daemon log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tail, err := logger.ReadTail(g.paths().Log(), lines)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tail)
			return err
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "number of lines")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), resolveVersion())
		},
	}
}
