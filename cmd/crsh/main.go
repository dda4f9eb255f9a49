package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/marcelocantos/crsh/internal/audit"
	"github.com/marcelocantos/crsh/internal/cli"
	"github.com/marcelocantos/crsh/internal/config"
	"github.com/marcelocantos/crsh/internal/daemon"
	"github.com/marcelocantos/crsh/internal/interp"
	"github.com/marcelocantos/crsh/internal/prompt"
	"github.com/marcelocantos/crsh/internal/signals"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

// app carries flag values and the exit status between cobra handlers.
type app struct {
	cfgPath string
	debug   bool
	line    string
	code    int

	cfg    *config.Config
	logger *slog.Logger
}

func run(args []string) int {
	a := &app{}
	root := a.rootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		return 1
	}
	return a.code
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "crsh",
		Short:        "A minimal command shell",
		Long:         "crsh runs pipelines of programs with <, > and >> redirects, ; sequences, and the cd and exit builtins.",
		Version:      version,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("command") {
				a.code = a.runOnce()
				return nil
			}
			a.code = a.runREPL()
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", config.ConfigPath(), "config file path")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "log interpreter events to stderr")
	root.Flags().StringVarP(&a.line, "command", "c", "", "run one command line and exit with its status")

	root.AddCommand(a.auditCmd(), a.mcpCmd())
	return root
}

func (a *app) setup() error {
	cfg, err := config.LoadFrom(a.cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	a.cfg = cfg

	level := slog.LevelInfo
	if a.debug || cfg.Debug {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return attr
		},
	}))

	switch cfg.Color {
	case "never":
		color.NoColor = true
	case "always":
		color.NoColor = false
	}
	return nil
}

// newRunner builds the interpreter stack shared by -c and the REPL.
func (a *app) newRunner(interrupts *signals.Interrupts, opts ...interp.Option) *cli.Runner {
	var auditLog *audit.Logger
	if a.cfg.Audit.Enabled {
		l, err := audit.NewLogger(afero.NewOsFs(), a.cfg.Audit.Path)
		if err != nil {
			// Continue without audit logging.
			fmt.Fprintf(os.Stderr, "crsh: audit: %v\n", err)
		} else {
			auditLog = l
		}
	}

	opts = append([]interp.Option{interp.WithLogger(a.logger)}, opts...)
	runner := cli.NewRunner(interp.New(interrupts, opts...), auditLog)
	runner.Logger = a.logger
	return runner
}

// captureOptions buffers output when configured; a terminating exit still
// gets it onto the terminal.
func (a *app) captureOptions() []interp.Option {
	if !a.cfg.CaptureOutput {
		return nil
	}
	return []interp.Option{
		interp.WithCapture(true),
		interp.WithFlushOnExit(os.Stdout, os.Stderr),
	}
}

func (a *app) runOnce() int {
	interrupts := signals.Notify()
	defer interrupts.Stop()

	runner := a.newRunner(interrupts, a.captureOptions()...)
	res, err := runner.RunLine(context.Background(), a.line)
	runner.Report(err)
	return cli.Status(res, err)
}

func (a *app) runREPL() int {
	interrupts := signals.Notify()
	defer interrupts.Stop()

	var script *prompt.Script
	if a.cfg.PromptScript != "" {
		s, err := prompt.LoadScript(a.cfg.PromptScript)
		if err != nil {
			fmt.Fprintf(os.Stderr, "crsh: %v\n", err)
		} else {
			script = s
		}
	}

	repl := &cli.REPL{
		Runner:       a.newRunner(interrupts, a.captureOptions()...),
		Prompt:       prompt.New(a.cfg.Prompt, script),
		HistoryFile:  a.cfg.History.File,
		HistoryLimit: a.cfg.History.Limit,
		In:           os.Stdin,
	}
	return repl.Run(context.Background())
}

func (a *app) auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the audit log of executed lines",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "verify",
		Short: "Check the audit log hash chain",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			a.code = cli.AuditVerify(cmd.OutOrStdout(), a.cfg.Audit.Path)
		},
	})

	var n int
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Show the most recent audit entries",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			a.code = cli.AuditTail(cmd.OutOrStdout(), a.cfg.Audit.Path, n)
		},
	}
	tail.Flags().IntVarP(&n, "lines", "n", cli.DefaultTail, "number of entries (0 for all)")
	cmd.AddCommand(tail)
	return cmd
}

func (a *app) mcpCmd() *cobra.Command {
	var idle time.Duration
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the interpreter as an MCP tool over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// exit must not end the server, and stdout belongs to the protocol.
			runner := a.newRunner(nil,
				interp.WithStdio(nil, nil, nil),
				interp.WithCapture(true),
				interp.WithExitFunc(func(int) {}),
			)
			runner.Stdout = io.Discard
			runner.Stderr = io.Discard

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			err := daemon.New(runner, version, idle).Serve(ctx, os.Stdin, os.Stdout)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().DurationVar(&idle, "idle-timeout", 0, "shut down after this long without calls (0 disables)")
	return cmd
}
