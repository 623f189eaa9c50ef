package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/cobra"

	smoke "github.com/networkteam/aybolit-smoke"
	"github.com/networkteam/aybolit-smoke/fixture"
	"github.com/networkteam/aybolit-smoke/runner"
)

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	var exitErr exitError
	switch {
	case errors.As(err, &exitErr):
		os.Exit(exitErr.code)
	case err != nil:
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(runner.ExitAborted)
	}
}

type flags struct {
	config  string
	run     string
	headed  bool
	baseURL string
	report  string
	verbose bool
}

func newRootCmd() *cobra.Command {
	var f flags

	root := &cobra.Command{
		Use:           "aybolit-smoke",
		Short:         "Browser smoke checks for mc-aybolit.ru",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&f.config, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&f.run, "run", "", "run only checks matching this glob pattern")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the smoke checks against the site",
		Long: `Run the smoke checks in a single browser.

Every check gets its own browser context with a page opened on the base URL.
A screenshot is saved to the artifacts directory for every failed check.

Exit codes: 0 when no check failed (soft failures and skips allowed),
1 when a check failed, 2 when the browser could not be started.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChecks(cmd, f)
		},
	}
	runCmd.Flags().BoolVar(&f.headed, "headed", false, "show the browser window")
	runCmd.Flags().StringVar(&f.baseURL, "base-url", "", "site under test (overrides BASE_URL)")
	runCmd.Flags().StringVar(&f.report, "report", "", `HTML report path, "-" to disable (default <artifacts>/report.html)`)
	runCmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "log debug output to stderr")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the checks that would run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listChecks(cmd, f)
		},
	}

	root.AddCommand(runCmd, listCmd)
	return root
}

func loadOptions(f flags) (smoke.Options, error) {
	opts, err := smoke.LoadOptions(f.config)
	if err != nil {
		return smoke.Options{}, err
	}
	if f.run != "" {
		opts.Pattern = f.run
	}
	if f.headed {
		launch := fixture.DefaultLaunchOptions()
		if opts.Launch != nil {
			launch = *opts.Launch
		}
		launch.Headless = false
		opts.Launch = &launch
	}
	if f.baseURL != "" {
		opts.BaseURL = f.baseURL
	}
	if f.report != "" {
		opts.ReportPath = f.report
	}
	return opts, nil
}

func runChecks(cmd *cobra.Command, f flags) error {
	opts, err := loadOptions(f)
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(opts.ArtifactsDir, f.verbose)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)
	opts.Logger = logger

	inst, err := smoke.NewWithOptions(opts)
	if err != nil {
		return err
	}

	rep, runErr := inst.Run(cmd.Context())
	if err := inst.Close(); err != nil {
		logger.Warn("Problems during run", slog.Any("err", err))
	}
	if rep != nil {
		if err := inst.WriteSummary(cmd.OutOrStdout(), rep); err != nil {
			return err
		}
	}
	if runErr != nil && (rep == nil || rep.Aborted == nil) {
		return runErr
	}
	if code := rep.ExitCode(); code != runner.ExitOK {
		return exitError{code: code}
	}
	return nil
}

func listChecks(cmd *cobra.Command, f flags) error {
	opts, err := loadOptions(f)
	if err != nil {
		return err
	}
	opts.ReportPath = "-"

	inst, err := smoke.NewWithOptions(opts)
	if err != nil {
		return err
	}
	defer inst.Close()

	for _, c := range inst.Cases() {
		fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", c.Needs, c.Name)
	}
	return nil
}

// newLogger logs to stderr and as JSON to run.log in the artifacts directory.
func newLogger(artifactsDir string, verbose bool) (*slog.Logger, func(), error) {
	if err := os.MkdirAll(artifactsDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating artifacts directory: %w", err)
	}
	logFile, err := os.Create(filepath.Join(artifactsDir, "run.log"))
	if err != nil {
		return nil, nil, fmt.Errorf("creating run log: %w", err)
	}

	stderrLevel := slog.LevelInfo
	if verbose {
		stderrLevel = slog.LevelDebug
	}
	logger := slog.New(
		slogmulti.Fanout(
			slog.NewJSONHandler(logFile, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: stderrLevel,
			}),
		),
	)
	return logger, func() { _ = logFile.Close() }, nil
}
