package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"site_e2e/application/scenario"
	"site_e2e/domain/entities"
	"site_e2e/infrastructure/browser"
	"site_e2e/infrastructure/catalog"
	"site_e2e/infrastructure/config"
	"site_e2e/infrastructure/storage"
)

// ErrScenariosFailed is returned by run when at least one scenario failed
var ErrScenariosFailed = errors.New("scenarios failed")

type TerminalInterface struct {
	out    io.Writer
	errOut io.Writer

	// persistent flags
	envFile   string
	logLevel  string
	logFormat string

	cfg    *config.Config
	logger *logrus.Logger
}

// NewTerminalInterface - creates the command line interface writing to out and errOut
func NewTerminalInterface(out, errOut io.Writer) *TerminalInterface {
	return &TerminalInterface{out: out, errOut: errOut}
}

// Execute - runs the command line with args
func (t *TerminalInterface) Execute(ctx context.Context, args []string) error {
	root := t.rootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (t *TerminalInterface) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "site_e2e",
		Short: "Browser end-to-end checks for the marketing site",
		Long: `site_e2e drives a real browser through the site's sections and checks
titles, navigation links, headings, content and hash routes (#page-1 .. #page-6).

Configuration comes from SITE_* environment variables, an optional .env file,
and the flags below.

Example:
  SITE_BASE_URL=https://example.com site_e2e run --suite navigation`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return t.setup(cmd)
		},
	}
	root.SetOut(t.out)
	root.SetErr(t.errOut)

	root.PersistentFlags().StringVar(&t.envFile, "env-file", ".env", "Environment file to load if present")
	root.PersistentFlags().StringVar(&t.logLevel, "log-level", "", "Log level: debug, info, warn, error (default: SITE_LOG_LEVEL or info)")
	root.PersistentFlags().StringVar(&t.logFormat, "log-format", "", "Log format: text or json (default: SITE_LOG_FORMAT or text)")

	root.AddCommand(
		t.runCommand(),
		t.listCommand(),
		t.catalogCommand(),
		t.reportCommand(),
		t.installCommand(),
	)
	return root
}

// setup loads the configuration and the logger shared by every command
func (t *TerminalInterface) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(t.envFile)
	if err != nil {
		return err
	}
	if t.logLevel != "" {
		cfg.LogLevel = t.logLevel
	}
	if t.logFormat != "" {
		cfg.LogFormat = t.logFormat
	}
	t.cfg = cfg
	t.logger = cfg.NewLogger()
	t.logger.SetOutput(t.errOut)
	return nil
}

func (t *TerminalInterface) runCommand() *cobra.Command {
	var (
		suites  []string
		grep    string
		noSave  bool
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run scenarios against the site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t.applyRunFlags(cmd, timeout)
			if err := t.cfg.Validate(); err != nil {
				return err
			}
			return t.run(cmd.Context(), suites, grep, !noSave)
		},
	}

	cmd.Flags().StringSliceVar(&suites, "suite", nil, "Suites to run (repeatable, default: all)")
	cmd.Flags().StringVar(&grep, "grep", "", "Only run scenarios whose suite/name contains this text")
	cmd.Flags().String("browser", "", "Driver: playwright, rod or snapshot")
	cmd.Flags().String("engine", "", "Playwright engine: chromium, firefox or webkit")
	cmd.Flags().String("base-url", "", "Site base URL")
	cmd.Flags().Int("parallel", 0, "Scenarios run at once")
	cmd.Flags().Bool("headless", true, "Run the browser headless")
	cmd.Flags().String("catalog", "", "Selector catalog override (YAML)")
	cmd.Flags().String("screenshots", "", "Directory for screenshots of failed scenarios")
	cmd.Flags().String("snapshot-dir", "", "HTML captures for the snapshot driver")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Per-scenario timeout")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Do not store the run report")
	return cmd
}

// applyRunFlags overrides the environment with the flags given on the command line
func (t *TerminalInterface) applyRunFlags(cmd *cobra.Command, timeout time.Duration) {
	flags := cmd.Flags()
	str := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	str("browser", &t.cfg.Driver)
	str("engine", &t.cfg.Engine)
	str("base-url", &t.cfg.BaseURL)
	str("catalog", &t.cfg.CatalogPath)
	str("screenshots", &t.cfg.ScreenshotDir)
	str("snapshot-dir", &t.cfg.SnapshotDir)
	if flags.Changed("parallel") {
		t.cfg.Parallel, _ = flags.GetInt("parallel")
	}
	if flags.Changed("headless") {
		t.cfg.Headless, _ = flags.GetBool("headless")
	}
	if flags.Changed("timeout") {
		t.cfg.ScenarioTimeout = timeout
	}
}

func (t *TerminalInterface) run(ctx context.Context, suites []string, grep string, save bool) error {
	cat, err := catalog.Load(t.cfg.CatalogPath)
	if err != nil {
		return err
	}
	scenarios, err := scenario.Select(scenario.BuiltIn(), suites, grep)
	if err != nil {
		return err
	}
	if len(scenarios) == 0 {
		return fmt.Errorf("no scenario matches")
	}

	controller, err := browser.Open(t.cfg.Driver, browser.Options{
		BaseURL:    t.cfg.BaseURL,
		Engine:     t.cfg.Engine,
		Headless:   t.cfg.Headless,
		NavTimeout: t.cfg.NavTimeout,
	}, t.cfg.SnapshotDir, t.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize browser: %w", err)
	}
	defer func() {
		if err := controller.Close(); err != nil {
			t.logger.WithError(err).Warn("close browser")
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	runner := scenario.NewRunner(controller, cat, scenario.Options{
		Parallel:      t.cfg.Parallel,
		Timeout:       t.cfg.ScenarioTimeout,
		ScreenshotDir: t.cfg.ScreenshotDir,
		BaseURL:       t.cfg.BaseURL,
	}, t.logger)
	report, runErr := runner.Run(ctx, scenarios)

	fmt.Fprintln(t.out)
	RenderReport(t.out, report)

	if save {
		store, err := storage.NewReportStore(t.cfg.ReportDir)
		if err != nil {
			return err
		}
		path, err := store.Save(report)
		if err != nil {
			return fmt.Errorf("save report: %w", err)
		}
		fmt.Fprintf(t.out, "report: %s\n", path)
	}

	if runErr != nil {
		return runErr
	}
	if report.Failed() {
		return ErrScenariosFailed
	}
	return nil
}

func (t *TerminalInterface) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List suites and scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			RenderSuites(t.out, scenario.BuiltIn())
			return nil
		},
	}
}

func (t *TerminalInterface) catalogCommand() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Validate and print the effective selector catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = t.cfg.CatalogPath
			}
			cat, err := catalog.Load(path)
			if err != nil {
				return err
			}
			data, err := cat.Marshal()
			if err != nil {
				return err
			}
			_, err = t.out.Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&path, "catalog", "", "Selector catalog override (YAML)")
	return cmd
}

func (t *TerminalInterface) reportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "report [id]",
		Short: "Show a stored run report (default: the last one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.NewReportStore(t.cfg.ReportDir)
			if err != nil {
				return err
			}
			load := store.Last
			if len(args) == 1 {
				load = func() (entities.RunReport, error) { return store.Load(args[0]) }
			}
			report, err := load()
			if err != nil {
				return err
			}
			RenderReport(t.out, report)
			return nil
		},
	}
}

func (t *TerminalInterface) installCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "install [browser...]",
		Short: "Install the Playwright driver and browsers",
		Long:  "Installs the Playwright driver and the given browsers (default: the configured engine).",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{t.cfg.Engine}
			}
			t.logger.WithField("browsers", args).Info("installing playwright browsers")
			if err := browser.InstallBrowsers(args); err != nil {
				return fmt.Errorf("install browsers: %w", err)
			}
			fmt.Fprintln(t.out, "browsers installed")
			return nil
		},
	}
}
