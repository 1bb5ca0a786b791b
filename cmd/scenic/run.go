package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rlch/scenic"
	"github.com/rlch/scenic/driver"
	_ "github.com/rlch/scenic/driver/chrome"
	"github.com/rlch/scenic/runner"
	"github.com/rlch/scenic/suite"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run test suites",
		ArgsUsage: "[suite directories...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "base-url",
				Usage:   "base URL (overrides config)",
				Sources: cli.EnvVars("SCENIC_BASE_URL"),
			},
			&cli.StringFlag{
				Name:    "chrome-path",
				Usage:   "browser binary location",
				Sources: cli.EnvVars("SCENIC_CHROME_PATH"),
			},
			&cli.BoolFlag{
				Name:  "headed",
				Usage: "run the browser with a visible window",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "output results as JSON",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "verbose output",
			},
			&cli.BoolFlag{
				Name:  "notify",
				Usage: "send a desktop notification on completion",
			},
		},
		Action: runSuites,
	}
}

func runSuites(ctx context.Context, cmd *cli.Command) error {
	dirs := cmd.Args().Slice()
	if len(dirs) == 0 {
		dirs = []string{"."}
	}

	log := newLogger(cmd.Bool("verbose"))
	defer func() { _ = log.Sync() }()

	formatHandler := newFormatHandler(cmd)

	var total *runner.Result

	for _, dir := range dirs {
		result, err := runSuite(ctx, cmd, dir, formatHandler, log)
		if err != nil {
			return err
		}

		if total == nil {
			total = result
		} else {
			total.Merge(result)
		}
	}

	if total != nil {
		if summarizer, ok := formatHandler.(runner.Summarizer); ok {
			_ = summarizer.Summary(total)
		}

		if !total.Ok() {
			return cli.Exit("", 1)
		}
	}

	return nil
}

func runSuite(
	ctx context.Context,
	cmd *cli.Command,
	dir string,
	formatHandler runner.Handler,
	log *zap.Logger,
) (*runner.Result, error) {
	cfg, err := scenic.LoadConfig(dir)
	if err != nil {
		return nil, err
	}

	// Flags override config.
	if url := cmd.String("base-url"); url != "" {
		cfg.BaseURL = url
	}

	if cmd.Bool("headed") {
		if cfg.Chrome == nil {
			cfg.Chrome = &scenic.ChromeConfig{}
		}

		headless := false
		cfg.Chrome.Headless = &headless
	}

	if path := cmd.String("chrome-path"); path != "" {
		if cfg.Chrome == nil {
			cfg.Chrome = &scenic.ChromeConfig{}
		}

		cfg.Chrome.ExecPath = path
	}

	session, err := driver.New(cfg.DriverName(), cfg.DriverConfig())
	if err != nil {
		return nil, fmt.Errorf("creating %s session: %w", cfg.DriverName(), err)
	}

	loader := suite.NewLoader(session, suite.WithLogger(log))

	loaded, err := loader.LoadWithConfig(dir, cfg)
	if err != nil {
		// The runner never saw the session; tear it down here.
		_ = session.Close()

		return nil, err
	}

	var notifier runner.Notifier
	if cfg.Notify || cmd.Bool("notify") {
		notifier = runner.NewDesktopNotifier()
	}

	suiteRunner := runner.New(
		runner.WithSession(session),
		runner.WithBaseURL(cfg.BaseURL),
		runner.WithSuite(dir),
		runner.WithFeatures(loaded.Features),
		runner.WithHandler(formatHandler),
		runner.WithNotifier(notifier),
		runner.WithLogger(log),
	)

	result, err := suiteRunner.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("running %s: %w", dir, err)
	}

	return result, nil
}

func newFormatHandler(cmd *cli.Command) runner.Handler {
	switch {
	case cmd.Bool("json"):
		return runner.NewFormatHandler(runner.NewJSONFormatter(os.Stdout), os.Stderr)
	case cmd.Bool("verbose"):
		return runner.NewFormatHandler(runner.NewVerboseFormatter(os.Stdout), os.Stderr)
	case isatty.IsTerminal(os.Stdout.Fd()):
		return runner.NewFormatHandler(runner.NewDotsFormatter(os.Stdout), os.Stderr)
	default:
		return runner.NewFormatHandler(runner.NewVerboseFormatter(os.Stdout), os.Stderr)
	}
}

func newLogger(verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}

	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}

	return log
}
