package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/docsprobe/internal/app"
	"github.com/ternarybob/docsprobe/internal/common"
	"github.com/ternarybob/docsprobe/internal/models"
	"github.com/ternarybob/docsprobe/internal/scheduler"
)

// multiFlag is a custom flag type that collects repeated values
type multiFlag []string

func (m *multiFlag) String() string {
	return fmt.Sprintf("%v", *m)
}

func (m *multiFlag) Set(value string) error {
	*m = append(*m, value)
	return nil
}

var (
	// Command-line flags
	configFiles  multiFlag // Multiple -config flags supported
	scenarios    multiFlag // Substring filters, repeatable
	schedule     = flag.String("schedule", "", "Cron expression; run the suite on this schedule instead of once")
	history      = flag.Int("history", 0, "Print the last N runs and exit")
	headless     = flag.String("headless", "", "Run Chrome headless (true/false, overrides config)")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
	flag.Var(&scenarios, "scenario", "Only run scenarios whose name contains this value (repeatable)")
}

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("docsprobe version %s\n", common.GetFullVersion())
		return 0
	}

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("docsprobe.toml"); err == nil {
			configFiles = append(configFiles, "docsprobe.toml")
		} else if _, err := os.Stat("deployments/local/docsprobe.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/docsprobe.toml")
		}
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Initialize logger
	// 4. Print banner
	// 5. Storage, similarity oracle and runner (app.New)
	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		arbor.NewLogger().Error().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		return 2
	}

	if err := common.ApplyFlagOverrides(config, *headless, *schedule); err != nil {
		arbor.NewLogger().Error().Err(err).Msg("Invalid command-line flags")
		return 2
	}

	if config.Scheduler.Schedule != "" {
		if err := scheduler.ValidateSchedule(config.Scheduler.Schedule); err != nil {
			arbor.NewLogger().Error().Err(err).Msg("Invalid schedule")
			return 2
		}
	}

	common.InstallCrashHandler(config.Report.OutputDir)
	defer common.RecoverWithCrashFile()

	logger := common.InitLogger(config)
	common.PrintBanner(config, logger)

	logger.Info().
		Strs("config_files", configFiles).
		Strs("scenarios", scenarios).
		Str("schedule", config.Scheduler.Schedule).
		Msg("Application configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize application")
		return 2
	}
	defer application.Close()

	if *history > 0 {
		return printHistory(ctx, application, *history)
	}

	if config.Scheduler.Schedule != "" {
		svc := scheduler.NewService(logger)
		err := svc.Run(ctx, config.Scheduler.Schedule, func(ctx context.Context) {
			if _, err := application.RunSuite(ctx, scenarios); err != nil {
				logger.Error().Err(err).Msg("Scheduled run incomplete")
			}
		})
		if err != nil {
			logger.Error().Err(err).Msg("Scheduler failed")
			return 2
		}
		return 0
	}

	result, err := application.RunSuite(ctx, scenarios)
	if err != nil {
		logger.Error().Err(err).Msg("Run finished with errors")
	}
	printSummary(result)

	if !result.OK() {
		return 1
	}
	return 0
}

// printSummary writes one line per scenario and the totals to stdout
func printSummary(run *models.Run) {
	fmt.Println()
	for _, result := range run.Results {
		fmt.Printf("  %-8s %-32s %s\n", result.Status, result.Name, result.Duration.Round(1e8))
		if result.Message != "" && result.Status != models.ScenarioPassed {
			fmt.Printf("           %s\n", result.Message)
		}
	}
	fmt.Printf("\n%d passed, %d failed, %d errors, %d skipped in %s (run %s)\n",
		run.Passed, run.Failed, run.Errored, run.Skipped, run.Duration().Round(1e8), run.ID)
}

// printHistory lists the latest runs, newest first
func printHistory(ctx context.Context, application *app.App, limit int) int {
	runs, err := application.History(ctx, limit)
	if err != nil {
		application.Logger.Error().Err(err).Msg("Failed to read run history")
		return 2
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded")
		return 0
	}
	for _, r := range runs {
		verdict := "PASS"
		if !r.OK() {
			verdict = "FAIL"
		}
		fmt.Printf("%s  %s  %s  %d/%d/%d/%d  %s\n",
			r.StartedAt.Format("2006-01-02 15:04:05"), verdict, r.ID,
			r.Passed, r.Failed, r.Errored, r.Skipped, r.Site)
	}
	return 0
}
