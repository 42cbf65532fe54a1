package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/username/flextime-bot/internal/analyzer"
	"github.com/username/flextime-bot/internal/calendar"
	"github.com/username/flextime-bot/internal/config"
	"github.com/username/flextime-bot/internal/render"
	"github.com/username/flextime-bot/internal/report"
	"github.com/username/flextime-bot/internal/taxonomy"
	"github.com/username/flextime-bot/internal/tracker"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	configPath string
	logger     *zap.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "flextime-bot",
		Short: "Flextime and billing reports over tracked hours",
		Long:  "Calculate flex hour balances and produce monthly billing reports from Harvest or AgileDay time entries",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load config to get log file path
			cfg, err := config.Load(configPath)
			if err == nil && cfg.Daemon.LogFile != "" {
				logger, err = initFileLogger(cfg.Daemon.LogFile, cfg.Daemon.LogLevel)
				if err != nil {
					initLogger() // Fallback to console
				}
			} else {
				initLogger() // Default console logger
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Config file path")

	rootCmd.AddCommand(flextimeCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(billingCmd())
	rootCmd.AddCommand(hoursCmd())
	rootCmd.AddCommand(daemonCmd())
	rootCmd.AddCommand(subscribeCmd())
	rootCmd.AddCommand(unsubscribeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func buildProvider(cfg *config.Config) (report.Provider, error) {
	switch cfg.Provider {
	case "harvest":
		baseURL := cfg.Harvest.BaseURL
		if baseURL == "" {
			baseURL = tracker.DefaultHarvestBaseURL
		}
		return tracker.NewHarvest(baseURL, cfg.Harvest.AccessToken, cfg.Harvest.AccountID, logger), nil

	case "agileday":
		baseURL := cfg.AgileDay.BaseURL
		if baseURL == "" {
			baseURL = tracker.DefaultAgileDayBaseURL
		}
		return tracker.NewAgileDay(baseURL, cfg.AgileDay.AccessToken, logger), nil

	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

func buildTaxonomy(cfg *config.Config) (*taxonomy.Taxonomy, error) {
	// Harvest entries carry numeric task IDs, AgileDay entries carry task
	// names, so the lookup key scheme follows the provider.
	if cfg.Provider == "agileday" {
		return taxonomy.NewNameTaxonomy(cfg.Taxonomy.Mapping())
	}
	return taxonomy.NewIDTaxonomy(cfg.Taxonomy.Mapping())
}

func initializeService(cfg *config.Config) (*report.Service, calendar.Calendar, error) {
	provider, err := buildProvider(cfg)
	if err != nil {
		return nil, nil, err
	}

	tax, err := buildTaxonomy(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build task taxonomy: %w", err)
	}

	extraHolidays, err := cfg.Calendar.GetExtraHolidays()
	if err != nil {
		return nil, nil, err
	}
	cal := calendar.NewWorkCalendar(cfg.Calendar.HoursPerDay, extraHolidays, logger)

	anlz := analyzer.New(cal, tax, logger)
	writer := render.NewWriter(cfg.Reports.GetOutputDir(), logger)

	service := report.NewService(provider, anlz, cal, writer, cfg.Auth.EmailDomains, logger)
	return service, cal, nil
}

func initLogger() {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var err error
	logger, err = config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
}

func initFileLogger(logFile string, level string) (*zap.Logger, error) {
	// Setup lumberjack for log rotation
	logWriter := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    100,  // MB
		MaxBackups: 3,    // Keep max 3 old log files
		MaxAge:     28,   // days
		Compress:   true, // Compress old logs with gzip
	}

	// Setup encoder
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	// Parse log level
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	// Create core with lumberjack writer
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(logWriter),
		zapLevel,
	)

	return zap.New(core), nil
}
