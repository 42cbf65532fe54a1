package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/username/flextime-bot/internal/config"
	"github.com/username/flextime-bot/internal/daemon"
	"github.com/username/flextime-bot/internal/report"
	"github.com/username/flextime-bot/internal/slack"
	"go.uber.org/zap"
)

func parseYearMonth(yearStr, monthStr string) (int, time.Month, error) {
	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 2000 || year > 2100 {
		return 0, 0, fmt.Errorf("invalid year: %s", yearStr)
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("invalid month: %s", monthStr)
	}
	return year, time.Month(month), nil
}

func flextimeCmd() *cobra.Command {
	var post bool

	cmd := &cobra.Command{
		Use:   "flextime <email>",
		Short: "Calculate the flex hour balance for one person",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			service, _, err := initializeService(cfg)
			if err != nil {
				return err
			}

			result := service.CalcFlextime(args[0])

			if post {
				var delivery report.Delivery = slack.New(cfg.Slack.BotToken, cfg.Slack.WebhookURL, cfg.Slack.ChannelID, logger)
				if err := delivery.Post(result.Header, result.Messages); err != nil {
					return fmt.Errorf("failed to post result: %w", err)
				}
				return nil
			}

			fmt.Println(result.Header)
			for _, msg := range result.Messages {
				fmt.Println(msg)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&post, "post", false, "Post the result to Slack instead of stdout")

	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <year> <month> <email>",
		Short: "Write monthly hour and billing sheets for all users",
		Long:  "Write per-user hour statistics and the billable hours rollup for a month. Requires an admin account.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, month, err := parseYearMonth(args[0], args[1])
			if err != nil {
				return err
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			service, _, err := initializeService(cfg)
			if err != nil {
				return err
			}

			msg, err := service.MonthlyStats(year, month, args[2])
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		},
	}
}

func billingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report <year> <month> <email> <last-name>...",
		Short: "Write per-project billing entry sheets for selected people",
		Args:  cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, month, err := parseYearMonth(args[0], args[1])
			if err != nil {
				return err
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			service, _, err := initializeService(cfg)
			if err != nil {
				return err
			}

			msg, err := service.BillingReports(year, month, args[3:], args[2])
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		},
	}
}

func hoursCmd() *cobra.Command {
	var rangeMonths int

	cmd := &cobra.Command{
		Use:   "hours <year> <month> <email>",
		Short: "Write the working hours report ending at the given month",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, month, err := parseYearMonth(args[0], args[1])
			if err != nil {
				return err
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			service, _, err := initializeService(cfg)
			if err != nil {
				return err
			}

			msg, err := service.WorkingHoursReport(year, month, rangeMonths, args[2])
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		},
	}

	cmd.Flags().IntVar(&rangeMonths, "months", 1, "Number of months the report covers, ending at the given month")

	return cmd
}

func daemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the daily flextime notifier",
		Long:  "Post the flex hour balance to every subscriber once per working day at the configured time.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			service, cal, err := initializeService(cfg)
			if err != nil {
				return err
			}

			store := daemon.NewSubscriberStore(cfg.Daemon.GetStateFile(), logger)
			if err := store.Load(); err != nil {
				return fmt.Errorf("failed to load subscriber state: %w", err)
			}

			notifier := slack.New(cfg.Slack.BotToken, cfg.Slack.WebhookURL, cfg.Slack.ChannelID, logger)
			hour, minute := cfg.Daemon.GetDailyTime()

			logger.Info("Starting daemon",
				zap.Int("daily_hour", hour),
				zap.Int("daily_minute", minute),
				zap.String("timezone", cfg.Daemon.Timezone),
				zap.Int("subscribers", len(store.List())))

			d := daemon.NewDaemon(service, notifier, store, cal,
				cfg.Daemon.GetLocation(), hour, minute, cfg.Daemon.SystemTray, logger)
			return d.Start()
		},
	}
}

func subscribeCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "subscribe <slack-user-id>",
		Short: "Subscribe a Slack user to daily flextime notifications",
		Long:  "Subscribe a Slack user to the daily notifier. The email is resolved from the Slack profile unless given with --email.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			userID := args[0]
			if email == "" {
				client := slack.New(cfg.Slack.BotToken, cfg.Slack.WebhookURL, cfg.Slack.ChannelID, logger)
				email, err = client.UserEmail(userID)
				if err != nil {
					return fmt.Errorf("failed to resolve email for %s: %w", userID, err)
				}
			}

			store := daemon.NewSubscriberStore(cfg.Daemon.GetStateFile(), logger)
			if err := store.Load(); err != nil {
				return fmt.Errorf("failed to load subscriber state: %w", err)
			}
			if err := store.Subscribe(userID, email); err != nil {
				return err
			}

			fmt.Printf("Subscribed %s (%s)\n", userID, email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Subscriber email (skips the Slack profile lookup)")

	return cmd
}

func unsubscribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unsubscribe <email>",
		Short: "Remove a subscriber from daily flextime notifications",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			store := daemon.NewSubscriberStore(cfg.Daemon.GetStateFile(), logger)
			if err := store.Load(); err != nil {
				return fmt.Errorf("failed to load subscriber state: %w", err)
			}
			if err := store.Unsubscribe(args[0]); err != nil {
				return err
			}

			fmt.Printf("Unsubscribed %s\n", args[0])
			return nil
		},
	}
}
