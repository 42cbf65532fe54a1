package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/username/flextime-bot/internal/taxonomy"
)

// Config represents application configuration
type Config struct {
	Provider string         `mapstructure:"provider"` // "harvest" or "agileday"
	Harvest  HarvestConfig  `mapstructure:"harvest"`
	AgileDay AgileDayConfig `mapstructure:"agileday"`
	Taxonomy TaxonomyConfig `mapstructure:"taxonomy"`
	Calendar CalendarConfig `mapstructure:"calendar"`
	Reports  ReportsConfig  `mapstructure:"reports"`
	Slack    SlackConfig    `mapstructure:"slack"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Daemon   DaemonConfig   `mapstructure:"daemon"`
}

// HarvestConfig represents Harvest API configuration
type HarvestConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	AccessToken string `mapstructure:"access_token"`
	AccountID   string `mapstructure:"account_id"`
}

// AgileDayConfig represents AgileDay API configuration
type AgileDayConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	AccessToken string `mapstructure:"access_token"`
}

// TaxonomyConfig maps special leave and absence tasks to their tracker
// identifiers. With the harvest provider these are numeric task IDs; with
// agileday they are task names.
type TaxonomyConfig struct {
	PublicHoliday             string `mapstructure:"public_holiday"`
	Vacation                  string `mapstructure:"vacation"`
	UnpaidLeave               string `mapstructure:"unpaid_leave"`
	ParentalLeave             string `mapstructure:"parental_leave"`
	ExtraPaidLeave            string `mapstructure:"extra_paid_leave"`
	FlexLeave                 string `mapstructure:"flex_leave"`
	SickLeave                 string `mapstructure:"sick_leave"`
	ChildSickness             string `mapstructure:"child_sickness"`
	InternallyInvoicable      string `mapstructure:"internally_invoicable"`
	ProductServiceDevelopment string `mapstructure:"product_service_development"`
}

// CalendarConfig represents working-day calendar configuration
type CalendarConfig struct {
	HoursPerDay   float64  `mapstructure:"hours_per_day"`
	ExtraHolidays []string `mapstructure:"extra_holidays"` // YYYY-MM-DD
}

// ReportsConfig represents report output configuration
type ReportsConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

// SlackConfig represents Slack delivery configuration
type SlackConfig struct {
	BotToken   string `mapstructure:"bot_token"`
	WebhookURL string `mapstructure:"webhook_url"`
	ChannelID  string `mapstructure:"channel_id"`
}

// AuthConfig represents request authorization configuration
type AuthConfig struct {
	EmailDomains []string `mapstructure:"email_domains"`
}

// DaemonConfig represents daemon mode configuration
type DaemonConfig struct {
	DailyTime  string `mapstructure:"daily_time"` // HH:MM in the configured timezone
	Timezone   string `mapstructure:"timezone"`
	StateFile  string `mapstructure:"state_file"`
	LogFile    string `mapstructure:"log_file"`
	LogLevel   string `mapstructure:"log_level"`
	SystemTray bool   `mapstructure:"system_tray"` // Show system tray icon (Windows only)
}

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.flextime-bot")
		v.AddConfigPath("/etc/flextime-bot")
	}

	// Read environment variables
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.ExpandEnvVars()

	// Validate config
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Provider {
	case "harvest":
		if c.Harvest.AccessToken == "" {
			return fmt.Errorf("harvest.access_token is required")
		}
		if c.Harvest.AccountID == "" {
			return fmt.Errorf("harvest.account_id is required")
		}
	case "agileday":
		if c.AgileDay.AccessToken == "" {
			return fmt.Errorf("agileday.access_token is required")
		}
	default:
		return fmt.Errorf("provider must be 'harvest' or 'agileday', got '%s'", c.Provider)
	}

	if len(c.Auth.EmailDomains) == 0 {
		return fmt.Errorf("auth.email_domains is required")
	}

	if c.Calendar.HoursPerDay < 0 {
		return fmt.Errorf("calendar.hours_per_day must not be negative")
	}
	if _, err := c.Calendar.GetExtraHolidays(); err != nil {
		return err
	}

	if c.Daemon.Timezone != "" {
		if _, err := time.LoadLocation(c.Daemon.Timezone); err != nil {
			return fmt.Errorf("daemon.timezone is invalid: %w", err)
		}
	}

	return nil
}

// Mapping converts the taxonomy section to the form the taxonomy package
// expects.
func (c *TaxonomyConfig) Mapping() taxonomy.Mapping {
	return taxonomy.Mapping{
		PublicHoliday:             c.PublicHoliday,
		Vacation:                  c.Vacation,
		UnpaidLeave:               c.UnpaidLeave,
		ParentalLeave:             c.ParentalLeave,
		ExtraPaidLeave:            c.ExtraPaidLeave,
		FlexLeave:                 c.FlexLeave,
		SickLeave:                 c.SickLeave,
		ChildSickness:             c.ChildSickness,
		InternallyInvoicable:      c.InternallyInvoicable,
		ProductServiceDevelopment: c.ProductServiceDevelopment,
	}
}

// GetExtraHolidays parses the extra holiday dates
func (c *CalendarConfig) GetExtraHolidays() ([]time.Time, error) {
	days := make([]time.Time, 0, len(c.ExtraHolidays))
	for _, raw := range c.ExtraHolidays {
		day, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, fmt.Errorf("calendar.extra_holidays entry '%s' is not a YYYY-MM-DD date", raw)
		}
		days = append(days, day)
	}
	return days, nil
}

// GetOutputDir returns the report output directory
func (c *ReportsConfig) GetOutputDir() string {
	if c.OutputDir == "" {
		return "reports"
	}
	return c.OutputDir
}

// GetDailyTime returns the configured daily notification time.
// Returns hour and minute (0-23, 0-59). Default: 09:00
func (c *DaemonConfig) GetDailyTime() (hour, minute int) {
	if c.DailyTime == "" {
		return 9, 0
	}

	var h, m int
	_, err := fmt.Sscanf(c.DailyTime, "%d:%d", &h, &m)
	if err != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 9, 0 // Fallback to default
	}
	return h, m
}

// GetLocation returns the daemon timezone, defaulting to Europe/Helsinki
func (c *DaemonConfig) GetLocation() *time.Location {
	if c.Timezone == "" {
		c.Timezone = "Europe/Helsinki"
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// GetStateFile returns the subscriber state file path
func (c *DaemonConfig) GetStateFile() string {
	if c.StateFile == "" {
		return "subscribers.json"
	}
	return c.StateFile
}

// ExpandEnvVars expands environment variables in config strings
func (c *Config) ExpandEnvVars() {
	c.Harvest.AccessToken = os.ExpandEnv(c.Harvest.AccessToken)
	c.Harvest.AccountID = os.ExpandEnv(c.Harvest.AccountID)
	c.AgileDay.AccessToken = os.ExpandEnv(c.AgileDay.AccessToken)
	c.Slack.BotToken = os.ExpandEnv(c.Slack.BotToken)
	c.Slack.WebhookURL = os.ExpandEnv(c.Slack.WebhookURL)
}
