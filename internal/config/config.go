package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	HubSpot  HubSpotConfig  `yaml:"hubspot" mapstructure:"hubspot"`
	Graph    GraphConfig    `yaml:"graph" mapstructure:"graph"`
	Drive    DriveConfig    `yaml:"drive" mapstructure:"drive"`
	Generate GenerateConfig `yaml:"generate" mapstructure:"generate"`
	Poll     PollConfig     `yaml:"poll" mapstructure:"poll"`
	Notify   NotifyConfig   `yaml:"notify" mapstructure:"notify"`
	Tracker  TrackerConfig  `yaml:"tracker" mapstructure:"tracker"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// HubSpotConfig holds CRM API credentials and tuning.
type HubSpotConfig struct {
	Token    string  `yaml:"token" mapstructure:"token"`
	BaseURL  string  `yaml:"base_url" mapstructure:"base_url"`
	RateRPS  float64 `yaml:"rate_rps" mapstructure:"rate_rps"`
	PageSize int     `yaml:"page_size" mapstructure:"page_size"`
}

// GraphConfig holds Microsoft Graph app credentials for the storage backend.
type GraphConfig struct {
	TenantID     string `yaml:"tenant_id" mapstructure:"tenant_id"`
	ClientID     string `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret string `yaml:"client_secret" mapstructure:"client_secret"`
	SiteID       string `yaml:"site_id" mapstructure:"site_id"`
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
	LoginURL     string `yaml:"login_url" mapstructure:"login_url"`
}

// DriveConfig identifies the fixed drive locations the job works against.
type DriveConfig struct {
	ClientsFolderID string `yaml:"clients_folder_id" mapstructure:"clients_folder_id"`
	VendorsFolderID string `yaml:"vendors_folder_id" mapstructure:"vendors_folder_id"`
	WorkbookItemID  string `yaml:"workbook_item_id" mapstructure:"workbook_item_id"`
	WorkbookName    string `yaml:"workbook_name" mapstructure:"workbook_name"`
	TemplatesPath   string `yaml:"templates_path" mapstructure:"templates_path"`
}

// GenerateConfig tunes the document generation flows.
type GenerateConfig struct {
	// FilePrefix is the brand prefix on every generated filename.
	FilePrefix string `yaml:"file_prefix" mapstructure:"file_prefix"`
	// ContactGate lets a contact's status tag request NDA/MSA generation in
	// addition to the company's own tag.
	ContactGate bool `yaml:"contact_gate" mapstructure:"contact_gate"`
}

// PollConfig bounds the wait for asynchronous remote copies.
type PollConfig struct {
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`
	IntervalMS  int `yaml:"interval_ms" mapstructure:"interval_ms"`
}

// NotifyConfig configures operational failure notifications.
type NotifyConfig struct {
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
	Recipient  string `yaml:"recipient" mapstructure:"recipient"`
}

// TrackerConfig holds the task-tracking database settings.
type TrackerConfig struct {
	Token string `yaml:"token" mapstructure:"token"`
	RunDB string `yaml:"run_db" mapstructure:"run_db"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DOCFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("hubspot.base_url", "https://api.hubapi.com")
	v.SetDefault("hubspot.rate_rps", 8)
	v.SetDefault("hubspot.page_size", 100)
	v.SetDefault("graph.base_url", "https://graph.microsoft.com/v1.0")
	v.SetDefault("graph.login_url", "https://login.microsoftonline.com")
	v.SetDefault("drive.workbook_name", "ClientData.xlsx")
	v.SetDefault("drive.templates_path", "templates.yaml")
	v.SetDefault("generate.file_prefix", "AMZ Risk")
	v.SetDefault("generate.contact_gate", true)
	v.SetDefault("poll.max_attempts", 10)
	v.SetDefault("poll.interval_ms", 2000)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
