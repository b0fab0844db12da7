package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/jugendwerk/aktionsabrechnung/internal/rates"
	"github.com/jugendwerk/aktionsabrechnung/internal/statement"
	"github.com/jugendwerk/aktionsabrechnung/pkg/utils"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig          `mapstructure:"server"`
	Database DatabaseConfig        `mapstructure:"database"`
	Storage  StorageConfig         `mapstructure:"storage"`
	Export   ExportConfig          `mapstructure:"export"`
	Mail     MailConfig            `mapstructure:"mail"`
	Rates    rates.Config          `mapstructure:"rates"`
	Grant    statement.GrantConfig `mapstructure:"grant"`
	Logger   LoggerConfig          `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// StorageConfig holds the data directory layout configuration
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// ExportConfig holds statement export configuration
type ExportConfig struct {
	OrgName string `mapstructure:"org_name"`
}

// MailConfig holds treasury mail delivery configuration
type MailConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
	From          string `mapstructure:"from"`
	TreasuryEmail string `mapstructure:"treasury_email"`
	SenderName    string `mapstructure:"sender_name"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Override with environment variables
	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// The rate table and grant policy fall back to the chapter defaults when
	// the file carries no such sections.
	if len(cfg.Rates.Vehicles) == 0 {
		cfg.Rates = rates.DefaultConfig()
	}
	if cfg.Grant.MealRate == "" && cfg.Grant.SubsidyRate == "" {
		cfg.Grant = statement.DefaultGrantConfig()
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	viper.SetDefault("database.path", "data/abrechnung.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("database.migrations_dir", "migrations")

	// Storage defaults
	viper.SetDefault("storage.data_dir", "data")

	// Export defaults
	viper.SetDefault("export.org_name", "Jugendwerk Landesverband")

	// Mail defaults
	viper.SetDefault("mail.enabled", false)
	viper.SetDefault("mail.port", 587)
	viper.SetDefault("mail.sender_name", "Aktionsabrechnung")

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	// Sensitive credentials from environment
	viper.BindEnv("mail.host", "SMTP_HOST")
	viper.BindEnv("mail.username", "SMTP_USERNAME")
	viper.BindEnv("mail.password", "SMTP_PASSWORD")
	viper.BindEnv("mail.from", "MAIL_FROM")
	viper.BindEnv("mail.treasury_email", "TREASURY_EMAIL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Export.OrgName == "" {
		return fmt.Errorf("export.org_name is required")
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir is required")
	}

	// Mail settings are only required when delivery is enabled
	if c.Mail.Enabled {
		if c.Mail.Host == "" {
			return fmt.Errorf("mail.host is required when mail is enabled")
		}
		if err := utils.ValidateEmail(c.Mail.From); err != nil {
			return fmt.Errorf("mail.from: %w", err)
		}
		if err := utils.ValidateEmail(c.Mail.TreasuryEmail); err != nil {
			return fmt.Errorf("mail.treasury_email: %w", err)
		}
	}

	// The rate table and grant policy must parse
	if _, err := rates.NewTable(c.Rates); err != nil {
		return fmt.Errorf("invalid rates configuration: %w", err)
	}
	if _, err := statement.NewGrantPolicy(c.Grant); err != nil {
		return fmt.Errorf("invalid grant configuration: %w", err)
	}

	return nil
}
