package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Files   FilesConfig   `mapstructure:"files"`
	Session SessionConfig `mapstructure:"session"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Roster  RosterConfig  `mapstructure:"roster"`
	Logging LoggingConfig `mapstructure:"logging"`

	// AdminUsers is the raw comma separated allowlist (ADMIN_USERS).
	AdminUsers string `mapstructure:"admin_users"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type FilesConfig struct {
	Users    string `mapstructure:"users"`
	Packages string `mapstructure:"packages"`
	Tools    string `mapstructure:"tools"`
}

type SessionConfig struct {
	Secret     string `mapstructure:"secret"`
	CookieName string `mapstructure:"cookie_name"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Secure     bool   `mapstructure:"secure"`
}

type AuthConfig struct {
	// LegacyPlaintext accepts roster passwords stored without a hash.
	LegacyPlaintext bool          `mapstructure:"legacy_plaintext"`
	StrictExpiry    bool          `mapstructure:"strict_expiry"`
	JWTExpiry       time.Duration `mapstructure:"jwt_expiry"`
}

type RosterConfig struct {
	Watch bool `mapstructure:"watch"`
	// ReloadInterval re-reads users.yaml on a timer; 0 disables it.
	ReloadInterval time.Duration `mapstructure:"reload_interval"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// Load reads configuration from .env, an optional YAML file and the
// environment, in increasing order of precedence.
func Load(configFile string) (Config, error) {
	if err := gotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: error loading .env file: %v\n", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("portal")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("PORTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvironmentVariables(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return Config{}, fmt.Errorf("invalid server.port %d", cfg.Server.Port)
	}
	return cfg, nil
}

// Default returns the configuration with nothing but defaults applied.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8501)

	v.SetDefault("files.users", "users.yaml")
	v.SetDefault("files.packages", "packages.yaml")
	v.SetDefault("files.tools", "tools.yaml")

	v.SetDefault("admin_users", "")

	v.SetDefault("session.secret", "")
	v.SetDefault("session.cookie_name", "tickcom_portal")
	v.SetDefault("session.max_age_days", 14)
	v.SetDefault("session.secure", false)

	v.SetDefault("auth.legacy_plaintext", false)
	v.SetDefault("auth.strict_expiry", false)
	v.SetDefault("auth.jwt_expiry", "24h")

	v.SetDefault("roster.watch", true)
	v.SetDefault("roster.reload_interval", "0s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")
}

// bindEnvironmentVariables maps the variable names operators already use.
func bindEnvironmentVariables(v *viper.Viper) {
	v.BindEnv("admin_users", "PORTAL_ADMIN_USERS", "ADMIN_USERS")
	v.BindEnv("session.secret", "PORTAL_SESSION_SECRET", "PORTAL_COOKIE_KEY")
	v.BindEnv("server.port", "PORTAL_SERVER_PORT", "PORTAL_PORT")

	v.BindEnv("files.users", "PORTAL_FILES_USERS", "PORTAL_USERS_FILE")
	v.BindEnv("files.packages", "PORTAL_FILES_PACKAGES", "PORTAL_PACKAGES_FILE")
	v.BindEnv("files.tools", "PORTAL_FILES_TOOLS", "PORTAL_TOOLS_FILE")

	v.BindEnv("logging.level", "PORTAL_LOGGING_LEVEL")
	v.BindEnv("logging.format", "PORTAL_LOGGING_FORMAT")
	v.BindEnv("logging.output", "PORTAL_LOGGING_OUTPUT")
}

func (c Config) ListenAddr() string {
	return ":" + strconv.Itoa(c.Server.Port)
}

func (c Config) SessionMaxAge() time.Duration {
	return time.Duration(c.Session.MaxAgeDays) * 24 * time.Hour
}
