package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	StrategyExistence = "existence"
	StrategyRecord    = "record"

	LayoutClassic   = "classic"
	LayoutDetailed  = "detailed"
	LayoutCaptioned = "captioned"

	IDSchemePositional = "positional"
	IDSchemeHashed     = "hashed"

	DefaultEncodings = "utf-8,iso-8859-1,windows-1252,utf-16"
)

var supportedFormats = map[string]bool{
	"pdf": true, "png": true, "jpg": true, "jpeg": true,
	"gif": true, "tif": true, "tiff": true, "bmp": true,
}

var supportedEncodings = map[string]bool{
	"utf-8": true, "iso-8859-1": true, "windows-1252": true, "utf-16": true,
}

// Config is kept flat and comparable so it can be passed by value.
type Config struct {
	GeneralVersion string `mapstructure:"GENERAL_VERSION"`
	ServerPort     int    `mapstructure:"SERVER_PORT"`
	UploadLimitMB  int    `mapstructure:"UPLOAD_LIMIT_MB"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	UploadDir       string `mapstructure:"UPLOAD_DIR"`
	CertificateDir  string `mapstructure:"CERTIFICATE_DIR"`
	VerificationDir string `mapstructure:"VERIFICATION_DIR"`

	RosterEncodings      string `mapstructure:"ROSTER_ENCODINGS"`
	VerificationStrategy string `mapstructure:"VERIFICATION_STRATEGY"`
	VerifyBaseURL        string `mapstructure:"VERIFY_BASE_URL"`
	CertificateIDScheme  string `mapstructure:"CERTIFICATE_ID_SCHEME"`

	Layout          string `mapstructure:"LAYOUT"`
	OutputFormat    string `mapstructure:"OUTPUT_FORMAT"`
	FontPath        string `mapstructure:"FONT_PATH"`
	NameFontSize    int    `mapstructure:"NAME_FONT_SIZE"`
	NameMinFontSize int    `mapstructure:"NAME_MIN_FONT_SIZE"`
	NameMaxWidth    int    `mapstructure:"NAME_MAX_WIDTH"`

	DatabaseDbPath       string `mapstructure:"DATABASE_DB_PATH"`
	DatabaseCacheAddress string `mapstructure:"DATABASE_CACHE_ADDRESS"`
	DatabaseCachePort    int    `mapstructure:"DATABASE_CACHE_PORT"`
	DatabaseCacheDB      int    `mapstructure:"DATABASE_CACHE_DB"`
	VerificationCacheTTL int    `mapstructure:"VERIFICATION_CACHE_TTL_SECONDS"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("GENERAL_VERSION", "0.1.0")
	v.SetDefault("SERVER_PORT", 5000)
	v.SetDefault("UPLOAD_LIMIT_MB", 32)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")

	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("CERTIFICATE_DIR", "certificates")
	v.SetDefault("VERIFICATION_DIR", "verification")

	v.SetDefault("ROSTER_ENCODINGS", DefaultEncodings)
	v.SetDefault("VERIFICATION_STRATEGY", StrategyExistence)
	v.SetDefault("VERIFY_BASE_URL", "")
	v.SetDefault("CERTIFICATE_ID_SCHEME", IDSchemePositional)

	v.SetDefault("LAYOUT", LayoutClassic)
	v.SetDefault("OUTPUT_FORMAT", "pdf")
	v.SetDefault("FONT_PATH", "")
	v.SetDefault("NAME_FONT_SIZE", 60)
	v.SetDefault("NAME_MIN_FONT_SIZE", 10)
	v.SetDefault("NAME_MAX_WIDTH", 700)

	v.SetDefault("DATABASE_DB_PATH", ":memory:")
	v.SetDefault("DATABASE_CACHE_ADDRESS", "")
	v.SetDefault("DATABASE_CACHE_PORT", 6379)
	v.SetDefault("DATABASE_CACHE_DB", 0)
	v.SetDefault("VERIFICATION_CACHE_TTL_SECONDS", 300)
}

// InitConfig loads config.yaml or .env from the working directory if present,
// then applies environment overrides.
func InitConfig() (Config, error) {
	return Load("")
}

// Load reads configuration from path (any format viper understands). An empty
// path searches the working directory and tolerates a missing file.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.normalize()
	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func (c *Config) normalize() {
	c.VerificationStrategy = strings.ToLower(strings.TrimSpace(c.VerificationStrategy))
	c.Layout = strings.ToLower(strings.TrimSpace(c.Layout))
	c.OutputFormat = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.OutputFormat), "."))
	c.CertificateIDScheme = strings.ToLower(strings.TrimSpace(c.CertificateIDScheme))
	c.VerifyBaseURL = strings.TrimRight(strings.TrimSpace(c.VerifyBaseURL), "/")
	c.RosterEncodings = strings.ToLower(c.RosterEncodings)
}

// Encodings returns the candidate roster encodings in try order.
func (c Config) Encodings() []string {
	var encodings []string
	for _, name := range strings.Split(c.RosterEncodings, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			encodings = append(encodings, name)
		}
	}
	return encodings
}

func (c Config) Validate() error {
	if c.UploadDir == "" || c.CertificateDir == "" || c.VerificationDir == "" {
		return errors.New("upload, certificate and verification directories are required")
	}

	switch c.VerificationStrategy {
	case StrategyExistence, StrategyRecord:
	default:
		return fmt.Errorf("unknown verification strategy %q", c.VerificationStrategy)
	}

	switch c.Layout {
	case LayoutClassic, LayoutDetailed, LayoutCaptioned:
	default:
		return fmt.Errorf("unknown layout %q", c.Layout)
	}

	switch c.CertificateIDScheme {
	case IDSchemePositional, IDSchemeHashed:
	default:
		return fmt.Errorf("unknown certificate id scheme %q", c.CertificateIDScheme)
	}

	if !supportedFormats[c.OutputFormat] {
		return fmt.Errorf("unsupported output format %q", c.OutputFormat)
	}

	encodings := c.Encodings()
	if len(encodings) == 0 {
		return errors.New("at least one roster encoding is required")
	}
	for _, name := range encodings {
		if !supportedEncodings[name] {
			return fmt.Errorf("unsupported roster encoding %q", name)
		}
	}

	if c.NameMinFontSize <= 0 || c.NameFontSize < c.NameMinFontSize {
		return fmt.Errorf(
			"invalid name font sizes: initial %d, floor %d",
			c.NameFontSize,
			c.NameMinFontSize,
		)
	}
	if c.NameMaxWidth <= 0 {
		return fmt.Errorf("invalid name max width %d", c.NameMaxWidth)
	}

	return nil
}

// Default returns the built-in configuration without reading files or env.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var config Config
	_ = v.Unmarshal(&config)
	config.normalize()
	return config
}
