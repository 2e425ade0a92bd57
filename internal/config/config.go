package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/a3tai/labreport-summarizer/internal/intelligence"
	"github.com/a3tai/labreport-summarizer/internal/pipeline"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "json"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	DefaultOutputPath  = "summary.xlsx"
	DefaultSheet       = "Summary"

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "LABREPORT"
)

// LogConfig selects the zap logger
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// EngineConfig holds the extraction knobs
type EngineConfig struct {
	DateScanPages       int    `mapstructure:"date_scan_pages"`
	TriggerScanPages    int    `mapstructure:"trigger_scan_pages"` // 0 scans every page
	HeaderScanRows      int    `mapstructure:"header_scan_rows"`
	CarryOverMinColumns int    `mapstructure:"carry_over_min_columns"`
	Workers             int    `mapstructure:"workers"`
	RulesPath           string `mapstructure:"rules_path"`
}

// OutputConfig locates the spreadsheet written by the CLI
type OutputConfig struct {
	Path  string `mapstructure:"path"`
	Sheet string `mapstructure:"sheet"`
}

// HTTPConfig tunes the upload API served in server mode
type HTTPConfig struct {
	CORSOrigins []string `mapstructure:"cors_origins"`
	RateLimit   float64  `mapstructure:"rate_limit"` // batches per second, 0 disables
	Burst       int      `mapstructure:"burst"`
	MaxFiles    int      `mapstructure:"max_files"` // per batch, 0 means unlimited
}

// Config holds all configuration for the summarizer
type Config struct {
	// Server configuration
	Mode string `mapstructure:"mode"` // "server" or "stdio"
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// PDF configuration
	PDFDirectory string `mapstructure:"dir"`
	MaxFileSize  int64  `mapstructure:"max_file_size"` // Maximum PDF file size in bytes

	// Application configuration
	Version    string `mapstructure:"version"`
	ServerName string `mapstructure:"server_name"`

	Log    LogConfig    `mapstructure:"log"`
	Engine EngineConfig `mapstructure:"engine"`
	Output OutputConfig `mapstructure:"output"`
	HTTP   HTTPConfig   `mapstructure:"http"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		// Fallback to current directory if working directory cannot be determined
		currentDir = "."
	}

	engine := pipeline.DefaultOptions()
	return &Config{
		Mode:         ModeStdio, // Default to stdio mode for MCP compatibility
		Host:         DefaultHost,
		Port:         DefaultPort,
		PDFDirectory: currentDir,
		MaxFileSize:  DefaultMaxFileSize,
		Version:      "1.0.0",
		ServerName:   "labreport-summarizer",
		Log:          LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
		Engine: EngineConfig{
			DateScanPages:       engine.DateScanPages,
			TriggerScanPages:    engine.TriggerScanPages,
			HeaderScanRows:      engine.Header.ScanRows,
			CarryOverMinColumns: engine.Header.CarryMinColumns,
			Workers:             engine.Workers,
		},
		Output: OutputConfig{Path: DefaultOutputPath, Sheet: DefaultSheet},
		HTTP:   HTTPConfig{Burst: 5},
	}
}

// flagKeys maps command line flag names to configuration keys
var flagKeys = map[string]string{
	"mode":               "mode",
	"host":               "host",
	"port":               "port",
	"dir":                "dir",
	"max-file-size":      "max_file_size",
	"log-level":          "log.level",
	"log-format":         "log.format",
	"workers":            "engine.workers",
	"rules":              "engine.rules_path",
	"date-scan-pages":    "engine.date_scan_pages",
	"trigger-scan-pages": "engine.trigger_scan_pages",
	"out":                "output.path",
	"sheet":              "output.sheet",
}

// Load resolves the configuration from defaults, an optional YAML file,
// LABREPORT_* environment variables and flags, in increasing precedence.
// configFile may be empty, in which case ./labreport.yaml is used if present.
func Load(flags *pflag.FlagSet, configFile string) (*Config, error) {
	v := viper.New()
	def := DefaultConfig()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("labreport")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", def.Mode)
	v.SetDefault("host", def.Host)
	v.SetDefault("port", def.Port)
	v.SetDefault("dir", def.PDFDirectory)
	v.SetDefault("max_file_size", def.MaxFileSize)
	v.SetDefault("version", def.Version)
	v.SetDefault("server_name", def.ServerName)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("engine.date_scan_pages", def.Engine.DateScanPages)
	v.SetDefault("engine.trigger_scan_pages", def.Engine.TriggerScanPages)
	v.SetDefault("engine.header_scan_rows", def.Engine.HeaderScanRows)
	v.SetDefault("engine.carry_over_min_columns", def.Engine.CarryOverMinColumns)
	v.SetDefault("engine.workers", def.Engine.Workers)
	v.SetDefault("engine.rules_path", "")
	v.SetDefault("output.path", def.Output.Path)
	v.SetDefault("output.sheet", def.Output.Sheet)
	v.SetDefault("http.cors_origins", []string{})
	v.SetDefault("http.rate_limit", def.HTTP.RateLimit)
	v.SetDefault("http.burst", def.HTTP.Burst)
	v.SetDefault("http.max_files", def.HTTP.MaxFiles)

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, eris.Wrapf(err, "config: bind flag %s", name)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	// Expand paths if needed
	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, eris.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate mode
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return eris.New("mode must be either 'stdio' or 'server'")
	}

	// Validate port range (only for server mode)
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return eris.New("port must be between 1 and 65535")
	}

	// Validate PDF directory
	if c.PDFDirectory == "" {
		return eris.New("PDF directory cannot be empty")
	}

	// Check if PDF directory exists, create if it doesn't
	if _, err := os.Stat(c.PDFDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.PDFDirectory, DefaultDirPerm); err != nil {
			return eris.Wrapf(err, "cannot create PDF directory %s", c.PDFDirectory)
		}
	} else if err != nil {
		return eris.Wrapf(err, "cannot access PDF directory %s", c.PDFDirectory)
	}

	// Validate max file size
	if c.MaxFileSize <= 0 {
		return eris.New("maximum file size must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Log.Level] {
		return eris.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.Log.Level)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return eris.Errorf("invalid log format: %s (must be json or console)", c.Log.Format)
	}

	e := c.Engine
	if e.DateScanPages < 1 {
		return eris.New("engine.date_scan_pages must be at least 1")
	}
	if e.TriggerScanPages < 0 {
		return eris.New("engine.trigger_scan_pages cannot be negative")
	}
	if e.HeaderScanRows < 1 {
		return eris.New("engine.header_scan_rows must be at least 1")
	}
	if e.CarryOverMinColumns < 0 {
		return eris.New("engine.carry_over_min_columns cannot be negative")
	}
	if e.Workers < 1 {
		return eris.New("engine.workers must be at least 1")
	}

	if c.Output.Sheet == "" {
		return eris.New("output.sheet cannot be empty")
	}

	if c.HTTP.RateLimit < 0 {
		return eris.New("http.rate_limit cannot be negative")
	}
	if c.HTTP.RateLimit > 0 && c.HTTP.Burst < 1 {
		return eris.New("http.burst must be at least 1 when rate limiting")
	}
	if c.HTTP.MaxFiles < 0 {
		return eris.New("http.max_files cannot be negative")
	}
	return nil
}

// PipelineOptions converts the engine section to pipeline options
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		DateScanPages:    c.Engine.DateScanPages,
		TriggerScanPages: c.Engine.TriggerScanPages,
		Header: intelligence.HeaderOptions{
			ScanRows:        c.Engine.HeaderScanRows,
			CarryMinColumns: c.Engine.CarryOverMinColumns,
		},
		Workers: c.Engine.Workers,
	}
}

// LoadRules returns the built-in rule set, or the one at engine.rules_path
func (c *Config) LoadRules() (*intelligence.RuleSet, error) {
	if c.Engine.RulesPath == "" {
		return intelligence.DefaultRuleSet(), nil
	}
	return intelligence.LoadRuleSet(c.Engine.RulesPath)
}

// InitLogger initializes the global zap logger. Logs always go to stderr so
// that stdout stays free for MCP stdio traffic and CLI output.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.OutputPaths = []string{"stderr"}
	zapCfg.ErrorOutputPaths = []string{"stderr"}

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

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.Log.Level == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, PDFDirectory: %s, LogLevel: %s, MaxFileSize: %d, Workers: %d}",
		c.Mode, c.Host, c.Port, c.PDFDirectory, c.Log.Level, c.MaxFileSize, c.Engine.Workers)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
