package common

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	OCR      OCRConfig      `mapstructure:"ocr"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Export   ExportConfig   `mapstructure:"export"`
	Log      LogConfig      `mapstructure:"log"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string        `mapstructure:"driver"` // sqlite | postgres
	DSN              string        `mapstructure:"dsn"`    // file path for sqlite
	MaxConns         int32         `mapstructure:"max_conns"`
	MinConns         int32         `mapstructure:"min_conns"`
	MaxConnLifetime  time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime  time.Duration `mapstructure:"max_conn_idle_time"`
	DialTimeout      time.Duration `mapstructure:"dial_timeout"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Engine            string `mapstructure:"engine"` // tesseract | vision | read-api
	Pdftoppm          string `mapstructure:"pdftoppm"`
	Pdftotext         string `mapstructure:"pdftotext"`
	Pdfinfo           string `mapstructure:"pdfinfo"`
	Tesseract         string `mapstructure:"tesseract"`
	TesseractLang     string `mapstructure:"tesseract_lang"`
	TessdataDir       string `mapstructure:"tessdata_dir"`
	DPI               int    `mapstructure:"dpi"`
	PSM               int    `mapstructure:"psm"`
	OEM               int    `mapstructure:"oem"`
	ReadEndpoint      string `mapstructure:"read_endpoint"`
	ReadAPIKey        string `mapstructure:"read_api_key"`
	VisionCredentials string `mapstructure:"vision_credentials"`
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Provider       string        `mapstructure:"provider"` // openai | anthropic | none
	Model          string        `mapstructure:"model"`
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	Temperature    float64       `mapstructure:"temperature"`
	MaxTokens      int64         `mapstructure:"max_tokens"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
}

// PipelineConfig bounds a processing run.
type PipelineConfig struct {
	SectionWindow int           `mapstructure:"section_window"`
	CallSpacing   time.Duration `mapstructure:"call_spacing"`
	PageTimeout   time.Duration `mapstructure:"page_timeout"`
	PollAttempts  int           `mapstructure:"poll_attempts"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	Workers       int           `mapstructure:"workers"`
}

// ExportConfig holds export defaults.
type ExportConfig struct {
	Dir    string `mapstructure:"dir"`
	Format string `mapstructure:"format"` // xlsx | json
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug | info | warn | error
	Format string `mapstructure:"format"` // json | text
}

// EnvPrefix is prepended to every environment override, e.g. IPQC_DATABASE_DSN.
const EnvPrefix = "IPQC"

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "ipqc.db")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", 30*time.Minute)
	v.SetDefault("database.max_conn_idle_time", 5*time.Minute)
	v.SetDefault("database.dial_timeout", 3*time.Second)
	v.SetDefault("database.statement_timeout", time.Duration(0))

	v.SetDefault("ocr.engine", "tesseract")
	v.SetDefault("ocr.pdftoppm", "pdftoppm")
	v.SetDefault("ocr.pdftotext", "pdftotext")
	v.SetDefault("ocr.pdfinfo", "pdfinfo")
	v.SetDefault("ocr.tesseract", "tesseract")
	v.SetDefault("ocr.tesseract_lang", "eng")
	v.SetDefault("ocr.tessdata_dir", "")
	v.SetDefault("ocr.dpi", 300)
	v.SetDefault("ocr.psm", 6)
	v.SetDefault("ocr.oem", 1)
	v.SetDefault("ocr.read_endpoint", "")
	v.SetDefault("ocr.read_api_key", "")
	v.SetDefault("ocr.vision_credentials", "")

	v.SetDefault("llm.provider", "none")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("llm.max_attempts", 3)
	v.SetDefault("llm.initial_backoff", 5*time.Second)

	v.SetDefault("pipeline.section_window", 800)
	v.SetDefault("pipeline.call_spacing", 4*time.Second)
	v.SetDefault("pipeline.page_timeout", 3*time.Minute)
	v.SetDefault("pipeline.poll_attempts", 30)
	v.SetDefault("pipeline.poll_interval", time.Second)
	v.SetDefault("pipeline.workers", 2)

	v.SetDefault("export.dir", ".")
	v.SetDefault("export.format", "xlsx")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// LoadConfig reads defaults, the optional file named by IPQC_CONFIG (or
// ipqc.yaml in the working directory) and IPQC_* environment overrides.
func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, NewAppError(CodeConfig, "read config file "+path, err)
		}
	} else {
		v.SetConfigName("ipqc")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, NewAppError(CodeConfig, "read config file", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, NewAppError(CodeConfig, "decode config", err)
	}
	return &cfg, nil
}

func configError(format string, args ...any) error {
	return NewAppError(CodeConfig, fmt.Sprintf(format, args...), ErrInvalidInput)
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return configError("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return configError("database.dsn is required")
	}
	switch c.OCR.Engine {
	case "tesseract", "vision":
	case "read-api":
		if c.OCR.ReadEndpoint == "" {
			return configError("ocr.read_endpoint is required for the read-api engine")
		}
	default:
		return configError("ocr.engine must be tesseract, vision or read-api, got %q", c.OCR.Engine)
	}
	switch c.LLM.Provider {
	case "none", "openai", "anthropic":
	default:
		return configError("llm.provider must be openai, anthropic or none, got %q", c.LLM.Provider)
	}
	if c.LLM.MaxAttempts < 1 {
		return configError("llm.max_attempts must be at least 1")
	}
	if c.Pipeline.SectionWindow < 0 {
		return configError("pipeline.section_window must not be negative")
	}
	if c.Pipeline.CallSpacing < 0 {
		return configError("pipeline.call_spacing must not be negative")
	}
	if c.Pipeline.PollAttempts < 1 {
		return configError("pipeline.poll_attempts must be at least 1")
	}
	switch c.Export.Format {
	case "xlsx", "json":
	default:
		return configError("export.format must be xlsx or json, got %q", c.Export.Format)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, configError("log.level %q is not a level", s)
	}
	return l, nil
}

// NewLogger builds the process logger from the log section. Unknown levels
// fall back to info.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Level)
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
