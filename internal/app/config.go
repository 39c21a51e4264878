package app

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/kardemumma/internal/grading"
)

type LimitsConfig struct {
	grading.Limits
	LineLimitOptions     []int    `toml:"line_limit_options"`
	FileExtensionOptions []string `toml:"file_extension_options"`
}

type Config struct {
	Server struct {
		Port       string `toml:"port"`
		EnableAuth bool   `toml:"enable_auth"`
	} `toml:"server"`

	Auth struct {
		JWTSecret          string `toml:"jwt_secret"`
		RedisURL           string `toml:"redis_url"`
		SessionCheck       bool   `toml:"session_check"`
		SessionKeyTemplate string `toml:"session_key_template"`
	} `toml:"auth"`

	Database struct {
		DSN           string `toml:"dsn"`
		MigrationsDir string `toml:"migrations_dir"`
	} `toml:"database"`

	Oracle grading.OracleConfig `toml:"oracle"`

	Limits LimitsConfig `toml:"limits"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf(
			"error reading config file %s\n> Error: %w\n> Content:\n%s",
			path,
			err,
			string(data),
		)
	}

	if config.Server.Port == "" {
		return nil, fmt.Errorf("Server port is not specified in config, use a value like :9999")
	}
	config.applyDefaults()

	logger.Debug.Printf("Loaded limits config: %+v", config.Limits)

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Limits.MaxFilesPerHomework == 0 {
		c.Limits.MaxFilesPerHomework = 5
	}
	if c.Limits.MaxLinesPerFile == 0 {
		c.Limits.MaxLinesPerFile = 500
	}
	if len(c.Limits.LineLimitOptions) == 0 {
		c.Limits.LineLimitOptions = []int{300, 600, 900, 1200}
	}
	if len(c.Limits.FileExtensionOptions) == 0 {
		c.Limits.FileExtensionOptions = []string{
			".py", ".dart", ".java", ".cpp", ".c", ".js",
			".ts", ".go", ".rs", ".kt", ".swift",
		}
	}

	if c.Oracle.URL == "" {
		c.Oracle.URL = "https://api.deepseek.com/v1/chat/completions"
	}
	if c.Oracle.Model == "" {
		c.Oracle.Model = "deepseek-chat"
	}
	if c.Oracle.TimeoutSeconds == 0 {
		c.Oracle.TimeoutSeconds = 30
	}
	if c.Oracle.Temperature == 0 {
		c.Oracle.Temperature = 0.3
	}
	if c.Oracle.MaxTokens == 0 {
		c.Oracle.MaxTokens = 1000
	}

	if c.Auth.SessionKeyTemplate == "" {
		c.Auth.SessionKeyTemplate = "sessions:{user_id}"
	}
}
