package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"
	"time"

	"research-writer/llm/agents"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces every setting in the environment, e.g. WRITER_SERVER_ADDRESS.
const EnvPrefix = "WRITER"

// Config contains all configuration for the service. It is built once at
// startup and passed explicitly to the components that need it.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" json:"server"`
	OpenAI    OpenAIConfig    `mapstructure:"openai" json:"openai"`
	Search    SearchConfig    `mapstructure:"search" json:"search"`
	Agents    AgentsConfig    `mapstructure:"agents" json:"agents"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" json:"rate_limit"`
	Log       LogConfig       `mapstructure:"log" json:"log"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Address         string        `mapstructure:"address" json:"address" validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" json:"read_timeout" validate:"min=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" json:"write_timeout" validate:"min=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" json:"shutdown_timeout" validate:"min=0"`
}

// OpenAIConfig configures the completion-model client
type OpenAIConfig struct {
	APIKey  string        `mapstructure:"api_key" json:"api_key" validate:"required"`
	BaseURL string        `mapstructure:"base_url" json:"base_url,omitempty" validate:"omitempty,url"`
	OrgID   string        `mapstructure:"org_id" json:"org_id,omitempty"`
	Model   string        `mapstructure:"model" json:"model" validate:"required"`
	Timeout time.Duration `mapstructure:"timeout" json:"timeout" validate:"min=0"`
}

// SearchConfig configures the web search client
type SearchConfig struct {
	APIKey   string        `mapstructure:"api_key" json:"api_key" validate:"required"`
	Endpoint string        `mapstructure:"endpoint" json:"endpoint" validate:"required,url"`
	Timeout  time.Duration `mapstructure:"timeout" json:"timeout" validate:"min=0"`
}

// AgentsConfig holds optional system instruction overrides
type AgentsConfig struct {
	ResearcherInstruction string `mapstructure:"researcher_instruction" json:"researcher_instruction,omitempty"`
	WriterInstruction     string `mapstructure:"writer_instruction" json:"writer_instruction,omitempty"`
}

// RateLimitConfig throttles outbound calls. Zero disables a limiter.
type RateLimitConfig struct {
	SearchRPS     float64 `mapstructure:"search_rps" json:"search_rps" validate:"min=0"`
	CompletionRPS float64 `mapstructure:"completion_rps" json:"completion_rps" validate:"min=0"`
	Burst         int     `mapstructure:"burst" json:"burst" validate:"min=0"`
}

// LogConfig configures zerolog
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `mapstructure:"format" json:"format" validate:"oneof=json console"`
}

// DefaultConfig returns a default configuration. Credentials are left empty.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:         ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute,
			ShutdownTimeout: 30 * time.Second,
		},
		OpenAI: OpenAIConfig{
			Model:   agents.DefaultModel,
			Timeout: 2 * time.Minute,
		},
		Search: SearchConfig{
			Endpoint: "https://google.serper.dev/search",
			Timeout:  30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Burst: 1,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// envBindings maps config keys to the conventional variable names checked
// after the prefixed ones.
var envBindings = map[string][]string{
	"openai.api_key":  {"OPENAI_API_KEY"},
	"openai.base_url": {"OPENAI_BASE_URL"},
	"openai.org_id":   {"OPENAI_ORG_ID"},
	"search.api_key":  {"SERPER_API_KEY"},
}

// Load builds the configuration from defaults, an optional file and the
// environment, in increasing order of precedence. A .env file in the
// working directory is loaded first when present.
func Load(path string) (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	v := newViper()
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, configError(fmt.Errorf("config file does not exist: %s", path))
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, configError(fmt.Errorf("failed to read config file: %w", err))
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, configError(fmt.Errorf("failed to unmarshal config: %w", err))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads variables from the given files (default ".env") without
// overriding ones already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return configError(fmt.Errorf("failed to load %s: %w", f, err))
		}
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, DefaultConfig())

	for key, names := range envBindings {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(append([]string{key, prefixed}, names...)...)
	}
	return v
}

// setDefaults registers every key so AutomaticEnv can resolve it on Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.address", d.Server.Address)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("openai.api_key", d.OpenAI.APIKey)
	v.SetDefault("openai.base_url", d.OpenAI.BaseURL)
	v.SetDefault("openai.org_id", d.OpenAI.OrgID)
	v.SetDefault("openai.model", d.OpenAI.Model)
	v.SetDefault("openai.timeout", d.OpenAI.Timeout)

	v.SetDefault("search.api_key", d.Search.APIKey)
	v.SetDefault("search.endpoint", d.Search.Endpoint)
	v.SetDefault("search.timeout", d.Search.Timeout)

	v.SetDefault("agents.researcher_instruction", d.Agents.ResearcherInstruction)
	v.SetDefault("agents.writer_instruction", d.Agents.WriterInstruction)

	v.SetDefault("rate_limit.search_rps", d.RateLimit.SearchRPS)
	v.SetDefault("rate_limit.completion_rps", d.RateLimit.CompletionRPS)
	v.SetDefault("rate_limit.burst", d.RateLimit.Burst)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		return name
	})

	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return configError(err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return configError(errors.New(strings.Join(msgs, "; ")))
}

func describe(fe validator.FieldError) string {
	key := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		if hint, ok := envBindings[key]; ok {
			return fmt.Sprintf("%s is required (set %s)", key, hint[0])
		}
		return fmt.Sprintf("%s is required", key)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", key)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", key, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", key, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", key, fe.Tag())
	}
}

func configError(err error) error {
	return agents.NewConfigError("config", err)
}

// SaveToFile saves the configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// String returns a string representation of the config with secrets masked
func (c *Config) String() string {
	configCopy := *c
	configCopy.OpenAI.APIKey = mask(configCopy.OpenAI.APIKey)
	configCopy.Search.APIKey = mask(configCopy.Search.APIKey)

	data, _ := json.MarshalIndent(configCopy, "", "  ")
	return string(data)
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return strings.Repeat("*", len(secret))
}
