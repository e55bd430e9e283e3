package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for its config file.
const DefaultPath = ".sgeval/config.yaml"

// Config represents the runtime configuration from .sgeval/config.yaml.
type Config struct {
	LogLevel  string          `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string          `yaml:"log_format" validate:"oneof=text json"`
	Paths     PathsConfig     `yaml:"paths"`
	Eval      EvalConfig      `yaml:"eval"`
	Inspector InspectorConfig `yaml:"inspector"`
	GitHub    GitHubConfig    `yaml:"github"`
}

// PathsConfig locates evaluation inputs and outputs.
type PathsConfig struct {
	Vocab  string `yaml:"vocab" validate:"required"`
	Scenes string `yaml:"scenes" validate:"required"`
	Goals  string `yaml:"goals" validate:"required"`
	Log    string `yaml:"log" validate:"required"`
	DB     string `yaml:"db"`
}

// EvalConfig defines batch evaluation defaults.
type EvalConfig struct {
	SceneID     int           `yaml:"scene_id" validate:"gte=0"`
	Workers     int           `yaml:"workers" validate:"gte=1,lte=256"`
	StepTimeout time.Duration `yaml:"step_timeout" validate:"gte=0"`
}

// InspectorConfig defines inspector server settings.
type InspectorConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port" validate:"gte=0,lte=65535"`
}

// GitHubConfig holds settings for fetching resources from GitHub.
type GitHubConfig struct {
	Token string `yaml:"token"`
	Repo  string `yaml:"repo" validate:"omitempty,contains=/"`
	Ref   string `yaml:"ref"`
	Path  string `yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "text",
		Paths: PathsConfig{
			Vocab:  "resources/vocabulary.json",
			Scenes: "resources/scenes",
			Goals:  "resources/goals.json",
			Log:    ".sgeval/log.json",
			DB:     ".sgeval/results.db",
		},
		Eval: EvalConfig{
			SceneID:     1,
			Workers:     1,
			StepTimeout: 10 * time.Second,
		},
		Inspector: InspectorConfig{
			Port: 4242,
		},
		GitHub: GitHubConfig{
			Token: "${GITHUB_TOKEN}",
			Ref:   "main",
			Path:  "resources",
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s fails %q", fe.Namespace(), fe.Tag())
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadConfig reads, interpolates and validates a runtime config YAML file.
// Returns default config if the file doesn't exist.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg.GitHub.Token = interpolateEnvVars(cfg.GitHub.Token)
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	// Interpolate environment variables before parsing.
	interpolated := interpolateEnvVars(string(data))

	if err := yaml.Unmarshal([]byte(interpolated), &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.GitHub.Token = interpolateEnvVars(cfg.GitHub.Token)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadEnv loads variables from a .env file into the process environment.
// Variables already set win. A missing file is not an error.
func LoadEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// envVarPattern matches ${VAR_NAME} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// interpolateEnvVars replaces ${VAR_NAME} patterns with environment variable
// values. Unset variables become empty.
func interpolateEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}"))
	})
}
