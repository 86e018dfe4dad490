package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	_ "time/tzdata"

	"namescrub/internal/errors"

	"github.com/go-playground/validator/v10"
	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

// Config is the immutable run configuration for one rename pass.
// Folder, Regex, Log and Ext mirror the command-line surface; the rest
// tune the diagnostic sink and the driver.
type Config struct {
	Folder string `yaml:"folder" validate:"required"` // Directory to scan, one level deep
	// Regex is accepted and recorded but never consulted by the sanitizer.
	Regex string `yaml:"regex"`
	Log   bool   `yaml:"log"` // Also append to LogFile
	Ext   string `yaml:"ext"` // Extension to match, without the dot, case-sensitive

	LogFile   string   `yaml:"log_file" validate:"required"`
	LogLevel  string   `yaml:"log_level" validate:"oneof=trace debug info warn error"`
	Timezone  string   `yaml:"timezone" validate:"required,timezone"`
	WholeName bool     `yaml:"whole_name"` // Strip the extension dot too
	Sort      bool     `yaml:"sort"`       // Process entries in name order
	Exclude   []string `yaml:"exclude" validate:"dive,required,glob"`
	DryRun    bool     `yaml:"dry_run"`
	Pause     string   `yaml:"pause" validate:"oneof=always never auto"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report yaml keys instead of Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("glob", func(fl validator.FieldLevel) bool {
		_, err := glob.Compile(fl.Field().String())
		return err == nil
	})

	return v
}

// DefaultPath returns ~/.config/namescrub/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.NewConfigError("cannot locate home directory", "", errors.ConfigNotFound, err)
	}
	return filepath.Join(home, ".config", "namescrub", "config.yaml"), nil
}

// LoadConfig loads configuration from DefaultPath. The file is optional:
// when it is missing, or there is no home directory to look in, the
// defaults are returned.
func LoadConfig() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return New(), nil
	}

	cfg, err := LoadConfigFile(path)
	if errors.IsFileNotFound(err) {
		return New(), nil
	}
	return cfg, err
}

// LoadConfigFile loads configuration from a specific file path on top of
// the defaults. Keys absent from the file keep their default value. The
// result is not validated: flags may still fill in the folder.
func LoadConfigFile(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.FromOS("error reading config file", path, errors.ConfigNotFound, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.NewConfigError("error parsing config file", path, errors.InvalidConfig, err)
	}

	return cfg, nil
}

// defaultConfig returns the default configuration.
func defaultConfig() *Config {
	return &Config{
		Ext:      "pdf",
		LogFile:  "logs.log",
		LogLevel: "debug",
		Timezone: "Europe/Moscow",
		Pause:    "always",
		Exclude:  []string{},
	}
}

// New returns a configuration holding the defaults.
func New() *Config {
	return defaultConfig()
}

// SaveConfig writes cfg as YAML, creating parent directories.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the settings that have a closed set of values. The
// folder is only required to be present, not to exist.
func (c *Config) Validate() error {
	if c == nil {
		return errors.NewConfigError("nil config", "", errors.InvalidConfig, nil)
	}

	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.NewConfigError("invalid configuration", "", errors.InvalidConfig, err)
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		messages = append(messages, formatFieldError(fe))
	}
	return errors.NewConfigError("invalid configuration", validationErrors[0].Field(), errors.InvalidConfig,
		fmt.Errorf("%s", strings.Join(messages, "; ")))
}

func formatFieldError(fe validator.FieldError) string {
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "timezone":
		return fmt.Sprintf("%s %q is not a known IANA timezone", field, fe.Value())
	case "glob":
		return fmt.Sprintf("%s pattern %q does not compile", field, fe.Value())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}

// ExcludeMatchers compiles the exclude globs.
func (c *Config) ExcludeMatchers() ([]glob.Glob, error) {
	matchers := make([]glob.Glob, 0, len(c.Exclude))
	for _, pattern := range c.Exclude {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, errors.NewConfigError("invalid exclude pattern", pattern, errors.InvalidPattern, err)
		}
		matchers = append(matchers, g)
	}
	return matchers, nil
}
