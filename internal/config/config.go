// Package config loads CLI defaults from comprehend.yaml and COMPREHEND_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. COMPREHEND_FORMAT.
const EnvPrefix = "COMPREHEND"

// Config holds defaults for CLI flags. Flags given on the command line
// win over these.
type Config struct {
	Format    string `mapstructure:"format" validate:"oneof=text json"`
	Verbose   bool   `mapstructure:"verbose"`
	Limit     int    `mapstructure:"limit" validate:"min=0"`
	Data      string `mapstructure:"data"`  // default dataset for eval
	Store     string `mapstructure:"store"` // run log database; empty disables logging
	Scenarios string `mapstructure:"scenarios" validate:"required"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Format:    "text",
		Scenarios: "testdata/scenarios",
	}
}

type loaderConfig struct {
	file        string
	searchPaths []string
}

// LoaderOption is a functional option for Load.
type LoaderOption func(*loaderConfig)

// WithConfigFile reads exactly path; a missing file is an error.
func WithConfigFile(path string) LoaderOption {
	return func(lc *loaderConfig) { lc.file = path }
}

// WithSearchPaths replaces the directories searched for comprehend.yaml.
func WithSearchPaths(dirs ...string) LoaderOption {
	return func(lc *loaderConfig) { lc.searchPaths = dirs }
}

// DefaultSearchPaths is the current directory, then
// $HOME/.config/comprehend.
func DefaultSearchPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "comprehend"))
	}
	return paths
}

// Load resolves the configuration: defaults, then the config file, then
// the environment.
func Load(opts ...LoaderOption) (Config, error) {
	lc := loaderConfig{searchPaths: DefaultSearchPaths()}
	for _, opt := range opts {
		opt(&lc)
	}

	v := viper.New()
	def := Default()
	v.SetDefault("format", def.Format)
	v.SetDefault("verbose", def.Verbose)
	v.SetDefault("limit", def.Limit)
	v.SetDefault("data", def.Data)
	v.SetDefault("store", def.Store)
	v.SetDefault("scenarios", def.Scenarios)

	if lc.file != "" {
		v.SetConfigFile(lc.file)
	} else {
		v.SetConfigName("comprehend")
		v.SetConfigType("yaml")
		for _, dir := range lc.searchPaths {
			v.AddConfigPath(dir)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if lc.file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var (
	validate *validator.Validate
	once     sync.Once
)

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
			if name == "-" || name == "" {
				return strings.ToLower(fld.Name)
			}
			return name
		})
	})
	return validate
}

// Validate checks field constraints and reports all violations.
func (c Config) Validate() error {
	err := getValidator().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	messages := make([]string, 0, len(verrs))
	for _, e := range verrs {
		messages = append(messages, e.Field()+": "+describe(e))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(messages, "; "))
}

func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", e.Param(), fmt.Sprint(e.Value()))
	case "min":
		return "must be at least " + e.Param()
	}
	return "failed " + e.Tag() + " validation"
}
