// Package cfgloader loads and validates configuration at the start of an application.
package cfgloader

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"github.com/code19m/errx"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvProduction = "production"
	EnvStaging    = "staging"
	EnvDev        = "dev"
	EnvLocal      = "local"
	EnvTest       = "test"

	CodeInvalidConfig = "INVALID_CONFIG"
)

// Load reads ${dir}/${ENVIRONMENT}.yaml, expands ${VAR} references, applies
// `default` tags and validates the result with `validate` tags.
//
// Example:
//
//	type Config struct {
//	    Host string `yaml:"host" validate:"required"`
//	    Port int    `yaml:"port" default:"8080"`
//	}
func Load[T any](opts ...Option) (T, error) {
	var config T

	if reflect.ValueOf(config).Kind() == reflect.Ptr {
		return config, invalid("arg config must not be a pointer")
	}

	o := Options{Dir: "./config"}
	for _, opt := range opts {
		opt(&o)
	}

	_ = godotenv.Load()

	env := o.Environment
	if env == "" {
		env = os.Getenv("ENVIRONMENT")
	}
	if !slices.Contains([]string{EnvProduction, EnvStaging, EnvDev, EnvLocal, EnvTest}, env) {
		return config, invalid(
			"ENVIRONMENT is not set or invalid. Choices are: production, staging, dev, local, test",
		)
	}

	path := filepath.Join(o.Dir, env+".yaml")
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, invalid(fmt.Sprintf("config file not found in the path %s", path))
	}
	if err != nil {
		return config, errx.Wrap(err)
	}

	data = []byte(os.ExpandEnv(string(data)))

	if err = yaml.Unmarshal(data, &config); err != nil {
		return config, invalid(fmt.Sprintf("failed to unmarshal %s config file: %v", env, err))
	}

	if err = defaults.Set(&config); err != nil {
		return config, invalid(fmt.Sprintf("failed to set default values for config: %s", err))
	}

	if err = validate(&config, env); err != nil {
		return config, err
	}

	if !o.Silent {
		printConfig(config)
	}

	return config, nil
}

// MustLoad is Load that exits the process on failure.
func MustLoad[T any](opts ...Option) T {
	config, err := Load[T](opts...)
	if err != nil {
		slog.Error("[cfgloader]: " + err.Error())
		os.Exit(1)
	}
	return config
}

func validate(config any, env string) error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(config)

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return nil
	}

	failed := make([]string, 0, len(errs))
	for _, fe := range errs {
		tag := fe.Tag()
		if fe.Param() != "" {
			tag += "=" + fe.Param()
		}
		failed = append(failed, fmt.Sprintf("%s: %s", fe.Namespace(), tag))
	}

	return invalid(fmt.Sprintf("invalid fields in %s config -> %s", env, strings.Join(failed, ",  ")))
}

func invalid(msg string) error {
	return errx.New(msg, errx.WithCode(CodeInvalidConfig), errx.WithType(errx.T_Validation))
}
