package env

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type values struct {
	SERVER_ADDR              string `default:"0.0.0.0"`
	SERVER_PORT              int    `default:"8080"`
	LOG_LEVEL                string `default:"info"`
	STORE_BACKEND            string `default:"memory"`
	REDIS_ADDR               string `default:"localhost:6379"`
	DB_DSN                   string `default:""`
	ACQUIRER_LATENCY_MS      int    `default:"500"`
	ACQUIRER_TIMEOUT_MS      int    `default:"5000"`
	ROUTING_TABLE            string `default:""`
	HEALTH_CHECK_INTERVAL_MS int    `default:"5500"`
	SHUTDOWN_TIMEOUT_MS      int    `default:"10000"`
}

var Values = &values{}

// Load reads the optional env files, then fills Values from the process environment. Variables that
// are not set take their default tag; values that do not parse are returned as an error.
func Load(files ...string) error {
	if err := godotenv.Load(files...); err != nil {
		slog.Warn("[CF:Env:Load:01] - No .env file loaded, using process environment", "files", files, "error", err)
	}
	return fill(Values, os.LookupEnv)
}

func fill(target any, lookup func(string) (string, bool)) error {
	v := reflect.ValueOf(target).Elem()
	t := v.Type()

	var defaulted []string
	var errs []error

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)
		envVarName := fieldType.Name

		envVarValue, ok := lookup(envVarName)
		if !ok {
			envVarValue = fieldType.Tag.Get("default")
			defaulted = append(defaulted, envVarName)
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(envVarValue)

		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			intValue, err := strconv.ParseInt(strings.TrimSpace(envVarValue), 10, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %q is not an integer", envVarName, envVarValue))
				continue
			}
			field.SetInt(intValue)

		case reflect.Bool:
			boolValue, err := strconv.ParseBool(strings.TrimSpace(envVarValue))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %q is not a boolean", envVarName, envVarValue))
				continue
			}
			field.SetBool(boolValue)
		}
	}

	if len(defaulted) > 0 {
		slog.Debug("[CF:Env:Load:02] - Using defaults", "variables", strings.Join(defaulted, ","))
	}
	return errors.Join(errs...)
}

func (v *values) Addr() string {
	return v.SERVER_ADDR + ":" + strconv.Itoa(v.SERVER_PORT)
}

func (v *values) AcquirerLatency() time.Duration {
	return time.Duration(v.ACQUIRER_LATENCY_MS) * time.Millisecond
}

func (v *values) AcquirerTimeout() time.Duration {
	return time.Duration(v.ACQUIRER_TIMEOUT_MS) * time.Millisecond
}

func (v *values) HealthCheckInterval() time.Duration {
	return time.Duration(v.HEALTH_CHECK_INTERVAL_MS) * time.Millisecond
}

func (v *values) ShutdownTimeout() time.Duration {
	return time.Duration(v.SHUTDOWN_TIMEOUT_MS) * time.Millisecond
}

// SlogLevel maps LOG_LEVEL to a slog level, falling back to info.
func (v *values) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(v.LOG_LEVEL)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// ShowEnvValues logs the loaded configuration as an aligned table. DB_DSN is redacted.
func ShowEnvValues(logger *slog.Logger) {
	v := reflect.ValueOf(Values).Elem()
	t := v.Type()

	maxLength := 0
	for i := 0; i < t.NumField(); i++ {
		if len(t.Field(i).Name) > maxLength {
			maxLength = len(t.Field(i).Name)
		}
	}
	format := fmt.Sprintf("%%-%ds: %%v", maxLength)

	logger.Info("---------------------------------------------------------------------------------------------")
	for i := 0; i < v.NumField(); i++ {
		var value any = v.Field(i).Interface()
		if t.Field(i).Name == "DB_DSN" && v.Field(i).String() != "" {
			value = "<redacted>"
		}
		logger.Info(fmt.Sprintf(format, t.Field(i).Name, value))
	}
	logger.Info("---------------------------------------------------------------------------------------------")
}
