// Package env loads typed configuration values from environment variables.
package env

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrNotSet is returned when a required environment variable is not set.
	ErrNotSet = errors.New("env: variable not set")
	// ErrParseFailed is returned when parsing an environment variable fails.
	ErrParseFailed = errors.New("env: parse failed")
)

// Parseable is the set of types an environment variable can be parsed into.
type Parseable interface {
	~string | ~bool | ~int | ~int64 | ~float64
}

// Parse converts a string to the specified type T.
func Parse[T Parseable](str string) (T, error) {
	var v T
	var (
		out any
		err error
	)

	switch any(v).(type) {
	case string:
		out = str
	case bool:
		out, err = strconv.ParseBool(str)
	case int:
		out, err = strconv.Atoi(str)
	case int64:
		out, err = strconv.ParseInt(str, 10, 64)
	case float64:
		out, err = strconv.ParseFloat(str, 64)
	default:
		// Named types fall back to scanning.
		_, err = fmt.Sscanf(str, "%v", &v)
		if err != nil {
			return v, fmt.Errorf("%w: %s", ErrParseFailed, err)
		}

		return v, nil
	}
	if err != nil {
		return v, fmt.Errorf("%w: %s", ErrParseFailed, err)
	}

	return out.(T), nil
}

// MustLoad reads an environment variable and parses it to type T.
// Panics if the variable is not set or cannot be parsed.
func MustLoad[T Parseable](name string) T {
	v, err := Load[T](name)
	if err != nil {
		panic(err)
	}

	return v
}

// Load reads an environment variable and parses it to type T.
func Load[T Parseable](name string) (T, error) {
	var zero T
	s, err := lookupEnv(name)
	if err != nil {
		return zero, err
	}

	v, err := Parse[T](strings.TrimSpace(s))
	if err != nil {
		return zero, fmt.Errorf("%w: variable %s", err, name)
	}

	return v, nil
}

// LoadOr returns the parsed variable, or defaultValue when it is unset or
// malformed.
func LoadOr[T Parseable](name string, defaultValue T) T {
	v, err := Load[T](name)
	if err != nil {
		return defaultValue
	}

	return v
}

// LoadDuration reads an environment variable and parses it as a time.Duration.
func LoadDuration(name string) (time.Duration, error) {
	s, err := lookupEnv(name)
	if err != nil {
		return 0, err
	}

	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: variable %s: %s", ErrParseFailed, name, err)
	}

	return d, nil
}

// LoadDurationOr is LoadDuration with a fallback.
func LoadDurationOr(name string, defaultValue time.Duration) time.Duration {
	d, err := LoadDuration(name)
	if err != nil {
		return defaultValue
	}

	return d
}

func lookupEnv(name string) (string, error) {
	v, ok := os.LookupEnv(name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("%w: %q", ErrNotSet, name)
	}

	return v, nil
}
