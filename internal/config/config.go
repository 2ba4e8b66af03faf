package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// New parses the process environment into T.
func New[T any]() (T, error) {
	return parse[T](env.Options{})
}

// FromMap parses T from environ instead of the process environment.
func FromMap[T any](environ map[string]string) (T, error) {
	return parse[T](env.Options{Environment: environ})
}

func parse[T any](opts env.Options) (T, error) {
	cfg, err := env.ParseAsWithOptions[T](opts)
	if err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}
