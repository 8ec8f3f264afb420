package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable PhishGuard reads.
const EnvPrefix = "PHISHGUARD_"

// Environment variable names.
const (
	EnvFetchText   = EnvPrefix + "FETCH_TEXT"
	EnvTimeout     = EnvPrefix + "TIMEOUT"
	EnvProxy       = EnvPrefix + "PROXY"
	EnvInsecure    = EnvPrefix + "INSECURE"
	EnvRateLimit   = EnvPrefix + "RATE_LIMIT"
	EnvUserAgent   = EnvPrefix + "USER_AGENT"
	EnvConcurrency = EnvPrefix + "CONCURRENCY"
	EnvModelDir    = EnvPrefix + "MODEL_DIR"
	EnvDataDir     = EnvPrefix + "DATA_DIR"
	EnvTrees       = EnvPrefix + "TREES"
	EnvSeed        = EnvPrefix + "SEED"
)

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set. With no
// paths it loads ".env" from the current directory. Missing files are
// ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides c with PHISHGUARD_* variables. lookup is usually
// os.LookupEnv. Empty values are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		return v, ok && v != ""
	}

	if v, ok := get(EnvFetchText); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return envError(EnvFetchText, err)
		}
		c.FetchText = b
	}
	if v, ok := get(EnvTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return envError(EnvTimeout, err)
		}
		c.Timeout = d
	}
	if v, ok := get(EnvProxy); ok {
		c.ProxyAddress = v
	}
	if v, ok := get(EnvInsecure); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return envError(EnvInsecure, err)
		}
		c.InsecureSkipVerify = b
	}
	if v, ok := get(EnvRateLimit); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return envError(EnvRateLimit, err)
		}
		c.RateLimit = f
	}
	if v, ok := get(EnvUserAgent); ok {
		c.UserAgent = v
	}
	if v, ok := get(EnvConcurrency); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return envError(EnvConcurrency, err)
		}
		c.Concurrency = n
	}
	if v, ok := get(EnvModelDir); ok {
		c.ModelDir = v
	}
	if v, ok := get(EnvDataDir); ok {
		c.DBDir = v
	}
	if v, ok := get(EnvTrees); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return envError(EnvTrees, err)
		}
		c.Trees = n
	}
	if v, ok := get(EnvSeed); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return envError(EnvSeed, err)
		}
		c.Seed = n
	}
	return nil
}

func envError(key string, err error) error {
	return fmt.Errorf("%w %s: %w", ErrInvalidEnv, key, err)
}
