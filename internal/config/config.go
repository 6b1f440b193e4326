/**
 * @description
 * This package resolves the harness runtime settings from layered sources using
 * Viper. Resolution order, highest first:
 *
 *   1. explicit overrides supplied by the caller (command-line -set flags)
 *   2. environment variables (HARNESS_ prefix, dots become underscores)
 *   3. application-<env>.properties
 *   4. application.properties
 *   5. the default passed to the accessor
 *
 * Each Provider owns its own viper instance; nothing here is process-global.
 *
 * @dependencies
 * - github.com/spf13/viper: layered configuration.
 * - go.uber.org/zap: warnings for optional keys that fail to parse.
 */
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"github.com/transfa/bank-api-harness/internal/domain"
	"go.uber.org/zap"
)

const (
	// EnvPrefix namespaces environment overrides, e.g. HARNESS_BASE_URL.
	EnvPrefix = "HARNESS"
	// DefaultEnv is used when neither Options.Env nor HARNESS_ENV is set.
	DefaultEnv = "test"

	baseFileName = "application.properties"
)

// Options describes where configuration comes from.
type Options struct {
	// Dir holds application.properties and application-<env>.properties.
	Dir string
	// Env selects the environment-specific file.
	Env string
	// Overrides win over every other source.
	Overrides map[string]string
	Logger    *zap.Logger
}

// Provider answers key lookups against the layered sources.
type Provider struct {
	opts   Options
	env    string
	logger *zap.Logger

	mu sync.RWMutex
	v  *viper.Viper
}

// NewProvider reads every source once. A missing base file is tolerated and
// logged; an unreadable one is a ConfigError.
func NewProvider(opts Options) (*Provider, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	env := strings.TrimSpace(opts.Env)
	if env == "" {
		env = strings.TrimSpace(os.Getenv(EnvPrefix + "_ENV"))
	}
	if env == "" {
		env = DefaultEnv
	}

	p := &Provider{opts: opts, env: env, logger: logger.Named("config")}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Env returns the resolved environment name.
func (p *Provider) Env() string {
	return p.env
}

// Reload re-reads all sources and atomically swaps the cached view.
func (p *Provider) Reload() error {
	v := viper.New()
	v.SetConfigType("properties")

	basePath := filepath.Join(p.opts.Dir, baseFileName)
	v.SetConfigFile(basePath)
	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return &domain.ConfigError{Key: basePath, Reason: "unreadable config file", Err: err}
		}
		p.logger.Warn("base config file not found; relying on environment and defaults", zap.String("path", basePath))
	} else {
		p.logger.Info("configuration properties loaded", zap.String("path", basePath))
	}

	envPath := filepath.Join(p.opts.Dir, fmt.Sprintf("application-%s.properties", p.env))
	if _, err := os.Stat(envPath); err == nil {
		v.SetConfigFile(envPath)
		if err := v.MergeInConfig(); err != nil {
			return &domain.ConfigError{Key: envPath, Reason: "unreadable environment config file", Err: err}
		}
		p.logger.Info("environment-specific properties loaded", zap.String("env", p.env), zap.String("path", envPath))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range p.opts.Overrides {
		v.Set(key, value)
	}

	p.mu.Lock()
	p.v = v
	p.mu.Unlock()
	return nil
}

func (p *Provider) lookup(key string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.v.IsSet(key) {
		return "", false
	}
	return strings.TrimSpace(p.v.GetString(key)), true
}

// Get returns the value of a required key.
func (p *Provider) Get(key string) (string, error) {
	value, ok := p.lookup(key)
	if !ok {
		return "", &domain.ConfigError{Key: key, Reason: "required key is not set", Err: domain.ErrConfigNotFound}
	}
	return value, nil
}

// GetOr returns the value of key or def when it is absent.
func (p *Provider) GetOr(key, def string) string {
	if value, ok := p.lookup(key); ok {
		return value
	}
	return def
}

// Int returns a required integer key.
func (p *Provider) Int(key string) (int, error) {
	raw, err := p.Get(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &domain.ConfigError{Key: key, Reason: fmt.Sprintf("invalid integer %q", raw), Err: err}
	}
	return n, nil
}

// IntOr returns an optional integer key, falling back to def when the key is
// absent or unparsable.
func (p *Provider) IntOr(key string, def int) int {
	raw, ok := p.lookup(key)
	if !ok || raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.logger.Warn("invalid integer property; using default", zap.String("key", key), zap.String("value", raw), zap.Int("default", def))
		return def
	}
	return n
}

// Bool returns a required boolean key.
func (p *Provider) Bool(key string) (bool, error) {
	raw, err := p.Get(key)
	if err != nil {
		return false, err
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &domain.ConfigError{Key: key, Reason: fmt.Sprintf("invalid boolean %q", raw), Err: err}
	}
	return b, nil
}

// BoolOr returns an optional boolean key, falling back to def when the key is
// absent or unparsable.
func (p *Provider) BoolOr(key string, def bool) bool {
	raw, ok := p.lookup(key)
	if !ok || raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		p.logger.Warn("invalid boolean property; using default", zap.String("key", key), zap.String("value", raw), zap.Bool("default", def))
		return def
	}
	return b
}

// Keys lists every key known to the file and override layers, sorted.
func (p *Provider) Keys() []string {
	p.mu.RLock()
	keys := p.v.AllKeys()
	p.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// LogSettings prints every known key, masking secrets.
func (p *Provider) LogSettings() {
	for _, key := range p.Keys() {
		value := p.GetOr(key, "")
		if isSecretKey(key) && value != "" {
			value = "*****"
		}
		p.logger.Info("configuration property", zap.String("key", key), zap.String("value", value))
	}
}

func isSecretKey(key string) bool {
	lower := strings.ToLower(key)
	return strings.Contains(lower, "password") || strings.Contains(lower, "token") || strings.Contains(lower, "secret")
}
