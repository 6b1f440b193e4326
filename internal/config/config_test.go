package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/transfa/bank-api-harness/internal/domain"
)

func writeProperties(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

// unsetEnvWithCleanup clears key for the test and restores it afterwards.
func unsetEnvWithCleanup(t *testing.T, key string) {
	t.Helper()
	original, existed := os.LookupEnv(key)
	require.NoError(t, os.Unsetenv(key))
	t.Cleanup(func() {
		if existed {
			_ = os.Setenv(key, original)
			return
		}
		_ = os.Unsetenv(key)
	})
}

func newLayeredDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeProperties(t, dir, "application.properties", `
base.url=http://localhost
base.port=8083
base.path=/api
retry.count=1
logging.enabled=true
auth.token=base-token
`)
	writeProperties(t, dir, "application-staging.properties", `
base.url=https://staging.bank.example
retry.count=4
`)
	return dir
}

func TestProvider_ResolutionOrder(t *testing.T) {
	dir := newLayeredDir(t)
	unsetEnvWithCleanup(t, "HARNESS_BASE_URL")
	unsetEnvWithCleanup(t, "HARNESS_RETRY_COUNT")
	t.Setenv("HARNESS_AUTH_TOKEN", "env-token")

	p, err := NewProvider(Options{
		Dir:       dir,
		Env:       "staging",
		Overrides: map[string]string{"retry.count": "7"},
	})
	require.NoError(t, err)

	url, err := p.Get("base.url")
	require.NoError(t, err)
	assert.Equal(t, "https://staging.bank.example", url, "env file overrides base file")
	assert.Equal(t, 7, p.IntOr("retry.count", 0), "explicit override wins")
	assert.Equal(t, "env-token", p.GetOr("auth.token", ""), "environment variable beats files")
	assert.Equal(t, "/api", p.GetOr("base.path", ""), "base file fills the gaps")
	assert.Equal(t, "fallback", p.GetOr("missing.key", "fallback"))
}

func TestProvider_EnvNameFromEnvironment(t *testing.T) {
	dir := newLayeredDir(t)
	unsetEnvWithCleanup(t, "HARNESS_BASE_URL")
	t.Setenv("HARNESS_ENV", "staging")

	p, err := NewProvider(Options{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, "staging", p.Env())
	assert.Equal(t, "https://staging.bank.example", p.GetOr("base.url", ""))

	unsetEnvWithCleanup(t, "HARNESS_ENV")
	p, err = NewProvider(Options{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, DefaultEnv, p.Env())
	assert.Equal(t, "http://localhost", p.GetOr("base.url", ""))
}

func TestProvider_RequiredKeyMissing(t *testing.T) {
	unsetEnvWithCleanup(t, "HARNESS_BASE_URL")
	p, err := NewProvider(Options{Dir: t.TempDir(), Env: "none"})
	require.NoError(t, err, "a missing base file is tolerated")

	_, err = p.Get("base.url")
	require.Error(t, err)
	var cfgErr *domain.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "base.url", cfgErr.Key)
	assert.ErrorIs(t, err, domain.ErrConfigNotFound)
	assert.Equal(t, domain.KindConfig, domain.KindOf(err))

	_, _, err = Load(Options{Dir: t.TempDir(), Env: "none"})
	assert.ErrorAs(t, err, &cfgErr)
}

func TestProvider_TypedAccessors(t *testing.T) {
	dir := t.TempDir()
	writeProperties(t, dir, "application.properties", `
base.url=http://localhost
test.parallel.threads=lots
schema.validation.enabled=maybe
retry.count=2
logging.enabled=false
`)
	p, err := NewProvider(Options{Dir: dir, Env: "none"})
	require.NoError(t, err)

	n, err := p.Int("retry.count")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = p.Int("test.parallel.threads")
	assert.Equal(t, domain.KindConfig, domain.KindOf(err), "required typed parse failure is a ConfigError")
	assert.Equal(t, 3, p.IntOr("test.parallel.threads", 3), "optional typed parse failure falls back")

	_, err = p.Bool("schema.validation.enabled")
	assert.Equal(t, domain.KindConfig, domain.KindOf(err))
	assert.True(t, p.BoolOr("schema.validation.enabled", true))

	enabled, err := p.Bool("logging.enabled")
	require.NoError(t, err)
	assert.False(t, enabled)

	_, err = p.Bool("absent.flag")
	assert.ErrorIs(t, err, domain.ErrConfigNotFound)
}

func TestProvider_Reload(t *testing.T) {
	dir := t.TempDir()
	writeProperties(t, dir, "application.properties", "base.url=http://localhost\nretry.count=1\n")
	unsetEnvWithCleanup(t, "HARNESS_RETRY_COUNT")

	p, err := NewProvider(Options{Dir: dir, Env: "none"})
	require.NoError(t, err)
	assert.Equal(t, 1, p.IntOr("retry.count", 0))

	writeProperties(t, dir, "application.properties", "base.url=http://localhost\nretry.count=5\n")
	assert.Equal(t, 1, p.IntOr("retry.count", 0), "values are cached until reload")

	require.NoError(t, p.Reload())
	assert.Equal(t, 5, p.IntOr("retry.count", 0))
}

func TestLoadSettings_Defaults(t *testing.T) {
	dir := t.TempDir()
	writeProperties(t, dir, "application.properties", "base.url=http://localhost/\nbase.port=8083\nbase.path=/api\n")
	for _, key := range []string{"HARNESS_RETRY_COUNT", "HARNESS_TEST_PARALLEL_THREADS", "HARNESS_TEST_TIMEOUT", "HARNESS_SCHEMA_VALIDATION_ENABLED"} {
		unsetEnvWithCleanup(t, key)
	}

	_, s, err := Load(Options{Dir: dir, Env: "none"})
	require.NoError(t, err)

	assert.Equal(t, 1, s.RetryCount)
	assert.Equal(t, 3, s.ParallelThreads)
	assert.Equal(t, 30*time.Second, s.RequestTimeout)
	assert.True(t, s.SchemaValidationEnabled)
	assert.True(t, s.LoggingEnabled)
	assert.False(t, s.ExcelFixturesEnabled)

	target, err := s.Target()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8083/api", target)
}

func TestSettingsTarget(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		want     string
		wantErr  bool
	}{
		{name: "url only", settings: Settings{BaseURL: "https://bank.example"}, want: "https://bank.example"},
		{name: "port and path", settings: Settings{BaseURL: "http://localhost", BasePort: 9000, BasePath: "api/v1/"}, want: "http://localhost:9000/api/v1"},
		{name: "url port wins", settings: Settings{BaseURL: "http://localhost:7000", BasePort: 9000}, want: "http://localhost:7000"},
		{name: "no scheme", settings: Settings{BaseURL: "localhost"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.settings.Target()
			if tt.wantErr {
				assert.Equal(t, domain.KindConfig, domain.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsSecretKey(t *testing.T) {
	assert.True(t, isSecretKey("auth.token"))
	assert.True(t, isSecretKey("auth.jwt.secret"))
	assert.True(t, isSecretKey("db.password"))
	assert.False(t, isSecretKey("base.url"))
}
