package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/transfa/bank-api-harness/internal/domain"
)

// Settings is the immutable configuration snapshot handed to every component.
type Settings struct {
	Env string

	BaseURL  string
	BasePort int
	BasePath string

	AuthToken string
	JWTSecret string

	LoggingEnabled bool
	LogLevel       string

	RetryCount      int
	ParallelThreads int
	RequestTimeout  time.Duration

	SchemaValidationEnabled bool
	SchemaDir               string

	JSONFixtureDir       string
	ExcelFixtureDir      string
	ExcelFixturesEnabled bool

	ReportDir      string
	ReportAMQPURL  string
	ReportExchange string

	Schedule    string
	MetricsAddr string

	GeneratorSeed  uint64
	CleanupEnabled bool
}

// Load builds a Provider from opts and snapshots it.
func Load(opts Options) (*Provider, Settings, error) {
	p, err := NewProvider(opts)
	if err != nil {
		return nil, Settings{}, err
	}
	s, err := LoadSettings(p)
	if err != nil {
		return nil, Settings{}, err
	}
	return p, s, nil
}

// LoadSettings reads every harness key from p. Only base.url is required.
func LoadSettings(p *Provider) (Settings, error) {
	baseURL, err := p.Get("base.url")
	if err != nil {
		return Settings{}, err
	}

	s := Settings{
		Env:                     p.Env(),
		BaseURL:                 strings.TrimRight(baseURL, "/"),
		BasePort:                p.IntOr("base.port", 0),
		BasePath:                p.GetOr("base.path", ""),
		AuthToken:               p.GetOr("auth.token", ""),
		JWTSecret:               p.GetOr("auth.jwt.secret", ""),
		LoggingEnabled:          p.BoolOr("logging.enabled", true),
		LogLevel:                p.GetOr("logging.level", "info"),
		RetryCount:              p.IntOr("retry.count", 1),
		ParallelThreads:         p.IntOr("test.parallel.threads", 3),
		RequestTimeout:          time.Duration(p.IntOr("test.timeout", 30000)) * time.Millisecond,
		SchemaValidationEnabled: p.BoolOr("schema.validation.enabled", true),
		SchemaDir:               p.GetOr("schema.dir", ""),
		JSONFixtureDir:          p.GetOr("testdata.json.path", "testdata"),
		ExcelFixtureDir:         p.GetOr("testdata.excel.path", "testdata"),
		ExcelFixturesEnabled:    p.BoolOr("testdata.excel.enabled", false),
		ReportDir:               p.GetOr("report.dir", "reports"),
		ReportAMQPURL:           p.GetOr("report.amqp.url", ""),
		ReportExchange:          p.GetOr("report.amqp.exchange", "harness_events"),
		Schedule:                p.GetOr("schedule.cron", ""),
		MetricsAddr:             p.GetOr("metrics.addr", ""),
		CleanupEnabled:          p.BoolOr("cleanup.enabled", false),
	}

	if seed := p.IntOr("generator.seed", 0); seed > 0 {
		s.GeneratorSeed = uint64(seed)
	}
	if s.RetryCount < 0 {
		s.RetryCount = 0
	}
	if s.ParallelThreads < 1 {
		s.ParallelThreads = 1
	}
	if s.RequestTimeout <= 0 {
		s.RequestTimeout = 30 * time.Second
	}

	if _, err := s.Target(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Target composes base.url, base.port and base.path into the API root.
// A port already present in base.url wins over base.port.
func (s Settings) Target() (string, error) {
	u, err := url.Parse(s.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		if err == nil {
			err = errors.New("missing scheme or host")
		}
		return "", &domain.ConfigError{Key: "base.url", Reason: fmt.Sprintf("invalid URL %q", s.BaseURL), Err: err}
	}
	if s.BasePort > 0 && u.Port() == "" {
		u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(s.BasePort))
	}
	path := strings.Trim(s.BasePath, "/")
	if path != "" {
		u.Path = strings.TrimRight(u.Path, "/") + "/" + path
	}
	return strings.TrimRight(u.String(), "/"), nil
}
