// Package config holds the explicit configuration for attask-archive. Values come
// from defaults, then ATTASK_* environment variables, then command-line flags;
// nothing is read from or written to disk.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/rshade/attask-archive/internal/logging"
)

// Environment names.
const (
	EnvSandbox = "sandbox"
	EnvLive    = "live"
)

// Defaults.
const (
	DefaultAPIVersion = "4.0"
	DefaultLogLevel   = "info"

	// MaxPageSize is the largest page the API accepts for bulk operations.
	MaxPageSize = 100

	// DefaultMaxPages bounds a single move run. At MaxPageSize this is 100,000 records.
	DefaultMaxPages = 1000
)

// URL templates for the hosted API.
const (
	liveURLTemplate    = "https://%s.attask-ondemand.com/attask/api/v%s/"
	sandboxURLTemplate = "https://%s.attasksandbox.com/attask/api/v%s/"
)

// Environment variable names.
const (
	EnvVarSubDomain  = "ATTASK_SUB_DOMAIN"
	EnvVarEnv        = "ATTASK_ENV"
	EnvVarAPIVersion = "ATTASK_API_VERSION"
	EnvVarAPIKey     = "ATTASK_API_KEY"
	EnvVarBaseURL    = "ATTASK_BASE_URL"
	EnvVarLogLevel   = "ATTASK_LOG_LEVEL"
	EnvVarLogFormat  = "ATTASK_LOG_FORMAT"
	EnvVarLogFile    = "ATTASK_LOG_FILE"
	EnvVarMaxPages   = "ATTASK_MAX_PAGES"
	EnvVarUsername   = "ATTASK_USERNAME"
	EnvVarPassword   = "ATTASK_PASSWORD"
)

// Validation errors.
var (
	ErrAPIKeyRequired     = errors.New("api key is required")
	ErrSubDomainRequired  = errors.New("sub-domain is required when no base URL is set")
	ErrInvalidEnvironment = errors.New("environment must be \"sandbox\" or \"live\"")
	ErrInvalidAPIVersion  = errors.New("invalid api version")
	ErrSourceRequired     = errors.New("source queue id is required")
	ErrTargetRequired     = errors.New("destination queue id is required")
	ErrSameQueue          = errors.New("source and destination queue ids must differ")
	ErrAgeNotPositive     = errors.New("age must be greater than 0 months")
	ErrPageSizeOutOfRange = fmt.Errorf("page size must be between 1 and %d", MaxPageSize)
	ErrMaxPagesTooSmall   = errors.New("max pages must be at least 1")
)

// Config is the full configuration for one invocation.
type Config struct {
	API     APIConfig
	Mover   MoverConfig
	Logging LoggingConfig
}

// APIConfig identifies the API endpoint and credentials.
type APIConfig struct {
	SubDomain   string
	Environment string
	APIVersion  string
	APIKey      string
	// BaseURL overrides the URL built from SubDomain/Environment/APIVersion.
	BaseURL string
	// Username and Password are only used for session login.
	Username string
	Password string
}

// MoverConfig drives a single archive run.
type MoverConfig struct {
	// From is the project (queue) id issues are moved out of.
	From string
	// To is the project (queue) id issues are moved into.
	To string
	// AgeMonths selects issues completed at least this many months ago.
	AgeMonths int
	// PageSize is the $$LIMIT used per search.
	PageSize int
	// MaxPages stops a run that keeps finding records.
	MaxPages int
}

// LoggingConfig controls the zerolog output.
type LoggingConfig struct {
	Level  string
	Format string
	File   string
	// Caller adds file:line to each event; --debug turns it on.
	Caller bool
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		API: APIConfig{
			Environment: EnvSandbox,
			APIVersion:  DefaultAPIVersion,
		},
		Mover: MoverConfig{
			PageSize: MaxPageSize,
			MaxPages: DefaultMaxPages,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: logging.FormatConsole,
		},
	}
}

// ApplyEnv overrides fields from environment variables found by lookup.
// Unparseable numeric values are reported rather than ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str(EnvVarSubDomain, &c.API.SubDomain)
	str(EnvVarEnv, &c.API.Environment)
	str(EnvVarAPIVersion, &c.API.APIVersion)
	str(EnvVarAPIKey, &c.API.APIKey)
	str(EnvVarBaseURL, &c.API.BaseURL)
	str(EnvVarUsername, &c.API.Username)
	str(EnvVarPassword, &c.API.Password)
	str(EnvVarLogLevel, &c.Logging.Level)
	str(EnvVarLogFormat, &c.Logging.Format)
	str(EnvVarLogFile, &c.Logging.File)

	if v, ok := lookup(EnvVarMaxPages); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvVarMaxPages, err)
		}
		c.Mover.MaxPages = n
	}
	return nil
}

// Validate checks the API section.
func (a APIConfig) Validate() error {
	if strings.TrimSpace(a.APIKey) == "" {
		return ErrAPIKeyRequired
	}
	if a.BaseURL != "" {
		return nil
	}
	if strings.TrimSpace(a.SubDomain) == "" {
		return ErrSubDomainRequired
	}
	if a.Environment != EnvSandbox && a.Environment != EnvLive {
		return fmt.Errorf("%w: got %q", ErrInvalidEnvironment, a.Environment)
	}
	if _, err := semver.NewVersion(a.APIVersion); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidAPIVersion, a.APIVersion, err)
	}
	return nil
}

// URL returns the API base URL. BaseURL wins when set; otherwise the hosted
// sandbox or live URL for the sub-domain is built. The version is rendered as
// major.minor, which is how the API paths name it.
func (a APIConfig) URL() (string, error) {
	if a.BaseURL != "" {
		return a.BaseURL, nil
	}
	if err := a.Validate(); err != nil {
		return "", err
	}

	v, _ := semver.NewVersion(a.APIVersion)
	version := fmt.Sprintf("%d.%d", v.Major(), v.Minor())

	tmpl := sandboxURLTemplate
	if a.Environment == EnvLive {
		tmpl = liveURLTemplate
	}
	return fmt.Sprintf(tmpl, a.SubDomain, version), nil
}

// Validate checks the mover section.
func (m MoverConfig) Validate() error {
	if strings.TrimSpace(m.From) == "" {
		return ErrSourceRequired
	}
	if strings.TrimSpace(m.To) == "" {
		return ErrTargetRequired
	}
	if m.From == m.To {
		return fmt.Errorf("%w: both are %q", ErrSameQueue, m.From)
	}
	if m.AgeMonths <= 0 {
		return fmt.Errorf("%w: got %d", ErrAgeNotPositive, m.AgeMonths)
	}
	if m.PageSize < 1 || m.PageSize > MaxPageSize {
		return fmt.Errorf("%w: got %d", ErrPageSizeOutOfRange, m.PageSize)
	}
	if m.MaxPages < 1 {
		return fmt.Errorf("%w: got %d", ErrMaxPagesTooSmall, m.MaxPages)
	}
	return nil
}

// Validate checks the API and mover sections.
func (c *Config) Validate() error {
	if err := c.API.Validate(); err != nil {
		return fmt.Errorf("api config: %w", err)
	}
	if err := c.Mover.Validate(); err != nil {
		return fmt.Errorf("mover config: %w", err)
	}
	return nil
}

// ToLoggingConfig converts the logging section for the logging package.
func (lc LoggingConfig) ToLoggingConfig() logging.Config {
	output := logging.OutputStderr
	if lc.File != "" {
		output = logging.OutputFile
	}
	return logging.Config{
		Level:  lc.Level,
		Format: lc.Format,
		Output: output,
		File:   lc.File,
		Caller: lc.Caller,
	}
}
