package config

import "time"

// Config is the complete application configuration, assembled from
// defaults, an optional YAML config file, and environment variables.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Resolver  ResolverConfig  `mapstructure:"resolver"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Registry  RegistryConfig  `mapstructure:"registry"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Logging   LoggingConfig   `mapstructure:"logging"`

	RateLimits      map[string]int `mapstructure:"rate_limits"`
	RateLimitMargin float64        `mapstructure:"rate_limit_margin"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig contains database configuration for libsql/Turso.
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// CacheConfig contains availability cache TTL configuration. Negative
// and error observations expire quickly so recoverable failures are
// retried; taken domains are stable and cache longer.
type CacheConfig struct {
	AvailableTTL time.Duration `mapstructure:"available_ttl"`
	TakenTTL     time.Duration `mapstructure:"taken_ttl"`
	ErrorTTL     time.Duration `mapstructure:"error_ttl"`
}

// ResolverConfig contains per-phase deadlines for single-domain
// resolution.
type ResolverConfig struct {
	CacheDeadline time.Duration `mapstructure:"cache_deadline"`
	DNSTimeout    time.Duration `mapstructure:"dns_timeout"`
	RDAPTimeout   time.Duration `mapstructure:"rdap_timeout"`
	WhoisTimeout  time.Duration `mapstructure:"whois_timeout"`
}

// SchedulerConfig contains batch scheduling defaults. Per-request
// options override these.
type SchedulerConfig struct {
	Parallelism      int `mapstructure:"parallelism"`
	IndividualCount  int `mapstructure:"individual_count"`
	GroupSize        int `mapstructure:"group_size"`
	GroupParallelism int `mapstructure:"group_parallelism"`
}

// RegistryConfig contains registry directory configuration.
type RegistryConfig struct {
	// BootstrapURL overrides the IANA RDAP bootstrap document location.
	BootstrapURL string `mapstructure:"bootstrap_url"`
	// Servers maps a TLD to explicit RDAP base URLs, overriding both the
	// bootstrap store and the built-in directory.
	Servers map[string][]string `mapstructure:"servers"`
}

// ProviderConfig contains bulk provider configuration.
type ProviderConfig struct {
	Namecheap NamecheapConfig `mapstructure:"namecheap"`
}

// NamecheapConfig contains Namecheap API credentials and endpoint.
type NamecheapConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	BaseURL  string        `mapstructure:"base_url"`
	APIUser  string        `mapstructure:"api_user"`
	APIKey   string        `mapstructure:"api_key"`
	Username string        `mapstructure:"username"`
	ClientIP string        `mapstructure:"client_ip"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level controls the minimum log level.
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	// Profile selects the logging complexity level.
	// Valid values: SIMPLE, STRUCTURED, ENTERPRISE
	Profile string `mapstructure:"profile"`
}
